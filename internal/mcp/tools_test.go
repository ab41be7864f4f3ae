package mcp

import (
	"errors"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/KaranThink41/Official-Slack-MCP/internal/client/mock_client"
)

// channel builds a minimal channel fixture.
func channel(id, name string) slack.Channel {
	return slack.Channel{
		GroupConversation: slack.GroupConversation{
			Conversation: slack.Conversation{ID: id, NameNormalized: name},
			Name:         name,
		},
	}
}

// message builds a minimal message fixture.
func message(ts, user, text string) slack.Message {
	return slack.Message{Msg: slack.Msg{Timestamp: ts, User: user, Text: text}}
}

// ─── handleListChannels ───────────────────────────────────────────────────────

func TestHandleListChannels(t *testing.T) {
	tests := []struct {
		name        string
		args        map[string]any
		setup       func(m *mock_client.MockSlack)
		wantIsError bool
		wantText    string // substring expected in first text content
	}{
		{
			name: "returns channel list as JSON with cursor",
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().GetConversationsContext(gomock.Any(), gomock.Any()).Return(
					[]slack.Channel{channel("C1", "general"), channel("C2", "random")},
					"cur123", nil,
				)
			},
			wantText: "cur123",
		},
		{
			name: "limit is clamped to the page maximum",
			args: map[string]any{"limit": float64(10000)},
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().GetConversationsContext(gomock.Any(),
					gomock.Cond(func(p *slack.GetConversationsParameters) bool {
						return p.Limit == maxChannelLimit
					})).Return([]slack.Channel{}, "", nil)
			},
			wantText: "channels",
		},
		{
			name: "upstream failure returns error result",
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().GetConversationsContext(gomock.Any(), gomock.Any()).
					Return(nil, "", errors.New("invalid_auth"))
			},
			wantIsError: true,
			wantText:    "invalid_auth",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, m := newTestServer(t)
			tt.setup(m)

			result, err := srv.handleListChannels(t.Context(), toolReq(tt.args))
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.wantIsError, isErrorResult(result))
			if tt.wantText != "" {
				assert.Contains(t, firstText(t, result), tt.wantText)
			}
		})
	}
}

// ─── handlePostMessage ────────────────────────────────────────────────────────

func TestHandlePostMessage(t *testing.T) {
	tests := []struct {
		name        string
		args        map[string]any
		setup       func(m *mock_client.MockSlack)
		wantIsError bool
		wantText    string
	}{
		{
			name:        "missing text returns error result without an upstream call",
			args:        map[string]any{"channel_id": "C1"},
			setup:       func(m *mock_client.MockSlack) {},
			wantIsError: true,
			wantText:    "text",
		},
		{
			name:        "missing channel selector returns error result",
			args:        map[string]any{"text": "hi"},
			setup:       func(m *mock_client.MockSlack) {},
			wantIsError: true,
			wantText:    "channel_id",
		},
		{
			name: "posts to explicit channel ID",
			args: map[string]any{"channel_id": "C1", "text": "hi"},
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().PostMessageContext(gomock.Any(), "C1", gomock.Any()).
					Return("C1", "1700000000.000100", nil)
			},
			wantText: "1700000000.000100",
		},
		{
			name: "resolves channel name before posting",
			args: map[string]any{"channel_name": "general", "text": "hi"},
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().GetConversationsContext(gomock.Any(), gomock.Any()).
					Return([]slack.Channel{channel("C1", "general")}, "", nil)
				m.EXPECT().PostMessageContext(gomock.Any(), "C1", gomock.Any()).
					Return("C1", "1700000000.000100", nil)
			},
			wantText: "\"ok\":true",
		},
		{
			name:        "unknown channel name returns error result",
			args:        map[string]any{"channel_name": "nope", "text": "hi"},
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().GetConversationsContext(gomock.Any(), gomock.Any()).
					Return([]slack.Channel{channel("C1", "general")}, "", nil)
			},
			wantIsError: true,
			wantText:    "nope",
		},
		{
			name: "upstream failure returns error result",
			args: map[string]any{"channel_id": "C1", "text": "hi"},
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().PostMessageContext(gomock.Any(), "C1", gomock.Any()).
					Return("", "", errors.New("not_in_channel"))
			},
			wantIsError: true,
			wantText:    "not_in_channel",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, m := newTestServer(t)
			tt.setup(m)

			result, err := srv.handlePostMessage(t.Context(), toolReq(tt.args))
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.wantIsError, isErrorResult(result))
			if tt.wantText != "" {
				assert.Contains(t, firstText(t, result), tt.wantText)
			}
		})
	}
}

// ─── handleReplyToThread ──────────────────────────────────────────────────────

func TestHandleReplyToThread(t *testing.T) {
	tests := []struct {
		name        string
		args        map[string]any
		setup       func(m *mock_client.MockSlack)
		wantIsError bool
		wantText    string
	}{
		{
			name:        "missing thread_ts returns error result",
			args:        map[string]any{"channel_id": "C1", "text": "hi"},
			setup:       func(m *mock_client.MockSlack) {},
			wantIsError: true,
			wantText:    "thread_ts",
		},
		{
			name:        "missing text returns error result",
			args:        map[string]any{"channel_id": "C1", "thread_ts": "1.000001"},
			setup:       func(m *mock_client.MockSlack) {},
			wantIsError: true,
			wantText:    "text",
		},
		{
			name: "replies in thread",
			args: map[string]any{"channel_id": "C1", "thread_ts": "1.000001", "text": "hi"},
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().PostMessageContext(gomock.Any(), "C1", gomock.Any(), gomock.Any()).
					Return("C1", "1.000002", nil)
			},
			wantText: "1.000002",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, m := newTestServer(t)
			tt.setup(m)

			result, err := srv.handleReplyToThread(t.Context(), toolReq(tt.args))
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.wantIsError, isErrorResult(result))
			if tt.wantText != "" {
				assert.Contains(t, firstText(t, result), tt.wantText)
			}
		})
	}
}

// ─── handleAddReaction ────────────────────────────────────────────────────────

func TestHandleAddReaction(t *testing.T) {
	tests := []struct {
		name        string
		args        map[string]any
		setup       func(m *mock_client.MockSlack)
		wantIsError bool
		wantText    string
	}{
		{
			name:        "missing timestamp returns error result",
			args:        map[string]any{"channel_id": "C1", "reaction": "thumbsup"},
			setup:       func(m *mock_client.MockSlack) {},
			wantIsError: true,
			wantText:    "timestamp",
		},
		{
			name:        "missing reaction returns error result",
			args:        map[string]any{"channel_id": "C1", "timestamp": "1.000001"},
			setup:       func(m *mock_client.MockSlack) {},
			wantIsError: true,
			wantText:    "reaction",
		},
		{
			name: "adds the reaction",
			args: map[string]any{"channel_id": "C1", "timestamp": "1.000001", "reaction": "thumbsup"},
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().AddReactionContext(gomock.Any(), "thumbsup",
					slack.NewRefToMessage("C1", "1.000001")).Return(nil)
			},
			wantText: "thumbsup",
		},
		{
			name: "upstream failure returns error result",
			args: map[string]any{"channel_id": "C1", "timestamp": "1.000001", "reaction": "thumbsup"},
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().AddReactionContext(gomock.Any(), "thumbsup", gomock.Any()).
					Return(errors.New("already_reacted"))
			},
			wantIsError: true,
			wantText:    "already_reacted",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, m := newTestServer(t)
			tt.setup(m)

			result, err := srv.handleAddReaction(t.Context(), toolReq(tt.args))
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.wantIsError, isErrorResult(result))
			if tt.wantText != "" {
				assert.Contains(t, firstText(t, result), tt.wantText)
			}
		})
	}
}

// ─── handleGetChannelHistory ──────────────────────────────────────────────────

func TestHandleGetChannelHistory(t *testing.T) {
	tests := []struct {
		name        string
		args        map[string]any
		setup       func(m *mock_client.MockSlack)
		wantIsError bool
		wantText    string
	}{
		{
			name:        "missing channel selector returns error result",
			args:        nil,
			setup:       func(m *mock_client.MockSlack) {},
			wantIsError: true,
			wantText:    "channel_id",
		},
		{
			name: "returns messages as JSON",
			args: map[string]any{"channel_id": "C1"},
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().GetConversationHistoryContext(gomock.Any(),
					gomock.Cond(func(p *slack.GetConversationHistoryParameters) bool {
						return p.ChannelID == "C1" && p.Limit == defHistoryLimit
					})).Return(&slack.GetConversationHistoryResponse{
					Messages: []slack.Message{message("2.000001", "U1", "world"), message("1.000001", "U1", "hello")},
				}, nil)
			},
			wantText: "hello",
		},
		{
			name: "upstream failure returns error result",
			args: map[string]any{"channel_id": "C1"},
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().GetConversationHistoryContext(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("channel_not_found"))
			},
			wantIsError: true,
			wantText:    "channel_not_found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, m := newTestServer(t)
			tt.setup(m)

			result, err := srv.handleGetChannelHistory(t.Context(), toolReq(tt.args))
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.wantIsError, isErrorResult(result))
			if tt.wantText != "" {
				assert.Contains(t, firstText(t, result), tt.wantText)
			}
		})
	}
}

// ─── handleGetThreadReplies ───────────────────────────────────────────────────

func TestHandleGetThreadReplies(t *testing.T) {
	tests := []struct {
		name        string
		args        map[string]any
		setup       func(m *mock_client.MockSlack)
		wantIsError bool
		wantText    string
	}{
		{
			name:        "missing thread_ts returns error result",
			args:        map[string]any{"channel_id": "C1"},
			setup:       func(m *mock_client.MockSlack) {},
			wantIsError: true,
			wantText:    "thread_ts",
		},
		{
			name: "returns thread messages as JSON",
			args: map[string]any{"channel_id": "C1", "thread_ts": "1.000001"},
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().GetConversationRepliesContext(gomock.Any(),
					gomock.Cond(func(p *slack.GetConversationRepliesParameters) bool {
						return p.ChannelID == "C1" && p.Timestamp == "1.000001"
					})).Return([]slack.Message{
					message("1.000001", "U1", "parent"),
					message("1.000002", "U2", "reply"),
				}, false, "", nil)
			},
			wantText: "parent",
		},
		{
			name: "upstream failure returns error result",
			args: map[string]any{"channel_id": "C1", "thread_ts": "1.000001"},
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().GetConversationRepliesContext(gomock.Any(), gomock.Any()).
					Return(nil, false, "", errors.New("thread_not_found"))
			},
			wantIsError: true,
			wantText:    "thread_not_found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, m := newTestServer(t)
			tt.setup(m)

			result, err := srv.handleGetThreadReplies(t.Context(), toolReq(tt.args))
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.wantIsError, isErrorResult(result))
			if tt.wantText != "" {
				assert.Contains(t, firstText(t, result), tt.wantText)
			}
		})
	}
}

// ─── handleGetUsers ───────────────────────────────────────────────────────────

func TestHandleGetUsers(t *testing.T) {
	tests := []struct {
		name        string
		args        map[string]any
		setup       func(m *mock_client.MockSlack)
		wantIsError bool
		wantText    string
		notText     string
	}{
		{
			name: "returns user list as JSON",
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().GetUsersContext(gomock.Any(), gomock.Any()).Return([]slack.User{
					{ID: "U1", Name: "alice", RealName: "Alice A"},
				}, nil)
			},
			wantText: "alice",
		},
		{
			name: "result is truncated to limit",
			args: map[string]any{"limit": float64(2)},
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().GetUsersContext(gomock.Any(), gomock.Any()).Return([]slack.User{
					{ID: "U1", Name: "alice"}, {ID: "U2", Name: "bob"}, {ID: "U3", Name: "carol"},
				}, nil)
			},
			wantText: "bob",
			notText:  "carol",
		},
		{
			name: "upstream failure returns error result",
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().GetUsersContext(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("ratelimited"))
			},
			wantIsError: true,
			wantText:    "ratelimited",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, m := newTestServer(t)
			tt.setup(m)

			result, err := srv.handleGetUsers(t.Context(), toolReq(tt.args))
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.wantIsError, isErrorResult(result))
			if tt.wantText != "" {
				assert.Contains(t, firstText(t, result), tt.wantText)
			}
			if tt.notText != "" {
				assert.NotContains(t, firstText(t, result), tt.notText)
			}
		})
	}
}

// ─── handleGetUserProfile ─────────────────────────────────────────────────────

func TestHandleGetUserProfile(t *testing.T) {
	tests := []struct {
		name        string
		args        map[string]any
		setup       func(m *mock_client.MockSlack)
		wantIsError bool
		wantText    string
	}{
		{
			name:        "missing user_id returns error result",
			args:        nil,
			setup:       func(m *mock_client.MockSlack) {},
			wantIsError: true,
			wantText:    "user_id",
		},
		{
			name: "returns profile as JSON",
			args: map[string]any{"user_id": "U1"},
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().GetUserProfileContext(gomock.Any(),
					&slack.GetUserProfileParameters{UserID: "U1"}).
					Return(&slack.UserProfile{RealName: "Alice A", DisplayName: "alice"}, nil)
			},
			wantText: "Alice A",
		},
		{
			name: "upstream failure returns error result",
			args: map[string]any{"user_id": "U1"},
			setup: func(m *mock_client.MockSlack) {
				m.EXPECT().GetUserProfileContext(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("user_not_found"))
			},
			wantIsError: true,
			wantText:    "user_not_found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, m := newTestServer(t)
			tt.setup(m)

			result, err := srv.handleGetUserProfile(t.Context(), toolReq(tt.args))
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.wantIsError, isErrorResult(result))
			if tt.wantText != "" {
				assert.Contains(t, firstText(t, result), tt.wantText)
			}
		})
	}
}

// ─── handleGetMyMentions ──────────────────────────────────────────────────────

func TestHandleGetMyMentions_scoped(t *testing.T) {
	srv, m := newTestServer(t)
	m.EXPECT().AuthTestContext(gomock.Any()).
		Return(&slack.AuthTestResponse{UserID: "UBOT"}, nil)
	// Scoped scan: no channel list call.
	m.EXPECT().GetConversationHistoryContext(gomock.Any(),
		gomock.Cond(func(p *slack.GetConversationHistoryParameters) bool {
			return p.ChannelID == "C1"
		})).Return(&slack.GetConversationHistoryResponse{
		Messages: []slack.Message{message("1.000001", "U9", "ping <@UBOT>")},
	}, nil)

	result, err := srv.handleGetMyMentions(t.Context(), toolReq(map[string]any{"channel_id": "C1"}))
	require.NoError(t, err)
	assert.False(t, isErrorResult(result))
	assert.Contains(t, firstText(t, result), "ping")
}

func TestHandleGetMyMentions_selfIDFetchedOnceAcrossScans(t *testing.T) {
	srv, m := newTestServer(t)
	m.EXPECT().AuthTestContext(gomock.Any()).
		Return(&slack.AuthTestResponse{UserID: "UBOT"}, nil).
		Times(1)
	m.EXPECT().GetConversationHistoryContext(gomock.Any(), gomock.Any()).
		Return(&slack.GetConversationHistoryResponse{}, nil).
		Times(2)

	for range 2 {
		result, err := srv.handleGetMyMentions(t.Context(), toolReq(map[string]any{"channel_id": "C1"}))
		require.NoError(t, err)
		assert.False(t, isErrorResult(result))
	}
}

func TestHandleGetMyMentions_unscoped(t *testing.T) {
	srv, m := newTestServer(t)
	m.EXPECT().AuthTestContext(gomock.Any()).
		Return(&slack.AuthTestResponse{UserID: "UBOT"}, nil)
	m.EXPECT().GetConversationsContext(gomock.Any(), gomock.Any()).
		Return([]slack.Channel{channel("C1", "general"), channel("C2", "random")}, "", nil)
	m.EXPECT().GetConversationHistoryContext(gomock.Any(), gomock.Any()).
		Return(&slack.GetConversationHistoryResponse{
			Messages: []slack.Message{message("1.000001", "U9", "hey <@UBOT>")},
		}, nil).
		Times(2)

	result, err := srv.handleGetMyMentions(t.Context(), toolReq(nil))
	require.NoError(t, err)
	assert.False(t, isErrorResult(result))
	assert.Contains(t, firstText(t, result), "C1")
	assert.Contains(t, firstText(t, result), "C2")
}

func TestHandleGetMyMentions_badChannelName(t *testing.T) {
	srv, m := newTestServer(t)
	// Resolution fails before auth.test or any history call.
	m.EXPECT().GetConversationsContext(gomock.Any(), gomock.Any()).
		Return([]slack.Channel{channel("C1", "general")}, "", nil)

	result, err := srv.handleGetMyMentions(t.Context(), toolReq(map[string]any{"channel_name": "nope"}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(result))
	assert.Contains(t, firstText(t, result), "nope")
}

func TestHandleGetMyMentions_authFailure(t *testing.T) {
	srv, m := newTestServer(t)
	m.EXPECT().AuthTestContext(gomock.Any()).Return(nil, errors.New("invalid_auth"))

	result, err := srv.handleGetMyMentions(t.Context(), toolReq(map[string]any{"channel_id": "C1"}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(result))
	assert.Contains(t, firstText(t, result), "invalid_auth")
}
