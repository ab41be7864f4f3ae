package mcp

// In this file: MCP tool definitions and handler implementations.

import (
	"context"
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"
	"github.com/slack-go/slack"

	"github.com/KaranThink41/Official-Slack-MCP/internal/workspace"
)

const (
	defChannelLimit = 100
	maxChannelLimit = workspace.ChannelPageSize

	defHistoryLimit = 10
	maxHistoryLimit = 1000

	defReplyLimit = 100

	defUserLimit = 100
	maxUserLimit = 1000

	defMentionLimit = 10
	maxMentionLimit = 200
)

// withChannelSelector appends the channel_id/channel_name argument pair
// to a tool definition.  Exactly one of the two must be supplied by the
// caller; the flat schema cannot express the XOR, so the descriptions
// state it.
func withChannelSelector(opts ...mcplib.ToolOption) []mcplib.ToolOption {
	return append([]mcplib.ToolOption{
		mcplib.WithString("channel_id",
			mcplib.Description("The Slack channel ID (e.g. C01234ABCD). Provide either channel_id or channel_name."),
		),
		mcplib.WithString("channel_name",
			mcplib.Description("The Slack channel name (e.g. \"general\", exact match). Provide either channel_id or channel_name."),
		),
	}, opts...)
}

// channelArg resolves the channel_id/channel_name argument pair into a
// channel ID.
func (s *Server) channelArg(ctx context.Context, req mcplib.CallToolRequest) (string, error) {
	id, _ := stringArg(req, "channel_id")
	name, _ := stringArg(req, "channel_name")
	return s.finder.ResolveChannelID(ctx, id, name)
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi int) int {
	return max(min(v, hi), lo)
}

// ─── slack_list_channels ──────────────────────────────────────────────────────

func (s *Server) toolListChannels() mcpsrv.ServerTool {
	tool := mcplib.NewTool("slack_list_channels",
		mcplib.WithDescription("List public channels in the workspace. Returns channel IDs, names, topics, and member counts, plus a cursor for the next page."),
		mcplib.WithNumber("limit",
			mcplib.Description("Maximum number of channels to return (1-200, default 100)"),
		),
		mcplib.WithString("cursor",
			mcplib.Description("Pagination cursor from a previous call"),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleListChannels}
}

// channelSummary is a JSON-serialisable summary of a Slack channel.
type channelSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsArchived  bool   `json:"is_archived,omitempty"`
	MemberCount int    `json:"num_members,omitempty"`
	Topic       string `json:"topic,omitempty"`
	Purpose     string `json:"purpose,omitempty"`
}

// channelListResult is the response payload of slack_list_channels.
type channelListResult struct {
	Channels   []channelSummary `json:"channels"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func (s *Server) handleListChannels(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	limit := clamp(intArg(req, "limit", defChannelLimit), 1, maxChannelLimit)
	cursor, _ := stringArg(req, "cursor")

	channels, next, err := s.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
		TeamID:          s.teamID,
		Types:           []string{"public_channel"},
		ExcludeArchived: true,
		Limit:           limit,
		Cursor:          cursor,
	})
	if err != nil {
		return resultErr(fmt.Errorf("slack_list_channels: %w", err)), nil
	}

	out := channelListResult{
		Channels:   make([]channelSummary, 0, len(channels)),
		NextCursor: next,
	}
	for _, c := range channels {
		out.Channels = append(out.Channels, channelSummary{
			ID:          c.ID,
			Name:        c.Name,
			IsArchived:  c.IsArchived,
			MemberCount: c.NumMembers,
			Topic:       c.Topic.Value,
			Purpose:     c.Purpose.Value,
		})
	}

	result, err := resultJSON(out)
	if err != nil {
		return resultErr(fmt.Errorf("slack_list_channels: serialise: %w", err)), nil
	}
	return result, nil
}

// ─── slack_post_message ───────────────────────────────────────────────────────

func (s *Server) toolPostMessage() mcpsrv.ServerTool {
	tool := mcplib.NewTool("slack_post_message", withChannelSelector(
		mcplib.WithDescription("Post a new message to a Slack channel."),
		mcplib.WithString("text",
			mcplib.Description("The message text to post"),
			mcplib.Required(),
		),
	)...)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handlePostMessage}
}

// postResult is the response payload of the posting tools.
type postResult struct {
	OK        bool   `json:"ok"`
	ChannelID string `json:"channel"`
	Timestamp string `json:"ts"`
}

func (s *Server) handlePostMessage(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	text, ok := stringArg(req, "text")
	if !ok || text == "" {
		return resultErr(errors.New("slack_post_message: text is required")), nil
	}
	channelID, err := s.channelArg(ctx, req)
	if err != nil {
		return resultErr(fmt.Errorf("slack_post_message: %w", err)), nil
	}

	ch, ts, err := s.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return resultErr(fmt.Errorf("slack_post_message: %w", err)), nil
	}

	s.logger.InfoContext(ctx, "mcp: message posted", "channel", ch, "ts", ts)
	result, err := resultJSON(postResult{OK: true, ChannelID: ch, Timestamp: ts})
	if err != nil {
		return resultErr(fmt.Errorf("slack_post_message: serialise: %w", err)), nil
	}
	return result, nil
}

// ─── slack_reply_to_thread ────────────────────────────────────────────────────

func (s *Server) toolReplyToThread() mcpsrv.ServerTool {
	tool := mcplib.NewTool("slack_reply_to_thread", withChannelSelector(
		mcplib.WithDescription("Reply to a message thread in a Slack channel."),
		mcplib.WithString("thread_ts",
			mcplib.Description("The timestamp of the parent message (Slack ts format, e.g. \"1609459200.000001\")"),
			mcplib.Required(),
		),
		mcplib.WithString("text",
			mcplib.Description("The reply text to post"),
			mcplib.Required(),
		),
	)...)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleReplyToThread}
}

func (s *Server) handleReplyToThread(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	threadTS, ok := stringArg(req, "thread_ts")
	if !ok || threadTS == "" {
		return resultErr(errors.New("slack_reply_to_thread: thread_ts is required")), nil
	}
	text, ok := stringArg(req, "text")
	if !ok || text == "" {
		return resultErr(errors.New("slack_reply_to_thread: text is required")), nil
	}
	channelID, err := s.channelArg(ctx, req)
	if err != nil {
		return resultErr(fmt.Errorf("slack_reply_to_thread: %w", err)), nil
	}

	ch, ts, err := s.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionTS(threadTS),
	)
	if err != nil {
		return resultErr(fmt.Errorf("slack_reply_to_thread: %w", err)), nil
	}

	result, err := resultJSON(postResult{OK: true, ChannelID: ch, Timestamp: ts})
	if err != nil {
		return resultErr(fmt.Errorf("slack_reply_to_thread: serialise: %w", err)), nil
	}
	return result, nil
}

// ─── slack_add_reaction ───────────────────────────────────────────────────────

func (s *Server) toolAddReaction() mcpsrv.ServerTool {
	tool := mcplib.NewTool("slack_add_reaction", withChannelSelector(
		mcplib.WithDescription("Add an emoji reaction to a message."),
		mcplib.WithString("timestamp",
			mcplib.Description("The timestamp of the message to react to"),
			mcplib.Required(),
		),
		mcplib.WithString("reaction",
			mcplib.Description("The emoji name without colons (e.g. \"thumbsup\")"),
			mcplib.Required(),
		),
	)...)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleAddReaction}
}

func (s *Server) handleAddReaction(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	timestamp, ok := stringArg(req, "timestamp")
	if !ok || timestamp == "" {
		return resultErr(errors.New("slack_add_reaction: timestamp is required")), nil
	}
	reaction, ok := stringArg(req, "reaction")
	if !ok || reaction == "" {
		return resultErr(errors.New("slack_add_reaction: reaction is required")), nil
	}
	channelID, err := s.channelArg(ctx, req)
	if err != nil {
		return resultErr(fmt.Errorf("slack_add_reaction: %w", err)), nil
	}

	if err := s.api.AddReactionContext(ctx, reaction, slack.NewRefToMessage(channelID, timestamp)); err != nil {
		return resultErr(fmt.Errorf("slack_add_reaction: %w", err)), nil
	}
	return resultText(fmt.Sprintf("Reaction :%s: added to message %s in %s.", reaction, timestamp, channelID)), nil
}

// ─── slack_get_channel_history ────────────────────────────────────────────────

func (s *Server) toolGetChannelHistory() mcpsrv.ServerTool {
	tool := mcplib.NewTool("slack_get_channel_history", withChannelSelector(
		mcplib.WithDescription("Get recent messages from a channel, newest first."),
		mcplib.WithNumber("limit",
			mcplib.Description("Number of messages to retrieve (default 10)"),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)...)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetChannelHistory}
}

// messageSummary is a JSON-serialisable summary of a Slack message.
type messageSummary struct {
	Timestamp  string `json:"ts"`
	UserID     string `json:"user,omitempty"`
	Text       string `json:"text,omitempty"`
	ReplyCount int    `json:"reply_count,omitempty"`
	ThreadTS   string `json:"thread_ts,omitempty"`
	Subtype    string `json:"subtype,omitempty"`
}

// historyResult is the response payload of slack_get_channel_history.
type historyResult struct {
	Messages   []messageSummary `json:"messages"`
	HasMore    bool             `json:"has_more,omitempty"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func summarise(msgs []slack.Message) []messageSummary {
	out := make([]messageSummary, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageSummary{
			Timestamp:  m.Timestamp,
			UserID:     m.User,
			Text:       m.Text,
			ReplyCount: m.ReplyCount,
			ThreadTS:   m.ThreadTimestamp,
			Subtype:    m.SubType,
		})
	}
	return out
}

func (s *Server) handleGetChannelHistory(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	channelID, err := s.channelArg(ctx, req)
	if err != nil {
		return resultErr(fmt.Errorf("slack_get_channel_history: %w", err)), nil
	}
	limit := clamp(intArg(req, "limit", defHistoryLimit), 1, maxHistoryLimit)

	resp, err := s.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     limit,
	})
	if err != nil {
		return resultErr(fmt.Errorf("slack_get_channel_history: %w", err)), nil
	}

	result, err := resultJSON(historyResult{
		Messages:   summarise(resp.Messages),
		HasMore:    resp.HasMore,
		NextCursor: resp.ResponseMetaData.NextCursor,
	})
	if err != nil {
		return resultErr(fmt.Errorf("slack_get_channel_history: serialise: %w", err)), nil
	}
	return result, nil
}

// ─── slack_get_thread_replies ─────────────────────────────────────────────────

func (s *Server) toolGetThreadReplies() mcpsrv.ServerTool {
	tool := mcplib.NewTool("slack_get_thread_replies", withChannelSelector(
		mcplib.WithDescription("Get all replies in a message thread, including the parent message."),
		mcplib.WithString("thread_ts",
			mcplib.Description("The timestamp of the parent message (Slack ts format, e.g. \"1609459200.000001\")"),
			mcplib.Required(),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)...)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetThreadReplies}
}

func (s *Server) handleGetThreadReplies(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	threadTS, ok := stringArg(req, "thread_ts")
	if !ok || threadTS == "" {
		return resultErr(errors.New("slack_get_thread_replies: thread_ts is required")), nil
	}
	channelID, err := s.channelArg(ctx, req)
	if err != nil {
		return resultErr(fmt.Errorf("slack_get_thread_replies: %w", err)), nil
	}

	msgs, _, _, err := s.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: threadTS,
		Limit:     defReplyLimit,
	})
	if err != nil {
		return resultErr(fmt.Errorf("slack_get_thread_replies: %w", err)), nil
	}

	result, err := resultJSON(summarise(msgs))
	if err != nil {
		return resultErr(fmt.Errorf("slack_get_thread_replies: serialise: %w", err)), nil
	}
	return result, nil
}

// ─── slack_get_users ──────────────────────────────────────────────────────────

func (s *Server) toolGetUsers() mcpsrv.ServerTool {
	tool := mcplib.NewTool("slack_get_users",
		mcplib.WithDescription("List users in the workspace with their basic profile information."),
		mcplib.WithNumber("limit",
			mcplib.Description("Maximum number of users to return (default 100)"),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetUsers}
}

// userSummary is a JSON-serialisable summary of a Slack user.
type userSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RealName    string `json:"real_name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	IsBot       bool   `json:"is_bot,omitempty"`
	IsDeleted   bool   `json:"deleted,omitempty"`
}

func (s *Server) handleGetUsers(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	limit := clamp(intArg(req, "limit", defUserLimit), 1, maxUserLimit)

	users, err := s.api.GetUsersContext(ctx, slack.GetUsersOptionLimit(limit))
	if err != nil {
		return resultErr(fmt.Errorf("slack_get_users: %w", err)), nil
	}
	if len(users) > limit {
		users = users[:limit]
	}

	summaries := make([]userSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, userSummary{
			ID:          u.ID,
			Name:        u.Name,
			RealName:    u.RealName,
			DisplayName: u.Profile.DisplayName,
			IsBot:       u.IsBot,
			IsDeleted:   u.Deleted,
		})
	}

	result, err := resultJSON(summaries)
	if err != nil {
		return resultErr(fmt.Errorf("slack_get_users: serialise: %w", err)), nil
	}
	return result, nil
}

// ─── slack_get_user_profile ───────────────────────────────────────────────────

func (s *Server) toolGetUserProfile() mcpsrv.ServerTool {
	tool := mcplib.NewTool("slack_get_user_profile",
		mcplib.WithDescription("Get detailed profile information for a specific user."),
		mcplib.WithString("user_id",
			mcplib.Description("The Slack user ID (e.g. U01234ABCD)"),
			mcplib.Required(),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetUserProfile}
}

func (s *Server) handleGetUserProfile(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	userID, ok := stringArg(req, "user_id")
	if !ok || userID == "" {
		return resultErr(errors.New("slack_get_user_profile: user_id is required")), nil
	}

	profile, err := s.api.GetUserProfileContext(ctx, &slack.GetUserProfileParameters{
		UserID: userID,
	})
	if err != nil {
		return resultErr(fmt.Errorf("slack_get_user_profile: %w", err)), nil
	}

	result, err := resultJSON(profile)
	if err != nil {
		return resultErr(fmt.Errorf("slack_get_user_profile: serialise: %w", err)), nil
	}
	return result, nil
}

// ─── get_my_mentions ──────────────────────────────────────────────────────────

func (s *Server) toolGetMyMentions() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_my_mentions", withChannelSelector(
		mcplib.WithDescription(`Find recent messages that mention the bot.

Without a channel, every visible public channel (up to the first 200) is
scanned sequentially.  With channel_id or channel_name, only that channel
is scanned.`),
		mcplib.WithNumber("limit",
			mcplib.Description("Maximum number of mentions to return (default 10)"),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)...)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetMyMentions}
}

func (s *Server) handleGetMyMentions(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	limit := clamp(intArg(req, "limit", defMentionLimit), 1, maxMentionLimit)

	// The channel scope is optional here: no selector means scan
	// everything, so the resolver is only consulted when one is given.
	id, _ := stringArg(req, "channel_id")
	name, _ := stringArg(req, "channel_name")
	var channelID string
	if id != "" || name != "" {
		var err error
		channelID, err = s.finder.ResolveChannelID(ctx, id, name)
		if err != nil {
			return resultErr(fmt.Errorf("get_my_mentions: %w", err)), nil
		}
	}

	selfID, err := s.selfUserID(ctx)
	if err != nil {
		return resultErr(fmt.Errorf("get_my_mentions: %w", err)), nil
	}

	mentions, err := s.finder.Mentions(ctx, channelID, selfID, limit)
	if err != nil {
		return resultErr(fmt.Errorf("get_my_mentions: %w", err)), nil
	}

	result, err := resultJSON(mentions)
	if err != nil {
		return resultErr(fmt.Errorf("get_my_mentions: serialise: %w", err)), nil
	}
	return result, nil
}
