package workspace

// In this file: scanning channel history for mentions of a user.

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
)

// Marker returns the mention token for a user ID as it appears in
// message text, e.g. "<@U0123456>".  The closing bracket makes the
// substring check exact: searching for the "U123" marker never matches
// a "U1234" mention.
func Marker(userID string) string {
	return "<@" + userID + ">"
}

// Mention is a single message that mentions the target user.
type Mention struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user,omitempty"`
	Text      string `json:"text"`
	Timestamp string `json:"ts"`
	ThreadTS  string `json:"thread_ts,omitempty"`
}

// Mentions returns up to limit recent messages that mention userID.
// With a channelID, a single conversations.history call is made for
// that channel and no channel list is fetched.  Without one, every
// channel returned by Channels is scanned in list order, up to limit
// messages from each; a channel list failure aborts the scan, while a
// history failure for an individual channel is logged and skipped (bots
// routinely lack history access to some channels).
//
// Result order is the accumulation order: channel fetch order first,
// then the upstream (newest first) order within each channel.
func (f *Finder) Mentions(ctx context.Context, channelID, userID string, limit int) ([]Mention, error) {
	var scope []string
	if channelID != "" {
		scope = []string{channelID}
	} else {
		channels, err := f.Channels(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range channels {
			scope = append(scope, c.ID)
		}
	}

	marker := Marker(userID)
	found := []Mention{}
	for _, id := range scope {
		resp, err := f.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: id,
			Limit:     limit,
		})
		if err != nil {
			if channelID != "" {
				return nil, fmt.Errorf("conversations.history %s: %w", id, err)
			}
			f.lg.WarnContext(ctx, "mentions: skipping channel", "channel", id, "error", err)
			continue
		}
		for _, m := range resp.Messages {
			if !strings.Contains(m.Text, marker) {
				continue
			}
			found = append(found, Mention{
				ChannelID: id,
				UserID:    m.User,
				Text:      m.Text,
				Timestamp: m.Timestamp,
				ThreadTS:  m.ThreadTimestamp,
			})
		}
	}
	if len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}
