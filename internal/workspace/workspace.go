// Package workspace contains the channel resolution and mention
// scanning logic that backs the MCP tools.  It talks to Slack through
// the narrow client.Slack interface and holds no state of its own.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"

	"github.com/KaranThink41/Official-Slack-MCP/internal/client"
)

// ChannelPageSize is the number of channels requested from
// conversations.list.  Only this first page is ever examined.
const ChannelPageSize = 200

var (
	// ErrNotFound is returned when a channel name does not match any
	// channel on the first page of the channel list.
	ErrNotFound = errors.New("channel not found")
	// ErrNoSelector is returned when neither a channel ID nor a channel
	// name was provided.
	ErrNoSelector = errors.New("either channel_id or channel_name is required")
)

// Finder resolves channel references and scans message history.
type Finder struct {
	api    client.Slack
	teamID string
	lg     *slog.Logger
}

// NewFinder creates a Finder operating on the given workspace.  A nil
// logger falls back to slog.Default().
func NewFinder(api client.Slack, teamID string, lg *slog.Logger) *Finder {
	if lg == nil {
		lg = slog.Default()
	}
	return &Finder{api: api, teamID: teamID, lg: lg}
}

// Channels returns the visible public, non-archived channels of the
// workspace.  Only the first page (up to ChannelPageSize channels) is
// fetched; channels beyond it are invisible to ResolveChannelID and to
// the unscoped mention scan.  This is a known restriction carried over
// from the original server.
func (f *Finder) Channels(ctx context.Context) ([]slack.Channel, error) {
	channels, _, err := f.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
		TeamID:          f.teamID,
		Types:           []string{"public_channel"},
		ExcludeArchived: true,
		Limit:           ChannelPageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("conversations.list: %w", err)
	}
	return channels, nil
}

// ResolveChannelID turns a channel reference into a channel ID.  An
// explicit channelID is returned unchanged without any upstream call.
// Otherwise channelName is matched exactly (case sensitive) against the
// name and normalised name of each channel returned by Channels;
// a miss returns ErrNotFound wrapping the requested name.
func (f *Finder) ResolveChannelID(ctx context.Context, channelID, channelName string) (string, error) {
	if channelID != "" {
		return channelID, nil
	}
	if channelName == "" {
		return "", ErrNoSelector
	}
	channels, err := f.Channels(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range channels {
		if c.Name == channelName || c.NameNormalized == channelName {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, channelName)
}
