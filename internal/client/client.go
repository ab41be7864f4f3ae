// Package client provides a narrow, mockable surface over the Slack Web
// API, limited to the calls that the MCP tools actually make.
package client

import (
	"context"
	"errors"

	"github.com/slack-go/slack"
	"golang.org/x/time/rate"
)

//go:generate mockgen -destination mock_client/mock_client.go . Slack

// Slack is the subset of the Slack Web API methods used by this server.
type Slack interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error)
	GetUsersContext(ctx context.Context, options ...slack.GetUsersOption) ([]slack.User, error)
	GetUserProfileContext(ctx context.Context, params *slack.GetUserProfileParameters) (*slack.UserProfile, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	AddReactionContext(ctx context.Context, name string, item slack.ItemRef) error
}

// ErrNoToken is returned by New when the bot token is empty.
var ErrNoToken = errors.New("missing slack bot token")

// Web API rate limits are tiered per method; conversations.list is the
// strictest method we call (Tier 2, 20+ requests per minute).  A single
// limiter covers all calls, tuned to that tier.
// https://api.slack.com/docs/rate-limits
const (
	defPerMinute = 20
	defBurst     = 3
)

var _ Slack = (*Client)(nil)

// Client implements Slack on top of *slack.Client, waiting on a rate
// limiter before every outbound call.  It performs no retries: a rate
// limited or failed call is returned to the caller as is.
type Client struct {
	cl  *slack.Client
	lim *rate.Limiter
	wi  *slack.AuthTestResponse
}

type options struct {
	lim      *rate.Limiter
	slackOpt []slack.Option
}

type Option func(*options)

// WithLimiter overrides the default client side rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(o *options) {
		if l != nil {
			o.lim = l
		}
	}
}

// WithSlackOptions passes additional options to the underlying slack
// client, i.e. slack.OptionAPIURL for tests.
func WithSlackOptions(opt ...slack.Option) Option {
	return func(o *options) {
		o.slackOpt = append(o.slackOpt, opt...)
	}
}

// New creates a Client authenticated with the given bot token.  It runs
// an auth.test call to validate the credential, so a bad token fails
// here rather than on the first tool call.
func New(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	opt := options{
		lim: rate.NewLimiter(rate.Limit(defPerMinute)/60.0, defBurst),
	}
	for _, o := range opts {
		o(&opt)
	}
	c := &Client{
		cl:  slack.New(token, opt.slackOpt...),
		lim: opt.lim,
	}
	wi, err := c.AuthTestContext(ctx)
	if err != nil {
		return nil, err
	}
	c.wi = wi
	return c, nil
}

// Wrap wraps an existing *slack.Client with the default limiter.
// Intended for testing.
func Wrap(cl *slack.Client) *Client {
	return &Client{
		cl:  cl,
		lim: rate.NewLimiter(rate.Limit(defPerMinute)/60.0, defBurst),
	}
}

// AuthResponse returns the auth.test response captured by New, or nil
// if the client was created with Wrap.
func (c *Client) AuthResponse() *slack.AuthTestResponse {
	return c.wi
}

func (c *Client) AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return nil, err
	}
	return c.cl.AuthTestContext(ctx)
}

func (c *Client) GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return nil, "", err
	}
	return c.cl.GetConversationsContext(ctx, params)
}

func (c *Client) GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return nil, err
	}
	return c.cl.GetConversationHistoryContext(ctx, params)
}

func (c *Client) GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return nil, false, "", err
	}
	return c.cl.GetConversationRepliesContext(ctx, params)
}

func (c *Client) GetUsersContext(ctx context.Context, options ...slack.GetUsersOption) ([]slack.User, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return nil, err
	}
	return c.cl.GetUsersContext(ctx, options...)
}

func (c *Client) GetUserProfileContext(ctx context.Context, params *slack.GetUserProfileParameters) (*slack.UserProfile, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return nil, err
	}
	return c.cl.GetUserProfileContext(ctx, params)
}

func (c *Client) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return "", "", err
	}
	return c.cl.PostMessageContext(ctx, channelID, options...)
}

func (c *Client) AddReactionContext(ctx context.Context, name string, item slack.ItemRef) error {
	if err := c.lim.Wait(ctx); err != nil {
		return err
	}
	return c.cl.AddReactionContext(ctx, name, item)
}
