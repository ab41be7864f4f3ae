// Package mcp implements the MCP server that exposes a Slack workspace
// as a set of tools.
package mcp

// In this file: MCP server construction and transport management.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/KaranThink41/Official-Slack-MCP/internal/client"
	"github.com/KaranThink41/Official-Slack-MCP/internal/workspace"
)

const (
	serverName    = "slack-mcp"
	serverVersion = "1.0.0"
)

// Transport selects how the MCP server communicates with its client.
type Transport string

const (
	// TransportStdio uses stdin/stdout for communication (default,
	// suitable for local agent integrations such as Claude Desktop).
	TransportStdio Transport = "stdio"
	// TransportHTTP uses Streamable HTTP transport (suitable for remote
	// agents or when multiple concurrent clients are needed).
	TransportHTTP Transport = "http"
)

// Server wraps an MCP server and the Slack client it dispatches to.
type Server struct {
	mcp    *mcpsrv.MCPServer
	api    client.Slack
	finder *workspace.Finder
	teamID string
	logger *slog.Logger

	// The bot's own user ID, resolved via auth.test on first use of the
	// mentions tool and kept for the lifetime of the process.
	selfMu sync.Mutex
	selfID string
}

// Option is a functional option for New.
type Option func(*Server)

// WithLogger sets the logger.  A nil logger falls back to slog.Default().
func WithLogger(lg *slog.Logger) Option {
	return func(s *Server) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// WithSelfUserID pre-seeds the bot's own user ID so that the mentions
// tool does not need to call auth.test.  Useful when the caller already
// holds an auth.test response from client.New.
func WithSelfUserID(id string) Option {
	return func(s *Server) {
		s.selfID = id
	}
}

// New creates a new MCP server talking to the workspace identified by
// teamID through api.  The server is populated with all tools but does
// not start listening until one of the Serve* methods is called.
func New(api client.Slack, teamID string, opts ...Option) *Server {
	s := &Server{
		api:    api,
		teamID: teamID,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.finder = workspace.NewFinder(api, teamID, s.logger)

	mcpServer := mcpsrv.NewMCPServer(
		serverName,
		serverVersion,
		mcpsrv.WithInstructions(instructions(teamID)),
	)

	// Register all tools.
	for _, t := range s.tools() {
		mcpServer.AddTool(t.Tool, t.Handler)
	}

	s.mcp = mcpServer
	return s
}

// instructions returns the server instructions shown to the connecting
// agent.
func instructions(teamID string) string {
	return fmt.Sprintf(`You are connected to a Slack MCP server for workspace %s.

Available tools allow you to:
- List channels and users
- Post messages and thread replies
- Add reactions to messages
- Read channel history and thread replies
- Find recent messages that mention the bot (get_my_mentions)

Channel-addressing tools accept either channel_id or channel_name; only
the first 200 channels of the workspace are searched when resolving a
name.  Timestamps use Slack's format (Unix epoch as decimal string,
e.g. "1609459200.000001").
`, teamID)
}

// ServeStdio runs the MCP server over stdin/stdout until ctx is cancelled.
// This is the standard transport used by local agent integrations.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := mcpsrv.NewStdioServer(s.mcp)
	s.logger.InfoContext(ctx, "mcp server listening on stdio")
	if err := srv.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("mcp stdio server error: %w", err)
	}
	return nil
}

// ServeHTTP runs the MCP server as a Streamable HTTP server on addr until
// ctx is cancelled.  addr should be a host:port string such as "127.0.0.1:8483".
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	httpSrv := &http.Server{Addr: addr}
	streamSrv := mcpsrv.NewStreamableHTTPServer(s.mcp,
		mcpsrv.WithStreamableHTTPServer(httpSrv),
	)

	s.logger.InfoContext(ctx, "mcp server listening on http", "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := streamSrv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("mcp http server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.InfoContext(ctx, "mcp server shutting down")
		if err := streamSrv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("mcp http server shutdown error: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// tools returns all MCP tools that this server exposes.
func (s *Server) tools() []mcpsrv.ServerTool {
	return []mcpsrv.ServerTool{
		s.toolListChannels(),
		s.toolPostMessage(),
		s.toolReplyToThread(),
		s.toolAddReaction(),
		s.toolGetChannelHistory(),
		s.toolGetThreadReplies(),
		s.toolGetUsers(),
		s.toolGetUserProfile(),
		s.toolGetMyMentions(),
	}
}

// selfUserID returns the authenticated bot's own user ID, resolving it
// via auth.test on first use.  A successful lookup is cached for the
// process lifetime; a failed one is not, so a transient auth failure
// does not poison subsequent calls.
func (s *Server) selfUserID(ctx context.Context) (string, error) {
	s.selfMu.Lock()
	defer s.selfMu.Unlock()
	if s.selfID != "" {
		return s.selfID, nil
	}
	resp, err := s.api.AuthTestContext(ctx)
	if err != nil {
		return "", fmt.Errorf("auth.test: %w", err)
	}
	s.selfID = resp.UserID
	return s.selfID, nil
}

// resultText is a helper that wraps text in a successful CallToolResult.
func resultText(text string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(text)
}

// resultErr is a helper that wraps an error in a CallToolResult with IsError=true.
func resultErr(err error) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(err.Error())},
		IsError: true,
	}
}

// resultJSON is a helper that serialises v to JSON and returns a CallToolResult.
func resultJSON(v any) (*mcplib.CallToolResult, error) {
	return mcplib.NewToolResultJSON(v)
}

// stringArg extracts a named string argument from a tool call request.
// Returns ("", false) if the argument is absent or not a string.
func stringArg(req mcplib.CallToolRequest, name string) (string, bool) {
	args := req.GetArguments()
	if args == nil {
		return "", false
	}
	v, ok := args[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// intArg extracts a named int argument from a tool call request.  The MCP
// protocol serialises numbers as float64, so we convert accordingly.
func intArg(req mcplib.CallToolRequest, name string, defaultVal int) int {
	args := req.GetArguments()
	if args == nil {
		return defaultVal
	}
	v, ok := args[name]
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return defaultVal
}
