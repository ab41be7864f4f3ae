// Command slack-mcp is an MCP server that exposes a Slack workspace
// (channels, messages, threads, users, mentions) as callable tools.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rusq/osenv/v2"
	"github.com/rusq/tracer"

	"github.com/KaranThink41/Official-Slack-MCP/internal/client"
	"github.com/KaranThink41/Official-Slack-MCP/internal/mcp"
)

const (
	envBotToken = "SLACK_BOT_TOKEN"
	envTeamID   = "SLACK_TEAM_ID"
)

var build = "dev"

// secrets defines the names of the supported secret files that we load our
// secrets from.  Inexperienced windows users might have bad experience trying
// to create .env file with the notepad as it will battle for having the
// "txt" extension.  Let it have it.
var secrets = []string{".env", ".env.txt", "secrets.txt"}

// params is the command line parameters.
type params struct {
	token  string
	teamID string

	transport  string
	listenAddr string

	traceFile    string
	verbose      bool
	printVersion bool
}

func main() {
	loadSecrets(secrets)

	p, err := parseCmdLine(os.Args[1:])
	if err != nil {
		slog.Error("invalid parameters", "error", err)
		os.Exit(2)
	}
	if p.printVersion {
		fmt.Println(build)
		return
	}
	initLog(p.verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, p); err != nil {
		slog.Error("server terminated", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, p params) error {
	if err := p.validate(); err != nil {
		return err
	}
	if p.traceFile != "" {
		slog.Info("enabling trace", "file", p.traceFile)
		trc := tracer.New(p.traceFile)
		if err := trc.Start(); err != nil {
			return err
		}
		defer func() {
			if err := trc.End(); err != nil {
				slog.Warn("failed to write the trace file", "error", err)
			}
		}()
	}

	cl, err := client.New(ctx, p.token)
	if err != nil {
		return fmt.Errorf("slack client: %w", err)
	}
	wi := cl.AuthResponse()
	slog.Info("authenticated", "team", wi.Team, "user", wi.User)

	srv := mcp.New(cl, p.teamID,
		mcp.WithLogger(slog.Default()),
		mcp.WithSelfUserID(wi.UserID),
	)

	switch mcp.Transport(strings.ToLower(p.transport)) {
	case mcp.TransportStdio, "":
		return srv.ServeStdio(ctx)
	case mcp.TransportHTTP:
		return srv.ServeHTTP(ctx, p.listenAddr)
	default:
		return fmt.Errorf("unknown transport %q (use \"stdio\" or \"http\")", p.transport)
	}
}

// validate checks the startup-fatal configuration values.
func (p params) validate() error {
	if p.token == "" {
		return fmt.Errorf("missing bot token: set %s or use -token", envBotToken)
	}
	if p.teamID == "" {
		return fmt.Errorf("missing workspace ID: set %s or use -team", envTeamID)
	}
	return nil
}

// loadSecrets load secrets from the files in secrets slice.
func loadSecrets(files []string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// parseCmdLine parses the command line arguments.
func parseCmdLine(args []string) (params, error) {
	fs := flag.NewFlagSet("slack-mcp", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(
			fs.Output(),
			"Slack MCP server, %s\n"+
				"Exposes a Slack workspace as MCP tools over stdio or HTTP.\n\n"+
				"Usage:  %s [flags]\n\n",
			build, filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}

	var p params
	fs.StringVar(&p.token, "token", osenv.Secret(envBotToken, ""), "Slack bot `token` (environment: "+envBotToken+")")
	fs.StringVar(&p.teamID, "team", osenv.Value(envTeamID, ""), "Slack workspace/team `ID` (environment: "+envTeamID+")")
	fs.StringVar(&p.transport, "transport", "stdio", "MCP transport: \"stdio\" or \"http\"")
	fs.StringVar(&p.listenAddr, "listen", "127.0.0.1:8483", "`address` to listen on when -transport=http")
	fs.StringVar(&p.traceFile, "trace", os.Getenv("TRACE_FILE"), "trace `filename`")
	fs.BoolVar(&p.verbose, "v", osenv.Value("DEBUG", false), "verbose messages")
	fs.BoolVar(&p.printVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return p, err
	}
	if len(fs.Args()) > 0 {
		return p, errors.New("unexpected positional arguments")
	}
	return p, nil
}

// initLog sets up the default logger.  Logs go to stderr: on the stdio
// transport, stdout is the MCP wire.
func initLog(verbose bool) {
	lvl := slog.LevelInfo
	if verbose {
		lvl = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
