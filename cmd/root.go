package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/finboard/internal/api"
	"github.com/theirongolddev/finboard/internal/config"
	"github.com/theirongolddev/finboard/internal/logging"
	"github.com/theirongolddev/finboard/internal/pipeline"
	"github.com/theirongolddev/finboard/internal/session"
	"github.com/theirongolddev/finboard/internal/store"
)

var (
	flagAPIURL  string
	flagOffline bool
	flagQuiet   bool
	flagVerbose bool
)

var errNotSignedIn = errors.New("not signed in: run `finboard login`")

var rootCmd = &cobra.Command{
	Use:           "finboard",
	Short:         "Terminal finance dashboard",
	Long:          "Browse transactions, cash flow, budgets and the 13-week forecast from your finance API.",
	RunE:          runSummary,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "API base URL (overrides "+config.APIURLEnv+" and the config file)")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "Serve reads from the last good responses in the local store")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log requests to stderr")
}

// env is the per-invocation wiring shared by every command.
type env struct {
	cfg     config.Config
	apiURL  string
	log     zerolog.Logger
	store   *store.Store
	client  *api.Client
	session *session.Session
	loader  *pipeline.Loader

	closers []io.Closer
}

// openEnv loads config and opens the store, client, session and loader.
// With logToFile the logger writes to the log file instead of stderr,
// which the TUI and daemon need.
func openEnv(logToFile bool) (*env, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, apiURL: config.GetAPIURL(cfg)}
	if flagAPIURL != "" {
		if err := config.ValidateAPIURL(flagAPIURL); err != nil {
			return nil, err
		}
		e.apiURL = flagAPIURL
	}

	logCfg := logging.Config{Level: cfg.Log.Level, Pretty: true}
	switch {
	case logToFile:
		f, err := logging.OpenFile(config.LogPath())
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, f)
		logCfg.Out, logCfg.Pretty = f, false
		if flagVerbose {
			logCfg.Level = "debug"
		}
	case flagVerbose:
		logCfg.Level = "debug"
	case flagQuiet:
		logCfg.Level = "disabled"
	default:
		logCfg.Level = "error"
	}
	e.log = logging.New(logCfg)

	st, err := store.Open(config.DBPath())
	if err != nil {
		e.Close()
		return nil, err
	}
	e.store = st
	e.closers = append(e.closers, st)

	opts := []api.Option{
		api.WithLogger(e.log),
		api.WithTimeout(time.Duration(cfg.API.TimeoutSec) * time.Second),
		api.WithRecorder(st),
	}
	var tokens session.TokenStore = st
	if flagOffline {
		rt, err := st.OfflineTransport(e.apiURL)
		if err != nil {
			e.Close()
			return nil, err
		}
		opts = append(opts, api.WithTransport(rt))
		tokens = keepTokens{st}
	}

	client, err := api.New(e.apiURL, opts...)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.client = client
	e.session = session.New(client, tokens, e.log)
	e.loader = pipeline.NewLoader(client, e.log, cfg.TUI.RecentLimit)

	e.log.Debug().Str("api_url", e.apiURL).Bool("offline", flagOffline).Msg("environment ready")
	return e, nil
}

// Close releases the store and log file.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i].Close()
	}
	e.closers = nil
}

// requireSession restores the persisted token and fails when there is none.
func (e *env) requireSession(ctx context.Context) error {
	if e.session.Init(ctx) != session.StateAuthenticated {
		if msg := e.session.Message(); msg != "" {
			return fmt.Errorf("%s (%w)", msg, errNotSignedIn)
		}
		return errNotSignedIn
	}
	return nil
}

// checkAuth turns a rejected token into errNotSignedIn and drops it.
// Other errors are left for the caller.
func (e *env) checkAuth(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		e.session.Expire()
		return fmt.Errorf("%s (%w)", session.MsgSessionExpired, errNotSignedIn)
	}
	return nil
}

// progress prints a status line unless --quiet.
func progress(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, "  "+format+"\n", args...)
}

// commandContext bounds a one-shot command.
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// keepTokens never clears or replaces the stored token. Offline, a
// missing auth/user snapshot must not log the user out.
type keepTokens struct{ *store.Store }

func (keepTokens) SaveToken(string) error { return nil }
func (keepTokens) ClearToken() error      { return nil }

// warnIssues reports response shape mismatches under a table.
func warnIssues(issues pipeline.Issues) {
	if len(issues) == 0 || flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, "  %d field(s) had unexpected values; run with --verbose for details\n", len(issues))
}
