package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finboard/internal/cli"
	"github.com/theirongolddev/finboard/internal/config"
	"github.com/theirongolddev/finboard/internal/daemon"
	"github.com/theirongolddev/finboard/internal/session"
)

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Watch balances and budgets in the background, with HTTP/SSE endpoints",
	Long: `Poll the finance API on an interval and serve the latest snapshot.

Endpoints: /healthz, /v1/status, /v1/events and /v1/stream (server-sent
events for balance changes and budget alerts).`,
	RunE: runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the watcher process and its latest snapshot",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running watcher",
	RunE:  runDaemonStop,
}

func init() {
	pf := daemonCmd.PersistentFlags()
	pf.StringVar(&flagDaemonAddr, "addr", daemon.DefaultAddr, "HTTP listen address")
	pf.DurationVar(&flagDaemonInterval, "interval", 2*time.Minute, "How often to poll the API")
	pf.StringVar(&flagDaemonPIDFile, "pid-file", filepath.Join(config.CacheDir(), "finboardd.pid"), "PID file path")
	pf.StringVar(&flagDaemonLogFile, "log-file", filepath.Join(config.CacheDir(), "finboardd.log"), "Output file when detached")
	pf.IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Events kept in memory")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run in the background")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

// watcherState is written next to the pid file so `daemon status` can find
// the listener even when started with a non-default --addr.
type watcherState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	APIURL    string    `json:"api_url"`
	StartedAt time.Time `json:"started_at"`
}

// pidFile manages the watcher's pid file and its JSON sidecar.
type pidFile string

func (p pidFile) statePath() string { return string(p) + ".json" }

func (p pidFile) read() (int, error) {
	data, err := os.ReadFile(string(p)) //nolint:gosec // user-configured path
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %s is corrupt", p)
	}
	return pid, nil
}

func (p pidFile) write(st watcherState) error {
	if err := os.MkdirAll(filepath.Dir(string(p)), 0o750); err != nil {
		return fmt.Errorf("creating pid directory: %w", err)
	}
	if err := os.WriteFile(string(p), []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.statePath(), append(data, '\n'), 0o600)
}

func (p pidFile) state() (watcherState, error) {
	var st watcherState
	data, err := os.ReadFile(p.statePath()) //nolint:gosec // user-configured path
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

func (p pidFile) remove() {
	_ = os.Remove(string(p))
	_ = os.Remove(p.statePath())
}

// claim fails when a live watcher owns the pid file and clears a stale one.
func (p pidFile) claim() error {
	pid, err := p.read()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	case alive(pid):
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	p.remove()
	return nil
}

func alive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	switch {
	case flagDaemonDetach && flagDaemonChild:
		return errors.New("--detach and --child are mutually exclusive")
	case flagDaemonDetach:
		return detachDaemon()
	default:
		return runWatcher()
	}
}

func detachDaemon() error {
	pf := pidFile(flagDaemonPIDFile)
	if err := pf.claim(); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}
	args := make([]string, 0, len(os.Args))
	for _, a := range os.Args[1:] {
		if a != "--detach" && !strings.HasPrefix(a, "--detach=") {
			args = append(args, a)
		}
	}
	args = append(args, "--child")

	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	out, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600) //nolint:gosec // user-configured path
	if err != nil {
		return fmt.Errorf("opening daemon log: %w", err)
	}
	defer func() { _ = out.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // re-executes this binary
	child.Stdout, child.Stderr = out, out
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("starting daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", child.Process.Pid)
	fmt.Printf("  Status: http://%s/v1/status\n", flagDaemonAddr)
	fmt.Printf("  Log:    %s\n", flagDaemonLogFile)
	return nil
}

func runWatcher() error {
	pf := pidFile(flagDaemonPIDFile)
	if err := pf.claim(); err != nil {
		return err
	}

	e, err := openEnv(flagDaemonChild)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if e.session.Init(ctx) != session.StateAuthenticated {
		fmt.Printf("  Warning: %v; polls will fail until you sign in\n", errNotSignedIn)
	}

	if err := pf.write(watcherState{
		PID:       os.Getpid(),
		Addr:      flagDaemonAddr,
		APIURL:    e.apiURL,
		StartedAt: time.Now(),
	}); err != nil {
		return fmt.Errorf("writing pid file: %w", err)
	}
	defer pf.remove()

	svc := daemon.New(daemon.Config{
		APIURL:       e.apiURL,
		Interval:     flagDaemonInterval,
		Addr:         flagDaemonAddr,
		EventsBuffer: flagDaemonEventsBuffer,
		Log:          e.log,
	}, e.loader)

	fmt.Printf("  Watching %s every %s\n", e.apiURL, flagDaemonInterval)
	fmt.Printf("  Listening on http://%s\n", flagDaemonAddr)

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	pf := pidFile(flagDaemonPIDFile)
	pid, err := pf.read()
	if err != nil {
		fmt.Println("  Daemon: not running")
		return nil
	}
	if !alive(pid) {
		fmt.Printf("  Daemon: stale pid file (pid %d is gone)\n", pid)
		return nil
	}

	addr := flagDaemonAddr
	if st, err := pf.state(); err == nil && st.Addr != "" {
		addr = st.Addr
	}

	st, err := fetchWatcherStatus(addr)
	if err != nil {
		fmt.Printf("  Daemon: pid %d, status unavailable (%v)\n", pid, err)
		return nil
	}

	lastPoll := "pending"
	if !st.LastPollAt.IsZero() {
		lastPoll = cli.FormatAgo(st.LastPollAt)
	}
	s := st.Summary
	rows := [][]string{
		{"PID", strconv.Itoa(pid)},
		{"Address", "http://" + addr},
		{"API", st.APIURL},
		{"Last poll", lastPoll},
		{"Polls", strconv.FormatInt(st.PollCount, 10)},
		{"---"},
		{"Balance", cli.RenderAmount(s.Balance)},
		{"Income (30d)", cli.FormatMoney(s.Income)},
		{"Expenses (30d)", cli.FormatMoney(s.Expenses)},
		{"Budget used", cli.FormatPercent(s.BudgetUsage, 1)},
		{"Over 90%", strconv.Itoa(s.BudgetDanger)},
		{"Forecast end", cli.FormatMoney(s.ForecastEnd) + "  " + s.ForecastGrowth},
	}
	if st.LastError != "" {
		rows = append(rows, []string{"Last error", cli.Warn(st.LastError)})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Daemon",
		Headers:  []string{"Field", "Value"},
		Rows:     rows,
		LeftCols: 2,
	}))
	return nil
}

func fetchWatcherStatus(addr string) (daemon.Status, error) {
	var st daemon.Status

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("decoding status: %w", err)
	}
	return st, nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	pf := pidFile(flagDaemonPIDFile)
	pid, err := pf.read()
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding pid %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signalling pid %d: %w", pid, err)
	}

	for deadline := time.Now().Add(8 * time.Second); time.Now().Before(deadline); {
		if !alive(pid) {
			pf.remove()
			fmt.Printf("  Stopped daemon (pid %d)\n", pid)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	return fmt.Errorf("daemon (pid %d) did not exit within 8s", pid)
}
