package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taskboard/backend"
	"taskboard/backend/rest"
	"taskboard/internal/analytics"
	"taskboard/internal/config"
	"taskboard/internal/session"
	"taskboard/internal/shutdown"
	"taskboard/internal/taskstore"
	"taskboard/internal/tui"
	"taskboard/internal/utils"
)

// Version is set at build time
var Version = "dev"

// Result codes for JSON output
const (
	ResultActionCompleted = "ACTION_COMPLETED"
	ResultInfoOnly        = "INFO_ONLY"
	ResultError           = "ERROR"
)

// Exit codes
const (
	ExitOK      = 0
	ExitUsage   = 1 // bad arguments or rejected input
	ExitAuth    = 2 // not logged in or session rejected (session cleared)
	ExitBackend = 3 // the task service failed or is unreachable
)

// Event sources recorded by analytics
const (
	sourceCLI = "cli"
	sourceTUI = "tui"
)

// Config holds injectable dependencies. The zero value uses the real
// environment: XDG paths, the system keyring and os.Stdin.
type Config struct {
	ConfigPath  string // config file when --config is not given
	SessionPath string
	DotEnvPath  string // defaults to .env in the working directory
	Keyring     session.Keyring
	Getenv      func(string) string
	Stdin       io.Reader

	// RunTUI replaces the bubbletea program (for testing)
	RunTUI func(ctx context.Context, m *tui.Model) error
}

// Execute runs the CLI with the given arguments and IO writers and
// returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	if cfg == nil {
		cfg = &Config{}
	}

	mgr := shutdown.NewManager(context.Background())
	stop := mgr.HandleSignals(os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewTaskboard(stdout, stderr, cfg, mgr)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(mgr.Context())

	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if cerr := mgr.Wait(waitCtx); cerr != nil {
		utils.GetLogger().Warn("shutdown incomplete", zap.Error(cerr))
	}

	if err == nil {
		return ExitOK
	}
	code := exitCode(err)
	if containsJSONFlag(args) {
		outputErrorJSON(err, code, stdout)
	} else {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
	}
	return code
}

// containsJSONFlag checks if args contain --json flag
func containsJSONFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--json" {
			return true
		}
	}
	return false
}

// userError marks a command line mistake (unknown flag, missing argument,
// unreadable config) so it exits with ExitUsage.
type userError struct{ err error }

func (e userError) Error() string { return e.err.Error() }
func (e userError) Unwrap() error { return e.err }

// usageArgs wraps a cobra argument validator so its errors are user errors
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return userError{err}
		}
		return nil
	}
}

// exitCode maps an error onto the documented exit codes
func exitCode(err error) int {
	var ue userError
	switch {
	case backend.IsUnauthorized(err):
		return ExitAuth
	case errors.As(err, &ue), utils.IsValidation(err), errors.Is(err, backend.ErrNotFound):
		return ExitUsage
	}
	return ExitBackend
}

// NewTaskboard creates the root command with injectable IO
func NewTaskboard(stdout, stderr io.Writer, cfg *Config, mgr *shutdown.Manager) *cobra.Command {
	if cfg == nil {
		cfg = &Config{}
	}

	cmd := &cobra.Command{
		Use:   "taskboard",
		Short: "A dashboard for tasks stored on a remote task service",
		Long: "taskboard lists, creates, edits and deletes tasks held by a remote task service.\n" +
			"Run without a command to open the terminal UI.",
		Version: Version,
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, cfg, mgr, sourceTUI, stdout)
			if err != nil {
				return err
			}
			return a.runTUI(cmd.Context(), cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Config file (default $XDG_CONFIG_HOME/taskboard/config.yaml)")
	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable verbose/debug output")
	cmd.PersistentFlags().String("api-url", "", "Task service URL, overrides api.base_url")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return userError{err}
	})

	cmd.AddCommand(
		newTUICmd(stdout, cfg, mgr),
		newLoginCmd(stdout, cfg, mgr),
		newLogoutCmd(stdout, cfg, mgr),
		newRegisterCmd(stdout, cfg, mgr),
		newListCmd(stdout, cfg, mgr),
		newAddCmd(stdout, cfg, mgr),
		newUpdateCmd(stdout, cfg, mgr),
		newDoneCmd(stdout, cfg, mgr),
		newDeleteCmd(stdout, cfg, mgr),
		newSummaryCmd(stdout, cfg, mgr),
		newThemeCmd(stdout, cfg, mgr),
		newConfigCmd(stdout, cfg, mgr),
		newStatsCmd(stdout, cfg, mgr),
	)

	return cmd
}

// newTUICmd creates the 'tui' subcommand
func newTUICmd(stdout io.Writer, cfg *Config, mgr *shutdown.Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal UI",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, cfg, mgr, sourceTUI, stdout)
			if err != nil {
				return err
			}
			return a.runTUI(cmd.Context(), cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// app is everything a command needs, built from config, environment and flags
type app struct {
	cfg     *config.Config
	cfgPath string
	session *session.Manager
	backend *rest.Backend
	tracker *analytics.Tracker
	runner  *taskstore.Runner

	stdin  io.Reader
	stdout io.Writer
}

// runFunc is the body of a command that needs an app
type runFunc func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error

// withApp builds the app before running fn. Resources are released by mgr.
func withApp(stdout io.Writer, cfg *Config, mgr *shutdown.Manager, fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, cfg, mgr, sourceCLI, stdout)
		if err != nil {
			return err
		}
		return fn(cmd.Context(), a, cmd, args)
	}
}

// openApp loads config (file, then .env and environment, then flags),
// configures logging, and opens the session, backend and analytics.
func openApp(cmd *cobra.Command, opts *Config, mgr *shutdown.Manager, source string, stdout io.Writer) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = opts.ConfigPath
	}
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfgPath = config.ExpandPath(cfgPath)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, userError{err}
	}

	dotenv := opts.DotEnvPath
	if dotenv == "" {
		dotenv = ".env"
	}
	env, err := config.ReadEnv(dotenv)
	if err != nil {
		return nil, userError{err}
	}
	if err := cfg.ApplyEnv(env); err != nil {
		return nil, userError{err}
	}
	apiURL, _ := cmd.Flags().GetString("api-url")
	verbose, _ := cmd.Flags().GetBool("verbose")
	cfg.ApplyFlags(apiURL, verbose)
	if err := cfg.Validate(); err != nil {
		return nil, userError{fmt.Errorf("invalid config %s: %w", cfgPath, err)}
	}

	// The terminal UI owns the screen, so it always logs to a file
	logOpts := utils.LogOptions{Verbose: cfg.Logging.Verbose}
	if source == sourceTUI {
		logOpts.Path = cfg.GetLogFile()
	}
	if err := utils.Configure(logOpts); err != nil {
		utils.GetLogger().Warn("logging to stderr", zap.Error(err))
	}
	mgr.RegisterCleanup("logger", func(context.Context) error {
		_ = utils.GetLogger().Sync()
		return nil
	})

	getenv := opts.Getenv
	if getenv == nil {
		getenv = func(key string) string {
			if v, ok := env[key]; ok {
				return v
			}
			return os.Getenv(key)
		}
	}
	sessOpts := []session.Option{
		session.WithEnv(getenv),
		session.WithDefaultTheme(cfg.GetDefaultTheme()),
	}
	if opts.Keyring != nil {
		sessOpts = append(sessOpts, session.WithKeyring(opts.Keyring))
	}
	sessPath := opts.SessionPath
	if sessPath == "" {
		sessPath = config.GetSessionPath()
	}
	sess := session.NewManager(sessPath, sessOpts...)
	if err := sess.Load(); err != nil {
		return nil, utils.WrapWithSuggestion(err, "Run 'taskboard logout' to reset the local session")
	}

	be, err := rest.New(rest.Config{
		BaseURL:     cfg.GetBaseURL(),
		AuthURL:     cfg.GetAuthURL(),
		TokenSource: sess,
		Timeout:     cfg.GetRequestTimeout(),
	})
	if err != nil {
		return nil, userError{err}
	}
	mgr.RegisterCleanup("backend", func(context.Context) error {
		return be.Close()
	})

	runner := &taskstore.Runner{Tasks: be, Auth: be, Session: sess}

	tracker, err := analytics.NewTracker(cfg.GetAnalyticsPath(), source, cfg.IsAnalyticsEnabled())
	if err != nil {
		utils.GetLogger().Warn("analytics unavailable", zap.Error(err))
		tracker = nil
	} else {
		if n, err := tracker.Cleanup(cfg.GetAnalyticsRetentionDays()); err != nil {
			utils.GetLogger().Warn("analytics cleanup failed", zap.Error(err))
		} else if n > 0 {
			utils.GetLogger().Debug("analytics cleanup", zap.Int64("deleted", n))
		}
		runner.Tracker = tracker
		mgr.RegisterCleanup("analytics", func(context.Context) error {
			return tracker.Close()
		})
	}

	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	utils.GetLogger().Debug("configured",
		zap.String("config", cfgPath),
		zap.String("api", cfg.GetBaseURL()),
		zap.String("session", string(sess.Info().Source)))

	return &app{
		cfg:     cfg,
		cfgPath: cfgPath,
		session: sess,
		backend: be,
		tracker: tracker,
		runner:  runner,
		stdin:   stdin,
		stdout:  stdout,
	}, nil
}

// initialState seeds the task store from the saved session
func (a *app) initialState() taskstore.State {
	return taskstore.New(taskstore.Options{
		Authenticated: a.session.HasToken(),
		User:          a.session.Username(),
		Theme:         taskstore.Theme(a.session.Theme()),
		DefaultTheme:  taskstore.Theme(a.cfg.GetDefaultTheme()),
	})
}

func (a *app) newStore() *taskstore.Store {
	return taskstore.NewStore(a.initialState(), a.runner)
}

// requireLogin fails fast for commands that need a session
func (a *app) requireLogin() error {
	if !a.session.HasToken() {
		return utils.ErrNotLoggedIn()
	}
	return nil
}

// stateErr turns the error left in the state into a command error. Network
// failures get a suggestion naming the configured server.
func (a *app) stateErr(s taskstore.State) error {
	err := s.Err
	if err == nil || backend.IsUnauthorized(err) {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return utils.ErrBackendOffline(a.cfg.GetBaseURL(), urlErr.Err.Error())
	}
	return err
}

// loadTasks dispatches Start so commands addressing a task by id see the list
func (a *app) loadTasks(ctx context.Context) (*taskstore.Store, error) {
	if err := a.requireLogin(); err != nil {
		return nil, err
	}
	store := a.newStore()
	if err := a.stateErr(store.Dispatch(ctx, taskstore.Start{})); err != nil {
		return nil, err
	}
	return store, nil
}

// runTUI starts the bubbletea program on the alternate screen
func (a *app) runTUI(ctx context.Context, opts *Config) error {
	model := tui.New(tui.Config{
		State:   a.initialState(),
		Runner:  a.runner,
		Context: ctx,
	})

	if opts.RunTUI != nil {
		return opts.RunTUI(ctx, model)
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}

type errorResponse struct {
	Error  string `json:"error"`
	Code   int    `json:"code"`
	Result string `json:"result"`
}

// outputErrorJSON outputs error in JSON format
func outputErrorJSON(err error, code int, stdout io.Writer) {
	response := errorResponse{
		Error:  err.Error(),
		Code:   code,
		Result: ResultError,
	}

	jsonBytes, _ := json.Marshal(response)
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
}
