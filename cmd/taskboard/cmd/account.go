package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"taskboard/backend"
	"taskboard/internal/analytics"
	"taskboard/internal/session"
	"taskboard/internal/shutdown"
	"taskboard/internal/taskstore"
	"taskboard/internal/utils"
)

// readCredentials takes the username from --username or a prompt, and the
// password from the terminal without echo
func readCredentials(a *app, cmd *cobra.Command) (string, string, error) {
	username, _ := cmd.Flags().GetString("username")
	username = strings.TrimSpace(username)
	if username == "" {
		var err error
		username, err = utils.PromptStringWithReader("Username", a.stdin, a.stdout)
		if err != nil {
			return "", "", fmt.Errorf("%w: username is required", backend.ErrValidation)
		}
	}

	password, err := session.PromptPassword(a.stdin, a.stdout, username)
	if err != nil && !errors.Is(err, utils.ErrNoInput) {
		return "", "", err
	}
	if password == "" {
		return "", "", fmt.Errorf("%w: password is required", backend.ErrValidation)
	}
	return username, password, nil
}

// newLoginCmd creates the 'login' subcommand
func newLoginCmd(stdout io.Writer, cfg *Config, mgr *shutdown.Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the task service",
		Long:  "Sign in and store the session token in the system keyring.",
		Args:  usageArgs(cobra.NoArgs),
		RunE: withApp(stdout, cfg, mgr, func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
			username, password, err := readCredentials(a, cmd)
			if err != nil {
				return err
			}

			s := a.newStore().Dispatch(ctx, taskstore.SubmitLogin{Username: username, Password: password})
			if !s.Authenticated {
				if err := a.stateErr(s); err != nil {
					return err
				}
				return utils.ErrAuthenticationFailed(username)
			}

			_, _ = fmt.Fprintf(a.stdout, "Logged in as %s (%d tasks)\n", s.User, len(s.Tasks))
			return nil
		}),

		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringP("username", "u", "", "Username (prompted when omitted)")
	return cmd
}

// newLogoutCmd creates the 'logout' subcommand
func newLogoutCmd(stdout io.Writer, cfg *Config, mgr *shutdown.Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session token, display name and theme",
		Args:  usageArgs(cobra.NoArgs),
		RunE: withApp(stdout, cfg, mgr, func(ctx context.Context, a *app, _ *cobra.Command, _ []string) error {
			s := a.newStore().Dispatch(ctx, taskstore.Logout{})
			if s.Err != nil {
				return fmt.Errorf("failed to clear session: %w", s.Err)
			}
			_, _ = fmt.Fprintln(a.stdout, s.Status)
			return nil
		}),

		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newRegisterCmd creates the 'register' subcommand
func newRegisterCmd(stdout io.Writer, cfg *Config, mgr *shutdown.Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the task service",
		Args:  usageArgs(cobra.NoArgs),
		RunE: withApp(stdout, cfg, mgr, func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
			username, password, err := readCredentials(a, cmd)
			if err != nil {
				return err
			}

			err = a.tracker.TrackCommand("register", func() error {
				return a.backend.Register(ctx, username, password)
			})
			if err != nil {
				var statusErr *backend.StatusError
				if errors.As(err, &statusErr) {
					return utils.WrapWithSuggestion(err, "Choose another username")
				}
				return a.stateErr(taskstore.State{Err: err})
			}

			_, _ = fmt.Fprintf(a.stdout, "Account %s created. Run 'taskboard login' to sign in.\n", username)
			return nil
		}),

		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringP("username", "u", "", "Username (prompted when omitted)")
	return cmd
}

// newThemeCmd creates the 'theme' subcommand
func newThemeCmd(stdout io.Writer, cfg *Config, mgr *shutdown.Manager) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Show or set the theme",
		Args:      usageArgs(cobra.MaximumNArgs(1)),
		ValidArgs: []string{string(taskstore.ThemeLight), string(taskstore.ThemeDark)},
		RunE: withApp(stdout, cfg, mgr, func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
			if len(args) == 0 {
				_, _ = fmt.Fprintln(a.stdout, a.session.Theme())
				return nil
			}

			theme := taskstore.Theme(strings.ToLower(strings.TrimSpace(args[0])))
			s := a.newStore().Dispatch(ctx, taskstore.SetTheme{Theme: theme})
			if s.Err != nil {
				return s.Err
			}
			_, _ = fmt.Fprintf(a.stdout, "Theme set to %s\n", s.Theme)
			return nil
		}),

		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newConfigCmd creates the 'config' subcommand
func newConfigCmd(stdout io.Writer, cfg *Config, mgr *shutdown.Manager) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  usageArgs(cobra.NoArgs),
		RunE: withApp(stdout, cfg, mgr, func(_ context.Context, a *app, _ *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintln(a.stdout, a.cfgPath)
			return nil
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after environment and flag overrides, plus the session state.",
		Args:  usageArgs(cobra.NoArgs),
		RunE: withApp(stdout, cfg, mgr, func(_ context.Context, a *app, cmd *cobra.Command, _ []string) error {
			effective := *a.cfg
			effective.API.BaseURL = a.cfg.GetBaseURL()
			effective.API.AuthURL = a.cfg.GetAuthURL()
			effective.Logging.File = a.cfg.GetLogFile()
			effective.Analytics.Path = a.cfg.GetAnalyticsPath()

			if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
				out, err := json.Marshal(struct {
					Config  interface{}  `json:"config"`
					Session session.Info `json:"session"`
				}{effective, a.session.Info()})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(a.stdout, string(out))
				return nil
			}

			out, err := yaml.Marshal(&effective)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(a.stdout, string(out))

			info := a.session.Info()
			_, _ = fmt.Fprintf(a.stdout, "\n# session\n# logged in: %t (%s)\n", info.LoggedIn, info.Source)
			if info.Username != "" {
				_, _ = fmt.Fprintf(a.stdout, "# user: %s\n", info.Username)
			}
			_, _ = fmt.Fprintf(a.stdout, "# theme: %s\n", info.Theme)
			return nil
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return configCmd
}

// newStatsCmd creates the 'stats' subcommand
func newStatsCmd(stdout io.Writer, cfg *Config, mgr *shutdown.Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show local request statistics",
		Long:  "Summarize the outcome and latency of requests recorded on this machine.",
		Args:  usageArgs(cobra.NoArgs),
		RunE: withApp(stdout, cfg, mgr, func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
			if a.tracker == nil {
				return errors.New("analytics database is unavailable")
			}
			stats, err := a.tracker.Stats(ctx)
			if err != nil {
				return fmt.Errorf("failed to read analytics: %w", err)
			}

			if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
				if stats == nil {
					stats = []analytics.OperationStats{}
				}
				out, err := json.Marshal(stats)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(a.stdout, string(out))
				return nil
			}

			if !a.tracker.Enabled() {
				_, _ = fmt.Fprintln(a.stdout, "Analytics is disabled (analytics.enabled: false)")
			}
			if len(stats) == 0 {
				_, _ = fmt.Fprintln(a.stdout, "No requests recorded yet")
				return nil
			}
			_, _ = fmt.Fprintf(a.stdout, "%-10s %6s %8s %9s %10s\n", "OPERATION", "TOTAL", "SUCCESS", "AVG MS", "AUTH FAIL")
			for _, s := range stats {
				_, _ = fmt.Fprintf(a.stdout, "%-10s %6d %7.0f%% %9.1f %10d\n",
					s.Operation, s.Total, s.SuccessRate()*100, s.AvgDurationMs, s.AuthFailures)
			}
			return nil
		}),

		SilenceUsage:  true,
		SilenceErrors: true,
	}
}
