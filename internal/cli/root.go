// Package cli implements the crm command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/crm/internal/app"
	"github.com/spec-kit/crm/internal/config"
	"github.com/spec-kit/crm/internal/observability"
)

var (
	version = "dev"
	commit  = "none"
)

// Options are the seams between the command tree and its environment.
type Options struct {
	LoadConfig func() (*config.Config, error)
	// Connect opens the repositories. The returned func releases them.
	Connect      func(ctx context.Context, core *app.Core) (app.Repositories, func(), error)
	Migrate      func(ctx context.Context, core *app.Core) (int64, error)
	ReadPassword func(prompt string) (string, error)
	NewLogger    func(cfg config.LoggerConfig) (*zap.Logger, error)
}

// DefaultOptions connects to the configured Postgres and Redis.
func DefaultOptions() Options {
	return Options{
		LoadConfig: config.Load,
		Connect: func(ctx context.Context, core *app.Core) (app.Repositories, func(), error) {
			repos, infra, err := app.Connect(ctx, core.Config, core.Logger)
			if err != nil {
				return app.Repositories{}, nil, err
			}
			return repos, infra.Close, nil
		},
		Migrate: func(ctx context.Context, core *app.Core) (int64, error) {
			return app.Migrate(ctx, core.Config, core.Logger)
		},
		ReadPassword: readPassword,
		NewLogger:    observability.NewLogger,
	}
}

// Execute runs the CLI against the process environment and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Run(ctx, DefaultOptions(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// Run executes one command line. Every error is rendered on the way out and
// mapped to exit status 1.
func Run(ctx context.Context, opts Options, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rt := &runtime{opts: opts}
	defer rt.close()

	rootCmd := newRootCmd(rt)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		renderError(stdout, stderr, rt.output, err)
		return 1
	}
	return 0
}

func newRootCmd(rt *runtime) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "crm",
		Short:         "Epic Events CRM",
		Long:          "Command-line CRM for collaborators, clients, contracts and events.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return validateOutputFormat(rt.output)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&rt.output, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(newLoginCmd(rt))
	rootCmd.AddCommand(newLogoutCmd(rt))
	rootCmd.AddCommand(newWhoamiCmd(rt))

	rootCmd.AddCommand(newClientCmd(rt))
	rootCmd.AddCommand(newContractCmd(rt))
	rootCmd.AddCommand(newEventCmd(rt))
	rootCmd.AddCommand(newCollaboratorCmd(rt))
	rootCmd.AddCommand(newRoleCmd(rt))

	rootCmd.AddCommand(newBootstrapCmd(rt))
	rootCmd.AddCommand(newMigrateCmd(rt))
	rootCmd.AddCommand(newVersionCmd(rt))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion scripts",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}

func newVersionCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.output == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{"version": version, "commit": commit})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "crm version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
