package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	server     string
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("QUIZ_CONFIG")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "quiz-client",
		Short:        "Terminal client for the nuclear quiz service",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&opts.server, "server", "", "API base URL, overrides api.base_url")

	cmd.AddCommand(
		newLoginCmd(opts),
		newRegisterCmd(opts),
		newForgotPasswordCmd(opts),
		newResetPasswordCmd(opts),
		newChangePasswordCmd(opts),
		newDeleteAccountCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newCategoriesCmd(opts),
		newDashboardCmd(opts),
		newPlayCmd(opts),
		newResultsCmd(opts),
		newProgressCmd(opts),
		newHistoryCmd(opts),
		newMigrateCmd(opts),
		newSandboxCmd(),
	)
	return cmd
}

// withRuntime builds the runtime for one command invocation and releases it afterwards.
func withRuntime(opts *rootOptions, run func(cmd *cobra.Command, args []string, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd, opts)
		if err != nil {
			return err
		}
		defer rt.Close()
		return run(cmd, args, rt)
	}
}
