package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/buildinfo"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	home     string
	debug    bool
	user     string
	password string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Bank ledger with daily interest accrual",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if opts.debug {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.home, "home", ".", "directory holding tally.yaml")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.StringVar(&opts.user, "user", "", "username (default $TALLY_USER)")
	flags.StringVar(&opts.password, "password", "", "password (default $TALLY_PASSWORD)")

	rootCmd.AddCommand(
		newInitCommand(opts),
		newLoginCommand(opts),
		newAccountCommand(opts),
		newTransferCommand(opts),
		newTransactionsCommand(opts),
		newAccrueCommand(opts),
		newUserCommand(opts),
		newLogsCommand(opts),
	)

	return rootCmd
}
