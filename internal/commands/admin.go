package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/auditlog"
	"github.com/cleared-dev/tally/internal/model"
)

func newUserCommand(opts *globalOptions) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users (admin only)",
	}
	userCmd.AddCommand(newUserAddCommand(opts))
	return userCmd
}

func newUserAddCommand(opts *globalOptions) *cobra.Command {
	var role, newPassword string

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := model.ParseRole(role)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, func(a *app, u model.User) error {
				created, err := a.svc.CreateUser(cmd.Context(), u, args[0], newPassword, r)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %s (id %d)\n", created.Role, created.Username, created.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&role, "role", string(model.RoleUser), "user, banker or admin")
	cmd.Flags().StringVar(&newPassword, "new-password", "", "password for the new user (required)")
	_ = cmd.MarkFlagRequired("new-password")

	return cmd
}

func newLogsCommand(opts *globalOptions) *cobra.Command {
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the audit log (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(a *app, u model.User) error {
				entries, err := a.svc.Logs(cmd.Context(), u)
				if err != nil {
					return err
				}
				if asCSV {
					return auditlog.WriteCSV(cmd.OutOrStdout(), entries)
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSEVERITY\tTIMESTAMP\tTITLE")
				for _, e := range entries {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Severity, e.Timestamp.In(a.loc).Format("2006-01-02 15:04:05"), e.Title)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of a table")

	return cmd
}
