package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/accrual"
	"github.com/cleared-dev/tally/internal/model"
)

func newLoginCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and bring interest up to date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			u, results, err := a.login(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", u.Username, u.Role)
			writeResults(cmd.OutOrStdout(), results)
			return nil
		},
	}
}

func newAccrueCommand(opts *globalOptions) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "accrue <account-id>",
		Short: "Post interest for every day before the given date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, func(a *app, u model.User) error {
				when, err := parseAsOf(asOf, a.loc, a.svc.Now())
				if err != nil {
					return err
				}
				res, err := a.svc.Accrue(cmd.Context(), u, id, when)
				if err != nil {
					return err
				}
				writeResults(cmd.OutOrStdout(), []accrual.Result{res})
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "accrue up to this date, exclusive (YYYY-MM-DD, not after today; default now)")

	return cmd
}

func writeResults(w io.Writer, results []accrual.Result) {
	for _, r := range results {
		switch r.Kind {
		case model.AccountSavings, model.AccountCredit:
		default:
			continue
		}
		fmt.Fprintf(w, "Account %d (%s): %d posted", r.AccountID, r.Kind, len(r.Posted))
		if r.Pending > 0 {
			fmt.Fprintf(w, ", %d pending", r.Pending)
		}
		fmt.Fprintln(w)
	}
}
