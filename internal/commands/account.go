package commands

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/model"
)

func newAccountCommand(opts *globalOptions) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage bank accounts",
	}
	accountCmd.AddCommand(
		newAccountCreateCommand(opts),
		newAccountListCommand(opts),
		newAccountShowCommand(opts),
		newAccountDeleteCommand(opts),
	)
	return accountCmd
}

func newAccountCreateCommand(opts *globalOptions) *cobra.Command {
	var name, kind, opening string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := model.ParseAccountKind(kind)
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(opening)
			if err != nil {
				return fmt.Errorf("invalid --opening %q: %w", opening, err)
			}

			return withSession(cmd.Context(), opts, func(a *app, u model.User) error {
				acct, err := a.svc.CreateAccount(cmd.Context(), u, name, k, amount)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s account %d (%s)\n", acct.Kind, acct.ID, acct.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "account name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&kind, "kind", string(model.AccountNormal), "Savings, Normal or Credit")
	cmd.Flags().StringVar(&opening, "opening", "0", "opening balance deposited from outside the bank")

	return cmd
}

func newAccountListCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(a *app, u model.User) error {
				accounts, err := a.svc.Accounts(cmd.Context(), u)
				if err != nil {
					return err
				}
				return writeAccounts(cmd.OutOrStdout(), accounts)
			})
		},
	}
}

func newAccountShowCommand(opts *globalOptions) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, func(a *app, u model.User) error {
				acct, err := a.svc.Account(cmd.Context(), u, id)
				if err != nil {
					return err
				}
				if err := writeAccounts(cmd.OutOrStdout(), []model.Account{acct}); err != nil {
					return err
				}
				if days <= 0 {
					return nil
				}

				history, err := a.svc.BalanceHistory(cmd.Context(), u, id, days)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout())
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "DAY\tCLOSING BALANCE")
				for _, b := range history {
					fmt.Fprintf(tw, "%s\t%s\n", b.Day, b.Balance.StringFixed(model.AmountPlaces))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "also list closing balances for this many days")

	return cmd
}

func newAccountDeleteCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Close an account with a zero balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, func(a *app, u model.User) error {
				if err := a.svc.DeleteAccount(cmd.Context(), u, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted account %d\n", id)
				return nil
			})
		},
	}
}

func writeAccounts(w io.Writer, accounts []model.Account) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tBALANCE\tSTATUS")
	for _, a := range accounts {
		status := "Good"
		if !a.Balance.IsPositive() {
			status = "Bad"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Kind, a.Balance.StringFixed(model.AmountPlaces), status)
	}
	return tw.Flush()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid account id %q", s)
	}
	return id, nil
}
