package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
)

func newTransferCommand(opts *globalOptions) *cobra.Command {
	var from, to int64
	var amount string

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move money between accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount %q: %w", amount, err)
			}
			return withSession(cmd.Context(), opts, func(a *app, u model.User) error {
				txn, err := a.svc.Transfer(cmd.Context(), u, from, to, d)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Transaction %d: %s from %d to %d\n",
					txn.ID, txn.Amount.StringFixed(model.AmountPlaces), txn.FromAccount, txn.ToAccount)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&from, "from", 0, "source account id (required)")
	cmd.Flags().Int64Var(&to, "to", 0, "destination account id (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount to transfer (required)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	cmd.AddCommand(newTransferImportCommand(opts))

	return cmd
}

func newTransferImportCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Make the transfers listed in a statement-format CSV",
		Long: `Reads rows in the layout written by "transactions --csv" and makes each
one as a transfer, in file order. The transaction_id and timestamp cells may be
left empty; the kind cell must be empty or "transfer". Stops at the first
failure.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			rows, err := ledger.ReadTransactions(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return withSession(cmd.Context(), opts, func(a *app, u model.User) error {
				done, err := a.svc.ImportTransfers(cmd.Context(), u, rows)
				for _, txn := range done {
					fmt.Fprintf(cmd.OutOrStdout(), "Transaction %d: %s from %d to %d\n",
						txn.ID, txn.Amount.StringFixed(model.AmountPlaces), txn.FromAccount, txn.ToAccount)
				}
				if err != nil {
					return fmt.Errorf("imported %d of %d: %w", len(done), len(rows), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transfers\n", len(done))
				return nil
			})
		},
	}
}

func newTransactionsCommand(opts *globalOptions) *cobra.Command {
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "transactions <account-id>",
		Short: "Show an account statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, func(a *app, u model.User) error {
				txns, err := a.svc.Statement(cmd.Context(), u, id)
				if err != nil {
					return err
				}
				if asCSV {
					return ledger.WriteTransactions(cmd.OutOrStdout(), txns)
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tFROM\tTO\tAMOUNT\tKIND\tTIMESTAMP")
				for _, t := range txns {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
						t.ID, accountLabel(t.FromAccount), accountLabel(t.ToAccount),
						t.Amount.StringFixed(model.AmountPlaces), t.Kind, t.Timestamp.In(a.loc).Format("2006-01-02 15:04"))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of a table")

	return cmd
}

func accountLabel(id int64) string {
	if id == model.ExternalAccount {
		return "external"
	}
	return fmt.Sprint(id)
}
