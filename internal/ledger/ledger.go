// Package ledger defines the append-only transaction store the rest of tally
// reads balances from, plus helpers that derive balances and histories from it.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an insert violates a uniqueness rule.
	ErrConflict = errors.New("conflict")

	// ErrDuplicateAccrual is returned when an accrual is already posted for the
	// same account, kind and posting date.
	ErrDuplicateAccrual = fmt.Errorf("accrual already posted: %w", ErrConflict)
)

// Filter selects transactions. Zero fields are ignored; set fields are ANDed.
type Filter struct {
	ID          int64
	FromAccount int64
	ToAccount   int64
	Kind        model.TransactionKind
}

// Match reports whether t satisfies the filter.
func (f Filter) Match(t model.Transaction) bool {
	if f.ID != 0 && t.ID != f.ID {
		return false
	}
	if f.FromAccount != 0 && t.FromAccount != f.FromAccount {
		return false
	}
	if f.ToAccount != 0 && t.ToAccount != f.ToAccount {
		return false
	}
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	return true
}

// Repository is the append-only transaction store.
type Repository interface {
	// InsertTransaction persists t and returns its assigned ID.
	InsertTransaction(ctx context.Context, t model.Transaction) (int64, error)
	// SelectTransactions returns every transaction matching f, in no particular order.
	SelectTransactions(ctx context.Context, f Filter) ([]model.Transaction, error)
}

// History returns every transaction where account is source or destination.
// A self-transfer appears once.
func History(ctx context.Context, repo Repository, account int64) ([]model.Transaction, error) {
	outgoing, err := repo.SelectTransactions(ctx, Filter{FromAccount: account})
	if err != nil {
		return nil, fmt.Errorf("loading outgoing transactions of account %d: %w", account, err)
	}
	incoming, err := repo.SelectTransactions(ctx, Filter{ToAccount: account})
	if err != nil {
		return nil, fmt.Errorf("loading incoming transactions of account %d: %w", account, err)
	}

	seen := make(map[int64]bool, len(outgoing))
	all := make([]model.Transaction, 0, len(outgoing)+len(incoming))
	for _, t := range outgoing {
		seen[t.ID] = true
		all = append(all, t)
	}
	for _, t := range incoming {
		if t.ID != 0 && seen[t.ID] {
			continue
		}
		all = append(all, t)
	}
	return all, nil
}

// Lookup returns the transaction with the given ID.
func Lookup(ctx context.Context, repo Repository, id int64) (model.Transaction, error) {
	txns, err := repo.SelectTransactions(ctx, Filter{ID: id})
	if err != nil {
		return model.Transaction{}, fmt.Errorf("loading transaction %d: %w", id, err)
	}
	if len(txns) == 0 {
		return model.Transaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	return txns[0], nil
}

// Balance is Σ incoming − Σ outgoing for account, rounded to model.AmountPlaces.
// The result does not depend on the order of txns.
func Balance(account int64, txns []model.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.Signed(account))
	}
	return model.RoundAmount(total)
}

// SortChronological orders txns by timestamp, then ID.
func SortChronological(txns []model.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].Timestamp.Equal(txns[j].Timestamp) {
			return txns[i].Timestamp.Before(txns[j].Timestamp)
		}
		return txns[i].ID < txns[j].ID
	})
}
