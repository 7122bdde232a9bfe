// Package accrual posts daily savings interest and credit interest charges
// to the ledger. Every run replays the account's full history, so it can be
// repeated at any time without posting the same day twice.
package accrual

import (
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// ErrMalformed is returned when history contains a transaction the walk
// cannot interpret.
var ErrMalformed = errors.New("malformed transaction")

// Timeline is the net balance change per calendar day of one account.
type Timeline struct {
	Deltas map[civil.Date]decimal.Decimal
	First  civil.Date
}

// BuildTimeline folds txns into per-day deltas for account. Days are taken in
// loc. The input order is irrelevant.
func BuildTimeline(account int64, txns []model.Transaction, loc *time.Location) (Timeline, error) {
	tl := Timeline{Deltas: make(map[civil.Date]decimal.Decimal, len(txns))}
	seen := false
	for _, t := range txns {
		if err := checkTransaction(account, t); err != nil {
			return Timeline{}, err
		}
		day := dayOf(t.Timestamp, loc)
		tl.Deltas[day] = tl.Deltas[day].Add(t.Signed(account))
		if !seen || day.Before(tl.First) {
			tl.First = day
			seen = true
		}
	}
	return tl, nil
}

// Empty reports whether the account has no history.
func (tl Timeline) Empty() bool {
	return len(tl.Deltas) == 0
}

// Delta returns the net change on d, zero when nothing happened that day.
func (tl Timeline) Delta(d civil.Date) decimal.Decimal {
	return tl.Deltas[d]
}

// BalanceAt returns the balance at the end of d.
func (tl Timeline) BalanceAt(d civil.Date) decimal.Decimal {
	total := decimal.Zero
	for day, delta := range tl.Deltas {
		if !d.Before(day) {
			total = total.Add(delta)
		}
	}
	return total
}

func checkTransaction(account int64, t model.Transaction) error {
	switch {
	case t.Amount.IsNegative():
		return fmt.Errorf("transaction %d has negative amount %s: %w", t.ID, t.Amount, ErrMalformed)
	case t.Timestamp.IsZero():
		return fmt.Errorf("transaction %d has no timestamp: %w", t.ID, ErrMalformed)
	case !t.Touches(account):
		return fmt.Errorf("transaction %d does not involve account %d: %w", t.ID, account, ErrMalformed)
	}
	return nil
}

func dayOf(ts time.Time, loc *time.Location) civil.Date {
	return civil.DateOf(ts.In(loc))
}

// postingTime stamps the accrual for d: midnight starting the next day.
func postingTime(d civil.Date, loc *time.Location) time.Time {
	return d.AddDays(1).In(loc)
}
