package accrual

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// walk holds what a policy needs to replay one account.
type walk struct {
	account  int64
	timeline Timeline
	paid     map[civil.Date]bool
	today    civil.Date
	rates    Rates
}

// postFunc persists one accrual. An error stops the walk.
type postFunc func(t model.Transaction, day civil.Date) error

// accrueSavings compounds daily interest from the first day up to yesterday
// and posts every day that has not been paid yet.
func accrueSavings(w walk, post postFunc) error {
	factor := w.rates.Interest.Mul(w.rates.DailyFactor)
	balance := decimal.Zero

	for day := w.timeline.First; day.Before(w.today); day = day.AddDays(1) {
		balance = balance.Add(w.timeline.Delta(day))
		interest := model.RoundAmount(balance.Mul(factor))
		if !balance.IsPositive() || !interest.IsPositive() {
			continue
		}
		// Interest already posted for this day shows up in tomorrow's delta.
		if w.paid[day] {
			continue
		}
		balance = balance.Add(interest)
		txn := model.Transaction{
			FromAccount: model.ExternalAccount,
			ToAccount:   w.account,
			Amount:      interest,
			Kind:        model.KindInterest,
		}
		if err := post(txn, day); err != nil {
			return err
		}
	}
	return nil
}
