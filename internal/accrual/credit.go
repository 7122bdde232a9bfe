package accrual

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

type pendingCharge struct {
	txn model.Transaction
	day civil.Date
}

// accrueCredit charges interest on every day the account is in debt. Charges
// are held back until the account has been indebted for longer than the
// grace period without interruption; then everything held is posted at once
// and later days post immediately. Returning to a non-negative balance
// restarts the grace period but keeps the held charges. Charges still held
// when the walk ends are reported as pending and not posted.
func accrueCredit(w walk, post postFunc) (int, error) {
	factor := w.rates.Credit.Mul(w.rates.DailyFactor)
	balance := decimal.Zero
	grace := w.rates.GracePeriodDays
	var pending []pendingCharge

	for day := w.timeline.First; day.Before(w.today); day = day.AddDays(1) {
		balance = balance.Add(w.timeline.Delta(day))
		if !balance.IsNegative() {
			grace = w.rates.GracePeriodDays
			continue
		}

		interest := model.RoundAmount(balance.Mul(factor))
		if !w.paid[day] {
			balance = balance.Add(interest)
			if !interest.IsZero() {
				pending = append(pending, pendingCharge{
					txn: model.Transaction{
						FromAccount: w.account,
						ToAccount:   model.ExternalAccount,
						Amount:      interest.Neg(),
						Kind:        model.KindCreditInterest,
					},
					day: day,
				})
			}
		}
		grace--

		if grace < 0 {
			for _, c := range pending {
				if err := post(c.txn, c.day); err != nil {
					return 0, err
				}
			}
			pending = pending[:0]
		}
	}
	return len(pending), nil
}
