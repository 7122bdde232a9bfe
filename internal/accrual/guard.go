package accrual

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/cleared-dev/tally/internal/model"
)

// chargedDays returns the days that already carry an accrual of kind for
// account. A posting stamped on D settles day D-1. Savings interest is
// counted only when it flows into the account, credit interest only when it
// flows out.
func chargedDays(account int64, txns []model.Transaction, kind model.TransactionKind, loc *time.Location) map[civil.Date]bool {
	paid := make(map[civil.Date]bool)
	for _, t := range txns {
		if t.Kind != kind {
			continue
		}
		switch kind {
		case model.KindInterest:
			if t.ToAccount != account {
				continue
			}
		case model.KindCreditInterest:
			if t.FromAccount != account {
				continue
			}
		default:
			continue
		}
		paid[dayOf(t.Timestamp, loc).AddDays(-1)] = true
	}
	return paid
}
