package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExternalAccount stands in for money entering or leaving the bank.
const ExternalAccount int64 = 0

// AmountPlaces is the number of fractional digits kept for every amount.
const AmountPlaces = 5

// TransactionKind classifies ledger transactions.
type TransactionKind string

const (
	KindTransfer       TransactionKind = "transfer"
	KindInterest       TransactionKind = "interest"
	KindCreditInterest TransactionKind = "credit_interest"
)

// IsAccrual reports whether the kind is posted by the accrual engine.
func (k TransactionKind) IsAccrual() bool {
	return k == KindInterest || k == KindCreditInterest
}

// Transaction is an immutable ledger record. A zero ID means not yet persisted.
type Transaction struct {
	ID          int64
	FromAccount int64 // ExternalAccount when money enters the bank
	ToAccount   int64 // ExternalAccount when money leaves the bank
	Amount      decimal.Decimal
	Kind        TransactionKind
	Timestamp   time.Time
}

// Touches reports whether the transaction moves money in or out of account.
func (t Transaction) Touches(account int64) bool {
	return t.FromAccount == account || t.ToAccount == account
}

// Signed returns the effect of t on account's balance: +amount when the account
// receives, -amount when it pays, zero for a self-transfer or an unrelated account.
func (t Transaction) Signed(account int64) decimal.Decimal {
	d := decimal.Zero
	if t.ToAccount == account {
		d = d.Add(t.Amount)
	}
	if t.FromAccount == account {
		d = d.Sub(t.Amount)
	}
	return d
}

// RoundAmount rounds to AmountPlaces using banker's rounding.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(AmountPlaces)
}
