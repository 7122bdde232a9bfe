package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AccountKind selects which accrual policy applies to an account.
type AccountKind string

const (
	AccountSavings AccountKind = "Savings"
	AccountNormal  AccountKind = "Normal"
	AccountCredit  AccountKind = "Credit"
)

// ParseAccountKind validates an account kind name.
func ParseAccountKind(s string) (AccountKind, error) {
	switch k := AccountKind(s); k {
	case AccountSavings, AccountNormal, AccountCredit:
		return k, nil
	}
	return "", fmt.Errorf("unknown account kind %q (want Savings, Normal or Credit)", s)
}

// Account is a row in the accounts table.
type Account struct {
	ID      int64
	OwnerID int64
	Name    string
	Kind    AccountKind
	Balance decimal.Decimal // derived from the ledger, never stored
}

// AllowsOverdraft reports whether the account may go below zero.
func (a Account) AllowsOverdraft() bool {
	return a.Kind == AccountCredit
}
