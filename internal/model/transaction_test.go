package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionSigned(t *testing.T) {
	amt := decimal.RequireFromString("12.5")
	tests := []struct {
		name string
		txn  Transaction
		want string
	}{
		{"incoming", Transaction{FromAccount: ExternalAccount, ToAccount: 7, Amount: amt}, "12.5"},
		{"outgoing", Transaction{FromAccount: 7, ToAccount: 9, Amount: amt}, "-12.5"},
		{"self transfer nets to zero", Transaction{FromAccount: 7, ToAccount: 7, Amount: amt}, "0"},
		{"unrelated", Transaction{FromAccount: 3, ToAccount: 9, Amount: amt}, "0"},
	}
	for _, tt := range tests {
		got := tt.txn.Signed(7)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%s: got %s", tt.name, got)
	}
}

func TestRoundAmount(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"8.407056", "8.40706"},
		{"1.000005", "1.00000"}, // half to even
		{"1.000015", "1.00002"},
		{"-1.123456", "-1.12346"},
	}
	for _, tt := range tests {
		got := RoundAmount(decimal.RequireFromString(tt.in))
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "RoundAmount(%s) = %s", tt.in, got)
	}
}

func TestKindIsAccrual(t *testing.T) {
	assert.True(t, KindInterest.IsAccrual())
	assert.True(t, KindCreditInterest.IsAccrual())
	assert.False(t, KindTransfer.IsAccrual())
}

func TestParseAccountKind(t *testing.T) {
	for _, s := range []string{"Savings", "Normal", "Credit"} {
		k, err := ParseAccountKind(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(k))
	}
	_, err := ParseAccountKind("savings")
	assert.Error(t, err)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("banker")
	require.NoError(t, err)
	assert.Equal(t, RoleBanker, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
}

func TestAllowsOverdraft(t *testing.T) {
	assert.True(t, Account{Kind: AccountCredit}.AllowsOverdraft())
	assert.False(t, Account{Kind: AccountSavings}.AllowsOverdraft())
	assert.False(t, Account{Kind: AccountNormal}.AllowsOverdraft())
}
