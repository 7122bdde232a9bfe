package ledger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
)

func TestWriteReadTransactions(t *testing.T) {
	txns := []model.Transaction{
		{ID: 1, FromAccount: model.ExternalAccount, ToAccount: 3, Amount: dec("10000"), Kind: model.KindTransfer, Timestamp: date(2024, 1, 1)},
		{ID: 2, FromAccount: model.ExternalAccount, ToAccount: 3, Amount: dec("8.4"), Kind: model.KindInterest, Timestamp: date(2024, 1, 2)},
		{ID: 3, FromAccount: 3, ToAccount: 4, Amount: dec("0.12345"), Kind: model.KindTransfer, Timestamp: date(2024, 1, 3)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, txns))
	assert.True(t, strings.HasPrefix(buf.String(), "transaction_id,"))

	got, err := ReadTransactions(&buf)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i := range txns {
		assert.Equal(t, txns[i].ID, got[i].ID)
		assert.Equal(t, txns[i].FromAccount, got[i].FromAccount)
		assert.Equal(t, txns[i].ToAccount, got[i].ToAccount)
		assert.True(t, txns[i].Amount.Equal(got[i].Amount), "amount row %d", i)
		assert.Equal(t, txns[i].Kind, got[i].Kind)
		assert.True(t, txns[i].Timestamp.Equal(got[i].Timestamp))
	}
}

func TestMarshalTransaction_ExternalAndFixedPlaces(t *testing.T) {
	row := MarshalTransaction(model.Transaction{ID: 9, ToAccount: 2, Amount: dec("8.4"), Kind: model.KindInterest, Timestamp: date(2024, 1, 2)})
	assert.Empty(t, row[colFrom], "external account is an empty cell")
	assert.Equal(t, "2", row[colTo])
	assert.Equal(t, "8.40000", row[colAmount])
	assert.Equal(t, "2024-01-02T00:00:00Z", row[colTimestamp])
}

func TestReadTransactions_Malformed(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"bad date", "1,,2,5.00000,transfer,yesterday", "parsing timestamp"},
		{"bad amount", "1,,2,five,transfer,2024-01-01T00:00:00Z", "parsing amount"},
		{"negative amount", "1,,2,-5,transfer,2024-01-01T00:00:00Z", "negative"},
		{"bad account", "1,x,2,5,transfer,2024-01-01T00:00:00Z", "parsing from_id"},
	}
	for _, tt := range tests {
		_, err := ReadTransactions(strings.NewReader(Header + "\n" + tt.row + "\n"))
		require.Error(t, err, tt.name)
		assert.Contains(t, err.Error(), tt.want, tt.name)
		assert.Contains(t, err.Error(), "row 2", tt.name)
	}
}

func TestReadTransactions_PendingRows(t *testing.T) {
	got, err := ReadTransactions(strings.NewReader(Header + "\n,1,2,12.5,transfer,\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Zero(t, got[0].ID)
	assert.True(t, got[0].Timestamp.IsZero())
	assert.Equal(t, int64(1), got[0].FromAccount)
	assert.Equal(t, "12.5", got[0].Amount.String())
}

func TestReadTransactions_Empty(t *testing.T) {
	got, err := ReadTransactions(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)
}
