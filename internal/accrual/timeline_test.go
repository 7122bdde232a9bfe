package accrual

import (
	"math/rand"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
)

func TestBuildTimeline(t *testing.T) {
	txns := []model.Transaction{
		{ID: 1, FromAccount: model.ExternalAccount, ToAccount: 1, Amount: dec("100"), Timestamp: at(2024, 1, 5, 9)},
		{ID: 2, FromAccount: 1, ToAccount: 2, Amount: dec("30"), Timestamp: at(2024, 1, 5, 18)},
		{ID: 3, FromAccount: 2, ToAccount: 1, Amount: dec("0.5"), Timestamp: at(2024, 1, 2, 7)},
		{ID: 4, FromAccount: 1, ToAccount: 1, Amount: dec("99"), Timestamp: at(2024, 1, 7, 7)},
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		rng.Shuffle(len(txns), func(a, b int) { txns[a], txns[b] = txns[b], txns[a] })

		tl, err := BuildTimeline(1, txns, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, civil.Date{Year: 2024, Month: time.January, Day: 2}, tl.First)
		assert.Equal(t, "70", tl.Delta(civil.Date{Year: 2024, Month: time.January, Day: 5}).String())
		assert.True(t, tl.Delta(civil.Date{Year: 2024, Month: time.January, Day: 7}).IsZero())
		assert.True(t, tl.Delta(civil.Date{Year: 2024, Month: time.January, Day: 3}).IsZero())
		assert.Equal(t, "0.5", tl.BalanceAt(civil.Date{Year: 2024, Month: time.January, Day: 4}).String())
		assert.Equal(t, "70.5", tl.BalanceAt(civil.Date{Year: 2024, Month: time.January, Day: 31}).String())
	}
}

func TestBuildTimeline_Empty(t *testing.T) {
	tl, err := BuildTimeline(1, nil, time.UTC)
	require.NoError(t, err)
	assert.True(t, tl.Empty())
}

func TestBuildTimeline_RejectsUnrelatedTransaction(t *testing.T) {
	_, err := BuildTimeline(1, []model.Transaction{
		{ID: 9, FromAccount: 3, ToAccount: 4, Amount: dec("1"), Timestamp: at(2024, 1, 1, 0)},
	}, time.UTC)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestChargedDays(t *testing.T) {
	txns := []model.Transaction{
		{FromAccount: model.ExternalAccount, ToAccount: 1, Kind: model.KindInterest, Timestamp: at(2024, 1, 2, 0)},
		{FromAccount: 1, ToAccount: model.ExternalAccount, Kind: model.KindInterest, Timestamp: at(2024, 1, 5, 0)},
		{FromAccount: 1, ToAccount: model.ExternalAccount, Kind: model.KindCreditInterest, Timestamp: at(2024, 1, 3, 0)},
		{FromAccount: model.ExternalAccount, ToAccount: 1, Kind: model.KindTransfer, Timestamp: at(2024, 1, 4, 0)},
	}

	interest := chargedDays(1, txns, model.KindInterest, time.UTC)
	assert.Equal(t, map[civil.Date]bool{{Year: 2024, Month: time.January, Day: 1}: true}, interest)

	credit := chargedDays(1, txns, model.KindCreditInterest, time.UTC)
	assert.Equal(t, map[civil.Date]bool{{Year: 2024, Month: time.January, Day: 2}: true}, credit)
}
