package transactions_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdwork/nwt_ledger/internal/nwt"
	"github.com/nerdwork/nwt_ledger/internal/store"
	"github.com/nerdwork/nwt_ledger/internal/transactions"
)

func TestSplitFee(t *testing.T) {
	cases := []struct {
		gross, pct, fee, net string
	}{
		{"10", "0.30", "3", "7"},
		{"1", "0.3333", "0.3333", "0.6667"},
		{"0.000001", "0.30", "0", "0.000001"},
		{"25", "0", "0", "25"},
		{"25", "1", "25", "0"},
	}
	for _, tc := range cases {
		fee, net := transactions.SplitFee(nwt.MustParse(tc.gross), decimal.RequireFromString(tc.pct))
		assert.True(t, fee.Equal(decimal.RequireFromString(tc.fee)), "fee for %s @ %s: %s", tc.gross, tc.pct, fee)
		assert.True(t, net.Equal(decimal.RequireFromString(tc.net)), "net for %s @ %s: %s", tc.gross, tc.pct, net)
		assert.True(t, fee.Add(net).Equal(nwt.MustParse(tc.gross)))
	}
}

func TestRecordSpendAndEarning(t *testing.T) {
	mem := store.NewMemory()
	var (
		spend   transactions.UserTransaction
		earning transactions.CreatorTransaction
	)
	err := mem.WithinTx(context.Background(), func(ctx context.Context, r store.Repos) error {
		var err error
		spend, err = transactions.RecordSpend(ctx, r.Transactions, transactions.SpendInput{
			ReaderID:  "r1",
			Amount:    nwt.MustParse("10"),
			Category:  transactions.CategoryChapterUnlock,
			ContentID: "ch1",
			CreatorID: "c1",
		})
		if err != nil {
			return err
		}
		earning, err = transactions.RecordEarning(ctx, r.Transactions, transactions.EarningInput{
			CreatorID:               "c1",
			GrossAmount:             spend.NWTAmount,
			FeePercentage:           decimal.RequireFromString("0.30"),
			Source:                  transactions.SourceChapterPurchase,
			ContentID:               "ch1",
			PurchaserID:             "r1",
			SourceUserTransactionID: spend.ID,
		})
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, transactions.TypeSpend, spend.Type)
	assert.Equal(t, transactions.StatusCompleted, spend.Status)
	assert.Equal(t, "Spent 10 NWT on chapter_unlock", spend.Description)

	assert.Equal(t, transactions.StatusCompleted, earning.Status)
	assert.Equal(t, spend.ID, earning.SourceUserTransactionID)
	assert.True(t, earning.GrossAmount.Equal(nwt.MustParse("10")))
	assert.True(t, earning.PlatformFee.Equal(nwt.MustParse("3")))
	assert.True(t, earning.NWTAmount.Equal(nwt.MustParse("7")))
	assert.Equal(t, "Earned 7 NWT from chapter_purchase", earning.Description)
}

func TestRecordEarning_RequiresSource(t *testing.T) {
	mem := store.NewMemory()
	err := mem.WithinTx(context.Background(), func(ctx context.Context, r store.Repos) error {
		_, err := transactions.RecordEarning(ctx, r.Transactions, transactions.EarningInput{
			CreatorID:     "c1",
			GrossAmount:   nwt.MustParse("10"),
			FeePercentage: decimal.RequireFromString("0.30"),
			Source:        transactions.SourceComicPurchase,
		})
		return err
	})
	assert.ErrorIs(t, err, transactions.ErrMissingSource)

	err = mem.WithinTx(context.Background(), func(ctx context.Context, r store.Repos) error {
		_, err := transactions.RecordEarning(ctx, r.Transactions, transactions.EarningInput{
			CreatorID:               "c1",
			GrossAmount:             nwt.MustParse("10"),
			FeePercentage:           decimal.RequireFromString("0.30"),
			Source:                  transactions.SourceComicPurchase,
			SourceUserTransactionID: "does-not-exist",
		})
		return err
	})
	assert.ErrorIs(t, err, transactions.ErrMissingSource)
}

func TestRecordPendingPurchase(t *testing.T) {
	mem := store.NewMemory()
	in := transactions.PurchaseInput{
		ReaderID:          "r1",
		NWTAmount:         nwt.MustParse("50"),
		USDAmount:         decimal.RequireFromString("4.999"),
		ExternalPaymentID: "p1",
	}
	var tx transactions.UserTransaction
	err := mem.WithinTx(context.Background(), func(ctx context.Context, r store.Repos) error {
		var err error
		tx, err = transactions.RecordPendingPurchase(ctx, r.Transactions, in)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, transactions.StatusPending, tx.Status)
	assert.Equal(t, transactions.TypePurchase, tx.Type)
	assert.Equal(t, "5.00", tx.USDAmount.Decimal.StringFixed(2))

	err = mem.WithinTx(context.Background(), func(ctx context.Context, r store.Repos) error {
		_, err := transactions.RecordPendingPurchase(ctx, r.Transactions, in)
		return err
	})
	assert.ErrorIs(t, err, transactions.ErrDuplicatePaymentID)
}
