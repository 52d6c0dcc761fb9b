package history

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdwork/nwt_ledger/internal/access"
	"github.com/nerdwork/nwt_ledger/internal/funding"
	"github.com/nerdwork/nwt_ledger/internal/ledger"
	"github.com/nerdwork/nwt_ledger/internal/logging"
	"github.com/nerdwork/nwt_ledger/internal/nwt"
	"github.com/nerdwork/nwt_ledger/internal/purchase"
	"github.com/nerdwork/nwt_ledger/internal/store"
	"github.com/nerdwork/nwt_ledger/internal/transactions"
)

type scripted struct {
	ids []string
}

func (scripted) Name() string { return "scripted" }

func (s *scripted) CreatePayment(context.Context, funding.PaymentRequest) (funding.PaymentLink, error) {
	id := s.ids[0]
	s.ids = s.ids[1:]
	return funding.PaymentLink{PaymentID: id}, nil
}

// seedActivity produces: one completed 50 NWT purchase, one pending 20 NWT
// purchase, one failed 5 NWT purchase and two spends of 10 and 4.
func seedActivity(t *testing.T) (*Service, ledger.Ref, ledger.Ref) {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	reader := ledger.Reader(uuid.NewString())
	creator := ledger.Creator(uuid.NewString())
	mem.SeedBalance(reader, uuid.NewString(), decimal.Zero)
	mem.SeedBalance(creator, uuid.NewString(), decimal.Zero)

	fund, err := funding.NewService(mem, &scripted{ids: []string{"pay-1", "pay-2", "pay-3"}}, nil, logging.Discard())
	require.NoError(t, err)
	for _, amount := range []string{"50", "20", "5"} {
		_, err := fund.InitiateTopUp(ctx, funding.TopUpInput{ReaderID: reader.ID, NWTAmount: nwt.MustParse(amount), USDAmount: nwt.MustParse("1")})
		require.NoError(t, err)
	}
	_, err = fund.ConfirmPurchase(ctx, funding.Confirmation{PaymentID: "pay-1", Status: "success"})
	require.NoError(t, err)
	_, err = fund.ConfirmPurchase(ctx, funding.Confirmation{PaymentID: "pay-3", Status: "expired"})
	require.NoError(t, err)

	buy, err := purchase.NewService(mem, purchase.DefaultFeePercentage, nil, nil, logging.Discard())
	require.NoError(t, err)
	for _, amount := range []string{"10", "4"} {
		_, err := buy.PurchaseContent(ctx, purchase.Input{
			ReaderID: reader.ID, CreatorID: creator.ID, ContentID: uuid.NewString(),
			Kind: access.KindChapter, Amount: nwt.MustParse(amount),
		})
		require.NoError(t, err)
	}
	return NewService(mem), reader, creator
}

func TestSummary(t *testing.T) {
	svc, reader, _ := seedActivity(t)

	sum, err := svc.Summary(context.Background(), reader.ID)
	require.NoError(t, err)
	assert.True(t, sum.TotalPurchased.Equal(nwt.MustParse("50")), "purchased %s", sum.TotalPurchased)
	assert.True(t, sum.TotalSpent.Equal(nwt.MustParse("14")), "spent %s", sum.TotalSpent)
	assert.True(t, sum.PendingPurchases.Equal(nwt.MustParse("20")), "pending %s", sum.PendingPurchases)
	assert.Equal(t, 3, sum.CompletedTransactions)
	assert.True(t, sum.Net().Equal(nwt.MustParse("36")))
}

func TestTransactionsFiltersAndPaginates(t *testing.T) {
	svc, reader, _ := seedActivity(t)
	ctx := context.Background()

	all, err := svc.Transactions(ctx, reader.ID, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 5, all.Total)
	assert.Equal(t, defaultLimit, all.Limit)
	assert.False(t, all.HasMore())

	spends, err := svc.Transactions(ctx, reader.ID, Filter{Type: transactions.TypeSpend, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, spends.Total)
	require.Len(t, spends.Items, 1)
	assert.True(t, spends.HasMore())

	failed, err := svc.Transactions(ctx, reader.ID, Filter{Status: transactions.StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed.Items, 1)
	assert.Equal(t, "payment expired", failed.Items[0].FailureReason)
}

func TestTransactionScopedToOwner(t *testing.T) {
	svc, reader, _ := seedActivity(t)
	ctx := context.Background()

	page, err := svc.Transactions(ctx, reader.ID, Filter{Limit: 1})
	require.NoError(t, err)
	id := page.Items[0].ID

	tx, err := svc.Transaction(ctx, reader.ID, id)
	require.NoError(t, err)
	assert.Equal(t, id, tx.ID)

	_, err = svc.Transaction(ctx, uuid.NewString(), id)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = svc.Transaction(ctx, reader.ID, uuid.NewString())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestEarnings(t *testing.T) {
	svc, _, creator := seedActivity(t)

	page, err := svc.Earnings(context.Background(), creator.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	net := decimal.Zero
	for _, e := range page.Items {
		assert.Equal(t, transactions.TypeEarning, e.Type)
		assert.NotEmpty(t, e.SourceUserTransactionID)
		net = net.Add(e.NWTAmount)
	}
	assert.True(t, net.Equal(nwt.MustParse("9.8")), "net %s", net)
}
