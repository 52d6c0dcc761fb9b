package transactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nerdwork/nwt_ledger/internal/nwt"
)

// ErrMissingSource rejects an earning that is not linked to a spend.
var ErrMissingSource = errors.New("earning requires a source user transaction")

// SpendInput describes the reader half of a content purchase.
type SpendInput struct {
	ReaderID    string
	Amount      decimal.Decimal
	Category    SpendCategory
	ContentID   string
	CreatorID   string
	Description string
}

// EarningInput describes the creator half of a content purchase.
type EarningInput struct {
	CreatorID               string
	GrossAmount             decimal.Decimal
	FeePercentage           decimal.Decimal
	Source                  EarningSource
	ContentID               string
	PurchaserID             string
	SourceUserTransactionID string
}

// PurchaseInput describes a pending NWT top-up awaiting payment confirmation.
type PurchaseInput struct {
	ReaderID          string
	NWTAmount         decimal.Decimal
	USDAmount         decimal.Decimal
	ExternalPaymentID string
	Description       string
	Metadata          map[string]any
}

// SplitFee returns the platform fee and the creator's net share of gross.
// The fee is rounded and the net derived from it so fee+net == gross exactly.
func SplitFee(gross, feePercentage decimal.Decimal) (fee, net decimal.Decimal) {
	gross = nwt.Round(gross)
	fee = nwt.Round(gross.Mul(feePercentage))
	return fee, gross.Sub(fee)
}

// RecordSpend inserts a completed spend transaction. Spending is synchronous
// and irrevocable so it is never created pending.
func RecordSpend(ctx context.Context, store Store, in SpendInput) (UserTransaction, error) {
	amount, err := nwt.Positive(in.Amount)
	if err != nil {
		return UserTransaction{}, err
	}
	desc := in.Description
	if desc == "" {
		desc = fmt.Sprintf("Spent %s NWT on %s", amount.String(), in.Category)
	}
	now := time.Now().UTC()
	tx := UserTransaction{
		ID:            uuid.NewString(),
		ReaderID:      in.ReaderID,
		Type:          TypeSpend,
		Status:        StatusCompleted,
		NWTAmount:     amount,
		SpendCategory: in.Category,
		ContentID:     in.ContentID,
		CreatorID:     in.CreatorID,
		Description:   desc,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := store.InsertUser(ctx, tx); err != nil {
		return UserTransaction{}, err
	}
	return tx, nil
}

// RecordEarning inserts a completed earning carrying gross, fee and net.
func RecordEarning(ctx context.Context, store Store, in EarningInput) (CreatorTransaction, error) {
	if in.SourceUserTransactionID == "" {
		return CreatorTransaction{}, ErrMissingSource
	}
	gross, err := nwt.Positive(in.GrossAmount)
	if err != nil {
		return CreatorTransaction{}, err
	}
	pct, err := nwt.Percentage(in.FeePercentage)
	if err != nil {
		return CreatorTransaction{}, err
	}
	fee, net := SplitFee(gross, pct)
	now := time.Now().UTC()
	tx := CreatorTransaction{
		ID:                      uuid.NewString(),
		CreatorID:               in.CreatorID,
		Type:                    TypeEarning,
		Status:                  StatusCompleted,
		NWTAmount:               net,
		GrossAmount:             gross,
		PlatformFee:             fee,
		PlatformFeePercentage:   pct,
		EarningSource:           in.Source,
		ContentID:               in.ContentID,
		PurchaserID:             in.PurchaserID,
		SourceUserTransactionID: in.SourceUserTransactionID,
		Description:             fmt.Sprintf("Earned %s NWT from %s", net.String(), in.Source),
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := store.InsertCreator(ctx, tx); err != nil {
		return CreatorTransaction{}, err
	}
	return tx, nil
}

// RecordPendingPurchase inserts a pending NWT purchase keyed by the external
// payment identifier. It is completed or failed later by payment intake.
func RecordPendingPurchase(ctx context.Context, store Store, in PurchaseInput) (UserTransaction, error) {
	amount, err := nwt.Positive(in.NWTAmount)
	if err != nil {
		return UserTransaction{}, err
	}
	if in.ExternalPaymentID == "" {
		return UserTransaction{}, errors.New("external payment id is required")
	}
	desc := in.Description
	if desc == "" {
		desc = fmt.Sprintf("Purchase %s NWT for $%s", amount.String(), in.USDAmount.StringFixed(2))
	}
	now := time.Now().UTC()
	tx := UserTransaction{
		ID:                uuid.NewString(),
		ReaderID:          in.ReaderID,
		Type:              TypePurchase,
		Status:            StatusPending,
		NWTAmount:         amount,
		USDAmount:         decimal.NewNullDecimal(in.USDAmount.Round(2)),
		ExternalPaymentID: in.ExternalPaymentID,
		Metadata:          in.Metadata,
		Description:       desc,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := store.InsertUser(ctx, tx); err != nil {
		return UserTransaction{}, err
	}
	return tx, nil
}
