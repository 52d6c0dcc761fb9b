package history

import (
	"time"

	"github.com/nerdwork/nwt_ledger/internal/transactions"
)

type listQuery struct {
	Type   string `query:"type" validate:"omitempty,oneof=purchase spend refund"`
	Status string `query:"status" validate:"omitempty,oneof=pending processing completed failed refunded"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

type userTxResponse struct {
	ID                  string         `json:"id"`
	Type                string         `json:"type"`
	Status              string         `json:"status"`
	NWTAmount           string         `json:"nwt_amount"`
	USDAmount           *string        `json:"usd_amount,omitempty"`
	SpendCategory       string         `json:"spend_category,omitempty"`
	ContentID           string         `json:"content_id,omitempty"`
	CreatorID           string         `json:"creator_id,omitempty"`
	ExternalPaymentID   string         `json:"external_payment_id,omitempty"`
	SettlementReference string         `json:"settlement_reference,omitempty"`
	FailureReason       string         `json:"failure_reason,omitempty"`
	Metadata            map[string]any `json:"metadata,omitempty"`
	Description         string         `json:"description"`
	CreatedAt           string         `json:"created_at"`
}

func toUserTx(tx transactions.UserTransaction) userTxResponse {
	resp := userTxResponse{
		ID:                  tx.ID,
		Type:                string(tx.Type),
		Status:              string(tx.Status),
		NWTAmount:           tx.NWTAmount.StringFixed(6),
		SpendCategory:       string(tx.SpendCategory),
		ContentID:           tx.ContentID,
		CreatorID:           tx.CreatorID,
		ExternalPaymentID:   tx.ExternalPaymentID,
		SettlementReference: tx.SettlementReference,
		FailureReason:       tx.FailureReason,
		Metadata:            tx.Metadata,
		Description:         tx.Description,
		CreatedAt:           tx.CreatedAt.Format(time.RFC3339),
	}
	if tx.USDAmount.Valid {
		usd := tx.USDAmount.Decimal.StringFixed(2)
		resp.USDAmount = &usd
	}
	return resp
}

type earningResponse struct {
	ID                      string `json:"id"`
	Type                    string `json:"type"`
	Status                  string `json:"status"`
	NWTAmount               string `json:"nwt_amount"`
	GrossAmount             string `json:"gross_amount"`
	PlatformFee             string `json:"platform_fee"`
	PlatformFeePercentage   string `json:"platform_fee_percentage"`
	EarningSource           string `json:"earning_source,omitempty"`
	ContentID               string `json:"content_id,omitempty"`
	PurchaserID             string `json:"purchaser_id,omitempty"`
	SourceUserTransactionID string `json:"source_user_transaction_id,omitempty"`
	Description             string `json:"description"`
	CreatedAt               string `json:"created_at"`
}

func toEarning(tx transactions.CreatorTransaction) earningResponse {
	return earningResponse{
		ID:                      tx.ID,
		Type:                    string(tx.Type),
		Status:                  string(tx.Status),
		NWTAmount:               tx.NWTAmount.StringFixed(6),
		GrossAmount:             tx.GrossAmount.StringFixed(6),
		PlatformFee:             tx.PlatformFee.StringFixed(6),
		PlatformFeePercentage:   tx.PlatformFeePercentage.StringFixed(4),
		EarningSource:           string(tx.EarningSource),
		ContentID:               tx.ContentID,
		PurchaserID:             tx.PurchaserID,
		SourceUserTransactionID: tx.SourceUserTransactionID,
		Description:             tx.Description,
		CreatedAt:               tx.CreatedAt.Format(time.RFC3339),
	}
}

func mapItems[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, it := range items {
		out = append(out, fn(it))
	}
	return out
}
