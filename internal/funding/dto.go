package funding

import (
	"time"

	"github.com/nerdwork/nwt_ledger/internal/transactions"
)

// TopUpRequest is the body of POST /wallet/top-ups.
type TopUpRequest struct {
	NWTAmount   string `json:"nwt_amount" validate:"required,numeric"`
	USDAmount   string `json:"usd_amount" validate:"required,numeric"`
	Description string `json:"description" validate:"max=255"`
}

// WebhookRequest is the provider's payment callback.
type WebhookRequest struct {
	PaymentID            string         `json:"payment_id" validate:"required"`
	Status               string         `json:"status" validate:"required"`
	TransactionReference string         `json:"transaction_reference"`
	FailureReason        string         `json:"failure_reason"`
	Metadata             map[string]any `json:"metadata"`
}

// TransactionResponse renders a reader transaction.
type TransactionResponse struct {
	ID                  string         `json:"id"`
	Type                string         `json:"type"`
	Status              string         `json:"status"`
	NWTAmount           string         `json:"nwt_amount"`
	USDAmount           *string        `json:"usd_amount,omitempty"`
	ExternalPaymentID   string         `json:"external_payment_id,omitempty"`
	SettlementReference string         `json:"settlement_reference,omitempty"`
	FailureReason       string         `json:"failure_reason,omitempty"`
	Metadata            map[string]any `json:"metadata,omitempty"`
	Description         string         `json:"description"`
	CreatedAt           string         `json:"created_at"`
	UpdatedAt           string         `json:"updated_at"`
}

func toTransactionResponse(tx transactions.UserTransaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                  tx.ID,
		Type:                string(tx.Type),
		Status:              string(tx.Status),
		NWTAmount:           tx.NWTAmount.StringFixed(6),
		ExternalPaymentID:   tx.ExternalPaymentID,
		SettlementReference: tx.SettlementReference,
		FailureReason:       tx.FailureReason,
		Metadata:            tx.Metadata,
		Description:         tx.Description,
		CreatedAt:           tx.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           tx.UpdatedAt.Format(time.RFC3339),
	}
	if tx.USDAmount.Valid {
		usd := tx.USDAmount.Decimal.StringFixed(2)
		resp.USDAmount = &usd
	}
	return resp
}
