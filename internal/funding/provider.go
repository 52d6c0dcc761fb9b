package funding

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentProvider represents a connector to the external fiat payment processor.
type PaymentProvider interface {
	Name() string
	CreatePayment(ctx context.Context, req PaymentRequest) (PaymentLink, error)
}

// PaymentRequest describes the fiat charge backing an NWT top-up.
type PaymentRequest struct {
	ReaderID    string
	NWTAmount   decimal.Decimal
	USDAmount   decimal.Decimal
	Description string
}

// PaymentLink is the provider's handle for a pending charge.
type PaymentLink struct {
	PaymentID   string
	CheckoutURL string
}

// StaticProvider simulates a provider by minting payment ids locally. The
// charge is settled later through the payment webhook.
type StaticProvider struct {
	CheckoutBaseURL string
}

// Name identifies the provider in transaction metadata.
func (StaticProvider) Name() string { return "static" }

// CreatePayment returns a synthetic payment id and checkout link.
func (p StaticProvider) CreatePayment(_ context.Context, _ PaymentRequest) (PaymentLink, error) {
	id := uuid.NewString()
	base := strings.TrimRight(p.CheckoutBaseURL, "/")
	if base == "" {
		base = "https://pay.example.invalid/checkout"
	}
	return PaymentLink{PaymentID: id, CheckoutURL: fmt.Sprintf("%s/%s", base, id)}, nil
}
