package funding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nerdwork/nwt_ledger/internal/ledger"
	"github.com/nerdwork/nwt_ledger/internal/notification"
	"github.com/nerdwork/nwt_ledger/internal/nwt"
	"github.com/nerdwork/nwt_ledger/internal/store"
	"github.com/nerdwork/nwt_ledger/internal/transactions"
)

var (
	// ErrPaymentNotFound means no purchase carries the external payment id.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrUnknownStatus rejects provider statuses outside the known vocabulary.
	ErrUnknownStatus = errors.New("unknown payment status")
	// ErrNotPending rejects settling a purchase that already failed.
	ErrNotPending = errors.New("purchase is not pending")
	// ErrProviderFailed wraps failures reported by the payment provider.
	ErrProviderFailed = errors.New("payment provider failed")
)

// Outcome is the normalised meaning of a provider status.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
)

// ParseStatus maps a provider status string onto an Outcome.
func ParseStatus(status string) Outcome {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success", "succeeded", "completed", "paid", "confirmed":
		return OutcomeSucceeded
	case "failed", "failure", "cancelled", "canceled", "expired", "declined":
		return OutcomeFailed
	default:
		return OutcomeUnknown
	}
}

// Service coordinates NWT top-ups paid through the external provider.
type Service struct {
	uow      store.UnitOfWork
	provider PaymentProvider
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService prepares a funding service. A nil provider selects StaticProvider.
func NewService(uow store.UnitOfWork, provider PaymentProvider, notifier notification.Notifier, logger *slog.Logger) (*Service, error) {
	if uow == nil {
		return nil, fmt.Errorf("unit of work is required")
	}
	if provider == nil {
		provider = StaticProvider{}
	}
	return &Service{uow: uow, provider: provider, notifier: notifier, logger: logger}, nil
}

// TopUpInput captures a reader's request to buy NWT.
type TopUpInput struct {
	ReaderID    string
	NWTAmount   decimal.Decimal
	USDAmount   decimal.Decimal
	Description string
}

// TopUp is a pending purchase and where the reader pays for it.
type TopUp struct {
	Transaction transactions.UserTransaction
	CheckoutURL string
}

// InitiateTopUp opens a payment with the provider and records the pending
// purchase. No balance changes until the payment is confirmed.
func (s *Service) InitiateTopUp(ctx context.Context, in TopUpInput) (TopUp, error) {
	amount, err := nwt.Positive(in.NWTAmount)
	if err != nil {
		return TopUp{}, err
	}
	// USD is stored in cents; anything rounding to 0.00 is not a charge.
	usd := in.USDAmount.Round(2)
	if !usd.IsPositive() {
		return TopUp{}, fmt.Errorf("usd amount: %w", nwt.ErrNonPositiveAmount)
	}
	err = s.uow.View(ctx, func(ctx context.Context, r store.Repos) error {
		_, err := r.Accounts.Get(ctx, ledger.Reader(in.ReaderID))
		return err
	})
	if err != nil {
		return TopUp{}, err
	}

	link, err := s.provider.CreatePayment(ctx, PaymentRequest{
		ReaderID:    in.ReaderID,
		NWTAmount:   amount,
		USDAmount:   usd,
		Description: in.Description,
	})
	if err != nil {
		return TopUp{}, fmt.Errorf("%w: %w", ErrProviderFailed, err)
	}

	var tx transactions.UserTransaction
	err = s.uow.WithinTx(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		tx, err = transactions.RecordPendingPurchase(ctx, r.Transactions, transactions.PurchaseInput{
			ReaderID:          in.ReaderID,
			NWTAmount:         amount,
			USDAmount:         usd,
			ExternalPaymentID: link.PaymentID,
			Description:       in.Description,
			Metadata: map[string]any{
				"provider":     s.provider.Name(),
				"checkout_url": link.CheckoutURL,
			},
		})
		return err
	})
	if err != nil {
		return TopUp{}, err
	}
	s.logger.Info("top-up initiated",
		slog.String("reader_id", in.ReaderID),
		slog.String("payment_id", link.PaymentID),
		slog.String("nwt_amount", amount.String()))
	return TopUp{Transaction: tx, CheckoutURL: link.CheckoutURL}, nil
}

// Confirmation is a provider report about an external payment.
type Confirmation struct {
	PaymentID     string
	Status        string
	Reference     string
	FailureReason string
	Metadata      map[string]any
}

// ConfirmResult is the state of the purchase after a confirmation.
type ConfirmResult struct {
	Transaction      transactions.UserTransaction
	ReaderBalance    decimal.NullDecimal
	AlreadyProcessed bool
}

// ConfirmPurchase settles a pending purchase. A successful payment credits the
// reader exactly once; repeated confirmations return the settled transaction
// with AlreadyProcessed set. Creator accounts are never touched.
func (s *Service) ConfirmPurchase(ctx context.Context, c Confirmation) (ConfirmResult, error) {
	outcome := ParseStatus(c.Status)
	if outcome == OutcomeUnknown {
		return ConfirmResult{}, fmt.Errorf("%w: %q", ErrUnknownStatus, c.Status)
	}
	if c.PaymentID == "" {
		return ConfirmResult{}, ErrPaymentNotFound
	}

	var res ConfirmResult
	err := s.uow.WithinTx(ctx, func(ctx context.Context, r store.Repos) error {
		tx, err := r.Transactions.UserByExternalPaymentForUpdate(ctx, c.PaymentID)
		if err != nil {
			if errors.Is(err, transactions.ErrNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}
		res.Transaction = tx

		switch {
		case tx.Status == transactions.StatusCompleted:
			res.AlreadyProcessed = true
			return nil
		case outcome == OutcomeFailed && tx.Status == transactions.StatusFailed:
			res.AlreadyProcessed = true
			return nil
		case tx.Status != transactions.StatusPending:
			return fmt.Errorf("%w: status %s", ErrNotPending, tx.Status)
		}

		tx.Metadata = mergeMetadata(tx.Metadata, c.Metadata)
		tx.UpdatedAt = time.Now().UTC()
		if outcome == OutcomeSucceeded {
			balance, err := ledger.Credit(ctx, r.Accounts, ledger.Reader(tx.ReaderID), tx.NWTAmount)
			if err != nil {
				return fmt.Errorf("credit reader %s: %w", tx.ReaderID, err)
			}
			res.ReaderBalance = decimal.NewNullDecimal(balance)
			tx.Status = transactions.StatusCompleted
			tx.SettlementReference = c.Reference
		} else {
			tx.Status = transactions.StatusFailed
			tx.FailureReason = c.FailureReason
			if tx.FailureReason == "" {
				tx.FailureReason = "payment " + strings.ToLower(c.Status)
			}
		}
		if err := r.Transactions.UpdateSettlement(ctx, tx); err != nil {
			return err
		}
		res.Transaction = tx
		return nil
	})
	if err != nil {
		return ConfirmResult{}, err
	}

	if res.AlreadyProcessed {
		s.logger.Info("duplicate payment confirmation",
			slog.String("payment_id", c.PaymentID),
			slog.String("status", string(res.Transaction.Status)))
		return res, nil
	}
	s.logger.Info("payment settled",
		slog.String("payment_id", c.PaymentID),
		slog.String("reader_id", res.Transaction.ReaderID),
		slog.String("status", string(res.Transaction.Status)))

	msg := notification.Message{Destination: res.Transaction.ReaderID}
	if res.Transaction.Status == transactions.StatusCompleted {
		msg.Kind = notification.KindTopUpCompleted
		msg.Body = fmt.Sprintf("%s NWT added to your wallet", res.Transaction.NWTAmount.String())
	} else {
		msg.Kind = notification.KindTopUpFailed
		msg.Body = "Your NWT purchase could not be completed: " + res.Transaction.FailureReason
	}
	notification.Deliver(ctx, s.notifier, s.logger, msg)
	return res, nil
}

func mergeMetadata(existing, incoming map[string]any) map[string]any {
	if len(incoming) == 0 {
		return existing
	}
	out := make(map[string]any, len(existing)+len(incoming))
	maps.Copy(out, existing)
	maps.Copy(out, incoming)
	return out
}
