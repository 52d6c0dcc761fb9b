package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nerdwork/nwt_ledger/internal/access"
	"github.com/nerdwork/nwt_ledger/internal/ledger"
	"github.com/nerdwork/nwt_ledger/internal/notification"
	"github.com/nerdwork/nwt_ledger/internal/nwt"
	"github.com/nerdwork/nwt_ledger/internal/store"
	"github.com/nerdwork/nwt_ledger/internal/transactions"
)

// DefaultFeePercentage is the platform's share of every content sale.
var DefaultFeePercentage = decimal.RequireFromString("0.30")

var (
	// ErrSelfPurchase rejects a reader buying content from their own creator profile.
	ErrSelfPurchase = errors.New("cannot purchase your own content")
	// ErrAlreadyOwned rejects a second purchase of the same content.
	ErrAlreadyOwned = errors.New("content already owned")
	// ErrRecordingFailed wraps failures writing either transaction record.
	ErrRecordingFailed = errors.New("failed to record purchase")
	// ErrGrantFailed wraps failures writing the access grant.
	ErrGrantFailed = errors.New("failed to grant access")
	// ErrInvalidContentKind rejects content kinds that cannot be sold.
	ErrInvalidContentKind = errors.New("invalid content kind")
)

// AccessRecorder learns about grants once they commit.
type AccessRecorder interface {
	Remember(ctx context.Context, readerID, contentID string)
}

// Input describes a content purchase. ReaderID and CreatorID are profile ids.
type Input struct {
	ReaderID  string
	CreatorID string
	ContentID string
	Kind      access.ContentKind
	Amount    decimal.Decimal
}

// Result is the committed outcome of a purchase.
type Result struct {
	ReaderBalance  decimal.Decimal
	CreatorBalance decimal.Decimal
	Spend          transactions.UserTransaction
	Earning        transactions.CreatorTransaction
	Grant          access.Grant
}

// Service settles content purchases: it moves NWT from the reader to the
// creator, records both sides, and grants access, all in one unit of work.
type Service struct {
	uow      store.UnitOfWork
	feePct   decimal.Decimal
	notifier notification.Notifier
	access   AccessRecorder
	logger   *slog.Logger
}

// NewService builds the orchestrator. notifier and recorder may be nil.
func NewService(uow store.UnitOfWork, feePct decimal.Decimal, notifier notification.Notifier, recorder AccessRecorder, logger *slog.Logger) (*Service, error) {
	if uow == nil {
		return nil, fmt.Errorf("unit of work is required")
	}
	pct, err := nwt.Percentage(feePct)
	if err != nil {
		return nil, err
	}
	return &Service{uow: uow, feePct: pct, notifier: notifier, access: recorder, logger: logger}, nil
}

// FeePercentage returns the platform fee applied to sales.
func (s *Service) FeePercentage() decimal.Decimal {
	return s.feePct
}

func classify(kind access.ContentKind) (transactions.SpendCategory, transactions.EarningSource, error) {
	switch kind {
	case access.KindChapter:
		return transactions.CategoryChapterUnlock, transactions.SourceChapterPurchase, nil
	case access.KindComic:
		return transactions.CategoryComicPurchase, transactions.SourceComicPurchase, nil
	default:
		return "", "", ErrInvalidContentKind
	}
}

// PurchaseContent charges the reader, pays the creator net of the platform
// fee, and grants access. On any error nothing is persisted.
func (s *Service) PurchaseContent(ctx context.Context, in Input) (Result, error) {
	amount, err := nwt.Positive(in.Amount)
	if err != nil {
		return Result{}, err
	}
	category, source, err := classify(in.Kind)
	if err != nil {
		return Result{}, err
	}
	if in.ReaderID == "" || in.CreatorID == "" || in.ContentID == "" {
		return Result{}, fmt.Errorf("reader, creator and content are required")
	}

	readerRef, creatorRef := ledger.Reader(in.ReaderID), ledger.Creator(in.CreatorID)
	var res Result
	err = s.uow.WithinTx(ctx, func(ctx context.Context, r store.Repos) error {
		// reader before creator, always
		reader, err := r.Accounts.GetForUpdate(ctx, readerRef)
		if err != nil {
			return fmt.Errorf("reader %s: %w", in.ReaderID, err)
		}
		creator, err := r.Accounts.GetForUpdate(ctx, creatorRef)
		if err != nil {
			return fmt.Errorf("creator %s: %w", in.CreatorID, err)
		}
		if reader.UserID == creator.UserID {
			return ErrSelfPurchase
		}
		owned, err := r.Grants.Exists(ctx, in.ReaderID, in.ContentID)
		if err != nil {
			return err
		}
		if owned {
			return ErrAlreadyOwned
		}

		if res.ReaderBalance, err = ledger.Debit(ctx, r.Accounts, readerRef, amount); err != nil {
			return err
		}

		res.Spend, err = transactions.RecordSpend(ctx, r.Transactions, transactions.SpendInput{
			ReaderID:  in.ReaderID,
			Amount:    amount,
			Category:  category,
			ContentID: in.ContentID,
			CreatorID: in.CreatorID,
		})
		if err != nil {
			return fmt.Errorf("%w: spend: %w", ErrRecordingFailed, err)
		}

		res.Earning, err = transactions.RecordEarning(ctx, r.Transactions, transactions.EarningInput{
			CreatorID:               in.CreatorID,
			GrossAmount:             amount,
			FeePercentage:           s.feePct,
			Source:                  source,
			ContentID:               in.ContentID,
			PurchaserID:             in.ReaderID,
			SourceUserTransactionID: res.Spend.ID,
		})
		if err != nil {
			return fmt.Errorf("%w: earning: %w", ErrRecordingFailed, err)
		}

		if res.CreatorBalance, err = ledger.Credit(ctx, r.Accounts, creatorRef, res.Earning.NWTAmount); err != nil {
			if errors.Is(err, nwt.ErrNonPositiveAmount) {
				// a 100% fee leaves nothing to credit
				res.CreatorBalance = creator.Balance
			} else {
				return err
			}
		}

		res.Grant = access.Grant{
			ID:                uuid.NewString(),
			ReaderID:          in.ReaderID,
			ContentID:         in.ContentID,
			ContentKind:       in.Kind,
			UserTransactionID: res.Spend.ID,
			GrantedAt:         time.Now().UTC(),
		}
		if err := r.Grants.Insert(ctx, res.Grant); err != nil {
			if errors.Is(err, access.ErrAlreadyGranted) {
				return ErrAlreadyOwned
			}
			return fmt.Errorf("%w: %w", ErrGrantFailed, err)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("content purchased",
		slog.String("reader_id", in.ReaderID),
		slog.String("creator_id", in.CreatorID),
		slog.String("content_id", in.ContentID),
		slog.String("amount", amount.String()),
		slog.String("net", res.Earning.NWTAmount.String()),
		slog.String("spend_id", res.Spend.ID),
	)
	if s.access != nil {
		s.access.Remember(ctx, in.ReaderID, in.ContentID)
	}
	notification.Deliver(ctx, s.notifier, s.logger, notification.Message{
		Kind:        notification.KindContentPurchased,
		Destination: in.CreatorID,
		Body:        fmt.Sprintf("You earned %s NWT from a %s sale", res.Earning.NWTAmount.String(), in.Kind),
	})
	return res, nil
}
