package history

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/nerdwork/nwt_ledger/internal/store"
	"github.com/nerdwork/nwt_ledger/internal/transactions"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// ErrNotFound hides transactions that do not exist or belong to someone else.
var ErrNotFound = errors.New("transaction not found")

// Service serves read-only views over the transaction log.
type Service struct {
	uow store.UnitOfWork
}

// NewService builds a history service.
func NewService(uow store.UnitOfWork) *Service {
	return &Service{uow: uow}
}

// Filter narrows a reader's history.
type Filter struct {
	Type   transactions.UserType
	Status transactions.Status
	Limit  int
	Offset int
}

// Page is one slice of a listing with its total size.
type Page[T any] struct {
	Items  []T
	Total  int
	Limit  int
	Offset int
}

// HasMore reports whether further pages exist.
func (p Page[T]) HasMore() bool {
	return p.Offset+len(p.Items) < p.Total
}

func clamp(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Transactions lists the reader's transactions, newest first.
func (s *Service) Transactions(ctx context.Context, readerID string, f Filter) (Page[transactions.UserTransaction], error) {
	limit, offset := clamp(f.Limit, f.Offset)
	p := Page[transactions.UserTransaction]{Limit: limit, Offset: offset}
	err := s.uow.View(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		p.Items, p.Total, err = r.Transactions.ListUser(ctx, transactions.UserFilter{
			ReaderID: readerID,
			Type:     f.Type,
			Status:   f.Status,
			Limit:    limit,
			Offset:   offset,
		})
		return err
	})
	return p, err
}

// Transaction returns one of the reader's transactions.
func (s *Service) Transaction(ctx context.Context, readerID, id string) (transactions.UserTransaction, error) {
	var tx transactions.UserTransaction
	err := s.uow.View(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		tx, err = r.Transactions.GetUser(ctx, id)
		return err
	})
	if errors.Is(err, transactions.ErrNotFound) || (err == nil && tx.ReaderID != readerID) {
		return transactions.UserTransaction{}, ErrNotFound
	}
	return tx, err
}

// Summary aggregates a reader's purchase and spend activity.
type Summary struct {
	TotalPurchased        decimal.Decimal
	TotalSpent            decimal.Decimal
	PendingPurchases      decimal.Decimal
	CompletedTransactions int
	Breakdown             []transactions.Totals
}

// Net is completed purchases minus completed spends.
func (s Summary) Net() decimal.Decimal {
	return s.TotalPurchased.Sub(s.TotalSpent)
}

// Summary totals the reader's transactions by type and status.
func (s *Service) Summary(ctx context.Context, readerID string) (Summary, error) {
	var totals []transactions.Totals
	err := s.uow.View(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		totals, err = r.Transactions.UserTotals(ctx, readerID)
		return err
	})
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{
		TotalPurchased:   decimal.Zero,
		TotalSpent:       decimal.Zero,
		PendingPurchases: decimal.Zero,
		Breakdown:        totals,
	}
	for _, t := range totals {
		switch {
		case t.Type == transactions.TypePurchase && t.Status == transactions.StatusCompleted:
			sum.TotalPurchased = sum.TotalPurchased.Add(t.Amount)
		case t.Type == transactions.TypePurchase && t.Status == transactions.StatusPending:
			sum.PendingPurchases = sum.PendingPurchases.Add(t.Amount)
		case t.Type == transactions.TypeSpend && t.Status == transactions.StatusCompleted:
			sum.TotalSpent = sum.TotalSpent.Add(t.Amount)
		}
		if t.Status == transactions.StatusCompleted {
			sum.CompletedTransactions += t.Count
		}
	}
	return sum, nil
}

// Earnings lists a creator's ledger entries, newest first.
func (s *Service) Earnings(ctx context.Context, creatorID string, limit, offset int) (Page[transactions.CreatorTransaction], error) {
	limit, offset = clamp(limit, offset)
	p := Page[transactions.CreatorTransaction]{Limit: limit, Offset: offset}
	err := s.uow.View(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		p.Items, p.Total, err = r.Transactions.ListCreator(ctx, transactions.CreatorFilter{
			CreatorID: creatorID,
			Limit:     limit,
			Offset:    offset,
		})
		return err
	})
	return p, err
}
