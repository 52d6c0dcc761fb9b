package library

import (
	"context"
	"log/slog"

	"github.com/nerdwork/nwt_ledger/internal/access"
	"github.com/nerdwork/nwt_ledger/internal/store"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Service answers access checks and lists the content a reader paid for.
type Service struct {
	uow    store.UnitOfWork
	cache  *Cache
	logger *slog.Logger
}

// NewService wires the library service. cache may be nil.
func NewService(uow store.UnitOfWork, cache *Cache, logger *slog.Logger) *Service {
	return &Service{uow: uow, cache: cache, logger: logger}
}

// HasAccess reports whether the reader holds a grant for the content. Cache
// failures fall through to the store.
func (s *Service) HasAccess(ctx context.Context, readerID, contentID string) (bool, error) {
	known, err := s.cache.Known(ctx, readerID, contentID)
	if err != nil {
		s.logger.Warn("access cache lookup failed", slog.String("reader_id", readerID), slog.Any("error", err))
	}
	if known {
		return true, nil
	}

	var ok bool
	err = s.uow.View(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		ok, err = r.Grants.Exists(ctx, readerID, contentID)
		return err
	})
	if err != nil {
		return false, err
	}
	if ok {
		s.Remember(ctx, readerID, contentID)
	}
	return ok, nil
}

// Remember primes the cache after a grant commits.
func (s *Service) Remember(ctx context.Context, readerID, contentID string) {
	if err := s.cache.Remember(ctx, readerID, contentID); err != nil {
		s.logger.Warn("access cache write failed", slog.String("reader_id", readerID), slog.Any("error", err))
	}
}

// Page is one slice of a reader's library.
type Page struct {
	Grants []access.Grant
	Total  int
	Limit  int
	Offset int
}

// List returns the reader's grants, newest first.
func (s *Service) List(ctx context.Context, readerID string, limit, offset int) (Page, error) {
	limit, offset = clampPage(limit, offset)
	p := Page{Limit: limit, Offset: offset}
	err := s.uow.View(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		p.Grants, p.Total, err = r.Grants.ListByReader(ctx, readerID, limit, offset)
		return err
	})
	return p, err
}

func clampPage(limit, offset int) (int, int) {
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
