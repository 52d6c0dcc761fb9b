package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nerdwork/nwt_ledger/internal/ledger"
	"github.com/nerdwork/nwt_ledger/internal/store"
)

// ErrInvalidUserID rejects identities that are not UUIDs.
var ErrInvalidUserID = errors.New("invalid user id")

// Service exposes account provisioning and balance lookups.
type Service struct {
	uow store.UnitOfWork
}

// NewService builds a wallet service instance.
func NewService(uow store.UnitOfWork) *Service {
	return &Service{uow: uow}
}

// OpenInput captures data required to open an account.
type OpenInput struct {
	UserID    string
	Kind      ledger.Kind
	ProfileID string
}

// Open provisions a zero-balance account of the requested kind for the user.
// A user that already holds one gets it back unchanged.
func (s *Service) Open(ctx context.Context, input OpenInput) (ledger.Account, error) {
	if !input.Kind.Valid() {
		return ledger.Account{}, ledger.ErrInvalidKind
	}
	if _, err := uuid.Parse(input.UserID); err != nil {
		return ledger.Account{}, ErrInvalidUserID
	}
	profileID := input.ProfileID
	if profileID == "" {
		profileID = uuid.NewString()
	}

	var acct ledger.Account
	err := s.uow.WithinTx(ctx, func(ctx context.Context, r store.Repos) error {
		existing, err := r.Accounts.FindByUser(ctx, input.Kind, input.UserID)
		if err == nil {
			acct = existing
			return nil
		}
		if !errors.Is(err, ledger.ErrAccountNotFound) {
			return err
		}
		acct, err = ledger.Open(ctx, r.Accounts, ledger.Ref{Kind: input.Kind, ID: profileID}, input.UserID)
		return err
	})
	if errors.Is(err, ledger.ErrAccountExists) {
		// a concurrent first open may have won the (kind, user) slot
		if existing, findErr := s.Resolve(ctx, input.Kind, input.UserID); findErr == nil {
			return existing, nil
		}
	}
	return acct, err
}

// Resolve returns the user's account of the given kind.
func (s *Service) Resolve(ctx context.Context, kind ledger.Kind, userID string) (ledger.Account, error) {
	var acct ledger.Account
	err := s.uow.View(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		acct, err = r.Accounts.FindByUser(ctx, kind, userID)
		return err
	})
	return acct, err
}

// Get returns every balance held by the user. It fails with
// ledger.ErrAccountNotFound when the user has no account at all.
func (s *Service) Get(ctx context.Context, userID string) (Wallet, error) {
	w := Wallet{UserID: userID}
	err := s.uow.View(ctx, func(ctx context.Context, r store.Repos) error {
		for _, kind := range []ledger.Kind{ledger.KindReader, ledger.KindCreator} {
			acct, err := r.Accounts.FindByUser(ctx, kind, userID)
			if errors.Is(err, ledger.ErrAccountNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if kind == ledger.KindReader {
				w.Reader = balanceOf(acct)
			} else {
				w.Creator = balanceOf(acct)
			}
		}
		return nil
	})
	if err != nil {
		return Wallet{}, err
	}
	if w.Reader == nil && w.Creator == nil {
		return Wallet{}, ledger.ErrAccountNotFound
	}
	w.AsOf = time.Now().UTC()
	return w, nil
}
