package store

import (
	"context"
	"errors"

	"github.com/nerdwork/nwt_ledger/internal/access"
	"github.com/nerdwork/nwt_ledger/internal/ledger"
	"github.com/nerdwork/nwt_ledger/internal/transactions"
)

// ErrReadOnly is returned by write methods of repositories handed out by View.
var ErrReadOnly = errors.New("write attempted in read-only unit of work")

// Repos bundles the repositories bound to one unit of work.
type Repos struct {
	Accounts     ledger.AccountStore
	Transactions transactions.Store
	Grants       access.Store
}

// UnitOfWork scopes repository access to a single atomic boundary.
type UnitOfWork interface {
	// WithinTx runs fn so that all of its writes commit together, or none do
	// when fn returns an error.
	WithinTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
	// View runs fn with read-only repositories.
	View(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
}
