package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Kind distinguishes the two disjoint account holder types.
type Kind string

const (
	KindReader  Kind = "reader"
	KindCreator Kind = "creator"
)

// Valid reports whether k is a known account kind.
func (k Kind) Valid() bool {
	return k == KindReader || k == KindCreator
}

// Ref addresses a single ledger account by kind and profile identifier.
type Ref struct {
	Kind Kind
	ID   string
}

// Reader returns the account reference of a reader profile.
func Reader(id string) Ref { return Ref{Kind: KindReader, ID: id} }

// Creator returns the account reference of a creator profile.
func Creator(id string) Ref { return Ref{Kind: KindCreator, ID: id} }

// Code renders the account reference as "<kind>:<id>".
func (r Ref) Code() string {
	return string(r.Kind) + ":" + r.ID
}

// Account holds the NWT balance of a reader or creator profile.
type Account struct {
	Ref
	UserID    string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountStore is the persistence contract for account balances. Every call
// runs inside the unit of work that handed the store out.
type AccountStore interface {
	Create(ctx context.Context, account Account) error
	Get(ctx context.Context, ref Ref) (Account, error)
	// GetForUpdate reads the account and holds a row lock until the unit of work ends.
	GetForUpdate(ctx context.Context, ref Ref) (Account, error)
	FindByUser(ctx context.Context, kind Kind, userID string) (Account, error)
	UpdateBalance(ctx context.Context, ref Ref, balance decimal.Decimal, at time.Time) error
}
