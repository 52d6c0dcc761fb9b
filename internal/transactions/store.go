package transactions

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no transaction matches the lookup.
	ErrNotFound = errors.New("transaction not found")
	// ErrDuplicatePaymentID rejects a second purchase for the same external payment.
	ErrDuplicatePaymentID = errors.New("external payment id already recorded")
)

// Store persists reader and creator transactions. Inserts are the only
// writes except UpdateSettlement on the payment intake path.
type Store interface {
	InsertUser(ctx context.Context, tx UserTransaction) error
	InsertCreator(ctx context.Context, tx CreatorTransaction) error
	GetUser(ctx context.Context, id string) (UserTransaction, error)
	// UserByExternalPaymentForUpdate locks the purchase row until the unit of work ends.
	UserByExternalPaymentForUpdate(ctx context.Context, externalPaymentID string) (UserTransaction, error)
	UpdateSettlement(ctx context.Context, tx UserTransaction) error
	ListUser(ctx context.Context, filter UserFilter) ([]UserTransaction, int, error)
	ListCreator(ctx context.Context, filter CreatorFilter) ([]CreatorTransaction, int, error)
	UserTotals(ctx context.Context, readerID string) ([]Totals, error)
}
