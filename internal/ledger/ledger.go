package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nerdwork/nwt_ledger/internal/nwt"
)

var (
	// ErrInsufficientBalance occurs when a debit would take the account below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAccountNotFound indicates no ledger account has been provisioned for
	// the referenced profile. It is never treated as a zero balance.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists is returned by AccountStore.Create for a duplicate reference.
	ErrAccountExists = errors.New("account already exists")

	// ErrInvalidKind rejects references with an unknown account kind.
	ErrInvalidKind = errors.New("invalid account kind")
)

// Credit adds amount to the referenced account and returns the new balance.
func Credit(ctx context.Context, accounts AccountStore, ref Ref, amount decimal.Decimal) (decimal.Decimal, error) {
	amount, err := nwt.Positive(amount)
	if err != nil {
		return decimal.Zero, err
	}
	acct, err := accounts.GetForUpdate(ctx, ref)
	if err != nil {
		return decimal.Zero, err
	}
	balance := nwt.Round(acct.Balance.Add(amount))
	if err := accounts.UpdateBalance(ctx, ref, balance, time.Now().UTC()); err != nil {
		return decimal.Zero, fmt.Errorf("credit %s: %w", ref.Code(), err)
	}
	return balance, nil
}

// Debit subtracts amount from the referenced account and returns the new
// balance. Nothing is written when the balance cannot cover the amount.
func Debit(ctx context.Context, accounts AccountStore, ref Ref, amount decimal.Decimal) (decimal.Decimal, error) {
	amount, err := nwt.Positive(amount)
	if err != nil {
		return decimal.Zero, err
	}
	acct, err := accounts.GetForUpdate(ctx, ref)
	if err != nil {
		return decimal.Zero, err
	}
	balance := nwt.Round(acct.Balance.Sub(amount))
	if balance.IsNegative() {
		return acct.Balance, ErrInsufficientBalance
	}
	if err := accounts.UpdateBalance(ctx, ref, balance, time.Now().UTC()); err != nil {
		return decimal.Zero, fmt.Errorf("debit %s: %w", ref.Code(), err)
	}
	return balance, nil
}

// Open guarantees an account exists for the reference, creating it with a
// zero balance when missing. An existing account owned by the same user is
// returned unchanged; one owned by someone else yields ErrAccountExists.
func Open(ctx context.Context, accounts AccountStore, ref Ref, userID string) (Account, error) {
	if !ref.Kind.Valid() {
		return Account{}, ErrInvalidKind
	}
	acct, err := accounts.Get(ctx, ref)
	if err == nil {
		return ownedBy(acct, userID)
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return Account{}, err
	}
	now := time.Now().UTC()
	acct = Account{Ref: ref, UserID: userID, Balance: decimal.Zero, CreatedAt: now, UpdatedAt: now}
	if err := accounts.Create(ctx, acct); err != nil {
		if !errors.Is(err, ErrAccountExists) {
			return Account{}, err
		}
		existing, getErr := accounts.Get(ctx, ref)
		if getErr != nil {
			return Account{}, err
		}
		return ownedBy(existing, userID)
	}
	return acct, nil
}

func ownedBy(acct Account, userID string) (Account, error) {
	if acct.UserID != userID {
		return Account{}, ErrAccountExists
	}
	return acct, nil
}
