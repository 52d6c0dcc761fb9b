package wallet

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nerdwork/nwt_ledger/internal/ledger"
)

// Balance is the NWT balance of one ledger account.
type Balance struct {
	Kind      ledger.Kind
	ProfileID string
	Amount    decimal.Decimal
	UpdatedAt time.Time
}

// Wallet groups the reader and creator balances held by a single user.
// Either side is nil when the user has no account of that kind.
type Wallet struct {
	UserID  string
	Reader  *Balance
	Creator *Balance
	AsOf    time.Time
}

func balanceOf(acct ledger.Account) *Balance {
	return &Balance{
		Kind:      acct.Kind,
		ProfileID: acct.ID,
		Amount:    acct.Balance,
		UpdatedAt: acct.UpdatedAt,
	}
}
