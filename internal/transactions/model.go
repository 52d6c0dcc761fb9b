package transactions

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserType enumerates reader-side ledger events.
type UserType string

const (
	TypePurchase UserType = "purchase"
	TypeSpend    UserType = "spend"
	TypeRefund   UserType = "refund"
)

// Status is shared by reader and creator transactions.
type Status string

const (
	StatusPending    Status = "pending"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
	StatusProcessing Status = "processing"
)

// SpendCategory records what a reader spent NWT on.
type SpendCategory string

const (
	CategoryChapterUnlock SpendCategory = "chapter_unlock"
	CategoryComicPurchase SpendCategory = "comic_purchase"
	CategoryTipCreator    SpendCategory = "tip_creator"
	CategorySubscription  SpendCategory = "subscription"
)

// CreatorType enumerates creator-side ledger events.
type CreatorType string

const (
	TypeEarning    CreatorType = "earning"
	TypeWithdrawal CreatorType = "withdrawal"
	TypeBonus      CreatorType = "bonus"
)

// EarningSource records which kind of sale produced an earning.
type EarningSource string

const (
	SourceChapterPurchase     EarningSource = "chapter_purchase"
	SourceComicPurchase       EarningSource = "comic_purchase"
	SourceTipReceived         EarningSource = "tip_received"
	SourceSubscriptionRevenue EarningSource = "subscription_revenue"
)

// UserTransaction is an immutable reader-side ledger event. Only the
// settlement fields of a purchase change after insert.
type UserTransaction struct {
	ID                  string
	ReaderID            string
	Type                UserType
	Status              Status
	NWTAmount           decimal.Decimal
	USDAmount           decimal.NullDecimal
	SpendCategory       SpendCategory
	ContentID           string
	CreatorID           string
	ExternalPaymentID   string
	SettlementReference string
	Metadata            map[string]any
	FailureReason       string
	Description         string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CreatorTransaction is an immutable creator-side ledger event. NWTAmount is
// the net credited to the creator.
type CreatorTransaction struct {
	ID                      string
	CreatorID               string
	Type                    CreatorType
	Status                  Status
	NWTAmount               decimal.Decimal
	GrossAmount             decimal.Decimal
	PlatformFee             decimal.Decimal
	PlatformFeePercentage   decimal.Decimal
	EarningSource           EarningSource
	ContentID               string
	PurchaserID             string
	SourceUserTransactionID string
	Description             string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// UserFilter narrows reader transaction listings.
type UserFilter struct {
	ReaderID string
	Type     UserType
	Status   Status
	Limit    int
	Offset   int
}

// CreatorFilter narrows creator transaction listings.
type CreatorFilter struct {
	CreatorID               string
	Type                    CreatorType
	SourceUserTransactionID string
	Limit                   int
	Offset                  int
}

// Totals aggregates reader transactions per (type, status).
type Totals struct {
	Type   UserType
	Status Status
	Amount decimal.Decimal
	Count  int
}
