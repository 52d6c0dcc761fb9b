package purchase

import "time"

// Request is the body of POST /purchases.
type Request struct {
	CreatorID   string `json:"creator_id" validate:"required,uuid"`
	ContentID   string `json:"content_id" validate:"required,uuid"`
	ContentKind string `json:"content_kind" validate:"required,oneof=chapter comic"`
	Amount      string `json:"amount" validate:"required,numeric"`
}

// Response is the committed purchase as returned to clients.
type Response struct {
	TransactionID         string `json:"transaction_id"`
	EarningID             string `json:"earning_id"`
	ContentID             string `json:"content_id"`
	ContentKind           string `json:"content_kind"`
	Amount                string `json:"amount"`
	PlatformFee           string `json:"platform_fee"`
	CreatorEarning        string `json:"creator_earning"`
	PlatformFeePercentage string `json:"platform_fee_percentage"`
	ReaderBalance         string `json:"reader_balance"`
	GrantedAt             string `json:"granted_at"`
}

func toResponse(res Result) Response {
	return Response{
		TransactionID:         res.Spend.ID,
		EarningID:             res.Earning.ID,
		ContentID:             res.Grant.ContentID,
		ContentKind:           string(res.Grant.ContentKind),
		Amount:                res.Spend.NWTAmount.StringFixed(6),
		PlatformFee:           res.Earning.PlatformFee.StringFixed(6),
		CreatorEarning:        res.Earning.NWTAmount.StringFixed(6),
		PlatformFeePercentage: res.Earning.PlatformFeePercentage.StringFixed(4),
		ReaderBalance:         res.ReaderBalance.StringFixed(6),
		GrantedAt:             res.Grant.GrantedAt.Format(time.RFC3339),
	}
}
