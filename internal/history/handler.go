package history

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nerdwork/nwt_ledger/internal/binding"
	"github.com/nerdwork/nwt_ledger/internal/ledger"
	"github.com/nerdwork/nwt_ledger/internal/middleware"
	"github.com/nerdwork/nwt_ledger/internal/transactions"
	"github.com/nerdwork/nwt_ledger/internal/wallet"
)

// Handler exposes transaction history endpoints.
type Handler struct {
	service *Service
	wallets *wallet.Service
}

// NewHandler constructs a history handler.
func NewHandler(service *Service, wallets *wallet.Service) *Handler {
	return &Handler{service: service, wallets: wallets}
}

func (h *Handler) profile(c *fiber.Ctx, kind ledger.Kind) (string, error) {
	acct, err := h.wallets.Resolve(c.UserContext(), kind, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return "", fiber.NewError(http.StatusNotFound, string(kind)+" profile not found")
		}
		return "", err
	}
	return acct.ID, nil
}

func pageJSON[T any, R any](p Page[T], fn func(T) R) fiber.Map {
	return fiber.Map{
		"items": mapItems(p.Items, fn),
		"pagination": fiber.Map{
			"total":    p.Total,
			"limit":    p.Limit,
			"offset":   p.Offset,
			"has_more": p.HasMore(),
		},
	}
}

// List returns the caller's transactions.
func (h *Handler) List(c *fiber.Ctx) error {
	var q listQuery
	if err := binding.Query(c, &q); err != nil {
		return err
	}
	readerID, err := h.profile(c, ledger.KindReader)
	if err != nil {
		return err
	}
	page, err := h.service.Transactions(c.UserContext(), readerID, Filter{
		Type:   transactions.UserType(q.Type),
		Status: transactions.Status(q.Status),
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": pageJSON(page, toUserTx)})
}

// Get returns a single transaction owned by the caller.
func (h *Handler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid transaction id")
	}
	readerID, err := h.profile(c, ledger.KindReader)
	if err != nil {
		return err
	}
	tx, err := h.service.Transaction(c.UserContext(), readerID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, ErrNotFound.Error())
		}
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": toUserTx(tx)})
}

// Summary returns the caller's balance and activity totals.
func (h *Handler) Summary(c *fiber.Ctx) error {
	reader, err := h.wallets.Resolve(c.UserContext(), ledger.KindReader, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return fiber.NewError(http.StatusNotFound, "reader profile not found")
		}
		return err
	}
	sum, err := h.service.Summary(c.UserContext(), reader.ID)
	if err != nil {
		return err
	}
	breakdown := make([]fiber.Map, 0, len(sum.Breakdown))
	for _, t := range sum.Breakdown {
		breakdown = append(breakdown, fiber.Map{
			"type":   t.Type,
			"status": t.Status,
			"amount": t.Amount.StringFixed(6),
			"count":  t.Count,
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"wallet_balance": reader.Balance.StringFixed(6),
			"summary": fiber.Map{
				"total_purchased":        sum.TotalPurchased.StringFixed(6),
				"total_spent":            sum.TotalSpent.StringFixed(6),
				"pending_purchases":      sum.PendingPurchases.StringFixed(6),
				"completed_transactions": sum.CompletedTransactions,
				"net":                    sum.Net().StringFixed(6),
			},
			"statistics": breakdown,
		},
	})
}

type earningsQuery struct {
	Limit  int `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

// Earnings returns the caller's creator ledger.
func (h *Handler) Earnings(c *fiber.Ctx) error {
	var q earningsQuery
	if err := binding.Query(c, &q); err != nil {
		return err
	}
	creatorID, err := h.profile(c, ledger.KindCreator)
	if err != nil {
		return err
	}
	page, err := h.service.Earnings(c.UserContext(), creatorID, q.Limit, q.Offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": pageJSON(page, toEarning)})
}
