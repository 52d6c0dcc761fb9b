package library

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nerdwork/nwt_ledger/internal/binding"
	"github.com/nerdwork/nwt_ledger/internal/ledger"
	"github.com/nerdwork/nwt_ledger/internal/middleware"
	"github.com/nerdwork/nwt_ledger/internal/wallet"
)

// Handler exposes the reader's library.
type Handler struct {
	service *Service
	wallets *wallet.Service
}

// NewHandler constructs a library handler.
func NewHandler(service *Service, wallets *wallet.Service) *Handler {
	return &Handler{service: service, wallets: wallets}
}

type listQuery struct {
	Limit  int `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

type grantResponse struct {
	ContentID     string `json:"content_id"`
	ContentKind   string `json:"content_kind"`
	TransactionID string `json:"transaction_id"`
	GrantedAt     string `json:"granted_at"`
}

func (h *Handler) readerID(c *fiber.Ctx) (string, error) {
	acct, err := h.wallets.Resolve(c.UserContext(), ledger.KindReader, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return "", fiber.NewError(http.StatusNotFound, "reader profile not found")
		}
		return "", err
	}
	return acct.ID, nil
}

// Access answers whether the caller may read the content.
func (h *Handler) Access(c *fiber.Ctx) error {
	readerID, err := h.readerID(c)
	if err != nil {
		return err
	}
	contentID := c.Params("contentId")
	if _, err := uuid.Parse(contentID); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid content id")
	}
	ok, err := h.service.HasAccess(c.UserContext(), readerID, contentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"content_id": contentID, "has_access": ok},
	})
}

// List returns the caller's purchased content.
func (h *Handler) List(c *fiber.Ctx) error {
	var q listQuery
	if err := binding.Query(c, &q); err != nil {
		return err
	}
	readerID, err := h.readerID(c)
	if err != nil {
		return err
	}
	page, err := h.service.List(c.UserContext(), readerID, q.Limit, q.Offset)
	if err != nil {
		return err
	}
	items := make([]grantResponse, 0, len(page.Grants))
	for _, g := range page.Grants {
		items = append(items, grantResponse{
			ContentID:     g.ContentID,
			ContentKind:   string(g.ContentKind),
			TransactionID: g.UserTransactionID,
			GrantedAt:     g.GrantedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"items":  items,
			"total":  page.Total,
			"limit":  page.Limit,
			"offset": page.Offset,
		},
	})
}
