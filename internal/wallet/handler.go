package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nerdwork/nwt_ledger/internal/binding"
	"github.com/nerdwork/nwt_ledger/internal/ledger"
	"github.com/nerdwork/nwt_ledger/internal/middleware"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type openRequest struct {
	Kind      string `json:"kind" validate:"required,oneof=reader creator"`
	ProfileID string `json:"profile_id" validate:"omitempty,uuid"`
}

type balanceResponse struct {
	Kind      string `json:"kind"`
	ProfileID string `json:"profile_id"`
	Balance   string `json:"balance"`
	UpdatedAt string `json:"updated_at"`
}

func toBalanceResponse(b *Balance) *balanceResponse {
	if b == nil {
		return nil
	}
	return &balanceResponse{
		Kind:      string(b.Kind),
		ProfileID: b.ProfileID,
		Balance:   b.Amount.StringFixed(6),
		UpdatedAt: b.UpdatedAt.Format(time.RFC3339),
	}
}

// Open provisions an account of the requested kind for the caller.
func (h *Handler) Open(c *fiber.Ctx) error {
	var req openRequest
	if err := binding.Body(c, &req); err != nil {
		return err
	}
	acct, err := h.service.Open(c.UserContext(), OpenInput{
		UserID:    middleware.UserID(c),
		Kind:      ledger.Kind(req.Kind),
		ProfileID: req.ProfileID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrAccountExists):
			return fiber.NewError(http.StatusConflict, "profile id already in use")
		case errors.Is(err, ledger.ErrInvalidKind), errors.Is(err, ErrInvalidUserID):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    toBalanceResponse(balanceOf(acct)),
	})
}

// Balance returns the caller's reader and creator balances.
func (h *Handler) Balance(c *fiber.Ctx) error {
	w, err := h.service.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return fiber.NewError(http.StatusNotFound, "no wallet for user")
		}
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user_id":   w.UserID,
			"reader":    toBalanceResponse(w.Reader),
			"creator":   toBalanceResponse(w.Creator),
			"timestamp": w.AsOf,
		},
	})
}
