package purchase

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/nerdwork/nwt_ledger/internal/access"
	"github.com/nerdwork/nwt_ledger/internal/binding"
	"github.com/nerdwork/nwt_ledger/internal/ledger"
	"github.com/nerdwork/nwt_ledger/internal/middleware"
	"github.com/nerdwork/nwt_ledger/internal/nwt"
	"github.com/nerdwork/nwt_ledger/internal/wallet"
)

// Handler exposes the purchase endpoint.
type Handler struct {
	service *Service
	wallets *wallet.Service
	logger  *slog.Logger
}

// NewHandler constructs a purchase handler.
func NewHandler(service *Service, wallets *wallet.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, wallets: wallets, logger: logger}
}

// Create buys a chapter or comic for the authenticated reader.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req Request
	if err := binding.Body(c, &req); err != nil {
		return err
	}
	amount, err := nwt.Parse(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}

	reader, err := h.wallets.Resolve(c.UserContext(), ledger.KindReader, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return fiber.NewError(http.StatusNotFound, "reader profile not found")
		}
		return err
	}

	res, err := h.service.PurchaseContent(c.UserContext(), Input{
		ReaderID:  reader.ID,
		CreatorID: req.CreatorID,
		ContentID: req.ContentID,
		Kind:      access.ContentKind(req.ContentKind),
		Amount:    amount,
	})
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "purchase completed",
		"data":    toResponse(res),
	})
}

func (h *Handler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return fiber.NewError(http.StatusBadRequest, "insufficient NWT balance")
	case errors.Is(err, ErrSelfPurchase):
		return fiber.NewError(http.StatusBadRequest, ErrSelfPurchase.Error())
	case errors.Is(err, nwt.ErrNonPositiveAmount), errors.Is(err, ErrInvalidContentKind):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, "account not found")
	case errors.Is(err, ErrAlreadyOwned):
		return fiber.NewError(http.StatusConflict, ErrAlreadyOwned.Error())
	default:
		h.logger.Error("purchase failed",
			slog.String("request_id", middleware.RequestIDFrom(c)),
			slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "purchase failed")
	}
}
