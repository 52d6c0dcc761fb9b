package funding

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/nerdwork/nwt_ledger/internal/binding"
	"github.com/nerdwork/nwt_ledger/internal/ledger"
	"github.com/nerdwork/nwt_ledger/internal/middleware"
	"github.com/nerdwork/nwt_ledger/internal/nwt"
	"github.com/nerdwork/nwt_ledger/internal/wallet"
)

// Handler exposes HTTP endpoints for NWT top-ups and the provider webhook.
type Handler struct {
	service *Service
	wallets *wallet.Service
	logger  *slog.Logger
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service, wallets *wallet.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, wallets: wallets, logger: logger}
}

// TopUp starts an NWT purchase for the authenticated reader.
func (h *Handler) TopUp(c *fiber.Ctx) error {
	var req TopUpRequest
	if err := binding.Body(c, &req); err != nil {
		return err
	}
	nwtAmount, err := nwt.Parse(req.NWTAmount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid nwt_amount")
	}
	usdAmount, err := decimal.NewFromString(req.USDAmount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid usd_amount")
	}

	reader, err := h.wallets.Resolve(c.UserContext(), ledger.KindReader, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return fiber.NewError(http.StatusNotFound, "reader profile not found")
		}
		return err
	}

	topUp, err := h.service.InitiateTopUp(c.UserContext(), TopUpInput{
		ReaderID:    reader.ID,
		NWTAmount:   nwtAmount,
		USDAmount:   usdAmount,
		Description: req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, nwt.ErrNonPositiveAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrAccountNotFound):
			return fiber.NewError(http.StatusNotFound, "reader profile not found")
		case errors.Is(err, ErrProviderFailed):
			h.logger.Error("payment provider rejected top-up", slog.String("reader_id", reader.ID), slog.Any("error", err))
			return fiber.NewError(http.StatusBadGateway, "could not start payment")
		default:
			h.logger.Error("top-up failed", slog.String("reader_id", reader.ID), slog.Any("error", err))
			return err
		}
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"transaction":  toTransactionResponse(topUp.Transaction),
			"checkout_url": topUp.CheckoutURL,
		},
	})
}

// Webhook applies a provider payment confirmation.
func (h *Handler) Webhook(c *fiber.Ctx) error {
	var req WebhookRequest
	if err := binding.Body(c, &req); err != nil {
		return err
	}
	res, err := h.service.ConfirmPurchase(c.UserContext(), Confirmation{
		PaymentID:     req.PaymentID,
		Status:        req.Status,
		Reference:     req.TransactionReference,
		FailureReason: req.FailureReason,
		Metadata:      req.Metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrPaymentNotFound):
			return fiber.NewError(http.StatusNotFound, ErrPaymentNotFound.Error())
		case errors.Is(err, ErrUnknownStatus):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNotPending):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			h.logger.Error("payment confirmation failed", slog.String("payment_id", req.PaymentID), slog.Any("error", err))
			return fiber.NewError(http.StatusInternalServerError, "payment confirmation failed")
		}
	}

	data := fiber.Map{
		"transaction":       toTransactionResponse(res.Transaction),
		"already_processed": res.AlreadyProcessed,
	}
	if res.ReaderBalance.Valid {
		data["reader_balance"] = res.ReaderBalance.Decimal.StringFixed(6)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "data": data})
}
