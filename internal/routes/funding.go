package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nerdwork/nwt_ledger/internal/funding"
	"github.com/nerdwork/nwt_ledger/internal/middleware"
)

// RegisterFundingRoutes wires the authenticated top-up endpoint.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler, idempotent fiber.Handler) {
	r.Post("/wallet/top-ups", idempotent, h.TopUp)
}

// RegisterWebhookRoutes wires the payment provider callback. It sits outside
// the JWT group and is authenticated by its body signature instead.
func RegisterWebhookRoutes(r fiber.Router, h *funding.Handler, secret string) {
	r.Post("/webhooks/payments", middleware.WebhookSignature(secret), h.Webhook)
}
