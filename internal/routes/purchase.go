package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nerdwork/nwt_ledger/internal/history"
	"github.com/nerdwork/nwt_ledger/internal/library"
	"github.com/nerdwork/nwt_ledger/internal/purchase"
)

// RegisterPurchaseRoutes wires content purchases behind the rate limiter and
// idempotency guard.
func RegisterPurchaseRoutes(r fiber.Router, h *purchase.Handler, limiter, idempotent fiber.Handler) {
	r.Post("/purchases", limiter, idempotent, h.Create)
}

// RegisterHistoryRoutes wires transaction history and creator earnings.
func RegisterHistoryRoutes(r fiber.Router, h *history.Handler) {
	r.Get("/transactions", h.List)
	r.Get("/transactions/summary", h.Summary)
	r.Get("/transactions/:id", h.Get)
	r.Get("/creator/earnings", h.Earnings)
}

// RegisterLibraryRoutes wires the reader's owned content.
func RegisterLibraryRoutes(r fiber.Router, h *library.Handler) {
	r.Get("/library", h.List)
	r.Get("/library/:contentId/access", h.Access)
}
