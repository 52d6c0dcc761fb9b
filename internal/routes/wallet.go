package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nerdwork/nwt_ledger/internal/wallet"
)

// RegisterWalletRoutes wires wallet-related endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/wallets", h.Open)
	r.Get("/wallet", h.Balance)
}
