package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ledgerpay/ledgerpay/internal/ledger"
	"github.com/ledgerpay/ledgerpay/internal/wallet"
)

// RegisterWalletRoutes wires wallet directory and money movement endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, l *ledger.Handler) {
	r.Post("/wallets", h.Create)
	r.Get("/wallets", h.List)
	r.Get("/wallets/total-balance", h.TotalBalance)
	r.Get("/wallets/by-name/:name", h.GetByName)
	r.Get("/wallets/by-slug/:slug", h.GetBySlug)
	r.Get("/wallets/:walletId", h.Get)
	r.Delete("/wallets/:walletId", h.Archive)
	r.Get("/wallets/:walletId/transactions", h.Transactions)
	r.Post("/wallets/:walletId/deposit", l.Deposit)
	r.Post("/wallets/:walletId/withdraw", l.Withdraw)
	r.Post("/wallets/:walletId/transactions/:transactionId/confirm", l.Confirm)
}
