package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ledgerpay/ledgerpay/internal/ledger"
	"github.com/ledgerpay/ledgerpay/internal/wallet"
)

// RegisterTransactionRoutes wires the by-wallet-name transaction endpoints.
func RegisterTransactionRoutes(r fiber.Router, h *wallet.Handler, l *ledger.Handler) {
	group := r.Group("/transactions")
	group.Get("/by-wallet-name", h.ByWalletName)
	group.Post("/deposit-by-name", l.DepositByName)
	group.Post("/withdraw-by-name", l.WithdrawByName)
}
