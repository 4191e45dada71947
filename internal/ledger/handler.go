package ledger

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ledgerpay/ledgerpay/internal/notification"
	"github.com/ledgerpay/ledgerpay/internal/wallet"
)

// Handler exposes deposit, withdraw and confirm over HTTP.
type Handler struct {
	engine    *Engine
	directory *wallet.Directory
	notifier  notification.Notifier
}

// NewHandler builds a ledger HTTP handler.
func NewHandler(engine *Engine, directory *wallet.Directory, notifier notification.Notifier) *Handler {
	return &Handler{engine: engine, directory: directory, notifier: notifier}
}

type entryRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
	Meta        wallet.Meta     `json:"meta"`
	Confirmed   *bool           `json:"confirmed"`
}

type namedEntryRequest struct {
	WalletName  string          `json:"wallet_name"`
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
	Meta        wallet.Meta     `json:"meta"`
	Confirmed   *bool           `json:"confirmed"`
}

func confirmedOrDefault(confirmed *bool) bool {
	if confirmed == nil {
		return true
	}
	return *confirmed
}

// Deposit credits the wallet identified by the walletId route parameter.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	return h.post(c, wallet.TypeDeposit)
}

// Withdraw debits the wallet identified by the walletId route parameter.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	return h.post(c, wallet.TypeWithdraw)
}

func (h *Handler) post(c *fiber.Ctx, kind wallet.TransactionType) error {
	var req entryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	w, err := h.ownedWallet(c, c.Params("walletId"))
	if err != nil {
		return err
	}
	return h.execute(c, kind, w, req)
}

// DepositByName credits the caller's wallet with the given display name.
func (h *Handler) DepositByName(c *fiber.Ctx) error {
	return h.postByName(c, wallet.TypeDeposit)
}

// WithdrawByName debits the caller's wallet with the given display name.
func (h *Handler) WithdrawByName(c *fiber.Ctx) error {
	return h.postByName(c, wallet.TypeWithdraw)
}

func (h *Handler) postByName(c *fiber.Ctx, kind wallet.TransactionType) error {
	var req namedEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.WalletName == "" {
		return fiber.NewError(http.StatusBadRequest, "wallet_name is required")
	}
	found, err := h.directory.GetWalletByName(c.UserContext(), wallet.OwnerID(c), req.WalletName)
	if err != nil {
		return fiber.NewError(wallet.ErrorStatus(err), err.Error())
	}
	if found == nil {
		return fiber.NewError(http.StatusNotFound, wallet.ErrWalletNotFound.Error())
	}
	return h.execute(c, kind, *found, entryRequest{
		Amount:      req.Amount,
		Reference:   req.Reference,
		Description: req.Description,
		Meta:        req.Meta,
		Confirmed:   req.Confirmed,
	})
}

func (h *Handler) execute(c *fiber.Ctx, kind wallet.TransactionType, w wallet.Wallet, req entryRequest) error {
	input := EntryInput{
		WalletID:    w.ID,
		Amount:      req.Amount,
		Reference:   req.Reference,
		Description: req.Description,
		Meta:        req.Meta,
		Confirmed:   confirmedOrDefault(req.Confirmed),
	}

	var (
		entry wallet.Transaction
		err   error
	)
	switch kind {
	case wallet.TypeDeposit:
		entry, err = h.engine.Deposit(c.UserContext(), input)
	case wallet.TypeWithdraw:
		entry, err = h.engine.Withdraw(c.UserContext(), input)
	default:
		return fiber.NewError(http.StatusBadRequest, "unknown transaction type")
	}
	if err != nil {
		return fiber.NewError(wallet.ErrorStatus(err), err.Error())
	}

	h.notify(c, w, entry)
	return c.Status(http.StatusCreated).JSON(wallet.ToTransactionResponse(entry))
}

// Confirm settles a pending transaction against its wallet. A repeated
// confirm returns the existing record without re-sending notifications.
func (h *Handler) Confirm(c *fiber.Ctx) error {
	w, err := h.ownedWallet(c, c.Params("walletId"))
	if err != nil {
		return err
	}
	entry, settled, err := h.engine.Confirm(c.UserContext(), w.ID, c.Params("transactionId"))
	if err != nil {
		return fiber.NewError(wallet.ErrorStatus(err), err.Error())
	}
	if settled {
		h.notify(c, w, entry)
	}
	return c.Status(http.StatusOK).JSON(wallet.ToTransactionResponse(entry))
}

func (h *Handler) ownedWallet(c *fiber.Ctx, walletID string) (wallet.Wallet, error) {
	w, err := h.directory.Get(c.UserContext(), walletID)
	if err != nil {
		return wallet.Wallet{}, fiber.NewError(wallet.ErrorStatus(err), err.Error())
	}
	if ownerID := wallet.OwnerID(c); ownerID != "" && w.OwnerID != ownerID {
		return wallet.Wallet{}, fiber.NewError(http.StatusForbidden, "wallet does not belong to caller")
	}
	return w, nil
}

func (h *Handler) notify(c *fiber.Ctx, w wallet.Wallet, entry wallet.Transaction) {
	if h.notifier == nil || !entry.Confirmed {
		return
	}
	kind := notification.KindDeposit
	if entry.Type == wallet.TypeWithdraw {
		kind = notification.KindWithdrawal
	}
	_ = h.notifier.Send(c.UserContext(), notification.Message{
		Kind:        kind,
		Destination: w.OwnerID,
		Body:        fmt.Sprintf("%s of %s %s settled on wallet %s", entry.Type, entry.Amount, w.Currency, w.Name),
	})
}
