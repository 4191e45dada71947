package wallet

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ErrorStatus maps the wallet error taxonomy to HTTP status codes. The core
// packages return typed failures; translating them to transport status is
// the HTTP layer's job.
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrWalletNotFound),
		errors.Is(err, ErrTransactionNotFound),
		errors.Is(err, ErrOwnerNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForeignTransaction):
		return http.StatusForbidden
	case errors.Is(err, ErrSlugTaken):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrInactiveWallet),
		errors.Is(err, ErrInsufficientBalance):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Handler exposes the wallet directory over HTTP.
type Handler struct {
	directory *Directory
}

// NewHandler builds a wallet directory HTTP handler.
func NewHandler(directory *Directory) *Handler {
	return &Handler{directory: directory}
}

// OwnerID returns the authenticated owner id installed by the JWT guard.
func OwnerID(c *fiber.Ctx) string {
	ownerID, _ := c.Locals("owner_id").(string)
	return ownerID
}

type createRequest struct {
	Name        string `json:"name"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type walletResponse struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Currency    string `json:"currency"`
	Balance     string `json:"balance"`
	IsActive    bool   `json:"is_active"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toWalletResponse(w Wallet) walletResponse {
	return walletResponse{
		ID:          w.ID,
		OwnerID:     w.OwnerID,
		Name:        w.Name,
		Slug:        w.Slug,
		Currency:    w.Currency,
		Balance:     w.Balance.String(),
		IsActive:    w.IsActive,
		Description: w.Description,
		CreatedAt:   w.CreatedAt.Format(time.RFC3339Nano),
	}
}

type transactionResponse struct {
	ID            string `json:"id"`
	WalletID      string `json:"wallet_id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	BalanceBefore string `json:"balance_before"`
	BalanceAfter  string `json:"balance_after"`
	Reference     string `json:"reference"`
	Description   string `json:"description,omitempty"`
	Meta          Meta   `json:"meta,omitempty"`
	Confirmed     bool   `json:"confirmed"`
	CreatedAt     string `json:"created_at"`
}

// ToTransactionResponse renders a journal entry for API consumers.
func ToTransactionResponse(t Transaction) any {
	return transactionResponse{
		ID:            t.ID,
		WalletID:      t.WalletID,
		Type:          string(t.Type),
		Amount:        t.Amount.String(),
		BalanceBefore: t.BalanceBefore.String(),
		BalanceAfter:  t.BalanceAfter.String(),
		Reference:     t.Reference,
		Description:   t.Description,
		Meta:          t.Meta,
		Confirmed:     t.Confirmed,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339Nano),
	}
}

func transactionsResponse(list []Transaction) []any {
	out := make([]any, 0, len(list))
	for _, t := range list {
		out = append(out, ToTransactionResponse(t))
	}
	return out
}

// Create provisions a wallet for the authenticated owner.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	w, err := h.directory.CreateWallet(c.UserContext(), CreateInput{
		OwnerID:     OwnerID(c),
		Name:        req.Name,
		Currency:    req.Currency,
		Description: req.Description,
	})
	if err != nil {
		return fiber.NewError(ErrorStatus(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toWalletResponse(w))
}

// List returns the owner's wallets; ?active=true filters to active ones.
func (h *Handler) List(c *fiber.Ctx) error {
	ownerID := OwnerID(c)
	var (
		list []Wallet
		err  error
	)
	if c.QueryBool("active") {
		list, err = h.directory.ListActiveWallets(c.UserContext(), ownerID)
	} else {
		list, err = h.directory.ListWallets(c.UserContext(), ownerID)
	}
	if err != nil {
		return fiber.NewError(ErrorStatus(err), err.Error())
	}
	out := make([]walletResponse, 0, len(list))
	for _, w := range list {
		out = append(out, toWalletResponse(w))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// TotalBalance sums the owner's wallet balances, optionally per currency.
func (h *Handler) TotalBalance(c *fiber.Ctx) error {
	ownerID := OwnerID(c)
	currency := c.Query("currency")

	var err error
	total := decimal.Zero
	if currency == "" {
		total, err = h.directory.TotalBalance(c.UserContext(), ownerID)
	} else {
		total, err = h.directory.TotalBalanceByCurrency(c.UserContext(), ownerID, currency)
	}
	if err != nil {
		return fiber.NewError(ErrorStatus(err), err.Error())
	}
	resp := fiber.Map{"owner_id": ownerID, "total_balance": total.String()}
	if currency != "" {
		resp["currency"] = currency
	}
	return c.Status(http.StatusOK).JSON(resp)
}

// Get returns one wallet owned by the caller.
func (h *Handler) Get(c *fiber.Ctx) error {
	w, err := h.ownedWallet(c)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toWalletResponse(w))
}

// GetByName looks a wallet up by display name. Absence yields 404 at the
// HTTP surface even though it is not an error for the directory.
func (h *Handler) GetByName(c *fiber.Ctx) error {
	name, err := urlParam(c, "name")
	if err != nil {
		return err
	}
	w, err := h.directory.GetWalletByName(c.UserContext(), OwnerID(c), name)
	if err != nil {
		return fiber.NewError(ErrorStatus(err), err.Error())
	}
	if w == nil {
		return fiber.NewError(http.StatusNotFound, ErrWalletNotFound.Error())
	}
	return c.Status(http.StatusOK).JSON(toWalletResponse(*w))
}

// GetBySlug looks a wallet up by slug.
func (h *Handler) GetBySlug(c *fiber.Ctx) error {
	slug, err := urlParam(c, "slug")
	if err != nil {
		return err
	}
	w, err := h.directory.GetWalletBySlug(c.UserContext(), OwnerID(c), slug)
	if err != nil {
		return fiber.NewError(ErrorStatus(err), err.Error())
	}
	if w == nil {
		return fiber.NewError(http.StatusNotFound, ErrWalletNotFound.Error())
	}
	return c.Status(http.StatusOK).JSON(toWalletResponse(*w))
}

// Transactions lists the wallet journal newest-first.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	w, err := h.ownedWallet(c)
	if err != nil {
		return err
	}
	list, err := h.directory.Transactions(c.UserContext(), w.ID)
	if err != nil {
		return fiber.NewError(ErrorStatus(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(transactionsResponse(list))
}

// ByWalletName lists the journal of the owner's wallet with the given name.
func (h *Handler) ByWalletName(c *fiber.Ctx) error {
	name := c.Query("wallet_name")
	if name == "" {
		return fiber.NewError(http.StatusBadRequest, "wallet_name is required")
	}
	list, err := h.directory.TransactionsByWalletName(c.UserContext(), OwnerID(c), name)
	if err != nil {
		return fiber.NewError(ErrorStatus(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(transactionsResponse(list))
}

// Archive soft-deletes the wallet; journal entries are retained.
func (h *Handler) Archive(c *fiber.Ctx) error {
	w, err := h.ownedWallet(c)
	if err != nil {
		return err
	}
	if err := h.directory.ArchiveWallet(c.UserContext(), w.ID); err != nil {
		return fiber.NewError(ErrorStatus(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "archived", "wallet_id": w.ID})
}

func (h *Handler) ownedWallet(c *fiber.Ctx) (Wallet, error) {
	w, err := h.directory.Get(c.UserContext(), c.Params("walletId"))
	if err != nil {
		return Wallet{}, fiber.NewError(ErrorStatus(err), err.Error())
	}
	if ownerID := OwnerID(c); ownerID != "" && w.OwnerID != ownerID {
		return Wallet{}, fiber.NewError(http.StatusForbidden, "wallet does not belong to caller")
	}
	return w, nil
}

func urlParam(c *fiber.Ctx, name string) (string, error) {
	value, err := url.PathUnescape(c.Params(name))
	if err != nil || value == "" {
		return "", fiber.NewError(http.StatusBadRequest, name+" is required")
	}
	return value, nil
}
