package wallet

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OwnerResolver answers whether a wallet owner exists. The directory never
// assumes anything about the owner beyond its identifier.
type OwnerResolver interface {
	OwnerExists(ctx context.Context, ownerID string) (bool, error)
}

// Directory manages the per-owner wallet collection: creation with unique
// naming, lookup by name or slug, and aggregate balance queries. Balance
// mutation is the ledger engine's job, not the directory's.
type Directory struct {
	store           Store
	owners          OwnerResolver
	defaultCurrency string
}

// NewDirectory builds a wallet directory over the given store. The resolver
// guards wallet creation against unknown owners.
func NewDirectory(store Store, owners OwnerResolver, defaultCurrency string) *Directory {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &Directory{store: store, owners: owners, defaultCurrency: defaultCurrency}
}

// CreateInput captures the data required to create a wallet.
type CreateInput struct {
	OwnerID     string
	Name        string
	Currency    string
	Description string
}

// CreateWallet provisions a wallet with a zero balance and an owner-unique
// slug derived from the name. Slug collisions are resolved by suffixing
// -1, -2, ... until a free slug is found.
func (d *Directory) CreateWallet(ctx context.Context, input CreateInput) (Wallet, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Wallet{}, ErrInvalidName
	}

	exists, err := d.owners.OwnerExists(ctx, input.OwnerID)
	if err != nil {
		return Wallet{}, err
	}
	if !exists {
		return Wallet{}, ErrOwnerNotFound
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = d.defaultCurrency
	}

	slug, err := d.resolveSlug(ctx, input.OwnerID, Slugify(input.Name))
	if err != nil {
		return Wallet{}, err
	}

	w := Wallet{
		ID:          uuid.NewString(),
		OwnerID:     input.OwnerID,
		Name:        input.Name,
		Slug:        slug,
		Currency:    currency,
		Balance:     decimal.Zero,
		IsActive:    true,
		Description: input.Description,
		CreatedAt:   nowUTC(),
	}

	if err := d.store.CreateWallet(ctx, w); err != nil {
		return Wallet{}, err
	}
	return w, nil
}

func (d *Directory) resolveSlug(ctx context.Context, ownerID, base string) (string, error) {
	if base == "" {
		base = "wallet"
	}
	candidate := base
	for i := 1; ; i++ {
		existing, err := d.store.FindWalletBySlug(ctx, ownerID, candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// Get fetches a wallet by identifier.
func (d *Directory) Get(ctx context.Context, walletID string) (Wallet, error) {
	return d.store.GetWallet(ctx, walletID)
}

// GetWalletByName returns the owner's wallet with the given display name, or
// nil when no such wallet exists.
func (d *Directory) GetWalletByName(ctx context.Context, ownerID, name string) (*Wallet, error) {
	return d.store.FindWalletByName(ctx, ownerID, name)
}

// GetWalletBySlug returns the owner's wallet with the given slug, or nil.
func (d *Directory) GetWalletBySlug(ctx context.Context, ownerID, slug string) (*Wallet, error) {
	return d.store.FindWalletBySlug(ctx, ownerID, slug)
}

// ListWallets returns all wallets for the owner.
func (d *Directory) ListWallets(ctx context.Context, ownerID string) ([]Wallet, error) {
	return d.store.ListWallets(ctx, ownerID, false)
}

// ListActiveWallets returns the owner's wallets with is_active set.
func (d *Directory) ListActiveWallets(ctx context.Context, ownerID string) ([]Wallet, error) {
	return d.store.ListWallets(ctx, ownerID, true)
}

// TotalBalance sums balances across all of the owner's wallets. The read is
// point-in-time; it is not transactional across wallets.
func (d *Directory) TotalBalance(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	return d.store.TotalBalance(ctx, ownerID, "")
}

// TotalBalanceByCurrency sums balances across the owner's wallets holding
// the given currency.
func (d *Directory) TotalBalanceByCurrency(ctx context.Context, ownerID, currency string) (decimal.Decimal, error) {
	return d.store.TotalBalance(ctx, ownerID, strings.ToUpper(strings.TrimSpace(currency)))
}

// Transactions lists the wallet's journal newest-first.
func (d *Directory) Transactions(ctx context.Context, walletID string) ([]Transaction, error) {
	if _, err := d.store.GetWallet(ctx, walletID); err != nil {
		return nil, err
	}
	return d.store.ListTransactions(ctx, walletID)
}

// TransactionsByWalletName lists the journal of the owner's wallet with the
// given name. An unknown name yields an empty result, mirroring lookup
// semantics.
func (d *Directory) TransactionsByWalletName(ctx context.Context, ownerID, name string) ([]Transaction, error) {
	w, err := d.store.FindWalletByName(ctx, ownerID, name)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return []Transaction{}, nil
	}
	return d.store.ListTransactions(ctx, w.ID)
}

// ArchiveWallet soft-deletes the wallet: it disappears from directory
// lookups but its journal entries are retained.
func (d *Directory) ArchiveWallet(ctx context.Context, walletID string) error {
	return d.store.SoftDeleteWallet(ctx, walletID)
}
