package wallet

import (
	"context"

	"github.com/shopspring/decimal"
)

// ApplyFunc computes a new journal entry for the wallet it receives. The
// store invokes it with the current wallet row held under an exclusive
// lock; balance changes made to w are persisted together with the returned
// transaction as a single atomic unit.
type ApplyFunc func(w *Wallet) (Transaction, error)

// SettleFunc settles an existing journal entry. The store invokes it with
// both the wallet and the transaction locked; updates to either are
// persisted atomically when it returns nil.
type SettleFunc func(w *Wallet, t *Transaction) error

// Store persists wallets and their journal. Implementations must guarantee
// that Apply and Settle serialize concurrent mutations of the same wallet
// and commit the balance update and the journal write all-or-nothing.
type Store interface {
	CreateWallet(ctx context.Context, w Wallet) error
	GetWallet(ctx context.Context, id string) (Wallet, error)
	FindWalletByName(ctx context.Context, ownerID, name string) (*Wallet, error)
	FindWalletBySlug(ctx context.Context, ownerID, slug string) (*Wallet, error)
	ListWallets(ctx context.Context, ownerID string, activeOnly bool) ([]Wallet, error)
	TotalBalance(ctx context.Context, ownerID, currency string) (decimal.Decimal, error)
	SoftDeleteWallet(ctx context.Context, id string) error

	GetTransaction(ctx context.Context, id string) (Transaction, error)
	ListTransactions(ctx context.Context, walletID string) ([]Transaction, error)

	Apply(ctx context.Context, walletID string, fn ApplyFunc) (Transaction, error)
	Settle(ctx context.Context, walletID, transactionID string, fn SettleFunc) (Transaction, error)
}
