// Package ledger implements the engine that applies deposits, withdrawals
// and two-phase confirmations against wallets. Every mutation runs as a
// single atomic unit in the backing store: read the current balance,
// validate, write the new balance and the journal entry all-or-nothing.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerpay/ledgerpay/internal/wallet"
)

// Engine owns all balance-mutation logic. It depends on the store contract
// for atomic persistence and never retries internally; retry policy belongs
// to the caller.
type Engine struct {
	store wallet.Store
}

// NewEngine builds a ledger engine over the given store.
func NewEngine(store wallet.Store) *Engine {
	return &Engine{store: store}
}

// EntryInput captures the data for a deposit or withdrawal posting. A zero
// Reference is replaced with a generated UUID; the reference is a
// correlation hint for callers, not an enforced unique key.
type EntryInput struct {
	WalletID    string
	Amount      decimal.Decimal
	Reference   string
	Description string
	Meta        wallet.Meta
	Confirmed   bool
}

// Deposit credits the wallet when confirmed, or records a pending entry
// that leaves the balance untouched until Confirm settles it.
func (e *Engine) Deposit(ctx context.Context, input EntryInput) (wallet.Transaction, error) {
	return e.post(ctx, wallet.TypeDeposit, input)
}

// Withdraw debits the wallet when confirmed. A pending withdrawal is not
// balance-checked at creation; solvency is validated at confirmation time.
func (e *Engine) Withdraw(ctx context.Context, input EntryInput) (wallet.Transaction, error) {
	return e.post(ctx, wallet.TypeWithdraw, input)
}

func (e *Engine) post(ctx context.Context, kind wallet.TransactionType, input EntryInput) (wallet.Transaction, error) {
	if input.Amount.Sign() <= 0 {
		return wallet.Transaction{}, wallet.ErrInvalidAmount
	}
	reference := input.Reference
	if reference == "" {
		reference = uuid.NewString()
	}

	return e.store.Apply(ctx, input.WalletID, func(w *wallet.Wallet) (wallet.Transaction, error) {
		if !w.IsActive {
			return wallet.Transaction{}, wallet.ErrInactiveWallet
		}

		before := w.Balance
		after := before
		if input.Confirmed {
			switch kind {
			case wallet.TypeDeposit:
				after = before.Add(input.Amount)
			case wallet.TypeWithdraw:
				if before.LessThan(input.Amount) {
					return wallet.Transaction{}, wallet.ErrInsufficientBalance
				}
				after = before.Sub(input.Amount)
			}
			w.Balance = after
		}

		return wallet.Transaction{
			ID:            uuid.NewString(),
			WalletID:      w.ID,
			Type:          kind,
			Amount:        input.Amount,
			BalanceBefore: before,
			BalanceAfter:  after,
			Reference:     reference,
			Description:   input.Description,
			Meta:          input.Meta,
			Confirmed:     input.Confirmed,
			CreatedAt:     time.Now().UTC(),
		}, nil
	})
}

// Confirm settles a pending transaction against the wallet's live balance.
// The amount and type captured at creation are the contract; solvency is
// re-validated at settlement time, so a withdrawal authorized when funds
// were sufficient can still fail here if intervening postings drained the
// wallet. Confirming an already confirmed transaction is a no-op returning
// the existing record with settled=false; the idempotency check runs inside
// the same atomic unit as the mutation.
func (e *Engine) Confirm(ctx context.Context, walletID, transactionID string) (wallet.Transaction, bool, error) {
	settled := false
	entry, err := e.store.Settle(ctx, walletID, transactionID, func(w *wallet.Wallet, t *wallet.Transaction) error {
		if t.WalletID != w.ID {
			return wallet.ErrForeignTransaction
		}
		if t.Confirmed {
			return nil
		}

		before := w.Balance
		switch t.Type {
		case wallet.TypeDeposit:
			w.Balance = before.Add(t.Amount)
		case wallet.TypeWithdraw:
			if before.LessThan(t.Amount) {
				return wallet.ErrInsufficientBalance
			}
			w.Balance = before.Sub(t.Amount)
		default:
			return fmt.Errorf("unknown transaction type %q", t.Type)
		}

		// Record the balances actually observed at settlement, which may
		// differ from those implied at creation.
		t.BalanceBefore = before
		t.BalanceAfter = w.Balance
		t.Confirmed = true
		settled = true
		return nil
	})
	if err != nil {
		return wallet.Transaction{}, false, err
	}
	return entry, settled, nil
}

// HasBalance reports whether the wallet currently holds at least amount.
func (e *Engine) HasBalance(ctx context.Context, walletID string, amount decimal.Decimal) (bool, error) {
	w, err := e.store.GetWallet(ctx, walletID)
	if err != nil {
		return false, err
	}
	return w.HasBalance(amount), nil
}
