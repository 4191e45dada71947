package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the closed set of journal entry kinds. Direction is
// carried by the type, never by the sign of the amount.
type TransactionType string

const (
	TypeDeposit  TransactionType = "deposit"
	TypeWithdraw TransactionType = "withdraw"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdraw:
		return true
	}
	return false
}

// Wallet is a named, owned monetary balance. The balance is only ever
// mutated through the ledger engine; at any instant it equals the signed
// sum of the wallet's confirmed journal entries.
type Wallet struct {
	ID          string
	OwnerID     string
	Name        string
	Slug        string
	Currency    string
	Balance     decimal.Decimal
	IsActive    bool
	Description string
	CreatedAt   time.Time
	DeletedAt   *time.Time
}

// HasBalance reports whether the wallet holds at least amount.
func (w Wallet) HasBalance(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// Meta carries caller-supplied opaque metadata on a transaction.
type Meta map[string]any

// Transaction is an immutable-once-confirmed journal entry describing one
// balance-affecting event. A pending entry keeps balanceAfter equal to
// balanceBefore until it is confirmed.
type Transaction struct {
	ID            string
	WalletID      string
	Type          TransactionType
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Reference     string
	Description   string
	Meta          Meta
	Confirmed     bool
	CreatedAt     time.Time
}
