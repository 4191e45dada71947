package wallet

import "errors"

var (
	// ErrInvalidAmount occurs when a deposit or withdrawal amount is not
	// strictly positive.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInvalidName occurs when a wallet is created without a name.
	ErrInvalidName = errors.New("wallet name is required")

	// ErrInactiveWallet occurs when a mutation targets a deactivated wallet.
	ErrInactiveWallet = errors.New("wallet is not active")

	// ErrInsufficientBalance occurs when a withdrawal or confirmation would
	// drive the balance negative.
	ErrInsufficientBalance = errors.New("insufficient balance in wallet")

	// ErrForeignTransaction occurs when a transaction is confirmed against a
	// wallet it does not belong to.
	ErrForeignTransaction = errors.New("transaction does not belong to wallet")

	// ErrWalletNotFound indicates the referenced wallet does not exist.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrTransactionNotFound indicates the referenced transaction does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrOwnerNotFound indicates the referenced owner does not exist.
	ErrOwnerNotFound = errors.New("owner not found")

	// ErrSlugTaken indicates the store rejected a wallet slug as already in
	// use. Collision handling at the directory should prevent this; it is
	// reserved for store-level races.
	ErrSlugTaken = errors.New("wallet slug already taken")
)
