package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerpay/ledgerpay/internal/wallet"
)

func newTestWallet(t *testing.T, store wallet.Store, balance string) wallet.Wallet {
	t.Helper()
	w := wallet.Wallet{
		ID:       uuid.NewString(),
		OwnerID:  uuid.NewString(),
		Name:     "Main",
		Slug:     "main",
		Currency: "USD",
		Balance:  decimal.RequireFromString(balance),
		IsActive: true,
	}
	if err := store.CreateWallet(context.Background(), w); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	return w
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEngineDepositWithdrawConfirmScenario(t *testing.T) {
	store := wallet.NewMemoryStore()
	engine := NewEngine(store)
	ctx := context.Background()
	w := newTestWallet(t, store, "100.00")

	dep, err := engine.Deposit(ctx, EntryInput{WalletID: w.ID, Amount: mustDecimal("50.00"), Confirmed: true})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if dep.Type != wallet.TypeDeposit || !dep.Confirmed {
		t.Fatalf("unexpected deposit record: %+v", dep)
	}
	if !dep.BalanceBefore.Equal(mustDecimal("100.00")) || !dep.BalanceAfter.Equal(mustDecimal("150.00")) {
		t.Fatalf("deposit balances: before=%s after=%s", dep.BalanceBefore, dep.BalanceAfter)
	}

	if _, err := engine.Withdraw(ctx, EntryInput{WalletID: w.ID, Amount: mustDecimal("200.00"), Confirmed: true}); err != wallet.ErrInsufficientBalance {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	current, err := store.GetWallet(ctx, w.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if !current.Balance.Equal(mustDecimal("150.00")) {
		t.Fatalf("balance mutated by failed withdraw: %s", current.Balance)
	}

	pending, err := engine.Withdraw(ctx, EntryInput{WalletID: w.ID, Amount: mustDecimal("30.00")})
	if err != nil {
		t.Fatalf("pending withdraw: %v", err)
	}
	if pending.Confirmed {
		t.Fatal("pending withdraw should not be confirmed")
	}
	if !pending.BalanceBefore.Equal(mustDecimal("150.00")) || !pending.BalanceAfter.Equal(mustDecimal("150.00")) {
		t.Fatalf("pending balances: before=%s after=%s", pending.BalanceBefore, pending.BalanceAfter)
	}
	current, _ = store.GetWallet(ctx, w.ID)
	if !current.Balance.Equal(mustDecimal("150.00")) {
		t.Fatalf("pending withdraw changed balance: %s", current.Balance)
	}

	confirmed, settled, err := engine.Confirm(ctx, w.ID, pending.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !confirmed.Confirmed || !settled {
		t.Fatal("confirm did not mark the record")
	}
	if !confirmed.BalanceBefore.Equal(mustDecimal("150.00")) || !confirmed.BalanceAfter.Equal(mustDecimal("120.00")) {
		t.Fatalf("confirmed balances: before=%s after=%s", confirmed.BalanceBefore, confirmed.BalanceAfter)
	}
	current, _ = store.GetWallet(ctx, w.ID)
	if !current.Balance.Equal(mustDecimal("120.00")) {
		t.Fatalf("balance after confirm: %s", current.Balance)
	}

	// Confirming again is a no-op.
	again, settled, err := engine.Confirm(ctx, w.ID, pending.ID)
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if settled {
		t.Fatal("second confirm reported a settlement")
	}
	if !again.BalanceAfter.Equal(confirmed.BalanceAfter) || !again.Confirmed {
		t.Fatalf("second confirm changed the record: %+v", again)
	}
	current, _ = store.GetWallet(ctx, w.ID)
	if !current.Balance.Equal(mustDecimal("120.00")) {
		t.Fatalf("second confirm changed balance: %s", current.Balance)
	}
}

func TestEngineBalanceEqualsJournalSum(t *testing.T) {
	store := wallet.NewMemoryStore()
	engine := NewEngine(store)
	ctx := context.Background()
	w := newTestWallet(t, store, "25.50")

	amounts := []struct {
		kind   wallet.TransactionType
		amount string
	}{
		{wallet.TypeDeposit, "10.00"},
		{wallet.TypeDeposit, "0.01"},
		{wallet.TypeWithdraw, "5.25"},
		{wallet.TypeDeposit, "100.00"},
		{wallet.TypeWithdraw, "30.26"},
	}
	for _, op := range amounts {
		input := EntryInput{WalletID: w.ID, Amount: mustDecimal(op.amount), Confirmed: true}
		var err error
		if op.kind == wallet.TypeDeposit {
			_, err = engine.Deposit(ctx, input)
		} else {
			_, err = engine.Withdraw(ctx, input)
		}
		if err != nil {
			t.Fatalf("%s %s: %v", op.kind, op.amount, err)
		}
	}

	current, err := store.GetWallet(ctx, w.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	want := mustDecimal("100.00")
	if !current.Balance.Equal(want) {
		t.Fatalf("expected balance %s, got %s", want, current.Balance)
	}

	entries, err := store.ListTransactions(ctx, w.ID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	sum := decimal.Zero
	for _, e := range entries {
		if !e.Confirmed {
			continue
		}
		sum = sum.Add(e.BalanceAfter.Sub(e.BalanceBefore))
	}
	if !current.Balance.Equal(w.Balance.Add(sum)) {
		t.Fatalf("journal deltas %s do not reconstruct balance %s from %s", sum, current.Balance, w.Balance)
	}
}

func TestEngineRejectsNonPositiveAmounts(t *testing.T) {
	store := wallet.NewMemoryStore()
	engine := NewEngine(store)
	ctx := context.Background()
	w := newTestWallet(t, store, "10.00")

	for _, amount := range []string{"0", "-1.00"} {
		if _, err := engine.Deposit(ctx, EntryInput{WalletID: w.ID, Amount: mustDecimal(amount), Confirmed: true}); err != wallet.ErrInvalidAmount {
			t.Fatalf("deposit %s: expected invalid amount, got %v", amount, err)
		}
		if _, err := engine.Withdraw(ctx, EntryInput{WalletID: w.ID, Amount: mustDecimal(amount), Confirmed: true}); err != wallet.ErrInvalidAmount {
			t.Fatalf("withdraw %s: expected invalid amount, got %v", amount, err)
		}
	}

	if entries, _ := store.ListTransactions(ctx, w.ID); len(entries) != 0 {
		t.Fatalf("rejected operations wrote journal entries: %d", len(entries))
	}
}

func TestEngineRejectsInactiveWallet(t *testing.T) {
	store := wallet.NewMemoryStore()
	engine := NewEngine(store)
	ctx := context.Background()

	w := wallet.Wallet{
		ID:       uuid.NewString(),
		OwnerID:  uuid.NewString(),
		Name:     "Frozen",
		Slug:     "frozen",
		Currency: "USD",
		Balance:  mustDecimal("40.00"),
		IsActive: false,
	}
	if err := store.CreateWallet(ctx, w); err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	if _, err := engine.Deposit(ctx, EntryInput{WalletID: w.ID, Amount: mustDecimal("1.00"), Confirmed: true}); err != wallet.ErrInactiveWallet {
		t.Fatalf("expected inactive wallet error, got %v", err)
	}
	if _, err := engine.Withdraw(ctx, EntryInput{WalletID: w.ID, Amount: mustDecimal("1.00"), Confirmed: true}); err != wallet.ErrInactiveWallet {
		t.Fatalf("expected inactive wallet error, got %v", err)
	}
}

func TestEngineGeneratesReference(t *testing.T) {
	store := wallet.NewMemoryStore()
	engine := NewEngine(store)
	ctx := context.Background()
	w := newTestWallet(t, store, "0")

	entry, err := engine.Deposit(ctx, EntryInput{WalletID: w.ID, Amount: mustDecimal("5.00"), Confirmed: true})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if entry.Reference == "" {
		t.Fatal("expected generated reference")
	}

	tagged, err := engine.Deposit(ctx, EntryInput{WalletID: w.ID, Amount: mustDecimal("5.00"), Reference: "invoice-42", Confirmed: true})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if tagged.Reference != "invoice-42" {
		t.Fatalf("caller reference not kept: %s", tagged.Reference)
	}
}

func TestEngineConfirmPendingDeposit(t *testing.T) {
	store := wallet.NewMemoryStore()
	engine := NewEngine(store)
	ctx := context.Background()
	w := newTestWallet(t, store, "10.00")

	pending, err := engine.Deposit(ctx, EntryInput{WalletID: w.ID, Amount: mustDecimal("5.00")})
	if err != nil {
		t.Fatalf("pending deposit: %v", err)
	}
	if pending.Confirmed || !pending.BalanceAfter.Equal(mustDecimal("10.00")) {
		t.Fatalf("pending deposit touched the balance: %+v", pending)
	}

	confirmed, settled, err := engine.Confirm(ctx, w.ID, pending.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !settled || !confirmed.Confirmed {
		t.Fatalf("confirm did not settle the deposit: %+v", confirmed)
	}
	if !confirmed.BalanceBefore.Equal(mustDecimal("10.00")) || !confirmed.BalanceAfter.Equal(mustDecimal("15.00")) {
		t.Fatalf("confirmed deposit balances: before=%s after=%s", confirmed.BalanceBefore, confirmed.BalanceAfter)
	}

	current, err := store.GetWallet(ctx, w.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if !current.Balance.Equal(mustDecimal("15.00")) {
		t.Fatalf("balance after confirmed deposit: %s", current.Balance)
	}
}

func TestEngineConfirmForeignTransaction(t *testing.T) {
	store := wallet.NewMemoryStore()
	engine := NewEngine(store)
	ctx := context.Background()
	a := newTestWallet(t, store, "10.00")
	b := newTestWallet(t, store, "10.00")

	pending, err := engine.Deposit(ctx, EntryInput{WalletID: a.ID, Amount: mustDecimal("5.00")})
	if err != nil {
		t.Fatalf("pending deposit: %v", err)
	}

	if _, _, err := engine.Confirm(ctx, b.ID, pending.ID); err != wallet.ErrForeignTransaction {
		t.Fatalf("expected foreign transaction error, got %v", err)
	}

	// Neither wallet nor record was touched.
	record, err := store.GetTransaction(ctx, pending.ID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if record.Confirmed {
		t.Fatal("foreign confirm settled the record")
	}
	other, _ := store.GetWallet(ctx, b.ID)
	if !other.Balance.Equal(mustDecimal("10.00")) {
		t.Fatalf("foreign confirm mutated wallet: %s", other.Balance)
	}
}

func TestEngineConfirmFailsOnDrainedWallet(t *testing.T) {
	store := wallet.NewMemoryStore()
	engine := NewEngine(store)
	ctx := context.Background()
	w := newTestWallet(t, store, "100.00")

	// Authorized while funds were sufficient.
	pending, err := engine.Withdraw(ctx, EntryInput{WalletID: w.ID, Amount: mustDecimal("80.00")})
	if err != nil {
		t.Fatalf("pending withdraw: %v", err)
	}

	// Intervening withdrawal drains the wallet before settlement.
	if _, err := engine.Withdraw(ctx, EntryInput{WalletID: w.ID, Amount: mustDecimal("50.00"), Confirmed: true}); err != nil {
		t.Fatalf("confirmed withdraw: %v", err)
	}

	if _, _, err := engine.Confirm(ctx, w.ID, pending.ID); err != wallet.ErrInsufficientBalance {
		t.Fatalf("expected insufficient balance at settlement, got %v", err)
	}

	record, _ := store.GetTransaction(ctx, pending.ID)
	if record.Confirmed {
		t.Fatal("failed confirm settled the record")
	}
	current, _ := store.GetWallet(ctx, w.ID)
	if !current.Balance.Equal(mustDecimal("50.00")) {
		t.Fatalf("failed confirm mutated balance: %s", current.Balance)
	}
}

func TestEngineConcurrentDeposits(t *testing.T) {
	store := wallet.NewMemoryStore()
	engine := NewEngine(store)
	ctx := context.Background()
	w := newTestWallet(t, store, "0")

	const workers = 20
	amount := mustDecimal("1.50")

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := engine.Deposit(ctx, EntryInput{WalletID: w.ID, Amount: amount, Confirmed: true}); err != nil {
				t.Errorf("deposit failed: %v", err)
			}
		}()
	}
	wg.Wait()

	current, err := store.GetWallet(ctx, w.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	want := amount.Mul(decimal.NewFromInt(workers))
	if !current.Balance.Equal(want) {
		t.Fatalf("lost update: expected %s, got %s", want, current.Balance)
	}
}

func TestEngineConcurrentConfirmAppliesOnce(t *testing.T) {
	store := wallet.NewMemoryStore()
	engine := NewEngine(store)
	ctx := context.Background()
	w := newTestWallet(t, store, "100.00")

	pending, err := engine.Withdraw(ctx, EntryInput{WalletID: w.ID, Amount: mustDecimal("40.00")})
	if err != nil {
		t.Fatalf("pending withdraw: %v", err)
	}

	const callers = 8
	var (
		wg           sync.WaitGroup
		settledCount int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, settled, err := engine.Confirm(ctx, w.ID, pending.ID)
			if err != nil {
				t.Errorf("confirm failed: %v", err)
			}
			if settled {
				atomic.AddInt32(&settledCount, 1)
			}
		}()
	}
	wg.Wait()

	if settledCount != 1 {
		t.Fatalf("expected exactly one settlement, got %d", settledCount)
	}
	current, _ := store.GetWallet(ctx, w.ID)
	if !current.Balance.Equal(mustDecimal("60.00")) {
		t.Fatalf("confirm applied more than once: %s", current.Balance)
	}
}

func TestEngineHasBalance(t *testing.T) {
	store := wallet.NewMemoryStore()
	engine := NewEngine(store)
	ctx := context.Background()
	w := newTestWallet(t, store, "10.00")

	ok, err := engine.HasBalance(ctx, w.ID, mustDecimal("10.00"))
	if err != nil || !ok {
		t.Fatalf("expected sufficient balance, got ok=%v err=%v", ok, err)
	}
	ok, err = engine.HasBalance(ctx, w.ID, mustDecimal("10.01"))
	if err != nil || ok {
		t.Fatalf("expected insufficient balance, got ok=%v err=%v", ok, err)
	}
}
