package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

// PostgresStore persists wallets and journal entries in PostgreSQL. Mutating
// operations lock the wallet row with SELECT ... FOR UPDATE so concurrent
// postings against the same wallet are serialized by the database.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const walletColumns = `id, owner_id, name, slug, currency, balance, is_active, description, created_at, deleted_at`

const transactionColumns = `id, wallet_id, type, amount, balance_before, balance_after, reference, description, meta, confirmed, created_at`

func (s *PostgresStore) CreateWallet(ctx context.Context, w Wallet) error {
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return err
	}
	ownerID, err := uuid.Parse(w.OwnerID)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO wallets (id, owner_id, name, slug, currency, balance, is_active, description, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, ownerID, w.Name, w.Slug, w.Currency, w.Balance, w.IsActive, w.Description, w.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrSlugTaken
	}
	return err
}

func (s *PostgresStore) GetWallet(ctx context.Context, id string) (Wallet, error) {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return Wallet{}, ErrWalletNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 AND deleted_at IS NULL`, walletID)
	return scanWallet(row)
}

func (s *PostgresStore) FindWalletByName(ctx context.Context, ownerID, name string) (*Wallet, error) {
	return s.findWallet(ctx, ownerID, "name", name)
}

func (s *PostgresStore) FindWalletBySlug(ctx context.Context, ownerID, slug string) (*Wallet, error) {
	return s.findWallet(ctx, ownerID, "slug", slug)
}

func (s *PostgresStore) findWallet(ctx context.Context, ownerID, column, value string) (*Wallet, error) {
	oid, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM wallets WHERE owner_id = $1 AND %s = $2 AND deleted_at IS NULL LIMIT 1`, walletColumns, column)
	row := s.db.QueryRow(ctx, query, oid, value)
	w, err := scanWallet(row)
	if errors.Is(err, ErrWalletNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *PostgresStore) ListWallets(ctx context.Context, ownerID string, activeOnly bool) ([]Wallet, error) {
	oid, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, ErrOwnerNotFound
	}
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = $1 AND deleted_at IS NULL`
	if activeOnly {
		query += ` AND is_active`
	}
	rows, err := s.db.Query(ctx, query, oid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *PostgresStore) TotalBalance(ctx context.Context, ownerID, currency string) (decimal.Decimal, error) {
	oid, err := uuid.Parse(ownerID)
	if err != nil {
		return decimal.Zero, ErrOwnerNotFound
	}
	query := `SELECT COALESCE(SUM(balance), 0) FROM wallets WHERE owner_id = $1 AND deleted_at IS NULL`
	args := []any{oid}
	if currency != "" {
		query += ` AND currency = $2`
		args = append(args, currency)
	}
	var total decimal.Decimal
	if err := s.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (s *PostgresStore) SoftDeleteWallet(ctx context.Context, id string) error {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return ErrWalletNotFound
	}
	cmd, err := s.db.Exec(ctx, `UPDATE wallets SET deleted_at = $1, is_active = FALSE WHERE id = $2 AND deleted_at IS NULL`,
		time.Now().UTC(), walletID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrWalletNotFound
	}
	return nil
}

func (s *PostgresStore) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return Transaction{}, ErrTransactionNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM wallet_transactions WHERE id = $1`, txID)
	return scanTransaction(row)
}

func (s *PostgresStore) ListTransactions(ctx context.Context, walletID string) ([]Transaction, error) {
	wid, err := uuid.Parse(walletID)
	if err != nil {
		return nil, ErrWalletNotFound
	}
	rows, err := s.db.Query(ctx, `SELECT `+transactionColumns+` FROM wallet_transactions
        WHERE wallet_id = $1 ORDER BY created_at DESC`, wid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Apply locks the wallet row, runs fn against the current state and persists
// the updated balance with the produced journal entry in one transaction.
func (s *PostgresStore) Apply(ctx context.Context, walletID string, fn ApplyFunc) (Transaction, error) {
	wid, err := uuid.Parse(walletID)
	if err != nil {
		return Transaction{}, ErrWalletNotFound
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	w, err := lockWallet(ctx, tx, wid)
	if err != nil {
		return Transaction{}, err
	}

	entry, err := fn(&w)
	if err != nil {
		return Transaction{}, err
	}

	if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = $1 WHERE id = $2`, w.Balance, wid); err != nil {
		return Transaction{}, err
	}
	if err := insertTransaction(ctx, tx, entry); err != nil {
		return Transaction{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, err
	}
	return entry, nil
}

// Settle locks both the wallet and one of its journal entries, runs fn and
// persists updates to both atomically.
func (s *PostgresStore) Settle(ctx context.Context, walletID, transactionID string, fn SettleFunc) (Transaction, error) {
	wid, err := uuid.Parse(walletID)
	if err != nil {
		return Transaction{}, ErrWalletNotFound
	}
	tid, err := uuid.Parse(transactionID)
	if err != nil {
		return Transaction{}, ErrTransactionNotFound
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	w, err := lockWallet(ctx, tx, wid)
	if err != nil {
		return Transaction{}, err
	}

	row := tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM wallet_transactions WHERE id = $1 FOR UPDATE`, tid)
	t, err := scanTransaction(row)
	if err != nil {
		return Transaction{}, err
	}

	if err := fn(&w, &t); err != nil {
		return Transaction{}, err
	}

	if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = $1 WHERE id = $2`, w.Balance, wid); err != nil {
		return Transaction{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE wallet_transactions SET balance_before = $1, balance_after = $2, confirmed = $3 WHERE id = $4`,
		t.BalanceBefore, t.BalanceAfter, t.Confirmed, tid); err != nil {
		return Transaction{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func lockWallet(ctx context.Context, tx pgx.Tx, id uuid.UUID) (Wallet, error) {
	row := tx.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id)
	return scanWallet(row)
}

func insertTransaction(ctx context.Context, tx pgx.Tx, t Transaction) error {
	id, err := uuid.Parse(t.ID)
	if err != nil {
		return err
	}
	wid, err := uuid.Parse(t.WalletID)
	if err != nil {
		return err
	}
	var meta []byte
	if t.Meta != nil {
		meta, err = json.Marshal(t.Meta)
		if err != nil {
			return err
		}
	}
	_, err = tx.Exec(ctx, `INSERT INTO wallet_transactions (id, wallet_id, type, amount, balance_before, balance_after, reference, description, meta, confirmed, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		id, wid, string(t.Type), t.Amount, t.BalanceBefore, t.BalanceAfter, t.Reference, t.Description, meta, t.Confirmed, t.CreatedAt.UTC())
	return err
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		id        uuid.UUID
		ownerID   uuid.UUID
		createdAt time.Time
		deletedAt *time.Time
	)
	if err := row.Scan(&id, &ownerID, &w.Name, &w.Slug, &w.Currency, &w.Balance, &w.IsActive, &w.Description, &createdAt, &deletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, err
	}
	w.ID = id.String()
	w.OwnerID = ownerID.String()
	w.CreatedAt = createdAt.UTC()
	if deletedAt != nil {
		at := deletedAt.UTC()
		w.DeletedAt = &at
	}
	return w, nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		t         Transaction
		id        uuid.UUID
		walletID  uuid.UUID
		kind      string
		meta      []byte
		createdAt time.Time
	)
	if err := row.Scan(&id, &walletID, &kind, &t.Amount, &t.BalanceBefore, &t.BalanceAfter, &t.Reference, &t.Description, &meta, &t.Confirmed, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	t.ID = id.String()
	t.WalletID = walletID.String()
	t.Type = TransactionType(kind)
	t.CreatedAt = createdAt.UTC()
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &t.Meta); err != nil {
			return Transaction{}, err
		}
	}
	return t, nil
}
