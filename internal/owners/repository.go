package owners

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the owner does not exist.
var ErrNotFound = errors.New("owner not found")

// Repository persists owners.
type Repository interface {
	Create(ctx context.Context, owner Owner) error
	FindByID(ctx context.Context, id string) (Owner, error)
	FindByEmail(ctx context.Context, email string) (Owner, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed owner repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new owner.
func (r *PostgresRepository) Create(ctx context.Context, owner Owner) error {
	ownerID, err := uuid.Parse(owner.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO owners (id, email, name, password_hash, created_at)
        VALUES ($1, $2, $3, $4, $5)`, ownerID, owner.Email, owner.Name, owner.PasswordHash, owner.CreatedAt.UTC())
	return err
}

// FindByID fetches an owner by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Owner, error) {
	ownerID, err := uuid.Parse(id)
	if err != nil {
		return Owner{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, email, name, password_hash, created_at FROM owners WHERE id = $1`, ownerID)
	return scanOwner(row)
}

// FindByEmail fetches an owner by email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Owner, error) {
	row := r.db.QueryRow(ctx, `SELECT id, email, name, password_hash, created_at FROM owners WHERE email = $1`, email)
	return scanOwner(row)
}

func scanOwner(row pgx.Row) (Owner, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		owner     Owner
	)
	if err := row.Scan(&id, &owner.Email, &owner.Name, &owner.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Owner{}, ErrNotFound
		}
		return Owner{}, err
	}
	owner.ID = id.String()
	owner.CreatedAt = createdAt.UTC()
	return owner, nil
}
