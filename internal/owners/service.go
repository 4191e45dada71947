package owners

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service manages the owner lifecycle and acts as the owner-resolution
// collaborator for the wallet directory.
type Service struct {
	repo Repository
}

// NewService creates a new owner service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput captures the data required to register an owner.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// Register creates a new owner with a hashed password.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Owner, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return Owner{}, errors.New("a valid email is required")
	}
	if len(input.Password) < 8 {
		return Owner{}, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return Owner{}, err
	}

	owner := Owner{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, owner); err != nil {
		return Owner{}, err
	}
	return owner, nil
}

// Authenticate verifies credentials and returns the matching owner.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (Owner, error) {
	owner, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(creds.Email)))
	if err != nil {
		return Owner{}, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(owner.PasswordHash, []byte(creds.Password)); err != nil {
		return Owner{}, errors.New("invalid credentials")
	}
	return owner, nil
}

// Get fetches an owner by identifier.
func (s *Service) Get(ctx context.Context, id string) (Owner, error) {
	return s.repo.FindByID(ctx, id)
}

// OwnerExists reports whether the owner identifier resolves to a registered
// owner. Implements the wallet directory's resolver contract.
func (s *Service) OwnerExists(ctx context.Context, id string) (bool, error) {
	_, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
