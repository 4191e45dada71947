package wallet

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

type memoryStore struct {
	mu           sync.RWMutex
	wallets      map[string]Wallet
	transactions map[string]Transaction
	journal      map[string][]string // wallet id -> transaction ids, insertion order
}

// NewMemoryStore creates a concurrency-safe in-memory store useful for unit
// tests and for running the API without a database.
func NewMemoryStore() Store {
	return &memoryStore{
		wallets:      make(map[string]Wallet),
		transactions: make(map[string]Transaction),
		journal:      make(map[string][]string),
	}
}

func (s *memoryStore) CreateWallet(_ context.Context, w Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.wallets[w.ID]; exists {
		return ErrSlugTaken
	}
	for _, other := range s.wallets {
		if other.DeletedAt == nil && other.OwnerID == w.OwnerID && other.Slug == w.Slug {
			return ErrSlugTaken
		}
	}
	s.wallets[w.ID] = w
	return nil
}

func (s *memoryStore) GetWallet(_ context.Context, id string) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[id]
	if !ok || w.DeletedAt != nil {
		return Wallet{}, ErrWalletNotFound
	}
	return w, nil
}

func (s *memoryStore) FindWalletByName(_ context.Context, ownerID, name string) (*Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.wallets {
		if w.DeletedAt == nil && w.OwnerID == ownerID && w.Name == name {
			found := w
			return &found, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) FindWalletBySlug(_ context.Context, ownerID, slug string) (*Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.wallets {
		if w.DeletedAt == nil && w.OwnerID == ownerID && w.Slug == slug {
			found := w
			return &found, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) ListWallets(_ context.Context, ownerID string, activeOnly bool) ([]Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Wallet
	for _, w := range s.wallets {
		if w.DeletedAt != nil || w.OwnerID != ownerID {
			continue
		}
		if activeOnly && !w.IsActive {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (s *memoryStore) TotalBalance(_ context.Context, ownerID, currency string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, w := range s.wallets {
		if w.DeletedAt != nil || w.OwnerID != ownerID {
			continue
		}
		if currency != "" && w.Currency != currency {
			continue
		}
		total = total.Add(w.Balance)
	}
	return total, nil
}

func (s *memoryStore) SoftDeleteWallet(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok || w.DeletedAt != nil {
		return ErrWalletNotFound
	}
	now := nowUTC()
	w.DeletedAt = &now
	w.IsActive = false
	s.wallets[id] = w
	return nil
}

func (s *memoryStore) GetTransaction(_ context.Context, id string) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return t, nil
}

func (s *memoryStore) ListTransactions(_ context.Context, walletID string) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.journal[walletID]
	out := make([]Transaction, 0, len(ids))
	// newest first
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, s.transactions[ids[i]])
	}
	return out, nil
}

func (s *memoryStore) Apply(_ context.Context, walletID string, fn ApplyFunc) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[walletID]
	if !ok || w.DeletedAt != nil {
		return Transaction{}, ErrWalletNotFound
	}

	entry, err := fn(&w)
	if err != nil {
		return Transaction{}, err
	}

	s.wallets[walletID] = w
	s.transactions[entry.ID] = entry
	s.journal[walletID] = append(s.journal[walletID], entry.ID)
	return entry, nil
}

func (s *memoryStore) Settle(_ context.Context, walletID, transactionID string, fn SettleFunc) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[walletID]
	if !ok || w.DeletedAt != nil {
		return Transaction{}, ErrWalletNotFound
	}
	t, ok := s.transactions[transactionID]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}

	if err := fn(&w, &t); err != nil {
		return Transaction{}, err
	}

	s.wallets[walletID] = w
	s.transactions[transactionID] = t
	return t, nil
}
