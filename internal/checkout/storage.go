package checkout

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// AccountStore supplies accounts and their balances. Balance mutation is only
// exposed as an atomic conditional decrement and an atomic increment so no
// caller can fall back to read-modify-write.
type AccountStore interface {
	Get(ctx context.Context, id string) (*Account, error)
	// DebitBalance decrements the stored balance only when it is at least
	// amount, and reports how many accounts were modified. Zero means the
	// account is missing or the condition did not hold.
	DebitBalance(ctx context.Context, id string, amount decimal.Decimal) (int64, error)
	// CreditBalance increments the stored balance by amount and reports how
	// many accounts were modified.
	CreditBalance(ctx context.Context, id string, amount decimal.Decimal) (int64, error)
}

// Catalog resolves artwork ids to listings.
type Catalog interface {
	Get(ctx context.Context, artworkID string) (*Artwork, error)
}

// CartStore holds pending cart lines. Add enforces (account, artwork)
// uniqueness.
type CartStore interface {
	Add(ctx context.Context, line CartLine) error
	ListByAccount(ctx context.Context, accountID string) ([]CartLine, error)
	Delete(ctx context.Context, accountID, artworkID string) error
	DeleteAllByAccount(ctx context.Context, accountID string) error
}

// LedgerStore persists the append-only audit trail.
type LedgerStore interface {
	Append(ctx context.Context, entry LedgerEntry) error
	// FindByAccount returns the self entries of an account (checkout and
	// deposit movements, where from and to are both the account).
	FindByAccount(ctx context.Context, accountID string) ([]LedgerEntry, error)
	FindByKindAndTarget(ctx context.Context, kind LedgerKind, toID string) ([]LedgerEntry, error)
}

// PurchaseStore persists purchase records.
type PurchaseStore interface {
	Create(ctx context.Context, rec PurchaseRecord) error
	Delete(ctx context.Context, id string) error
	ListByBuyer(ctx context.Context, buyerID string) ([]PurchaseRecord, error)
	Exists(ctx context.Context, buyerID, artworkID string) (bool, error)
}

// Stores bundles the collaborators a Service needs.
type Stores struct {
	Accounts  AccountStore
	Catalog   Catalog
	Carts     CartStore
	Ledger    LedgerStore
	Purchases PurchaseStore
}

// MemoryAccountStore is an in-memory AccountStore, safe for concurrent use.
type MemoryAccountStore struct {
	mu sync.Mutex
	m  map[string]*Account
}

// NewMemoryAccountStore instantiates an empty MemoryAccountStore.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{m: map[string]*Account{}}
}

// Put stores or replaces an account.
func (s *MemoryAccountStore) Put(a *Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[a.ID] = a
}

func (s *MemoryAccountStore) Get(ctx context.Context, id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.m[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryAccountStore) DebitBalance(ctx context.Context, id string, amount decimal.Decimal) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.m[id]
	if !ok {
		return 0, nil
	}
	balance, err := a.ParseBalance()
	if err != nil {
		return 0, err
	}
	if balance.LessThan(amount) {
		return 0, nil
	}
	a.Balance = balance.Sub(amount).String()
	return 1, nil
}

func (s *MemoryAccountStore) CreditBalance(ctx context.Context, id string, amount decimal.Decimal) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.m[id]
	if !ok {
		return 0, nil
	}
	balance, err := a.ParseBalance()
	if err != nil {
		return 0, err
	}
	a.Balance = balance.Add(amount).String()
	return 1, nil
}

// MemoryCatalog is an in-memory Catalog.
type MemoryCatalog struct {
	mu sync.Mutex
	m  map[string]*Artwork
}

// NewMemoryCatalog instantiates an empty MemoryCatalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{m: map[string]*Artwork{}}
}

// Put stores or replaces an artwork listing.
func (s *MemoryCatalog) Put(a *Artwork) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[a.ID] = a
}

// Remove deletes a listing, as the admin surface would.
func (s *MemoryCatalog) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
}

func (s *MemoryCatalog) Get(ctx context.Context, artworkID string) (*Artwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.m[artworkID]
	if !ok {
		return nil, ErrArtworkNotFound
	}
	cp := *a
	return &cp, nil
}

// MemoryCartStore is an in-memory CartStore.
type MemoryCartStore struct {
	mu    sync.Mutex
	lines []CartLine
}

// NewMemoryCartStore instantiates an empty MemoryCartStore.
func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{}
}

func (s *MemoryCartStore) Add(ctx context.Context, line CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines {
		if l.AccountID == line.AccountID && l.ArtworkID == line.ArtworkID {
			return ErrAlreadyInCart
		}
	}
	s.lines = append(s.lines, line)
	return nil
}

func (s *MemoryCartStore) ListByAccount(ctx context.Context, accountID string) ([]CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []CartLine
	for _, l := range s.lines {
		if l.AccountID == accountID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *MemoryCartStore) Delete(ctx context.Context, accountID, artworkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.lines[:0]
	for _, l := range s.lines {
		if l.AccountID == accountID && l.ArtworkID == artworkID {
			continue
		}
		kept = append(kept, l)
	}
	s.lines = kept
	return nil
}

func (s *MemoryCartStore) DeleteAllByAccount(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.lines[:0]
	for _, l := range s.lines {
		if l.AccountID == accountID {
			continue
		}
		kept = append(kept, l)
	}
	s.lines = kept
	return nil
}

// MemoryLedgerStore is an in-memory, append-only LedgerStore.
type MemoryLedgerStore struct {
	mu      sync.Mutex
	entries []LedgerEntry
}

// NewMemoryLedgerStore instantiates an empty MemoryLedgerStore.
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{}
}

func (s *MemoryLedgerStore) Append(ctx context.Context, entry LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryLedgerStore) FindByAccount(ctx context.Context, accountID string) ([]LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []LedgerEntry
	for _, e := range s.entries {
		if e.FromID == accountID && e.ToID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryLedgerStore) FindByKindAndTarget(ctx context.Context, kind LedgerKind, toID string) ([]LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []LedgerEntry
	for _, e := range s.entries {
		if e.Kind == kind && e.ToID == toID {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns a copy of every entry, oldest first.
func (s *MemoryLedgerStore) All() []LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LedgerEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// MemoryPurchaseStore is an in-memory PurchaseStore.
type MemoryPurchaseStore struct {
	mu      sync.Mutex
	records []PurchaseRecord
}

// NewMemoryPurchaseStore instantiates an empty MemoryPurchaseStore.
func NewMemoryPurchaseStore() *MemoryPurchaseStore {
	return &MemoryPurchaseStore{}
}

func (s *MemoryPurchaseStore) Create(ctx context.Context, rec PurchaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *MemoryPurchaseStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	for _, r := range s.records {
		if r.ID == id {
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return nil
}

func (s *MemoryPurchaseStore) ListByBuyer(ctx context.Context, buyerID string) ([]PurchaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []PurchaseRecord
	for _, r := range s.records {
		if r.BuyerID == buyerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryPurchaseStore) Exists(ctx context.Context, buyerID, artworkID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.BuyerID == buyerID && r.ArtworkID == artworkID {
			return true, nil
		}
	}
	return false, nil
}

var _ AccountStore = (*MemoryAccountStore)(nil)
var _ Catalog = (*MemoryCatalog)(nil)
var _ CartStore = (*MemoryCartStore)(nil)
var _ LedgerStore = (*MemoryLedgerStore)(nil)
var _ PurchaseStore = (*MemoryPurchaseStore)(nil)

// NewMemoryStores bundles fresh in-memory implementations of every store.
func NewMemoryStores() Stores {
	return Stores{
		Accounts:  NewMemoryAccountStore(),
		Catalog:   NewMemoryCatalog(),
		Carts:     NewMemoryCartStore(),
		Ledger:    NewMemoryLedgerStore(),
		Purchases: NewMemoryPurchaseStore(),
	}
}
