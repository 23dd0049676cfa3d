package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/amaurydelille/SWP391BE/internal/checkout"
)

// AccountStore is the postgres implementation of checkout.AccountStore.
// Balances live in a NUMERIC column; the debit is a single conditional
// decrement so two settlements racing on one buyer cannot both win.
type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Get(ctx context.Context, id string) (*checkout.Account, error) {
	const query = `SELECT id, name, email, role, balance FROM users WHERE id = $1`

	var a checkout.Account
	err := s.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.Balance)
	if err == sql.ErrNoRows {
		return nil, checkout.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AccountStore) DebitBalance(ctx context.Context, id string, amount decimal.Decimal) (int64, error) {
	const query = `UPDATE users SET balance = balance - $2 WHERE id = $1 AND balance >= $2`

	res, err := s.db.ExecContext(ctx, query, id, amount)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *AccountStore) CreditBalance(ctx context.Context, id string, amount decimal.Decimal) (int64, error) {
	const query = `UPDATE users SET balance = balance + $2 WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, id, amount)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Catalog is the postgres implementation of checkout.Catalog.
type Catalog struct {
	db *sql.DB
}

func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

func (s *Catalog) Get(ctx context.Context, artworkID string) (*checkout.Artwork, error) {
	const query = `SELECT id, creator_id, title, price, likes FROM artworks WHERE id = $1`

	var a checkout.Artwork
	err := s.db.QueryRowContext(ctx, query, artworkID).Scan(&a.ID, &a.CreatorID, &a.Title, &a.Price, &a.Likes)
	if err == sql.ErrNoRows {
		return nil, checkout.ErrArtworkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CartStore is the postgres implementation of checkout.CartStore. The
// carts_items table carries a UNIQUE (account_id, artwork_id) constraint so
// duplicate lines are rejected at the store boundary.
type CartStore struct {
	db *sql.DB
}

func NewCartStore(db *sql.DB) *CartStore {
	return &CartStore{db: db}
}

func (s *CartStore) Add(ctx context.Context, line checkout.CartLine) error {
	const query = `INSERT INTO carts_items (account_id, artwork_id, added_at) VALUES ($1, $2, $3)`

	_, err := s.db.ExecContext(ctx, query, line.AccountID, line.ArtworkID, line.AddedAt)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
		return checkout.ErrAlreadyInCart
	}
	return err
}

func (s *CartStore) ListByAccount(ctx context.Context, accountID string) ([]checkout.CartLine, error) {
	const query = `SELECT account_id, artwork_id, added_at FROM carts_items WHERE account_id = $1 ORDER BY added_at`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []checkout.CartLine
	for rows.Next() {
		var l checkout.CartLine
		if err := rows.Scan(&l.AccountID, &l.ArtworkID, &l.AddedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *CartStore) Delete(ctx context.Context, accountID, artworkID string) error {
	const query = `DELETE FROM carts_items WHERE account_id = $1 AND artwork_id = $2`

	_, err := s.db.ExecContext(ctx, query, accountID, artworkID)
	return err
}

func (s *CartStore) DeleteAllByAccount(ctx context.Context, accountID string) error {
	const query = `DELETE FROM carts_items WHERE account_id = $1`

	_, err := s.db.ExecContext(ctx, query, accountID)
	return err
}

// LedgerStore is the postgres implementation of checkout.LedgerStore.
// history_transactions is append-only: no update or delete statements exist.
type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) Append(ctx context.Context, entry checkout.LedgerEntry) error {
	const query = `INSERT INTO history_transactions (id, from_id, to_id, description, date_time, kind)
	VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, query, entry.ID, entry.FromID, entry.ToID, entry.Description, entry.DateTime, entry.Kind)
	return err
}

func (s *LedgerStore) FindByAccount(ctx context.Context, accountID string) ([]checkout.LedgerEntry, error) {
	const query = `SELECT id, from_id, to_id, description, date_time, kind FROM history_transactions
	WHERE from_id = $1 AND to_id = $1`

	return s.queryEntries(ctx, query, accountID)
}

func (s *LedgerStore) FindByKindAndTarget(ctx context.Context, kind checkout.LedgerKind, toID string) ([]checkout.LedgerEntry, error) {
	const query = `SELECT id, from_id, to_id, description, date_time, kind FROM history_transactions
	WHERE kind = $1 AND to_id = $2`

	return s.queryEntries(ctx, query, string(kind), toID)
}

func (s *LedgerStore) queryEntries(ctx context.Context, query string, args ...any) ([]checkout.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []checkout.LedgerEntry
	for rows.Next() {
		var e checkout.LedgerEntry
		if err := rows.Scan(&e.ID, &e.FromID, &e.ToID, &e.Description, &e.DateTime, &e.Kind); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PurchaseStore is the postgres implementation of checkout.PurchaseStore.
// The artwork snapshot is denormalized into columns so purchase history
// survives listing deletion.
type PurchaseStore struct {
	db *sql.DB
}

func NewPurchaseStore(db *sql.DB) *PurchaseStore {
	return &PurchaseStore{db: db}
}

func (s *PurchaseStore) Create(ctx context.Context, rec checkout.PurchaseRecord) error {
	const query = `INSERT INTO transactions (id, buyer_id, artwork_id, artwork_creator_id, artwork_title, artwork_price, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.BuyerID, rec.ArtworkID,
		rec.Artwork.CreatorID, rec.Artwork.Title, rec.Artwork.Price,
		rec.CreatedAt)
	return err
}

func (s *PurchaseStore) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM transactions WHERE id = $1`

	_, err := s.db.ExecContext(ctx, query, id)
	return err
}

func (s *PurchaseStore) ListByBuyer(ctx context.Context, buyerID string) ([]checkout.PurchaseRecord, error) {
	const query = `SELECT id, buyer_id, artwork_id, artwork_creator_id, artwork_title, artwork_price, created_at
	FROM transactions WHERE buyer_id = $1 ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []checkout.PurchaseRecord
	for rows.Next() {
		var r checkout.PurchaseRecord
		if err := rows.Scan(&r.ID, &r.BuyerID, &r.ArtworkID,
			&r.Artwork.CreatorID, &r.Artwork.Title, &r.Artwork.Price, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Artwork.ID = r.ArtworkID
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PurchaseStore) Exists(ctx context.Context, buyerID, artworkID string) (bool, error) {
	const query = `SELECT 1 FROM transactions WHERE buyer_id = $1 AND artwork_id = $2 LIMIT 1`

	var one int
	err := s.db.QueryRowContext(ctx, query, buyerID, artworkID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NewStores bundles postgres implementations of every store over one handle.
func NewStores(db *sql.DB) checkout.Stores {
	return checkout.Stores{
		Accounts:  NewAccountStore(db),
		Catalog:   NewCatalog(db),
		Carts:     NewCartStore(db),
		Ledger:    NewLedgerStore(db),
		Purchases: NewPurchaseStore(db),
	}
}

// Open connects to postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

var _ checkout.AccountStore = (*AccountStore)(nil)
var _ checkout.Catalog = (*Catalog)(nil)
var _ checkout.CartStore = (*CartStore)(nil)
var _ checkout.LedgerStore = (*LedgerStore)(nil)
var _ checkout.PurchaseStore = (*PurchaseStore)(nil)
