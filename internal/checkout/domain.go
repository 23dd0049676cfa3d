package checkout

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Account roles.
const (
	RoleAudience = "audience"
	RoleCreator  = "creator"
	RoleAdmin    = "admin"
)

// Account is a marketplace user able to hold funds. Balance is carried as the
// raw stored string because the document store historically holds it as text;
// malformed values must be detected at the boundary, not assumed away.
type Account struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Balance string `json:"balance"`
}

// ParseBalance returns the account balance as a decimal. A balance that does
// not parse is fatal for the account's own operations.
func (a *Account) ParseBalance() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(a.Balance))
	if err != nil {
		return decimal.Zero, ErrInvalidBalance
	}
	return d, nil
}

// Artwork is a listed digital artwork.
type Artwork struct {
	ID        string `json:"id"`
	CreatorID string `json:"creator_id"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	Likes     int    `json:"likes"`
}

// ParsePrice returns the listed price as a decimal. A malformed or missing
// price contributes zero rather than failing the caller.
func (a *Artwork) ParsePrice() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(a.Price))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CartLine is an (account, artwork) pair awaiting purchase.
type CartLine struct {
	AccountID string    `json:"account_id"`
	ArtworkID string    `json:"artwork_id"`
	AddedAt   time.Time `json:"added_at"`
}

// CartItem is a cart line resolved to its artwork, as served to the cart view.
type CartItem struct {
	CartLine
	Artwork *Artwork `json:"artwork"`
}

// LedgerKind classifies a balance-affecting event.
type LedgerKind string

const (
	KindCheckout      LedgerKind = "checkout"
	KindCreatorProfit LedgerKind = "creator_profit"
	KindAdminProfit   LedgerKind = "admin_profit"
	KindDeposit       LedgerKind = "deposit"
	// KindRefund covers compensating movements issued when a settlement is
	// rolled back after the debit already happened.
	KindRefund LedgerKind = "refund"
)

// LedgerEntry is an immutable audit record of a balance movement. Entries are
// append-only; they are the system's source of truth for what happened,
// independent of current balances. ID doubles as the correlation id.
type LedgerEntry struct {
	ID          string     `json:"id"`
	FromID      string     `json:"from_id"`
	ToID        string     `json:"to_id"`
	Description string     `json:"description"`
	DateTime    string     `json:"date_time"`
	Kind        LedgerKind `json:"kind"`
}

// PurchaseRecord is created once per purchased cart line. The artwork is
// snapshotted so later deletions of the listing do not erase purchase history.
type PurchaseRecord struct {
	ID        string    `json:"id"`
	BuyerID   string    `json:"buyer_id"`
	ArtworkID string    `json:"artwork_id"`
	Artwork   Artwork   `json:"artwork"`
	CreatedAt time.Time `json:"created_at"`
}

// SettlementResult reports a completed settlement back to the caller.
type SettlementResult struct {
	SettlementID string          `json:"settlement_id"`
	Total        decimal.Decimal `json:"total"`
	Items        int             `json:"items"`
}
