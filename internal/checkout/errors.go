package checkout

import "errors"

// ErrAccountNotFound is returned when an account id resolves to nothing.
var ErrAccountNotFound = errors.New("account not found")

// ErrArtworkNotFound is returned when an artwork id resolves to nothing.
var ErrArtworkNotFound = errors.New("artwork not found")

// ErrInsufficientFunds is returned when a debit would take a balance negative.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInvalidBalance is returned when a stored account balance does not parse.
var ErrInvalidBalance = errors.New("invalid account balance")

// ErrInvalidAmount is returned when a caller supplies a non-positive or
// malformed amount for a deposit or credit.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrAlreadyInCart is returned when an (account, artwork) cart line already exists.
var ErrAlreadyInCart = errors.New("artwork already in cart")

// ErrAlreadyBought is returned when the account already purchased the artwork.
var ErrAlreadyBought = errors.New("artwork already bought")

// ErrPartialSettlement is returned when a settlement failed after the debit
// and at least one compensating action also failed. Balances need manual
// reconciliation against the ledger.
var ErrPartialSettlement = errors.New("settlement partially applied")
