package checkout

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// balanceAdjuster is the only path through which account balances move. Every
// successful movement appends a ledger entry describing actor, counterparty,
// amount and reason.
type balanceAdjuster struct {
	accounts AccountStore
	ledger   *ledgerRecorder
	logger   *zap.Logger
}

// Debit removes amount from the account. It fails with ErrAccountNotFound,
// ErrInvalidBalance or ErrInsufficientFunds before touching anything; the
// write itself is a store-level conditional decrement, and a zero modified
// count is treated as failure, never as silent success.
func (b *balanceAdjuster) Debit(ctx context.Context, accountID string, amount decimal.Decimal, description string, kind LedgerKind) error {
	acct, err := b.accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}
	balance, err := acct.ParseBalance()
	if err != nil {
		return err
	}
	if balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	modified, err := b.accounts.DebitBalance(ctx, accountID, amount)
	if err != nil {
		return fmt.Errorf("debit account %s: %w", accountID, err)
	}
	if modified != 1 {
		// The conditional decrement found nothing to update: a concurrent
		// settlement drained the balance between the check and the write.
		return ErrInsufficientFunds
	}
	b.logger.Info("balance debited",
		zap.String("account_id", accountID),
		zap.String("amount", amount.String()),
		zap.String("kind", string(kind)),
	)
	b.ledger.append(ctx, accountID, accountID, description, kind)
	return nil
}

// Credit adds amount to the account. Negative adjustments must go through
// Debit; they are rejected here.
func (b *balanceAdjuster) Credit(ctx context.Context, fromID, accountID string, amount decimal.Decimal, description string, kind LedgerKind) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	modified, err := b.accounts.CreditBalance(ctx, accountID, amount)
	if err != nil {
		return fmt.Errorf("credit account %s: %w", accountID, err)
	}
	if modified != 1 {
		return fmt.Errorf("credit account %s: %w", accountID, ErrAccountNotFound)
	}
	b.logger.Info("balance credited",
		zap.String("account_id", accountID),
		zap.String("amount", amount.String()),
		zap.String("kind", string(kind)),
	)
	b.ledger.append(ctx, fromID, accountID, description, kind)
	return nil
}
