package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/amaurydelille/SWP391BE/internal/events"
)

// Service is the checkout settlement engine. It prices carts, moves balances
// between buyer, creators and the platform account, records the audit ledger
// and commits purchase records.
type Service struct {
	stores    Stores
	balance   *balanceAdjuster
	ledger    *ledgerRecorder
	publisher events.Publisher
	logger    *zap.Logger

	// platformAccountID is the fixed account receiving the fee share of
	// every sale.
	platformAccountID string
	now               func() time.Time
}

// NewService creates a new Service over the given stores.
func NewService(stores Stores, publisher events.Publisher, logger *zap.Logger, platformAccountID string) *Service {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	ledger := newLedgerRecorder(stores.Ledger, logger)
	return &Service{
		stores: stores,
		balance: &balanceAdjuster{
			accounts: stores.Accounts,
			ledger:   ledger,
			logger:   logger,
		},
		ledger:            ledger,
		publisher:         publisher,
		logger:            logger,
		platformAccountID: platformAccountID,
		now:               time.Now,
	}
}

// pricedItem is one resolved cart line with its split already computed.
type pricedItem struct {
	artwork       *Artwork
	price         decimal.Decimal
	creatorShare  decimal.Decimal
	platformShare decimal.Decimal
}

// SettleCart converts the buyer's cart into a completed purchase. It prices
// every resolvable line, debits the buyer once for the total, credits each
// creator and the platform account, records ledger entries and purchase
// records, and clears the cart.
//
// Failures before the debit abort with no side effects. Everything after the
// debit runs as a saga: on failure the completed steps are compensated in
// reverse, ending with a refund of the debit, and the step's error is
// returned. Only a failed compensation surfaces ErrPartialSettlement.
func (s *Service) SettleCart(ctx context.Context, buyerID string) (*SettlementResult, error) {
	buyer, err := s.stores.Accounts.Get(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	lines, err := s.stores.Carts.ListByAccount(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	items, total, err := s.priceCart(ctx, lines)
	if err != nil {
		return nil, err
	}

	result := &SettlementResult{
		SettlementID: uuid.NewString(),
		Total:        total,
		Items:        len(items),
	}

	if len(items) == 0 {
		// Nothing left to settle. Lines whose artwork was deleted after
		// being carted are dead weight, so drop them; an actually empty
		// cart is untouched.
		if len(lines) > 0 {
			if err := s.stores.Carts.DeleteAllByAccount(ctx, buyerID); err != nil {
				return nil, fmt.Errorf("clear cart: %w", err)
			}
		}
		s.logger.Info("settlement skipped, empty cart", zap.String("buyer_id", buyerID))
		return result, nil
	}

	steps := s.settlementSteps(buyer, items, total, result.SettlementID)
	if err := runSaga(ctx, s.logger, steps); err != nil {
		return nil, err
	}

	s.logger.Info("settlement completed",
		zap.String("settlement_id", result.SettlementID),
		zap.String("buyer_id", buyerID),
		zap.String("total", total.String()),
		zap.Int("items", result.Items),
	)

	event := events.SettlementCompleted{
		SettlementID: result.SettlementID,
		BuyerID:      buyerID,
		Total:        total,
		OccurredAt:   s.now(),
	}
	if err := s.publisher.Publish(ctx, events.TopicSettlementCompleted, event); err != nil {
		s.logger.Error("failed to publish settlement event",
			zap.String("settlement_id", result.SettlementID), zap.Error(err))
	}

	return result, nil
}

// priceCart resolves cart lines to artworks and computes the total. Lines
// whose artwork no longer exists are skipped; malformed prices contribute
// zero.
func (s *Service) priceCart(ctx context.Context, lines []CartLine) ([]pricedItem, decimal.Decimal, error) {
	items := make([]pricedItem, 0, len(lines))
	total := decimal.Zero
	for _, line := range lines {
		art, err := s.stores.Catalog.Get(ctx, line.ArtworkID)
		if errors.Is(err, ErrArtworkNotFound) {
			continue
		}
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("resolve artwork %s: %w", line.ArtworkID, err)
		}
		price := art.ParsePrice()
		creatorShare, platformShare := SplitPrice(price)
		items = append(items, pricedItem{
			artwork:       art,
			price:         price,
			creatorShare:  creatorShare,
			platformShare: platformShare,
		})
		total = total.Add(price)
	}
	return items, total, nil
}

// settlementSteps builds the compensable step list for one settlement:
// debit buyer, credit shares per artwork, write purchase records, clear cart.
func (s *Service) settlementSteps(buyer *Account, items []pricedItem, total decimal.Decimal, settlementID string) []sagaStep {
	steps := []sagaStep{{
		name: "debit-buyer",
		run: func(ctx context.Context) error {
			desc := fmt.Sprintf("%s makes payment for the artwork in the shopping cart: - %s$", buyer.Name, total.String())
			return s.balance.Debit(ctx, buyer.ID, total, desc, KindCheckout)
		},
		compensate: func(ctx context.Context) error {
			desc := fmt.Sprintf("refund of %s$ after failed settlement", total.String())
			return s.balance.Credit(ctx, buyer.ID, buyer.ID, total, desc, KindRefund)
		},
	}}

	for i := range items {
		item := items[i]
		steps = append(steps, sagaStep{
			name: "credit-shares:" + item.artwork.ID,
			run: func(ctx context.Context) error {
				creatorDesc := fmt.Sprintf("%s bought artwork: %s ~ + %s$", buyer.Name, item.artwork.Title, item.creatorShare.String())
				if err := s.balance.Credit(ctx, buyer.ID, item.artwork.CreatorID, item.creatorShare, creatorDesc, KindCreatorProfit); err != nil {
					return err
				}
				platformDesc := fmt.Sprintf("platform receives 10%% from artwork: %s + %s$", item.artwork.Title, item.platformShare.String())
				if err := s.balance.Credit(ctx, buyer.ID, s.platformAccountID, item.platformShare, platformDesc, KindAdminProfit); err != nil {
					// The creator share already landed; take it back so the
					// step fails clean.
					desc := fmt.Sprintf("reversal of profit share for artwork: %s", item.artwork.Title)
					if derr := s.balance.Debit(ctx, item.artwork.CreatorID, item.creatorShare, desc, KindRefund); derr != nil {
						return fmt.Errorf("%w: platform credit failed (%v) and creator share not reversed: %v", ErrPartialSettlement, err, derr)
					}
					return err
				}
				return nil
			},
			compensate: func(ctx context.Context) error {
				creatorDesc := fmt.Sprintf("reversal of profit share for artwork: %s", item.artwork.Title)
				if err := s.balance.Debit(ctx, item.artwork.CreatorID, item.creatorShare, creatorDesc, KindRefund); err != nil {
					return err
				}
				platformDesc := fmt.Sprintf("reversal of platform share for artwork: %s", item.artwork.Title)
				return s.balance.Debit(ctx, s.platformAccountID, item.platformShare, platformDesc, KindRefund)
			},
		})
	}

	recordIDs := make([]string, 0, len(items))
	steps = append(steps, sagaStep{
		name: "write-purchase-records",
		run: func(ctx context.Context) error {
			for _, item := range items {
				rec := PurchaseRecord{
					ID:        uuid.NewString(),
					BuyerID:   buyer.ID,
					ArtworkID: item.artwork.ID,
					Artwork:   *item.artwork,
					CreatedAt: s.now(),
				}
				if err := s.stores.Purchases.Create(ctx, rec); err != nil {
					return fmt.Errorf("write purchase record for artwork %s: %w", item.artwork.ID, err)
				}
				recordIDs = append(recordIDs, rec.ID)
			}
			return nil
		},
		compensate: func(ctx context.Context) error {
			for _, id := range recordIDs {
				if err := s.stores.Purchases.Delete(ctx, id); err != nil {
					return err
				}
			}
			return nil
		},
	})

	steps = append(steps, sagaStep{
		name: "clear-cart",
		run: func(ctx context.Context) error {
			if err := s.stores.Carts.DeleteAllByAccount(ctx, buyer.ID); err != nil {
				return fmt.Errorf("clear cart: %w", err)
			}
			return nil
		},
	})

	return steps
}

// Deposit credits amount to the account and records a deposit ledger entry.
func (s *Service) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	acct, err := s.stores.Accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if _, err := acct.ParseBalance(); err != nil {
		return err
	}

	desc := fmt.Sprintf("%s deposited (+%s$) to account", acct.Name, amount.String())
	if err := s.balance.Credit(ctx, accountID, accountID, amount, desc, KindDeposit); err != nil {
		return err
	}

	event := events.DepositCompleted{
		AccountID:  accountID,
		Amount:     amount,
		OccurredAt: s.now(),
	}
	if err := s.publisher.Publish(ctx, events.TopicDepositCompleted, event); err != nil {
		s.logger.Error("failed to publish deposit event",
			zap.String("account_id", accountID), zap.Error(err))
	}
	return nil
}

// AddToCart puts an artwork in the account's cart. Duplicates and artworks
// the account already bought are rejected.
func (s *Service) AddToCart(ctx context.Context, accountID, artworkID string) error {
	if _, err := s.stores.Catalog.Get(ctx, artworkID); err != nil {
		return err
	}
	bought, err := s.stores.Purchases.Exists(ctx, accountID, artworkID)
	if err != nil {
		return fmt.Errorf("check purchase history: %w", err)
	}
	if bought {
		return ErrAlreadyBought
	}
	return s.stores.Carts.Add(ctx, CartLine{
		AccountID: accountID,
		ArtworkID: artworkID,
		AddedAt:   s.now(),
	})
}

// RemoveFromCart deletes one cart line.
func (s *Service) RemoveFromCart(ctx context.Context, accountID, artworkID string) error {
	return s.stores.Carts.Delete(ctx, accountID, artworkID)
}

// CartContents lists the account's cart lines resolved to their artworks.
// Lines whose artwork disappeared are omitted.
func (s *Service) CartContents(ctx context.Context, accountID string) ([]CartItem, error) {
	lines, err := s.stores.Carts.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	items := make([]CartItem, 0, len(lines))
	for _, line := range lines {
		art, err := s.stores.Catalog.Get(ctx, line.ArtworkID)
		if errors.Is(err, ErrArtworkNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve artwork %s: %w", line.ArtworkID, err)
		}
		items = append(items, CartItem{CartLine: line, Artwork: art})
	}
	return items, nil
}

// Purchases lists the buyer's purchase records.
func (s *Service) Purchases(ctx context.Context, buyerID string) ([]PurchaseRecord, error) {
	return s.stores.Purchases.ListByBuyer(ctx, buyerID)
}

// PaymentHistory returns the account's own checkout and deposit entries.
func (s *Service) PaymentHistory(ctx context.Context, accountID string) ([]LedgerEntry, error) {
	return s.stores.Ledger.FindByAccount(ctx, accountID)
}

// CreatorOrderHistory returns the creator_profit entries credited to a creator.
func (s *Service) CreatorOrderHistory(ctx context.Context, creatorID string) ([]LedgerEntry, error) {
	return s.stores.Ledger.FindByKindAndTarget(ctx, KindCreatorProfit, creatorID)
}

// AdminProfitHistory returns the admin_profit entries credited to the platform.
func (s *Service) AdminProfitHistory(ctx context.Context, adminID string) ([]LedgerEntry, error) {
	return s.stores.Ledger.FindByKindAndTarget(ctx, KindAdminProfit, adminID)
}
