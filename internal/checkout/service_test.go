package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/amaurydelille/SWP391BE/internal/events"
)

const testPlatformID = "platform-account"

type testEnv struct {
	service   *Service
	accounts  *MemoryAccountStore
	catalog   *MemoryCatalog
	carts     *MemoryCartStore
	ledger    *MemoryLedgerStore
	purchases *MemoryPurchaseStore
	publisher *events.MemoryPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		accounts:  NewMemoryAccountStore(),
		catalog:   NewMemoryCatalog(),
		carts:     NewMemoryCartStore(),
		ledger:    NewMemoryLedgerStore(),
		purchases: NewMemoryPurchaseStore(),
		publisher: events.NewMemoryPublisher(),
	}
	stores := Stores{
		Accounts:  env.accounts,
		Catalog:   env.catalog,
		Carts:     env.carts,
		Ledger:    env.ledger,
		Purchases: env.purchases,
	}
	env.service = NewService(stores, env.publisher, zaptest.NewLogger(t), testPlatformID)
	env.accounts.Put(&Account{ID: testPlatformID, Name: "platform", Role: RoleAdmin, Balance: "0"})
	return env
}

func (e *testEnv) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	a, err := e.accounts.Get(context.Background(), id)
	require.NoError(t, err)
	b, err := a.ParseBalance()
	require.NoError(t, err)
	return b
}

func (e *testEnv) cartSize(t *testing.T, id string) int {
	t.Helper()
	lines, err := e.carts.ListByAccount(context.Background(), id)
	require.NoError(t, err)
	return len(lines)
}

func (e *testEnv) addToCart(t *testing.T, accountID, artworkID string) {
	t.Helper()
	require.NoError(t, e.service.AddToCart(context.Background(), accountID, artworkID))
}

func TestSettleCart_HappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.accounts.Put(&Account{ID: "buyer", Name: "Alice", Role: RoleAudience, Balance: "100"})
	env.accounts.Put(&Account{ID: "creatorA", Name: "Bob", Role: RoleCreator, Balance: "0"})
	env.accounts.Put(&Account{ID: "creatorB", Name: "Carl", Role: RoleCreator, Balance: "0"})
	env.catalog.Put(&Artwork{ID: "artA", CreatorID: "creatorA", Title: "Sunset", Price: "30"})
	env.catalog.Put(&Artwork{ID: "artB", CreatorID: "creatorB", Title: "Moonrise", Price: "20"})
	env.addToCart(t, "buyer", "artA")
	env.addToCart(t, "buyer", "artB")

	result, err := env.service.SettleCart(ctx, "buyer")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.SettlementID)
	assert.True(t, result.Total.Equal(decimal.NewFromInt(50)), "expected total 50, got %s", result.Total)
	assert.Equal(t, 2, result.Items)

	assert.True(t, env.balance(t, "buyer").Equal(decimal.NewFromInt(50)))
	assert.True(t, env.balance(t, "creatorA").Equal(decimal.NewFromInt(27)))
	assert.True(t, env.balance(t, "creatorB").Equal(decimal.NewFromInt(18)))
	assert.True(t, env.balance(t, testPlatformID).Equal(decimal.NewFromInt(5)))

	// One checkout entry for the debit, one creator_profit and one
	// admin_profit per artwork.
	entries := env.ledger.All()
	assert.Len(t, entries, 5)
	kinds := map[LedgerKind]int{}
	for _, e := range entries {
		kinds[e.Kind]++
		assert.NotEmpty(t, e.ID, "every entry carries a correlation id")
		assert.NotEmpty(t, e.DateTime)
	}
	assert.Equal(t, 1, kinds[KindCheckout])
	assert.Equal(t, 2, kinds[KindCreatorProfit])
	assert.Equal(t, 2, kinds[KindAdminProfit])

	records, err := env.purchases.ListByBuyer(ctx, "buyer")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "Sunset", records[0].Artwork.Title)

	assert.Equal(t, 0, env.cartSize(t, "buyer"))

	published := env.publisher.Events()
	require.Len(t, published, 1)
	assert.Equal(t, events.TopicSettlementCompleted, published[0].Topic)
	event, ok := published[0].Event.(events.SettlementCompleted)
	require.True(t, ok)
	assert.Equal(t, "buyer", event.BuyerID)
	assert.True(t, event.Total.Equal(decimal.NewFromInt(50)))
}

func TestSettleCart_InsufficientFunds(t *testing.T) {
	env := newTestEnv(t)

	env.accounts.Put(&Account{ID: "buyer", Name: "Alice", Balance: "10"})
	env.accounts.Put(&Account{ID: "creator", Name: "Bob", Balance: "0"})
	env.catalog.Put(&Artwork{ID: "art", CreatorID: "creator", Title: "Sunset", Price: "50"})
	env.addToCart(t, "buyer", "art")

	_, err := env.service.SettleCart(context.Background(), "buyer")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	assert.True(t, env.balance(t, "buyer").Equal(decimal.NewFromInt(10)), "balance must be unchanged")
	assert.True(t, env.balance(t, "creator").IsZero())
	assert.Equal(t, 1, env.cartSize(t, "buyer"), "cart must be unchanged")
	assert.Empty(t, env.ledger.All(), "no ledger entries on aborted settlement")
	assert.Empty(t, env.publisher.Events())
}

func TestSettleCart_EmptyCart(t *testing.T) {
	env := newTestEnv(t)
	env.accounts.Put(&Account{ID: "buyer", Name: "Alice", Balance: "100"})

	result, err := env.service.SettleCart(context.Background(), "buyer")
	require.NoError(t, err)
	assert.True(t, result.Total.IsZero())
	assert.Equal(t, 0, result.Items)
	assert.True(t, env.balance(t, "buyer").Equal(decimal.NewFromInt(100)))
	assert.Empty(t, env.ledger.All())
	assert.Empty(t, env.publisher.Events())
}

func TestSettleCart_UnknownBuyer(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.SettleCart(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSettleCart_InvalidBuyerBalance(t *testing.T) {
	env := newTestEnv(t)

	env.accounts.Put(&Account{ID: "buyer", Name: "Alice", Balance: "not-a-number"})
	env.accounts.Put(&Account{ID: "creator", Name: "Bob", Balance: "0"})
	env.catalog.Put(&Artwork{ID: "art", CreatorID: "creator", Title: "Sunset", Price: "50"})
	env.addToCart(t, "buyer", "art")

	_, err := env.service.SettleCart(context.Background(), "buyer")
	require.ErrorIs(t, err, ErrInvalidBalance)
	assert.Equal(t, 1, env.cartSize(t, "buyer"))
	assert.Empty(t, env.ledger.All())
}

func TestSettleCart_MalformedPriceContributesZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.accounts.Put(&Account{ID: "buyer", Name: "Alice", Balance: "100"})
	env.accounts.Put(&Account{ID: "creator", Name: "Bob", Balance: "0"})
	env.catalog.Put(&Artwork{ID: "artGood", CreatorID: "creator", Title: "Sunset", Price: "30"})
	env.catalog.Put(&Artwork{ID: "artBad", CreatorID: "creator", Title: "Glitch", Price: "free??"})
	env.addToCart(t, "buyer", "artGood")
	env.addToCart(t, "buyer", "artBad")

	result, err := env.service.SettleCart(ctx, "buyer")
	require.NoError(t, err)
	assert.True(t, result.Total.Equal(decimal.NewFromInt(30)), "malformed price must contribute 0, got total %s", result.Total)

	assert.True(t, env.balance(t, "buyer").Equal(decimal.NewFromInt(70)))
	assert.True(t, env.balance(t, "creator").Equal(decimal.NewFromInt(27)))
	assert.True(t, env.balance(t, testPlatformID).Equal(decimal.NewFromInt(3)))

	// The zero-priced artwork is still purchased.
	records, err := env.purchases.ListByBuyer(ctx, "buyer")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 0, env.cartSize(t, "buyer"))
}

func TestSettleCart_SkipsDeletedArtwork(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.accounts.Put(&Account{ID: "buyer", Name: "Alice", Balance: "100"})
	env.accounts.Put(&Account{ID: "creator", Name: "Bob", Balance: "0"})
	env.catalog.Put(&Artwork{ID: "artKept", CreatorID: "creator", Title: "Sunset", Price: "30"})
	env.catalog.Put(&Artwork{ID: "artGone", CreatorID: "creator", Title: "Vanished", Price: "40"})
	env.addToCart(t, "buyer", "artKept")
	env.addToCart(t, "buyer", "artGone")
	env.catalog.Remove("artGone")

	result, err := env.service.SettleCart(ctx, "buyer")
	require.NoError(t, err)
	assert.True(t, result.Total.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, 1, result.Items)

	records, err := env.purchases.ListByBuyer(ctx, "buyer")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 0, env.cartSize(t, "buyer"))
}

func TestSettleCart_OnlyDeadLinesClearsCart(t *testing.T) {
	env := newTestEnv(t)

	env.accounts.Put(&Account{ID: "buyer", Name: "Alice", Balance: "100"})
	env.catalog.Put(&Artwork{ID: "art", CreatorID: "creator", Title: "Vanished", Price: "40"})
	env.addToCart(t, "buyer", "art")
	env.catalog.Remove("art")

	result, err := env.service.SettleCart(context.Background(), "buyer")
	require.NoError(t, err)
	assert.True(t, result.Total.IsZero())
	assert.Equal(t, 0, env.cartSize(t, "buyer"))
	assert.True(t, env.balance(t, "buyer").Equal(decimal.NewFromInt(100)))
	assert.Empty(t, env.ledger.All())
}

// A credit failure after the debit must roll the whole settlement back:
// the buyer is refunded, no purchase records survive, and the cart is intact.
func TestSettleCart_CompensatesAfterCreditFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.accounts.Put(&Account{ID: "buyer", Name: "Alice", Balance: "100"})
	// The artwork points at a creator account that does not exist, so the
	// creator credit fails after the debit succeeded.
	env.catalog.Put(&Artwork{ID: "art", CreatorID: "ghost-creator", Title: "Orphan", Price: "50"})
	env.addToCart(t, "buyer", "art")

	_, err := env.service.SettleCart(ctx, "buyer")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.NotErrorIs(t, err, ErrPartialSettlement, "a fully compensated failure is not partial")

	assert.True(t, env.balance(t, "buyer").Equal(decimal.NewFromInt(100)), "buyer must be refunded")
	records, rerr := env.purchases.ListByBuyer(ctx, "buyer")
	require.NoError(t, rerr)
	assert.Empty(t, records)
	assert.Equal(t, 1, env.cartSize(t, "buyer"), "cart survives a failed settlement")

	// The audit trail keeps both the debit and its refund.
	kinds := map[LedgerKind]int{}
	for _, e := range env.ledger.All() {
		kinds[e.Kind]++
	}
	assert.Equal(t, 1, kinds[KindCheckout])
	assert.Equal(t, 1, kinds[KindRefund])
	assert.Empty(t, env.publisher.Events())
}

// Two settlements racing on the same buyer must not both debit: the
// conditional decrement admits at most one winner.
func TestSettleCart_ConcurrentSameBuyer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.accounts.Put(&Account{ID: "buyer", Name: "Alice", Balance: "100"})
	env.accounts.Put(&Account{ID: "creator", Name: "Bob", Balance: "0"})
	env.catalog.Put(&Artwork{ID: "art", CreatorID: "creator", Title: "Sunset", Price: "80"})
	env.addToCart(t, "buyer", "art")

	var wg sync.WaitGroup
	results := make([]*SettlementResult, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.service.SettleCart(ctx, "buyer")
		}(i)
	}
	wg.Wait()

	debits := 0
	for i := range results {
		if errs[i] == nil && results[i].Total.Equal(decimal.NewFromInt(80)) {
			debits++
		}
	}
	assert.Equal(t, 1, debits, "exactly one settlement may charge the cart")
	assert.True(t, env.balance(t, "buyer").Equal(decimal.NewFromInt(20)),
		"buyer must be debited exactly once, got %s", env.balance(t, "buyer"))
	assert.True(t, env.balance(t, "creator").Equal(decimal.NewFromInt(72)))
	assert.True(t, env.balance(t, testPlatformID).Equal(decimal.NewFromInt(8)))
}

func TestDeposit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.accounts.Put(&Account{ID: "user", Name: "Alice", Balance: "100"})

	require.NoError(t, env.service.Deposit(ctx, "user", decimal.NewFromInt(50)))
	assert.True(t, env.balance(t, "user").Equal(decimal.NewFromInt(150)))

	entries, err := env.ledger.FindByAccount(ctx, "user")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, KindDeposit, entries[0].Kind)
	assert.Contains(t, entries[0].Description, "Alice deposited")

	published := env.publisher.Events()
	require.Len(t, published, 1)
	assert.Equal(t, events.TopicDepositCompleted, published[0].Topic)
}

func TestDeposit_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.accounts.Put(&Account{ID: "user", Name: "Alice", Balance: "100"})
	env.accounts.Put(&Account{ID: "broken", Name: "Eve", Balance: "garbage"})

	assert.ErrorIs(t, env.service.Deposit(ctx, "user", decimal.Zero), ErrInvalidAmount)
	assert.ErrorIs(t, env.service.Deposit(ctx, "user", decimal.NewFromInt(-5)), ErrInvalidAmount)
	assert.ErrorIs(t, env.service.Deposit(ctx, "ghost", decimal.NewFromInt(5)), ErrAccountNotFound)
	assert.ErrorIs(t, env.service.Deposit(ctx, "broken", decimal.NewFromInt(5)), ErrInvalidBalance)

	assert.True(t, env.balance(t, "user").Equal(decimal.NewFromInt(100)))
	assert.Empty(t, env.ledger.All())
}

func TestAddToCart_Guards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.accounts.Put(&Account{ID: "buyer", Name: "Alice", Balance: "100"})
	env.catalog.Put(&Artwork{ID: "art", CreatorID: "creator", Title: "Sunset", Price: "30"})

	require.NoError(t, env.service.AddToCart(ctx, "buyer", "art"))
	assert.ErrorIs(t, env.service.AddToCart(ctx, "buyer", "art"), ErrAlreadyInCart)
	assert.ErrorIs(t, env.service.AddToCart(ctx, "buyer", "ghost"), ErrArtworkNotFound)

	require.NoError(t, env.purchases.Create(ctx, PurchaseRecord{
		ID: "rec1", BuyerID: "buyer", ArtworkID: "bought",
	}))
	env.catalog.Put(&Artwork{ID: "bought", CreatorID: "creator", Title: "Old", Price: "10"})
	assert.ErrorIs(t, env.service.AddToCart(ctx, "buyer", "bought"), ErrAlreadyBought)
}

func TestCartContents_SkipsDeletedArtwork(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.accounts.Put(&Account{ID: "buyer", Name: "Alice", Balance: "100"})
	env.catalog.Put(&Artwork{ID: "artA", CreatorID: "creator", Title: "Sunset", Price: "30"})
	env.catalog.Put(&Artwork{ID: "artB", CreatorID: "creator", Title: "Vanished", Price: "20"})
	env.addToCart(t, "buyer", "artA")
	env.addToCart(t, "buyer", "artB")
	env.catalog.Remove("artB")

	items, err := env.service.CartContents(ctx, "buyer")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "artA", items[0].ArtworkID)
	assert.Equal(t, "Sunset", items[0].Artwork.Title)
}

func TestHistories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.accounts.Put(&Account{ID: "buyer", Name: "Alice", Balance: "100"})
	env.accounts.Put(&Account{ID: "creator", Name: "Bob", Balance: "0"})
	env.catalog.Put(&Artwork{ID: "art", CreatorID: "creator", Title: "Sunset", Price: "30"})
	env.addToCart(t, "buyer", "art")

	_, err := env.service.SettleCart(ctx, "buyer")
	require.NoError(t, err)
	require.NoError(t, env.service.Deposit(ctx, "buyer", decimal.NewFromInt(10)))

	payments, err := env.service.PaymentHistory(ctx, "buyer")
	require.NoError(t, err)
	assert.Len(t, payments, 2, "one checkout and one deposit entry")

	orders, err := env.service.CreatorOrderHistory(ctx, "creator")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, KindCreatorProfit, orders[0].Kind)
	assert.Equal(t, "buyer", orders[0].FromID)

	profits, err := env.service.AdminProfitHistory(ctx, testPlatformID)
	require.NoError(t, err)
	require.Len(t, profits, 1)
	assert.Equal(t, KindAdminProfit, profits[0].Kind)
}
