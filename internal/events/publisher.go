package events

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Topics carrying settlement events.
const (
	TopicSettlementCompleted = "settlement_completed"
	TopicDepositCompleted    = "deposit_completed"
)

// SettlementCompleted is published after a cart settles successfully.
type SettlementCompleted struct {
	SettlementID string          `json:"settlement_id"`
	BuyerID      string          `json:"buyer_id"`
	Total        decimal.Decimal `json:"total"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// DepositCompleted is published after a successful account deposit.
type DepositCompleted struct {
	AccountID  string          `json:"account_id"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Publisher emits domain events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, topic string, event any) error { return nil }

// Published is one event captured by a MemoryPublisher.
type Published struct {
	Topic string
	Event any
}

// MemoryPublisher records events in memory for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Published
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(ctx context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Published{Topic: topic, Event: event})
	return nil
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Published, len(p.events))
	copy(out, p.events)
	return out
}

var _ Publisher = NopPublisher{}
var _ Publisher = (*MemoryPublisher)(nil)
