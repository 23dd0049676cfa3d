package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ledgerTimeLayout renders stamps as dd/MM/yyyy - HHhmm, the format the audit
// trail has always used.
const ledgerTimeLayout = "02/01/2006 - 15h04"

// ledgerRecorder appends immutable history entries for every balance movement.
// Append failures never fail the enclosing money operation: the balance write
// has already happened, so the failure is logged with the correlation id and
// the operation continues.
type ledgerRecorder struct {
	store  LedgerStore
	logger *zap.Logger
	now    func() time.Time
}

func newLedgerRecorder(store LedgerStore, logger *zap.Logger) *ledgerRecorder {
	return &ledgerRecorder{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func (r *ledgerRecorder) append(ctx context.Context, fromID, toID, description string, kind LedgerKind) {
	entry := LedgerEntry{
		ID:          uuid.NewString(),
		FromID:      fromID,
		ToID:        toID,
		Description: description,
		DateTime:    r.now().Format(ledgerTimeLayout),
		Kind:        kind,
	}
	if err := r.store.Append(ctx, entry); err != nil {
		r.logger.Error("failed to append ledger entry",
			zap.String("entry_id", entry.ID),
			zap.String("kind", string(kind)),
			zap.String("from", fromID),
			zap.String("to", toID),
			zap.Error(err),
		)
	}
}
