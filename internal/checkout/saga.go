package checkout

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// sagaStep is one forward action of a settlement paired with its compensating
// action. compensate may be nil for steps that need no undo.
type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// runSaga executes steps in order. On the first failure it runs the
// compensations of every completed step in reverse and returns the step's
// error, leaving no net effect. If a compensation itself fails the saga stops
// compensating and returns ErrPartialSettlement instead, so the caller knows
// balances need manual reconciliation against the ledger.
func runSaga(ctx context.Context, logger *zap.Logger, steps []sagaStep) error {
	var done []sagaStep
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			logger.Error("settlement step failed, compensating",
				zap.String("step", step.name),
				zap.Error(err),
			)
			for i := len(done) - 1; i >= 0; i-- {
				prev := done[i]
				if prev.compensate == nil {
					continue
				}
				if cerr := prev.compensate(ctx); cerr != nil {
					logger.Error("compensation failed",
						zap.String("step", prev.name),
						zap.Error(cerr),
					)
					return fmt.Errorf("%w: step %q failed (%v) and step %q could not be compensated: %v",
						ErrPartialSettlement, step.name, err, prev.name, cerr)
				}
			}
			return err
		}
		done = append(done, step)
	}
	return nil
}
