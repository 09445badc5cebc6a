package installer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// txn tracks one hook invocation. The compensating action for the delegate
// step is registered right after that step succeeds and runs only if the
// registry step fails.
type txn struct {
	hook       string
	result     *Result
	logger     *slog.Logger
	compensate func(context.Context) error
}

func newTxn(hook, pkg string, logger *slog.Logger) *txn {
	return &txn{
		hook:   hook,
		result: &Result{Package: pkg, State: Idle},
		logger: logger.With("hook", hook, "package", pkg),
	}
}

func (t *txn) transition(s State) {
	t.logger.Debug("state change", "from", t.result.State, "to", s)
	t.result.State = s
}

// onRollback registers the action that reverses the delegate step.
func (t *txn) onRollback(fn func(context.Context) error) {
	t.compensate = fn
}

func (t *txn) warn(warnings []string) {
	for _, w := range warnings {
		t.logger.Warn(w)
	}
	t.result.Warnings = append(t.result.Warnings, warnings...)
}

// fail ends the hook without compensation.
func (t *txn) fail(err error) (*Result, error) {
	t.transition(Failed)
	return t.result, fmt.Errorf("%s %s: %w", t.hook, t.result.Package, err)
}

// rollback runs the compensating action and ends the hook. The action runs
// even when ctx has been cancelled. A compensation failure is joined onto
// cause and leaves the hook Failed.
func (t *txn) rollback(ctx context.Context, cause error) (*Result, error) {
	t.logger.Error("rolling back", "error", cause)

	if t.compensate != nil {
		if cerr := t.compensate(context.WithoutCancel(ctx)); cerr != nil {
			t.logger.Error("rollback failed", "error", cerr)
			return t.fail(errors.Join(cause, fmt.Errorf("rollback: %w", cerr)))
		}
	}

	t.transition(RolledBack)
	return t.result, fmt.Errorf("%s %s: %w", t.hook, t.result.Package, cause)
}

func (t *txn) commit() (*Result, error) {
	t.transition(Committed)
	t.logger.Info("registry updated")
	return t.result, nil
}
