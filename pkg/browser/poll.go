package browser

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// PollInterval is the pause between condition checks in Poll.
const PollInterval = 100 * time.Millisecond

// Poll evaluates cond until it reports true, the timeout elapses or ctx is done.
// Errors returned by cond are treated as "not yet" and surface only on timeout.
func Poll(ctx context.Context, timeout time.Duration, cond func(ctx context.Context) (bool, error)) error {
	timeout = TimeoutOr(timeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		ok, err := cond(ctx)
		if err == nil && ok {
			return nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return ctx.Err()
			}
			if lastErr != nil {
				return errors.Wrapf(lastErr, "timed out after %s", timeout)
			}
			return errors.Errorf("timed out after %s", timeout)
		case <-ticker.C:
		}
	}
}
