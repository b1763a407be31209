package robot

import (
	"context"
	"time"

	"k8s.io/utils/clock"
)

// Sleep waits d on clk, returning early with ctx.Err() if ctx is done.
func Sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := clk.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}
