package seed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/xptrack/internal/domain/delta"
	"github.com/okian/xptrack/internal/domain/tracker"
	"github.com/okian/xptrack/pkg/logger"
)

// verify checks every account's tracker view against a local delta.Compute.
// Accounts whose snapshots are not all stored yet are polled until settle
// runs out.
func (c *client) verify(ctx context.Context, cfg *Config, histories []History, stats *Stats) error {
	log := logger.Get().Named("seed")
	deadline := time.Now().Add(cfg.Settle)

	for _, h := range histories {
		if len(h.Snapshots) == 0 {
			continue
		}
		want := delta.Compute(h.Snapshots)
		start, end := h.Snapshots[0].Date, h.Snapshots[len(h.Snapshots)-1].Date

		for {
			view, status, err := c.track(ctx, h.Account, start, end)
			if err != nil {
				return fmt.Errorf("track %s: %w", h.Account, err)
			}
			if status == http.StatusOK && view.Snapshots == len(h.Snapshots) {
				if diff := compare(view, want); diff != "" {
					stats.Mismatched.Add(1)
					log.Warn(ctx, "tracker mismatch", logger.String("account", h.Account), logger.String("diff", diff))
				} else {
					stats.Verified.Add(1)
				}
				break
			}
			if status != http.StatusOK && status != http.StatusNotFound {
				return fmt.Errorf("track %s: unexpected status %d", h.Account, status)
			}
			if time.Now().After(deadline) {
				stats.Mismatched.Add(1)
				log.Warn(ctx, "account not fully stored", logger.String("account", h.Account),
					logger.Int("stored", view.Snapshots), logger.Int("want", len(h.Snapshots)))
				break
			}
			select {
			case <-time.After(pollInterval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if n := stats.Mismatched.Load(); n > 0 {
		return fmt.Errorf("%d of %d accounts did not verify", n, len(histories))
	}
	return nil
}

// compare returns a description of the first difference, or "".
func compare(view tracker.View, want delta.Result) string {
	if len(view.Deltas) != len(want.Deltas) {
		return fmt.Sprintf("got %d categories, want %d", len(view.Deltas), len(want.Deltas))
	}
	for i, w := range want.Deltas {
		g := view.Deltas[i]
		if g != w {
			return fmt.Sprintf("%s: got rank %d xp %d, want rank %d xp %d",
				w.Category, g.RankDelta, g.XPDelta, w.RankDelta, w.XPDelta)
		}
	}
	if len(view.Items) != len(want.Deltas) {
		return fmt.Sprintf("got %d list items, want %d", len(view.Items), len(want.Deltas))
	}
	return ""
}
