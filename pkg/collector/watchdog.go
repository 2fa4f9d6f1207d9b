package collector

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartStallWatchdog periodically samples the collector and warns when no
// bases were processed between two ticks while contigs are still
// accumulating. It blocks until ctx is cancelled; run it in its own
// goroutine.
func StartStallWatchdog(ctx context.Context, log *zap.SugaredLogger, c *Collector, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	last := c.Snapshot()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			cur := c.Snapshot()
			log.Debugw("collector progress",
				"basesProcessed", cur.BasesProcessed,
				"contigsAccumulating", cur.ContigsAccumulated,
				"contigsFlushed", cur.ContigsFlushed)
			if cur.BasesProcessed == last.BasesProcessed && cur.ContigsAccumulated > 0 {
				log.Warnw("no collector progress since last check",
					"interval", interval,
					"basesProcessed", cur.BasesProcessed,
					"contigsAccumulating", cur.ContigsAccumulated,
					"contigsFlushed", cur.ContigsFlushed)
			}
			last = cur
		}
	}
}
