// Package collector drains the worker result channel, accumulates chunks
// per contig, and flushes each contig to the output writers exactly once,
// as soon as its last window has arrived. Results may arrive in any order;
// completion is detected by counting processed bases against the plan.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/genomelab/polisher/pkg/consensus"
	"github.com/genomelab/polisher/pkg/engine"
	"github.com/genomelab/polisher/pkg/metrics"
	"github.com/genomelab/polisher/pkg/variant"
	"github.com/genomelab/polisher/pkg/windows"
	"github.com/genomelab/polisher/pkg/worker"
)

// SequenceWriter receives flushed consensus records.
type SequenceWriter interface {
	WriteRecord(name, sequence string, confidence []uint8) error
	Close() error
}

// VariantWriter receives the sorted variants of a flushed contig.
type VariantWriter interface {
	WriteVariants(vs []variant.Variant) error
	Close() error
}

var (
	ErrInvalidLogger     = errors.New("invalid logger: must not be nil")
	ErrInvalidPlan       = errors.New("invalid plan: must not be nil")
	ErrInvalidNumWorkers = errors.New("invalid number of workers: must be greater than 0")
	ErrNoWriters         = errors.New("invalid writers: at least one output writer is required")
)

// contigAccumulator holds the in-flight state of one contig.
type contigAccumulator struct {
	basesProcessed int
	chunks         []consensus.Chunk
	variants       []variant.Variant
}

// Collector is safe for use by a single Run goroutine; Progress may be
// called concurrently.
type Collector struct {
	log        *zap.SugaredLogger
	plan       *windows.Plan
	seqWriters []SequenceWriter
	varWriters []VariantWriter
	numWorkers int
	m          *metrics.Metrics

	// NameDecoration is appended to every flushed record name.
	decoration string

	mu      sync.Mutex
	accums  map[string]*contigAccumulator
	flushed map[string]bool
	bases   int

	closeOnce sync.Once
	closeErr  error
}

// Option tweaks collector construction.
type Option func(*Collector)

// WithNameDecoration appends suffix to every flushed record name.
func WithNameDecoration(suffix string) Option {
	return func(c *Collector) { c.decoration = suffix }
}

// WithMetrics wires run metrics; a nil Metrics is a no-op.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Collector) { c.m = m }
}

// New validates the arguments and builds a Collector. numWorkers must match
// the pool size: Run terminates only after seeing that many sentinels.
func New(log *zap.SugaredLogger, plan *windows.Plan, numWorkers int,
	seqWriters []SequenceWriter, varWriters []VariantWriter, opts ...Option) (*Collector, error) {
	if log == nil {
		return nil, ErrInvalidLogger
	}
	if plan == nil {
		return nil, ErrInvalidPlan
	}
	if numWorkers <= 0 {
		return nil, ErrInvalidNumWorkers
	}
	if len(seqWriters)+len(varWriters) == 0 {
		return nil, ErrNoWriters
	}
	c := &Collector{
		log:        log,
		plan:       plan,
		seqWriters: seqWriters,
		varWriters: varWriters,
		numWorkers: numWorkers,
		accums:     make(map[string]*contigAccumulator),
		flushed:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run consumes results until every worker has posted its sentinel, then
// verifies that all planned contigs were flushed. Failed windows are logged
// and skipped; their contigs end the run incomplete.
func (c *Collector) Run(ctx context.Context, results <-chan worker.Result) error {
	sentinels := 0
	for sentinels < c.numWorkers {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok := <-results:
			if !ok {
				return fmt.Errorf("results channel closed after %d of %d sentinels", sentinels, c.numWorkers)
			}
			if res.Sentinel {
				sentinels++
				c.log.Debugw("worker sentinel received", "sentinels", sentinels, "expected", c.numWorkers)
				continue
			}
			c.m.RecordWindow(res.Err, res.Duration.Seconds(), res.Summary.PlaceholderIntervals)
			if res.Err != nil {
				c.log.Warnw("skipping failed window", "window", res.Win.String(), "error", res.Err)
				continue
			}
			if err := c.onChunk(res.Summary); err != nil {
				return err
			}
		}
	}
	return c.finish()
}

func (c *Collector) onChunk(s engine.Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := s.Win.Ref
	if c.flushed[name] {
		// A duplicate or late result for a contig already written out.
		c.log.Warnw("discarding chunk for flushed contig", "window", s.Win.String())
		return nil
	}
	required, ok := c.plan.RequiredBases[name]
	if !ok {
		c.log.Warnw("discarding chunk for unplanned contig", "window", s.Win.String())
		return nil
	}

	acc := c.accums[name]
	if acc == nil {
		acc = &contigAccumulator{}
		c.accums[name] = acc
	}
	acc.chunks = append(acc.chunks, consensus.Chunk{
		Win:        s.Win,
		Sequence:   s.Sequence,
		Confidence: s.Confidence,
	})
	acc.variants = append(acc.variants, s.Variants...)
	acc.basesProcessed += s.Win.Len()
	c.bases += s.Win.Len()
	c.m.RecordChunk(s.Win.Len(), len(c.accums))

	switch {
	case acc.basesProcessed == required:
		return c.flush(name, acc)
	case acc.basesProcessed > required:
		return fmt.Errorf("contig %s overran its plan: %d bases processed, %d required",
			name, acc.basesProcessed, required)
	}
	return nil
}

// flush writes one completed contig. Called with c.mu held.
func (c *Collector) flush(name string, acc *contigAccumulator) error {
	variant.Sort(acc.variants)
	for _, w := range c.varWriters {
		if err := w.WriteVariants(acc.variants); err != nil {
			return fmt.Errorf("failed writing variants for %s: %w", name, err)
		}
	}
	for _, span := range c.plan.Spans[name] {
		joined := consensus.Join(c.chunksInSpan(acc.chunks, span))
		record := c.recordName(span) + c.decoration
		for _, w := range c.seqWriters {
			if err := w.WriteRecord(record, joined.Sequence, joined.Confidence); err != nil {
				return fmt.Errorf("failed writing record %s: %w", record, err)
			}
		}
	}

	delete(c.accums, name)
	c.flushed[name] = true
	c.m.RecordFlush(len(acc.variants), len(c.accums))
	c.log.Debugw("flushed contig",
		"contig", name,
		"bases", acc.basesProcessed,
		"variants", len(acc.variants),
		"accumulating", len(c.accums))
	return nil
}

func (c *Collector) chunksInSpan(chunks []consensus.Chunk, span windows.Window) []consensus.Chunk {
	out := make([]consensus.Chunk, 0, len(chunks))
	for _, ch := range chunks {
		if ch.Win.Start >= span.Start && ch.Win.Start < span.End {
			out = append(out, ch)
		}
	}
	return out
}

// recordName names a flushed span: the bare contig name when the span
// covers the whole contig, contig_start_end otherwise.
func (c *Collector) recordName(span windows.Window) string {
	if span.Start == 0 {
		for _, ci := range c.plan.Contigs {
			if ci.Name == span.Ref && ci.Length == span.End {
				return span.Ref
			}
		}
	}
	return fmt.Sprintf("%s_%d_%d", span.Ref, span.Start, span.End)
}

// finish reports contigs the run left incomplete.
func (c *Collector) finish() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.accums) == 0 {
		return nil
	}
	parts := make([]string, 0, len(c.accums))
	for name, acc := range c.accums {
		parts = append(parts, fmt.Sprintf("%s (%d of %d bases)", name, acc.basesProcessed, c.plan.RequiredBases[name]))
	}
	sort.Strings(parts)
	return fmt.Errorf("run ended with incomplete contigs: %s", strings.Join(parts, ", "))
}

// Progress is a point-in-time snapshot for the stall watchdog.
type Progress struct {
	BasesProcessed     int
	ContigsAccumulated int
	ContigsFlushed     int
}

// Snapshot returns current progress; safe to call concurrently with Run.
func (c *Collector) Snapshot() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Progress{
		BasesProcessed:     c.bases,
		ContigsAccumulated: len(c.accums),
		ContigsFlushed:     len(c.flushed),
	}
}

// Close closes all writers exactly once, joining their errors.
func (c *Collector) Close() error {
	c.closeOnce.Do(func() {
		var errs []error
		for _, w := range c.seqWriters {
			errs = append(errs, w.Close())
		}
		for _, w := range c.varWriters {
			errs = append(errs, w.Close())
		}
		c.closeErr = errors.Join(errs...)
	})
	return c.closeErr
}
