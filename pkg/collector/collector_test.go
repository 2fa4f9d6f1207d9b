package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/genomelab/polisher/pkg/engine"
	"github.com/genomelab/polisher/pkg/variant"
	"github.com/genomelab/polisher/pkg/windows"
	"github.com/genomelab/polisher/pkg/worker"
)

type seqRecord struct {
	name string
	seq  string
	conf []uint8
}

type seqStub struct {
	records []seqRecord
	closed  int
}

func (s *seqStub) WriteRecord(name, sequence string, confidence []uint8) error {
	s.records = append(s.records, seqRecord{name: name, seq: sequence, conf: confidence})
	return nil
}

func (s *seqStub) Close() error {
	s.closed++
	return nil
}

type varStub struct {
	calls  [][]variant.Variant
	closed int
}

func (s *varStub) WriteVariants(vs []variant.Variant) error {
	s.calls = append(s.calls, append([]variant.Variant(nil), vs...))
	return nil
}

func (s *varStub) Close() error {
	s.closed++
	return nil
}

func testPlan(t *testing.T, contigs []windows.ContigInfo, restrictions []windows.Window, windowSize int) *windows.Plan {
	t.Helper()
	p, err := windows.NewPlan(contigs, restrictions, windowSize)
	require.NoError(t, err)
	return p
}

func summaryResult(win windows.Window, seq string, vs ...variant.Variant) worker.Result {
	conf := make([]uint8, len(seq))
	for i := range conf {
		conf[i] = 40
	}
	return worker.Result{
		Win: win,
		Summary: engine.Summary{
			Win:        win,
			Sequence:   seq,
			Confidence: conf,
			Variants:   vs,
		},
	}
}

// feed pushes results followed by n sentinels onto a buffered channel.
func feed(n int, results ...worker.Result) chan worker.Result {
	ch := make(chan worker.Result, len(results)+n)
	for _, r := range results {
		ch <- r
	}
	for i := 0; i < n; i++ {
		ch <- worker.Result{Sentinel: true}
	}
	return ch
}

func TestNewValidatesArguments(t *testing.T) {
	t.Parallel()

	log := zap.NewNop().Sugar()
	plan := testPlan(t, []windows.ContigInfo{{Name: "ctg", Length: 10}}, nil, 5)
	seq := []SequenceWriter{&seqStub{}}

	_, err := New(nil, plan, 1, seq, nil)
	require.ErrorIs(t, err, ErrInvalidLogger)

	_, err = New(log, nil, 1, seq, nil)
	require.ErrorIs(t, err, ErrInvalidPlan)

	_, err = New(log, plan, 0, seq, nil)
	require.ErrorIs(t, err, ErrInvalidNumWorkers)

	_, err = New(log, plan, 1, nil, nil)
	require.ErrorIs(t, err, ErrNoWriters)
}

func TestFlushesContigOnceWithOutOfOrderChunks(t *testing.T) {
	t.Parallel()

	plan := testPlan(t, []windows.ContigInfo{{Name: "ctg", Length: 10}}, nil, 5)
	seq := &seqStub{}
	vars := &varStub{}
	c, err := New(zap.NewNop().Sugar(), plan, 2,
		[]SequenceWriter{seq}, []VariantWriter{vars}, WithNameDecoration("|polished"))
	require.NoError(t, err)

	v1 := variant.Variant{RefName: "ctg", RefStart: 7, RefSeq: "T", ReadSeq1: "G", Confidence: 40, Coverage: 5}
	v2 := variant.Variant{RefName: "ctg", RefStart: 2, RefSeq: "A", ReadSeq1: "C", Confidence: 40, Coverage: 5}

	// Second half of the contig arrives first.
	results := feed(2,
		summaryResult(windows.Window{Ref: "ctg", Start: 5, End: 10}, "TTTTT", v1),
		summaryResult(windows.Window{Ref: "ctg", Start: 0, End: 5}, "AAAAA", v2),
	)
	require.NoError(t, c.Run(context.Background(), results))

	// One record, whole-contig name, chunks joined in genomic order.
	require.Len(t, seq.records, 1)
	require.Equal(t, "ctg|polished", seq.records[0].name)
	require.Equal(t, "AAAAATTTTT", seq.records[0].seq)
	require.Len(t, seq.records[0].conf, 10)

	// Variants sorted by position before writing.
	require.Len(t, vars.calls, 1)
	require.Equal(t, []int{2, 7}, []int{vars.calls[0][0].RefStart, vars.calls[0][1].RefStart})

	snap := c.Snapshot()
	require.Equal(t, 10, snap.BasesProcessed)
	require.Equal(t, 0, snap.ContigsAccumulated)
	require.Equal(t, 1, snap.ContigsFlushed)
}

func TestRestrictedSpanNaming(t *testing.T) {
	t.Parallel()

	plan := testPlan(t, []windows.ContigInfo{{Name: "ctg", Length: 1000}},
		[]windows.Window{{Ref: "ctg", Start: 100, End: 200}}, 50)
	seq := &seqStub{}
	c, err := New(zap.NewNop().Sugar(), plan, 1, []SequenceWriter{seq}, nil)
	require.NoError(t, err)

	results := feed(1,
		summaryResult(windows.Window{Ref: "ctg", Start: 100, End: 150}, "AAAAA"),
		summaryResult(windows.Window{Ref: "ctg", Start: 150, End: 200}, "TTTTT"),
	)
	require.NoError(t, c.Run(context.Background(), results))

	require.Len(t, seq.records, 1)
	require.Equal(t, "ctg_100_200", seq.records[0].name)
	require.Equal(t, "AAAAATTTTT", seq.records[0].seq)
}

func TestLateChunkAfterFlushIsDiscarded(t *testing.T) {
	t.Parallel()

	plan := testPlan(t, []windows.ContigInfo{{Name: "ctg", Length: 10}}, nil, 5)
	seq := &seqStub{}
	c, err := New(zap.NewNop().Sugar(), plan, 1, []SequenceWriter{seq}, nil)
	require.NoError(t, err)

	results := feed(1,
		summaryResult(windows.Window{Ref: "ctg", Start: 0, End: 5}, "AAAAA"),
		summaryResult(windows.Window{Ref: "ctg", Start: 5, End: 10}, "TTTTT"),
		// Duplicate arriving after the flush.
		summaryResult(windows.Window{Ref: "ctg", Start: 5, End: 10}, "TTTTT"),
	)
	require.NoError(t, c.Run(context.Background(), results))
	require.Len(t, seq.records, 1)
}

func TestOverrunningContigFails(t *testing.T) {
	t.Parallel()

	plan := testPlan(t, []windows.ContigInfo{{Name: "ctg", Length: 10}}, nil, 10)
	c, err := New(zap.NewNop().Sugar(), plan, 1, []SequenceWriter{&seqStub{}}, nil)
	require.NoError(t, err)

	results := feed(1,
		summaryResult(windows.Window{Ref: "ctg", Start: 0, End: 7}, "AAAAAAA"),
		summaryResult(windows.Window{Ref: "ctg", Start: 0, End: 5}, "AAAAA"),
	)
	err = c.Run(context.Background(), results)
	require.Error(t, err)
	require.Contains(t, err.Error(), "overran")
}

func TestFailedWindowLeavesContigIncomplete(t *testing.T) {
	t.Parallel()

	plan := testPlan(t, []windows.ContigInfo{{Name: "ctg", Length: 10}}, nil, 5)
	c, err := New(zap.NewNop().Sugar(), plan, 1, []SequenceWriter{&seqStub{}}, nil)
	require.NoError(t, err)

	results := feed(1,
		summaryResult(windows.Window{Ref: "ctg", Start: 0, End: 5}, "AAAAA"),
		worker.Result{Win: windows.Window{Ref: "ctg", Start: 5, End: 10}, Err: errors.New("boom")},
	)
	err = c.Run(context.Background(), results)
	require.Error(t, err)
	require.Contains(t, err.Error(), "incomplete contigs")
	require.Contains(t, err.Error(), "ctg (5 of 10 bases)")
}

func TestRunWaitsForAllSentinels(t *testing.T) {
	t.Parallel()

	plan := testPlan(t, []windows.ContigInfo{{Name: "ctg", Length: 10}}, nil, 5)
	c, err := New(zap.NewNop().Sugar(), plan, 2, []SequenceWriter{&seqStub{}}, nil)
	require.NoError(t, err)

	// Only one sentinel for a two-worker pool: Run must keep waiting until
	// the context is cancelled.
	results := feed(1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, results) }()

	select {
	case err := <-done:
		t.Fatalf("run terminated early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	plan := testPlan(t, []windows.ContigInfo{{Name: "ctg", Length: 10}}, nil, 5)
	seq := &seqStub{}
	vars := &varStub{}
	c, err := New(zap.NewNop().Sugar(), plan, 1, []SequenceWriter{seq}, []VariantWriter{vars})
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	require.Equal(t, 1, seq.closed)
	require.Equal(t, 1, vars.closed)
}

func TestStallWatchdogStopsOnCancel(t *testing.T) {
	t.Parallel()

	plan := testPlan(t, []windows.ContigInfo{{Name: "ctg", Length: 10}}, nil, 5)
	c, err := New(zap.NewNop().Sugar(), plan, 1, []SequenceWriter{&seqStub{}}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartStallWatchdog(ctx, zap.NewNop().Sugar(), c, time.Millisecond)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watchdog did not stop after cancellation")
	}
}
