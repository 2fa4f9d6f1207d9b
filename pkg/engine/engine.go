// Package engine implements the per-window consensus computation: window
// enlargement, coverage-driven interval partitioning, per-interval
// consensus or placeholder synthesis, variant calling, and re-clipping to
// the requested bounds.
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/genomelab/polisher/pkg/align"
	"github.com/genomelab/polisher/pkg/consensus"
	"github.com/genomelab/polisher/pkg/reads"
	"github.com/genomelab/polisher/pkg/reference"
	"github.com/genomelab/polisher/pkg/variant"
	"github.com/genomelab/polisher/pkg/windows"
)

// ReadSource supplies alignments overlapping a window. reads.Store is the
// file-backed implementation; tests provide stubs.
type ReadSource interface {
	InWindow(w windows.Window, minMapQV int) []reads.Aligned
	InWindowCapped(w windows.Window, minMapQV, depthLimit int) []reads.Aligned
}

// Summary is the wire type pushed from workers to the collector: the
// consensus over one requested window plus its variants.
type Summary struct {
	Win        windows.Window
	Sequence   string
	Confidence []uint8
	Variants   []variant.Variant
	// PlaceholderIntervals counts coverage gaps that got a no-evidence
	// consensus inside the enlarged window.
	PlaceholderIntervals int
}

var (
	ErrInvalidLogger   = errors.New("invalid logger: must not be nil")
	ErrInvalidRegistry = errors.New("invalid reference registry: must not be nil")
	ErrInvalidSource   = errors.New("invalid read source: must not be nil")
	ErrInvalidCaller   = errors.New("invalid consensus caller: must not be nil")
)

// Engine computes the consensus for single windows. It holds only
// read-only state and is safe for concurrent use by all workers.
type Engine struct {
	log    *zap.SugaredLogger
	reg    *reference.Registry
	source ReadSource
	caller consensus.Caller
	cfg    Config
}

// New validates the collaborators and builds an Engine.
func New(
	log *zap.SugaredLogger,
	reg *reference.Registry,
	source ReadSource,
	caller consensus.Caller,
	cfg Config,
) (*Engine, error) {
	if log == nil {
		return nil, ErrInvalidLogger
	}
	if reg == nil {
		return nil, ErrInvalidRegistry
	}
	if source == nil {
		return nil, ErrInvalidSource
	}
	if caller == nil {
		return nil, ErrInvalidCaller
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{log: log, reg: reg, source: source, caller: caller, cfg: cfg}, nil
}

// ProcessWindow computes the consensus and variants for one requested
// window. The window is enlarged by the configured overlap (clamped to the
// contig), processed, then mapped back to the requested bounds through a
// reference-to-consensus alignment. Consensus quality near window edges is
// unreliable without surrounding context; enlarging and re-clipping moves
// the boundary artifacts outside the reported region.
func (e *Engine) ProcessWindow(ctx context.Context, win windows.Window) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	contig, ok := e.reg.Get(win.Ref)
	if !ok {
		return Summary{}, fmt.Errorf("unknown contig %q", win.Ref)
	}
	if !win.Valid() || win.End > contig.Length {
		return Summary{}, fmt.Errorf("invalid window %s for contig of length %d", win, contig.Length)
	}

	eWin := win.Enlarge(e.cfg.WindowOverlap, contig.Length)
	eRef := contig.Window(eWin.Start, eWin.End)
	e.log.Debugw("processing window", "window", win.String(), "enlarged", eWin.String())

	css, siteCoverage, placeholders, err := e.consensusForWindow(eWin, eRef)
	if err != nil {
		return Summary{}, fmt.Errorf("consensus failed for window %s: %w", eWin, err)
	}

	var prev byte
	if eWin.Start > 0 {
		prev = contig.Sequence[eWin.Start-1]
	}
	allVariants := variant.Call(eWin, string(eRef), css.Sequence, css.Confidence, siteCoverage, prev)

	// Map the requested bounds onto the consensus and clip.
	ga := align.Global(string(eRef), css.Sequence)
	tp := align.TargetToQueryPositions(ga)
	cssStart := tp[win.Start-eWin.Start]
	cssEnd := tp[win.End-eWin.Start]

	variants := allVariants[:0:0]
	for _, v := range allVariants {
		if v.RefStart >= win.Start && v.RefStart < win.End {
			variants = append(variants, v)
		}
	}

	return Summary{
		Win:                  win,
		Sequence:             css.Sequence[cssStart:cssEnd],
		Confidence:           css.Confidence[cssStart:cssEnd],
		Variants:             variants,
		PlaceholderIntervals: placeholders,
	}, nil
}

// consensusForWindow partitions the window by coverage and concatenates
// per-interval consensi: a real call where enough reads span the interval,
// a no-evidence placeholder in the gaps.
func (e *Engine) consensusForWindow(win windows.Window, refSeq []byte) (consensus.Chunk, []int, int, error) {
	all := e.source.InWindow(win, e.cfg.MinMapQV)
	starts := make([]int, len(all))
	ends := make([]int, len(all))
	for i, a := range all {
		starts[i], ends[i] = a.TStart, a.TEnd
	}
	partition := windows.CoveragePartition(win, e.cfg.MinCoverage, e.cfg.MinIntervalLength, starts, ends)
	if len(partition) > 1 {
		e.log.Debugw("window split by coverage", "window", win.String(), "intervals", len(partition))
	}

	siteCoverage := make([]int, win.Len())
	placeholders := 0
	chunks := make([]consensus.Chunk, 0, len(partition))
	for _, iv := range partition {
		subWin := windows.Window{Ref: win.Ref, Start: iv.Start, End: iv.End}
		subRef := refSeq[iv.Start-win.Start : iv.End-win.Start]

		rows := e.source.InWindowCapped(subWin, e.cfg.MinMapQV, e.cfg.MaxCoverageDepth)
		clipped := make([]reads.Aligned, 0, len(rows))
		for _, r := range rows {
			c := r.ClipTo(iv.Start, iv.End)
			if c.ReferenceSpan() == 0 {
				continue
			}
			clipped = append(clipped, c)
			for p := c.TStart; p < c.TEnd; p++ {
				siteCoverage[p-win.Start]++
			}
		}
		clipped = reads.FilterStumpy(clipped, e.cfg.ReadStumpinessThreshold)

		spanning := 0
		for _, c := range clipped {
			if c.Spans(iv.Start, iv.End) {
				spanning++
			}
		}

		var chunk consensus.Chunk
		var err error
		if iv.Adequate && spanning >= e.cfg.MinCoverage {
			chunk, err = e.caller.Consensus(subWin, subRef, clipped)
		} else {
			chunk, err = consensus.NoEvidence(e.cfg.NoEvidencePolicy, subWin, subRef)
			placeholders++
		}
		if err != nil {
			return consensus.Chunk{}, nil, 0, err
		}
		if len(chunk.Sequence) != len(chunk.Confidence) {
			return consensus.Chunk{}, nil, 0, fmt.Errorf(
				"caller returned mismatched sequence/confidence lengths for %s: %d != %d",
				subWin, len(chunk.Sequence), len(chunk.Confidence))
		}
		chunks = append(chunks, chunk)
	}

	return consensus.Join(chunks), siteCoverage, placeholders, nil
}
