// Package consensus defines the per-window consensus chunk model, the
// chunk-joining used by the result collector, and the no-evidence
// placeholder policies for coverage gaps. The statistical consensus
// algorithm itself is consumed through the Caller interface; the built-in
// implementation is a plurality (column-majority) caller.
package consensus

import (
	"errors"
	"fmt"
	"sort"

	"github.com/genomelab/polisher/pkg/reads"
	"github.com/genomelab/polisher/pkg/windows"
)

// Chunk is the consensus over one window: a sequence and a per-base
// confidence score of the same length.
type Chunk struct {
	Win        windows.Window
	Sequence   string
	Confidence []uint8
}

// Join concatenates chunks in ascending window-start order into one chunk
// spanning from the first window's start to the last window's end. The
// input order does not matter; the caller guarantees the chunks do not
// overlap. Join does not mutate its input.
func Join(chunks []Chunk) Chunk {
	if len(chunks) == 0 {
		return Chunk{}
	}
	sorted := append([]Chunk(nil), chunks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Win.Start < sorted[j].Win.Start
	})

	var seq []byte
	var conf []uint8
	for _, c := range sorted {
		seq = append(seq, c.Sequence...)
		conf = append(conf, c.Confidence...)
	}
	return Chunk{
		Win: windows.Window{
			Ref:   sorted[0].Win.Ref,
			Start: sorted[0].Win.Start,
			End:   sorted[len(sorted)-1].Win.End,
		},
		Sequence:   string(seq),
		Confidence: conf,
	}
}

// No-evidence consensus policies for coverage gaps.
const (
	PolicyNoCall    = "nocall"    // a run of 'N'
	PolicyReference = "reference" // copy the reference span
)

var ErrUnknownPolicy = errors.New("unknown no-evidence consensus policy")

// NoEvidence synthesizes a placeholder consensus for a window with
// inadequate coverage, with zero confidence everywhere.
func NoEvidence(policy string, win windows.Window, refSeq []byte) (Chunk, error) {
	var seq []byte
	switch policy {
	case PolicyNoCall:
		seq = make([]byte, len(refSeq))
		for i := range seq {
			seq[i] = 'N'
		}
	case PolicyReference:
		seq = append([]byte(nil), refSeq...)
	default:
		return Chunk{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}
	return Chunk{
		Win:        win,
		Sequence:   string(seq),
		Confidence: make([]uint8, len(seq)),
	}, nil
}

// Caller computes a consensus over one window from reads clipped to it.
// Implementations must be safe for concurrent use by multiple workers.
type Caller interface {
	Consensus(win windows.Window, refSeq []byte, alns []reads.Aligned) (Chunk, error)
}
