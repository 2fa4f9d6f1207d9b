package consensus

import (
	"github.com/genomelab/polisher/pkg/reads"
	"github.com/genomelab/polisher/pkg/windows"
)

// maxConfidence caps per-base scores so they survive the FASTQ quality
// encoding (phred+33 must stay printable).
const maxConfidence = 93

// Plurality is the built-in consensus caller: a column-wise majority vote
// over reads projected onto reference coordinates. A majority deletion
// emits no base. It is the fallback algorithm; statistically stronger
// callers plug in through the Caller interface.
type Plurality struct{}

var _ Caller = Plurality{}

// NewPlurality returns a Plurality caller.
func NewPlurality() Plurality { return Plurality{} }

// Consensus implements Caller.
func (Plurality) Consensus(win windows.Window, refSeq []byte, alns []reads.Aligned) (Chunk, error) {
	seq := make([]byte, 0, win.Len())
	conf := make([]uint8, 0, win.Len())

	for pos := win.Start; pos < win.End; pos++ {
		var counts [5]int // A, C, G, T, deletion
		total := 0
		for _, a := range alns {
			if pos < a.TStart || pos >= a.TEnd {
				continue
			}
			if i := baseIndex(a.Bases[pos-a.TStart]); i >= 0 {
				counts[i]++
				total++
			}
		}

		if total == 0 {
			// Inside an adequate-coverage interval this is unreachable;
			// keep the reference base with zero confidence if it happens.
			seq = append(seq, refSeq[pos-win.Start])
			conf = append(conf, 0)
			continue
		}

		best, runnerUp := 0, 0
		for i := 1; i < len(counts); i++ {
			if counts[i] > counts[best] {
				best = i
			}
		}
		for i := range counts {
			if i != best && counts[i] > runnerUp {
				runnerUp = counts[i]
			}
		}
		if best == 4 {
			// Majority deletion: no base emitted for this column.
			continue
		}
		seq = append(seq, "ACGT"[best])
		conf = append(conf, scoreMargin(counts[best], runnerUp))
	}

	return Chunk{Win: win, Sequence: string(seq), Confidence: conf}, nil
}

// scoreMargin converts a vote margin into a crude phred-like confidence.
func scoreMargin(winner, runnerUp int) uint8 {
	margin := 10 * (winner - runnerUp)
	if margin > maxConfidence {
		margin = maxConfidence
	}
	if margin < 0 {
		margin = 0
	}
	return uint8(margin)
}

func baseIndex(b byte) int {
	switch b {
	case 'A':
		return 0
	case 'C':
		return 1
	case 'G':
		return 2
	case 'T':
		return 3
	case '-':
		return 4
	default:
		return -1 // ambiguity codes do not vote
	}
}
