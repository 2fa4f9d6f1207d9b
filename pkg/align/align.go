// Package align provides global pairwise sequence alignment and the
// target-to-query coordinate mapping the engine uses to clip an
// enlarged-window consensus back to the requested window bounds.
package align

// Alignment is a pair of gapped sequences of equal length; '-' marks a gap.
type Alignment struct {
	Target string
	Query  string
}

// Needleman-Wunsch scores. Kept small and integral; the mapping only needs
// a reasonable path, not a tuned model.
const (
	matchScore    = 2
	mismatchScore = -1
	gapScore      = -2
)

// Global computes a global alignment of target against query.
func Global(target, query string) Alignment {
	n, m := len(target), len(query)
	// score[i][j]: best score aligning target[:i] with query[:j].
	score := make([][]int, n+1)
	trace := make([][]byte, n+1)
	for i := 0; i <= n; i++ {
		score[i] = make([]int, m+1)
		trace[i] = make([]byte, m+1)
	}
	for i := 1; i <= n; i++ {
		score[i][0] = i * gapScore
		trace[i][0] = 'u' // up: gap in query
	}
	for j := 1; j <= m; j++ {
		score[0][j] = j * gapScore
		trace[0][j] = 'l' // left: gap in target
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			s := mismatchScore
			if target[i-1] == query[j-1] {
				s = matchScore
			}
			diag := score[i-1][j-1] + s
			up := score[i-1][j] + gapScore
			left := score[i][j-1] + gapScore
			best, dir := diag, byte('d')
			if up > best {
				best, dir = up, 'u'
			}
			if left > best {
				best, dir = left, 'l'
			}
			score[i][j] = best
			trace[i][j] = dir
		}
	}

	// Trace back.
	var tBuf, qBuf []byte
	i, j := n, m
	for i > 0 || j > 0 {
		switch trace[i][j] {
		case 'd':
			tBuf = append(tBuf, target[i-1])
			qBuf = append(qBuf, query[j-1])
			i--
			j--
		case 'u':
			tBuf = append(tBuf, target[i-1])
			qBuf = append(qBuf, '-')
			i--
		default:
			tBuf = append(tBuf, '-')
			qBuf = append(qBuf, query[j-1])
			j--
		}
	}
	reverse(tBuf)
	reverse(qBuf)
	return Alignment{Target: string(tBuf), Query: string(qBuf)}
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// TargetToQueryPositions maps every target offset to the corresponding
// query offset. The result has len(ungapped target)+1 entries; the final
// entry is the ungapped query length, so half-open target ranges can be
// looked up directly.
func TargetToQueryPositions(a Alignment) []int {
	tLen := ungappedLen(a.Target)
	out := make([]int, tLen+1)
	t, q := 0, 0
	for k := 0; k < len(a.Target); k++ {
		tc, qc := a.Target[k], a.Query[k]
		if tc != '-' {
			out[t] = q
			t++
		}
		if qc != '-' {
			q++
		}
	}
	out[tLen] = q
	return out
}

func ungappedLen(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '-' {
			n++
		}
	}
	return n
}
