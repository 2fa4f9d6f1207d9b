package variant

import (
	"github.com/genomelab/polisher/pkg/align"
	"github.com/genomelab/polisher/pkg/windows"
)

// Call derives variants by globally aligning the window's reference
// sequence against the computed consensus and walking the alignment.
// conf holds per-base consensus confidence, coverage per-site read depth
// over the window. prev is the reference base immediately before the
// window (0 when the window starts the contig); indels at the window's
// first base cannot be anchored without it and are skipped.
//
// The caller is expected to filter the result to the originally requested
// window when operating on an enlarged one.
func Call(win windows.Window, refSeq, cssSeq string, conf []uint8, coverage []int, prev byte) []Variant {
	ga := align.Global(refSeq, cssSeq)

	var out []Variant
	t, q := 0, 0 // ungapped offsets into refSeq / cssSeq
	for k := 0; k < len(ga.Target); {
		tc, qc := ga.Target[k], ga.Query[k]
		switch {
		case tc != '-' && qc != '-':
			if tc != qc && qc != 'N' {
				out = append(out, Variant{
					RefName:    win.Ref,
					RefStart:   win.Start + t,
					RefSeq:     string(tc),
					ReadSeq1:   string(qc),
					Confidence: confAt(conf, q),
					Coverage:   covAt(coverage, t),
				})
			}
			t++
			q++
			k++

		case tc == '-': // insertion in the consensus
			runStart := k
			for k < len(ga.Target) && ga.Target[k] == '-' {
				k++
			}
			inserted := ga.Query[runStart:k]
			qRun := q
			q += len(inserted)
			v, ok := anchored(win, refSeq, cssSeq, t, qRun, prev)
			if !ok {
				continue
			}
			v.RefSeq = ""
			v.ReadSeq1 = inserted
			v.Confidence = confAt(conf, qRun)
			v.Coverage = covAt(coverage, t)
			out = append(out, v)

		default: // deletion in the consensus
			runStart := k
			tRun := t
			for k < len(ga.Target) && ga.Target[k] != '-' && ga.Query[k] == '-' {
				t++
				k++
			}
			deleted := ga.Target[runStart : runStart+(t-tRun)]
			v, ok := anchored(win, refSeq, cssSeq, tRun, q, prev)
			if !ok {
				continue
			}
			v.RefSeq = deleted
			v.ReadSeq1 = ""
			v.Confidence = confAt(conf, q)
			v.Coverage = covAt(coverage, tRun)
			out = append(out, v)
		}
	}
	return out
}

// anchored builds the indel skeleton anchored on the base before ref
// offset t. Reports false when no anchor base exists.
func anchored(win windows.Window, refSeq, cssSeq string, t, q int, prev byte) (Variant, bool) {
	var refPrev byte
	switch {
	case t > 0:
		refPrev = refSeq[t-1]
	case prev != 0:
		refPrev = prev
	default:
		return Variant{}, false
	}
	readPrev := refPrev
	if q > 0 {
		readPrev = cssSeq[q-1]
	}
	return Variant{
		RefName:  win.Ref,
		RefStart: win.Start + t,
		RefPrev:  string(refPrev),
		ReadPrev: string(readPrev),
	}, true
}

func confAt(conf []uint8, q int) int {
	if len(conf) == 0 {
		return 0
	}
	if q >= len(conf) {
		q = len(conf) - 1
	}
	return int(conf[q])
}

func covAt(coverage []int, t int) int {
	if len(coverage) == 0 {
		return 0
	}
	if t >= len(coverage) {
		t = len(coverage) - 1
	}
	return coverage[t]
}
