// Package windows models half-open genomic coordinate windows and the
// coverage-driven partitioning used to decide which sub-regions of a window
// get a statistically grounded consensus versus a no-evidence placeholder.
package windows

import (
	"fmt"
	"sort"
)

// Window is a half-open, zero-based coordinate range [Start, End) on one
// reference contig.
type Window struct {
	Ref   string
	Start int
	End   int
}

// Len returns the number of bases covered by the window.
func (w Window) Len() int { return w.End - w.Start }

func (w Window) String() string {
	return fmt.Sprintf("%s:[%d,%d)", w.Ref, w.Start, w.End)
}

// Valid reports whether the window satisfies Start < End.
func (w Window) Valid() bool { return w.Ref != "" && w.Start < w.End }

// Intersects reports whether two windows share at least one base, using
// half-open interval intersection. Windows on different contigs never
// intersect.
func (w Window) Intersects(o Window) bool {
	return w.Ref == o.Ref && w.Start < o.End && o.Start < w.End
}

// Enlarge grows the window symmetrically by overlap bases on each side,
// clamped to the contig bounds [0, contigLen).
func (w Window) Enlarge(overlap, contigLen int) Window {
	s := w.Start - overlap
	if s < 0 {
		s = 0
	}
	e := w.End + overlap
	if e > contigLen {
		e = contigLen
	}
	return Window{Ref: w.Ref, Start: s, End: e}
}

// Interval is a sub-range of a window tagged with whether it has adequate
// read coverage for a real consensus call.
type Interval struct {
	Start    int
	End      int
	Adequate bool
}

// KSpannedIntervals returns the maximal sub-intervals of win in which at
// least k of the given alignments simultaneously span every position. The
// alignments are described by parallel start/end coordinate slices
// (half-open, reference coordinates); coordinates are clipped to the window.
// Returned intervals are sorted and non-overlapping.
func KSpannedIntervals(win Window, k int, starts, ends []int) [][2]int {
	if k <= 0 || len(starts) == 0 || len(starts) != len(ends) {
		return nil
	}

	// Coverage sweep over clipped event coordinates.
	type event struct {
		pos   int
		delta int
	}
	events := make([]event, 0, 2*len(starts))
	for i := range starts {
		s, e := starts[i], ends[i]
		if s < win.Start {
			s = win.Start
		}
		if e > win.End {
			e = win.End
		}
		if s >= e {
			continue
		}
		events = append(events, event{s, +1}, event{e, -1})
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].pos != events[j].pos {
			return events[i].pos < events[j].pos
		}
		// Starts before ends at the same position, so coverage abutting
		// under half-open semantics merges into one interval. Zero-width
		// runs this can briefly open are dropped below.
		return events[i].delta > events[j].delta
	})

	var out [][2]int
	depth := 0
	runStart := -1
	for _, ev := range events {
		depth += ev.delta
		if depth >= k && runStart < 0 {
			runStart = ev.pos
		} else if depth < k && runStart >= 0 {
			if ev.pos > runStart {
				out = append(out, [2]int{runStart, ev.pos})
			}
			runStart = -1
		}
	}
	if runStart >= 0 && win.End > runStart {
		out = append(out, [2]int{runStart, win.End})
	}
	return out
}

// Holes returns the sub-intervals of win not covered by the given sorted,
// non-overlapping intervals.
func Holes(win Window, intervals [][2]int) [][2]int {
	var out [][2]int
	cursor := win.Start
	for _, iv := range intervals {
		if iv[0] > cursor {
			out = append(out, [2]int{cursor, iv[0]})
		}
		if iv[1] > cursor {
			cursor = iv[1]
		}
	}
	if cursor < win.End {
		out = append(out, [2]int{cursor, win.End})
	}
	return out
}

// CoveragePartition partitions win into an ordered, non-overlapping,
// gap-free sequence of intervals: the k-spanned intervals longer than
// minLength are tagged adequate, and their complement within the window is
// tagged as coverage gaps. An empty adequate set yields a single gap
// spanning the whole window.
func CoveragePartition(win Window, k, minLength int, starts, ends []int) []Interval {
	adequate := make([][2]int, 0)
	for _, iv := range KSpannedIntervals(win, k, starts, ends) {
		if iv[1]-iv[0] > minLength {
			adequate = append(adequate, iv)
		}
	}
	gaps := Holes(win, adequate)

	out := make([]Interval, 0, len(adequate)+len(gaps))
	for _, iv := range adequate {
		out = append(out, Interval{Start: iv[0], End: iv[1], Adequate: true})
	}
	for _, iv := range gaps {
		out = append(out, Interval{Start: iv[0], End: iv[1]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
