// Package reads models reference-projected read alignments and the
// in-memory store the consensus engine queries per window. Alignment-file
// parsing beyond the tabular projection format is out of scope; the Store
// is the seam for richer backends.
package reads

import (
	"sort"

	"github.com/genomelab/polisher/pkg/windows"
)

// Aligned is one read alignment projected onto reference coordinates:
// Bases[i] is the read base aligned to reference position TStart+i, with
// '-' marking a deletion in the read. Insertions relative to the reference
// are not represented; len(Bases) == TEnd-TStart.
type Aligned struct {
	Name   string
	Ref    string
	TStart int
	TEnd   int
	MapQV  int
	Bases  []byte
}

// ReferenceSpan returns the number of reference bases the alignment covers.
func (a Aligned) ReferenceSpan() int { return a.TEnd - a.TStart }

// ReadLength returns the number of read bases actually present in the
// alignment, i.e. the reference span minus deletions.
func (a Aligned) ReadLength() int {
	n := 0
	for _, b := range a.Bases {
		if b != '-' {
			n++
		}
	}
	return n
}

// Spans reports whether the alignment fully covers [start, end).
func (a Aligned) Spans(start, end int) bool {
	return a.TStart <= start && a.TEnd >= end
}

// Overlaps reports whether the alignment shares at least one base with
// [start, end).
func (a Aligned) Overlaps(start, end int) bool {
	return a.TStart < end && start < a.TEnd
}

// ClipTo returns the alignment restricted to [start, end). Alignments not
// overlapping the range come back with a zero reference span.
func (a Aligned) ClipTo(start, end int) Aligned {
	if start < a.TStart {
		start = a.TStart
	}
	if end > a.TEnd {
		end = a.TEnd
	}
	if start >= end {
		return Aligned{Name: a.Name, Ref: a.Ref, TStart: start, TEnd: start, MapQV: a.MapQV}
	}
	return Aligned{
		Name:   a.Name,
		Ref:    a.Ref,
		TStart: start,
		TEnd:   end,
		MapQV:  a.MapQV,
		Bases:  a.Bases[start-a.TStart : end-a.TStart],
	}
}

// FilterStumpy drops alignments whose read content within their span is
// below threshold x referenceSpan. Such "stumpy" alignments technically
// span a region but carry almost no read bases inside it and break
// consensus callers on degenerate input.
func FilterStumpy(alns []Aligned, threshold float64) []Aligned {
	out := alns[:0:0]
	for _, a := range alns {
		if float64(a.ReadLength()) >= threshold*float64(a.ReferenceSpan()) {
			out = append(out, a)
		}
	}
	return out
}

// Store is an immutable per-contig collection of alignments, sorted by
// start coordinate. Built once before processing; safe for concurrent reads.
type Store struct {
	byRef map[string][]Aligned
}

// NewStore builds a Store from rows, grouping by contig and sorting by
// (TStart, TEnd).
func NewStore(rows []Aligned) *Store {
	s := &Store{byRef: make(map[string][]Aligned)}
	for _, r := range rows {
		s.byRef[r.Ref] = append(s.byRef[r.Ref], r)
	}
	for ref := range s.byRef {
		rows := s.byRef[ref]
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].TStart != rows[j].TStart {
				return rows[i].TStart < rows[j].TStart
			}
			return rows[i].TEnd < rows[j].TEnd
		})
	}
	return s
}

// InWindow returns the alignments overlapping w with mapping quality of at
// least minMapQV, ordered by start coordinate.
func (s *Store) InWindow(w windows.Window, minMapQV int) []Aligned {
	var out []Aligned
	for _, a := range s.byRef[w.Ref] {
		if a.TStart >= w.End {
			break
		}
		if a.MapQV >= minMapQV && a.Overlaps(w.Start, w.End) {
			out = append(out, a)
		}
	}
	return out
}

// InWindowCapped is InWindow bounded to at most depthLimit alignments,
// preferring the longest-spanning reads. The selection is re-sorted by
// start coordinate so downstream consumers see a deterministic order.
// depthLimit <= 0 means unbounded.
func (s *Store) InWindowCapped(w windows.Window, minMapQV, depthLimit int) []Aligned {
	out := s.InWindow(w, minMapQV)
	if depthLimit <= 0 || len(out) <= depthLimit {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReferenceSpan() > out[j].ReferenceSpan()
	})
	out = out[:depthLimit]
	sort.Slice(out, func(i, j int) bool {
		if out[i].TStart != out[j].TStart {
			return out[i].TStart < out[j].TStart
		}
		return out[i].TEnd < out[j].TEnd
	})
	return out
}

// Contigs returns the contig names present in the store.
func (s *Store) Contigs() []string {
	names := make([]string, 0, len(s.byRef))
	for name := range s.byRef {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
