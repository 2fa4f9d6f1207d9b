package windows

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ContigInfo is the minimal view of a reference contig the planner needs.
type ContigInfo struct {
	Name   string
	Length int
}

// Plan is the per-run window enumeration: the task partition handed to the
// worker pool, the per-contig base totals the collector uses to detect
// completion, and the user-declared output spans.
type Plan struct {
	// Tasks partition the analyzed regions exactly: non-overlapping windows
	// with no holes, at most windowSize bases each.
	Tasks []Window
	// RequiredBases maps contig name to the total bases its windows cover.
	// A contig is complete once the collector has accumulated exactly this
	// many bases for it.
	RequiredBases map[string]int
	// Spans maps contig name to its declared output spans (one whole-contig
	// span when no restriction was given).
	Spans map[string][]Window
	// Contigs are the reference contigs in declaration order.
	Contigs []ContigInfo
}

var (
	ErrNoContigs         = errors.New("invalid plan: no contigs to analyze")
	ErrInvalidWindowSize = errors.New("invalid window size: must be greater than 0")
)

// NewPlan enumerates analysis windows over the given contigs. With no
// restrictions every contig is analyzed whole; otherwise only the restricted
// spans are analyzed. Each span is split into windowSize-base tasks.
func NewPlan(contigs []ContigInfo, restrictions []Window, windowSize int) (*Plan, error) {
	if windowSize <= 0 {
		return nil, ErrInvalidWindowSize
	}
	if len(contigs) == 0 {
		return nil, ErrNoContigs
	}

	lengths := make(map[string]int, len(contigs))
	for _, c := range contigs {
		lengths[c.Name] = c.Length
	}

	spans := make(map[string][]Window)
	if len(restrictions) == 0 {
		for _, c := range contigs {
			spans[c.Name] = []Window{{Ref: c.Name, Start: 0, End: c.Length}}
		}
	} else {
		for _, r := range restrictions {
			length, ok := lengths[r.Ref]
			if !ok {
				return nil, fmt.Errorf("invalid window restriction: unknown contig %q", r.Ref)
			}
			clamped := clamp(r, length)
			if !clamped.Valid() {
				return nil, fmt.Errorf("invalid window restriction: empty range %s", r)
			}
			spans[r.Ref] = append(spans[r.Ref], clamped)
		}
		for name, ws := range spans {
			sort.Slice(ws, func(i, j int) bool { return ws[i].Start < ws[j].Start })
			for i := 1; i < len(ws); i++ {
				if ws[i].Start < ws[i-1].End {
					return nil, fmt.Errorf(
						"invalid window restrictions: overlapping spans %s and %s", ws[i-1], ws[i])
				}
			}
			spans[name] = ws
		}
	}

	p := &Plan{
		RequiredBases: make(map[string]int, len(spans)),
		Spans:         spans,
		Contigs:       contigs,
	}
	// Enumerate in contig declaration order for deterministic task order.
	for _, c := range contigs {
		for _, span := range spans[c.Name] {
			for s := span.Start; s < span.End; s += windowSize {
				e := s + windowSize
				if e > span.End {
					e = span.End
				}
				p.Tasks = append(p.Tasks, Window{Ref: c.Name, Start: s, End: e})
			}
			p.RequiredBases[c.Name] += span.Len()
		}
	}
	if len(p.Tasks) == 0 {
		return nil, ErrNoContigs
	}
	return p, nil
}

func clamp(w Window, contigLen int) Window {
	if w.Start < 0 {
		w.Start = 0
	}
	if w.End > contigLen || w.End == 0 {
		w.End = contigLen
	}
	return w
}

// ParseRestriction parses a user window restriction of the form "contig" or
// "contig:start-end" (zero-based, half-open).
func ParseRestriction(s string) (Window, error) {
	name, coords, found := strings.Cut(s, ":")
	if name == "" {
		return Window{}, fmt.Errorf("invalid window %q: missing contig name", s)
	}
	if !found {
		// Whole contig; End is resolved against the contig length at plan time.
		return Window{Ref: name}, nil
	}
	startText, endText, found := strings.Cut(coords, "-")
	if !found {
		return Window{}, fmt.Errorf("invalid window %q: expected contig:start-end", s)
	}
	start, err := strconv.Atoi(startText)
	if err != nil {
		return Window{}, fmt.Errorf("invalid window %q: bad start: %w", s, err)
	}
	end, err := strconv.Atoi(endText)
	if err != nil {
		return Window{}, fmt.Errorf("invalid window %q: bad end: %w", s, err)
	}
	if start < 0 || end <= start {
		return Window{}, fmt.Errorf("invalid window %q: require 0 <= start < end", s)
	}
	return Window{Ref: name, Start: start, End: end}, nil
}
