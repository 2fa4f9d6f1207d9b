// Package variant models called sequence variants and derives them from a
// consensus-versus-reference alignment.
package variant

import "sort"

// Variant is one called difference against the reference. Substitutions
// store RefStart as the zero-based position of the changed base. Insertions
// and deletions are anchored on the previous base: RefStart is the
// zero-based position of the first affected reference base, which is also
// the one-based position of the anchor base, so the VCF writer emits it
// without an increment.
type Variant struct {
	RefName  string `json:"contig"`
	RefStart int    `json:"refStart"`
	RefSeq   string `json:"refSeq"`
	RefPrev  string `json:"refPrev,omitempty"`
	ReadSeq1 string `json:"readSeq1"`
	ReadSeq2 string `json:"readSeq2,omitempty"`
	ReadPrev string `json:"readPrev,omitempty"`

	// Per-allele frequencies; zero means unknown.
	Frequency1 int `json:"frequency1,omitempty"`
	Frequency2 int `json:"frequency2,omitempty"`

	Heterozygous bool `json:"heterozygous,omitempty"`
	Confidence   int  `json:"confidence"`
	Coverage     int  `json:"coverage"`
}

// IsIndel reports whether the variant is an insertion or deletion, i.e.
// one of its sequences is empty.
func (v Variant) IsIndel() bool {
	return v.RefSeq == "" || v.ReadSeq1 == "" || (v.Heterozygous && v.ReadSeq2 == "")
}

// Less orders variants by (RefName, RefStart) with the sequences as a
// deterministic tiebreak.
func (v Variant) Less(o Variant) bool {
	if v.RefName != o.RefName {
		return v.RefName < o.RefName
	}
	if v.RefStart != o.RefStart {
		return v.RefStart < o.RefStart
	}
	if v.RefSeq != o.RefSeq {
		return v.RefSeq < o.RefSeq
	}
	return v.ReadSeq1 < o.ReadSeq1
}

// Sort sorts variants in place for deterministic output.
func Sort(vs []Variant) {
	sort.SliceStable(vs, func(i, j int) bool { return vs[i].Less(vs[j]) })
}
