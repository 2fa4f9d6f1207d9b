package reads

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/genomelab/polisher/pkg/windows"
)

func aln(ref string, start int, bases string) Aligned {
	return Aligned{Ref: ref, TStart: start, TEnd: start + len(bases), MapQV: 20, Bases: []byte(bases)}
}

func TestAlignedAccessors(t *testing.T) {
	t.Parallel()
	a := aln("c", 10, "AC-GT")
	require.Equal(t, 5, a.ReferenceSpan())
	require.Equal(t, 4, a.ReadLength())
	require.True(t, a.Spans(10, 15))
	require.True(t, a.Spans(11, 14))
	require.False(t, a.Spans(9, 15))
	require.True(t, a.Overlaps(14, 20))
	require.False(t, a.Overlaps(15, 20))
}

func TestClipTo(t *testing.T) {
	t.Parallel()
	a := aln("c", 10, "ACGTA")

	c := a.ClipTo(11, 14)
	require.Equal(t, 11, c.TStart)
	require.Equal(t, 14, c.TEnd)
	require.Equal(t, "CGT", string(c.Bases))

	c = a.ClipTo(0, 100)
	require.Equal(t, a.TStart, c.TStart)
	require.Equal(t, a.TEnd, c.TEnd)

	c = a.ClipTo(20, 30)
	require.Equal(t, 0, c.ReferenceSpan())
}

func TestFilterStumpy(t *testing.T) {
	t.Parallel()
	healthy := aln("c", 0, "ACGTACGTAC")
	stumpy := aln("c", 0, "A---------")
	got := FilterStumpy([]Aligned{healthy, stumpy}, 0.1)
	require.Equal(t, []Aligned{healthy, stumpy}, got, "exactly at threshold survives")

	got = FilterStumpy([]Aligned{healthy, stumpy}, 0.2)
	require.Equal(t, []Aligned{healthy}, got)
}

func TestStoreInWindow(t *testing.T) {
	t.Parallel()
	s := NewStore([]Aligned{
		aln("c", 50, "ACGTACGTAC"),
		aln("c", 0, "ACGTACGTAC"),
		{Ref: "c", TStart: 5, TEnd: 15, MapQV: 5, Bases: []byte("ACGTACGTAC")},
		aln("other", 0, "ACGT"),
	})

	got := s.InWindow(windows.Window{Ref: "c", Start: 0, End: 20}, 10)
	require.Len(t, got, 1, "low-mapQV and out-of-window rows excluded")
	require.Equal(t, 0, got[0].TStart)

	got = s.InWindow(windows.Window{Ref: "c", Start: 0, End: 60}, 10)
	require.Len(t, got, 2)
	require.Equal(t, 0, got[0].TStart, "sorted by start")
	require.Equal(t, 50, got[1].TStart)

	require.Empty(t, s.InWindow(windows.Window{Ref: "missing", Start: 0, End: 10}, 0))
}

func TestStoreInWindowCapped(t *testing.T) {
	t.Parallel()
	s := NewStore([]Aligned{
		aln("c", 0, "ACGT"),
		aln("c", 1, "ACGTACGTACGT"),
		aln("c", 2, "ACGTACGT"),
	})
	got := s.InWindowCapped(windows.Window{Ref: "c", Start: 0, End: 20}, 0, 2)
	require.Len(t, got, 2)
	// Longest two spans survive, re-sorted by start.
	require.Equal(t, 1, got[0].TStart)
	require.Equal(t, 2, got[1].TStart)

	got = s.InWindowCapped(windows.Window{Ref: "c", Start: 0, End: 20}, 0, 0)
	require.Len(t, got, 3, "no limit when depthLimit <= 0")
}

func TestLoadTable(t *testing.T) {
	t.Parallel()
	p := filepath.Join(t.TempDir(), "reads.tsv")
	content := "# name\tcontig\ttStart\ttEnd\tmapQV\tbases\n" +
		"r1\tchr1\t0\t4\t30\tacgt\n" +
		"r2\tchr1\t2\t8\t30\tGT-CGT\n"
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

	s, err := LoadTable(p)
	require.NoError(t, err)
	rows := s.InWindow(windows.Window{Ref: "chr1", Start: 0, End: 10}, 0)
	require.Len(t, rows, 2)
	require.Equal(t, "ACGT", string(rows[0].Bases), "bases uppercased")
	require.Equal(t, "GT-CGT", string(rows[1].Bases))
	require.Equal(t, []string{"chr1"}, s.Contigs())
}

func TestLoadTableErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		row  string
	}{
		{"wrong field count", "r1\tchr1\t0\t4\t30"},
		{"bases shorter than span", "r1\tchr1\t0\t4\t30\tAC"},
		{"inverted range", "r1\tchr1\t4\t0\t30\tACGT"},
		{"bad mapQV", "r1\tchr1\t0\t4\thigh\tACGT"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := filepath.Join(t.TempDir(), "reads.tsv")
			require.NoError(t, os.WriteFile(p, []byte(tt.row+"\n"), 0o600))
			_, err := LoadTable(p)
			require.Error(t, err)
		})
	}
}
