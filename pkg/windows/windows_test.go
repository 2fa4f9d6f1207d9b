package windows

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnlargeClampsToContigBounds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		win       Window
		overlap   int
		contigLen int
		want      Window
	}{
		{
			name: "interior window grows both sides",
			win:  Window{Ref: "c", Start: 100, End: 200}, overlap: 5, contigLen: 1000,
			want: Window{Ref: "c", Start: 95, End: 205},
		},
		{
			name: "clamped at contig start",
			win:  Window{Ref: "c", Start: 2, End: 50}, overlap: 5, contigLen: 1000,
			want: Window{Ref: "c", Start: 0, End: 55},
		},
		{
			name: "clamped at contig end",
			win:  Window{Ref: "c", Start: 900, End: 998}, overlap: 5, contigLen: 1000,
			want: Window{Ref: "c", Start: 895, End: 1000},
		},
		{
			name: "whole contig unchanged",
			win:  Window{Ref: "c", Start: 0, End: 1000}, overlap: 5, contigLen: 1000,
			want: Window{Ref: "c", Start: 0, End: 1000},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, tt.win.Enlarge(tt.overlap, tt.contigLen))
		})
	}
}

func TestIntersects(t *testing.T) {
	t.Parallel()
	a := Window{Ref: "c", Start: 0, End: 100}
	require.True(t, a.Intersects(Window{Ref: "c", Start: 99, End: 150}))
	require.False(t, a.Intersects(Window{Ref: "c", Start: 100, End: 150}))
	require.False(t, a.Intersects(Window{Ref: "other", Start: 0, End: 100}))
}

func TestKSpannedIntervals(t *testing.T) {
	t.Parallel()
	win := Window{Ref: "c", Start: 0, End: 100}

	t.Run("three overlapping reads at k=3", func(t *testing.T) {
		t.Parallel()
		starts := []int{0, 10, 20}
		ends := []int{60, 80, 100}
		got := KSpannedIntervals(win, 3, starts, ends)
		require.Equal(t, [][2]int{{20, 60}}, got)
	})

	t.Run("abutting reads do not span", func(t *testing.T) {
		t.Parallel()
		got := KSpannedIntervals(win, 1, []int{0, 50}, []int{50, 100})
		require.Equal(t, [][2]int{{0, 100}}, got)
		got = KSpannedIntervals(win, 2, []int{0, 50}, []int{50, 100})
		require.Empty(t, got)
	})

	t.Run("coordinates clipped to window", func(t *testing.T) {
		t.Parallel()
		got := KSpannedIntervals(win, 1, []int{-50}, []int{200})
		require.Equal(t, [][2]int{{0, 100}}, got)
	})

	t.Run("no reads", func(t *testing.T) {
		t.Parallel()
		require.Empty(t, KSpannedIntervals(win, 1, nil, nil))
	})
}

func TestHoles(t *testing.T) {
	t.Parallel()
	win := Window{Ref: "c", Start: 0, End: 100}
	require.Equal(t, [][2]int{{0, 100}}, Holes(win, nil))
	require.Equal(t,
		[][2]int{{0, 10}, {40, 60}, {90, 100}},
		Holes(win, [][2]int{{10, 40}, {60, 90}}))
	require.Empty(t, Holes(win, [][2]int{{0, 100}}))
}

// The partition property: sorted starts strictly increasing, each end equals
// the next start, first start == window start, last end == window end.
func requireExactPartition(t *testing.T, win Window, ivs []Interval) {
	t.Helper()
	require.NotEmpty(t, ivs)
	require.Equal(t, win.Start, ivs[0].Start)
	require.Equal(t, win.End, ivs[len(ivs)-1].End)
	for i := 1; i < len(ivs); i++ {
		require.Greater(t, ivs[i].Start, ivs[i-1].Start)
		require.Equal(t, ivs[i-1].End, ivs[i].Start)
	}
}

func TestCoveragePartition(t *testing.T) {
	t.Parallel()
	win := Window{Ref: "c", Start: 0, End: 500}

	t.Run("no coverage yields a single gap", func(t *testing.T) {
		t.Parallel()
		ivs := CoveragePartition(win, 3, 10, nil, nil)
		require.Equal(t, []Interval{{Start: 0, End: 500}}, ivs)
		requireExactPartition(t, win, ivs)
	})

	t.Run("adequate island with flanking gaps", func(t *testing.T) {
		t.Parallel()
		starts := []int{100, 110, 120}
		ends := []int{400, 380, 390}
		ivs := CoveragePartition(win, 3, 10, starts, ends)
		require.Equal(t, []Interval{
			{Start: 0, End: 120},
			{Start: 120, End: 380, Adequate: true},
			{Start: 380, End: 500},
		}, ivs)
		requireExactPartition(t, win, ivs)
	})

	t.Run("short islands are discarded as noise", func(t *testing.T) {
		t.Parallel()
		// Spanned interval is only 8 bases, below the 10-base minimum.
		starts := []int{100, 100, 100}
		ends := []int{108, 108, 108}
		ivs := CoveragePartition(win, 3, 10, starts, ends)
		require.Equal(t, []Interval{{Start: 0, End: 500}}, ivs)
	})

	t.Run("partition holds for many shapes", func(t *testing.T) {
		t.Parallel()
		cases := [][2][]int{
			{{0, 0, 0}, {500, 500, 500}},
			{{0, 200, 400}, {100, 300, 500}},
			{{0, 0, 250, 250}, {250, 250, 500, 500}},
		}
		for _, c := range cases {
			requireExactPartition(t, win, CoveragePartition(win, 2, 10, c[0], c[1]))
		}
	})
}

func TestNewPlanWholeGenome(t *testing.T) {
	t.Parallel()
	contigs := []ContigInfo{{Name: "chr1", Length: 1000}, {Name: "chr2", Length: 250}}
	p, err := NewPlan(contigs, nil, 500)
	require.NoError(t, err)

	require.Equal(t, []Window{
		{Ref: "chr1", Start: 0, End: 500},
		{Ref: "chr1", Start: 500, End: 1000},
		{Ref: "chr2", Start: 0, End: 250},
	}, p.Tasks)
	require.Equal(t, 1000, p.RequiredBases["chr1"])
	require.Equal(t, 250, p.RequiredBases["chr2"])
	require.Equal(t, []Window{{Ref: "chr1", Start: 0, End: 1000}}, p.Spans["chr1"])
}

func TestNewPlanRestricted(t *testing.T) {
	t.Parallel()
	contigs := []ContigInfo{{Name: "chr1", Length: 1000}}

	p, err := NewPlan(contigs, []Window{{Ref: "chr1", Start: 100, End: 200}}, 1000)
	require.NoError(t, err)
	require.Equal(t, []Window{{Ref: "chr1", Start: 100, End: 200}}, p.Tasks)
	require.Equal(t, 100, p.RequiredBases["chr1"], "required bases follow the restriction, not the contig length")

	_, err = NewPlan(contigs, []Window{{Ref: "chrX", Start: 0, End: 10}}, 1000)
	require.Error(t, err)

	_, err = NewPlan(contigs, []Window{
		{Ref: "chr1", Start: 0, End: 100},
		{Ref: "chr1", Start: 50, End: 150},
	}, 1000)
	require.Error(t, err, "overlapping restrictions break the no-double-counting invariant")
}

func TestNewPlanTasksPartitionExactly(t *testing.T) {
	t.Parallel()
	p, err := NewPlan([]ContigInfo{{Name: "c", Length: 1234}}, nil, 500)
	require.NoError(t, err)
	cursor := 0
	total := 0
	for _, w := range p.Tasks {
		require.Equal(t, cursor, w.Start)
		require.Greater(t, w.End, w.Start)
		cursor = w.End
		total += w.Len()
	}
	require.Equal(t, 1234, cursor)
	require.Equal(t, p.RequiredBases["c"], total)
}

func TestParseRestriction(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    Window
		wantErr bool
	}{
		{in: "chr1", want: Window{Ref: "chr1"}},
		{in: "chr1:100-200", want: Window{Ref: "chr1", Start: 100, End: 200}},
		{in: "chr1:200-100", wantErr: true},
		{in: "chr1:abc-200", wantErr: true},
		{in: ":100-200", wantErr: true},
		{in: "chr1:100", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRestriction(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
