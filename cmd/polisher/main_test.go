package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/genomelab/polisher/pkg/consensus"
	"github.com/genomelab/polisher/pkg/engine"
)

func TestHasOutputs(t *testing.T) {
	t.Parallel()

	require.False(t, (&Config{}).HasOutputs())
	require.True(t, (&Config{FastaOutput: "out.fasta"}).HasOutputs())
	require.True(t, (&Config{VCFOutput: "out.vcf"}).HasOutputs())
}

func TestTuningApply(t *testing.T) {
	t.Parallel()

	base := engine.Config{
		MinMapQV:                10,
		MinCoverage:             3,
		MaxCoverageDepth:        100,
		MinIntervalLength:       10,
		ReadStumpinessThreshold: 0.1,
		WindowOverlap:           5,
		NoEvidencePolicy:        consensus.PolicyNoCall,
	}

	// No overrides: config passes through unchanged.
	require.Equal(t, base, Tuning{}.Apply(base))

	minCov := 8
	policy := consensus.PolicyReference
	got := Tuning{MinCoverage: &minCov, NoEvidencePolicy: &policy}.Apply(base)
	require.Equal(t, 8, got.MinCoverage)
	require.Equal(t, consensus.PolicyReference, got.NoEvidencePolicy)
	require.Equal(t, base.MinMapQV, got.MinMapQV)
	require.Equal(t, base.WindowOverlap, got.WindowOverlap)
}

func TestLoadTuningFromEnvironment(t *testing.T) {
	t.Setenv("POLISHER_TUNE_MIN_MAPQV", "25")
	t.Setenv("POLISHER_TUNE_STUMPINESS_THRESHOLD", "0.25")

	tuning, err := loadTuning()
	require.NoError(t, err)
	require.NotNil(t, tuning.MinMapQV)
	require.Equal(t, 25, *tuning.MinMapQV)
	require.NotNil(t, tuning.ReadStumpinessThreshold)
	require.InDelta(t, 0.25, *tuning.ReadStumpinessThreshold, 1e-9)
	require.Nil(t, tuning.MinCoverage)
}
