package engine

import (
	"errors"
	"fmt"

	"github.com/genomelab/polisher/pkg/consensus"
)

// Config holds the per-run engine parameters. Workers share one read-only
// Config initialized before the pool starts.
type Config struct {
	// MinMapQV excludes alignments below this mapping quality.
	MinMapQV int
	// MinCoverage is the number of spanning reads an interval needs for a
	// real consensus call.
	MinCoverage int
	// MaxCoverageDepth caps how many alignments an interval feeds the
	// caller, preferring the longest-spanning reads. <=0 means unbounded.
	MaxCoverageDepth int
	// MinIntervalLength discards adequate-coverage intervals of this
	// length or shorter as too noisy to trust.
	MinIntervalLength int
	// ReadStumpinessThreshold drops clipped alignments whose read content
	// is below this fraction of their reference span.
	ReadStumpinessThreshold float64
	// WindowOverlap enlarges each requested window by this many bases on
	// each side before calling consensus; the result is clipped back.
	WindowOverlap int
	// NoEvidencePolicy selects the placeholder consensus for coverage gaps.
	NoEvidencePolicy string
}

// Validate reports the first invalid parameter.
func (c Config) Validate() error {
	if c.MinCoverage <= 0 {
		return errors.New("invalid config: min coverage must be greater than 0")
	}
	if c.MinIntervalLength < 0 {
		return errors.New("invalid config: min interval length must not be negative")
	}
	if c.ReadStumpinessThreshold < 0 || c.ReadStumpinessThreshold > 1 {
		return errors.New("invalid config: read stumpiness threshold must be in [0,1]")
	}
	if c.WindowOverlap < 0 {
		return errors.New("invalid config: window overlap must not be negative")
	}
	switch c.NoEvidencePolicy {
	case consensus.PolicyNoCall, consensus.PolicyReference:
	default:
		return fmt.Errorf("invalid config: %w: %q", consensus.ErrUnknownPolicy, c.NoEvidencePolicy)
	}
	return nil
}

// ParameterSet is a named engine configuration.
type ParameterSet struct {
	Name   string
	Config Config
}

var ErrUnknownParameterSet = errors.New("unknown parameter set")

// parameterSets are the built-in named configurations. "fast" trades
// interval granularity for throughput; "careful" demands more evidence.
var parameterSets = map[string]Config{
	"default": {
		MinMapQV:                10,
		MinCoverage:             3,
		MaxCoverageDepth:        100,
		MinIntervalLength:       10,
		ReadStumpinessThreshold: 0.1,
		WindowOverlap:           5,
		NoEvidencePolicy:        consensus.PolicyNoCall,
	},
	"fast": {
		MinMapQV:                10,
		MinCoverage:             3,
		MaxCoverageDepth:        40,
		MinIntervalLength:       20,
		ReadStumpinessThreshold: 0.1,
		WindowOverlap:           5,
		NoEvidencePolicy:        consensus.PolicyNoCall,
	},
	"careful": {
		MinMapQV:                20,
		MinCoverage:             5,
		MaxCoverageDepth:        200,
		MinIntervalLength:       10,
		ReadStumpinessThreshold: 0.1,
		WindowOverlap:           10,
		NoEvidencePolicy:        consensus.PolicyNoCall,
	},
}

// ResolveParameterSet looks up a named parameter set. An unknown name is a
// fatal configuration error reported before any worker starts.
func ResolveParameterSet(name string) (ParameterSet, error) {
	cfg, ok := parameterSets[name]
	if !ok {
		return ParameterSet{}, fmt.Errorf("%w: %q", ErrUnknownParameterSet, name)
	}
	return ParameterSet{Name: name, Config: cfg}, nil
}
