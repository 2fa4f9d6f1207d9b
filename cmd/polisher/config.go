package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/genomelab/polisher/pkg/engine"
)

// Config holds all configuration for the polisher application.
type Config struct {
	// Application settings
	Verbose bool

	// Inputs
	ReferencePath string
	ReadsPath     string
	Windows       []string

	// Outputs; at least one must be set.
	FastaOutput string
	FastqOutput string
	VCFOutput   string
	JSONLOutput string

	// Run shape
	NoEvidenceCall string
	ParameterSet   string
	NumWorkers     int
	WindowSize     int
	ResultsBuffer  int

	// Variant filtering and formatting
	MinConfidence  int
	MinCoverage    int
	Diploid        bool
	NameDecoration string

	// Observability
	MetricsAddr      string
	WatchdogInterval time.Duration
}

// buildConfig builds a Config from CLI context flags.
func buildConfig(c *cli.Context) *Config {
	return &Config{
		Verbose:          c.Bool("verbose"),
		ReferencePath:    c.String("reference"),
		ReadsPath:        c.String("reads"),
		Windows:          c.StringSlice("window"),
		FastaOutput:      c.String("fasta-output"),
		FastqOutput:      c.String("fastq-output"),
		VCFOutput:        c.String("vcf-output"),
		JSONLOutput:      c.String("jsonl-output"),
		NoEvidenceCall:   c.String("no-evidence-call"),
		ParameterSet:     c.String("parameter-set"),
		NumWorkers:       c.Int("num-workers"),
		WindowSize:       c.Int("window-size"),
		ResultsBuffer:    c.Int("results-buffer"),
		MinConfidence:    c.Int("min-confidence"),
		MinCoverage:      c.Int("min-coverage"),
		Diploid:          c.Bool("diploid"),
		NameDecoration:   c.String("name-decoration"),
		MetricsAddr:      c.String("metrics-addr"),
		WatchdogInterval: c.Duration("watchdog-interval"),
	}
}

// HasOutputs reports whether at least one output sink is configured.
func (c *Config) HasOutputs() bool {
	return c.FastaOutput != "" || c.FastqOutput != "" || c.VCFOutput != "" || c.JSONLOutput != ""
}

// Tuning overrides individual engine parameters from the environment on
// top of the chosen parameter set. Unset variables keep the set's value.
type Tuning struct {
	MinMapQV                *int     `env:"POLISHER_TUNE_MIN_MAPQV"`
	MinCoverage             *int     `env:"POLISHER_TUNE_MIN_COVERAGE"`
	MaxCoverageDepth        *int     `env:"POLISHER_TUNE_MAX_COVERAGE_DEPTH"`
	MinIntervalLength       *int     `env:"POLISHER_TUNE_MIN_INTERVAL_LENGTH"`
	ReadStumpinessThreshold *float64 `env:"POLISHER_TUNE_STUMPINESS_THRESHOLD"`
	WindowOverlap           *int     `env:"POLISHER_TUNE_WINDOW_OVERLAP"`
	NoEvidencePolicy        *string  `env:"POLISHER_TUNE_NO_EVIDENCE_POLICY"`
}

// loadTuning reads overrides from the environment, honoring a local .env
// file when present.
func loadTuning() (Tuning, error) {
	_ = godotenv.Load()
	var t Tuning
	if err := env.Parse(&t); err != nil {
		return Tuning{}, fmt.Errorf("failed to parse tuning environment: %w", err)
	}
	return t, nil
}

// Apply returns cfg with the set overrides applied.
func (t Tuning) Apply(cfg engine.Config) engine.Config {
	if t.MinMapQV != nil {
		cfg.MinMapQV = *t.MinMapQV
	}
	if t.MinCoverage != nil {
		cfg.MinCoverage = *t.MinCoverage
	}
	if t.MaxCoverageDepth != nil {
		cfg.MaxCoverageDepth = *t.MaxCoverageDepth
	}
	if t.MinIntervalLength != nil {
		cfg.MinIntervalLength = *t.MinIntervalLength
	}
	if t.ReadStumpinessThreshold != nil {
		cfg.ReadStumpinessThreshold = *t.ReadStumpinessThreshold
	}
	if t.WindowOverlap != nil {
		cfg.WindowOverlap = *t.WindowOverlap
	}
	if t.NoEvidencePolicy != nil {
		cfg.NoEvidencePolicy = *t.NoEvidencePolicy
	}
	return cfg
}
