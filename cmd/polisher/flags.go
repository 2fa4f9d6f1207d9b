package main

import (
	"runtime"
	"time"

	"github.com/urfave/cli/v2"
)

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable verbose logging",
		},
		&cli.StringFlag{
			Name:     "reference",
			Aliases:  []string{"r"},
			Usage:    "Reference FASTA (plain or gzip, '-' for stdin)",
			EnvVars:  []string{"POLISHER_REFERENCE"},
			Required: true,
		},
		&cli.StringFlag{
			Name:     "reads",
			Aliases:  []string{"a"},
			Usage:    "Aligned reads table (TSV, plain or gzip, '-' for stdin)",
			EnvVars:  []string{"POLISHER_READS"},
			Required: true,
		},
		&cli.StringFlag{
			Name:    "fasta-output",
			Usage:   "Write consensus sequences as FASTA to this path",
			EnvVars: []string{"POLISHER_FASTA_OUTPUT"},
		},
		&cli.StringFlag{
			Name:    "fastq-output",
			Usage:   "Write consensus sequences with qualities as FASTQ to this path",
			EnvVars: []string{"POLISHER_FASTQ_OUTPUT"},
		},
		&cli.StringFlag{
			Name:    "vcf-output",
			Usage:   "Write called variants as VCF 4.2 to this path",
			EnvVars: []string{"POLISHER_VCF_OUTPUT"},
		},
		&cli.StringFlag{
			Name:    "jsonl-output",
			Usage:   "Write called variants as JSON lines to this path",
			EnvVars: []string{"POLISHER_JSONL_OUTPUT"},
		},
		&cli.StringSliceFlag{
			Name:    "window",
			Aliases: []string{"w"},
			Usage:   "Restrict analysis to contig or contig:start-end (repeatable, zero-based half-open)",
			EnvVars: []string{"POLISHER_WINDOWS"},
		},
		&cli.StringFlag{
			Name:    "no-evidence-call",
			Usage:   "Consensus for zero-coverage spans: nocall (run of N) or reference (copy reference); empty keeps the parameter set's policy",
			EnvVars: []string{"POLISHER_NO_EVIDENCE_CALL"},
		},
		&cli.StringFlag{
			Name:    "parameter-set",
			Aliases: []string{"p"},
			Usage:   "Named parameter set (default, fast, careful)",
			EnvVars: []string{"POLISHER_PARAMETER_SET"},
			Value:   "default",
		},
		&cli.IntFlag{
			Name:    "num-workers",
			Aliases: []string{"j"},
			Usage:   "Number of parallel consensus workers",
			EnvVars: []string{"POLISHER_NUM_WORKERS"},
			Value:   runtime.NumCPU(),
		},
		&cli.IntFlag{
			Name:    "window-size",
			Usage:   "Analysis window size in bases",
			EnvVars: []string{"POLISHER_WINDOW_SIZE"},
			Value:   1000,
		},
		&cli.IntFlag{
			Name:    "results-buffer",
			Usage:   "Capacity of the worker results channel",
			EnvVars: []string{"POLISHER_RESULTS_BUFFER"},
			Value:   64,
		},
		&cli.IntFlag{
			Name:    "min-confidence",
			Usage:   "VCF quality filter threshold; variants below it are flagged, 0 disables",
			EnvVars: []string{"POLISHER_MIN_CONFIDENCE"},
			Value:   40,
		},
		&cli.IntFlag{
			Name:    "min-coverage",
			Usage:   "VCF coverage filter threshold; variants below it are flagged, 0 disables",
			EnvVars: []string{"POLISHER_MIN_COVERAGE"},
			Value:   5,
		},
		&cli.BoolFlag{
			Name:    "diploid",
			Usage:   "Declare the allele-frequency INFO field for heterozygous calls",
			EnvVars: []string{"POLISHER_DIPLOID"},
		},
		&cli.StringFlag{
			Name:    "name-decoration",
			Usage:   "Suffix appended to every output record name",
			EnvVars: []string{"POLISHER_NAME_DECORATION"},
			Value:   "|polished",
		},
		&cli.StringFlag{
			Name:    "metrics-addr",
			Usage:   "Prometheus metrics listen address (empty disables the server)",
			EnvVars: []string{"POLISHER_METRICS_ADDR"},
		},
		&cli.DurationFlag{
			Name:    "watchdog-interval",
			Usage:   "Progress watchdog check interval (0 disables)",
			EnvVars: []string{"POLISHER_WATCHDOG_INTERVAL"},
			Value:   time.Minute,
		},
	}
}
