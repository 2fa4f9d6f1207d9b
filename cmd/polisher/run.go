package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/genomelab/polisher/pkg/collector"
	"github.com/genomelab/polisher/pkg/consensus"
	"github.com/genomelab/polisher/pkg/engine"
	"github.com/genomelab/polisher/pkg/metrics"
	"github.com/genomelab/polisher/pkg/reads"
	"github.com/genomelab/polisher/pkg/reference"
	"github.com/genomelab/polisher/pkg/utils"
	"github.com/genomelab/polisher/pkg/windows"
	"github.com/genomelab/polisher/pkg/worker"
	"github.com/genomelab/polisher/pkg/writers"
)

const metricsShutdownTimeout = 5 * time.Second

func run(c *cli.Context) error {
	cfg := buildConfig(c)

	runID := uuid.NewString()
	sugar, err := utils.NewRunLogger(cfg.Verbose, runID)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	sugar.Infow("config",
		"verbose", cfg.Verbose,
		"reference", cfg.ReferencePath,
		"reads", cfg.ReadsPath,
		"windows", cfg.Windows,
		"fastaOutput", cfg.FastaOutput,
		"fastqOutput", cfg.FastqOutput,
		"vcfOutput", cfg.VCFOutput,
		"jsonlOutput", cfg.JSONLOutput,
		"noEvidenceCall", cfg.NoEvidenceCall,
		"parameterSet", cfg.ParameterSet,
		"numWorkers", cfg.NumWorkers,
		"windowSize", cfg.WindowSize,
		"resultsBuffer", cfg.ResultsBuffer,
		"minConfidence", cfg.MinConfidence,
		"minCoverage", cfg.MinCoverage,
		"diploid", cfg.Diploid,
		"nameDecoration", cfg.NameDecoration,
		"metricsAddr", cfg.MetricsAddr,
		"watchdogInterval", cfg.WatchdogInterval,
	)

	if !cfg.HasOutputs() {
		return errors.New("no outputs configured: set at least one of --fasta-output, --fastq-output, --vcf-output, --jsonl-output")
	}

	// Configuration errors are fatal before any worker starts.
	paramSet, err := engine.ResolveParameterSet(cfg.ParameterSet)
	if err != nil {
		return err
	}
	tuning, err := loadTuning()
	if err != nil {
		return err
	}
	engCfg := paramSet.Config
	if cfg.NoEvidenceCall != "" {
		engCfg.NoEvidencePolicy = cfg.NoEvidenceCall
	}
	engCfg = tuning.Apply(engCfg)

	restrictions := make([]windows.Window, 0, len(cfg.Windows))
	for _, w := range cfg.Windows {
		win, err := windows.ParseRestriction(w)
		if err != nil {
			return err
		}
		restrictions = append(restrictions, win)
	}

	reg, err := reference.LoadFasta(cfg.ReferencePath)
	if err != nil {
		return fmt.Errorf("failed to load reference: %w", err)
	}
	store, err := reads.LoadTable(cfg.ReadsPath)
	if err != nil {
		return fmt.Errorf("failed to load reads: %w", err)
	}

	contigs := make([]windows.ContigInfo, 0, len(reg.Contigs()))
	for _, ctg := range reg.Contigs() {
		contigs = append(contigs, windows.ContigInfo{Name: ctg.Name, Length: ctg.Length})
	}
	plan, err := windows.NewPlan(contigs, restrictions, cfg.WindowSize)
	if err != nil {
		return err
	}
	sugar.Infow("planned run",
		"contigs", len(contigs),
		"tasks", len(plan.Tasks),
		"parameterSet", paramSet.Name)

	seqWriters, varWriters, err := openWriters(cfg, contigs)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		m, err = metrics.New(registry)
		if err != nil {
			return fmt.Errorf("failed to create metrics: %w", err)
		}
		server := metrics.NewServer(cfg.MetricsAddr, registry)
		errCh := server.Start()
		go func() {
			if serveErr := <-errCh; serveErr != nil {
				sugar.Warnw("metrics server failed", "error", serveErr)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
				sugar.Warnw("metrics server shutdown failed", "error", shutdownErr)
			}
		}()
		sugar.Infof("metrics server listening on http://%s/metrics", cfg.MetricsAddr)
	}

	eng, err := engine.New(sugar, reg, store, consensus.NewPlurality(), engCfg)
	if err != nil {
		return err
	}
	pool, err := worker.NewPool(sugar, eng, cfg.NumWorkers)
	if err != nil {
		return err
	}
	coll, err := collector.New(sugar, plan, pool.NumWorkers(), seqWriters, varWriters,
		collector.WithNameDecoration(cfg.NameDecoration),
		collector.WithMetrics(m))
	if err != nil {
		return err
	}

	// All tasks are known up front; a closed, prefilled channel lets the
	// workers drain it and post their sentinels.
	tasks := make(chan windows.Window, len(plan.Tasks))
	for _, t := range plan.Tasks {
		tasks <- t
	}
	close(tasks)
	results := make(chan worker.Result, cfg.ResultsBuffer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pool.Run(gctx, tasks, results) })
	g.Go(func() error { return coll.Run(gctx, results) })
	if cfg.WatchdogInterval > 0 {
		go collector.StartStallWatchdog(gctx, sugar, coll, cfg.WatchdogInterval)
	}

	runErr := g.Wait()
	closeErr := coll.Close()
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			sugar.Infow("run cancelled")
		}
		return runErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed closing outputs: %w", closeErr)
	}

	snap := coll.Snapshot()
	sugar.Infow("run complete",
		"contigsFlushed", snap.ContigsFlushed,
		"basesProcessed", snap.BasesProcessed)
	return nil
}

// openWriters opens every configured sink, closing the already-open ones
// when a later open fails.
func openWriters(cfg *Config, contigs []windows.ContigInfo) ([]collector.SequenceWriter, []collector.VariantWriter, error) {
	var seq []collector.SequenceWriter
	var vars []collector.VariantWriter
	closeAll := func() {
		for _, w := range seq {
			_ = w.Close()
		}
		for _, w := range vars {
			_ = w.Close()
		}
	}

	if cfg.FastaOutput != "" {
		w, err := writers.CreateFasta(cfg.FastaOutput)
		if err != nil {
			return nil, nil, err
		}
		seq = append(seq, w)
	}
	if cfg.FastqOutput != "" {
		w, err := writers.CreateFastq(cfg.FastqOutput)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		seq = append(seq, w)
	}
	if cfg.VCFOutput != "" {
		w, err := writers.CreateVCF(cfg.VCFOutput, writers.VCFConfig{
			Source:        "polisher",
			ReferencePath: cfg.ReferencePath,
			Contigs:       contigs,
			MinConfidence: cfg.MinConfidence,
			MinCoverage:   cfg.MinCoverage,
			Diploid:       cfg.Diploid,
		})
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		vars = append(vars, w)
	}
	if cfg.JSONLOutput != "" {
		w, err := writers.CreateJSONL(cfg.JSONLOutput)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		vars = append(vars, w)
	}
	return seq, vars, nil
}
