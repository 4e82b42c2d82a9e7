package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sydlexius/melisma/internal/collector"
)

// runCollect drives a batch ingestion run from the command line.
func runCollect(args []string) error {
	fs := flag.NewFlagSet("collect", flag.ExitOnError)
	follow := fs.Bool("follow", false, "queue related artists discovered during the run")
	maxArtists := fs.Int("max", 0, "cap the number of artists processed (0 = no cap)")
	reset := fs.Bool("reset", false, "discard saved progress before starting")
	similar := fs.Bool("similar", false, "ingest from the similarity source instead of registry relations")
	seedsPath := fs.String("seeds", "", "path to a newline-separated seed artist list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := collector.BatchOptions{
		Follow:       *follow,
		Max:          *maxArtists,
		Reset:        *reset,
		Similar:      *similar,
		Pace:         a.cfg.Collector.Pace(),
		ProgressPath: a.cfg.Collector.ProgressPath,
	}

	path := *seedsPath
	if path == "" {
		path = a.cfg.Collector.SeedsPath
	}
	if path != "" {
		seeds, err := collector.LoadSeeds(path)
		if err != nil {
			return err
		}
		opts.Seeds = seeds
	}

	fmt.Printf("Collecting from %v\n", collector.ProviderSources(*similar))
	summary, err := a.collector.RunBatch(ctx, opts)
	if err != nil {
		return err
	}
	fmt.Print(collector.FormatSummary(summary))

	if summary.Failed > 0 {
		return fmt.Errorf("%d artists failed", summary.Failed)
	}
	return nil
}

// runRebuild re-fetches relations for every stored artist and reconciles
// them against the graph.
func runRebuild(args []string) error {
	fs := flag.NewFlagSet("rebuild-relations", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "report what would change without writing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := a.collector.RebuildRelations(ctx, *dryRun, a.cfg.Collector.Pace())
	if err != nil {
		return err
	}

	mode := ""
	if *dryRun {
		mode = " (dry run)"
	}
	fmt.Printf("Rebuilt relations for %d of %d artists%s\n", result.Fetched, result.Scanned, mode)
	fmt.Printf("  created:  %d\n", result.Created)
	fmt.Printf("  existing: %d\n", result.Existing)
	fmt.Printf("  skipped:  %d\n", result.Skipped)
	for _, msg := range result.Errors {
		fmt.Printf("  error: %s\n", msg)
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("%d artists failed", len(result.Errors))
	}
	return nil
}
