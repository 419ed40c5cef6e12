// Command seedtune tunes KNN and MLP classifiers on the seeds dataset and
// reports the selected models on a held-out test split.
//
// Usage:
//
//	seedtune -config seedtune.yaml -data seeds_dataset.txt -strategy bayes -out out
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/YuminosukeSato/seedtune/config"
	"github.com/YuminosukeSato/seedtune/dataset"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
	"github.com/YuminosukeSato/seedtune/pkg/log"
	"github.com/YuminosukeSato/seedtune/report"
	"github.com/YuminosukeSato/seedtune/workflow"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration (defaults are used when empty)")
	dataFile := flag.String("data", "", "Path to the seeds table, overrides data.path")
	strategy := flag.String("strategy", "", "Search strategy (grid|bayes), overrides search.strategy")
	outputDir := flag.String("out", "", "Output directory for artifacts, overrides output")
	logLevel := flag.String("log-level", "", "Log level (debug|info|warn|error), overrides log.level")
	top := flag.Int("top", 5, "Number of configurations shown per model")
	noColor := flag.Bool("no-color", false, "Disable coloured output")
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seedtune: %v\n", err)
		os.Exit(2)
	}
	if *dataFile != "" {
		cfg.Data.Path = *dataFile
	}
	if *strategy != "" {
		cfg.Search.Strategy = *strategy
	}
	if *outputDir != "" {
		cfg.Output = *outputDir
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "seedtune: %v\n", err)
		os.Exit(2)
	}

	closer, err := log.Setup(cfg.LogOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "seedtune: %v\n", err)
		os.Exit(2)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *top); err != nil {
		log.GetLoggerWithName("main").Error("run failed", err)
		fmt.Fprintf(os.Stderr, "seedtune: %v\n", err)
		closer.Close()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func run(ctx context.Context, cfg *config.Config, top int) error {
	ds, err := dataset.LoadFile(cfg.Data.Path, cfg.LoadOptions())
	if err != nil {
		return err
	}

	p := report.NewPrinter(os.Stdout)
	summaries, err := dataset.Describe(ds)
	if err != nil {
		return err
	}
	p.Describe(summaries)
	fmt.Fprintln(p.W)
	p.Balance(dataset.ClassBalance(ds), cfg.Preprocessing.Categories, cfg.Preprocessing.LabelBase)

	res, err := workflow.Run(ctx, cfg, ds)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.Wrap(err, "interrupted")
		}
		return err
	}

	for _, mr := range res.Models {
		best, err := mr.Tuning.ShowBest(cfg.SelectMetric, top)
		if err != nil {
			return err
		}
		fmt.Fprintln(p.W)
		p.Tuning(mr.Name, best)
		fmt.Fprintln(p.W)
		p.Metrics(mr.Name, mr.Report)
		fmt.Fprintln(p.W)
		p.Confusion(mr.Report.Confusion)
	}
	if best := res.Best(); best != nil {
		fmt.Fprintf(p.W, "\nbest model on test %s: %s (%s)\n",
			cfg.SelectMetric, best.Name, best.Best.Params.Key())
	}

	if err := workflow.WriteArtifacts(res, cfg.Output); err != nil {
		return err
	}
	fmt.Fprintf(p.W, "artifacts written to %s (run %s)\n", cfg.Output, res.RunID)
	return nil
}
