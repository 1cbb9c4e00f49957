package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"platformflow.org/internal/app"
	"platformflow.org/internal/config"
	"platformflow.org/internal/logging"
)

// options holds the command-line settings. They override or complement the run config file.
type options struct {
	configPath string
	outPath    string
	seed       uint64
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts options

	flags := flag.NewFlagSet("platformflow", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&opts.configPath, "config", "platformflow.yml", "Path to the run config (YAML)")
	flags.StringVar(&opts.outPath, "out", "-", "Output file for the JSON report, - for stdout")
	flags.Uint64Var(&opts.seed, "seed", 0, "Random seed, overrides the config when non-zero")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	level, err := logging.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	logger := logging.NewStructuredLogger(stderr, level)
	ctx = logging.WithLogger(ctx, logger)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		logging.LogError(logger, "failed to load config", err, slog.String("path", opts.configPath))
		return err
	}
	if opts.seed != 0 {
		cfg.Seed = opts.seed
	}

	logger.Info("starting run",
		slog.String("config", opts.configPath),
		slog.Int("lines", len(cfg.Lines)),
		slog.Uint64("seed", cfg.Seed))

	reports, err := app.New(cfg, nil).Run(ctx)
	if err != nil {
		return err
	}

	return writeReports(opts.outPath, stdout, reports, logger)
}

func writeReports(path string, stdout io.Writer, reports []app.LineReport, logger *slog.Logger) (err error) {
	out := stdout
	if path != "-" {
		var f *os.File
		f, err = os.Create(path)
		if err != nil {
			return fmt.Errorf("error creating output: %w", err)
		}
		defer logging.HandleDeferredError(&err, f.Close, logger, "close_output")
		out = f
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(reports); err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}

	logging.LogOperation(logger, "report_written", slog.String("out", path), slog.Int("lines", len(reports)))
	return nil
}
