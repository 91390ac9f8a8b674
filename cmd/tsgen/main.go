// Command tsgen generates synthetic time series from scenario files and
// writes them to the output directory.
//
//	tsgen -scenario scenarios/retail.yaml -scenario scenarios/seasonal.json -format xlsx
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"tsgen/internal/app"
	"tsgen/internal/config"
	"tsgen/internal/exporter"
	"tsgen/internal/generator"
	"tsgen/internal/infrastructure"
	"tsgen/internal/scenario"
)

// scenarioFlags collects repeated -scenario values.
type scenarioFlags []string

func (s *scenarioFlags) String() string { return strings.Join(*s, ",") }

func (s *scenarioFlags) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type options struct {
	configFile string
	scenarios  scenarioFlags
	outDir     string
	format     string
	seed       int64
	seedSet    bool
	precision  int
	partition  string
	bom        bool
	list       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "tsgen:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("tsgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configFile, "config", "", "config file (defaults to $TSGEN_CONFIG or tsgen.yaml)")
	fs.Var(&opts.scenarios, "scenario", "scenario file (.yaml, .yml or .json); repeatable")
	fs.StringVar(&opts.outDir, "out", "", "output directory (defaults to paths.output_dir)")
	fs.StringVar(&opts.format, "format", "csv", "csv | xlsx | json | arrow")
	fs.Int64Var(&opts.seed, "seed", 0, "random seed, overrides the scenario seed")
	fs.IntVar(&opts.precision, "precision", -2, "decimals in output, -1 for shortest (defaults to generation.precision)")
	fs.StringVar(&opts.partition, "partition", "", "write one file per value of this feature")
	fs.BoolVar(&opts.bom, "bom", false, "prefix CSV output with a UTF-8 byte order mark")
	fs.BoolVar(&opts.list, "list", false, "list the factor kinds and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			opts.seedSet = true
		}
	})
	opts.scenarios = append(opts.scenarios, fs.Args()...)
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	if opts.list {
		for _, kind := range scenario.Kinds() {
			fmt.Fprintln(stdout, kind)
		}
		return nil
	}
	if len(opts.scenarios) == 0 {
		return errors.New("no scenario given; use -scenario FILE")
	}

	format, err := exporter.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		return err
	}
	logger := infrastructure.NewLogger(cfg.Logging, stderr)

	paths, err := cfg.GetPaths()
	if err != nil {
		return err
	}
	if opts.outDir != "" {
		if paths.OutputDir, err = filepath.Abs(opts.outDir); err != nil {
			return err
		}
	}

	precision := cfg.Generation.Precision
	if opts.precision >= -1 {
		precision = opts.precision
	}
	exportOpts := exporter.Options{Precision: precision, BOM: opts.bom}

	var genOpts []generator.Option
	if opts.seedSet {
		genOpts = append(genOpts, generator.WithSeed(opts.seed))
	}

	service := app.NewGenerationService(cfg, paths, nil, logger)
	files := exporter.NewFileExporter(paths, logger)

	// Each scenario gets its own engine and RNG, so runs are independent
	results := make([][]string, len(opts.scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Generation.Workers)
	for i, path := range opts.scenarios {
		g.Go(func() error {
			doc, err := scenario.LoadFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			run, err := service.Generate(gctx, doc, genOpts...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			if opts.partition != "" {
				written, err := files.ExportPartitions(gctx, doc.Name, opts.partition, format, run.Table, exportOpts)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				results[i] = written
				return nil
			}

			written, err := service.Export(gctx, run, format, exportOpts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = []string{written}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, written := range results {
		for _, path := range written {
			fmt.Fprintln(stdout, path)
		}
	}
	logger.InfoContext(ctx, "Generation finished",
		slog.Int("scenarios", len(opts.scenarios)),
		slog.String("output_dir", paths.OutputDir))
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
