package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/warcscan/internal/config"
	"github.com/nao1215/warcscan/internal/database"
	"github.com/nao1215/warcscan/internal/langid"
	"github.com/nao1215/warcscan/internal/log"
	"github.com/nao1215/warcscan/internal/model"
	"github.com/nao1215/warcscan/internal/normalize"
	"github.com/nao1215/warcscan/internal/pii"
	"github.com/nao1215/warcscan/internal/pipeline"
	"github.com/nao1215/warcscan/internal/report"
	"github.com/nao1215/warcscan/internal/warc"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [archive...]",
		Short: "Audit WARC archives for PII and language distribution",
		Long: `Scan reads WARC archives, samples records and audits their text.

For every sampled record with a text payload it:
- Extracts the visible text (HTML markup, scripts and styles are dropped)
- Masks e-mail addresses, phone numbers and IP addresses
- Identifies the language

Arguments may be archive files (.warc, .warc.gz) or directories, which are
searched recursively. Without arguments, --dir is searched.

Examples:
  # Audit 100 records drawn at random from the first 500 of an archive
  warcscan scan crawl-00001.warc.gz

  # Audit the first 100 records, in order
  warcscan scan --pool 1 crawl-00001.warc.gz

  # Audit 500 records drawn at random from the first 5000, reproducibly
  warcscan scan --samples 500 --pool 10 --seed 42 ./crawl

  # Analyze four archives at a time and write a Markdown report
  warcscan scan --batch 4 --markdown -o report.md ./crawl

  # Analyze every record and emit JSON
  warcscan scan --samples 0 --json crawl-00001.warc.gz`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Input flags
	cmd.Flags().StringP("dir", "d", config.DefaultArchiveDir,
		"Directory searched for archives when none are given")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of archives analyzed concurrently (sample cap applies per archive)")

	// Sampling flags
	cmd.Flags().IntP("samples", "n", config.DefaultSampleCap,
		"Number of records analyzed (0 analyzes every record)")
	cmd.Flags().Int("pool", config.DefaultPoolFactor,
		"Read pool*samples records and keep a uniform random subset (1 keeps the first records)")
	cmd.Flags().IntP("examples", "x", config.DefaultExamplesPerCategory,
		"Masked examples shown per category")
	cmd.Flags().Int("language-examples", config.DefaultLanguageExamples,
		"Language samples shown")
	cmd.Flags().Uint64("seed", 0,
		"Random seed (default: drawn per run and printed in the report)")

	// Detection flags
	cmd.Flags().Int("context", config.DefaultContextWidth,
		"Characters of context shown on each side of a match")
	cmd.Flags().Int("min-chars", config.DefaultMinChars,
		"Shortest text handed to the language classifier")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .warcscan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-history", false,
		"Do not save run statistics to the history database")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	detector, err := newDetector(cfg)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose, log.WithMasker(detector.MaskString))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cfg, detector, cmd.OutOrStdout(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the configuration file, the
// environment and finally the flags the user set explicitly.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly named file must exist; a missing default file is fine.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if err := config.LoadDotEnv(config.DefaultEnvFile); err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg, nil); err != nil {
		return nil, err
	}

	intFlags := []struct {
		name string
		dst  *int
	}{
		{"batch", &cfg.BatchSize},
		{"samples", &cfg.SampleCap},
		{"pool", &cfg.PoolFactor},
		{"examples", &cfg.ExamplesPerCategory},
		{"language-examples", &cfg.LanguageExamples},
		{"context", &cfg.ContextWidth},
		{"min-chars", &cfg.MinChars},
	}
	for _, f := range intFlags {
		if !flags.Changed(f.name) {
			continue
		}
		if *f.dst, err = flags.GetInt(f.name); err != nil {
			return nil, err
		}
	}

	if flags.Changed("dir") {
		if cfg.ArchiveDir, err = flags.GetString("dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("seed") {
		seed, err := flags.GetUint64("seed")
		if err != nil {
			return nil, err
		}
		cfg.SetSeed(seed)
	}
	if flags.Changed("no-history") {
		noHistory, err := flags.GetBool("no-history")
		if err != nil {
			return nil, err
		}
		cfg.SaveHistory = !noHistory
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Archives = args

	return cfg, nil
}

// newDetector builds the PII detector from the configuration.
func newDetector(cfg *config.Config) (*pii.Detector, error) {
	patterns, err := cfg.DetectorPatterns()
	if err != nil {
		return nil, err
	}
	opts := []pii.Option{pii.WithContextWidth(cfg.ContextWidth)}
	for _, category := range model.Categories {
		if expr, ok := patterns[category]; ok {
			opts = append(opts, pii.WithPattern(category, expr))
		}
	}
	return pii.New(opts...)
}

// newRunner builds the record runner from the configuration.
func newRunner(cfg *config.Config, detector *pii.Detector, logger *slog.Logger) *pipeline.Runner {
	adapter := langid.NewAdapter(
		langid.NewWhatlangClassifier(),
		langid.WithMinChars(cfg.MinChars),
		langid.WithSnippetLength(cfg.SnippetLength),
		langid.WithLogger(logger),
	)

	opts := []pipeline.RunnerOption{
		pipeline.WithNormalizer(normalize.New(normalize.WithMaxTextSize(cfg.MaxTextSize))),
		pipeline.WithDetector(detector),
		pipeline.WithAdapter(adapter),
		pipeline.WithRunnerLogger(logger),
		pipeline.WithSampleCap(cfg.SampleCap),
		pipeline.WithPoolFactor(cfg.PoolFactor),
		pipeline.WithExamples(cfg.ExamplesPerCategory, cfg.LanguageExamples),
	}
	if cfg.HasSeed {
		opts = append(opts, pipeline.WithSeed(cfg.Seed))
	}
	if cfg.Verbose {
		opts = append(opts, pipeline.WithProgressEvery(1000))
	}
	return pipeline.NewRunner(opts...)
}

// resolveArchives returns the archives to read, in order.
func resolveArchives(cfg *config.Config) ([]string, error) {
	if len(cfg.Archives) > 0 {
		return warc.ExpandPaths(cfg.Archives)
	}
	return warc.FindArchives(cfg.ArchiveDir)
}

// runScan analyzes the configured archives and writes the report.
func runScan(ctx context.Context, cfg *config.Config, detector *pii.Detector, stdout io.Writer, logger *slog.Logger) error {
	paths, err := resolveArchives(cfg)
	if err != nil {
		return err
	}

	logger.Info("starting scan",
		"archives", len(paths),
		"samples", cfg.SampleCap,
		"pool", cfg.PoolFactor,
		"batch", cfg.BatchSize,
		"saveHistory", cfg.SaveHistory,
	)

	readerOpts := []warc.ReaderOption{
		warc.WithMaxPayloadSize(cfg.MaxPayloadSize),
		warc.WithReaderLogger(logger),
	}
	runner := newRunner(cfg, detector, logger)

	startTime := time.Now()
	var scanReport *model.Report
	if cfg.BatchSize > 1 && len(paths) > 1 {
		bp := pipeline.NewBatchProcessor(runner,
			pipeline.WithConcurrency(cfg.BatchSize),
			pipeline.WithBatchLogger(logger),
			pipeline.WithSourceFactory(func(path string) (model.RecordSource, error) {
				return warc.NewMultiSource([]string{path}, readerOpts...), nil
			}),
		)
		scanReport, err = bp.Process(ctx, paths)
	} else {
		src := warc.NewMultiSource(paths, readerOpts...)
		scanReport, err = runner.Run(ctx, src)
		if closeErr := src.Close(); closeErr != nil {
			logger.Warn("failed to close archive", "error", closeErr)
		}
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	logger.Info("scan complete", "elapsed", time.Since(startTime).Round(time.Millisecond))

	if err := outputReport(cfg, stdout, scanReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.SaveHistory {
		if err := saveRun(ctx, cfg.DBDir, scanReport, logger); err != nil {
			// The report is already out; a history failure only warrants a warning.
			logger.Warn("failed to save run history", "error", err)
		}
	}
	return nil
}

// reportWriter returns the writer for the configured format.
func reportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// outputReport writes the report to the configured file or to stdout.
func outputReport(cfg *config.Config, stdout io.Writer, scanReport *model.Report) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports contain the original text around every match, so only the
		// owner may read them.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	_, err := reportWriter(cfg, output).Write(scanReport)
	return err
}

// saveRun stores the aggregate statistics of a run.
func saveRun(ctx context.Context, dbDir string, scanReport *model.Report, logger *slog.Logger) error {
	if dbDir == "" {
		return errors.New("no history directory configured")
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SaveRun(ctx, scanReport); err != nil {
		return err
	}

	logger.Info("run saved to history", "run_id", scanReport.RunID, "db", db.Path())
	return nil
}
