package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/warcscan/internal/config"
	"github.com/nao1215/warcscan/internal/database"
	"github.com/nao1215/warcscan/internal/model"
)

// historyTimeLayout is the layout of timestamps in history listings.
const historyTimeLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
// It lists the aggregate statistics of past runs stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show statistics of past runs",
		Long: `History lists past runs stored in the history database, newest first.

Only aggregate statistics are stored: record counts, per-category PII
counts, the language distribution and the seed. Use the seed and the listed
sources to replay a run.

Examples:
  # List the 20 most recent runs
  warcscan history

  # List every run as JSON
  warcscan history --limit 0 --json

  # Show one run (an unambiguous ID prefix is enough)
  warcscan history show 3f2a9c`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.PersistentFlags().String("db-dir", "",
		"History database directory (default: XDG data directory)")
	cmd.PersistentFlags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().IntP("limit", "l", 20,
		"Maximum number of runs listed (0 lists all)")

	cmd.AddCommand(newHistoryShowCmd())

	return cmd
}

// newHistoryShowCmd creates the history show subcommand.
func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the statistics of one run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShowCmd,
	}
}

// resolveDBDir returns the history directory from the flag, the
// configuration file or the environment, in that order of priority.
func resolveDBDir(cmd *cobra.Command) (string, error) {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return "", err
	}
	if dir != "" {
		return dir, nil
	}

	cfg := config.NewConfig()
	if path := config.FindConfigFile(""); path != "" {
		file, err := config.LoadConfigFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		file.Apply(cfg)
	}
	if err := config.LoadDotEnv(config.DefaultEnvFile); err != nil {
		return "", err
	}
	if err := config.ApplyEnv(cfg, nil); err != nil {
		return "", err
	}
	return cfg.DBDir, nil
}

// openHistory opens the existing history database.
func openHistory(cmd *cobra.Command) (*database.HistoryDB, error) {
	dir, err := resolveDBDir(cmd)
	if err != nil {
		return nil, err
	}
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return db, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, runs)
	}
	writeRunList(out, runs)
	return nil
}

// runHistoryShowCmd executes the history show command.
func runHistoryShowCmd(cmd *cobra.Command, args []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := lookupRun(cmd.Context(), db, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, run)
	}
	writeRunDetail(out, run)
	return nil
}

// lookupRun fetches a run by ID or ID prefix.
func lookupRun(ctx context.Context, db *database.HistoryDB, id string) (*database.RunSummary, error) {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// writeJSON writes v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// shortID returns the leading part of a run ID shown in listings.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// writeRunList prints one line per run.
func writeRunList(out io.Writer, runs []*database.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found in the history.")
		fmt.Fprintln(out, "\nUse 'warcscan scan <archive>' to analyze an archive.")
		return
	}

	fmt.Fprintf(out, "Run history (%d runs):\n\n", len(runs))
	fmt.Fprintf(out, "  %-8s  %-19s  %8s  %6s  %6s  %6s  %6s\n",
		"ID", "Started", "Records", "EMAIL", "PHONE", "IP", "en %")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 72))

	for _, run := range runs {
		fmt.Fprintf(out, "  %-8s  %-19s  %8d  %6d  %6d  %6d  %6.2f\n",
			shortID(run.RunID),
			run.StartedAt.Local().Format(historyTimeLayout),
			run.RecordsSeen,
			run.Counters.Get(model.CategoryEmail),
			run.Counters.Get(model.CategoryPhone),
			run.Counters.Get(model.CategoryIP),
			run.Stats.EnglishPercent,
		)
	}

	fmt.Fprintln(out, "\nUse 'warcscan history show <id>' to see the details of a run.")
}

// writeRunDetail prints every stored statistic of a run.
func writeRunDetail(out io.Writer, run *database.RunSummary) {
	fmt.Fprintf(out, "Run:        %s\n", run.RunID)
	fmt.Fprintf(out, "Seed:       %d\n", run.Seed)
	fmt.Fprintf(out, "Started:    %s\n", run.StartedAt.Local().Format(historyTimeLayout))
	fmt.Fprintf(out, "Duration:   %s\n", run.Duration())
	fmt.Fprintln(out, "Sources:")
	for _, src := range run.Sources {
		fmt.Fprintf(out, "  - %s\n", src)
	}

	fmt.Fprintln(out, "\nRecords:")
	fmt.Fprintf(out, "  seen:       %d\n", run.RecordsSeen)
	fmt.Fprintf(out, "  not text:   %d\n", run.NotText)
	fmt.Fprintf(out, "  empty text: %d\n", run.EmptyText)
	fmt.Fprintf(out, "  duplicates: %d\n", run.DuplicatePayloads)
	fmt.Fprintf(out, "  failed:     %d\n", run.Failed)

	fmt.Fprintln(out, "\nPII:")
	for _, category := range model.Categories {
		fmt.Fprintf(out, "  %-6s %d\n", category.String(), run.Counters.Get(category))
	}

	fmt.Fprintln(out, "\nLanguages:")
	rows := run.Languages.Sorted()
	if len(rows) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, row := range rows {
		fmt.Fprintf(out, "  %-8s %6d  %6.2f%%\n", row.Code, row.Count, row.Percent)
	}
	fmt.Fprintf(out, "\nEnglish:            %.2f%% of %d determinate samples\n",
		run.Stats.EnglishPercent, run.Stats.DeterminateSamples)
	fmt.Fprintf(out, "Average confidence: %.3f\n", run.Stats.MeanConfidence)
}
