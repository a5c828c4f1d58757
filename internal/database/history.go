package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/warcscan/internal/model"
)

// FileName is the name of the history database inside its directory.
const FileName = "history.db"

// storedTimeFormat has a fixed width so that stored times sort as text.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z"

var (
	// ErrRunNotFound is returned when no stored run matches an ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrAmbiguousRunID is returned when an ID prefix matches several runs.
	ErrAmbiguousRunID = errors.New("ambiguous run ID prefix")
)

// HistoryDB stores aggregate statistics of past runs in SQLite.
//
// Only counters, distributions and derived statistics are stored. Matched
// text, context windows, snippets and URLs of individual records never reach
// the database.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run a scan first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		seed TEXT NOT NULL,
		sources TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		records_seen INTEGER NOT NULL,
		not_text INTEGER NOT NULL,
		empty_text INTEGER NOT NULL,
		duplicate_payloads INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		email_count INTEGER NOT NULL,
		phone_count INTEGER NOT NULL,
		ip_count INTEGER NOT NULL,
		languages TEXT NOT NULL,
		english_percent REAL NOT NULL,
		mean_confidence REAL NOT NULL,
		determinate_samples INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunSummary is the stored form of one run.
type RunSummary struct {
	RunID             string                     `json:"run_id"`
	Seed              uint64                     `json:"seed"`
	Sources           []string                   `json:"sources"`
	StartedAt         time.Time                  `json:"started_at"`
	FinishedAt        time.Time                  `json:"finished_at"`
	RecordsSeen       int                        `json:"records_seen"`
	NotText           int                        `json:"not_text"`
	EmptyText         int                        `json:"empty_text"`
	DuplicatePayloads int                        `json:"duplicate_payloads"`
	Failed            int                        `json:"failed"`
	Counters          model.PIICounters          `json:"counters"`
	Languages         model.LanguageDistribution `json:"languages"`
	Stats             model.Stats                `json:"stats"`
}

// NewRunSummary strips a report down to what the history stores.
func NewRunSummary(report *model.Report) *RunSummary {
	return &RunSummary{
		RunID:             report.RunID,
		Seed:              report.Seed,
		Sources:           append([]string(nil), report.Sources...),
		StartedAt:         report.StartedAt,
		FinishedAt:        report.FinishedAt,
		RecordsSeen:       report.RecordsSeen,
		NotText:           report.NotText,
		EmptyText:         report.EmptyText,
		DuplicatePayloads: report.DuplicatePayloads,
		Failed:            report.Failed,
		Counters:          report.Counters,
		Languages:         report.Languages.Clone(),
		Stats:             report.Stats,
	}
}

// Duration returns how long the run took.
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// SaveRun stores the aggregate statistics of report.
func (hdb *HistoryDB) SaveRun(ctx context.Context, report *model.Report) error {
	s := NewRunSummary(report)

	sourcesJSON, err := json.Marshal(s.Sources)
	if err != nil {
		return fmt.Errorf("failed to serialize sources: %w", err)
	}
	languagesJSON, err := json.Marshal(s.Languages)
	if err != nil {
		return fmt.Errorf("failed to serialize languages: %w", err)
	}

	query := `
	INSERT INTO runs (
		run_id, seed, sources, started_at, finished_at,
		records_seen, not_text, empty_text, duplicate_payloads, failed,
		email_count, phone_count, ip_count,
		languages, english_percent, mean_confidence, determinate_samples
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	// The seed is stored as text; SQLite integers are signed.
	_, err = hdb.db.ExecContext(ctx, query,
		s.RunID,
		fmt.Sprintf("%d", s.Seed),
		string(sourcesJSON),
		s.StartedAt.UTC().Format(storedTimeFormat),
		s.FinishedAt.UTC().Format(storedTimeFormat),
		s.RecordsSeen,
		s.NotText,
		s.EmptyText,
		s.DuplicatePayloads,
		s.Failed,
		s.Counters.Email,
		s.Counters.Phone,
		s.Counters.IP,
		string(languagesJSON),
		s.Stats.EnglishPercent,
		s.Stats.MeanConfidence,
		s.Stats.DeterminateSamples,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

const selectRuns = `
	SELECT run_id, seed, sources, started_at, finished_at,
		records_seen, not_text, empty_text, duplicate_payloads, failed,
		email_count, phone_count, ip_count,
		languages, english_percent, mean_confidence, determinate_samples
	FROM runs
`

// ListRuns returns the most recent runs, newest first. A limit of zero or
// less returns every run.
func (hdb *HistoryDB) ListRuns(ctx context.Context, limit int) ([]*RunSummary, error) {
	query := selectRuns + " ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []*RunSummary
	for rows.Next() {
		s, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, s)
	}
	return results, rows.Err()
}

// GetRun returns the run with the given ID. A unique prefix of an ID is
// accepted as well.
func (hdb *HistoryDB) GetRun(ctx context.Context, id string) (*RunSummary, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty ID", ErrRunNotFound)
	}

	// Escape LIKE wildcards so the prefix matches literally.
	pattern := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(id) + "%"
	rows, err := hdb.db.QueryContext(ctx, selectRuns+` WHERE run_id LIKE ? ESCAPE '\' LIMIT 2`, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	defer rows.Close()

	var found []*RunSummary
	for rows.Next() {
		s, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		if s.RunID == id {
			return s, nil
		}
		found = append(found, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRunID, id)
	}
}

// scanRun reads one row of selectRuns.
func scanRun(rows *sql.Rows) (*RunSummary, error) {
	var (
		s                        RunSummary
		seed, sources, languages string
		startedAt, finishedAt    string
	)
	if err := rows.Scan(
		&s.RunID, &seed, &sources, &startedAt, &finishedAt,
		&s.RecordsSeen, &s.NotText, &s.EmptyText, &s.DuplicatePayloads, &s.Failed,
		&s.Counters.Email, &s.Counters.Phone, &s.Counters.IP,
		&languages, &s.Stats.EnglishPercent, &s.Stats.MeanConfidence, &s.Stats.DeterminateSamples,
	); err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if _, err := fmt.Sscan(seed, &s.Seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed of run %s: %w", s.RunID, err)
	}
	if err := json.Unmarshal([]byte(sources), &s.Sources); err != nil {
		return nil, fmt.Errorf("failed to parse sources of run %s: %w", s.RunID, err)
	}
	s.Languages = model.NewLanguageDistribution()
	if err := json.Unmarshal([]byte(languages), &s.Languages); err != nil {
		return nil, fmt.Errorf("failed to parse languages of run %s: %w", s.RunID, err)
	}
	s.StartedAt = parseTimestamp(startedAt)
	s.FinishedAt = parseTimestamp(finishedAt)
	return &s, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // Format written by SaveRun
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
