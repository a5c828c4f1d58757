package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "warcscan"

	// DefaultSampleCap is the number of records analyzed per run.
	// Zero analyzes every record.
	DefaultSampleCap = 100

	// DefaultPoolFactor reads factor*cap records and keeps a uniform random
	// subset of cap of them. A factor of 1 analyzes the first records.
	DefaultPoolFactor = 5

	// DefaultExamplesPerCategory is the number of PII matches kept per
	// category for manual review.
	DefaultExamplesPerCategory = 20

	// DefaultLanguageExamples is the number of language samples kept for
	// manual review.
	DefaultLanguageExamples = 20

	// DefaultContextWidth is the number of characters shown on each side of
	// a match.
	DefaultContextWidth = 50

	// DefaultMinChars is the shortest text handed to the language
	// classifier. Shorter text is classified as unknown.
	DefaultMinChars = 10

	// DefaultSnippetLength is the length of the text shown with each
	// language sample.
	DefaultSnippetLength = 200

	// DefaultBatchSize of 1 reads all archives as one sequential stream.
	DefaultBatchSize = 1

	// DefaultMaxPayloadSize limits how much of a record payload is read.
	DefaultMaxPayloadSize = 5 * 1024 * 1024 // 5MB

	// DefaultMaxTextSize limits the normalized text of one record.
	DefaultMaxTextSize = 1024 * 1024 // 1MB

	// DefaultArchiveDir is where archives are discovered when none are
	// given on the command line.
	DefaultArchiveDir = "."
)

// Config holds all configuration options for warcscan.
// It is built from defaults, then overlaid by the configuration file, the
// environment and finally the command-line flags.
type Config struct {
	// Archives lists the WARC files to read, in order.
	Archives []string

	// ArchiveDir is searched recursively for archives when Archives is empty.
	ArchiveDir string

	// SampleCap is the maximum number of records analyzed.
	// Zero analyzes every record. In batch mode the cap applies per archive.
	SampleCap int

	// PoolFactor controls how the analyzed records are chosen.
	// 1 takes the first SampleCap records; n reads n*SampleCap records and
	// keeps a uniform random subset.
	PoolFactor int

	// ExamplesPerCategory is the number of PII matches kept per category.
	ExamplesPerCategory int

	// LanguageExamples is the number of language samples kept.
	LanguageExamples int

	// Seed fixes the random seed when HasSeed is true. Otherwise a fresh
	// seed is drawn and reported.
	Seed    uint64
	HasSeed bool

	// ContextWidth is the number of characters kept on each side of a match.
	ContextWidth int

	// Patterns overrides the detection regular expression of a category,
	// keyed by category name (EMAIL, PHONE, IP).
	Patterns map[string]string

	// MinChars is the shortest text the language classifier is given.
	MinChars int

	// SnippetLength is the length of the text shown with language samples.
	SnippetLength int

	// MaxPayloadSize is the maximum number of payload bytes read per record.
	MaxPayloadSize int64

	// MaxTextSize is the maximum size of normalized text per record.
	MaxTextSize int

	// BatchSize is the number of archives analyzed concurrently.
	// 1 disables batch mode.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .warcscan in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// DBDir is the directory of the run history database.
	// Defaults to the XDG data directory (~/.local/share/warcscan on Linux).
	DBDir string

	// SaveHistory stores the aggregate statistics of each run.
	SaveHistory bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		ArchiveDir:          DefaultArchiveDir,
		SampleCap:           DefaultSampleCap,
		PoolFactor:          DefaultPoolFactor,
		ExamplesPerCategory: DefaultExamplesPerCategory,
		LanguageExamples:    DefaultLanguageExamples,
		ContextWidth:        DefaultContextWidth,
		Patterns:            make(map[string]string),
		MinChars:            DefaultMinChars,
		SnippetLength:       DefaultSnippetLength,
		MaxPayloadSize:      DefaultMaxPayloadSize,
		MaxTextSize:         DefaultMaxTextSize,
		BatchSize:           DefaultBatchSize,
		DBDir:               XDGDataDir(),
		SaveHistory:         true,
	}
}

// SetSeed fixes the random seed.
func (c *Config) SetSeed(seed uint64) {
	c.Seed = seed
	c.HasSeed = true
}

// XDGDataDir returns the XDG data directory for warcscan.
// On Linux: ~/.local/share/warcscan
// On macOS: ~/Library/Application Support/warcscan
// On Windows: %LOCALAPPDATA%\warcscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for warcscan.
// On Linux: ~/.config/warcscan
// On macOS: ~/Library/Application Support/warcscan
// On Windows: %APPDATA%\warcscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error, so callers can
// use errors.Is, and is called once before any archive is opened.
func (c *Config) Validate() error {
	if len(c.Archives) == 0 && c.ArchiveDir == "" {
		return ErrNoInput
	}
	if c.SampleCap < 0 {
		return ErrInvalidSampleCap
	}
	if c.PoolFactor < 1 {
		return ErrInvalidPoolFactor
	}
	if c.ExamplesPerCategory < 0 || c.LanguageExamples < 0 {
		return ErrInvalidExampleCount
	}
	if c.ContextWidth < 0 {
		return ErrInvalidContextWidth
	}
	if c.MinChars < 0 {
		return ErrInvalidMinChars
	}
	if c.SnippetLength < 0 {
		return ErrInvalidSnippetLength
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.MaxPayloadSize <= 0 || c.MaxTextSize <= 0 {
		return ErrInvalidMaxSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return c.validatePatterns()
}
