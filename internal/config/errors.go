package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and let callers use
// errors.Is() while still printing a human-readable message.
var (
	// ErrNoInput is returned when neither archives nor a directory to
	// search for archives is configured.
	ErrNoInput = errors.New("no input specified: provide archive paths or use --dir")

	// ErrInvalidSampleCap is returned when the sample cap is negative.
	// Use 0 to analyze every record.
	ErrInvalidSampleCap = errors.New("invalid sample cap: must be non-negative")

	// ErrInvalidPoolFactor is returned when the pool factor is less than 1.
	ErrInvalidPoolFactor = errors.New("invalid pool factor: must be at least 1")

	// ErrInvalidExampleCount is returned when an example count is negative.
	ErrInvalidExampleCount = errors.New("invalid example count: must be non-negative")

	// ErrInvalidContextWidth is returned when the context width is negative.
	ErrInvalidContextWidth = errors.New("invalid context width: must be non-negative")

	// ErrInvalidMinChars is returned when the classifier minimum is negative.
	ErrInvalidMinChars = errors.New("invalid minimum characters: must be non-negative")

	// ErrInvalidSnippetLength is returned when the snippet length is negative.
	ErrInvalidSnippetLength = errors.New("invalid snippet length: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidMaxSize is returned when a payload or text limit is not positive.
	ErrInvalidMaxSize = errors.New("invalid size limit: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidPattern is returned when a pattern override names an unknown
	// category or does not compile.
	ErrInvalidPattern = errors.New("invalid detection pattern")

	// ErrInvalidEnv is returned when a WARCSCAN_* variable cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment variable")
)
