package model

import (
	"time"

	"github.com/google/uuid"
)

// Report is the structured result of one analysis run. It is handed to a
// report writer for presentation and, stripped of examples, to the run
// history store.
type Report struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Seed is the effective random seed. Replaying a run with the same
	// seed over the same input yields the same examples.
	Seed uint64 `json:"seed"`

	// Sources names the archives that were read.
	Sources []string `json:"sources"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// RecordsSeen counts every record pulled from the source.
	RecordsSeen int `json:"records_seen"`

	// NotText counts records skipped because their payload is not text.
	NotText int `json:"not_text"`

	// EmptyText counts records whose normalized text was empty.
	EmptyText int `json:"empty_text"`

	// DuplicatePayloads counts records byte-identical to an earlier record.
	DuplicatePayloads int `json:"duplicate_payloads"`

	// Failed counts records on which a pipeline step returned an error.
	Failed int `json:"failed"`

	// Counters holds the exhaustive per-category match counts.
	Counters PIICounters `json:"counters"`

	// Examples holds the retained matches per category for review.
	Examples map[Category][]PIIMatch `json:"examples"`

	// Languages is the exhaustive language distribution.
	Languages LanguageDistribution `json:"languages"`

	// LanguageSamples holds the retained classification samples for review.
	LanguageSamples []LanguageSample `json:"language_samples"`

	// Stats holds statistics derived from Languages.
	Stats Stats `json:"stats"`
}

// Stats are statistics derived from the aggregate state of a run.
type Stats struct {
	// EnglishPercent is the share of determinate samples classified "en".
	EnglishPercent float64 `json:"english_percent"`

	// MeanConfidence is the mean confidence over all classified records.
	MeanConfidence float64 `json:"mean_confidence"`

	// DeterminateSamples is the denominator of EnglishPercent.
	DeterminateSamples int `json:"determinate_samples"`
}

// NewReport creates a Report with a fresh run ID.
func NewReport(seed uint64, sources []string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Seed:      seed,
		Sources:   sources,
		StartedAt: time.Now(),
		Examples:  make(map[Category][]PIIMatch),
		Languages: NewLanguageDistribution(),
	}
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Analyzed returns the number of records with a textual payload.
func (r *Report) Analyzed() int {
	return r.RecordsSeen - r.NotText
}
