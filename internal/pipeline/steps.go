package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/warcscan/internal/aggregate"
	"github.com/nao1215/warcscan/internal/langid"
	"github.com/nao1215/warcscan/internal/model"
	"github.com/nao1215/warcscan/internal/normalize"
	"github.com/nao1215/warcscan/internal/pii"
	"github.com/nao1215/warcscan/internal/sampler"
)

// TextNormalizer turns a record payload into text.
type TextNormalizer interface {
	Normalize(rec *model.Record) (*model.NormalizedText, error)
}

// NormalizeStep decodes the record payload into text. Records that are
// not text are flagged and end the pipeline for that record. Records whose
// payload cannot be decoded end it too, without being counted anywhere.
type NormalizeStep struct {
	normalizer TextNormalizer
	logger     *slog.Logger
}

// NewNormalizeStep creates a normalize step.
func NewNormalizeStep(normalizer TextNormalizer, logger *slog.Logger) *NormalizeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &NormalizeStep{normalizer: normalizer, logger: logger}
}

// Name returns the step name.
func (s *NormalizeStep) Name() string {
	return "normalize"
}

// Do executes the normalize step.
func (s *NormalizeStep) Do(_ context.Context, state *RecordState) error {
	text, err := s.normalizer.Normalize(state.Record)
	if errors.Is(err, normalize.ErrNotText) {
		s.logger.Debug("skipping non-text record",
			"url", state.URL(),
			"content_type", state.Record.ContentType,
		)
		state.NotText = true
		return nil
	}
	if errors.Is(err, normalize.ErrUndecodable) {
		s.logger.Warn("skipping undecodable record",
			"url", state.URL(),
			"error", err,
		)
		state.Skipped = true
		return nil
	}
	if err != nil {
		return err
	}
	state.Text = text
	return nil
}

// DetectPIIStep masks PII in the normalized text.
type DetectPIIStep struct {
	detector *pii.Detector
}

// NewDetectPIIStep creates a PII detection step.
func NewDetectPIIStep(detector *pii.Detector) *DetectPIIStep {
	return &DetectPIIStep{detector: detector}
}

// Name returns the step name.
func (s *DetectPIIStep) Name() string {
	return "detect_pii"
}

// Do executes the PII detection step.
func (s *DetectPIIStep) Do(_ context.Context, state *RecordState) error {
	state.Masked, state.Matches = s.detector.Mask(state.URL(), state.text())
	return nil
}

// ClassifyLanguageStep identifies the language of the normalized text.
// The sample snippet is cut from the masked text.
type ClassifyLanguageStep struct {
	adapter *langid.Adapter
}

// NewClassifyLanguageStep creates a language classification step.
func NewClassifyLanguageStep(adapter *langid.Adapter) *ClassifyLanguageStep {
	return &ClassifyLanguageStep{adapter: adapter}
}

// Name returns the step name.
func (s *ClassifyLanguageStep) Name() string {
	return "classify_language"
}

// Do executes the language classification step.
func (s *ClassifyLanguageStep) Do(_ context.Context, state *RecordState) error {
	state.Language = s.adapter.Sample(state.URL(), state.text(), state.Masked)
	return nil
}

// AggregateStep adds the record's matches and language to the run totals.
type AggregateStep struct {
	aggregator *aggregate.Aggregator
}

// NewAggregateStep creates an aggregation step.
func NewAggregateStep(aggregator *aggregate.Aggregator) *AggregateStep {
	return &AggregateStep{aggregator: aggregator}
}

// Name returns the step name.
func (s *AggregateStep) Name() string {
	return "aggregate"
}

// Do executes the aggregation step.
func (s *AggregateStep) Do(_ context.Context, state *RecordState) error {
	s.aggregator.ObserveMatches(state.Matches)
	s.aggregator.ObserveLanguage(state.Language, state.Text != nil && state.Text.IsEmpty())
	return nil
}

// SampleStep offers the record's matches and language sample to the
// example reservoirs.
type SampleStep struct {
	set *sampler.Set
}

// NewSampleStep creates a sampling step.
func NewSampleStep(set *sampler.Set) *SampleStep {
	return &SampleStep{set: set}
}

// Name returns the step name.
func (s *SampleStep) Name() string {
	return "sample"
}

// Do executes the sampling step.
func (s *SampleStep) Do(_ context.Context, state *RecordState) error {
	s.set.OfferMatches(state.Matches)
	s.set.OfferLanguage(state.Language)
	return nil
}
