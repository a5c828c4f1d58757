package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nao1215/warcscan/internal/aggregate"
	"github.com/nao1215/warcscan/internal/langid"
	"github.com/nao1215/warcscan/internal/model"
	"github.com/nao1215/warcscan/internal/normalize"
	"github.com/nao1215/warcscan/internal/pii"
	"github.com/nao1215/warcscan/internal/sampler"
)

// Runner drives a single sequential pass over a record source.
//
// For every record it observes the record, then runs the step pipeline
// (normalize, detect_pii, classify_language, aggregate, sample). A failing
// step is logged and counted but never aborts the run; an error from the
// source other than io.EOF does.
type Runner struct {
	normalizer TextNormalizer
	detector   *pii.Detector
	adapter    *langid.Adapter
	logger     *slog.Logger

	sampleCap           int
	poolFactor          int
	examplesPerCategory int
	languageExamples    int

	seed    uint64
	hasSeed bool

	progressEvery int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithNormalizer sets the text normalizer.
func WithNormalizer(n TextNormalizer) RunnerOption {
	return func(r *Runner) {
		r.normalizer = n
	}
}

// WithDetector sets the PII detector.
func WithDetector(d *pii.Detector) RunnerOption {
	return func(r *Runner) {
		r.detector = d
	}
}

// WithAdapter sets the language classifier adapter.
func WithAdapter(a *langid.Adapter) RunnerOption {
	return func(r *Runner) {
		r.adapter = a
	}
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithSampleCap sets the maximum number of records analyzed. Zero or less
// analyzes every record.
func WithSampleCap(n int) RunnerOption {
	return func(r *Runner) {
		r.sampleCap = n
	}
}

// WithPoolFactor sets how many times the cap is read before
// down-selecting. 1 analyzes the first records.
func WithPoolFactor(n int) RunnerOption {
	return func(r *Runner) {
		r.poolFactor = n
	}
}

// WithExamples sets how many PII matches per category and how many
// language samples are retained for review.
func WithExamples(perCategory, languages int) RunnerOption {
	return func(r *Runner) {
		r.examplesPerCategory = perCategory
		r.languageExamples = languages
	}
}

// WithSeed fixes the random seed. Without it a fresh seed is drawn per run.
func WithSeed(seed uint64) RunnerOption {
	return func(r *Runner) {
		r.seed = seed
		r.hasSeed = true
	}
}

// WithProgressEvery logs progress every n records. Zero disables it.
func WithProgressEvery(n int) RunnerOption {
	return func(r *Runner) {
		r.progressEvery = n
	}
}

// NewRunner creates a Runner. Unset components default to the standard
// normalizer, detector and whatlanggo-backed classifier.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		sampleCap:           sampler.DefaultSampleCap,
		poolFactor:          sampler.DefaultPoolFactor,
		examplesPerCategory: sampler.DefaultExamplesPerCategory,
		languageExamples:    sampler.DefaultLanguageExamples,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.normalizer == nil {
		r.normalizer = normalize.New()
	}
	if r.detector == nil {
		r.detector = pii.MustNew()
	}
	if r.adapter == nil {
		r.adapter = langid.NewAdapter(langid.NewWhatlangClassifier(), langid.WithLogger(r.logger))
	}
	return r
}

// Seed returns the seed the next run uses, drawing one if none is set.
func (r *Runner) Seed() uint64 {
	if !r.hasSeed {
		r.seed = sampler.NewSeed()
		r.hasSeed = true
	}
	return r.seed
}

// shard is the state of one pass over one source.
type shard struct {
	aggregator *aggregate.Aggregator
	examples   *sampler.Set
}

// Run makes one pass over src and returns the report.
func (r *Runner) Run(ctx context.Context, src model.RecordSource) (*model.Report, error) {
	seed := r.Seed()
	report := model.NewReport(seed, sourcesOf(src))

	r.logger.Info("starting run",
		"run_id", report.RunID,
		"seed", seed,
		"sample_cap", r.sampleCap,
		"pool_factor", r.poolFactor,
	)

	s, err := r.runShard(ctx, src, seed)
	if err != nil {
		return nil, err
	}

	s.fill(report)
	report.FinishedAt = time.Now()

	r.logger.Info("run complete",
		"run_id", report.RunID,
		"records", report.RecordsSeen,
		"elapsed", report.Duration(),
	)
	return report, nil
}

// runShard processes src with all randomness derived from seed.
func (r *Runner) runShard(ctx context.Context, src model.RecordSource, seed uint64) (*shard, error) {
	s := &shard{
		aggregator: aggregate.New(),
		examples:   sampler.NewSet(seed, r.examplesPerCategory, r.languageExamples),
	}

	p := New(WithLogger(r.logger), WithContinueOnError(true))
	p.AddSteps(
		NewNormalizeStep(r.normalizer, r.logger),
		NewDetectPIIStep(r.detector),
		NewClassifyLanguageStep(r.adapter),
		NewAggregateStep(s.aggregator),
		NewSampleStep(s.examples),
	)

	capped := sampler.NewSource(src, r.sampleCap, r.poolFactor, seed)
	for {
		rec, err := capped.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read records: %w", err)
		}

		s.aggregator.ObserveRecord(rec)
		state := &RecordState{Record: rec}
		if err := p.Execute(ctx, state); err != nil {
			return nil, err
		}
		if state.NotText {
			s.aggregator.ObserveNotText()
		}
		if state.Failed() {
			s.aggregator.ObserveFailed()
		}

		if r.progressEvery > 0 && s.aggregator.RecordsSeen()%r.progressEvery == 0 {
			r.logger.Info("progress", "records", s.aggregator.RecordsSeen())
		}
	}
	return s, nil
}

// fill writes the shard's results into report.
func (s *shard) fill(report *model.Report) {
	s.aggregator.Fill(report)
	report.Examples = s.examples.Examples()
	report.LanguageSamples = s.examples.LanguageSamples()
}

// sourcesOf returns the archive paths of src, if it knows them.
func sourcesOf(src model.RecordSource) []string {
	if p, ok := src.(interface{ Paths() []string }); ok {
		return append([]string(nil), p.Paths()...)
	}
	return nil
}
