package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/warcscan/internal/model"
)

// RecordState carries one record through the pipeline. Each step reads
// what earlier steps produced and adds its own output.
type RecordState struct {
	// Record is the record being analyzed. Steps must not modify it.
	Record *model.Record

	// Text is the normalized text, set by the normalize step.
	Text *model.NormalizedText

	// Masked is Text with every detected span replaced by its sentinel.
	Masked string

	// Matches holds the detected PII spans in text order.
	Matches []model.PIIMatch

	// Language is the classification of Text.
	Language model.LanguageSample

	// NotText is set when the payload is not textual. The remaining steps
	// are skipped.
	NotText bool

	// Skipped is set when the payload is textual but cannot be decoded.
	// The remaining steps are skipped and the record is counted nowhere.
	Skipped bool

	// Errors collects the errors of failed steps.
	Errors []error

	// PerformedSteps names the steps that ran, in order.
	PerformedSteps []string
}

// URL returns the origin of the record.
func (s *RecordState) URL() string {
	if s.Record == nil {
		return ""
	}
	return s.Record.URL
}

// text returns the normalized text, or "" if normalization failed.
func (s *RecordState) text() string {
	if s.Text == nil {
		return ""
	}
	return s.Text.Text
}

// Failed reports whether any step failed.
func (s *RecordState) Failed() bool {
	return len(s.Errors) > 0
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the state accumulated by
// the previous steps.
type Step interface {
	// Do executes the step. It returns an error if the step failed; the
	// pipeline records it and, depending on configuration, continues.
	Do(ctx context.Context, state *RecordState) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Failed steps are logged and their errors are
// recorded in the state, but subsequent steps still execute.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:           make([]Step, 0),
		continueOnError: false,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps on one record in sequence.
// It checks for cancellation before each step and stops early once a
// step marks the record as not text or skipped.
//
// Returns the first error encountered if continueOnError is false, or nil
// if all steps ran (errors are recorded in the state).
func (p *Pipeline) Execute(ctx context.Context, state *RecordState) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", err,
			)
			return err
		}

		if state.NotText || state.Skipped {
			break
		}

		if err := step.Do(ctx, state); err != nil {
			p.logger.Warn("step failed",
				"step", step.Name(),
				"url", state.URL(),
				"error", err,
			)

			state.Errors = append(state.Errors, err)

			if !p.continueOnError {
				return err
			}
		} else {
			p.logger.Debug("step completed",
				"step", step.Name(),
				"url", state.URL(),
			)
		}

		state.PerformedSteps = append(state.PerformedSteps, step.Name())
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
