package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/warcscan/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, state *RecordState) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, state *RecordState) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, state)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func newState() *RecordState {
	return &RecordState{Record: model.NewRecord("http://example.com/", []byte("hello"), "text/plain")}
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()

		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.continueOnError {
			t.Error("expected continueOnError to default to false")
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))

		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	t.Run("maintains step order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "first"})
		p.AddSteps(&mockStep{name: "second"}, &mockStep{name: "third"})

		names := p.StepNames()

		expected := []string{"first", "second", "third"}
		if len(names) != len(expected) {
			t.Fatalf("expected %d names, got %v", len(expected), names)
		}
		for i, name := range names {
			if name != expected[i] {
				t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
			}
		}
	})

	t.Run("returns empty slice for empty pipeline", func(t *testing.T) {
		t.Parallel()

		if names := New().StepNames(); len(names) != 0 {
			t.Errorf("expected empty slice, got %v", names)
		}
	})
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		executionOrder := make([]string, 0)
		record := func(name string) func(context.Context, *RecordState) error {
			return func(_ context.Context, _ *RecordState) error {
				executionOrder = append(executionOrder, name)
				return nil
			}
		}

		p := New()
		p.AddStep(&mockStep{name: "step-1", doFunc: record("step-1")})
		p.AddStep(&mockStep{name: "step-2", doFunc: record("step-2")})

		state := newState()
		if err := p.Execute(context.Background(), state); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(executionOrder) != 2 || executionOrder[0] != "step-1" || executionOrder[1] != "step-2" {
			t.Errorf("wrong execution order: %v", executionOrder)
		}
		if len(state.PerformedSteps) != 2 {
			t.Errorf("expected 2 performed steps, got %v", state.PerformedSteps)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("step failed")
		second := &mockStep{name: "should-not-run"}

		p := New()
		p.AddStep(&mockStep{
			name: "failing-step",
			doFunc: func(_ context.Context, _ *RecordState) error {
				return expectedErr
			},
		})
		p.AddStep(second)

		state := newState()
		err := p.Execute(context.Background(), state)

		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if second.callCount != 0 {
			t.Error("second step should not have been called")
		}
		if !state.Failed() {
			t.Error("expected error to be recorded in state")
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		second := &mockStep{name: "should-run"}

		p := New(WithContinueOnError(true))
		p.AddStep(&mockStep{
			name: "failing-step",
			doFunc: func(_ context.Context, _ *RecordState) error {
				return errors.New("step failed")
			},
		})
		p.AddStep(second)

		state := newState()
		if err := p.Execute(context.Background(), state); err != nil {
			t.Errorf("expected nil error with continueOnError, got %v", err)
		}
		if second.callCount != 1 {
			t.Error("second step should have been called")
		}
		if len(state.Errors) != 1 {
			t.Errorf("expected 1 recorded error, got %d", len(state.Errors))
		}
	})

	t.Run("stops after a record is found not to be text", func(t *testing.T) {
		t.Parallel()

		second := &mockStep{name: "should-not-run"}

		p := New()
		p.AddStep(&mockStep{
			name: "flag",
			doFunc: func(_ context.Context, state *RecordState) error {
				state.NotText = true
				return nil
			},
		})
		p.AddStep(second)

		if err := p.Execute(context.Background(), newState()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if second.callCount != 0 {
			t.Error("steps after a not-text flag should be skipped")
		}
	})

	t.Run("stops after a record is skipped", func(t *testing.T) {
		t.Parallel()

		second := &mockStep{name: "should-not-run"}

		p := New(WithContinueOnError(true))
		p.AddStep(&mockStep{
			name: "skip",
			doFunc: func(_ context.Context, state *RecordState) error {
				state.Skipped = true
				return nil
			},
		})
		p.AddStep(second)

		state := newState()
		if err := p.Execute(context.Background(), state); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if second.callCount != 0 {
			t.Error("steps after a skipped record should not run")
		}
		if state.Failed() {
			t.Error("a skipped record is not a failure")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "should-not-run"}
		p := New()
		p.AddStep(step)

		if err := p.Execute(ctx, newState()); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step should not have been called")
		}
	})
}
