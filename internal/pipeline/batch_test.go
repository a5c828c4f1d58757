package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nao1215/warcscan/internal/model"
)

// writeArchive writes a WARC file holding one response record per body.
func writeArchive(t *testing.T, dir, name string, bodies []string) string {
	t.Helper()

	var sb strings.Builder
	for i, body := range bodies {
		resp := fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Type: text/html\r\nContent-Length: %d\r\n\r\n%s", len(body), body)
		fmt.Fprintf(&sb, "WARC/1.0\r\nWARC-Type: response\r\nWARC-Target-URI: http://%s.example/%d\r\n", name, i)
		fmt.Fprintf(&sb, "Content-Type: application/http; msgtype=response\r\nContent-Length: %d\r\n\r\n", len(resp))
		sb.WriteString(resp)
		sb.WriteString("\r\n\r\n")
	}

	path := filepath.Join(dir, name+".warc")
	if err := os.WriteFile(path, []byte(sb.String()), 0o600); err != nil {
		t.Fatalf("failed to write archive: %v", err)
	}
	return path
}

func archiveBodies(prefix string, n int) []string {
	bodies := make([]string, n)
	for i := range bodies {
		bodies[i] = fmt.Sprintf("<p>Reach %s%d@example.com or 10.1.%d.1 for details.</p>", prefix, i, i)
	}
	return bodies
}

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(testRunner())
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
		if bp.open == nil {
			t.Error("expected default source factory")
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(testRunner(), WithConcurrency(0))
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})
}

// TestBatchProcessorProcess tests sharded analysis of several archives.
func TestBatchProcessorProcess(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths := []string{
		writeArchive(t, dir, "a", archiveBodies("a", 12)),
		writeArchive(t, dir, "b", archiveBodies("b", 3)),
		writeArchive(t, dir, "c", archiveBodies("c", 7)),
	}

	run := func(t *testing.T, concurrency int) *model.Report {
		t.Helper()

		r := testRunner(WithSampleCap(10), WithExamples(4, 4))
		bp := NewBatchProcessor(r, WithConcurrency(concurrency), WithBatchLogger(quietLogger()))
		report, err := bp.Process(context.Background(), paths)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return report
	}

	t.Run("merges shard counts", func(t *testing.T) {
		t.Parallel()

		report := run(t, 2)

		// The cap applies per archive: 10 + 3 + 7.
		if report.RecordsSeen != 20 {
			t.Errorf("expected 20 records, got %d", report.RecordsSeen)
		}
		if report.Counters.Email != 20 || report.Counters.IP != 20 {
			t.Errorf("unexpected counters %v", report.Counters)
		}
		if len(report.Examples[model.CategoryEmail]) != 4 {
			t.Errorf("expected 4 email examples, got %d", len(report.Examples[model.CategoryEmail]))
		}
		if report.Languages.Samples != 20 {
			t.Errorf("expected 20 classified records, got %d", report.Languages.Samples)
		}
		if len(report.Sources) != 3 {
			t.Errorf("expected 3 sources, got %v", report.Sources)
		}
		if report.Seed != 42 {
			t.Errorf("expected seed 42, got %d", report.Seed)
		}
	})

	t.Run("result does not depend on scheduling", func(t *testing.T) {
		t.Parallel()

		sequential := run(t, 1)
		parallel := run(t, 3)

		if !reflect.DeepEqual(sequential.Examples, parallel.Examples) {
			t.Error("examples depend on concurrency")
		}
		if !reflect.DeepEqual(sequential.LanguageSamples, parallel.LanguageSamples) {
			t.Error("language samples depend on concurrency")
		}
		if sequential.Counters != parallel.Counters {
			t.Error("counters depend on concurrency")
		}
	})

	t.Run("fails when an archive cannot be opened", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("cannot open")
		bp := NewBatchProcessor(testRunner(),
			WithBatchLogger(quietLogger()),
			WithSourceFactory(func(path string) (model.RecordSource, error) {
				if strings.HasSuffix(path, "b.warc") {
					return nil, boom
				}
				return &sliceSource{}, nil
			}),
		)
		if _, err := bp.Process(context.Background(), paths); !errors.Is(err, boom) {
			t.Errorf("expected open error, got %v", err)
		}
	})

	t.Run("fails on a missing archive", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(testRunner(), WithBatchLogger(quietLogger()))
		_, err := bp.Process(context.Background(), []string{filepath.Join(dir, "missing.warc")})
		if err == nil {
			t.Error("expected error for missing archive")
		}
	})
}
