package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/warcscan/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.Report {
	report := model.NewReport(42, []string{"crawl-00001.warc.gz"})
	report.FinishedAt = report.StartedAt.Add(1500 * time.Millisecond)
	report.RecordsSeen = 12
	report.NotText = 2
	report.EmptyText = 1
	report.DuplicatePayloads = 1

	report.Counters.Add(model.CategoryEmail, 3)
	report.Counters.Add(model.CategoryIP, 1)

	report.Examples[model.CategoryEmail] = []model.PIIMatch{
		{
			Category:      model.CategoryEmail,
			MatchedText:   "alice@example.com",
			ContextBefore: "Contact us at ",
			ContextAfter:  " for\nsupport.",
			OriginURL:     "http://example.com/contact",
		},
	}
	report.Examples[model.CategoryIP] = []model.PIIMatch{
		{
			Category:      model.CategoryIP,
			MatchedText:   "192.168.0.1",
			ContextBefore: "server ",
			ContextAfter:  " is down",
			OriginURL:     "http://example.com/status",
		},
	}

	report.Languages.Add("en", 0.9)
	report.Languages.Add("en", 0.8)
	report.Languages.Add("de", 0.7)
	report.Languages.Add(model.UnknownLanguage, 0)
	report.Stats = model.Stats{EnglishPercent: 66.7, MeanConfidence: 0.8, DeterminateSamples: 3}

	report.LanguageSamples = []model.LanguageSample{
		{OriginURL: "http://example.com/", LanguageCode: "en", Confidence: 0.9, Snippet: "Welcome to the example site"},
	}
	return report
}

// failingWriter is an io.Writer that always fails.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport()
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"WARCSCAN REPORT", report.RunID, "Seed:      42", "crawl-00001.warc.gz", "Duration:  1.5s"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("writes record summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Records read:        12") {
			t.Error("expected records read count")
		}
		if !strings.Contains(output, "Analyzed:            10") {
			t.Error("expected analyzed count to exclude non-text records")
		}
		if strings.Contains(output, "Failed:") {
			t.Error("did not expect failed line without failures")
		}
	})

	t.Run("writes masked examples with context", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "PII MASKING RESULTS: Email Addresses (3 found)") {
			t.Error("expected email section header")
		}
		if !strings.Contains(output, "Example 1/1") {
			t.Error("expected example numbering")
		}
		if !strings.Contains(output, "Contact us at |||EMAIL_ADDRESS||| for support.") {
			t.Error("expected flattened masked context")
		}
		if !strings.Contains(output, "Total Email Addresses found: 3 (1 shown)") {
			t.Error("expected category total")
		}
		if strings.Contains(output, ">>alice@example.com<<") {
			t.Error("did not expect original context without verbose")
		}
	})

	t.Run("writes empty categories by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "No phone numbers were found in the samples.") {
			t.Error("expected empty phone section")
		}
	})

	t.Run("hides empty categories", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithShowEmpty(false)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "Phone Numbers") {
			t.Error("did not expect phone section")
		}
	})

	t.Run("verbose shows original context", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "server >>192.168.0.1<< is down") {
			t.Error("expected marked original context")
		}
		if !strings.Contains(output, "server |||IP_ADDRESS||| is down") {
			t.Error("expected masked context")
		}
	})

	t.Run("writes language section", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"LANGUAGE IDENTIFICATION",
			"Language: en (confidence 0.9000)",
			"Text: Welcome to the example site",
			"English:            66.7%",
			"Average confidence: 0.8000",
			"ANALYSIS NOTES",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("empty report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(model.NewReport(1, nil)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Sources:   -") {
			t.Error("expected placeholder for missing sources")
		}
		if !strings.Contains(output, "(no text records)") {
			t.Error("expected empty distribution placeholder")
		}
	})

	t.Run("propagates write error", func(t *testing.T) {
		t.Parallel()

		if _, err := NewSimpleWriter(failingWriter{}).Write(createTestReport()); err == nil {
			t.Error("expected error")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes compact JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := strings.TrimSuffix(buf.String(), "\n")
		if strings.Contains(output, "\n") {
			t.Error("expected single-line JSON")
		}

		var decoded map[string]any
		if err := json.Unmarshal([]byte(output), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["seed"] != float64(42) {
			t.Errorf("seed = %v, want 42", decoded["seed"])
		}
	})

	t.Run("keys examples by category name", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.Report
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if !strings.Contains(buf.String(), `"EMAIL":[`) {
			t.Error("expected EMAIL key in examples")
		}
		if got := len(decoded.Examples[model.CategoryEmail]); got != 1 {
			t.Errorf("email examples = %d, want 1", got)
		}
		if got := decoded.Counters.Get(model.CategoryEmail); got != 3 {
			t.Errorf("email counter = %d, want 3", got)
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"run_id\"") {
			t.Error("expected two-space indentation")
		}
	})
}

// TestWithIndent tests custom JSON indentation.
func TestWithIndent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		indent string
		want   string
	}{
		{name: "tab", prefix: "", indent: "\t", want: "\n\t\"run_id\""},
		{name: "prefix", prefix: "> ", indent: " ", want: "\n>  \"run_id\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			if _, err := NewJSONWriter(&buf, WithIndent(tt.prefix, tt.indent)).Write(createTestReport()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("expected output to contain %q", tt.want)
			}
		})
	}
}

// TestFullJSONWriter tests the wrapped JSON writer.
func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewFullJSONWriter(&buf, "1.2.3").Write(createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded struct {
		Version   string                `json:"version"`
		Report    model.Report          `json:"report"`
		Languages []model.LanguageCount `json:"languages"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Version != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", decoded.Version)
	}
	if decoded.Report.RecordsSeen != 12 {
		t.Errorf("records = %d, want 12", decoded.Report.RecordsSeen)
	}
	if len(decoded.Languages) != 3 || decoded.Languages[0].Code != "en" {
		t.Errorf("languages = %+v, want en first of three", decoded.Languages)
	}
}

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

		n, err := mw.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("n = %d, want %d", n, text.Len()+js.Len())
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(failingWriter{}), NewJSONWriter(&js))

		if _, err := mw.Write(createTestReport()); err == nil {
			t.Fatal("expected error")
		}
		if js.Len() != 0 {
			t.Error("did not expect later writers to run")
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, report *model.Report) string {
		t.Helper()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return buf.String()
	}

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		output := write(t, report)
		if !strings.Contains(output, "# warcscan Report") {
			t.Error("expected H1 header")
		}
		if !strings.Contains(output, report.RunID) {
			t.Error("expected run ID")
		}
	})

	t.Run("writes PII summary with warning", func(t *testing.T) {
		t.Parallel()

		output := write(t, createTestReport())
		if !strings.Contains(output, "## PII Summary") {
			t.Error("expected PII summary header")
		}
		if !strings.Contains(output, "4 PII span(s) detected in 10 analyzed record(s)") {
			t.Error("expected warning with totals")
		}
	})

	t.Run("escapes sentinels in tables", func(t *testing.T) {
		t.Parallel()

		output := write(t, createTestReport())
		if !strings.Contains(output, `\|\|\|EMAIL_ADDRESS\|\|\|`) {
			t.Error("expected escaped sentinel")
		}
	})

	t.Run("writes language chart", func(t *testing.T) {
		t.Parallel()

		output := write(t, createTestReport())
		if !strings.Contains(output, "```mermaid") {
			t.Error("expected mermaid code block")
		}
		if !strings.Contains(output, "Language Distribution") {
			t.Error("expected chart title")
		}
		if !strings.Contains(output, "English: **66.7%**") {
			t.Error("expected English share")
		}
	})

	t.Run("clean report uses tip", func(t *testing.T) {
		t.Parallel()

		report := model.NewReport(7, nil)
		report.RecordsSeen = 3
		report.Languages.Add("en", 0.5)
		output := write(t, report)
		if !strings.Contains(output, "No PII was detected") {
			t.Error("expected tip for clean run")
		}
		if !strings.Contains(output, "No email addresses were found in the samples.") {
			t.Error("expected empty category text")
		}
	})

	t.Run("empty report", func(t *testing.T) {
		t.Parallel()

		output := write(t, model.NewReport(7, nil))
		if !strings.Contains(output, "No text records were analyzed.") {
			t.Error("expected note for empty run")
		}
		if strings.Contains(output, "```mermaid") {
			t.Error("did not expect chart without languages")
		}
	})
}

// TestEscapeCell tests Markdown table cell escaping.
func TestEscapeCell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"plain", "plain"},
		{"a|b", `a\|b`},
		{"line\nbreak", "line break"},
		{"  spaced   out ", "spaced out"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := escapeCell(tt.input); got != tt.expected {
				t.Errorf("escapeCell(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

// TestTruncateString tests the string truncation helper.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a longer string", 10, "this is..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"ab", 5, "ab"},
		{"日本語のテキスト", 5, "日本..."},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			result := truncateString(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("truncateString(%q, %d) = %q, want %q",
					tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}
