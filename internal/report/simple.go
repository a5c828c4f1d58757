package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/warcscan/internal/model"
)

// SimpleWriter outputs human-readable text reports for manual review.
// Every retained PII example is shown with its context so that false
// positives and false negatives can be judged by eye.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether categories without matches are shown.
	showEmpty bool

	// verbose adds the original, unmasked context of every example.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with the original context of every
// example next to the masked one.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  true,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeRecordSummary(&sb, report)
	for _, c := range model.Categories {
		w.writeCategory(&sb, report, c)
	}
	w.writeLanguages(&sb, report)
	w.writeNotes(&sb)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// section writes a titled separator block.
func section(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 80))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 80))
	sb.WriteString("\n")
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	section(sb, "                            WARCSCAN REPORT")
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Run ID:    %s\n", report.RunID)
	fmt.Fprintf(sb, "Seed:      %d\n", report.Seed)
	fmt.Fprintf(sb, "Sources:   %s\n", sourcesText(report.Sources))
	fmt.Fprintf(sb, "Started:   %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:  %s\n", report.Duration().Round(time.Millisecond))
}

// writeRecordSummary writes how many records were read and skipped.
func (w *SimpleWriter) writeRecordSummary(sb *strings.Builder, report *model.Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 80))
	sb.WriteString("\nRECORDS\n")
	sb.WriteString(strings.Repeat("-", 80))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  Records read:        %d\n", report.RecordsSeen)
	fmt.Fprintf(sb, "  Analyzed:            %d\n", report.Analyzed())
	fmt.Fprintf(sb, "  Not text (skipped):  %d\n", report.NotText)
	fmt.Fprintf(sb, "  Empty text:          %d\n", report.EmptyText)
	fmt.Fprintf(sb, "  Duplicate payloads:  %d\n", report.DuplicatePayloads)
	if report.Failed > 0 {
		fmt.Fprintf(sb, "  Failed:              %d\n", report.Failed)
	}
}

// writeCategory writes the counter and retained examples of one category.
func (w *SimpleWriter) writeCategory(sb *strings.Builder, report *model.Report, c model.Category) {
	total := report.Counters.Get(c)
	if total == 0 && !w.showEmpty {
		return
	}

	examples := report.Examples[c]
	section(sb, fmt.Sprintf("PII MASKING RESULTS: %s (%d found)", c.Title(), total))

	if len(examples) == 0 {
		fmt.Fprintf(sb, "No %s were found in the samples.\n", strings.ToLower(c.Title()))
		return
	}

	for i, m := range examples {
		fmt.Fprintf(sb, "\nExample %d/%d\n", i+1, len(examples))
		fmt.Fprintf(sb, "URL: %s\n", m.OriginURL)
		fmt.Fprintf(sb, "Masked PII: %s\n", m.MatchedText)
		sb.WriteString(strings.Repeat("-", 40))
		sb.WriteString("\n")
		if w.verbose {
			sb.WriteString("Original Context:\n")
			sb.WriteString(originalContext(m))
			sb.WriteString("\n\nMasked Context:\n")
		} else {
			sb.WriteString("Context:\n")
		}
		sb.WriteString(maskedContext(m))
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("-", 80))
		sb.WriteString("\n")
	}

	fmt.Fprintf(sb, "\nTotal %s found: %d (%d shown)\n", c.Title(), total, len(examples))
}

// writeLanguages writes the language samples, distribution and statistics.
func (w *SimpleWriter) writeLanguages(sb *strings.Builder, report *model.Report) {
	section(sb, "LANGUAGE IDENTIFICATION")

	for i, s := range report.LanguageSamples {
		fmt.Fprintf(sb, "\nSample %d/%d\n", i+1, len(report.LanguageSamples))
		fmt.Fprintf(sb, "URL: %s\n", s.OriginURL)
		fmt.Fprintf(sb, "Language: %s (confidence %.4f)\n", s.LanguageCode, s.Confidence)
		if s.Snippet != "" {
			fmt.Fprintf(sb, "Text: %s\n", s.Snippet)
		}
	}

	sb.WriteString("\nLanguage distribution:\n")
	rows := report.Languages.Sorted()
	if len(rows) == 0 {
		sb.WriteString("  (no text records)\n")
	}
	for _, row := range rows {
		fmt.Fprintf(sb, "  %-10s %6d  (%5.1f%%)\n", row.Code, row.Count, row.Percent)
	}

	sb.WriteString("\n")
	fmt.Fprintf(sb, "English:            %.1f%% (of %d records with an identified language)\n",
		report.Stats.EnglishPercent, report.Stats.DeterminateSamples)
	fmt.Fprintf(sb, "Average confidence: %.4f (over %d classified records)\n",
		report.Stats.MeanConfidence, report.Languages.Samples)
}

// writeNotes writes the review guidance.
func (w *SimpleWriter) writeNotes(sb *strings.Builder) {
	section(sb, "ANALYSIS NOTES")
	sb.WriteString("Examine the examples above to identify:\n")
	for i, note := range analysisNotes {
		fmt.Fprintf(sb, "%d. %s\n", i+1, note)
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 80))
	sb.WriteString("\n")
	sb.WriteString("Report generated by warcscan\n")
	sb.WriteString(strings.Repeat("=", 80))
	sb.WriteString("\n")
}
