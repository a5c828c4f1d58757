package report

import (
	"io"
	"strings"

	"github.com/nao1215/warcscan/internal/model"
)

// Writer defines the interface for report output.
// Implementations write audit results in various formats.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.Report) (int, error)
}

// MultiWriter writes to multiple Writers in turn.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// analysisNotes guide the manual review of retained examples.
var analysisNotes = []string{
	"False positives: spans that were masked but are not PII",
	"False negatives: PII left unmasked in the shown context",
	"Email false positives: text containing '@' that is not an address (handles, asset names like logo@2x.png)",
	"Phone false positives: numbers that look like phone numbers but are not (order numbers, timestamps)",
	"IP false positives: dotted number sequences that are versions or section numbers",
	"False negatives: PII in formats the patterns do not cover (international numbers, obfuscated addresses)",
}

// maskedContext renders a match inside its context with the sentinel in
// place of the matched text.
func maskedContext(m model.PIIMatch) string {
	return flatten(m.ContextBefore + m.Category.Sentinel() + m.ContextAfter)
}

// originalContext renders a match inside its context, marking the span.
func originalContext(m model.PIIMatch) string {
	return flatten(m.ContextBefore + ">>" + m.MatchedText + "<<" + m.ContextAfter)
}

// flatten replaces line breaks with spaces so a context fits on one line.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// sourcesText renders the list of archives for a header.
func sourcesText(sources []string) string {
	if len(sources) == 0 {
		return "-"
	}
	return strings.Join(sources, ", ")
}
