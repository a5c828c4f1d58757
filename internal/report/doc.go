// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text for manual review in a terminal
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown with tables and a language pie chart
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output. A writer only
// presents a model.Report; it never recomputes statistics.
package report
