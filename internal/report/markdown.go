package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/samber/lo"

	"github.com/nao1215/warcscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeExamples(md, report)
	w.writeLanguages(md, report)
	w.writeNotes(md)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("warcscan Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + report.RunID + "`"},
			{"Seed", "`" + strconv.FormatUint(report.Seed, 10) + "`"},
			{"Sources", escapeCell(sourcesText(report.Sources))},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Records Read", strconv.Itoa(report.RecordsSeen)},
			{"Analyzed", strconv.Itoa(report.Analyzed())},
			{"Not Text", strconv.Itoa(report.NotText)},
			{"Empty Text", strconv.Itoa(report.EmptyText)},
			{"Duplicate Payloads", strconv.Itoa(report.DuplicatePayloads)},
			{"Failed", strconv.Itoa(report.Failed)},
		},
	})
	md.PlainText("")
}

// writeSummary writes the per-category counters.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.Report) {
	md.H2("PII Summary")
	md.PlainText("")

	rows := lo.Map(model.Categories, func(c model.Category, _ int) []string {
		return []string{
			c.Title(),
			strconv.Itoa(report.Counters.Get(c)),
			strconv.Itoa(len(report.Examples[c])),
		}
	})
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(report.Counters.Total()) + "**", ""})

	md.Table(markdown.TableSet{
		Header: []string{"Category", "Found", "Shown"},
		Rows:   rows,
	})
	md.PlainText("")

	analyzed := report.Analyzed()
	switch {
	case analyzed == 0:
		md.Note("No text records were analyzed.")
	case report.Counters.Total() == 0:
		md.Tip("No PII was detected in the analyzed records.")
	default:
		md.Warningf("%d PII span(s) detected in %d analyzed record(s). Review the examples below for false positives.",
			report.Counters.Total(), analyzed)
	}
	md.PlainText("")
}

// writeExamples writes the retained examples of every category.
func (w *MarkdownWriter) writeExamples(md *markdown.Markdown, report *model.Report) {
	md.H2("Examples")
	md.PlainText("")

	for _, c := range model.Categories {
		examples := report.Examples[c]
		md.H3(fmt.Sprintf("%s (%d found)", c.Title(), report.Counters.Get(c)))
		md.PlainText("")

		if len(examples) == 0 {
			md.PlainTextf("No %s were found in the samples.", strings.ToLower(c.Title()))
			md.PlainText("")
			continue
		}

		rows := lo.Map(examples, func(m model.PIIMatch, _ int) []string {
			return []string{
				escapeCell(truncateString(m.OriginURL, 60)),
				"`" + escapeCell(m.MatchedText) + "`",
				escapeCell(maskedContext(m)),
			}
		})
		md.Table(markdown.TableSet{
			Header: []string{"URL", "Match", "Context"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeLanguages writes the distribution, pie chart and samples.
func (w *MarkdownWriter) writeLanguages(md *markdown.Markdown, report *model.Report) {
	md.H2("Language Identification")
	md.PlainText("")

	dist := report.Languages.Sorted()
	if len(dist) == 0 {
		md.PlainText("No text records were classified.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Language", "Records", "Share"},
		Rows: lo.Map(dist, func(row model.LanguageCount, _ int) []string {
			return []string{row.Code, strconv.Itoa(row.Count), fmt.Sprintf("%.1f%%", row.Percent)}
		}),
	})
	md.PlainText("")

	w.writePieChart(md, dist)

	md.BulletList(
		fmt.Sprintf("English: **%.1f%%**", report.Stats.EnglishPercent),
		fmt.Sprintf("Average confidence: **%.4f**", report.Stats.MeanConfidence),
		fmt.Sprintf("Records with an identified language: %d", report.Stats.DeterminateSamples),
	)
	md.PlainText("")

	if len(report.LanguageSamples) == 0 {
		return
	}

	md.H3("Samples")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Language", "Confidence", "Text"},
		Rows: lo.Map(report.LanguageSamples, func(s model.LanguageSample, _ int) []string {
			return []string{
				escapeCell(truncateString(s.OriginURL, 60)),
				s.LanguageCode,
				fmt.Sprintf("%.4f", s.Confidence),
				escapeCell(truncateString(s.Snippet, 120)),
			}
		}),
	})
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the language distribution.
// Languages beyond the top eight are folded into "other".
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, dist []model.LanguageCount) {
	const maxSlices = 8

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Language Distribution"),
		piechart.WithShowData(true),
	)

	other := 0
	for i, row := range dist {
		if i < maxSlices {
			chart.LabelAndIntValue(row.Code, uint64(row.Count)) //nolint:gosec // counts are non-negative
			continue
		}
		other += row.Count
	}
	if other > 0 {
		chart.LabelAndIntValue("other", uint64(other)) //nolint:gosec // counts are non-negative
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeNotes writes the review guidance.
func (w *MarkdownWriter) writeNotes(md *markdown.Markdown) {
	md.H2("Analysis Notes")
	md.PlainText("")
	md.PlainText("Examine the examples above to identify:")
	md.PlainText("")
	md.OrderedList(analysisNotes...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by warcscan*")
}

// escapeCell makes s safe inside a Markdown table cell. Sentinels contain
// pipes, which would otherwise split the cell.
func escapeCell(s string) string {
	s = flatten(s)
	return strings.ReplaceAll(s, "|", `\|`)
}

// truncateString truncates s to maxLen characters with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
