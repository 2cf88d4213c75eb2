package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/executor"
)

const ruleWidth = 100

var (
	ruleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF"))

	queryStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	idColumn    = lipgloss.NewStyle().Width(10).PaddingLeft(4)
	scoreColumn = lipgloss.NewStyle().Width(24)
	nameColumn  = lipgloss.NewStyle()

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))
)

func rule() string {
	return ruleStyle.Render(strings.Repeat("-", ruleWidth))
}

func row(id, score, name string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		idColumn.Render(id),
		scoreColumn.Render(score),
		nameColumn.Render(name),
	)
}

func renderPrompt(w io.Writer) {
	fmt.Fprintf(w, "\nPlease, input the text to search or %s to exit: ", promptStyle.Render(quitCommand))
}

// renderResult prints a ranked result list: header, hit count and timing,
// one row per document, then the per-search result bound.
func renderResult(w io.Writer, result *executor.SearchResult, maxResults int) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule())
	label := result.Query
	if result.ImagePath != "" {
		label = fmt.Sprintf("%s (image %s)", result.Query, result.ImagePath)
	}
	fmt.Fprintf(w, "  List of documents for query %s\n", queryStyle.Render(label))
	fmt.Fprintln(w, rule())
	fmt.Fprintf(w, "%sAbout %s results (%f seconds)\n",
		strings.Repeat(" ", ruleWidth/2),
		countStyle.Render(fmt.Sprint(result.TotalHits)),
		result.Took.Seconds(),
	)
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(row("ID", "Relevance (cos)", "Name")))
	for _, doc := range result.Results {
		fmt.Fprintln(w, row(doc.DocID, fmt.Sprintf("%f", doc.Score), doc.Name))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule())
	fmt.Fprintf(w, "%sMaximum result size per search: %s\n",
		strings.Repeat(" ", ruleWidth/2),
		countStyle.Render(fmt.Sprint(maxResults)),
	)
}

func renderReport(w io.Writer, report *evaluation.Report) {
	fmt.Fprintln(w, rule())
	fmt.Fprintln(w, headerStyle.Render(row("Query", "P@10 / AP", "Text")))
	for _, q := range report.Queries {
		score := fmt.Sprintf("%.4f / %.4f", q.PrecisionAt10, q.AveragePrecision)
		if q.Skipped {
			score = "skipped"
		}
		text := q.Query
		if q.Image != "" {
			text = q.Image
		}
		fmt.Fprintln(w, row(fmt.Sprint(q.Number), score, text))
	}
	fmt.Fprintln(w, rule())
	fmt.Fprintf(w, "evaluated: %d  skipped: %d  mean P@10: %s  MAP: %s  (%s)\n",
		report.Evaluated, report.Skipped,
		countStyle.Render(fmt.Sprintf("%.4f", report.MeanPrecisionAt10)),
		countStyle.Render(fmt.Sprintf("%.4f", report.MAP)),
		report.Duration,
	)
}

func renderError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("error: "+err.Error()))
}
