package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harrison/sar/internal/models"
)

// colorScheme defines consistent colors for the run summary and diffs.
// Green: success/positive metrics
// Red: failure/error metrics
// Cyan: labels and identifiers
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	label   *color.Color
	value   *color.Color
}

// newColorScheme creates the standard color scheme for metrics.
func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		label:   color.New(color.FgCyan),
		value:   color.New(color.FgWhite),
	}
}

type metricKind int

const (
	metricNeutral metricKind = iota
	metricSuccess
	metricFailure
)

// summaryLine is one counter of the run summary
type summaryLine struct {
	label string
	value int64
	kind  metricKind
}

// summaryLines returns the four counters in display order
func summaryLines(s *models.Summary) []summaryLine {
	return []summaryLine{
		{"Total # of files where search text was found", s.FilesMatched(), metricNeutral},
		{"Total # of files where search text was replaced", s.FilesEdited(), metricSuccess},
		{"Total # of files not searched or edited (error)", s.FilesFailed(), metricFailure},
		{"Total # of directories or files not entered (error)", s.DirEntriesFailed(), metricFailure},
	}
}

// formatSummaryLine renders "label: value". A nil scheme renders plain text.
// Failure counters are red only when non-zero.
func formatSummaryLine(line summaryLine, scheme *colorScheme) string {
	if scheme == nil {
		return fmt.Sprintf("%s: %d", line.label, line.value)
	}

	labelColored := scheme.label.Sprint(line.label)
	var valueColored string
	switch {
	case line.kind == metricFailure && line.value > 0:
		valueColored = scheme.fail.Sprintf("%d", line.value)
	case line.kind == metricSuccess && line.value > 0:
		valueColored = scheme.success.Sprintf("%d", line.value)
	default:
		valueColored = scheme.value.Sprintf("%d", line.value)
	}
	return fmt.Sprintf("%s: %s", labelColored, valueColored)
}

// colorizePatch colors removed lines red, added lines green and hunk headers cyan.
func colorizePatch(patch string) string {
	scheme := newColorScheme()
	lines := strings.SplitAfter(patch, "\n")

	var b strings.Builder
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			b.WriteString(color.New(color.Bold).Sprint(line))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(scheme.label.Sprint(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(scheme.fail.Sprint(line))
		case strings.HasPrefix(line, "+"):
			b.WriteString(scheme.success.Sprint(line))
		default:
			b.WriteString(line)
		}
	}
	return b.String()
}
