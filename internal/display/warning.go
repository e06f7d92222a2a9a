package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Paths      []string // Related paths (optional)
	Suggestion string   // Action to take (optional)
}

// Display writes the warning to out
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString(color.New(color.FgYellow).Sprint("⚠️  Warning: " + w.Title))
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Paths) > 0 {
		b.WriteString("    ")
		if len(w.Paths) == 1 {
			b.WriteString("Affected path:\n")
		} else {
			b.WriteString("Affected paths:\n")
		}
		for i, path := range w.Paths {
			b.WriteString(fmt.Sprintf("      %d. %s\n", i+1, path))
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	fmt.Fprint(out, b.String())
}

// WarnUnfilteredRun creates the warning shown when a run that writes files has no extension filter
func WarnUnfilteredRun(root string) Warning {
	return Warning{
		Title:      "No extension filter",
		Message:    "Every regular file below the directory will be searched and may be rewritten.",
		Paths:      []string{root},
		Suggestion: "Pass -x/--extensions to limit the run, or --dry to preview it first.",
	}
}
