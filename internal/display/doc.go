// Package display formats user-facing warnings shown before a run starts.
//
// Display a warning with optional components:
//
//	warning := display.Warning{
//	    Title:      "No extension filter",
//	    Message:    "Every file below . will be searched",
//	    Paths:      []string{"."},
//	    Suggestion: "Pass -x to limit the run to some file types",
//	}
//	warning.Display(os.Stderr)
//
// The title line is yellow when color output is enabled (see
// github.com/fatih/color). All functions accept io.Writer for testability.
package display
