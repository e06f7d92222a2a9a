// Package diff renders unified diffs of a file before and after replacement.
// It uses github.com/pmezard/go-difflib/difflib for the hunks.
package diff

import (
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of unchanged lines shown around each change
const DefaultContext = 3

// Unified returns a unified patch turning before into after for path.
// context <= 0 uses DefaultContext. Identical inputs produce an empty string.
func Unified(path string, before, after []byte, context int) string {
	if context <= 0 {
		context = DefaultContext
	}

	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(string(before)),
		B:        splitLinesKeepNL(string(after)),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  context,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return ""
	}
	return s
}

// splitLinesKeepNL splits into lines and keeps the newline characters.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	// SplitAfter leaves an empty element after a final "\n"
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
