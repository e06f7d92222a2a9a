package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// confirmAction asks a yes/no question on out and reads the answer from in.
// An empty answer selects defaultYes. A closed input is never consent.
func confirmAction(in io.Reader, out io.Writer, question string, defaultYes bool) bool {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	fmt.Fprintf(out, "%s %s: ", question, hint)

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		fmt.Fprintln(out)
		return false
	}

	switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
	case "":
		return defaultYes
	case "y", "yes":
		return true
	default:
		return false
	}
}
