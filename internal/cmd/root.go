package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for sar
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sar",
		Short: "Search and replace text across a directory tree",
		Long: `sar walks a directory tree and replaces every match of a search pattern
in every matching file, line by line.

The search text is a regular expression unless --literal is given. The
replacement may refer to capture groups as $1, ${1}, $name or ${name};
use $$ for a literal dollar sign.

Patterns are matched against each line without its line ending, and the
line ending is written back unchanged. sar therefore cannot convert CRLF
line endings to LF.

Configuration is loaded from .sar.yaml in the current directory if present.
CLI flags override configuration file settings.

Examples:
  # Replace in every .json file below the current directory
  sar -x json -s positive -r negative

  # Reorder ISO dates, skipping dependency folders
  sar -d ./docs -i node_modules -i .git \
      -s '(?P<y>\d{4})-(?P<m>\d{2})-(?P<d>\d{2})' -r '$m/$d/$y'

  # Preview matches and diffs without touching any file
  sar -x "ts html" -s '@infragistics/igniteui-angular' -r 'igniteui-angular' --literal --dry --diff

  # Inspect earlier runs
  sar history
  sar history show 3f2a9c1e`,
		Version: Version,
		// main prints the error once; usage would bury it
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runReplace,
	}

	addReplaceFlags(cmd)

	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
