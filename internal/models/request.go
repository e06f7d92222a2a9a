package models

// Request describes one search-and-replace run over a directory tree.
// It is built and validated by the caller and is not modified during the run.
type Request struct {
	// Root is the directory to walk
	Root string

	// Extensions are file name suffixes to include (empty = every file)
	Extensions []string

	// IgnoredDirs are directory base names whose subtrees are skipped
	IgnoredDirs []string

	// Search is the text or regular expression to look for
	Search string

	// Replace is the replacement text or template
	Replace string

	// Literal treats Search as plain text instead of a regular expression
	Literal bool

	// DryRun reports matches without modifying any file
	DryRun bool

	// ShowDiff logs a unified diff for every matched file
	ShowDiff bool

	// UseGitignore prunes paths matched by the root .gitignore
	UseGitignore bool
}
