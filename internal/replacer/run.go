// Package replacer is the search-and-replace engine: it walks a directory
// tree, applies a literal or regular-expression pattern line by line, and
// rewrites the files that matched.
package replacer

import (
	"errors"

	"github.com/harrison/sar/internal/fileutil"
	"github.com/harrison/sar/internal/models"
)

// ErrInvalidExtensions is returned when an extension filter starts with "." or contains "*"
var ErrInvalidExtensions = errors.New("file extensions cannot contain '*' and cannot start with '.'")

// RunOptions carries the collaborators of a run
type RunOptions struct {
	Logger   Logger
	Recorder Recorder
}

// Run performs one search-and-replace pass over req.Root and returns its summary.
//
// Only configuration problems (invalid extension filter, empty search, bad
// regular expression or template) return an error, and they do so before
// any file is read. Unreadable directories and files are logged, counted in
// the summary and skipped.
func Run(req models.Request, opts RunOptions) (*models.Summary, error) {
	if !fileutil.ValidateExtensions(req.Extensions) {
		return nil, ErrInvalidExtensions
	}
	pattern, err := CompilePattern(req.Search, req.Replace, req.Literal)
	if err != nil {
		return nil, err
	}

	summary := models.NewSummary()
	engine := NewEngine(pattern, req.DryRun, req.ShowDiff, opts.Logger, opts.Recorder, summary)

	files := fileutil.Walk(req.Root, fileutil.WalkOptions{
		Extensions:   req.Extensions,
		IgnoredDirs:  req.IgnoredDirs,
		UseGitignore: req.UseGitignore,
		OnError: func(path string, err error) {
			engine.logger.LogDirError(path, err)
			summary.AddDirError()
		},
	})
	for path := range files {
		engine.ProcessFile(path)
	}

	return summary, nil
}
