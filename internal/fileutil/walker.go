package fileutil

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/monochromegane/go-gitignore"
)

// WalkOptions configures the directory walk
type WalkOptions struct {
	// Extensions is a list of file name suffixes to include (e.g., "json", "txt").
	// A file passes when its base name ends with any of them; empty matches every file.
	Extensions []string
	// IgnoredDirs is a list of directory base names whose subtrees are skipped
	IgnoredDirs []string
	// UseGitignore prunes paths matched by <root>/.gitignore
	UseGitignore bool
	// OnError receives entries that could not be read. The walk continues afterwards.
	OnError func(path string, err error)
}

// Walk returns a lazy, single-use sequence of regular files under root.
//
// Ignored directories are pruned before they are read, so nothing beneath
// them is enumerated. Symbolic links are neither followed nor yielded.
// Sibling order is lexical but callers should not depend on it.
func Walk(root string, opts WalkOptions) iter.Seq[string] {
	ignored := make(map[string]bool, len(opts.IgnoredDirs))
	for _, dir := range opts.IgnoredDirs {
		ignored[dir] = true
	}

	onError := opts.OnError
	if onError == nil {
		onError = func(string, error) {}
	}

	return func(yield func(string) bool) {
		var matcher gitignore.IgnoreMatcher
		if opts.UseGitignore {
			matcher = loadGitignore(root, onError)
		}

		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				onError(path, err)
				// d is set when the directory itself was visited but could not be read
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if ignored[d.Name()] {
					return filepath.SkipDir
				}
				if matcher != nil && path != root && matcher.Match(path, true) {
					return filepath.SkipDir
				}
				return nil
			}

			if !d.Type().IsRegular() {
				return nil
			}
			if !MatchesExtension(d.Name(), opts.Extensions) {
				return nil
			}
			if matcher != nil && matcher.Match(path, false) {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// MatchesExtension reports whether name ends with one of the given suffixes.
// No dot boundary is enforced: "txt" matches both "notes.txt" and "abctxt".
func MatchesExtension(name string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	for _, ext := range extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// ValidateExtensions rejects extensions that start with "." or contain "*".
// Filters are literal name suffixes, so either form means the caller expected glob semantics.
func ValidateExtensions(extensions []string) bool {
	for _, ext := range extensions {
		if strings.HasPrefix(ext, ".") || strings.Contains(ext, "*") {
			return false
		}
	}
	return true
}

// loadGitignore reads <root>/.gitignore. A missing file disables matching.
// The matcher resolves walked paths relative to root itself.
func loadGitignore(root string, onError func(string, error)) gitignore.IgnoreMatcher {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	matcher, err := gitignore.NewGitIgnore(path)
	if err != nil {
		onError(path, fmt.Errorf("parse .gitignore: %w", err))
		return nil
	}
	return matcher
}
