// Package fileutil walks directory trees for the search-and-replace engine.
//
// # Purpose
//
// The package yields the files a run should process:
//   - Depth-first traversal from a root directory
//   - Pruning of ignored directory names before they are read
//   - File name suffix filtering
//   - Optional pruning of paths listed in the root .gitignore
//   - Error-tolerant walking: unreadable entries are reported and skipped
//
// # Extension Filters
//
// Filters are literal suffixes of the file name, not extensions in the
// filepath.Ext sense. "txt" matches "notes.txt" and also "abctxt". Because a
// leading dot or a wildcard would suggest glob semantics, ValidateExtensions
// rejects them and callers abort before walking.
//
// # Usage
//
//	for path := range fileutil.Walk(root, fileutil.WalkOptions{
//	    Extensions:  []string{"json", "js"},
//	    IgnoredDirs: []string{"node_modules", ".git"},
//	    OnError: func(path string, err error) {
//	        log.Printf("skipping %s: %v", path, err)
//	    },
//	}) {
//	    process(path)
//	}
//
// The sequence is lazy: files are produced while the tree is being read, and
// breaking out of the loop stops the walk.
package fileutil
