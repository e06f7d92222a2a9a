package models

import (
	"fmt"
	"sync/atomic"
)

// FileOutcome is the result of processing a single file
type FileOutcome string

// File outcome constants
const (
	OutcomeUnchanged     FileOutcome = "UNCHANGED"       // No line matched, file untouched
	OutcomeEdited        FileOutcome = "EDITED"          // Matched and rewritten
	OutcomeMatchedDryRun FileOutcome = "MATCHED_DRY_RUN" // Matched, dry run left it alone
	OutcomeError         FileOutcome = "ERROR"           // Processing failed
)

// IsMatch reports whether the outcome means the search text was found.
func (o FileOutcome) IsMatch() bool {
	return o == OutcomeEdited || o == OutcomeMatchedDryRun
}

// Summary holds the counters of a single run.
// A Summary is owned by one run; start a new one for every run.
type Summary struct {
	filesMatched     atomic.Int64
	filesEdited      atomic.Int64
	filesFailed      atomic.Int64
	dirEntriesFailed atomic.Int64
}

// NewSummary returns a zeroed Summary
func NewSummary() *Summary {
	return &Summary{}
}

// AddMatched counts a file where the search text was found
func (s *Summary) AddMatched() { s.filesMatched.Add(1) }

// AddEdited counts a file that was successfully rewritten
func (s *Summary) AddEdited() { s.filesEdited.Add(1) }

// AddFailed counts a file that could not be searched or edited
func (s *Summary) AddFailed() { s.filesFailed.Add(1) }

// AddDirError counts a directory entry that could not be read
func (s *Summary) AddDirError() { s.dirEntriesFailed.Add(1) }

// FilesMatched returns the number of files where the search text was found
func (s *Summary) FilesMatched() int64 { return s.filesMatched.Load() }

// FilesEdited returns the number of files where the search text was replaced
func (s *Summary) FilesEdited() int64 { return s.filesEdited.Load() }

// FilesFailed returns the number of files not searched or edited because of an error
func (s *Summary) FilesFailed() int64 { return s.filesFailed.Load() }

// DirEntriesFailed returns the number of directories or entries that could not be read
func (s *Summary) DirEntriesFailed() int64 { return s.dirEntriesFailed.Load() }

// HasErrors reports whether any file or directory entry failed
func (s *Summary) HasErrors() bool {
	return s.FilesFailed() > 0 || s.DirEntriesFailed() > 0
}

// String returns a one-line rendering of the counters
func (s *Summary) String() string {
	return fmt.Sprintf("matched=%d edited=%d failed=%d dir_errors=%d",
		s.FilesMatched(), s.FilesEdited(), s.FilesFailed(), s.DirEntriesFailed())
}
