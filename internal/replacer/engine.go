package replacer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harrison/sar/internal/diff"
	"github.com/harrison/sar/internal/filelock"
	"github.com/harrison/sar/internal/models"
)

// Logger receives the notices a run produces
type Logger interface {
	LogFileMatched(path string)
	LogFileEdited(path string)
	LogFileError(path string, err error)
	LogDirError(path string, err error)
	LogDiff(path string, patch string)
	LogWarn(message string)
}

// Recorder persists per-file outcomes, e.g. to the run history
type Recorder interface {
	RecordFile(path string, outcome models.FileOutcome, cause error) error
}

// Engine applies one compiled pattern to files and counts the outcomes
type Engine struct {
	pattern  Pattern
	dryRun   bool
	showDiff bool
	logger   Logger
	recorder Recorder
	summary  *models.Summary
}

// NewEngine creates an Engine that reports into summary.
// A nil logger or recorder is replaced by a no-op.
func NewEngine(pattern Pattern, dryRun, showDiff bool, logger Logger, recorder Recorder, summary *models.Summary) *Engine {
	if logger == nil {
		logger = nopLogger{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Engine{
		pattern:  pattern,
		dryRun:   dryRun,
		showDiff: showDiff,
		logger:   logger,
		recorder: recorder,
		summary:  summary,
	}
}

// ProcessFile searches one file and rewrites it when a line matched.
// Failures are logged and counted here; they never escape to the caller,
// so one bad file cannot stop the run.
func (e *Engine) ProcessFile(path string) models.FileOutcome {
	outcome, err := e.processFile(path)
	if err != nil {
		e.logger.LogFileError(path, err)
		e.summary.AddFailed()
		outcome = models.OutcomeError
	}
	if outcome != models.OutcomeUnchanged {
		if recErr := e.recorder.RecordFile(path, outcome, err); recErr != nil {
			e.logger.LogWarn(fmt.Sprintf("failed to record %s in history: %v", path, recErr))
		}
	}
	return outcome
}

func (e *Engine) processFile(path string) (models.FileOutcome, error) {
	file, err := os.Open(path)
	if err != nil {
		return models.OutcomeError, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return models.OutcomeError, fmt.Errorf("stat %s: %w", path, err)
	}
	original, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		return models.OutcomeError, fmt.Errorf("read %s: %w", path, err)
	}

	updated, matched := Substitute(original, e.pattern)
	if !matched {
		return models.OutcomeUnchanged, nil
	}

	e.logger.LogFileMatched(path)
	e.summary.AddMatched()

	if e.showDiff {
		e.logger.LogDiff(path, diff.Unified(path, original, updated, diff.DefaultContext))
	}

	if e.dryRun {
		return models.OutcomeMatchedDryRun, nil
	}

	if err := filelock.AtomicWrite(path, updated, info.Mode().Perm()); err != nil {
		return models.OutcomeError, err
	}

	e.logger.LogFileEdited(path)
	e.summary.AddEdited()
	return models.OutcomeEdited, nil
}

// Substitute applies pattern to every line of content. Line terminators are
// detached before matching and written back unchanged, so "\r\n" endings and
// a missing final newline survive the rewrite. matched reports whether any
// line changed.
func Substitute(content []byte, pattern Pattern) (out []byte, matched bool) {
	reader := bufio.NewReader(bytes.NewReader(content))
	var buf bytes.Buffer
	buf.Grow(len(content))

	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			body, eol := splitTerminator(line)
			if replaced, ok := pattern.Replace(body); ok {
				matched = true
				body = replaced
			}
			buf.WriteString(body)
			buf.WriteString(eol)
		}
		// Reading from memory only ever ends with io.EOF
		if err != nil {
			break
		}
	}
	return buf.Bytes(), matched
}

func splitTerminator(line string) (body, eol string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	default:
		return line, ""
	}
}

type nopLogger struct{}

func (nopLogger) LogFileMatched(string) {}
func (nopLogger) LogFileEdited(string) {}
func (nopLogger) LogFileError(string, error) {}
func (nopLogger) LogDirError(string, error) {}
func (nopLogger) LogDiff(string, string) {}
func (nopLogger) LogWarn(string) {}

type nopRecorder struct{}

func (nopRecorder) RecordFile(string, models.FileOutcome, error) error { return nil }
