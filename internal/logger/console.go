// Package logger provides console logging for sar runs.
//
// ConsoleLogger writes per-file notices to one writer and errors to another,
// prefixes them with [HH:MM:SS] timestamps, filters by level, and colors
// output when the destination is a terminal.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/sar/internal/models"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// separatorWidth is the width of the "=" rule around the run summary
const separatorWidth = 60

// ConsoleLogger logs run progress with timestamps and thread safety.
// Info and lower levels go to writer; warnings and errors go to errWriter.
type ConsoleLogger struct {
	writer      io.Writer
	errWriter   io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	errColor    bool
}

// NewConsoleLogger creates a ConsoleLogger. A nil writer discards the
// messages meant for it. logLevel is one of trace, debug, info, warn, error
// (case-insensitive); anything else means "info".
func NewConsoleLogger(writer, errWriter io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		errWriter:   errWriter,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
		errColor:    isTerminal(errWriter),
	}
}

// isTerminal reports whether w is os.Stdout or os.Stderr attached to a TTY.
// NO_COLOR disables color through color.NoColor.
func isTerminal(w io.Writer) bool {
	if w == nil || color.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok || (f != os.Stdout && f != os.Stderr) {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if IsValidLevel(normalized) {
		return normalized
	}
	return "info"
}

// IsValidLevel reports whether level is a known log level name
func IsValidLevel(level string) bool {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return true
	}
	return false
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message to the error writer.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message to the error writer.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// LogFileMatched reports a file containing the search text.
func (cl *ConsoleLogger) LogFileMatched(path string) {
	cl.LogInfo(fmt.Sprintf("Search text found in file: %s", path))
}

// LogFileEdited reports a file that was rewritten.
func (cl *ConsoleLogger) LogFileEdited(path string) {
	cl.LogInfo(fmt.Sprintf("Successfully edited file: %s", path))
}

// LogFileError reports a file that could not be searched or edited.
func (cl *ConsoleLogger) LogFileError(path string, err error) {
	cl.LogError(fmt.Sprintf("Error processing file: %s -- %v", path, err))
}

// LogDirError reports a directory entry that could not be read.
func (cl *ConsoleLogger) LogDirError(path string, err error) {
	cl.LogError(fmt.Sprintf("Error reading directory entry: %s -- %v", path, err))
}

// LogDiff writes a unified patch for path at info level, without timestamps.
func (cl *ConsoleLogger) LogDiff(path string, patch string) {
	if cl.writer == nil || patch == "" || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	if !cl.colorOutput {
		io.WriteString(cl.writer, patch)
		return
	}
	io.WriteString(cl.writer, colorizePatch(patch))
}

// LogBanner writes message framed by "=" rules of the same length.
// The banner is always written, regardless of level.
func (cl *ConsoleLogger) LogBanner(message string) {
	if cl.writer == nil {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	rule := strings.Repeat("=", len([]rune(message)))
	fmt.Fprintf(cl.writer, "%s\n%s\n%s\n", rule, message, rule)
}

// LogSummary writes the four run counters between separator rules.
// Like the banner it is written regardless of level.
func (cl *ConsoleLogger) LogSummary(summary *models.Summary) {
	if cl.writer == nil || summary == nil {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	var scheme *colorScheme
	if cl.colorOutput {
		scheme = newColorScheme()
	}

	rule := strings.Repeat("=", separatorWidth)
	var b strings.Builder
	b.WriteString(rule + "\n")
	for _, line := range summaryLines(summary) {
		b.WriteString(formatSummaryLine(line, scheme))
		b.WriteString("\n")
	}
	b.WriteString(rule + "\n")

	io.WriteString(cl.writer, b.String())
}

// logWithLevel writes message if the level passes the filter.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	w, useColor := cl.writer, cl.colorOutput
	if level == "WARN" || level == "ERROR" {
		w, useColor = cl.errWriter, cl.errColor
	}
	if w == nil {
		return
	}

	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if useColor {
		formatted = formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	w.Write([]byte(formatted))
}

// formatWithColor formats a log message with ANSI color codes.
func formatWithColor(ts, level, message string) string {
	var coloredLevel string

	switch level {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}

	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}
