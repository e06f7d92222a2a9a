package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/sar/internal/config"
	"github.com/harrison/sar/internal/history"
	"github.com/harrison/sar/internal/models"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the 'sar history' command
func NewHistoryCommand() *cobra.Command {
	var limit int
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List recent sar runs, newest first, with their counters.

Examples:
  # Show the last 20 runs
  sar history

  # Show every recorded run
  sar history --limit 0

  # Show the files a run matched or failed on
  sar history show 3f2a9c1e`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, limit, dbPath)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 = all)")
	cmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "Path to history database (default: $SAR_HOME/history/runs.db)")

	cmd.AddCommand(newHistoryShowCommand(&dbPath))

	return cmd
}

// newHistoryShowCommand creates the 'sar history show' command
func newHistoryShowCommand(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the files recorded for a run",
		Long: `Show a run's settings and every file it matched or failed on.
The run id may be shortened to any unique prefix.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, args[0], *dbPath)
		},
	}
}

// openHistoryStore resolves the database path and opens it.
// A nil store with a nil error means no history has been recorded yet.
func openHistoryStore(output io.Writer, dbPathOverride string) (*history.Store, error) {
	dbPath := dbPathOverride
	if dbPath == "" {
		cfg, err := config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		dbPath, err = cfg.HistoryDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get history database path: %w", err)
		}
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(output, "No run history found at: %s\n", dbPath)
		return nil, nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return store, nil
}

// runHistoryList executes the history command
func runHistoryList(cmd *cobra.Command, limit int, dbPath string) error {
	output := cmd.OutOrStdout()

	store, err := openHistoryStore(output, dbPath)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(output, "No runs recorded yet.")
		return nil
	}

	printRunList(output, runs)
	return nil
}

// runHistoryShow executes the history show command
func runHistoryShow(cmd *cobra.Command, runID, dbPath string) error {
	output := cmd.OutOrStdout()

	store, err := openHistoryStore(output, dbPath)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(cmd.Context(), runID)
	if err != nil {
		return err
	}
	files, err := store.GetRunFiles(cmd.Context(), run.ID)
	if err != nil {
		return fmt.Errorf("get run files: %w", err)
	}

	printRunDetail(output, run, files)
	return nil
}

// printRunList prints one line per run
func printRunList(w io.Writer, runs []*history.RunRecord) {
	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(w, "%-8s  %-19s  %-7s  %7s  %6s  %6s  %s\n",
		"RUN", "STARTED", "MODE", "MATCHED", "EDITED", "ERRORS", "SEARCH")
	for _, run := range runs {
		fmt.Fprintf(w, "%-8s  %-19s  %-7s  %7d  %6d  %6d  %s",
			shortID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			runMode(run),
			run.FilesMatched,
			run.FilesEdited,
			run.FilesFailed+run.DirEntriesFailed,
			truncate(run.Search, 40))
		gray.Fprintf(w, "  %s\n", run.Root)
	}
}

// printRunDetail prints a run's settings, counters and files
func printRunDetail(w io.Writer, run *history.RunRecord, files []*history.FileRecord) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	cyan.Fprintf(w, "\n=== Run %s ===\n\n", run.ID)
	fmt.Fprintf(w, "  Started:     %s\n", run.StartedAt.Local().Format(time.RFC3339))
	if run.FinishedAt != nil {
		fmt.Fprintf(w, "  Finished:    %s (%s)\n", run.FinishedAt.Local().Format(time.RFC3339),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	} else {
		yellow.Fprintf(w, "  Finished:    never (interrupted)\n")
	}
	fmt.Fprintf(w, "  Directory:   %s\n", run.Root)
	fmt.Fprintf(w, "  Extensions:  %s\n", listOrAll(run.Extensions))
	fmt.Fprintf(w, "  Ignored:     %s\n", listOrNone(run.IgnoredDirs))
	fmt.Fprintf(w, "  Search:      %q\n", run.Search)
	fmt.Fprintf(w, "  Replace:     %q\n", run.Replace)
	fmt.Fprintf(w, "  Mode:        %s\n", runMode(run))
	fmt.Fprintf(w, "  Counters:    matched=%d edited=%d failed=%d dir_errors=%d\n\n",
		run.FilesMatched, run.FilesEdited, run.FilesFailed, run.DirEntriesFailed)

	if len(files) == 0 {
		fmt.Fprintln(w, "No files matched.")
		return
	}

	matched := 0
	for _, f := range files {
		if f.Outcome.IsMatch() {
			matched++
		}
	}
	cyan.Fprintf(w, "Files (%d, %d matched):\n", len(files), matched)
	for _, f := range files {
		switch f.Outcome {
		case models.OutcomeEdited:
			green.Fprintf(w, "  %-15s", f.Outcome)
		case models.OutcomeError:
			red.Fprintf(w, "  %-15s", f.Outcome)
		default:
			yellow.Fprintf(w, "  %-15s", f.Outcome)
		}
		fmt.Fprintf(w, " %s\n", f.Path)
		if f.ErrorMessage != "" {
			fmt.Fprintf(w, "  %-15s -- %s\n", "", f.ErrorMessage)
		}
	}
}

func runMode(run *history.RunRecord) string {
	mode := "edit"
	if run.DryRun {
		mode = "dry-run"
	}
	if run.Literal {
		return mode + "/lit"
	}
	return mode
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func listOrAll(values []string) string {
	if len(values) == 0 {
		return "(all files)"
	}
	return strings.Join(values, ", ")
}

func listOrNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}
