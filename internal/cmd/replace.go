package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/harrison/sar/internal/config"
	"github.com/harrison/sar/internal/display"
	"github.com/harrison/sar/internal/filelock"
	"github.com/harrison/sar/internal/fileutil"
	"github.com/harrison/sar/internal/history"
	"github.com/harrison/sar/internal/logger"
	"github.com/harrison/sar/internal/models"
	"github.com/harrison/sar/internal/replacer"
	"github.com/spf13/cobra"
)

// addReplaceFlags registers the flags of the replacement run on cmd
func addReplaceFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("directory", "d", ".", "Directory to search")
	cmd.Flags().StringArrayP("extensions", "x", nil, "File name suffixes to include, without a leading dot (repeatable; space or comma separated)")
	cmd.Flags().StringArrayP("ignore", "i", nil, "Directory names to skip (repeatable; space or comma separated)")
	cmd.Flags().StringP("search", "s", "", "Text or regular expression to search for (required)")
	cmd.Flags().StringP("replace", "r", "", "Replacement text; may reference capture groups")
	cmd.Flags().Bool("dry", false, "Report matches without modifying files")
	cmd.Flags().BoolP("literal", "l", false, "Treat the search text as plain text")
	cmd.Flags().Bool("diff", false, "Print a unified diff for every matched file")
	cmd.Flags().Bool("gitignore", false, "Skip paths matched by the .gitignore in the search directory")
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().String("config", "", "Path to config file (default: ./.sar.yaml)")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")

	cmd.MarkFlagRequired("search")
}

// runReplace implements the root command
func runReplace(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cfg.MergeWithFlags(flagOverrides(cmd))

	// Checked ahead of Validate so the CLI reports the sentinel message
	if !fileutil.ValidateExtensions(cfg.Extensions) {
		return replacer.ErrInvalidExtensions
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	directory, _ := cmd.Flags().GetString("directory")
	search, _ := cmd.Flags().GetString("search")
	replace, _ := cmd.Flags().GetString("replace")

	if search == "" {
		return replacer.ErrEmptySearch
	}
	if _, err := replacer.CompilePattern(search, replace, cfg.Literal); err != nil {
		return err
	}

	req := models.Request{
		Root:         directory,
		Extensions:   cfg.Extensions,
		IgnoredDirs:  cfg.IgnoredDirs,
		Search:       search,
		Replace:      replace,
		Literal:      cfg.Literal,
		DryRun:       cfg.DryRun,
		ShowDiff:     cfg.Diff,
		UseGitignore: cfg.Gitignore,
	}

	log := logger.NewConsoleLogger(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.LogLevel)
	log.LogTrace(fmt.Sprintf("Resolved request: %+v", req))
	log.LogBanner(bannerMessage(req))
	if len(req.Extensions) == 0 && !req.DryRun {
		display.WarnUnfilteredRun(req.Root).Display(cmd.ErrOrStderr())
	}

	if !cfg.AssumeYes && !confirmAction(cmd.InOrStdin(), cmd.OutOrStdout(), "Do you want to continue?", true) {
		fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled.")
		return nil
	}

	// Dry runs never write, so they do not need the lock
	if !req.DryRun {
		lock, err := acquireRunLock(req.Root, log)
		if err != nil {
			return err
		}
		if lock != nil {
			defer lock.Unlock()
		}
	}

	var run *history.Run
	if cfg.History.Enabled {
		store, historyRun := startHistory(cmd.Context(), cfg, req, log)
		if store != nil {
			defer store.Close()
		}
		run = historyRun
	}

	opts := replacer.RunOptions{Logger: log}
	if run != nil {
		opts.Recorder = run
	}

	summary, err := replacer.Run(req, opts)
	if err != nil {
		return err
	}

	if run != nil {
		if err := run.Finish(summary); err != nil {
			log.LogWarn(fmt.Sprintf("failed to finish history record: %v", err))
		} else {
			log.LogDebug(fmt.Sprintf("Run recorded as %s", run.ID()))
		}
	}

	log.LogSummary(summary)
	if summary.HasErrors() {
		log.LogWarn("some files or directories could not be processed, see the errors above")
	}
	return nil
}

// loadConfig loads --config if given, otherwise ./.sar.yaml
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadConfigFromDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// flagOverrides collects the flags that were set on the command line
func flagOverrides(cmd *cobra.Command) config.FlagOverrides {
	var flags config.FlagOverrides
	f := cmd.Flags()

	if f.Changed("extensions") {
		values, _ := f.GetStringArray("extensions")
		exts := splitList(values)
		flags.Extensions = &exts
	}
	if f.Changed("ignore") {
		values, _ := f.GetStringArray("ignore")
		dirs := splitList(values)
		flags.IgnoredDirs = &dirs
	}
	if f.Changed("log-level") {
		level, _ := f.GetString("log-level")
		flags.LogLevel = &level
	}

	boolFlags := []struct {
		name string
		dst  **bool
	}{
		{"dry", &flags.DryRun},
		{"literal", &flags.Literal},
		{"gitignore", &flags.Gitignore},
		{"diff", &flags.Diff},
		{"yes", &flags.AssumeYes},
		{"no-history", &flags.NoHistory},
	}
	for _, bf := range boolFlags {
		if f.Changed(bf.name) {
			value, _ := f.GetBool(bf.name)
			*bf.dst = &value
		}
	}

	return flags
}

// splitList flattens repeated flag values that may each hold several
// space or comma separated items
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})...)
	}
	return out
}

// bannerMessage describes the run before asking for confirmation
func bannerMessage(req models.Request) string {
	quoted := make([]string, len(req.Extensions))
	for i, ext := range req.Extensions {
		quoted[i] = strconv.Quote(ext)
	}
	return fmt.Sprintf("In directory: \"%s\", for file extension(s): [%s], search for: \"%s\" and replace with: \"%s\" and dry-run: %t",
		req.Root, strings.Join(quoted, ", "), req.Search, req.Replace, req.DryRun)
}

// acquireRunLock takes the per-root lock under SAR_HOME.
// Only a lock held by another run is fatal. When the lock cannot be set up
// at all the run goes ahead unlocked with a warning.
func acquireRunLock(root string, log *logger.ConsoleLogger) (*filelock.FileLock, error) {
	lockDir, err := config.GetLockDir()
	if err != nil {
		log.LogWarn(fmt.Sprintf("run lock disabled: %v", err))
		return nil, nil
	}
	lock, err := filelock.AcquireRunLock(lockDir, root)
	if err != nil {
		if errors.Is(err, filelock.ErrRunLocked) {
			return nil, fmt.Errorf("another sar run is rewriting %s: %w", root, err)
		}
		log.LogWarn(fmt.Sprintf("run lock disabled: %v", err))
		return nil, nil
	}
	log.LogDebug(fmt.Sprintf("Holding run lock %s", lock.Path()))
	return lock, nil
}

// startHistory opens the history store and records the run start.
// Failures are logged as warnings and the run continues unrecorded.
func startHistory(ctx context.Context, cfg *config.Config, req models.Request, log *logger.ConsoleLogger) (*history.Store, *history.Run) {
	if ctx == nil {
		ctx = context.Background()
	}

	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		log.LogWarn(fmt.Sprintf("run history disabled: %v", err))
		return nil, nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		log.LogWarn(fmt.Sprintf("run history disabled: %v", err))
		return nil, nil
	}

	if abs, err := filepath.Abs(req.Root); err == nil {
		req.Root = abs
	}
	run, err := store.StartRun(ctx, req)
	if err != nil {
		log.LogWarn(fmt.Sprintf("run history disabled: %v", err))
		return store, nil
	}
	return store, run
}
