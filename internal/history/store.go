// Package history keeps a SQLite record of sar runs and the files each run
// matched or failed on.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/sar/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrRunNotFound is returned when no run matches an id or id prefix
	ErrRunNotFound = errors.New("run not found")

	// ErrAmbiguousRunID is returned when an id prefix matches more than one run
	ErrAmbiguousRunID = errors.New("run id prefix matches more than one run")
)

// RunRecord is one recorded invocation
type RunRecord struct {
	ID               string
	StartedAt        time.Time
	FinishedAt       *time.Time // nil while the run is in progress or was interrupted
	Root             string
	Extensions       []string
	IgnoredDirs      []string
	Search           string
	Replace          string
	Literal          bool
	DryRun           bool
	FilesMatched     int64
	FilesEdited      int64
	FilesFailed      int64
	DirEntriesFailed int64
}

// FileRecord is a file that matched or failed during a run
type FileRecord struct {
	ID           int64
	RunID        string
	Path         string
	Outcome      models.FileOutcome
	ErrorMessage string
	RecordedAt   time.Time
}

// Store manages the SQLite run history database
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new Store instance and initializes the database
func NewStore(dbPath string) (*Store, error) {
	if dbPath == ":memory:" {
		return openAndInitStore(dbPath)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	return openAndInitStore(dbPath)
}

func openAndInitStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	// busy_timeout must be set first so the others wait on locks
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, sql string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(sql)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database location
func (s *Store) Path() string {
	return s.dbPath
}

// StartRun records the beginning of a run and returns a handle for its files
func (s *Store) StartRun(ctx context.Context, req models.Request) (*Run, error) {
	extensions, err := marshalList(req.Extensions)
	if err != nil {
		return nil, fmt.Errorf("marshal extensions: %w", err)
	}
	ignoredDirs, err := marshalList(req.IgnoredDirs)
	if err != nil {
		return nil, fmt.Errorf("marshal ignored dirs: %w", err)
	}

	run := &Run{
		store:     s,
		ctx:       ctx,
		id:        uuid.NewString(),
		startedAt: time.Now().UTC(),
	}

	query := `INSERT INTO runs
		(id, started_at, root, extensions, ignored_dirs, search_text, replace_text, literal, dry_run)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		run.id, run.startedAt, req.Root, extensions, ignoredDirs,
		req.Search, req.Replace, req.Literal, req.DryRun)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	return run, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// GetRun returns the run whose id is idOrPrefix or starts with it
func (s *Store) GetRun(ctx context.Context, idOrPrefix string) (*RunRecord, error) {
	if idOrPrefix == "" {
		return nil, ErrRunNotFound
	}

	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ? OR substr(id, 1, ?) = ? LIMIT 2`
	rows, err := s.db.QueryContext(ctx, query, idOrPrefix, len(idOrPrefix), idOrPrefix)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	var found []*RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, idOrPrefix)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRunID, idOrPrefix)
	}
}

// GetRunFiles returns the files recorded for a run in the order they were processed
func (s *Store) GetRunFiles(ctx context.Context, runID string) ([]*FileRecord, error) {
	query := `SELECT id, run_id, path, outcome, error_message, recorded_at
		FROM run_files WHERE run_id = ? ORDER BY id ASC`
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query run files: %w", err)
	}
	defer rows.Close()

	var files []*FileRecord
	for rows.Next() {
		f := &FileRecord{}
		var outcome string
		var errMsg sql.NullString
		if err := rows.Scan(&f.ID, &f.RunID, &f.Path, &outcome, &errMsg, &f.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		f.Outcome = models.FileOutcome(outcome)
		f.ErrorMessage = errMsg.String
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run files: %w", err)
	}

	return files, nil
}

const runColumns = `id, started_at, finished_at, root, extensions, ignored_dirs, search_text, replace_text,
	literal, dry_run, files_matched, files_edited, files_failed, dir_entries_failed`

func scanRun(rows *sql.Rows) (*RunRecord, error) {
	r := &RunRecord{}
	var finishedAt sql.NullTime
	var extensions, ignoredDirs sql.NullString
	err := rows.Scan(&r.ID, &r.StartedAt, &finishedAt, &r.Root, &extensions, &ignoredDirs,
		&r.Search, &r.Replace, &r.Literal, &r.DryRun,
		&r.FilesMatched, &r.FilesEdited, &r.FilesFailed, &r.DirEntriesFailed)
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		r.FinishedAt = &t
	}
	if r.Extensions, err = unmarshalList(extensions); err != nil {
		return nil, fmt.Errorf("unmarshal extensions: %w", err)
	}
	if r.IgnoredDirs, err = unmarshalList(ignoredDirs); err != nil {
		return nil, fmt.Errorf("unmarshal ignored dirs: %w", err)
	}
	return r, nil
}

func marshalList(values []string) (string, error) {
	if len(values) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalList(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" || raw.String == "[]" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw.String), &values); err != nil {
		return nil, err
	}
	return values, nil
}

// Run is an in-progress run. It records files as the engine reports them.
type Run struct {
	store     *Store
	ctx       context.Context
	id        string
	startedAt time.Time
	mu        sync.Mutex
}

// ID returns the run's uuid
func (r *Run) ID() string {
	return r.id
}

// RecordFile stores one matched or failed file
func (r *Run) RecordFile(path string, outcome models.FileOutcome, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errMsg sql.NullString
	if cause != nil {
		errMsg = sql.NullString{String: cause.Error(), Valid: true}
	}

	query := `INSERT INTO run_files (run_id, path, outcome, error_message, recorded_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.store.db.ExecContext(r.ctx, query, r.id, path, string(outcome), errMsg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert run file: %w", err)
	}
	return nil
}

// Finish stores the final counters and marks the run complete
func (r *Run) Finish(summary *models.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `UPDATE runs SET finished_at = ?, files_matched = ?, files_edited = ?,
		files_failed = ?, dir_entries_failed = ? WHERE id = ?`
	_, err := r.store.db.ExecContext(r.ctx, query, time.Now().UTC(),
		summary.FilesMatched(), summary.FilesEdited(), summary.FilesFailed(), summary.DirEntriesFailed(), r.id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}
