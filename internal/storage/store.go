package storage

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/san-kum/neurodyn/internal/runner"
)

const (
	indexFile    = "runs.db"
	metadataFile = "metadata.json"
	recordsFile  = "monitors.csv"
)

// ErrNotFound is returned for an unknown run id.
var ErrNotFound = errors.New("storage: run not found")

// RunMetadata describes one stored run.
type RunMetadata struct {
	ID        string             `json:"id"`
	Model     string             `json:"model"`
	Method    string             `json:"method"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      uint64             `json:"seed"`
	Size      int                `json:"size"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Steps     int                `json:"steps"`
	Input     float64            `json:"input"`
	Params    map[string]float64 `json:"params,omitempty"`
	Monitors  []string           `json:"monitors,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Store keeps each run in its own directory (metadata.json and
// monitors.csv) and indexes runs in a SQLite database beside them.
type Store struct {
	baseDir string
	db      *sql.DB
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	model      TEXT NOT NULL,
	method     TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	seed       INTEGER NOT NULL,
	size       INTEGER NOT NULL,
	dt         REAL NOT NULL,
	duration   REAL NOT NULL,
	steps      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs(created_at);
`

// Init creates the base directory and opens the run index.
func (s *Store) Init(ctx context.Context) error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	db, err := sql.Open("sqlite", filepath.Join(s.baseDir, indexFile)+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("open run index: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("init run index: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) ready() error {
	if s.db == nil {
		return errors.New("storage: store not initialized")
	}
	return nil
}

// Save writes a run and returns its id. ID, Timestamp, Steps and
// Monitors of meta are filled in.
func (s *Store) Save(ctx context.Context, meta RunMetadata, result *runner.Result) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	meta.ID = uuid.New().String()
	meta.Timestamp = s.now().UTC()
	meta.Steps = result.StepsTaken
	meta.Monitors = result.Monitors

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := s.write(ctx, runDir, meta, result); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return meta.ID, nil
}

// write fills runDir and indexes the run. created_at holds Unix
// nanoseconds so the index orders numerically.
func (s *Store) write(ctx context.Context, runDir string, meta RunMetadata, result *runner.Result) error {
	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return err
	}
	if err := writeRecords(filepath.Join(runDir, recordsFile), result); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, model, method, created_at, seed, size, dt, duration, steps)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Model, meta.Method, meta.Timestamp.UnixNano(),
		int64(meta.Seed), meta.Size, meta.Dt, meta.Duration, meta.Steps)
	if err != nil {
		return fmt.Errorf("index run %s: %w", meta.ID, err)
	}
	return nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// writeRecords writes one row per step: the time, then every element of
// every monitor. Columns are named monitor[i].
func writeRecords(path string, result *runner.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"time"}
	widths := make([]int, len(result.Monitors))
	for i, name := range result.Monitors {
		if rec := result.Records[name]; len(rec) > 0 {
			widths[i] = len(rec[0])
		}
		for j := 0; j < widths[i]; j++ {
			header = append(header, fmt.Sprintf("%s[%d]", name, j))
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for k, t := range result.Times {
		row := []string{strconv.FormatFloat(t, 'g', -1, 64)}
		for i, name := range result.Monitors {
			vals := result.Records[name][k]
			for j := 0; j < widths[i]; j++ {
				v := 0.0
				if j < len(vals) {
					v = vals[j]
				}
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadRecords reads the monitor samples of a run back into a result.
func (s *Store) LoadRecords(runID string) (*runner.Result, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, recordsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("storage: %s has no header", recordsFile)
	}

	type column struct {
		name string
		idx  int
	}
	cols := make([]column, 0, len(records[0])-1)
	result := &runner.Result{Records: make(map[string][][]float64)}
	for _, h := range records[0][1:] {
		open := strings.LastIndexByte(h, '[')
		if open < 0 || !strings.HasSuffix(h, "]") {
			return nil, fmt.Errorf("storage: bad column %q", h)
		}
		idx, err := strconv.Atoi(h[open+1 : len(h)-1])
		if err != nil {
			return nil, fmt.Errorf("storage: bad column %q: %w", h, err)
		}
		name := h[:open]
		if _, ok := result.Records[name]; !ok {
			result.Monitors = append(result.Monitors, name)
			result.Records[name] = nil
		}
		cols = append(cols, column{name, idx})
	}

	for _, rec := range records[1:] {
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, err
		}
		result.Times = append(result.Times, t)
		row := make(map[string][]float64, len(result.Monitors))
		for c, field := range rec[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, err
			}
			row[cols[c].name] = append(row[cols[c].name], v)
		}
		for _, name := range result.Monitors {
			result.Records[name] = append(result.Records[name], row[name])
		}
	}
	result.StepsTaken = len(result.Times)
	if len(result.Times) > 1 {
		result.Dt = result.Times[1] - result.Times[0]
	}
	return result, nil
}

// List returns indexed runs, newest first.
func (s *Store) List(ctx context.Context) ([]RunMetadata, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, model, method, created_at, seed, size, dt, duration, steps
		 FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var (
			m       RunMetadata
			created int64
			seed    int64
		)
		if err := rows.Scan(&m.ID, &m.Model, &m.Method, &created, &seed, &m.Size, &m.Dt, &m.Duration, &m.Steps); err != nil {
			return nil, err
		}
		m.Seed = uint64(seed)
		m.Timestamp = time.Unix(0, created).UTC()
		runs = append(runs, m)
	}
	return runs, rows.Err()
}

// Delete removes a run's files and index entry.
func (s *Store) Delete(ctx context.Context, runID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return os.RemoveAll(filepath.Join(s.baseDir, runID))
}
