// Package store persists band structures and Fermi surface maps in SQLite so
// that long mesh sweeps can be reloaded for plotting.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/notargets/TBFermi/bands"
	"github.com/notargets/TBFermi/hamiltonian"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run or matrix does not exist
var ErrNotFound = errors.New("store: not found")

// Matrix names written by SaveBandStructure beside the band names
const (
	FermiSurface = "fs"
	Unsmoothed   = "fs_raw"
)

// Run describes one model evaluation
type Run struct {
	ID      string
	Model   string
	Params  hamiltonian.Params
	Level   float64
	Kpoints int
	Created time.Time
}

// Store is a SQLite result database, safe for concurrent use
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
	log  *zap.Logger
}

// Open creates or opens the database at path
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path, log: log}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	runsTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		params TEXT NOT NULL,
		level REAL NOT NULL,
		kpoints INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);`
	if _, err := s.db.Exec(runsTable); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	matricesTable := `
	CREATE TABLE IF NOT EXISTS matrices (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		rows INTEGER NOT NULL,
		cols INTEGER NOT NULL,
		data BLOB NOT NULL,
		PRIMARY KEY (run_id, name)
	);`
	if _, err := s.db.Exec(matricesTable); err != nil {
		return fmt.Errorf("failed to create matrices table: %w", err)
	}
	return nil
}

// Close releases the database
func (s *Store) Close() error { return s.db.Close() }

// SaveRun records run, assigning a new ID and creation time when unset, and
// returns the ID
func (s *Store) SaveRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Created.IsZero() {
		run.Created = time.Now()
	}
	params, err := yaml.Marshal(run.Params)
	if err != nil {
		return "", fmt.Errorf("failed to encode params: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, model, params, level, kpoints, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Model, string(params), run.Level, run.Kpoints, run.Created.UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	s.log.Debug("run saved", zap.String("id", run.ID), zap.String("model", run.Model))
	return run.ID, nil
}

// Run loads one run
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRowContext(ctx,
		`SELECT id, model, params, level, kpoints, created_at FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: run %s", ErrNotFound, id)
	}
	return run, err
}

// Runs lists every run, newest first
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, model, params, level, kpoints, created_at FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run     Run
		params  string
		created int64
	)
	if err := sc.Scan(&run.ID, &run.Model, &params, &run.Level, &run.Kpoints, &created); err != nil {
		return Run{}, err
	}
	if err := yaml.Unmarshal([]byte(params), &run.Params); err != nil {
		return Run{}, fmt.Errorf("failed to decode params of run %s: %w", run.ID, err)
	}
	run.Created = time.Unix(0, created)
	return run, nil
}

// SaveMatrix stores m under name for the run, replacing an existing entry
func (s *Store) SaveMatrix(ctx context.Context, runID, name string, m *mat.Dense) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode matrix %s: %w", name, err)
	}
	r, c := m.Dims()

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO matrices (run_id, name, rows, cols, data) VALUES (?, ?, ?, ?, ?)`,
		runID, name, r, c, data)
	if err != nil {
		return fmt.Errorf("failed to insert matrix %s: %w", name, err)
	}
	return nil
}

// LoadMatrix reads a matrix written by SaveMatrix
func (s *Store) LoadMatrix(ctx context.Context, runID, name string) (*mat.Dense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM matrices WHERE run_id = ? AND name = ?`, runID, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: matrix %s of run %s", ErrNotFound, name, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query matrix %s: %w", name, err)
	}
	var m mat.Dense
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("failed to decode matrix %s: %w", name, err)
	}
	return &m, nil
}

// MatrixNames lists the matrices of a run in name order
func (s *Store) MatrixNames(ctx context.Context, runID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM matrices WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matrices: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// SaveBandStructure writes every band under its band name, plus the Fermi
// surface maps when non nil
func (s *Store) SaveBandStructure(ctx context.Context, runID string, bs *bands.BandStructure, fs, raw *mat.Dense) error {
	for n, b := range bs.Bands {
		if err := s.SaveMatrix(ctx, runID, bs.Names[n], b); err != nil {
			return err
		}
	}
	if fs != nil {
		if err := s.SaveMatrix(ctx, runID, FermiSurface, fs); err != nil {
			return err
		}
	}
	if raw != nil {
		if err := s.SaveMatrix(ctx, runID, Unsmoothed, raw); err != nil {
			return err
		}
	}
	return nil
}

// LoadBandStructure reads back the bands listed in names
func (s *Store) LoadBandStructure(ctx context.Context, runID string, names []string) (*bands.BandStructure, error) {
	run, err := s.Run(ctx, runID)
	if err != nil {
		return nil, err
	}
	bs := &bands.BandStructure{Model: run.Model, Names: names, Bands: make([]*mat.Dense, len(names))}
	for n, name := range names {
		if bs.Bands[n], err = s.LoadMatrix(ctx, runID, name); err != nil {
			return nil, err
		}
	}
	return bs, nil
}
