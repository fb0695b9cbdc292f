// Package sqlite implements persistence.GraphPersistence and
// persistence.IncrementalPersistence against a SQLite-backed table pair,
// as a concrete (non-core) example of the collaborator spec.md §6
// describes only by interface. Grounded on the teacher's
// internal/storage/sqlite.go (prepared-statement set, pragma
// configuration, schema versioning) adapted from the teacher's
// thought/branch rows to one JSON blob per graph record.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"graphreason/internal/checkpoint"
	"graphreason/internal/persistence"
)

// Verify Store implements both capability profiles.
var _ persistence.IncrementalPersistence = (*Store)(nil)

// Store persists checkpoint.Record values to a SQLite database. It
// implements both persistence.GraphPersistence and
// persistence.IncrementalPersistence.
type Store struct {
	db *sql.DB

	stmtUpsertGraph      *sql.Stmt
	stmtGetGraph         *sql.Stmt
	stmtDeleteGraph      *sql.Stmt
	stmtUpsertCheckpoint *sql.Stmt
	stmtGetCheckpoint    *sql.Stmt
}

// Open creates (or reuses) a SQLite database at dbPath and returns a Store
// ready for use.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite: database path cannot be empty")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping database: %w", err)
	}
	if err := configureSQLite(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: configure: %w", err)
	}
	if err := initializeSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}

	s := &Store{db: db}
	if err := s.prepareStatements(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: prepare statements: %w", err)
	}
	return s, nil
}

func (s *Store) prepareStatements() error {
	var err error

	s.stmtUpsertGraph, err = s.db.Prepare(`
		INSERT INTO graphs (graph_id, record, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(graph_id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert graph: %w", err)
	}

	s.stmtGetGraph, err = s.db.Prepare(`SELECT record FROM graphs WHERE graph_id = ?`)
	if err != nil {
		return fmt.Errorf("prepare get graph: %w", err)
	}

	s.stmtDeleteGraph, err = s.db.Prepare(`DELETE FROM graphs WHERE graph_id = ?`)
	if err != nil {
		return fmt.Errorf("prepare delete graph: %w", err)
	}

	s.stmtUpsertCheckpoint, err = s.db.Prepare(`
		INSERT INTO checkpoints (graph_id, checkpoint_id, record, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(graph_id, checkpoint_id) DO UPDATE SET record = excluded.record, created_at = excluded.created_at
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert checkpoint: %w", err)
	}

	s.stmtGetCheckpoint, err = s.db.Prepare(`
		SELECT record FROM checkpoints WHERE graph_id = ? AND checkpoint_id = ?
	`)
	if err != nil {
		return fmt.Errorf("prepare get checkpoint: %w", err)
	}

	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveGraph upserts graphID's canonical record.
func (s *Store) SaveGraph(graphID string, rec checkpoint.Record) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("sqlite: marshal graph record: %w", err)
	}
	if _, err := s.stmtUpsertGraph.Exec(graphID, string(blob), time.Now().Unix()); err != nil {
		return fmt.Errorf("sqlite: save graph %s: %w", graphID, err)
	}
	return nil
}

// LoadGraph returns graphID's canonical record, or ok=false if unknown.
func (s *Store) LoadGraph(graphID string) (*checkpoint.Record, bool, error) {
	var blob string
	err := s.stmtGetGraph.QueryRow(graphID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: load graph %s: %w", graphID, err)
	}
	var rec checkpoint.Record
	if err := json.Unmarshal([]byte(blob), &rec); err != nil {
		return nil, false, fmt.Errorf("sqlite: unmarshal graph %s: %w", graphID, err)
	}
	return &rec, true, nil
}

// DeleteGraph removes graphID and every checkpoint under it, reporting
// whether a row existed.
func (s *Store) DeleteGraph(graphID string) (bool, error) {
	res, err := s.stmtDeleteGraph.Exec(graphID)
	if err != nil {
		return false, fmt.Errorf("sqlite: delete graph %s: %w", graphID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: delete graph %s: %w", graphID, err)
	}
	return n > 0, nil
}

// SaveCheckpoint upserts a named checkpoint under graphID.
func (s *Store) SaveCheckpoint(graphID, checkpointID string, rec checkpoint.Record) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("sqlite: marshal checkpoint record: %w", err)
	}
	if _, err := s.stmtUpsertCheckpoint.Exec(graphID, checkpointID, string(blob), time.Now().Unix()); err != nil {
		return fmt.Errorf("sqlite: save checkpoint %s/%s: %w", graphID, checkpointID, err)
	}
	return nil
}

// LoadCheckpoint returns the named checkpoint's record, or ok=false if
// unknown.
func (s *Store) LoadCheckpoint(graphID, checkpointID string) (*checkpoint.Record, bool, error) {
	var blob string
	err := s.stmtGetCheckpoint.QueryRow(graphID, checkpointID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: load checkpoint %s/%s: %w", graphID, checkpointID, err)
	}
	var rec checkpoint.Record
	if err := json.Unmarshal([]byte(blob), &rec); err != nil {
		return nil, false, fmt.Errorf("sqlite: unmarshal checkpoint %s/%s: %w", graphID, checkpointID, err)
	}
	return &rec, true, nil
}
