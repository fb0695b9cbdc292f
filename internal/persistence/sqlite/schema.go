package sqlite

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// schema defines the two tables backing GraphPersistence and
// IncrementalPersistence: one row per graph's canonical record, and one
// row per named checkpoint within a graph.
const schema = `
CREATE TABLE IF NOT EXISTS schema_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS graphs (
    graph_id   TEXT PRIMARY KEY,
    record     TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS checkpoints (
    graph_id      TEXT NOT NULL,
    checkpoint_id TEXT NOT NULL,
    record        TEXT NOT NULL,
    created_at    INTEGER NOT NULL,
    PRIMARY KEY (graph_id, checkpoint_id),
    FOREIGN KEY (graph_id) REFERENCES graphs(graph_id) ON DELETE CASCADE
);
`

func initializeSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var currentVersion int
	err := db.QueryRow("SELECT value FROM schema_metadata WHERE key = 'version'").Scan(&currentVersion)
	switch {
	case err == sql.ErrNoRows:
		if _, err := db.Exec("INSERT INTO schema_metadata (key, value) VALUES ('version', ?)", schemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("query schema version: %w", err)
	case currentVersion != schemaVersion:
		return fmt.Errorf("schema version mismatch: expected %d, got %d", schemaVersion, currentVersion)
	}
	return nil
}

// configureSQLite sets the pragmas the teacher's storage package uses for
// its own single-writer-many-reader workload, unchanged.
func configureSQLite(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}
