// Package migrate brings the workflow database up to the latest schema.
package migrate

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
)

//go:embed sql/*.sql
var schemaFS embed.FS

// Migrate applies every embedded migration newer than the recorded
// schema_version, all inside one transaction. Files under sql/ are
// named NNNN_description.sql and run in ascending version order.
func Migrate(db *sql.DB) error {
	names, err := fs.Glob(schemaFS, "sql/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	current, err := schemaVersion(tx)
	if err != nil {
		return err
	}
	for _, name := range names {
		v, err := versionOf(name)
		if err != nil {
			return err
		}
		if v <= current {
			continue
		}
		stmt, err := schemaFS.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(stmt)); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
		if _, err := tx.Exec(`UPDATE schema_version SET version=?`, v); err != nil {
			return fmt.Errorf("update schema_version: %w", err)
		}
		current = v
	}
	return tx.Commit()
}

// schemaVersion reads the current version, creating and seeding the
// bookkeeping table on first run.
func schemaVersion(tx *sql.Tx) (int, error) {
	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_version(version INTEGER NOT NULL)`); err != nil {
		return 0, fmt.Errorf("create schema_version: %w", err)
	}
	var v int
	err := tx.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&v)
	if err == sql.ErrNoRows {
		if _, err := tx.Exec(`INSERT INTO schema_version(version) VALUES (0)`); err != nil {
			return 0, fmt.Errorf("init schema_version: %w", err)
		}
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	return v, nil
}

func versionOf(name string) (int, error) {
	var v int
	if _, err := fmt.Sscanf(path.Base(name), "%d_", &v); err != nil {
		return 0, fmt.Errorf("invalid migration filename %s: %w", name, err)
	}
	return v, nil
}
