package store

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationTable = "schema_migrations"

// Migrate applies every pending migration script in numeric order, one
// transaction per script, and records each in schema_migrations. Safe to
// call repeatedly: applied scripts are skipped. Fails fast on the first
// error; the failing script's transaction rolls back so no partially
// applied migration is left behind.
func (s *Store) Migrate() error {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return sim.StoreErr("read migrations dir", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if _, err := s.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name TEXT PRIMARY KEY,
			seq  INTEGER NOT NULL
		)`, migrationTable)); err != nil {
		return sim.StoreErr("ensure migration table", err)
	}

	for seq, file := range files {
		applied, err := s.migrationApplied(file)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		script, err := fs.ReadFile(migrationFS, "migrations/"+file)
		if err != nil {
			return sim.StoreErr(fmt.Sprintf("read migration %s", file), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return sim.StoreErr(fmt.Sprintf("begin migration %s", file), err)
		}
		if _, err := tx.Exec(string(script)); err != nil {
			tx.Rollback()
			return sim.StoreErr(fmt.Sprintf("exec migration %s", file), err)
		}
		if _, err := tx.Exec(
			fmt.Sprintf("INSERT INTO %s (name, seq) VALUES (?, ?)", migrationTable),
			file, seq,
		); err != nil {
			tx.Rollback()
			return sim.StoreErr(fmt.Sprintf("record migration %s", file), err)
		}
		if err := tx.Commit(); err != nil {
			return sim.StoreErr(fmt.Sprintf("commit migration %s", file), err)
		}
	}

	return nil
}

// SchemaVersion returns the name of the highest applied migration, or ""
// when none have been applied.
func (s *Store) SchemaVersion() (string, error) {
	var name string
	err := s.db.QueryRow(
		fmt.Sprintf("SELECT name FROM %s ORDER BY seq DESC LIMIT 1", migrationTable),
	).Scan(&name)
	if err != nil {
		return "", sim.StoreErr("read schema version", err)
	}
	return name, nil
}

func (s *Store) migrationApplied(name string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE name = ?", migrationTable),
		name,
	).Scan(&count)
	if err != nil {
		return false, sim.StoreErr(fmt.Sprintf("check migration %s", name), err)
	}
	return count > 0, nil
}
