package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

// Store is one handle on the backing database. The engine owns the primary
// handle; each subsystem receives its own via Reopen.
type Store struct {
	db  *sql.DB
	dsn string
}

// Open creates or opens the SQLite database at the given DSN. A plain file
// path works; so does a shared-cache URI for in-memory runs
// (file:name?mode=memory&cache=shared), which is what lets Reopen handles
// see the same in-memory database.
//
// The connection is configured with WAL journaling, NORMAL synchronous
// mode, a 5-second busy timeout, and foreign key enforcement. The pool is
// capped at one connection per handle: SQLite allows one writer at a time,
// and a single connection avoids SQLITE_BUSY churn inside a tick.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, sim.StoreErr("open database", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, sim.StoreErr("connect database", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

// Reopen produces an independent handle on the same database. Shared-cache
// URIs keep in-memory databases visible across handles.
func (s *Store) Reopen() (*Store, error) {
	return Open(s.dsn)
}

// Close closes the handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying connection for read-only observation (tests,
// the verify command). Prefer named methods everywhere else.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return sim.StoreErr(fmt.Sprintf("apply %q", pragma), err)
		}
	}
	return nil
}
