package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens the pure-Go SQLite backend used for development and tests.
// Unlike the postgres pool, migrations always run here: the file (or ":memory:"
// database) is owned by this process alone.
func OpenSQLite(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// Pragmas apply per connection and a ":memory:" database exists per
	// connection, so the pool is pinned to a single one.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	// WAL lets reads proceed during writes; foreign_keys is off by default
	// and the crosses cascade depends on it.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	if err := runSQLiteMigrations(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: migrations: %w", err)
	}
	return conn, nil
}
