// Package testsupport holds helpers shared by tests that need real
// infrastructure, such as an in-memory archive database.
package testsupport

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteMemoryDB opens a shared in-memory SQLite database for archive
// repository tests. Callers should cap open connections at one so every
// statement sees the same memory store.
func NewSQLiteMemoryDB() (*sql.DB, error) {
	return sql.Open("sqlite3", "file::memory:?cache=shared")
}
