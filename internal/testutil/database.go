package testutil

import (
	"testing"

	"jasper-go/internal/database"
	"jasper-go/internal/jasper"
)

// NewTestDatabase creates an in-memory SQLite store with the schema applied,
// using real time and UUIDs. It is closed when the test completes.
func NewTestDatabase(t *testing.T) jasper.Database {
	t.Helper()
	return NewTestDatabaseWith(t, nil, nil)
}

// NewTestDatabaseWith is NewTestDatabase with an injected clock and id source.
func NewTestDatabaseWith(t *testing.T, clock jasper.Clock, ids jasper.IDGenerator) *database.SQLiteDatabase {
	t.Helper()

	sqlDB, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if _, err := sqlDB.Exec(database.Schema); err != nil {
		sqlDB.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	db := database.NewSQLiteDatabaseFromDB(sqlDB, clock, ids)
	t.Cleanup(func() {
		db.Close()
	})
	return db
}
