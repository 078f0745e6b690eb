// Package testutil provides test fixtures for the report ledger: an isolated
// database and a fluent builder for jet reports.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/Veraticus/aviation-bay/internal/storage"
)

// TestDB is a migrated, test-scoped report ledger.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory ledger and seeds it with reports.
// Migrations and cleanup are handled automatically.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		testutil.NewReport("AVBAY-1").WithCategories(model.CategoryDrone).Build(),
//	)
func SetupTestDB(t *testing.T, reports ...*model.JetReport) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Logf("Failed to close store: %v", closeErr)
		}
	})

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db := &TestDB{Storage: store, t: t}
	db.Seed(reports...)
	return db
}

// Seed saves reports or fails the test.
func (db *TestDB) Seed(reports ...*model.JetReport) {
	db.t.Helper()
	for _, r := range reports {
		if err := db.Storage.SaveReport(context.Background(), r); err != nil {
			db.t.Fatalf("failed to seed report %q: %v", r.ID, err)
		}
	}
}

// MustGetReport returns the stored report with the given id or fails the test.
func (db *TestDB) MustGetReport(id string) *model.JetReport {
	db.t.Helper()
	r, err := db.Storage.GetReport(context.Background(), id)
	if err != nil {
		db.t.Fatalf("report %q not found: %v", id, err)
	}
	return r
}
