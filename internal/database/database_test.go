package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Verify file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	// Verify tables exist by running a simple query
	for _, table := range []string{"floors", "factions", "rooms", "room_connections", "faction_claims"} {
		var count int
		if err := db.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Errorf("Failed to query %s table: %v", table, err)
		}
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	nestedPath := filepath.Join(tmpDir, "nested", "dir", "test.db")

	db, err := Open(nestedPath)
	if err != nil {
		t.Fatalf("Failed to open database with nested path: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(nestedPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestOpenTwiceRunsMigrationsIdempotently(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	first, err := Open(dbPath)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	first.Close()

	second, err := Open(dbPath)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	second.Close()
}

func TestOpenWithConfigUnknownDriver(t *testing.T) {
	_, err := OpenWithConfig(Config{Driver: "mysql"})
	if !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("error = %v, want ErrUnknownDriver", err)
	}
}

func TestClose(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Errorf("Failed to close database: %v", err)
	}

	// Verify database is closed by trying to query
	var count int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM floors").Scan(&count); err == nil {
		t.Error("Expected error querying closed database")
	}
}

// TestMigration_RoomsTableSchema verifies the rooms table has correct schema
func TestMigration_RoomsTableSchema(t *testing.T) {
	db := setupTestDB(t)

	columns := []string{"generation_id", "id", "floor_number", "x", "y", "room_type", "explored", "looted"}
	for _, col := range columns {
		var exists int
		err := db.db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('rooms') WHERE name = ?", col).Scan(&exists)
		if err != nil {
			t.Fatalf("Failed to check column %s: %v", col, err)
		}
		if exists == 0 {
			t.Errorf("Column %s not found in rooms table", col)
		}
	}
}

// TestMigration_IndexesExist verifies that query indexes are created
func TestMigration_IndexesExist(t *testing.T) {
	db := setupTestDB(t)

	for _, idx := range []string{"idx_floors_floor_number", "idx_faction_claims_faction_id"} {
		var exists int
		err := db.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&exists)
		if err != nil {
			t.Fatalf("Failed to check index %s: %v", idx, err)
		}
		if exists == 0 {
			t.Errorf("Index %s not found", idx)
		}
	}
}

// TestMigration_ForeignKeysEnabled verifies foreign keys are enforced
func TestMigration_ForeignKeysEnabled(t *testing.T) {
	db := setupTestDB(t)

	var fkEnabled int
	if err := db.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("Failed to check foreign_keys pragma: %v", err)
	}
	if fkEnabled != 1 {
		t.Error("Foreign keys are not enabled")
	}

	// A room for an unknown generation must be rejected
	_, err := db.db.Exec(`INSERT INTO rooms (generation_id, id, floor_number, x, y, room_type)
		VALUES ('missing', 'f1_r0_0', 1, 0, 0, 'normal')`)
	if err == nil {
		t.Error("Expected foreign key violation for orphan room")
	}
}

// TestMigration_WALModeEnabled verifies WAL journal mode is set
func TestMigration_WALModeEnabled(t *testing.T) {
	db := setupTestDB(t)

	var journalMode string
	if err := db.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("Failed to check journal_mode pragma: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("Expected WAL journal mode, got %s", journalMode)
	}
}
