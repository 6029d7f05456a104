package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), Options{Path: MemoryDSN, WAL: true, Sync: "normal"})
	if err != nil {
		t.Fatalf("Open failed for in-memory DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func checkTableExists(t *testing.T, db *sql.DB, table string) {
	t.Helper()
	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?;`, table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Table '%s' does not exist, but it should.", table)
		return
	}
	if err != nil {
		t.Fatalf("Error checking if table '%s' exists: %v", table, err)
	}
}

func TestOptionsDSN(t *testing.T) {
	dsn, err := Options{Path: "lib.db", WAL: true, Sync: "full"}.DSN()
	if err != nil {
		t.Fatalf("DSN failed: %v", err)
	}
	want := "lib.db?_foreign_keys=on&_journal_mode=WAL&_synchronous=FULL"
	if dsn != want {
		t.Errorf("DSN = %q, want %q", dsn, want)
	}

	dsn, err = Options{Path: "file:lib.db?cache=shared"}.DSN()
	if err != nil {
		t.Fatalf("DSN failed: %v", err)
	}
	if dsn != "file:lib.db?cache=shared&_foreign_keys=on" {
		t.Errorf("unexpected DSN %q", dsn)
	}

	if _, err := (Options{Path: "x", Sync: "sometimes"}).DSN(); err == nil {
		t.Errorf("expected an error for an invalid sync pragma")
	}
}

func TestUpgradeDB(t *testing.T) {
	ctx := context.Background()

	t.Run("new database", func(t *testing.T) {
		db := openMemory(t)
		if err := UpgradeDB(ctx, db, MemoryDSN, TargetSchemaVersion, nil); err != nil {
			t.Fatalf("UpgradeDB failed on a new database: %v", err)
		}
		for _, table := range []string{"shoebox_versions", "users", "tag_types", "albums", "photos", "photo_tags"} {
			checkTableExists(t, db, table)
		}
		version, err := GetComponentSchemaVersion(ctx, db, LibraryDBComponent)
		if err != nil {
			t.Fatalf("GetComponentSchemaVersion failed: %v", err)
		}
		if version != TargetSchemaVersion {
			t.Errorf("expected version %d, got %d", TargetSchemaVersion, version)
		}
	})

	t.Run("already up to date", func(t *testing.T) {
		db := openMemory(t)
		if err := InitializeSchema(ctx, db, TargetSchemaVersion); err != nil {
			t.Fatalf("InitializeSchema failed: %v", err)
		}
		if err := UpgradeDB(ctx, db, MemoryDSN, TargetSchemaVersion, nil); err != nil {
			t.Fatalf("UpgradeDB failed on an up-to-date database: %v", err)
		}
	})

	t.Run("older version", func(t *testing.T) {
		db := openMemory(t)
		if err := InitializeSchema(ctx, db, 1); err != nil {
			t.Fatalf("InitializeSchema failed: %v", err)
		}
		err := UpgradeDB(ctx, db, MemoryDSN, 2, nil)
		if !errors.Is(err, ErrSchemaTooOld) {
			t.Fatalf("expected ErrSchemaTooOld, got %v", err)
		}
		if v, _ := GetComponentSchemaVersion(ctx, db, LibraryDBComponent); v != 1 {
			t.Errorf("version changed to %d after a refused upgrade", v)
		}
	})

	t.Run("newer version", func(t *testing.T) {
		db := openMemory(t)
		if err := InitializeSchema(ctx, db, 2); err != nil {
			t.Fatalf("InitializeSchema failed: %v", err)
		}
		if err := UpgradeDB(ctx, db, MemoryDSN, 1, nil); !errors.Is(err, ErrSchemaTooNew) {
			t.Fatalf("expected ErrSchemaTooNew, got %v", err)
		}
	})
}

func TestForeignKeysCascade(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	if err := UpgradeDB(ctx, db, MemoryDSN, TargetSchemaVersion, nil); err != nil {
		t.Fatalf("UpgradeDB failed: %v", err)
	}
	stmts := []string{
		`INSERT INTO users (username) VALUES ('alice');`,
		`INSERT INTO albums (id, username, position, name, created_at, modified_at) VALUES ('a1', 'alice', 0, 'Trip', 1, 1);`,
		`INSERT INTO photos (id, album_id, position, path, taken_at) VALUES ('p1', 'a1', 0, '/x.jpg', 1);`,
		`DELETE FROM users WHERE username = 'ALICE';`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM photos;`).Scan(&n); err != nil {
		t.Fatalf("count photos: %v", err)
	}
	if n != 0 {
		t.Errorf("expected photos to cascade away with their user, %d left", n)
	}
}
