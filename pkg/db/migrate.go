package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	// TargetSchemaVersion is the librarydb schema version this build writes.
	TargetSchemaVersion int64 = 1
	// LibraryDBComponent names the photo library tables in shoebox_versions.
	LibraryDBComponent = "librarydb"
)

var (
	ErrSchemaTooOld = errors.New("database schema is older than supported")
	ErrSchemaTooNew = errors.New("database schema is newer than supported")
)

// GetComponentSchemaVersion returns the recorded version of component, or 0
// when the component or the versions table does not exist yet.
func GetComponentSchemaVersion(ctx context.Context, db *sql.DB, component string) (int64, error) {
	var version int64
	err := db.QueryRowContext(ctx, `SELECT version FROM shoebox_versions WHERE component = ?;`, component).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		if strings.Contains(err.Error(), "no such table") && strings.Contains(err.Error(), "shoebox_versions") {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan version for component '%s': %w", component, err)
	}
	return version, nil
}

// InitializeSchema creates every librarydb table and records version.
func InitializeSchema(ctx context.Context, db *sql.DB, version int64) error {
	if _, err := db.ExecContext(ctx, SchemaV1); err != nil {
		return fmt.Errorf("failed to execute schema v1 SQL: %w", err)
	}

	const upsertVersion = `
INSERT INTO shoebox_versions (component, version) VALUES (?, ?)
ON CONFLICT(component) DO UPDATE SET version = excluded.version, created_at = unixepoch();`
	if _, err := db.ExecContext(ctx, upsertVersion, LibraryDBComponent, version); err != nil {
		return fmt.Errorf("failed to insert/update version for component %s to %d: %w", LibraryDBComponent, version, err)
	}
	return nil
}

// UpgradeDB brings the librarydb component of db to target. A fresh database
// is initialised; a database at a different version is refused, since no
// migrations exist yet. name identifies the database in logs and errors.
func UpgradeDB(ctx context.Context, db *sql.DB, name string, target int64, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", LibraryDBComponent), zap.String("database", name))

	current, err := GetComponentSchemaVersion(ctx, db, LibraryDBComponent)
	if err != nil {
		return err
	}

	switch {
	case current == 0:
		log.Info("initializing schema", zap.Int64("version", target))
		if err := InitializeSchema(ctx, db, target); err != nil {
			return fmt.Errorf("failed to initialize component %s in database '%s': %w", LibraryDBComponent, name, err)
		}
		return nil
	case current == target:
		log.Debug("schema up to date", zap.Int64("version", current))
		return nil
	case current < target:
		return fmt.Errorf("component %s in database '%s' has schema version %d, target is %d: %w",
			LibraryDBComponent, name, current, target, ErrSchemaTooOld)
	default:
		return fmt.Errorf("component %s in database '%s' has schema version %d, target is %d: %w. Please upgrade shoebox",
			LibraryDBComponent, name, current, target, ErrSchemaTooNew)
	}
}
