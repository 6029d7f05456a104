package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// validSyncModes lists the allowed values for the synchronous pragma.
var validSyncModes = map[string]bool{
	"OFF":    true,
	"NORMAL": true,
	"FULL":   true,
	"EXTRA":  true,
}

// Options controls how a library database is opened.
type Options struct {
	// Path is a file path or a go-sqlite3 DSN.
	Path string
	// WAL sets journal_mode=WAL.
	WAL bool
	// Sync is the synchronous pragma: OFF, NORMAL, FULL or EXTRA. Empty
	// leaves the SQLite default.
	Sync string
}

// DSN renders the options into a go-sqlite3 data source name.
func (o Options) DSN() (string, error) {
	params := url.Values{}
	if o.WAL {
		params.Add("_journal_mode", "WAL")
	}
	if o.Sync != "" {
		mode := strings.ToUpper(o.Sync)
		if !validSyncModes[mode] {
			return "", fmt.Errorf("invalid sync pragma value: %s. Must be one of OFF, NORMAL, FULL, EXTRA", o.Sync)
		}
		params.Add("_synchronous", mode)
	}
	params.Add("_foreign_keys", "on")

	sep := "?"
	if strings.Contains(o.Path, "?") {
		sep = "&"
	}
	return o.Path + sep + params.Encode(), nil
}

// Open connects to the SQLite database described by opts and checks that it
// answers. Foreign keys are enabled on every connection.
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	dsn, err := opts.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database with DSN '%s': %w", dsn, err)
	}
	if strings.HasPrefix(opts.Path, MemoryDSN) {
		// each pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database with DSN '%s': %w", dsn, err)
	}
	return db, nil
}
