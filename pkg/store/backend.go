// Package store persists the whole user graph. A Repository holds the
// in-memory username to User map and writes all of it through a Backend on
// every save.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/unowned-ai/shoebox/pkg/db"
	"github.com/unowned-ai/shoebox/pkg/gallery"
)

// Backend reads and writes the complete set of user records as one unit.
// Load on an empty or absent store returns no records and no error.
type Backend interface {
	Load(ctx context.Context) ([]gallery.UserRecord, error)
	Save(ctx context.Context, users []gallery.UserRecord) error
	Close() error
	String() string
}

const (
	KindSQLite = "sqlite"
	KindBadger = "badger"
	KindFile   = "file"
)

// Kinds lists the supported backend kinds.
var Kinds = []string{KindSQLite, KindBadger, KindFile}

// Config selects and configures a backend.
type Config struct {
	Kind string
	// Path is the sqlite database, badger directory or JSON file.
	Path string
	// WAL and Sync apply to sqlite only.
	WAL  bool
	Sync string
	// InMemory keeps sqlite and badger data in memory.
	InMemory bool
	// Fs hosts the file backend. Nil means the OS filesystem.
	Fs afero.Fs
}

// NewBackend opens the backend described by cfg.
func NewBackend(ctx context.Context, cfg Config, log *zap.Logger) (Backend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch strings.ToLower(cfg.Kind) {
	case KindSQLite, "":
		path := cfg.Path
		if cfg.InMemory {
			path = db.MemoryDSN
		}
		return NewSQLite(ctx, db.Options{Path: path, WAL: cfg.WAL, Sync: cfg.Sync}, log)
	case KindBadger:
		return NewBadger(cfg.Path, cfg.InMemory, log)
	case KindFile:
		fs := cfg.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		return NewFile(fs, cfg.Path), nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q, expected one of %s",
		gallery.ErrInvalidInput, cfg.Kind, strings.Join(Kinds, ", "))
}
