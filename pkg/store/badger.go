package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/unowned-ai/shoebox/pkg/gallery"
)

var libraryKey = []byte("shoebox/library")

// Badger keeps the library document under a single key so each save is one
// badger transaction.
type Badger struct {
	db   *badger.DB
	path string
}

// NewBadger opens (or creates) a badger directory at path. With inMemory set
// the path is ignored and nothing touches disk.
func NewBadger(path string, inMemory bool, log *zap.Logger) (*Badger, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts := badger.DefaultOptions(path).WithLogger(badgerLogger{log.Sugar().Named("badger")})
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
		path = ":memory:"
	}
	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{db: bdb, path: path}, nil
}

func (b *Badger) String() string { return "badger:" + b.path }

func (b *Badger) Load(ctx context.Context) ([]gallery.UserRecord, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(libraryKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read badger: %w", err)
	}
	return decodeDocument(data)
}

func (b *Badger) Save(ctx context.Context, users []gallery.UserRecord) error {
	data, err := encodeDocument(users)
	if err != nil {
		return err
	}
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(libraryKey, data)
	}); err != nil {
		return fmt.Errorf("write badger: %w", err)
	}
	return nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// badgerLogger routes badger's logging into zap.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.s.Errorf(f, v...) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.s.Warnf(f, v...) }
func (l badgerLogger) Infof(f string, v ...interface{})    { l.s.Debugf(f, v...) }
func (l badgerLogger) Debugf(f string, v ...interface{})   { l.s.Debugf(f, v...) }
