package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/unowned-ai/shoebox/pkg/db"
	"github.com/unowned-ai/shoebox/pkg/gallery"
)

const (
	listUsersStatement = `
	SELECT username FROM users ORDER BY username
	`

	listTagTypesStatement = `
	SELECT username, tag_type, multiplicity FROM tag_types
	`

	listAlbumsStatement = `
	SELECT id, username, name, created_at, modified_at
	FROM albums
	ORDER BY username, position
	`

	listPhotosStatement = `
	SELECT id, album_id, path, taken_at, caption
	FROM photos
	ORDER BY album_id, position
	`

	listPhotoTagsStatement = `
	SELECT photo_id, tag_type, tag_value
	FROM photo_tags
	ORDER BY photo_id, position
	`

	clearUsersStatement = `
	DELETE FROM users
	`

	insertUserStatement = `
	INSERT INTO users (username) VALUES (?)
	`

	insertTagTypeStatement = `
	INSERT INTO tag_types (username, tag_type, multiplicity) VALUES (?, ?, ?)
	`

	insertAlbumStatement = `
	INSERT INTO albums (id, username, position, name, created_at, modified_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	insertPhotoStatement = `
	INSERT INTO photos (id, album_id, position, path, taken_at, caption)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	insertPhotoTagStatement = `
	INSERT INTO photo_tags (photo_id, position, tag_type, tag_value) VALUES (?, ?, ?, ?)
	`
)

// SQLite stores the graph in the normalised librarydb schema. Every save
// replaces all rows inside one transaction.
type SQLite struct {
	db   *sql.DB
	name string
}

// NewSQLite opens the database and brings its schema up to date.
func NewSQLite(ctx context.Context, opts db.Options, log *zap.Logger) (*SQLite, error) {
	conn, err := db.Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := db.UpgradeDB(ctx, conn, opts.Path, db.TargetSchemaVersion, log); err != nil {
		return nil, multierr.Append(err, conn.Close())
	}
	return &SQLite{db: conn, name: opts.Path}, nil
}

func (s *SQLite) String() string { return "sqlite:" + s.name }

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Load(ctx context.Context) ([]gallery.UserRecord, error) {
	var (
		users  []*gallery.UserRecord
		byName = map[string]*gallery.UserRecord{}
	)
	err := eachRow(ctx, s.db, listUsersStatement, func(rows *sql.Rows) error {
		u := &gallery.UserRecord{TagTypes: map[string]int{}}
		if err := rows.Scan(&u.Username); err != nil {
			return err
		}
		users = append(users, u)
		byName[u.Username] = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	err = eachRow(ctx, s.db, listTagTypesStatement, func(rows *sql.Rows) error {
		var (
			username, tagType string
			multiplicity      int
		)
		if err := rows.Scan(&username, &tagType, &multiplicity); err != nil {
			return err
		}
		if u, ok := byName[username]; ok {
			u.TagTypes[tagType] = multiplicity
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load tag types: %w", err)
	}

	// children are attached by index once every row has been read
	type albumRow struct {
		id       uuid.UUID
		username string
		rec      gallery.AlbumRecord
	}
	var albums []albumRow
	err = eachRow(ctx, s.db, listAlbumsStatement, func(rows *sql.Rows) error {
		var (
			a                 albumRow
			created, modified int64
		)
		if err := rows.Scan(&a.id, &a.username, &a.rec.Name, &created, &modified); err != nil {
			return err
		}
		a.rec.Created = fromUnixNano(created)
		a.rec.Modified = fromUnixNano(modified)
		a.rec.Photos = []gallery.PhotoRecord{}
		albums = append(albums, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load albums: %w", err)
	}

	type photoRow struct {
		id      uuid.UUID
		albumID uuid.UUID
		rec     gallery.PhotoRecord
	}
	var photos []photoRow
	photoIndex := map[uuid.UUID]int{}
	err = eachRow(ctx, s.db, listPhotosStatement, func(rows *sql.Rows) error {
		var (
			p     photoRow
			taken int64
		)
		if err := rows.Scan(&p.id, &p.albumID, &p.rec.Path, &taken, &p.rec.Caption); err != nil {
			return err
		}
		p.rec.Taken = fromUnixNano(taken)
		photoIndex[p.id] = len(photos)
		photos = append(photos, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load photos: %w", err)
	}

	err = eachRow(ctx, s.db, listPhotoTagsStatement, func(rows *sql.Rows) error {
		var (
			photoID uuid.UUID
			tag     gallery.Tag
		)
		if err := rows.Scan(&photoID, &tag.Type, &tag.Value); err != nil {
			return err
		}
		if i, ok := photoIndex[photoID]; ok {
			photos[i].rec.Tags = append(photos[i].rec.Tags, tag)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load photo tags: %w", err)
	}

	albumIndex := make(map[uuid.UUID]int, len(albums))
	for i, a := range albums {
		albumIndex[a.id] = i
	}
	for _, p := range photos {
		if i, ok := albumIndex[p.albumID]; ok {
			albums[i].rec.Photos = append(albums[i].rec.Photos, p.rec)
		}
	}
	for _, a := range albums {
		if u, ok := byName[a.username]; ok {
			u.Albums = append(u.Albums, a.rec)
		}
	}

	out := make([]gallery.UserRecord, len(users))
	for i, u := range users {
		if u.Albums == nil {
			u.Albums = []gallery.AlbumRecord{}
		}
		out[i] = *u
	}
	return out, nil
}

func (s *SQLite) Save(ctx context.Context, users []gallery.UserRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = multierr.Append(err, rbErr)
		}
	}()

	if _, err = tx.ExecContext(ctx, clearUsersStatement); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	for _, u := range users {
		if err = insertUser(ctx, tx, u); err != nil {
			return fmt.Errorf("save user %q: %w", u.Username, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertUser(ctx context.Context, tx *sql.Tx, u gallery.UserRecord) error {
	if _, err := tx.ExecContext(ctx, insertUserStatement, u.Username); err != nil {
		return err
	}
	for tagType, n := range u.TagTypes {
		if _, err := tx.ExecContext(ctx, insertTagTypeStatement, u.Username, tagType, n); err != nil {
			return err
		}
	}
	for i, a := range u.Albums {
		albumID := uuid.New()
		_, err := tx.ExecContext(ctx, insertAlbumStatement,
			albumID, u.Username, i, a.Name, a.Created.UnixNano(), a.Modified.UnixNano())
		if err != nil {
			return fmt.Errorf("album %q: %w", a.Name, err)
		}
		for j, p := range a.Photos {
			photoID := uuid.New()
			_, err := tx.ExecContext(ctx, insertPhotoStatement,
				photoID, albumID, j, p.Path, p.Taken.UnixNano(), p.Caption)
			if err != nil {
				return fmt.Errorf("album %q photo %s: %w", a.Name, p.Path, err)
			}
			for k, t := range p.Tags {
				if _, err := tx.ExecContext(ctx, insertPhotoTagStatement, photoID, k, t.Type, t.Value); err != nil {
					return fmt.Errorf("album %q photo %s tag %s: %w", a.Name, p.Path, t, err)
				}
			}
		}
	}
	return nil
}

func eachRow(ctx context.Context, conn *sql.DB, query string, scan func(*sql.Rows) error) (err error) {
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, rows.Close()) }()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
