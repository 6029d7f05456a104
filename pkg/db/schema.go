package db

const (
	// SchemaV1 is version 1 of the librarydb component: users, their tag type
	// registries, albums, photos and photo tags. Position columns keep the
	// user-visible ordering; timestamps are Unix nanoseconds.
	SchemaV1 = `
CREATE TABLE IF NOT EXISTS shoebox_versions (
    component TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    created_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS users (
    username VARCHAR(256) PRIMARY KEY COLLATE NOCASE,
    created_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS tag_types (
    username VARCHAR(256) NOT NULL REFERENCES users(username) ON DELETE CASCADE,
    tag_type VARCHAR(256) NOT NULL,
    multiplicity INTEGER NOT NULL CHECK (multiplicity >= 1),
    PRIMARY KEY (username, tag_type)
);

CREATE TABLE IF NOT EXISTS albums (
    id UUID PRIMARY KEY,
    username VARCHAR(256) NOT NULL REFERENCES users(username) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name VARCHAR(256) NOT NULL,
    created_at INTEGER NOT NULL,
    modified_at INTEGER NOT NULL,
    UNIQUE (username, name COLLATE NOCASE)
);

CREATE TABLE IF NOT EXISTS photos (
    id UUID PRIMARY KEY,
    album_id UUID NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    path TEXT NOT NULL,
    taken_at INTEGER NOT NULL,
    caption TEXT NOT NULL DEFAULT '',
    UNIQUE (album_id, path, taken_at)
);

CREATE TABLE IF NOT EXISTS photo_tags (
    photo_id UUID NOT NULL REFERENCES photos(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    tag_type VARCHAR(256) NOT NULL,
    tag_value VARCHAR(256) NOT NULL,
    PRIMARY KEY (photo_id, position)
);

CREATE INDEX IF NOT EXISTS idx_photos_path ON photos(path);
CREATE INDEX IF NOT EXISTS idx_photo_tags_tag ON photo_tags(tag_type, tag_value);
`
)
