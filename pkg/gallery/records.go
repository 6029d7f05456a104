package gallery

import (
	"fmt"
	"time"
)

// PhotoRecord is the serialisable form of a Photo.
type PhotoRecord struct {
	Path    string    `json:"path" yaml:"path"`
	Taken   time.Time `json:"taken" yaml:"taken"`
	Caption string    `json:"caption,omitempty" yaml:"caption,omitempty"`
	Tags    []Tag     `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// AlbumRecord is the serialisable form of an Album.
type AlbumRecord struct {
	Name     string        `json:"name" yaml:"name"`
	Created  time.Time     `json:"created" yaml:"created"`
	Modified time.Time     `json:"modified" yaml:"modified"`
	Photos   []PhotoRecord `json:"photos" yaml:"photos"`
}

// UserRecord is the serialisable form of a User and everything it owns.
type UserRecord struct {
	Username string         `json:"username" yaml:"username"`
	TagTypes map[string]int `json:"tag_types" yaml:"tag_types"`
	Albums   []AlbumRecord  `json:"albums" yaml:"albums"`
}

func (p *Photo) Record() PhotoRecord {
	return PhotoRecord{
		Path:    p.Path,
		Taken:   p.Taken,
		Caption: p.caption,
		Tags:    p.Tags(),
	}
}

func (a *Album) Record() AlbumRecord {
	rec := AlbumRecord{
		Name:     a.name,
		Created:  a.created,
		Modified: a.modified,
		Photos:   make([]PhotoRecord, len(a.photos)),
	}
	for i, p := range a.photos {
		rec.Photos[i] = p.Record()
	}
	return rec
}

func (u *User) Record() UserRecord {
	rec := UserRecord{
		Username: u.username,
		TagTypes: map[string]int(u.tagTypes.Clone()),
		Albums:   make([]AlbumRecord, len(u.albums)),
	}
	for i, a := range u.albums {
		rec.Albums[i] = a.Record()
	}
	return rec
}

// PhotoRecords converts a result list for output.
func PhotoRecords(photos []*Photo) []PhotoRecord {
	out := make([]PhotoRecord, len(photos))
	for i, p := range photos {
		out[i] = p.Record()
	}
	return out
}

// RestorePhoto rebuilds a Photo. Repeated tags are dropped.
func RestorePhoto(rec PhotoRecord) (*Photo, error) {
	p, err := NewPhoto(rec.Path, rec.Taken)
	if err != nil {
		return nil, err
	}
	p.caption = rec.Caption
	for _, t := range rec.Tags {
		_ = p.AddTag(t)
	}
	return p, nil
}

// RestoreAlbum rebuilds an Album with its stored timestamps. Every album gets
// its own Photo values; photos shared between albums before saving come back
// as distinct values with the same identity.
func RestoreAlbum(rec AlbumRecord) (*Album, error) {
	if isBlank(rec.Name) {
		return nil, ErrBlankName
	}
	a := &Album{name: rec.Name, created: rec.Created, modified: rec.Modified}
	for _, pr := range rec.Photos {
		p, err := RestorePhoto(pr)
		if err != nil {
			return nil, fmt.Errorf("album %q: %w", rec.Name, err)
		}
		if !a.Contains(p) {
			a.photos = append(a.photos, p)
		}
	}
	return a, nil
}

// RestoreUser rebuilds a User from its record. A record without tag types
// gets the defaults.
func RestoreUser(rec UserRecord) (*User, error) {
	u, err := NewUser(rec.Username)
	if err != nil {
		return nil, err
	}
	if len(rec.TagTypes) > 0 {
		u.tagTypes = TagTypes{}
		for name, n := range rec.TagTypes {
			if err := u.tagTypes.Add(name, n); err != nil {
				return nil, fmt.Errorf("user %q: %w", rec.Username, err)
			}
		}
	}
	for _, ar := range rec.Albums {
		a, err := RestoreAlbum(ar)
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", rec.Username, err)
		}
		if u.FindAlbum(a.name) != nil {
			return nil, fmt.Errorf("user %q: album %q: %w", rec.Username, a.name, ErrDuplicateName)
		}
		u.albums = append(u.albums, a)
	}
	return u, nil
}
