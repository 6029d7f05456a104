package gallery

import (
	"strings"
	"time"
)

// AdminUsername is the reserved administrative account.
const AdminUsername = "admin"

// User owns a list of albums and a tag type registry.
type User struct {
	username string
	albums   []*Album
	tagTypes TagTypes
}

// NewUser returns a user with no albums and the default tag types.
func NewUser(username string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrBlankName
	}
	return &User{username: username, tagTypes: DefaultTagTypes()}, nil
}

func (u *User) Username() string { return u.username }

// IsAdmin reports whether this is the reserved administrative account.
func (u *User) IsAdmin() bool {
	return SameName(u.username, AdminUsername)
}

// TagTypes returns the user's registry. It is live; use AddTagType to change it.
func (u *User) TagTypes() TagTypes { return u.tagTypes }

func (u *User) AddTagType(tagType string, multiplicity int) error {
	return u.tagTypes.Add(tagType, multiplicity)
}

// Albums returns the user's albums in creation order.
func (u *User) Albums() []*Album {
	out := make([]*Album, len(u.albums))
	copy(out, u.albums)
	return out
}

// CreateAlbum adds an empty album. Names are trimmed and must be unique
// ignoring case.
func (u *User) CreateAlbum(name string) (*Album, error) {
	return u.CreateAlbumFrom(name, nil)
}

// CreateAlbumFrom adds an album holding the given photos. The album shares
// the Photo values with wherever they came from.
func (u *User) CreateAlbumFrom(name string, photos []*Photo) (*Album, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrBlankName
	}
	if u.FindAlbum(name) != nil {
		return nil, ErrDuplicateName
	}
	album := newAlbum(name)
	for _, p := range photos {
		// duplicates by identity collapse into one entry
		_ = album.AddPhoto(p)
	}
	u.albums = append(u.albums, album)
	return album, nil
}

// RenameAlbum renames album to newName (trimmed). It fails when another
// album of this user already has that name ignoring case.
func (u *User) RenameAlbum(album *Album, newName string) error {
	if u.indexOf(album) < 0 {
		return ErrAlbumNotFound
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrBlankName
	}
	if other := u.FindAlbum(newName); other != nil && other != album {
		return ErrDuplicateName
	}
	album.name = newName
	return nil
}

func (u *User) DeleteAlbum(album *Album) error {
	i := u.indexOf(album)
	if i < 0 {
		return ErrAlbumNotFound
	}
	u.albums = append(u.albums[:i], u.albums[i+1:]...)
	return nil
}

// AlbumByName returns the album whose name matches exactly.
func (u *User) AlbumByName(name string) *Album {
	for _, a := range u.albums {
		if a.name == name {
			return a
		}
	}
	return nil
}

// FindAlbum returns the album whose name matches ignoring case and
// surrounding whitespace.
func (u *User) FindAlbum(name string) *Album {
	for _, a := range u.albums {
		if SameName(a.name, name) {
			return a
		}
	}
	return nil
}

// AlbumsWithTag returns albums holding at least one photo tagged with tag.
func (u *User) AlbumsWithTag(tag Tag) []*Album {
	return u.albumsWhere(func(a *Album) bool { return len(a.PhotosWithTag(tag)) > 0 })
}

// AlbumsInDateRange returns albums holding at least one photo taken in [start, end].
func (u *User) AlbumsInDateRange(start, end time.Time) []*Album {
	return u.albumsWhere(func(a *Album) bool { return len(a.PhotosInDateRange(start, end)) > 0 })
}

// AlbumsWithCaption returns albums holding a photo whose caption contains text.
func (u *User) AlbumsWithCaption(text string) []*Album {
	return u.albumsWhere(func(a *Album) bool { return len(a.PhotosWithCaption(text)) > 0 })
}

// Propagate copies caption and tags from the given photos of album from to
// every photo with the same path in the user's other albums. With no photos
// given, every photo of from is propagated. It returns the number of photos
// overwritten.
//
// This is the reconciliation pass run when leaving an album, logging out or
// quitting; edits are not propagated as they happen.
func (u *User) Propagate(from *Album, photos ...*Photo) int {
	if from == nil {
		return 0
	}
	if len(photos) == 0 {
		photos = from.photos
	}
	updated := 0
	for _, src := range photos {
		for _, album := range u.albums {
			if album == from {
				continue
			}
			for _, dst := range album.photos {
				if dst == src || dst.Path != src.Path {
					continue
				}
				dst.ReplaceContent(src)
				updated++
			}
		}
	}
	return updated
}

func (u *User) albumsWhere(keep func(*Album) bool) []*Album {
	var out []*Album
	for _, a := range u.albums {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func (u *User) indexOf(album *Album) int {
	for i, a := range u.albums {
		if a == album {
			return i
		}
	}
	return -1
}
