package gallery

import (
	"sort"
	"strings"
	"time"
)

// Album is a named, ordered collection of photos. Name uniqueness is a
// property of the owning User; see User.CreateAlbum and User.RenameAlbum.
type Album struct {
	name     string
	photos   []*Photo
	created  time.Time
	modified time.Time
}

func newAlbum(name string) *Album {
	now := time.Now()
	return &Album{name: name, created: now, modified: now}
}

func (a *Album) Name() string { return a.name }
func (a *Album) Created() time.Time { return a.created }
func (a *Album) Modified() time.Time { return a.modified }
func (a *Album) Len() int { return len(a.photos) }

// Photos returns the album's photos in order. The slice is a copy; the
// photos are not.
func (a *Album) Photos() []*Photo {
	out := make([]*Photo, len(a.photos))
	copy(out, a.photos)
	return out
}

// Contains reports whether a photo with the same identity as p is present.
func (a *Album) Contains(p *Photo) bool {
	return a.indexOf(p) >= 0
}

// AddPhoto appends p unless a photo with the same identity is present.
func (a *Album) AddPhoto(p *Photo) error {
	if a.Contains(p) {
		return ErrDuplicatePhoto
	}
	a.photos = append(a.photos, p)
	a.touch()
	return nil
}

// RemovePhoto removes the photo with the same identity as p. It reports
// whether anything was removed.
func (a *Album) RemovePhoto(p *Photo) bool {
	i := a.indexOf(p)
	if i < 0 {
		return false
	}
	a.photos = append(a.photos[:i], a.photos[i+1:]...)
	a.touch()
	return true
}

// FindByPath returns the first photo with the given file path.
func (a *Album) FindByPath(path string) (*Photo, bool) {
	for _, p := range a.photos {
		if p.Path == path {
			return p, true
		}
	}
	return nil, false
}

// PhotosInDateRange returns photos with start <= Taken <= end.
func (a *Album) PhotosInDateRange(start, end time.Time) []*Photo {
	var out []*Photo
	for _, p := range a.photos {
		if inRange(p.Taken, start, end) {
			out = append(out, p)
		}
	}
	return out
}

func (a *Album) PhotosWithTag(tag Tag) []*Photo {
	var out []*Photo
	for _, p := range a.photos {
		if p.HasTag(tag) {
			out = append(out, p)
		}
	}
	return out
}

func (a *Album) PhotosWithCaption(text string) []*Photo {
	var out []*Photo
	needle := strings.ToLower(text)
	for _, p := range a.photos {
		if strings.Contains(strings.ToLower(p.caption), needle) {
			out = append(out, p)
		}
	}
	return out
}

// AllTags returns every distinct tag used in the album, first occurrence wins.
func (a *Album) AllTags() []Tag {
	var out []Tag
	for _, p := range a.photos {
		for _, t := range p.tags {
			if !containsTag(out, t) {
				out = append(out, t)
			}
		}
	}
	return out
}

// SortByDate orders photos by ascending timestamp. Ties keep insertion order.
func (a *Album) SortByDate() {
	sort.SliceStable(a.photos, func(i, j int) bool {
		return a.photos[i].Taken.Before(a.photos[j].Taken)
	})
}

// SortByTagSignature orders photos lexicographically by TagSignature. Ties
// keep insertion order.
func (a *Album) SortByTagSignature() {
	sort.SliceStable(a.photos, func(i, j int) bool {
		return a.photos[i].TagSignature() < a.photos[j].TagSignature()
	})
}

// Summary describes an album for listings.
type Summary struct {
	Name     string    `json:"name" yaml:"name"`
	Photos   int       `json:"photos" yaml:"photos"`
	Earliest time.Time `json:"earliest,omitempty" yaml:"earliest,omitempty"`
	Latest   time.Time `json:"latest,omitempty" yaml:"latest,omitempty"`
	Created  time.Time `json:"created" yaml:"created"`
	Modified time.Time `json:"modified" yaml:"modified"`
}

func (a *Album) Summary() Summary {
	s := Summary{
		Name:     a.name,
		Photos:   len(a.photos),
		Created:  a.created,
		Modified: a.modified,
	}
	for _, p := range a.photos {
		if s.Earliest.IsZero() || p.Taken.Before(s.Earliest) {
			s.Earliest = p.Taken
		}
		if s.Latest.IsZero() || p.Taken.After(s.Latest) {
			s.Latest = p.Taken
		}
	}
	return s
}

func (a *Album) indexOf(p *Photo) int {
	for i, q := range a.photos {
		if SamePhoto(p, q) {
			return i
		}
	}
	return -1
}

func (a *Album) touch() {
	a.modified = time.Now()
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func containsTag(tags []Tag, tag Tag) bool {
	for _, t := range tags {
		if t.Equal(tag) {
			return true
		}
	}
	return false
}
