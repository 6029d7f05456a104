package gallery

import (
	"math"
	"strings"
	"time"
)

// Timestamps are stored as nanoseconds since the Unix epoch, which bounds
// them to roughly the years 1678 to 2262.
var (
	minTaken = time.Unix(0, math.MinInt64)
	maxTaken = time.Unix(0, math.MaxInt64)
)

// Photo is one image file as it appears in one album. The same file may be
// held by several albums through distinct Photo values; SamePhoto recognises
// them by path and timestamp.
type Photo struct {
	Path  string
	Taken time.Time

	caption string
	tags    []Tag
}

// NewPhoto creates a photo for path. taken is the file's modification time,
// captured once.
func NewPhoto(path string, taken time.Time) (*Photo, error) {
	if isBlank(path) {
		return nil, invalidf("photo path cannot be empty")
	}
	if taken.IsZero() {
		return nil, invalidf("photo timestamp cannot be zero")
	}
	if taken.Before(minTaken) || taken.After(maxTaken) {
		return nil, invalidf("photo timestamp %s is out of range", taken.Format(time.RFC3339))
	}
	return &Photo{Path: path, Taken: taken}, nil
}

// SamePhoto reports whether a and b identify the same underlying file.
func SamePhoto(a, b *Photo) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Path == b.Path && a.Taken.Equal(b.Taken)
}

func (p *Photo) Caption() string {
	return p.caption
}

func (p *Photo) SetCaption(caption string) {
	p.caption = caption
}

// Tags returns a copy of the photo's tags in insertion order.
func (p *Photo) Tags() []Tag {
	out := make([]Tag, len(p.tags))
	copy(out, p.tags)
	return out
}

// HasTag reports whether an equal tag is present.
func (p *Photo) HasTag(tag Tag) bool {
	return p.indexOf(tag) >= 0
}

// AddTag appends tag unless an equal tag is already present.
func (p *Photo) AddTag(tag Tag) error {
	if p.HasTag(tag) {
		return ErrDuplicateTag
	}
	p.tags = append(p.tags, tag)
	return nil
}

// DeleteTag removes the tag equal to tag.
func (p *Photo) DeleteTag(tag Tag) error {
	i := p.indexOf(tag)
	if i < 0 {
		return ErrTagNotFound
	}
	p.tags = append(p.tags[:i], p.tags[i+1:]...)
	return nil
}

// HasTagOfType reports whether any tag has the given type.
func (p *Photo) HasTagOfType(tagType string) bool {
	return p.CountTagsOfType(tagType) > 0
}

func (p *Photo) CountTagsOfType(tagType string) int {
	n := 0
	for _, t := range p.tags {
		if SameName(t.Type, tagType) {
			n++
		}
	}
	return n
}

// TagSignature renders the tag list as "[type: value, ...]". Album sorting
// orders photos by it.
func (p *Photo) TagSignature() string {
	parts := make([]string, len(p.tags))
	for i, t := range p.tags {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ReplaceContent overwrites caption and tags with those of from.
func (p *Photo) ReplaceContent(from *Photo) {
	p.caption = from.caption
	p.tags = from.Tags()
}

// Clone returns a distinct Photo with the same identity and content.
func (p *Photo) Clone() *Photo {
	c := &Photo{Path: p.Path, Taken: p.Taken}
	c.ReplaceContent(p)
	return c
}

func (p *Photo) indexOf(tag Tag) int {
	for i, t := range p.tags {
		if t.Equal(tag) {
			return i
		}
	}
	return -1
}

func (p *Photo) String() string {
	return p.Path + " (" + p.Taken.Format(time.RFC3339) + ")"
}
