package gallery

import (
	"math"
	"sort"
	"strings"
)

// Unbounded is the multiplicity of a tag type that accepts any number of
// distinct values on one photo.
const Unbounded = math.MaxInt32

// Tag is a typed piece of metadata on a photo, e.g. location: Paris.
// Tags are values; changing a tag means replacing it.
type Tag struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

// NewTag trims both fields. Blank type or value is rejected.
func NewTag(tagType, value string) (Tag, error) {
	tagType = strings.TrimSpace(tagType)
	value = strings.TrimSpace(value)
	if tagType == "" {
		return Tag{}, invalidf("tag type cannot be empty")
	}
	if value == "" {
		return Tag{}, invalidf("tag value cannot be empty")
	}
	return Tag{Type: tagType, Value: value}, nil
}

// Equal compares type and value case-insensitively.
func (t Tag) Equal(other Tag) bool {
	return SameName(t.Type, other.Type) && SameName(t.Value, other.Value)
}

func (t Tag) String() string {
	return t.Type + ": " + t.Value
}

// TagTypes maps a tag type to its multiplicity for one user. Keys are stored
// folded so registration and lookup agree regardless of case.
type TagTypes map[string]int

// DefaultTagTypes is the registry every new user starts with.
func DefaultTagTypes() TagTypes {
	return TagTypes{
		"location": 1,
		"person":   Unbounded,
	}
}

// IsValid reports whether tagType is registered.
func (tt TagTypes) IsValid(tagType string) bool {
	_, ok := tt[FoldKey(tagType)]
	return ok
}

// Limit returns the multiplicity registered for tagType.
func (tt TagTypes) Limit(tagType string) (int, bool) {
	n, ok := tt[FoldKey(tagType)]
	return n, ok
}

// Add registers tagType or overwrites its multiplicity.
func (tt TagTypes) Add(tagType string, multiplicity int) error {
	if isBlank(tagType) {
		return invalidf("tag type cannot be empty")
	}
	if multiplicity < 1 {
		return invalidf("multiplicity must be at least 1, got %d", multiplicity)
	}
	tt[FoldKey(tagType)] = multiplicity
	return nil
}

// Names returns the registered types in sorted order.
func (tt TagTypes) Names() []string {
	names := make([]string, 0, len(tt))
	for name := range tt {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy.
func (tt TagTypes) Clone() TagTypes {
	c := make(TagTypes, len(tt))
	for k, v := range tt {
		c[k] = v
	}
	return c
}

// Admits reports whether one more value of tag.Type fits on p.
func (tt TagTypes) Admits(p *Photo, tag Tag) error {
	limit, ok := tt.Limit(tag.Type)
	if !ok {
		return ErrUnknownTagType
	}
	if p.CountTagsOfType(tag.Type) >= limit {
		return ErrTagCapacityExceeded
	}
	return nil
}
