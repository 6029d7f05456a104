package gallery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// searchFixture builds a user with two albums sharing one file:
//
//	A: p1 {person: Bob}, p2 {person: Ann, location: Oslo}
//	B: p1' (same identity as p1), p3 {person: Bob, location: Oslo}
func searchFixture(t *testing.T) (*User, []*Photo) {
	t.Helper()
	u, err := NewUser("u")
	require.NoError(t, err)
	a, err := u.CreateAlbum("A")
	require.NoError(t, err)
	b, err := u.CreateAlbum("B")
	require.NoError(t, err)

	p1 := mustPhoto(t, "p1.jpg", 0)
	require.NoError(t, p1.AddTag(mustTag(t, "person", "Bob")))
	p2 := mustPhoto(t, "p2.jpg", 24*time.Hour)
	require.NoError(t, p2.AddTag(mustTag(t, "person", "Ann")))
	require.NoError(t, p2.AddTag(mustTag(t, "location", "Oslo")))
	p3 := mustPhoto(t, "p3.jpg", 48*time.Hour)
	require.NoError(t, p3.AddTag(mustTag(t, "person", "Bob")))
	require.NoError(t, p3.AddTag(mustTag(t, "location", "Oslo")))

	require.NoError(t, a.AddPhoto(p1))
	require.NoError(t, a.AddPhoto(p2))
	require.NoError(t, b.AddPhoto(p1.Clone()))
	require.NoError(t, b.AddPhoto(p3))
	return u, []*Photo{p1, p2, p3}
}

func TestSearchByDate(t *testing.T) {
	u, ps := searchFixture(t)

	got, err := SearchByDate(u, base, base.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, ps, got, "first-seen photo per identity, album order")

	got, err = SearchByDate(u, base.Add(time.Hour), base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []*Photo{ps[1]}, got)

	got, err = SearchByDate(u, base.Add(-48*time.Hour), base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = SearchByDate(u, base.Add(time.Hour), base)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = SearchByDate(u, time.Time{}, base)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDayRange(t *testing.T) {
	day := time.Date(2024, time.May, 1, 15, 30, 0, 0, time.UTC)
	start, end := DayRange(day, day, time.UTC)
	assert.Equal(t, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.May, 1, 23, 59, 59, 999999999, time.UTC), end)
}

func TestTagQueryValidate(t *testing.T) {
	bob := TagPair{Type: "person", Value: "Bob"}
	oslo := TagPair{Type: "location", Value: "Oslo"}
	half := TagPair{Type: "person"}

	cases := []struct {
		name string
		q    TagQuery
		ok   bool
	}{
		{"single first", TagQuery{Mode: Single, First: bob}, true},
		{"single second", TagQuery{Mode: Single, Second: oslo}, true},
		{"single both", TagQuery{Mode: Single, First: bob, Second: oslo}, false},
		{"single none", TagQuery{Mode: Single}, false},
		{"single half pair", TagQuery{Mode: Single, First: bob, Second: half}, false},
		{"and both", TagQuery{Mode: Conjunctive, First: bob, Second: oslo}, true},
		{"and one", TagQuery{Mode: Conjunctive, First: bob}, false},
		{"or both", TagQuery{Mode: Disjunctive, First: bob, Second: oslo}, true},
		{"or one", TagQuery{Mode: Disjunctive, Second: oslo}, false},
		{"bad mode", TagQuery{Mode: SearchMode(9), First: bob}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.q.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidInput)
			}
		})
	}
}

func TestSearchByTags(t *testing.T) {
	u, ps := searchFixture(t)
	bob := TagPair{Type: "PERSON", Value: "bob"}
	oslo := TagPair{Type: "location", Value: "oslo"}

	single, err := SearchByTags(u, TagQuery{Mode: Single, First: bob})
	require.NoError(t, err)
	assert.Equal(t, []*Photo{ps[0], ps[2]}, single)

	and, err := SearchByTags(u, TagQuery{Mode: Conjunctive, First: bob, Second: oslo})
	require.NoError(t, err)
	assert.Equal(t, []*Photo{ps[2]}, and)

	or, err := SearchByTags(u, TagQuery{Mode: Disjunctive, First: bob, Second: oslo})
	require.NoError(t, err)
	assert.Equal(t, ps, or)

	for _, p := range and {
		assert.Contains(t, or, p)
	}

	none, err := SearchByTags(u, TagQuery{Mode: Single, First: TagPair{Type: "person", Value: "Zed"}})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = SearchByTags(u, TagQuery{Mode: Conjunctive, First: bob})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTagQueryMatchXor(t *testing.T) {
	p := mustPhoto(t, "p.jpg", 0)
	require.NoError(t, p.AddTag(mustTag(t, "person", "Bob")))
	require.NoError(t, p.AddTag(mustTag(t, "location", "Oslo")))
	q := TagQuery{
		Mode:   Single,
		First:  TagPair{Type: "person", Value: "Bob"},
		Second: TagPair{Type: "location", Value: "Oslo"},
	}
	assert.False(t, q.Match(p), "both predicates true is not a single match")
	q.Second = TagPair{Type: "location", Value: "Rome"}
	assert.True(t, q.Match(p))
}

func TestSearchByCaption(t *testing.T) {
	u, ps := searchFixture(t)
	ps[1].SetCaption("Harbour at noon")

	got, err := SearchByCaption(u, "HARBOUR")
	require.NoError(t, err)
	assert.Equal(t, []*Photo{ps[1]}, got)

	_, err = SearchByCaption(u, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseSearchMode(t *testing.T) {
	for in, want := range map[string]SearchMode{
		"single": Single, "Conjunctive": Conjunctive, "or": Disjunctive, "AND": Conjunctive,
	} {
		got, err := ParseSearchMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSearchMode("xor")
	assert.ErrorIs(t, err, ErrInvalidInput)

	var m SearchMode
	require.NoError(t, m.UnmarshalText([]byte("disjunctive")))
	assert.Equal(t, Disjunctive, m)
	assert.Equal(t, "disjunctive", m.String())
}

func TestEndToEndAlice(t *testing.T) {
	alice, err := NewUser("alice")
	require.NoError(t, err)
	trip, err := alice.CreateAlbum("Trip")
	require.NoError(t, err)
	_, err = alice.CreateAlbum("Home")
	require.NoError(t, err)

	img := mustPhoto(t, "img1.jpg", 0)
	bob := mustTag(t, "person", "Bob")
	require.NoError(t, alice.TagTypes().Admits(img, bob))
	require.NoError(t, img.AddTag(bob))
	require.NoError(t, trip.AddPhoto(img))

	results, err := SearchByTags(alice, TagQuery{Mode: Single, First: TagPair{Type: "person", Value: "Bob"}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	_, err = alice.CreateAlbumFrom("BobPhotos", results)
	require.NoError(t, err)
	derived := alice.AlbumByName("BobPhotos")
	require.NotNil(t, derived)
	assert.Equal(t, 1, derived.Len())
	assert.Same(t, img, derived.Photos()[0])

	_, err = alice.CreateAlbumFrom("bobphotos", results)
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestParseDateRange(t *testing.T) {
	start, end, err := ParseDateRange("2024-05-01", "2024-05-02", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.May, 2, 23, 59, 59, 999999999, time.UTC), end)

	start, end, err = ParseDateRange("2024-05-01T10:00:00Z", "2024-05-01T11:00:00+01:00", time.UTC)
	require.NoError(t, err)
	assert.True(t, start.Equal(end))

	for _, tc := range [][2]string{{"", "2024-05-01"}, {"yesterday", "2024-05-01"}, {"2024-05-02", "2024-05-01"}} {
		_, _, err := ParseDateRange(tc[0], tc[1], time.UTC)
		assert.ErrorIs(t, err, ErrInvalidInput, "%q..%q", tc[0], tc[1])
	}
}
