package service

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/unowned-ai/shoebox/pkg/gallery"
	"github.com/unowned-ai/shoebox/pkg/store"
)

var mtime = time.Date(2024, time.March, 3, 10, 0, 0, 0, time.UTC)

type fixture struct {
	fs      afero.Fs
	backend store.Backend
	lib     *Library
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	backend := store.NewFile(fs, "/var/shoebox/library.json")
	repo, err := store.Open(ctx, backend, nil)
	require.NoError(t, err)
	return &fixture{fs: fs, backend: backend, lib: NewLibrary(repo, fs, zaptest.NewLogger(t))}
}

// image creates a file and sets its modification time to mtime plus offset.
func (f *fixture) image(t *testing.T, path string, offset time.Duration) string {
	t.Helper()
	require.NoError(t, afero.WriteFile(f.fs, path, []byte("not really a jpeg"), 0o644))
	require.NoError(t, f.fs.Chtimes(path, mtime.Add(offset), mtime.Add(offset)))
	return path
}

// reload opens a second repository over the same backend, as a restart would.
func (f *fixture) reload(t *testing.T) *store.Repository {
	t.Helper()
	repo, err := store.Open(context.Background(), f.backend, nil)
	require.NoError(t, err)
	return repo
}

func (f *fixture) login(t *testing.T, name string) *Session {
	t.Helper()
	s, err := f.lib.Login(context.Background(), name)
	require.NoError(t, err)
	return s
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.lib.Login(ctx, "alice")
	assert.ErrorIs(t, err, gallery.ErrUserNotFound)
	_, err = f.lib.Login(ctx, "  ")
	assert.ErrorIs(t, err, gallery.ErrInvalidInput)

	admin := f.login(t, "ADMIN")
	assert.True(t, admin.User().IsAdmin())
	again := f.login(t, "admin")
	assert.Same(t, admin.User(), again.User())

	_, err = f.lib.Admin().CreateUser(ctx, "alice")
	require.NoError(t, err)
	s := f.login(t, "Alice")
	assert.Equal(t, "alice", s.User().Username())
}

func TestAdminService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.lib.Admin()

	_, err := admin.CreateUser(ctx, "alice")
	require.NoError(t, err)
	_, err = admin.CreateUser(ctx, "ALICE ")
	assert.ErrorIs(t, err, gallery.ErrDuplicateName)
	_, err = admin.CreateUser(ctx, "")
	assert.ErrorIs(t, err, gallery.ErrInvalidInput)
	_, err = admin.CreateUser(ctx, "bob")
	require.NoError(t, err)

	names := func() []string {
		var out []string
		for _, u := range admin.ListUsers() {
			out = append(out, u.Username())
		}
		return out
	}
	assert.Equal(t, []string{"alice", "bob"}, names())

	f.login(t, "admin")
	assert.ErrorIs(t, f.lib.DeleteUser(ctx, " Admin"), gallery.ErrProtectedUser)
	require.NoError(t, f.lib.DeleteUser(ctx, "Bob"))
	assert.ErrorIs(t, f.lib.DeleteUser(ctx, "bob"), gallery.ErrUserNotFound)

	repo := f.reload(t)
	_, err = repo.Get("alice")
	assert.NoError(t, err)
	_, err = repo.Get("bob")
	assert.ErrorIs(t, err, gallery.ErrUserNotFound)
}

func TestSessionPhotos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.lib.Admin().CreateUser(ctx, "alice")
	require.NoError(t, err)
	s := f.login(t, "alice")

	_, err = s.AddPhoto(ctx, "/pics/a.jpg")
	assert.ErrorIs(t, err, ErrNoAlbumOpen)

	_, err = s.CreateAlbum(ctx, "Trip")
	require.NoError(t, err)
	_, err = s.OpenAlbum(ctx, "trip")
	require.NoError(t, err)

	a := f.image(t, "/pics/a.jpg", 0)
	p, err := s.AddPhoto(ctx, a)
	require.NoError(t, err)
	assert.True(t, p.Taken.Equal(mtime))

	_, err = s.AddPhoto(ctx, a)
	assert.ErrorIs(t, err, gallery.ErrDuplicatePhoto)
	_, err = s.AddPhoto(ctx, "/pics/missing.png")
	assert.ErrorIs(t, err, gallery.ErrNotFound)
	_, err = s.AddPhoto(ctx, f.image(t, "/pics/notes.txt", 0))
	assert.ErrorIs(t, err, gallery.ErrInvalidInput)
	require.NoError(t, f.fs.MkdirAll("/pics/dir.png", 0o755))
	_, err = s.AddPhoto(ctx, "/pics/dir.png")
	assert.ErrorIs(t, err, gallery.ErrInvalidInput)

	require.NoError(t, s.SetCaption(ctx, a, "  at the station "))
	assert.Equal(t, "at the station", p.Caption())

	require.NoError(t, s.AddTag(ctx, a, "Location", "Lyon"))
	assert.ErrorIs(t, s.AddTag(ctx, a, "location", "Paris"), gallery.ErrTagCapacityExceeded)
	assert.ErrorIs(t, s.AddTag(ctx, a, "location", "lyon"), gallery.ErrDuplicateTag)
	assert.ErrorIs(t, s.AddTag(ctx, a, "mood", "happy"), gallery.ErrUnknownTagType)
	assert.ErrorIs(t, s.AddTag(ctx, a, "person", " "), gallery.ErrInvalidInput)
	require.NoError(t, s.AddTag(ctx, a, "person", "Bob"))
	require.NoError(t, s.AddTag(ctx, a, "person", "Ann"))

	require.NoError(t, s.AddTagType(ctx, "mood", 1))
	require.NoError(t, s.AddTag(ctx, a, "MOOD", "happy"))
	assert.Len(t, p.Tags(), 4)

	require.NoError(t, s.DeleteTag(ctx, a, "person", "ann"))
	assert.ErrorIs(t, s.DeleteTag(ctx, a, "person", "ann"), gallery.ErrTagNotFound)

	require.NoError(t, s.Logout(ctx))

	got, err := f.reload(t).Get("alice")
	require.NoError(t, err)
	photos := got.FindAlbum("trip").Photos()
	require.Len(t, photos, 1)
	assert.Equal(t, "at the station", photos[0].Caption())
	assert.Equal(t, p.Tags(), photos[0].Tags())
	assert.Equal(t, 1, got.TagTypes()["mood"])
}

func TestAddPhotoRefusesModifiedFileAlreadyInAlbum(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.lib.Admin().CreateUser(ctx, "alice")
	require.NoError(t, err)
	s := f.login(t, "alice")
	for _, name := range []string{"Trip", "Home"} {
		_, err := s.CreateAlbum(ctx, name)
		require.NoError(t, err)
	}
	_, err = s.OpenAlbum(ctx, "Home")
	require.NoError(t, err)
	a := f.image(t, "/pics/a.jpg", 0)
	_, err = s.AddPhoto(ctx, a)
	require.NoError(t, err)

	_, err = s.OpenAlbum(ctx, "Trip")
	require.NoError(t, err)
	first, err := s.AddPhoto(ctx, a)
	require.NoError(t, err)

	f.image(t, a, time.Hour)
	_, err = s.AddPhoto(ctx, a)
	assert.ErrorIs(t, err, gallery.ErrDuplicatePhoto)
	assert.ErrorIs(t, err, gallery.ErrDuplicateName)
	assert.Equal(t, 1, s.Current().Len())

	// Home gets the newer version of the file while Trip keeps the older one
	require.NoError(t, s.LeaveAlbum(ctx))
	_, err = s.OpenAlbum(ctx, "Home")
	require.NoError(t, err)
	require.NoError(t, s.RemovePhoto(ctx, a))
	later, err := s.AddPhoto(ctx, a)
	require.NoError(t, err)
	assert.False(t, gallery.SamePhoto(first, later))
	_, err = s.CopyPhoto(ctx, a, "Trip")
	assert.ErrorIs(t, err, gallery.ErrDuplicatePhoto)
	assert.ErrorIs(t, s.MovePhoto(ctx, a, "Trip"), gallery.ErrDuplicatePhoto)

	results, err := s.SearchByDate(gallery.DayRange(mtime, mtime, time.UTC))
	require.NoError(t, err)
	require.Len(t, results, 2)
	derived, err := s.CreateAlbumFromResults(ctx, "Both", results)
	require.NoError(t, err)
	assert.Equal(t, 1, derived.Len())

	require.NoError(t, s.SetCaption(ctx, a, "found"))
	assert.Equal(t, "found", later.Caption())
}

func TestFailedSaveRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.lib.Admin().CreateUser(ctx, "alice")
	require.NoError(t, err)
	setup := f.login(t, "alice")
	for _, name := range []string{"Trip", "Home"} {
		_, err := setup.CreateAlbum(ctx, name)
		require.NoError(t, err)
	}
	_, err = setup.OpenAlbum(ctx, "Trip")
	require.NoError(t, err)
	a := f.image(t, "/pics/a.jpg", time.Hour)
	b := f.image(t, "/pics/b.jpg", 0)
	_, err = setup.AddPhoto(ctx, a)
	require.NoError(t, err)
	_, err = setup.AddPhoto(ctx, f.image(t, "/pics/c.jpg", 30*time.Minute))
	require.NoError(t, err)
	require.NoError(t, setup.SetCaption(ctx, a, "pier"))
	require.NoError(t, setup.AddTag(ctx, a, "location", "Oslo"))
	require.NoError(t, setup.Logout(ctx))

	repo, err := store.Open(ctx, store.NewFile(afero.NewReadOnlyFs(f.fs), "/var/shoebox/library.json"), nil)
	require.NoError(t, err)
	lib := NewLibrary(repo, f.fs, zaptest.NewLogger(t))
	s, err := lib.Login(ctx, "alice")
	require.NoError(t, err)
	trip, err := s.OpenAlbum(ctx, "Trip")
	require.NoError(t, err)
	p, err := s.Photo(a)
	require.NoError(t, err)
	order := trip.Photos()
	modified := trip.Modified()

	// each failure is retried to show the first attempt left nothing behind
	for i := 0; i < 2; i++ {
		_, err = s.CreateAlbum(ctx, "Beach")
		assert.ErrorIs(t, err, gallery.ErrPersistence)
		assert.ErrorIs(t, s.RenameAlbum(ctx, "Trip", "Holiday"), gallery.ErrPersistence)
		assert.ErrorIs(t, s.DeleteAlbum(ctx, "Home"), gallery.ErrPersistence)

		_, err = s.AddPhoto(ctx, b)
		assert.ErrorIs(t, err, gallery.ErrPersistence)
		assert.ErrorIs(t, s.RemovePhoto(ctx, a), gallery.ErrPersistence)
		assert.ErrorIs(t, s.SetCaption(ctx, a, "harbour"), gallery.ErrPersistence)
		assert.ErrorIs(t, s.AddTag(ctx, a, "person", "Bob"), gallery.ErrPersistence)
		assert.ErrorIs(t, s.DeleteTag(ctx, a, "location", "Oslo"), gallery.ErrPersistence)
		assert.ErrorIs(t, s.AddTagType(ctx, "event", 2), gallery.ErrPersistence)
		assert.ErrorIs(t, s.AddTagType(ctx, "location", 3), gallery.ErrPersistence)

		_, err = s.CopyPhoto(ctx, a, "Home")
		assert.ErrorIs(t, err, gallery.ErrPersistence)
		assert.ErrorIs(t, s.MovePhoto(ctx, a, "Home"), gallery.ErrPersistence)
		assert.ErrorIs(t, s.SortAlbum(ctx, SortByDate), gallery.ErrPersistence)

		results, err := s.SearchByCaption("pier")
		require.NoError(t, err)
		_, err = s.CreateAlbumFromResults(ctx, "Pier", results)
		assert.ErrorIs(t, err, gallery.ErrPersistence)
	}

	albums := s.Albums()
	require.Len(t, albums, 2)
	assert.Equal(t, "Trip", albums[0].Name())
	assert.Equal(t, "Home", albums[1].Name())
	assert.Zero(t, albums[1].Len())
	assert.Same(t, trip, s.Current())
	assert.Equal(t, order, trip.Photos())
	assert.Equal(t, modified, trip.Modified())
	assert.Equal(t, "pier", p.Caption())
	assert.Equal(t, []gallery.Tag{{Type: "location", Value: "Oslo"}}, p.Tags())
	assert.False(t, s.User().TagTypes().IsValid("event"))
	n, _ := s.User().TagTypes().Limit("location")
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, s.Logout(ctx), gallery.ErrPersistence)
	got, err := f.reload(t).Get("alice")
	require.NoError(t, err)
	saved, ok := got.FindAlbum("Trip").FindByPath(a)
	require.True(t, ok)
	assert.Equal(t, "pier", saved.Caption())
}

func TestCheckpointPropagation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.lib.Admin().CreateUser(ctx, "u")
	require.NoError(t, err)
	s := f.login(t, "u")

	shared := f.image(t, "/pics/p.jpg", 0)
	other := f.image(t, "/pics/q.jpg", time.Hour)

	for _, name := range []string{"A", "B"} {
		_, err := s.CreateAlbum(ctx, name)
		require.NoError(t, err)
		_, err = s.OpenAlbum(ctx, name)
		require.NoError(t, err)
		_, err = s.AddPhoto(ctx, shared)
		require.NoError(t, err)
	}
	_, err = s.AddPhoto(ctx, other)
	require.NoError(t, err)
	require.NoError(t, s.SetCaption(ctx, other, "keep me"))
	require.NoError(t, s.LeaveAlbum(ctx))

	_, err = s.OpenAlbum(ctx, "A")
	require.NoError(t, err)
	require.NoError(t, s.SetCaption(ctx, shared, "sunset"))
	require.NoError(t, s.AddTag(ctx, shared, "person", "Cat"))

	inB, ok := s.User().FindAlbum("B").FindByPath(shared)
	require.True(t, ok)
	assert.Empty(t, inB.Caption(), "edits stay local until a checkpoint")

	_, err = s.OpenAlbum(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, "sunset", inB.Caption())
	assert.True(t, inB.HasTag(gallery.Tag{Type: "person", Value: "cat"}))
	q, _ := s.User().FindAlbum("B").FindByPath(other)
	assert.Equal(t, "keep me", q.Caption())
	assert.Same(t, s.User().FindAlbum("B"), s.Current())
}

func TestLogoutIsCheckpoint(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.lib.Admin().CreateUser(ctx, "u")
	require.NoError(t, err)
	s := f.login(t, "u")
	shared := f.image(t, "/pics/p.jpg", 0)

	for _, name := range []string{"A", "B"} {
		_, err := s.CreateAlbum(ctx, name)
		require.NoError(t, err)
		_, err = s.OpenAlbum(ctx, name)
		require.NoError(t, err)
		_, err = s.AddPhoto(ctx, shared)
		require.NoError(t, err)
	}
	require.NoError(t, s.SetCaption(ctx, shared, "edited in B"))
	require.NoError(t, s.Logout(ctx))
	assert.Nil(t, s.Current())

	got, err := f.reload(t).Get("u")
	require.NoError(t, err)
	inA, ok := got.FindAlbum("A").FindByPath(shared)
	require.True(t, ok)
	assert.Equal(t, "edited in B", inA.Caption())
}

func TestCopyAndMove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.lib.Admin().CreateUser(ctx, "u")
	require.NoError(t, err)
	s := f.login(t, "u")
	for _, name := range []string{"src", "copies", "moved"} {
		_, err := s.CreateAlbum(ctx, name)
		require.NoError(t, err)
	}
	_, err = s.OpenAlbum(ctx, "src")
	require.NoError(t, err)
	a := f.image(t, "/pics/a.gif", 0)
	b := f.image(t, "/pics/b.bmp", time.Minute)
	pa, err := s.AddPhoto(ctx, a)
	require.NoError(t, err)
	pb, err := s.AddPhoto(ctx, b)
	require.NoError(t, err)
	require.NoError(t, s.SetCaption(ctx, a, "original"))

	c, err := s.CopyPhoto(ctx, a, "copies")
	require.NoError(t, err)
	assert.NotSame(t, pa, c)
	assert.True(t, gallery.SamePhoto(pa, c))
	assert.Equal(t, "original", c.Caption())
	_, err = s.CopyPhoto(ctx, a, "copies")
	assert.ErrorIs(t, err, gallery.ErrDuplicatePhoto)
	_, err = s.CopyPhoto(ctx, a, "src")
	assert.ErrorIs(t, err, gallery.ErrInvalidInput)
	_, err = s.CopyPhoto(ctx, a, "nowhere")
	assert.ErrorIs(t, err, gallery.ErrAlbumNotFound)

	require.NoError(t, s.MovePhoto(ctx, b, "moved"))
	assert.False(t, s.Current().Contains(pb))
	moved := s.User().FindAlbum("moved").Photos()
	require.Len(t, moved, 1)
	assert.Same(t, pb, moved[0])
	assert.ErrorIs(t, s.MovePhoto(ctx, b, "moved"), gallery.ErrPhotoNotFound)

	require.NoError(t, s.RemovePhoto(ctx, a))
	assert.Zero(t, s.Current().Len())
	assert.ErrorIs(t, s.RemovePhoto(ctx, a), gallery.ErrNotFound)
}

func TestAlbumManagement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.lib.Admin().CreateUser(ctx, "u")
	require.NoError(t, err)
	s := f.login(t, "u")

	_, err = s.CreateAlbum(ctx, "One")
	require.NoError(t, err)
	_, err = s.CreateAlbum(ctx, "Two")
	require.NoError(t, err)
	_, err = s.CreateAlbum(ctx, "one")
	assert.ErrorIs(t, err, gallery.ErrDuplicateName)

	assert.ErrorIs(t, s.RenameAlbum(ctx, "one", "TWO"), gallery.ErrDuplicateName)
	require.NoError(t, s.RenameAlbum(ctx, "one", "First"))
	assert.ErrorIs(t, s.RenameAlbum(ctx, "missing", "x"), gallery.ErrAlbumNotFound)

	_, err = s.OpenAlbum(ctx, "first")
	require.NoError(t, err)
	require.NoError(t, s.DeleteAlbum(ctx, "First"))
	assert.Nil(t, s.Current())
	assert.ErrorIs(t, s.DeleteAlbum(ctx, "First"), gallery.ErrAlbumNotFound)

	got, err := f.reload(t).Get("u")
	require.NoError(t, err)
	require.Len(t, got.Albums(), 1)
	assert.Equal(t, "Two", got.Albums()[0].Name())
}

func TestSortAlbum(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.lib.Admin().CreateUser(ctx, "u")
	require.NoError(t, err)
	s := f.login(t, "u")
	_, err = s.CreateAlbum(ctx, "A")
	require.NoError(t, err)
	_, err = s.OpenAlbum(ctx, "A")
	require.NoError(t, err)

	late, err := s.AddPhoto(ctx, f.image(t, "/pics/late.jpg", time.Hour))
	require.NoError(t, err)
	early, err := s.AddPhoto(ctx, f.image(t, "/pics/early.jpg", 0))
	require.NoError(t, err)

	require.NoError(t, s.SortAlbum(ctx, "date"))
	assert.Equal(t, []*gallery.Photo{early, late}, s.Current().Photos())

	require.NoError(t, s.AddTag(ctx, "/pics/early.jpg", "person", "Zed"))
	require.NoError(t, s.AddTag(ctx, "/pics/late.jpg", "location", "Oslo"))
	require.NoError(t, s.SortAlbum(ctx, "TAGS"))
	assert.Equal(t, []*gallery.Photo{late, early}, s.Current().Photos())

	assert.ErrorIs(t, s.SortAlbum(ctx, "size"), gallery.ErrInvalidInput)
}

func TestSearchAndDerivedAlbum(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.lib.Admin().CreateUser(ctx, "alice")
	require.NoError(t, err)
	s := f.login(t, "alice")

	_, err = s.CreateAlbum(ctx, "Trip")
	require.NoError(t, err)
	_, err = s.CreateAlbum(ctx, "Home")
	require.NoError(t, err)
	_, err = s.OpenAlbum(ctx, "Trip")
	require.NoError(t, err)
	img := f.image(t, "/pics/img1.jpg", 0)
	_, err = s.AddPhoto(ctx, img)
	require.NoError(t, err)
	require.NoError(t, s.AddTag(ctx, img, "person", "Bob"))

	results, err := s.SearchByTags(gallery.TagQuery{Mode: gallery.Single, First: gallery.TagPair{Type: "person", Value: "Bob"}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	_, err = s.CreateAlbumFromResults(ctx, "BobPhotos", results)
	require.NoError(t, err)
	assert.Equal(t, 1, s.User().AlbumByName("BobPhotos").Len())

	_, err = s.SearchByTags(gallery.TagQuery{Mode: gallery.Single, First: gallery.TagPair{Type: "person", Value: "Nobody"}})
	assert.ErrorIs(t, err, gallery.ErrNoMatches)
	_, err = s.SearchByTags(gallery.TagQuery{Mode: gallery.Conjunctive, First: gallery.TagPair{Type: "person", Value: "Bob"}})
	assert.ErrorIs(t, err, gallery.ErrInvalidInput)

	start, end := gallery.DayRange(mtime, mtime, time.UTC)
	byDate, err := s.SearchByDate(start, end)
	require.NoError(t, err)
	assert.Len(t, byDate, 1)
	_, err = s.SearchByDate(end, start)
	assert.ErrorIs(t, err, gallery.ErrInvalidInput)

	_, err = s.SearchByCaption("anything")
	assert.ErrorIs(t, err, gallery.ErrNoMatches)
	_, err = s.CreateAlbumFromResults(ctx, "Empty", nil)
	assert.ErrorIs(t, err, gallery.ErrNoMatches)

	got, err := f.reload(t).Get("alice")
	require.NoError(t, err)
	require.NotNil(t, got.AlbumByName("BobPhotos"))
	assert.Equal(t, 1, got.AlbumByName("BobPhotos").Len())
}

func TestEnsureStockUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.image(t, "/stock/b.png", time.Hour)
	f.image(t, "/stock/a.jpg", 0)
	f.image(t, "/stock/readme.txt", 0)
	require.NoError(t, f.fs.MkdirAll("/stock/sub.jpg", 0o755))

	u, created, err := f.lib.EnsureStockUser(ctx, "/stock")
	require.NoError(t, err)
	assert.True(t, created)
	album := u.FindAlbum(StockAlbumName)
	require.NotNil(t, album)
	photos := album.Photos()
	require.Len(t, photos, 2)
	assert.Equal(t, "/stock/a.jpg", photos[0].Path)
	assert.Equal(t, "/stock/b.png", photos[1].Path)

	again, created, err := f.lib.EnsureStockUser(ctx, "/elsewhere")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, u, again)

	s := f.login(t, "stock")
	assert.Len(t, s.Albums(), 1)

	f2 := newFixture(t)
	_, _, err = f2.lib.EnsureStockUser(ctx, "/missing")
	assert.ErrorIs(t, err, gallery.ErrNotFound)
}
