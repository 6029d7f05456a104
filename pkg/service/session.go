package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unowned-ai/shoebox/pkg/gallery"
)

// ErrNoAlbumOpen is returned by photo operations outside an open album.
var ErrNoAlbumOpen = fmt.Errorf("%w: no album is open", gallery.ErrInvalidInput)

// imageExtensions are the file types accepted as photos.
var imageExtensions = map[string]bool{
	".bmp":  true,
	".gif":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// IsImagePath reports whether path has one of the accepted image extensions.
func IsImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// Sort orders for SortAlbum.
const (
	SortByDate = "date"
	SortByTags = "tags"
)

// Session is one logged-in user. Photo edits happen inside the open album;
// they reach copies of the same file in other albums only at checkpoints:
// leaving the album, opening another one, or logging out.
type Session struct {
	lib    *Library
	user   *gallery.User
	open   *gallery.Album
	edited []*gallery.Photo
	log    *zap.Logger
}

func newSession(lib *Library, u *gallery.User) *Session {
	return &Session{
		lib:  lib,
		user: u,
		log:  lib.log.With(zap.String("user", u.Username())),
	}
}

func (s *Session) User() *gallery.User { return s.user }

// Current returns the open album, or nil.
func (s *Session) Current() *gallery.Album { return s.open }

func (s *Session) Albums() []*gallery.Album { return s.user.Albums() }

// Album looks an album up by name ignoring case.
func (s *Session) Album(name string) (*gallery.Album, error) {
	a := s.user.FindAlbum(name)
	if a == nil {
		return nil, fmt.Errorf("%q: %w", strings.TrimSpace(name), gallery.ErrAlbumNotFound)
	}
	return a, nil
}

func (s *Session) save(ctx context.Context) error {
	return s.lib.repo.Save(ctx, s.user)
}

// commit saves a change made after snap was taken. A failed save undoes the
// change, so memory keeps matching the last saved library.
func (s *Session) commit(ctx context.Context, snap *gallery.Snapshot) error {
	if err := s.save(ctx); err != nil {
		snap.Restore()
		s.log.Warn("change rolled back", zap.Error(err))
		return err
	}
	return nil
}

func (s *Session) CreateAlbum(ctx context.Context, name string) (*gallery.Album, error) {
	snap := s.user.Snapshot()
	a, err := s.user.CreateAlbum(name)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, snap); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Session) RenameAlbum(ctx context.Context, name, newName string) error {
	a, err := s.Album(name)
	if err != nil {
		return err
	}
	snap := s.user.Snapshot()
	if err := s.user.RenameAlbum(a, newName); err != nil {
		return err
	}
	return s.commit(ctx, snap)
}

// DeleteAlbum removes an album. Deleting the open album leaves it first so
// pending edits still reach other albums; that checkpoint stands even if the
// deletion is rolled back.
func (s *Session) DeleteAlbum(ctx context.Context, name string) error {
	a, err := s.Album(name)
	if err != nil {
		return err
	}
	if a == s.open {
		s.checkpoint()
	}
	snap := s.user.Snapshot()
	if err := s.user.DeleteAlbum(a); err != nil {
		return err
	}
	return s.commit(ctx, snap)
}

// OpenAlbum makes name the album photo operations act on. An album that was
// already open is left first.
func (s *Session) OpenAlbum(ctx context.Context, name string) (*gallery.Album, error) {
	a, err := s.Album(name)
	if err != nil {
		return nil, err
	}
	if s.open != nil && s.open != a {
		if err := s.LeaveAlbum(ctx); err != nil {
			return nil, err
		}
	}
	s.open = a
	return a, nil
}

// LeaveAlbum closes the open album. This is a checkpoint.
func (s *Session) LeaveAlbum(ctx context.Context) error {
	if s.open == nil {
		return nil
	}
	s.checkpoint()
	return s.save(ctx)
}

// Logout ends the session. This is a checkpoint; the whole library is saved.
func (s *Session) Logout(ctx context.Context) error {
	s.checkpoint()
	s.log.Debug("logout")
	return s.lib.repo.SaveAll(ctx)
}

// checkpoint propagates edits made in the open album and closes it.
func (s *Session) checkpoint() {
	if s.open != nil && len(s.edited) > 0 {
		n := s.user.Propagate(s.open, s.edited...)
		s.log.Info("checkpoint",
			zap.String("album", s.open.Name()),
			zap.Int("edited", len(s.edited)),
			zap.Int("updated", n))
	}
	s.open = nil
	s.edited = nil
}

func (s *Session) markEdited(p *gallery.Photo) {
	for _, e := range s.edited {
		if e == p {
			return
		}
	}
	s.edited = append(s.edited, p)
}

func (s *Session) requireOpen() (*gallery.Album, error) {
	if s.open == nil {
		return nil, ErrNoAlbumOpen
	}
	return s.open, nil
}

// Photo finds a photo of the open album by path. Relative paths are made
// absolute first. An album holds at most one photo per path; see AddPhoto.
func (s *Session) Photo(path string) (*gallery.Photo, error) {
	a, err := s.requireOpen()
	if err != nil {
		return nil, err
	}
	if p, ok := a.FindByPath(path); ok {
		return p, nil
	}
	if abs, err := filepath.Abs(path); err == nil {
		if p, ok := a.FindByPath(abs); ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%s in %q: %w", path, a.Name(), gallery.ErrPhotoNotFound)
}

// AddPhoto adds the image file at path to the open album. The photo's
// timestamp is the file's modification time at this moment. A file the
// album already holds is refused even when it was modified since, because
// photo operations address photos by path.
func (s *Session) AddPhoto(ctx context.Context, path string) (*gallery.Photo, error) {
	a, err := s.requireOpen()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: photo path cannot be empty", gallery.ErrInvalidInput)
	}
	if !IsImagePath(path) {
		return nil, fmt.Errorf("%w: %s is not a bmp, gif, jpg, jpeg or png file", gallery.ErrInvalidInput, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", gallery.ErrInvalidInput, path, err)
	}
	info, err := s.lib.fs.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, gallery.ErrNotFound)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", gallery.ErrInvalidInput, abs)
	}

	if _, ok := a.FindByPath(abs); ok {
		return nil, fmt.Errorf("%s in %q: %w", abs, a.Name(), gallery.ErrDuplicatePhoto)
	}
	p, err := gallery.NewPhoto(abs, info.ModTime())
	if err != nil {
		return nil, err
	}
	snap := s.user.Snapshot()
	if err := a.AddPhoto(p); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, snap); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Session) RemovePhoto(ctx context.Context, path string) error {
	p, err := s.Photo(path)
	if err != nil {
		return err
	}
	snap := s.user.Snapshot()
	s.open.RemovePhoto(p)
	return s.commit(ctx, snap)
}

func (s *Session) SetCaption(ctx context.Context, path, caption string) error {
	p, err := s.Photo(path)
	if err != nil {
		return err
	}
	snap := s.user.Snapshot()
	p.SetCaption(strings.TrimSpace(caption))
	if err := s.commit(ctx, snap); err != nil {
		return err
	}
	s.markEdited(p)
	return nil
}

// AddTag tags a photo of the open album. The type must be registered for
// the user and have room for another value on this photo.
func (s *Session) AddTag(ctx context.Context, path, tagType, value string) error {
	p, err := s.Photo(path)
	if err != nil {
		return err
	}
	tag, err := gallery.NewTag(tagType, value)
	if err != nil {
		return err
	}
	if p.HasTag(tag) {
		return gallery.ErrDuplicateTag
	}
	if err := s.user.TagTypes().Admits(p, tag); err != nil {
		return fmt.Errorf("%s: %w", tag, err)
	}
	snap := s.user.Snapshot()
	if err := p.AddTag(tag); err != nil {
		return err
	}
	if err := s.commit(ctx, snap); err != nil {
		return err
	}
	s.markEdited(p)
	return nil
}

func (s *Session) DeleteTag(ctx context.Context, path, tagType, value string) error {
	p, err := s.Photo(path)
	if err != nil {
		return err
	}
	snap := s.user.Snapshot()
	if err := p.DeleteTag(gallery.Tag{Type: tagType, Value: value}); err != nil {
		return err
	}
	if err := s.commit(ctx, snap); err != nil {
		return err
	}
	s.markEdited(p)
	return nil
}

func (s *Session) AddTagType(ctx context.Context, tagType string, multiplicity int) error {
	snap := s.user.Snapshot()
	if err := s.user.AddTagType(tagType, multiplicity); err != nil {
		return err
	}
	return s.commit(ctx, snap)
}

// CopyPhoto puts a separate Photo for the same file, with the same caption
// and tags, into dest. Later edits to either do not affect the other until
// a checkpoint.
func (s *Session) CopyPhoto(ctx context.Context, path, dest string) (*gallery.Photo, error) {
	p, target, err := s.transferTarget(path, dest)
	if err != nil {
		return nil, err
	}
	snap := s.user.Snapshot()
	c := p.Clone()
	if err := target.AddPhoto(c); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, snap); err != nil {
		return nil, err
	}
	return c, nil
}

// MovePhoto moves the photo itself from the open album to dest.
func (s *Session) MovePhoto(ctx context.Context, path, dest string) error {
	p, target, err := s.transferTarget(path, dest)
	if err != nil {
		return err
	}
	snap := s.user.Snapshot()
	if err := target.AddPhoto(p); err != nil {
		return err
	}
	s.open.RemovePhoto(p)
	return s.commit(ctx, snap)
}

func (s *Session) transferTarget(path, dest string) (*gallery.Photo, *gallery.Album, error) {
	p, err := s.Photo(path)
	if err != nil {
		return nil, nil, err
	}
	target, err := s.Album(dest)
	if err != nil {
		return nil, nil, err
	}
	if target == s.open {
		return nil, nil, fmt.Errorf("%w: destination is the open album", gallery.ErrInvalidInput)
	}
	if _, ok := target.FindByPath(p.Path); ok {
		return nil, nil, fmt.Errorf("%q: %w", target.Name(), gallery.ErrDuplicatePhoto)
	}
	return p, target, nil
}

// SortAlbum reorders the open album by SortByDate or SortByTags.
func (s *Session) SortAlbum(ctx context.Context, by string) error {
	a, err := s.requireOpen()
	if err != nil {
		return err
	}
	snap := s.user.Snapshot()
	switch strings.ToLower(strings.TrimSpace(by)) {
	case SortByDate:
		a.SortByDate()
	case SortByTags:
		a.SortByTagSignature()
	default:
		return fmt.Errorf("%w: unknown sort order %q", gallery.ErrInvalidInput, by)
	}
	return s.commit(ctx, snap)
}

// SearchByDate finds photos taken in [start, end]. No match is ErrNoMatches.
func (s *Session) SearchByDate(start, end time.Time) ([]*gallery.Photo, error) {
	return noMatches(gallery.SearchByDate(s.user, start, end))
}

func (s *Session) SearchByTags(q gallery.TagQuery) ([]*gallery.Photo, error) {
	return noMatches(gallery.SearchByTags(s.user, q))
}

func (s *Session) SearchByCaption(text string) ([]*gallery.Photo, error) {
	return noMatches(gallery.SearchByCaption(s.user, text))
}

// CreateAlbumFromResults makes a new album holding the given photos. Of
// several results for the same file, taken at different times, only the
// first is kept since the album addresses photos by path.
func (s *Session) CreateAlbumFromResults(ctx context.Context, name string, results []*gallery.Photo) (*gallery.Album, error) {
	if len(results) == 0 {
		return nil, gallery.ErrNoMatches
	}
	snap := s.user.Snapshot()
	a, err := s.user.CreateAlbumFrom(name, firstPerPath(results))
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, snap); err != nil {
		return nil, err
	}
	return a, nil
}

func firstPerPath(photos []*gallery.Photo) []*gallery.Photo {
	seen := make(map[string]bool, len(photos))
	out := make([]*gallery.Photo, 0, len(photos))
	for _, p := range photos {
		if seen[p.Path] {
			continue
		}
		seen[p.Path] = true
		out = append(out, p)
	}
	return out
}

func noMatches(photos []*gallery.Photo, err error) ([]*gallery.Photo, error) {
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return nil, gallery.ErrNoMatches
	}
	return photos, nil
}
