// Package service drives the photo library the way a user session does:
// log in, open albums, edit photos, search, and reconcile shared photos
// across albums at checkpoints. Every mutation is persisted before it
// returns.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/unowned-ai/shoebox/pkg/gallery"
	"github.com/unowned-ai/shoebox/pkg/store"
)

// Library is the composition root for sessions: the repository, the
// filesystem photos are read from, and the logger.
type Library struct {
	repo  *store.Repository
	fs    afero.Fs
	log   *zap.Logger
	admin *AdminService
}

// NewLibrary wires a library. A nil fs means the OS filesystem.
func NewLibrary(repo *store.Repository, fs afero.Fs, log *zap.Logger) *Library {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Library{
		repo:  repo,
		fs:    fs,
		log:   log,
		admin: NewAdminService(repo, log.Named("admin")),
	}
}

func (l *Library) Admin() *AdminService { return l.admin }

func (l *Library) Repository() *store.Repository { return l.repo }

// Login starts a session for username. The admin account always exists and
// is created on its first login; anyone else must have been created by the
// admin.
func (l *Library) Login(ctx context.Context, username string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, gallery.ErrBlankName
	}
	u, err := l.repo.Get(username)
	if errors.Is(err, gallery.ErrUserNotFound) && gallery.SameName(username, gallery.AdminUsername) {
		u, err = l.admin.CreateUser(ctx, gallery.AdminUsername)
	}
	if err != nil {
		return nil, err
	}
	l.log.Debug("login", zap.String("user", u.Username()))
	return newSession(l, u), nil
}

// DeleteUser removes a user account. The admin account is refused.
func (l *Library) DeleteUser(ctx context.Context, username string) error {
	if gallery.SameName(username, gallery.AdminUsername) {
		return gallery.ErrProtectedUser
	}
	return l.admin.DeleteUser(ctx, username)
}
