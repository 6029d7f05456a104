package main

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/unowned-ai/shoebox/pkg/config"
	"github.com/unowned-ai/shoebox/pkg/logger"
	"github.com/unowned-ai/shoebox/pkg/service"
	"github.com/unowned-ai/shoebox/pkg/store"
)

func newLogger() (*zap.Logger, error) {
	return logger.GetLogger(viper.GetString("log-level"))
}

func storeConfig() (store.Config, error) {
	props := config.StoreProperties{
		Backend: strings.ToLower(viper.GetString("backend")),
		Path:    viper.GetString("db"),
		WAL:     viper.GetBool("wal"),
		Sync:    viper.GetString("sync"),
	}
	return props.StoreConfig()
}

// openLibrary opens the configured backend and loads the library. The
// returned close func releases the backend.
func openLibrary(ctx context.Context) (*service.Library, func() error, error) {
	log, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := storeConfig()
	if err != nil {
		return nil, nil, err
	}
	backend, err := store.NewBackend(ctx, cfg, log.Named("backend"))
	if err != nil {
		return nil, nil, err
	}
	repo, err := store.Open(ctx, backend, log.Named("store"))
	if err != nil {
		return nil, nil, multierr.Append(err, backend.Close())
	}
	return service.NewLibrary(repo, nil, log.Named("service")), repo.Close, nil
}

func currentUser() (string, error) {
	u := strings.TrimSpace(viper.GetString("user"))
	if u == "" {
		return "", errors.New("no user given: pass --user or set SHOEBOX_USER")
	}
	return u, nil
}

// withLibrary runs fn against a freshly opened library and closes it after.
func withLibrary(ctx context.Context, fn func(*service.Library) error) (err error) {
	lib, closeFn, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, closeFn())
	}()
	return fn(lib)
}

// withSession logs in as the current user, opens album when it is not empty,
// runs fn and logs out. Logging out is a checkpoint, so edits made by fn
// reach the other albums holding the same photos.
func withSession(ctx context.Context, album string, fn func(*service.Session) error) error {
	username, err := currentUser()
	if err != nil {
		return err
	}
	return withLibrary(ctx, func(lib *service.Library) error {
		s, err := lib.Login(ctx, username)
		if err != nil {
			return err
		}
		if album != "" {
			if _, err := s.OpenAlbum(ctx, album); err != nil {
				return err
			}
		}
		err = fn(s)
		return multierr.Append(err, s.Logout(ctx))
	})
}
