package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/unowned-ai/shoebox/pkg/gallery"
	"github.com/unowned-ai/shoebox/pkg/store"
)

// AdminService manages user accounts. It does not know about the reserved
// admin account; Library.DeleteUser guards that.
type AdminService struct {
	repo *store.Repository
	log  *zap.Logger
}

func NewAdminService(repo *store.Repository, log *zap.Logger) *AdminService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminService{repo: repo, log: log}
}

// CreateUser adds a user with no albums and the default tag types.
func (a *AdminService) CreateUser(ctx context.Context, username string) (*gallery.User, error) {
	u, err := gallery.NewUser(username)
	if err != nil {
		return nil, err
	}
	if err := a.repo.Insert(ctx, u); err != nil {
		return nil, err
	}
	a.log.Info("user created", zap.String("user", u.Username()))
	return u, nil
}

func (a *AdminService) DeleteUser(ctx context.Context, username string) error {
	if err := a.repo.Remove(ctx, username); err != nil {
		return err
	}
	a.log.Info("user deleted", zap.String("user", username))
	return nil
}

// ListUsers returns every user ordered by name.
func (a *AdminService) ListUsers() []*gallery.User {
	return a.repo.Users()
}
