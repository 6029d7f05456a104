package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/unowned-ai/shoebox/pkg/gallery"
)

// Repository is the in-memory username to User map plus the backend that
// persists it. Every write serialises the whole map. One mutex guards both
// the map and the write, so each saved document is a consistent snapshot.
type Repository struct {
	mu      sync.Mutex
	backend Backend
	users   map[string]*gallery.User
	log     *zap.Logger
}

// Open loads every user from backend. An empty store yields an empty
// repository.
func Open(ctx context.Context, backend Backend, log *zap.Logger) (*Repository, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Repository{
		backend: backend,
		users:   map[string]*gallery.User{},
		log:     log.With(zap.Stringer("backend", backend)),
	}

	records, err := backend.Load(ctx)
	if err != nil {
		r.log.Error("load failed", zap.Error(err))
		return nil, fmt.Errorf("%w: load from %s: %w", gallery.ErrPersistence, backend, err)
	}
	for _, rec := range records {
		u, err := gallery.RestoreUser(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: load from %s: %w", gallery.ErrPersistence, backend, err)
		}
		key := userKey(u.Username())
		if _, dup := r.users[key]; dup {
			return nil, fmt.Errorf("%w: load from %s: user %q: %w", gallery.ErrPersistence, backend, u.Username(), gallery.ErrDuplicateName)
		}
		r.users[key] = u
	}
	r.log.Debug("library loaded", zap.Int("users", len(r.users)))
	return r, nil
}

// Get returns the user whose name matches ignoring case.
func (r *Repository) Get(username string) (*gallery.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userKey(username)]
	if !ok {
		return nil, gallery.ErrUserNotFound
	}
	return u, nil
}

// Users returns a snapshot of all users ordered by name.
func (r *Repository) Users() []*gallery.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*gallery.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		return userKey(out[i].Username()) < userKey(out[j].Username())
	})
	return out
}

// Insert adds a new user and persists. If persisting fails the user is not
// kept.
func (r *Repository) Insert(ctx context.Context, u *gallery.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := userKey(u.Username())
	if _, ok := r.users[key]; ok {
		return gallery.ErrDuplicateName
	}
	r.users[key] = u
	if err := r.persist(ctx); err != nil {
		delete(r.users, key)
		return err
	}
	return nil
}

// Remove deletes the named user and persists. If persisting fails the user
// is put back.
func (r *Repository) Remove(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := userKey(username)
	u, ok := r.users[key]
	if !ok {
		return gallery.ErrUserNotFound
	}
	delete(r.users, key)
	if err := r.persist(ctx); err != nil {
		r.users[key] = u
		return err
	}
	return nil
}

// Save upserts u and writes the entire map. The in-memory graph keeps its
// state when the write fails; the next successful save carries it.
func (r *Repository) Save(ctx context.Context, u *gallery.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userKey(u.Username())] = u
	return r.persist(ctx)
}

// SaveAll writes the current map as is.
func (r *Repository) SaveAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persist(ctx)
}

// Close releases the backend.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.Close()
}

func (r *Repository) String() string {
	return r.backend.String()
}

// persist must be called with mu held.
func (r *Repository) persist(ctx context.Context) error {
	keys := make([]string, 0, len(r.users))
	for k := range r.users {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	records := make([]gallery.UserRecord, len(keys))
	for i, k := range keys {
		records[i] = r.users[k].Record()
	}

	if err := r.backend.Save(ctx, records); err != nil {
		r.log.Error("save failed", zap.Int("users", len(records)), zap.Error(err))
		return fmt.Errorf("%w: save to %s: %w", gallery.ErrPersistence, r.backend, err)
	}
	r.log.Debug("library saved", zap.Int("users", len(records)))
	return nil
}

func userKey(username string) string {
	return gallery.FoldKey(username)
}
