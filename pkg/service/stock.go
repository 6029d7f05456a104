package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/unowned-ai/shoebox/pkg/gallery"
)

const (
	StockUsername  = "stock"
	StockAlbumName = "stock"
)

// EnsureStockUser seeds the stock account with an album of every image in
// dir. An existing stock user is returned untouched; created reports whether
// it was made now.
func (l *Library) EnsureStockUser(ctx context.Context, dir string) (u *gallery.User, created bool, err error) {
	u, err = l.repo.Get(StockUsername)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, gallery.ErrUserNotFound) {
		return nil, false, err
	}

	photos, err := l.scanImages(dir)
	if err != nil {
		return nil, false, err
	}
	u, err = gallery.NewUser(StockUsername)
	if err != nil {
		return nil, false, err
	}
	if _, err := u.CreateAlbumFrom(StockAlbumName, photos); err != nil {
		return nil, false, err
	}
	if err := l.repo.Insert(ctx, u); err != nil {
		return nil, false, err
	}
	l.log.Info("stock user seeded", zap.String("dir", dir), zap.Int("photos", len(photos)))
	return u, true, nil
}

// scanImages returns a photo for each image file directly inside dir, in
// name order.
func (l *Library) scanImages(dir string) ([]*gallery.Photo, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", gallery.ErrInvalidInput, dir, err)
	}
	infos, err := afero.ReadDir(l.fs, abs)
	if err != nil {
		return nil, fmt.Errorf("stock directory %s: %w", abs, gallery.ErrNotFound)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	var photos []*gallery.Photo
	for _, info := range infos {
		if info.IsDir() || !IsImagePath(info.Name()) {
			continue
		}
		p, err := gallery.NewPhoto(filepath.Join(abs, info.Name()), info.ModTime())
		if err != nil {
			l.log.Warn("stock image skipped", zap.String("file", info.Name()), zap.Error(err))
			continue
		}
		photos = append(photos, p)
	}
	return photos, nil
}
