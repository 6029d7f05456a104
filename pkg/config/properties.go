// Package config reads shoebox settings from SHOEBOX_* environment
// variables. The CLI layers a config file and flags on top of these.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"

	"github.com/unowned-ai/shoebox/pkg/store"
	"github.com/unowned-ai/shoebox/pkg/utils"
)

// Prefix is prepended to every variable name.
const Prefix = "SHOEBOX_"

type (
	Properties struct {
		LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`
		// User is the account commands act as when --user is not given.
		User   string `env:"USER"`
		Output string `env:"OUTPUT" envDefault:"table"`
		// StockDir holds the images seeded into the stock user.
		StockDir string `env:"STOCK_DIR"`

		Store StoreProperties `envPrefix:"STORE_"`
	}

	StoreProperties struct {
		Backend string `env:"BACKEND" envDefault:"sqlite"`
		// Path defaults per backend, see utils.DefaultLibraryPath.
		Path string `env:"PATH"`
		WAL  bool   `env:"WAL" envDefault:"true"`
		Sync string `env:"SYNC" envDefault:"NORMAL"`
	}
)

// ReadProperties parses the process environment.
func ReadProperties() (*Properties, error) {
	return parse(env.Options{Prefix: Prefix})
}

// ReadPropertiesFrom parses vars instead of the process environment. Keys
// carry the prefix, e.g. SHOEBOX_LOG_LEVEL.
func ReadPropertiesFrom(vars map[string]string) (*Properties, error) {
	return parse(env.Options{Prefix: Prefix, Environment: vars})
}

func parse(opts env.Options) (*Properties, error) {
	p := &Properties{}
	if err := env.Parse(p, opts); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}
	return p, nil
}

// StoreConfig resolves the store settings into a backend config, filling in
// the default location for the chosen backend.
func (p StoreProperties) StoreConfig() (store.Config, error) {
	path, err := utils.ResolveLibraryPath(p.Backend, p.Path)
	if err != nil {
		return store.Config{}, err
	}
	return store.Config{
		Kind: p.Backend,
		Path: path,
		WAL:  p.WAL,
		Sync: p.Sync,
	}, nil
}
