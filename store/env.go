package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// EnvConfig is the environment-driven store configuration.
type EnvConfig struct {
	// Dir is the cache root. Empty means the user cache directory plus
	// "memoops". Supports the same ~ / ! / ${VAR} specs as NewDir.
	Dir string `env:"MEMOOPS_DIR"`

	// Ext is the entry file extension.
	Ext string `env:"MEMOOPS_EXT" envDefault:".gob"`

	// Disable turns caching off entirely; FromEnv returns a null store.
	Disable bool `env:"MEMOOPS_DISABLE" envDefault:"false"`
}

// FromEnv builds a Store from MEMOOPS_* environment variables.
//
// With MEMOOPS_DISABLE set the returned store drops all writes and always
// misses, so callers need no separate code path for disabled caching.
func FromEnv() (Store, error) {
	cfg, err := env.ParseAs[EnvConfig]()
	if err != nil {
		return nil, fmt.Errorf("store: parsing environment: %w", err)
	}

	if cfg.Disable {
		return NewNull(), nil
	}

	root := cfg.Dir
	if root == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("store: resolving user cache dir: %w", err)
		}
		root = filepath.Join(base, "memoops")
	}

	return NewDir(root, WithExt(cfg.Ext))
}
