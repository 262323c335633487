package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultExt is the file extension for cache entries on disk.
const DefaultExt = ".gob"

// Dir is a filesystem-backed Store. Each namespace is a directory; each
// entry is a file named <key><ext> inside it.
//
// Contract:
// - Concurrency: Put is atomic (temp file + rename), so concurrent writes
//   to the same key are last-writer-wins, never interleaved. Concurrent
//   delete against the same key needs external coordination.
// - Errors: Get/Delete return ErrNotFound for absent entries; all other
//   filesystem errors are returned unchanged.
type Dir struct {
	root string
	ext  string
}

// DirOption configures a Dir.
type DirOption func(*Dir)

// WithExt sets the entry file extension. The leading dot is optional.
func WithExt(ext string) DirOption {
	return func(d *Dir) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		d.ext = ext
	}
}

// NewDir creates a filesystem store rooted at root.
//
// The root spec supports a leading `~` (user home), a leading `!` (system
// temp), and strict `${VAR}` environment expansion. The root directory is
// created eagerly; sub-namespaces are created lazily on first write.
func NewDir(root string, opts ...DirOption) (*Dir, error) {
	abs, err := expandRoot(root)
	if err != nil {
		return nil, err
	}

	d := &Dir{root: abs, ext: DefaultExt}
	for _, opt := range opts {
		opt(d)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("store: creating root %q: %w", abs, err)
	}
	return d, nil
}

// Root returns the absolute root directory of this namespace.
func (d *Dir) Root() string {
	return d.root
}

// path resolves key to an entry path inside the namespace, guarding
// against traversal out of the root.
func (d *Dir) path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	p := filepath.Join(d.root, key+d.ext)
	if !strings.HasPrefix(p, d.root+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return p, nil
}

// Exists reports whether an entry is present at key.
func (d *Dir) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := d.path(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// Get retrieves the entry at key. Returns ErrNotFound on miss.
func (d *Dir) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := d.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Put stores data at key atomically: the entry is written to a temp file
// in the namespace directory and renamed into place.
func (d *Dir) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("store: creating namespace %q: %w", d.root, err)
	}

	tmp, err := os.CreateTemp(d.root, ".put-*")
	if err != nil {
		return fmt.Errorf("store: creating temp entry: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store: writing entry: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("store: setting entry mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: closing entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("store: committing entry: %w", err)
	}
	return nil
}

// Delete removes the entry at key. Returns ErrNotFound if absent.
func (d *Dir) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Sub derives a nested namespace. The directory is created lazily on
// first write.
func (d *Dir) Sub(name string) (Store, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return &Dir{root: filepath.Join(d.root, name), ext: d.ext}, nil
}

// Locate returns the absolute file path an entry at key would occupy.
func (d *Dir) Locate(key string) string {
	return filepath.Join(d.root, key+d.ext)
}

// Keys lists the entry keys present in this namespace, without recursing
// into sub-namespaces.
func (d *Dir) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), d.ext) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), d.ext))
	}
	return keys, nil
}

// Clear deletes every entry in this namespace, leaving sub-namespaces
// untouched. Returns the number of entries removed.
func (d *Dir) Clear(ctx context.Context) (int, error) {
	keys, err := d.Keys(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := d.Delete(ctx, key); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Purge removes entries whose modification time is older than maxAge,
// recursing into sub-namespaces. Returns the number of entries removed.
// It is a maintenance operation, not an eviction policy: nothing expires
// on read.
func (d *Dir) Purge(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	removed := 0
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), d.ext) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if time.Since(info.ModTime()) <= maxAge {
			return nil
		}
		if err := os.Remove(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		removed++
		return nil
	})
	return removed, err
}

// Ensure Dir implements Store
var _ Store = (*Dir)(nil)
