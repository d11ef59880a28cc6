// util/cache.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// CacheDir, if set, is used as the root of the object caches instead of
// the user's cache directory.
var CacheDir string

const cacheEntrySuffix = ".msgpack.zst"

// CacheKey returns a file name-friendly hash of the given contents.
func CacheKey(contents ...[]byte) string {
	hash := sha256.New()
	for _, c := range contents {
		hash.Write(c)
	}
	return hex.EncodeToString(hash.Sum(nil))[:32]
}

// CacheKeyReader returns the same key as CacheKey for everything that can
// be read from r.
func CacheKeyReader(r io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil))[:32], nil
}

// ObjectCache stores values derived from source files, such as parsed
// meshes, so that they needn't be recomputed. Entries are named by the
// CacheKey of the source's contents, so an edited source simply misses.
// Each entry records the cache's version; entries written with another
// version are discarded, which lets the cached type change.
type ObjectCache struct {
	dir     string
	version int
}

type cacheHeader struct {
	Version int
	Key     string
}

// NewObjectCache returns the cache for the given kind of object, which
// lives in its own directory under CacheDir or the user's cache
// directory.
func NewObjectCache(kind string, version int) (*ObjectCache, error) {
	root := CacheDir
	if root == "" {
		cd, err := os.UserCacheDir()
		if err != nil {
			return nil, err
		}
		root = filepath.Join(cd, "ModelView")
	}
	return &ObjectCache{dir: filepath.Join(root, kind), version: version}, nil
}

func (c *ObjectCache) Dir() string { return c.dir }

func (c *ObjectCache) entryPath(key string) string {
	return filepath.Join(c.dir, key+cacheEntrySuffix)
}

// Store writes obj under key. The entry is written to a temporary file
// and renamed so that a concurrent Lookup never sees a partial entry.
func (c *ObjectCache) Store(key string, obj any) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name()) // fails harmlessly after the rename

	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		f.Close()
		return err
	}
	enc := msgpack.NewEncoder(zw)
	err = enc.Encode(cacheHeader{Version: c.version, Key: key})
	if err == nil {
		err = enc.Encode(obj)
	}
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return os.Rename(f.Name(), c.entryPath(key))
}

// Lookup decodes the entry for key into obj and reports whether there
// was one. Stale or unreadable entries are removed and reported as
// misses; the error describes why an unreadable one was dropped. A hit
// refreshes the entry's time so that Cull keeps recently used entries.
func (c *ObjectCache) Lookup(key string, obj any) (bool, error) {
	path := c.entryPath(key)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	hit, err := c.decode(f, key, obj)
	f.Close()
	if !hit {
		os.Remove(path)
		return false, err
	}
	now := time.Now()
	_ = os.Chtimes(path, now, now)
	return true, nil
}

func (c *ObjectCache) decode(r io.Reader, key string, obj any) (bool, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return false, err
	}
	defer zr.Close()

	dec := msgpack.NewDecoder(zr)
	var h cacheHeader
	if err := dec.Decode(&h); err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	if h.Version != c.version || h.Key != key {
		return false, nil
	}
	if err := dec.Decode(obj); err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return true, nil
}

// Cull removes the least recently used entries until the cache holds at
// most maxBytes; it returns how many were removed. Leftover temporary
// files are always removed.
func (c *ObjectCache) Cull(maxBytes int64) (int, error) {
	dirents, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}

	type entry struct {
		path string
		size int64
		used time.Time
	}
	var entries []entry
	var total int64
	removed := 0
	for _, de := range dirents {
		path := filepath.Join(c.dir, de.Name())
		if strings.HasSuffix(de.Name(), ".tmp") {
			if os.Remove(path) == nil {
				removed++
			}
			continue
		}
		if de.IsDir() || !strings.HasSuffix(de.Name(), cacheEntrySuffix) {
			continue
		}
		if fi, err := de.Info(); err == nil {
			entries = append(entries, entry{path: path, size: fi.Size(), used: fi.ModTime()})
			total += fi.Size()
		}
	}

	slices.SortFunc(entries, func(a, b entry) int { return a.used.Compare(b.used) })
	for _, e := range entries {
		if total <= maxBytes {
			break
		}
		if os.Remove(e.path) == nil {
			total -= e.size
			removed++
		}
	}
	return removed, nil
}
