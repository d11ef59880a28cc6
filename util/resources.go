// util/resources.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	resourcesFS      fs.StatFS
	resourcesDir     string
	resourcesErr     error
	resourcesFSOnce  sync.Once
	ErrNoResourceDir = errors.New("unable to find resources directory")
)

// SetResourcesDir overrides the search for the resources directory; it
// must be called before any resources are loaded.
func SetResourcesDir(dir string) {
	resourcesFSOnce.Do(func() { initResourcesFS(dir) })
}

func initResourcesFS(dir string) {
	if dir == "" {
		dir, resourcesErr = findResourcesFolderPath()
		if resourcesErr != nil {
			return
		}
	}
	fsys, ok := os.DirFS(dir).(fs.StatFS)
	if !ok {
		panic("FS from DirFS is not a StatFS?")
	}
	resourcesFS, resourcesDir = fsys, dir
}

func getResourcesFS() (fs.StatFS, error) {
	resourcesFSOnce.Do(func() { initResourcesFS("") })
	return resourcesFS, resourcesErr
}

// findResourcesFolderPath locates the resources directory by checking
// next to the executable, the CWD, and up to two parent directories of
// the CWD.
func findResourcesFolderPath() (string, error) {
	var candidates []string
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "resources"))
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	// Try CWD as well the two directories above it.
	for range 3 {
		candidates = append(candidates, filepath.Join(dir, "resources"))
		dir = filepath.Join(dir, "..")
	}

	for _, c := range candidates {
		// Check if this directory contains the expected subdirectories
		if _, err := os.Stat(filepath.Join(c, "shaders")); err == nil {
			return c, nil
		}
	}
	return "", ErrNoResourceDir
}

// Unfortunately, unlike io.ReadCloser, the zstd Decoder's Close() method
// doesn't return an error, so we need to make our own custom ReadCloser
// interface.
type ResourceReadCloser interface {
	io.Reader
	Close()
}

type bytesReadCloser struct {
	*bytes.Reader
}

func (bytesReadCloser) Close() {}

func wrapResource(path string, b []byte) (ResourceReadCloser, error) {
	br := bytesReadCloser{bytes.NewReader(b)}

	if filepath.Ext(path) == ".zst" {
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return zr, nil
	}

	return br, nil
}

// OpenResource provides a ResourceReadCloser to access the specified file
// from the resources directory; if it's zstd compressed, the Reader will
// handle decompression transparently.
func OpenResource(path string) (ResourceReadCloser, error) {
	fsys, err := getResourcesFS()
	if err != nil {
		return nil, err
	}
	b, err := fs.ReadFile(fsys, filepath.ToSlash(path))
	if err != nil {
		return nil, err
	}
	return wrapResource(path, b)
}

// OpenResourceOrFile is like OpenResource but first checks whether path
// names a file in the file system, so that users can point the program at
// their own files.
func OpenResourceOrFile(path string) (ResourceReadCloser, error) {
	if b, err := os.ReadFile(path); err == nil {
		return wrapResource(path, b)
	} else if filepath.IsAbs(path) || !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return OpenResource(path)
}

func readAll(r ResourceReadCloser, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func LoadResourceOrFileBytes(path string) ([]byte, error) {
	return readAll(OpenResourceOrFile(path))
}

// ResourceExists returns true if the specified resource file exists.
func ResourceExists(path string) bool {
	fsys, err := getResourcesFS()
	if err != nil {
		return false
	}
	_, err = fsys.Stat(filepath.ToSlash(path))
	return err == nil
}

// ResourceOrFileExists returns true if path names either a file or a
// resource.
func ResourceOrFileExists(path string) bool {
	if _, err := os.Stat(path); err == nil {
		return true
	}
	return ResourceExists(path)
}

// ResourcePath returns the file system path of the given resource, for
// code that needs a real path (e.g., to watch for changes).
func ResourcePath(path string) (string, error) {
	if _, err := getResourcesFS(); err != nil {
		return "", err
	}
	return filepath.Join(resourcesDir, filepath.FromSlash(path)), nil
}
