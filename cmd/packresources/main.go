// cmd/packresources/main.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// packresources goes through the resources directory and zstd-compresses
// large models and images so that they take less space when the viewer
// is distributed; the viewer decompresses .zst resources transparently.
// It then writes a JSON manifest that records each resource's name and
// the SHA256 hash of its contents.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mmp/modelview/util"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"
)

var (
	resourcesDir = flag.String("resources", "./resources", "resources directory")
	minSize      = flag.Int64("minsize", 64*1024, "smallest file to compress, in bytes")
	keep         = flag.Bool("keep", false, "keep the original files after compressing them")
	outFile      = flag.String("manifest", "manifest.json", "manifest file name, relative to the resources directory")
)

// Only these are compressed; shaders are read from disk directly so they
// can be edited and reloaded.
var compressible = []string{".obj", ".bmp", ".tif", ".tiff", ".ppm"}

type packOptions struct {
	MinSize      int64
	KeepOriginal bool
	Workers      int
}

type packResult struct {
	path       string // relative to the resources directory
	hash       string
	compressed bool
}

func isTemporaryFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) ||
		strings.HasSuffix(base, "~")
}

func shouldCompress(path string, size int64, opts packOptions) bool {
	return size >= opts.MinSize && slices.Contains(compressible, strings.ToLower(filepath.Ext(path)))
}

func compressFile(enc *zstd.Encoder, path string, keepOriginal bool) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	zpath := path + ".zst"
	if err := os.WriteFile(zpath, enc.EncodeAll(b, nil), 0o644); err != nil {
		return "", err
	}
	if !keepOriginal {
		if err := os.Remove(path); err != nil {
			return "", err
		}
	}
	return zpath, nil
}

// hashContents returns the key of path's uncompressed contents, so that
// a resource hashes the same before and after it is compressed.
func hashContents(path string) (string, error) {
	r, err := util.OpenResourceOrFile(path)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return util.CacheKeyReader(r)
}

// pack compresses the eligible files under dir and returns the manifest,
// which maps slash-separated paths relative to dir to hashes of the
// uncompressed contents.
func pack(dir string, manifestName string, opts packOptions) (map[string]string, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, err
	}
	defer enc.Close()

	// Walk the resources directory and send the paths of all
	// non-temporary files to filesChan
	eg, ctx := errgroup.WithContext(context.Background())
	filesChan := make(chan string, 1)
	eg.Go(func() error {
		defer close(filesChan)

		return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || isTemporaryFile(path) || filepath.Base(path) == manifestName {
				return nil
			}
			select {
			case filesChan <- path:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})

	resultsChan := make(chan packResult)
	for range max(1, opts.Workers) {
		eg.Go(func() error {
			for path := range filesChan {
				rel, err := filepath.Rel(dir, path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				hash, err := hashContents(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				result := packResult{path: filepath.ToSlash(rel), hash: hash}
				if fi, err := os.Stat(path); err == nil && shouldCompress(path, fi.Size(), opts) {
					if _, err := os.Stat(path + ".zst"); err == nil {
						return fmt.Errorf("%s: compressed version already exists", path)
					}
					zpath, err := compressFile(enc, path, opts.KeepOriginal)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					result.path += ".zst"
					result.compressed = true
					fmt.Printf("Compressed %s -> %s\n", path, zpath)
				}
				resultsChan <- result
			}
			return nil
		})
	}

	errc := make(chan error, 1)
	go func() {
		errc <- eg.Wait()
		close(resultsChan)
	}()

	// Harvest results as they come in and build the manifest.
	manifest := make(map[string]string)
	for r := range resultsChan {
		manifest[r.path] = r.hash
		if r.compressed && opts.KeepOriginal {
			manifest[strings.TrimSuffix(r.path, ".zst")] = r.hash
		}
	}
	if err := <-errc; err != nil {
		return nil, err
	}
	return manifest, nil
}

func hashSummary(manifest map[string]string) string {
	var all []byte
	for _, p := range util.SortedMapKeys(manifest) {
		all = append(all, p+manifest[p]...)
	}
	return util.CacheKey(all)[:16]
}

func main() {
	flag.Parse()

	manifest, err := pack(*resourcesDir, *outFile, packOptions{
		MinSize:      *minSize,
		KeepOriginal: *keep,
		Workers:      8,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Generate and write the manifest.
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal manifest: %v\n", err)
		os.Exit(1)
	}
	fn := filepath.Join(*resourcesDir, *outFile)
	if err := os.WriteFile(fn, manifestData, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "%s: failed to write manifest: %v\n", fn, err)
		os.Exit(1)
	}

	fmt.Printf("Generated %q with %d entries (%s)\n", fn, len(manifest), hashSummary(manifest))
}
