// cmd/packresources/main_test.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmp/modelview/util"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func TestPack(t *testing.T) {
	dir := t.TempDir()
	model := []byte(strings.Repeat("v 0 0 0\n", 1000))
	writeFile(t, filepath.Join(dir, "models", "big.obj"), model)
	writeFile(t, filepath.Join(dir, "models", "small.obj"), []byte("v 0 0 0\n"))
	writeFile(t, filepath.Join(dir, "shaders", "piper.vert"), bytes.Repeat([]byte("//\n"), 1000))
	writeFile(t, filepath.Join(dir, "shaders", ".piper.vert.swp"), []byte("junk"))
	writeFile(t, filepath.Join(dir, "manifest.json"), []byte("{}"))

	manifest, err := pack(dir, "manifest.json", packOptions{MinSize: 1024, Workers: 4})
	require.NoError(t, err)

	assert.Equal(t, []string{"models/big.obj.zst", "models/small.obj", "shaders/piper.vert"},
		util.SortedMapKeys(manifest))
	assert.Equal(t, util.CacheKey(model), manifest["models/big.obj.zst"])

	// The original is replaced by the compressed file.
	_, err = os.Stat(filepath.Join(dir, "models", "big.obj"))
	assert.True(t, os.IsNotExist(err))
	zb, err := os.ReadFile(filepath.Join(dir, "models", "big.obj.zst"))
	require.NoError(t, err)
	assert.Less(t, len(zb), len(model))
	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	b, err := dec.DecodeAll(zb, nil)
	require.NoError(t, err)
	assert.Equal(t, model, b)

	// Packing again hashes the uncompressed contents and doesn't
	// compress anything twice.
	again, err := pack(dir, "manifest.json", packOptions{MinSize: 1024, Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, manifest, again)
	assert.Equal(t, hashSummary(manifest), hashSummary(again))
}

func TestPackKeepOriginal(t *testing.T) {
	dir := t.TempDir()
	img := bytes.Repeat([]byte{1, 2, 3, 4}, 1024)
	writeFile(t, filepath.Join(dir, "sky.bmp"), img)

	manifest, err := pack(dir, "manifest.json", packOptions{MinSize: 16, KeepOriginal: true, Workers: 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"sky.bmp":     util.CacheKey(img),
		"sky.bmp.zst": util.CacheKey(img),
	}, manifest)

	// Now there's both; compressing again would clobber the .zst.
	_, err = pack(dir, "manifest.json", packOptions{MinSize: 16, KeepOriginal: true, Workers: 1})
	assert.ErrorContains(t, err, "already exists")
}

func TestShouldCompress(t *testing.T) {
	opts := packOptions{MinSize: 100}
	assert.True(t, shouldCompress("a/b.OBJ", 100, opts))
	assert.False(t, shouldCompress("a/b.obj", 99, opts))
	assert.False(t, shouldCompress("a/b.png", 1000, opts))
	assert.False(t, shouldCompress("a/b.frag", 1000, opts))
	assert.True(t, isTemporaryFile("x/#foo#"))
	assert.True(t, isTemporaryFile("x/foo~"))
	assert.False(t, isTemporaryFile("x/foo"))
}
