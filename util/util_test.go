// util/util_test.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/mmp/modelview/log"

	"github.com/klauspost/compress/zstd"
)

func TestClamp(t *testing.T) {
	for _, c := range []struct{ v, lo, hi, want float32 }{
		{-1, 0, 1, 0}, {0.5, 0, 1, 0.5}, {2, 0, 1, 1}, {1, 1, 1, 1},
	} {
		if got := Clamp(c.v, c.lo, c.hi); got != c.want {
			t.Errorf("Clamp(%f, %f, %f) = %f, expected %f", c.v, c.lo, c.hi, got, c.want)
		}
	}
}

func TestSortedMapKeys(t *testing.T) {
	m := map[string]int{"posz": 5, "negx": 1, "posx": 0}
	if keys := SortedMapKeys(m); !slices.Equal(keys, []string{"negx", "posx", "posz"}) {
		t.Errorf("got %v", keys)
	}
}

func TestSliceHelpers(t *testing.T) {
	s := []int{1, 2, 3, 4}
	if sq := MapSlice(s, func(i int) int { return i * i }); !slices.Equal(sq, []int{1, 4, 9, 16}) {
		t.Errorf("MapSlice gave %v", sq)
	}
	if even := FilterSlice(s, func(i int) bool { return i%2 == 0 }); !slices.Equal(even, []int{2, 4}) {
		t.Errorf("FilterSlice gave %v", even)
	}
}

func TestErrorLogger(t *testing.T) {
	e := NewErrorLogger("plane.obj")
	if e.Err() != nil {
		t.Errorf("expected nil error from empty logger")
	}

	e.SetLine(12)
	e.Errorf("bad index %d", 7)
	errOops := errors.New("oops")
	e.SetLine(0)
	e.Error(errOops)

	if !e.HaveErrors() || len(e.Errors()) != 2 {
		t.Fatalf("expected two errors, got %v", e.Errors())
	}
	err := e.Err()
	want := "plane.obj:12: bad index 7\nplane.obj: oops"
	if err.Error() != want {
		t.Errorf("got %q, expected %q", err.Error(), want)
	}

	var fe *FileError
	if !errors.As(err, &fe) {
		t.Fatalf("expected a *FileError in %v", err)
	}
	if fe.File != "plane.obj" || fe.Line != 12 {
		t.Errorf("unexpected first error %+v", fe)
	}
	if !errors.Is(err, errOops) {
		t.Errorf("wrapped error not found")
	}

	var buf bytes.Buffer
	e.Log(log.NewWithHandler(slog.NewJSONHandler(&buf, nil)))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected one record per error, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["msg"] != "bad index 7" || rec["file"] != "plane.obj" || rec["line"] != float64(12) {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestErrorLoggerLimit(t *testing.T) {
	e := NewErrorLogger("garbage.obj")
	for i := range maxFileErrors + 5 {
		e.SetLine(i + 1)
		e.Errorf("unknown statement")
	}
	if len(e.Errors()) != maxFileErrors {
		t.Errorf("kept %d errors", len(e.Errors()))
	}
	if msg := e.Err().Error(); !strings.HasSuffix(msg, "garbage.obj: 5 more errors") {
		t.Errorf("dropped errors not summarized: ...%s", msg[max(0, len(msg)-60):])
	}
}

func newTestCache(t *testing.T, version int) *ObjectCache {
	t.Helper()
	saved := CacheDir
	CacheDir = t.TempDir()
	t.Cleanup(func() { CacheDir = saved })

	c, err := NewObjectCache("meshes", version)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

type cachedMesh struct {
	Name  string
	Verts []float32
}

func TestObjectCache(t *testing.T) {
	c := newTestCache(t, 1)
	if c.Dir() != filepath.Join(CacheDir, "meshes") {
		t.Errorf("unexpected cache dir %s", c.Dir())
	}

	var out cachedMesh
	if hit, err := c.Lookup("a", &out); hit || err != nil {
		t.Errorf("empty cache: hit %v, err %v", hit, err)
	}

	in := cachedMesh{Name: "prop", Verts: []float32{1, 2, 3.5}}
	if err := c.Store("a", in); err != nil {
		t.Fatal(err)
	}
	if hit, err := c.Lookup("a", &out); !hit || err != nil {
		t.Fatalf("hit %v, err %v", hit, err)
	}
	if out.Name != in.Name || !slices.Equal(out.Verts, in.Verts) {
		t.Errorf("got %+v, expected %+v", out, in)
	}

	// No temporary files are left behind.
	entries, err := os.ReadDir(c.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "a"+cacheEntrySuffix {
		t.Errorf("unexpected cache contents %v", entries)
	}

	// A corrupt entry is dropped.
	if err := os.WriteFile(c.entryPath("a"), []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}
	if hit, _ := c.Lookup("a", &out); hit {
		t.Errorf("corrupt entry returned")
	}
	if _, err := os.Stat(c.entryPath("a")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("corrupt entry not removed")
	}
}

func TestObjectCacheVersion(t *testing.T) {
	c := newTestCache(t, 1)
	if err := c.Store("a", cachedMesh{Name: "old"}); err != nil {
		t.Fatal(err)
	}

	c2, err := NewObjectCache("meshes", 2)
	if err != nil {
		t.Fatal(err)
	}
	var out cachedMesh
	if hit, err := c2.Lookup("a", &out); hit || err != nil {
		t.Errorf("entry from another version: hit %v, err %v", hit, err)
	}
	if hit, _ := c.Lookup("a", &out); hit {
		t.Errorf("stale entry should have been removed")
	}
}

func TestObjectCacheCull(t *testing.T) {
	c := newTestCache(t, 1)
	base := time.Now().Add(-time.Hour)
	var total int64
	sizes := make(map[string]int64)
	for i, key := range []string{"a", "b", "c"} {
		if err := c.Store(key, cachedMesh{Name: key, Verts: make([]float32, 64)}); err != nil {
			t.Fatal(err)
		}
		tm := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(c.entryPath(key), tm, tm); err != nil {
			t.Fatal(err)
		}
		fi, err := os.Stat(c.entryPath(key))
		if err != nil {
			t.Fatal(err)
		}
		sizes[key] = fi.Size()
		total += fi.Size()
	}
	if err := os.WriteFile(filepath.Join(c.Dir(), "d.123.tmp"), []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Using "a" makes "b" the least recently used.
	var out cachedMesh
	if hit, err := c.Lookup("a", &out); !hit || err != nil {
		t.Fatalf("hit %v, err %v", hit, err)
	}

	n, err := c.Cull(total - sizes["b"])
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("removed %d files, expected the temporary file and one entry", n)
	}
	for key, want := range map[string]bool{"a": true, "b": false, "c": true} {
		if _, err := os.Stat(c.entryPath(key)); (err == nil) != want {
			t.Errorf("%s: present %v, expected %v", key, err == nil, want)
		}
	}

	if n, err := c.Cull(0); err != nil || n != 2 {
		t.Errorf("Cull(0) removed %d, err %v", n, err)
	}
}

func TestCacheKeyReader(t *testing.T) {
	k, err := CacheKeyReader(strings.NewReader("ab"))
	if err != nil {
		t.Fatal(err)
	}
	if k != CacheKey([]byte("a"), []byte("b")) {
		t.Errorf("CacheKeyReader and CacheKey disagree")
	}
}

func TestCacheKey(t *testing.T) {
	a, b := CacheKey([]byte("a"), []byte("b")), CacheKey([]byte("ab"))
	if a != b {
		t.Errorf("keys should only depend on the concatenated contents")
	}
	if len(a) != 32 {
		t.Errorf("unexpected key length %d", len(a))
	}
	if CacheKey([]byte("x")) == a {
		t.Errorf("different contents should give different keys")
	}
}

func TestResources(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "shaders"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "shaders", "a.vert"), []byte("plain"), 0o644); err != nil {
		t.Fatal(err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	compressed := enc.EncodeAll([]byte("squeezed"), nil)
	if err := os.WriteFile(filepath.Join(dir, "b.txt.zst"), compressed, 0o644); err != nil {
		t.Fatal(err)
	}

	SetResourcesDir(dir)

	if b, err := LoadResourceOrFileBytes("shaders/a.vert"); err != nil || string(b) != "plain" {
		t.Errorf("got %q, %v", b, err)
	}
	if b, err := LoadResourceOrFileBytes("b.txt.zst"); err != nil || string(b) != "squeezed" {
		t.Errorf("zstd resource: got %q, %v", b, err)
	}
	if !ResourceExists("shaders/a.vert") || ResourceExists("shaders/missing.vert") {
		t.Errorf("ResourceExists gave unexpected results")
	}
	if _, err := LoadResourceOrFileBytes("missing"); err == nil {
		t.Errorf("expected error for missing resource")
	}

	// Files outside the resources directory are found by path.
	fn := filepath.Join(t.TempDir(), "user.obj")
	if err := os.WriteFile(fn, []byte("v 0 0 0"), 0o644); err != nil {
		t.Fatal(err)
	}
	if b, err := LoadResourceOrFileBytes(fn); err != nil || string(b) != "v 0 0 0" {
		t.Errorf("got %q, %v", b, err)
	}
	if !ResourceOrFileExists(fn) {
		t.Errorf("expected file to exist")
	}

	if p, err := ResourcePath("shaders"); err != nil || p != filepath.Join(dir, "shaders") {
		t.Errorf("ResourcePath gave %q, %v", p, err)
	}
}
