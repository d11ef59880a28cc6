// scene/shaders_test.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testVert = "#version 410 core\nin vec3 inPosition;\nuniform mat4 mat;\nvoid main() {\n\tgl_Position = mat * vec4(inPosition, 1.0);\n}\n"
	testFrag = "#version 410 core\nout vec4 fragColor;\nvoid main() {\n\tfragColor = vec4(1.0);\n}\n"
)

func writeShader(t *testing.T, dir, name, vs, fs string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".vert"), []byte(vs), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".frag"), []byte(fs), 0o644))
}

func TestShaderLibraryLoad(t *testing.T) {
	ctx, dev := newTestContext(t)
	dir := t.TempDir()
	writeShader(t, dir, "flat", testVert, testFrag)

	lib := NewShaderLibrary(ctx, dir, nil)
	sh, err := lib.Load("flat")
	require.NoError(t, err)
	assert.Equal(t, "flat", sh.Name)
	assert.True(t, dev.IsProgram(sh.Program))
	assert.GreaterOrEqual(t, dev.UniformLocation(sh.Program, "mat"), int32(0))

	again, err := lib.Load("flat")
	require.NoError(t, err)
	assert.Same(t, sh, again)
	assert.Same(t, sh, lib.Get("flat"))
	assert.Nil(t, lib.Get("missing"))
	assert.Equal(t, []string{"flat"}, lib.Names())

	_, err = lib.Load("missing")
	assert.Error(t, err)

	writeShader(t, dir, "broken", "#version 410 core\n", testFrag)
	_, err = lib.Load("broken")
	assert.ErrorContains(t, err, "broken: vertex shader")

	lib.Destroy()
	assert.Zero(t, dev.ProgramCount())
	assert.Zero(t, ctx.Stats().Programs)
}

func TestShaderLibraryReload(t *testing.T) {
	ctx, dev := newTestContext(t)
	dir := t.TempDir()
	writeShader(t, dir, "flat", testVert, testFrag)

	lib := NewShaderLibrary(ctx, dir, nil)
	defer lib.Destroy()
	sh, err := lib.Load("flat")
	require.NoError(t, err)
	old := sh.Program

	// Edits are noticed by Poll; the new program replaces the old one.
	writeShader(t, dir, "flat", testVert+"uniform float height;\n", testFrag)
	lib.sourceChanged(filepath.Join(dir, "flat.vert"))
	lib.sourceChanged(filepath.Join(dir, "flat.frag"))
	lib.sourceChanged(filepath.Join(dir, "notes.txt"))
	lib.sourceChanged(filepath.Join(dir, "other.frag"))
	reloaded, err := lib.Poll()
	require.NoError(t, err)
	assert.Equal(t, []string{"flat"}, reloaded)
	assert.NotEqual(t, old, sh.Program)
	assert.False(t, dev.IsProgram(old))
	assert.Equal(t, 1, sh.Generation)
	assert.GreaterOrEqual(t, dev.UniformLocation(sh.Program, "height"), int32(0))
	assert.Equal(t, 1, dev.ProgramCount())

	// Nothing pending.
	reloaded, err = lib.Poll()
	require.NoError(t, err)
	assert.Empty(t, reloaded)

	// A shader that no longer compiles leaves the last good one in place.
	good := sh.Program
	writeShader(t, dir, "flat", "oops", testFrag)
	lib.sourceChanged(filepath.Join(dir, "flat.vert"))
	reloaded, err = lib.Poll()
	assert.Error(t, err)
	assert.Empty(t, reloaded)
	assert.Equal(t, good, sh.Program)
	assert.True(t, dev.IsProgram(good))

	assert.Error(t, lib.Reload("unknown"))
}

func TestShaderLibraryWatch(t *testing.T) {
	ctx, _ := newTestContext(t)
	dir := t.TempDir()
	writeShader(t, dir, "flat", testVert, testFrag)

	lib := NewShaderLibrary(ctx, dir, nil)
	defer lib.Destroy()
	sh, err := lib.Load("flat")
	require.NoError(t, err)
	require.NoError(t, lib.Watch())
	// Watching twice is harmless.
	require.NoError(t, lib.Watch())

	writeShader(t, dir, "flat", testVert+"// edited\n", testFrag)
	assert.Eventually(t, func() bool {
		_, err := lib.Poll()
		return err == nil && sh.Generation > 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestResourceShaders(t *testing.T) {
	ctx, dev := newTestContext(t)
	lib := NewShaderLibrary(ctx, filepath.Join("..", "resources", "shaders"), nil)
	defer lib.Destroy()

	for name, uniforms := range map[string][]string{
		"piper": {"mat", "mv", "lightPosition", "modelTexture"},
		"plain": {"mat", "height"},
		"sky":   {"mat", "skybox"},
	} {
		sh, err := lib.Load(name)
		require.NoError(t, err, name)
		assert.GreaterOrEqual(t, dev.AttribLocation(sh.Program, "inPosition"), int32(0), name)
		for _, u := range uniforms {
			assert.GreaterOrEqual(t, dev.UniformLocation(sh.Program, u), int32(0), "%s: %s", name, u)
		}
	}
}
