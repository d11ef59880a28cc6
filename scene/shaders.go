// scene/shaders.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mmp/modelview/log"
	"github.com/mmp/modelview/renderer"
	"github.com/mmp/modelview/util"

	"github.com/fsnotify/fsnotify"
)

// Shader is a compiled program along with the name it was loaded under.
// Program changes when the shader is reloaded, so it should be looked up
// each time the shader is used.
type Shader struct {
	Name    string
	Program renderer.ProgramID
	// Generation is incremented each time the shader is recompiled.
	Generation int
}

// ShaderLibrary loads programs from pairs of <name>.vert and <name>.frag
// files in a directory. If Watch has been called, edits to those files
// are picked up by Poll, which recompiles the affected programs.
type ShaderLibrary struct {
	ctx     *renderer.Context
	dir     string
	shaders map[string]*Shader
	lg      *log.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup

	// Names of shaders whose sources changed; written by the watcher
	// goroutine and consumed by Poll.
	mu      sync.Mutex
	pending map[string]bool
}

func NewShaderLibrary(ctx *renderer.Context, dir string, lg *log.Logger) *ShaderLibrary {
	return &ShaderLibrary{
		ctx:     ctx,
		dir:     dir,
		shaders: make(map[string]*Shader),
		pending: make(map[string]bool),
		lg:      lg,
	}
}

func (s *ShaderLibrary) readSources(name string) (string, string, error) {
	vs, err := os.ReadFile(filepath.Join(s.dir, name+".vert"))
	if err != nil {
		return "", "", err
	}
	fs, err := os.ReadFile(filepath.Join(s.dir, name+".frag"))
	if err != nil {
		return "", "", err
	}
	return string(vs), string(fs), nil
}

// Load compiles the named shader, or returns it if it has already been
// loaded.
func (s *ShaderLibrary) Load(name string) (*Shader, error) {
	if sh, ok := s.shaders[name]; ok {
		return sh, nil
	}

	vs, fs, err := s.readSources(name)
	if err != nil {
		return nil, err
	}
	p, err := s.ctx.CompileProgram(name, vs, fs)
	if err != nil {
		return nil, err
	}
	sh := &Shader{Name: name, Program: p}
	s.shaders[name] = sh
	return sh, nil
}

// Get returns a previously loaded shader or nil.
func (s *ShaderLibrary) Get(name string) *Shader {
	return s.shaders[name]
}

func (s *ShaderLibrary) Names() []string {
	return util.SortedMapKeys(s.shaders)
}

// Reload recompiles the named shader. If compilation fails, the error is
// returned and the previous program stays in use.
func (s *ShaderLibrary) Reload(name string) error {
	sh, ok := s.shaders[name]
	if !ok {
		return fmt.Errorf("%s: shader not loaded", name)
	}

	vs, fs, err := s.readSources(name)
	if err != nil {
		return err
	}
	p, err := s.ctx.CompileProgram(name, vs, fs)
	if err != nil {
		return err
	}
	s.ctx.ReleaseProgram(sh.Program)
	sh.Program = p
	sh.Generation++
	return nil
}

// Watch starts watching the shader directory for changes.
func (s *ShaderLibrary) Watch() error {
	if s.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return err
	}
	s.watcher = w
	s.done = make(chan struct{})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.done:
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					s.sourceChanged(event.Name)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.lg.Warnf("shader watcher: %v", err)
			}
		}
	}()
	s.lg.Infof("watching %s for shader changes", s.dir)
	return nil
}

func (s *ShaderLibrary) sourceChanged(path string) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext != ".vert" && ext != ".frag" {
		return
	}
	s.mu.Lock()
	s.pending[strings.TrimSuffix(base, ext)] = true
	s.mu.Unlock()
}

// Poll recompiles the loaded shaders whose sources have changed since the
// last call and returns their names. It must be called from the thread
// that owns the device.
func (s *ShaderLibrary) Poll() ([]string, error) {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[string]bool)
	s.mu.Unlock()

	var reloaded []string
	var errs []error
	for _, name := range util.SortedMapKeys(pending) {
		if _, ok := s.shaders[name]; !ok {
			continue
		}
		if err := s.Reload(name); err != nil {
			s.lg.Errorf("%s: reload failed: %v", name, err)
			errs = append(errs, err)
		} else {
			s.lg.Infof("%s: reloaded shader", name)
			reloaded = append(reloaded, name)
		}
	}
	return reloaded, errors.Join(errs...)
}

// Destroy stops watching and releases all of the programs.
func (s *ShaderLibrary) Destroy() {
	if s.watcher != nil {
		close(s.done)
		s.watcher.Close()
		s.wg.Wait()
		s.watcher = nil
	}
	for _, sh := range s.shaders {
		s.ctx.ReleaseProgram(sh.Program)
		sh.Program = 0
	}
	clear(s.shaders)
}
