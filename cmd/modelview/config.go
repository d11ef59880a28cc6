// cmd/modelview/config.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mmp/modelview/log"
	"github.com/mmp/modelview/platform"
	"github.com/mmp/modelview/scene"

	"github.com/brunoga/deep"
)

// Bump when a change to Config would misinterpret older saved files.
const CurrentConfigVersion = 1

type Config struct {
	platform.Config

	Version int

	// Files that were last viewed; command-line flags take precedence.
	LastModel      string
	Texture        string
	Skybox         string
	SkyboxSuffixes string

	HalfRate bool
	Textured bool
	// Camera is nil until the first save; the viewer's default pose is
	// used then.
	Camera *scene.Camera

	// Snapshot of the config as loaded, used to skip writing it back
	// when nothing changed.
	pristine *Config
}

func configFilePath(lg *log.Logger) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		lg.Errorf("Unable to find user config dir: %v", err)
		dir = "."
	}

	dir = filepath.Join(dir, "ModelView")
	err = os.MkdirAll(dir, 0o700)
	if err != nil {
		lg.Errorf("%s: unable to make directory for config file: %v", dir, err)
	}

	return filepath.Join(dir, "config.json")
}

func getDefaultConfig() *Config {
	return &Config{
		Config: platform.Config{
			InitialWindowSize:     [2]int{1280, 720},
			InitialWindowPosition: [2]int{100, 100},
			EnableMSAA:            true,
		},
		Version:        CurrentConfigVersion,
		SkyboxSuffixes: "posneg",
		Textured:       true,
	}
}

func (c *Config) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(c)
}

// LoadOrMakeDefaultConfig returns the saved configuration, or the default
// one if there is none or reset is set. A non-nil error reports a saved
// file that couldn't be used; the returned config is still valid.
func LoadOrMakeDefaultConfig(reset bool, lg *log.Logger) (config *Config, configErr error) {
	fn := configFilePath(lg)
	config = getDefaultConfig()

	if reset {
		lg.Infof("Ignoring saved config %s", fn)
	} else if contents, err := os.ReadFile(fn); err == nil {
		lg.Infof("Loading config from: %s", fn)

		c := &Config{}
		if err := json.NewDecoder(bytes.NewReader(contents)).Decode(c); err != nil {
			configErr = fmt.Errorf("%s: %w", fn, err)
		} else if c.Version != CurrentConfigVersion {
			configErr = fmt.Errorf("%s: unsupported config version %d", fn, c.Version)
		} else {
			config = c
		}
	}

	if _, ok := validSuffixes(config.SkyboxSuffixes); !ok {
		config.SkyboxSuffixes = "posneg"
	}
	config.Version = CurrentConfigVersion
	config.snapshot()
	return
}

func (c *Config) snapshot() {
	c.pristine = nil
	c.pristine = deep.MustCopy(c)
}

// Update records the state of the viewer and the window for the next
// session.
func (c *Config) Update(v *scene.ModelViewer, p platform.Platform) {
	c.LastModel = v.ModelPath()
	c.HalfRate = v.HalfRate
	c.Textured = v.Textured
	cam := v.Camera
	c.Camera = &cam
	if !p.IsFullScreen() {
		c.InitialWindowSize = p.WindowSize()
		c.InitialWindowPosition = p.WindowPosition()
	}
	c.StartInFullScreen = p.IsFullScreen()
}

func (c *Config) Changed() bool {
	if c.pristine == nil {
		return true
	}
	var a, b bytes.Buffer
	if c.Encode(&a) != nil || c.pristine.Encode(&b) != nil {
		return true
	}
	return !bytes.Equal(a.Bytes(), b.Bytes())
}

func (c *Config) Save(lg *log.Logger) error {
	fn := configFilePath(lg)
	lg.Infof("Saving config to: %s", fn)

	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(fn, buf.Bytes(), 0o600); err != nil {
		return err
	}
	c.snapshot()
	return nil
}

func (c *Config) SaveIfChanged(lg *log.Logger) {
	if !c.Changed() {
		lg.Info("Config unchanged; not saving")
		return
	}
	if err := c.Save(lg); err != nil {
		lg.Errorf("Error saving configuration file: %v", err)
	}
}
