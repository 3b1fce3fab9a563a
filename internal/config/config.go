// Package config reads girbind project files.
//
// A project file names the libraries to bind and where their documents and
// outputs live:
//
//	gir_dirs:
//	  - /usr/share/gir-1.0
//	libraries:
//	  - name: Gtk-4.0
//	  - name: Adw-1
//	    gir: vendor/Adw-1.gir
//	scripts_dir: scripts
//	emitter: csharp
//	output_dir: generated
//	db: girbind.db
//	handle: safe-handle
//
// Relative paths are resolved against the directory of the project file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jward/girbind/internal/discover"
)

// Handle values accepted by the handle key.
const (
	HandleSafe = "safe-handle"
	HandleRaw  = "raw-pointer"
)

// DefaultEmitter is used when the project file names none.
const DefaultEmitter = "csharp"

// Library is one root of the dependency closure.
type Library struct {
	Name string `yaml:"name"`          // "Name-Version"
	GIR  string `yaml:"gir,omitempty"` // explicit document; includes are not followed
}

// Namespace returns the namespace and version parts of Name.
func (l Library) Namespace() (name, version string) {
	name, version, _ = strings.Cut(l.Name, "-")
	return name, version
}

// Config is a parsed project file.
type Config struct {
	GIRDirs    []string  `yaml:"gir_dirs"`
	Libraries  []Library `yaml:"libraries"`
	ScriptsDir string    `yaml:"scripts_dir"`
	Emitter    string    `yaml:"emitter"`
	OutputDir  string    `yaml:"output_dir"`
	DB         string    `yaml:"db"`
	Handle     string    `yaml:"handle"`

	// Dir is the directory relative paths were resolved against.
	Dir string `yaml:"-"`
}

// Load reads, validates and normalizes the project file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data), dir)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a project file from r. Unknown keys are rejected. Relative
// paths are resolved against dir.
func Parse(r io.Reader, dir string) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Dir = dir
	cfg.applyDefaults()
	cfg.resolvePaths()
	return &cfg, nil
}

// Validate checks the invariants of a project file.
func (c *Config) Validate() error {
	if len(c.Libraries) == 0 {
		return errors.New("no libraries")
	}
	seen := make(map[string]bool, len(c.Libraries))
	for i, lib := range c.Libraries {
		name, version := lib.Namespace()
		if name == "" || version == "" {
			return fmt.Errorf("libraries[%d]: invalid name %q, want Name-Version", i, lib.Name)
		}
		if seen[name] {
			return fmt.Errorf("libraries[%d]: namespace %s listed twice", i, name)
		}
		seen[name] = true
		if lib.GIR == "" && len(c.GIRDirs) == 0 {
			return fmt.Errorf("libraries[%d]: %s has no gir path and no gir_dirs are set", i, lib.Name)
		}
	}
	switch c.Handle {
	case "", HandleSafe, HandleRaw:
	default:
		return fmt.Errorf("invalid handle %q, want %s or %s", c.Handle, HandleSafe, HandleRaw)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Emitter == "" {
		c.Emitter = DefaultEmitter
	}
	if c.Handle == "" {
		c.Handle = HandleSafe
	}
}

func (c *Config) resolvePaths() {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(c.Dir, p)
	}
	for i := range c.GIRDirs {
		c.GIRDirs[i] = abs(c.GIRDirs[i])
	}
	for i := range c.Libraries {
		c.Libraries[i].GIR = abs(c.Libraries[i].GIR)
	}
	c.ScriptsDir = abs(c.ScriptsDir)
	c.OutputDir = abs(c.OutputDir)
	c.DB = abs(c.DB)
}

// Documents returns the document paths of the whole dependency closure in
// load order. Libraries without an explicit gir path are looked up in
// GIRDirs together with everything they include.
func (c *Config) Documents() ([]string, error) {
	var roots []string
	explicit := make(map[string]bool)
	for _, lib := range c.Libraries {
		if lib.GIR == "" {
			roots = append(roots, lib.Name)
		} else {
			explicit[lib.Name+discover.Extension] = true
		}
	}

	var paths []string
	if len(roots) > 0 {
		found, err := discover.Closure(c.GIRDirs, roots)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		// An explicit document replaces the search path copy.
		for _, p := range found {
			if !explicit[filepath.Base(p)] {
				paths = append(paths, p)
			}
		}
	}

	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		seen[p] = true
	}
	for _, lib := range c.Libraries {
		if lib.GIR != "" && !seen[lib.GIR] {
			seen[lib.GIR] = true
			paths = append(paths, lib.GIR)
		}
	}
	return paths, nil
}
