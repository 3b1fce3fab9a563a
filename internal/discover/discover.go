// Package discover finds GIR documents on disk and computes the dependency
// closure of a set of root namespaces.
package discover

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/jward/girbind/internal/gir"
	"github.com/jward/girbind/internal/raw"
)

// Extension is the file extension of GIR documents.
const Extension = ".gir"

// ErrNotFound is returned when a namespace has no document in any search
// directory.
var ErrNotFound = errors.New("discover: document not found")

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	"build":        {},
	"dist":         {},
}

// Files discovers .gir documents under root, honoring .gitignore and
// .girignore patterns found in root. Paths are returned sorted and joined
// with root.
func Files(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("discover: %s is not a directory", root)
	}
	gi := loadIgnore(root)

	var results []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}
		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || filepath.Ext(name) != Extension {
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if gi != nil && gi.MatchesPath(filepath.ToSlash(rel)) {
			return nil
		}
		results = append(results, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover: walk %s: %w", root, err)
	}

	sort.Strings(results)
	return results, nil
}

// loadIgnore merges the patterns of root's .gitignore and .girignore.
// Returns nil when neither file exists.
func loadIgnore(root string) *ignore.GitIgnore {
	var lines []string
	for _, name := range []string{".gitignore", ".girignore"} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		lines = append(lines, strings.Split(string(data), "\n")...)
	}
	if len(lines) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(lines...)
}

// FileName returns the conventional document name of a namespace version,
// "Name-Version.gir".
func FileName(name, version string) string {
	return name + "-" + version + Extension
}

// Find returns the first document for the namespace version in dirs.
func Find(dirs []string, name, version string) (string, error) {
	file := FileName(name, version)
	for _, dir := range dirs {
		path := filepath.Join(dir, file)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrNotFound, file, strings.Join(dirs, string(os.PathListSeparator)))
}

// Closure returns the documents of roots and everything they include,
// transitively, searching dirs in order. Each root is "Name-Version".
// Dependencies come before their dependents; include cycles are allowed.
func Closure(dirs []string, roots []string) ([]string, error) {
	c := &closure{dirs: dirs, state: make(map[string]int)}
	for _, root := range roots {
		name, version, ok := strings.Cut(root, "-")
		if !ok || name == "" || version == "" {
			return nil, fmt.Errorf("discover: invalid namespace %q, want Name-Version", root)
		}
		if err := c.visit(name, version, ""); err != nil {
			return nil, err
		}
	}
	return c.order, nil
}

type closure struct {
	dirs  []string
	state map[string]int // 1 visiting, 2 done
	order []string
}

func (c *closure) visit(name, version, from string) error {
	key := name + "-" + version
	if c.state[key] != 0 {
		return nil
	}
	c.state[key] = 1

	path, err := Find(c.dirs, name, version)
	if err != nil {
		if from != "" {
			return fmt.Errorf("%w (included by %s)", err, from)
		}
		return err
	}
	doc, err := gir.LoadFile(path)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	for _, inc := range doc.Includes {
		incName, incVersion := raw.Deref(inc.Name), raw.Deref(inc.Version)
		if incName == "" {
			continue
		}
		if err := c.visit(incName, incVersion, key); err != nil {
			return err
		}
	}

	c.state[key] = 2
	c.order = append(c.order, path)
	return nil
}
