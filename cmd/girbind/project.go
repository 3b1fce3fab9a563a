package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jward/girbind/internal/config"
	"github.com/jward/girbind/internal/discover"
)

// project is everything a command needs to know about where documents,
// scripts and outputs live. It comes from --config or from flags and
// positional paths.
type project struct {
	root       string
	documents  []string
	dbPath     string
	scriptsDir string
	emitter    string
	outputDir  string
	handle     string
}

// loadProject gathers the documents to load. A project file wins over
// --library, which wins over positional paths. With none of them the
// current directory is searched.
func loadProject(args []string) (*project, error) {
	if flagConfig != "" {
		return projectFromConfig(flagConfig)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	p := &project{
		root:      findRepoRoot(cwd),
		emitter:   config.DefaultEmitter,
		handle:    config.HandleSafe,
		outputDir: "generated",
	}

	if len(flagLibraries) > 0 {
		if len(flagGIRDirs) == 0 {
			return nil, fmt.Errorf("--library requires at least one --gir-dir")
		}
		docs, err := discover.Closure(flagGIRDirs, flagLibraries)
		if err != nil {
			return nil, err
		}
		p.documents = docs
	} else {
		docs, err := documentsFromPaths(args)
		if err != nil {
			return nil, err
		}
		p.documents = docs
	}
	if len(p.documents) == 0 {
		return nil, fmt.Errorf("no %s documents found", discover.Extension)
	}
	p.dbPath = resolveDBPath(p.root)
	return p, nil
}

func projectFromConfig(path string) (*project, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	docs, err := cfg.Documents()
	if err != nil {
		return nil, err
	}
	p := &project{
		root:       cfg.Dir,
		documents:  docs,
		scriptsDir: cfg.ScriptsDir,
		emitter:    cfg.Emitter,
		outputDir:  cfg.OutputDir,
		handle:     cfg.Handle,
	}
	if p.outputDir == "" {
		p.outputDir = filepath.Join(cfg.Dir, "generated")
	}
	switch {
	case flagDB != "":
		p.dbPath = resolveDBPath(p.root)
	case cfg.DB != "":
		p.dbPath = cfg.DB
	default:
		p.dbPath = resolveDBPath(p.root)
	}
	return p, nil
}

// documentsFromPaths expands positional arguments: files are taken as-is,
// directories are searched for documents. No arguments means ".".
func documentsFromPaths(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	var docs []string
	seen := make(map[string]bool)
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolving path %q: %w", arg, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("path not found: %s", abs)
		}
		found := []string{abs}
		if info.IsDir() {
			if found, err = discover.Files(abs); err != nil {
				return nil, err
			}
		}
		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				docs = append(docs, f)
			}
		}
	}
	return docs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding .git.
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the default.
func resolveDBPath(repoRoot string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return filepath.Join(repoRoot, ".girbind", "index.db")
}
