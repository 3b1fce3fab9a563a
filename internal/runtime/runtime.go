package runtime

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/girbind/internal/ctype"
	"github.com/jward/girbind/internal/model"
	"github.com/jward/girbind/internal/store"
)

// Runtime embeds a Risor VM and exposes the resolved model, the marshaling
// selector and the index Store to emitter scripts.
type Runtime struct {
	store      *store.Store
	scriptsDir string
	fsys       fs.FS
	outputDir  string
	logger     *slog.Logger
	ctypes     *ctype.Parser
	repos      map[string]*model.Repository
	order      []*model.Repository
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithRepositories exposes resolved repositories to scripts. Repositories
// must not be handed over before the resolve phase has finished.
func WithRepositories(repos ...*model.Repository) RuntimeOption {
	return func(r *Runtime) {
		for _, repo := range repos {
			if _, dup := r.repos[repo.Name()]; dup {
				continue
			}
			r.repos[repo.Name()] = repo
			r.order = append(r.order, repo)
		}
	}
}

// WithOutputDir sets the directory emit() writes into once a script has
// succeeded. Without it emit fails.
func WithOutputDir(dir string) RuntimeOption {
	return func(r *Runtime) {
		r.outputDir = dir
	}
}

// WithRuntimeLogger routes the script log object to logger.
func WithRuntimeLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// NewRuntime creates a Runtime wired to the given Store and scripts directory.
// The Store may be nil when scripts only need the in-memory model.
func NewRuntime(s *store.Store, scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		store:      s,
		scriptsDir: scriptsDir,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctypes:     ctype.NewParser(),
		repos:      make(map[string]*model.Repository),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunScript loads and executes a Risor script with all standard globals
// plus any extra globals provided by the caller.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) error {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource executes Risor source code directly with all standard globals
// plus any extra globals. Useful for testing without script files.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) error {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) error {
	emits := newEmitBuffer(r.outputDir)
	globals := r.buildGlobals(extraGlobals, emits)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Wire importer so Risor import statements resolve correctly.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	r.logger.Debug("running script", "script", label)
	_, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		if len(emits.order) > 0 {
			r.logger.Warn("discarding emitted files", "script", label, "files", len(emits.order))
		}
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	written, err := emits.flush()
	if err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	r.logger.Debug("script finished", "script", label, "files", written)
	return nil
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on the embedded filesystem.
// Otherwise, uses os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// EmitterScriptPath returns the path to a named emitter script.
func EmitterScriptPath(name string) string {
	return filepath.Join("emit", name+".risor")
}

// buildGlobals constructs the full set of globals exposed to Risor scripts.
func (r *Runtime) buildGlobals(extra map[string]any, emits *emitBuffer) map[string]any {
	globals := map[string]any{
		"namespaces":  makeNamespacesFn(r),
		"symbols":     makeSymbolsFn(r),
		"members":     makeMembersFn(r),
		"callables":   makeCallablesFn(r),
		"describe":    makeDescribeFn(r),
		"parse_ctype": makeParseCTypeFn(r.ctypes),
		"emit":        emits.builtin(),
		"log":         mustProxy(&logObject{logger: r.logger}),
	}

	// Expose the Store if available (nil during some tests).
	if r.store != nil {
		globals["symbols_by_name"] = makeSymbolsByNameFn(r.store)
		globals["symbols_by_kind"] = makeSymbolsByKindFn(r.store)
		globals["namespace_symbols"] = makeNamespaceSymbolsFn(r.store)
		globals["symbol_by_id"] = makeSymbolByIDFn(r.store)
		globals["placeholders"] = makePlaceholdersFn(r.store)
		globals["dependencies"] = makeDependenciesFn(r.store)
		globals["db_query"] = makeDBQueryFn(r.store)
	}

	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

// namespace returns the resolved namespace registered under name.
func (r *Runtime) namespace(name string) (*model.Namespace, error) {
	repo, ok := r.repos[name]
	if !ok {
		return nil, fmt.Errorf("namespace %q is not loaded", name)
	}
	return repo.Namespace, nil
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
