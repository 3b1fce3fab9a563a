package girbind

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jward/girbind/internal/ctype"
	"github.com/jward/girbind/internal/factory"
	"github.com/jward/girbind/internal/marshal"
	"github.com/jward/girbind/internal/model"
	"github.com/jward/girbind/internal/raw"
	"github.com/jward/girbind/internal/runtime"
	"github.com/jward/girbind/internal/store"
)

var (
	// ErrSealed is returned by loads attempted after Resolve succeeded.
	ErrSealed = errors.New("girbind: engine is sealed")
	// ErrNotResolved is returned by model consumers called before Resolve.
	ErrNotResolved = errors.New("girbind: model is not resolved")
	// ErrNoStore is returned by index and query operations on an engine
	// created without WithStore.
	ErrNoStore = errors.New("girbind: no index store configured")
)

// Engine drives one generation run: documents are loaded into namespaces,
// every type reference is resolved once the whole dependency closure is
// present, and the resolved model is handed to the index and to emitter
// scripts.
type Engine struct {
	logger   *slog.Logger
	resolver *model.Resolver
	factory  *factory.Factory

	mu       sync.Mutex
	repos    []*model.Repository // load order
	byName   map[string]*model.Repository
	hashes   map[string]string // namespace -> document content hash
	resolved bool

	store      *store.Store
	dbPath     string
	scriptsDir string
	scriptsFS  fs.FS
	outputDir  string

	// useParallel enables the worker pool for loading and indexing.
	useParallel bool
	// strict makes Index fail when the index records unsupported conversions.
	strict bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes engine and script logging to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithParallel controls parallel loading and indexing. When true (default),
// documents are built on a worker pool and index batches are committed to
// SQLite by a single writer. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithStore backs the engine with a SQLite index at dbPath.
func WithStore(dbPath string) Option {
	return func(e *Engine) {
		e.dbPath = dbPath
	}
}

// WithScriptsDir sets the directory emitter scripts are loaded from.
func WithScriptsDir(dir string) Option {
	return func(e *Engine) {
		e.scriptsDir = dir
	}
}

// WithScriptsFS configures the Engine to load Risor scripts from the given
// filesystem instead of from the scripts directory on disk. This enables
// embedding scripts via go:embed.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// WithOutputDir sets the directory emitter scripts write into.
func WithOutputDir(dir string) Option {
	return func(e *Engine) {
		e.outputDir = dir
	}
}

// WithStrict makes Index return an error wrapping marshal.ErrUnsupported
// when any indexed conversion has no strategy. The index is still
// committed so the gaps can be queried.
func WithStrict(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// New creates an Engine for one generation run.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		resolver:    model.NewResolver(),
		byName:      make(map[string]*model.Repository),
		hashes:      make(map[string]string),
		useParallel: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.factory = factory.New(e.resolver, factory.WithCTypeParser(ctype.NewParser()))

	if e.dbPath != "" {
		s, err := store.NewStore(e.dbPath)
		if err != nil {
			return nil, fmt.Errorf("girbind: create store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, fmt.Errorf("girbind: migrate: %w", err)
		}
		e.store = s
	}
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the underlying Store, or nil without WithStore.
func (e *Engine) Store() *Store {
	return e.store
}

// LoadDocuments builds a namespace from every document. It may be called
// several times before Resolve; namespace names must be unique across all
// calls.
func (e *Engine) LoadDocuments(ctx context.Context, docs []*raw.Document) error {
	items := make([]loadItem, len(docs))
	for i, doc := range docs {
		items[i] = loadItem{path: doc.Path, doc: doc}
	}
	return e.load(ctx, items)
}

// LoadFiles parses GIR files and loads them like LoadDocuments. The content
// hash of each file is kept so Index can skip unchanged namespaces.
func (e *Engine) LoadFiles(ctx context.Context, paths []string) error {
	items := make([]loadItem, len(paths))
	for i, path := range paths {
		items[i] = loadItem{path: path}
	}
	return e.load(ctx, items)
}

func (e *Engine) load(ctx context.Context, items []loadItem) error {
	if e.isResolved() {
		return ErrSealed
	}
	var (
		results []loadResult
		err     error
	)
	if e.useParallel {
		results, err = e.buildParallel(ctx, items)
	} else {
		results, err = e.buildSerial(ctx, items)
	}
	if err != nil {
		return err
	}
	for _, res := range results {
		if err := e.add(res); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) buildSerial(ctx context.Context, items []loadItem) ([]loadResult, error) {
	results := make([]loadResult, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := e.build(item)
		if res.err != nil {
			return nil, res.err
		}
		results = append(results, res)
	}
	return results, nil
}

// add registers a built repository and commits its references. Namespace
// names are unique per run; a rejected repository registers nothing.
func (e *Engine) add(res loadResult) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resolved {
		return ErrSealed
	}
	name := res.repo.Name()
	if prev, dup := e.byName[name]; dup {
		return fmt.Errorf("girbind: load %s: namespace already loaded from %s: %w",
			res.path, prev.Path, &model.MalformedError{Kind: "namespace", Node: name, Field: "name", Value: name})
	}
	res.batch.Commit()
	e.byName[name] = res.repo
	e.repos = append(e.repos, res.repo)
	e.hashes[name] = res.hash

	ns := res.repo.Namespace
	e.logger.Info("namespace loaded",
		"namespace", ns.CanonicalName(),
		"path", res.path,
		"types", len(ns.Types()),
		"functions", len(ns.Functions()),
	)
	return nil
}

// Resolve runs the resolution pass over every loaded namespace. On success
// the engine is sealed: further loads fail with ErrSealed. On failure the
// model stays unresolved and every unresolvable reference is reported.
func (e *Engine) Resolve(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resolved {
		return ErrSealed
	}

	namespaces := make([]*model.Namespace, len(e.repos))
	for i, repo := range e.repos {
		namespaces[i] = repo.Namespace
	}

	start := time.Now()
	e.logger.Info("resolve started", "namespaces", len(namespaces), "references", len(e.resolver.References()))
	if err := e.resolver.ResolveAll(namespaces...); err != nil {
		return fmt.Errorf("girbind: resolve: %w", err)
	}
	e.resolved = true

	external := 0
	for _, ref := range e.resolver.References() {
		if ref.IsExternal() {
			external++
		}
	}
	e.logger.Info("resolve finished",
		"references", len(e.resolver.References()),
		"external", external,
		"duration", time.Since(start),
	)
	return nil
}

func (e *Engine) isResolved() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolved
}

// Repositories returns the resolved repositories in load order.
func (e *Engine) Repositories() ([]*model.Repository, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.resolved {
		return nil, ErrNotResolved
	}
	out := make([]*model.Repository, len(e.repos))
	copy(out, e.repos)
	return out, nil
}

// Repository returns the resolved repository of one namespace.
func (e *Engine) Repository(name string) (*model.Repository, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.resolved {
		return nil, ErrNotResolved
	}
	repo, ok := e.byName[name]
	if !ok {
		return nil, fmt.Errorf("girbind: namespace %q is not loaded", name)
	}
	return repo, nil
}

// Describe returns every marshaling decision for the callable with the given
// native name in namespace.
func (e *Engine) Describe(namespace, nativeName string, h marshal.Handle) (*marshal.Description, error) {
	repo, err := e.Repository(namespace)
	if err != nil {
		return nil, err
	}
	_, c, ok := model.FindCallable(repo.Namespace, nativeName)
	if !ok {
		return nil, fmt.Errorf("girbind: no callable %s in %s", nativeName, namespace)
	}
	desc, err := marshal.Describe(c, repo.Namespace, h)
	if err != nil {
		return nil, fmt.Errorf("girbind: describe %s: %w", nativeName, err)
	}
	return desc, nil
}

// Marshal selects the conversion of one value of a callable in one
// direction. from names the source expression.
func (e *Engine) Marshal(namespace string, v model.Transferable, from string, dir marshal.Direction, h marshal.Handle) (marshal.Decision, error) {
	repo, err := e.Repository(namespace)
	if err != nil {
		return marshal.Decision{}, err
	}
	return marshal.Select(marshal.Request{
		Value:     v,
		From:      from,
		Namespace: repo.Namespace,
		Direction: dir,
		Handle:    h,
	})
}

// RunScript runs an emitter script over the resolved model. Scripts see
// the model host functions, and the index functions when a store is
// configured.
func (e *Engine) RunScript(ctx context.Context, scriptPath string, extras map[string]any) error {
	repos, err := e.Repositories()
	if err != nil {
		return err
	}
	opts := []runtime.RuntimeOption{
		runtime.WithRepositories(repos...),
		runtime.WithOutputDir(e.outputDir),
		runtime.WithRuntimeLogger(e.logger),
	}
	if e.scriptsFS != nil {
		opts = append(opts, runtime.WithRuntimeFS(e.scriptsFS))
	}
	rt := runtime.NewRuntime(e.store, e.scriptsDir, opts...)

	e.logger.Info("running script", "script", scriptPath)
	if err := rt.RunScript(ctx, scriptPath, extras); err != nil {
		return fmt.Errorf("girbind: %w", err)
	}
	return nil
}

// Index persists the resolved model. Namespaces whose document hash is
// unchanged since the last index are skipped unless a namespace they
// reference is re-indexed.
func (e *Engine) Index(ctx context.Context) (IndexStats, error) {
	var stats IndexStats
	if e.store == nil {
		return stats, ErrNoStore
	}
	repos, err := e.Repositories()
	if err != nil {
		return stats, err
	}

	// ---- Phase A: Serial preparation ----
	items, skipped, err := e.prepareIndex(repos)
	if err != nil {
		return stats, err
	}
	stats.Skipped = skipped
	if len(items) == 0 {
		return stats, nil
	}

	// ---- Phases B and C: batch building and serial commit ----
	var written IndexStats
	if e.useParallel {
		written, err = e.indexParallel(ctx, items)
	} else {
		written, err = e.indexSerial(ctx, items)
	}
	stats.add(written)
	if err != nil {
		return stats, err
	}

	linked, err := e.store.LinkReferences()
	if err != nil {
		return stats, fmt.Errorf("girbind: %w", err)
	}
	stats.Linked = linked

	names := make([]string, len(repos))
	for i, repo := range repos {
		names[i] = repo.CanonicalName()
	}
	if err := e.store.SetMetadata("closure", strings.Join(names, ",")); err != nil {
		return stats, fmt.Errorf("girbind: %w", err)
	}

	e.logger.Info("index finished",
		"namespaces", stats.Namespaces,
		"skipped", stats.Skipped,
		"symbols", stats.Symbols,
		"references", stats.References,
		"linked", stats.Linked,
		"placeholders", stats.Placeholders,
		"unsupported", stats.Unsupported,
	)
	if e.strict {
		if err := e.checkUnsupported(); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// checkUnsupported fails when the index holds any unsupported conversion,
// including those of namespaces skipped by this run.
func (e *Engine) checkUnsupported() error {
	gaps, err := e.store.Placeholders(true)
	if err != nil {
		return fmt.Errorf("girbind: %w", err)
	}
	if len(gaps) == 0 {
		return nil
	}
	first := gaps[0]
	return fmt.Errorf("girbind: %d unsupported conversion(s), first %s.%s %s %s: %w",
		len(gaps), first.Namespace, first.NativeName, first.Parameter, first.Direction, marshal.ErrUnsupported)
}

// indexItem is one namespace to (re)write.
type indexItem struct {
	repo       *model.Repository
	documentID *int64
	batch      *store.BatchedStore
}

// prepareIndex decides which namespaces need writing, deletes their stale
// rows and records their documents.
func (e *Engine) prepareIndex(repos []*model.Repository) ([]indexItem, int, error) {
	dirty := make(map[string]bool)
	var queue []string
	for _, repo := range repos {
		changed, err := e.changed(repo)
		if err != nil {
			return nil, 0, err
		}
		if changed {
			dirty[repo.Name()] = true
			queue = append(queue, repo.Name())
		}
	}

	// Namespaces referencing a changed namespace carry stale decisions.
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		dependents, err := e.store.DependentNamespaces(name)
		if err != nil {
			return nil, 0, fmt.Errorf("girbind: %w", err)
		}
		for _, dep := range dependents {
			if _, loaded := e.byName[dep]; loaded && !dirty[dep] {
				dirty[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	var (
		items   []indexItem
		skipped int
	)
	for _, repo := range repos {
		if !dirty[repo.Name()] {
			skipped++
			continue
		}
		existing, err := e.store.NamespaceByName(repo.Name())
		if err != nil {
			return nil, 0, fmt.Errorf("girbind: %w", err)
		}
		if existing != nil {
			if err := e.store.DeleteNamespaceData(existing.ID); err != nil {
				return nil, 0, fmt.Errorf("girbind: delete %s: %w", repo.Name(), err)
			}
		}

		item := indexItem{repo: repo}
		if repo.Path != "" {
			id, err := e.store.UpsertDocument(&store.Document{
				Path:        repo.Path,
				Namespace:   repo.Name(),
				Version:     repo.Version(),
				Hash:        e.hashes[repo.Name()],
				LastIndexed: time.Now(),
			})
			if err != nil {
				return nil, 0, fmt.Errorf("girbind: %w", err)
			}
			item.documentID = &id
		}
		items = append(items, item)
	}
	return items, skipped, nil
}

// changed reports whether repo differs from its indexed copy. Documents
// without a content hash always count as changed.
func (e *Engine) changed(repo *model.Repository) (bool, error) {
	hash := e.hashes[repo.Name()]
	if hash == "" || repo.Path == "" {
		return true, nil
	}
	existing, err := e.store.NamespaceByName(repo.Name())
	if err != nil {
		return false, fmt.Errorf("girbind: %w", err)
	}
	if existing == nil {
		return true, nil
	}
	doc, err := e.store.DocumentByPath(repo.Path)
	if err != nil {
		return false, fmt.Errorf("girbind: %w", err)
	}
	return doc == nil || doc.Hash != hash, nil
}

func (e *Engine) indexSerial(ctx context.Context, items []indexItem) (IndexStats, error) {
	var stats IndexStats
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		s, err := indexRepository(e.store, item.repo, item.documentID)
		stats.add(s)
		if err != nil {
			return stats, fmt.Errorf("girbind: index %s: %w", item.repo.Name(), err)
		}
	}
	return stats, nil
}

// Query returns a new QueryBuilder wrapping the Store.
func (e *Engine) Query() (*QueryBuilder, error) {
	if e.store == nil {
		return nil, ErrNoStore
	}
	return NewQueryBuilder(e.store), nil
}
