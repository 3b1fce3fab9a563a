package girbind

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/girbind/internal/marshal"
	"github.com/jward/girbind/internal/raw"
	"github.com/jward/girbind/internal/runtime"
)

// findModuleRoot walks up from cwd to find go.mod, returning the repo root.
func findModuleRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find module root")
		}
		dir = parent
	}
}

// indexFiles loads, resolves and indexes paths into the database at dbPath.
func indexFiles(t *testing.T, dbPath string, paths []string, opts ...Option) (*Engine, IndexStats) {
	t.Helper()
	e := newTestEngine(t, append([]Option{WithStore(dbPath)}, opts...)...)
	ctx := context.Background()
	require.NoError(t, e.LoadFiles(ctx, paths))
	require.NoError(t, e.Resolve(ctx))
	stats, err := e.Index(ctx)
	require.NoError(t, err)
	return e, stats
}

func newIndexedQuery(t *testing.T) *QueryBuilder {
	t.Helper()
	alpha, beta := fixturePaths(t)
	e, _ := indexFiles(t, filepath.Join(t.TempDir(), "girbind.db"), []string{alpha, beta})
	q, err := e.Query()
	require.NoError(t, err)
	return q
}

// TestIntegration_Index tests the complete pipeline:
// GIR files → LoadFiles → Resolve → Index → QueryBuilder
func TestIntegration_Index(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name     string
		parallel bool
	}{
		{"serial", false},
		{"parallel", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			alpha, beta := fixturePaths(t)
			e, stats := indexFiles(t, filepath.Join(t.TempDir(), "girbind.db"), []string{alpha, beta}, WithParallel(tc.parallel))

			assert.Equal(t, 2, stats.Namespaces)
			assert.Equal(t, 0, stats.Skipped)
			assert.Equal(t, 5, stats.Symbols)
			assert.Positive(t, stats.References)
			assert.Positive(t, stats.Linked)
			// beta_button_click takes a record by value in both directions.
			assert.Equal(t, 2, stats.Placeholders)
			assert.Equal(t, 0, stats.Unsupported)

			closure, err := e.Store().GetMetadata("closure")
			require.NoError(t, err)
			assert.Equal(t, "Alpha-1.0,Beta-1.0", closure)
		})
	}
}

func TestIntegration_IndexRequiresStore(t *testing.T) {
	t.Parallel()
	e := newResolvedEngine(t)
	_, err := e.Index(context.Background())
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestIntegration_IndexRequiresResolve(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, WithStore(filepath.Join(t.TempDir(), "girbind.db")))
	_, err := e.Index(context.Background())
	assert.ErrorIs(t, err, ErrNotResolved)
}

func TestIntegration_IndexStrict(t *testing.T) {
	t.Parallel()
	gamma := filepath.Join("testdata", "marshal-basics", "src", "Gamma-1.0.gir")
	dbPath := filepath.Join(t.TempDir(), "girbind.db")
	ctx := context.Background()

	e := newTestEngine(t, WithStore(dbPath), WithStrict(true))
	require.NoError(t, e.LoadFiles(ctx, []string{gamma}))
	require.NoError(t, e.Resolve(ctx))

	stats, err := e.Index(ctx)
	require.ErrorIs(t, err, marshal.ErrUnsupported)
	assert.Contains(t, err.Error(), "gamma_widget_take_all")
	assert.Equal(t, 1, stats.Namespaces)
	assert.Equal(t, 2, stats.Unsupported)

	q, err := e.Query()
	require.NoError(t, err)
	gaps, err := q.Placeholders(true)
	require.NoError(t, err)
	assert.Len(t, gaps, 2)

	// Without strict mode the same index succeeds.
	e2 := newTestEngine(t, WithStore(filepath.Join(t.TempDir(), "girbind.db")))
	require.NoError(t, e2.LoadFiles(ctx, []string{gamma}))
	require.NoError(t, e2.Resolve(ctx))
	_, err = e2.Index(ctx)
	require.NoError(t, err)
}

func TestIntegration_ReindexSkipsUnchanged(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "girbind.db")
	alpha, beta := fixturePaths(t)

	_, first := indexFiles(t, dbPath, []string{alpha, beta})
	require.Equal(t, 2, first.Namespaces)

	_, second := indexFiles(t, dbPath, []string{alpha, beta})
	assert.Equal(t, 0, second.Namespaces)
	assert.Equal(t, 2, second.Skipped)
}

func TestIntegration_ReindexExpandsToDependents(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "girbind.db")
	alpha, beta := fixturePaths(t)
	indexFiles(t, dbPath, []string{alpha, beta})

	// Add a member to Beta.Mode. Alpha references Beta, so it is rewritten too.
	changed := strings.Replace(betaGIR,
		`<member name="on" value="1" c:identifier="BETA_MODE_ON"/>`,
		`<member name="on" value="1" c:identifier="BETA_MODE_ON"/>
      <member name="auto" value="2" c:identifier="BETA_MODE_AUTO"/>`, 1)
	require.NoError(t, os.WriteFile(beta, []byte(changed), 0644))

	e, stats := indexFiles(t, dbPath, []string{alpha, beta})
	assert.Equal(t, 2, stats.Namespaces)
	assert.Equal(t, 0, stats.Skipped)

	q, err := e.Query()
	require.NoError(t, err)
	detail, err := q.SymbolDetail("Beta", "Mode")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Len(t, detail.Members, 3)

	// References from Alpha were relinked to the new Beta rows.
	refs, err := q.ReferencesTo("Beta", "Mode")
	require.NoError(t, err)
	assert.Len(t, refs, 2)

	syms, err := q.Symbols(SymbolFilter{}, Sort{}, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 5, syms.TotalCount)
}

func TestIntegration_LoadedDocumentsAlwaysReindexed(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "girbind.db")
	for range 2 {
		e := newTestEngine(t, WithStore(dbPath))
		ctx := context.Background()
		docs := []*raw.Document{
			parseDoc(t, alphaGIR, "Alpha-1.0.gir"),
			parseDoc(t, betaGIR, "Beta-1.0.gir"),
		}
		require.NoError(t, e.LoadDocuments(ctx, docs))
		require.NoError(t, e.Resolve(ctx))
		stats, err := e.Index(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Namespaces)
	}
}

func TestIntegration_RunScript(t *testing.T) {
	t.Parallel()
	outDir := t.TempDir()
	e := newResolvedEngine(t,
		WithScriptsDir(filepath.Join(findModuleRoot(t), "scripts")),
		WithOutputDir(outDir),
	)

	require.NoError(t, e.RunScript(context.Background(), runtime.EmitterScriptPath("csharp"), nil))

	alpha, err := os.ReadFile(filepath.Join(outDir, "Alpha", "Internal", "Functions.Generated.cs"))
	require.NoError(t, err)
	assert.Contains(t, string(alpha), "namespace Alpha.Internal;")
	assert.Contains(t, string(alpha), `EntryPoint = "alpha_widget_new"`)
	assert.Contains(t, string(alpha), `"libalpha.so"`)

	beta, err := os.ReadFile(filepath.Join(outDir, "Beta", "Internal", "Functions.Generated.cs"))
	require.NoError(t, err)
	assert.Contains(t, string(beta), `EntryPoint = "beta_button_click"`)
	assert.Contains(t, string(beta), "record-by-value -> record-by-value (FIXME)")
}

func TestIntegration_RunScriptFS(t *testing.T) {
	t.Parallel()
	outDir := t.TempDir()
	e := newResolvedEngine(t,
		WithScriptsFS(os.DirFS(filepath.Join(findModuleRoot(t), "scripts"))),
		WithOutputDir(outDir),
	)

	require.NoError(t, e.RunScript(context.Background(), "emit/csharp.risor", nil))
	_, err := os.Stat(filepath.Join(outDir, "Beta", "Internal", "Functions.Generated.cs"))
	require.NoError(t, err)
}

const plainGIR = `<?xml version="1.0"?>
<repository version="1.2" xmlns="http://www.gtk.org/introspection/core/1.0" xmlns:c="http://www.gtk.org/introspection/c/1.0">
  <namespace name="Aa" version="1.0" shared-library="libaa.so" c:identifier-prefixes="Aa" c:symbol-prefixes="aa">
    <function name="init" c:identifier="aa_init">
      <return-value transfer-ownership="none"><type name="none" c:type="void"/></return-value>
    </function>
  </namespace>
</repository>`

const objectArrayGIR = `<?xml version="1.0"?>
<repository version="1.2" xmlns="http://www.gtk.org/introspection/core/1.0" xmlns:c="http://www.gtk.org/introspection/c/1.0" xmlns:glib="http://www.gtk.org/introspection/glib/1.0">
  <namespace name="Bb" version="1.0" shared-library="libbb.so" c:identifier-prefixes="Bb" c:symbol-prefixes="bb">
    <class name="Obj" c:type="BbObj" glib:type-name="BbObj" glib:get-type="bb_obj_get_type"/>
    <function name="list_all" c:identifier="bb_list_all">
      <return-value transfer-ownership="full">
        <array c:type="BbObj**"><type name="Obj" c:type="BbObj*"/></array>
      </return-value>
    </function>
  </namespace>
</repository>`

// A fatal marshaling gap in a later namespace leaves no generated files
// from the namespaces emitted before it.
func TestIntegration_RunScriptNoPartialOutput(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	aa := writeGIR(t, dir, "Aa-1.0.gir", plainGIR)
	bb := writeGIR(t, dir, "Bb-1.0.gir", objectArrayGIR)

	outDir := filepath.Join(t.TempDir(), "generated")
	e := newTestEngine(t,
		WithScriptsDir(filepath.Join(findModuleRoot(t), "scripts")),
		WithOutputDir(outDir),
		WithParallel(false),
	)
	ctx := context.Background()
	require.NoError(t, e.LoadFiles(ctx, []string{aa, bb}))
	require.NoError(t, e.Resolve(ctx))

	err := e.RunScript(ctx, runtime.EmitterScriptPath("csharp"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "result (Obj)")

	_, err = os.Stat(filepath.Join(outDir, "Aa", "Internal", "Functions.Generated.cs"))
	assert.True(t, os.IsNotExist(err), "expected no output, got %v", err)
}

func TestIntegration_RunScriptMissing(t *testing.T) {
	t.Parallel()
	e := newResolvedEngine(t, WithScriptsDir(t.TempDir()))
	require.Error(t, e.RunScript(context.Background(), "emit/missing.risor", nil))
}
