package girbind

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/girbind/internal/gir"
	"github.com/jward/girbind/internal/marshal"
	"github.com/jward/girbind/internal/model"
	"github.com/jward/girbind/internal/raw"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func newResolvedEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e := newTestEngine(t, opts...)
	alpha, beta := fixturePaths(t)
	require.NoError(t, e.LoadFiles(context.Background(), []string{alpha, beta}))
	require.NoError(t, e.Resolve(context.Background()))
	return e
}

func parseDoc(t *testing.T, content, path string) *raw.Document {
	t.Helper()
	doc, err := gir.Load(strings.NewReader(content), path)
	require.NoError(t, err)
	return doc
}

func TestNew_WithoutStore(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	assert.Nil(t, e.Store())
	_, err := e.Query()
	assert.ErrorIs(t, err, ErrNoStore)
	assert.NoError(t, e.Close())
}

func TestNew_WithStore(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, WithStore(filepath.Join(t.TempDir(), "girbind.db")))

	require.NotNil(t, e.Store())
	q, err := e.Query()
	require.NoError(t, err)
	nss, err := q.Namespaces()
	require.NoError(t, err)
	assert.Empty(t, nss)
}

func TestNew_InvalidStorePath(t *testing.T) {
	t.Parallel()
	_, err := New(WithStore("/nonexistent/dir/girbind.db"))
	require.Error(t, err)
}

func TestResolve_CrossNamespace(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name     string
		parallel bool
		reverse  bool
	}{
		{"serial", false, false},
		{"parallel", true, false},
		{"serial dependents first", false, true},
		{"parallel dependents first", true, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEngine(t, WithParallel(tc.parallel))
			alpha, beta := fixturePaths(t)
			paths := []string{alpha, beta}
			if tc.reverse {
				paths = []string{beta, alpha}
			}
			require.NoError(t, e.LoadFiles(context.Background(), paths))
			require.NoError(t, e.Resolve(context.Background()))

			repos, err := e.Repositories()
			require.NoError(t, err)
			require.Len(t, repos, 2)
			assert.Equal(t, filepath.Base(paths[0]), filepath.Base(repos[0].Path))

			b, err := e.Repository("Beta")
			require.NoError(t, err)
			button, ok := b.Namespace.Class("Button")
			require.True(t, ok)
			require.NotNil(t, button.Parent)
			assert.True(t, button.Parent.IsExternal())
			parent, err := button.Parent.Resolved()
			require.NoError(t, err)
			assert.Equal(t, "Alpha.Widget", model.QualifiedName(parent))

			a, err := e.Repository("Alpha")
			require.NoError(t, err)
			widget, ok := a.Namespace.Class("Widget")
			require.True(t, ok)
			assert.Same(t, widget, parent)
			ret := widget.Constructors[0].ReturnValue.TypeReference
			assert.Equal(t, model.Internal, ret.ReferenceKind())

			sym, ok := a.Namespace.Lookup("Notify")
			require.True(t, ok)
			cb := sym.(*model.Callback)
			mode := cb.Parameters.Parameters[0].TypeReference
			assert.Equal(t, model.External, mode.ReferenceKind())
			assert.Equal(t, "external", mode.ReferenceKind().String())
		})
	}
}

func TestLoadDocuments(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	docs := []*raw.Document{
		parseDoc(t, alphaGIR, "Alpha-1.0.gir"),
		parseDoc(t, betaGIR, "Beta-1.0.gir"),
	}
	require.NoError(t, e.LoadDocuments(context.Background(), docs))
	require.NoError(t, e.Resolve(context.Background()))

	repo, err := e.Repository("Alpha")
	require.NoError(t, err)
	assert.Equal(t, "Alpha-1.0", repo.CanonicalName())
	assert.Equal(t, "libalpha.so", repo.SharedLibrary())
}

func TestLoad_AcrossCalls(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	alpha, beta := fixturePaths(t)
	require.NoError(t, e.LoadFiles(context.Background(), []string{beta}))
	require.NoError(t, e.LoadFiles(context.Background(), []string{alpha}))
	require.NoError(t, e.Resolve(context.Background()))
}

func TestLoad_DuplicateNamespace(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	alpha, _ := fixturePaths(t)
	copyPath := writeGIR(t, t.TempDir(), "Alpha-copy.gir", alphaGIR)

	err := e.LoadFiles(context.Background(), []string{alpha, copyPath})
	require.Error(t, err)
	var malformed *model.MalformedError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "namespace", malformed.Kind)
	assert.Equal(t, "Alpha", malformed.Node)
}

func TestLoad_RejectedDocumentRegistersNothing(t *testing.T) {
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
			e := newTestEngine(t, WithParallel(tc.parallel))
			alpha, beta := fixturePaths(t)
			require.NoError(t, e.LoadFiles(context.Background(), []string{alpha, beta}))
			before := len(e.resolver.References())

			// A second Beta whose Point field names a type nobody defines.
			dup := writeGIR(t, t.TempDir(), "Beta-copy.gir",
				strings.Replace(betaGIR, `<field name="x"><type name="gint"`, `<field name="x"><type name="Nowhere"`, 1))
			err := e.LoadFiles(context.Background(), []string{dup})
			var malformed *model.MalformedError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, "Beta", malformed.Node)
			assert.Len(t, e.resolver.References(), before)

			require.NoError(t, e.Resolve(context.Background()))
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for _, tc := range []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.gir")},
		{"not xml", writeGIR(t, dir, "broken.gir", "<repository><namespace")},
		{"class without get-type", writeGIR(t, dir, "bad.gir", strings.Replace(betaGIR, ` glib:get-type="beta_button_get_type"`, "", 1))},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEngine(t)
			require.Error(t, e.LoadFiles(context.Background(), []string{tc.path}))
		})
	}
}

func TestResolve_MissingNamespace(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	_, beta := fixturePaths(t)
	require.NoError(t, e.LoadFiles(context.Background(), []string{beta}))

	err := e.Resolve(context.Background())
	require.Error(t, err)
	var unresolved *model.UnresolvedError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "Alpha", unresolved.MissingNamespace)

	// A failed resolve leaves the engine open.
	_, err = e.Repositories()
	assert.ErrorIs(t, err, ErrNotResolved)
}

func TestResolve_Seals(t *testing.T) {
	t.Parallel()
	e := newResolvedEngine(t)
	alpha, _ := fixturePaths(t)

	assert.ErrorIs(t, e.LoadFiles(context.Background(), []string{alpha}), ErrSealed)
	assert.ErrorIs(t, e.LoadDocuments(context.Background(), nil), ErrSealed)
	assert.ErrorIs(t, e.Resolve(context.Background()), ErrSealed)
}

func TestResolve_CanceledContext(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, e.Resolve(ctx), context.Canceled)
}

func TestNotResolved(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	alpha, beta := fixturePaths(t)
	require.NoError(t, e.LoadFiles(context.Background(), []string{alpha, beta}))

	_, err := e.Repositories()
	assert.ErrorIs(t, err, ErrNotResolved)
	_, err = e.Repository("Alpha")
	assert.ErrorIs(t, err, ErrNotResolved)
	_, err = e.Describe("Alpha", "alpha_widget_new", SafeHandle)
	assert.ErrorIs(t, err, ErrNotResolved)
	assert.ErrorIs(t, e.RunScript(context.Background(), "emit/csharp.risor", nil), ErrNotResolved)
}

func TestRepository_Unknown(t *testing.T) {
	t.Parallel()
	e := newResolvedEngine(t)
	_, err := e.Repository("Gamma")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Gamma")
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	e := newResolvedEngine(t)

	desc, err := e.Describe("Alpha", "alpha_widget_set_mode", SafeHandle)
	require.NoError(t, err)
	require.Len(t, desc.Parameters, 2)
	assert.Equal(t, "widget", desc.Parameters[0].Name)
	assert.Equal(t, marshal.Cast, desc.Parameters[1].ToNative.Strategy)
	assert.Empty(t, desc.Placeholders())

	desc, err = e.Describe("Alpha", "alpha_widget_get_label", SafeHandle)
	require.NoError(t, err)
	require.NotNil(t, desc.Return)
	assert.Equal(t, "result", desc.Return.Name)
	assert.True(t, desc.Return.ToManaged.OwnershipTransferred)

	desc, err = e.Describe("Beta", "beta_button_click", SafeHandle)
	require.NoError(t, err)
	assert.NotEmpty(t, desc.Placeholders())
}

func TestDescribe_UnknownCallable(t *testing.T) {
	t.Parallel()
	e := newResolvedEngine(t)
	_, err := e.Describe("Alpha", "alpha_widget_fly", SafeHandle)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no callable alpha_widget_fly in Alpha")
}

func TestMarshal(t *testing.T) {
	t.Parallel()
	e := newResolvedEngine(t)
	a, err := e.Repository("Alpha")
	require.NoError(t, err)
	widget, ok := a.Namespace.Class("Widget")
	require.True(t, ok)
	ctor := widget.Constructors[0]

	for _, tc := range []struct {
		name     string
		dir      Direction
		strategy marshal.Strategy
		owned    bool
	}{
		{"to native", ToNative, marshal.ObjectHandle, false},
		{"to managed", ToManaged, marshal.ObjectWrap, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d, err := e.Marshal("Alpha", ctor.ReturnValue, "result", tc.dir, SafeHandle)
			require.NoError(t, err)
			assert.Equal(t, tc.strategy, d.Strategy)
			assert.Equal(t, tc.owned, d.OwnershipTransferred)
			assert.False(t, d.RetainRequired())
		})
	}
}

func TestWithLogger(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	newResolvedEngine(t, WithLogger(logger))

	out := buf.String()
	assert.Contains(t, out, "namespace loaded")
	assert.Contains(t, out, "namespace=Alpha-1.0")
	assert.Contains(t, out, "resolve finished")
}
