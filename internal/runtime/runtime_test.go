package runtime

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/girbind/internal/factory"
	"github.com/jward/girbind/internal/gir"
	"github.com/jward/girbind/internal/model"
	"github.com/jward/girbind/internal/store"
)

const demoGIR = `<?xml version="1.0"?>
<repository version="1.2"
    xmlns="http://www.gtk.org/introspection/core/1.0"
    xmlns:c="http://www.gtk.org/introspection/c/1.0"
    xmlns:glib="http://www.gtk.org/introspection/glib/1.0">
  <namespace name="Demo" version="1.0" shared-library="libdemo.so" c:identifier-prefixes="Demo" c:symbol-prefixes="demo">
    <record name="Rect" c:type="DemoRect">
      <field name="x"><type name="gint" c:type="gint"/></field>
    </record>
    <class name="Widget" c:type="DemoWidget" glib:type-name="DemoWidget" glib:get-type="demo_widget_get_type">
      <constructor name="new" c:identifier="demo_widget_new">
        <return-value transfer-ownership="full">
          <type name="Widget" c:type="DemoWidget*"/>
        </return-value>
      </constructor>
      <method name="get_name" c:identifier="demo_widget_get_name">
        <return-value transfer-ownership="none">
          <type name="utf8" c:type="const char*"/>
        </return-value>
        <parameters>
          <instance-parameter name="widget" transfer-ownership="none">
            <type name="Widget" c:type="DemoWidget*"/>
          </instance-parameter>
        </parameters>
      </method>
      <method name="set_bounds" c:identifier="demo_widget_set_bounds">
        <return-value transfer-ownership="none"><type name="gboolean" c:type="gboolean"/></return-value>
        <parameters>
          <instance-parameter name="widget" transfer-ownership="none">
            <type name="Widget" c:type="DemoWidget*"/>
          </instance-parameter>
          <parameter name="bounds" transfer-ownership="none">
            <type name="Rect" c:type="DemoRect"/>
          </parameter>
        </parameters>
      </method>
      <method name="set_children" c:identifier="demo_widget_set_children">
        <return-value transfer-ownership="none"><type name="gboolean" c:type="gboolean"/></return-value>
        <parameters>
          <instance-parameter name="widget" transfer-ownership="none">
            <type name="Widget" c:type="DemoWidget*"/>
          </instance-parameter>
          <parameter name="children" transfer-ownership="none">
            <array length="2" zero-terminated="0" c:type="DemoWidget**">
              <type name="Widget" c:type="DemoWidget*"/>
            </array>
          </parameter>
          <parameter name="n_children" transfer-ownership="none">
            <type name="gint" c:type="gint"/>
          </parameter>
        </parameters>
      </method>
    </class>
    <enumeration name="Color" c:type="DemoColor">
      <member name="red" value="0" c:identifier="DEMO_COLOR_RED"/>
      <member name="green" value="1" c:identifier="DEMO_COLOR_GREEN"/>
    </enumeration>
    <function name="version" c:identifier="demo_version">
      <return-value transfer-ownership="none"><type name="gint" c:type="gint"/></return-value>
    </function>
  </namespace>
</repository>`

// loadDemo builds and resolves the Demo namespace.
func loadDemo(t *testing.T) *model.Repository {
	t.Helper()
	doc, err := gir.Load(strings.NewReader(demoGIR), "Demo-1.0.gir")
	require.NoError(t, err)

	r := model.NewResolver()
	repo, err := factory.New(r).Repository(doc)
	require.NoError(t, err)
	require.NoError(t, r.ResolveAll(repo.Namespace))
	return repo
}

func newDemoRuntime(t *testing.T, opts ...RuntimeOption) *Runtime {
	t.Helper()
	opts = append([]RuntimeOption{WithRepositories(loadDemo(t))}, opts...)
	return NewRuntime(nil, "", opts...)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// =============================================================================
// Model host functions
// =============================================================================

func TestRunSource_Namespaces(t *testing.T) {
	t.Parallel()
	rt := newDemoRuntime(t)

	script := `
nss := namespaces()
assert(len(nss) == 1, 'expected 1 namespace, got {len(nss)}')
assert(nss[0]["name"] == "Demo")
assert(nss[0]["canonical_name"] == "Demo-1.0")
assert(nss[0]["shared_library"] == "libdemo.so")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestRunSource_Symbols(t *testing.T) {
	t.Parallel()
	rt := newDemoRuntime(t)

	script := `
kinds := {}
for _, s := range symbols("Demo") {
    kinds[s["name"]] = s["kind"]
}
assert(kinds["Widget"] == "class")
assert(kinds["Rect"] == "record")
assert(kinds["Color"] == "enumeration")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestRunSource_SymbolsUnknownNamespace(t *testing.T) {
	t.Parallel()
	rt := newDemoRuntime(t)

	err := rt.RunSource(context.Background(), `symbols("Gtk")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not loaded")
}

func TestRunSource_Members(t *testing.T) {
	t.Parallel()
	rt := newDemoRuntime(t)

	script := `
ms := members("Demo", "Color")
assert(len(ms) == 2)
assert(ms[0]["name"] == "red")
assert(ms[1]["value"] == 1)
assert(ms[1]["c_identifier"] == "DEMO_COLOR_GREEN")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))

	err := rt.RunSource(context.Background(), `members("Demo", "Widget")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an enumeration")
}

func TestRunSource_Callables(t *testing.T) {
	t.Parallel()
	rt := newDemoRuntime(t)

	script := `
cs := callables("Demo")
names := []
for _, c := range cs {
    names.append(c["native_name"])
}
assert(names[0] == "demo_widget_new", names[0])
assert(names[len(names) - 1] == "demo_version")

fns := callables("Demo", "")
assert(len(fns) == 1)
assert(fns[0]["owner"] == "")

ws := callables("Demo", "Widget")
get_name := ws[1]
assert(get_name["role"] == "method")
assert(len(get_name["parameters"]) == 1)
assert(get_name["parameters"][0]["is_instance"])
assert(get_name["return"]["type"] != nil)
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestRunSource_Describe(t *testing.T) {
	t.Parallel()
	rt := newDemoRuntime(t)

	script := `
d := describe("Demo", "demo_widget_get_name")
assert(d["placeholders"] == 0)
inst := d["parameters"][0]
assert(inst["to_native"]["strategy"] == "object-handle", inst["to_native"]["strategy"])
assert(d["return"]["to_managed"]["strategy"] == "string-copy")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestRunSource_DescribePlaceholder(t *testing.T) {
	t.Parallel()
	rt := newDemoRuntime(t)

	script := `
d := describe("Demo", "demo_widget_set_bounds")
assert(d["placeholders"] == 2)
bounds := d["parameters"][1]
assert(bounds["to_native"]["placeholder"])
assert(bounds["to_native"]["strategy"] == "record-by-value")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestRunSource_DescribeUnsupported(t *testing.T) {
	t.Parallel()
	rt := newDemoRuntime(t)

	err := rt.RunSource(context.Background(), `describe("Demo", "demo_widget_set_children")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "children")
}

func TestRunSource_DescribeUnknownCallable(t *testing.T) {
	t.Parallel()
	rt := newDemoRuntime(t)

	err := rt.RunSource(context.Background(), `describe("Demo", "demo_nothing")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no callable demo_nothing")
}

func TestRunSource_ParseCType(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")

	script := `
info := parse_ctype("const gchar*")
assert(info["base"] == "gchar")
assert(info["pointer_depth"] == 1)
assert(info["const"])
assert(info["is_pointer"])
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

// =============================================================================
// emit and log
// =============================================================================

func TestRunSource_Emit(t *testing.T) {
	t.Parallel()
	out := t.TempDir()
	rt := newDemoRuntime(t, WithOutputDir(out))

	script := `
for _, s := range symbols("Demo") {
    if s["kind"] == "class" {
        name := s["managed_name"]
        emit("Classes/" + name + ".cs", "public partial class " + name + " {}")
    }
}
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))

	data, err := os.ReadFile(filepath.Join(out, "Classes", "Widget.cs"))
	require.NoError(t, err)
	assert.Equal(t, "public partial class Widget {}", string(data))
}

func TestRunSource_EmitDiscardedOnFailure(t *testing.T) {
	t.Parallel()
	out := t.TempDir()
	rt := newDemoRuntime(t, WithOutputDir(out))

	script := `
emit("Demo/Functions.cs", "partial")
describe("Demo", "demo_widget_set_children")
`
	err := rt.RunSource(context.Background(), script, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "children")

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunSource_EmitLastWriteWins(t *testing.T) {
	t.Parallel()
	out := t.TempDir()
	rt := newDemoRuntime(t, WithOutputDir(out))

	script := `
emit("a.cs", "first")
emit("./a.cs", "second")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))

	data, err := os.ReadFile(filepath.Join(out, "a.cs"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestRunSource_EmitRejectsEscape(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "", WithOutputDir(t.TempDir()))

	err := rt.RunSource(context.Background(), `emit("../evil.cs", "x")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes the output directory")
}

func TestRunSource_EmitWithoutOutputDir(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")

	err := rt.RunSource(context.Background(), `emit("a.cs", "x")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no output directory")
}

func TestRunSource_LogUsesLogger(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rt := NewRuntime(nil, "", WithRuntimeLogger(logger))

	require.NoError(t, rt.RunSource(context.Background(), `log.Warn("careful")`, nil))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "msg=careful")
	assert.Contains(t, buf.String(), "source=script")
}

// =============================================================================
// Store host functions
// =============================================================================

func TestRunSource_StoreFunctions(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	gobj := &store.Namespace{Name: "GObject", Version: "2.0"}
	_, err := s.InsertNamespace(gobj)
	require.NoError(t, err)
	gtk := &store.Namespace{Name: "Gtk", Version: "4.0"}
	_, err = s.InsertNamespace(gtk)
	require.NoError(t, err)
	_, err = s.InsertSymbol(&store.Symbol{NamespaceID: gobj.ID, Name: "Object", ManagedName: "Object", Kind: "class", CType: "GObject"})
	require.NoError(t, err)
	_, err = s.InsertSymbol(&store.Symbol{NamespaceID: gtk.ID, Name: "Widget", ManagedName: "Widget", Kind: "class", CType: "GtkWidget"})
	require.NoError(t, err)
	_, err = s.InsertTypeReference(&store.TypeReference{
		NamespaceID: gtk.ID, Name: "GObject.Object", Binding: "external",
		TargetNamespace: "GObject", TargetName: "Object", TargetKind: "class",
	})
	require.NoError(t, err)
	_, err = s.LinkReferences()
	require.NoError(t, err)

	rt := NewRuntime(s, "")
	script := `
syms := symbols_by_name("Widget")
assert(len(syms) == 1)
assert(syms[0]["ctype"] == "GtkWidget")

classes := symbols_by_kind("class", {"namespace": "GObject"})
assert(len(classes) == 1)
assert(classes[0]["name"] == "Object")
assert(len(symbols_by_kind("class")) == 2)
assert(len(symbols_by_kind("class", {"namespace": "Adw"})) == 0)

gtk_syms := namespace_symbols("Gtk")
assert(len(gtk_syms) == 1)
assert(symbol_by_id(gtk_syms[0]["id"])["name"] == "Widget")
assert(symbol_by_id(9999) == nil)
assert(len(namespace_symbols("Adw")) == 0)

deps := dependencies()
assert(len(deps) == 1)
assert(deps[0]["from"] == "Gtk")
assert(deps[0]["to"] == "GObject")

assert(len(placeholders()) == 0)
assert(len(placeholders({"unsupported": true})) == 0)

rows := db_query("SELECT name FROM namespaces WHERE version = ?", "4.0")
assert(len(rows) == 1)
assert(rows[0]["name"] == "Gtk")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestRunSource_DBQueryRejectsWrites(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(newTestStore(t), "")

	err := rt.RunSource(context.Background(), `db_query("DELETE FROM namespaces")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only SELECT")
}

func TestRunSource_StoreFunctionsAbsentWithoutStore(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")

	err := rt.RunSource(context.Background(), `dependencies()`, nil)
	require.Error(t, err)
}

// =============================================================================
// Script loading
// =============================================================================

func TestRunScript_LoadsFile(t *testing.T) {
	dir := t.TempDir()

	scriptPath := filepath.Join(dir, "test.risor")
	if err := os.WriteFile(scriptPath, []byte(`result := 1 + 1`), 0644); err != nil {
		t.Fatalf("writing script: %v", err)
	}

	rt := NewRuntime(nil, dir)
	if err := rt.RunScript(context.Background(), "test.risor", nil); err != nil {
		t.Fatalf("RunScript: %v", err)
	}
}

func TestRunScript_MissingFile(t *testing.T) {
	rt := NewRuntime(nil, t.TempDir())

	err := rt.RunScript(context.Background(), "nonexistent.risor", nil)
	if err == nil {
		t.Fatal("expected error for missing script, got nil")
	}
}

func TestRunScript_ExtraGlobals(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")

	err := rt.RunSource(context.Background(), `assert(target == "csharp")`, map[string]any{"target": "csharp"})
	require.NoError(t, err)
}

func TestLoadScript(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.risor")
	content := `x := 42`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing: %v", err)
	}

	rt := NewRuntime(nil, dir)
	got, err := rt.LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	if got != content {
		t.Errorf("LoadScript = %q, want %q", got, content)
	}
}

func TestEmitterScriptPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("emit", "csharp.risor"), EmitterScriptPath("csharp"))
}

func TestLoadScript_FromFS(t *testing.T) {
	t.Parallel()

	content := `x := 42`
	mapFS := fstest.MapFS{
		"emit/csharp.risor": &fstest.MapFile{Data: []byte(content)},
	}

	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	got, err := rt.LoadScript("emit/csharp.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FromFS_NotFound(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(nil, "", WithRuntimeFS(fstest.MapFS{}))

	_, err := rt.LoadScript("nonexistent.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from fs")
}

func TestLoadScript_FromFS_StripsLeadingSeparator(t *testing.T) {
	t.Parallel()

	content := `y := 99`
	mapFS := fstest.MapFS{
		"emit/csharp.risor": &fstest.MapFile{Data: []byte(content)},
	}

	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	got, err := rt.LoadScript("/emit/csharp.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FallsBackToDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := `z := 7`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.risor"), []byte(content), 0644))

	rt := NewRuntime(nil, dir)

	got, err := rt.LoadScript("test.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestRunScript_FromFS(t *testing.T) {
	mapFS := fstest.MapFS{
		"test.risor": &fstest.MapFile{Data: []byte(`result := 1 + 1`)},
	}

	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))
	require.NoError(t, rt.RunScript(context.Background(), "test.risor", nil))
}

// =============================================================================
// Importer wiring
// =============================================================================

func TestImport_FSImporter(t *testing.T) {
	// FSImporter resolves "naming" by trying name + ".risor" at the FS root.
	mapFS := fstest.MapFS{
		"naming.risor": &fstest.MapFile{Data: []byte(`
func field(name) {
	return "_" + name
}
`)},
	}

	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	script := `
import naming

f := naming.field("handle")
assert(f == "_handle", 'expected "_handle", got ' + f)
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestImport_LocalImporter(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "math_utils.risor"), []byte(`
func double(x) {
	return x * 2
}
`), 0644))

	rt := NewRuntime(nil, dir)

	script := `
import math_utils

result := math_utils.double(21)
assert(result == 42, 'expected 42, got {result}')
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestImport_GlobalsAvailableInImportedModules(t *testing.T) {
	// Imported modules compile against the host globals.
	mapFS := fstest.MapFS{
		"helper.risor": &fstest.MapFile{Data: []byte(`
func class_names(ns) {
	out := []
	for _, s := range symbols(ns) {
		if s["kind"] == "class" {
			out.append(s["name"])
		}
	}
	return out
}
`)},
	}

	rt := newDemoRuntime(t, WithRuntimeFS(mapFS))

	script := `
import helper
names := helper.class_names("Demo")
assert(len(names) == 1)
assert(names[0] == "Widget")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestWithRepositories_SkipsDuplicates(t *testing.T) {
	t.Parallel()
	repo := loadDemo(t)

	rt := NewRuntime(nil, "", WithRepositories(repo, repo))
	assert.Len(t, rt.order, 1)
	assert.Nil(t, rt.fsys)
	assert.Empty(t, rt.scriptsDir)
}
