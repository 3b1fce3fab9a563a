package factory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/girbind/internal/model"
	"github.com/jward/girbind/internal/raw"
)

var s = raw.String

func typ(name, ctype string) *raw.TypeRef {
	t := &raw.TypeRef{Name: s(name)}
	if ctype != "" {
		t.CType = s(ctype)
	}
	return t
}

func newTestFactory(t *testing.T) *Factory {
	t.Helper()
	return New(model.NewResolver())
}

func gtkDocument() *raw.Document {
	return &raw.Document{
		Path:               "Gtk-4.0.gir",
		Namespace:          s("Gtk"),
		Version:            s("4.0"),
		SharedLibrary:      s("libgtk-4.so.1, libgdk-4.so.1"),
		IdentifierPrefixes: s("Gtk"),
		SymbolPrefixes:     s("gtk"),
		Includes:           []raw.Include{{Name: s("GObject"), Version: s("2.0")}},
		Enumerations: []raw.Enumeration{{
			Name: s("Align"),
			Members: []raw.Member{
				{Name: s("FILL"), Value: s("0")},
				{Name: s("start"), Value: s("1"), CIdentifier: s("GTK_ALIGN_START")},
			},
		}},
		Bitfields: []raw.Enumeration{{
			Name:    s("StateFlags"),
			Members: []raw.Member{{Name: s("all"), Value: s("4294967295")}},
		}},
		Classes: []raw.Class{{
			Name:            s("Widget"),
			CType:           s("GtkWidget"),
			Parent:          s("GObject.InitiallyUnowned"),
			GetTypeFunction: s("gtk_widget_get_type"),
			Abstract:        true,
			Implements:      []string{"Accessible"},
			Methods: []raw.Callable{
				{
					Name:        s("get_name"),
					CIdentifier: s("gtk_widget_get_name"),
					Parameters: &raw.Parameters{
						Instance: &raw.Parameter{Name: s("widget"), Type: typ("Widget", "GtkWidget*")},
					},
					ReturnValue: &raw.ReturnValue{Type: typ("utf8", "const char*")},
				},
				{
					Name:        s("set_names"),
					CIdentifier: s("gtk_widget_set_names"),
					Parameters: &raw.Parameters{Parameters: []raw.Parameter{
						{
							Name: s("names"),
							Type: &raw.TypeRef{
								Name:  s("utf8"),
								CType: s("const char**"),
								Array: &raw.Array{CType: s("const char**"), Length: s("1")},
							},
						},
						{Name: s("n_names"), Type: typ("gint", "int"), Direction: s("in")},
						{Name: s("result"), Type: typ("GLib.Error", "GError**"), Direction: s("out"), TransferOwnership: s("everything")},
					}},
				},
			},
			Properties: []raw.Property{{Name: s("can-focus"), Type: typ("gboolean", "gboolean"), Writable: true}},
			Signals:    []raw.Signal{{Name: s("destroy"), When: s("cleanup")}},
			Fields: []raw.Field{
				{Name: s("parent_instance"), Type: typ("GObject.InitiallyUnowned", "GInitiallyUnowned")},
				{Name: s("activate"), Callback: &raw.Callback{Name: s("activate")}},
			},
		}, {
			Name:            s("Button"),
			Parent:          s("Widget"),
			GetTypeFunction: s("gtk_button_get_type"),
		}},
		Callbacks: []raw.Callback{{
			Name: s("TickCallback"),
			Parameters: &raw.Parameters{Parameters: []raw.Parameter{
				{Name: s("user_data"), Type: typ("gpointer", "gpointer"), Closure: s("0")},
			}},
			ReturnValue: &raw.ReturnValue{Type: typ("gboolean", "gboolean")},
		}},
		Aliases:   []raw.Alias{{Name: s("Allocation"), Type: typ("Gdk.Rectangle", "GdkRectangle")}},
		Constants: []raw.Constant{{Name: s("MAJOR_VERSION"), Value: s("4"), Type: typ("gint", "gint")}},
		Functions: []raw.Callable{{Name: s("init"), CIdentifier: s("gtk_init")}},
	}
}

func TestRepository(t *testing.T) {
	t.Parallel()
	f := newTestFactory(t)

	repo, err := f.Repository(gtkDocument())
	require.NoError(t, err)

	assert.Equal(t, "Gtk", repo.Name())
	assert.Equal(t, "Gtk-4.0", repo.CanonicalName())
	assert.Equal(t, "libgtk-4.so.1", repo.SharedLibrary())
	assert.Equal(t, "Gtk-4.0.gir", repo.Path)
	assert.Equal(t, []model.Include{{Name: "GObject", Version: "2.0"}}, repo.Includes)

	ns := repo.Namespace
	assert.Equal(t, "gtk", ns.SymbolPrefix)
	require.Len(t, ns.Classes(), 2)
	assert.Equal(t, "Widget", ns.Classes()[0].Name())
	assert.Equal(t, "Button", ns.Classes()[1].Name())
	assert.Len(t, ns.Enumerations(), 1)
	assert.Len(t, ns.Bitfields(), 1)
	assert.Len(t, ns.Callbacks(), 1)
	assert.Len(t, ns.Aliases(), 1)
	assert.Len(t, ns.Constants(), 1)
	assert.Len(t, ns.Functions(), 1)

	// Nothing is resolved during construction.
	assert.False(t, model.IsResolved(ns))
	assert.NotEmpty(t, f.Resolver().Pending())
}

func TestStage(t *testing.T) {
	t.Parallel()
	f := newTestFactory(t)

	repo, batch, err := f.Stage(gtkDocument())
	require.NoError(t, err)
	assert.Equal(t, "Gtk", repo.Name())
	assert.Positive(t, batch.Len())
	assert.Empty(t, f.Resolver().References(), "staged references stay out of the resolver")

	n := batch.Len()
	batch.Commit()
	assert.Len(t, f.Resolver().References(), n)

	// A document that fails to build leaves no batch.
	_, batch, err = f.Stage(&raw.Document{})
	require.Error(t, err)
	assert.Nil(t, batch)
	assert.Len(t, f.Resolver().References(), n)
}

func TestClass(t *testing.T) {
	t.Parallel()
	f := newTestFactory(t)
	repo, err := f.Repository(gtkDocument())
	require.NoError(t, err)

	widget, ok := repo.Namespace.Class("Widget")
	require.True(t, ok)
	assert.True(t, widget.Abstract)
	assert.Equal(t, "GtkWidget", widget.CType())
	require.NotNil(t, widget.Parent)
	assert.Equal(t, "GObject.InitiallyUnowned", widget.Parent.Name())
	assert.False(t, widget.Parent.IsResolved())
	require.Len(t, widget.Implements, 1)
	assert.Equal(t, "Accessible", widget.Implements[0].Name())
	assert.Equal(t, "gtk_widget_get_type", widget.GetTypeFunction.NativeName)
	assert.Equal(t, "GType", widget.GetTypeFunction.ReturnValue.TypeReference.Name())

	require.Len(t, widget.Methods, 2)
	getName := widget.Methods[0]
	assert.Equal(t, "GetName", getName.ManagedName)
	assert.Equal(t, "gtk_widget_get_name", getName.NativeName)
	require.NotNil(t, getName.Parameters.Instance)
	assert.True(t, getName.Parameters.Instance.TypeInformation.IsPointer)
	assert.True(t, getName.Introspectable)

	setNames := widget.Methods[1]
	params := setNames.Parameters.Parameters
	require.Len(t, params, 3)
	names := params[0]
	require.True(t, names.TypeInformation.IsArray())
	require.True(t, names.TypeInformation.Array.HasLength())
	assert.Equal(t, 1, *names.TypeInformation.Array.Length)
	assert.False(t, names.TypeInformation.Array.ZeroTerminated)
	assert.True(t, names.TypeReference.IsArray())
	assert.Equal(t, model.DirectionOut, params[2].Direction)
	assert.Equal(t, model.TransferFull, params[2].Transfer)
	assert.Equal(t, "none", setNames.ReturnValue.TypeReference.Name())

	require.Len(t, widget.Properties, 1)
	assert.Equal(t, "CanFocus", widget.Properties[0].ManagedName)
	assert.True(t, widget.Properties[0].Readable)
	assert.True(t, widget.Properties[0].Writable)

	require.Len(t, widget.Fields, 2)
	assert.Nil(t, widget.Fields[1].TypeReference)
	require.NotNil(t, widget.Fields[1].Callback)

	require.Len(t, widget.Signals, 1)
	assert.Equal(t, "cleanup", widget.Signals[0].When)

	button, ok := repo.Namespace.Class("Button")
	require.True(t, ok)
	assert.Equal(t, "Widget", button.Parent.Name())
	assert.Equal(t, "GtkWidget", button.Parent.CType())
}

func TestEnumeration(t *testing.T) {
	t.Parallel()
	f := newTestFactory(t)
	repo, err := f.Repository(gtkDocument())
	require.NoError(t, err)

	align := repo.Namespace.Enumerations()[0]
	assert.Equal(t, model.KindEnumeration, align.Kind())
	require.Len(t, align.Members, 2)
	assert.Equal(t, "Fill", align.Members[0].ManagedName)
	assert.Equal(t, int64(1), align.Members[1].Value)
	assert.Equal(t, "GTK_ALIGN_START", align.Members[1].CIdentifier)

	flags := repo.Namespace.Bitfields()[0]
	assert.Equal(t, model.KindBitfield, flags.Kind())
	assert.Equal(t, int64(4294967295), flags.Members[0].Value)
}

func TestCallbackAndConstant(t *testing.T) {
	t.Parallel()
	f := newTestFactory(t)
	repo, err := f.Repository(gtkDocument())
	require.NoError(t, err)

	cb := repo.Namespace.Callbacks()[0]
	require.Len(t, cb.Parameters.Parameters, 1)
	p := cb.Parameters.Parameters[0]
	assert.True(t, p.TypeInformation.IsPointer)
	require.NotNil(t, p.Closure)
	assert.Equal(t, 0, *p.Closure)
	assert.Equal(t, "userData", p.ManagedName)

	c := repo.Namespace.Constants()[0]
	assert.Equal(t, "4", c.Value)
	assert.Equal(t, "MAJOR_VERSION", c.ManagedName())
	assert.Equal(t, "gint", c.TypeReference.Name())
}

func TestRepository_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(d *raw.Document)
		kind   string
		node   string
		field  string
	}{
		{"namespace name", func(d *raw.Document) { d.Namespace = nil }, "namespace", "", "name"},
		{"namespace version", func(d *raw.Document) { d.Version = s("") }, "namespace", "Gtk", "version"},
		{"class get-type", func(d *raw.Document) { d.Classes[1].GetTypeFunction = nil }, "class", "Button", "glib:get-type"},
		{"class name", func(d *raw.Document) { d.Classes[0].Name = nil }, "class", "", "name"},
		{"method identifier", func(d *raw.Document) { d.Classes[0].Methods[0].CIdentifier = nil }, "method", "Widget.get_name", "c:identifier"},
		{"function identifier", func(d *raw.Document) { d.Functions[0].CIdentifier = nil }, "function", "init", "c:identifier"},
		{"parameter type", func(d *raw.Document) {
			d.Classes[0].Methods[1].Parameters.Parameters[1].Type = nil
		}, "parameter", "Widget.set_names(n_names)", "type"},
		{"property type", func(d *raw.Document) { d.Classes[0].Properties[0].Type = nil }, "property", "Widget.can-focus", "type"},
		{"field type", func(d *raw.Document) { d.Classes[0].Fields[0].Type = nil }, "field", "Widget.parent_instance", "type"},
		{"constant value", func(d *raw.Document) { d.Constants[0].Value = nil }, "constant", "MAJOR_VERSION", "value"},
		{"alias type", func(d *raw.Document) { d.Aliases[0].Type = nil }, "alias", "Allocation", "type"},
		{"member value", func(d *raw.Document) { d.Enumerations[0].Members[0].Value = s("zero") }, "member", "Align.FILL", "value"},
		{"transfer", func(d *raw.Document) {
			d.Classes[0].Properties[0].TransferOwnership = s("borrowed")
		}, "property", "Widget.can-focus", "transfer-ownership"},
		{"direction", func(d *raw.Document) {
			d.Classes[0].Methods[1].Parameters.Parameters[1].Direction = s("sideways")
		}, "parameter", "Widget.set_names(n_names)", "direction"},
		{"array length", func(d *raw.Document) {
			d.Classes[0].Methods[1].Parameters.Parameters[0].Type.Array.Length = s("-1")
		}, "parameter", "Widget.set_names(names)", "length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := gtkDocument()
			tt.mutate(doc)

			_, err := newTestFactory(t).Repository(doc)
			require.Error(t, err)
			var me *model.MalformedError
			require.True(t, errors.As(err, &me), "got %v", err)
			assert.Equal(t, tt.kind, me.Kind)
			assert.Equal(t, tt.node, me.Node)
			assert.Equal(t, tt.field, me.Field)
		})
	}
}

func TestRepository_DuplicateSymbol(t *testing.T) {
	t.Parallel()
	doc := gtkDocument()
	doc.Classes = append(doc.Classes, doc.Classes[1])

	_, err := newTestFactory(t).Repository(doc)
	var dup *model.DuplicateSymbolError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Button", dup.Name)
}

func TestParameter_Varargs(t *testing.T) {
	t.Parallel()
	f := newTestFactory(t)
	ns := model.NewNamespace("A", "1.0", "")

	p, err := f.Parameter(ns, "printf", &raw.Parameter{Name: s("..."), Varargs: true})
	require.NoError(t, err)
	assert.True(t, p.Varargs)
	assert.Equal(t, "va_list", p.TypeReference.Name())
	assert.True(t, p.TypeInformation.IsPointer)
}

func TestTypeInformation(t *testing.T) {
	t.Parallel()
	f := newTestFactory(t)

	tests := []struct {
		name    string
		ref     *raw.TypeRef
		pointer bool
		zero    bool
		array   bool
	}{
		{"value", typ("gint", "gint"), false, false, false},
		{"object pointer", typ("Widget", "GtkWidget*"), true, false, false},
		{"const string", typ("utf8", "const gchar*"), true, false, false},
		{"gpointer", typ("gpointer", "gpointer"), true, false, false},
		{"no ctag fundamental", typ("utf8", ""), true, false, false},
		{"no ctag record", typ("Rect", ""), false, false, false},
		{"strv", &raw.TypeRef{Name: s("utf8"), CType: s("gchar**"), Array: &raw.Array{CType: s("gchar**")}}, true, true, true},
		{"container", &raw.TypeRef{Name: s("GLib.PtrArray"), Array: &raw.Array{Name: s("GLib.PtrArray")}}, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ti, err := f.TypeInformation("parameter", "x", tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.pointer, ti.IsPointer)
			assert.Equal(t, tt.array, ti.IsArray())
			if tt.array {
				assert.Equal(t, tt.zero, ti.Array.ZeroTerminated)
			}
		})
	}
}

func TestRepository_ResolvesAfterBarrier(t *testing.T) {
	t.Parallel()
	r := model.NewResolver()
	f := New(r)

	a, err := f.Repository(&raw.Document{
		Namespace: s("A"),
		Version:   s("1.0"),
		Classes:   []raw.Class{{Name: s("Widget"), GetTypeFunction: s("a_widget_get_type")}},
	})
	require.NoError(t, err)
	b, err := f.Repository(&raw.Document{
		Namespace: s("B"),
		Version:   s("1.0"),
		Includes:  []raw.Include{{Name: s("A"), Version: s("1.0")}},
		Classes: []raw.Class{{
			Name:            s("Button"),
			Parent:          s("A.Widget"),
			GetTypeFunction: s("b_button_get_type"),
		}},
	})
	require.NoError(t, err)

	require.NoError(t, r.ResolveAll(a.Namespace, b.Namespace))
	button, _ := b.Namespace.Class("Button")
	assert.Equal(t, model.External, button.Parent.ReferenceKind())
	assert.True(t, model.IsResolved(a.Namespace))
	assert.True(t, model.IsResolved(b.Namespace))
}
