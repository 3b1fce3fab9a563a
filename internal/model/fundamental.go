package model

// Fundamental is a predeclared primitive type. It has no namespace.
type Fundamental struct {
	name    string
	managed string
	kind    Kind
	pointer bool
}

func (f *Fundamental) Name() string        { return f.name }
func (f *Fundamental) ManagedName() string { return f.managed }
func (f *Fundamental) Kind() Kind          { return f.kind }

// IsPointer reports whether the primitive is itself a pointer typedef
// (gpointer and friends).
func (f *Fundamental) IsPointer() bool { return f.pointer }

// IsString reports whether the primitive is string-like.
func (f *Fundamental) IsString() bool { return f.kind == KindString }

func prim(name, managed string) *Fundamental {
	return &Fundamental{name: name, managed: managed, kind: KindFundamental}
}

func ptrPrim(name string) *Fundamental {
	return &Fundamental{name: name, managed: "IntPtr", kind: KindFundamental, pointer: true}
}

func strPrim(name string) *Fundamental {
	return &Fundamental{name: name, managed: "string", kind: KindString, pointer: true}
}

var fundamentals = map[string]*Fundamental{}

func init() {
	for _, f := range []*Fundamental{
		prim("none", "void"),
		prim("gboolean", "bool"),
		prim("gchar", "sbyte"),
		prim("guchar", "byte"),
		prim("gint8", "sbyte"),
		prim("guint8", "byte"),
		prim("gint16", "short"),
		prim("guint16", "ushort"),
		prim("gint32", "int"),
		prim("guint32", "uint"),
		prim("gint64", "long"),
		prim("guint64", "ulong"),
		prim("gshort", "short"),
		prim("gushort", "ushort"),
		prim("gint", "int"),
		prim("guint", "uint"),
		prim("glong", "long"),
		prim("gulong", "ulong"),
		prim("gsize", "nuint"),
		prim("gssize", "nint"),
		prim("goffset", "long"),
		prim("gfloat", "float"),
		prim("gdouble", "double"),
		prim("long double", "double"),
		prim("gunichar", "uint"),
		prim("gunichar2", "ushort"),
		prim("GType", "nuint"),
		prim("time_t", "long"),
		prim("off_t", "long"),
		prim("pid_t", "int"),
		prim("uid_t", "uint"),
		prim("dev_t", "ulong"),
		prim("socklen_t", "uint"),
		prim("int", "int"),
		prim("double", "double"),
		ptrPrim("gpointer"),
		ptrPrim("gconstpointer"),
		ptrPrim("gintptr"),
		ptrPrim("guintptr"),
		ptrPrim("va_list"),
		strPrim("utf8"),
		strPrim("filename"),
	} {
		fundamentals[f.name] = f
	}
}

// LookupFundamental returns the predeclared primitive named name.
func LookupFundamental(name string) (*Fundamental, bool) {
	f, ok := fundamentals[name]
	return f, ok
}
