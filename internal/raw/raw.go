// Package raw defines the untyped input records produced by the document
// loader. Every field the loader may omit is optional here; the model
// factories decide which ones are mandatory.
package raw

// Document is one interface-description document: a single namespace of a
// single library version.
type Document struct {
	Path string // source file, informational only

	Namespace          *string
	Version            *string
	SharedLibrary      *string // comma-separated, first entry is loaded at runtime
	IdentifierPrefixes *string
	SymbolPrefixes     *string

	Includes []Include

	Aliases      []Alias
	Classes      []Class
	Records      []Record
	Unions       []Union
	Interfaces   []Interface
	Enumerations []Enumeration
	Bitfields    []Enumeration
	Callbacks    []Callback
	Constants    []Constant
	Functions    []Callable
}

// Include names another document this one depends on.
type Include struct {
	Name    *string
	Version *string
}

// TypeRef is a raw type annotation. Name may be namespace-qualified.
type TypeRef struct {
	Name  *string
	CType *string
	Array *Array
}

// Array marks a TypeRef as an array of its element type.
type Array struct {
	Name           *string // set for GLib container arrays (GLib.PtrArray, ...)
	CType          *string
	Length         *string // index of the parameter carrying the length
	ZeroTerminated *string
	FixedSize      *string
}

type Alias struct {
	Name  *string
	CType *string
	Type  *TypeRef
}

type Class struct {
	Name            *string
	CType           *string
	Parent          *string
	GetTypeFunction *string
	TypeName        *string
	Abstract        bool
	Fundamental     bool

	Implements   []string
	Constructors []Callable
	Methods      []Callable
	Functions    []Callable
	Properties   []Property
	Fields       []Field
	Signals      []Signal
}

type Record struct {
	Name              *string
	CType             *string
	GetTypeFunction   *string
	GLibTypeStructFor *string
	Disguised         bool

	Constructors []Callable
	Methods      []Callable
	Functions    []Callable
	Fields       []Field
}

type Union struct {
	Name            *string
	CType           *string
	GetTypeFunction *string

	Constructors []Callable
	Methods      []Callable
	Functions    []Callable
	Fields       []Field
}

type Interface struct {
	Name            *string
	CType           *string
	GetTypeFunction *string

	Prerequisites []string
	Methods       []Callable
	Functions     []Callable
	Properties    []Property
	Signals       []Signal
}

type Enumeration struct {
	Name            *string
	CType           *string
	GetTypeFunction *string
	Members         []Member
}

type Member struct {
	Name        *string
	Value       *string
	CIdentifier *string
}

type Callback struct {
	Name        *string
	CType       *string
	Parameters  *Parameters
	ReturnValue *ReturnValue
	Throws      bool
}

// Callable is a method, free function or constructor.
type Callable struct {
	Name           *string
	CIdentifier    *string
	Parameters     *Parameters
	ReturnValue    *ReturnValue
	Throws         bool
	Deprecated     bool
	Introspectable *bool
	MovedTo        *string
}

type Parameters struct {
	Instance   *Parameter
	Parameters []Parameter
}

type Parameter struct {
	Name              *string
	Type              *TypeRef
	TransferOwnership *string
	Direction         *string // in, out, inout
	CallerAllocates   bool
	Nullable          bool
	Optional          bool
	Closure           *string
	Destroy           *string
	Scope             *string
	Varargs           bool
}

type ReturnValue struct {
	Type              *TypeRef
	TransferOwnership *string
	Nullable          bool
}

type Property struct {
	Name              *string
	Type              *TypeRef
	TransferOwnership *string
	Readable          *bool // GIR default: readable
	Writable          bool
	ConstructOnly     bool
	Construct         bool
}

type Field struct {
	Name     *string
	Type     *TypeRef
	Callback *Callback
	Readable *bool
	Writable bool
	Private  bool
}

type Signal struct {
	Name        *string
	When        *string
	Parameters  *Parameters
	ReturnValue *ReturnValue
	Detailed    bool
	Action      bool
}

type Constant struct {
	Name  *string
	CType *string
	Value *string
	Type  *TypeRef
}

// String returns a pointer to s, for building raw documents in code.
func String(s string) *string { return &s }

// Deref returns the pointed-to string or "" when absent.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
