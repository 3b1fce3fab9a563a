package gir

import "encoding/xml"

// The x* types mirror the GIR XML schema. Attributes in the c: and glib:
// namespaces are matched by their full namespace URI.

type xRepository struct {
	XMLName   xml.Name    `xml:"repository"`
	Includes  []xInclude  `xml:"include"`
	Namespace *xNamespace `xml:"namespace"`
}

type xInclude struct {
	Name    *string `xml:"name,attr"`
	Version *string `xml:"version,attr"`
}

type xNamespace struct {
	Name               *string `xml:"name,attr"`
	Version            *string `xml:"version,attr"`
	SharedLibrary      *string `xml:"shared-library,attr"`
	IdentifierPrefixes *string `xml:"http://www.gtk.org/introspection/c/1.0 identifier-prefixes,attr"`
	SymbolPrefixes     *string `xml:"http://www.gtk.org/introspection/c/1.0 symbol-prefixes,attr"`

	Aliases      []xAlias       `xml:"alias"`
	Classes      []xClass       `xml:"class"`
	Records      []xRecord      `xml:"record"`
	Unions       []xRecord      `xml:"union"`
	Interfaces   []xInterface   `xml:"interface"`
	Enumerations []xEnumeration `xml:"enumeration"`
	Bitfields    []xEnumeration `xml:"bitfield"`
	Callbacks    []xCallback    `xml:"callback"`
	Constants    []xConstant    `xml:"constant"`
	Functions    []xCallable    `xml:"function"`
}

type xType struct {
	Name  *string `xml:"name,attr"`
	CType *string `xml:"http://www.gtk.org/introspection/c/1.0 type,attr"`
}

type xArray struct {
	Name           *string `xml:"name,attr"`
	CType          *string `xml:"http://www.gtk.org/introspection/c/1.0 type,attr"`
	Length         *string `xml:"length,attr"`
	ZeroTerminated *string `xml:"zero-terminated,attr"`
	FixedSize      *string `xml:"fixed-size,attr"`
	Type           *xType  `xml:"type"`
	Array          *xArray `xml:"array"`
}

// xTyped is embedded by every element that carries a <type> or <array>.
type xTyped struct {
	Type  *xType  `xml:"type"`
	Array *xArray `xml:"array"`
}

type xAlias struct {
	Name  *string `xml:"name,attr"`
	CType *string `xml:"http://www.gtk.org/introspection/c/1.0 type,attr"`
	xTyped
}

type xClass struct {
	Name        *string `xml:"name,attr"`
	CType       *string `xml:"http://www.gtk.org/introspection/c/1.0 type,attr"`
	Parent      *string `xml:"parent,attr"`
	Abstract    *string `xml:"abstract,attr"`
	Fundamental *string `xml:"http://www.gtk.org/introspection/glib/1.0 fundamental,attr"`
	GetType     *string `xml:"http://www.gtk.org/introspection/glib/1.0 get-type,attr"`
	TypeName    *string `xml:"http://www.gtk.org/introspection/glib/1.0 type-name,attr"`

	Implements   []xNamed    `xml:"implements"`
	Constructors []xCallable `xml:"constructor"`
	Methods      []xCallable `xml:"method"`
	Functions    []xCallable `xml:"function"`
	Properties   []xProperty `xml:"property"`
	Fields       []xField    `xml:"field"`
	Signals      []xSignal   `xml:"http://www.gtk.org/introspection/glib/1.0 signal"`
}

type xNamed struct {
	Name *string `xml:"name,attr"`
}

type xRecord struct {
	Name              *string `xml:"name,attr"`
	CType             *string `xml:"http://www.gtk.org/introspection/c/1.0 type,attr"`
	Disguised         *string `xml:"disguised,attr"`
	GetType           *string `xml:"http://www.gtk.org/introspection/glib/1.0 get-type,attr"`
	GLibTypeStructFor *string `xml:"http://www.gtk.org/introspection/glib/1.0 is-gtype-struct-for,attr"`

	Constructors []xCallable `xml:"constructor"`
	Methods      []xCallable `xml:"method"`
	Functions    []xCallable `xml:"function"`
	Fields       []xField    `xml:"field"`
}

type xInterface struct {
	Name    *string `xml:"name,attr"`
	CType   *string `xml:"http://www.gtk.org/introspection/c/1.0 type,attr"`
	GetType *string `xml:"http://www.gtk.org/introspection/glib/1.0 get-type,attr"`

	Prerequisites []xNamed    `xml:"prerequisite"`
	Methods       []xCallable `xml:"method"`
	Functions     []xCallable `xml:"function"`
	Properties    []xProperty `xml:"property"`
	Signals       []xSignal   `xml:"http://www.gtk.org/introspection/glib/1.0 signal"`
}

type xEnumeration struct {
	Name    *string   `xml:"name,attr"`
	CType   *string   `xml:"http://www.gtk.org/introspection/c/1.0 type,attr"`
	GetType *string   `xml:"http://www.gtk.org/introspection/glib/1.0 get-type,attr"`
	Members []xMember `xml:"member"`
}

type xMember struct {
	Name        *string `xml:"name,attr"`
	Value       *string `xml:"value,attr"`
	CIdentifier *string `xml:"http://www.gtk.org/introspection/c/1.0 identifier,attr"`
}

type xCallback struct {
	Name        *string      `xml:"name,attr"`
	CType       *string      `xml:"http://www.gtk.org/introspection/c/1.0 type,attr"`
	Throws      *string      `xml:"throws,attr"`
	Parameters  *xParameters `xml:"parameters"`
	ReturnValue *xReturn     `xml:"return-value"`
}

type xCallable struct {
	Name           *string      `xml:"name,attr"`
	CIdentifier    *string      `xml:"http://www.gtk.org/introspection/c/1.0 identifier,attr"`
	Throws         *string      `xml:"throws,attr"`
	Deprecated     *string      `xml:"deprecated,attr"`
	Introspectable *string      `xml:"introspectable,attr"`
	MovedTo        *string      `xml:"moved-to,attr"`
	Parameters     *xParameters `xml:"parameters"`
	ReturnValue    *xReturn     `xml:"return-value"`
}

type xParameters struct {
	Instance   *xParameter  `xml:"instance-parameter"`
	Parameters []xParameter `xml:"parameter"`
}

type xParameter struct {
	Name              *string   `xml:"name,attr"`
	TransferOwnership *string   `xml:"transfer-ownership,attr"`
	Direction         *string   `xml:"direction,attr"`
	CallerAllocates   *string   `xml:"caller-allocates,attr"`
	Nullable          *string   `xml:"nullable,attr"`
	AllowNone         *string   `xml:"allow-none,attr"`
	Optional          *string   `xml:"optional,attr"`
	Closure           *string   `xml:"closure,attr"`
	Destroy           *string   `xml:"destroy,attr"`
	Scope             *string   `xml:"scope,attr"`
	Varargs           *struct{} `xml:"varargs"`
	xTyped
}

type xReturn struct {
	TransferOwnership *string `xml:"transfer-ownership,attr"`
	Nullable          *string `xml:"nullable,attr"`
	xTyped
}

type xProperty struct {
	Name              *string `xml:"name,attr"`
	TransferOwnership *string `xml:"transfer-ownership,attr"`
	Readable          *string `xml:"readable,attr"`
	Writable          *string `xml:"writable,attr"`
	Construct         *string `xml:"construct,attr"`
	ConstructOnly     *string `xml:"construct-only,attr"`
	xTyped
}

type xField struct {
	Name     *string    `xml:"name,attr"`
	Readable *string    `xml:"readable,attr"`
	Writable *string    `xml:"writable,attr"`
	Private  *string    `xml:"private,attr"`
	Callback *xCallback `xml:"callback"`
	xTyped
}

type xSignal struct {
	Name        *string      `xml:"name,attr"`
	When        *string      `xml:"when,attr"`
	Detailed    *string      `xml:"detailed,attr"`
	Action      *string      `xml:"action,attr"`
	Parameters  *xParameters `xml:"parameters"`
	ReturnValue *xReturn     `xml:"return-value"`
}

type xConstant struct {
	Name  *string `xml:"name,attr"`
	CType *string `xml:"http://www.gtk.org/introspection/c/1.0 type,attr"`
	Value *string `xml:"value,attr"`
	xTyped
}
