package model

// Direction of a parameter relative to the native call.
type Direction int

const (
	DirectionIn Direction = iota
	DirectionOut
	DirectionInOut
)

func (d Direction) String() string {
	switch d {
	case DirectionOut:
		return "out"
	case DirectionInOut:
		return "inout"
	default:
		return "in"
	}
}

// Parameter is one argument of a callable, callback or signal.
type Parameter struct {
	Name        string
	ManagedName string
	TransferableAnyType

	Direction       Direction
	Nullable        bool
	Optional        bool
	CallerAllocates bool
	Varargs         bool
	Scope           string
	Closure         *int
	Destroy         *int
}

func (p *Parameter) AnyType() *TransferableAnyType { return &p.TransferableAnyType }
func (p *Parameter) IsReturnValue() bool           { return false }

// ReturnValue is the result of a callable, callback or signal.
type ReturnValue struct {
	TransferableAnyType
	Nullable bool
}

func (rv *ReturnValue) AnyType() *TransferableAnyType { return &rv.TransferableAnyType }
func (rv *ReturnValue) IsReturnValue() bool           { return true }

// ParameterList is the ordered argument list of a callable, plus the optional
// instance (receiver) parameter.
type ParameterList struct {
	Instance   *Parameter
	Parameters []*Parameter
}

// All returns the parameters in call order, the instance parameter first.
func (pl ParameterList) All() []*Parameter {
	out := make([]*Parameter, 0, len(pl.Parameters)+1)
	if pl.Instance != nil {
		out = append(out, pl.Instance)
	}
	return append(out, pl.Parameters...)
}

// Any reports whether the list has at least one parameter.
func (pl ParameterList) Any() bool {
	return pl.Instance != nil || len(pl.Parameters) > 0
}

// TypeReferences returns the reference of every parameter.
func (pl ParameterList) TypeReferences() []*TypeReference {
	var out []*TypeReference
	for _, p := range pl.All() {
		if p.TypeReference != nil {
			out = append(out, p.TypeReference)
		}
	}
	return out
}

// IsResolved reports whether every parameter's reference, the instance
// parameter included, is resolved.
func (pl ParameterList) IsResolved() bool {
	for _, ref := range pl.TypeReferences() {
		if !ref.IsResolved() {
			return false
		}
	}
	return true
}

// Callable is a method, constructor or free function.
type Callable struct {
	Name        string
	ManagedName string
	NativeName  string

	Parameters  ParameterList
	ReturnValue *ReturnValue

	Throws         bool
	Deprecated     bool
	Introspectable bool
	MovedTo        string
}

// TypeReferences returns every reference in the signature.
func (c *Callable) TypeReferences() []*TypeReference {
	refs := c.Parameters.TypeReferences()
	if c.ReturnValue != nil && c.ReturnValue.TypeReference != nil {
		refs = append(refs, c.ReturnValue.TypeReference)
	}
	return refs
}

// IsResolved reports whether the whole signature is resolved.
func (c *Callable) IsResolved() bool {
	for _, ref := range c.TypeReferences() {
		if !ref.IsResolved() {
			return false
		}
	}
	return true
}

// Property is a named, typed attribute of a class or interface.
type Property struct {
	Name        string
	ManagedName string
	TransferableAnyType

	Readable      bool
	Writable      bool
	Construct     bool
	ConstructOnly bool
}

func (p *Property) AnyType() *TransferableAnyType { return &p.TransferableAnyType }
func (p *Property) IsReturnValue() bool           { return false }

// Field is a storage slot of a class, record or union. Callback fields carry
// an inline Callback instead of a type reference.
type Field struct {
	Name        string
	ManagedName string
	TransferableAnyType

	Callback *Callback
	Readable bool
	Writable bool
	Private  bool
}

func (f *Field) AnyType() *TransferableAnyType { return &f.TransferableAnyType }
func (f *Field) IsReturnValue() bool           { return false }

// Signal is an event a class or interface can emit.
type Signal struct {
	Name        string
	ManagedName string
	When        string
	Detailed    bool
	Action      bool

	Parameters  ParameterList
	ReturnValue *ReturnValue
}
