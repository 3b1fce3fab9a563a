package model

// Class is a reference-counted object type with single inheritance.
type Class struct {
	SymbolInfo

	Parent     *TypeReference // nil for root types
	Implements []*TypeReference

	Constructors    []*Callable
	Methods         []*Callable
	Functions       []*Callable
	GetTypeFunction *Callable

	Properties []*Property
	Fields     []*Field
	Signals    []*Signal

	// Fundamental classes use their own create/destroy convention instead
	// of standard reference counting.
	Fundamental bool
	Abstract    bool
	TypeName    string
}

func (c *Class) Kind() Kind { return KindClass }

// Record is a value-type aggregate.
type Record struct {
	SymbolInfo

	GetTypeFunction   string
	GLibTypeStructFor string
	Disguised         bool

	Constructors []*Callable
	Methods      []*Callable
	Functions    []*Callable
	Fields       []*Field
}

func (r *Record) Kind() Kind { return KindRecord }

// Union is an overlapping-storage aggregate.
type Union struct {
	SymbolInfo

	GetTypeFunction string

	Constructors []*Callable
	Methods      []*Callable
	Functions    []*Callable
	Fields       []*Field
}

func (u *Union) Kind() Kind { return KindUnion }

// Interface is a capability contract implemented by classes.
type Interface struct {
	SymbolInfo

	Prerequisites   []*TypeReference
	GetTypeFunction *Callable

	Methods    []*Callable
	Functions  []*Callable
	Properties []*Property
	Signals    []*Signal
}

func (i *Interface) Kind() Kind { return KindInterface }

// Member is one (name, value) pair of an enumeration or bitfield.
type Member struct {
	Name        string
	ManagedName string
	CIdentifier string
	Value       int64
}

// Enumeration is an ordered set of named integer values. Bitfields share the
// representation.
type Enumeration struct {
	SymbolInfo

	Bitfield        bool
	GetTypeFunction string
	Members         []Member
}

func (e *Enumeration) Kind() Kind {
	if e.Bitfield {
		return KindBitfield
	}
	return KindEnumeration
}

// Callback is a function-pointer type.
type Callback struct {
	SymbolInfo

	Parameters  ParameterList
	ReturnValue *ReturnValue
	Throws      bool
}

func (c *Callback) Kind() Kind { return KindCallback }

// Constant is a named literal.
type Constant struct {
	SymbolInfo

	Value         string
	TypeReference *TypeReference
}

func (c *Constant) Kind() Kind { return KindConstant }

// Alias is a typedef for another type.
type Alias struct {
	SymbolInfo

	Target *TypeReference
}

func (a *Alias) Kind() Kind { return KindAlias }
