package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIRepository summarizes one resolved namespace.
type CLIRepository struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	SharedLibrary string   `json:"shared_library,omitempty"`
	Path          string   `json:"path,omitempty"`
	Includes      []string `json:"includes"`
	Types         int      `json:"types"`
	Callables     int      `json:"callables"`
	References    int      `json:"references"`
	External      int      `json:"external_references"`
}

// CLINamespace is an indexed namespace with summary counts.
type CLINamespace struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	SymbolCount   int      `json:"symbol_count"`
	CallableCount int      `json:"callable_count"`
	Includes      []string `json:"includes"`
}

// CLISymbol is a JSON-friendly symbol representation.
type CLISymbol struct {
	ID               int64  `json:"id"`
	Namespace        string `json:"namespace"`
	Name             string `json:"name"`
	ManagedName      string `json:"managed_name,omitempty"`
	Kind             string `json:"kind"`
	CType            string `json:"c_type,omitempty"`
	Abstract         bool   `json:"abstract,omitempty"`
	RefCount         int    `json:"ref_count"`
	ExternalRefCount int    `json:"external_ref_count"`
}

// CLIReference is a JSON-friendly type reference.
type CLIReference struct {
	ID              int64  `json:"id"`
	From            string `json:"from,omitempty"`
	Name            string `json:"name"`
	CType           string `json:"c_type,omitempty"`
	IsArray         bool   `json:"is_array,omitempty"`
	Binding         string `json:"binding"`
	TargetNamespace string `json:"target_namespace,omitempty"`
	TargetName      string `json:"target_name"`
	TargetKind      string `json:"target_kind"`
	TargetSymbolID  *int64 `json:"target_symbol_id,omitempty"`
}

// CLIMember is an enumeration or bitfield value.
type CLIMember struct {
	Name        string `json:"name"`
	CIdentifier string `json:"c_identifier"`
	Value       int64  `json:"value"`
}

// CLITypeMember is a property or field.
type CLITypeMember struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Transfer string `json:"transfer,omitempty"`
	Readable bool   `json:"readable"`
	Writable bool   `json:"writable"`
}

// CLIRelation is a forward relation of a symbol.
type CLIRelation struct {
	Kind      string       `json:"kind"`
	Reference CLIReference `json:"reference"`
}

// CLISymbolDetail is a symbol with its structure and callables.
type CLISymbolDetail struct {
	Symbol      CLISymbol       `json:"symbol"`
	Members     []CLIMember     `json:"members"`
	TypeMembers []CLITypeMember `json:"type_members"`
	Relations   []CLIRelation   `json:"relations"`
	Callables   []CLICallable   `json:"callables"`
}

// CLICallable is a callable without its parameters.
type CLICallable struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
	Kind       string `json:"kind"`
	Throws     bool   `json:"throws,omitempty"`
	Deprecated bool   `json:"deprecated,omitempty"`
}

// CLIParameter is a parameter or return value with its recorded decisions.
type CLIParameter struct {
	Name        string                `json:"name"`
	Ordinal     int                   `json:"ordinal"`
	IsInstance  bool                  `json:"is_instance,omitempty"`
	IsReturn    bool                  `json:"is_return,omitempty"`
	Direction   string                `json:"direction"`
	Transfer    string                `json:"transfer"`
	Nullable    bool                  `json:"nullable,omitempty"`
	Type        *CLIReference         `json:"type,omitempty"`
	Decisions   []CLIRecordedDecision `json:"decisions"`
	ArrayLength *int                  `json:"array_length,omitempty"`
}

// CLIRecordedDecision is a marshaling decision read from the index.
type CLIRecordedDecision struct {
	Direction   string `json:"direction"`
	Strategy    string `json:"strategy,omitempty"`
	Expr        string `json:"expr,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
	Error       string `json:"error,omitempty"`
}

// CLICallableDetail is a callable with its parameters.
type CLICallableDetail struct {
	Callable   CLICallable    `json:"callable"`
	Namespace  string         `json:"namespace"`
	Parameters []CLIParameter `json:"parameters"`
}

// CLIHierarchy is the inheritance view of a class or interface.
type CLIHierarchy struct {
	Symbol        CLISymbol         `json:"symbol"`
	Ancestors     []CLITypeRelation `json:"ancestors"`
	Implements    []CLITypeRelation `json:"implements"`
	Subtypes      []CLITypeRelation `json:"subtypes"`
	ImplementedBy []CLITypeRelation `json:"implemented_by"`
}

// CLITypeRelation is one related type in a hierarchy.
type CLITypeRelation struct {
	Symbol CLISymbol `json:"symbol"`
	Kind   string    `json:"kind"`
}

// CLIDependency is an edge of the namespace graph.
type CLIDependency struct {
	From       string `json:"from"`
	To         string `json:"to"`
	References int    `json:"references"`
}

// CLIGraph is the namespace dependency graph.
type CLIGraph struct {
	Namespaces []CLINamespace  `json:"namespaces"`
	Edges      []CLIDependency `json:"edges"`
}

// CLIPlaceholder is a marshaling gap recorded in the index.
type CLIPlaceholder struct {
	Namespace  string `json:"namespace"`
	NativeName string `json:"native_name"`
	Parameter  string `json:"parameter"`
	Direction  string `json:"direction"`
	Strategy   string `json:"strategy,omitempty"`
	Expr       string `json:"expr"`
}

// CLIDecision is a freshly selected marshaling decision.
type CLIDecision struct {
	Rule                 string `json:"rule"`
	Strategy             string `json:"strategy"`
	Expr                 string `json:"expr"`
	OwnershipTransferred bool   `json:"ownership_transferred"`
	RetainRequired       bool   `json:"retain_required"`
	Placeholder          bool   `json:"placeholder,omitempty"`
	ElementWise          bool   `json:"element_wise,omitempty"`
}

// CLIValue is both directions for one parameter or return value.
type CLIValue struct {
	Name      string      `json:"name"`
	Attribute string      `json:"attribute,omitempty"`
	ToNative  CLIDecision `json:"to_native"`
	ToManaged CLIDecision `json:"to_managed"`
}

// CLIDescription is every decision for one callable.
type CLIDescription struct {
	Namespace    string     `json:"namespace"`
	Name         string     `json:"name"`
	NativeName   string     `json:"native_name"`
	Throws       bool       `json:"throws,omitempty"`
	Parameters   []CLIValue `json:"parameters"`
	Return       *CLIValue  `json:"return,omitempty"`
	Placeholders int        `json:"placeholders"`
}
