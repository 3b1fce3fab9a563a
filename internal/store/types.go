package store

import "time"

// Index domain types. Each mirrors one table of the schema.

type Document struct {
	ID          int64
	Path        string
	Namespace   string
	Version     string
	Hash        string
	LastIndexed time.Time
}

type Namespace struct {
	ID               int64
	DocumentID       *int64
	Name             string
	Version          string
	SharedLibrary    string
	IdentifierPrefix string
	SymbolPrefix     string
}

type Include struct {
	ID          int64
	NamespaceID int64
	Name        string
	Version     string
}

type Symbol struct {
	ID            int64
	NamespaceID   int64
	Name          string
	ManagedName   string
	Kind          string
	CType         string
	Abstract      bool
	Fundamental   bool
	SignatureHash string
}

// Member is one enumeration or bitfield value.
type Member struct {
	ID          int64
	SymbolID    int64
	Name        string
	ManagedName string
	CIdentifier string
	Value       int64
}

// TypeReference is a resolved reference. TargetNamespace is empty for
// fundamental types; TargetSymbolID is filled by LinkReferences once the
// target namespace has been committed.
type TypeReference struct {
	ID              int64
	NamespaceID     int64
	Name            string
	CType           string
	IsArray         bool
	Binding         string
	TargetNamespace string
	TargetName      string
	TargetKind      string
	TargetSymbolID  *int64
}

// Relation kinds.
const (
	RelationParent       = "parent"
	RelationImplements   = "implements"
	RelationPrerequisite = "prerequisite"
	RelationAliasOf      = "alias_of"
	RelationConstantType = "constant_type"
)

type Relation struct {
	ID          int64
	SymbolID    int64
	Kind        string
	ReferenceID int64
}

// Callable kinds.
const (
	CallableFunction    = "function"
	CallableMethod      = "method"
	CallableConstructor = "constructor"
	CallableGetType     = "get_type"
	CallableCallback    = "callback"
	CallableSignal      = "signal"
)

type Callable struct {
	ID             int64
	NamespaceID    int64
	SymbolID       *int64
	Name           string
	ManagedName    string
	NativeName     string
	Kind           string
	Throws         bool
	Deprecated     bool
	Introspectable bool
	MovedTo        string
}

type Parameter struct {
	ID              int64
	CallableID      int64
	Name            string
	ManagedName     string
	Ordinal         int
	IsInstance      bool
	IsReturn        bool
	Direction       string
	Transfer        string
	Nullable        bool
	IsPointer       bool
	ArrayLength     *int
	ZeroTerminated  bool
	CallerAllocates bool
	ReferenceID     *int64
}

// Type member kinds.
const (
	TypeMemberProperty = "property"
	TypeMemberField    = "field"
)

// TypeMember is a property or field of a class, record, union or interface.
type TypeMember struct {
	ID          int64
	SymbolID    int64
	Name        string
	ManagedName string
	Kind        string
	Transfer    string
	Readable    bool
	Writable    bool
	ReferenceID *int64
}

// MarshalDecision records the selected strategy for one parameter in one
// direction. Error is set instead of Strategy when no conversion exists.
type MarshalDecision struct {
	ID                   int64
	ParameterID          int64
	Direction            string
	Rule                 string
	Strategy             string
	Expr                 string
	OwnershipTransferred bool
	Placeholder          bool
	ElementWise          bool
	Error                string
}

// Query result types

// Placeholder is a recoverable marshaling gap joined with its callable.
type Placeholder struct {
	Namespace  string
	NativeName string
	Parameter  string
	Direction  string
	Strategy   string
	Expr       string
}

// Dependency is an edge between two namespaces counted by the external
// references from one into the other.
type Dependency struct {
	From       string
	To         string
	References int
}
