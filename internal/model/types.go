// Package model is the resolved object model of one generation run: the
// repositories and namespaces built from interface-description documents,
// the type references embedded in them, and the Resolver that binds those
// references once every namespace is loaded.
package model

// Kind classifies a Type.
type Kind int

const (
	KindFundamental Kind = iota
	KindString
	KindClass
	KindRecord
	KindUnion
	KindInterface
	KindEnumeration
	KindBitfield
	KindCallback
	KindConstant
	KindAlias
)

var kindNames = [...]string{
	KindFundamental: "fundamental",
	KindString:      "string",
	KindClass:       "class",
	KindRecord:      "record",
	KindUnion:       "union",
	KindInterface:   "interface",
	KindEnumeration: "enumeration",
	KindBitfield:    "bitfield",
	KindCallback:    "callback",
	KindConstant:    "constant",
	KindAlias:       "alias",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Type is anything a TypeReference can resolve to: a namespace symbol or a
// predeclared fundamental type.
type Type interface {
	Name() string
	ManagedName() string
	Kind() Kind
}

// Symbol is a Type declared inside a Namespace.
type Symbol interface {
	Type
	CType() string
	Namespace() *Namespace
	attach(ns *Namespace)
}

// SymbolInfo carries the attributes shared by every symbol variant. The
// namespace back-reference is set when the symbol is added to a Namespace.
type SymbolInfo struct {
	name        string
	managedName string
	cType       string
	namespace   *Namespace
}

// NewSymbolInfo returns the common symbol attributes. cType may be empty.
func NewSymbolInfo(name, managedName, cType string) SymbolInfo {
	return SymbolInfo{name: name, managedName: managedName, cType: cType}
}

func (s *SymbolInfo) Name() string          { return s.name }
func (s *SymbolInfo) ManagedName() string   { return s.managedName }
func (s *SymbolInfo) CType() string         { return s.cType }
func (s *SymbolInfo) Namespace() *Namespace { return s.namespace }

func (s *SymbolInfo) attach(ns *Namespace) { s.namespace = ns }

// QualifiedName returns "Namespace.Name" for symbols and the managed name for
// fundamental types.
func QualifiedName(t Type) string {
	if s, ok := t.(Symbol); ok && s.Namespace() != nil {
		return s.Namespace().Name() + "." + s.ManagedName()
	}
	return t.ManagedName()
}

// Underlying follows alias chains to the aliased type. Unresolved or cyclic
// chains stop at the last alias reached.
func Underlying(t Type) Type {
	for range 32 {
		a, ok := t.(*Alias)
		if !ok || a.Target == nil || !a.Target.IsResolved() {
			return t
		}
		t = a.Target.typ
	}
	return t
}
