package model

import (
	"fmt"
	"strings"
)

// ReferenceKind records where a TypeReference was resolved.
type ReferenceKind int

const (
	Unresolved ReferenceKind = iota
	// Internal references resolve inside the referencing namespace, or to a
	// fundamental type.
	Internal
	// External references resolve in a different loaded namespace.
	External
)

func (k ReferenceKind) String() string {
	switch k {
	case Internal:
		return "internal"
	case External:
		return "external"
	default:
		return "unresolved"
	}
}

// RefKey is the identity of a TypeReference before resolution.
type RefKey struct {
	Name    string
	IsArray bool
}

// TypeReference is a possibly namespace-qualified type name that the
// Resolver binds to exactly one Type. Only the Resolver mutates it.
type TypeReference struct {
	name      string
	cType     string
	isArray   bool
	namespace string // referencing namespace

	typ  Type
	kind ReferenceKind
}

// Name returns the unresolved textual name, e.g. "Widget" or "GObject.Object".
func (r *TypeReference) Name() string { return r.name }

// CType returns the native type tag, or "" when the document had none.
func (r *TypeReference) CType() string { return r.cType }

func (r *TypeReference) IsArray() bool { return r.isArray }

// ReferencingNamespace names the namespace whose document contained the
// reference.
func (r *TypeReference) ReferencingNamespace() string { return r.namespace }

func (r *TypeReference) IsResolved() bool { return r.typ != nil }

func (r *TypeReference) ReferenceKind() ReferenceKind { return r.kind }

// IsExternal reports whether the reference resolved in another namespace.
func (r *TypeReference) IsExternal() bool { return r.kind == External }

// Key returns the deduplication identity (unresolved name, array flag).
func (r *TypeReference) Key() RefKey {
	return RefKey{Name: r.name, IsArray: r.isArray}
}

// Equal compares references by Key.
func (r *TypeReference) Equal(o *TypeReference) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.Key() == o.Key()
}

// Resolved returns the bound Type. Reading a reference before the resolution
// pass returns a *NotResolvedError.
func (r *TypeReference) Resolved() (Type, error) {
	if r.typ == nil {
		return nil, &NotResolvedError{Name: r.name, Namespace: r.namespace}
	}
	return r.typ, nil
}

// MustType is Resolved for callers that run strictly after ResolveAll. It
// panics on an unresolved reference.
func (r *TypeReference) MustType() Type {
	t, err := r.Resolved()
	if err != nil {
		panic(err)
	}
	return t
}

// qualifier splits "Ns.Type" into ("Ns", "Type"). Unqualified names return
// an empty namespace.
func (r *TypeReference) qualifier() (string, string) {
	ns, name, ok := strings.Cut(r.name, ".")
	if !ok {
		return "", r.name
	}
	return ns, name
}

// IsQualified reports whether the unresolved name carries a namespace prefix.
func (r *TypeReference) IsQualified() bool {
	ns, _ := r.qualifier()
	return ns != ""
}

func (r *TypeReference) resolveAs(t Type, kind ReferenceKind) {
	if r.typ != nil {
		return
	}
	r.typ = t
	r.kind = kind
}

// String renders the target-language spelling of a resolved reference:
// fundamental and internal types by managed name, external types qualified
// by namespace, arrays suffixed with "[]".
func (r *TypeReference) String() string {
	if r.typ == nil {
		return fmt.Sprintf("<unresolved %s>", r.name)
	}
	var s string
	switch {
	case r.kind == External:
		s = QualifiedName(r.typ)
	default:
		s = r.typ.ManagedName()
	}
	if r.isArray {
		s += "[]"
	}
	return s
}
