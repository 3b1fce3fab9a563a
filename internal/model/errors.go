package model

import "fmt"

// MalformedError reports a raw input node missing a mandatory field, or
// carrying a field value that cannot be interpreted.
type MalformedError struct {
	Kind  string // "class", "property", ...
	Node  string // node name, empty when the name itself is missing
	Field string
	Value string // offending value for invalid (present but unusable) fields
}

func (e *MalformedError) Error() string {
	node := e.Node
	if node == "" {
		node = "<unnamed>"
	} else {
		node = fmt.Sprintf("%q", node)
	}
	if e.Value != "" {
		return fmt.Sprintf("malformed %s %s: invalid %s %q", e.Kind, node, e.Field, e.Value)
	}
	return fmt.Sprintf("malformed %s %s: missing %s", e.Kind, node, e.Field)
}

// UnresolvedError reports a type name that could not be bound to a symbol.
type UnresolvedError struct {
	Name      string // unresolved identifier as written
	Namespace string // referencing namespace
	// MissingNamespace is set when a qualified name points at a namespace
	// that was never loaded.
	MissingNamespace string
}

func (e *UnresolvedError) Error() string {
	if e.MissingNamespace != "" {
		return fmt.Sprintf("unresolved type %q referenced from %s: namespace %s is not loaded",
			e.Name, e.Namespace, e.MissingNamespace)
	}
	return fmt.Sprintf("unresolved type %q referenced from %s", e.Name, e.Namespace)
}

// NotResolvedError is returned when a TypeReference is read before the
// resolution pass bound it.
type NotResolvedError struct {
	Name      string
	Namespace string
}

func (e *NotResolvedError) Error() string {
	return fmt.Sprintf("type reference %q from %s read before resolution", e.Name, e.Namespace)
}

// DuplicateSymbolError reports two symbols with the same name in one
// collection of one namespace.
type DuplicateSymbolError struct {
	Namespace string
	Kind      string
	Name      string
}

func (e *DuplicateSymbolError) Error() string {
	return fmt.Sprintf("namespace %s: duplicate %s %q", e.Namespace, e.Kind, e.Name)
}
