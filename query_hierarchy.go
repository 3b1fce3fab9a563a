package girbind

import (
	"fmt"

	"github.com/jward/girbind/internal/store"
)

// TypeRelation represents a relationship between two types in a hierarchy.
type TypeRelation struct {
	Symbol SymbolResult
	Kind   string // "parent", "implements", "prerequisite"
}

// TypeHierarchy is the inheritance view of one class or interface.
type TypeHierarchy struct {
	Symbol        SymbolResult    // the queried type
	Ancestors     []*TypeRelation // parent chain, nearest first
	Implements    []*TypeRelation // interfaces this class implements or this interface requires
	Subtypes      []*TypeRelation // direct subclasses
	ImplementedBy []*TypeRelation // classes implementing, and interfaces requiring, this interface
}

// TypeHierarchy returns the ancestors, interfaces and direct subtypes of
// the symbol named name in namespace. Ancestors in namespaces that are not
// indexed end the chain. Returns nil with no error if the symbol is not
// indexed.
func (q *QueryBuilder) TypeHierarchy(namespace, name string) (*TypeHierarchy, error) {
	sym, err := q.store.SymbolByQualifiedName(namespace, name)
	if err != nil {
		return nil, fmt.Errorf("type hierarchy: %w", err)
	}
	if sym == nil {
		return nil, nil
	}
	sr, err := q.symbolResultByID(sym.ID)
	if err != nil {
		return nil, fmt.Errorf("type hierarchy: %w", err)
	}

	h := &TypeHierarchy{
		Symbol:        *sr,
		Ancestors:     []*TypeRelation{},
		Implements:    []*TypeRelation{},
		Subtypes:      []*TypeRelation{},
		ImplementedBy: []*TypeRelation{},
	}

	// Walk the parent chain. seen guards against a corrupt index.
	seen := map[int64]bool{sym.ID: true}
	current := sym.ID
	for {
		parents, err := q.targets(current, store.RelationParent)
		if err != nil {
			return nil, fmt.Errorf("type hierarchy: %w", err)
		}
		if len(parents) == 0 || seen[parents[0].Symbol.ID] {
			break
		}
		h.Ancestors = append(h.Ancestors, parents[0])
		seen[parents[0].Symbol.ID] = true
		current = parents[0].Symbol.ID
	}

	for _, kind := range []string{store.RelationImplements, store.RelationPrerequisite} {
		rels, err := q.targets(sym.ID, kind)
		if err != nil {
			return nil, fmt.Errorf("type hierarchy: %w", err)
		}
		h.Implements = append(h.Implements, rels...)
	}

	subtypes, err := q.sources(sym.ID, store.RelationParent)
	if err != nil {
		return nil, fmt.Errorf("type hierarchy: %w", err)
	}
	h.Subtypes = append(h.Subtypes, subtypes...)

	for _, kind := range []string{store.RelationImplements, store.RelationPrerequisite} {
		rels, err := q.sources(sym.ID, kind)
		if err != nil {
			return nil, fmt.Errorf("type hierarchy: %w", err)
		}
		h.ImplementedBy = append(h.ImplementedBy, rels...)
	}
	return h, nil
}

// targets returns the linked targets of symbolID's relations of kind.
func (q *QueryBuilder) targets(symbolID int64, kind string) ([]*TypeRelation, error) {
	rels, err := q.store.RelationsBySymbol(symbolID)
	if err != nil {
		return nil, err
	}
	var out []*TypeRelation
	for _, r := range rels {
		if r.Kind != kind {
			continue
		}
		ref, err := q.store.TypeReferenceByID(r.ReferenceID)
		if err != nil {
			return nil, err
		}
		if ref == nil || ref.TargetSymbolID == nil {
			continue
		}
		sr, err := q.symbolResultByID(*ref.TargetSymbolID)
		if err != nil {
			return nil, err
		}
		if sr != nil {
			out = append(out, &TypeRelation{Symbol: *sr, Kind: kind})
		}
	}
	return out, nil
}

// sources returns the symbols whose relation of kind targets symbolID.
func (q *QueryBuilder) sources(symbolID int64, kind string) ([]*TypeRelation, error) {
	syms, err := q.store.RelatedSymbols(symbolID, kind)
	if err != nil {
		return nil, err
	}
	out := make([]*TypeRelation, 0, len(syms))
	for _, s := range syms {
		sr, err := q.symbolResultByID(s.ID)
		if err != nil {
			return nil, err
		}
		if sr != nil {
			out = append(out, &TypeRelation{Symbol: *sr, Kind: kind})
		}
	}
	return out, nil
}
