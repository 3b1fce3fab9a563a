package main

import (
	"github.com/jward/girbind"
	"github.com/jward/girbind/internal/model"
	"github.com/jward/girbind/internal/store"
)

// repositoryToCLI summarizes a resolved repository.
func repositoryToCLI(repo *model.Repository) CLIRepository {
	out := CLIRepository{
		Name:          repo.Name(),
		Version:       repo.Version(),
		SharedLibrary: repo.SharedLibrary(),
		Path:          repo.Path,
		Includes:      make([]string, 0, len(repo.Includes)),
		Types:         len(repo.Namespace.Types()),
	}
	for _, inc := range repo.Includes {
		out.Includes = append(out.Includes, inc.Name+"-"+inc.Version)
	}
	model.WalkCallables(repo.Namespace, func(model.Symbol, model.CallableRole, *model.Callable) {
		out.Callables++
	})
	model.Walk(repo.Namespace, func(ref *model.TypeReference) {
		out.References++
		if ref.IsExternal() {
			out.External++
		}
	})
	return out
}

// symbolResultToCLI converts a girbind.SymbolResult to a CLISymbol.
func symbolResultToCLI(sr girbind.SymbolResult) CLISymbol {
	return CLISymbol{
		ID:               sr.ID,
		Namespace:        sr.Namespace,
		Name:             sr.Name,
		ManagedName:      sr.ManagedName,
		Kind:             sr.Kind,
		CType:            sr.CType,
		Abstract:         sr.Abstract,
		RefCount:         sr.RefCount,
		ExternalRefCount: sr.ExternalRefCount,
	}
}

func symbolResultsToCLI(items []girbind.SymbolResult) []CLISymbol {
	out := make([]CLISymbol, len(items))
	for i, sr := range items {
		out[i] = symbolResultToCLI(sr)
	}
	return out
}

// referenceToCLI converts a store.TypeReference. from is the name of the
// referencing namespace, empty when unknown.
func referenceToCLI(ref *store.TypeReference, from string) CLIReference {
	return CLIReference{
		ID:              ref.ID,
		From:            from,
		Name:            ref.Name,
		CType:           ref.CType,
		IsArray:         ref.IsArray,
		Binding:         ref.Binding,
		TargetNamespace: ref.TargetNamespace,
		TargetName:      ref.TargetName,
		TargetKind:      ref.TargetKind,
		TargetSymbolID:  ref.TargetSymbolID,
	}
}

func callableToCLI(c *store.Callable) CLICallable {
	return CLICallable{
		ID:         c.ID,
		Name:       c.Name,
		NativeName: c.NativeName,
		Kind:       c.Kind,
		Throws:     c.Throws,
		Deprecated: c.Deprecated,
	}
}

func symbolDetailToCLI(d *girbind.SymbolDetail) CLISymbolDetail {
	out := CLISymbolDetail{
		Symbol:      symbolResultToCLI(d.Symbol),
		Members:     make([]CLIMember, 0, len(d.Members)),
		TypeMembers: make([]CLITypeMember, 0, len(d.TypeMembers)),
		Relations:   make([]CLIRelation, 0, len(d.Relations)),
		Callables:   make([]CLICallable, 0, len(d.Callables)),
	}
	for _, m := range d.Members {
		out.Members = append(out.Members, CLIMember{Name: m.Name, CIdentifier: m.CIdentifier, Value: m.Value})
	}
	for _, tm := range d.TypeMembers {
		out.TypeMembers = append(out.TypeMembers, CLITypeMember{
			Name:     tm.Name,
			Kind:     tm.Kind,
			Transfer: tm.Transfer,
			Readable: tm.Readable,
			Writable: tm.Writable,
		})
	}
	for _, r := range d.Relations {
		out.Relations = append(out.Relations, CLIRelation{Kind: r.Kind, Reference: referenceToCLI(r.Reference, d.Symbol.Namespace)})
	}
	for _, c := range d.Callables {
		out.Callables = append(out.Callables, callableToCLI(c))
	}
	return out
}

func callableDetailToCLI(d *girbind.CallableDetail) CLICallableDetail {
	out := CLICallableDetail{
		Callable:   callableToCLI(d.Callable),
		Namespace:  d.Namespace,
		Parameters: make([]CLIParameter, 0, len(d.Parameters)),
	}
	for _, p := range d.Parameters {
		cp := CLIParameter{
			Name:        p.Name,
			Ordinal:     p.Ordinal,
			IsInstance:  p.IsInstance,
			IsReturn:    p.IsReturn,
			Direction:   p.Direction,
			Transfer:    p.Transfer,
			Nullable:    p.Nullable,
			ArrayLength: p.ArrayLength,
			Decisions:   make([]CLIRecordedDecision, 0, len(p.Decisions)),
		}
		if p.Reference != nil {
			ref := referenceToCLI(p.Reference, d.Namespace)
			cp.Type = &ref
		}
		for _, dec := range p.Decisions {
			cp.Decisions = append(cp.Decisions, CLIRecordedDecision{
				Direction:   dec.Direction,
				Strategy:    dec.Strategy,
				Expr:        dec.Expr,
				Placeholder: dec.Placeholder,
				Error:       dec.Error,
			})
		}
		out.Parameters = append(out.Parameters, cp)
	}
	return out
}

func typeRelationsToCLI(rels []*girbind.TypeRelation) []CLITypeRelation {
	out := make([]CLITypeRelation, 0, len(rels))
	for _, r := range rels {
		out = append(out, CLITypeRelation{Symbol: symbolResultToCLI(r.Symbol), Kind: r.Kind})
	}
	return out
}

func hierarchyToCLI(h *girbind.TypeHierarchy) CLIHierarchy {
	return CLIHierarchy{
		Symbol:        symbolResultToCLI(h.Symbol),
		Ancestors:     typeRelationsToCLI(h.Ancestors),
		Implements:    typeRelationsToCLI(h.Implements),
		Subtypes:      typeRelationsToCLI(h.Subtypes),
		ImplementedBy: typeRelationsToCLI(h.ImplementedBy),
	}
}

func graphToCLI(g *girbind.NamespaceGraph) CLIGraph {
	out := CLIGraph{
		Namespaces: make([]CLINamespace, 0, len(g.Namespaces)),
		Edges:      make([]CLIDependency, 0, len(g.Edges)),
	}
	for _, n := range g.Namespaces {
		out.Namespaces = append(out.Namespaces, CLINamespace{
			Name:          n.Name,
			Version:       n.Version,
			SymbolCount:   n.SymbolCount,
			CallableCount: n.CallableCount,
			Includes:      n.Includes,
		})
	}
	for _, e := range g.Edges {
		out.Edges = append(out.Edges, CLIDependency{From: e.From, To: e.To, References: e.References})
	}
	return out
}

func placeholdersToCLI(ps []*store.Placeholder) []CLIPlaceholder {
	out := make([]CLIPlaceholder, 0, len(ps))
	for _, p := range ps {
		out = append(out, CLIPlaceholder{
			Namespace:  p.Namespace,
			NativeName: p.NativeName,
			Parameter:  p.Parameter,
			Direction:  p.Direction,
			Strategy:   p.Strategy,
			Expr:       p.Expr,
		})
	}
	return out
}
