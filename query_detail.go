package girbind

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jward/girbind/internal/store"
)

// SymbolDetail bundles a symbol with all of its structural metadata.
type SymbolDetail struct {
	Symbol      SymbolResult
	Members     []*store.Member     // enumeration values (empty for non-enumerations)
	TypeMembers []*store.TypeMember // properties and fields
	Relations   []RelationDetail    // parent, implements, prerequisite, alias_of, constant_type
	Callables   []*store.Callable   // constructors, methods, functions, get_type, signals
}

// RelationDetail is a forward relation with its reference.
type RelationDetail struct {
	Kind      string
	Reference *store.TypeReference
}

// ParameterDetail is one parameter or return value of a callable with the
// marshaling decisions recorded for it.
type ParameterDetail struct {
	*store.Parameter
	Reference *store.TypeReference // nil for varargs and untyped values
	Decisions []*store.MarshalDecision
}

// CallableDetail is a callable with its parameters in ordinal order. The
// return value comes last.
type CallableDetail struct {
	*store.Callable
	Namespace  string
	Parameters []ParameterDetail
}

// SymbolDetail returns the symbol named name in namespace with its
// members, relations and callables. Returns nil with no error if the
// symbol is not indexed.
func (q *QueryBuilder) SymbolDetail(namespace, name string) (*SymbolDetail, error) {
	sym, err := q.store.SymbolByQualifiedName(namespace, name)
	if err != nil {
		return nil, fmt.Errorf("symbol detail: %w", err)
	}
	if sym == nil {
		return nil, nil
	}
	sr, err := q.symbolResultByID(sym.ID)
	if err != nil {
		return nil, fmt.Errorf("symbol detail: %w", err)
	}

	members, err := q.store.MembersBySymbol(sym.ID)
	if err != nil {
		return nil, fmt.Errorf("symbol detail: members: %w", err)
	}
	typeMembers, err := q.store.TypeMembers(sym.ID)
	if err != nil {
		return nil, fmt.Errorf("symbol detail: type members: %w", err)
	}
	callables, err := q.store.CallablesBySymbol(sym.ID)
	if err != nil {
		return nil, fmt.Errorf("symbol detail: callables: %w", err)
	}
	relations, err := q.relations(sym.ID)
	if err != nil {
		return nil, fmt.Errorf("symbol detail: %w", err)
	}

	if members == nil {
		members = []*store.Member{}
	}
	if typeMembers == nil {
		typeMembers = []*store.TypeMember{}
	}
	if callables == nil {
		callables = []*store.Callable{}
	}

	return &SymbolDetail{
		Symbol:      *sr,
		Members:     members,
		TypeMembers: typeMembers,
		Relations:   relations,
		Callables:   callables,
	}, nil
}

// CallableDetail returns the callable with the given native name and the
// decisions recorded for each of its values. Returns nil with no error if
// no such callable is indexed.
func (q *QueryBuilder) CallableDetail(nativeName string) (*CallableDetail, error) {
	c, err := q.store.CallableByNativeName(nativeName)
	if err != nil {
		return nil, fmt.Errorf("callable detail: %w", err)
	}
	if c == nil {
		return nil, nil
	}

	var ns string
	err = q.store.DB().QueryRow("SELECT name FROM namespaces WHERE id = ?", c.NamespaceID).Scan(&ns)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("callable detail: namespace: %w", err)
	}

	params, err := q.store.ParametersByCallable(c.ID)
	if err != nil {
		return nil, fmt.Errorf("callable detail: parameters: %w", err)
	}

	detail := &CallableDetail{Callable: c, Namespace: ns, Parameters: make([]ParameterDetail, 0, len(params))}
	for _, p := range params {
		pd := ParameterDetail{Parameter: p}
		if p.ReferenceID != nil {
			ref, err := q.store.TypeReferenceByID(*p.ReferenceID)
			if err != nil {
				return nil, fmt.Errorf("callable detail: reference: %w", err)
			}
			pd.Reference = ref
		}
		decisions, err := q.store.MarshalDecisions(p.ID)
		if err != nil {
			return nil, fmt.Errorf("callable detail: decisions: %w", err)
		}
		if decisions == nil {
			decisions = []*store.MarshalDecision{}
		}
		pd.Decisions = decisions
		detail.Parameters = append(detail.Parameters, pd)
	}
	return detail, nil
}

func (q *QueryBuilder) relations(symbolID int64) ([]RelationDetail, error) {
	rels, err := q.store.RelationsBySymbol(symbolID)
	if err != nil {
		return nil, fmt.Errorf("relations: %w", err)
	}
	out := make([]RelationDetail, 0, len(rels))
	for _, r := range rels {
		ref, err := q.store.TypeReferenceByID(r.ReferenceID)
		if err != nil {
			return nil, fmt.Errorf("relations: reference: %w", err)
		}
		out = append(out, RelationDetail{Kind: r.Kind, Reference: ref})
	}
	return out, nil
}

// symbolResultByID loads a single SymbolResult with ref counts.
// Returns nil if the symbol does not exist.
func (q *QueryBuilder) symbolResultByID(symbolID int64) (*SymbolResult, error) {
	rows, err := q.store.DB().Query(
		`SELECT s.id, s.namespace_id, s.name, s.managed_name, s.kind, COALESCE(s.c_type, ''),
			s.abstract, s.fundamental, COALESCE(s.signature_hash, ''), n.name,
			(SELECT COUNT(*) FROM type_references t WHERE t.target_symbol_id = s.id),
			(SELECT COUNT(*) FROM type_references t WHERE t.target_symbol_id = s.id AND t.namespace_id != s.namespace_id)
		 FROM symbols s
		 JOIN namespaces n ON n.id = s.namespace_id
		 WHERE s.id = ?`, symbolID,
	)
	if err != nil {
		return nil, fmt.Errorf("symbol result: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	sr, err := scanSymbolResult(rows)
	if err != nil {
		return nil, fmt.Errorf("symbol result: scan: %w", err)
	}
	return &sr, nil
}
