package store

import (
	"database/sql"
	"fmt"
)

// --- TypeReference operations ---

func (s *Store) InsertTypeReference(ref *TypeReference) (int64, error) {
	id, err := insertTypeReference(s.db, ref)
	if err != nil {
		return 0, fmt.Errorf("insert type reference: %w", err)
	}
	ref.ID = id
	return id, nil
}

func insertTypeReference(e execer, ref *TypeReference) (int64, error) {
	return insert(e,
		`INSERT INTO type_references (namespace_id, name, c_type, is_array, binding,
			target_namespace, target_name, target_kind, target_symbol_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ref.NamespaceID, ref.Name, ref.CType, ref.IsArray, ref.Binding,
		ref.TargetNamespace, ref.TargetName, ref.TargetKind, ref.TargetSymbolID,
	)
}

const typeRefCols = `id, namespace_id, name, c_type, is_array, binding, target_namespace, target_name, target_kind, target_symbol_id`

func (s *Store) queryTypeRefs(query string, args ...any) ([]*TypeReference, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []*TypeReference
	for rows.Next() {
		r := &TypeReference{}
		var ctype, targetNS sql.NullString
		if err := rows.Scan(&r.ID, &r.NamespaceID, &r.Name, &ctype, &r.IsArray, &r.Binding,
			&targetNS, &r.TargetName, &r.TargetKind, &r.TargetSymbolID); err != nil {
			return nil, fmt.Errorf("scan type reference: %w", err)
		}
		r.CType = ctype.String
		r.TargetNamespace = targetNS.String
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

func (s *Store) TypeReferenceByID(id int64) (*TypeReference, error) {
	refs, err := s.queryTypeRefs("SELECT "+typeRefCols+" FROM type_references WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("type reference by id: %w", err)
	}
	if len(refs) == 0 {
		return nil, nil
	}
	return refs[0], nil
}

// ReferencesByNamespace lists every reference registered by a namespace;
// binding filters to "internal" or "external" when non-empty.
func (s *Store) ReferencesByNamespace(namespaceID int64, binding string) ([]*TypeReference, error) {
	if binding == "" {
		return s.queryTypeRefs("SELECT "+typeRefCols+" FROM type_references WHERE namespace_id = ? ORDER BY id", namespaceID)
	}
	return s.queryTypeRefs("SELECT "+typeRefCols+" FROM type_references WHERE namespace_id = ? AND binding = ? ORDER BY id",
		namespaceID, binding)
}

// ReferencesToSymbol lists every reference bound to a symbol, from any
// namespace.
func (s *Store) ReferencesToSymbol(symbolID int64) ([]*TypeReference, error) {
	return s.queryTypeRefs("SELECT "+typeRefCols+" FROM type_references WHERE target_symbol_id = ? ORDER BY id", symbolID)
}

// LinkReferences binds target_symbol_id for every reference whose target
// namespace is indexed. Run after all batches are committed; returns the
// number of references linked.
func (s *Store) LinkReferences() (int64, error) {
	res, err := s.db.Exec(
		`UPDATE type_references SET target_symbol_id = (
			SELECT s.id FROM symbols s JOIN namespaces n ON n.id = s.namespace_id
			WHERE n.name = type_references.target_namespace AND s.name = type_references.target_name
		)
		WHERE target_symbol_id IS NULL AND target_namespace IS NOT NULL AND target_namespace != ''`,
	)
	if err != nil {
		return 0, fmt.Errorf("link references: %w", err)
	}
	return res.RowsAffected()
}

// DanglingReferences lists non-fundamental references whose target is not
// indexed, typically because the target namespace was never loaded.
func (s *Store) DanglingReferences() ([]*TypeReference, error) {
	return s.queryTypeRefs(
		"SELECT " + typeRefCols + ` FROM type_references
		 WHERE target_symbol_id IS NULL AND target_namespace IS NOT NULL AND target_namespace != '' ORDER BY id`,
	)
}

// --- Relation operations ---

func (s *Store) InsertRelation(r *Relation) (int64, error) {
	id, err := insertRelation(s.db, r)
	if err != nil {
		return 0, fmt.Errorf("insert relation: %w", err)
	}
	r.ID = id
	return id, nil
}

func insertRelation(e execer, r *Relation) (int64, error) {
	return insert(e, "INSERT INTO relations (symbol_id, kind, reference_id) VALUES (?, ?, ?)",
		r.SymbolID, r.Kind, r.ReferenceID)
}

func (s *Store) RelationsBySymbol(symbolID int64) ([]*Relation, error) {
	rows, err := s.db.Query("SELECT id, symbol_id, kind, reference_id FROM relations WHERE symbol_id = ? ORDER BY id", symbolID)
	if err != nil {
		return nil, fmt.Errorf("relations by symbol: %w", err)
	}
	defer rows.Close()
	var out []*Relation
	for rows.Next() {
		r := &Relation{}
		if err := rows.Scan(&r.ID, &r.SymbolID, &r.Kind, &r.ReferenceID); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RelatedSymbols returns the symbols whose relation of the given kind
// targets symbolID: subclasses for "parent", implementors for "implements".
func (s *Store) RelatedSymbols(symbolID int64, kind string) ([]*Symbol, error) {
	return s.querySymbols(
		`SELECT s.id, s.namespace_id, s.name, s.managed_name, s.kind, s.c_type, s.abstract, s.fundamental, s.signature_hash
		 FROM relations r
		 JOIN type_references t ON t.id = r.reference_id
		 JOIN symbols s ON s.id = r.symbol_id
		 WHERE t.target_symbol_id = ? AND r.kind = ?
		 ORDER BY s.id`, symbolID, kind,
	)
}

// --- MarshalDecision operations ---

func (s *Store) InsertMarshalDecision(d *MarshalDecision) (int64, error) {
	id, err := insertMarshalDecision(s.db, d)
	if err != nil {
		return 0, fmt.Errorf("insert marshal decision: %w", err)
	}
	d.ID = id
	return id, nil
}

func insertMarshalDecision(e execer, d *MarshalDecision) (int64, error) {
	return insert(e,
		`INSERT INTO marshal_decisions (parameter_id, direction, rule, strategy, expr,
			ownership_transferred, placeholder, element_wise, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ParameterID, d.Direction, d.Rule, d.Strategy, d.Expr,
		d.OwnershipTransferred, d.Placeholder, d.ElementWise, d.Error,
	)
}

func (s *Store) MarshalDecisions(parameterID int64) ([]*MarshalDecision, error) {
	rows, err := s.db.Query(
		`SELECT id, parameter_id, direction, rule, strategy, expr, ownership_transferred, placeholder, element_wise, error
		 FROM marshal_decisions WHERE parameter_id = ? ORDER BY id`, parameterID,
	)
	if err != nil {
		return nil, fmt.Errorf("marshal decisions: %w", err)
	}
	defer rows.Close()
	var out []*MarshalDecision
	for rows.Next() {
		d := &MarshalDecision{}
		var rule, strategy, expr, errText sql.NullString
		if err := rows.Scan(&d.ID, &d.ParameterID, &d.Direction, &rule, &strategy, &expr,
			&d.OwnershipTransferred, &d.Placeholder, &d.ElementWise, &errText); err != nil {
			return nil, fmt.Errorf("scan marshal decision: %w", err)
		}
		d.Rule = rule.String
		d.Strategy = strategy.String
		d.Expr = expr.String
		d.Error = errText.String
		out = append(out, d)
	}
	return out, rows.Err()
}

// Placeholders lists every recoverable marshaling gap, or with unsupported
// set, every conversion that has no strategy at all.
func (s *Store) Placeholders(unsupported bool) ([]*Placeholder, error) {
	where := "d.placeholder = 1"
	if unsupported {
		where = "d.error IS NOT NULL AND d.error != ''"
	}
	rows, err := s.db.Query(
		`SELECT n.name, c.native_name, p.name, d.direction, d.strategy, COALESCE(NULLIF(d.expr, ''), d.error)
		 FROM marshal_decisions d
		 JOIN parameters p ON p.id = d.parameter_id
		 JOIN callables c ON c.id = p.callable_id
		 JOIN namespaces n ON n.id = c.namespace_id
		 WHERE ` + where + `
		 ORDER BY n.name, c.id, p.is_return, p.ordinal, d.direction`,
	)
	if err != nil {
		return nil, fmt.Errorf("placeholders: %w", err)
	}
	defer rows.Close()
	var out []*Placeholder
	for rows.Next() {
		p := &Placeholder{}
		var native, strategy, expr sql.NullString
		if err := rows.Scan(&p.Namespace, &native, &p.Parameter, &p.Direction, &strategy, &expr); err != nil {
			return nil, fmt.Errorf("scan placeholder: %w", err)
		}
		p.NativeName = native.String
		p.Strategy = strategy.String
		p.Expr = expr.String
		out = append(out, p)
	}
	return out, rows.Err()
}
