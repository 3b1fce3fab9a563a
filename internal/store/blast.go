package store

import "fmt"

// NamespacesReferencingSymbols returns the names of namespaces holding
// external references bound to any of the given symbols. These are the
// namespaces affected when the symbols change.
func (s *Store) NamespacesReferencingSymbols(symbolIDs []int64) ([]string, error) {
	if len(symbolIDs) == 0 {
		return nil, nil
	}
	placeholders := placeholderList(len(symbolIDs))
	query := `SELECT DISTINCT n.name
		FROM type_references t
		JOIN namespaces n ON n.id = t.namespace_id
		WHERE t.binding = 'external' AND t.target_symbol_id IN (` + placeholders + `)
		ORDER BY n.name`
	rows, err := s.db.Query(query, int64sToArgs(symbolIDs)...)
	if err != nil {
		return nil, fmt.Errorf("namespaces referencing symbols: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan namespace name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DependentNamespaces returns the namespaces with external references into
// the named namespace, whether or not those references are linked yet.
func (s *Store) DependentNamespaces(name string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT n.name
		 FROM type_references t
		 JOIN namespaces n ON n.id = t.namespace_id
		 WHERE t.binding = 'external' AND t.target_namespace = ?
		 ORDER BY n.name`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("dependent namespaces: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan namespace name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Dependencies returns the namespace dependency graph derived from external
// references, one edge per (from, to) pair.
func (s *Store) Dependencies() ([]*Dependency, error) {
	rows, err := s.db.Query(
		`SELECT n.name, t.target_namespace, COUNT(*)
		 FROM type_references t
		 JOIN namespaces n ON n.id = t.namespace_id
		 WHERE t.binding = 'external'
		 GROUP BY n.name, t.target_namespace
		 ORDER BY n.name, t.target_namespace`,
	)
	if err != nil {
		return nil, fmt.Errorf("dependencies: %w", err)
	}
	defer rows.Close()
	var out []*Dependency
	for rows.Next() {
		d := &Dependency{}
		if err := rows.Scan(&d.From, &d.To, &d.References); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
