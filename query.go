package girbind

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jward/girbind/internal/store"
)

// QueryBuilder provides read access to an indexed model.
type QueryBuilder struct {
	store *store.Store
}

// NewQueryBuilder creates a QueryBuilder over an existing index.
func NewQueryBuilder(s *store.Store) *QueryBuilder {
	return &QueryBuilder{store: s}
}

// --- Common Types ---

// Pagination controls offset+limit paging on list/search results.
type Pagination struct {
	Offset int // skip this many results (default 0)
	Limit  int // max results to return (default 50, max 500)
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// normalize returns a Pagination with defaults applied and bounds enforced.
func (p Pagination) normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// SortField specifies how to order results.
type SortField string

const (
	SortByName             SortField = "name"
	SortByKind             SortField = "kind"
	SortByNamespace        SortField = "namespace"
	SortByRefCount         SortField = "ref_count"
	SortByExternalRefCount SortField = "external_ref_count"
)

// SortOrder specifies ascending or descending.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Sort controls result ordering.
type Sort struct {
	Field SortField
	Order SortOrder
}

// SymbolResult extends Symbol with computed fields useful for discovery.
type SymbolResult struct {
	store.Symbol
	Namespace        string // owning namespace name
	RefCount         int    // linked references targeting this symbol
	ExternalRefCount int    // linked references from other namespaces
}

// PagedResult wraps a page of results with total count for pagination.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int // total matching results (before pagination)
}

// SymbolFilter specifies which symbols to include.
type SymbolFilter struct {
	Kinds     []string // match any of these kinds
	Namespace *string  // restrict to one namespace
}

// --- Internal Helpers ---

// escapeLike escapes SQL LIKE wildcards in s.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// symbolSortColumn returns the SQL ORDER BY expression for symbol queries.
// Falls back to "s.name" for unknown fields.
func symbolSortColumn(field SortField) string {
	switch field {
	case SortByKind:
		return "s.kind"
	case SortByNamespace:
		return "n.name"
	case SortByRefCount:
		return "ref_count"
	case SortByExternalRefCount:
		return "external_ref_count"
	default:
		return "s.name"
	}
}

// sortDirection returns "ASC" or "DESC".
func sortDirection(order SortOrder) string {
	if order == Desc {
		return "DESC"
	}
	return "ASC"
}

// symbolWhere builds the WHERE clause shared by Symbols and SearchSymbols.
func symbolWhere(pattern string, filter SymbolFilter) (string, []any) {
	var where []string
	var args []any

	// Pattern matching: escape literal % and _ first, then convert * to %
	if pattern != "" && pattern != "*" {
		likePattern := strings.ReplaceAll(escapeLike(pattern), "*", "%")
		where = append(where, "s.name LIKE ? ESCAPE '\\'")
		args = append(args, likePattern)
	}
	if len(filter.Kinds) > 0 {
		placeholders := strings.Repeat("?,", len(filter.Kinds)-1) + "?"
		where = append(where, "s.kind IN ("+placeholders+")")
		for _, k := range filter.Kinds {
			args = append(args, k)
		}
	}
	if filter.Namespace != nil {
		where = append(where, "n.name = ?")
		args = append(args, *filter.Namespace)
	}

	if len(where) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(where, " AND "), args
}

func (q *QueryBuilder) pagedSymbols(op, pattern string, filter SymbolFilter, sort Sort, page Pagination) (*PagedResult[SymbolResult], error) {
	page = page.normalize()
	whereClause, args := symbolWhere(pattern, filter)

	countSQL := `SELECT COUNT(*) FROM symbols s JOIN namespaces n ON n.id = s.namespace_id ` + whereClause
	var totalCount int
	if err := q.store.DB().QueryRow(countSQL, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("%s: count: %w", op, err)
	}

	dataSQL := fmt.Sprintf(
		`SELECT s.id, s.namespace_id, s.name, s.managed_name, s.kind, COALESCE(s.c_type, ''),
			s.abstract, s.fundamental, COALESCE(s.signature_hash, ''), n.name,
			(SELECT COUNT(*) FROM type_references t WHERE t.target_symbol_id = s.id) AS ref_count,
			(SELECT COUNT(*) FROM type_references t WHERE t.target_symbol_id = s.id AND t.namespace_id != s.namespace_id) AS external_ref_count
		 FROM symbols s
		 JOIN namespaces n ON n.id = s.namespace_id
		 %s
		 ORDER BY %s %s, s.id
		 LIMIT ? OFFSET ?`,
		whereClause, symbolSortColumn(sort.Field), sortDirection(sort.Order),
	)
	dataArgs := append(append([]any{}, args...), page.Limit, page.Offset)

	rows, err := q.store.DB().Query(dataSQL, dataArgs...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	items := []SymbolResult{}
	for rows.Next() {
		sr, err := scanSymbolResult(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		items = append(items, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return &PagedResult[SymbolResult]{Items: items, TotalCount: totalCount}, nil
}

func scanSymbolResult(rows *sql.Rows) (SymbolResult, error) {
	var sr SymbolResult
	err := rows.Scan(
		&sr.ID, &sr.NamespaceID, &sr.Name, &sr.ManagedName, &sr.Kind, &sr.CType,
		&sr.Abstract, &sr.Fundamental, &sr.SignatureHash, &sr.Namespace,
		&sr.RefCount, &sr.ExternalRefCount,
	)
	return sr, err
}

// --- Enumeration Endpoints ---

// Namespaces lists every indexed namespace ordered by name.
func (q *QueryBuilder) Namespaces() ([]*store.Namespace, error) {
	return q.store.Namespaces()
}

// Symbols is the primary listing/filtering endpoint. All filter fields are optional.
func (q *QueryBuilder) Symbols(filter SymbolFilter, sort Sort, page Pagination) (*PagedResult[SymbolResult], error) {
	return q.pagedSymbols("symbols", "", filter, sort, page)
}

// SearchSymbols performs glob-style search on symbol names.
// '*' is the wildcard (mapped to SQL '%').
func (q *QueryBuilder) SearchSymbols(pattern string, filter SymbolFilter, sort Sort, page Pagination) (*PagedResult[SymbolResult], error) {
	return q.pagedSymbols("search symbols", pattern, filter, sort, page)
}

// Symbol looks up one symbol by namespace and GIR name. It returns nil
// when no such symbol is indexed.
func (q *QueryBuilder) Symbol(namespace, name string) (*store.Symbol, error) {
	sym, err := q.store.SymbolByQualifiedName(namespace, name)
	if err != nil {
		return nil, fmt.Errorf("symbol %s.%s: %w", namespace, name, err)
	}
	return sym, nil
}

// Placeholders lists the recoverable marshaling gaps of the index, or the
// unsupported conversions when unsupported is set.
func (q *QueryBuilder) Placeholders(unsupported bool) ([]*store.Placeholder, error) {
	ps, err := q.store.Placeholders(unsupported)
	if err != nil {
		return nil, fmt.Errorf("placeholders: %w", err)
	}
	return ps, nil
}
