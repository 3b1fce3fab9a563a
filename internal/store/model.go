package store

import (
	"database/sql"
	"fmt"
)

// execer is satisfied by *sql.DB and *sql.Tx so the insert helpers serve
// both direct inserts and CommitBatch.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func insert(e execer, query string, args ...any) (int64, error) {
	res, err := e.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// --- Document operations ---

// UpsertDocument records a document by path, replacing the previous hash.
func (s *Store) UpsertDocument(d *Document) (int64, error) {
	id, err := upsertDocument(s.db, d)
	if err != nil {
		return 0, fmt.Errorf("upsert document: %w", err)
	}
	d.ID = id
	return id, nil
}

func upsertDocument(e execer, d *Document) (int64, error) {
	if _, err := e.Exec(
		`INSERT INTO documents (path, namespace, version, hash, last_indexed) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET namespace = excluded.namespace, version = excluded.version,
			hash = excluded.hash, last_indexed = excluded.last_indexed`,
		d.Path, d.Namespace, d.Version, d.Hash, d.LastIndexed,
	); err != nil {
		return 0, err
	}
	var id int64
	if err := e.QueryRow("SELECT id FROM documents WHERE path = ?", d.Path).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

const documentCols = "id, path, namespace, version, hash, last_indexed"

func scanDocument(sc interface{ Scan(...any) error }) (*Document, error) {
	d := &Document{}
	var hash sql.NullString
	var indexed sql.NullTime
	if err := sc.Scan(&d.ID, &d.Path, &d.Namespace, &d.Version, &hash, &indexed); err != nil {
		return nil, err
	}
	d.Hash = hash.String
	d.LastIndexed = indexed.Time
	return d, nil
}

func (s *Store) DocumentByPath(path string) (*Document, error) {
	d, err := scanDocument(s.db.QueryRow("SELECT "+documentCols+" FROM documents WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("document by path: %w", err)
	}
	return d, nil
}

func (s *Store) Documents() ([]*Document, error) {
	rows, err := s.db.Query("SELECT " + documentCols + " FROM documents ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("documents: %w", err)
	}
	defer rows.Close()
	var docs []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// --- Namespace operations ---

func (s *Store) InsertNamespace(ns *Namespace) (int64, error) {
	id, err := insertNamespace(s.db, ns)
	if err != nil {
		return 0, fmt.Errorf("insert namespace: %w", err)
	}
	ns.ID = id
	return id, nil
}

func insertNamespace(e execer, ns *Namespace) (int64, error) {
	return insert(e,
		`INSERT INTO namespaces (document_id, name, version, shared_library, identifier_prefix, symbol_prefix)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ns.DocumentID, ns.Name, ns.Version, ns.SharedLibrary, ns.IdentifierPrefix, ns.SymbolPrefix,
	)
}

const namespaceCols = "id, document_id, name, version, shared_library, identifier_prefix, symbol_prefix"

func scanNamespace(sc interface{ Scan(...any) error }) (*Namespace, error) {
	ns := &Namespace{}
	var lib, idPrefix, symPrefix sql.NullString
	if err := sc.Scan(&ns.ID, &ns.DocumentID, &ns.Name, &ns.Version, &lib, &idPrefix, &symPrefix); err != nil {
		return nil, err
	}
	ns.SharedLibrary = lib.String
	ns.IdentifierPrefix = idPrefix.String
	ns.SymbolPrefix = symPrefix.String
	return ns, nil
}

// NamespaceByName returns nil, nil when the namespace is not indexed.
func (s *Store) NamespaceByName(name string) (*Namespace, error) {
	ns, err := scanNamespace(s.db.QueryRow("SELECT "+namespaceCols+" FROM namespaces WHERE name = ?", name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("namespace by name: %w", err)
	}
	return ns, nil
}

func (s *Store) Namespaces() ([]*Namespace, error) {
	rows, err := s.db.Query("SELECT " + namespaceCols + " FROM namespaces ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("namespaces: %w", err)
	}
	defer rows.Close()
	var out []*Namespace
	for rows.Next() {
		ns, err := scanNamespace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan namespace: %w", err)
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}

func (s *Store) InsertInclude(inc *Include) (int64, error) {
	id, err := insertInclude(s.db, inc)
	if err != nil {
		return 0, fmt.Errorf("insert include: %w", err)
	}
	inc.ID = id
	return id, nil
}

func insertInclude(e execer, inc *Include) (int64, error) {
	return insert(e, "INSERT INTO includes (namespace_id, name, version) VALUES (?, ?, ?)",
		inc.NamespaceID, inc.Name, inc.Version)
}

func (s *Store) IncludesByNamespace(namespaceID int64) ([]*Include, error) {
	rows, err := s.db.Query("SELECT id, namespace_id, name, version FROM includes WHERE namespace_id = ? ORDER BY id", namespaceID)
	if err != nil {
		return nil, fmt.Errorf("includes by namespace: %w", err)
	}
	defer rows.Close()
	var out []*Include
	for rows.Next() {
		inc := &Include{}
		var version sql.NullString
		if err := rows.Scan(&inc.ID, &inc.NamespaceID, &inc.Name, &version); err != nil {
			return nil, fmt.Errorf("scan include: %w", err)
		}
		inc.Version = version.String
		out = append(out, inc)
	}
	return out, rows.Err()
}

// --- Symbol operations ---

func (s *Store) InsertSymbol(sym *Symbol) (int64, error) {
	id, err := insertSymbol(s.db, sym)
	if err != nil {
		return 0, fmt.Errorf("insert symbol: %w", err)
	}
	sym.ID = id
	return id, nil
}

func insertSymbol(e execer, sym *Symbol) (int64, error) {
	return insert(e,
		`INSERT INTO symbols (namespace_id, name, managed_name, kind, c_type, abstract, fundamental, signature_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.NamespaceID, sym.Name, sym.ManagedName, sym.Kind, sym.CType, sym.Abstract, sym.Fundamental, sym.SignatureHash,
	)
}

const symbolCols = "id, namespace_id, name, managed_name, kind, c_type, abstract, fundamental, signature_hash"

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var syms []*Symbol
	for rows.Next() {
		sym := &Symbol{}
		var ctype, hash sql.NullString
		if err := rows.Scan(&sym.ID, &sym.NamespaceID, &sym.Name, &sym.ManagedName, &sym.Kind,
			&ctype, &sym.Abstract, &sym.Fundamental, &hash); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		sym.CType = ctype.String
		sym.SignatureHash = hash.String
		syms = append(syms, sym)
	}
	return syms, rows.Err()
}

func (s *Store) SymbolByID(id int64) (*Symbol, error) {
	syms, err := s.querySymbols("SELECT "+symbolCols+" FROM symbols WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("symbol by id: %w", err)
	}
	if len(syms) == 0 {
		return nil, nil
	}
	return syms[0], nil
}

// SymbolsByName matches the unqualified name across every namespace.
func (s *Store) SymbolsByName(name string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+symbolCols+" FROM symbols WHERE name = ? ORDER BY id", name)
}

func (s *Store) SymbolsByNamespace(namespaceID int64) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+symbolCols+" FROM symbols WHERE namespace_id = ? ORDER BY id", namespaceID)
}

// SymbolsByKind lists symbols of one kind; namespaceID 0 means every namespace.
func (s *Store) SymbolsByKind(namespaceID int64, kind string) ([]*Symbol, error) {
	if namespaceID == 0 {
		return s.querySymbols("SELECT "+symbolCols+" FROM symbols WHERE kind = ? ORDER BY id", kind)
	}
	return s.querySymbols("SELECT "+symbolCols+" FROM symbols WHERE namespace_id = ? AND kind = ? ORDER BY id",
		namespaceID, kind)
}

// SymbolByQualifiedName looks up "Ns.Name".
func (s *Store) SymbolByQualifiedName(namespace, name string) (*Symbol, error) {
	syms, err := s.querySymbols(
		`SELECT s.id, s.namespace_id, s.name, s.managed_name, s.kind, s.c_type, s.abstract, s.fundamental, s.signature_hash
		 FROM symbols s JOIN namespaces n ON n.id = s.namespace_id
		 WHERE n.name = ? AND s.name = ?`, namespace, name,
	)
	if err != nil {
		return nil, fmt.Errorf("symbol by qualified name: %w", err)
	}
	if len(syms) == 0 {
		return nil, nil
	}
	return syms[0], nil
}

func (s *Store) InsertMember(m *Member) (int64, error) {
	id, err := insertMember(s.db, m)
	if err != nil {
		return 0, fmt.Errorf("insert member: %w", err)
	}
	m.ID = id
	return id, nil
}

func insertMember(e execer, m *Member) (int64, error) {
	return insert(e, "INSERT INTO members (symbol_id, name, managed_name, c_identifier, value) VALUES (?, ?, ?, ?, ?)",
		m.SymbolID, m.Name, m.ManagedName, m.CIdentifier, m.Value)
}

func (s *Store) MembersBySymbol(symbolID int64) ([]*Member, error) {
	rows, err := s.db.Query(
		"SELECT id, symbol_id, name, managed_name, c_identifier, value FROM members WHERE symbol_id = ? ORDER BY id", symbolID,
	)
	if err != nil {
		return nil, fmt.Errorf("members by symbol: %w", err)
	}
	defer rows.Close()
	var out []*Member
	for rows.Next() {
		m := &Member{}
		var cid sql.NullString
		if err := rows.Scan(&m.ID, &m.SymbolID, &m.Name, &m.ManagedName, &cid, &m.Value); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.CIdentifier = cid.String
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- Callable operations ---

func (s *Store) InsertCallable(c *Callable) (int64, error) {
	id, err := insertCallable(s.db, c)
	if err != nil {
		return 0, fmt.Errorf("insert callable: %w", err)
	}
	c.ID = id
	return id, nil
}

func insertCallable(e execer, c *Callable) (int64, error) {
	return insert(e,
		`INSERT INTO callables (namespace_id, symbol_id, name, managed_name, native_name, kind,
			throws, deprecated, introspectable, moved_to)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.NamespaceID, c.SymbolID, c.Name, c.ManagedName, c.NativeName, c.Kind,
		c.Throws, c.Deprecated, c.Introspectable, c.MovedTo,
	)
}

const callableCols = "id, namespace_id, symbol_id, name, managed_name, native_name, kind, throws, deprecated, introspectable, moved_to"

func (s *Store) queryCallables(query string, args ...any) ([]*Callable, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Callable
	for rows.Next() {
		c := &Callable{}
		var native, moved sql.NullString
		if err := rows.Scan(&c.ID, &c.NamespaceID, &c.SymbolID, &c.Name, &c.ManagedName, &native, &c.Kind,
			&c.Throws, &c.Deprecated, &c.Introspectable, &moved); err != nil {
			return nil, fmt.Errorf("scan callable: %w", err)
		}
		c.NativeName = native.String
		c.MovedTo = moved.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// CallablesBySymbol lists the constructors, methods, functions, signals and
// get-type function owned by a symbol, in insertion order.
func (s *Store) CallablesBySymbol(symbolID int64) ([]*Callable, error) {
	return s.queryCallables("SELECT "+callableCols+" FROM callables WHERE symbol_id = ? ORDER BY id", symbolID)
}

// FunctionsByNamespace lists the namespace-level functions.
func (s *Store) FunctionsByNamespace(namespaceID int64) ([]*Callable, error) {
	return s.queryCallables("SELECT "+callableCols+" FROM callables WHERE namespace_id = ? AND symbol_id IS NULL ORDER BY id",
		namespaceID)
}

// CallableByNativeName finds a callable by its native entry point.
func (s *Store) CallableByNativeName(native string) (*Callable, error) {
	cs, err := s.queryCallables("SELECT "+callableCols+" FROM callables WHERE native_name = ? ORDER BY id LIMIT 1", native)
	if err != nil {
		return nil, fmt.Errorf("callable by native name: %w", err)
	}
	if len(cs) == 0 {
		return nil, nil
	}
	return cs[0], nil
}

func (s *Store) InsertParameter(p *Parameter) (int64, error) {
	id, err := insertParameter(s.db, p)
	if err != nil {
		return 0, fmt.Errorf("insert parameter: %w", err)
	}
	p.ID = id
	return id, nil
}

func insertParameter(e execer, p *Parameter) (int64, error) {
	return insert(e,
		`INSERT INTO parameters (callable_id, name, managed_name, ordinal, is_instance, is_return, direction,
			transfer, nullable, is_pointer, array_length, zero_terminated, caller_allocates, reference_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.CallableID, p.Name, p.ManagedName, p.Ordinal, p.IsInstance, p.IsReturn, p.Direction,
		p.Transfer, p.Nullable, p.IsPointer, p.ArrayLength, p.ZeroTerminated, p.CallerAllocates, p.ReferenceID,
	)
}

// ParametersByCallable returns parameters ordered by ordinal; the return
// value, when stored, comes last.
func (s *Store) ParametersByCallable(callableID int64) ([]*Parameter, error) {
	rows, err := s.db.Query(
		`SELECT id, callable_id, name, managed_name, ordinal, is_instance, is_return, direction, transfer,
			nullable, is_pointer, array_length, zero_terminated, caller_allocates, reference_id
		 FROM parameters WHERE callable_id = ? ORDER BY is_return, ordinal`, callableID,
	)
	if err != nil {
		return nil, fmt.Errorf("parameters by callable: %w", err)
	}
	defer rows.Close()
	var out []*Parameter
	for rows.Next() {
		p := &Parameter{}
		var dir sql.NullString
		var length sql.NullInt64
		if err := rows.Scan(&p.ID, &p.CallableID, &p.Name, &p.ManagedName, &p.Ordinal, &p.IsInstance, &p.IsReturn,
			&dir, &p.Transfer, &p.Nullable, &p.IsPointer, &length, &p.ZeroTerminated, &p.CallerAllocates,
			&p.ReferenceID); err != nil {
			return nil, fmt.Errorf("scan parameter: %w", err)
		}
		p.Direction = dir.String
		if length.Valid {
			n := int(length.Int64)
			p.ArrayLength = &n
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- Type member operations ---

func (s *Store) InsertTypeMember(tm *TypeMember) (int64, error) {
	id, err := insertTypeMember(s.db, tm)
	if err != nil {
		return 0, fmt.Errorf("insert type member: %w", err)
	}
	tm.ID = id
	return id, nil
}

func insertTypeMember(e execer, tm *TypeMember) (int64, error) {
	return insert(e,
		`INSERT INTO type_members (symbol_id, name, managed_name, kind, transfer, readable, writable, reference_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tm.SymbolID, tm.Name, tm.ManagedName, tm.Kind, tm.Transfer, tm.Readable, tm.Writable, tm.ReferenceID,
	)
}

func (s *Store) TypeMembers(symbolID int64) ([]*TypeMember, error) {
	rows, err := s.db.Query(
		`SELECT id, symbol_id, name, managed_name, kind, transfer, readable, writable, reference_id
		 FROM type_members WHERE symbol_id = ? ORDER BY id`, symbolID,
	)
	if err != nil {
		return nil, fmt.Errorf("type members: %w", err)
	}
	defer rows.Close()
	var out []*TypeMember
	for rows.Next() {
		tm := &TypeMember{}
		var transfer sql.NullString
		if err := rows.Scan(&tm.ID, &tm.SymbolID, &tm.Name, &tm.ManagedName, &tm.Kind, &transfer,
			&tm.Readable, &tm.Writable, &tm.ReferenceID); err != nil {
			return nil, fmt.Errorf("scan type member: %w", err)
		}
		tm.Transfer = transfer.String
		out = append(out, tm)
	}
	return out, rows.Err()
}
