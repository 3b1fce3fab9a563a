package store

// DataStore is the interface for index-phase writes. Both Store (direct
// SQLite) and BatchedStore (in-memory buffering for parallel indexing)
// implement this interface.
type DataStore interface {
	// Inserts: each returns the assigned ID.
	InsertNamespace(ns *Namespace) (int64, error)
	InsertInclude(inc *Include) (int64, error)
	InsertSymbol(sym *Symbol) (int64, error)
	InsertMember(m *Member) (int64, error)
	InsertTypeReference(ref *TypeReference) (int64, error)
	InsertRelation(r *Relation) (int64, error)
	InsertCallable(c *Callable) (int64, error)
	InsertParameter(p *Parameter) (int64, error)
	InsertTypeMember(tm *TypeMember) (int64, error)
	InsertMarshalDecision(d *MarshalDecision) (int64, error)

	// Cross-namespace lookup.
	SymbolsByName(name string) ([]*Symbol, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
