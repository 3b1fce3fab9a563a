package store

import "sync"

// BatchedStore buffers index inserts in memory using fake (negative) IDs.
// It implements DataStore so the indexer can write to it without knowing
// whether it is hitting SQLite or an in-memory buffer.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
// SymbolsByName is passed through to the underlying Store, which is safe
// for concurrent reads.
type BatchedStore struct {
	store *Store // for read passthrough
	mu    sync.Mutex

	// Buffered index data.
	Namespaces       []Namespace
	Includes         []Include
	Symbols          []Symbol
	Members          []Member
	TypeReferences   []TypeReference
	Relations        []Relation
	Callables        []Callable
	Parameters       []Parameter
	TypeMembers      []TypeMember
	MarshalDecisions []MarshalDecision

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore backed by the given Store for read queries.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{
		store:      s,
		nextFakeID: -1,
	}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertNamespace(ns *Namespace) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ns.ID = b.allocFakeID()
	b.Namespaces = append(b.Namespaces, *ns)
	return ns.ID, nil
}

func (b *BatchedStore) InsertInclude(inc *Include) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	inc.ID = b.allocFakeID()
	b.Includes = append(b.Includes, *inc)
	return inc.ID, nil
}

func (b *BatchedStore) InsertSymbol(sym *Symbol) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sym.ID = b.allocFakeID()
	b.Symbols = append(b.Symbols, *sym)
	return sym.ID, nil
}

func (b *BatchedStore) InsertMember(m *Member) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m.ID = b.allocFakeID()
	b.Members = append(b.Members, *m)
	return m.ID, nil
}

func (b *BatchedStore) InsertTypeReference(ref *TypeReference) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ref.ID = b.allocFakeID()
	b.TypeReferences = append(b.TypeReferences, *ref)
	return ref.ID, nil
}

func (b *BatchedStore) InsertRelation(r *Relation) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r.ID = b.allocFakeID()
	b.Relations = append(b.Relations, *r)
	return r.ID, nil
}

func (b *BatchedStore) InsertCallable(c *Callable) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.ID = b.allocFakeID()
	b.Callables = append(b.Callables, *c)
	return c.ID, nil
}

func (b *BatchedStore) InsertParameter(p *Parameter) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p.ID = b.allocFakeID()
	b.Parameters = append(b.Parameters, *p)
	return p.ID, nil
}

func (b *BatchedStore) InsertTypeMember(tm *TypeMember) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tm.ID = b.allocFakeID()
	b.TypeMembers = append(b.TypeMembers, *tm)
	return tm.ID, nil
}

func (b *BatchedStore) InsertMarshalDecision(d *MarshalDecision) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d.ID = b.allocFakeID()
	b.MarshalDecisions = append(b.MarshalDecisions, *d)
	return d.ID, nil
}

// SymbolsByName merges committed symbols with buffered ones of the same name.
func (b *BatchedStore) SymbolsByName(name string) ([]*Symbol, error) {
	dbSyms, err := b.store.SymbolsByName(name)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Symbols {
		if b.Symbols[i].Name == name {
			dbSyms = append(dbSyms, &b.Symbols[i])
		}
	}
	return dbSyms, nil
}
