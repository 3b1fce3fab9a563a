package store

import "fmt"

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake (negative) IDs are remapped to real
// (positive, AUTOINCREMENT) IDs, and all FK references within the batch
// are rewritten using the fakeToReal mapping.
//
// Insert order respects FK dependencies:
//  1. Namespaces (document_id is already real)
//  2. Includes (namespace_id)
//  3. Symbols (namespace_id)
//  4. Members (symbol_id)
//  5. TypeReferences (namespace_id; target_symbol_id is linked later)
//  6. Relations (symbol_id, reference_id)
//  7. Callables (namespace_id, symbol_id)
//  8. Parameters (callable_id, reference_id)
//  9. TypeMembers (symbol_id, reference_id)
//  10. MarshalDecisions (parameter_id)
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64)

	for _, ns := range batch.Namespaces {
		realID, err := insertNamespace(tx, &ns)
		if err != nil {
			return fmt.Errorf("commit batch: namespace %q: %w", ns.Name, err)
		}
		fakeToReal[ns.ID] = realID
	}

	for _, inc := range batch.Includes {
		inc.NamespaceID = remap(fakeToReal, inc.NamespaceID)
		realID, err := insertInclude(tx, &inc)
		if err != nil {
			return fmt.Errorf("commit batch: include %q: %w", inc.Name, err)
		}
		fakeToReal[inc.ID] = realID
	}

	for _, sym := range batch.Symbols {
		sym.NamespaceID = remap(fakeToReal, sym.NamespaceID)
		realID, err := insertSymbol(tx, &sym)
		if err != nil {
			return fmt.Errorf("commit batch: symbol %q: %w", sym.Name, err)
		}
		fakeToReal[sym.ID] = realID
	}

	for _, m := range batch.Members {
		m.SymbolID = remap(fakeToReal, m.SymbolID)
		realID, err := insertMember(tx, &m)
		if err != nil {
			return fmt.Errorf("commit batch: member %q: %w", m.Name, err)
		}
		fakeToReal[m.ID] = realID
	}

	for _, ref := range batch.TypeReferences {
		ref.NamespaceID = remap(fakeToReal, ref.NamespaceID)
		ref.TargetSymbolID = remapPtr(fakeToReal, ref.TargetSymbolID)
		realID, err := insertTypeReference(tx, &ref)
		if err != nil {
			return fmt.Errorf("commit batch: type reference %q: %w", ref.Name, err)
		}
		fakeToReal[ref.ID] = realID
	}

	for _, r := range batch.Relations {
		r.SymbolID = remap(fakeToReal, r.SymbolID)
		r.ReferenceID = remap(fakeToReal, r.ReferenceID)
		realID, err := insertRelation(tx, &r)
		if err != nil {
			return fmt.Errorf("commit batch: relation %q: %w", r.Kind, err)
		}
		fakeToReal[r.ID] = realID
	}

	for _, c := range batch.Callables {
		if c.NamespaceID < 0 {
			realID, ok := fakeToReal[c.NamespaceID]
			if !ok {
				return fmt.Errorf("commit batch: callable %q has namespace_id=%d not in fakeToReal map", c.Name, c.NamespaceID)
			}
			c.NamespaceID = realID
		}
		c.SymbolID = remapPtr(fakeToReal, c.SymbolID)
		realID, err := insertCallable(tx, &c)
		if err != nil {
			return fmt.Errorf("commit batch: callable %q: %w", c.Name, err)
		}
		fakeToReal[c.ID] = realID
	}

	for _, p := range batch.Parameters {
		p.CallableID = remap(fakeToReal, p.CallableID)
		p.ReferenceID = remapPtr(fakeToReal, p.ReferenceID)
		realID, err := insertParameter(tx, &p)
		if err != nil {
			return fmt.Errorf("commit batch: parameter %q: %w", p.Name, err)
		}
		fakeToReal[p.ID] = realID
	}

	for _, tm := range batch.TypeMembers {
		tm.SymbolID = remap(fakeToReal, tm.SymbolID)
		tm.ReferenceID = remapPtr(fakeToReal, tm.ReferenceID)
		realID, err := insertTypeMember(tx, &tm)
		if err != nil {
			return fmt.Errorf("commit batch: type member %q: %w", tm.Name, err)
		}
		fakeToReal[tm.ID] = realID
	}

	for _, d := range batch.MarshalDecisions {
		d.ParameterID = remap(fakeToReal, d.ParameterID)
		realID, err := insertMarshalDecision(tx, &d)
		if err != nil {
			return fmt.Errorf("commit batch: marshal decision: %w", err)
		}
		fakeToReal[d.ID] = realID
	}

	return tx.Commit()
}
