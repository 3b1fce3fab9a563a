package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchedStore_SymbolsByName_MergesWithDatabase(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ns := insertTestNamespace(t, s, "Gtk")
	insertTestSymbol(t, s, ns.ID, "Widget", "class")

	batch := NewBatchedStore(s)
	id, err := batch.InsertSymbol(&Symbol{NamespaceID: ns.ID, Name: "Widget", ManagedName: "Widget", Kind: "record"})
	require.NoError(t, err)
	assert.Negative(t, id, "batched IDs should be negative")
	_, err = batch.InsertSymbol(&Symbol{NamespaceID: ns.ID, Name: "Other", ManagedName: "Other", Kind: "record"})
	require.NoError(t, err)

	syms, err := batch.SymbolsByName("Widget")
	require.NoError(t, err)
	require.Len(t, syms, 2)
	assert.Positive(t, syms[0].ID)
	assert.Negative(t, syms[1].ID)
}

func TestCommitBatch_RemapsFakeIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	batch := NewBatchedStore(s)

	ns := &Namespace{Name: "Gtk", Version: "4.0"}
	_, err := batch.InsertNamespace(ns)
	require.NoError(t, err)
	_, err = batch.InsertInclude(&Include{NamespaceID: ns.ID, Name: "GObject", Version: "2.0"})
	require.NoError(t, err)

	widget := &Symbol{NamespaceID: ns.ID, Name: "Widget", ManagedName: "Widget", Kind: "class"}
	_, err = batch.InsertSymbol(widget)
	require.NoError(t, err)
	enum := &Symbol{NamespaceID: ns.ID, Name: "Align", ManagedName: "Align", Kind: "enumeration"}
	_, err = batch.InsertSymbol(enum)
	require.NoError(t, err)
	_, err = batch.InsertMember(&Member{SymbolID: enum.ID, Name: "fill", ManagedName: "Fill"})
	require.NoError(t, err)

	selfRef := &TypeReference{
		NamespaceID: ns.ID, Name: "Widget", Binding: "internal",
		TargetNamespace: "Gtk", TargetName: "Widget", TargetKind: "class", TargetSymbolID: &widget.ID,
	}
	_, err = batch.InsertTypeReference(selfRef)
	require.NoError(t, err)
	parentRef := &TypeReference{
		NamespaceID: ns.ID, Name: "GObject.Object", Binding: "external",
		TargetNamespace: "GObject", TargetName: "Object", TargetKind: "class",
	}
	_, err = batch.InsertTypeReference(parentRef)
	require.NoError(t, err)
	_, err = batch.InsertRelation(&Relation{SymbolID: widget.ID, Kind: RelationParent, ReferenceID: parentRef.ID})
	require.NoError(t, err)

	method := &Callable{NamespaceID: ns.ID, SymbolID: &widget.ID, Name: "show", ManagedName: "Show", Kind: CallableMethod}
	_, err = batch.InsertCallable(method)
	require.NoError(t, err)
	self := &Parameter{CallableID: method.ID, Name: "widget", ManagedName: "widget", IsInstance: true, Transfer: "none", ReferenceID: &selfRef.ID}
	_, err = batch.InsertParameter(self)
	require.NoError(t, err)
	_, err = batch.InsertMarshalDecision(&MarshalDecision{ParameterID: self.ID, Direction: "to-native", Strategy: "object-handle"})
	require.NoError(t, err)
	_, err = batch.InsertTypeMember(&TypeMember{SymbolID: widget.ID, Name: "visible", ManagedName: "Visible", Kind: TypeMemberProperty, ReferenceID: &selfRef.ID})
	require.NoError(t, err)

	require.NoError(t, s.CommitBatch(batch))

	got, err := s.NamespaceByName("Gtk")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Positive(t, got.ID)

	syms, err := s.SymbolsByNamespace(got.ID)
	require.NoError(t, err)
	require.Len(t, syms, 2)
	w := syms[0]

	refs, err := s.ReferencesByNamespace(got.ID, "internal")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.NotNil(t, refs[0].TargetSymbolID)
	assert.Equal(t, w.ID, *refs[0].TargetSymbolID, "intra-batch target is remapped")

	callables, err := s.CallablesBySymbol(w.ID)
	require.NoError(t, err)
	require.Len(t, callables, 1)
	params, err := s.ParametersByCallable(callables[0].ID)
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, refs[0].ID, *params[0].ReferenceID)

	ds, err := s.MarshalDecisions(params[0].ID)
	require.NoError(t, err)
	assert.Len(t, ds, 1)

	tms, err := s.TypeMembers(w.ID)
	require.NoError(t, err)
	require.Len(t, tms, 1)
	assert.Equal(t, refs[0].ID, *tms[0].ReferenceID)

	members, err := s.MembersBySymbol(syms[1].ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	rels, err := s.RelationsBySymbol(w.ID)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Positive(t, rels[0].ReferenceID)

	incs, err := s.IncludesByNamespace(got.ID)
	require.NoError(t, err)
	assert.Len(t, incs, 1)
}

func TestCommitBatch_RollsBackOnError(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestNamespace(t, s, "Gtk")

	batch := NewBatchedStore(s)
	ns := &Namespace{Name: "Gtk", Version: "4.0"}
	_, err := batch.InsertNamespace(ns)
	require.NoError(t, err)
	_, err = batch.InsertSymbol(&Symbol{NamespaceID: ns.ID, Name: "Widget", ManagedName: "Widget", Kind: "class"})
	require.NoError(t, err)

	err = s.CommitBatch(batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "namespace \"Gtk\"")

	syms, err := s.SymbolsByName("Widget")
	require.NoError(t, err)
	assert.Empty(t, syms)
}
