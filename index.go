package girbind

import (
	"fmt"

	"github.com/jward/girbind/internal/marshal"
	"github.com/jward/girbind/internal/model"
	"github.com/jward/girbind/internal/store"
)

// IndexStats summarizes one Index call.
type IndexStats struct {
	Namespaces   int   // namespaces written
	Skipped      int   // namespaces unchanged since the last index
	Symbols      int
	Callables    int
	References   int
	Linked       int64 // references bound to a target symbol after commit
	Placeholders int   // recoverable marshaling gaps
	Unsupported  int   // conversions with no strategy
}

func (s *IndexStats) add(o IndexStats) {
	s.Namespaces += o.Namespaces
	s.Symbols += o.Symbols
	s.Callables += o.Callables
	s.References += o.References
	s.Placeholders += o.Placeholders
	s.Unsupported += o.Unsupported
}

// indexer writes one resolved namespace into a DataStore. Each model
// reference becomes one type_references row; target symbol IDs are filled
// in after commit by Store.LinkReferences.
type indexer struct {
	ds     store.DataStore
	ns     *model.Namespace
	nsID   int64
	refIDs map[*model.TypeReference]int64
	stats  IndexStats
}

type valueRow struct {
	param *store.Parameter
	ref   *model.TypeReference
	value model.Transferable
}

type callableRow struct {
	callable *store.Callable
	values   []valueRow
}

type typeMemberRow struct {
	member *store.TypeMember
	ref    *model.TypeReference
}

type relationRow struct {
	kind string
	ref  *model.TypeReference
}

// symbolRows is a symbol and everything it owns, collected before any of it
// is written so the signature hash can be computed up front.
type symbolRows struct {
	symbol      *store.Symbol
	members     []*store.Member
	typeMembers []typeMemberRow
	relations   []relationRow
	callables   []callableRow
}

// indexRepository writes repo into ds. documentID may be nil for
// repositories built from in-memory documents.
func indexRepository(ds store.DataStore, repo *model.Repository, documentID *int64) (IndexStats, error) {
	ns := repo.Namespace
	ix := &indexer{ds: ds, ns: ns, refIDs: make(map[*model.TypeReference]int64)}

	nsID, err := ds.InsertNamespace(&store.Namespace{
		DocumentID:       documentID,
		Name:             ns.Name(),
		Version:          ns.Version(),
		SharedLibrary:    ns.SharedLibrary(),
		IdentifierPrefix: ns.IdentifierPrefix,
		SymbolPrefix:     ns.SymbolPrefix,
	})
	if err != nil {
		return ix.stats, fmt.Errorf("namespace %s: %w", ns.Name(), err)
	}
	ix.nsID = nsID
	ix.stats.Namespaces = 1

	for _, inc := range repo.Includes {
		if _, err := ds.InsertInclude(&store.Include{NamespaceID: nsID, Name: inc.Name, Version: inc.Version}); err != nil {
			return ix.stats, fmt.Errorf("namespace %s: include %s: %w", ns.Name(), inc.Name, err)
		}
	}

	for _, sym := range ns.Types() {
		if err := ix.writeSymbol(ix.collect(sym)); err != nil {
			return ix.stats, fmt.Errorf("namespace %s: %s %s: %w", ns.Name(), sym.Kind(), sym.Name(), err)
		}
	}
	for _, c := range ns.Constants() {
		if err := ix.writeSymbol(ix.collect(c)); err != nil {
			return ix.stats, fmt.Errorf("namespace %s: constant %s: %w", ns.Name(), c.Name(), err)
		}
	}

	for _, fn := range ns.Functions() {
		if err := ix.writeCallable(nil, callableFor(store.CallableFunction, fn)); err != nil {
			return ix.stats, fmt.Errorf("namespace %s: function %s: %w", ns.Name(), fn.Name, err)
		}
	}
	return ix.stats, nil
}

// collect gathers the rows owned by sym.
func (ix *indexer) collect(sym model.Symbol) *symbolRows {
	rows := &symbolRows{symbol: &store.Symbol{
		NamespaceID: ix.nsID,
		Name:        sym.Name(),
		ManagedName: sym.ManagedName(),
		Kind:        sym.Kind().String(),
		CType:       sym.CType(),
	}}

	callables := func(kind string, cs []*model.Callable) {
		for _, c := range cs {
			rows.callables = append(rows.callables, callableFor(kind, c))
		}
	}
	signals := func(ss []*model.Signal) {
		for _, s := range ss {
			row := signatureFor(store.CallableSignal, s.Name, s.ManagedName, "", s.Parameters, s.ReturnValue)
			rows.callables = append(rows.callables, row)
		}
	}
	properties := func(ps []*model.Property) {
		for _, p := range ps {
			rows.typeMembers = append(rows.typeMembers, typeMemberRow{
				member: &store.TypeMember{
					Name:        p.Name,
					ManagedName: p.ManagedName,
					Kind:        store.TypeMemberProperty,
					Transfer:    p.Transfer.String(),
					Readable:    p.Readable,
					Writable:    p.Writable,
				},
				ref: p.TypeReference,
			})
		}
	}
	fields := func(fs []*model.Field) {
		for _, f := range fs {
			rows.typeMembers = append(rows.typeMembers, typeMemberRow{
				member: &store.TypeMember{
					Name:        f.Name,
					ManagedName: f.ManagedName,
					Kind:        store.TypeMemberField,
					Transfer:    f.Transfer.String(),
					Readable:    f.Readable,
					Writable:    f.Writable,
				},
				ref: f.TypeReference,
			})
		}
	}

	switch v := sym.(type) {
	case *model.Class:
		rows.symbol.Abstract = v.Abstract
		rows.symbol.Fundamental = v.Fundamental
		if v.Parent != nil {
			rows.relations = append(rows.relations, relationRow{store.RelationParent, v.Parent})
		}
		for _, ref := range v.Implements {
			rows.relations = append(rows.relations, relationRow{store.RelationImplements, ref})
		}
		callables(store.CallableConstructor, v.Constructors)
		callables(store.CallableMethod, v.Methods)
		callables(store.CallableFunction, v.Functions)
		if v.GetTypeFunction != nil {
			callables(store.CallableGetType, []*model.Callable{v.GetTypeFunction})
		}
		properties(v.Properties)
		fields(v.Fields)
		signals(v.Signals)
	case *model.Record:
		callables(store.CallableConstructor, v.Constructors)
		callables(store.CallableMethod, v.Methods)
		callables(store.CallableFunction, v.Functions)
		fields(v.Fields)
	case *model.Union:
		callables(store.CallableConstructor, v.Constructors)
		callables(store.CallableMethod, v.Methods)
		callables(store.CallableFunction, v.Functions)
		fields(v.Fields)
	case *model.Interface:
		for _, ref := range v.Prerequisites {
			rows.relations = append(rows.relations, relationRow{store.RelationPrerequisite, ref})
		}
		callables(store.CallableMethod, v.Methods)
		callables(store.CallableFunction, v.Functions)
		if v.GetTypeFunction != nil {
			callables(store.CallableGetType, []*model.Callable{v.GetTypeFunction})
		}
		properties(v.Properties)
		signals(v.Signals)
	case *model.Enumeration:
		for _, m := range v.Members {
			rows.members = append(rows.members, &store.Member{
				Name:        m.Name,
				ManagedName: m.ManagedName,
				CIdentifier: m.CIdentifier,
				Value:       m.Value,
			})
		}
	case *model.Callback:
		row := signatureFor(store.CallableCallback, v.Name(), v.ManagedName(), v.CType(), v.Parameters, v.ReturnValue)
		row.callable.Throws = v.Throws
		rows.callables = append(rows.callables, row)
	case *model.Constant:
		if v.TypeReference != nil {
			rows.relations = append(rows.relations, relationRow{store.RelationConstantType, v.TypeReference})
		}
	case *model.Alias:
		if v.Target != nil {
			rows.relations = append(rows.relations, relationRow{store.RelationAliasOf, v.Target})
		}
	}
	return rows
}

func callableFor(kind string, c *model.Callable) callableRow {
	row := signatureFor(kind, c.Name, c.ManagedName, c.NativeName, c.Parameters, c.ReturnValue)
	row.callable.Throws = c.Throws
	row.callable.Deprecated = c.Deprecated
	row.callable.Introspectable = c.Introspectable
	row.callable.MovedTo = c.MovedTo
	return row
}

// signatureFor turns a parameter list and return value into rows. Ordinals
// count from zero with the instance parameter first.
func signatureFor(kind, name, managed, native string, pl model.ParameterList, rv *model.ReturnValue) callableRow {
	row := callableRow{callable: &store.Callable{
		Name:           name,
		ManagedName:    managed,
		NativeName:     native,
		Kind:           kind,
		Introspectable: true,
	}}
	for i, p := range pl.All() {
		param := &store.Parameter{
			Name:            p.Name,
			ManagedName:     p.ManagedName,
			Ordinal:         i,
			IsInstance:      p == pl.Instance,
			Direction:       p.Direction.String(),
			Transfer:        p.Transfer.String(),
			Nullable:        p.Nullable,
			IsPointer:       p.TypeInformation.IsPointer,
			CallerAllocates: p.CallerAllocates,
		}
		arrayShape(param, p.TypeInformation)
		row.values = append(row.values, valueRow{param: param, ref: p.TypeReference, value: p})
	}
	if rv != nil {
		param := &store.Parameter{
			Name:        "result",
			ManagedName: "result",
			IsReturn:    true,
			Transfer:    rv.Transfer.String(),
			Nullable:    rv.Nullable,
			IsPointer:   rv.TypeInformation.IsPointer,
		}
		arrayShape(param, rv.TypeInformation)
		row.values = append(row.values, valueRow{param: param, ref: rv.TypeReference, value: rv})
	}
	return row
}

func arrayShape(p *store.Parameter, ti model.TypeInformation) {
	if ti.Array == nil {
		return
	}
	p.ArrayLength = ti.Array.Length
	p.ZeroTerminated = ti.Array.ZeroTerminated
}

func (ix *indexer) writeSymbol(rows *symbolRows) error {
	var (
		members     = rows.members
		typeMembers = make([]*store.TypeMember, 0, len(rows.typeMembers))
		params      []*store.Parameter
	)
	for _, tm := range rows.typeMembers {
		typeMembers = append(typeMembers, tm.member)
	}
	for _, c := range rows.callables {
		for _, v := range c.values {
			params = append(params, v.param)
		}
	}
	sym := rows.symbol
	sym.SignatureHash = store.ComputeSignatureHash(sym.Name, sym.Kind, sym.CType, members, typeMembers, params)

	symID, err := ix.ds.InsertSymbol(sym)
	if err != nil {
		return err
	}
	ix.stats.Symbols++

	for _, m := range rows.members {
		m.SymbolID = symID
		if _, err := ix.ds.InsertMember(m); err != nil {
			return fmt.Errorf("member %s: %w", m.Name, err)
		}
	}
	for _, r := range rows.relations {
		refID, err := ix.reference(r.ref)
		if err != nil {
			return err
		}
		if _, err := ix.ds.InsertRelation(&store.Relation{SymbolID: symID, Kind: r.kind, ReferenceID: refID}); err != nil {
			return fmt.Errorf("relation %s: %w", r.kind, err)
		}
	}
	for _, tm := range rows.typeMembers {
		tm.member.SymbolID = symID
		if tm.ref != nil {
			refID, err := ix.reference(tm.ref)
			if err != nil {
				return err
			}
			tm.member.ReferenceID = &refID
		}
		if _, err := ix.ds.InsertTypeMember(tm.member); err != nil {
			return fmt.Errorf("%s %s: %w", tm.member.Kind, tm.member.Name, err)
		}
	}
	for _, c := range rows.callables {
		if err := ix.writeCallable(&symID, c); err != nil {
			return fmt.Errorf("%s %s: %w", c.callable.Kind, c.callable.Name, err)
		}
	}
	return nil
}

func (ix *indexer) writeCallable(symbolID *int64, row callableRow) error {
	row.callable.NamespaceID = ix.nsID
	row.callable.SymbolID = symbolID
	callableID, err := ix.ds.InsertCallable(row.callable)
	if err != nil {
		return err
	}
	ix.stats.Callables++

	for _, v := range row.values {
		v.param.CallableID = callableID
		if v.ref != nil {
			refID, err := ix.reference(v.ref)
			if err != nil {
				return err
			}
			v.param.ReferenceID = &refID
		}
		paramID, err := ix.ds.InsertParameter(v.param)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", v.param.Name, err)
		}
		if v.ref == nil {
			continue
		}
		if err := ix.writeDecisions(paramID, v); err != nil {
			return fmt.Errorf("parameter %s: %w", v.param.Name, err)
		}
	}
	return nil
}

// writeDecisions records both marshaling directions of one value. A
// conversion with no strategy is stored with its error text instead of
// failing the index.
func (ix *indexer) writeDecisions(paramID int64, v valueRow) error {
	from := v.param.ManagedName
	if from == "" {
		from = v.param.Name
	}
	for _, dir := range []marshal.Direction{marshal.ToNative, marshal.ToManaged} {
		dec, err := marshal.Select(marshal.Request{
			Value:     v.value,
			From:      from,
			Namespace: ix.ns,
			Direction: dir,
			Handle:    marshal.SafeHandle,
		})
		row := &store.MarshalDecision{ParameterID: paramID, Direction: dir.String()}
		if err != nil {
			row.Error = err.Error()
			ix.stats.Unsupported++
		} else {
			row.Rule = dec.Rule
			row.Strategy = dec.Strategy.String()
			row.Expr = dec.Expr
			row.OwnershipTransferred = dec.OwnershipTransferred
			row.Placeholder = dec.Placeholder
			row.ElementWise = dec.ElementWise
			if dec.Placeholder {
				ix.stats.Placeholders++
			}
		}
		if _, err := ix.ds.InsertMarshalDecision(row); err != nil {
			return fmt.Errorf("marshal decision %s: %w", dir, err)
		}
	}
	return nil
}

// reference writes ref once and returns its row ID.
func (ix *indexer) reference(ref *model.TypeReference) (int64, error) {
	if id, ok := ix.refIDs[ref]; ok {
		return id, nil
	}
	t, err := ref.Resolved()
	if err != nil {
		return 0, err
	}
	row := &store.TypeReference{
		NamespaceID: ix.nsID,
		Name:        ref.Name(),
		CType:       ref.CType(),
		IsArray:     ref.IsArray(),
		Binding:     ref.ReferenceKind().String(),
		TargetName:  t.Name(),
		TargetKind:  t.Kind().String(),
	}
	if sym, ok := t.(model.Symbol); ok && sym.Namespace() != nil {
		row.TargetNamespace = sym.Namespace().Name()
	}
	id, err := ix.ds.InsertTypeReference(row)
	if err != nil {
		return 0, fmt.Errorf("type reference %s: %w", ref.Name(), err)
	}
	ix.refIDs[ref] = id
	ix.stats.References++
	return id, nil
}
