// Package factory turns raw document records into model nodes. Factories
// never resolve type names: every embedded name is registered with the run's
// resolver and bound later, after all documents are loaded.
package factory

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jward/girbind/internal/ctype"
	"github.com/jward/girbind/internal/model"
	"github.com/jward/girbind/internal/naming"
	"github.com/jward/girbind/internal/raw"
)

// Factory builds model nodes for one generation run. It is safe for
// concurrent use by several document workers.
type Factory struct {
	resolver *model.Resolver
	reg      registrar
	ctypes   *ctype.Parser
}

// registrar is where built nodes register their type references: the
// resolver itself or a per-document batch.
type registrar interface {
	Register(name, cType string, isArray bool, currentNamespace string) *model.TypeReference
}

// Option configures a Factory.
type Option func(*Factory)

// WithCTypeParser shares a type-tag parser (and its cache) between
// factories.
func WithCTypeParser(p *ctype.Parser) Option {
	return func(f *Factory) { f.ctypes = p }
}

// New returns a factory registering references with resolver.
func New(resolver *model.Resolver, opts ...Option) *Factory {
	f := &Factory{resolver: resolver, reg: resolver}
	for _, o := range opts {
		o(f)
	}
	if f.ctypes == nil {
		f.ctypes = ctype.NewParser()
	}
	return f
}

// Resolver returns the resolver references are registered with.
func (f *Factory) Resolver() *model.Resolver { return f.resolver }

// Stage builds doc like Repository but holds its references in a batch.
// The caller commits the batch once it accepts the repository; a rejected
// repository's batch is dropped.
func (f *Factory) Stage(doc *raw.Document) (*model.Repository, *model.Batch, error) {
	batch := f.resolver.Batch()
	staged := *f
	staged.reg = batch
	repo, err := staged.Repository(doc)
	if err != nil {
		return nil, nil, err
	}
	return repo, batch, nil
}

// Repository builds the namespace described by doc. Symbols are added in
// document order within each kind.
func (f *Factory) Repository(doc *raw.Document) (*model.Repository, error) {
	if doc.Namespace == nil || *doc.Namespace == "" {
		return nil, missing("namespace", "", "name")
	}
	nsName := *doc.Namespace
	if doc.Version == nil || *doc.Version == "" {
		return nil, missing("namespace", nsName, "version")
	}

	ns := model.NewNamespace(nsName, *doc.Version, firstEntry(doc.SharedLibrary))
	ns.IdentifierPrefix = firstEntry(doc.IdentifierPrefixes)
	ns.SymbolPrefix = firstEntry(doc.SymbolPrefixes)

	var includes []model.Include
	for _, inc := range doc.Includes {
		if inc.Name == nil || *inc.Name == "" {
			return nil, missing("include", "", "name")
		}
		includes = append(includes, model.Include{Name: *inc.Name, Version: raw.Deref(inc.Version)})
	}

	if err := f.populate(ns, doc); err != nil {
		return nil, fmt.Errorf("namespace %s: %w", nsName, err)
	}

	repo := model.NewRepository(ns, includes)
	repo.Path = doc.Path
	return repo, nil
}

func (f *Factory) populate(ns *model.Namespace, doc *raw.Document) error {
	for i := range doc.Enumerations {
		e, err := f.Enumeration(ns, &doc.Enumerations[i], false)
		if err != nil {
			return err
		}
		if err := ns.AddEnumeration(e); err != nil {
			return err
		}
	}
	for i := range doc.Bitfields {
		e, err := f.Enumeration(ns, &doc.Bitfields[i], true)
		if err != nil {
			return err
		}
		if err := ns.AddEnumeration(e); err != nil {
			return err
		}
	}
	for i := range doc.Classes {
		c, err := f.Class(ns, &doc.Classes[i])
		if err != nil {
			return err
		}
		if err := ns.AddClass(c); err != nil {
			return err
		}
	}
	for i := range doc.Records {
		r, err := f.Record(ns, &doc.Records[i])
		if err != nil {
			return err
		}
		if err := ns.AddRecord(r); err != nil {
			return err
		}
	}
	for i := range doc.Unions {
		u, err := f.Union(ns, &doc.Unions[i])
		if err != nil {
			return err
		}
		if err := ns.AddUnion(u); err != nil {
			return err
		}
	}
	for i := range doc.Interfaces {
		it, err := f.Interface(ns, &doc.Interfaces[i])
		if err != nil {
			return err
		}
		if err := ns.AddInterface(it); err != nil {
			return err
		}
	}
	for i := range doc.Callbacks {
		cb, err := f.Callback(ns, &doc.Callbacks[i])
		if err != nil {
			return err
		}
		if err := ns.AddCallback(cb); err != nil {
			return err
		}
	}
	for i := range doc.Aliases {
		a, err := f.Alias(ns, &doc.Aliases[i])
		if err != nil {
			return err
		}
		if err := ns.AddAlias(a); err != nil {
			return err
		}
	}
	for i := range doc.Constants {
		c, err := f.Constant(ns, &doc.Constants[i])
		if err != nil {
			return err
		}
		if err := ns.AddConstant(c); err != nil {
			return err
		}
	}
	for i := range doc.Functions {
		fn, err := f.Callable(ns, "function", "", &doc.Functions[i])
		if err != nil {
			return err
		}
		if err := ns.AddFunction(fn); err != nil {
			return err
		}
	}
	return nil
}

// TypeInformation derives the pointer and array shape of t. Pointer-ness
// comes from the native type tag; references without one fall back to the
// predeclared table.
func (f *Factory) TypeInformation(kind, node string, t *raw.TypeRef) (model.TypeInformation, error) {
	var ti model.TypeInformation
	if tag := raw.Deref(t.CType); tag != "" {
		ti.IsPointer = f.ctypes.Parse(tag).IsPointer()
	} else if fund, ok := model.LookupFundamental(raw.Deref(t.Name)); ok {
		ti.IsPointer = fund.IsPointer()
	}

	if t.Array == nil {
		return ti, nil
	}
	a := t.Array
	info := &model.ArrayInfo{CType: raw.Deref(a.CType)}
	var err error
	if info.Length, err = index(kind, node, "length", a.Length); err != nil {
		return ti, err
	}
	if info.FixedSize, err = index(kind, node, "fixed-size", a.FixedSize); err != nil {
		return ti, err
	}
	if a.ZeroTerminated != nil {
		info.ZeroTerminated = *a.ZeroTerminated == "1"
	} else {
		// Plain C arrays without a length or size are NUL-terminated.
		info.ZeroTerminated = info.Length == nil && info.FixedSize == nil && a.Name == nil
	}
	ti.Array = info
	return ti, nil
}

// typeRef registers t with the resolver and derives its type information.
func (f *Factory) typeRef(ns *model.Namespace, kind, node string, t *raw.TypeRef) (*model.TypeReference, model.TypeInformation, error) {
	if t == nil || t.Name == nil || *t.Name == "" {
		return nil, model.TypeInformation{}, missing(kind, node, "type")
	}
	ti, err := f.TypeInformation(kind, node, t)
	if err != nil {
		return nil, ti, err
	}
	ref := f.reg.Register(*t.Name, raw.Deref(t.CType), t.Array != nil, ns.Name())
	return ref, ti, nil
}

func (f *Factory) transferable(ns *model.Namespace, kind, node string, t *raw.TypeRef, transfer *string) (model.TransferableAnyType, error) {
	ref, ti, err := f.typeRef(ns, kind, node, t)
	if err != nil {
		return model.TransferableAnyType{}, err
	}
	tr, ok := model.ParseTransfer(transfer)
	if !ok {
		return model.TransferableAnyType{}, invalid(kind, node, "transfer-ownership", *transfer)
	}
	return model.TransferableAnyType{TypeReference: ref, Transfer: tr, TypeInformation: ti}, nil
}

func missing(kind, node, field string) error {
	return &model.MalformedError{Kind: kind, Node: node, Field: field}
}

func invalid(kind, node, field, value string) error {
	return &model.MalformedError{Kind: kind, Node: node, Field: field, Value: value}
}

// name returns the mandatory name of a node.
func name(kind string, s *string) (string, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "", missing(kind, "", "name")
	}
	return *s, nil
}

// index parses an optional non-negative integer attribute.
func index(kind, node, field string, s *string) (*int, error) {
	if s == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(*s))
	if err != nil || n < 0 {
		return nil, invalid(kind, node, field, *s)
	}
	return &n, nil
}

// firstEntry returns the first element of a comma-separated attribute.
func firstEntry(s *string) string {
	if s == nil {
		return ""
	}
	first, _, _ := strings.Cut(*s, ",")
	return strings.TrimSpace(first)
}

// qualify joins an owner and a member name for diagnostics.
func qualify(owner, member string) string {
	if owner == "" {
		return member
	}
	return owner + "." + member
}

func symbolInfo(n string, cType *string) model.SymbolInfo {
	return model.NewSymbolInfo(n, naming.SymbolName(n), raw.Deref(cType))
}
