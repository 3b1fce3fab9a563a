package model

import (
	"errors"
	"sync"
)

// Resolver is the symbol table of one generation run. Factories Register
// references while documents load; ResolveAll binds all of them once every
// namespace of the dependency closure is populated.
//
// Register is safe for concurrent use so documents can be built in parallel.
// ResolveAll must not run concurrently with Register.
type Resolver struct {
	mu   sync.Mutex
	refs []*TypeReference
}

// NewResolver returns an empty Resolver scoped to one run.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Register returns an unresolved reference token for name as written in the
// document of currentNamespace.
func (r *Resolver) Register(name, cType string, isArray bool, currentNamespace string) *TypeReference {
	ref := &TypeReference{
		name:      name,
		cType:     cType,
		isArray:   isArray,
		namespace: currentNamespace,
	}
	r.mu.Lock()
	r.refs = append(r.refs, ref)
	r.mu.Unlock()
	return ref
}

// Batch collects the registrations of one document. They join the
// resolver only on Commit, so a document rejected after it was built leaves
// no references behind. A Batch is used by one goroutine.
type Batch struct {
	r    *Resolver
	refs []*TypeReference
}

// Batch returns an empty registration batch for r.
func (r *Resolver) Batch() *Batch {
	return &Batch{r: r}
}

// Register returns an unresolved reference token like Resolver.Register,
// held back until Commit.
func (b *Batch) Register(name, cType string, isArray bool, currentNamespace string) *TypeReference {
	ref := &TypeReference{
		name:      name,
		cType:     cType,
		isArray:   isArray,
		namespace: currentNamespace,
	}
	b.refs = append(b.refs, ref)
	return ref
}

// Len reports how many references the batch holds.
func (b *Batch) Len() int { return len(b.refs) }

// Commit hands the batch's references to the resolver. Committing twice
// is a no-op.
func (b *Batch) Commit() {
	if len(b.refs) == 0 {
		return
	}
	b.r.mu.Lock()
	b.r.refs = append(b.r.refs, b.refs...)
	b.r.mu.Unlock()
	b.refs = nil
}

// References returns every registered reference in registration order.
func (r *Resolver) References() []*TypeReference {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*TypeReference, len(r.refs))
	copy(out, r.refs)
	return out
}

// Pending returns the references not yet resolved.
func (r *Resolver) Pending() []*TypeReference {
	var out []*TypeReference
	for _, ref := range r.References() {
		if !ref.IsResolved() {
			out = append(out, ref)
		}
	}
	return out
}

// lookupKey memoizes one lookup: equal references from the same namespace
// always bind to the same Type.
type lookupKey struct {
	namespace string
	name      string
}

type lookupResult struct {
	typ  Type
	kind ReferenceKind
	err  error
}

// ResolveAll binds every registered reference against the given namespaces,
// which must be fully populated. Already resolved references are left
// untouched, so repeated calls are no-ops for them. Every failure is
// collected; a non-nil error means the run must abort.
func (r *Resolver) ResolveAll(namespaces ...*Namespace) error {
	table := make(map[string]*Namespace, len(namespaces))
	for _, ns := range namespaces {
		table[ns.Name()] = ns
	}

	memo := make(map[lookupKey]lookupResult)
	var errs []error
	for _, ref := range r.References() {
		if ref.IsResolved() {
			continue
		}
		key := lookupKey{namespace: ref.namespace, name: ref.name}
		res, ok := memo[key]
		if !ok {
			res = lookup(table, ref)
			memo[key] = res
		}
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}
		ref.resolveAs(res.typ, res.kind)
	}
	return errors.Join(dedupeErrors(errs)...)
}

func lookup(table map[string]*Namespace, ref *TypeReference) lookupResult {
	nsName, name := ref.qualifier()

	if nsName == "" {
		if current, ok := table[ref.namespace]; ok {
			if sym, ok := current.Lookup(name); ok {
				return lookupResult{typ: sym, kind: Internal}
			}
		}
		if f, ok := LookupFundamental(name); ok {
			return lookupResult{typ: f, kind: Internal}
		}
		return lookupResult{err: &UnresolvedError{Name: ref.name, Namespace: ref.namespace}}
	}

	target, ok := table[nsName]
	if !ok {
		return lookupResult{err: &UnresolvedError{
			Name:             ref.name,
			Namespace:        ref.namespace,
			MissingNamespace: nsName,
		}}
	}
	sym, ok := target.Lookup(name)
	if !ok {
		return lookupResult{err: &UnresolvedError{Name: ref.name, Namespace: ref.namespace}}
	}
	kind := External
	if nsName == ref.namespace {
		kind = Internal
	}
	return lookupResult{typ: sym, kind: kind}
}

// dedupeErrors drops repeated unresolved errors for the same (name, namespace).
func dedupeErrors(errs []error) []error {
	seen := make(map[string]bool, len(errs))
	out := errs[:0]
	for _, err := range errs {
		msg := err.Error()
		if seen[msg] {
			continue
		}
		seen[msg] = true
		out = append(out, err)
	}
	return out
}
