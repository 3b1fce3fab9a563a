package model

// Walk calls fn for every TypeReference owned by ns, in document order.
func Walk(ns *Namespace, fn func(ref *TypeReference)) {
	visit := func(ref *TypeReference) {
		if ref != nil {
			fn(ref)
		}
	}
	callable := func(c *Callable) {
		if c == nil {
			return
		}
		for _, ref := range c.TypeReferences() {
			visit(ref)
		}
	}
	callables := func(cs []*Callable) {
		for _, c := range cs {
			callable(c)
		}
	}
	signature := func(pl ParameterList, rv *ReturnValue) {
		for _, ref := range pl.TypeReferences() {
			visit(ref)
		}
		if rv != nil {
			visit(rv.TypeReference)
		}
	}
	fields := func(fs []*Field) {
		for _, f := range fs {
			visit(f.TypeReference)
			if f.Callback != nil {
				signature(f.Callback.Parameters, f.Callback.ReturnValue)
			}
		}
	}

	for _, a := range ns.aliases {
		visit(a.Target)
	}
	for _, c := range ns.classes {
		visit(c.Parent)
		for _, ref := range c.Implements {
			visit(ref)
		}
		callables(c.Constructors)
		callables(c.Methods)
		callables(c.Functions)
		callable(c.GetTypeFunction)
		for _, p := range c.Properties {
			visit(p.TypeReference)
		}
		fields(c.Fields)
		for _, s := range c.Signals {
			signature(s.Parameters, s.ReturnValue)
		}
	}
	for _, r := range ns.records {
		callables(r.Constructors)
		callables(r.Methods)
		callables(r.Functions)
		fields(r.Fields)
	}
	for _, u := range ns.unions {
		callables(u.Constructors)
		callables(u.Methods)
		callables(u.Functions)
		fields(u.Fields)
	}
	for _, i := range ns.interfaces {
		for _, ref := range i.Prerequisites {
			visit(ref)
		}
		callable(i.GetTypeFunction)
		callables(i.Methods)
		callables(i.Functions)
		for _, p := range i.Properties {
			visit(p.TypeReference)
		}
		for _, s := range i.Signals {
			signature(s.Parameters, s.ReturnValue)
		}
	}
	for _, cb := range ns.callbacks {
		signature(cb.Parameters, cb.ReturnValue)
	}
	for _, c := range ns.constants {
		visit(c.TypeReference)
	}
	callables(ns.functions)
}

// IsResolved reports whether every reference owned by ns is resolved.
func IsResolved(ns *Namespace) bool {
	ok := true
	Walk(ns, func(ref *TypeReference) {
		if !ref.IsResolved() {
			ok = false
		}
	})
	return ok
}

// CallableRole is how a callable relates to its owner.
type CallableRole string

const (
	RoleConstructor CallableRole = "constructor"
	RoleMethod      CallableRole = "method"
	RoleFunction    CallableRole = "function"
	RoleGetType     CallableRole = "get_type"
)

// WalkCallables calls fn for every callable in ns, in document order. owner
// is nil for namespace-level functions.
func WalkCallables(ns *Namespace, fn func(owner Symbol, role CallableRole, c *Callable)) {
	each := func(owner Symbol, role CallableRole, cs []*Callable) {
		for _, c := range cs {
			fn(owner, role, c)
		}
	}
	for _, c := range ns.classes {
		each(c, RoleConstructor, c.Constructors)
		each(c, RoleMethod, c.Methods)
		each(c, RoleFunction, c.Functions)
		if c.GetTypeFunction != nil {
			fn(c, RoleGetType, c.GetTypeFunction)
		}
	}
	for _, r := range ns.records {
		each(r, RoleConstructor, r.Constructors)
		each(r, RoleMethod, r.Methods)
		each(r, RoleFunction, r.Functions)
	}
	for _, u := range ns.unions {
		each(u, RoleConstructor, u.Constructors)
		each(u, RoleMethod, u.Methods)
		each(u, RoleFunction, u.Functions)
	}
	for _, i := range ns.interfaces {
		each(i, RoleMethod, i.Methods)
		each(i, RoleFunction, i.Functions)
		if i.GetTypeFunction != nil {
			fn(i, RoleGetType, i.GetTypeFunction)
		}
	}
	each(nil, RoleFunction, ns.functions)
}

// FindCallable returns the first callable in ns whose native name is
// nativeName.
func FindCallable(ns *Namespace, nativeName string) (Symbol, *Callable, bool) {
	var (
		owner Symbol
		found *Callable
	)
	WalkCallables(ns, func(o Symbol, _ CallableRole, c *Callable) {
		if found == nil && c.NativeName == nativeName {
			owner, found = o, c
		}
	})
	return owner, found, found != nil
}
