package factory

import (
	"strings"

	"github.com/jward/girbind/internal/model"
	"github.com/jward/girbind/internal/naming"
	"github.com/jward/girbind/internal/raw"
)

// Callable builds a method, constructor or free function. kind names the
// flavour for diagnostics; owner is the enclosing type, empty for
// namespace-level functions. The native identifier is mandatory.
func (f *Factory) Callable(ns *model.Namespace, kind, owner string, rc *raw.Callable) (*model.Callable, error) {
	n, err := name(kind, rc.Name)
	if err != nil {
		return nil, err
	}
	node := qualify(owner, n)
	if rc.CIdentifier == nil || *rc.CIdentifier == "" {
		return nil, missing(kind, node, "c:identifier")
	}

	c := &model.Callable{
		Name:           n,
		ManagedName:    naming.SymbolName(n),
		NativeName:     naming.NativeName(*rc.CIdentifier, ns.SymbolPrefix, n),
		Throws:         rc.Throws,
		Deprecated:     rc.Deprecated,
		Introspectable: rc.Introspectable == nil || *rc.Introspectable,
		MovedTo:        raw.Deref(rc.MovedTo),
	}
	if c.Parameters, err = f.ParameterList(ns, node, rc.Parameters); err != nil {
		return nil, err
	}
	if c.ReturnValue, err = f.ReturnValue(ns, node, rc.ReturnValue); err != nil {
		return nil, err
	}
	return c, nil
}

func (f *Factory) callables(ns *model.Namespace, kind, owner string, in []raw.Callable) ([]*model.Callable, error) {
	var out []*model.Callable
	for i := range in {
		c, err := f.Callable(ns, kind, owner, &in[i])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ParameterList builds the argument list of a signature. A nil list is an
// empty one.
func (f *Factory) ParameterList(ns *model.Namespace, owner string, rp *raw.Parameters) (model.ParameterList, error) {
	var pl model.ParameterList
	if rp == nil {
		return pl, nil
	}
	if rp.Instance != nil {
		p, err := f.Parameter(ns, owner, rp.Instance)
		if err != nil {
			return pl, err
		}
		pl.Instance = p
	}
	for i := range rp.Parameters {
		p, err := f.Parameter(ns, owner, &rp.Parameters[i])
		if err != nil {
			return pl, err
		}
		pl.Parameters = append(pl.Parameters, p)
	}
	return pl, nil
}

// Parameter builds one argument. Varargs parameters carry no type
// annotation and are typed as va_list.
func (f *Factory) Parameter(ns *model.Namespace, owner string, rp *raw.Parameter) (*model.Parameter, error) {
	n, err := name("parameter", rp.Name)
	if err != nil {
		return nil, missing("parameter", owner, "name")
	}
	node := owner + "(" + n + ")"

	p := &model.Parameter{
		Name:            n,
		ManagedName:     naming.ParameterName(n),
		Nullable:        rp.Nullable,
		Optional:        rp.Optional,
		CallerAllocates: rp.CallerAllocates,
		Varargs:         rp.Varargs,
		Scope:           raw.Deref(rp.Scope),
	}

	typ := rp.Type
	if typ == nil && rp.Varargs {
		typ = &raw.TypeRef{Name: raw.String("va_list"), CType: raw.String("va_list")}
	}
	if p.TransferableAnyType, err = f.transferable(ns, "parameter", node, typ, rp.TransferOwnership); err != nil {
		return nil, err
	}

	switch strings.ToLower(raw.Deref(rp.Direction)) {
	case "", "in":
		p.Direction = model.DirectionIn
	case "out":
		p.Direction = model.DirectionOut
	case "inout":
		p.Direction = model.DirectionInOut
	default:
		return nil, invalid("parameter", node, "direction", *rp.Direction)
	}

	if p.Closure, err = index("parameter", node, "closure", rp.Closure); err != nil {
		return nil, err
	}
	if p.Destroy, err = index("parameter", node, "destroy", rp.Destroy); err != nil {
		return nil, err
	}
	return p, nil
}

// ReturnValue builds the result of a signature. A signature without a
// return element returns void.
func (f *Factory) ReturnValue(ns *model.Namespace, owner string, rv *raw.ReturnValue) (*model.ReturnValue, error) {
	if rv == nil {
		rv = &raw.ReturnValue{Type: &raw.TypeRef{Name: raw.String("none"), CType: raw.String("void")}}
	}
	t, err := f.transferable(ns, "return value", owner, rv.Type, rv.TransferOwnership)
	if err != nil {
		return nil, err
	}
	return &model.ReturnValue{TransferableAnyType: t, Nullable: rv.Nullable}, nil
}

// Property builds a property. Properties are readable unless the document
// says otherwise.
func (f *Factory) Property(ns *model.Namespace, owner string, rp *raw.Property) (*model.Property, error) {
	n, err := name("property", rp.Name)
	if err != nil {
		return nil, missing("property", owner, "name")
	}
	t, err := f.transferable(ns, "property", qualify(owner, n), rp.Type, rp.TransferOwnership)
	if err != nil {
		return nil, err
	}
	return &model.Property{
		Name:                n,
		ManagedName:         naming.SymbolName(n),
		TransferableAnyType: t,
		Readable:            rp.Readable == nil || *rp.Readable,
		Writable:            rp.Writable,
		Construct:           rp.Construct,
		ConstructOnly:       rp.ConstructOnly,
	}, nil
}

func (f *Factory) properties(ns *model.Namespace, owner string, in []raw.Property) ([]*model.Property, error) {
	var out []*model.Property
	for i := range in {
		p, err := f.Property(ns, owner, &in[i])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Field builds a storage slot. A field holds either a type or an inline
// callback.
func (f *Factory) Field(ns *model.Namespace, owner string, rf *raw.Field) (*model.Field, error) {
	n, err := name("field", rf.Name)
	if err != nil {
		return nil, missing("field", owner, "name")
	}
	node := qualify(owner, n)
	fd := &model.Field{
		Name:        n,
		ManagedName: naming.SymbolName(n),
		Readable:    rf.Readable == nil || *rf.Readable,
		Writable:    rf.Writable,
		Private:     rf.Private,
	}
	if rf.Callback != nil {
		if fd.Callback, err = f.Callback(ns, rf.Callback); err != nil {
			return nil, err
		}
		return fd, nil
	}
	if fd.TransferableAnyType, err = f.transferable(ns, "field", node, rf.Type, nil); err != nil {
		return nil, err
	}
	return fd, nil
}

func (f *Factory) fields(ns *model.Namespace, owner string, in []raw.Field) ([]*model.Field, error) {
	var out []*model.Field
	for i := range in {
		fd, err := f.Field(ns, owner, &in[i])
		if err != nil {
			return nil, err
		}
		out = append(out, fd)
	}
	return out, nil
}

// Signal builds an event declaration.
func (f *Factory) Signal(ns *model.Namespace, owner string, rs *raw.Signal) (*model.Signal, error) {
	n, err := name("signal", rs.Name)
	if err != nil {
		return nil, missing("signal", owner, "name")
	}
	node := qualify(owner, n)
	s := &model.Signal{
		Name:        n,
		ManagedName: naming.SymbolName(n),
		When:        raw.Deref(rs.When),
		Detailed:    rs.Detailed,
		Action:      rs.Action,
	}
	if s.Parameters, err = f.ParameterList(ns, node, rs.Parameters); err != nil {
		return nil, err
	}
	if s.ReturnValue, err = f.ReturnValue(ns, node, rs.ReturnValue); err != nil {
		return nil, err
	}
	return s, nil
}

func (f *Factory) signals(ns *model.Namespace, owner string, in []raw.Signal) ([]*model.Signal, error) {
	var out []*model.Signal
	for i := range in {
		s, err := f.Signal(ns, owner, &in[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
