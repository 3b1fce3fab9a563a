package factory

import (
	"strconv"
	"strings"

	"github.com/jward/girbind/internal/model"
	"github.com/jward/girbind/internal/naming"
	"github.com/jward/girbind/internal/raw"
)

// Class builds a class. The dynamic-type function is mandatory. Parent and
// implemented interfaces stay unresolved references.
func (f *Factory) Class(ns *model.Namespace, rc *raw.Class) (*model.Class, error) {
	n, err := name("class", rc.Name)
	if err != nil {
		return nil, err
	}
	if rc.GetTypeFunction == nil || *rc.GetTypeFunction == "" {
		return nil, missing("class", n, "glib:get-type")
	}

	c := &model.Class{
		SymbolInfo:      symbolInfo(n, rc.CType),
		Fundamental:     rc.Fundamental,
		Abstract:        rc.Abstract,
		TypeName:        raw.Deref(rc.TypeName),
		GetTypeFunction: f.getType(ns, *rc.GetTypeFunction),
	}
	if rc.Parent != nil && *rc.Parent != "" {
		c.Parent = f.reg.Register(*rc.Parent, guessCType(ns, *rc.Parent), false, ns.Name())
	}
	for _, impl := range rc.Implements {
		c.Implements = append(c.Implements, f.reg.Register(impl, "", false, ns.Name()))
	}

	if c.Constructors, err = f.callables(ns, "constructor", n, rc.Constructors); err != nil {
		return nil, err
	}
	if c.Methods, err = f.callables(ns, "method", n, rc.Methods); err != nil {
		return nil, err
	}
	if c.Functions, err = f.callables(ns, "function", n, rc.Functions); err != nil {
		return nil, err
	}
	if c.Properties, err = f.properties(ns, n, rc.Properties); err != nil {
		return nil, err
	}
	if c.Fields, err = f.fields(ns, n, rc.Fields); err != nil {
		return nil, err
	}
	if c.Signals, err = f.signals(ns, n, rc.Signals); err != nil {
		return nil, err
	}
	return c, nil
}

// Record builds a value-type aggregate.
func (f *Factory) Record(ns *model.Namespace, rr *raw.Record) (*model.Record, error) {
	n, err := name("record", rr.Name)
	if err != nil {
		return nil, err
	}
	r := &model.Record{
		SymbolInfo:        symbolInfo(n, rr.CType),
		GetTypeFunction:   raw.Deref(rr.GetTypeFunction),
		GLibTypeStructFor: raw.Deref(rr.GLibTypeStructFor),
		Disguised:         rr.Disguised,
	}
	if r.Constructors, err = f.callables(ns, "constructor", n, rr.Constructors); err != nil {
		return nil, err
	}
	if r.Methods, err = f.callables(ns, "method", n, rr.Methods); err != nil {
		return nil, err
	}
	if r.Functions, err = f.callables(ns, "function", n, rr.Functions); err != nil {
		return nil, err
	}
	if r.Fields, err = f.fields(ns, n, rr.Fields); err != nil {
		return nil, err
	}
	return r, nil
}

// Union builds an overlapping-storage aggregate.
func (f *Factory) Union(ns *model.Namespace, ru *raw.Union) (*model.Union, error) {
	n, err := name("union", ru.Name)
	if err != nil {
		return nil, err
	}
	u := &model.Union{
		SymbolInfo:      symbolInfo(n, ru.CType),
		GetTypeFunction: raw.Deref(ru.GetTypeFunction),
	}
	if u.Constructors, err = f.callables(ns, "constructor", n, ru.Constructors); err != nil {
		return nil, err
	}
	if u.Methods, err = f.callables(ns, "method", n, ru.Methods); err != nil {
		return nil, err
	}
	if u.Functions, err = f.callables(ns, "function", n, ru.Functions); err != nil {
		return nil, err
	}
	if u.Fields, err = f.fields(ns, n, ru.Fields); err != nil {
		return nil, err
	}
	return u, nil
}

// Interface builds an interface. Prerequisites stay unresolved references.
func (f *Factory) Interface(ns *model.Namespace, ri *raw.Interface) (*model.Interface, error) {
	n, err := name("interface", ri.Name)
	if err != nil {
		return nil, err
	}
	it := &model.Interface{SymbolInfo: symbolInfo(n, ri.CType)}
	if ri.GetTypeFunction != nil && *ri.GetTypeFunction != "" {
		it.GetTypeFunction = f.getType(ns, *ri.GetTypeFunction)
	}
	for _, p := range ri.Prerequisites {
		it.Prerequisites = append(it.Prerequisites, f.reg.Register(p, "", false, ns.Name()))
	}
	if it.Methods, err = f.callables(ns, "method", n, ri.Methods); err != nil {
		return nil, err
	}
	if it.Functions, err = f.callables(ns, "function", n, ri.Functions); err != nil {
		return nil, err
	}
	if it.Properties, err = f.properties(ns, n, ri.Properties); err != nil {
		return nil, err
	}
	if it.Signals, err = f.signals(ns, n, ri.Signals); err != nil {
		return nil, err
	}
	return it, nil
}

// Enumeration builds an enumeration, or a bitfield when bitfield is set.
// Member values must be decimal integers.
func (f *Factory) Enumeration(ns *model.Namespace, re *raw.Enumeration, bitfield bool) (*model.Enumeration, error) {
	kind := "enumeration"
	if bitfield {
		kind = "bitfield"
	}
	n, err := name(kind, re.Name)
	if err != nil {
		return nil, err
	}
	e := &model.Enumeration{
		SymbolInfo:      symbolInfo(n, re.CType),
		Bitfield:        bitfield,
		GetTypeFunction: raw.Deref(re.GetTypeFunction),
	}
	for _, m := range re.Members {
		if m.Name == nil || *m.Name == "" {
			return nil, missing("member", n, "name")
		}
		node := qualify(n, *m.Name)
		if m.Value == nil {
			return nil, missing("member", node, "value")
		}
		v, err := strconv.ParseInt(strings.TrimSpace(*m.Value), 10, 64)
		if err != nil {
			return nil, invalid("member", node, "value", *m.Value)
		}
		e.Members = append(e.Members, model.Member{
			Name:        *m.Name,
			ManagedName: naming.MemberName(*m.Name),
			CIdentifier: raw.Deref(m.CIdentifier),
			Value:       v,
		})
	}
	return e, nil
}

// Callback builds a function-pointer type.
func (f *Factory) Callback(ns *model.Namespace, rc *raw.Callback) (*model.Callback, error) {
	n, err := name("callback", rc.Name)
	if err != nil {
		return nil, err
	}
	cb := &model.Callback{SymbolInfo: symbolInfo(n, rc.CType), Throws: rc.Throws}
	if cb.Parameters, err = f.ParameterList(ns, n, rc.Parameters); err != nil {
		return nil, err
	}
	if cb.ReturnValue, err = f.ReturnValue(ns, n, rc.ReturnValue); err != nil {
		return nil, err
	}
	return cb, nil
}

// Constant builds a named literal. Name, value and type are mandatory.
func (f *Factory) Constant(ns *model.Namespace, rc *raw.Constant) (*model.Constant, error) {
	n, err := name("constant", rc.Name)
	if err != nil {
		return nil, err
	}
	if rc.Value == nil {
		return nil, missing("constant", n, "value")
	}
	ref, _, err := f.typeRef(ns, "constant", n, rc.Type)
	if err != nil {
		return nil, err
	}
	return &model.Constant{
		SymbolInfo:    model.NewSymbolInfo(n, naming.ConstantName(n), raw.Deref(rc.CType)),
		Value:         *rc.Value,
		TypeReference: ref,
	}, nil
}

// Alias builds a typedef.
func (f *Factory) Alias(ns *model.Namespace, ra *raw.Alias) (*model.Alias, error) {
	n, err := name("alias", ra.Name)
	if err != nil {
		return nil, err
	}
	ref, _, err := f.typeRef(ns, "alias", n, ra.Type)
	if err != nil {
		return nil, err
	}
	return &model.Alias{SymbolInfo: symbolInfo(n, ra.CType), Target: ref}, nil
}

// getType builds the callable wrapping a dynamic-type function.
func (f *Factory) getType(ns *model.Namespace, native string) *model.Callable {
	rv := &model.ReturnValue{}
	rv.TypeReference = f.reg.Register("GType", "GType", false, ns.Name())
	return &model.Callable{
		Name:           "get_type",
		ManagedName:    "GetGType",
		NativeName:     native,
		ReturnValue:    rv,
		Introspectable: true,
	}
}

// guessCType derives a native type tag for a parent given only by name:
// "Widget" in Gtk becomes "GtkWidget", "GObject.Object" becomes
// "GObjectObject".
func guessCType(ns *model.Namespace, parent string) string {
	if q, n, ok := strings.Cut(parent, "."); ok {
		return q + n
	}
	prefix := ns.IdentifierPrefix
	if prefix == "" {
		prefix = ns.Name()
	}
	return prefix + parent
}
