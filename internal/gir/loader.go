// Package gir decodes GObject-Introspection XML documents into raw records.
// It does no validation beyond XML well-formedness; mandatory-field checks
// belong to the model factories.
package gir

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jward/girbind/internal/raw"
)

// ErrNoNamespace is returned for a repository without a <namespace> element.
var ErrNoNamespace = errors.New("gir: repository has no namespace")

// Load decodes one document from r. path is recorded on the result for
// diagnostics only.
func Load(r io.Reader, path string) (*raw.Document, error) {
	var repo xRepository
	if err := xml.NewDecoder(r).Decode(&repo); err != nil {
		return nil, fmt.Errorf("gir: decode %s: %w", path, err)
	}
	if repo.Namespace == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoNamespace, path)
	}
	doc := convertNamespace(repo.Namespace)
	doc.Path = path
	for _, inc := range repo.Includes {
		doc.Includes = append(doc.Includes, raw.Include{Name: inc.Name, Version: inc.Version})
	}
	return doc, nil
}

// LoadFile opens and decodes the document at path.
func LoadFile(path string) (*raw.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gir: open: %w", err)
	}
	defer f.Close()
	return Load(f, path)
}

func convertNamespace(ns *xNamespace) *raw.Document {
	doc := &raw.Document{
		Namespace:          ns.Name,
		Version:            ns.Version,
		SharedLibrary:      ns.SharedLibrary,
		IdentifierPrefixes: ns.IdentifierPrefixes,
		SymbolPrefixes:     ns.SymbolPrefixes,
	}
	for _, a := range ns.Aliases {
		doc.Aliases = append(doc.Aliases, raw.Alias{Name: a.Name, CType: a.CType, Type: convertType(a.xTyped)})
	}
	for i := range ns.Classes {
		doc.Classes = append(doc.Classes, convertClass(&ns.Classes[i]))
	}
	for i := range ns.Records {
		doc.Records = append(doc.Records, convertRecord(&ns.Records[i]))
	}
	for i := range ns.Unions {
		r := &ns.Unions[i]
		doc.Unions = append(doc.Unions, raw.Union{
			Name:            r.Name,
			CType:           r.CType,
			GetTypeFunction: r.GetType,
			Constructors:    convertCallables(r.Constructors),
			Methods:         convertCallables(r.Methods),
			Functions:       convertCallables(r.Functions),
			Fields:          convertFields(r.Fields),
		})
	}
	for i := range ns.Interfaces {
		doc.Interfaces = append(doc.Interfaces, convertInterface(&ns.Interfaces[i]))
	}
	for _, e := range ns.Enumerations {
		doc.Enumerations = append(doc.Enumerations, convertEnumeration(e))
	}
	for _, e := range ns.Bitfields {
		doc.Bitfields = append(doc.Bitfields, convertEnumeration(e))
	}
	for i := range ns.Callbacks {
		doc.Callbacks = append(doc.Callbacks, *convertCallback(&ns.Callbacks[i]))
	}
	for _, c := range ns.Constants {
		doc.Constants = append(doc.Constants, raw.Constant{
			Name:  c.Name,
			CType: c.CType,
			Value: c.Value,
			Type:  convertType(c.xTyped),
		})
	}
	doc.Functions = convertCallables(ns.Functions)
	return doc
}

func convertClass(c *xClass) raw.Class {
	out := raw.Class{
		Name:            c.Name,
		CType:           c.CType,
		Parent:          c.Parent,
		GetTypeFunction: c.GetType,
		TypeName:        c.TypeName,
		Abstract:        flag(c.Abstract),
		Fundamental:     flag(c.Fundamental),
		Constructors:    convertCallables(c.Constructors),
		Methods:         convertCallables(c.Methods),
		Functions:       convertCallables(c.Functions),
		Properties:      convertProperties(c.Properties),
		Fields:          convertFields(c.Fields),
		Signals:         convertSignals(c.Signals),
	}
	for _, impl := range c.Implements {
		if impl.Name != nil {
			out.Implements = append(out.Implements, *impl.Name)
		}
	}
	return out
}

func convertRecord(r *xRecord) raw.Record {
	return raw.Record{
		Name:              r.Name,
		CType:             r.CType,
		GetTypeFunction:   r.GetType,
		GLibTypeStructFor: r.GLibTypeStructFor,
		Disguised:         flag(r.Disguised),
		Constructors:      convertCallables(r.Constructors),
		Methods:           convertCallables(r.Methods),
		Functions:         convertCallables(r.Functions),
		Fields:            convertFields(r.Fields),
	}
}

func convertInterface(i *xInterface) raw.Interface {
	out := raw.Interface{
		Name:            i.Name,
		CType:           i.CType,
		GetTypeFunction: i.GetType,
		Methods:         convertCallables(i.Methods),
		Functions:       convertCallables(i.Functions),
		Properties:      convertProperties(i.Properties),
		Signals:         convertSignals(i.Signals),
	}
	for _, p := range i.Prerequisites {
		if p.Name != nil {
			out.Prerequisites = append(out.Prerequisites, *p.Name)
		}
	}
	return out
}

func convertEnumeration(e xEnumeration) raw.Enumeration {
	out := raw.Enumeration{Name: e.Name, CType: e.CType, GetTypeFunction: e.GetType}
	for _, m := range e.Members {
		out.Members = append(out.Members, raw.Member{Name: m.Name, Value: m.Value, CIdentifier: m.CIdentifier})
	}
	return out
}

func convertCallback(cb *xCallback) *raw.Callback {
	return &raw.Callback{
		Name:        cb.Name,
		CType:       cb.CType,
		Throws:      flag(cb.Throws),
		Parameters:  convertParameters(cb.Parameters),
		ReturnValue: convertReturn(cb.ReturnValue),
	}
}

func convertCallables(in []xCallable) []raw.Callable {
	if len(in) == 0 {
		return nil
	}
	out := make([]raw.Callable, 0, len(in))
	for _, c := range in {
		rc := raw.Callable{
			Name:        c.Name,
			CIdentifier: c.CIdentifier,
			Throws:      flag(c.Throws),
			Deprecated:  flag(c.Deprecated),
			MovedTo:     c.MovedTo,
			Parameters:  convertParameters(c.Parameters),
			ReturnValue: convertReturn(c.ReturnValue),
		}
		if c.Introspectable != nil {
			v := flag(c.Introspectable)
			rc.Introspectable = &v
		}
		out = append(out, rc)
	}
	return out
}

func convertParameters(ps *xParameters) *raw.Parameters {
	if ps == nil {
		return nil
	}
	out := &raw.Parameters{}
	if ps.Instance != nil {
		p := convertParameter(ps.Instance)
		out.Instance = &p
	}
	for i := range ps.Parameters {
		out.Parameters = append(out.Parameters, convertParameter(&ps.Parameters[i]))
	}
	return out
}

func convertParameter(p *xParameter) raw.Parameter {
	return raw.Parameter{
		Name:              p.Name,
		Type:              convertType(p.xTyped),
		TransferOwnership: p.TransferOwnership,
		Direction:         p.Direction,
		CallerAllocates:   flag(p.CallerAllocates),
		Nullable:          flag(p.Nullable) || flag(p.AllowNone),
		Optional:          flag(p.Optional),
		Closure:           p.Closure,
		Destroy:           p.Destroy,
		Scope:             p.Scope,
		Varargs:           p.Varargs != nil,
	}
}

func convertReturn(r *xReturn) *raw.ReturnValue {
	if r == nil {
		return nil
	}
	return &raw.ReturnValue{
		Type:              convertType(r.xTyped),
		TransferOwnership: r.TransferOwnership,
		Nullable:          flag(r.Nullable),
	}
}

func convertProperties(in []xProperty) []raw.Property {
	var out []raw.Property
	for _, p := range in {
		rp := raw.Property{
			Name:              p.Name,
			Type:              convertType(p.xTyped),
			TransferOwnership: p.TransferOwnership,
			Writable:          flag(p.Writable),
			Construct:         flag(p.Construct),
			ConstructOnly:     flag(p.ConstructOnly),
		}
		if p.Readable != nil {
			v := flag(p.Readable)
			rp.Readable = &v
		}
		out = append(out, rp)
	}
	return out
}

func convertFields(in []xField) []raw.Field {
	var out []raw.Field
	for i := range in {
		f := &in[i]
		rf := raw.Field{
			Name:     f.Name,
			Type:     convertType(f.xTyped),
			Writable: flag(f.Writable),
			Private:  flag(f.Private),
		}
		if f.Readable != nil {
			v := flag(f.Readable)
			rf.Readable = &v
		}
		if f.Callback != nil {
			rf.Callback = convertCallback(f.Callback)
		}
		out = append(out, rf)
	}
	return out
}

func convertSignals(in []xSignal) []raw.Signal {
	var out []raw.Signal
	for i := range in {
		s := &in[i]
		out = append(out, raw.Signal{
			Name:        s.Name,
			When:        s.When,
			Detailed:    flag(s.Detailed),
			Action:      flag(s.Action),
			Parameters:  convertParameters(s.Parameters),
			ReturnValue: convertReturn(s.ReturnValue),
		})
	}
	return out
}

// convertType folds <type> and <array> into one TypeRef. For an array the
// element type supplies the name and the array element supplies the c:type.
func convertType(t xTyped) *raw.TypeRef {
	switch {
	case t.Array != nil:
		a := t.Array
		ref := &raw.TypeRef{
			CType: a.CType,
			Array: &raw.Array{
				Name:           a.Name,
				CType:          a.CType,
				Length:         a.Length,
				ZeroTerminated: a.ZeroTerminated,
				FixedSize:      a.FixedSize,
			},
		}
		switch {
		case a.Type != nil:
			ref.Name = a.Type.Name
		case a.Array != nil && a.Array.Type != nil:
			ref.Name = a.Array.Type.Name
		default:
			ref.Name = a.Name
		}
		return ref
	case t.Type != nil:
		return &raw.TypeRef{Name: t.Type.Name, CType: t.Type.CType}
	default:
		return nil
	}
}

// flag reads a GIR boolean attribute ("1" or "0").
func flag(s *string) bool {
	return s != nil && (*s == "1" || *s == "true")
}
