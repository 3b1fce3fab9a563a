package marshal

import (
	"github.com/jward/girbind/internal/model"
)

// ValueDecisions holds both directions for one parameter or return value.
type ValueDecisions struct {
	Name      string // source expression used in the decisions
	Value     model.Transferable
	ToNative  Decision
	ToManaged Decision
	// Attribute is the array-length interop attribute, if any.
	Attribute string
}

// Description is every marshaling decision an emitter needs to render one
// callable.
type Description struct {
	Callable   *model.Callable
	Parameters []ValueDecisions // instance parameter first
	Return     *ValueDecisions
}

// Placeholders returns the decisions in d that are recoverable gaps.
func (d *Description) Placeholders() []Decision {
	var out []Decision
	collect := func(v ValueDecisions) {
		for _, dec := range []Decision{v.ToNative, v.ToManaged} {
			if dec.Placeholder {
				out = append(out, dec)
			}
		}
	}
	for _, p := range d.Parameters {
		collect(p)
	}
	if d.Return != nil {
		collect(*d.Return)
	}
	return out
}

// Describe selects both directions for every parameter and the return value
// of c. The first fatal gap aborts the description.
func Describe(c *model.Callable, ns *model.Namespace, h Handle) (*Description, error) {
	desc := &Description{Callable: c}
	for _, p := range c.Parameters.All() {
		name := p.ManagedName
		if name == "" {
			name = p.Name
		}
		v, err := describe(p, name, ns, h)
		if err != nil {
			return nil, err
		}
		desc.Parameters = append(desc.Parameters, v)
	}
	if c.ReturnValue != nil {
		v, err := describe(c.ReturnValue, "result", ns, h)
		if err != nil {
			return nil, err
		}
		desc.Return = &v
	}
	return desc, nil
}

func describe(v model.Transferable, name string, ns *model.Namespace, h Handle) (ValueDecisions, error) {
	out := ValueDecisions{
		Name:      name,
		Value:     v,
		Attribute: SizeParamAttribute(v.AnyType().TypeInformation.Array),
	}
	var err error
	if out.ToNative, err = SelectToNative(v, name, ns); err != nil {
		return out, err
	}
	if out.ToManaged, err = SelectToManaged(v, name, ns, h); err != nil {
		return out, err
	}
	return out, nil
}
