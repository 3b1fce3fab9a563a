package marshal

import (
	"fmt"
	"strconv"

	"github.com/jward/girbind/internal/model"
)

type category int

const (
	catOther category = iota
	catString
	catRecord
	catClass
	catInterface
	catUnion
)

// shape is the classification every rule predicate looks at.
type shape struct {
	category    category
	pointer     bool
	array       bool
	hasLength   bool
	transfer    model.Transfer
	direction   Direction
	ret         bool
	fundamental bool
	handle      Handle

	from string
	typ  model.Type
	ns   *model.Namespace
}

func newShape(req Request) (shape, error) {
	at := req.Value.AnyType()
	if at.TypeReference == nil {
		return shape{}, fmt.Errorf("value has no type reference")
	}
	t, err := at.TypeReference.Resolved()
	if err != nil {
		return shape{}, err
	}
	t = model.Underlying(t)

	ti := at.TypeInformation
	sh := shape{
		pointer:   ti.IsPointer,
		array:     ti.IsArray() || at.TypeReference.IsArray(),
		hasLength: ti.Array.HasLength(),
		transfer:  at.Transfer,
		direction: req.Direction,
		ret:       req.Value.IsReturnValue(),
		handle:    req.Handle,
		from:      req.From,
		typ:       t,
		ns:        req.Namespace,
	}

	switch v := t.(type) {
	case *model.Class:
		sh.category = catClass
		sh.fundamental = v.Fundamental
	case *model.Interface:
		sh.category = catInterface
	case *model.Record:
		sh.category = catRecord
	case *model.Union:
		sh.category = catUnion
	default:
		if t.Kind() == model.KindString {
			sh.category = catString
		}
	}

	// Objects always travel by reference; tags are often omitted on signal
	// parameters.
	if (sh.category == catClass || sh.category == catInterface) && at.TypeReference.CType() == "" {
		sh.pointer = true
	}
	return sh, nil
}

// managed spells the type on the managed side, qualified when it lives in
// another namespace.
func (sh shape) managed() string {
	if s, ok := sh.typ.(model.Symbol); ok && s.Namespace() != nil && s.Namespace() != sh.ns {
		return model.QualifiedName(sh.typ)
	}
	return sh.typ.ManagedName()
}

// native spells the type's native struct or handle name.
func (sh shape) native(suffix string) string {
	if s, ok := sh.typ.(model.Symbol); ok && s.Namespace() != nil {
		return s.Namespace().Name() + ".Native." + s.ManagedName() + suffix
	}
	return sh.typ.ManagedName() + suffix
}

func (sh shape) owned() string {
	return strconv.FormatBool(sh.transfer.IsOwnedRef())
}

func (sh shape) unsupported(reason string) error {
	return &UnsupportedError{From: sh.from, Type: sh.managed(), Direction: sh.direction, Reason: reason}
}

type rule struct {
	name  string
	match func(shape) bool
	build func(shape) (Decision, error)
}

func decision(s Strategy, expr string) (Decision, error) {
	return Decision{Strategy: s, Expr: expr}, nil
}

// rules is evaluated top to bottom. Specific rules must stay ahead of the
// general ones below them.
var rules = []rule{
	{
		name:  "string-array-without-length",
		match: func(sh shape) bool { return sh.category == catString && sh.array && !sh.hasLength },
		build: func(sh shape) (Decision, error) {
			d := Decision{Strategy: StringArrayNullTerminated, OwnershipTransferred: sh.transfer.IsOwnedRef()}
			if sh.direction == ToNative {
				d.Expr = fmt.Sprintf("new GLib.Native.StringArrayNullTerminatedSafeHandle(%s).DangerousGetHandle()", sh.from)
			} else {
				d.Expr = fmt.Sprintf("GLib.Native.StringHelper.ToStringArrayUtf8(%s)", sh.from)
			}
			return d, nil
		},
	},
	{
		name:  "string-return-transfer-none",
		match: func(sh shape) bool { return sh.category == catString && sh.transfer == model.TransferNone && sh.ret },
		build: func(sh shape) (Decision, error) {
			if sh.direction == ToNative {
				return decision(StringCopy, fmt.Sprintf("GLib.Native.StringHelper.StringToHGlobalUTF8(%s)", sh.from))
			}
			return decision(StringCopy, fmt.Sprintf("GLib.Native.StringHelper.ToStringUtf8(%s)", sh.from))
		},
	},
	{
		name:  "string",
		match: func(sh shape) bool { return sh.category == catString },
		build: func(sh shape) (Decision, error) {
			d := Decision{Strategy: StringDirect, Expr: sh.from, OwnershipTransferred: sh.transfer.IsOwnedRef()}
			return d, nil
		},
	},
	{
		name:  "record-pointer",
		match: func(sh shape) bool { return sh.category == catRecord && sh.pointer && !sh.array },
		build: func(sh shape) (Decision, error) {
			switch {
			case sh.direction == ToNative:
				return decision(RecordHandle, sh.from+".Handle")
			case sh.handle == RawPointer:
				return decision(RecordHandle, fmt.Sprintf("new %s(new %s(%s))", sh.managed(), sh.native("SafeHandle"), sh.from))
			default:
				return decision(RecordHandle, fmt.Sprintf("new %s(%s)", sh.managed(), sh.from))
			}
		},
	},
	{
		name:  "record-pointer-array",
		match: func(sh shape) bool { return sh.category == catRecord && sh.pointer && sh.array },
		build: func(sh shape) (Decision, error) {
			d := Decision{Strategy: RecordHandleArray, ElementWise: true}
			switch {
			case sh.direction == ToNative:
				d.Expr = sh.from + ".Select(x => x.Handle.DangerousGetHandle()).ToArray()"
			case sh.handle == RawPointer:
				d.Expr = fmt.Sprintf("%s.Select(x => new %s(new %s(x))).ToArray()", sh.from, sh.managed(), sh.native("SafeHandle"))
			default:
				d.Expr = fmt.Sprintf("%s.Select(x => new %s(x)).ToArray()", sh.from, sh.managed())
			}
			return d, nil
		},
	},
	{
		name:  "record-by-value",
		match: func(sh shape) bool { return sh.category == catRecord },
		build: func(sh shape) (Decision, error) {
			target := sh.managed()
			if sh.direction == ToNative {
				target = sh.native("Data")
			}
			if sh.array {
				target += "[]"
			}
			return Decision{
				Strategy:    RecordByValue,
				Expr:        fmt.Sprintf("(%s) default! /* %s: by-value record */", target, FixmeMarker),
				Placeholder: true,
			}, nil
		},
	},
	{
		name: "class-fundamental",
		match: func(sh shape) bool {
			return sh.category == catClass && sh.fundamental && sh.pointer && !sh.array
		},
		build: func(sh shape) (Decision, error) {
			if sh.direction == ToNative {
				return decision(FundamentalConvert, fmt.Sprintf("%s.To(%s)", sh.managed(), sh.from))
			}
			return decision(FundamentalConvert, fmt.Sprintf("%s.From(%s)", sh.managed(), sh.from))
		},
	},
	{
		name:  "class-pointer-array",
		match: func(sh shape) bool { return sh.category == catClass && sh.pointer && sh.array },
		build: func(sh shape) (Decision, error) {
			return Decision{}, sh.unsupported("pointer arrays of objects need per-element delegates")
		},
	},
	{
		name:  "class-pointer",
		match: func(sh shape) bool { return sh.category == catClass && sh.pointer && !sh.array },
		build: func(sh shape) (Decision, error) {
			if sh.direction == ToNative {
				return decision(ObjectHandle, sh.from+".Handle")
			}
			return Decision{
				Strategy:             ObjectWrap,
				Expr:                 fmt.Sprintf("GObject.Native.ObjectWrapper.WrapHandle<%s>(%s, %s)", sh.managed(), sh.from, sh.owned()),
				OwnershipTransferred: sh.transfer.IsOwnedRef(),
			}, nil
		},
	},
	{
		name:  "class-array",
		match: func(sh shape) bool { return sh.category == catClass && sh.array },
		build: func(sh shape) (Decision, error) {
			d := Decision{Strategy: ObjectArray, ElementWise: true, OwnershipTransferred: sh.transfer.IsOwnedRef()}
			if sh.direction == ToNative {
				d.Expr = sh.from + ".Select(cls => cls.Handle).ToArray()"
			} else {
				d.Expr = fmt.Sprintf("%s.Select(h => GObject.Native.ObjectWrapper.WrapHandle<%s>(h, %s)).ToArray()",
					sh.from, sh.managed(), sh.owned())
			}
			return d, nil
		},
	},
	{
		name:  "interface-array",
		match: func(sh shape) bool { return sh.category == catInterface && sh.array },
		build: func(sh shape) (Decision, error) {
			d := Decision{Strategy: InterfaceArray, ElementWise: true, OwnershipTransferred: sh.transfer.IsOwnedRef()}
			if sh.direction == ToNative {
				d.Expr = sh.from + ".Select(iface => (iface as GObject.Object).Handle).ToArray()"
			} else {
				d.Expr = fmt.Sprintf("%s.Select(h => GObject.Native.ObjectWrapper.WrapHandle<%s>(h, %s)).ToArray()",
					sh.from, sh.managed(), sh.owned())
			}
			return d, nil
		},
	},
	{
		name:  "interface",
		match: func(sh shape) bool { return sh.category == catInterface },
		build: func(sh shape) (Decision, error) {
			d := Decision{Strategy: InterfaceHandle, OwnershipTransferred: sh.transfer.IsOwnedRef()}
			if sh.direction == ToNative {
				d.Expr = fmt.Sprintf("(%s as GObject.Object).Handle", sh.from)
			} else {
				d.Expr = fmt.Sprintf("GObject.Native.ObjectWrapper.WrapHandle<%s>(%s, %s)", sh.managed(), sh.from, sh.owned())
			}
			return d, nil
		},
	},
	{
		name:  "union-to-managed",
		match: func(sh shape) bool { return sh.category == catUnion && sh.direction == ToManaged },
		build: func(sh shape) (Decision, error) {
			return Decision{
				Strategy:    UnionPlaceholder,
				Expr:        fmt.Sprintf("/* %s: union %s has no managed representation */", FixmeMarker, sh.managed()),
				Placeholder: true,
			}, nil
		},
	},
	{
		name:  "cast-array",
		match: func(sh shape) bool { return sh.array },
		build: func(sh shape) (Decision, error) {
			return decision(CastArray, fmt.Sprintf("(%s[])%s", sh.managed(), sh.from))
		},
	},
	{
		name:  "cast",
		match: func(shape) bool { return true },
		build: func(sh shape) (Decision, error) {
			return decision(Cast, fmt.Sprintf("(%s)%s", sh.managed(), sh.from))
		},
	},
}
