// Package marshal selects how a resolved value crosses the managed/native
// boundary. Selection is a pure function of the value's type category,
// pointer and array shape, ownership transfer and call direction, evaluated
// against an ordered rule table where the first matching rule wins.
package marshal

import (
	"fmt"

	"github.com/jward/girbind/internal/model"
)

// Direction is the direction a value travels.
type Direction int

const (
	ToNative Direction = iota
	ToManaged
)

func (d Direction) String() string {
	if d == ToManaged {
		return "to-managed"
	}
	return "to-native"
}

// Handle is the caller's wrapping preference for native handles arriving on
// the managed side. It only affects the ToManaged direction.
type Handle int

const (
	SafeHandle Handle = iota
	RawPointer
)

func (h Handle) String() string {
	if h == RawPointer {
		return "raw-pointer"
	}
	return "safe-handle"
}

// Strategy identifies the conversion a Decision applies.
type Strategy int

const (
	StringArrayNullTerminated Strategy = iota
	StringCopy
	StringDirect
	RecordHandle
	RecordHandleArray
	RecordByValue
	FundamentalConvert
	ObjectHandle
	ObjectWrap
	ObjectArray
	InterfaceHandle
	InterfaceArray
	UnionPlaceholder
	Cast
	CastArray
)

var strategyNames = [...]string{
	StringArrayNullTerminated: "string-array-null-terminated",
	StringCopy:                "string-copy",
	StringDirect:              "string-direct",
	RecordHandle:              "record-handle",
	RecordHandleArray:         "record-handle-array",
	RecordByValue:             "record-by-value",
	FundamentalConvert:        "fundamental-convert",
	ObjectHandle:              "object-handle",
	ObjectWrap:                "object-wrap",
	ObjectArray:               "object-array",
	InterfaceHandle:           "interface-handle",
	InterfaceArray:            "interface-array",
	UnionPlaceholder:          "union-placeholder",
	Cast:                      "cast",
	CastArray:                 "cast-array",
}

func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// FixmeMarker tags expressions generated for conversions that are not
// supported yet. Emitted code carrying it needs manual follow-up.
const FixmeMarker = "FIXME"

// Request is one marshaling question.
type Request struct {
	Value     model.Transferable
	From      string // source expression, usually a parameter name
	Namespace *model.Namespace
	Direction Direction
	Handle    Handle
}

// Decision is the selected conversion for one value and direction.
type Decision struct {
	Rule     string
	Strategy Strategy
	Expr     string

	// OwnershipTransferred is set when the receiver already owns the value,
	// so wrapping it needs no extra retain.
	OwnershipTransferred bool
	// Placeholder marks a recoverable gap: generation continues, but Expr
	// is not a working conversion.
	Placeholder bool
	// ElementWise is set for arrays converted one element at a time.
	ElementWise bool
}

// RetainRequired reports whether wrapping an object handle must take an
// extra reference.
func (d Decision) RetainRequired() bool {
	switch d.Strategy {
	case ObjectWrap, InterfaceHandle, ObjectArray, InterfaceArray:
		return !d.OwnershipTransferred
	}
	return false
}

// Select returns the decision for req. Fatal gaps return *UnsupportedError;
// reading an unresolved reference returns *model.NotResolvedError.
func Select(req Request) (Decision, error) {
	sh, err := newShape(req)
	if err != nil {
		return Decision{}, fmt.Errorf("marshal %s: %w", req.From, err)
	}
	for _, r := range rules {
		if !r.match(sh) {
			continue
		}
		d, err := r.build(sh)
		if err != nil {
			return Decision{}, err
		}
		d.Rule = r.name
		return d, nil
	}
	// The cast rules match everything.
	panic("marshal: no rule matched " + req.From)
}

// SelectToNative selects the managed-to-native conversion of v.
func SelectToNative(v model.Transferable, from string, ns *model.Namespace) (Decision, error) {
	return Select(Request{Value: v, From: from, Namespace: ns, Direction: ToNative})
}

// SelectToManaged selects the native-to-managed conversion of v.
func SelectToManaged(v model.Transferable, from string, ns *model.Namespace, h Handle) (Decision, error) {
	return Select(Request{Value: v, From: from, Namespace: ns, Direction: ToManaged, Handle: h})
}

// SizeParamAttribute returns the interop attribute linking an array to its
// length parameter, or "" when the array carries no length.
func SizeParamAttribute(a *model.ArrayInfo) string {
	if !a.HasLength() {
		return ""
	}
	return fmt.Sprintf("[MarshalAs(UnmanagedType.LPArray, SizeParamIndex=%d)]", *a.Length)
}
