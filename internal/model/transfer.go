package model

import "strings"

// Transfer is the ownership-transfer annotation of a value crossing a call.
type Transfer int

const (
	// TransferNone: the receiver takes no ownership.
	TransferNone Transfer = iota
	// TransferContainer: the container is owned by the receiver, its
	// elements are not.
	TransferContainer
	// TransferFull: everything is owned by the receiver.
	TransferFull
)

func (t Transfer) String() string {
	switch t {
	case TransferContainer:
		return "container"
	case TransferFull:
		return "full"
	default:
		return "none"
	}
}

// IsOwnedRef reports whether the receiver already owns a reference, so no
// extra retain is needed when wrapping the value.
func (t Transfer) IsOwnedRef() bool {
	return t != TransferNone
}

// ParseTransfer reads a transfer-ownership annotation. Matching is
// case-insensitive; an absent annotation means none. "everything" and "full"
// are synonyms.
func ParseTransfer(s *string) (Transfer, bool) {
	if s == nil {
		return TransferNone, true
	}
	switch strings.ToLower(strings.TrimSpace(*s)) {
	case "", "none":
		return TransferNone, true
	case "container":
		return TransferContainer, true
	case "full", "everything":
		return TransferFull, true
	}
	return TransferNone, false
}

// ArrayInfo describes the array shape of a value.
type ArrayInfo struct {
	// Length is the index of the parameter carrying the element count.
	Length         *int
	ZeroTerminated bool
	FixedSize      *int
	CType          string
}

// HasLength reports whether the array is linked to a length parameter.
func (a *ArrayInfo) HasLength() bool {
	return a != nil && a.Length != nil
}

// TypeInformation is the pointer/array shape of a value.
type TypeInformation struct {
	IsPointer bool
	Array     *ArrayInfo
}

// IsArray reports whether the value is an array.
func (ti TypeInformation) IsArray() bool { return ti.Array != nil }

// TransferableAnyType is a typed value with its ownership annotation. Every
// parameter and return value carries one.
type TransferableAnyType struct {
	TypeReference   *TypeReference
	Transfer        Transfer
	TypeInformation TypeInformation
}

// Transferable is implemented by parameters, return values and properties.
type Transferable interface {
	AnyType() *TransferableAnyType
	IsReturnValue() bool
}
