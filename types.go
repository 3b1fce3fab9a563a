package girbind

import (
	"github.com/jward/girbind/internal/marshal"
	"github.com/jward/girbind/internal/store"
)

// Public type aliases for internal types used in the Engine and
// QueryBuilder APIs. External consumers use these names; no conversion is
// needed.

type Store = store.Store
type Symbol = store.Symbol
type Namespace = store.Namespace
type Member = store.Member
type TypeMember = store.TypeMember
type Callable = store.Callable
type Parameter = store.Parameter
type TypeReference = store.TypeReference
type MarshalDecision = store.MarshalDecision
type Placeholder = store.Placeholder

type Decision = marshal.Decision
type Description = marshal.Description
type Handle = marshal.Handle
type Direction = marshal.Direction

const (
	SafeHandle = marshal.SafeHandle
	RawPointer = marshal.RawPointer
	ToNative   = marshal.ToNative
	ToManaged  = marshal.ToManaged
)
