package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// ComputeSignatureHash computes a deterministic hash from a symbol's
// semantic identity: name, kind, native type tag, enumeration members,
// properties and fields, and the signatures of its callables. Insertion
// order of members and fields does not affect the hash.
func ComputeSignatureHash(
	name, kind, ctype string,
	members []*Member,
	typeMembers []*TypeMember,
	params []*Parameter,
) string {
	h := sha256.New()

	fmt.Fprintf(h, "name:%s\n", name)
	fmt.Fprintf(h, "kind:%s\n", kind)
	fmt.Fprintf(h, "ctype:%s\n", ctype)

	mkeys := make([]string, len(members))
	for i, m := range members {
		mkeys[i] = fmt.Sprintf("%s=%d:%s", m.Name, m.Value, m.CIdentifier)
	}
	sort.Strings(mkeys)
	for _, k := range mkeys {
		fmt.Fprintf(h, "member:%s\n", k)
	}

	tkeys := make([]string, len(typeMembers))
	for i, tm := range typeMembers {
		tkeys[i] = fmt.Sprintf("%s:%s:%s:%v:%v", tm.Kind, tm.Name, tm.Transfer, tm.Readable, tm.Writable)
	}
	sort.Strings(tkeys)
	for _, k := range tkeys {
		fmt.Fprintf(h, "typemember:%s\n", k)
	}

	// Params keep callable order; ordinals repeat across callables.
	for _, p := range params {
		fmt.Fprintf(h, "param:%s:%d:%v:%v:%s:%s:%v:%v\n",
			p.Name, p.Ordinal, p.IsInstance, p.IsReturn, p.Direction, p.Transfer, p.Nullable, p.IsPointer)
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}

// HashBytes returns the hex SHA-256 of a document's contents.
func HashBytes(b []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(b))
}
