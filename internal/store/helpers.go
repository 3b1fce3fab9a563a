package store

import "strings"

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// int64sToArgs converts []int64 to []any for use with database/sql.
func int64sToArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// remap rewrites a fake (negative) batch ID to its committed ID. Real IDs
// pass through unchanged.
func remap(fakeToReal map[int64]int64, id int64) int64 {
	if id < 0 {
		return fakeToReal[id]
	}
	return id
}

// remapPtr is remap for nullable foreign keys.
func remapPtr(fakeToReal map[int64]int64, id *int64) *int64 {
	if id == nil || *id >= 0 {
		return id
	}
	v := fakeToReal[*id]
	return &v
}
