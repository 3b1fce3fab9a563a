// Package girbind builds a resolved, language-neutral model of GObject
// Introspection (GIR) repositories and selects, for every value crossing a
// native call boundary, the strategy that converts it between its managed
// and native representation.
//
// # Pipeline
//
// girbind operates in two phases:
//
//  1. Load: Each GIR document is parsed into a raw document tree and built
//     into a namespace. Every type mentioned by a member is recorded as an
//     unresolved type reference. Documents may be built in parallel.
//
//  2. Resolve: Once the whole dependency closure is loaded, every reference
//     is bound to its target type in a single pass, as internal (same
//     namespace) or external (another namespace). Forward and circular
//     references between namespaces resolve regardless of load order.
//
// After Resolve the engine is sealed and the model is read-only.
//
// # Usage
//
//	e, err := girbind.New(girbind.WithStore("girbind.db"))
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	err = e.LoadFiles(ctx, []string{"GLib-2.0.gir", "GObject-2.0.gir", "Gtk-4.0.gir"})
//	err = e.Resolve(ctx)
//
//	desc, err := e.Describe("Gtk", "gtk_widget_set_name", girbind.SafeHandle)
//	stats, err := e.Index(ctx)
//
// # Marshaling
//
// [Engine.Describe] and [Engine.Marshal] run the ordered rule table of the
// internal/marshal package. A value with no safe conversion yet yields a
// placeholder decision whose expression carries a FIXME marker; a value
// with no conversion at all fails with an error naming the callable, the
// value and its direction.
//
// # Index
//
// [Engine.Index] persists the resolved model and every marshaling decision
// to SQLite. Unchanged documents are skipped by content hash, and
// namespaces referencing a changed namespace are re-indexed with it. The
// [QueryBuilder] returned by [Engine.Query] lists, searches and inspects
// the index.
//
// # Scripts
//
// Binding emitters are Risor scripts at scripts/emit/{language}.risor. The
// scripts package embeds the bundled ones.
//
// Scripts read the resolved model through host functions and write files
// below the configured output directory. See the internal/runtime package
// for the full set of globals exposed to scripts.
package girbind
