package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor/object"

	"github.com/jward/girbind/internal/ctype"
	"github.com/jward/girbind/internal/marshal"
	"github.com/jward/girbind/internal/model"
)

// makeNamespacesFn creates the "namespaces" host function.
//
// namespaces() → [{name, version, shared_library, canonical_name, includes}]
func makeNamespacesFn(r *Runtime) *object.Builtin {
	return object.NewBuiltin("namespaces", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("namespaces", 0, len(args))
		}
		out := make([]object.Object, 0, len(r.order))
		for _, repo := range r.order {
			incs := make([]object.Object, 0, len(repo.Includes))
			for _, inc := range repo.Includes {
				incs = append(incs, object.NewString(inc.Name+"-"+inc.Version))
			}
			out = append(out, object.NewMap(map[string]object.Object{
				"name":           object.NewString(repo.Name()),
				"version":        object.NewString(repo.Version()),
				"shared_library": object.NewString(repo.SharedLibrary()),
				"canonical_name": object.NewString(repo.CanonicalName()),
				"includes":       object.NewList(incs),
			}))
		}
		return object.NewList(out)
	})
}

// makeSymbolsFn creates the "symbols" host function.
//
// symbols(namespace) → [{name, managed_name, kind, ctype, qualified_name, ...}]
func makeSymbolsFn(r *Runtime) *object.Builtin {
	return object.NewBuiltin("symbols", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("symbols", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("symbols: %v", err)
		}
		ns, err := r.namespace(name)
		if err != nil {
			return object.Errorf("symbols: %v", err)
		}
		out := make([]object.Object, 0, len(ns.Types()))
		for _, sym := range ns.Types() {
			out = append(out, symbolToMap(sym))
		}
		return object.NewList(out)
	})
}

func symbolToMap(sym model.Symbol) object.Object {
	m := map[string]object.Object{
		"name":           object.NewString(sym.Name()),
		"managed_name":   object.NewString(sym.ManagedName()),
		"kind":           object.NewString(sym.Kind().String()),
		"ctype":          object.NewString(sym.CType()),
		"qualified_name": object.NewString(model.QualifiedName(sym)),
	}
	switch v := sym.(type) {
	case *model.Class:
		m["abstract"] = object.NewBool(v.Abstract)
		m["fundamental"] = object.NewBool(v.Fundamental)
		m["parent"] = refToObject(v.Parent)
		m["implements"] = refsToList(v.Implements)
	case *model.Interface:
		m["prerequisites"] = refsToList(v.Prerequisites)
	case *model.Alias:
		m["target"] = refToObject(v.Target)
	case *model.Constant:
		m["value"] = object.NewString(v.Value)
		m["type"] = refToObject(v.TypeReference)
	}
	return object.NewMap(m)
}

func refToObject(ref *model.TypeReference) object.Object {
	if ref == nil {
		return object.Nil
	}
	return object.NewString(ref.String())
}

func refsToList(refs []*model.TypeReference) object.Object {
	out := make([]object.Object, 0, len(refs))
	for _, ref := range refs {
		out = append(out, refToObject(ref))
	}
	return object.NewList(out)
}

// makeMembersFn creates the "members" host function.
//
// members(namespace, enumeration) → [{name, managed_name, c_identifier, value}]
func makeMembersFn(r *Runtime) *object.Builtin {
	return object.NewBuiltin("members", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("members", 2, len(args))
		}
		nsName, err := toString(args[0])
		if err != nil {
			return object.Errorf("members: %v", err)
		}
		enumName, err := toString(args[1])
		if err != nil {
			return object.Errorf("members: %v", err)
		}
		ns, err := r.namespace(nsName)
		if err != nil {
			return object.Errorf("members: %v", err)
		}
		sym, ok := ns.Lookup(enumName)
		enum, isEnum := sym.(*model.Enumeration)
		if !ok || !isEnum {
			return object.Errorf("members: %s.%s is not an enumeration", nsName, enumName)
		}
		out := make([]object.Object, 0, len(enum.Members))
		for _, m := range enum.Members {
			out = append(out, object.NewMap(map[string]object.Object{
				"name":         object.NewString(m.Name),
				"managed_name": object.NewString(m.ManagedName),
				"c_identifier": object.NewString(m.CIdentifier),
				"value":        object.NewInt(m.Value),
			}))
		}
		return object.NewList(out)
	})
}

// makeCallablesFn creates the "callables" host function. With one argument
// it lists every callable of the namespace; with two, only those owned by
// the named symbol ("" selects namespace-level functions).
//
// callables(namespace[, owner]) → [{name, managed_name, native_name, role, owner, parameters, return}]
func makeCallablesFn(r *Runtime) *object.Builtin {
	return object.NewBuiltin("callables", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 || len(args) > 2 {
			return object.Errorf("callables: expected 1 or 2 arguments, got %d", len(args))
		}
		nsName, err := toString(args[0])
		if err != nil {
			return object.Errorf("callables: %v", err)
		}
		ns, err := r.namespace(nsName)
		if err != nil {
			return object.Errorf("callables: %v", err)
		}
		filter, filtered := "", len(args) == 2
		if filtered {
			if filter, err = toString(args[1]); err != nil {
				return object.Errorf("callables: %v", err)
			}
		}

		out := []object.Object{}
		model.WalkCallables(ns, func(owner model.Symbol, role model.CallableRole, c *model.Callable) {
			ownerName := ""
			if owner != nil {
				ownerName = owner.Name()
			}
			if filtered && ownerName != filter {
				return
			}
			out = append(out, callableToMap(c, ownerName, role))
		})
		return object.NewList(out)
	})
}

func callableToMap(c *model.Callable, owner string, role model.CallableRole) object.Object {
	params := make([]object.Object, 0, len(c.Parameters.Parameters)+1)
	for _, p := range c.Parameters.All() {
		params = append(params, parameterToMap(p, p == c.Parameters.Instance))
	}
	ret := object.Object(object.Nil)
	if c.ReturnValue != nil {
		ret = object.NewMap(map[string]object.Object{
			"type":     refToObject(c.ReturnValue.TypeReference),
			"transfer": object.NewString(c.ReturnValue.Transfer.String()),
			"nullable": object.NewBool(c.ReturnValue.Nullable),
		})
	}
	return object.NewMap(map[string]object.Object{
		"name":           object.NewString(c.Name),
		"managed_name":   object.NewString(c.ManagedName),
		"native_name":    object.NewString(c.NativeName),
		"role":           object.NewString(string(role)),
		"owner":          object.NewString(owner),
		"throws":         object.NewBool(c.Throws),
		"deprecated":     object.NewBool(c.Deprecated),
		"introspectable": object.NewBool(c.Introspectable),
		"parameters":     object.NewList(params),
		"return":         ret,
	})
}

func parameterToMap(p *model.Parameter, instance bool) object.Object {
	return object.NewMap(map[string]object.Object{
		"name":         object.NewString(p.Name),
		"managed_name": object.NewString(p.ManagedName),
		"type":         refToObject(p.TypeReference),
		"transfer":     object.NewString(p.Transfer.String()),
		"direction":    object.NewString(p.Direction.String()),
		"nullable":     object.NewBool(p.Nullable),
		"is_pointer":   object.NewBool(p.TypeInformation.IsPointer),
		"is_array":     object.NewBool(p.TypeInformation.IsArray()),
		"is_instance":  object.NewBool(instance),
		"varargs":      object.NewBool(p.Varargs),
	})
}

// makeDescribeFn creates the "describe" host function: every marshaling
// decision for one callable, looked up by native name. A conversion with no
// strategy raises a script error.
//
// describe(namespace, native_name[, "raw-pointer"]) → {native_name, parameters, return, placeholders}
func makeDescribeFn(r *Runtime) *object.Builtin {
	return object.NewBuiltin("describe", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 2 || len(args) > 3 {
			return object.Errorf("describe: expected 2 or 3 arguments, got %d", len(args))
		}
		nsName, err := toString(args[0])
		if err != nil {
			return object.Errorf("describe: %v", err)
		}
		native, err := toString(args[1])
		if err != nil {
			return object.Errorf("describe: %v", err)
		}
		handle := marshal.SafeHandle
		if len(args) == 3 {
			h, err := toString(args[2])
			if err != nil {
				return object.Errorf("describe: %v", err)
			}
			if h == marshal.RawPointer.String() {
				handle = marshal.RawPointer
			}
		}

		ns, err := r.namespace(nsName)
		if err != nil {
			return object.Errorf("describe: %v", err)
		}
		_, c, ok := model.FindCallable(ns, native)
		if !ok {
			return object.Errorf("describe: no callable %s in %s", native, nsName)
		}
		desc, err := marshal.Describe(c, ns, handle)
		if err != nil {
			return object.Errorf("describe: %v", err)
		}

		params := make([]object.Object, 0, len(desc.Parameters))
		for _, v := range desc.Parameters {
			params = append(params, valueDecisionsToMap(v))
		}
		ret := object.Object(object.Nil)
		if desc.Return != nil {
			ret = valueDecisionsToMap(*desc.Return)
		}
		return object.NewMap(map[string]object.Object{
			"native_name":  object.NewString(c.NativeName),
			"managed_name": object.NewString(c.ManagedName),
			"throws":       object.NewBool(c.Throws),
			"parameters":   object.NewList(params),
			"return":       ret,
			"placeholders": object.NewInt(int64(len(desc.Placeholders()))),
		})
	})
}

func valueDecisionsToMap(v marshal.ValueDecisions) object.Object {
	return object.NewMap(map[string]object.Object{
		"name":       object.NewString(v.Name),
		"attribute":  object.NewString(v.Attribute),
		"to_native":  decisionToMap(v.ToNative),
		"to_managed": decisionToMap(v.ToManaged),
	})
}

func decisionToMap(d marshal.Decision) object.Object {
	return object.NewMap(map[string]object.Object{
		"rule":                  object.NewString(d.Rule),
		"strategy":              object.NewString(d.Strategy.String()),
		"expr":                  object.NewString(d.Expr),
		"ownership_transferred": object.NewBool(d.OwnershipTransferred),
		"placeholder":           object.NewBool(d.Placeholder),
		"element_wise":          object.NewBool(d.ElementWise),
		"retain":                object.NewBool(d.RetainRequired()),
	})
}

// makeParseCTypeFn creates the "parse_ctype" host function.
//
// parse_ctype(tag) → {base, pointer_depth, const, is_pointer}
func makeParseCTypeFn(p *ctype.Parser) *object.Builtin {
	return object.NewBuiltin("parse_ctype", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("parse_ctype", 1, len(args))
		}
		tag, err := toString(args[0])
		if err != nil {
			return object.Errorf("parse_ctype: %v", err)
		}
		info := p.Parse(tag)
		return object.NewMap(map[string]object.Object{
			"base":          object.NewString(info.Base),
			"pointer_depth": object.NewInt(int64(info.PointerDepth)),
			"const":         object.NewBool(info.Const),
			"is_pointer":    object.NewBool(info.IsPointer()),
		})
	})
}

// emitBuffer holds the files a script emits. Nothing reaches the output
// directory until the script has finished without error.
type emitBuffer struct {
	outputDir string
	order     []string
	files     map[string]string
}

func newEmitBuffer(outputDir string) *emitBuffer {
	return &emitBuffer{outputDir: outputDir, files: make(map[string]string)}
}

// builtin creates the "emit" host function. Paths are relative to the
// output directory and may not leave it. Emitting a path twice keeps the
// last text.
//
// emit(path, text) → destination path
func (b *emitBuffer) builtin() *object.Builtin {
	return object.NewBuiltin("emit", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("emit", 2, len(args))
		}
		if b.outputDir == "" {
			return object.Errorf("emit: no output directory configured")
		}
		rel, err := toString(args[0])
		if err != nil {
			return object.Errorf("emit: %v", err)
		}
		text, err := toString(args[1])
		if err != nil {
			return object.Errorf("emit: %v", err)
		}
		clean := filepath.Clean(filepath.FromSlash(rel))
		if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return object.Errorf("emit: path %q escapes the output directory", rel)
		}
		full := filepath.Join(b.outputDir, clean)
		if _, seen := b.files[full]; !seen {
			b.order = append(b.order, full)
		}
		b.files[full] = text
		return object.NewString(full)
	})
}

// flush writes every buffered file in emission order and returns how many
// were written.
func (b *emitBuffer) flush() (int, error) {
	for _, full := range b.order {
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return 0, fmt.Errorf("emit: %w", err)
		}
		if err := os.WriteFile(full, []byte(b.files[full]), 0o644); err != nil {
			return 0, fmt.Errorf("emit: %w", err)
		}
	}
	return len(b.order), nil
}

// logObject provides log.debug/info/warn/error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Debug(msg string) { l.logger.Debug(msg, "source", "script") }
func (l *logObject) Info(msg string)  { l.logger.Info(msg, "source", "script") }
func (l *logObject) Warn(msg string)  { l.logger.Warn(msg, "source", "script") }
func (l *logObject) Error(msg string) { l.logger.Error(msg, "source", "script") }
