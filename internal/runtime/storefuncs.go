package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/risor-io/risor/object"

	"github.com/jward/girbind/internal/store"
)

// Store-backed host functions read the index written by Engine.Index. They
// are only registered when the Runtime has a Store.

func makeSymbolsByNameFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("symbols_by_name", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("symbols_by_name", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("symbols_by_name: %v", err)
		}

		syms, err := s.SymbolsByName(name)
		if err != nil {
			return object.Errorf("symbols_by_name: %v", err)
		}
		return symbolsToList(syms)
	})
}

// namespace_symbols(name) → [{id, name, kind, ...}] in index order
func makeNamespaceSymbolsFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("namespace_symbols", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("namespace_symbols", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("namespace_symbols: %v", err)
		}
		ns, err := s.NamespaceByName(name)
		if err != nil {
			return object.Errorf("namespace_symbols: %v", err)
		}
		if ns == nil {
			return object.NewList([]object.Object{})
		}
		syms, err := s.SymbolsByNamespace(ns.ID)
		if err != nil {
			return object.Errorf("namespace_symbols: %v", err)
		}
		return symbolsToList(syms)
	})
}

// symbol_by_id(id) → {id, name, kind, ...} or nil
func makeSymbolByIDFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("symbol_by_id", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("symbol_by_id", 1, len(args))
		}
		id, ok := args[0].(*object.Int)
		if !ok {
			return object.Errorf("symbol_by_id: expected int, got %s", args[0].Type())
		}
		sym, err := s.SymbolByID(id.Value())
		if err != nil {
			return object.Errorf("symbol_by_id: %v", err)
		}
		if sym == nil {
			return object.Nil
		}
		return storeSymbolToMap(sym)
	})
}

// makeSymbolsByKindFn creates "symbols_by_kind". The optional filter map
// narrows the result to one namespace.
//
// symbols_by_kind(kind[, {"namespace": "Gtk"}]) → [{id, name, kind, ...}]
func makeSymbolsByKindFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("symbols_by_kind", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 || len(args) > 2 {
			return object.Errorf("symbols_by_kind: expected 1 or 2 arguments, got %d", len(args))
		}
		kind, err := toString(args[0])
		if err != nil {
			return object.Errorf("symbols_by_kind: %v", err)
		}
		var nsID int64
		if len(args) == 2 {
			m, err := extractMap(args[1])
			if err != nil {
				return object.Errorf("symbols_by_kind: %v", err)
			}
			if name := getString(m, "namespace"); name != "" {
				ns, err := s.NamespaceByName(name)
				if err != nil {
					return object.Errorf("symbols_by_kind: %v", err)
				}
				if ns == nil {
					return object.NewList([]object.Object{})
				}
				nsID = ns.ID
			}
		}

		syms, err := s.SymbolsByKind(nsID, kind)
		if err != nil {
			return object.Errorf("symbols_by_kind: %v", err)
		}
		return symbolsToList(syms)
	})
}

// makePlaceholdersFn creates "placeholders". Passing {"unsupported": true}
// lists the fatal gaps recorded during indexing instead.
//
// placeholders([opts]) → [{namespace, native_name, parameter, direction, strategy, expr}]
func makePlaceholdersFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("placeholders", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) > 1 {
			return object.Errorf("placeholders: expected at most 1 argument, got %d", len(args))
		}
		unsupported := false
		if len(args) == 1 {
			m, err := extractMap(args[0])
			if err != nil {
				return object.Errorf("placeholders: %v", err)
			}
			unsupported = getBool(m, "unsupported")
		}

		ps, err := s.Placeholders(unsupported)
		if err != nil {
			return object.Errorf("placeholders: %v", err)
		}
		out := make([]object.Object, 0, len(ps))
		for _, p := range ps {
			out = append(out, object.NewMap(map[string]object.Object{
				"namespace":   object.NewString(p.Namespace),
				"native_name": object.NewString(p.NativeName),
				"parameter":   object.NewString(p.Parameter),
				"direction":   object.NewString(p.Direction),
				"strategy":    object.NewString(p.Strategy),
				"expr":        object.NewString(p.Expr),
			}))
		}
		return object.NewList(out)
	})
}

// dependencies() → [{from, to, references}]
func makeDependenciesFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("dependencies", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("dependencies", 0, len(args))
		}
		deps, err := s.Dependencies()
		if err != nil {
			return object.Errorf("dependencies: %v", err)
		}
		out := make([]object.Object, 0, len(deps))
		for _, d := range deps {
			out = append(out, object.NewMap(map[string]object.Object{
				"from":       object.NewString(d.From),
				"to":         object.NewString(d.To),
				"references": object.NewInt(int64(d.References)),
			}))
		}
		return object.NewList(out)
	})
}

// --- Map extraction helpers ---

func extractMap(obj object.Object) (map[string]object.Object, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return m.Value(), nil
}

func getString(m map[string]object.Object, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	if s, ok := v.(*object.String); ok {
		return s.Value()
	}
	return ""
}

func getBool(m map[string]object.Object, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	if b, ok := v.(*object.Bool); ok {
		return b.Value()
	}
	return false
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}

func makeDBQueryFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("db_query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 {
			return object.Errorf("db_query: expected at least 1 argument (sql), got %d", len(args))
		}
		sqlStr, err := toString(args[0])
		if err != nil {
			return object.Errorf("db_query: %v", err)
		}

		// Only allow SELECT statements.
		trimmed := strings.TrimSpace(strings.ToUpper(sqlStr))
		if !strings.HasPrefix(trimmed, "SELECT") {
			return object.Errorf("db_query: only SELECT queries are allowed")
		}

		var queryArgs []any
		for _, arg := range args[1:] {
			switch v := arg.(type) {
			case *object.Int:
				queryArgs = append(queryArgs, v.Value())
			case *object.Float:
				queryArgs = append(queryArgs, v.Value())
			case *object.String:
				queryArgs = append(queryArgs, v.Value())
			case *object.Bool:
				queryArgs = append(queryArgs, v.Value())
			case *object.NilType:
				queryArgs = append(queryArgs, nil)
			default:
				queryArgs = append(queryArgs, fmt.Sprintf("%v", arg))
			}
		}

		rows, queryErr := s.DB().QueryContext(ctx, sqlStr, queryArgs...)
		if queryErr != nil {
			return object.Errorf("db_query: %v", queryErr)
		}
		defer rows.Close()

		cols, colErr := rows.Columns()
		if colErr != nil {
			return object.Errorf("db_query: columns: %v", colErr)
		}

		results := []object.Object{}
		for rows.Next() {
			values := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return object.Errorf("db_query: scan: %v", err)
			}
			row := make(map[string]object.Object, len(cols))
			for i, col := range cols {
				row[col] = sqlValueToObject(values[i])
			}
			results = append(results, object.NewMap(row))
		}
		if err := rows.Err(); err != nil {
			return object.Errorf("db_query: rows: %v", err)
		}
		return object.NewList(results)
	})
}

// sqlValueToObject converts a database value to a Risor object.
func sqlValueToObject(v any) object.Object {
	if v == nil {
		return object.Nil
	}
	switch val := v.(type) {
	case int64:
		return object.NewInt(val)
	case float64:
		return object.NewFloat(val)
	case string:
		return object.NewString(val)
	case bool:
		return object.NewBool(val)
	case []byte:
		return object.NewString(string(val))
	default:
		return object.NewString(fmt.Sprintf("%v", val))
	}
}

// symbolsToList converts indexed symbols to a Risor list of maps.
func symbolsToList(syms []*store.Symbol) object.Object {
	results := make([]object.Object, 0, len(syms))
	for _, sym := range syms {
		results = append(results, storeSymbolToMap(sym))
	}
	return object.NewList(results)
}

func storeSymbolToMap(sym *store.Symbol) object.Object {
	return object.NewMap(map[string]object.Object{
		"id":             object.NewInt(sym.ID),
		"namespace_id":   object.NewInt(sym.NamespaceID),
		"name":           object.NewString(sym.Name),
		"managed_name":   object.NewString(sym.ManagedName),
		"kind":           object.NewString(sym.Kind),
		"ctype":          object.NewString(sym.CType),
		"abstract":       object.NewBool(sym.Abstract),
		"fundamental":    object.NewBool(sym.Fundamental),
		"signature_hash": object.NewString(sym.SignatureHash),
	})
}
