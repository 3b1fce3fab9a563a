// Package naming maps identifiers from interface-description documents to
// target-symbol identifiers and native calling identifiers. All functions are
// pure.
package naming

import (
	"strings"
	"unicode"
)

// reserved holds the target language's keywords. Identifiers colliding with
// one of these are escaped with a leading '@'.
var reserved = map[string]bool{
	"abstract": true, "as": true, "base": true, "bool": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true, "checked": true,
	"class": true, "const": true, "continue": true, "decimal": true,
	"default": true, "delegate": true, "do": true, "double": true,
	"else": true, "enum": true, "event": true, "explicit": true,
	"extern": true, "false": true, "finally": true, "fixed": true,
	"float": true, "for": true, "foreach": true, "goto": true, "if": true,
	"implicit": true, "in": true, "int": true, "interface": true,
	"internal": true, "is": true, "lock": true, "long": true,
	"namespace": true, "new": true, "null": true, "object": true,
	"operator": true, "out": true, "override": true, "params": true,
	"private": true, "protected": true, "public": true, "readonly": true,
	"ref": true, "return": true, "sbyte": true, "sealed": true,
	"short": true, "sizeof": true, "stackalloc": true, "static": true,
	"string": true, "struct": true, "switch": true, "this": true,
	"throw": true, "true": true, "try": true, "typeof": true, "uint": true,
	"ulong": true, "unchecked": true, "unsafe": true, "ushort": true,
	"using": true, "virtual": true, "void": true, "volatile": true,
	"while": true,
}

// IsReserved reports whether s is a keyword of the target language.
func IsReserved(s string) bool {
	return reserved[s]
}

// words splits an identifier on '_', '-', ' ' and '.'.
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
}

// ToPascalCase converts "button-press-event" and "get_name" style identifiers
// to "ButtonPressEvent" and "GetName". Existing inner capitals are kept.
func ToPascalCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, w := range words(s) {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

// ToCamelCase is ToPascalCase with a lower-case first rune.
func ToCamelCase(s string) string {
	p := ToPascalCase(s)
	if p == "" {
		return p
	}
	r := []rune(p)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// EscapeIdentifier makes s usable as a target-language identifier.
func EscapeIdentifier(s string) string {
	if s == "" {
		return s
	}
	if reserved[s] {
		return "@" + s
	}
	if unicode.IsDigit([]rune(s)[0]) {
		return "_" + s
	}
	return s
}

// SymbolName returns the target-symbol identifier for a type, method,
// property or signal name.
func SymbolName(s string) string {
	return EscapeIdentifier(ToPascalCase(s))
}

// ParameterName returns the target identifier for a parameter or local.
func ParameterName(s string) string {
	return EscapeIdentifier(ToCamelCase(s))
}

// ConstantName keeps the upper-snake spelling of constants and only escapes.
func ConstantName(s string) string {
	return EscapeIdentifier(s)
}

// MemberName returns the target identifier of an enumeration member:
// "top_left" becomes "TopLeft".
func MemberName(s string) string {
	return SymbolName(strings.ToLower(s))
}

// NativeName returns the identifier used to call a native function. The
// document's explicit C identifier wins; otherwise the symbol prefix and the
// source name are joined in lower snake case ("gtk" + "show_all").
func NativeName(cIdentifier, symbolPrefix, name string) string {
	if cIdentifier != "" {
		return cIdentifier
	}
	n := strings.ReplaceAll(name, "-", "_")
	if symbolPrefix == "" {
		return n
	}
	return strings.ToLower(symbolPrefix) + "_" + n
}
