// Package ctype reads native type tags such as "const gchar* const*" with the
// tree-sitter C grammar and reports their base type, pointer depth and
// constness.
package ctype

import (
	"context"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

// placeholder is the declarator name appended to a type tag so it parses as
// a complete C declaration.
const placeholder = "__girbind_value"

// pointerTypedefs are typedef names that are pointers without a '*'.
var pointerTypedefs = map[string]bool{
	"gpointer":      true,
	"gconstpointer": true,
	"va_list":       true,
}

// Info is the parsed shape of a native type tag.
type Info struct {
	Base         string // "gchar", "GtkWidget", "unsigned int"
	PointerDepth int
	Const        bool
	// Typedef is set when Base is a known pointer typedef (gpointer).
	Typedef bool
}

// IsPointer reports whether the tag denotes a pointer, either through '*'
// or through a pointer typedef.
func (i Info) IsPointer() bool {
	return i.PointerDepth > 0 || i.Typedef
}

// Parser parses type tags and caches the results. It is safe for concurrent
// use; every Parse call uses its own tree-sitter parser.
type Parser struct {
	mu    sync.Mutex
	cache map[string]Info
}

func NewParser() *Parser {
	return &Parser{cache: make(map[string]Info)}
}

// Parse returns the shape of tag. Tags tree-sitter cannot read are measured
// by counting '*' instead.
func (p *Parser) Parse(tag string) Info {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return Info{}
	}

	p.mu.Lock()
	info, ok := p.cache[tag]
	p.mu.Unlock()
	if ok {
		return info
	}

	info, ok = parseTree(tag)
	if !ok {
		info = scan(tag)
	}
	info.Typedef = pointerTypedefs[info.Base]

	p.mu.Lock()
	p.cache[tag] = info
	p.mu.Unlock()
	return info
}

func parseTree(tag string) (Info, bool) {
	src := []byte(tag + " " + placeholder + ";")

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(c.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return Info{}, false
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return Info{}, false
	}

	var decl *sitter.Node
	for i := 0; i < int(root.NamedChildCount()); i++ {
		if child := root.NamedChild(i); child.Type() == "declaration" {
			decl = child
			break
		}
	}
	if decl == nil {
		return Info{}, false
	}

	typeNode := decl.ChildByFieldName("type")
	if typeNode == nil {
		return Info{}, false
	}
	info := Info{Base: typeNode.Content(src)}

	for i := 0; i < int(decl.ChildCount()); i++ {
		child := decl.Child(i)
		if child.Type() == "type_qualifier" && child.Content(src) == "const" {
			info.Const = true
		}
	}

	d := decl.ChildByFieldName("declarator")
	for d != nil {
		switch d.Type() {
		case "pointer_declarator", "array_declarator":
			info.PointerDepth++
			d = d.ChildByFieldName("declarator")
		default:
			d = nil
		}
	}
	return info, true
}

// scan is the fallback reader for tags the grammar rejects.
func scan(tag string) Info {
	info := Info{PointerDepth: strings.Count(tag, "*")}
	base := strings.ReplaceAll(tag, "*", " ")
	var words []string
	for _, w := range strings.Fields(base) {
		if w == "const" || w == "volatile" {
			info.Const = true
			continue
		}
		words = append(words, w)
	}
	info.Base = strings.Join(words, " ")
	return info
}
