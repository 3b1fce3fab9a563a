package ctype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Parallel()
	p := NewParser()

	tests := []struct {
		tag   string
		base  string
		depth int
		cnst  bool
		ptr   bool
	}{
		{"gint", "gint", 0, false, false},
		{"GtkWidget*", "GtkWidget", 1, false, true},
		{"const gchar*", "gchar", 1, true, true},
		{"gchar**", "gchar", 2, false, true},
		{"const gchar* const*", "gchar", 2, true, true},
		{"unsigned int", "unsigned int", 0, false, false},
		{"gpointer", "gpointer", 0, false, true},
		{"void", "void", 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			t.Parallel()
			got := p.Parse(tt.tag)
			assert.Equal(t, tt.base, got.Base)
			assert.Equal(t, tt.depth, got.PointerDepth)
			assert.Equal(t, tt.cnst, got.Const)
			assert.Equal(t, tt.ptr, got.IsPointer())
		})
	}
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Info{}, NewParser().Parse("  "))
}

func TestParse_Cached(t *testing.T) {
	t.Parallel()
	p := NewParser()
	first := p.Parse("GObject*")
	second := p.Parse("GObject*")
	assert.Equal(t, first, second)
	assert.Len(t, p.cache, 1)
}

func TestScanFallback(t *testing.T) {
	t.Parallel()
	got := scan("const struct _GFoo **")
	assert.Equal(t, "struct _GFoo", got.Base)
	assert.Equal(t, 2, got.PointerDepth)
	assert.True(t, got.Const)
}
