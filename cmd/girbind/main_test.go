package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/girbind"
)

func TestFindRepoRoot_DirectGitDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	got := findRepoRoot(root)
	assert.Equal(t, root, got)
}

func TestFindRepoRoot_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	deep := filepath.Join(root, "sub", "deep")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	got := findRepoRoot(deep)
	assert.Equal(t, root, got)
}

func TestFindRepoRoot_NoGitAncestor(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	got := findRepoRoot(dir)
	assert.Equal(t, dir, got)
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"text", false},
		{"xml", true},
		{"", true},
	} {
		t.Run(tc.format, func(t *testing.T) {
			t.Parallel()
			err := validateFormat(tc.format)
			if tc.wantErr {
				assert.ErrorContains(t, err, "invalid format")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	} {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseLogLevel(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := parseLogLevel("loud")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestNewLogger(t *testing.T) {
	t.Parallel()
	for _, format := range []string{"text", "json"} {
		l, err := newLogger("info", format)
		require.NoError(t, err)
		assert.True(t, l.Enabled(t.Context(), slog.LevelInfo))
		assert.False(t, l.Enabled(t.Context(), slog.LevelDebug))
	}

	_, err := newLogger("info", "yaml")
	assert.ErrorContains(t, err, "invalid log format")
	_, err = newLogger("loud", "text")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestParseHandle(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		in   string
		want girbind.Handle
	}{
		{"", girbind.SafeHandle},
		{"safe-handle", girbind.SafeHandle},
		{"raw-pointer", girbind.RawPointer},
	} {
		got, err := parseHandle(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := parseHandle("smart")
	assert.ErrorContains(t, err, "invalid handle")
}

func TestDocumentsFromPaths(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := filepath.Join(dir, "A-1.0.gir")
	b := filepath.Join(dir, "sub", "B-1.0.gir")
	require.NoError(t, os.MkdirAll(filepath.Dir(b), 0o755))
	require.NoError(t, os.WriteFile(a, []byte("<repository/>"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("<repository/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	docs, err := documentsFromPaths([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, docs)

	// A file named twice, directly and through its directory, is listed once.
	docs, err = documentsFromPaths([]string{a, dir})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, docs)

	_, err = documentsFromPaths([]string{filepath.Join(dir, "missing")})
	assert.ErrorContains(t, err, "path not found")
}

func TestFormatSymbolsText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	formatSymbolsText(&buf, []CLISymbol{
		{ID: 7, Namespace: "Gtk", Name: "Widget", Kind: "class", CType: "GtkWidget", RefCount: 12},
	})
	out := buf.String()
	assert.Contains(t, out, "NAMESPACE")
	assert.Contains(t, out, "Widget")
	assert.Contains(t, out, "GtkWidget")
	assert.Contains(t, out, "12")
}

func TestFormatCallableDetailText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	formatCallableDetailText(&buf, CLICallableDetail{
		Callable:  CLICallable{Name: "click", NativeName: "beta_button_click", Kind: "method"},
		Namespace: "Beta",
		Parameters: []CLIParameter{{
			Name:     "at",
			Transfer: "none",
			Type:     &CLIReference{TargetNamespace: "Beta", TargetName: "Point"},
			Decisions: []CLIRecordedDecision{
				{Direction: "to-native", Strategy: "record-by-value", Placeholder: true},
				{Direction: "to-managed", Error: "no conversion"},
			},
		}},
	})
	out := buf.String()
	assert.Contains(t, out, "beta_button_click")
	assert.Contains(t, out, "Beta.Point")
	assert.Contains(t, out, "record-by-value (FIXME)")
	assert.Contains(t, out, "unsupported")
}

func TestFormatCyclesText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	formatCyclesText(&buf, [][]string{{"Alpha", "Beta", "Alpha"}})
	assert.Equal(t, "Alpha -> Beta -> Alpha\n", buf.String())
}

func TestResultLen(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, resultLen(nil))
	assert.Equal(t, 2, resultLen([]CLISymbol{{}, {}}))
	assert.Equal(t, 3, resultLen([]string{"a", "b", "c"}))
	assert.Equal(t, 1, resultLen(CLIGraph{}))
}

func TestQualified(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Gtk.Widget", qualified("Gtk", "Widget"))
	assert.Equal(t, "gint", qualified("", "gint"))
}
