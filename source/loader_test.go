package source_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"tcss/css"
	"tcss/source"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("unable to write %s: %v", name, err)
	}
	return path
}

func TestLoader_LoadIsCached(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "button.tcss", "color: ${fg};\n")
	l := source.NewLoader(nil, zap.NewNop())

	a, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	b, err := l.Load(filepath.Join(dir, ".", "button.tcss"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if a != b || a.Template.ID() != b.Template.ID() {
		t.Error("same file loaded twice produced different templates")
	}
	if a.Name() != "button" {
		t.Errorf("Name() = %q, want button", a.Name())
	}
}

func TestLoader_LoadMissing(t *testing.T) {
	l := source.NewLoader(nil, nil)
	if _, err := l.Load(filepath.Join(t.TempDir(), "missing.tcss")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoader_Encoding(t *testing.T) {
	dir := t.TempDir()
	// "content: "é";" in windows-1252
	path := writeFile(t, dir, "latin.tcss", "content: \"\xe9\";\n")
	enc, err := source.LookupEncoding("windows-1252")
	if err != nil {
		t.Fatalf("LookupEncoding() error = %v", err)
	}
	l := source.NewLoader(enc, nil)

	src, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := src.Template.Segments()[0]; got != "content: \"é\";\n" {
		t.Errorf("decoded text = %q", got)
	}
}

func TestLookupEncoding(t *testing.T) {
	if enc, err := source.LookupEncoding(""); enc != nil || err != nil {
		t.Errorf("LookupEncoding(\"\") = %v, %v", enc, err)
	}
	if _, err := source.LookupEncoding("no-such-encoding"); err == nil {
		t.Error("expected error for unknown label")
	}
}

func TestLoader_LoadValues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "border.tcss", "border: ${width} solid ${color};\n")
	page := writeFile(t, dir, "page.tcss", "${media} {\ncolor: ${fg};\n${border}\n}\n")
	values := writeFile(t, dir, "page.yaml", `
media:
  literal: "@media print"
fg: red
border:
  template: border.tcss
  values:
    width: 2px
    color: null
`)
	l := source.NewLoader(nil, nil)

	src, err := l.Load(page)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	vals, err := l.LoadValuesFile(values)
	if err != nil {
		t.Fatalf("LoadValuesFile() error = %v", err)
	}
	if lit, ok := vals["media"].(css.Literal); !ok || lit.Value != "@media print" {
		t.Errorf("media = %#v, want literal", vals["media"])
	}
	if _, ok := vals["border"].(*css.Fragment); !ok {
		t.Errorf("border = %#v, want fragment", vals["border"])
	}

	f, err := src.Bind(vals)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	sheet, err := css.Parse(f)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !strings.Contains(sheet.Main(), "@media print {") {
		t.Errorf("literal was not inlined:\n%s", sheet.Main())
	}
	if len(sheet.Placeholders) != 3 {
		t.Fatalf("expected 3 placeholders, got %d", len(sheet.Placeholders))
	}
	if sheet.Placeholders[0].Value != "red" || sheet.Placeholders[1].Value != "2px" || sheet.Placeholders[2].Value != nil {
		t.Errorf("unexpected placeholder values: %v %v %v",
			sheet.Placeholders[0].Value, sheet.Placeholders[1].Value, sheet.Placeholders[2].Value)
	}
}

func TestLoader_LoadValuesErrors(t *testing.T) {
	dir := t.TempDir()
	l := source.NewLoader(nil, nil)

	tests := []struct {
		name string
		data string
		want error
	}{
		{name: "sequence", data: "a: [1, 2]\n", want: source.ErrBadValue},
		{name: "unknown mapping", data: "a:\n  b: 1\n", want: source.ErrBadValue},
		{name: "literal with extras", data: "a:\n  literal: x\n  b: 1\n", want: source.ErrBadValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := l.LoadValues([]byte(tt.data), dir); !errors.Is(err, tt.want) {
				t.Errorf("LoadValues() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := l.LoadValues([]byte("a:\n  template: missing.tcss\n"), dir); err == nil {
		t.Error("expected error for missing nested template")
	}
	if _, err := l.LoadValues([]byte("a: [\n"), dir); err == nil {
		t.Error("expected error for malformed document")
	}
}

func TestSource_BindMissingValue(t *testing.T) {
	src, err := source.Parse("inline", "color: ${fg};")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := src.Bind(map[string]any{"bg": "red"}); !errors.Is(err, source.ErrMissingValue) {
		t.Errorf("Bind() error = %v, want %v", err, source.ErrMissingValue)
	}
}
