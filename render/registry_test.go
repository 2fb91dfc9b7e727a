package render_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"tcss/css"
	"tcss/render"
)

func compile(t *testing.T, segments []string, values ...any) *css.Stylesheet {
	t.Helper()

	sheet, err := css.Parse(css.NewTemplate(segments...).With(values...))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return sheet
}

func TestRegistry_AddOnce(t *testing.T) {
	reg := render.NewRegistry(zap.NewNop())
	a := compile(t, []string{"color: ", ";\n"}, "red")
	b := compile(t, []string{"margin: 0;\n"})

	if !reg.Add(a) {
		t.Error("first Add() returned false")
	}
	if reg.Add(a) {
		t.Error("repeated Add() returned true")
	}
	reg.Add(b)

	if reg.Len() != 2 {
		t.Fatalf("expected 2 stylesheets, got %d", reg.Len())
	}
	if got := reg.Hashes(); got[0] != a.Hash || got[1] != b.Hash {
		t.Errorf("Hashes() = %q, want insertion order", got)
	}
	if !reg.Has(a.Hash) || reg.Has("css-missing") {
		t.Error("Has() reports wrong membership")
	}

	want := a.Text() + "\n" + b.Text() + "\n"
	if got := reg.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	var buf bytes.Buffer
	n, err := reg.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if int(n) != len(want) || buf.String() != want {
		t.Errorf("WriteTo() wrote %d bytes %q", n, buf.String())
	}
}

func TestRegistry_EmptyStylesheet(t *testing.T) {
	reg := render.NewRegistry(nil)
	empty := compile(t, []string{"  \n"})

	if !reg.Add(empty) {
		t.Error("Add() returned false for a new hash")
	}
	if reg.Len() != 0 {
		t.Errorf("empty stylesheet text was stored")
	}
	if !reg.Has(empty.Hash) {
		t.Error("empty stylesheet hash was not remembered")
	}
}

func TestRegistry_Reset(t *testing.T) {
	reg := render.NewRegistry(nil)
	a := compile(t, []string{"color: red;\n"})

	reg.Add(a)
	reg.Reset()

	if reg.Len() != 0 || reg.Has(a.Hash) {
		t.Error("Reset() did not clear registry")
	}
	if !reg.Add(a) {
		t.Error("Add() after Reset() returned false")
	}
}

func TestRegistry_WriteStyleElement(t *testing.T) {
	reg := render.NewRegistry(nil)
	a := compile(t, []string{"a > b {\ncontent: \"<&>\";\n}\n"})
	reg.Add(a)

	var buf bytes.Buffer
	if err := reg.WriteStyleElement(&buf); err != nil {
		t.Fatalf("WriteStyleElement() error = %v", err)
	}

	got := buf.String()
	if !strings.HasPrefix(got, `<style id="`+reg.ID()+`">`) || !strings.HasSuffix(got, "</style>") {
		t.Errorf("unexpected element: %q", got)
	}
	if !strings.Contains(got, `a > b {`) || !strings.Contains(got, `"<&>"`) {
		t.Errorf("style text was escaped: %q", got)
	}
}

func TestRegistry_DistinctIDs(t *testing.T) {
	a, b := render.NewRegistry(nil), render.NewRegistry(nil)

	if a.ID() == b.ID() || !strings.HasPrefix(a.ID(), "tcss-") {
		t.Errorf("unexpected registry ids: %q, %q", a.ID(), b.ID())
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	reg := render.NewRegistry(nil)
	a := compile(t, []string{"color: red;\n"})

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		added int
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if reg.Add(a) {
				mu.Lock()
				added++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if added != 1 || reg.Len() != 1 {
		t.Errorf("expected exactly one insertion, got %d (len %d)", added, reg.Len())
	}
}
