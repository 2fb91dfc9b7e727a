package css

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Compiler memoizes compiled stylesheets by the literal structure of a
// fragment: the identities of all templates met while flattening it, the
// text of inline literals and the positions of bindable values. Bindable
// values themselves never take part in the key, on a cache hit only
// placeholder values are rebound.
//
// The cache is never trimmed. Its size is bounded by the number of distinct
// call sites in the program, not by the data flowing through them.
type Compiler struct {
	log     *zap.Logger
	entries sync.Map // signature -> *Stylesheet with nil placeholder values
}

// NewCompiler creates an empty compiler.
func NewCompiler(log *zap.Logger) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Compiler{log: log.Named("css-compiler")}
}

// Compile returns the stylesheet for f, compiling it only if a fragment with
// the same literal structure has not been compiled before. Errors are never
// cached.
func (c *Compiler) Compile(f *Fragment) (*Stylesheet, error) {
	fl, err := flatten(f)
	if err != nil {
		return nil, err
	}
	values := fl.bindable()

	if val, ok := c.entries.Load(fl.signature); ok {
		return val.(*Stylesheet).bind(values), nil //nolint:forcetypeassert // only *Stylesheet is stored
	}

	sheet, err := parseFlattened(fl)
	if err != nil {
		c.log.Debug("Template compilation failed", zap.Uint64("template", f.tmpl.id), zap.Error(err))
		return nil, err
	}

	// Concurrent first compiles of the same structure produce identical
	// results, whichever is stored first wins.
	val, loaded := c.entries.LoadOrStore(fl.signature, sheet.bind(nil))
	if !loaded {
		c.log.Debug("Template compiled",
			zap.Uint64("template", f.tmpl.id),
			zap.String("hash", sheet.Hash),
			zap.Int("placeholders", len(sheet.Placeholders)),
			zap.Bool("hoisted", sheet.Hoisted() != ""),
			zap.Bool("empty", sheet.MainBodyEmpty))
		return sheet, nil
	}
	return val.(*Stylesheet).bind(values), nil //nolint:forcetypeassert // only *Stylesheet is stored
}

// Len returns the number of cached structures.
func (c *Compiler) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Reset drops all cached structures.
func (c *Compiler) Reset() {
	c.entries.Clear()
}

var defaultCompiler atomic.Pointer[Compiler]

func init() {
	defaultCompiler.Store(NewCompiler(nil))
}

// Compile compiles f using the process wide cache.
func Compile(f *Fragment) (*Stylesheet, error) {
	return defaultCompiler.Load().Compile(f)
}

// Reset clears the process wide cache.
func Reset() {
	defaultCompiler.Load().Reset()
}

// SetLogger replaces the process wide compiler with an empty one logging to
// log. Compilations already running finish against the old cache.
func SetLogger(log *zap.Logger) {
	defaultCompiler.Store(NewCompiler(log))
}
