package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	yaml "gopkg.in/yaml.v3"

	"tcss/css"
)

// Source is a template file compiled into a css.Template. Sources are
// cached by Loader so every file keeps a single template identity.
type Source struct {
	Path     string
	Names    []string
	Template *css.Template
}

// Parse splits text into a new template.
func Parse(path, text string) (*Source, error) {
	segments, names, err := Split(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Source{Path: path, Names: names, Template: css.NewTemplate(segments...)}, nil
}

// Name returns the file name without directory and extension.
func (s *Source) Name() string {
	base := filepath.Base(s.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Bind looks up every marker name in values and binds the result to the
// template.
func (s *Source) Bind(values map[string]any) (*css.Fragment, error) {
	bound := make([]any, 0, len(s.Names))
	for _, name := range s.Names {
		v, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("%s: %q: %w", s.Path, name, ErrMissingValue)
		}
		bound = append(bound, v)
	}
	return s.Template.With(bound...), nil
}

// LookupEncoding returns encoding for a WHATWG label. Empty label means
// files are read as is.
func LookupEncoding(label string) (encoding.Encoding, error) {
	if strings.TrimSpace(label) == "" {
		return nil, nil
	}
	enc, _ := charset.Lookup(label)
	if enc == nil {
		return nil, fmt.Errorf("unknown encoding %q", label)
	}
	return enc, nil
}

// Loader reads template files and value documents.
type Loader struct {
	log *zap.Logger
	enc encoding.Encoding

	mu      sync.Mutex
	sources map[string]*Source
}

// NewLoader creates a loader. Template files are decoded from enc, nil
// means they are already UTF-8.
func NewLoader(enc encoding.Encoding, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		log:     log.Named("source"),
		enc:     enc,
		sources: make(map[string]*Source),
	}
}

// Load returns the template stored in file path, reading it only once.
func (l *Loader) Load(path string) (*Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve template path: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if src, ok := l.sources[abs]; ok {
		return src, nil
	}

	text, err := l.read(abs)
	if err != nil {
		return nil, err
	}
	src, err := Parse(path, text)
	if err != nil {
		return nil, err
	}
	l.sources[abs] = src
	l.log.Debug("Template loaded", zap.String("path", path), zap.Int("values", len(src.Names)))
	return src, nil
}

func (l *Loader) read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("unable to read template: %w", err)
	}
	if l.enc == nil {
		return string(data), nil
	}
	decoded, err := l.enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("unable to decode template %s: %w", path, err)
	}
	return string(decoded), nil
}

// LoadValues decodes a YAML mapping of marker names to values. Scalars are
// bound as custom properties, {literal: x} is inlined into the stylesheet
// and {template: path, values: {...}} embeds another template file. Nested
// template paths are relative to dir.
func (l *Loader) LoadValues(data []byte, dir string) (map[string]any, error) {
	raw := make(map[string]any)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode values: %w", err)
	}
	return l.resolveAll(raw, dir)
}

// LoadValuesFile is LoadValues for a file, nested paths are relative to its
// directory.
func (l *Loader) LoadValuesFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read values: %w", err)
	}
	return l.LoadValues(data, filepath.Dir(path))
}

func (l *Loader) resolveAll(raw map[string]any, dir string) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for name, v := range raw {
		resolved, err := l.resolve(v, dir)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", name, err)
		}
		out[name] = resolved
	}
	return out, nil
}

func (l *Loader) resolve(v any, dir string) (any, error) {
	switch x := v.(type) {
	case nil, string, bool, int, float64:
		return x, nil
	case map[string]any:
		return l.resolveMapping(x, dir)
	}
	return nil, fmt.Errorf("%T: %w", v, ErrBadValue)
}

func (l *Loader) resolveMapping(m map[string]any, dir string) (any, error) {
	if lit, ok := m["literal"]; ok {
		if len(m) != 1 {
			return nil, fmt.Errorf("literal does not take other keys: %w", ErrBadValue)
		}
		return css.Raw(lit), nil
	}

	path, ok := m["template"].(string)
	if !ok {
		return nil, fmt.Errorf("mapping without literal or template: %w", ErrBadValue)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	src, err := l.Load(path)
	if err != nil {
		return nil, err
	}

	var values map[string]any
	switch nested := m["values"].(type) {
	case nil:
	case map[string]any:
		if values, err = l.resolveAll(nested, dir); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("values of %s: %w", path, ErrBadValue)
	}
	return src.Bind(values)
}
