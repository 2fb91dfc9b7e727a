// Package render inserts compiled stylesheets into documents and resolves
// placeholder values for the elements using them.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"tcss/css"
)

// Registry collects stylesheet texts for a document. Every scope hash is
// inserted once, in order of first appearance.
type Registry struct {
	log *zap.Logger
	id  string

	mu     sync.Mutex
	seen   map[string]struct{}
	hashes []string
	texts  []string
}

// NewRegistry creates an empty registry with a unique identifier used for
// the rendered style element.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{id: "tcss-" + uuid.NewString()}
	r.log = log.Named("css-registry").With(zap.String("registry", r.id))
	r.seen = make(map[string]struct{})
	return r
}

// ID returns the identifier of the registry.
func (r *Registry) ID() string {
	return r.id
}

// Add inserts stylesheet text unless a stylesheet with the same hash was
// already added. Stylesheets with no text at all are remembered but not
// stored. Returns true if s was not seen before.
func (r *Registry) Add(s *css.Stylesheet) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[s.Hash]; ok {
		return false
	}
	r.seen[s.Hash] = struct{}{}

	text := s.Text()
	if strings.TrimSpace(text) == "" {
		r.log.Debug("Skipping empty stylesheet", zap.String("hash", s.Hash))
		return true
	}
	r.hashes = append(r.hashes, s.Hash)
	r.texts = append(r.texts, text)
	r.log.Debug("Stylesheet registered", zap.String("hash", s.Hash), zap.Int("bytes", len(text)))
	return true
}

// Has reports whether a stylesheet with hash was added.
func (r *Registry) Has(hash string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.seen[hash]
	return ok
}

// Len returns the number of stored stylesheet texts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.texts)
}

// Hashes returns scope hashes of stored stylesheets in insertion order.
func (r *Registry) Hashes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.hashes...)
}

// Reset forgets everything added so far.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.seen)
	r.hashes, r.texts = nil, nil
}

// String returns all stored stylesheets as a single CSS text.
func (r *Registry) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sb strings.Builder
	for _, text := range r.texts {
		sb.WriteString(text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteTo writes all stored stylesheets as plain CSS.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, r.String())
	return int64(n), err
}

// WriteStyleElement writes all stored stylesheets as a single <style>
// element identified by the registry id.
func (r *Registry) WriteStyleElement(w io.Writer) error {
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     atom.Style.String(),
		DataAtom: atom.Style,
		Attr:     []html.Attribute{{Key: "id", Val: r.id}},
	}
	node.AppendChild(&html.Node{Type: html.TextNode, Data: "\n" + r.String()})

	if err := html.Render(w, node); err != nil {
		return fmt.Errorf("unable to render style element: %w", err)
	}
	return nil
}
