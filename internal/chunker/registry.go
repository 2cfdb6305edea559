package chunker

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// LanguageSpec defines the tree-sitter grammar and query for a language.
type LanguageSpec struct {
	Name     string
	Language *sitter.Language
	// Query must use @chunk for the outer node and may use @name for the
	// identifier.
	Query      string
	Extensions []string
}

// Registry maps file extensions to language specs.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]*LanguageSpec // extension without dot, lower-case
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]*LanguageSpec)}
}

// Register adds spec under each of its extensions.
func (r *Registry) Register(spec *LanguageSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range spec.Extensions {
		r.byExt[strings.ToLower(ext)] = spec
	}
}

// Lookup returns the spec for a file path based on its extension, or nil.
func (r *Registry) Lookup(path string) *LanguageSpec {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byExt[ext]
}

// LanguageName returns the language for a file path. Files without a
// grammar are "text".
func (r *Registry) LanguageName(path string) string {
	if spec := r.Lookup(path); spec != nil {
		return spec.Name
	}
	return TextKind
}

// Extensions returns every registered extension (without dot).
func (r *Registry) Extensions() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make(map[string]bool, len(r.byExt))
	for ext := range r.byExt {
		exts[ext] = true
	}
	return exts
}
