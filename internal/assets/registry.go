package assets

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// Category is the role an asset plays in a scene
type Category string

const (
	Background Category = "background"
	Element    Category = "element"
	Character  Category = "character"
	Effect     Category = "effect"
	Emoji      Category = "emoji"
)

// Categories lists every asset category
var Categories = []Category{Background, Element, Character, Effect, Emoji}

// SrcPrefix is prepended to an asset file to build the src prop of an element
const SrcPrefix = "animations/"

// Entry is one row of the asset registry
type Entry struct {
	ID       string   `yaml:"id" json:"id"`
	File     string   `yaml:"file" json:"file"`
	Name     string   `yaml:"name,omitempty" json:"name,omitempty"`
	Tags     []string `yaml:"tags" json:"tags"`
	Category Category `yaml:"category" json:"category"`
}

// Src returns the path the rendering layer loads the asset from
func (e Entry) Src() string {
	return SrcPrefix + e.File
}

//go:embed catalog.yaml
var catalogYAML []byte

// Registry is an append-only in-memory asset table.
// Entries are never mutated or removed once registered.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	byID    map[string]int
	byFile  map[string]int
}

// NewRegistry creates a registry from the given entries, dropping duplicates
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{
		byID:   make(map[string]int),
		byFile: make(map[string]int),
	}
	r.Append(entries...)
	return r
}

// Default returns a registry loaded with the built-in catalog
func Default() *Registry {
	entries, err := ParseCatalog(catalogYAML)
	if err != nil {
		panic(fmt.Sprintf("assets: embedded catalog is invalid: %v", err))
	}
	return NewRegistry(entries...)
}

// ParseCatalog decodes a YAML list of entries
func ParseCatalog(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Append registers new entries. An entry whose file or id is already present is
// dropped, so the first registration wins. Returns the number of entries added.
func (r *Registry) Append(entries ...Entry) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, e := range entries {
		if _, ok := r.byFile[e.File]; ok {
			continue
		}
		if _, ok := r.byID[e.ID]; ok {
			continue
		}
		r.byFile[e.File] = len(r.entries)
		r.byID[e.ID] = len(r.entries)
		r.entries = append(r.entries, e)
		added++
	}
	return added
}

// All returns a snapshot of the registry in registration order
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of registered entries
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// ByID looks an asset up by its id
func (r *Registry) ByID(id string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byID[id]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// ByFile looks an asset up by its file path fragment
func (r *Registry) ByFile(file string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byFile[file]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// ByCategory returns all assets of one category in registration order
func (r *Registry) ByCategory(c Category) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	for _, e := range r.entries {
		if e.Category == c {
			out = append(out, e)
		}
	}
	return out
}

// IDForSrc maps an element src prop back to the registered asset id
func (r *Registry) IDForSrc(src string) (string, bool) {
	if len(src) <= len(SrcPrefix) || src[:len(SrcPrefix)] != SrcPrefix {
		return "", false
	}
	e, ok := r.ByFile(src[len(SrcPrefix):])
	if !ok {
		return "", false
	}
	return e.ID, true
}
