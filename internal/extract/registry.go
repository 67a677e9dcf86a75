// Package extract turns fetched source content into posting candidates.
// Extractors are looked up by capability name so a source declares what
// shape its page has, not which company it belongs to.
package extract

import (
	"fmt"
	"sort"

	"github.com/joblens/jobcorpus/internal/corpus"
)

// Registry maps capability names to extractors.
type Registry struct {
	byName map[string]corpus.Extractor
}

// NewRegistry returns a registry preloaded with the shipped capabilities.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]corpus.Extractor)}
	r.Register("jsonld", &JSONLD{})
	r.Register("board", &Board{})
	return r
}

func (r *Registry) Register(name string, e corpus.Extractor) {
	r.byName[name] = e
}

// Lookup resolves a capability name. An unknown name is an
// ExtractionError so the cycle aborts instead of silently closing
// postings.
func (r *Registry) Lookup(name string) (corpus.Extractor, error) {
	e, ok := r.byName[name]
	if !ok {
		return nil, &corpus.ExtractionError{
			Capability: name,
			Err:        fmt.Errorf("unknown extractor capability %q", name),
		}
	}
	return e, nil
}

// Capabilities lists registered names, sorted, for config validation.
func (r *Registry) Capabilities() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
