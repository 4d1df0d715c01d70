package scrape

import (
	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

// Registry holds the compiled-in source adapters by name. Adapters are
// registered explicitly at wiring time; configuration then selects which of
// them a session actually runs.
type Registry struct {
	order   []string
	sources map[string]rfp.Source
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]rfp.Source)}
}

// Register adds a source under its own name. Registering the same name twice
// replaces the earlier adapter and keeps the original position.
func (r *Registry) Register(src rfp.Source) {
	name := src.Name()
	if _, exists := r.sources[name]; !exists {
		r.order = append(r.order, name)
	}
	r.sources[name] = src
}

// Names returns every registered source name in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Enabled resolves the configured name list against the registry. Unknown
// names are returned separately so the caller can report them; they never
// fail the resolution. An empty list enables every registered source.
func (r *Registry) Enabled(names []string) ([]rfp.Source, []string) {
	if len(names) == 0 {
		sources := make([]rfp.Source, 0, len(r.order))
		for _, name := range r.order {
			sources = append(sources, r.sources[name])
		}
		return sources, nil
	}

	var (
		sources []rfp.Source
		unknown []string
	)
	for _, name := range names {
		src, ok := r.sources[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		sources = append(sources, src)
	}
	return sources, unknown
}
