package layers

import "github.com/rotisserie/eris"

// Registry maps enrichment identifiers to layer configurations. It is built
// once at process start and treated as immutable afterwards.
type Registry struct {
	configs map[string]LayerConfig
	order   []string // insertion order for deterministic iteration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		configs: make(map[string]LayerConfig),
	}
}

// Register adds or replaces a layer row. Replacing keeps the original
// position so overrides don't reshuffle iteration order.
func (r *Registry) Register(cfg LayerConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, exists := r.configs[cfg.ID]; !exists {
		r.order = append(r.order, cfg.ID)
	}
	r.configs[cfg.ID] = cfg
	return nil
}

// Get returns a layer by enrichment identifier.
func (r *Registry) Get(id string) (LayerConfig, error) {
	cfg, ok := r.configs[id]
	if !ok {
		return LayerConfig{}, eris.Errorf("layers: unknown layer %q", id)
	}
	return cfg, nil
}

// All returns every layer in registration order.
func (r *Registry) All() []LayerConfig {
	result := make([]LayerConfig, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.configs[id])
	}
	return result
}

// IDs returns all registered layer identifiers in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ByGeometry returns all layers of the given kind, in registration order.
func (r *Registry) ByGeometry(kind GeometryKind) []LayerConfig {
	var result []LayerConfig
	for _, id := range r.order {
		if r.configs[id].Geometry == kind {
			result = append(result, r.configs[id])
		}
	}
	return result
}

// Len returns the number of registered layers.
func (r *Registry) Len() int {
	return len(r.order)
}
