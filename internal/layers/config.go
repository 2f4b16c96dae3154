package layers

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// fileLayer mirrors LayerConfig for YAML decoding, with the geometry kind as
// a plain string so parse errors surface with the layer id attached.
type fileLayer struct {
	ID             string  `yaml:"id"`
	Label          string  `yaml:"label"`
	ServiceURL     string  `yaml:"service_url"`
	LayerIndex     int     `yaml:"layer_index"`
	Geometry       string  `yaml:"geometry"`
	MaxRadiusMiles float64 `yaml:"max_radius_miles"`
}

// LoadFile reads additional layer rows from a YAML file and registers them,
// overriding builtin rows with the same id. The file has a top-level
// "layers" key holding a list of rows.
func LoadFile(reg *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "layers: read config %s", path)
	}

	var wrapper struct {
		Layers []fileLayer `yaml:"layers"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return eris.Wrap(err, "layers: parse config")
	}

	for _, fl := range wrapper.Layers {
		kind, err := ParseGeometryKind(fl.Geometry)
		if err != nil {
			return eris.Wrapf(err, "layers: layer %s", fl.ID)
		}
		cfg := LayerConfig{
			ID:             fl.ID,
			Label:          fl.Label,
			ServiceURL:     fl.ServiceURL,
			LayerIndex:     fl.LayerIndex,
			Geometry:       kind,
			MaxRadiusMiles: fl.MaxRadiusMiles,
		}
		if cfg.Label == "" {
			cfg.Label = cfg.ID
		}
		if err := reg.Register(cfg); err != nil {
			return err
		}
	}

	return nil
}
