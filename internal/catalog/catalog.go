// Package catalog holds the static model catalog: the diffusion model
// families the composer targets, their checkpoints, the auxiliary model
// inventory, and the selectable focus aspects. The data is embedded so the
// binary is self-contained.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Checkpoint is one selectable model file within a family.
type Checkpoint struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Path  string `yaml:"path" json:"path"`
}

// Family is one model architecture group the composer can target.
type Family struct {
	ID                string       `yaml:"id" json:"id"`
	Label             string       `yaml:"label" json:"label"`
	Architecture      string       `yaml:"architecture" json:"architecture"`
	Type              string       `yaml:"type" json:"type"`
	DefaultResolution int          `yaml:"default_resolution" json:"default_resolution"`
	LoaderNode        string       `yaml:"loader_node" json:"loader_node"`
	Notes             string       `yaml:"notes" json:"notes"`
	Checkpoints       []Checkpoint `yaml:"checkpoints" json:"checkpoints"`
}

// Auxiliary groups the optional helper models a workflow may reference.
type Auxiliary struct {
	VAEs          []Checkpoint `yaml:"vaes" json:"vaes"`
	Upscalers     []Checkpoint `yaml:"upscalers" json:"upscalers"`
	FaceFixers    []Checkpoint `yaml:"face_fixers" json:"face_fixers"`
	ControlModels []Checkpoint `yaml:"control_models" json:"control_models"`
}

// Catalog is the full static model inventory.
type Catalog struct {
	Families     []Family  `yaml:"model_families" json:"model_families"`
	Auxiliary    Auxiliary `yaml:"auxiliary_models" json:"auxiliary_models"`
	FocusAspects []string  `yaml:"focus_aspects" json:"focus_aspects"`
}

var (
	loadOnce sync.Once
	loaded   *Catalog
	loadErr  error
)

// Load parses the embedded catalog once and returns the shared instance.
// Callers must not mutate the returned value.
func Load() (*Catalog, error) {
	loadOnce.Do(func() {
		var c Catalog
		if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
			loadErr = fmt.Errorf("parse embedded catalog: %w", err)
			return
		}
		loaded = &c
	})
	return loaded, loadErr
}

// MustLoad is Load for initialization paths where a broken embedded catalog
// is unrecoverable.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Family returns the family with the given id.
func (c *Catalog) Family(id string) (Family, bool) {
	for _, f := range c.Families {
		if f.ID == id {
			return f, true
		}
	}
	return Family{}, false
}

// DefaultFamily is the family preselected on a fresh composer: the first one
// in catalog order.
func (c *Catalog) DefaultFamily() Family {
	if len(c.Families) == 0 {
		return Family{}
	}
	return c.Families[0]
}

// Checkpoint resolves a checkpoint id within a family. An unknown or empty id
// falls back to the family's first checkpoint, mirroring the composer's
// behavior when a stale checkpoint selection survives a family switch.
func (f Family) Checkpoint(id string) Checkpoint {
	for _, cp := range f.Checkpoints {
		if cp.ID == id {
			return cp
		}
	}
	if len(f.Checkpoints) > 0 {
		return f.Checkpoints[0]
	}
	return Checkpoint{}
}

// HasFocusAspect reports whether name is one of the selectable focus aspects.
func (c *Catalog) HasFocusAspect(name string) bool {
	for _, aspect := range c.FocusAspects {
		if aspect == name {
			return true
		}
	}
	return false
}
