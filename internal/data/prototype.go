package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Prototype is one placeable model.
type Prototype struct {
	Name    string  `yaml:"name"`
	Label   string  `yaml:"label"`
	Asset   string  `yaml:"asset"`
	ARScale float64 `yaml:"ar_scale"`
	Preview bool    `yaml:"preview"` // shown in the preview container
}

type prototypeFile struct {
	Prototypes []Prototype `yaml:"prototypes"`
}

// PrototypeTable holds the catalog in file order, indexed by name.
type PrototypeTable struct {
	order  []string
	byName map[string]*Prototype
}

// Get returns the prototype with the given name, or nil.
func (t *PrototypeTable) Get(name string) *Prototype {
	return t.byName[name]
}

// Count returns the number of prototypes.
func (t *PrototypeTable) Count() int {
	return len(t.order)
}

// All returns prototypes in file order.
func (t *PrototypeTable) All() []*Prototype {
	out := make([]*Prototype, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.byName[name])
	}
	return out
}

// LoadPrototypeTable loads the prototype catalog from a YAML file.
func LoadPrototypeTable(path string) (*PrototypeTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prototypes: %w", err)
	}
	return ParsePrototypeTable(raw)
}

// ParsePrototypeTable decodes catalog YAML. Names must be unique and
// non-empty; a missing ar_scale defaults to 1.
func ParsePrototypeTable(raw []byte) (*PrototypeTable, error) {
	var f prototypeFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse prototypes: %w", err)
	}
	t := &PrototypeTable{byName: make(map[string]*Prototype, len(f.Prototypes))}
	for i := range f.Prototypes {
		p := f.Prototypes[i]
		if p.Name == "" {
			return nil, fmt.Errorf("prototype #%d has no name", i)
		}
		if _, dup := t.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate prototype %q", p.Name)
		}
		if p.ARScale == 0 {
			p.ARScale = 1
		}
		if p.ARScale < 0 {
			return nil, fmt.Errorf("prototype %q: negative ar_scale %v", p.Name, p.ARScale)
		}
		t.order = append(t.order, p.Name)
		t.byName[p.Name] = &p
	}
	return t, nil
}
