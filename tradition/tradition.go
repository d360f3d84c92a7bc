// Package tradition holds the registry of religious traditions the generator
// can emulate: which corpus collection each draws from, the tone instructions
// spliced into the prompt, and how segment metadata renders into citations.
package tradition

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/BurntSushi/toml"

	"github.com/parable-gpt/parable/corpus"
	defaults "github.com/parable-gpt/parable/default"
)

// Tradition describes one tradition entry from the registry.
type Tradition struct {
	// Name is the user-facing tradition name (e.g. "Buddhism").
	Name string `toml:"name"`
	// Collection is the corpus directory name (e.g. "dhammapada").
	Collection string `toml:"collection"`
	// Style is the tone instruction spliced into the system prompt.
	Style string `toml:"style"`
	// SourceLabel labels retrieved passages in the user prompt.
	SourceLabel string `toml:"source_label"`
	// Ref is a text/template rendering segment metadata into a citation.
	Ref string `toml:"ref"`

	refTmpl *template.Template
}

// FormatRef renders the segment's citation (e.g. "Surah 2 vv.255-257").
func (t *Tradition) FormatRef(seg corpus.Segment) (string, error) {
	var sb strings.Builder
	if err := t.refTmpl.Execute(&sb, seg); err != nil {
		return "", fmt.Errorf("tradition %s: cannot format ref for segment %s: %w", t.Name, seg.ID, err)
	}
	return sb.String(), nil
}

// Registry is an ordered set of traditions. Order follows the TOML source
// and drives the selection menu.
type Registry struct {
	traditions []Tradition
	byName     map[string]*Tradition
}

type registryFile struct {
	Traditions []Tradition `toml:"tradition"`
}

// Parse decodes a TOML tradition registry and compiles its ref templates.
func Parse(data []byte) (*Registry, error) {
	var file registryFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid tradition registry: %w", err)
	}
	if len(file.Traditions) == 0 {
		return nil, fmt.Errorf("tradition registry is empty")
	}

	r := &Registry{
		traditions: file.Traditions,
		byName:     make(map[string]*Tradition, len(file.Traditions)),
	}
	for i := range r.traditions {
		t := &r.traditions[i]
		if t.Name == "" || t.Collection == "" || t.Ref == "" {
			return nil, fmt.Errorf("tradition entry %d: name, collection, and ref are required", i)
		}
		if _, dup := r.byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tradition %q", t.Name)
		}
		tmpl, err := template.New(t.Name).Parse(t.Ref)
		if err != nil {
			return nil, fmt.Errorf("tradition %s: invalid ref template: %w", t.Name, err)
		}
		t.refTmpl = tmpl
		r.byName[t.Name] = t
	}
	return r, nil
}

// Load returns the registry from path when it exists, otherwise the embedded
// default registry.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Parse(defaults.DefaultTraditionsTOML)
		}
		return nil, err
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// All returns the traditions in registry order.
func (r *Registry) All() []Tradition {
	return r.traditions
}

// Names returns the tradition names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.traditions))
	for i, t := range r.traditions {
		names[i] = t.Name
	}
	return names
}

// Get looks up a tradition by name.
func (r *Registry) Get(name string) (*Tradition, error) {
	t, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown tradition %q (have: %s)", name, strings.Join(r.Names(), ", "))
	}
	return t, nil
}

// Collections returns the corpus collection names in registry order.
func (r *Registry) Collections() []string {
	out := make([]string, len(r.traditions))
	for i, t := range r.traditions {
		out[i] = t.Collection
	}
	return out
}
