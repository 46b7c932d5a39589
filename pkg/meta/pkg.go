package meta

// Package is a hierarchical namespace grouping entity types. Parent is the
// name of the enclosing package, empty for roots. Children is derived by the
// package cache, never persisted.
type Package struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Parent      string     `json:"parent,omitempty"`
	Children    []*Package `json:"-"`
}

// NewPackage returns a root package with the given name.
func NewPackage(name string) *Package {
	return &Package{Name: name}
}

// IsRoot reports whether the package has no parent.
func (p *Package) IsRoot() bool {
	return p.Parent == ""
}

// Tag annotates a definition with a relation to an external vocabulary term.
// Tags are materialized at bootstrap alongside the other metadata tables but
// have no mutation API in this core; higher layers manage their rows.
type Tag struct {
	Identifier  string `json:"identifier"`
	Label       string `json:"label"`
	ObjectIRI   string `json:"object_iri,omitempty"`
	RelationIRI string `json:"relation_iri,omitempty"`
	CodeSystem  string `json:"code_system,omitempty"`
}
