package meta

// EntityType describes one dynamically defined record schema. FullName is
// unique across the registry and immutable after creation. Attributes keep
// insertion order; that order is significant for display and for the column
// order of materialized storage.
type EntityType struct {
	FullName    string       `json:"full_name"`
	Package     string       `json:"package,omitempty"`
	Attributes  []*Attribute `json:"attributes"`
	Abstract    bool         `json:"abstract"`
	Backend     string       `json:"backend,omitempty"` // empty selects the default backend
	Label       string       `json:"label,omitempty"`
	Description string       `json:"description,omitempty"`

	// Per-locale overrides, keyed by locale code.
	Labels       map[string]string `json:"labels,omitempty"`
	Descriptions map[string]string `json:"descriptions,omitempty"`
}

// NewEntityType returns a concrete entity type with no attributes.
func NewEntityType(fullName string) *EntityType {
	return &EntityType{FullName: fullName}
}

// Attr returns the attribute with the given name, or nil.
func (e *EntityType) Attr(name string) *Attribute {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// IDAttribute returns the identifier attribute, or nil if the entity type
// has none (abstract bases commonly declare it on a concrete descendant).
func (e *EntityType) IDAttribute() *Attribute {
	for _, a := range e.Attributes {
		if a.IDAttribute {
			return a
		}
	}
	return nil
}

// AddAttribute appends an attribute, preserving insertion order, and returns
// it so callers can chain field assignments.
func (e *EntityType) AddAttribute(a *Attribute) *Attribute {
	e.Attributes = append(e.Attributes, a)
	return a
}

// RemoveAttribute removes the named attribute, keeping the order of the
// remaining attributes. It reports whether the attribute was present.
func (e *EntityType) RemoveAttribute(name string) bool {
	for i, a := range e.Attributes {
		if a.Name == name {
			e.Attributes = append(e.Attributes[:i], e.Attributes[i+1:]...)
			return true
		}
	}
	return false
}

// ReferencedEntities returns the distinct entity-type names this definition
// points at through reference attributes, excluding self-references.
func (e *EntityType) ReferencedEntities() []string {
	seen := map[string]bool{}
	var refs []string
	for _, a := range e.Attributes {
		if !a.DataType.IsReference() || a.RefEntity == "" || a.RefEntity == e.FullName {
			continue
		}
		if !seen[a.RefEntity] {
			seen[a.RefEntity] = true
			refs = append(refs, a.RefEntity)
		}
	}
	return refs
}

// Clone returns a deep copy of the definition.
func (e *EntityType) Clone() *EntityType {
	c := *e
	c.Attributes = make([]*Attribute, len(e.Attributes))
	for i, a := range e.Attributes {
		c.Attributes[i] = a.Clone()
	}
	if e.Labels != nil {
		c.Labels = make(map[string]string, len(e.Labels))
		for k, v := range e.Labels {
			c.Labels[k] = v
		}
	}
	if e.Descriptions != nil {
		c.Descriptions = make(map[string]string, len(e.Descriptions))
		for k, v := range e.Descriptions {
			c.Descriptions[k] = v
		}
	}
	return &c
}
