package meta

// Attribute describes one named, typed field of an entity type. An Attribute
// is owned by exactly one EntityType and is never shared between definitions.
type Attribute struct {
	Name        string   `json:"name"`
	DataType    DataType `json:"data_type"`
	Nillable    bool     `json:"nillable"`
	IDAttribute bool     `json:"id_attribute"`
	RefEntity   string   `json:"ref_entity,omitempty"`
	Label       string   `json:"label,omitempty"`
	Description string   `json:"description,omitempty"`

	// Per-locale overrides, keyed by locale code (e.g. "en", "nl").
	Labels       map[string]string `json:"labels,omitempty"`
	Descriptions map[string]string `json:"descriptions,omitempty"`
}

// NewAttribute returns a string-typed, nillable attribute with the given name.
func NewAttribute(name string) *Attribute {
	return &Attribute{Name: name, DataType: TypeString, Nillable: true}
}

// SameAs reports structural equality of the properties that matter for
// integration checks: data type, nillability, identifier role, and reference
// target. Labels and descriptions are presentation-only and not compared.
func (a *Attribute) SameAs(other *Attribute) bool {
	if other == nil {
		return false
	}
	return a.Name == other.Name &&
		a.DataType == other.DataType &&
		a.Nillable == other.Nillable &&
		a.IDAttribute == other.IDAttribute &&
		a.RefEntity == other.RefEntity
}

// Clone returns a deep copy of the attribute.
func (a *Attribute) Clone() *Attribute {
	c := *a
	if a.Labels != nil {
		c.Labels = make(map[string]string, len(a.Labels))
		for k, v := range a.Labels {
			c.Labels[k] = v
		}
	}
	if a.Descriptions != nil {
		c.Descriptions = make(map[string]string, len(a.Descriptions))
		for k, v := range a.Descriptions {
			c.Descriptions[k] = v
		}
	}
	return &c
}
