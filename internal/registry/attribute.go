package registry

import (
	"fmt"
	"sort"

	"github.com/metaforge-io/metareg/pkg/meta"
)

// AttributeRegistry is the durable store of attribute definitions. Every
// attribute row names its owning entity type; ordering within an entity type
// is kept in a sequence column so insertion order survives reloads.
type AttributeRegistry struct {
	repo    meta.Repository
	locales []string

	// invalidate drops the owning entity type's cached entry after any
	// structural change; wired by the entity-type registry.
	invalidate func(entityName string)
}

// NewAttributeRegistry wires the registry to the attributes repository
// handle. Locale codes determine which per-locale columns are read/written.
func NewAttributeRegistry(repo meta.Repository, locales []string) *AttributeRegistry {
	return &AttributeRegistry{repo: repo, locales: locales, invalidate: func(string) {}}
}

// SetInvalidator installs the cache-invalidation hook.
func (r *AttributeRegistry) SetInvalidator(fn func(entityName string)) {
	r.invalidate = fn
}

// Add persists an attribute for the entity type at the given sequence
// position. The name must be syntactically valid and unused within the
// owning entity type.
func (r *AttributeRegistry) Add(entityName string, a *meta.Attribute, seq int) error {
	if err := meta.ValidateName(a.Name); err != nil {
		return err
	}
	existing, err := r.find(entityName, a.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("entity %s: %w: %q", entityName, meta.ErrDuplicateAttr, a.Name)
	}

	if _, err := r.repo.Set("", r.toRow(entityName, a, seq)); err != nil {
		return fmt.Errorf("persist attribute %s.%s: %w", entityName, a.Name, err)
	}
	r.invalidate(entityName)
	return nil
}

// Update replaces an existing attribute definition in place, preserving its
// sequence position. Fails with ErrUnknownAttribute if absent.
func (r *AttributeRegistry) Update(entityName string, a *meta.Attribute) error {
	row, err := r.find(entityName, a.Name)
	if err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("%w: %s.%s", meta.ErrUnknownAttribute, entityName, a.Name)
	}

	updated := r.toRow(entityName, a, asInt(row[meta.ColSeq]))
	if _, err := r.repo.Set(asString(row[meta.ColID]), updated); err != nil {
		return fmt.Errorf("update attribute %s.%s: %w", entityName, a.Name, err)
	}
	r.invalidate(entityName)
	return nil
}

// Remove deletes the attribute definition. Fails with ErrUnknownAttribute if
// absent.
func (r *AttributeRegistry) Remove(entityName, attrName string) error {
	row, err := r.find(entityName, attrName)
	if err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("%w: %s.%s", meta.ErrUnknownAttribute, entityName, attrName)
	}
	if err := r.repo.Delete(asString(row[meta.ColID])); err != nil {
		return fmt.Errorf("remove attribute %s.%s: %w", entityName, attrName, err)
	}
	r.invalidate(entityName)
	return nil
}

// ForEntity returns the entity type's attributes in sequence order.
func (r *AttributeRegistry) ForEntity(entityName string) ([]*meta.Attribute, error) {
	rows, err := r.repo.Fetch(map[string]any{meta.ColEntity: entityName})
	if err != nil {
		return nil, fmt.Errorf("load attributes of %s: %w", entityName, err)
	}
	sort.Slice(rows, func(i, j int) bool {
		return asInt(rows[i][meta.ColSeq]) < asInt(rows[j][meta.ColSeq])
	})
	attrs := make([]*meta.Attribute, len(rows))
	for i, row := range rows {
		attrs[i] = r.fromRow(row)
	}
	return attrs, nil
}

// DeleteForEntity removes all attribute rows of one entity type. Absent
// rows are not an error; entity deletion is idempotent.
func (r *AttributeRegistry) DeleteForEntity(entityName string) error {
	rows, err := r.repo.Fetch(map[string]any{meta.ColEntity: entityName})
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := r.repo.Delete(asString(row[meta.ColID])); err != nil {
			return err
		}
	}
	r.invalidate(entityName)
	return nil
}

// DeleteAll removes every attribute row. Test support.
func (r *AttributeRegistry) DeleteAll() error {
	rows, err := r.repo.Fetch(nil)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := r.repo.Delete(asString(row[meta.ColID])); err != nil {
			return err
		}
	}
	return nil
}

// find returns the persisted row for entity.attr, or nil.
func (r *AttributeRegistry) find(entityName, attrName string) (map[string]any, error) {
	rows, err := r.repo.Fetch(map[string]any{meta.ColEntity: entityName, meta.ColName: attrName})
	if err != nil {
		return nil, fmt.Errorf("lookup attribute %s.%s: %w", entityName, attrName, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *AttributeRegistry) toRow(entityName string, a *meta.Attribute, seq int) map[string]any {
	row := map[string]any{
		meta.ColEntity:      entityName,
		meta.ColName:        a.Name,
		meta.ColDataType:    string(a.DataType),
		meta.ColNillable:    a.Nillable,
		meta.ColIDAttribute: a.IDAttribute,
		meta.ColRefEntity:   a.RefEntity,
		meta.ColSeq:         seq,
		meta.ColLabel:       a.Label,
		meta.ColDescription: a.Description,
	}
	for _, code := range r.locales {
		row[meta.LocaleCol(meta.ColLabel, code)] = a.Labels[code]
		row[meta.LocaleCol(meta.ColDescription, code)] = a.Descriptions[code]
	}
	return row
}

func (r *AttributeRegistry) fromRow(row map[string]any) *meta.Attribute {
	a := &meta.Attribute{
		Name:        asString(row[meta.ColName]),
		DataType:    meta.DataType(asString(row[meta.ColDataType])),
		Nillable:    asBool(row[meta.ColNillable]),
		IDAttribute: asBool(row[meta.ColIDAttribute]),
		RefEntity:   asString(row[meta.ColRefEntity]),
		Label:       asString(row[meta.ColLabel]),
		Description: asString(row[meta.ColDescription]),
	}
	for _, code := range r.locales {
		if v := asString(row[meta.LocaleCol(meta.ColLabel, code)]); v != "" {
			if a.Labels == nil {
				a.Labels = map[string]string{}
			}
			a.Labels[code] = v
		}
		if v := asString(row[meta.LocaleCol(meta.ColDescription, code)]); v != "" {
			if a.Descriptions == nil {
				a.Descriptions = map[string]string{}
			}
			a.Descriptions[code] = v
		}
	}
	return a
}
