package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/metaforge-io/metareg/pkg/meta"
)

// EntityTypeRegistry is the durable store of entity-type definitions. It owns
// attribute lifecycle through the AttributeRegistry and keeps an in-memory
// cache of fully materialized definitions (resolved attributes, verified
// package) for fast lookup.
type EntityTypeRegistry struct {
	repo     meta.Repository
	attrs    *AttributeRegistry
	packages *PackageRegistry
	locales  []string

	mu    sync.RWMutex
	cache map[string]*meta.EntityType
}

// NewEntityTypeRegistry wires the registry to the entities repository handle
// and the attribute and package registries, then installs the attribute
// registry's cache-invalidation hook. Call FillCache before first use.
func NewEntityTypeRegistry(repo meta.Repository, attrs *AttributeRegistry, packages *PackageRegistry, locales []string) *EntityTypeRegistry {
	r := &EntityTypeRegistry{
		repo:     repo,
		attrs:    attrs,
		packages: packages,
		locales:  locales,
		cache:    make(map[string]*meta.EntityType),
	}
	attrs.SetInvalidator(r.invalidate)
	return r
}

// Add validates and persists a definition together with its attribute rows.
// It does not touch physical storage; the metadata service materializes.
func (r *EntityTypeRegistry) Add(e *meta.EntityType) error {
	if err := meta.ValidateEntityType(e); err != nil {
		return err
	}
	if e.Package != "" && r.packages.Get(e.Package) == nil {
		return fmt.Errorf("entity %s: %w: %q", e.FullName, meta.ErrUnknownPackage, e.Package)
	}
	for _, ref := range e.ReferencedEntities() {
		if r.Get(ref) == nil {
			return fmt.Errorf("entity %s references %w: %q", e.FullName, meta.ErrUnknownEntity, ref)
		}
	}

	if _, err := r.repo.Set(e.FullName, r.toRow(e)); err != nil {
		return fmt.Errorf("persist entity %s: %w", e.FullName, err)
	}
	for i, a := range e.Attributes {
		if err := r.attrs.Add(e.FullName, a, i); err != nil {
			return err
		}
	}
	return r.refresh(e.FullName)
}

// Get returns the cached resolved definition, or nil if unknown. A hit never
// triggers a registry read.
func (r *EntityTypeRegistry) Get(name string) *meta.EntityType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache[name]
}

// GetAll returns the cache contents sorted by name.
func (r *EntityTypeRegistry) GetAll() []*meta.EntityType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*meta.EntityType, 0, len(r.cache))
	for _, e := range r.cache {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

// AddAttribute delegates to the attribute registry, refreshes the entity
// type's cache entry, and returns the updated definition.
func (r *EntityTypeRegistry) AddAttribute(entityName string, a *meta.Attribute) (*meta.EntityType, error) {
	e := r.Get(entityName)
	if e == nil {
		return nil, fmt.Errorf("%w: %q", meta.ErrUnknownEntity, entityName)
	}
	if err := r.attrs.Add(entityName, a, len(e.Attributes)); err != nil {
		return nil, err
	}
	if err := r.refresh(entityName); err != nil {
		return nil, err
	}
	return r.Get(entityName), nil
}

// RemoveAttribute delegates to the attribute registry, refreshes the entity
// type's cache entry, and returns the updated definition.
func (r *EntityTypeRegistry) RemoveAttribute(entityName, attrName string) (*meta.EntityType, error) {
	if r.Get(entityName) == nil {
		return nil, fmt.Errorf("%w: %q", meta.ErrUnknownEntity, entityName)
	}
	if err := r.attrs.Remove(entityName, attrName); err != nil {
		return nil, err
	}
	if err := r.refresh(entityName); err != nil {
		return nil, err
	}
	return r.Get(entityName), nil
}

// UpdateAttribute replaces an attribute definition in place and refreshes
// the entity type's cache entry.
func (r *EntityTypeRegistry) UpdateAttribute(entityName string, a *meta.Attribute) (*meta.EntityType, error) {
	if r.Get(entityName) == nil {
		return nil, fmt.Errorf("%w: %q", meta.ErrUnknownEntity, entityName)
	}
	if err := r.attrs.Update(entityName, a); err != nil {
		return nil, err
	}
	if err := r.refresh(entityName); err != nil {
		return nil, err
	}
	return r.Get(entityName), nil
}

// Update persists the scalar fields of an already-registered definition
// (package, abstract flag, backend, labels). Attribute changes go through
// the attribute operations.
func (r *EntityTypeRegistry) Update(e *meta.EntityType) error {
	if r.Get(e.FullName) == nil {
		return fmt.Errorf("%w: %q", meta.ErrUnknownEntity, e.FullName)
	}
	if _, err := r.repo.Set(e.FullName, r.toRow(e)); err != nil {
		return fmt.Errorf("update entity %s: %w", e.FullName, err)
	}
	return r.refresh(e.FullName)
}

// Delete removes the entity type's stored definition and its attributes.
// Deleting an unknown name succeeds; callers sequence dependency order.
func (r *EntityTypeRegistry) Delete(name string) error {
	if err := r.attrs.DeleteForEntity(name); err != nil {
		return err
	}
	if err := r.repo.Delete(name); err != nil && !errors.Is(err, meta.ErrRowNotFound) {
		return fmt.Errorf("delete entity %s: %w", name, err)
	}
	r.invalidate(name)
	return nil
}

// FillCache reloads every definition from persisted storage into the cache.
func (r *EntityTypeRegistry) FillCache() error {
	rows, err := r.repo.Fetch(nil)
	if err != nil {
		return fmt.Errorf("load entities: %w", err)
	}
	cache := make(map[string]*meta.EntityType, len(rows))
	for _, row := range rows {
		e, err := r.resolve(row)
		if err != nil {
			return err
		}
		cache[e.FullName] = e
	}
	r.mu.Lock()
	r.cache = cache
	r.mu.Unlock()
	return nil
}

// DeleteAll removes every entity row and empties the cache. Test support.
func (r *EntityTypeRegistry) DeleteAll() error {
	rows, err := r.repo.Fetch(nil)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := r.repo.Delete(asString(row[meta.ColFullName])); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.cache = make(map[string]*meta.EntityType)
	r.mu.Unlock()
	return nil
}

// refresh reloads one entity type from persisted state into the cache.
func (r *EntityTypeRegistry) refresh(name string) error {
	row, err := r.repo.Get(name)
	if err != nil {
		if errors.Is(err, meta.ErrRowNotFound) {
			r.invalidate(name)
			return nil
		}
		return fmt.Errorf("reload entity %s: %w", name, err)
	}
	e, err := r.resolve(row)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.cache[name] = e
	r.mu.Unlock()
	return nil
}

// invalidate drops one cache entry.
func (r *EntityTypeRegistry) invalidate(name string) {
	r.mu.Lock()
	delete(r.cache, name)
	r.mu.Unlock()
}

// resolve materializes a full definition from an entity row: attributes in
// sequence order and per-locale overrides.
func (r *EntityTypeRegistry) resolve(row map[string]any) (*meta.EntityType, error) {
	e := &meta.EntityType{
		FullName:    asString(row[meta.ColFullName]),
		Package:     asString(row[meta.ColPackage]),
		Abstract:    asBool(row[meta.ColAbstract]),
		Backend:     asString(row[meta.ColBackend]),
		Label:       asString(row[meta.ColLabel]),
		Description: asString(row[meta.ColDescription]),
	}
	for _, code := range r.locales {
		if v := asString(row[meta.LocaleCol(meta.ColLabel, code)]); v != "" {
			if e.Labels == nil {
				e.Labels = map[string]string{}
			}
			e.Labels[code] = v
		}
		if v := asString(row[meta.LocaleCol(meta.ColDescription, code)]); v != "" {
			if e.Descriptions == nil {
				e.Descriptions = map[string]string{}
			}
			e.Descriptions[code] = v
		}
	}
	attrs, err := r.attrs.ForEntity(e.FullName)
	if err != nil {
		return nil, err
	}
	e.Attributes = attrs
	return e, nil
}

func (r *EntityTypeRegistry) toRow(e *meta.EntityType) map[string]any {
	row := map[string]any{
		meta.ColFullName:    e.FullName,
		meta.ColPackage:     e.Package,
		meta.ColAbstract:    e.Abstract,
		meta.ColBackend:     e.Backend,
		meta.ColLabel:       e.Label,
		meta.ColDescription: e.Description,
	}
	for _, code := range r.locales {
		row[meta.LocaleCol(meta.ColLabel, code)] = e.Labels[code]
		row[meta.LocaleCol(meta.ColDescription, code)] = e.Descriptions[code]
	}
	return row
}
