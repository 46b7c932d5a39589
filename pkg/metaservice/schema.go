package metaservice

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/metaforge-io/metareg/pkg/meta"
)

// Add is the central creation path. The whole operation is serialized
// process-wide: the existence checks against the registry and the live
// directory must be observed atomically with the subsequent materialization,
// or two concurrent identical requests would create physical storage twice.
//
// The returned repository is nil for abstract definitions, which never gain
// physical storage.
func (s *Service) Add(e *meta.EntityType, decorate meta.Decorator) (meta.Repository, error) {
	s.addMu.Lock()
	defer s.addMu.Unlock()

	if !s.bootstrapped {
		return nil, meta.ErrNotBootstrapped
	}
	if decorate == nil {
		decorate = meta.IdentityDecorator
	}
	if err := meta.ValidateEntityType(e); err != nil {
		return nil, err
	}
	backend, err := s.backendFor(e)
	if err != nil {
		return nil, err
	}

	if registered := s.entities.Get(e.FullName); registered != nil {
		if e.Abstract {
			return nil, nil
		}
		if !s.directory.Has(e.FullName) {
			// Materialize from the registered definition, not the caller's,
			// so a divergent argument cannot leak into physical storage.
			repo, err := backend.Create(registered)
			if err != nil {
				return nil, fmt.Errorf("materialize %s: %w", e.FullName, err)
			}
			s.directory.Put(e.FullName, decorate(repo))
		}
		return s.directory.Get(e.FullName), nil
	}

	if s.directory.Has(e.FullName) {
		return nil, fmt.Errorf("%w: %q", meta.ErrDuplicateEntity, e.FullName)
	}

	if e.Package != "" && s.packages.Get(e.Package) == nil {
		if err := s.packages.Add(&meta.Package{Name: e.Package}); err != nil {
			return nil, err
		}
	}

	if err := s.inTx(func() error { return s.entities.Add(e) }); err != nil {
		return nil, err
	}
	if e.Abstract {
		return nil, nil
	}

	repo, err := backend.Create(s.entities.Get(e.FullName))
	if err != nil {
		return nil, fmt.Errorf("materialize %s: %w", e.FullName, err)
	}
	decorated := decorate(repo)
	s.directory.Put(e.FullName, decorated)
	return decorated, nil
}

// AddEntityType registers and materializes a definition without decoration.
func (s *Service) AddEntityType(e *meta.EntityType) (meta.Repository, error) {
	return s.Add(e, meta.IdentityDecorator)
}

// DeleteEntityMeta removes one entity type: physical storage (concrete types
// only, best effort), the stored definition, the live handle, and the
// access-control entries scoped to the name. The metadata mutations run in
// one store transaction; a physical destruction failure is logged and left
// uncorrected rather than rolled back into the store.
func (s *Service) DeleteEntityMeta(name string) error {
	if !s.bootstrapped {
		return meta.ErrNotBootstrapped
	}
	gate := s.currentGate()
	if err := gate.ValidatePermission(name, meta.WriteMeta); err != nil {
		return err
	}
	if referrer := s.concreteReferrer(name); referrer != "" {
		return fmt.Errorf("%w: %q is referenced by %q", meta.ErrStillReferenced, name, referrer)
	}

	err := s.inTx(func() error {
		if e := s.entities.Get(name); e != nil && !e.Abstract {
			backend, err := s.backendFor(e)
			if err != nil {
				return err
			}
			if err := backend.Delete(name); err != nil {
				s.log.Warn("physical storage destruction failed; metadata deletion proceeds",
					zap.String("entity", name), zap.Error(err))
			}
		}
		if err := s.entities.Delete(name); err != nil {
			return err
		}
		s.directory.Remove(name)
		return gate.PurgeEntity(name)
	})
	if err != nil {
		return fmt.Errorf("delete entity %s: %w", name, err)
	}

	if err := s.RefreshCaches(); err != nil {
		return err
	}
	s.log.Info("entity type deleted",
		zap.String("entity", name), zap.String("by", gate.Subject()))
	return nil
}

// Delete removes a set of entity types, dependents first: the dependency
// order over the set is computed and reversed so referencing types are gone
// before the types they reference.
func (s *Service) Delete(entityTypes []*meta.EntityType) error {
	gate := s.currentGate()
	for _, e := range entityTypes {
		if err := gate.ValidatePermission(e.FullName, meta.WriteMeta); err != nil {
			return err
		}
	}
	ordered, err := meta.Resolve(entityTypes)
	if err != nil {
		return err
	}
	for _, e := range meta.Reverse(ordered) {
		if err := s.DeleteEntityMeta(e.FullName); err != nil {
			return err
		}
	}
	return nil
}

// concreteReferrer returns the name of a concrete entity type holding a
// reference attribute pointing at name, or "" when none does.
func (s *Service) concreteReferrer(name string) string {
	for _, other := range s.entities.GetAll() {
		if other.FullName == name || other.Abstract {
			continue
		}
		for _, ref := range other.ReferencedEntities() {
			if ref == name {
				return other.FullName
			}
		}
	}
	return ""
}

// AddAttribute validates the attribute name, persists it through the
// registry, then instructs the backend to add the physical column.
func (s *Service) AddAttribute(entityName string, attr *meta.Attribute) error {
	return s.addAttribute(entityName, attr, false)
}

// AddAttributeSync applies the physical column change inline, skipping any
// asynchronous propagation the backend would otherwise schedule.
func (s *Service) AddAttributeSync(entityName string, attr *meta.Attribute) error {
	return s.addAttribute(entityName, attr, true)
}

func (s *Service) addAttribute(entityName string, attr *meta.Attribute, syncNow bool) error {
	if !s.bootstrapped {
		return meta.ErrNotBootstrapped
	}
	if err := s.currentGate().ValidatePermission(entityName, meta.WriteMeta); err != nil {
		return err
	}
	if err := meta.ValidateName(attr.Name); err != nil {
		return err
	}

	updated, err := s.entities.AddAttribute(entityName, attr)
	if err != nil {
		return err
	}
	if updated.Abstract {
		return nil
	}
	backend, err := s.backendFor(updated)
	if err != nil {
		return err
	}
	if syncNow {
		err = backend.AddAttributeSync(entityName, attr)
	} else {
		err = backend.AddAttribute(entityName, attr)
	}
	if err != nil {
		// Registry already holds the attribute; surfaced, not rolled back.
		return fmt.Errorf("add physical column %s.%s: %w", entityName, attr.Name, err)
	}
	return nil
}

// DeleteAttribute removes the attribute from the registry, then drops the
// physical column for concrete entity types. The registry mutates first; a
// physical failure leaves a registry/backend mismatch that is surfaced to
// the caller but not rolled back.
func (s *Service) DeleteAttribute(entityName, attrName string) error {
	if !s.bootstrapped {
		return meta.ErrNotBootstrapped
	}
	if err := s.currentGate().ValidatePermission(entityName, meta.WriteMeta); err != nil {
		return err
	}

	updated, err := s.entities.RemoveAttribute(entityName, attrName)
	if err != nil {
		return err
	}
	if updated.Abstract {
		return nil
	}
	backend, err := s.backendFor(updated)
	if err != nil {
		return err
	}
	if err := backend.DeleteAttribute(entityName, attrName); err != nil {
		return fmt.Errorf("drop physical column %s.%s: %w", entityName, attrName, err)
	}
	return nil
}

// UpdateEntityMeta evolves an existing entity type in place: the stored and
// proposed definitions are diffed and each difference is applied as an
// attribute add, remove, or update. The attributes that changed are
// returned.
func (s *Service) UpdateEntityMeta(e *meta.EntityType) ([]*meta.Attribute, error) {
	return s.updateEntityMeta(e, false)
}

// UpdateSync is UpdateEntityMeta with inline physical column changes.
func (s *Service) UpdateSync(e *meta.EntityType) ([]*meta.Attribute, error) {
	return s.updateEntityMeta(e, true)
}

func (s *Service) updateEntityMeta(e *meta.EntityType, syncNow bool) ([]*meta.Attribute, error) {
	if !s.bootstrapped {
		return nil, meta.ErrNotBootstrapped
	}
	gate := s.currentGate()
	if err := gate.ValidatePermission(e.FullName, meta.WriteMeta); err != nil {
		return nil, err
	}
	stored := s.entities.Get(e.FullName)
	if stored == nil {
		return nil, fmt.Errorf("%w: %q", meta.ErrUnknownEntity, e.FullName)
	}

	var added, removed, changed []*meta.Attribute
	for _, a := range e.Attributes {
		old := stored.Attr(a.Name)
		switch {
		case old == nil:
			added = append(added, a)
		case !old.SameAs(a):
			changed = append(changed, a)
		}
	}
	for _, old := range stored.Attributes {
		if e.Attr(old.Name) == nil {
			removed = append(removed, old)
		}
	}

	concrete := !stored.Abstract
	var backend meta.Backend
	if concrete {
		var err error
		if backend, err = s.backendFor(stored); err != nil {
			return nil, err
		}
	}

	err := s.inTx(func() error {
		for _, a := range removed {
			if _, err := s.entities.RemoveAttribute(e.FullName, a.Name); err != nil {
				return err
			}
			if concrete {
				if err := backend.DeleteAttribute(e.FullName, a.Name); err != nil {
					return fmt.Errorf("drop physical column %s.%s: %w", e.FullName, a.Name, err)
				}
			}
		}
		for _, a := range added {
			if err := meta.ValidateName(a.Name); err != nil {
				return err
			}
			if _, err := s.entities.AddAttribute(e.FullName, a); err != nil {
				return err
			}
			if !concrete {
				continue
			}
			var err error
			if syncNow {
				err = backend.AddAttributeSync(e.FullName, a)
			} else {
				err = backend.AddAttribute(e.FullName, a)
			}
			if err != nil {
				return fmt.Errorf("add physical column %s.%s: %w", e.FullName, a.Name, err)
			}
		}
		// Structural changes to existing attributes update the stored
		// definition only; physical column retyping is left to the backend's
		// own migration tooling.
		for _, a := range changed {
			if _, err := s.entities.UpdateAttribute(e.FullName, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make([]*meta.Attribute, 0, len(added)+len(removed)+len(changed))
	result = append(result, added...)
	result = append(result, removed...)
	result = append(result, changed...)
	if len(result) > 0 {
		s.log.Info("entity type updated",
			zap.String("entity", e.FullName),
			zap.Int("attributes_changed", len(result)),
			zap.String("by", gate.Subject()))
	}
	return result, nil
}

// CanIntegrate reports whether a proposed definition is compatible with the
// stored one: every stored attribute must appear in the proposal with the
// same structural properties. Attributes only present in the proposal are
// always compatible; an unknown entity type integrates trivially.
func (s *Service) CanIntegrate(e *meta.EntityType) bool {
	stored := s.EntityType(e.FullName)
	if stored == nil {
		return true
	}
	for _, old := range stored.Attributes {
		proposed := e.Attr(old.Name)
		if proposed == nil || !old.SameAs(proposed) {
			return false
		}
	}
	return true
}

// IntegrationTest evaluates CanIntegrate for a batch of proposed
// definitions, keyed by entity-type name.
func (s *Service) IntegrationTest(proposed map[string]*meta.EntityType) map[string]bool {
	out := make(map[string]bool, len(proposed))
	for name, e := range proposed {
		out[name] = s.CanIntegrate(e)
	}
	return out
}

// UpdateEntityTypeBackend moves an entity type's declared backend. Only the
// stored definition changes; migrating rows between backends is the
// caller's concern.
func (s *Service) UpdateEntityTypeBackend(name, backendName string) error {
	if !s.bootstrapped {
		return meta.ErrNotBootstrapped
	}
	if err := s.currentGate().ValidatePermission(name, meta.WriteMeta); err != nil {
		return err
	}
	if !s.HasBackend(backendName) {
		return fmt.Errorf("%w: %q", meta.ErrBackendUnavailable, backendName)
	}
	stored := s.entities.Get(name)
	if stored == nil {
		return fmt.Errorf("%w: %q", meta.ErrUnknownEntity, name)
	}
	updated := stored.Clone()
	updated.Backend = backendName
	return s.entities.Update(updated)
}

// OnStartup reconciles process state after a restart: discovered backends
// are registered, persisted concrete definitions lacking a live handle get
// one materialized, statically declared definitions are added in dependency
// order, and declarations on schema-syncable backends are driven through
// UpdateEntityMeta to reconcile drift.
func (s *Service) OnStartup(discovered []meta.Backend, static []*meta.EntityType) error {
	if !s.bootstrapped {
		return meta.ErrNotBootstrapped
	}
	for _, b := range discovered {
		s.AddBackend(b)
	}

	for _, e := range s.entities.GetAll() {
		if e.Abstract || s.directory.Has(e.FullName) {
			continue
		}
		backend, err := s.backendFor(e)
		if err != nil {
			return err
		}
		repo, err := backend.Create(e)
		if err != nil {
			return fmt.Errorf("rematerialize %s: %w", e.FullName, err)
		}
		s.directory.Put(e.FullName, repo)
	}

	ordered, err := meta.Resolve(static)
	if err != nil {
		return err
	}
	for _, e := range ordered {
		if s.directory.Has(e.FullName) {
			continue
		}
		if _, err := s.AddEntityType(e); err != nil {
			return fmt.Errorf("add static definition %s: %w", e.FullName, err)
		}
	}
	for _, e := range ordered {
		if !s.schemaSyncable(e) {
			continue
		}
		if _, err := s.UpdateEntityMeta(e); err != nil {
			return fmt.Errorf("sync static definition %s: %w", e.FullName, err)
		}
	}
	return nil
}

// schemaSyncable reports whether the definition lives on a backend capable
// of live schema sync: no declared backend, or the default one.
func (s *Service) schemaSyncable(e *meta.EntityType) bool {
	return e.Backend == "" || e.Backend == s.DefaultBackend().Name()
}

// RecreateMetaRepositories empties all metadata tables and re-registers the
// self-describing definitions. Test support.
func (s *Service) RecreateMetaRepositories() error {
	if !s.bootstrapped {
		return meta.ErrNotBootstrapped
	}

	var user []*meta.EntityType
	for _, e := range s.entities.GetAll() {
		if !meta.IsSystemEntity(e.FullName) {
			user = append(user, e)
		}
	}
	if err := s.Delete(user); err != nil {
		return err
	}

	if err := s.attributes.DeleteAll(); err != nil {
		return err
	}
	if err := s.entities.DeleteAll(); err != nil {
		return err
	}
	if err := s.packages.DeleteAll(); err != nil {
		return err
	}

	// Re-register the self-describing definitions truncated above.
	locales := s.locales.LocaleCodes()
	system := meta.SystemEntityTypes(locales)
	for _, name := range []string{meta.PackagesEntity, meta.TagsEntity, meta.EntitiesEntity, meta.AttributesEntity} {
		for _, e := range system {
			if e.FullName == name {
				e.Backend = s.DefaultBackend().Name()
				if err := s.entities.Add(e); err != nil {
					return err
				}
			}
		}
	}
	return s.RefreshCaches()
}
