// Package metaservice implements the metadata service: the orchestrator that
// composes the package, attribute, and entity-type registries with the
// registered physical backends to provide schema bootstrap, creation,
// deletion, attribute mutation, and schema-compatibility checks, keeping
// registry state, physical storage, and the live repository directory
// consistent.
package metaservice

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/metaforge-io/metareg/internal/registry"
	"github.com/metaforge-io/metareg/pkg/meta"
)

// Service administers the registry of entity-type, attribute, and package
// definitions. Construct with New, then call SetDefaultBackend exactly once
// to bootstrap; every other operation returns ErrNotBootstrapped before that.
type Service struct {
	log       *zap.Logger
	locales   meta.LocaleProvider
	directory meta.RepoDirectory

	// addMu serializes Add, the one operation whose read-then-write existence
	// checks must not interleave process-wide. Every other mutation relies on
	// the metadata store's transaction isolation instead; do not widen or
	// remove this asymmetry without revisiting the Add branch structure.
	addMu sync.Mutex

	// gateMu guards gate so RefreshCaches can elevate to system privilege
	// for just the duration of a rebuild.
	gateMu sync.RWMutex
	gate   meta.PermissionGate

	backendsMu     sync.RWMutex
	defaultBackend meta.Backend
	backends       map[string]meta.Backend

	packages   *registry.PackageRegistry
	attributes *registry.AttributeRegistry
	entities   *registry.EntityTypeRegistry

	bootstrapped bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithGate installs the permission gate consulted before mutations.
// Defaults to meta.AllowAll.
func WithGate(gate meta.PermissionGate) Option {
	return func(s *Service) { s.gate = gate }
}

// WithLocales installs the locale provider used to generate per-locale
// label and description slots at bootstrap. Defaults to a single "en".
func WithLocales(p meta.LocaleProvider) Option {
	return func(s *Service) { s.locales = p }
}

// WithDirectory installs the live repository directory shared with other
// subsystems. Defaults to a private in-process directory.
func WithDirectory(d meta.RepoDirectory) Option {
	return func(s *Service) { s.directory = d }
}

// New constructs an un-bootstrapped Service.
func New(opts ...Option) *Service {
	s := &Service{
		log:       zap.NewNop(),
		gate:      meta.AllowAll{},
		locales:   meta.StaticLocales{"en"},
		directory: meta.NewMapDirectory(),
		backends:  make(map[string]meta.Backend),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetDefaultBackend registers the backend, designates it host for the
// self-describing metadata entity types, and bootstraps the service. The
// call must happen exactly once per process lifetime; re-invocation returns
// ErrBootstrapped.
func (s *Service) SetDefaultBackend(b meta.Backend) error {
	if s.bootstrapped {
		return meta.ErrBootstrapped
	}
	s.backendsMu.Lock()
	s.defaultBackend = b
	s.backends[b.Name()] = b
	s.backendsMu.Unlock()

	if err := s.bootstrap(); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	return nil
}

// bootstrap materializes the metadata tables in their fixed dependency
// order, wires the registries to them, registers the self-describing
// definitions, and fills the caches. Failures here are fatal to startup.
func (s *Service) bootstrap() error {
	locales := s.locales.LocaleCodes()
	backendName := s.defaultBackend.Name()

	system := meta.SystemEntityTypes(locales)
	repos := make(map[string]meta.Repository, len(system))
	for _, e := range system {
		e.Backend = backendName
		repo, err := s.defaultBackend.Create(e)
		if err != nil {
			return fmt.Errorf("materialize %s: %w", e.FullName, err)
		}
		repos[e.FullName] = repo
		s.directory.Put(e.FullName, repo)
	}

	s.attributes = registry.NewAttributeRegistry(repos[meta.AttributesEntity], locales)
	packages, err := registry.NewPackageRegistry(repos[meta.PackagesEntity])
	if err != nil {
		return err
	}
	s.packages = packages
	s.entities = registry.NewEntityTypeRegistry(repos[meta.EntitiesEntity], s.attributes, s.packages, locales)
	if err := s.entities.FillCache(); err != nil {
		return err
	}

	// Register the system definitions themselves so the registry describes
	// its own tables. Registration order differs from materialization order:
	// attribute rows reference the entities definition, so entities must be
	// registered before attributes.
	for _, name := range []string{meta.PackagesEntity, meta.TagsEntity, meta.EntitiesEntity, meta.AttributesEntity} {
		if s.entities.Get(name) != nil {
			continue
		}
		for _, e := range system {
			if e.FullName == name {
				if err := s.entities.Add(e); err != nil {
					return fmt.Errorf("register %s: %w", name, err)
				}
			}
		}
	}

	s.bootstrapped = true
	if err := s.RefreshCaches(); err != nil {
		return err
	}

	s.log.Info("metadata service bootstrapped",
		zap.String("backend", backendName),
		zap.Strings("locales", locales))
	return nil
}

// RefreshCaches rebuilds the package and entity-type caches wholesale from
// persisted state. The rebuild runs under system privilege: the permission
// gate is swapped out for the duration because it would otherwise block the
// full read.
func (s *Service) RefreshCaches() error {
	if !s.bootstrapped {
		return meta.ErrNotBootstrapped
	}
	return s.runAsSystem(func() error {
		if err := s.packages.UpdateCache(); err != nil {
			return err
		}
		return s.entities.FillCache()
	})
}

// runAsSystem elevates to the permissive gate for the scope of fn.
func (s *Service) runAsSystem(fn func() error) error {
	s.gateMu.Lock()
	saved := s.gate
	s.gate = meta.AllowAll{}
	s.gateMu.Unlock()

	defer func() {
		s.gateMu.Lock()
		s.gate = saved
		s.gateMu.Unlock()
	}()
	return fn()
}

func (s *Service) currentGate() meta.PermissionGate {
	s.gateMu.RLock()
	defer s.gateMu.RUnlock()
	return s.gate
}

// inTx runs fn inside the default backend's metadata-store transaction when
// the backend supports one, and plainly otherwise.
func (s *Service) inTx(fn func() error) error {
	if t, ok := s.defaultBackend.(meta.Transactor); ok {
		return t.RunInTransaction(fn)
	}
	return fn()
}

// EntityType returns the registered definition, or nil if unknown. Safe to
// call before bootstrap, where it always returns nil.
func (s *Service) EntityType(name string) *meta.EntityType {
	if s.entities == nil {
		return nil
	}
	return s.entities.Get(name)
}

// EntityTypes returns all registered definitions sorted by name.
func (s *Service) EntityTypes() []*meta.EntityType {
	if s.entities == nil {
		return nil
	}
	return s.entities.GetAll()
}

// AddPackage validates the package name and registers the package.
func (s *Service) AddPackage(p *meta.Package) error {
	if !s.bootstrapped {
		return meta.ErrNotBootstrapped
	}
	if err := meta.ValidateName(p.Name); err != nil {
		return err
	}
	return s.packages.Add(p)
}

// GetPackage returns the registered package, or nil if unknown.
func (s *Service) GetPackage(name string) *meta.Package {
	if s.packages == nil {
		return nil
	}
	return s.packages.Get(name)
}

// Packages returns all packages as a flat list.
func (s *Service) Packages() []*meta.Package {
	if s.packages == nil {
		return nil
	}
	return s.packages.Packages()
}

// RootPackages returns the packages with no parent.
func (s *Service) RootPackages() []*meta.Package {
	if s.packages == nil {
		return nil
	}
	return s.packages.RootPackages()
}

// DefaultBackend returns the backend hosting the metadata tables.
func (s *Service) DefaultBackend() meta.Backend {
	s.backendsMu.RLock()
	defer s.backendsMu.RUnlock()
	return s.defaultBackend
}

// Backend returns the backend registered under name, or nil.
func (s *Service) Backend(name string) meta.Backend {
	s.backendsMu.RLock()
	defer s.backendsMu.RUnlock()
	return s.backends[name]
}

// HasBackend reports whether a backend is registered under name.
func (s *Service) HasBackend(name string) bool {
	return s.Backend(name) != nil
}

// AddBackend registers an additional physical backend.
func (s *Service) AddBackend(b meta.Backend) {
	s.backendsMu.Lock()
	defer s.backendsMu.Unlock()
	s.backends[b.Name()] = b
}

// Backends returns every registered backend.
func (s *Service) Backends() []meta.Backend {
	s.backendsMu.RLock()
	defer s.backendsMu.RUnlock()
	out := make([]meta.Backend, 0, len(s.backends))
	for _, b := range s.backends {
		out = append(out, b)
	}
	return out
}

// backendFor resolves the backend an entity type is declared on, falling
// back to the default. Fails with ErrBackendUnavailable when the declared
// identifier has no registered handle.
func (s *Service) backendFor(e *meta.EntityType) (meta.Backend, error) {
	s.backendsMu.RLock()
	defer s.backendsMu.RUnlock()

	name := e.Backend
	if name == "" {
		if s.defaultBackend == nil {
			return nil, meta.ErrBackendUnavailable
		}
		return s.defaultBackend, nil
	}
	b, ok := s.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", meta.ErrBackendUnavailable, name)
	}
	return b, nil
}

// Directory exposes the live repository directory for callers that resolve
// storage handles by entity-type name.
func (s *Service) Directory() meta.RepoDirectory {
	return s.directory
}
