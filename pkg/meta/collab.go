package meta

import "sync"

// RepoDirectory is the live-repository directory other subsystems query for
// storage handles by entity-type name. The metadata service is its writer;
// everything else reads.
type RepoDirectory interface {
	Has(name string) bool
	Get(name string) Repository
	Put(name string, repo Repository)
	Remove(name string)
	Names() []string
}

// MapDirectory is an in-process RepoDirectory backed by a mutex-guarded map.
type MapDirectory struct {
	mu    sync.RWMutex
	repos map[string]Repository
}

// NewMapDirectory returns an empty directory.
func NewMapDirectory() *MapDirectory {
	return &MapDirectory{repos: make(map[string]Repository)}
}

func (d *MapDirectory) Has(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.repos[name]
	return ok
}

func (d *MapDirectory) Get(name string) Repository {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.repos[name]
}

func (d *MapDirectory) Put(name string, repo Repository) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.repos[name] = repo
}

func (d *MapDirectory) Remove(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.repos, name)
}

func (d *MapDirectory) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.repos))
	for n := range d.repos {
		names = append(names, n)
	}
	return names
}

// Permission names an access level required for an operation.
type Permission string

// WriteMeta is required for every schema mutation.
const WriteMeta Permission = "writemeta"

// PermissionGate is consulted before any mutation. Implementations belong to
// the security layer; the core only calls the gate and aborts on error.
type PermissionGate interface {
	// ValidatePermission fails the operation when the current caller lacks
	// the permission on the named entity type.
	ValidatePermission(entityName string, p Permission) error

	// PurgeEntity removes access-control entries scoped to a deleted entity
	// type so stale grants do not outlive it.
	PurgeEntity(entityName string) error

	// Subject identifies the current caller for audit logging, empty when
	// unknown.
	Subject() string
}

// AllowAll is the gate used when no security layer is wired, and the gate the
// service swaps in while refreshing caches under system privilege.
type AllowAll struct{}

func (AllowAll) ValidatePermission(string, Permission) error { return nil }
func (AllowAll) PurgeEntity(string) error                    { return nil }
func (AllowAll) Subject() string                             { return "system" }

// LocaleProvider supplies the active locale codes used to generate per-locale
// label and description columns on the metadata tables during bootstrap.
type LocaleProvider interface {
	LocaleCodes() []string
}

// StaticLocales is a fixed locale list.
type StaticLocales []string

func (s StaticLocales) LocaleCodes() []string { return s }
