package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/metaforge-io/metareg/pkg/meta"
)

// PackageRegistry is the durable store of package definitions with an
// in-memory cache of the root-to-leaf package trees.
type PackageRegistry struct {
	repo meta.Repository

	mu    sync.RWMutex
	cache map[string]*meta.Package
}

// NewPackageRegistry wires the registry to the packages repository handle
// and fills the cache from persisted state.
func NewPackageRegistry(repo meta.Repository) (*PackageRegistry, error) {
	r := &PackageRegistry{repo: repo}
	if err := r.UpdateCache(); err != nil {
		return nil, err
	}
	return r, nil
}

// Add persists a new package. Fails with ErrDuplicatePackage when the name is
// taken and ErrUnknownParent when a declared parent is not registered.
func (r *PackageRegistry) Add(p *meta.Package) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cache[p.Name]; ok {
		return fmt.Errorf("%w: %q", meta.ErrDuplicatePackage, p.Name)
	}
	if p.Parent != "" {
		if _, ok := r.cache[p.Parent]; !ok {
			return fmt.Errorf("%w: %q", meta.ErrUnknownParent, p.Parent)
		}
	}

	row := map[string]any{
		meta.ColName:        p.Name,
		meta.ColDescription: p.Description,
		meta.ColParent:      p.Parent,
	}
	if _, err := r.repo.Set(p.Name, row); err != nil {
		return fmt.Errorf("persist package %s: %w", p.Name, err)
	}

	node := &meta.Package{Name: p.Name, Description: p.Description, Parent: p.Parent}
	r.cache[p.Name] = node
	if p.Parent != "" {
		parent := r.cache[p.Parent]
		parent.Children = append(parent.Children, node)
	}
	return nil
}

// Get returns the cached package, or nil if unknown.
func (r *PackageRegistry) Get(name string) *meta.Package {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache[name]
}

// Packages returns all packages as a flat list sorted by name.
func (r *PackageRegistry) Packages() []*meta.Package {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*meta.Package, 0, len(r.cache))
	for _, p := range r.cache {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RootPackages returns the packages with no parent, sorted by name.
func (r *PackageRegistry) RootPackages() []*meta.Package {
	var roots []*meta.Package
	for _, p := range r.Packages() {
		if p.IsRoot() {
			roots = append(roots, p)
		}
	}
	return roots
}

// UpdateCache rebuilds the package tree wholesale from persisted state.
func (r *PackageRegistry) UpdateCache() error {
	rows, err := r.repo.Fetch(nil)
	if err != nil {
		return fmt.Errorf("load packages: %w", err)
	}

	cache := make(map[string]*meta.Package, len(rows))
	for _, row := range rows {
		p := &meta.Package{
			Name:        asString(row[meta.ColName]),
			Description: asString(row[meta.ColDescription]),
			Parent:      asString(row[meta.ColParent]),
		}
		cache[p.Name] = p
	}
	// Derive children after every node exists.
	for _, p := range cache {
		if p.Parent == "" {
			continue
		}
		if parent, ok := cache[p.Parent]; ok {
			parent.Children = append(parent.Children, p)
		}
	}
	for _, p := range cache {
		sort.Slice(p.Children, func(i, j int) bool { return p.Children[i].Name < p.Children[j].Name })
	}

	r.mu.Lock()
	r.cache = cache
	r.mu.Unlock()
	return nil
}

// DeleteAll removes every package row and empties the cache. Test support.
func (r *PackageRegistry) DeleteAll() error {
	rows, err := r.repo.Fetch(nil)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := r.repo.Delete(asString(row[meta.ColName])); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.cache = make(map[string]*meta.Package)
	r.mu.Unlock()
	return nil
}
