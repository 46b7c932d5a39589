package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metaforge-io/metareg/internal/sqlite"
	"github.com/metaforge-io/metareg/pkg/meta"
)

type fixture struct {
	backend  *sqlite.Backend
	packages *PackageRegistry
	attrs    *AttributeRegistry
	entities *EntityTypeRegistry
}

// newFixture materializes the metadata tables and wires the three registries
// the way the service does at bootstrap.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	locales := []string{"en"}

	b, err := sqlite.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	repos := map[string]meta.Repository{}
	for _, e := range meta.SystemEntityTypes(locales) {
		repo, err := b.Create(e)
		require.NoError(t, err)
		repos[e.FullName] = repo
	}

	packages, err := NewPackageRegistry(repos[meta.PackagesEntity])
	require.NoError(t, err)
	attrs := NewAttributeRegistry(repos[meta.AttributesEntity], locales)
	entities := NewEntityTypeRegistry(repos[meta.EntitiesEntity], attrs, packages, locales)
	require.NoError(t, entities.FillCache())

	return &fixture{backend: b, packages: packages, attrs: attrs, entities: entities}
}

func simpleEntity(name string) *meta.EntityType {
	e := meta.NewEntityType(name)
	e.AddAttribute(&meta.Attribute{Name: "id", DataType: meta.TypeString, IDAttribute: true})
	e.AddAttribute(&meta.Attribute{Name: "label", DataType: meta.TypeString, Nillable: true})
	return e
}

func TestPackageRegistry_AddAndLookup(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.packages.Add(meta.NewPackage("org")))
	child := meta.NewPackage("projects")
	child.Parent = "org"
	require.NoError(t, f.packages.Add(child))

	got := f.packages.Get("org")
	require.NotNil(t, got)
	assert.True(t, got.IsRoot())
	assert.Len(t, got.Children, 1)
	assert.Equal(t, "projects", got.Children[0].Name)

	roots := f.packages.RootPackages()
	require.Len(t, roots, 1)
	assert.Equal(t, "org", roots[0].Name)
}

func TestPackageRegistry_Duplicate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.packages.Add(meta.NewPackage("org")))
	err := f.packages.Add(meta.NewPackage("org"))
	assert.ErrorIs(t, err, meta.ErrDuplicatePackage)
}

func TestPackageRegistry_UnknownParent(t *testing.T) {
	f := newFixture(t)
	p := meta.NewPackage("orphan")
	p.Parent = "nowhere"
	assert.ErrorIs(t, f.packages.Add(p), meta.ErrUnknownParent)
}

func TestPackageRegistry_UpdateCacheRebuildsTree(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.packages.Add(meta.NewPackage("org")))
	child := meta.NewPackage("sub")
	child.Parent = "org"
	require.NoError(t, f.packages.Add(child))

	require.NoError(t, f.packages.UpdateCache())
	org := f.packages.Get("org")
	require.NotNil(t, org)
	require.Len(t, org.Children, 1)
	assert.Equal(t, "sub", org.Children[0].Name)
}

func TestEntityTypeRegistry_AddGetDelete(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.entities.Add(simpleEntity("samples")))

	got := f.entities.Get("samples")
	require.NotNil(t, got)
	require.Len(t, got.Attributes, 2)
	assert.Equal(t, "id", got.Attributes[0].Name)
	assert.Equal(t, "label", got.Attributes[1].Name)
	assert.True(t, got.Attributes[0].IDAttribute)

	require.NoError(t, f.entities.Delete("samples"))
	assert.Nil(t, f.entities.Get("samples"))

	// Deleting an absent definition is a no-op.
	require.NoError(t, f.entities.Delete("samples"))
}

func TestEntityTypeRegistry_DuplicateAndMissingRefs(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.entities.Add(simpleEntity("samples")))

	// Whole-entity duplicate detection lives in the service; at this layer
	// the second add collides on the already-persisted attribute rows.
	err := f.entities.Add(simpleEntity("samples"))
	assert.ErrorIs(t, err, meta.ErrDuplicateAttr)

	e := simpleEntity("visits")
	e.AddAttribute(&meta.Attribute{Name: "sample", DataType: meta.TypeXRef, RefEntity: "ghosts"})
	assert.ErrorIs(t, f.entities.Add(e), meta.ErrUnknownEntity)

	e = simpleEntity("orphaned")
	e.Package = "nowhere"
	assert.ErrorIs(t, f.entities.Add(e), meta.ErrUnknownPackage)
}

func TestEntityTypeRegistry_AttributeMutation(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.entities.Add(simpleEntity("samples")))

	updated, err := f.entities.AddAttribute("samples", &meta.Attribute{
		Name: "weight", DataType: meta.TypeDecimal, Nillable: true,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Attr("weight"))
	assert.Len(t, updated.Attributes, 3)

	// Attribute order follows persisted sequence numbers.
	assert.Equal(t, "weight", updated.Attributes[2].Name)

	updated, err = f.entities.RemoveAttribute("samples", "weight")
	require.NoError(t, err)
	assert.Nil(t, updated.Attr("weight"))
	assert.Len(t, updated.Attributes, 2)

	_, err = f.entities.RemoveAttribute("samples", "weight")
	assert.ErrorIs(t, err, meta.ErrUnknownAttribute)
}

func TestEntityTypeRegistry_UpdateScalars(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.entities.Add(simpleEntity("samples")))

	e := f.entities.Get("samples").Clone()
	e.Label = "Samples"
	e.Description = "Collected samples"
	require.NoError(t, f.entities.Update(e))

	got := f.entities.Get("samples")
	assert.Equal(t, "Samples", got.Label)
	assert.Equal(t, "Collected samples", got.Description)
}

func TestEntityTypeRegistry_FillCacheFromRows(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.entities.Add(simpleEntity("persisted")))

	// A registry built fresh over the same repositories sees the rows.
	packages, err := NewPackageRegistry(f.packages.repo)
	require.NoError(t, err)
	rebuilt := NewEntityTypeRegistry(f.entities.repo, f.attrs, packages, []string{"en"})
	require.NoError(t, rebuilt.FillCache())

	got := rebuilt.Get("persisted")
	require.NotNil(t, got)
	assert.Len(t, got.Attributes, 2)
}

func TestEntityTypeRegistry_LocaleColumns(t *testing.T) {
	f := newFixture(t)

	e := simpleEntity("localized")
	e.Labels = map[string]string{"en": "Localized"}
	e.Attributes[1].Labels = map[string]string{"en": "The Label"}
	require.NoError(t, f.entities.Add(e))

	require.NoError(t, f.entities.FillCache())
	got := f.entities.Get("localized")
	require.NotNil(t, got)
	assert.Equal(t, "Localized", got.Labels["en"])
	assert.Equal(t, "The Label", got.Attr("label").Labels["en"])
}

func TestAttributeRegistry_SequencePreserved(t *testing.T) {
	f := newFixture(t)
	names := []string{"id", "alpha", "beta", "gamma"}
	for i, n := range names {
		a := &meta.Attribute{Name: n, DataType: meta.TypeString, Nillable: i > 0, IDAttribute: i == 0}
		require.NoError(t, f.attrs.Add("ordered", a, i))
	}

	attrs, err := f.attrs.ForEntity("ordered")
	require.NoError(t, err)
	require.Len(t, attrs, len(names))
	for i, a := range attrs {
		assert.Equal(t, names[i], a.Name)
	}
}

func TestAttributeRegistry_DuplicateAndRemove(t *testing.T) {
	f := newFixture(t)
	a := &meta.Attribute{Name: "x", DataType: meta.TypeString, Nillable: true}
	require.NoError(t, f.attrs.Add("e", a, 0))
	assert.ErrorIs(t, f.attrs.Add("e", a, 1), meta.ErrDuplicateAttr)

	require.NoError(t, f.attrs.Remove("e", "x"))
	assert.ErrorIs(t, f.attrs.Remove("e", "x"), meta.ErrUnknownAttribute)
}
