package meta

import "errors"

// Repository is the live storage handle for one materialized entity type.
// Rows are map[string]any keyed by attribute name; the identifier attribute
// carries the row ID. Callers outside the metadata core obtain repositories
// through the RepoDirectory, never from a backend directly.
type Repository interface {
	// Name returns the entity-type full name the repository serves.
	Name() string

	// EntityType returns the definition the physical storage was built from.
	EntityType() *EntityType

	// Get retrieves the row with the given ID.
	// Returns ErrRowNotFound if no row exists with that ID.
	Get(id string) (map[string]any, error)

	// Set creates or updates a row. When id is empty a new UUID v7 is
	// generated. Returns the actual ID used (generated or provided).
	Set(id string, row map[string]any) (string, error)

	// Delete removes the row with the given ID.
	// Returns ErrRowNotFound if no row exists with that ID.
	Delete(id string) error

	// Fetch returns all rows matching the equality filter. An empty filter
	// returns every row.
	Fetch(filter map[string]any) ([]map[string]any, error)
}

// Repository row errors.
var (
	ErrRowNotFound = errors.New("row not found")
	ErrInvalidRow  = errors.New("invalid row data")
)

// Decorator wraps a repository handle before it is published to the
// directory. IdentityDecorator publishes the handle as-is.
type Decorator func(Repository) Repository

// IdentityDecorator returns the repository unchanged.
func IdentityDecorator(r Repository) Repository { return r }

// Backend is a physical storage collection capable of materializing,
// altering, and destroying storage for entity types. Exactly one registered
// backend is designated the default and hosts the metadata tables.
type Backend interface {
	// Name returns the backend identifier entity types select it by.
	Name() string

	// Repository returns the live handle for an already-materialized entity
	// type, or nil if no physical storage exists under that name.
	Repository(entityName string) (Repository, error)

	// Create materializes physical storage for a concrete entity type and
	// returns its repository handle. Rejects abstract definitions.
	Create(entityType *EntityType) (Repository, error)

	// AddAttribute adds physical storage for a new attribute, scheduling
	// whatever asynchronous propagation the backend performs for DDL.
	AddAttribute(entityName string, attr *Attribute) error

	// AddAttributeSync adds the attribute applying the change inline,
	// skipping asynchronous propagation.
	AddAttributeSync(entityName string, attr *Attribute) error

	// DeleteAttribute drops the attribute's physical storage.
	DeleteAttribute(entityName, attrName string) error

	// Delete destroys the entity type's physical storage. Idempotent:
	// destroying a name that was never materialized succeeds.
	Delete(entityName string) error
}

// Transactor is implemented by backends whose metadata store supports
// transactions. The service wraps multi-step metadata mutations in
// RunInTransaction when the default backend offers it and falls back to
// plain sequential execution otherwise.
type Transactor interface {
	RunInTransaction(fn func() error) error
}
