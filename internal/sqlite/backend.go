// Package sqlite implements the reference physical backend: entity types are
// materialized as SQLite tables built from their definitions, and the same
// database hosts the self-describing metadata tables when this backend is the
// default.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/metaforge-io/metareg/pkg/meta"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "metareg.db"

// Backend materializes entity types as SQLite tables. It implements
// meta.Backend and meta.Transactor.
type Backend struct {
	mu    sync.RWMutex
	db    *sql.DB
	repos map[string]*repository

	// txMu serializes RunInTransaction callers. The pool is capped at one
	// connection so statements issued inside fn join the open transaction.
	txMu sync.Mutex
}

var (
	_ meta.Backend    = (*Backend)(nil)
	_ meta.Transactor = (*Backend)(nil)
)

// Open creates the data directory if needed and opens the backend database.
func Open(dataDir string) (*Backend, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: transactions and ordinary statements share it.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	return &Backend{db: db, repos: make(map[string]*repository)}, nil
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return meta.BackendSQLite }

// Close releases the database handle.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Repository returns the live handle for an already-materialized entity
// type. When the table exists but no handle is bound in-process (fresh open
// of an existing database), a handle is synthesized from the physical
// columns; callers that hold the registered definition should prefer Create,
// which rebinds it.
func (b *Backend) Repository(entityName string) (meta.Repository, error) {
	b.mu.RLock()
	if repo, ok := b.repos[entityName]; ok {
		b.mu.RUnlock()
		return repo, nil
	}
	b.mu.RUnlock()

	exists, err := b.tableExists(entityName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	et, err := b.introspect(entityName)
	if err != nil {
		return nil, err
	}
	return b.bind(et), nil
}

// Create materializes physical storage for a concrete entity type and binds
// its repository handle. Creation is idempotent: an existing table is left in
// place and the handle is rebound to the given definition.
func (b *Backend) Create(entityType *meta.EntityType) (meta.Repository, error) {
	if entityType.Abstract {
		return nil, fmt.Errorf("%w: %s", meta.ErrAbstractCreate, entityType.FullName)
	}

	ddl, err := createTableDDL(entityType)
	if err != nil {
		return nil, err
	}
	if _, err := b.db.Exec(ddl); err != nil {
		return nil, fmt.Errorf("materialize %s: %w", entityType.FullName, err)
	}
	return b.bind(entityType), nil
}

// AddAttribute adds a column for the attribute. SQLite DDL applies inline;
// there is no asynchronous propagation to skip, so AddAttributeSync behaves
// identically.
func (b *Backend) AddAttribute(entityName string, attr *meta.Attribute) error {
	if attr.DataType == meta.TypeCompound {
		return nil // compounds group other attributes and hold no storage
	}
	ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quote(entityName), columnDDL(attr, true))
	if _, err := b.db.Exec(ddl); err != nil {
		return fmt.Errorf("add column %s.%s: %w", entityName, attr.Name, err)
	}
	b.refreshBinding(entityName, func(et *meta.EntityType) {
		if et.Attr(attr.Name) == nil {
			et.AddAttribute(attr.Clone())
		}
	})
	return nil
}

// AddAttributeSync applies the attribute inline. See AddAttribute.
func (b *Backend) AddAttributeSync(entityName string, attr *meta.Attribute) error {
	return b.AddAttribute(entityName, attr)
}

// DeleteAttribute drops the attribute's column.
func (b *Backend) DeleteAttribute(entityName, attrName string) error {
	ddl := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", quote(entityName), quote(attrName))
	if _, err := b.db.Exec(ddl); err != nil {
		return fmt.Errorf("drop column %s.%s: %w", entityName, attrName, err)
	}
	b.refreshBinding(entityName, func(et *meta.EntityType) {
		et.RemoveAttribute(attrName)
	})
	return nil
}

// Delete destroys the entity type's physical storage. Destroying a name that
// was never materialized is a no-op success.
func (b *Backend) Delete(entityName string) error {
	if _, err := b.db.Exec("DROP TABLE IF EXISTS " + quote(entityName)); err != nil {
		return fmt.Errorf("drop table %s: %w", entityName, err)
	}
	b.mu.Lock()
	delete(b.repos, entityName)
	b.mu.Unlock()
	return nil
}

// RunInTransaction runs fn inside BEGIN IMMEDIATE .. COMMIT, rolling back
// when fn returns an error. Callers are serialized; nested use deadlocks.
func (b *Backend) RunInTransaction(fn func() error) error {
	b.txMu.Lock()
	defer b.txMu.Unlock()

	if _, err := b.db.Exec("BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(); err != nil {
		if _, rbErr := b.db.Exec("ROLLBACK"); rbErr != nil {
			return fmt.Errorf("rollback after %v: %w", err, rbErr)
		}
		return err
	}
	if _, err := b.db.Exec("COMMIT"); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// bind registers a repository handle for the definition.
func (b *Backend) bind(entityType *meta.EntityType) *repository {
	repo := newRepository(b, entityType)
	b.mu.Lock()
	b.repos[entityType.FullName] = repo
	b.mu.Unlock()
	return repo
}

// refreshBinding mutates the bound definition copy after a DDL change so the
// handle's column view matches the physical table.
func (b *Backend) refreshBinding(entityName string, mutate func(*meta.EntityType)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if repo, ok := b.repos[entityName]; ok {
		mutate(repo.entityType)
	}
}

func (b *Backend) tableExists(name string) (bool, error) {
	var n int
	err := b.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return n > 0, nil
}

// introspect rebuilds a minimal definition from the physical columns. Data
// types are approximated from column affinity; the registered definition
// remains authoritative.
func (b *Backend) introspect(name string) (*meta.EntityType, error) {
	rows, err := b.db.Query("SELECT name, type, \"notnull\", pk FROM pragma_table_info(?)", name)
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", name, err)
	}
	defer rows.Close()

	et := meta.NewEntityType(name)
	for rows.Next() {
		var colName, colType string
		var notNull, pk int
		if err := rows.Scan(&colName, &colType, &notNull, &pk); err != nil {
			return nil, fmt.Errorf("introspect %s: %w", name, err)
		}
		et.AddAttribute(&meta.Attribute{
			Name:        colName,
			DataType:    affinityType(colType),
			Nillable:    notNull == 0 && pk == 0,
			IDAttribute: pk > 0,
		})
	}
	return et, rows.Err()
}
