// Package sqlite provides the public factory for the SQLite physical
// backend while keeping implementation details internal.
package sqlite

import (
	"github.com/metaforge-io/metareg/internal/sqlite"
	"github.com/metaforge-io/metareg/pkg/meta"
)

// Backend is the concrete SQLite backend type. It satisfies meta.Backend and
// meta.Transactor and exposes Close for shutdown.
type Backend = sqlite.Backend

// Open opens (creating if needed) the backend database under dataDir.
//
// Example:
//
//	backend, err := sqlite.Open(".metareg")
//	if err != nil { ... }
//	defer backend.Close()
//	svc := metaservice.New()
//	err = svc.SetDefaultBackend(backend)
func Open(dataDir string) (*Backend, error) {
	return sqlite.Open(dataDir)
}

var _ meta.Backend = (*Backend)(nil)
