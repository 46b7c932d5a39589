package meta

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors: raised before any persistence, no side effects.
var (
	ErrInvalidName    = errors.New("invalid name")
	ErrNameTooLong    = errors.New("name exceeds maximum length")
	ErrReservedName   = errors.New("name is a reserved word")
	ErrInvalidType    = errors.New("unknown data type")
	ErrDuplicateAttr  = errors.New("duplicate attribute name")
	ErrMultipleIDs    = errors.New("entity type declares more than one identifier attribute")
	ErrNillableID     = errors.New("identifier attribute must not be nillable")
	ErrMissingRef     = errors.New("reference attribute declares no target entity type")
	ErrAbstractCreate = errors.New("abstract entity type has no physical storage")
)

// Lookup errors: the named object is absent from the relevant registry.
var (
	ErrUnknownEntity    = errors.New("unknown entity type")
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrUnknownPackage   = errors.New("unknown package")
	ErrUnknownParent    = errors.New("unknown parent package")
)

// Orchestration errors.
var (
	ErrDuplicateEntity    = errors.New("entity type name collides with a live repository")
	ErrDuplicatePackage   = errors.New("package already exists")
	ErrBackendUnavailable = errors.New("no backend registered under that identifier")
	ErrBootstrapped       = errors.New("metadata service is already bootstrapped")
	ErrNotBootstrapped    = errors.New("metadata service is not bootstrapped")
	ErrStillReferenced    = errors.New("entity type is referenced by another entity type")
	ErrPermissionDenied   = errors.New("permission denied")
)

// CycleError reports a cycle in the entity-type reference graph. Members
// holds the names of the entity types participating in the cycle.
type CycleError struct {
	Members []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic dependency between entity types [%s]", strings.Join(e.Members, ", "))
}
