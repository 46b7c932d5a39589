package meta

import (
	"fmt"
	"regexp"
)

// maxNameLength bounds entity, attribute, and package names. Physical
// backends commonly cap identifier length well below their own limits so
// generated index and junction names still fit.
const maxNameLength = 30

var namePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_#]*$`)

// reservedNames are rejected as entity, attribute, and package names because
// they collide with keywords of the query surfaces layered on top of the
// registry.
var reservedNames = map[string]bool{
	"base": true, "class": true, "false": true, "group": true,
	"import": true, "new": true, "null": true, "order": true,
	"select": true, "this": true, "true": true, "where": true,
}

// ValidateName checks name syntax: non-empty, bounded length, leading letter,
// then letters, digits, underscore, or hash, and not a reserved word.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: %q (%d > %d)", ErrNameTooLong, name, len(name), maxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if reservedNames[name] {
		return fmt.Errorf("%w: %q", ErrReservedName, name)
	}
	return nil
}

// ValidateEntityType checks the structural rules a definition must satisfy
// before it may be persisted: valid names throughout, unique attribute names,
// at most one identifier attribute, a non-nillable identifier, and a declared
// target on every reference attribute.
func ValidateEntityType(e *EntityType) error {
	if err := ValidateName(e.FullName); err != nil {
		return err
	}
	seen := make(map[string]bool, len(e.Attributes))
	var idAttr *Attribute
	for _, a := range e.Attributes {
		if err := ValidateName(a.Name); err != nil {
			return fmt.Errorf("entity %s: %w", e.FullName, err)
		}
		if seen[a.Name] {
			return fmt.Errorf("entity %s: %w: %q", e.FullName, ErrDuplicateAttr, a.Name)
		}
		seen[a.Name] = true
		if !a.DataType.Valid() {
			return fmt.Errorf("entity %s attribute %s: %w: %q", e.FullName, a.Name, ErrInvalidType, a.DataType)
		}
		if a.IDAttribute {
			if idAttr != nil {
				return fmt.Errorf("entity %s: %w (%s, %s)", e.FullName, ErrMultipleIDs, idAttr.Name, a.Name)
			}
			if a.Nillable {
				return fmt.Errorf("entity %s attribute %s: %w", e.FullName, a.Name, ErrNillableID)
			}
			idAttr = a
		}
		if a.DataType.IsReference() && a.RefEntity == "" {
			return fmt.Errorf("entity %s attribute %s: %w", e.FullName, a.Name, ErrMissingRef)
		}
	}
	return nil
}
