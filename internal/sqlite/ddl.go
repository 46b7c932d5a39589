package sqlite

import (
	"fmt"
	"strings"

	"github.com/metaforge-io/metareg/pkg/meta"
)

// quote wraps an identifier in double quotes. Names are validated upstream,
// but quoting keeps generated DDL safe against reserved words.
func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// columnAffinity maps an attribute data type to a SQLite column type.
// Reference attributes store the target row ID (mref as a JSON array of IDs),
// so they collapse to TEXT.
func columnAffinity(t meta.DataType) string {
	switch t {
	case meta.TypeBool, meta.TypeInt, meta.TypeLong:
		return "INTEGER"
	case meta.TypeDecimal:
		return "REAL"
	default:
		return "TEXT"
	}
}

// affinityType is the reverse approximation used by introspection.
func affinityType(colType string) meta.DataType {
	switch strings.ToUpper(colType) {
	case "INTEGER":
		return meta.TypeInt
	case "REAL":
		return meta.TypeDecimal
	default:
		return meta.TypeString
	}
}

// columnDDL renders one column definition. When forAlter is set, NOT NULL
// columns get an empty default because SQLite refuses ADD COLUMN with a bare
// NOT NULL on populated tables.
func columnDDL(a *meta.Attribute, forAlter bool) string {
	var sb strings.Builder
	sb.WriteString(quote(a.Name))
	sb.WriteByte(' ')
	affinity := columnAffinity(a.DataType)
	sb.WriteString(affinity)
	if a.IDAttribute {
		sb.WriteString(" PRIMARY KEY")
	} else if !a.Nillable {
		sb.WriteString(" NOT NULL")
		if forAlter {
			if affinity == "TEXT" {
				sb.WriteString(" DEFAULT ''")
			} else {
				sb.WriteString(" DEFAULT 0")
			}
		}
	}
	return sb.String()
}

// createTableDDL builds the CREATE TABLE statement for a concrete entity
// type. Compound attributes group other attributes and produce no column.
func createTableDDL(e *meta.EntityType) (string, error) {
	var cols []string
	for _, a := range e.Attributes {
		if a.DataType == meta.TypeCompound {
			continue
		}
		cols = append(cols, "    "+columnDDL(a, false))
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("%w: entity %s has no storable attributes", meta.ErrInvalidRow, e.FullName)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n);", quote(e.FullName), strings.Join(cols, ",\n")), nil
}
