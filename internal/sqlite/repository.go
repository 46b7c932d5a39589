package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/metaforge-io/metareg/pkg/meta"
)

var _ meta.Repository = (*repository)(nil)

// repository is the generic row accessor for one materialized entity type.
// Rows travel as map[string]any keyed by attribute name.
type repository struct {
	backend    *Backend
	entityType *meta.EntityType
	idCol      string
}

// newUUID generates a UUID v7 string.
func newUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func newRepository(b *Backend, et *meta.EntityType) *repository {
	idCol := meta.ColID
	if id := et.IDAttribute(); id != nil {
		idCol = id.Name
	}
	return &repository{backend: b, entityType: et.Clone(), idCol: idCol}
}

// Name returns the entity-type full name the repository serves.
func (r *repository) Name() string { return r.entityType.FullName }

// EntityType returns the definition the handle is bound to.
func (r *repository) EntityType() *meta.EntityType { return r.entityType }

// columns lists the storable attribute names in definition order.
func (r *repository) columns() []string {
	var cols []string
	for _, a := range r.entityType.Attributes {
		if a.DataType == meta.TypeCompound {
			continue
		}
		cols = append(cols, a.Name)
	}
	return cols
}

// Get retrieves the row with the given ID.
func (r *repository) Get(id string) (map[string]any, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", meta.ErrInvalidRow)
	}
	cols := r.columns()
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		quoteList(cols), quote(r.entityType.FullName), quote(r.idCol))

	row := r.backend.db.QueryRow(query, id)
	values := make([]any, len(cols))
	for i := range values {
		values[i] = new(any)
	}
	if err := row.Scan(values...); err != nil {
		if err == sql.ErrNoRows {
			return nil, meta.ErrRowNotFound
		}
		return nil, fmt.Errorf("get %s[%s]: %w", r.entityType.FullName, id, err)
	}
	return r.hydrate(cols, values), nil
}

// Set creates or updates a row. When id is empty a UUID v7 is generated.
// The write replaces the whole row; absent nillable columns become NULL.
func (r *repository) Set(id string, row map[string]any) (string, error) {
	if row == nil {
		return "", meta.ErrInvalidRow
	}
	if id == "" {
		id = newUUID()
	}
	row[r.idCol] = id

	var cols []string
	var args []any
	for _, name := range r.columns() {
		v, ok := row[name]
		if !ok {
			continue
		}
		cols = append(cols, quote(name))
		args = append(args, bindValue(v))
	}
	query := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		quote(r.entityType.FullName), strings.Join(cols, ", "), placeholders(len(cols)))
	if _, err := r.backend.db.Exec(query, args...); err != nil {
		return "", fmt.Errorf("set %s[%s]: %w", r.entityType.FullName, id, err)
	}
	return id, nil
}

// Delete removes the row with the given ID.
func (r *repository) Delete(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", meta.ErrInvalidRow)
	}
	res, err := r.backend.db.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", quote(r.entityType.FullName), quote(r.idCol)), id)
	if err != nil {
		return fmt.Errorf("delete %s[%s]: %w", r.entityType.FullName, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return meta.ErrRowNotFound
	}
	return nil
}

// Fetch returns all rows matching the equality filter, in identifier order.
func (r *repository) Fetch(filter map[string]any) ([]map[string]any, error) {
	cols := r.columns()
	query := fmt.Sprintf("SELECT %s FROM %s", quoteList(cols), quote(r.entityType.FullName))

	var args []any
	if len(filter) > 0 {
		var clauses []string
		for _, name := range cols {
			v, ok := filter[name]
			if !ok {
				continue
			}
			clauses = append(clauses, quote(name)+" = ?")
			args = append(args, bindValue(v))
		}
		if len(clauses) != len(filter) {
			return nil, fmt.Errorf("%w: filter names unknown column", meta.ErrInvalidRow)
		}
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY " + quote(r.idCol)

	rows, err := r.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", r.entityType.FullName, err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		for i := range values {
			values[i] = new(any)
		}
		if err := rows.Scan(values...); err != nil {
			return nil, fmt.Errorf("fetch %s: %w", r.entityType.FullName, err)
		}
		out = append(out, r.hydrate(cols, values))
	}
	return out, rows.Err()
}

// hydrate converts scanned values to the attribute's Go representation.
func (r *repository) hydrate(cols []string, values []any) map[string]any {
	row := make(map[string]any, len(cols))
	for i, name := range cols {
		v := *(values[i].(*any))
		if bs, ok := v.([]byte); ok {
			v = string(bs)
		}
		if a := r.entityType.Attr(name); a != nil && v != nil {
			switch a.DataType {
			case meta.TypeBool:
				if n, ok := v.(int64); ok {
					v = n != 0
				}
			case meta.TypeInt, meta.TypeLong:
				// int64 already
			case meta.TypeDecimal:
				if n, ok := v.(int64); ok {
					v = float64(n)
				}
			}
		}
		row[name] = v
	}
	return row
}

// bindValue converts Go values to driver-friendly bindings.
func bindValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return int64(1)
		}
		return int64(0)
	}
	return v
}

func quoteList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
	}
	return strings.Join(quoted, ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
