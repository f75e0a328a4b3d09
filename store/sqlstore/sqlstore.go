// Package sqlstore provides a database/sql-backed store with
// convention-based relationship resolution: to-one relationships read a
// "<relationship>_id" column on the owning row, to-many relationships read a
// "<owner type>_id" column on the target table.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/compoundapi/compound/resource"
	"github.com/compoundapi/compound/store"
)

// Querier is the subset of *sql.DB the store needs, allowing for testing and
// instrumentation.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Table maps one resource type onto a SQL table
type Table struct {
	// Name is the table name
	Name string

	// IDColumn is the primary key column, "id" when empty
	IDColumn string

	// Columns are the attribute columns, foreign keys included
	Columns []string
}

func (t Table) idColumn() string {
	if t.IDColumn == "" {
		return "id"
	}
	return t.IDColumn
}

func (t Table) selectList() string {
	cols := append([]string{t.idColumn()}, t.Columns...)
	return strings.Join(cols, ", ")
}

// Row is a scanned SQL row
type Row struct {
	id       string
	typeName string
	columns  map[string]any
}

// ResourceID implements resource.Row
func (r *Row) ResourceID() string { return r.id }

// Column returns one scanned column value
func (r *Row) Column(name string) any { return r.columns[name] }

// Attributes is the read projection for SQL rows: every scanned column
// except the primary key.
func Attributes(row resource.Row) any {
	return row.(*Row).columns
}

// DB maps resource types to tables and resolves relationships for all of
// them. It is configured once at startup.
type DB struct {
	db     Querier
	tables map[string]Table
}

// New creates a DB over a querier
func New(db Querier) *DB {
	return &DB{
		db:     db,
		tables: make(map[string]Table),
	}
}

// Map declares the table backing a resource type
func (d *DB) Map(t *resource.Type, table Table) {
	d.tables[t.Name()] = table
}

// Store returns the store.Store view for one mapped resource type
func (d *DB) Store(t *resource.Type) (*Store, error) {
	table, ok := d.tables[t.Name()]
	if !ok {
		return nil, fmt.Errorf("resource %s has no table mapping", t.Name())
	}
	return &Store{db: d, typeName: t.Name(), table: table}, nil
}

// Related implements jsonapi.Source using foreign-key conventions. A missing
// or NULL foreign key resolves to nothing.
func (d *DB) Related(ctx context.Context, row resource.Row, rel *resource.Relationship) ([]resource.Row, error) {
	sqlRow, ok := row.(*Row)
	if !ok {
		return nil, nil
	}

	target, ok := d.tables[rel.Target.Name()]
	if !ok {
		return nil, fmt.Errorf("resource %s has no table mapping", rel.Target.Name())
	}

	switch rel.Kind {
	case resource.ToOne:
		fk := sqlRow.Column(rel.Name + "_id")
		if fk == nil {
			return nil, nil
		}
		query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
			target.selectList(), target.Name, target.idColumn())
		return d.queryRows(ctx, rel.Target.Name(), target, query, fk)

	case resource.ToMany:
		fkColumn := sqlRow.typeName + "_id"
		query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 ORDER BY %s",
			target.selectList(), target.Name, fkColumn, target.idColumn())
		return d.queryRows(ctx, rel.Target.Name(), target, query, sqlRow.id)

	default:
		return nil, fmt.Errorf("unknown relationship kind %s", rel.Kind)
	}
}

// queryRows runs a select and scans every row generically
func (d *DB) queryRows(ctx context.Context, typeName string, table Table, query string, args ...any) ([]resource.Row, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []resource.Row
	for rows.Next() {
		row, err := scanRow(rows, typeName, table)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// scanRow scans the current cursor position into a Row
func scanRow(rows *sql.Rows, typeName string, table Table) (*Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	row := &Row{typeName: typeName, columns: make(map[string]any, len(cols)-1)}
	for i, col := range cols {
		value := values[i]
		// Text columns come back as []byte from some drivers
		if b, ok := value.([]byte); ok {
			value = string(b)
		}
		if col == table.idColumn() {
			row.id = fmt.Sprintf("%v", value)
			continue
		}
		row.columns[col] = value
	}
	return row, nil
}

// Store is a per-type view over a DB, implementing store.Store and
// jsonapi.Source.
type Store struct {
	db       *DB
	typeName string
	table    Table
}

// Retrieve fetches one row by primary key
func (s *Store) Retrieve(ctx context.Context, id string) (resource.Row, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		s.table.selectList(), s.table.Name, s.table.idColumn())

	rows, err := s.db.queryRows(ctx, s.typeName, s.table, query, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return rows[0], nil
}

// List fetches all rows in primary-key order
func (s *Store) List(ctx context.Context) ([]resource.Row, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		s.table.selectList(), s.table.Name, s.table.idColumn())
	return s.db.queryRows(ctx, s.typeName, s.table, query)
}

// Create inserts a row under a generated id. Only mapped columns are
// written; unknown attribute keys are rejected.
func (s *Store) Create(ctx context.Context, attrs map[string]any) (resource.Row, error) {
	cols, values, err := s.orderedColumns(attrs)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	insertCols := append([]string{s.table.idColumn()}, cols...)
	placeholders := make([]string, len(insertCols))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.table.Name, strings.Join(insertCols, ", "), strings.Join(placeholders, ", "))

	args := append([]any{id}, values...)
	if _, err := s.db.db.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}

	return s.Retrieve(ctx, id)
}

// Update writes the given attribute columns and returns the updated row
func (s *Store) Update(ctx context.Context, id string, attrs map[string]any) (resource.Row, error) {
	cols, values, err := s.orderedColumns(attrs)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return s.Retrieve(ctx, id)
	}

	assignments := make([]string, len(cols))
	for i, col := range cols {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		s.table.Name, strings.Join(assignments, ", "), s.table.idColumn(), len(cols)+1)

	args := append(values, any(id))
	result, err := s.db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.Retrieve(ctx, id)
}

// Delete removes a row by primary key
func (s *Store) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", s.table.Name, s.table.idColumn())

	result, err := s.db.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Related implements jsonapi.Source by delegating to the backing DB
func (s *Store) Related(ctx context.Context, row resource.Row, rel *resource.Relationship) ([]resource.Row, error) {
	return s.db.Related(ctx, row, rel)
}

// orderedColumns validates attrs against the mapped columns and returns them
// in a deterministic order.
func (s *Store) orderedColumns(attrs map[string]any) ([]string, []any, error) {
	mapped := make(map[string]bool, len(s.table.Columns))
	for _, col := range s.table.Columns {
		mapped[col] = true
	}

	cols := make([]string, 0, len(attrs))
	for col := range attrs {
		if !mapped[col] {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownColumn, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	values := make([]any, len(cols))
	for i, col := range cols {
		values[i] = attrs[col]
	}
	return cols, values, nil
}

// ErrUnknownColumn is returned when a write payload names an unmapped column
var ErrUnknownColumn = errors.New("unknown column")
