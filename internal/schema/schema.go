// Package schema describes the tables backing each content entity.
//
// An Entity is immutable process-wide configuration: the table name, the path
// segment it is routed under and its ordered columns. The first column of
// every table is the row identifier IDColumn.
package schema

import "fmt"

// IDColumn is the auto-assigned row identifier present in every table.
const IDColumn = "_id"

// EntityType names a kind of record, e.g. "hospital".
type EntityType string

// SQLType is the storage class of a column.
type SQLType string

const (
	TypeInteger SQLType = "INTEGER"
	TypeText    SQLType = "TEXT"
	TypeReal    SQLType = "REAL"
	TypeBlob    SQLType = "BLOB"
)

type Column struct {
	Name     string
	Type     SQLType
	Nullable bool
}

type Entity struct {
	Type    EntityType
	Table   string
	Segment string // plural path segment, e.g. "hospitals"
	Columns []Column
}

// NewEntity builds an entity whose first column is the row identifier.
func NewEntity(entityType EntityType, table, segment string, columns ...Column) Entity {
	cols := make([]Column, 0, len(columns)+1)
	cols = append(cols, Column{Name: IDColumn, Type: TypeInteger})
	cols = append(cols, columns...)
	return Entity{
		Type:    entityType,
		Table:   table,
		Segment: segment,
		Columns: cols,
	}
}

// Column returns the column with the given name.
func (e Entity) Column(name string) (Column, bool) {
	for _, c := range e.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns column names in declaration order.
func (e Entity) ColumnNames() []string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.Name
	}
	return names
}

// RequiredColumns returns the non-nullable data columns in declaration order.
// The row identifier is excluded since storage assigns it.
func (e Entity) RequiredColumns() []string {
	var required []string
	for _, c := range e.Columns {
		if c.Name == IDColumn || c.Nullable {
			continue
		}
		required = append(required, c.Name)
	}
	return required
}

// CreateTableSQL renders the DDL that creates the table if it is absent.
func (e Entity) CreateTableSQL() string {
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (", QuoteIdent(e.Table))
	for i, c := range e.Columns {
		if i > 0 {
			ddl += ", "
		}
		ddl += QuoteIdent(c.Name) + " " + string(c.Type)
		switch {
		case c.Name == IDColumn:
			ddl += " PRIMARY KEY AUTOINCREMENT"
		case !c.Nullable:
			ddl += " NOT NULL"
		}
	}
	return ddl + ")"
}

// Validate checks the structural invariants of an entity definition.
func (e Entity) Validate() error {
	if e.Type == "" || e.Table == "" || e.Segment == "" {
		return fmt.Errorf("schema: entity %q needs a type, table and segment", e.Type)
	}
	if len(e.Columns) == 0 || e.Columns[0].Name != IDColumn {
		return fmt.Errorf("schema: entity %q must start with the %s column", e.Type, IDColumn)
	}
	seen := make(map[string]bool, len(e.Columns))
	for _, c := range e.Columns {
		if c.Name == "" {
			return fmt.Errorf("schema: entity %q has an unnamed column", e.Type)
		}
		if seen[c.Name] {
			return fmt.Errorf("schema: entity %q declares column %q twice", e.Type, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// QuoteIdent quotes an SQL identifier for SQLite.
func QuoteIdent(name string) string {
	quoted := make([]byte, 0, len(name)+2)
	quoted = append(quoted, '"')
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			quoted = append(quoted, '"')
		}
		quoted = append(quoted, name[i])
	}
	return string(append(quoted, '"'))
}
