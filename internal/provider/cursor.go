package provider

import (
	"database/sql"
	"iter"

	"github.com/mrlokans/symptomchecker/internal/router"
	"github.com/mrlokans/symptomchecker/internal/schema"
)

// Record maps column names to values. It is used both for query rows and
// for insert/update payloads.
type Record map[string]any

// Cursor is a lazy, single-pass view over query results. Rows are read from
// SQLite as Next is called; to start over, run the query again. A cursor
// closes itself once exhausted, but callers that stop early must Close it.
type Cursor struct {
	rows    *sql.Rows
	path    string
	columns []string
	types   []schema.SQLType
	observe router.Match
	current Record
	err     error
	closed  bool
}

func newCursor(rows *sql.Rows, path string, e schema.Entity, columns []string, observe router.Match) *Cursor {
	types := make([]schema.SQLType, len(columns))
	for i, name := range columns {
		c, _ := e.Column(name)
		types[i] = c.Type
	}
	return &Cursor{
		rows:    rows,
		path:    path,
		columns: columns,
		types:   types,
		observe: observe,
	}
}

// Next advances to the next row. It returns false when the rows are
// exhausted or an error occurred; check Err afterwards.
func (c *Cursor) Next() bool {
	if c.closed {
		return false
	}
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			c.err = newStorageError("query", c.path, err)
		}
		c.Close()
		return false
	}

	values := make([]any, len(c.columns))
	dest := make([]any, len(c.columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := c.rows.Scan(dest...); err != nil {
		c.err = newStorageError("query", c.path, err)
		c.Close()
		return false
	}

	record := make(Record, len(c.columns))
	for i, name := range c.columns {
		record[name] = normalize(values[i], c.types[i])
	}
	c.current = record
	return true
}

// Record returns the row loaded by the last successful Next.
func (c *Cursor) Record() Record {
	return c.current
}

func (c *Cursor) Err() error {
	return c.err
}

func (c *Cursor) Columns() []string {
	return c.columns
}

// NotificationMatch is the collection a caller should observe to learn that
// this result set has gone stale.
func (c *Cursor) NotificationMatch() router.Match {
	return c.observe
}

func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rows.Close()
}

// Records iterates the remaining rows and closes the cursor when done. A
// storage failure is yielded once as the final element.
func (c *Cursor) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		defer c.Close()
		for c.Next() {
			if !yield(c.current, nil) {
				return
			}
		}
		if c.err != nil {
			yield(nil, c.err)
		}
	}
}

// All drains the cursor into a slice.
func (c *Cursor) All() ([]Record, error) {
	records := []Record{}
	for r, err := range c.Records() {
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// normalize converts driver buffers into values that outlive the row.
func normalize(v any, t schema.SQLType) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	if t == schema.TypeText {
		return string(b)
	}
	return append([]byte(nil), b...)
}
