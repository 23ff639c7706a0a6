package provider

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/mrlokans/symptomchecker/internal/notify"
	"github.com/mrlokans/symptomchecker/internal/router"
	"github.com/mrlokans/symptomchecker/internal/schema"
)

// Store hands out database handles. *database.Manager implements it.
type Store interface {
	Readable() (*gorm.DB, error)
	Writable() (*gorm.DB, error)
}

// QueryArgs narrows a collection query. Filter is an SQL boolean expression
// with ? placeholders bound to FilterArgs. Columns defaults to every column
// in declaration order.
type QueryArgs struct {
	Columns    []string
	Filter     string
	FilterArgs []any
	Order      string
}

// Provider routes content paths to table operations and reports mutations
// to the notification hub. It keeps no state beyond its collaborators.
type Provider struct {
	store    Store
	router   *router.Router
	hub      *notify.Hub
	entities map[schema.EntityType]schema.Entity
	log      zerolog.Logger
}

func New(store Store, r *router.Router, hub *notify.Hub, entities []schema.Entity, log zerolog.Logger) (*Provider, error) {
	byType := make(map[schema.EntityType]schema.Entity, len(entities))
	for _, e := range entities {
		if _, err := r.Path(router.CollectionOf(e.Type)); err != nil {
			return nil, fmt.Errorf("provider: entity %s has no route", e.Type)
		}
		byType[e.Type] = e
	}
	return &Provider{
		store:    store,
		router:   r,
		hub:      hub,
		entities: byType,
		log:      log.With().Str("component", "provider").Logger(),
	}, nil
}

func (p *Provider) resolve(path string) (router.Match, schema.Entity, error) {
	m, err := p.router.Route(path)
	if err != nil {
		return router.Match{}, schema.Entity{}, err
	}
	e, ok := p.entities[m.Entity]
	if !ok {
		return router.Match{}, schema.Entity{}, fmt.Errorf("%w: %q", ErrUnroutableResource, path)
	}
	return m, e, nil
}

// Type returns the content type of the addressed resource.
func (p *Provider) Type(path string) (string, error) {
	m, _, err := p.resolve(path)
	if err != nil {
		return "", err
	}
	kind := "dir"
	if m.IsItem() {
		kind = "item"
	}
	return fmt.Sprintf("vnd.%s.%s/%s", p.router.Authority(), kind, m.Entity), nil
}

// Query returns a cursor over the matching rows. An item path selects exactly
// the addressed row and ignores args.Filter.
func (p *Provider) Query(path string, args QueryArgs) (*Cursor, error) {
	m, e, err := p.resolve(path)
	if err != nil {
		return nil, err
	}

	columns := args.Columns
	if len(columns) == 0 {
		columns = e.ColumnNames()
	} else if err := validateProjection(e, columns); err != nil {
		return nil, err
	}

	where, scoped, err := condition(m, args.Filter, args.FilterArgs)
	if err != nil {
		return nil, err
	}
	if args.Order != "" {
		if err := checkExpression("order", args.Order); err != nil {
			return nil, err
		}
	}

	db, err := p.store.Readable()
	if err != nil {
		return nil, newStorageError("query", path, err)
	}

	q := db.Table(e.Table).Select(quoteAll(columns))
	if scoped {
		q = q.Where(where)
	}
	if args.Order != "" {
		q = q.Order(args.Order)
	}

	rows, err := q.Rows()
	if err != nil {
		p.log.Error().Err(err).Str("uri", path).Msg("Failed to query rows")
		return nil, newStorageError("query", path, err)
	}
	return newCursor(rows, path, e, columns, m.Collection()), nil
}

// Insert adds one row to a collection and returns the item match of the new
// row. Inserting into an item path fails with ErrUnsupportedOperation.
func (p *Provider) Insert(path string, values Record) (router.Match, error) {
	m, e, err := p.resolve(path)
	if err != nil {
		return router.Match{}, err
	}
	if m.IsItem() {
		return router.Match{}, unsupported("insert", path)
	}
	if err := validateInsert(e, values); err != nil {
		return router.Match{}, err
	}

	db, err := p.store.Writable()
	if err != nil {
		return router.Match{}, newStorageError("insert", path, err)
	}

	query, vars := insertSQL(e, values)
	id, err := insertReturningID(db, query, vars)
	if err != nil {
		p.log.Error().Err(err).Str("uri", path).Msg("Failed to insert row")
		return router.Match{}, newStorageError("insert", path, err)
	}

	p.log.Debug().Str("uri", path).Int64("id", id).Msg("Inserted row")
	p.hub.Notify(notify.Change{Resource: m, Op: notify.OpInsert, Rows: 1})
	return router.ItemOf(e.Type, id), nil
}

// Update sets values on the matching rows and returns how many changed. An
// empty payload is a no-op that never touches storage.
func (p *Provider) Update(path string, values Record, filter string, filterArgs ...any) (int64, error) {
	m, e, err := p.resolve(path)
	if err != nil {
		return 0, err
	}
	if err := validateUpdate(e, values); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, nil
	}
	where, scoped, err := condition(m, filter, filterArgs)
	if err != nil {
		return 0, err
	}

	db, err := p.store.Writable()
	if err != nil {
		return 0, newStorageError("update", path, err)
	}

	q := db.Session(&gorm.Session{AllowGlobalUpdate: !scoped}).Table(e.Table)
	if scoped {
		q = q.Where(where)
	}
	result := q.Updates(map[string]any(values))
	if result.Error != nil {
		p.log.Error().Err(result.Error).Str("uri", path).Msg("Failed to update rows")
		return 0, newStorageError("update", path, result.Error)
	}

	p.log.Debug().Str("uri", path).Int64("rows", result.RowsAffected).Msg("Updated rows")
	p.hub.Notify(notify.Change{Resource: m, Op: notify.OpUpdate, Rows: result.RowsAffected})
	return result.RowsAffected, nil
}

// Delete removes the matching rows and returns how many were removed. A
// collection path with no filter empties the table.
func (p *Provider) Delete(path string, filter string, filterArgs ...any) (int64, error) {
	m, e, err := p.resolve(path)
	if err != nil {
		return 0, err
	}

	where, scoped, err := condition(m, filter, filterArgs)
	if err != nil {
		return 0, err
	}

	db, err := p.store.Writable()
	if err != nil {
		return 0, newStorageError("delete", path, err)
	}

	query := "DELETE FROM " + schema.QuoteIdent(e.Table)
	var vars []any
	if scoped {
		query += " WHERE " + where.SQL
		vars = where.Vars
	}

	result := db.Exec(query, vars...)
	if result.Error != nil {
		p.log.Error().Err(result.Error).Str("uri", path).Msg("Failed to delete rows")
		return 0, newStorageError("delete", path, result.Error)
	}

	p.log.Debug().Str("uri", path).Int64("rows", result.RowsAffected).Msg("Deleted rows")
	p.hub.Notify(notify.Change{Resource: m, Op: notify.OpDelete, Rows: result.RowsAffected})
	return result.RowsAffected, nil
}

// RegisterObserver subscribes to changes of the collection the path belongs to.
func (p *Provider) RegisterObserver(path string, observer notify.Observer) (notify.ObserverID, error) {
	m, _, err := p.resolve(path)
	if err != nil {
		return 0, err
	}
	return p.hub.Register(m, observer), nil
}

func (p *Provider) UnregisterObserver(id notify.ObserverID) bool {
	return p.hub.Unregister(id)
}

// Path renders a match with the provider's authority.
func (p *Provider) Path(m router.Match) (string, error) {
	return p.router.Path(m)
}

func insertSQL(e schema.Entity, values Record) (string, []any) {
	table := schema.QuoteIdent(e.Table)
	returning := " RETURNING " + schema.QuoteIdent(schema.IDColumn)
	if len(values) == 0 {
		return "INSERT INTO " + table + " DEFAULT VALUES" + returning, nil
	}

	names := make([]string, 0, len(values))
	marks := make([]string, 0, len(values))
	vars := make([]any, 0, len(values))
	for _, c := range e.Columns {
		v, ok := values[c.Name]
		if !ok {
			continue
		}
		names = append(names, schema.QuoteIdent(c.Name))
		marks = append(marks, "?")
		vars = append(vars, v)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)%s",
		table, strings.Join(names, ", "), strings.Join(marks, ", "), returning), vars
}

func insertReturningID(db *gorm.DB, query string, vars []any) (int64, error) {
	rows, err := db.Raw(query, vars...).Rows()
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("no row id assigned")
	}
	var id int64
	if err := rows.Scan(&id); err != nil {
		return 0, err
	}
	return id, rows.Err()
}

func quoteAll(names []string) []string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = schema.QuoteIdent(n)
	}
	return quoted
}
