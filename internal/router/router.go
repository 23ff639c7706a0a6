// Package router classifies content paths into collection or single-item
// matches for a registered entity.
//
// A Router is built once from an explicit list of registrations and is
// immutable afterwards, so Route is a pure function of its input:
//
//	r, err := router.New("com.example.symptomchecker",
//		router.Route{Segment: "hospitals", Entity: schema.EntityHospital},
//	)
//	m, err := r.Route("com.example.symptomchecker/hospitals/7")
//	// m == router.ItemOf(schema.EntityHospital, 7)
package router

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mrlokans/symptomchecker/internal/schema"
)

// Scheme is the optional prefix accepted in front of the authority.
const Scheme = "content://"

// ErrUnroutableResource is returned when a path matches no registered route.
var ErrUnroutableResource = errors.New("router: unroutable resource")

type Kind int

const (
	Collection Kind = iota + 1
	Item
)

func (k Kind) String() string {
	switch k {
	case Collection:
		return "collection"
	case Item:
		return "item"
	default:
		return "unknown"
	}
}

// Match identifies either a whole entity collection or exactly one row.
// RowID is only meaningful for Item matches.
type Match struct {
	Entity schema.EntityType
	Kind   Kind
	RowID  int64
}

func CollectionOf(entity schema.EntityType) Match {
	return Match{Entity: entity, Kind: Collection}
}

func ItemOf(entity schema.EntityType, rowID int64) Match {
	return Match{Entity: entity, Kind: Item, RowID: rowID}
}

func (m Match) IsItem() bool {
	return m.Kind == Item
}

// Collection returns the collection-level match of the same entity.
func (m Match) Collection() Match {
	return CollectionOf(m.Entity)
}

func (m Match) String() string {
	if m.IsItem() {
		return fmt.Sprintf("%s/%d", m.Entity, m.RowID)
	}
	return string(m.Entity)
}

// Route registers an entity under a plural path segment.
type Route struct {
	Segment string
	Entity  schema.EntityType
}

type Router struct {
	authority string
	entities  map[string]schema.EntityType
	segments  map[schema.EntityType]string
}

// New builds a router for the given authority. Two routes may not share a
// segment, and an entity may only be registered once.
func New(authority string, routes ...Route) (*Router, error) {
	authority = strings.TrimPrefix(authority, Scheme)
	if authority == "" || strings.Contains(authority, "/") {
		return nil, fmt.Errorf("router: invalid authority %q", authority)
	}

	r := &Router{
		authority: authority,
		entities:  make(map[string]schema.EntityType, len(routes)),
		segments:  make(map[schema.EntityType]string, len(routes)),
	}
	for _, route := range routes {
		if route.Segment == "" || strings.Contains(route.Segment, "/") {
			return nil, fmt.Errorf("router: invalid segment %q for %s", route.Segment, route.Entity)
		}
		if route.Entity == "" {
			return nil, fmt.Errorf("router: segment %q has no entity", route.Segment)
		}
		if existing, ok := r.entities[route.Segment]; ok {
			return nil, fmt.Errorf("router: segment %q already registered for %s", route.Segment, existing)
		}
		if _, ok := r.segments[route.Entity]; ok {
			return nil, fmt.Errorf("router: entity %s registered twice", route.Entity)
		}
		r.entities[route.Segment] = route.Entity
		r.segments[route.Entity] = route.Segment
	}
	return r, nil
}

// ForEntities registers every entity under its own segment.
func ForEntities(authority string, entities ...schema.Entity) (*Router, error) {
	routes := make([]Route, len(entities))
	for i, e := range entities {
		routes[i] = Route{Segment: e.Segment, Entity: e.Type}
	}
	return New(authority, routes...)
}

func (r *Router) Authority() string {
	return r.authority
}

// Route matches "<authority>/<segment>" as a collection and
// "<authority>/<segment>/<digits>" as a single item. Anything else fails with
// ErrUnroutableResource.
func (r *Router) Route(path string) (Match, error) {
	rest, ok := strings.CutPrefix(strings.TrimPrefix(path, Scheme), r.authority+"/")
	if !ok {
		return Match{}, unroutable(path)
	}

	segment, id, hasID := strings.Cut(rest, "/")
	entity, ok := r.entities[segment]
	if !ok {
		return Match{}, unroutable(path)
	}
	if !hasID {
		return CollectionOf(entity), nil
	}

	if !isDigits(id) {
		return Match{}, unroutable(path)
	}
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Match{}, unroutable(path)
	}
	return ItemOf(entity, rowID), nil
}

// Path renders a match as its canonical path, without the scheme.
func (r *Router) Path(m Match) (string, error) {
	segment, ok := r.segments[m.Entity]
	if !ok {
		return "", fmt.Errorf("%w: entity %s is not registered", ErrUnroutableResource, m.Entity)
	}
	if m.IsItem() {
		return r.authority + "/" + segment + "/" + strconv.FormatInt(m.RowID, 10), nil
	}
	return r.authority + "/" + segment, nil
}

func unroutable(path string) error {
	return fmt.Errorf("%w: %q", ErrUnroutableResource, path)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
