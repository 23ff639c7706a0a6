// Package notify delivers change notifications to registered observers.
//
// A Change carries only the collection-level identifier of the mutated
// entity; observers are expected to re-query. Delivery is synchronous, in the
// goroutine that reported the change, and happens outside the hub lock so an
// observer may register or unregister observers while being notified.
package notify

import (
	"sync"

	"github.com/mrlokans/symptomchecker/internal/router"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type Change struct {
	Resource router.Match // always collection-level
	Op       Op
	Rows     int64
}

type Observer interface {
	OnChange(Change)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(Change)

func (f ObserverFunc) OnChange(c Change) {
	f(c)
}

type ObserverID uint64

type registration struct {
	scope    router.Match
	observer Observer
}

type Hub struct {
	mu        sync.RWMutex
	nextID    ObserverID
	observers map[ObserverID]registration
}

func NewHub() *Hub {
	return &Hub{observers: make(map[ObserverID]registration)}
}

// Register adds an observer for a collection or for a single item. An item
// observer is notified whenever its collection changes.
func (h *Hub) Register(scope router.Match, observer Observer) ObserverID {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	h.observers[h.nextID] = registration{scope: scope, observer: observer}
	return h.nextID
}

// Unregister removes an observer. It reports whether the id was registered.
func (h *Hub) Unregister(id ObserverID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.observers[id]; !ok {
		return false
	}
	delete(h.observers, id)
	return true
}

// Len returns the number of registered observers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

// Notify invokes every observer whose scope belongs to the changed entity,
// once each, in no particular order. Changes affecting zero rows are dropped.
func (h *Hub) Notify(change Change) {
	if change.Rows <= 0 {
		return
	}
	change.Resource = change.Resource.Collection()

	h.mu.RLock()
	matched := make([]Observer, 0, len(h.observers))
	for _, reg := range h.observers {
		if reg.scope.Entity == change.Resource.Entity {
			matched = append(matched, reg.observer)
		}
	}
	h.mu.RUnlock()

	for _, o := range matched {
		o.OnChange(change)
	}
}
