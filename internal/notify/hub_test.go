package notify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/symptomchecker/internal/router"
	"github.com/mrlokans/symptomchecker/internal/schema"
)

type recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recorder) OnChange(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes)
}

func TestHub_NotifiesCollectionObservers(t *testing.T) {
	hub := NewHub()
	first, second := &recorder{}, &recorder{}
	hub.Register(router.CollectionOf(schema.EntityHospital), first)
	hub.Register(router.CollectionOf(schema.EntityHospital), second)

	hub.Notify(Change{Resource: router.ItemOf(schema.EntityHospital, 3), Op: OpUpdate, Rows: 1})

	require.Equal(t, 1, first.count())
	require.Equal(t, 1, second.count())
	assert.Equal(t, router.CollectionOf(schema.EntityHospital), first.changes[0].Resource)
	assert.Equal(t, OpUpdate, first.changes[0].Op)
}

func TestHub_ItemObserverSeesCollectionChange(t *testing.T) {
	hub := NewHub()
	item := &recorder{}
	hub.Register(router.ItemOf(schema.EntityDoctor, 1), item)

	hub.Notify(Change{Resource: router.CollectionOf(schema.EntityDoctor), Op: OpDelete, Rows: 4})

	assert.Equal(t, 1, item.count())
}

func TestHub_IgnoresOtherEntities(t *testing.T) {
	hub := NewHub()
	doctors := &recorder{}
	hub.Register(router.CollectionOf(schema.EntityDoctor), doctors)

	hub.Notify(Change{Resource: router.CollectionOf(schema.EntityHospital), Op: OpInsert, Rows: 1})

	assert.Zero(t, doctors.count())
}

func TestHub_ZeroRowsIsSilent(t *testing.T) {
	hub := NewHub()
	rec := &recorder{}
	hub.Register(router.CollectionOf(schema.EntityHospital), rec)

	hub.Notify(Change{Resource: router.CollectionOf(schema.EntityHospital), Op: OpDelete, Rows: 0})

	assert.Zero(t, rec.count())
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub()
	rec := &recorder{}
	id := hub.Register(router.CollectionOf(schema.EntityHospital), rec)
	require.Equal(t, 1, hub.Len())

	assert.True(t, hub.Unregister(id))
	assert.False(t, hub.Unregister(id))
	assert.Zero(t, hub.Len())

	hub.Notify(Change{Resource: router.CollectionOf(schema.EntityHospital), Op: OpInsert, Rows: 1})
	assert.Zero(t, rec.count())
}

func TestHub_ObserverMayUnregisterItself(t *testing.T) {
	hub := NewHub()
	calls := 0
	var id ObserverID
	id = hub.Register(router.CollectionOf(schema.EntityHospital), ObserverFunc(func(Change) {
		calls++
		hub.Unregister(id)
	}))

	change := Change{Resource: router.CollectionOf(schema.EntityHospital), Op: OpInsert, Rows: 1}
	hub.Notify(change)
	hub.Notify(change)

	assert.Equal(t, 1, calls)
}
