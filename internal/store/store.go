// Package store holds the in-memory authoritative cache of every entity
// collection for one tenant context. Collections are replaced wholesale
// by a load and patched by id from server-echoed rows after mutations;
// nothing in here is ever a client-guessed shape.
package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/edusuite/backend/internal/models"
)

// Collection is one entity type's cached rows, keyed by id.
type Collection[T any] struct {
	mu    sync.RWMutex
	items []T
	id    func(*T) uuid.UUID
}

func newCollection[T any](id func(*T) uuid.UUID) *Collection[T] {
	return &Collection[T]{id: id}
}

// All returns a copy of the cached rows.
func (c *Collection[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the cached row with the given id.
func (c *Collection[T]) Get(id uuid.UUID) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.items {
		if c.id(&c.items[i]) == id {
			return c.items[i], true
		}
	}
	var zero T
	return zero, false
}

// Replace swaps the whole collection for a freshly fetched one.
func (c *Collection[T]) Replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
}

// Upsert patches one row by id, appending when it is new.
func (c *Collection[T]) Upsert(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.id(&item)
	for i := range c.items {
		if c.id(&c.items[i]) == id {
			c.items[i] = item
			return
		}
	}
	c.items = append(c.items, item)
}

// UpsertAll patches a batch of rows by id.
func (c *Collection[T]) UpsertAll(items []T) {
	for _, item := range items {
		c.Upsert(item)
	}
}

// Remove drops the row with the given id, if cached.
func (c *Collection[T]) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.id(&c.items[i]) == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			return
		}
	}
}

// Prepend inserts a row at the front, trimming the collection to max.
// Used for the capped activity-log view.
func (c *Collection[T]) Prepend(item T, max int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]T{item}, c.items...)
	if max > 0 && len(c.items) > max {
		c.items = c.items[:max]
	}
}

// Len reports the number of cached rows.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Store is the full set of cached collections for one tenant context.
type Store struct {
	Schools       *Collection[models.School]
	Users         *Collection[models.User]
	Classes       *Collection[models.Class]
	Students      *Collection[models.Student]
	Attendance    *Collection[models.Attendance]
	FeeChallans   *Collection[models.FeeChallan]
	Results       *Collection[models.Result]
	FeeHeads      *Collection[models.FeeHead]
	Events        *Collection[models.SchoolEvent]
	ActivityLogs  *Collection[models.ActivityLog]
	Notifications *Collection[models.Notification]
}

func New() *Store {
	return &Store{
		Schools:       newCollection(func(m *models.School) uuid.UUID { return m.ID }),
		Users:         newCollection(func(m *models.User) uuid.UUID { return m.ID }),
		Classes:       newCollection(func(m *models.Class) uuid.UUID { return m.ID }),
		Students:      newCollection(func(m *models.Student) uuid.UUID { return m.ID }),
		Attendance:    newCollection(func(m *models.Attendance) uuid.UUID { return m.ID }),
		FeeChallans:   newCollection(func(m *models.FeeChallan) uuid.UUID { return m.ID }),
		Results:       newCollection(func(m *models.Result) uuid.UUID { return m.ID }),
		FeeHeads:      newCollection(func(m *models.FeeHead) uuid.UUID { return m.ID }),
		Events:        newCollection(func(m *models.SchoolEvent) uuid.UUID { return m.ID }),
		ActivityLogs:  newCollection(func(m *models.ActivityLog) uuid.UUID { return m.ID }),
		Notifications: newCollection(func(m *models.Notification) uuid.UUID { return m.ID }),
	}
}

// Reset empties every collection. Called on tenant-context switches so
// no entity survives across a tenant boundary.
func (s *Store) Reset() {
	s.Schools.Replace(nil)
	s.Users.Replace(nil)
	s.Classes.Replace(nil)
	s.Students.Replace(nil)
	s.Attendance.Replace(nil)
	s.FeeChallans.Replace(nil)
	s.Results.Replace(nil)
	s.FeeHeads.Replace(nil)
	s.Events.Replace(nil)
	s.ActivityLogs.Replace(nil)
	s.Notifications.Replace(nil)
}
