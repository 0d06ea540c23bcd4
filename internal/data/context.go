// Package data is the data-synchronization and domain-mutation layer.
// A Context owns the cached entity collections for one session's tenant
// view and funnels every mutation through the same shape: validate,
// write remotely, patch the cache from the server-echoed row, append an
// activity-log entry, and fan out notifications where the mutation has
// downstream visibility.
package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/edusuite/backend/internal/models"
	"github.com/edusuite/backend/internal/rowstore"
	"github.com/edusuite/backend/internal/store"
	"github.com/edusuite/backend/internal/wirecase"
)

var (
	// ErrNoTenant is returned by operations that need a school in focus
	// when the session has none (an owner with no active school).
	ErrNoTenant = errors.New("no school selected")

	// ErrUnknownChallan is returned when a payment or cancellation
	// targets a challan id the session has not loaded.
	ErrUnknownChallan = errors.New("unknown challan")
)

// Session is what the identity collaborator supplies: who is asking and,
// for the owner, which school is in view.
type Session struct {
	User           models.User
	ActiveSchoolID *uuid.UUID
}

// EffectiveSchoolID resolves the tenant in focus. Owners follow their
// active-school selection; everyone else is pinned to their own school.
func (s Session) EffectiveSchoolID() *uuid.UUID {
	if s.User.Role == models.RoleOwner {
		return s.ActiveSchoolID
	}
	return s.User.SchoolID
}

// Context is one session's view of the data layer.
type Context struct {
	client  rowstore.Client
	store   *store.Store
	session Session

	mu     sync.Mutex
	loaded bool
}

func NewContext(client rowstore.Client, sess Session) *Context {
	return &Context{
		client:  client,
		store:   store.New(),
		session: sess,
	}
}

// Store exposes the cached collections for reads.
func (c *Context) Store() *store.Store {
	return c.store
}

// Loaded reports whether a full load has succeeded for this context.
func (c *Context) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

func (c *Context) markLoaded(ok bool) {
	c.mu.Lock()
	c.loaded = ok
	c.mu.Unlock()
}

// Manager hands out contexts keyed by session identity and tenant view.
// Switching the active school lands on a fresh key, so nothing cached
// for one tenant is ever visible under another.
type Manager struct {
	client   rowstore.Client
	mu       sync.Mutex
	contexts map[string]*Context
}

func NewManager(client rowstore.Client) *Manager {
	return &Manager{
		client:   client,
		contexts: make(map[string]*Context),
	}
}

// Context returns the cached context for a session, creating an empty
// one on first use. Callers are expected to LoadAll before reading.
func (m *Manager) Context(sess Session) *Context {
	key := sess.User.ID.String()
	if school := sess.EffectiveSchoolID(); school != nil {
		key += ":" + school.String()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ctx, ok := m.contexts[key]; ok {
		ctx.session = sess
		return ctx
	}
	ctx := NewContext(m.client, sess)
	m.contexts[key] = ctx
	return ctx
}

// Drop forgets every cached context for a user, forcing a reload on the
// next request. Called after mutations that change another session's
// visibility is out of scope; this is for the user's own tenant switch.
func (m *Manager) Drop(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := userID.String()
	for key := range m.contexts {
		if key == prefix || len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(m.contexts, key)
		}
	}
}

const zeroUUID = "00000000-0000-0000-0000-000000000000"

// toRow marshals an entity into a wire-case row.
func toRow(entity interface{}) (rowstore.Row, error) {
	b, err := json.Marshal(entity)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	wire, ok := wirecase.ToWireCase(m).(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("entity did not encode to an object")
	}
	return wire, nil
}

// insertRow builds the row for a create: server-owned columns are
// stripped so the backend fills them, except a caller-supplied id,
// which is kept (bulk user import relies on client-generated ids).
func insertRow(entity interface{}) (rowstore.Row, error) {
	row, err := toRow(entity)
	if err != nil {
		return nil, err
	}
	if id, ok := row["id"].(string); !ok || id == "" || id == zeroUUID {
		delete(row, "id")
	}
	delete(row, "created_at")
	delete(row, "updated_at")
	delete(row, "timestamp")
	return row, nil
}

// updateRow builds the row for an update-by-id.
func updateRow(entity interface{}) (rowstore.Row, error) {
	row, err := toRow(entity)
	if err != nil {
		return nil, err
	}
	delete(row, "id")
	delete(row, "created_at")
	delete(row, "updated_at")
	delete(row, "timestamp")
	return row, nil
}

// fromRow decodes a server-echoed row into an entity.
func fromRow[T any](row rowstore.Row) (T, error) {
	var out T
	app := wirecase.ToAppCase(map[string]interface{}(row))
	b, err := json.Marshal(app)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, err
	}
	return out, nil
}

func fromRows[T any](rows []rowstore.Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		entity, err := fromRow[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

// requireTenant returns the effective school id or ErrNoTenant.
func (c *Context) requireTenant() (uuid.UUID, error) {
	school := c.session.EffectiveSchoolID()
	if school == nil {
		return uuid.Nil, ErrNoTenant
	}
	return *school, nil
}
