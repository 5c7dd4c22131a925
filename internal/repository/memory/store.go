// Package memory is an insertion-ordered, mutex guarded entity store. All
// four tables share one lock, so cross-entity operations such as the scrap
// cascade are atomic.
package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/maintenance-api/internal/models"
)

// table keeps rows in insertion order.
type table[T any] struct {
	order []string
	rows  map[string]T
}

func newTable[T any]() table[T] {
	return table[T]{rows: make(map[string]T)}
}

func (t *table[T]) get(id string) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) put(id string, row T) {
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

func (t *table[T]) remove(id string) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

func (t *table[T]) each(fn func(T) bool) {
	for _, id := range t.order {
		if !fn(t.rows[id]) {
			return
		}
	}
}

func (t *table[T]) len() int { return len(t.order) }

// Store holds every entity table.
type Store struct {
	mu        sync.RWMutex
	users     table[models.User]
	equipment table[models.Equipment]
	teams     table[models.Team]
	requests  table[models.MaintenanceRequest]
	clock     func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:     newTable[models.User](),
		equipment: newTable[models.Equipment](),
		teams:     newTable[models.Team](),
		requests:  newTable[models.MaintenanceRequest](),
		clock:     time.Now,
	}
}

// WithClock replaces the time source used for timestamps.
func (s *Store) WithClock(clock func() time.Time) *Store {
	s.clock = clock
	return s
}

func (s *Store) now() time.Time {
	return s.clock().UTC()
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

func (s *Store) Equipment() *EquipmentRepository {
	return &EquipmentRepository{s: s}
}

func (s *Store) Teams() *TeamRepository {
	return &TeamRepository{s: s}
}

func (s *Store) Requests() *RequestRepository {
	return &RequestRepository{s: s}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close drops every row.
func (s *Store) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = newTable[models.User]()
	s.equipment = newTable[models.Equipment]()
	s.teams = newTable[models.Team]()
	s.requests = newTable[models.MaintenanceRequest]()
	return nil
}

var errNotFound = sql.ErrNoRows
