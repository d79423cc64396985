// Package memory provides an in-process store for tests and local development.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/domain"
)

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides how record identifiers are assigned.
func WithIDGenerator(next func() string) Option {
	return func(s *Store) {
		s.newID = next
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store keeps users and exercises in maps guarded by a single lock.
type Store struct {
	mu        sync.RWMutex
	users     map[string]domain.User
	byName    map[string]string
	order     []string
	exercises map[string][]domain.Exercise

	newID func() string
	now   func() time.Time
}

// NewStore constructs an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		users:     make(map[string]domain.User),
		byName:    make(map[string]string),
		exercises: make(map[string][]domain.Exercise),
		newID:     uuid.NewString,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListUsers implements domain.Store, in registration order.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.users[id])
	}
	return out, nil
}

// FindUserByID implements domain.Store.
func (s *Store) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// FindUserByName implements domain.Store.
func (s *Store) FindUserByName(ctx context.Context, name string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[name]
	if !ok {
		return nil, nil
	}
	user := s.users[id]
	return &user, nil
}

// CreateUser implements domain.Store. The name check and insert share one lock.
func (s *Store) CreateUser(ctx context.Context, userName string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byName[userName]; taken {
		return nil, domain.ErrUsernameTaken
	}

	user := domain.User{
		ID:        s.newID(),
		UserName:  userName,
		CreatedAt: s.now(),
	}
	s.users[user.ID] = user
	s.byName[userName] = user.ID
	s.order = append(s.order, user.ID)
	return &user, nil
}

// QueryExercises implements domain.Store.
func (s *Store) QueryExercises(ctx context.Context, query domain.LogQuery) ([]domain.Exercise, error) {
	s.mu.RLock()
	entries := s.exercises[query.UserID]
	// Newest first so stable sorting keeps later inserts ahead on identical timestamps.
	snapshot := make([]domain.Exercise, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		snapshot = append(snapshot, entries[i])
	}
	s.mu.RUnlock()

	return query.Apply(snapshot), nil
}

// CreateExercise implements domain.Store.
func (s *Store) CreateExercise(ctx context.Context, exercise domain.Exercise) (*domain.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(exercise.ID) == "" {
		exercise.ID = s.newID()
	}
	if exercise.CreatedAt.IsZero() {
		exercise.CreatedAt = s.now()
	}
	s.exercises[exercise.UserID] = append(s.exercises[exercise.UserID], exercise)
	return &exercise, nil
}

// Close implements domain.Store.
func (s *Store) Close() error {
	return nil
}
