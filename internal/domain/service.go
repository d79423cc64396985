// Package domain defines the business logic for the exercise tracker.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/observability"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/validate"
)

var (
	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when a user with the same name already exists.
	ErrUsernameTaken = errors.New("username is taken")
)

// Store captures persistence operations. Lookups return nil, nil when the
// record is absent.
type Store interface {
	ListUsers(ctx context.Context) ([]User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
	FindUserByName(ctx context.Context, name string) (*User, error)
	// CreateUser must return ErrUsernameTaken if the name is already in use,
	// deciding atomically with the insert.
	CreateUser(ctx context.Context, userName string) (*User, error)
	QueryExercises(ctx context.Context, query LogQuery) ([]Exercise, error)
	CreateExercise(ctx context.Context, exercise Exercise) (*Exercise, error)
	Close() error
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithClock overrides the time source used to default exercise dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service orchestrates exercise tracker workflows.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LogParams are the raw query parameters of a log lookup.
type LogParams struct {
	UserID string
	From   string
	To     string
	Limit  string
}

// Compose validates params in declaration order and builds the LogQuery.
// It stops at the first invalid parameter.
func (p LogParams) Compose() (LogQuery, error) {
	userID, err := validate.UserID(p.UserID)
	if err != nil {
		return LogQuery{}, err
	}
	from, err := validate.QueryDate("from", p.From)
	if err != nil {
		return LogQuery{}, err
	}
	to, err := validate.QueryDate("to", p.To)
	if err != nil {
		return LogQuery{}, err
	}
	if err := validate.Range(from, to); err != nil {
		return LogQuery{}, err
	}
	limit, err := validate.Limit(p.Limit)
	if err != nil {
		return LogQuery{}, err
	}
	return LogQuery{UserID: userID, From: from, To: to, Limit: limit}, nil
}

// AddExerciseInput captures the raw payload of an add-exercise request.
type AddExerciseInput struct {
	UserID      string
	Description string
	Duration    string
	Date        string
}

// ListUsers returns every registered user. An empty result is not an error.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		zerolog.Ctx(ctx).Warn().Msg("no users found")
	}
	return users, nil
}

// GetLog validates the filters, resolves the user and fetches the matching entries.
func (s *Service) GetLog(ctx context.Context, params LogParams) (*ExerciseLog, error) {
	query, err := params.Compose()
	if err != nil {
		return nil, err
	}

	user, err := s.store.FindUserByID(ctx, query.UserID)
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", query.UserID, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	entries, err := s.store.QueryExercises(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	if entries == nil {
		entries = []Exercise{}
	}
	return &ExerciseLog{User: *user, Entries: entries}, nil
}

// CreateUser registers a new user name.
func (s *Service) CreateUser(ctx context.Context, rawName string) (*User, error) {
	name, err := validate.Username(rawName)
	if err != nil {
		return nil, err
	}

	// The store repeats this check atomically; looking first keeps the common
	// duplicate case off the write path.
	existing, err := s.store.FindUserByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find user by name: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	user, err := s.store.CreateUser(ctx, name)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	observability.RecordUserCreated()
	return user, nil
}

// AddExercise validates the payload, resolves the owner and stores the entry.
// The owner lookup and insert are not transactional; users are never deleted
// so the window is accepted.
func (s *Service) AddExercise(ctx context.Context, input AddExerciseInput) (*LoggedExercise, error) {
	userID, err := validate.UserID(input.UserID)
	if err != nil {
		return nil, err
	}
	description, err := validate.Description(input.Description)
	if err != nil {
		return nil, err
	}
	duration, err := validate.Duration(input.Duration)
	if err != nil {
		return nil, err
	}
	date, err := validate.ExerciseDate(input.Date, s.now())
	if err != nil {
		return nil, err
	}

	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", userID, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	exercise, err := s.store.CreateExercise(ctx, Exercise{
		UserID:      user.ID,
		Description: description,
		Duration:    duration,
		Date:        date,
	})
	if err != nil {
		return nil, fmt.Errorf("create exercise: %w", err)
	}
	observability.RecordExercisePersisted(exercise.CreatedAt)
	return &LoggedExercise{User: *user, Exercise: *exercise}, nil
}
