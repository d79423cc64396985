package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/domain"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/events"
)

// Option configures a Repository.
type Option func(*Repository)

// WithOutbox records an outbox event alongside every created record.
func WithOutbox(enabled bool) Option {
	return func(r *Repository) {
		r.outbox = enabled
	}
}

// Repository provides Postgres-backed persistence for users, exercises and outbox events.
type Repository struct {
	pool   *pgxpool.Pool
	outbox bool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool, opts ...Option) *Repository {
	r := &Repository{pool: pool}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ListUsers returns all users in registration order.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, user_name, created_at FROM users ORDER BY created_at, user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.UserName, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// FindUserByID retrieves a user by identifier.
func (r *Repository) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findUser(ctx, `SELECT user_id, user_name, created_at FROM users WHERE user_id=$1`, id)
}

// FindUserByName retrieves a user by exact name.
func (r *Repository) FindUserByName(ctx context.Context, name string) (*domain.User, error) {
	return r.findUser(ctx, `SELECT user_id, user_name, created_at FROM users WHERE user_name=$1`, name)
}

func (r *Repository) findUser(ctx context.Context, query string, arg string) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&user.ID, &user.UserName, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts the user unless the name exists, recording an outbox event in
// the same transaction.
func (r *Repository) CreateUser(ctx context.Context, userName string) (*domain.User, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	user := domain.User{ID: uuid.NewString(), UserName: userName}
	row := tx.QueryRow(ctx,
		`INSERT INTO users (user_id, user_name) VALUES ($1,$2)
        ON CONFLICT (user_name) DO NOTHING
        RETURNING created_at`,
		user.ID, user.UserName,
	)
	if err := row.Scan(&user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, err
	}

	if r.outbox {
		if err := insertOutbox(ctx, tx, events.TypeUserCreated, user.ID, user.ID, events.UserCreated{
			UserID:    user.ID,
			UserName:  user.UserName,
			CreatedAt: user.CreatedAt,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &user, nil
}

// QueryExercises returns a user's exercises, newest date first, honouring the query bounds.
func (r *Repository) QueryExercises(ctx context.Context, q domain.LogQuery) ([]domain.Exercise, error) {
	query, args := buildLogQuery(q)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Exercise, 0)
	for rows.Next() {
		var e domain.Exercise
		if err := rows.Scan(&e.ID, &e.UserID, &e.Description, &e.Duration, &e.Date, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Date = e.Date.UTC()
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func buildLogQuery(q domain.LogQuery) (string, []any) {
	var sb strings.Builder
	args := []any{q.UserID}
	sb.WriteString(`SELECT exercise_id, user_id, description, duration, exercise_date, created_at
        FROM exercises WHERE user_id=$1`)

	if q.From != nil {
		args = append(args, *q.From)
		fmt.Fprintf(&sb, ` AND exercise_date >= $%d`, len(args))
	}
	if q.To != nil {
		args = append(args, *q.To)
		fmt.Fprintf(&sb, ` AND exercise_date <= $%d`, len(args))
	}
	sb.WriteString(` ORDER BY exercise_date DESC, created_at DESC`)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	return sb.String(), args
}

// CreateExercise persists the exercise and its outbox event inside a single transaction.
func (r *Repository) CreateExercise(ctx context.Context, exercise domain.Exercise) (*domain.Exercise, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if exercise.ID == "" {
		exercise.ID = uuid.NewString()
	}

	row := tx.QueryRow(ctx,
		`INSERT INTO exercises (exercise_id, user_id, description, duration, exercise_date)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at`,
		exercise.ID,
		exercise.UserID,
		exercise.Description,
		exercise.Duration,
		exercise.Date,
	)
	if err := row.Scan(&exercise.CreatedAt); err != nil {
		return nil, err
	}

	if r.outbox {
		if err := insertOutbox(ctx, tx, events.TypeExerciseLogged, exercise.ID, exercise.UserID, events.ExerciseLogged{
			ExerciseID:  exercise.ID,
			UserID:      exercise.UserID,
			Description: exercise.Description,
			Duration:    exercise.Duration,
			Date:        exercise.Date.Format(time.DateOnly),
			CreatedAt:   exercise.CreatedAt,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &exercise, nil
}

// Close releases the pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, eventType, aggregateID, partitionKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	dedupeKey := fmt.Sprintf("%s:%s", aggregateID, eventType)

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		meta.AggregateType,
		aggregateID,
		eventType,
		meta.Topic,
		meta.Topic+"-value",
		partitionKey,
		body,
		dedupeKey,
	)
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	AggregateType string
	Topic         string
}

var eventCatalog = map[string]EventMetadata{
	events.TypeUserCreated: {
		AggregateType: "user",
		Topic:         events.TopicUsers,
	},
	events.TypeExerciseLogged: {
		AggregateType: "exercise",
		Topic:         events.TopicExercises,
	},
}
