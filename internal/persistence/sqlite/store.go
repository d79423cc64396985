// Package sqlite provides a SQLite-backed exercise store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/domain"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/persistence/migrate"
)

const dateLayout = "2006-01-02"

// Store persists users and exercises in a single SQLite file.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrate.SQLite(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	// A single connection serialises writers so concurrent requests never see SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// ListUsers implements domain.Store.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT user_id, user_name, created_at FROM users ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// FindUserByID implements domain.Store.
func (s *Store) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT user_id, user_name, created_at FROM users WHERE user_id = ?`, id)
	return s.findUser(row)
}

// FindUserByName implements domain.Store.
func (s *Store) FindUserByName(ctx context.Context, name string) (*domain.User, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT user_id, user_name, created_at FROM users WHERE user_name = ?`, name)
	return s.findUser(row)
}

func (s *Store) findUser(row *sql.Row) (*domain.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser implements domain.Store. The UNIQUE constraint on user_name
// decides races.
func (s *Store) CreateUser(ctx context.Context, userName string) (*domain.User, error) {
	user := domain.User{
		ID:        uuid.NewString(),
		UserName:  userName,
		CreatedAt: time.Now().UTC(),
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (user_id, user_name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_name) DO NOTHING`,
		user.ID, user.UserName, toMillis(user.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	if affected == 0 {
		return nil, domain.ErrUsernameTaken
	}
	user.CreatedAt = fromMillis(toMillis(user.CreatedAt))
	return &user, nil
}

// QueryExercises implements domain.Store.
func (s *Store) QueryExercises(ctx context.Context, query domain.LogQuery) ([]domain.Exercise, error) {
	args := []any{query.UserID}
	stmt := `SELECT exercise_id, user_id, description, duration, exercise_date, created_at
        FROM exercises WHERE user_id = ?`

	if query.From != nil {
		stmt += ` AND exercise_date >= ?`
		args = append(args, query.From.Format(dateLayout))
	}
	if query.To != nil {
		stmt += ` AND exercise_date <= ?`
		args = append(args, query.To.Format(dateLayout))
	}
	stmt += ` ORDER BY exercise_date DESC, created_at DESC, rowid DESC`
	if query.Limit > 0 {
		stmt += ` LIMIT ?`
		args = append(args, query.Limit)
	}

	rows, err := s.sqlDB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	defer rows.Close()

	results := make([]domain.Exercise, 0)
	for rows.Next() {
		var (
			e         domain.Exercise
			date      string
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Description, &e.Duration, &date, &createdAt); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		e.Date, err = time.ParseInLocation(dateLayout, date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse exercise date %q: %w", date, err)
		}
		e.CreatedAt = fromMillis(createdAt)
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exercises: %w", err)
	}
	return results, nil
}

// CreateExercise implements domain.Store.
func (s *Store) CreateExercise(ctx context.Context, exercise domain.Exercise) (*domain.Exercise, error) {
	if strings.TrimSpace(exercise.ID) == "" {
		exercise.ID = uuid.NewString()
	}
	if exercise.CreatedAt.IsZero() {
		exercise.CreatedAt = time.Now().UTC()
	}
	exercise.CreatedAt = fromMillis(toMillis(exercise.CreatedAt))

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO exercises (exercise_id, user_id, description, duration, exercise_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		exercise.ID,
		exercise.UserID,
		exercise.Description,
		exercise.Duration,
		exercise.Date.UTC().Format(dateLayout),
		toMillis(exercise.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert exercise: %w", err)
	}
	return &exercise, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (domain.User, error) {
	var (
		user      domain.User
		createdAt int64
	)
	if err := row.Scan(&user.ID, &user.UserName, &createdAt); err != nil {
		return domain.User{}, err
	}
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}
