// Package events defines the payloads emitted for created records.
package events

import "time"

// Event types written to the outbox.
const (
	TypeUserCreated    = "user.created"
	TypeExerciseLogged = "exercise.logged"
)

// Topics the outbox dispatcher publishes to.
const (
	TopicUsers     = "exercise_tracker.users"
	TopicExercises = "exercise_tracker.exercises"
)

// UserCreated is emitted when a new user name is registered.
type UserCreated struct {
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	CreatedAt time.Time `json:"created_at"`
}

// ExerciseLogged is emitted when an exercise entry is stored.
type ExerciseLogged struct {
	ExerciseID  string    `json:"exercise_id"`
	UserID      string    `json:"user_id"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

// Kafka record headers set by the outbox dispatcher.
const (
	HeaderEventType     = "event_type"
	HeaderSchemaSubject = "schema_subject"
	HeaderAggregateID   = "aggregate_id"
)
