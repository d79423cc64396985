package domain

import (
	"sort"
	"time"
)

// User is a registered account that exercises are logged against.
type User struct {
	ID        string
	UserName  string
	CreatedAt time.Time
}

// Exercise is a single logged entry. Date is a UTC calendar day.
type Exercise struct {
	ID          string
	UserID      string
	Description string
	Duration    float64
	Date        time.Time
	CreatedAt   time.Time
}

// LogQuery describes a filtered, bounded read of one user's exercises.
// Results are always ordered by date, most recent first.
type LogQuery struct {
	UserID string
	From   *time.Time
	To     *time.Time
	// Limit caps the number of entries; zero means unbounded.
	Limit int
}

// Matches reports whether e falls inside the query's user and date bounds.
func (q LogQuery) Matches(e Exercise) bool {
	if e.UserID != q.UserID {
		return false
	}
	if q.From != nil && e.Date.Before(*q.From) {
		return false
	}
	if q.To != nil && e.Date.After(*q.To) {
		return false
	}
	return true
}

// Apply filters, orders and caps entries in memory.
func (q LogQuery) Apply(entries []Exercise) []Exercise {
	out := make([]Exercise, 0, len(entries))
	for _, e := range entries {
		if q.Matches(e) {
			out = append(out, e)
		}
	}
	SortLog(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// SortLog orders entries by date descending, newest creation first on ties.
func SortLog(entries []Exercise) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.After(entries[j].Date)
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

// ExerciseLog is a user together with the entries selected by a LogQuery.
type ExerciseLog struct {
	User    User
	Entries []Exercise
}

// LoggedExercise pairs a freshly created exercise with its owner.
type LoggedExercise struct {
	User     User
	Exercise Exercise
}
