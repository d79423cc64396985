package api

import (
	"time"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/domain"
)

const shortDateLayout = "Mon Jan 02"

// UserView is one entry of the user listing.
type UserView struct {
	ID       string `json:"_id"`
	UserName string `json:"userName"`
}

// CreatedUserView is the response body for new-user.
type CreatedUserView struct {
	UserName string `json:"userName"`
	ID       string `json:"_id"`
}

// LoggedExerciseView is the response body for add. ID is the owner's id.
type LoggedExerciseView struct {
	UserName    string  `json:"userName"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	ID          string  `json:"_id"`
	Date        string  `json:"date"`
}

// LogView packages a user's filtered exercise log.
type LogView struct {
	ID       string      `json:"_id"`
	UserName string      `json:"username"`
	Count    int         `json:"count"`
	Log      []EntryView `json:"log"`
}

// EntryView is one exercise inside a LogView.
type EntryView struct {
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	Date        string  `json:"date"`
}

func shortDate(t time.Time) string {
	return t.UTC().Format(shortDateLayout)
}

func toUserView(user domain.User) UserView {
	return UserView{ID: user.ID, UserName: user.UserName}
}

func toLoggedExerciseView(logged domain.LoggedExercise) LoggedExerciseView {
	return LoggedExerciseView{
		UserName:    logged.User.UserName,
		Description: logged.Exercise.Description,
		Duration:    logged.Exercise.Duration,
		ID:          logged.User.ID,
		Date:        shortDate(logged.Exercise.Date),
	}
}

func toLogView(exerciseLog domain.ExerciseLog) LogView {
	entries := make([]EntryView, 0, len(exerciseLog.Entries))
	for _, e := range exerciseLog.Entries {
		entries = append(entries, EntryView{
			Description: e.Description,
			Duration:    e.Duration,
			Date:        shortDate(e.Date),
		})
	}
	return LogView{
		ID:       exerciseLog.User.ID,
		UserName: exerciseLog.User.UserName,
		Count:    len(entries),
		Log:      entries,
	}
}
