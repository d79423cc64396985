// Package validate turns raw request parameters into normalized values or a
// field-specific rejection.
package validate

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the only accepted calendar date form.
const DateLayout = "2006-01-02"

// Kind classifies why a field was rejected.
type Kind string

const (
	KindBlank               Kind = "blank"
	KindInvalidFormat       Kind = "invalid_format"
	KindInvalidDate         Kind = "invalid_date"
	KindRangeInverted       Kind = "range_inverted"
	KindNotANumber          Kind = "not_a_number"
	KindNonPositiveLimit    Kind = "non_positive_limit"
	KindNonPositiveDuration Kind = "non_positive_duration"
)

// Error reports a rejected field. Message is safe to show to clients.
type Error struct {
	Field   string
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsKind reports whether err is a validation error of the given kind.
func IsKind(err error, kind Kind) bool {
	var verr *Error
	return errors.As(err, &verr) && verr.Kind == kind
}

var (
	datePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)
)

// parseDecimal accepts plain decimal notation only, so exponent and hex forms are rejected.
func parseDecimal(raw string) (float64, bool) {
	if !decimalPattern.MatchString(raw) {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(parsed, 0) {
		return 0, false
	}
	return parsed, true
}

// Required trims raw and rejects it when nothing is left.
func Required(field, raw, message string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", &Error{Field: field, Kind: KindBlank, Message: message}
	}
	return value, nil
}

// Username validates the name of a new user.
func Username(raw string) (string, error) {
	return Required("username", raw, "Username cannot be blank")
}

// UserID validates a user reference.
func UserID(raw string) (string, error) {
	return Required("userId", raw, "You must include a userId")
}

// Description validates an exercise description.
func Description(raw string) (string, error) {
	return Required("description", raw, "You must include a description")
}

// Duration parses a required, positive exercise duration.
func Duration(raw string) (float64, error) {
	value, err := Required("duration", raw, "You must include a duration")
	if err != nil {
		return 0, err
	}
	parsed, ok := parseDecimal(value)
	if !ok {
		return 0, &Error{
			Field:   "duration",
			Kind:    KindNotANumber,
			Message: fmt.Sprintf("Cannot cast duration: %q to number.", value),
		}
	}
	if parsed <= 0 {
		return 0, &Error{Field: "duration", Kind: KindNonPositiveDuration, Message: "Your duration must be greater than 0"}
	}
	return parsed, nil
}

// Limit parses an optional result cap. Zero means no cap was requested.
func Limit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	parsed, ok := parseDecimal(strings.TrimSpace(raw))
	if !ok {
		return 0, &Error{Field: "limit", Kind: KindNotANumber, Message: `Your "limit" parameter must be a number`}
	}
	truncated := math.Trunc(parsed)
	if truncated <= 0 {
		return 0, &Error{Field: "limit", Kind: KindNonPositiveLimit, Message: `Your "limit" parameter must be greater than 0`}
	}
	if truncated > math.MaxInt32 {
		truncated = math.MaxInt32
	}
	return int(truncated), nil
}

// QueryDate parses an optional from/to filter. A nil result means the filter is absent.
func QueryDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := parseDate(field, raw,
		fmt.Sprintf("Your %q parameter needs the format: yyyy-mm-dd with numbers for year, month, and day.", field),
		fmt.Sprintf("Invalid %q parameter provided (not a real date)", field),
	)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// Range requires from to be strictly before to when both are set.
func Range(from, to *time.Time) error {
	if from == nil || to == nil {
		return nil
	}
	if !from.Before(*to) {
		return &Error{Field: "from", Kind: KindRangeInverted, Message: `Your "from" parameter must be less than your "to" parameter`}
	}
	return nil
}

// ExerciseDate parses the optional date of a new exercise, falling back to the
// calendar day of now in UTC.
func ExerciseDate(raw string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return Day(now), nil
	}
	return parseDate("date", strings.TrimSpace(raw),
		"Your date needs the format: yyyy-mm-dd with numbers for year, month, and day.",
		"Invalid date provided",
	)
}

// Day truncates t to midnight UTC of its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDate(field, raw, formatMessage, dateMessage string) (time.Time, error) {
	if !datePattern.MatchString(raw) {
		return time.Time{}, &Error{Field: field, Kind: KindInvalidFormat, Message: formatMessage}
	}
	parsed, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, &Error{Field: field, Kind: KindInvalidDate, Message: dateMessage}
	}
	return parsed, nil
}
