package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueryDate(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		kind Kind
		want string
	}{
		{name: "absent", raw: ""},
		{name: "valid", raw: "2023-05-01", want: "2023-05-01"},
		{name: "leap day", raw: "2024-02-29", want: "2024-02-29"},
		{name: "slashes", raw: "2023/05/01", kind: KindInvalidFormat},
		{name: "short year", raw: "23-05-01", kind: KindInvalidFormat},
		{name: "trailing time", raw: "2023-05-01T00:00:00Z", kind: KindInvalidFormat},
		{name: "words", raw: "yesterday", kind: KindInvalidFormat},
		{name: "month out of range", raw: "2020-13-40", kind: KindInvalidDate},
		{name: "february 30", raw: "2021-02-30", kind: KindInvalidDate},
		{name: "not a leap year", raw: "2023-02-29", kind: KindInvalidDate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := QueryDate("from", tc.raw)
			if tc.kind != "" {
				require.Error(t, err)
				require.True(t, IsKind(err, tc.kind), "unexpected error %v", err)
				require.Nil(t, got)
				return
			}
			require.NoError(t, err)
			if tc.want == "" {
				require.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			require.Equal(t, tc.want, got.Format(DateLayout))
			require.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestQueryDateMessagesNameTheField(t *testing.T) {
	_, err := QueryDate("to", "2023.05.01")
	require.EqualError(t, err, `Your "to" parameter needs the format: yyyy-mm-dd with numbers for year, month, and day.`)

	_, err = QueryDate("to", "2023-02-31")
	require.EqualError(t, err, `Invalid "to" parameter provided (not a real date)`)
}

func TestRange(t *testing.T) {
	day := func(s string) *time.Time {
		d, err := time.Parse(DateLayout, s)
		require.NoError(t, err)
		return &d
	}

	require.NoError(t, Range(nil, nil))
	require.NoError(t, Range(day("2023-01-01"), nil))
	require.NoError(t, Range(nil, day("2023-01-01")))
	require.NoError(t, Range(day("2023-01-01"), day("2023-01-02")))

	err := Range(day("2023-01-02"), day("2023-01-01"))
	require.True(t, IsKind(err, KindRangeInverted))

	err = Range(day("2023-01-01"), day("2023-01-01"))
	require.True(t, IsKind(err, KindRangeInverted), "equal bounds must be rejected")
}

func TestLimit(t *testing.T) {
	cases := []struct {
		raw  string
		want int
		kind Kind
	}{
		{raw: "", want: 0},
		{raw: "5", want: 5},
		{raw: "2.9", want: 2},
		{raw: "+7", want: 7},
		{raw: "1e2", kind: KindNotANumber},
		{raw: "0x10", kind: KindNotANumber},
		{raw: "Infinity", kind: KindNotANumber},
		{raw: "abc", kind: KindNotANumber},
		{raw: "5abc", kind: KindNotANumber},
		{raw: "NaN", kind: KindNotANumber},
		{raw: "0", kind: KindNonPositiveLimit},
		{raw: "-3", kind: KindNonPositiveLimit},
		{raw: "0.5", kind: KindNonPositiveLimit},
	}

	for _, tc := range cases {
		got, err := Limit(tc.raw)
		if tc.kind != "" {
			require.True(t, IsKind(err, tc.kind), "limit %q: unexpected error %v", tc.raw, err)
			continue
		}
		require.NoError(t, err, "limit %q", tc.raw)
		require.Equal(t, tc.want, got, "limit %q", tc.raw)
	}
}

func TestDuration(t *testing.T) {
	got, err := Duration("30")
	require.NoError(t, err)
	require.Equal(t, 30.0, got)

	got, err = Duration(" 12.5 ")
	require.NoError(t, err)
	require.Equal(t, 12.5, got)

	_, err = Duration("")
	require.True(t, IsKind(err, KindBlank))
	require.EqualError(t, err, "You must include a duration")

	_, err = Duration("half an hour")
	require.True(t, IsKind(err, KindNotANumber))
	require.EqualError(t, err, `Cannot cast duration: "half an hour" to number.`)

	got, err = Duration(".5")
	require.NoError(t, err)
	require.Equal(t, 0.5, got)

	for _, raw := range []string{"Inf", "0x1p4", "1e3", "1_000", "3.5.1"} {
		_, err = Duration(raw)
		require.True(t, IsKind(err, KindNotANumber), "duration %q", raw)
	}

	_, err = Duration("0")
	require.True(t, IsKind(err, KindNonPositiveDuration))

	_, err = Duration("-10")
	require.True(t, IsKind(err, KindNonPositiveDuration))
}

func TestRequiredStrings(t *testing.T) {
	name, err := Username("  alice ")
	require.NoError(t, err)
	require.Equal(t, "alice", name)

	_, err = Username("   ")
	require.EqualError(t, err, "Username cannot be blank")

	_, err = UserID("")
	require.EqualError(t, err, "You must include a userId")

	_, err = Description("")
	require.EqualError(t, err, "You must include a description")

	var verr *Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "description", verr.Field)
	require.Equal(t, KindBlank, verr.Kind)
}

func TestExerciseDate(t *testing.T) {
	now := time.Date(2024, time.March, 9, 23, 45, 12, 0, time.UTC)

	got, err := ExerciseDate("", now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC), got)

	got, err = ExerciseDate("2023-05-01", now)
	require.NoError(t, err)
	require.Equal(t, "2023-05-01", got.Format(DateLayout))

	_, err = ExerciseDate("05-01-2023", now)
	require.True(t, IsKind(err, KindInvalidFormat))
	require.EqualError(t, err, "Your date needs the format: yyyy-mm-dd with numbers for year, month, and day.")

	_, err = ExerciseDate("2023-04-31", now)
	require.True(t, IsKind(err, KindInvalidDate))
	require.EqualError(t, err, "Invalid date provided")
}

func TestDayUsesUTCCalendar(t *testing.T) {
	offset := time.FixedZone("UTC+10", 10*60*60)
	local := time.Date(2024, time.March, 10, 5, 0, 0, 0, offset)
	require.Equal(t, time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC), Day(local))
}
