// Package storetest holds the behaviour every domain.Store implementation must share.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/domain"
)

// Factory builds an empty store for one subtest.
type Factory func(t *testing.T) domain.Store

// Run exercises the shared store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("users round trip", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("duplicate user name", func(t *testing.T) { testDuplicateName(t, newStore(t)) })
	t.Run("concurrent create same name", func(t *testing.T) { testConcurrentCreate(t, newStore(t)) })
	t.Run("query filters", func(t *testing.T) { testQueryFilters(t, newStore(t)) })
	t.Run("empty log", func(t *testing.T) { testEmptyLog(t, newStore(t)) })
}

// Day parses a YYYY-MM-DD string into a UTC calendar date.
func Day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	require.NoError(t, err)
	return d
}

func testUsers(t *testing.T, store domain.Store) {
	ctx := context.Background()

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Empty(t, users)

	alice, err := store.CreateUser(ctx, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, alice.ID)
	require.Equal(t, "alice", alice.UserName)

	bob, err := store.CreateUser(ctx, "bob")
	require.NoError(t, err)
	require.NotEqual(t, alice.ID, bob.ID)

	found, err := store.FindUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "alice", found.UserName)

	byName, err := store.FindUserByName(ctx, "bob")
	require.NoError(t, err)
	require.NotNil(t, byName)
	require.Equal(t, bob.ID, byName.ID)

	missing, err := store.FindUserByID(ctx, "5d8e42a3e36501dc54050f7")
	require.NoError(t, err)
	require.Nil(t, missing)

	missing, err = store.FindUserByName(ctx, "carol")
	require.NoError(t, err)
	require.Nil(t, missing)

	users, err = store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, alice.ID, users[0].ID)
	require.Equal(t, bob.ID, users[1].ID)
}

func testDuplicateName(t *testing.T, store domain.Store) {
	ctx := context.Background()

	_, err := store.CreateUser(ctx, "alice")
	require.NoError(t, err)

	_, err = store.CreateUser(ctx, "alice")
	require.ErrorIs(t, err, domain.ErrUsernameTaken)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func testConcurrentCreate(t *testing.T, store domain.Store) {
	ctx := context.Background()
	const attempts = 8

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		taken   int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CreateUser(ctx, "racer")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrUsernameTaken):
				taken++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, created)
	require.Equal(t, attempts-1, taken)
}

func testQueryFilters(t *testing.T, store domain.Store) {
	ctx := context.Background()

	owner, err := store.CreateUser(ctx, "alice")
	require.NoError(t, err)
	other, err := store.CreateUser(ctx, "bob")
	require.NoError(t, err)

	dates := []string{"2023-01-05", "2023-03-01", "2023-01-20", "2023-02-14", "2023-04-30", "2023-02-01"}
	for i, d := range dates {
		created, err := store.CreateExercise(ctx, domain.Exercise{
			UserID:      owner.ID,
			Description: "run",
			Duration:    float64(10 * (i + 1)),
			Date:        Day(t, d),
		})
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		require.Equal(t, d, created.Date.Format("2006-01-02"))
	}
	_, err = store.CreateExercise(ctx, domain.Exercise{
		UserID:      other.ID,
		Description: "swim",
		Duration:    45,
		Date:        Day(t, "2023-02-10"),
	})
	require.NoError(t, err)

	from := Day(t, "2023-01-20")
	to := Day(t, "2023-03-01")

	cases := []struct {
		name  string
		query domain.LogQuery
		want  []string
	}{
		{
			name:  "unfiltered",
			query: domain.LogQuery{UserID: owner.ID},
			want:  []string{"2023-04-30", "2023-03-01", "2023-02-14", "2023-02-01", "2023-01-20", "2023-01-05"},
		},
		{
			name:  "inclusive range",
			query: domain.LogQuery{UserID: owner.ID, From: &from, To: &to},
			want:  []string{"2023-03-01", "2023-02-14", "2023-02-01", "2023-01-20"},
		},
		{
			name:  "from only",
			query: domain.LogQuery{UserID: owner.ID, From: &to},
			want:  []string{"2023-04-30", "2023-03-01"},
		},
		{
			name:  "to only",
			query: domain.LogQuery{UserID: owner.ID, To: &from},
			want:  []string{"2023-01-20", "2023-01-05"},
		},
		{
			name:  "range with limit below matches",
			query: domain.LogQuery{UserID: owner.ID, From: &from, To: &to, Limit: 2},
			want:  []string{"2023-03-01", "2023-02-14"},
		},
		{
			name:  "limit above matches",
			query: domain.LogQuery{UserID: owner.ID, From: &from, To: &to, Limit: 50},
			want:  []string{"2023-03-01", "2023-02-14", "2023-02-01", "2023-01-20"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := store.QueryExercises(ctx, tc.query)
			require.NoError(t, err)

			got := make([]string, 0, len(entries))
			for _, e := range entries {
				require.Equal(t, owner.ID, e.UserID)
				require.Equal(t, time.UTC, e.Date.Location())
				got = append(got, e.Date.Format("2006-01-02"))
			}
			require.Equal(t, tc.want, got)
		})
	}
}

func testEmptyLog(t *testing.T, store domain.Store) {
	ctx := context.Background()

	user, err := store.CreateUser(ctx, "idle")
	require.NoError(t, err)

	entries, err := store.QueryExercises(ctx, domain.LogQuery{UserID: user.ID})
	require.NoError(t, err)
	require.Empty(t, entries)
}
