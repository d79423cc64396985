package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/domain"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/persistence/storetest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "exercise.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.Store {
		return openTestStore(t)
	})
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	require.ErrorContains(t, err, "storage path is required")
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "exercise.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	user, err := store.CreateUser(ctx, "alice")
	require.NoError(t, err)
	_, err = store.CreateExercise(ctx, domain.Exercise{
		UserID:      user.ID,
		Description: "run",
		Duration:    30,
		Date:        storetest.Day(t, "2023-05-01"),
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	found, err := reopened.FindUserByName(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, user.ID, found.ID)

	entries, err := reopened.QueryExercises(ctx, domain.LogQuery{UserID: user.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 30.0, entries[0].Duration)
	require.Equal(t, "2023-05-01", entries[0].Date.Format(dateLayout))
}

func TestSameDayEntriesNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	user, err := store.CreateUser(ctx, "alice")
	require.NoError(t, err)
	for _, description := range []string{"first", "second"} {
		_, err := store.CreateExercise(ctx, domain.Exercise{
			UserID:      user.ID,
			Description: description,
			Duration:    5,
			Date:        storetest.Day(t, "2023-05-01"),
			CreatedAt:   storetest.Day(t, "2023-05-01"),
		})
		require.NoError(t, err)
	}

	entries, err := store.QueryExercises(ctx, domain.LogQuery{UserID: user.ID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "second", entries[0].Description)
}
