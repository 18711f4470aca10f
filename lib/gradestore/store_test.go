package gradestore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"fduassist-backend/lib/telemetry"
	"fduassist-backend/lib/timezone"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestStore(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:gradestore")
	defer cleanup()

	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	_, err = sqlite.Exec(Schema)
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(sqlite)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	{
		res, err := store.Pull(ctx, "unknown-student")
		require.NoError(t, err)
		require.Len(t, res, 0)
	}

	now := timezone.Now()

	{
		err := store.Push(ctx, "23307110001", Snapshot{
			Time:    now,
			Major:   "经济学",
			GPA:     3.41,
			Credits: 64,
			Ranking: 12,
			Total:   120,
		})
		require.NoError(t, err)

		// same day again, must replace rather than append
		err = store.Push(ctx, "23307110001", Snapshot{
			Time:    now.Add(time.Minute),
			Major:   "经济学",
			GPA:     3.47,
			Credits: 64,
			Ranking: 10,
			Total:   120,
		})
		require.NoError(t, err)

		err = store.Push(ctx, "23307110001", Snapshot{
			Time:    now.Add(time.Hour * 24),
			Major:   "经济学",
			GPA:     3.52,
			Credits: 67,
			Ranking: 9,
			Total:   120,
		})
		require.NoError(t, err)

		err = store.Push(ctx, "23307110002", Snapshot{
			Time:  now,
			Major: "物理学",
			GPA:   3.9,
		})
		require.NoError(t, err)
	}

	{
		res, err := store.Pull(ctx, "23307110001")
		require.NoError(t, err)
		require.Len(t, res, 2)
		require.Equal(t, 3.47, res[0].GPA)
		require.Equal(t, 10, res[0].Ranking)
		require.Equal(t, 3.52, res[1].GPA)
		require.True(t, res[0].Time.Before(res[1].Time))
	}
	{
		res, err := store.Pull(ctx, "23307110002")
		require.NoError(t, err)
		require.Len(t, res, 1)
		require.Equal(t, "物理学", res[0].Major)
	}
}
