package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"celerdev/interview"
	"celerdev/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func connectForTest(t *testing.T) *Database {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN environment variable not set, skipping test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := Connect(ctx, DatabaseConnectProps{Logger: logger.FromZap(zaptest.NewLogger(t)), DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRecentTurnsNewestFirst(t *testing.T) {
	db := connectForTest(t)
	ctx := context.Background()
	session := interview.SessionID("test-" + uuid.NewString())
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.AppendTurn(ctx, session, interview.Turn{
			UserSaid:  fmt.Sprintf("q%d", i),
			AISaid:    fmt.Sprintf("a%d", i),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	turns, err := db.RecentTurns(ctx, session, 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "q2", turns[0].UserSaid)
	assert.Equal(t, "q1", turns[1].UserSaid)
}

func TestMergeProfile(t *testing.T) {
	db := connectForTest(t)
	ctx := context.Background()
	user := interview.UserID("test-" + uuid.NewString())

	require.NoError(t, db.MergeProfile(ctx, user, interview.FieldPayload, interview.Profile{"a": 1.0}, time.Now()))
	require.NoError(t, db.MergeProfile(ctx, user, interview.FieldPayload, interview.Profile{"b": 2.0}, time.Now()))

	blob, err := db.GetProfile(ctx, user, interview.FieldPayload)
	require.NoError(t, err)
	assert.Equal(t, interview.Profile{"a": 1.0, "b": 2.0}, blob)

	missing, err := db.GetProfile(ctx, user, interview.FieldStats)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
