package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitport/gitport/internal/models"
)

func TestAppendLogUnknownMigration(t *testing.T) {
	db := setupTestDB(t)

	err := db.AppendLog(context.Background(), &models.MigrationLog{
		MigrationID: "does-not-exist",
		Level:       models.LogLevelInfo,
		Message:     "hello",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendLogIncrementsCounters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "alice@example.com")
	repo := seedRepository(t, db, user.ID, "https://github.com/acme/widgets")
	m := seedMigration(t, db, user.ID, repo.ID)

	for _, entry := range []struct {
		level models.LogLevel
		msg   string
	}{
		{models.LogLevelInfo, "starting"},
		{models.LogLevelError, "transfer failed"},
		{models.LogLevelError, "retry failed"},
		{models.LogLevelWarning, "slow connection"},
		{models.LogLevelSuccess, "done"},
	} {
		require.NoError(t, db.AppendLog(ctx, &models.MigrationLog{
			MigrationID: m.ID,
			Level:       entry.level,
			Message:     entry.msg,
		}))
	}

	current, err := db.GetMigration(ctx, user.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current.ErrorCount)
	assert.Equal(t, 1, current.WarningCount)
}

func TestAppendLogConcurrentCounters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "alice@example.com")
	repo := seedRepository(t, db, user.ID, "https://github.com/acme/widgets")
	m := seedMigration(t, db, user.ID, repo.ID)

	const appends = 20
	var wg sync.WaitGroup
	errs := make(chan error, appends)
	for i := 0; i < appends; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- db.AppendLog(ctx, &models.MigrationLog{
				MigrationID: m.ID,
				Level:       models.LogLevelError,
				Message:     fmt.Sprintf("error %d", i),
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	current, err := db.GetMigration(ctx, user.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, appends, current.ErrorCount)
}

func TestListRecentLogsOrdering(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "alice@example.com")
	repo := seedRepository(t, db, user.ID, "https://github.com/acme/widgets")
	m := seedMigration(t, db, user.ID, repo.ID)

	// identical timestamps: insertion order must break the tie
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.AppendLog(ctx, &models.MigrationLog{
			MigrationID: m.ID,
			Level:       models.LogLevelInfo,
			Message:     fmt.Sprintf("event %d", i),
			Timestamp:   ts,
		}))
	}

	logs, err := db.ListRecentLogs(ctx, m.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "event 2", logs[0].Message)
	assert.Equal(t, "event 1", logs[1].Message)
	assert.Equal(t, "event 0", logs[2].Message)

	limited, err := db.ListRecentLogs(ctx, m.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestLogIterator(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "alice@example.com")
	repo := seedRepository(t, db, user.ID, "https://github.com/acme/widgets")
	m := seedMigration(t, db, user.ID, repo.ID)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		require.NoError(t, db.AppendLog(ctx, &models.MigrationLog{
			MigrationID: m.ID,
			Level:       models.LogLevelInfo,
			Message:     fmt.Sprintf("event %d", i),
			Timestamp:   base.Add(time.Duration(i) * time.Second),
		}))
	}

	it := db.NewLogIterator(m.ID, 3)

	var seen []string
	for {
		batch, err := it.Next(ctx)
		require.NoError(t, err)
		if len(batch) == 0 {
			break
		}
		for _, entry := range batch {
			seen = append(seen, entry.Message)
		}
	}

	// newest first, no gaps, no duplicates
	require.Len(t, seen, 7)
	for i, msg := range seen {
		assert.Equal(t, fmt.Sprintf("event %d", 6-i), msg)
	}
}
