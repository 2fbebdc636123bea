package storage

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/dcsil/DoseMate-backend/internal"
)

// Needs a live database; set POSTGRES_TEST_DSN to run.
func newPostgresStorage(t *testing.T) *PostgresStorage {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	s, err := NewPostgresStorage(dsn, internal.NewZapLogger(zap.NewNop().Sugar()))
	assert.NoError(t, err)

	_, err = s.pool.Exec(context.Background(), `CREATE TABLE IF NOT EXISTS dose_logs (
		id TEXT PRIMARY KEY,
		schedule_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		scheduled_time TIMESTAMPTZ NOT NULL,
		taken_time TIMESTAMPTZ,
		status TEXT NOT NULL,
		snoozed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`)
	assert.NoError(t, err)
	return s
}

// Concurrent reconciliations of a slot with no instance yet have no row to
// lock, so the advisory lock is what keeps them from both inserting.
func TestPostgresStorage_FindOrCreateConcurrent(t *testing.T) {
	s := newPostgresStorage(t)
	ctx := context.Background()

	schedID := uuid.NewString()
	base := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	const workers = 8

	var wg sync.WaitGroup
	ids := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inst, err := s.FindOrCreateDoseInstance(ctx, &internal.DoseInstance{
				ID: uuid.NewString(), ScheduleID: schedID, UserID: "u1",
				ScheduledTime: base, Status: internal.DoseStatusPending, CreatedAt: base,
			}, 2*time.Hour)
			assert.NoError(t, err)
			ids <- inst.ID
		}()
	}
	wg.Wait()
	close(ids)

	distinct := make(map[string]struct{})
	for id := range ids {
		distinct[id] = struct{}{}
	}
	assert.Len(t, distinct, 1)

	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM dose_logs WHERE schedule_id = $1`, schedID).Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}
