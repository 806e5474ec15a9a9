package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeShareRepo struct {
	repositories.ShareRepository
	calls   atomic.Int32
	lastNow atomic.Value
	err     error
}

func (f *fakeShareRepo) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	f.calls.Add(1)
	f.lastNow.Store(now)
	if f.err != nil {
		return 0, f.err
	}
	return 2, nil
}

var _ repositories.ShareRepository = (*fakeShareRepo)(nil)

func TestSweeper_SweepOnce(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeShareRepo{}
	s := NewSweeper(repo, time.Minute, func() time.Time { return fixed })

	assert.Equal(t, int64(2), s.SweepOnce(context.Background()))
	assert.Equal(t, fixed, repo.lastNow.Load())

	repo.err = errors.New("boom")
	assert.Equal(t, int64(0), s.SweepOnce(context.Background()))
}

func TestManager_RunsAndStops(t *testing.T) {
	repo := &fakeShareRepo{}
	m := &Manager{workers: []Worker{NewSweeper(repo, 10*time.Millisecond, nil)}}
	m.Start(context.Background())

	require.Eventually(t, func() bool { return repo.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	m.Stop()

	after := repo.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, repo.calls.Load())
}

func TestSweeper_MarksBadgerRecords(t *testing.T) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo, err := repositories.NewBadgerShareRepository(db, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	now := time.Now().UTC()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.Share{ShareID: "old", OwnerID: 1, FileID: 1, ExpiresAt: now.Add(-time.Minute), Status: models.ShareStatusActive}))
	require.NoError(t, repo.Create(ctx, &models.Share{ShareID: "new", OwnerID: 1, FileID: 1, ExpiresAt: now.Add(time.Hour), Status: models.ShareStatusActive}))

	s := NewSweeper(repo, time.Minute, func() time.Time { return now })
	assert.Equal(t, int64(1), s.SweepOnce(ctx))
	assert.Equal(t, int64(0), s.SweepOnce(ctx))

	old, err := repo.FindByShareID(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, uint8(models.ShareStatusExpired), old.Status)
	assert.Equal(t, models.ShareStateExpired, old.State(now))
}
