package repositories

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shareStoreFactory struct {
	name string
	open func(t *testing.T) ShareRepository
}

var shareStores = []shareStoreFactory{
	{
		name: "gorm",
		open: func(t *testing.T) ShareRepository {
			return NewShareRepository(newTestDB(t))
		},
	},
	{
		name: "badger",
		open: func(t *testing.T) ShareRepository {
			repo, err := NewBadgerShareRepository(newTestBadger(t), time.Hour)
			require.NoError(t, err)
			t.Cleanup(func() { _ = repo.Close() })
			return repo
		},
	},
	{
		name: "redis",
		open: func(t *testing.T) ShareRepository {
			return NewRedisShareRepository(newTestRedis(t), time.Hour)
		},
	},
}

func forEachStore(t *testing.T, fn func(t *testing.T, f shareStoreFactory, repo ShareRepository)) {
	for _, f := range shareStores {
		f := f
		t.Run(f.name, func(t *testing.T) {
			fn(t, f, f.open(t))
		})
	}
}

func newShare(ownerID uint64, expiresIn time.Duration, maxDownloads *uint32) *models.Share {
	return &models.Share{
		ShareID:      uuid.NewString(),
		OwnerID:      ownerID,
		FileID:       1,
		ExpiresAt:    time.Now().Add(expiresIn),
		MaxDownloads: maxDownloads,
		Status:       models.ShareStatusActive,
	}
}

func TestShareStore_CreateAndFind(t *testing.T) {
	forEachStore(t, func(t *testing.T, _ shareStoreFactory, repo ShareRepository) {
		ctx := context.Background()
		s := newShare(7, 24*time.Hour, ptr(uint32(3)))
		s.AccessKey = ptr("AB12CD")
		s.PasswordHash = ptr("$2a$10$hash")
		require.NoError(t, repo.Create(ctx, s))
		assert.NotZero(t, s.ID)

		got, err := repo.FindByShareID(ctx, s.ShareID)
		require.NoError(t, err)
		assert.Equal(t, s.ShareID, got.ShareID)
		assert.Equal(t, uint64(7), got.OwnerID)
		assert.Equal(t, "AB12CD", *got.AccessKey)
		assert.Equal(t, "$2a$10$hash", *got.PasswordHash)
		assert.Equal(t, uint32(3), *got.MaxDownloads)
		assert.Equal(t, uint32(0), got.DownloadCount)
		assert.WithinDuration(t, s.ExpiresAt, got.ExpiresAt, time.Millisecond)

		_, err = repo.FindByShareID(ctx, "missing")
		assert.ErrorIs(t, err, xerr.ErrShareNotFound)

		dup := newShare(7, time.Hour, nil)
		dup.ShareID = s.ShareID
		assert.ErrorIs(t, repo.Create(ctx, dup), xerr.ErrShareAlreadyExists)
	})
}

func TestShareStore_IncrementStopsAtLimit(t *testing.T) {
	forEachStore(t, func(t *testing.T, _ shareStoreFactory, repo ShareRepository) {
		ctx := context.Background()
		s := newShare(1, 24*time.Hour, ptr(uint32(3)))
		require.NoError(t, repo.Create(ctx, s))

		for want := uint32(1); want <= 3; want++ {
			granted, rec, err := repo.IncrementDownloadIfAllowed(ctx, s.ShareID, time.Now())
			require.NoError(t, err)
			assert.True(t, granted)
			assert.Equal(t, want, rec.DownloadCount)
		}

		granted, rec, err := repo.IncrementDownloadIfAllowed(ctx, s.ShareID, time.Now())
		require.NoError(t, err)
		assert.False(t, granted)
		assert.Equal(t, uint32(3), rec.DownloadCount)
		assert.True(t, rec.LimitReached())
	})
}

func TestShareStore_IncrementUnlimited(t *testing.T) {
	forEachStore(t, func(t *testing.T, _ shareStoreFactory, repo ShareRepository) {
		ctx := context.Background()
		s := newShare(1, time.Hour, nil)
		require.NoError(t, repo.Create(ctx, s))

		for i := 0; i < 10; i++ {
			granted, _, err := repo.IncrementDownloadIfAllowed(ctx, s.ShareID, time.Now())
			require.NoError(t, err)
			require.True(t, granted)
		}
		got, err := repo.FindByShareID(ctx, s.ShareID)
		require.NoError(t, err)
		assert.Equal(t, uint32(10), got.DownloadCount)
	})
}

func TestShareStore_IncrementRejectsExpired(t *testing.T) {
	forEachStore(t, func(t *testing.T, _ shareStoreFactory, repo ShareRepository) {
		ctx := context.Background()
		s := newShare(1, time.Hour, nil)
		require.NoError(t, repo.Create(ctx, s))

		granted, rec, err := repo.IncrementDownloadIfAllowed(ctx, s.ShareID, s.ExpiresAt.Add(time.Second))
		require.NoError(t, err)
		assert.False(t, granted)
		assert.Equal(t, uint32(0), rec.DownloadCount)

		// 恰好等于过期时间也不允许
		granted, _, err = repo.IncrementDownloadIfAllowed(ctx, s.ShareID, s.ExpiresAt)
		require.NoError(t, err)
		assert.False(t, granted)

		_, _, err = repo.IncrementDownloadIfAllowed(ctx, "missing", time.Now())
		assert.ErrorIs(t, err, xerr.ErrShareNotFound)
	})
}

func TestShareStore_Revoke(t *testing.T) {
	forEachStore(t, func(t *testing.T, _ shareStoreFactory, repo ShareRepository) {
		ctx := context.Background()
		s := newShare(1, time.Hour, nil)
		require.NoError(t, repo.Create(ctx, s))

		require.NoError(t, repo.Revoke(ctx, s.ShareID))

		granted, rec, err := repo.IncrementDownloadIfAllowed(ctx, s.ShareID, time.Now())
		require.NoError(t, err)
		assert.False(t, granted)
		assert.Equal(t, uint8(models.ShareStatusRevoked), rec.Status)

		// 记录仍保留用于审计
		got, err := repo.FindByShareID(ctx, s.ShareID)
		require.NoError(t, err)
		assert.Equal(t, models.ShareStateDeleted, got.State(time.Now()))

		assert.ErrorIs(t, repo.Revoke(ctx, s.ShareID), xerr.ErrShareNotFound)
		assert.ErrorIs(t, repo.Revoke(ctx, "missing"), xerr.ErrShareNotFound)
	})
}

func TestShareStore_ConcurrentIncrementNeverExceedsLimit(t *testing.T) {
	forEachStore(t, func(t *testing.T, _ shareStoreFactory, repo ShareRepository) {
		ctx := context.Background()
		const limit = 5
		const workers = 40
		s := newShare(1, time.Hour, ptr(uint32(limit)))
		require.NoError(t, repo.Create(ctx, s))

		var grants int64
		var wg sync.WaitGroup
		start := make(chan struct{})
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				granted, _, err := repo.IncrementDownloadIfAllowed(ctx, s.ShareID, time.Now())
				if err != nil {
					errs <- err
					return
				}
				if granted {
					atomic.AddInt64(&grants, 1)
				}
			}()
		}
		close(start)
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		assert.Equal(t, int64(limit), grants)
		got, err := repo.FindByShareID(ctx, s.ShareID)
		require.NoError(t, err)
		assert.Equal(t, uint32(limit), got.DownloadCount)
	})
}

func TestShareStore_FindAllByOwner(t *testing.T) {
	forEachStore(t, func(t *testing.T, _ shareStoreFactory, repo ShareRepository) {
		ctx := context.Background()
		base := time.Now().Add(-time.Hour).UTC()
		var ids []string
		for i := 0; i < 5; i++ {
			s := newShare(9, time.Hour, nil)
			s.ShareID = fmt.Sprintf("owner9-%d-%s", i, uuid.NewString()[:8])
			s.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			require.NoError(t, repo.Create(ctx, s))
			ids = append(ids, s.ShareID)
		}
		require.NoError(t, repo.Create(ctx, newShare(10, time.Hour, nil)))

		page1, total, err := repo.FindAllByOwner(ctx, 9, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, page1, 2)
		// 最新的在前
		assert.Equal(t, ids[4], page1[0].ShareID)
		assert.Equal(t, ids[3], page1[1].ShareID)

		page3, _, err := repo.FindAllByOwner(ctx, 9, 3, 2)
		require.NoError(t, err)
		require.Len(t, page3, 1)
		assert.Equal(t, ids[0], page3[0].ShareID)

		none, total, err := repo.FindAllByOwner(ctx, 404, 1, 10)
		require.NoError(t, err)
		assert.Empty(t, none)
		assert.Zero(t, total)
	})
}

func TestShareStore_MarkExpired(t *testing.T) {
	forEachStore(t, func(t *testing.T, _ shareStoreFactory, repo ShareRepository) {
		ctx := context.Background()
		live := newShare(1, time.Hour, nil)
		old := newShare(1, time.Minute, nil)
		revoked := newShare(1, time.Minute, nil)
		require.NoError(t, repo.Create(ctx, live))
		require.NoError(t, repo.Create(ctx, old))
		require.NoError(t, repo.Create(ctx, revoked))
		require.NoError(t, repo.Revoke(ctx, revoked.ShareID))

		now := time.Now().Add(2 * time.Minute)
		n, err := repo.MarkExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := repo.FindByShareID(ctx, old.ShareID)
		require.NoError(t, err)
		assert.Equal(t, models.ShareStateExpired, got.State(now))
		assert.Equal(t, uint8(models.ShareStatusExpired), got.Status)

		again, err := repo.MarkExpired(ctx, now)
		require.NoError(t, err)
		assert.Zero(t, again)

		// 已标记过期的记录不能再被撤销
		assert.ErrorIs(t, repo.Revoke(ctx, old.ShareID), xerr.ErrShareNotFound)

		stillRevoked, err := repo.FindByShareID(ctx, revoked.ShareID)
		require.NoError(t, err)
		assert.Equal(t, uint8(models.ShareStatusRevoked), stillRevoked.Status)

		stillLive, err := repo.FindByShareID(ctx, live.ShareID)
		require.NoError(t, err)
		assert.Equal(t, uint8(models.ShareStatusActive), stillLive.Status)
	})
}

func TestShareStore_MarkExpiredManyRecords(t *testing.T) {
	forEachStore(t, func(t *testing.T, _ shareStoreFactory, repo ShareRepository) {
		ctx := context.Background()
		const count = 600
		for i := 0; i < count; i++ {
			require.NoError(t, repo.Create(ctx, newShare(uint64(i%7+1), time.Minute, nil)))
		}
		live := newShare(1, time.Hour, nil)
		require.NoError(t, repo.Create(ctx, live))

		now := time.Now().Add(2 * time.Minute)
		n, err := repo.MarkExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(count), n)

		again, err := repo.MarkExpired(ctx, now)
		require.NoError(t, err)
		assert.Zero(t, again)

		got, err := repo.FindByShareID(ctx, live.ShareID)
		require.NoError(t, err)
		assert.Equal(t, uint8(models.ShareStatusActive), got.Status)
	})
}
