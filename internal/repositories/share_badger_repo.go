package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/pkg/mapper"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"go.uber.org/zap"
)

// Key schema:
//
//	s:<shareID>                      -> JSON(mapper.ShareToHash)
//	o:<ownerID>:<createdAtNanos>:<id> -> shareID
//	seq:share                        -> badger.Sequence
const (
	badgerSharePrefix = "s:"
	badgerOwnerPrefix = "o:"
	badgerSeqKey      = "seq:share"

	// 串行化冲突时的最大重试次数
	badgerMaxRetries = 64
	// 清理任务每个写事务处理的记录数
	badgerSweepBatch = 256
)

func keyShare(shareID string) []byte {
	return []byte(badgerSharePrefix + shareID)
}

func keyOwnerPrefix(ownerID uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d:", badgerOwnerPrefix, ownerID))
}

func keyOwnerShare(ownerID uint64, createdAt time.Time, shareID string) []byte {
	return append(keyOwnerPrefix(ownerID), []byte(fmt.Sprintf("%020d:%s", createdAt.UnixNano(), shareID))...)
}

// BadgerShareRepository 嵌入式分享存储
// 读改写都在 db.Update 事务里完成, 提交冲突 (badger.ErrConflict) 时整体重试
type BadgerShareRepository struct {
	db        *badger.DB
	seq       *badger.Sequence
	retention time.Duration
}

var _ ShareRepository = (*BadgerShareRepository)(nil)

// NewBadgerShareRepository retention 为过期后记录继续保留的时长
func NewBadgerShareRepository(db *badger.DB, retention time.Duration) (*BadgerShareRepository, error) {
	seq, err := db.GetSequence([]byte(badgerSeqKey), 100)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger sequence: %w", err)
	}
	return &BadgerShareRepository{db: db, seq: seq, retention: retention}, nil
}

// Close 归还未使用的序列号, 不关闭底层 DB
func (r *BadgerShareRepository) Close() error {
	return r.seq.Release()
}

func (r *BadgerShareRepository) ttl(share *models.Share, now time.Time) time.Duration {
	ttl := share.ExpiresAt.Add(r.retention).Sub(now)
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

func (r *BadgerShareRepository) put(txn *badger.Txn, share *models.Share, now time.Time) error {
	val, err := json.Marshal(mapper.ShareToHash(share))
	if err != nil {
		return fmt.Errorf("failed to encode share: %w", err)
	}
	return txn.SetEntry(badger.NewEntry(keyShare(share.ShareID), val).WithTTL(r.ttl(share, now)))
}

func getShare(txn *badger.Txn, shareID string) (*models.Share, error) {
	item, err := txn.Get(keyShare(shareID))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, xerr.ErrShareNotFound
		}
		return nil, err
	}
	var fields map[string]string
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &fields)
	}); err != nil {
		return nil, err
	}
	return mapper.HashToShare(fields)
}

// update 执行事务, 遇到串行化冲突时重试
func (r *BadgerShareRepository) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < badgerMaxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = r.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// wrapBadgerErr 领域错误原样返回, 其余视为存储不可用
func wrapBadgerErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, xerr.ErrShareNotFound) || errors.Is(err, xerr.ErrShareAlreadyExists) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return storeErr(op, err)
}

func (r *BadgerShareRepository) Create(ctx context.Context, share *models.Share) error {
	now := time.Now().UTC()
	share.ExpiresAt = share.ExpiresAt.UTC()
	if share.CreatedAt.IsZero() {
		share.CreatedAt = now
	}
	share.UpdatedAt = now

	id, err := r.seq.Next()
	if err != nil {
		return storeErr("创建分享记录失败", err)
	}
	// 序列从 0 开始
	share.ID = id + 1

	err = r.update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(keyShare(share.ShareID)); err == nil {
			return xerr.ErrShareAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := r.put(txn, share, now); err != nil {
			return err
		}
		idx := badger.NewEntry(keyOwnerShare(share.OwnerID, share.CreatedAt, share.ShareID), []byte(share.ShareID)).
			WithTTL(r.ttl(share, now))
		return txn.SetEntry(idx)
	})
	if err != nil {
		logger.Error("Create: 写入 Badger 分享记录失败", zap.String("shareID", share.ShareID), zap.Error(err))
	}
	return wrapBadgerErr("创建分享记录失败", err)
}

func (r *BadgerShareRepository) FindByShareID(ctx context.Context, shareID string) (*models.Share, error) {
	var share *models.Share
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		share, err = getShare(txn, shareID)
		return err
	})
	if err != nil {
		return nil, wrapBadgerErr("查询分享链接失败", err)
	}
	return share, nil
}

func (r *BadgerShareRepository) IncrementDownloadIfAllowed(ctx context.Context, shareID string, now time.Time) (bool, *models.Share, error) {
	now = now.UTC()
	var granted bool
	var share *models.Share

	err := r.update(ctx, func(txn *badger.Txn) error {
		granted = false
		var err error
		share, err = getShare(txn, shareID)
		if err != nil {
			return err
		}
		if share.Status != models.ShareStatusActive || share.IsExpired(now) || share.LimitReached() {
			return nil
		}
		share.DownloadCount++
		share.UpdatedAt = now
		granted = true
		return r.put(txn, share, now)
	})
	if err != nil {
		if !errors.Is(err, xerr.ErrShareNotFound) {
			logger.Error("IncrementDownloadIfAllowed: Badger 事务失败", zap.String("shareID", shareID), zap.Error(err))
		}
		return false, nil, wrapBadgerErr("更新下载次数失败", err)
	}
	return granted, share, nil
}

func (r *BadgerShareRepository) Revoke(ctx context.Context, shareID string) error {
	now := time.Now().UTC()
	err := r.update(ctx, func(txn *badger.Txn) error {
		share, err := getShare(txn, shareID)
		if err != nil {
			return err
		}
		if share.Status != models.ShareStatusActive {
			return xerr.ErrShareNotFound
		}
		share.Status = models.ShareStatusRevoked
		share.UpdatedAt = now
		return r.put(txn, share, now)
	})
	return wrapBadgerErr("撤销分享失败", err)
}

func (r *BadgerShareRepository) FindAllByOwner(ctx context.Context, ownerID uint64, page, pageSize int) ([]models.Share, int64, error) {
	var shares []models.Share
	var total int64
	offset := int64((page - 1) * pageSize)

	err := r.db.View(func(txn *badger.Txn) error {
		prefix := keyOwnerPrefix(ownerID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true

		it := txn.NewIterator(opts)
		defer it.Close()

		// 反向迭代需要从前缀之后的位置开始
		seekKey := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			idx := total
			total++
			if idx < offset || idx >= offset+int64(pageSize) {
				continue
			}
			var shareID string
			if err := it.Item().Value(func(val []byte) error {
				shareID = string(val)
				return nil
			}); err != nil {
				return err
			}
			share, err := getShare(txn, shareID)
			if err != nil {
				if errors.Is(err, xerr.ErrShareNotFound) {
					continue
				}
				return err
			}
			shares = append(shares, *share)
		}
		return nil
	})
	if err != nil {
		return nil, 0, wrapBadgerErr("查询分享列表失败", err)
	}
	if shares == nil {
		shares = []models.Share{}
	}
	return shares, total, nil
}

// MarkExpired 先在只读事务中收集过期记录, 再按批次分别提交,
// 每批在写事务内重新读取并检查状态
func (r *BadgerShareRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	now = now.UTC()
	ids, err := r.expiredShareIDs(now)
	if err != nil {
		return 0, wrapBadgerErr("查询过期分享失败", err)
	}

	var marked int64
	for start := 0; start < len(ids); start += badgerSweepBatch {
		end := min(start+badgerSweepBatch, len(ids))
		var n int64
		err := r.update(ctx, func(txn *badger.Txn) error {
			n = 0
			for _, id := range ids[start:end] {
				share, err := getShare(txn, id)
				if errors.Is(err, xerr.ErrShareNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				if share.Status != models.ShareStatusActive || !share.IsExpired(now) {
					continue
				}
				share.Status = models.ShareStatusExpired
				share.UpdatedAt = now
				if err := r.put(txn, share, now); err != nil {
					return err
				}
				n++
			}
			return nil
		})
		if err != nil {
			logger.Error("MarkExpired: 批量标记过期分享失败", zap.Int64("marked", marked), zap.Error(err))
			return marked, wrapBadgerErr("标记过期分享失败", err)
		}
		marked += n
	}
	return marked, nil
}

func (r *BadgerShareRepository) expiredShareIDs(now time.Time) ([]string, error) {
	var ids []string
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerSharePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var fields map[string]string
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &fields)
			}); err != nil {
				return err
			}
			share, err := mapper.HashToShare(fields)
			if err != nil {
				return err
			}
			if share.Status == models.ShareStatusActive && share.IsExpired(now) {
				ids = append(ids, share.ShareID)
			}
		}
		return nil
	})
	return ids, err
}
