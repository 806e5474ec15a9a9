package worker

import (
	"context"
	"time"

	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/repositories"
	"go.uber.org/zap"
)

// Sweeper 定期把已过期的分享标记为过期状态.
// 过期判断在访问时进行, 这里只负责让列表中的状态保持一致
type Sweeper struct {
	repo     repositories.ShareRepository
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(repo repositories.ShareRepository, interval time.Duration, now func() time.Time) *Sweeper {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Sweeper{repo: repo, interval: interval, now: now}
}

func (s *Sweeper) Name() string { return "share-sweeper" }

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce 执行一次清理, 返回标记数量
func (s *Sweeper) SweepOnce(ctx context.Context) int64 {
	n, err := s.repo.MarkExpired(ctx, s.now())
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("SweepOnce: 标记过期分享失败", zap.Error(err))
		}
		return 0
	}
	if n > 0 {
		logger.Info("SweepOnce: 已标记过期分享", zap.Int64("count", n))
	}
	return n
}
