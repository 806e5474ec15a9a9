package worker

import (
	"context"
	"sync"

	"github.com/mantadrive/mantadrive/internal/config"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/repositories"
)

// Worker 后台任务, Run 在 ctx 取消后返回
type Worker interface {
	Name() string
	Run(ctx context.Context)
}

// Manager 管理所有后台 Worker 的生命周期
type Manager struct {
	workers []Worker
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// StartAllWorkers 启动应用中所有定义的后台 Worker
func StartAllWorkers(ctx context.Context, cfg *config.Config, shareRepo repositories.ShareRepository) *Manager {
	m := &Manager{}
	// --- 启动过期分享清理 Worker ---
	if cfg.Share.SweepInterval > 0 {
		m.workers = append(m.workers, NewSweeper(shareRepo, cfg.Share.SweepInterval, nil))
	}
	m.Start(ctx)
	logger.Info("所有后台工作进程已启动。")
	return m
}

func (m *Manager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	for _, w := range m.workers {
		m.wg.Add(1)
		go func(w Worker) {
			defer m.wg.Done()
			w.Run(ctx)
			logger.Info("后台工作进程已退出: " + w.Name())
		}(w)
	}
}

// Stop 通知所有 Worker 退出并等待
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
