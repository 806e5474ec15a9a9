package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/repositories"
	"go.uber.org/zap"
)

// Recorder 记录一次分享校验的结果
type Recorder interface {
	Record(ctx context.Context, entry *models.ShareAccessLog) error
}

// DBRecorder 把访问日志写入数据库
type DBRecorder struct {
	repo repositories.AccessLogRepository
}

func NewDBRecorder(repo repositories.AccessLogRepository) *DBRecorder {
	return &DBRecorder{repo: repo}
}

func (r *DBRecorder) Record(ctx context.Context, entry *models.ShareAccessLog) error {
	return r.repo.Create(ctx, entry)
}

// MultiRecorder 依次写入所有 Recorder, 单个失败不影响其他
type MultiRecorder []Recorder

func (m MultiRecorder) Record(ctx context.Context, entry *models.ShareAccessLog) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AsyncRecorder 在后台写入审计日志, 调用方不会被阻塞, 失败只记录日志
type AsyncRecorder struct {
	next    Recorder
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsyncRecorder(next Recorder, timeout time.Duration) *AsyncRecorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AsyncRecorder{next: next, timeout: timeout}
}

func (a *AsyncRecorder) Record(ctx context.Context, entry *models.ShareAccessLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	// 请求结束后 ctx 会被取消, 后台写入只保留其中的值
	bg := context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		writeCtx, cancel := context.WithTimeout(bg, a.timeout)
		defer cancel()
		if err := a.next.Record(writeCtx, entry); err != nil {
			logger.Warn("Record: 写入访问审计失败",
				zap.String("shareID", entry.ShareID),
				zap.String("outcome", entry.Outcome),
				zap.Error(err))
		}
	}()
	return nil
}

// Wait 等待所有后台写入完成, 用于关闭服务和测试
func (a *AsyncRecorder) Wait() {
	a.wg.Wait()
}

// Nop 丢弃所有记录
type Nop struct{}

func (Nop) Record(context.Context, *models.ShareAccessLog) error { return nil }
