package setup

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/mantadrive/mantadrive/internal/config"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"go.uber.org/zap"
)

// badgerLogger 把 Badger 的日志接到 zap
type badgerLogger struct {
	sugar *zap.SugaredLogger
}

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.sugar.Errorf(f, v...) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.sugar.Warnf(f, v...) }
func (l badgerLogger) Infof(f string, v ...interface{})    { l.sugar.Infof(f, v...) }
func (l badgerLogger) Debugf(f string, v ...interface{})   { l.sugar.Debugf(f, v...) }

// InitBadger 打开嵌入式分享存储
func InitBadger(cfg *config.BadgerConfig) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.
		WithLogger(badgerLogger{sugar: logger.Sugar().Named("badger")}).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.Path, err)
	}
	logger.Info("BadgerDB opened", zap.String("path", cfg.Path), zap.Bool("inMemory", cfg.InMemory))
	return db, nil
}

func CloseBadger(db *badger.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("Error closing BadgerDB", zap.Error(err))
	}
}
