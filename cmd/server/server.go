package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/go-redis/redis/v8"
	"github.com/klauspost/compress/gzhttp"
	"github.com/mantadrive/mantadrive/internal/config"
	"github.com/mantadrive/mantadrive/internal/handlers"
	"github.com/mantadrive/mantadrive/internal/middlewares"
	"github.com/mantadrive/mantadrive/internal/pkg/audit"
	"github.com/mantadrive/mantadrive/internal/pkg/cache"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/pkg/storage"
	"github.com/mantadrive/mantadrive/internal/pkg/worker"
	"github.com/mantadrive/mantadrive/internal/repositories"
	"github.com/mantadrive/mantadrive/internal/router"
	"github.com/mantadrive/mantadrive/internal/services/admin"
	"github.com/mantadrive/mantadrive/internal/services/explorer"
	"github.com/mantadrive/mantadrive/internal/services/share"
	"github.com/mantadrive/mantadrive/internal/setup"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	cfg         *config.Config
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
	badgerDB    *badger.DB
	shareRepo   repositories.ShareRepository
	closeShares func() error
	auditor     *audit.AsyncRecorder
	workers     *worker.Manager
}

// NewServer 负责构建所有依赖
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	ss, err := setup.InitStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return newServer(ctx, cfg, ss)
}

func newServer(ctx context.Context, cfg *config.Config, ss storage.StorageService) (*Server, error) {
	s := &Server{cfg: cfg, closeShares: func() error { return nil }}

	// 初始化数据库连接
	db, err := setup.InitDB(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	s.db = db

	// 初始化 Redis 连接, 未配置时为 nil
	s.redisClient, err = setup.InitRedis(ctx, &cfg.Redis)
	if err != nil {
		s.release()
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	// 初始化 Repositories
	userRepo := repositories.NewUserRepository(db)
	accessLogRepo := repositories.NewAccessLogRepository(db)
	fileRepo := repositories.NewDBFileRepository(db)
	var limiterCache cache.Cache
	if s.redisClient != nil {
		redisCache := cache.NewRedisCache(s.redisClient)
		fileRepo = repositories.NewCachedFileRepository(fileRepo, redisCache)
		limiterCache = redisCache
	}
	if err := s.openShareStore(db); err != nil {
		s.release()
		return nil, err
	}

	// 审计: 数据库为准, 配置了 Elasticsearch 时同时写入
	recorders := audit.MultiRecorder{audit.NewDBRecorder(accessLogRepo)}
	esClient, err := setup.InitElasticsearchClient(&cfg.Elasticsearch)
	if err != nil {
		logger.Warn("NewServer: Elasticsearch 不可用, 审计日志只写数据库", zap.Error(err))
	} else if esClient != nil {
		recorders = append(recorders, audit.NewESRecorder(esClient, cfg.Elasticsearch.Index))
	}
	s.auditor = audit.NewAsyncRecorder(recorders, 5*time.Second)

	// 初始化 Services
	policy := share.PolicyFromConfig(&cfg.Share)
	domainService := explorer.NewFileDomainService(fileRepo)
	authService := admin.NewAuthService(userRepo, ss, cfg)
	userService := admin.NewUserService(userRepo)
	fileService := explorer.NewFileService(fileRepo, domainService, ss, cfg)
	shareService := share.NewShareService(s.shareRepo, fileRepo, accessLogRepo, ss, s.auditor, policy)

	// 初始化 Gin 引擎和注册路由
	engine := router.InitRouter(&cfg.Server, router.Handlers{
		Auth:   handlers.NewAuthHandler(authService),
		User:   handlers.NewUserHandler(userService),
		File:   handlers.NewFileHandler(fileService),
		Share:  handlers.NewShareHandler(shareService),
		Health: handlers.NewHealthHandler(ss, cfg.Storage.Type),
	}, router.Middlewares{
		Auth:        middlewares.AuthMiddleware(&cfg.JWT),
		VerifyLimit: middlewares.VerifyRateLimit(limiterCache, cfg.Share.VerifyAttemptsPerMinute, nil),
	})

	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           gzhttp.GzipHandler(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// openShareStore 按配置选择分享存储
func (s *Server) openShareStore(db *gorm.DB) error {
	switch s.cfg.Share.Store {
	case "redis":
		if s.redisClient == nil {
			return errors.New("share store redis requires redis.addr")
		}
		s.shareRepo = repositories.NewRedisShareRepository(s.redisClient, s.cfg.Share.Retention)
	case "badger":
		bdb, err := setup.InitBadger(&s.cfg.Badger)
		if err != nil {
			return fmt.Errorf("failed to initialize Badger: %w", err)
		}
		s.badgerDB = bdb
		repo, err := repositories.NewBadgerShareRepository(bdb, s.cfg.Share.Retention)
		if err != nil {
			return err
		}
		s.shareRepo = repo
		s.closeShares = repo.Close
	default:
		s.shareRepo = repositories.NewShareRepository(db)
	}
	logger.Info("分享存储已初始化", zap.String("store", s.cfg.Share.Store))
	return nil
}

// Handler 返回挂载了压缩的 HTTP 入口
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run 启动服务器和 Worker，并处理优雅关机
func (s *Server) Run(ctx context.Context, stopChan <-chan os.Signal) {
	defer s.release()

	// 启动所有后台 Worker
	s.workers = worker.StartAllWorkers(ctx, s.cfg, s.shareRepo)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Server is running", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// 等待停止信号
	select {
	case <-stopChan:
	case <-ctx.Done():
	case err := <-errChan:
		logger.Error("Server failed to start", zap.Error(err))
	}
	logger.Info("Shutting down server...")

	// 优雅关机
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	s.workers.Stop()
	s.auditor.Wait()
	logger.Info("Server exited gracefully")
}

// release 释放所有连接, 顺序与创建相反
func (s *Server) release() {
	if s.closeShares != nil {
		if err := s.closeShares(); err != nil {
			logger.Warn("release: 关闭分享存储失败", zap.Error(err))
		}
	}
	if s.badgerDB != nil {
		setup.CloseBadger(s.badgerDB)
	}
	if s.redisClient != nil {
		setup.CloseRedis(s.redisClient)
	}
	if s.db != nil {
		setup.CloseDB(s.db)
	}
}
