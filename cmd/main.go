package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mantadrive/mantadrive/cmd/server"
	"github.com/mantadrive/mantadrive/internal/config"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"go.uber.org/zap"
)

// @title MantaDrive API
// @version 1.0
// @description MantaDrive 文件分享访问控制服务
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer <token>
func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("加载配置出错", zap.Error(err))
	}

	//初始化日志系统
	for _, p := range []string{cfg.Log.OutputPath, cfg.Log.ErrorPath} {
		if p == "" || p == "stdout" || p == "stderr" {
			continue
		}
		if err = os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			logger.Fatal("初始化日志系统失败", zap.Error(err))
		}
	}
	if err = logger.InitLogger(cfg.Log.OutputPath, cfg.Log.ErrorPath, cfg.Log.Level); err != nil {
		logger.Fatal("初始化日志系统失败", zap.Error(err))
	}
	defer logger.Sync() // 确保在应用退出时刷新所有缓冲的日志条目

	logger.Info("启动 MantaDrive...")

	ctx := context.Background()
	// 创建并构建应用服务器实例
	srv, err := server.NewServer(ctx, cfg)
	if err != nil {
		logger.Fatal("无法启动应用程序", zap.Error(err))
	}

	// 创建一个通道用于接收停止信号
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	srv.Run(ctx, stopChan)

	logger.Info("MantaDrive 已退出。")
}
