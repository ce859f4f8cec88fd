package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ashwingur/tron-server/internal/config"
	"github.com/ashwingur/tron-server/internal/game/room"
	"github.com/ashwingur/tron-server/internal/logger"
	"github.com/ashwingur/tron-server/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, loadErr := config.Load(*configPath)
	if loadErr != nil {
		cfg = config.Default()
	}

	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if loadErr != nil {
		logger.L().Warnw("config not loaded, using defaults", "path", *configPath, "error", loadErr)
	}

	// 创建服务器
	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.L().Fatalw("create server failed", "error", err)
	}

	// 配置热更新：只影响之后创建的房间
	if loadErr == nil {
		watcher, err := config.Watch(*configPath, func(next *config.Config) {
			srv.RoomManager().UpdateSettings(room.SettingsFromConfig(next.Game))
			logger.L().Infow("game settings reloaded",
				"grid_size", next.Game.GridSize, "tick_rate", next.Game.TickRate)
		}, func(err error) {
			logger.L().Warnw("config reload failed", "error", err)
		})
		if err != nil {
			logger.L().Warnw("config watch disabled", "error", err)
		} else {
			defer func() { _ = watcher.Close() }()
		}
	}

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.L().Infow("shutting down, waiting for running games")
		srv.GracefulShutdown(cfg.Game.ShutdownTimeoutDuration())
	}()

	// 启动服务器，Shutdown 后返回
	logger.L().Infow("tron server starting")
	if err := srv.Start(); err != nil {
		logger.L().Fatalw("server failed", "error", err)
	}
}
