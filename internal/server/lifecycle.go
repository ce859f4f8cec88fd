package server

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/ashwingur/tron-server/internal/logger"
	"github.com/ashwingur/tron-server/internal/protocol"
	"github.com/ashwingur/tron-server/internal/protocol/codec"
)

const statsInterval = 30 * time.Second

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			logger.L().Infow("stats",
				"online", s.GetOnlineCount(),
				"goroutines", runtime.NumGoroutine(),
				"active_conns", len(s.semaphore),
				"max_conns", s.maxConnections,
				"rooms", s.roomManager.RoomCount(),
				"active_games", s.roomManager.GetActiveGamesCount(),
				"alloc_mb", fmt.Sprintf("%.2f", float64(m.Alloc)/1024/1024))
		}
	}
}

// EnterMaintenanceMode 进入维护模式：拒绝新连接、建房和加入
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	// 通知大厅用户
	s.BroadcastToLobby(codec.NewErrorMessage(protocol.ErrCodeServerMaintenance))

	logger.L().Infow("entered maintenance mode")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 等待进行中的对局结束后关闭服务器
func (s *Server) GracefulShutdown(timeout time.Duration) {
	// 1. 进入维护模式
	s.EnterMaintenanceMode()

	// 2. 等待游戏结束
	interval := s.config.Game.ShutdownCheckIntervalDuration()
	if interval <= 0 {
		interval = time.Second
	}
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		activeGames := s.roomManager.GetActiveGamesCount()
		if activeGames == 0 {
			logger.L().Infow("all games finished")
			break
		}
		logger.L().Infow("waiting for games", "active", activeGames)
		<-ticker.C
	}

	// 3. 超时检查
	if activeGames := s.roomManager.GetActiveGamesCount(); activeGames > 0 {
		logger.L().Warnw("shutdown timeout, aborting games", "active", activeGames)
	}

	// 4. 关闭服务器
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Shutdown(ctx)
}

// Shutdown 关闭所有连接和后台组件，可重复调用
func (s *Server) Shutdown(ctx context.Context) {
	s.shutdownOnce.Do(func() {
		close(s.done)

		// 关闭所有客户端连接
		s.clientsMu.RLock()
		for _, client := range s.clients {
			client.Close()
		}
		s.clientsMu.RUnlock()

		s.roomManager.Stop()
		s.publisher.Close()
		s.rateLimiter.Stop()

		if s.redis != nil {
			_ = s.redis.Close()
		}

		// 最后关闭监听，Start 随之返回
		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(ctx); err != nil {
				logger.L().Warnw("http shutdown failed", "error", err)
			}
		}

		logger.L().Infow("server stopped")
	})
}
