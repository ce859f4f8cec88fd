package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/ashwingur/tron-server/internal/config"
	"github.com/ashwingur/tron-server/internal/events"
	"github.com/ashwingur/tron-server/internal/game/room"
	"github.com/ashwingur/tron-server/internal/logger"
	"github.com/ashwingur/tron-server/internal/protocol/codec"
	"github.com/ashwingur/tron-server/internal/server/handler"
	"github.com/ashwingur/tron-server/internal/server/storage"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// Server WebSocket 服务器
type Server struct {
	config      *config.Config
	redis       *redis.Client // 未启用时为 nil
	redisStore  *storage.RedisStore
	publisher   events.Publisher
	roomManager *room.RoomManager
	codec       codec.Codec
	clients     map[string]*Client
	clientsMu   sync.RWMutex
	handler     *handler.Handler
	router      *gin.Engine
	upgrader    websocket.Upgrader
	httpServer  *http.Server

	// 安全组件
	rateLimiter      *RateLimiter
	originChecker    *OriginChecker
	messageLimiter   *MessageRateLimiter
	directionLimiter *DirectionLimiter
	ipFilter         *IPFilter

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	done         chan struct{}
	shutdownOnce sync.Once
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	wire, err := codec.ForFormat(cfg.Server.WireFormat)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    cfg,
		codec:     wire,
		publisher: events.Nop{},
		clients:   make(map[string]*Client),
		// 初始化安全组件
		rateLimiter: NewRateLimiter(
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
		),
		originChecker:    NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter:   NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond),
		directionLimiter: NewDirectionLimiter(cfg.Security.DirectionLimit.MaxPerSecond),
		ipFilter:         NewIPFilter(),
		// 初始化连接控制
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
		done:           make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// 来源在升级前已由 originChecker 校验
		CheckOrigin: func(*http.Request) bool { return true },
	}

	if cfg.Redis.Enabled {
		if err := s.connectRedis(); err != nil {
			s.rateLimiter.Stop()
			return nil, err
		}
	}
	s.redisStore = storage.NewRedisStore(s.redis)

	if cfg.NATS.Enabled {
		publisher, err := events.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			s.rateLimiter.Stop()
			if s.redis != nil {
				_ = s.redis.Close()
			}
			return nil, err
		}
		s.publisher = publisher
	}

	// 初始化房间管理器
	s.roomManager = room.NewRoomManager(s.redisStore, s.publisher,
		room.SettingsFromConfig(cfg.Game), cfg.Game.RoomTimeoutDuration())

	// 初始化消息处理器
	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server:           s,
		RoomManager:      s.roomManager,
		DirectionLimiter: s.directionLimiter,
	})

	s.router = s.newRouter()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.L().Infow("security configured",
		"conn_per_second", cfg.Security.RateLimit.MaxPerSecond,
		"msg_per_second", cfg.Security.MessageLimit.MaxPerSecond,
		"turns_per_second", cfg.Security.DirectionLimit.MaxPerSecond,
		"max_connections", cfg.Server.MaxConnections,
		"wire_format", cfg.Server.WireFormat)

	return s, nil
}

// connectRedis 连接 Redis 并清理上次进程遗留的房间镜像
func (s *Server) connectRedis() error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     s.config.Redis.Addr,
		Password: s.config.Redis.Password,
		DB:       s.config.Redis.DB,
	})

	store := storage.NewRedisStore(rdb)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis 连接失败: %w", err)
	}

	// 房间只存在于内存，重启后的镜像都已失效
	purged, err := store.PurgeRooms(ctx)
	if err != nil {
		logger.L().Warnw("purge stale rooms failed", "error", err)
	} else if purged > 0 {
		logger.L().Infow("purged stale rooms", "count", purged)
	}

	s.redis = rdb
	return nil
}

// newRouter 注册 HTTP 路由
func (s *Server) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ws", func(c *gin.Context) {
		s.handleWebSocket(c.Writer, c.Request)
	})
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)

	return r
}

// Router 返回 HTTP 处理器
func (s *Server) Router() http.Handler {
	return s.router
}

// RoomManager 返回房间目录
func (s *Server) RoomManager() *room.RoomManager {
	return s.roomManager
}

// Start 启动服务器，阻塞直到关闭
func (s *Server) Start() error {
	// 启动监控 goroutine
	go s.monitorStats()

	logger.L().Infow("server listening", "url", fmt.Sprintf("ws://%s/ws", s.httpServer.Addr), "cpus", runtime.NumCPU())
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(c *gin.Context) {
	status := "ok"
	if s.IsMaintenanceMode() {
		status = "maintenance"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"online":       s.GetOnlineCount(),
		"rooms":        s.roomManager.RoomCount(),
		"active_games": s.roomManager.GetActiveGamesCount(),
	})
}

// handleMetrics 每个房间的 tick 指标
func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected": s.roomManager.ConnectedCount(),
		"rooms":     s.roomManager.MetricsSnapshot(),
	})
}
