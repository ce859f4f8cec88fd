package server

import (
	"net/http"

	"github.com/ashwingur/tron-server/internal/logger"
)

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// 获取真实客户端IP
	clientIP := GetClientIP(r)

	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		logger.L().Infow("maintenance, connection refused", "ip", clientIP)
		http.Error(w, "Server is under maintenance, please try again later",
			http.StatusServiceUnavailable)
		return
	}

	// 连接数限制检查，连接断开时释放
	select {
	case s.semaphore <- struct{}{}:
	default:
		logger.L().Warnw("connection limit reached", "max", s.maxConnections, "ip", clientIP)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}
	accepted := false
	defer func() {
		if !accepted {
			<-s.semaphore
		}
	}()

	// IP 过滤检查
	if !s.ipFilter.IsAllowed(clientIP) {
		logger.L().Warnw("ip rejected by filter", "ip", clientIP)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	// 来源验证
	if !s.originChecker.Check(r) {
		logger.L().Warnw("origin rejected", "origin", r.Header.Get("Origin"), "ip", clientIP)
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	// 速率限制检查
	if !s.rateLimiter.Allow(clientIP) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L().Warnw("websocket upgrade failed", "ip", clientIP, "error", err)
		return
	}
	accepted = true

	client := NewClient(s, conn)
	client.IP = clientIP
	s.registerClient(client)

	s.handler.HandleConnect(client)
	logger.L().Infow("client connected", "conn", client.ID, "ip", clientIP)

	// 启动客户端读写协程
	go client.ReadPump()
	go client.WritePump()
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

// unregisterClient 注销客户端并释放连接名额
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	_, ok := s.clients[client.ID]
	delete(s.clients, client.ID)
	s.clientsMu.Unlock()

	if ok {
		select {
		case <-s.semaphore:
		default:
		}
		logger.L().Infow("client disconnected", "conn", client.ID, "ip", client.IP)
	}
}
