package types

import (
	"github.com/ashwingur/tron-server/internal/protocol"
)

// ServerInterface 定义服务器接口（用于打破循环依赖）
type ServerInterface interface {
	IsMaintenanceMode() bool
	GetOnlineCount() int
}

// ClientInterface 定义客户端接口
type ClientInterface interface {
	GetID() string
	SendMessage(msg *protocol.Message)
	Close()
}

// DirectionLimiter 转向速率限制器接口
type DirectionLimiter interface {
	AllowDirection(clientID string) bool
	RemoveClient(clientID string)
}
