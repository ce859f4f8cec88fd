package handler

import (
	"github.com/ashwingur/tron-server/internal/game/room"
	"github.com/ashwingur/tron-server/internal/logger"
	"github.com/ashwingur/tron-server/internal/protocol"
	"github.com/ashwingur/tron-server/internal/protocol/codec"
	"github.com/ashwingur/tron-server/internal/types"
)

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server           types.ServerInterface
	RoomManager      *room.RoomManager
	DirectionLimiter types.DirectionLimiter
}

// Handler 消息处理器
type Handler struct {
	server           types.ServerInterface
	roomManager      *room.RoomManager
	directionLimiter types.DirectionLimiter
	handlers         map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server:           deps.Server,
		roomManager:      deps.RoomManager,
		directionLimiter: deps.DirectionLimiter,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgCreateRoom: h.handleCreateRoom,
		protocol.MsgJoinRoom:   h.handleJoinRoom,
		protocol.MsgLeaveRoom:  func(c types.ClientInterface, _ *protocol.Message) { h.handleLeaveRoom(c) },

		// 游戏操作
		protocol.MsgChangeDirection: h.handleChangeDirection,

		// 信息查询
		protocol.MsgAvailableRooms: func(c types.ClientInterface, _ *protocol.Message) { h.handleAvailableRooms(c) },
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	logger.L().Warnw("unknown message type", "type", msg.Type, "conn", client.GetID(), "payload_bytes", len(msg.Payload))
	client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}
