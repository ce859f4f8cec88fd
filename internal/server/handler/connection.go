package handler

import (
	"time"

	"github.com/ashwingur/tron-server/internal/logger"
	"github.com/ashwingur/tron-server/internal/protocol"
	"github.com/ashwingur/tron-server/internal/protocol/codec"
	"github.com/ashwingur/tron-server/internal/types"
)

// HandleConnect 新连接：计数并下发连接 ID
func (h *Handler) HandleConnect(client types.ClientInterface) {
	count := h.roomManager.Connect()
	client.SendMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		ConnectionID: client.GetID(),
	}))
	logger.L().Debugw("client connected", "conn", client.GetID(), "connected", count)
}

// HandleDisconnect 连接断开：等同于离开房间，并减少连接数
func (h *Handler) HandleDisconnect(client types.ClientInterface) {
	h.roomManager.Disconnect(client)
	if h.directionLimiter != nil {
		h.directionLimiter.RemoveClient(client.GetID())
	}
	logger.L().Debugw("client disconnected", "conn", client.GetID())
}

// handlePing 处理心跳消息
func (h *Handler) handlePing(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	// 立即回复 pong
	client.SendMessage(codec.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}
