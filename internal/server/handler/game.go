package handler

import (
	"github.com/ashwingur/tron-server/internal/protocol"
	"github.com/ashwingur/tron-server/internal/protocol/codec"
	"github.com/ashwingur/tron-server/internal/types"
)

// handleChangeDirection 处理转向，没有应答，格式错误或被限流都直接丢弃
func (h *Handler) handleChangeDirection(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.ChangeDirectionPayload](msg)
	if err != nil {
		return
	}

	if h.directionLimiter != nil && !h.directionLimiter.AllowDirection(client.GetID()) {
		return
	}

	h.roomManager.ChangeDirection(client, payload.RoomCode, payload.Direction)
}
