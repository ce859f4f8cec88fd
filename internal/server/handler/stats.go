package handler

import (
	"github.com/ashwingur/tron-server/internal/protocol"
	"github.com/ashwingur/tron-server/internal/protocol/codec"
	"github.com/ashwingur/tron-server/internal/types"
)

// handleAvailableRooms 房间列表和当前连接数
func (h *Handler) handleAvailableRooms(client types.ClientInterface) {
	client.SendMessage(codec.MustNewMessage(protocol.MsgAvailableRooms, protocol.AvailableRoomsPayload{
		Rooms:          h.roomManager.ListRooms(),
		ConnectedUsers: h.roomManager.ConnectedCount(),
	}))
}
