package room

import (
	"github.com/ashwingur/tron-server/internal/game/tron"
	"github.com/ashwingur/tron-server/internal/protocol"
	"github.com/ashwingur/tron-server/internal/protocol/codec"
)

// broadcastLocked 向房间内所有玩家发送，调用方需持有 r.mu；发送失败由连接层吞掉
func (r *Room) broadcastLocked(msg *protocol.Message) {
	for _, p := range r.Players {
		if p.Client != nil {
			p.Client.SendMessage(msg)
		}
	}
}

func gameStartMessage(info protocol.RoomInfo, countdown int) *protocol.Message {
	return codec.MustNewMessage(protocol.MsgGameStart, protocol.GameStartPayload{
		Room:      info,
		Countdown: countdown,
	})
}

func (r *Room) gameTickMessageLocked() *protocol.Message {
	positions := make(map[string][2]int, len(r.Players))
	for _, p := range r.Players {
		positions[p.ID] = p.Position.Pair()
	}
	return codec.MustNewMessage(protocol.MsgGameTick, protocol.GameTickPayload{Positions: positions})
}

func collisionMessage(c tron.Collision) *protocol.Message {
	return codec.MustNewMessage(protocol.MsgCollision, protocol.CollisionPayload{
		ConnectionID: c.ID,
		Position:     c.Position.Pair(),
	})
}

func gameOverMessage(outcome tron.Outcome, aborted bool) *protocol.Message {
	payload := protocol.GameOverPayload{Tie: outcome.Tie, Aborted: aborted}
	if outcome.Winner != nil {
		payload.Winner = outcome.Winner.ID
		payload.Colour = outcome.Winner.Colour
	}
	return codec.MustNewMessage(protocol.MsgGameOver, payload)
}

// LeaveRoomMessage 离开房间应答 leave_room {}
func LeaveRoomMessage() *protocol.Message {
	return codec.MustNewMessage(protocol.MsgLeaveRoom, protocol.LeaveRoomPayload{})
}
