package room

import (
	"time"

	"github.com/ashwingur/tron-server/internal/protocol"
	"github.com/ashwingur/tron-server/internal/server/storage"
)

// ToRoomInfo 序列化为客户端使用的房间结构
func (r *Room) ToRoomInfo() protocol.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.toRoomInfoLocked()
}

func (r *Room) toRoomInfoLocked() protocol.RoomInfo {
	info := protocol.RoomInfo{
		MaxPlayers:  r.MaxPlayers,
		RoomCode:    r.Code,
		GameStarted: r.State != StateLobby,
		GridSize:    r.settings.GridSize,
		Players:     make([]protocol.PlayerInfo, 0, len(r.Players)),
	}
	for _, p := range r.Players {
		info.Players = append(info.Players, protocol.PlayerInfo{
			ConnectionID: p.ID,
			Colour:       p.Colour,
			Position:     p.Position.Pair(),
			Direction:    p.Direction.String(),
		})
	}
	return info
}

// ToRoomData 将 Room 转换为可序列化的 RoomData
func (r *Room) ToRoomData() *storage.RoomData {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data := &storage.RoomData{
		Code:       r.Code,
		State:      r.State.String(),
		MaxPlayers: r.MaxPlayers,
		GridSize:   r.settings.GridSize,
		Players:    make([]storage.PlayerData, 0, len(r.Players)),
		CreatedAt:  r.CreatedAt.Unix(),
		UpdatedAt:  time.Now().Unix(),
	}

	for _, p := range r.Players {
		data.Players = append(data.Players, storage.PlayerData{
			ID:     p.ID,
			Seat:   p.Seat,
			Colour: p.Colour,
			Alive:  p.Alive,
		})
	}
	return data
}

// playerIDs 按加入顺序返回玩家 ID
func (r *Room) playerIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.ID
	}
	return ids
}
