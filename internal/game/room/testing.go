//go:build !production

package room

import (
	"time"

	"github.com/ashwingur/tron-server/internal/types"
)

// TestSettings 测试用的短时参数
func TestSettings() Settings {
	return Settings{
		GridSize:          20,
		TickInterval:      5 * time.Millisecond,
		Countdown:         20 * time.Millisecond,
		EndGrace:          30 * time.Millisecond,
		DefaultMaxPlayers: 2,
	}
}

// NewRunningRoomForTest 创建已开局并处于 RUNNING 的房间，不启动房间循环，由测试手动推进
func NewRunningRoomForTest(code string, settings Settings, clients ...types.ClientInterface) *Room {
	room := newRoom(code, max(len(clients), 2), settings)
	room.mu.Lock()
	defer room.mu.Unlock()
	for _, c := range clients {
		room.addPlayerLocked(c)
	}
	room.startLocked()
	room.State = StateRunning
	return room
}

// AddRoomForTest 添加房间用于测试，同时登记成员索引
func (rm *RoomManager) AddRoomForTest(room *Room) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.rooms[room.Code] = room
	room.mu.RLock()
	defer room.mu.RUnlock()
	for _, p := range room.Players {
		rm.playerRoom[p.ID] = room.Code
	}
}

// Tick 手动推进一帧
func (r *Room) Tick() bool {
	return r.safeTick()
}
