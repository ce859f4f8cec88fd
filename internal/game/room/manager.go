package room

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ashwingur/tron-server/internal/apperrors"
	"github.com/ashwingur/tron-server/internal/events"
	"github.com/ashwingur/tron-server/internal/game/tron"
	"github.com/ashwingur/tron-server/internal/logger"
	"github.com/ashwingur/tron-server/internal/protocol"
	"github.com/ashwingur/tron-server/internal/server/storage"
	"github.com/ashwingur/tron-server/internal/types"
)

const (
	cleanupInterval = time.Minute
	storeTimeout    = 3 * time.Second
)

// RoomManager 房间管理器
// 锁顺序：先 rm.mu 再 room.mu，不能反过来
type RoomManager struct {
	redisStore  *storage.RedisStore
	publisher   events.Publisher
	settings    Settings
	roomTimeout time.Duration

	rooms      map[string]*Room  // 房间号 → 房间
	playerRoom map[string]string // 连接 ID → 房间号
	connected  int

	mirror   *mirror
	done     chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
}

// NewRoomManager 创建房间管理器
func NewRoomManager(rs *storage.RedisStore, publisher events.Publisher, settings Settings, roomTimeout time.Duration) *RoomManager {
	if publisher == nil {
		publisher = events.Nop{}
	}
	rm := &RoomManager{
		redisStore:  rs,
		publisher:   publisher,
		settings:    settings,
		roomTimeout: roomTimeout,
		rooms:       make(map[string]*Room),
		playerRoom:  make(map[string]string),
		mirror:      newMirror(),
		done:        make(chan struct{}),
	}

	if rs.Enabled() {
		go rm.mirrorLoop()
	}

	// 启动房间清理协程
	go rm.cleanupLoop()

	return rm
}

// Stop 停止清理协程和所有房间循环
func (rm *RoomManager) Stop() {
	rm.stopOnce.Do(func() {
		close(rm.done)
		rm.mu.RLock()
		defer rm.mu.RUnlock()
		for _, room := range rm.rooms {
			room.Stop()
		}
	})
}

// UpdateSettings 更新游戏参数，只影响之后创建的房间
func (rm *RoomManager) UpdateSettings(s Settings) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.settings = s
}

// Settings 当前游戏参数
func (rm *RoomManager) Settings() Settings {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.settings
}

// Connect 记录一个新连接，返回当前连接数
func (rm *RoomManager) Connect() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.connected++
	return rm.connected
}

// Disconnect 连接断开：离开所在房间并减少连接数
func (rm *RoomManager) Disconnect(client types.ClientInterface) {
	rm.LeaveRoom(client)

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.connected > 0 {
		rm.connected--
	}
}

// ConnectedCount 当前连接数
func (rm *RoomManager) ConnectedCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.connected
}

// CreateRoom 创建房间，创建者成为唯一成员
func (rm *RoomManager) CreateRoom(client types.ClientInterface, maxPlayers int) (*Room, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	id := client.GetID()
	if _, inRoom := rm.playerRoom[id]; inRoom {
		return nil, apperrors.ErrAlreadyInRoom
	}

	if maxPlayers <= 0 {
		maxPlayers = rm.settings.DefaultMaxPlayers
	}

	code := rm.generateRoomCode()
	room := newRoom(code, tron.ClampSeats(maxPlayers), rm.settings)
	room.addPlayerLocked(client)

	rm.rooms[code] = room
	rm.playerRoom[id] = code

	rm.saveAsync(room)
	rm.publisher.Publish(events.Event{Type: events.RoomCreated, Room: code, Players: []string{id}})

	logger.L().Infow("room created", "room", code, "conn", id, "max_players", room.MaxPlayers)

	return room, nil
}

// JoinRoom 加入房间。满员后由调用方在应答之后调用 StartIfFull
func (rm *RoomManager) JoinRoom(client types.ClientInterface, code string) (*Room, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	id := client.GetID()
	if _, inRoom := rm.playerRoom[id]; inRoom {
		return nil, apperrors.ErrAlreadyInRoom
	}

	room, exists := rm.rooms[normalizeCode(code)]
	if !exists {
		return nil, apperrors.ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if len(room.Players) >= room.MaxPlayers {
		return nil, apperrors.ErrRoomFull
	}
	if room.State != StateLobby {
		return nil, apperrors.ErrGameStarted
	}
	if room.findLocked(id) != nil {
		return nil, apperrors.ErrAlreadyMember
	}

	room.addPlayerLocked(client)
	rm.playerRoom[id] = room.Code
	rm.saveAsync(room)

	logger.L().Infow("player joined", "room", room.Code, "conn", id, "players", len(room.Players))

	return room, nil
}

// StartIfFull 人数达到上限时开局：LOBBY → COUNTDOWN，并启动房间循环
func (rm *RoomManager) StartIfFull(room *Room) bool {
	room.mu.Lock()
	if room.State != StateLobby || len(room.Players) != room.MaxPlayers || room.stopped() {
		room.mu.Unlock()
		return false
	}
	room.startLocked()
	room.mu.Unlock()

	rm.saveAsync(room)
	rm.publisher.Publish(events.Event{Type: events.GameStarted, Room: room.Code, Players: room.playerIDs()})

	logger.L().Infow("game starting", "room", room.Code, "countdown", room.settings.Countdown)

	go rm.runRoom(room)
	return true
}

// LeaveRoom 离开所在房间，房间空了则销毁。返回是否确实在房间中
func (rm *RoomManager) LeaveRoom(client types.ClientInterface) bool {
	id := client.GetID()

	rm.mu.Lock()
	code, inRoom := rm.playerRoom[id]
	if !inRoom {
		rm.mu.Unlock()
		return false
	}
	delete(rm.playerRoom, id)

	room, exists := rm.rooms[code]
	if !exists {
		rm.mu.Unlock()
		return true
	}

	room.mu.Lock()
	room.removePlayerLocked(id)
	empty := len(room.Players) == 0
	state := room.State
	if empty {
		// 在房间锁内关闭，下一帧一定能看到
		room.Stop()
	}
	room.mu.Unlock()

	if empty {
		delete(rm.rooms, code)
	}
	rm.mu.Unlock()

	logger.L().Infow("player left", "room", code, "conn", id, "state", state.String())

	if empty {
		rm.deleteAsync(code)
		rm.publisher.Publish(events.Event{Type: events.RoomClosed, Room: code})
		logger.L().Infow("room destroyed", "room", code, "reason", "empty")
	} else {
		rm.saveAsync(room)
	}
	return true
}

// ChangeDirection 转向请求，非法请求静默忽略
func (rm *RoomManager) ChangeDirection(client types.ClientInterface, code, direction string) bool {
	id := client.GetID()

	rm.mu.RLock()
	roomCode, inRoom := rm.playerRoom[id]
	room := rm.rooms[roomCode]
	rm.mu.RUnlock()

	if !inRoom || room == nil {
		return false
	}
	if code != "" && normalizeCode(code) != roomCode {
		return false
	}
	d, ok := tron.ParseDirection(direction)
	if !ok {
		room.metrics.IncIgnored()
		return false
	}
	return room.changeDirection(id, d)
}

// GetRoom 获取房间
func (rm *RoomManager) GetRoom(code string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[normalizeCode(code)]
}

// GetRoomByPlayerID 通过连接 ID 获取房间
func (rm *RoomManager) GetRoomByPlayerID(playerID string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	code, ok := rm.playerRoom[playerID]
	if !ok {
		return nil
	}
	return rm.rooms[code]
}

// ListRooms 所有存活房间的快照（按创建时间排序）
func (rm *RoomManager) ListRooms() []protocol.RoomInfo {
	rm.mu.RLock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	rm.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})

	list := make([]protocol.RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		list = append(list, room.ToRoomInfo())
	}
	return list
}

// RoomCount 存活房间数
func (rm *RoomManager) RoomCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// GetActiveGamesCount 获取进行中的游戏数量
func (rm *RoomManager) GetActiveGamesCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	count := 0
	for _, room := range rm.rooms {
		room.mu.RLock()
		// ENDED 不计入，只是在等待清理
		switch room.State {
		case StateCountdown, StateRunning:
			count++
		}
		room.mu.RUnlock()
	}
	return count
}

// MetricsSnapshot 每个房间的运行指标
func (rm *RoomManager) MetricsSnapshot() map[string]map[string]any {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	out := make(map[string]map[string]any, len(rm.rooms))
	for code, room := range rm.rooms {
		snap := room.metrics.Snapshot()
		room.mu.RLock()
		snap["state"] = room.State.String()
		snap["players"] = len(room.Players)
		room.mu.RUnlock()
		out[code] = snap
	}
	return out
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
