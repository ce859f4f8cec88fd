package room

import (
	"math"
	"sync"
	"time"

	"github.com/ashwingur/tron-server/internal/config"
	"github.com/ashwingur/tron-server/internal/game/tron"
	"github.com/ashwingur/tron-server/internal/types"
)

const (
	roomCodeLength = 4                                      // 房间号长度
	roomCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" // 房间号字符集
)

// Settings 房间创建时固定下来的游戏参数
type Settings struct {
	GridSize          int
	TickInterval      time.Duration
	Countdown         time.Duration
	EndGrace          time.Duration
	DefaultMaxPlayers int
}

// SettingsFromConfig 从配置构建房间参数
func SettingsFromConfig(c config.GameConfig) Settings {
	return Settings{
		GridSize:          c.GridSize,
		TickInterval:      c.TickIntervalDuration(),
		Countdown:         c.CountdownDuration(),
		EndGrace:          c.EndGraceDuration(),
		DefaultMaxPlayers: c.DefaultMaxPlayers,
	}
}

// countdownSeconds 下发给客户端的倒计时秒数
func (s Settings) countdownSeconds() int {
	return int(math.Ceil(s.Countdown.Seconds()))
}

// RoomPlayer 房间中的玩家
type RoomPlayer struct {
	Client types.ClientInterface
	*tron.Player
}

// Room 游戏房间
type Room struct {
	Code       string        // 房间号
	MaxPlayers int           // 人数上限 [2,4]
	State      RoomState     // 房间状态
	Players    []*RoomPlayer // 玩家列表（按加入顺序）
	CreatedAt  time.Time     // 创建时间

	settings Settings
	grid     *tron.Grid // 开局时才分配
	metrics  *Metrics
	ticks    int64
	outcome  tron.Outcome
	aborted  bool

	stepFn   func(*tron.Grid, []*tron.Player) []tron.Collision
	stop     chan struct{}
	stopOnce sync.Once

	mu sync.RWMutex
}

func newRoom(code string, maxPlayers int, settings Settings) *Room {
	settings.GridSize = tron.ClampGridSize(settings.GridSize)
	return &Room{
		Code:       code,
		MaxPlayers: maxPlayers,
		State:      StateLobby,
		Players:    make([]*RoomPlayer, 0, maxPlayers),
		CreatedAt:  time.Now(),
		settings:   settings,
		metrics:    &Metrics{},
		stepFn:     tron.Step,
		stop:       make(chan struct{}),
	}
}

// Stop 通知房间循环退出，可重复调用
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Room) stopped() bool {
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

// Metrics 房间运行指标
func (r *Room) Metrics() *Metrics {
	return r.metrics
}

// GetState 获取房间状态
func (r *Room) GetState() RoomState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.State
}

// PlayerCount 当前人数
func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Players)
}

// HasPlayer 是否包含该连接
func (r *Room) HasPlayer(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findLocked(id) != nil
}

func (r *Room) findLocked(id string) *RoomPlayer {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) addPlayerLocked(client types.ClientInterface) *RoomPlayer {
	p := &RoomPlayer{
		Client: client,
		Player: tron.NewPlayer(client.GetID(), len(r.Players)),
	}
	r.Players = append(r.Players, p)
	return p
}

func (r *Room) removePlayerLocked(id string) bool {
	for i, p := range r.Players {
		if p.ID == id {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return true
		}
	}
	return false
}

// simulated 参与模拟的玩家，已离开的玩家不在名单中
func (r *Room) simulated() []*tron.Player {
	players := make([]*tron.Player, len(r.Players))
	for i, p := range r.Players {
		players[i] = p.Player
	}
	return players
}

// startLocked LOBBY → COUNTDOWN：分配网格、按座位摆放并广播 game_start
func (r *Room) startLocked() {
	r.grid = tron.NewGrid(r.settings.GridSize)
	tron.Place(r.grid, r.simulated())
	r.State = StateCountdown
	r.broadcastLocked(gameStartMessage(r.toRoomInfoLocked(), r.settings.countdownSeconds()))
}

// changeDirection 仅在 RUNNING 且玩家存活时生效，其他情况静默忽略
func (r *Room) changeDirection(id string, d tron.Direction) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State != StateRunning {
		r.metrics.IncIgnored()
		return false
	}
	p := r.findLocked(id)
	if p == nil || !p.RequestDirection(d) {
		r.metrics.IncIgnored()
		return false
	}
	r.metrics.IncAccepted()
	return true
}
