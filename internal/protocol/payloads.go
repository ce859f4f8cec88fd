package protocol

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// CreateRoomPayload 创建房间请求
type CreateRoomPayload struct {
	MaxPlayers int `json:"max_players"`
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomCode string `json:"room_code"`
}

// ChangeDirectionPayload 转向请求
type ChangeDirectionPayload struct {
	RoomCode  string `json:"room_code"`
	Direction string `json:"direction"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// JoinRoomResultPayload create_room / join_room 的应答
type JoinRoomResultPayload struct {
	Success   bool      `json:"success"`
	Room      *RoomInfo `json:"room,omitempty"`
	Error     string    `json:"error,omitempty"`
	ErrorCode int       `json:"error_code,omitempty"`
}

// LeaveRoomPayload 离开房间应答（空对象）
type LeaveRoomPayload struct{}

// AvailableRoomsPayload 房间列表应答
type AvailableRoomsPayload struct {
	Rooms          []RoomInfo `json:"rooms"`
	ConnectedUsers int        `json:"connected_users"`
}

// RoomInfo 房间序列化结构
type RoomInfo struct {
	MaxPlayers  int          `json:"max_players"`
	RoomCode    string       `json:"room_code"`
	GameStarted bool         `json:"game_started"`
	GridSize    int          `json:"grid_size"`
	Players     []PlayerInfo `json:"players"`
}

// PlayerInfo 玩家信息
type PlayerInfo struct {
	ConnectionID string `json:"connection_id"`
	Colour       string `json:"colour"`
	Position     [2]int `json:"position"`
	Direction    string `json:"direction"`
}

// --- 房间广播 Payloads ---

// GameStartPayload 开局倒计时
type GameStartPayload struct {
	Room      RoomInfo `json:"room"`
	Countdown int      `json:"countdown"`
}

// GameTickPayload 每帧所有玩家位置
type GameTickPayload struct {
	Positions map[string][2]int `json:"positions"`
}

// CollisionPayload 碰撞事件
type CollisionPayload struct {
	ConnectionID string `json:"connection_id"`
	Position     [2]int `json:"position"`
}

// GameOverPayload 游戏结束
type GameOverPayload struct {
	Winner  string `json:"winner,omitempty"`
	Colour  string `json:"colour,omitempty"`
	Tie     bool   `json:"tie,omitempty"`
	Aborted bool   `json:"aborted,omitempty"`
}

// ErrorPayload 错误消息
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
