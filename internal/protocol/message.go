package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgCreateRoom     MessageType = "create_room"     // 创建房间
	MsgJoinRoom       MessageType = "join_room"       // 加入房间（同名事件也用作应答）
	MsgLeaveRoom      MessageType = "leave_room"      // 离开房间（同名事件也用作应答/清退通知）
	MsgAvailableRooms MessageType = "available_rooms" // 房间列表（同名事件也用作应答）

	// 游戏操作
	MsgChangeDirection MessageType = "change_direction" // 转向
)

// 服务端 → 客户端 消息类型
const (
	MsgConnected MessageType = "connected" // 连接成功，携带连接 ID
	MsgPong      MessageType = "pong"      // 心跳 pong

	// 游戏流程（房间广播）
	MsgGameStart MessageType = "game_start" // 开始倒计时
	MsgGameTick  MessageType = "game_tick"  // 每帧位置
	MsgCollision MessageType = "collision"  // 撞墙/撞轨迹
	MsgGameOver  MessageType = "game_over"  // 游戏结束

	// 错误
	MsgError MessageType = "error" // 错误消息
)
