package protocol

// 错误码
const (
	ErrCodeUnknown           = 1000
	ErrCodeInvalidMsg        = 1001
	ErrCodeRateLimit         = 1002 // 速率限制
	ErrCodeRoomNotFound      = 2001
	ErrCodeRoomFull          = 2002
	ErrCodeGameStarted       = 2004 // 游戏已开始
	ErrCodeAlreadyInRoom     = 2005 // 已在其他房间
	ErrCodeAlreadyMember     = 2006 // 已是该房间成员
	ErrCodeServerMaintenance = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "unknown error",
	ErrCodeInvalidMsg:        "invalid message",
	ErrCodeRateLimit:         "too many requests",
	ErrCodeRoomNotFound:      "room not found",
	ErrCodeRoomFull:          "room is full",
	ErrCodeGameStarted:       "game already started",
	ErrCodeAlreadyInRoom:     "already in a room",
	ErrCodeAlreadyMember:     "already a member of this room",
	ErrCodeServerMaintenance: "server under maintenance",
}
