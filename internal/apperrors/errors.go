package apperrors

import (
	"errors"

	"github.com/ashwingur/tron-server/internal/protocol"
)

// GameError 游戏错误（房间管理与处理器共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRoomNotFound  = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: "Room not found"}
	ErrRoomFull      = &GameError{Code: protocol.ErrCodeRoomFull, Message: "Room is full"}
	ErrGameStarted   = &GameError{Code: protocol.ErrCodeGameStarted, Message: "Game already started"}
	ErrAlreadyInRoom = &GameError{Code: protocol.ErrCodeAlreadyInRoom, Message: "Already in a room"}
	ErrAlreadyMember = &GameError{Code: protocol.ErrCodeAlreadyMember, Message: "Already a member of this room"}
)

// Code 提取错误码，非 GameError 返回 ErrCodeUnknown
func Code(err error) int {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return protocol.ErrCodeUnknown
}
