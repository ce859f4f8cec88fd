package handler

import (
	"errors"

	"github.com/ashwingur/tron-server/internal/apperrors"
	"github.com/ashwingur/tron-server/internal/game/room"
	"github.com/ashwingur/tron-server/internal/protocol"
	"github.com/ashwingur/tron-server/internal/protocol/codec"
	"github.com/ashwingur/tron-server/internal/types"
)

// handleCreateRoom 处理创建房间，应答 join_room
func (h *Handler) handleCreateRoom(client types.ClientInterface, msg *protocol.Message) {
	// 维护模式检查
	if h.server.IsMaintenanceMode() {
		sendJoinFailure(client, protocol.ErrCodeServerMaintenance, "Server under maintenance, no new rooms")
		return
	}

	payload, err := codec.ParsePayload[protocol.CreateRoomPayload](msg)
	if err != nil {
		sendJoinFailure(client, protocol.ErrCodeInvalidMsg, protocol.ErrorMessages[protocol.ErrCodeInvalidMsg])
		return
	}

	r, err := h.roomManager.CreateRoom(client, payload.MaxPlayers)
	if err != nil {
		sendJoinError(client, err)
		return
	}

	sendJoinSuccess(client, r)
}

// handleJoinRoom 处理加入房间。先应答 join_room，满员再开局，保证 game_start 在应答之后
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	// 维护模式检查
	if h.server.IsMaintenanceMode() {
		sendJoinFailure(client, protocol.ErrCodeServerMaintenance, "Server under maintenance, joining is paused")
		return
	}

	payload, err := codec.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil || payload.RoomCode == "" {
		sendJoinFailure(client, protocol.ErrCodeInvalidMsg, protocol.ErrorMessages[protocol.ErrCodeInvalidMsg])
		return
	}

	r, err := h.roomManager.JoinRoom(client, payload.RoomCode)
	if err != nil {
		sendJoinError(client, err)
		return
	}

	sendJoinSuccess(client, r)
	h.roomManager.StartIfFull(r)
}

// handleLeaveRoom 处理离开房间
func (h *Handler) handleLeaveRoom(client types.ClientInterface) {
	h.roomManager.LeaveRoom(client)
	client.SendMessage(room.LeaveRoomMessage())
}

func sendJoinSuccess(client types.ClientInterface, r *room.Room) {
	info := r.ToRoomInfo()
	client.SendMessage(codec.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomResultPayload{
		Success: true,
		Room:    &info,
	}))
}

func sendJoinError(client types.ClientInterface, err error) {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		sendJoinFailure(client, gameErr.Code, gameErr.Message)
		return
	}
	sendJoinFailure(client, protocol.ErrCodeUnknown, err.Error())
}

func sendJoinFailure(client types.ClientInterface, code int, text string) {
	client.SendMessage(codec.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomResultPayload{
		Success:   false,
		Error:     text,
		ErrorCode: code,
	}))
}
