package room

import (
	"math/rand/v2"
	"time"

	"github.com/ashwingur/tron-server/internal/events"
	"github.com/ashwingur/tron-server/internal/game/tron"
	"github.com/ashwingur/tron-server/internal/logger"
)

// runRoom 房间协程：倒计时、逐帧推进、结束后等待宽限期再清理
func (rm *RoomManager) runRoom(room *Room) {
	if !room.run() {
		logger.L().Infow("room loop stopped", "room", room.Code)
		return
	}

	rm.onGameOver(room)

	grace := time.NewTimer(room.settings.EndGrace)
	defer grace.Stop()
	select {
	case <-room.stop:
		return
	case <-grace.C:
	}

	rm.finishRoom(room)
}

// run 返回 true 表示游戏正常结束，false 表示房间在结束前被销毁
func (r *Room) run() bool {
	countdown := time.NewTimer(r.settings.Countdown)
	defer countdown.Stop()

	select {
	case <-r.stop:
		return false
	case <-countdown.C:
	}

	r.mu.Lock()
	if r.State != StateCountdown || r.stopped() {
		r.mu.Unlock()
		return false
	}
	r.State = StateRunning
	r.mu.Unlock()

	ticker := time.NewTicker(r.settings.TickInterval)
	defer ticker.Stop()

	for {
		// 优先检查停止信号
		select {
		case <-r.stop:
			return false
		default:
		}

		select {
		case <-r.stop:
			return false
		case <-ticker.C:
			if r.safeTick() {
				return !r.stopped()
			}
		}
	}
}

// safeTick 单帧 panic 只终止本房间，按平局中止处理
func (r *Room) safeTick() (over bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.LogPanic(rec)
			logger.L().Errorw("room tick panicked, aborting game", "room", r.Code)
			r.abort()
			over = true
		}
	}()
	return r.tick()
}

// tick 推进一帧，返回游戏是否结束
func (r *Room) tick() bool {
	start := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped() || r.State != StateRunning {
		return true
	}

	// 中途离开的玩家可能已经让游戏分出胜负
	players := r.simulated()
	if outcome := tron.Decide(players); outcome.Over {
		r.endLocked(outcome, false)
		return true
	}

	collisions := r.stepFn(r.grid, players)
	r.ticks++

	r.broadcastLocked(r.gameTickMessageLocked())
	for _, c := range collisions {
		r.broadcastLocked(collisionMessage(c))
	}
	r.metrics.AddTick(time.Since(start))

	if outcome := tron.Decide(players); outcome.Over {
		r.endLocked(outcome, false)
		return true
	}
	return false
}

func (r *Room) endLocked(outcome tron.Outcome, aborted bool) {
	r.State = StateEnded
	r.outcome = outcome
	r.aborted = aborted
	r.broadcastLocked(gameOverMessage(outcome, aborted))
}

// abort 异常终止：广播平局并进入 ENDED
func (r *Room) abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State == StateEnded {
		return
	}
	r.endLocked(tron.Outcome{Over: true, Tie: true}, true)
}

// result 终局信息
func (r *Room) result() events.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev := events.Event{
		Type:    events.GameOver,
		Room:    r.Code,
		Tie:     r.outcome.Tie,
		Aborted: r.aborted,
		Ticks:   r.ticks,
	}
	if r.outcome.Winner != nil {
		ev.Winner = r.outcome.Winner.ID
	}
	for _, p := range r.Players {
		ev.Players = append(ev.Players, p.ID)
	}
	return ev
}

func (rm *RoomManager) onGameOver(room *Room) {
	ev := room.result()
	rm.saveAsync(room)
	rm.publisher.Publish(ev)
	logger.L().Infow("game over",
		"room", room.Code,
		"winner", ev.Winner,
		"tie", ev.Tie,
		"aborted", ev.Aborted,
		"ticks", ev.Ticks,
	)
}

// finishRoom 宽限期结束：通知剩余成员离开并移除房间
func (rm *RoomManager) finishRoom(room *Room) {
	rm.mu.Lock()
	if rm.rooms[room.Code] != room {
		rm.mu.Unlock()
		return
	}
	delete(rm.rooms, room.Code)

	room.mu.Lock()
	members := room.Players
	room.Players = nil
	room.Stop()
	room.mu.Unlock()

	for _, p := range members {
		if rm.playerRoom[p.ID] == room.Code {
			delete(rm.playerRoom, p.ID)
		}
	}
	rm.mu.Unlock()

	msg := LeaveRoomMessage()
	for _, p := range members {
		if p.Client != nil {
			p.Client.SendMessage(msg)
		}
	}

	rm.deleteAsync(room.Code)
	rm.publisher.Publish(events.Event{Type: events.RoomClosed, Room: room.Code})
	logger.L().Infow("room destroyed", "room", room.Code, "reason", "finished")
}

// generateRoomCode 生成房间号，调用方需持有 rm.mu
func (rm *RoomManager) generateRoomCode() string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = roomCodeChars[rand.IntN(len(roomCodeChars))]
		}
		codeStr := string(code)
		if _, exists := rm.rooms[codeStr]; !exists {
			return codeStr
		}
	}
}

// cleanupLoop 定期清理超时房间
func (rm *RoomManager) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rm.done:
			return
		case <-ticker.C:
			rm.cleanup()
		}
	}
}

// cleanup 关闭在大厅里停留过久的房间
func (rm *RoomManager) cleanup() {
	type expired struct {
		code    string
		members []*RoomPlayer
	}
	var closed []expired

	rm.mu.Lock()
	now := time.Now()
	for code, room := range rm.rooms {
		room.mu.Lock()
		// 只清理等待状态且超时的房间
		if room.State == StateLobby && now.Sub(room.CreatedAt) > rm.roomTimeout {
			closed = append(closed, expired{code: code, members: room.Players})
			room.Players = nil
			room.Stop()
		}
		room.mu.Unlock()
	}
	for _, e := range closed {
		delete(rm.rooms, e.code)
		for _, p := range e.members {
			delete(rm.playerRoom, p.ID)
		}
	}
	rm.mu.Unlock()

	msg := LeaveRoomMessage()
	for _, e := range closed {
		for _, p := range e.members {
			p.Client.SendMessage(msg)
		}
		rm.deleteAsync(e.code)
		rm.publisher.Publish(events.Event{Type: events.RoomClosed, Room: e.code})
		logger.L().Infow("room destroyed", "room", e.code, "reason", "lobby timeout")
	}
}
