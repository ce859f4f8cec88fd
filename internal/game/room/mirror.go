package room

import (
	"context"
	"sync"

	"github.com/ashwingur/tron-server/internal/logger"
)

// mirrorOp 一次镜像写入；room 为 nil 表示删除
type mirrorOp struct {
	code string
	room *Room
}

// mirror Redis 镜像写入队列，由单个协程按入队顺序执行
type mirror struct {
	mu      sync.Mutex
	pending []mirrorOp
	wake    chan struct{}
}

func newMirror() *mirror {
	return &mirror{wake: make(chan struct{}, 1)}
}

// push 入队，不阻塞（调用方可能持有 rm.mu）
func (m *mirror) push(op mirrorOp) {
	m.mu.Lock()
	m.pending = append(m.pending, op)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *mirror) take() []mirrorOp {
	m.mu.Lock()
	defer m.mu.Unlock()
	ops := m.pending
	m.pending = nil
	return ops
}

// saveAsync 排队保存房间快照
func (rm *RoomManager) saveAsync(room *Room) {
	if !rm.redisStore.Enabled() {
		return
	}
	rm.mirror.push(mirrorOp{code: room.Code, room: room})
}

// deleteAsync 排队删除房间快照，调用方必须先把房间移出 rm.rooms
func (rm *RoomManager) deleteAsync(code string) {
	if !rm.redisStore.Enabled() {
		return
	}
	rm.mirror.push(mirrorOp{code: code})
}

// mirrorLoop 串行执行镜像写入
func (rm *RoomManager) mirrorLoop() {
	for {
		select {
		case <-rm.done:
			return
		case <-rm.mirror.wake:
			for _, op := range rm.mirror.take() {
				rm.applyMirror(op)
			}
		}
	}
}

// applyMirror 执行一次写入。
// 保存前确认房间仍然存活：房间被移除后才会入队删除，所以通过检查的保存一定早于删除落地。
func (rm *RoomManager) applyMirror(op mirrorOp) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if op.room == nil {
		if err := rm.redisStore.DeleteRoom(ctx, op.code); err != nil {
			logger.L().Warnw("delete room snapshot failed", "room", op.code, "error", err)
		}
		return
	}

	rm.mu.RLock()
	live := rm.rooms[op.code] == op.room
	rm.mu.RUnlock()
	if !live {
		return
	}

	// 写入时取最新快照，乱序入队的保存不会用旧名单覆盖新名单
	data := op.room.ToRoomData()
	if err := rm.redisStore.SaveRoom(ctx, op.code, data); err != nil {
		logger.L().Warnw("save room snapshot failed", "room", op.code, "error", err)
	}
}
