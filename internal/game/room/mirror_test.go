package room

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwingur/tron-server/internal/server/storage"
	"github.com/ashwingur/tron-server/internal/testutil"
)

const testRoomKeyPrefix = "tron:room:"

func newMirroredManager(t *testing.T, settings Settings) (*RoomManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rm := NewRoomManager(storage.NewRedisStore(rdb), nil, settings, 10*time.Minute)
	t.Cleanup(rm.Stop)
	return rm, mr
}

// mirroredRoom 读取镜像中的房间快照，不存在返回 nil
func mirroredRoom(mr *miniredis.Miniredis, code string) *storage.RoomData {
	raw, err := mr.Get(testRoomKeyPrefix + code)
	if err != nil {
		return nil
	}
	var data storage.RoomData
	if json.Unmarshal([]byte(raw), &data) != nil {
		return nil
	}
	return &data
}

func mirroredPlayers(mr *miniredis.Miniredis, code string) []string {
	data := mirroredRoom(mr, code)
	if data == nil {
		return nil
	}
	ids := make([]string, 0, len(data.Players))
	for _, p := range data.Players {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestMirror_DestroyedRoomsLeaveNoKeys(t *testing.T) {
	t.Parallel()

	rm, mr := newMirroredManager(t, TestSettings())

	for i := range 300 {
		host := testutil.NewSimpleClient(fmt.Sprintf("host-%d", i))
		guest := testutil.NewSimpleClient(fmt.Sprintf("guest-%d", i))

		room, err := rm.CreateRoom(host, 3)
		require.NoError(t, err)
		_, err = rm.JoinRoom(guest, room.Code)
		require.NoError(t, err)
		require.True(t, rm.LeaveRoom(host))
		require.True(t, rm.LeaveRoom(guest))
	}

	// 写入按顺序执行，哨兵房间落地说明之前的写入都已完成
	sentinel, err := rm.CreateRoom(testutil.NewSimpleClient("sentinel"), 2)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return mirroredRoom(mr, sentinel.Code) != nil
	}, 3*time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{testRoomKeyPrefix + sentinel.Code}, mr.Keys())
}

func TestMirror_TracksRoster(t *testing.T) {
	t.Parallel()

	rm, mr := newMirroredManager(t, TestSettings())
	host := testutil.NewSimpleClient("host")
	guest := testutil.NewSimpleClient("guest")

	room, err := rm.CreateRoom(host, 3)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"host"}, mirroredPlayers(mr, room.Code))
	}, 3*time.Second, 5*time.Millisecond)

	// 未满员的加入也要刷新镜像
	_, err = rm.JoinRoom(guest, room.Code)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"host", "guest"}, mirroredPlayers(mr, room.Code))
	}, 3*time.Second, 5*time.Millisecond)

	data := mirroredRoom(mr, room.Code)
	require.NotNil(t, data)
	assert.Equal(t, StateLobby.String(), data.State)
	assert.Equal(t, 3, data.MaxPlayers)

	require.True(t, rm.LeaveRoom(host))
	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"guest"}, mirroredPlayers(mr, room.Code))
	}, 3*time.Second, 5*time.Millisecond)

	require.True(t, rm.LeaveRoom(guest))
	assert.Eventually(t, func() bool {
		return !mr.Exists(testRoomKeyPrefix + room.Code)
	}, 3*time.Second, 5*time.Millisecond)
}

func TestMirror_SkipsSaveForRemovedRoom(t *testing.T) {
	t.Parallel()

	rm, mr := newMirroredManager(t, TestSettings())
	room, err := rm.CreateRoom(testutil.NewSimpleClient("host"), 2)
	require.NoError(t, err)
	require.True(t, rm.LeaveRoom(testutil.NewSimpleClient("host")))
	assert.Eventually(t, func() bool {
		return !mr.Exists(testRoomKeyPrefix + room.Code)
	}, 3*time.Second, 5*time.Millisecond)

	// 房间已被移除，迟到的保存不能把键写回来
	rm.applyMirror(mirrorOp{code: room.Code, room: room})
	assert.False(t, mr.Exists(testRoomKeyPrefix+room.Code))
}

func TestMirror_DisabledStoreQueuesNothing(t *testing.T) {
	t.Parallel()

	rm, _ := newTestManager(t, TestSettings())
	room, err := rm.CreateRoom(testutil.NewSimpleClient("host"), 2)
	require.NoError(t, err)
	rm.LeaveRoom(testutil.NewSimpleClient("host"))

	assert.Empty(t, rm.mirror.take())
	assert.Nil(t, rm.GetRoom(room.Code))
}
