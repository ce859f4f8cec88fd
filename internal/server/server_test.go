package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwingur/tron-server/internal/config"
	"github.com/ashwingur/tron-server/internal/protocol"
	"github.com/ashwingur/tron-server/internal/protocol/codec"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.Redis.Enabled = false
	cfg.NATS.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	s, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType protocol.MessageType, payload any) {
	t.Helper()

	data, err := codec.Encode(codec.MustNewMessage(msgType, payload))
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// readUntil 读取消息直到出现指定类型
func readUntil(t *testing.T, conn *websocket.Conn, msgType protocol.MessageType) *protocol.Message {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", msgType)
		msg, err := codec.Decode(data)
		require.NoError(t, err)
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestServer_RegisterUnregister_Concurrency(t *testing.T) {
	t.Parallel()

	s := &Server{
		clients:   make(map[string]*Client),
		semaphore: make(chan struct{}, 200),
	}

	var wg sync.WaitGroup
	count := 100
	clients := make([]*Client, count)
	for i := range clients {
		clients[i] = NewClient(s, nil)
	}

	// Concurrent Register
	wg.Add(count)
	for _, c := range clients {
		go func() {
			defer wg.Done()
			s.registerClient(c)
		}()
	}
	wg.Wait()
	assert.Equal(t, count, s.GetOnlineCount())

	// Concurrent Unregister
	wg.Add(count)
	for _, c := range clients {
		go func() {
			defer wg.Done()
			s.unregisterClient(c)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, s.GetOnlineCount())
}

func TestServer_HandleHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	w := httptest.NewRecorder()

	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["online"])
	assert.EqualValues(t, 0, body["rooms"])
}

func TestServer_MaintenanceMode(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	assert.False(t, s.IsMaintenanceMode())

	s.EnterMaintenanceMode()
	assert.True(t, s.IsMaintenanceMode())

	req := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	assert.Contains(t, w.Body.String(), "maintenance")
}

func TestServer_OriginRejected(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Security.AllowedOrigins = []string{"https://tron.example.com"}
	})

	req := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
	req.Header.Set("Origin", "https://evil.com")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, s.semaphore, "rejected upgrades release their slot")
}

func TestServer_InvalidWireFormat(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Server.WireFormat = "xml"
	_, err := NewServer(cfg)
	assert.Error(t, err)
}

func TestServer_RedisUnavailable(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	cfg := config.Default()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = addr
	_, err = NewServer(cfg)
	assert.Error(t, err)
}

func TestServer_PurgesStaleRooms(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("tron:room:OLD1", `{"code":"OLD1"}`))
	require.NoError(t, mr.Set("unrelated", "keep"))

	newTestServer(t, func(cfg *config.Config) {
		cfg.Redis.Enabled = true
		cfg.Redis.Addr = mr.Addr()
	})

	assert.False(t, mr.Exists("tron:room:OLD1"))
	assert.True(t, mr.Exists("unrelated"))
}

func TestServer_ConnectAndPing(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	conn := dial(t, ts)
	connected := readUntil(t, conn, protocol.MsgConnected)
	payload, err := codec.ParsePayload[protocol.ConnectedPayload](connected)
	require.NoError(t, err)
	assert.NotEmpty(t, payload.ConnectionID)

	send(t, conn, protocol.MsgPing, protocol.PingPayload{Timestamp: 42})
	pong, err := codec.ParsePayload[protocol.PongPayload](readUntil(t, conn, protocol.MsgPong))
	require.NoError(t, err)
	assert.Equal(t, int64(42), pong.ClientTimestamp)

	assert.Eventually(t, func() bool {
		return s.GetOnlineCount() == 1 && s.RoomManager().ConnectedCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestServer_CreateJoinStartsGame(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Game.GridSize = 40
	})
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	host := dial(t, ts)
	readUntil(t, host, protocol.MsgConnected)
	send(t, host, protocol.MsgCreateRoom, protocol.CreateRoomPayload{MaxPlayers: 2})

	created, err := codec.ParsePayload[protocol.JoinRoomResultPayload](readUntil(t, host, protocol.MsgJoinRoom))
	require.NoError(t, err)
	require.True(t, created.Success)
	require.NotNil(t, created.Room)
	code := created.Room.RoomCode
	assert.Len(t, code, 4)
	assert.Equal(t, 40, created.Room.GridSize)

	guest := dial(t, ts)
	readUntil(t, guest, protocol.MsgConnected)
	send(t, guest, protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomCode: strings.ToLower(code)})

	joined, err := codec.ParsePayload[protocol.JoinRoomResultPayload](readUntil(t, guest, protocol.MsgJoinRoom))
	require.NoError(t, err)
	assert.True(t, joined.Success)

	for _, conn := range []*websocket.Conn{host, guest} {
		start, err := codec.ParsePayload[protocol.GameStartPayload](readUntil(t, conn, protocol.MsgGameStart))
		require.NoError(t, err)
		assert.Equal(t, code, start.Room.RoomCode)
		assert.True(t, start.Room.GameStarted)
		assert.Len(t, start.Room.Players, 2)
	}

	// 房间已满且已开局，第三人无法加入
	late := dial(t, ts)
	readUntil(t, late, protocol.MsgConnected)
	send(t, late, protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomCode: code})
	rejected, err := codec.ParsePayload[protocol.JoinRoomResultPayload](readUntil(t, late, protocol.MsgJoinRoom))
	require.NoError(t, err)
	assert.False(t, rejected.Success)
	assert.Equal(t, protocol.ErrCodeRoomFull, rejected.ErrorCode)

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), code)
}

func TestServer_DisconnectLeavesRoom(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	conn := dial(t, ts)
	readUntil(t, conn, protocol.MsgConnected)
	send(t, conn, protocol.MsgCreateRoom, protocol.CreateRoomPayload{})
	readUntil(t, conn, protocol.MsgJoinRoom)
	require.Equal(t, 1, s.RoomManager().RoomCount())

	_ = conn.Close()

	assert.Eventually(t, func() bool {
		return s.RoomManager().RoomCount() == 0 &&
			s.GetOnlineCount() == 0 &&
			s.RoomManager().ConnectedCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, s.semaphore)
}

func TestServer_ProtobufWire(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.WireFormat = "protobuf"
	})
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	conn := dial(t, ts)
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	frameType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, frameType)

	msg, err := codec.Protobuf.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgConnected, msg.Type)

	out, err := codec.Protobuf.Encode(codec.MustNewMessage(protocol.MsgAvailableRooms, nil))
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, out))

	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	msg, err = codec.Protobuf.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgAvailableRooms, msg.Type)
}

func TestServer_InvalidFrame(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	conn := dial(t, ts)
	readUntil(t, conn, protocol.MsgConnected)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	errMsg, err := codec.ParsePayload[protocol.ErrorPayload](readUntil(t, conn, protocol.MsgError))
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeInvalidMsg, errMsg.Code)
}

func TestServer_GracefulShutdown_NoGames(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	done := make(chan struct{})
	go func() {
		s.GracefulShutdown(time.Second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not return")
	}
	assert.True(t, s.IsMaintenanceMode())
}
