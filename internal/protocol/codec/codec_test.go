package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwingur/tron-server/internal/protocol"
)

func TestForFormat(t *testing.T) {
	t.Parallel()

	c, err := ForFormat("json")
	require.NoError(t, err)
	assert.False(t, c.Binary())

	c, err = ForFormat("protobuf")
	require.NoError(t, err)
	assert.True(t, c.Binary())

	_, err = ForFormat("xml")
	assert.Error(t, err)
}

func TestCodecs_CarryNestedPayload(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(protocol.MsgGameTick, protocol.GameTickPayload{
		Positions: map[string][2]int{"a": {3, 4}, "b": {79, 0}},
	})

	for _, c := range []Codec{JSON, Protobuf} {
		data, err := c.Encode(msg)
		require.NoError(t, err)

		decoded, err := c.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, protocol.MsgGameTick, decoded.Type)

		payload, err := ParsePayload[protocol.GameTickPayload](decoded)
		require.NoError(t, err)
		assert.Equal(t, [2]int{3, 4}, payload.Positions["a"])
		assert.Equal(t, [2]int{79, 0}, payload.Positions["b"])
	}
}

func TestCodecs_EmptyPayload(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(protocol.MsgLeaveRoom, nil)
	for _, c := range []Codec{JSON, Protobuf} {
		data, err := c.Encode(msg)
		require.NoError(t, err)

		decoded, err := c.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, protocol.MsgLeaveRoom, decoded.Type)
		assert.Empty(t, decoded.Payload)
	}
}

func TestDecode_MissingType(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestParsePayload_EmptyGivesZeroValue(t *testing.T) {
	t.Parallel()

	payload, err := ParsePayload[protocol.CreateRoomPayload](&protocol.Message{Type: protocol.MsgCreateRoom})
	require.NoError(t, err)
	assert.Equal(t, 0, payload.MaxPlayers)

	_, err = ParsePayload[protocol.CreateRoomPayload](&protocol.Message{
		Type:    protocol.MsgCreateRoom,
		Payload: []byte(`{"max_players":"four"}`),
	})
	assert.Error(t, err)
}

func TestNewErrorMessage(t *testing.T) {
	t.Parallel()

	msg := NewErrorMessage(protocol.ErrCodeRoomFull)
	payload, err := ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeRoomFull, payload.Code)
	assert.Equal(t, protocol.ErrorMessages[protocol.ErrCodeRoomFull], payload.Message)
}

func TestStructPool_ResetOnPut(t *testing.T) {
	t.Parallel()

	s := GetStruct()
	s.Fields["type"] = nil
	PutStruct(s)

	again := GetStruct()
	assert.NotNil(t, again.Fields)
	assert.NotPanics(t, func() { PutStruct(nil) })
}
