package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ashwingur/tron-server/internal/protocol"
)

// ErrMissingType 解码出的消息没有类型字段
var ErrMissingType = errors.New("message type is missing")

// Codec 线上编码格式
type Codec interface {
	Encode(m *protocol.Message) ([]byte, error)
	Decode(data []byte) (*protocol.Message, error)
	// Binary 为 true 时使用 WebSocket 二进制帧
	Binary() bool
}

// JSON 文本帧编码 {"type": ..., "payload": {...}}
var JSON Codec = jsonCodec{}

// Protobuf 二进制帧编码，信封为 google.protobuf.Struct
var Protobuf Codec = protoCodec{}

// ForFormat 根据配置名选择编码
func ForFormat(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON, nil
	case "protobuf", "proto":
		return Protobuf, nil
	default:
		return nil, fmt.Errorf("unknown wire format %q", name)
	}
}

// NewMessage 创建一个新消息
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	msg := &protocol.Message{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = data
	}
	return msg, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// ParsePayload 解析消息的 Payload 到指定类型，空 Payload 得到零值
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 || string(msg.Payload) == "null" {
		return &payload, nil
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(code int) *protocol.Message {
	return NewErrorMessageWithText(code, protocol.ErrorMessages[code])
}

// NewErrorMessageWithText 创建带自定义文本的错误消息
func NewErrorMessageWithText(code int, text string) *protocol.Message {
	msg, _ := NewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: text,
	})
	return msg
}

// Encode 使用 JSON 编码
func Encode(m *protocol.Message) ([]byte, error) {
	return JSON.Encode(m)
}

// Decode 使用 JSON 解码
func Decode(data []byte) (*protocol.Message, error) {
	return JSON.Decode(data)
}

type jsonCodec struct{}

func (jsonCodec) Binary() bool { return false }

func (jsonCodec) Encode(m *protocol.Message) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := json.NewEncoder(buf).Encode(m); err != nil {
		return nil, err
	}
	// Encoder 会追加换行
	return bytes.Clone(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func (jsonCodec) Decode(data []byte) (*protocol.Message, error) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, ErrMissingType
	}
	return &msg, nil
}

type protoCodec struct{}

func (protoCodec) Binary() bool { return true }

func (protoCodec) Encode(m *protocol.Message) ([]byte, error) {
	env := GetStruct()
	defer PutStruct(env)

	env.Fields["type"] = structpb.NewStringValue(string(m.Type))
	if len(m.Payload) > 0 {
		var payload any
		if err := json.Unmarshal(m.Payload, &payload); err != nil {
			return nil, fmt.Errorf("payload is not valid JSON: %w", err)
		}
		value, err := structpb.NewValue(payload)
		if err != nil {
			return nil, fmt.Errorf("payload cannot be converted: %w", err)
		}
		env.Fields["payload"] = value
	}
	return proto.Marshal(env)
}

func (protoCodec) Decode(data []byte) (*protocol.Message, error) {
	env := GetStruct()
	defer PutStruct(env)

	if err := proto.Unmarshal(data, env); err != nil {
		return nil, err
	}

	msgType := env.GetFields()["type"].GetStringValue()
	if msgType == "" {
		return nil, ErrMissingType
	}

	msg := &protocol.Message{Type: protocol.MessageType(msgType)}
	if value, ok := env.GetFields()["payload"]; ok {
		raw, err := json.Marshal(value.AsInterface())
		if err != nil {
			return nil, err
		}
		msg.Payload = raw
	}
	return msg, nil
}
