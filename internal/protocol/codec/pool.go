package codec

import (
	"bytes"
	"sync"

	"google.golang.org/protobuf/types/known/structpb"
)

// Pools for reducing GC pressure: game_tick is encoded once per member per tick
var (
	structPool = sync.Pool{
		New: func() any {
			return &structpb.Struct{Fields: make(map[string]*structpb.Value, 2)}
		},
	}

	bufferPool = sync.Pool{
		New: func() any {
			return new(bytes.Buffer)
		},
	}
)

// GetStruct retrieves a structpb.Struct envelope from the pool
func GetStruct() *structpb.Struct {
	s := structPool.Get().(*structpb.Struct)
	if s.Fields == nil {
		s.Fields = make(map[string]*structpb.Value, 2)
	}
	return s
}

// PutStruct returns an envelope to the pool
func PutStruct(s *structpb.Struct) {
	if s == nil {
		return
	}
	s.Reset()
	structPool.Put(s)
}

// GetBuffer retrieves a bytes.Buffer from the pool
func GetBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

// PutBuffer returns a bytes.Buffer to the pool
// The buffer is reset but capacity is preserved
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}
