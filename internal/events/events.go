// Package events 把房间生命周期事件发布到消息总线，供排行榜、监控等外部服务订阅
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ashwingur/tron-server/internal/logger"
)

// 事件类型
const (
	RoomCreated = "room.created"
	GameStarted = "game.started"
	GameOver    = "game.over"
	RoomClosed  = "room.closed"
)

// Event 房间生命周期事件
type Event struct {
	Type      string    `json:"type"`
	Room      string    `json:"room"`
	Players   []string  `json:"players,omitempty"`
	Winner    string    `json:"winner,omitempty"`
	Tie       bool      `json:"tie,omitempty"`
	Aborted   bool      `json:"aborted,omitempty"`
	Ticks     int64     `json:"ticks,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher 事件发布者，发布失败只记录日志
type Publisher interface {
	Publish(ev Event)
	Close()
}

// Nop 不发布任何事件
type Nop struct{}

func (Nop) Publish(Event) {}
func (Nop) Close()        {}

// Subject 事件对应的 NATS subject: <prefix>.<type>
func Subject(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

// Conn NATS 连接中用到的部分
type Conn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATSPublisher 通过 NATS 发布事件
type NATSPublisher struct {
	conn   Conn
	prefix string

	closeOnce sync.Once
}

// Connect 连接 NATS 并创建发布者，断线后无限重连
func Connect(url, prefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("tron-server"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.L().Warnw("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.L().Infow("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return NewNATSPublisher(conn, prefix), nil
}

// NewNATSPublisher 基于已有连接创建发布者
func NewNATSPublisher(conn Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Publish 发布事件
func (p *NATSPublisher) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		logger.L().Errorw("marshal event failed", "type", ev.Type, "room", ev.Room, "error", err)
		return
	}

	subject := Subject(p.prefix, ev.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		logger.L().Warnw("publish event failed", "subject", subject, "room", ev.Room, "error", err)
	}
}

// Close 刷出缓冲的消息并关闭连接
func (p *NATSPublisher) Close() {
	p.closeOnce.Do(func() {
		if err := p.conn.Drain(); err != nil {
			logger.L().Warnw("nats drain failed", "error", err)
		}
	})
}
