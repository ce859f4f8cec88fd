//go:build !production

package testutil

import (
	"sync"

	"github.com/ashwingur/tron-server/internal/events"
)

// RecordingPublisher 记录发布的事件
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *RecordingPublisher) Publish(ev events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *RecordingPublisher) Close() {}

// Events 返回已发布事件的副本
func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.events))
	copy(out, p.events)
	return out
}

// Types 返回已发布事件的类型序列
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

// Find 查找第一个指定类型的事件
func (p *RecordingPublisher) Find(eventType string) (events.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ev := range p.events {
		if ev.Type == eventType {
			return ev, true
		}
	}
	return events.Event{}, false
}
