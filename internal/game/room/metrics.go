package room

import (
	"sync/atomic"
	"time"
)

// Metrics 记录房间运行期的关键指标（用于监控与调试）
type Metrics struct {
	ticks              atomic.Int64 // Tick 次数
	totalTickNs        atomic.Int64 // Tick 累计耗时（纳秒）
	maxTickNs          atomic.Int64 // 最慢一帧
	directionsAccepted atomic.Int64 // 被接受的转向
	directionsIgnored  atomic.Int64 // 被忽略的转向
}

func (m *Metrics) IncAccepted() { m.directionsAccepted.Add(1) }
func (m *Metrics) IncIgnored()  { m.directionsIgnored.Add(1) }

// AddTick 记录一帧耗时
func (m *Metrics) AddTick(d time.Duration) {
	ns := d.Nanoseconds()
	m.ticks.Add(1)
	m.totalTickNs.Add(ns)
	for {
		cur := m.maxTickNs.Load()
		if ns <= cur || m.maxTickNs.CompareAndSwap(cur, ns) {
			return
		}
	}
}

// Ticks 已执行的帧数
func (m *Metrics) Ticks() int64 {
	return m.ticks.Load()
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	tick := m.ticks.Load()
	total := m.totalTickNs.Load()
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":          tick,
		"avg_tick_ms":         avgMs,
		"max_tick_ms":         float64(m.maxTickNs.Load()) / 1e6,
		"directions_accepted": m.directionsAccepted.Load(),
		"directions_ignored":  m.directionsIgnored.Load(),
	}
}
