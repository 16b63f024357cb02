package server

import (
	"sync/atomic"
)

// Metrics 记录服务运行期的关键指标（用于监控与调试）
type Metrics struct {
	TickCount          int64 // Tick 次数
	TotalTickNs        int64 // Tick 累计耗时（纳秒）
	TickFailures       int64 // 编码失败或 panic 被恢复的 Tick 数
	Joined             int64 // 成功加入的玩家数
	Left               int64 // 被移除的玩家数
	JoinRejected       int64 // 因人数上限被拒绝的连接数
	InputsApplied      int64 // 生效的输入数
	InputsIgnored      int64 // 无法识别或玩家已离开而丢弃的输入数
	SnapshotsPublished int64 // 已发布的快照数
	OverrunDropped     int64 // 订阅者积压溢出而丢弃的旧快照数
}

func (m *Metrics) IncTickFailure()    { atomic.AddInt64(&m.TickFailures, 1) }
func (m *Metrics) IncJoined()         { atomic.AddInt64(&m.Joined, 1) }
func (m *Metrics) IncLeft()           { atomic.AddInt64(&m.Left, 1) }
func (m *Metrics) IncJoinRejected()   { atomic.AddInt64(&m.JoinRejected, 1) }
func (m *Metrics) IncInputApplied()   { atomic.AddInt64(&m.InputsApplied, 1) }
func (m *Metrics) IncInputIgnored()   { atomic.AddInt64(&m.InputsIgnored, 1) }
func (m *Metrics) IncPublished()      { atomic.AddInt64(&m.SnapshotsPublished, 1) }
func (m *Metrics) AddOverrun(n int64) { atomic.AddInt64(&m.OverrunDropped, n) }
func (m *Metrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":          tick,
		"avg_tick_ms":         avgMs,
		"tick_failures":       atomic.LoadInt64(&m.TickFailures),
		"joined":              atomic.LoadInt64(&m.Joined),
		"left":                atomic.LoadInt64(&m.Left),
		"join_rejected":       atomic.LoadInt64(&m.JoinRejected),
		"inputs_applied":      atomic.LoadInt64(&m.InputsApplied),
		"inputs_ignored":      atomic.LoadInt64(&m.InputsIgnored),
		"snapshots_published": atomic.LoadInt64(&m.SnapshotsPublished),
		"overrun_dropped":     atomic.LoadInt64(&m.OverrunDropped),
	}
}
