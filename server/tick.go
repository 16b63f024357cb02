package server

import (
	"context"
	"fmt"
	"time"
)

// Ticker 单线程驱动世界：等待固定间隔 → Tick → 编码 → 广播。
// 等待从上一次 Tick 结束后重新计时（固定延迟，不追帧），周期会多出 Tick 本身的耗时
type Ticker struct {
	world    *World
	hub      *Hub
	codec    Codec
	metrics  *Metrics
	interval time.Duration
}

// NewTicker 组装 Tick 循环
func NewTicker(world *World, hub *Hub, codec Codec, metrics *Metrics, interval time.Duration) *Ticker {
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &Ticker{
		world:    world,
		hub:      hub,
		codec:    codec,
		metrics:  metrics,
		interval: interval,
	}
}

// Run 阻塞运行直到 ctx 取消；单次 Tick 的错误只记录日志，不会终止循环
func (t *Ticker) Run(ctx context.Context) {
	Log.Infof("tick loop started: interval=%s", t.interval)
	timer := time.NewTimer(t.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			Log.Info("tick loop stopped")
			return
		case <-timer.C:
		}
		if err := t.Step(); err != nil {
			Log.Errorf("tick failed: %v", err)
		}
		timer.Reset(t.interval)
	}
}

// Step 同步执行一次完整的 Tick 并发布快照
func (t *Ticker) Step() (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panic: %v", r)
		}
		if err != nil {
			t.metrics.IncTickFailure()
		}
		t.metrics.AddTick(time.Since(start).Nanoseconds())
	}()

	snap := t.world.Tick()
	payload, err := t.codec.Encode(snap.Players)
	if err != nil {
		return fmt.Errorf("encode snapshot %d: %w", snap.Seq, err)
	}
	if dropped := t.hub.Publish(payload); dropped > 0 {
		t.metrics.AddOverrun(int64(dropped))
		Log.Debugf("snapshot %d: dropped %d stale snapshots for slow subscribers", snap.Seq, dropped)
	}
	t.metrics.IncPublished()
	return nil
}
