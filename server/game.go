package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Game 把世界、广播、Tick 循环和连接接入组装在一起
type Game struct {
	cfg     Config
	level   *Level
	world   *World
	hub     *Hub
	codec   Codec
	metrics *Metrics
	ticker  *Ticker

	upgrader websocket.Upgrader

	// mu 保证 closing 置位后不再有新会话进入 sessions
	mu       sync.Mutex
	closing  bool
	sessions sync.WaitGroup

	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	tickDone  chan struct{}
}

// NewGame 校验配置、加载关卡并创建各组件；Tick 循环需调用 Start 才开始
func NewGame(cfg Config) (*Game, error) {
	if cfg.LevelFile != "" {
		data, err := LoadLevelFile(cfg.LevelFile)
		if err != nil {
			return nil, err
		}
		cfg.ApplyLevel(data)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	codec, err := NewCodec(cfg.Codec)
	if err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}

	metrics := &Metrics{}
	level := NewLevel(cfg.LevelWidth, cfg.LevelHeight, cfg.Platforms)
	world := NewWorld(cfg, level, metrics)
	hub := NewHub(cfg.SubscriberBuffer)

	ctx, cancel := context.WithCancel(context.Background())
	g := &Game{
		cfg:     cfg,
		level:   level,
		world:   world,
		hub:     hub,
		codec:   codec,
		metrics: metrics,
		ticker:  NewTicker(world, hub, codec, metrics, cfg.TickInterval),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 演示环境：允许所有来源（生产环境需严格限制）
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		ctx:      ctx,
		cancel:   cancel,
		tickDone: make(chan struct{}),
	}
	Log.Infof("game created: tick=%s gravity=%.3f jump=%.3f move=%.3f platforms=%d codec=%s max_players=%d",
		cfg.TickInterval, cfg.Gravity, cfg.JumpImpulse, cfg.MoveSpeed, len(cfg.Platforms), cfg.Codec, cfg.MaxPlayers)
	return g, nil
}

// Start 启动 Tick 循环（只会启动一次）
func (g *Game) Start() {
	g.startOnce.Do(func() {
		go func() {
			defer close(g.tickDone)
			g.ticker.Run(g.ctx)
		}()
	})
}

// Close 停止 Tick 循环并断开所有连接，等待会话清理完毕
func (g *Game) Close() {
	g.mu.Lock()
	g.closing = true
	g.mu.Unlock()

	g.cancel()
	// 未启动过的 Tick 循环直接标记完成，之后也不会再启动
	g.startOnce.Do(func() { close(g.tickDone) })
	<-g.tickDone
	g.sessions.Wait()
}

// acquireSession 登记一个新会话；关闭中返回 false
func (g *Game) acquireSession() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closing {
		return false
	}
	g.sessions.Add(1)
	return true
}

func (g *Game) Config() Config    { return g.cfg }
func (g *Game) World() *World     { return g.world }
func (g *Game) Hub() *Hub         { return g.hub }
func (g *Game) Ticker() *Ticker   { return g.ticker }
func (g *Game) Metrics() *Metrics { return g.metrics }
