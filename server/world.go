package server

import (
	"errors"
	"sync"
)

// ErrCapacityExceeded 世界已满，拒绝新玩家加入
var ErrCapacityExceeded = errors.New("world capacity exceeded")

// Snapshot 一次 Tick 结束时所有玩家的公开状态，生成后只读共享
type Snapshot struct {
	Seq     uint64
	Players []PlayerState
}

// World 权威世界：玩家集合 + 静态关卡。所有读写都经过同一把锁，
// 对外只暴露整体操作（Join / Leave / ApplyInput / Tick），不外借内部指针
type World struct {
	mu      sync.Mutex
	players []*Player // 按加入顺序，快照顺序与之一致
	level   *Level
	seq     uint64

	gravity       float64
	jumpImpulse   float64
	moveSpeed     float64
	spawnX        float64
	spawnY        float64
	width         float64
	height        float64
	color         string
	groundedColor string
	maxPlayers    int

	metrics *Metrics
}

// NewWorld 创建世界；metrics 可以为 nil
func NewWorld(cfg Config, level *Level, metrics *Metrics) *World {
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &World{
		level:         level,
		gravity:       cfg.Gravity,
		jumpImpulse:   cfg.JumpImpulse,
		moveSpeed:     cfg.MoveSpeed,
		spawnX:        cfg.SpawnX,
		spawnY:        cfg.SpawnY,
		width:         cfg.PlayerWidth,
		height:        cfg.PlayerHeight,
		color:         cfg.PlayerColor,
		groundedColor: cfg.GroundedColor,
		maxPlayers:    cfg.MaxPlayers,
		metrics:       metrics,
	}
}

// Join 分配新 id 并在出生点放置玩家
func (w *World) Join() (PlayerID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.maxPlayers > 0 && len(w.players) >= w.maxPlayers {
		w.metrics.IncJoinRejected()
		return "", ErrCapacityExceeded
	}

	id := newPlayerID()
	for w.indexLocked(id) >= 0 {
		id = newPlayerID()
	}
	p := &Player{
		ID:    id,
		X:     w.spawnX,
		Y:     w.spawnY,
		W:     w.width,
		H:     w.height,
		Color: w.color,
	}
	if w.level != nil {
		p.body = w.level.addBody(p.X, p.Y, p.W, p.H)
	}
	w.players = append(w.players, p)
	w.metrics.IncJoined()
	return id, nil
}

// Leave 移除玩家；id 不存在时什么都不做（读写两端可能都触发清理）
func (w *World) Leave(id PlayerID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := w.indexLocked(id)
	if i < 0 {
		return false
	}
	if w.level != nil {
		w.level.removeBody(w.players[i].body)
	}
	copy(w.players[i:], w.players[i+1:])
	w.players[len(w.players)-1] = nil
	w.players = w.players[:len(w.players)-1]
	w.metrics.IncLeft()
	return true
}

// ApplyInput 把输入事件作用到玩家速度上；玩家已离开或事件无法识别时静默丢弃
func (w *World) ApplyInput(id PlayerID, ev InputEvent) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := w.indexLocked(id)
	if i < 0 || !applyInput(w.players[i], ev, w.jumpImpulse, w.moveSpeed) {
		w.metrics.IncInputIgnored()
		return false
	}
	w.metrics.IncInputApplied()
	return true
}

// Tick 推进一帧：积分 → 碰撞 → 生成快照，全程持锁
func (w *World) Tick() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	integrate(w.players, w.gravity)
	resolveCollisions(w.players, w.level, w.gravity, w.color, w.groundedColor)

	w.seq++
	snap := Snapshot{Seq: w.seq, Players: make([]PlayerState, len(w.players))}
	for i, p := range w.players {
		snap.Players[i] = p.state()
	}
	return snap
}

// Len 当前玩家数
func (w *World) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.players)
}

// IDs 按加入顺序返回当前玩家 id
func (w *World) IDs() []PlayerID {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids := make([]PlayerID, len(w.players))
	for i, p := range w.players {
		ids[i] = p.ID
	}
	return ids
}

// Player 返回玩家状态的副本
func (w *World) Player(id PlayerID) (Player, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := w.indexLocked(id)
	if i < 0 {
		return Player{}, false
	}
	p := *w.players[i]
	p.body = nil
	return p, true
}

// Place 直接设置玩家位置（调试与测试用），不影响速度
func (w *World) Place(id PlayerID, x, y float64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := w.indexLocked(id)
	if i < 0 {
		return false
	}
	w.players[i].X = x
	w.players[i].Y = y
	return true
}

func (w *World) indexLocked(id PlayerID) int {
	for i, p := range w.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}
