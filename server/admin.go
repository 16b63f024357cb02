package server

import (
	"encoding/json"
	"net/http"
)

// HandleAdminConfig 返回当前生效的配置。物理常量在进程内固定，不支持热更新
// GET /admin/config
func (g *Game) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	type cfg struct {
		TickMs           float64    `json:"tickMs"`
		Gravity          float64    `json:"gravity"`
		JumpImpulse      float64    `json:"jumpImpulse"`
		MoveSpeed        float64    `json:"moveSpeed"`
		SpawnX           float64    `json:"spawnX"`
		SpawnY           float64    `json:"spawnY"`
		MaxPlayers       int        `json:"maxPlayers"`
		SubscriberBuffer int        `json:"subscriberBuffer"`
		Codec            string     `json:"codec"`
		Platforms        []Platform `json:"platforms"`
		Players          int        `json:"players"`
	}

	c := g.cfg
	cur := cfg{
		TickMs:           float64(c.TickInterval.Microseconds()) / 1000,
		Gravity:          c.Gravity,
		JumpImpulse:      c.JumpImpulse,
		MoveSpeed:        c.MoveSpeed,
		SpawnX:           c.SpawnX,
		SpawnY:           c.SpawnY,
		MaxPlayers:       c.MaxPlayers,
		SubscriberBuffer: c.SubscriberBuffer,
		Codec:            c.Codec,
		Platforms:        c.Platforms,
		Players:          g.world.Len(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(cur)
}

// HandleMetrics 输出运行指标
// GET /metrics
func (g *Game) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"players":     g.world.Len(),
		"subscribers": g.hub.Len(),
		"metrics":     g.metrics.Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
