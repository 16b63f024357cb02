package server

import (
	"github.com/segmentio/ksuid"
	"github.com/solarlune/resolv"
)

// PlayerID 玩家唯一标识，连接存活期间不变
type PlayerID string

func newPlayerID() PlayerID {
	return PlayerID(ksuid.New().String())
}

// PlayerState 广播给客户端的公开字段（不含 id 与速度）
type PlayerState struct {
	Color  string  `json:"rgb" msgpack:"rgb"`
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
	X      float64 `json:"x_min" msgpack:"x_min"`
	Y      float64 `json:"y_min" msgpack:"y_min"`
}

// Player 世界中的玩家实体（服务端权威状态）
type Player struct {
	ID PlayerID

	X, Y   float64
	VX, VY float64
	W, H   float64
	Color  string

	body *resolv.Object
}

func (p *Player) state() PlayerState {
	return PlayerState{Color: p.Color, Width: p.W, Height: p.H, X: p.X, Y: p.Y}
}
