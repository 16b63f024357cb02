package server

// integrate 重力积分：先累加重力，再按速度位移。所有玩家积分完成后才进入碰撞阶段
func integrate(players []*Player, gravity float64) {
	for _, p := range players {
		p.VY += gravity
		p.X += p.VX
		p.Y += p.VY
	}
}

// resolveCollisions 玩家与平台的碰撞处理。
// 只修正速度不修正位置（不计算穿透深度），玩家可能会看起来陷进平台里，这是已知的近似。
func resolveCollisions(players []*Player, level *Level, gravity float64, color, groundedColor string) {
	for _, p := range players {
		p.Color = color
		if level == nil || p.body == nil {
			continue
		}
		for _, idx := range level.candidates(p.body, p.X, p.Y) {
			plat := level.Platforms[idx]
			if !plat.Overlaps(p.X, p.Y, p.W, p.H) {
				continue
			}
			switch plat.Kind {
			case PlatformSolid:
				p.VY -= gravity
				p.Color = groundedColor
			case PlatformPassThrough:
				// TODO: 单向平台语义待定（只从上方落下时阻挡？），目前不处理
			}
		}
	}
}
