package tron

// Collision 一帧内的碰撞事件
type Collision struct {
	ID       string
	Position Position
}

// Outcome 终局判定结果
type Outcome struct {
	Over   bool
	Winner *Player
	Tie    bool
}

type move struct {
	player *Player
	target Position
}

// Step 推进一帧。所有目标格基于帧开始时的快照计算，
// 撞到轨迹或与其他玩家抢同一格的玩家都判定死亡，最后统一提交
func Step(g *Grid, players []*Player) []Collision {
	moves := make([]move, 0, len(players))
	claims := make(map[Position]int, len(players))

	for _, p := range players {
		if !p.Alive {
			continue
		}
		p.applyPending()
		target := g.Advance(p.Position, p.Direction)
		moves = append(moves, move{player: p, target: target})
		claims[target]++
	}

	var collisions []Collision
	crashed := make([]bool, len(moves))
	for i, m := range moves {
		hitTrail := m.target != m.player.Position && g.Occupied(m.target)
		if hitTrail || claims[m.target] > 1 {
			crashed[i] = true
		}
	}

	for i, m := range moves {
		if crashed[i] {
			m.player.Alive = false
			collisions = append(collisions, Collision{ID: m.player.ID, Position: m.target})
			continue
		}
		g.Set(m.target, m.player.ID)
		m.player.Position = m.target
	}
	return collisions
}

// Decide 判定是否终局：至多一人存活时结束，零人存活为平局
func Decide(players []*Player) Outcome {
	var survivor *Player
	alive := 0
	for _, p := range players {
		if p.Alive {
			alive++
			survivor = p
		}
	}
	switch {
	case alive > 1:
		return Outcome{}
	case alive == 1:
		return Outcome{Over: true, Winner: survivor}
	default:
		return Outcome{Over: true, Tie: true}
	}
}
