package tron

// Palette 按座位顺序分配的颜色
var Palette = [MaxSeats]string{"red", "blue", "green", "yellow"}

// Player 光轮车玩家状态
type Player struct {
	ID        string
	Seat      int
	Colour    string
	Position  Position
	Direction Direction
	Alive     bool

	pending    Direction
	hasPending bool
}

// NewPlayer 创建玩家，位置和方向在开局时才确定
func NewPlayer(id string, seat int) *Player {
	return &Player{
		ID:        id,
		Seat:      seat,
		Position:  Position{},
		Direction: DirUp,
		Alive:     true,
	}
}

// RequestDirection 记录下一帧的转向，180 度掉头会被拒绝
// 同一帧内多次请求以最后一次为准
func (p *Player) RequestDirection(d Direction) bool {
	if !p.Alive || d == p.Direction.Opposite() {
		return false
	}
	p.pending = d
	p.hasPending = true
	return true
}

// applyPending 消费待生效的转向
func (p *Player) applyPending() {
	if p.hasPending {
		p.Direction = p.pending
		p.hasPending = false
	}
}
