package tron

// 座位数范围
const (
	MinSeats = 2
	MaxSeats = 4
)

// MinGridSize 最小网格边长，保证四个出生角落互不相邻且离边至少一格
const MinGridSize = 8

// ClampSeats 把人数限制在 [MinSeats, MaxSeats]
func ClampSeats(n int) int {
	return max(MinSeats, min(n, MaxSeats))
}

// ClampGridSize 网格边长不小于 MinGridSize
func ClampGridSize(n int) int {
	return max(MinGridSize, n)
}

// StartSpot 按座位返回出生角落和初始方向
// 0 左上向右，1 右下向左，2 右上向下，3 左下向上
func StartSpot(seat, size int) (Position, Direction) {
	m := size / 8
	far := size - 1 - m
	switch seat {
	case 0:
		return Position{X: m, Y: m}, DirRight
	case 1:
		return Position{X: far, Y: far}, DirLeft
	case 2:
		return Position{X: far, Y: m}, DirDown
	default:
		return Position{X: m, Y: far}, DirUp
	}
}

// Place 开局摆放：分配颜色、出生点并在网格上标记
func Place(g *Grid, players []*Player) {
	for seat, p := range players {
		p.Seat = seat
		p.Colour = Palette[seat%MaxSeats]
		p.Position, p.Direction = StartSpot(seat, g.Size())
		p.Alive = true
		p.hasPending = false
		g.Set(p.Position, p.ID)
	}
}
