package tron

// Position 网格坐标
type Position struct {
	X int
	Y int
}

// Pair 序列化为 [x, y]
func (p Position) Pair() [2]int {
	return [2]int{p.X, p.Y}
}

// Grid 碰撞网格，记录每个格子的占用者，空字符串表示空格
type Grid struct {
	size  int
	cells []string
}

// NewGrid 创建 size×size 的网格
func NewGrid(size int) *Grid {
	return &Grid{
		size:  size,
		cells: make([]string, size*size),
	}
}

// Size 网格边长
func (g *Grid) Size() int {
	return g.size
}

func (g *Grid) index(p Position) int {
	return p.Y*g.size + p.X
}

// At 返回格子的占用者
func (g *Grid) At(p Position) string {
	return g.cells[g.index(p)]
}

// Occupied 格子是否被轨迹占用
func (g *Grid) Occupied(p Position) bool {
	return g.cells[g.index(p)] != ""
}

// Set 标记格子的占用者
func (g *Grid) Set(p Position, id string) {
	g.cells[g.index(p)] = id
}

// Advance 沿方向前进一格，越界时环绕到对边
func (g *Grid) Advance(p Position, d Direction) Position {
	dx, dy := d.Delta()
	return Position{
		X: wrap(p.X+dx, g.size),
		Y: wrap(p.Y+dy, g.size),
	}
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
