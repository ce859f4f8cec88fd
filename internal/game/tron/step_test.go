package tron

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placed(size int, ids ...string) (*Grid, []*Player) {
	g := NewGrid(size)
	players := make([]*Player, len(ids))
	for i, id := range ids {
		players[i] = NewPlayer(id, i)
	}
	Place(g, players)
	return g, players
}

func TestClampSeats(t *testing.T) {
	t.Parallel()

	for in, want := range map[int]int{-3: 2, 0: 2, 1: 2, 2: 2, 3: 3, 4: 4, 5: 4, 100: 4} {
		assert.Equal(t, want, ClampSeats(in), "input %d", in)
	}
}

func TestPlace_TwoPlayersOppositeCorners(t *testing.T) {
	t.Parallel()

	g, players := placed(80, "a", "b")
	a, b := players[0], players[1]

	assert.Equal(t, Position{X: 10, Y: 10}, a.Position)
	assert.Equal(t, Position{X: 69, Y: 69}, b.Position)
	assert.Equal(t, a.Direction.Opposite(), b.Direction)
	assert.Equal(t, "red", a.Colour)
	assert.Equal(t, "blue", b.Colour)
	assert.Equal(t, "a", g.At(a.Position))
	assert.Equal(t, "b", g.At(b.Position))
}

func TestPlace_FourPlayersAllCorners(t *testing.T) {
	t.Parallel()

	_, players := placed(80, "a", "b", "c", "d")

	seen := make(map[Position]bool)
	for _, p := range players {
		seen[p.Position] = true
	}
	assert.Len(t, seen, 4)

	// 每个角落的方向都指向远离最近墙的一侧
	assert.Equal(t, DirRight, players[0].Direction)
	assert.Equal(t, DirLeft, players[1].Direction)
	assert.Equal(t, DirDown, players[2].Direction)
	assert.Equal(t, DirUp, players[3].Direction)
	assert.Equal(t, "yellow", players[3].Colour)
}

func TestRequestDirection_RejectsReversal(t *testing.T) {
	t.Parallel()

	p := NewPlayer("a", 0)
	require.Equal(t, DirUp, p.Direction)

	assert.False(t, p.RequestDirection(DirDown))
	p.applyPending()
	assert.Equal(t, DirUp, p.Direction)

	assert.True(t, p.RequestDirection(DirLeft))
	assert.True(t, p.RequestDirection(DirRight))
	p.applyPending()
	assert.Equal(t, DirRight, p.Direction, "last write before the tick wins")
}

func TestRequestDirection_DeadPlayerIgnored(t *testing.T) {
	t.Parallel()

	p := NewPlayer("a", 0)
	p.Alive = false
	assert.False(t, p.RequestDirection(DirLeft))
}

func TestStep_Determinism(t *testing.T) {
	t.Parallel()

	g, players := placed(20, "a", "b")
	a, b := players[0], players[1]
	startA, startB := a.Position, b.Position

	const n = 7
	for range n {
		assert.Empty(t, Step(g, players))
	}

	assert.Equal(t, Position{X: (startA.X + n) % 20, Y: startA.Y}, a.Position)
	assert.Equal(t, Position{X: (startB.X - n + 20) % 20, Y: startB.Y}, b.Position)
	assert.True(t, a.Alive)
	assert.True(t, b.Alive)
	assert.False(t, Decide(players).Over)
}

func TestStep_WrapsAcrossEdge(t *testing.T) {
	t.Parallel()

	g := NewGrid(5)
	p := NewPlayer("a", 0)
	p.Position = Position{X: 4, Y: 2}
	p.Direction = DirRight
	g.Set(p.Position, p.ID)

	assert.Empty(t, Step(g, []*Player{p}))
	assert.Equal(t, Position{X: 0, Y: 2}, p.Position)
	assert.Equal(t, "a", g.At(Position{X: 4, Y: 2}), "trail persists")
}

func TestStep_HeadOnIsTie(t *testing.T) {
	t.Parallel()

	g := NewGrid(10)
	a := NewPlayer("a", 0)
	a.Position, a.Direction = Position{X: 3, Y: 5}, DirRight
	b := NewPlayer("b", 1)
	b.Position, b.Direction = Position{X: 5, Y: 5}, DirLeft
	g.Set(a.Position, a.ID)
	g.Set(b.Position, b.ID)
	players := []*Player{a, b}

	collisions := Step(g, players)
	require.Len(t, collisions, 2)
	for _, c := range collisions {
		assert.Equal(t, Position{X: 4, Y: 5}, c.Position)
	}
	assert.False(t, a.Alive)
	assert.False(t, b.Alive)
	assert.False(t, g.Occupied(Position{X: 4, Y: 5}))

	outcome := Decide(players)
	assert.True(t, outcome.Over)
	assert.True(t, outcome.Tie)
	assert.Nil(t, outcome.Winner)
}

func TestStep_TrailCollisionLeavesWinner(t *testing.T) {
	t.Parallel()

	g := NewGrid(10)
	a := NewPlayer("a", 0)
	a.Position, a.Direction = Position{X: 1, Y: 1}, DirRight
	b := NewPlayer("b", 1)
	b.Position, b.Direction = Position{X: 7, Y: 7}, DirLeft
	g.Set(a.Position, a.ID)
	g.Set(b.Position, b.ID)
	g.Set(Position{X: 2, Y: 1}, "b")
	players := []*Player{a, b}

	collisions := Step(g, players)
	require.Len(t, collisions, 1)
	assert.Equal(t, "a", collisions[0].ID)

	outcome := Decide(players)
	assert.True(t, outcome.Over)
	assert.False(t, outcome.Tie)
	assert.Same(t, b, outcome.Winner)
}

func TestStep_OwnTrailIsDeadly(t *testing.T) {
	t.Parallel()

	g := NewGrid(10)
	p := NewPlayer("a", 0)
	p.Position, p.Direction = Position{X: 5, Y: 5}, DirRight
	g.Set(p.Position, p.ID)
	g.Set(Position{X: 6, Y: 5}, "a")

	collisions := Step(g, []*Player{p})
	require.Len(t, collisions, 1)
	assert.False(t, p.Alive)
}

func TestStep_ThreeWaySimultaneousIsTie(t *testing.T) {
	t.Parallel()

	g := NewGrid(10)
	a := NewPlayer("a", 0)
	a.Position, a.Direction = Position{X: 4, Y: 5}, DirRight
	b := NewPlayer("b", 1)
	b.Position, b.Direction = Position{X: 6, Y: 5}, DirLeft
	c := NewPlayer("c", 2)
	c.Position, c.Direction = Position{X: 5, Y: 4}, DirDown
	players := []*Player{a, b, c}
	for _, p := range players {
		g.Set(p.Position, p.ID)
	}

	assert.Len(t, Step(g, players), 3)
	assert.True(t, Decide(players).Tie)
}

func TestStep_SkipsDeadPlayers(t *testing.T) {
	t.Parallel()

	g, players := placed(20, "a", "b", "c")
	players[2].Alive = false
	before := players[2].Position

	Step(g, players)
	assert.Equal(t, before, players[2].Position)

	outcome := Decide(players)
	assert.False(t, outcome.Over)
}

func TestDecide_SinglePlayerRosterWins(t *testing.T) {
	t.Parallel()

	_, players := placed(20, "a")
	outcome := Decide(players)
	assert.True(t, outcome.Over)
	assert.Equal(t, "a", outcome.Winner.ID)

	assert.True(t, Decide(nil).Tie)
}
