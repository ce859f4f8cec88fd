package tron

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrid_AdvanceWraps(t *testing.T) {
	t.Parallel()

	g := NewGrid(10)
	assert.Equal(t, Position{X: 0, Y: 5}, g.Advance(Position{X: 9, Y: 5}, DirRight))
	assert.Equal(t, Position{X: 9, Y: 5}, g.Advance(Position{X: 0, Y: 5}, DirLeft))
	assert.Equal(t, Position{X: 3, Y: 9}, g.Advance(Position{X: 3, Y: 0}, DirUp))
	assert.Equal(t, Position{X: 3, Y: 0}, g.Advance(Position{X: 3, Y: 9}, DirDown))
}

func TestGrid_SetAndOccupied(t *testing.T) {
	t.Parallel()

	g := NewGrid(4)
	p := Position{X: 1, Y: 2}
	assert.False(t, g.Occupied(p))

	g.Set(p, "a")
	assert.True(t, g.Occupied(p))
	assert.Equal(t, "a", g.At(p))
	assert.Equal(t, [2]int{1, 2}, p.Pair())
}
