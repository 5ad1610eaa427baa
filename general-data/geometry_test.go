package generaldata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectIntersection(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
		ok   bool
	}{
		{"overlap", NewRect(0, 0, 100, 100), NewRect(50, 50, 100, 100), NewRect(50, 50, 50, 50), true},
		{"contained", NewRect(0, 0, 100, 100), NewRect(10, 10, 10, 10), NewRect(10, 10, 10, 10), true},
		{"touching", NewRect(0, 0, 100, 100), NewRect(100, 0, 10, 10), Rect{}, false},
		{"apart", NewRect(0, 0, 10, 10), NewRect(-50, -50, 10, 10), Rect{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.Intersection(tt.b)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRectContains(t *testing.T) {
	r := NewRect(10, 10, 20, 20)
	assert.True(t, r.Contains(Vector2i{X: 10, Y: 10}))
	assert.False(t, r.Contains(Vector2i{X: 30, Y: 10}))
	assert.True(t, r.ContainsF(Vector2f{X: 29.9, Y: 29.9}))
	assert.False(t, r.ContainsF(Vector2f{X: 9.99, Y: 15}))
}

func TestRectToPhysical(t *testing.T) {
	assert.Equal(t, NewRect(15, 15, 30, 30), NewRect(10, 10, 20, 20).ToPhysical(1.5))
	assert.Equal(t, NewRect(10, 10, 20, 20), NewRect(10, 10, 20, 20).ToPhysical(1))
}

func TestRectMerge(t *testing.T) {
	assert.Equal(t, NewRect(0, 0, 30, 40), NewRect(0, 0, 10, 10).Merge(NewRect(20, 30, 10, 10)))
	assert.Equal(t, NewRect(5, 5, 1, 1), Rect{}.Merge(NewRect(5, 5, 1, 1)))
}

func TestVectorRound(t *testing.T) {
	assert.Equal(t, Vector2i{X: 231, Y: -120}, Vector2f{X: 230.5, Y: -119.5}.Round())
	assert.Equal(t, Vector2i{X: 230, Y: 120}, Vector2f{X: 230.4, Y: 120.2}.Round())
}
