package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistancePointToSegment(t *testing.T) {
	tests := []struct {
		name   string
		p      Point
		s1, s2 Point
		want   float64
	}{
		{"perpendicular to middle", Pt(5, 5), Pt(0, 0), Pt(10, 0), 5},
		{"clamped to start", Pt(-5, 0), Pt(0, 0), Pt(10, 0), 5},
		{"clamped to end", Pt(13, 4), Pt(0, 0), Pt(10, 0), 5},
		{"on the segment", Pt(3, 0), Pt(0, 0), Pt(10, 0), 0},
		{"diagonal segment", Pt(0, 10), Pt(0, 0), Pt(10, 10), math.Sqrt(50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DistancePointToSegment(tt.p, tt.s1, tt.s2), 1e-9)
		})
	}
}

func TestDistancePointToSegment_Degenerate(t *testing.T) {
	points := []Point{Pt(0, 0), Pt(3, 4), Pt(-7, 2.5), Pt(100, -100)}
	s := Pt(1.5, -2)
	for _, p := range points {
		assert.Equal(t, Distance(p, s), DistancePointToSegment(p, s, s))
	}
}

func TestProjectOntoLine(t *testing.T) {
	// Unclamped: projection may fall outside the defining segment.
	got := ProjectOntoLine(Pt(20, 7), Pt(0, 0), Pt(10, 0))
	assert.InDelta(t, 20, got.X, 1e-9)
	assert.InDelta(t, 0, got.Y, 1e-9)

	got = ProjectOntoLine(Pt(4, 0), Pt(0, 0), Pt(5, 5))
	assert.InDelta(t, 2, got.X, 1e-9)
	assert.InDelta(t, 2, got.Y, 1e-9)

	assert.Equal(t, Pt(1, 1), ProjectOntoLine(Pt(9, 9), Pt(1, 1), Pt(1, 1)))
}

func TestPointInRect(t *testing.T) {
	r := NewRect(10, 10, 20, 20)
	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"inside", Pt(15, 15), true},
		{"top-left corner", Pt(10, 10), true},
		{"bottom-right corner", Pt(30, 30), true},
		{"left of rect", Pt(9.99, 15), false},
		{"below rect", Pt(15, 30.01), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointInRect(tt.p, r))
		})
	}
}

func TestPointInPolygon(t *testing.T) {
	square := []Point{Pt(-10, -10), Pt(100, -10), Pt(100, 100), Pt(-10, 100)}
	assert.True(t, PointInPolygon(Pt(0, 0), square))
	assert.True(t, PointInPolygon(Pt(50, 50), square))
	assert.False(t, PointInPolygon(Pt(150, 50), square))
	assert.False(t, PointInPolygon(Pt(50, -20), square))

	// Concave "U" shape: the notch is outside.
	u := []Point{Pt(0, 0), Pt(30, 0), Pt(30, 30), Pt(20, 30), Pt(20, 10), Pt(10, 10), Pt(10, 30), Pt(0, 30)}
	assert.True(t, PointInPolygon(Pt(5, 20), u))
	assert.False(t, PointInPolygon(Pt(15, 20), u))

	assert.False(t, PointInPolygon(Pt(0, 0), []Point{Pt(0, 0), Pt(1, 1)}))
}

func TestBoundingBox(t *testing.T) {
	assert.Equal(t, Rect{}, BoundingBox(nil))
	r := BoundingBox([]Point{Pt(5, 1), Pt(-2, 8), Pt(3, -4)})
	assert.Equal(t, NewRect(-2, -4, 7, 12), r)
}

func TestRect_CornersAndInflate(t *testing.T) {
	r := NewRect(0, 0, 50, 50)
	c := r.Corners()
	assert.Equal(t, Pt(50, 50), c[2])
	assert.Equal(t, NewRect(-5, -5, 60, 60), r.Inflate(5))
	assert.Equal(t, NewRect(0, 0, 80, 60), r.Union(NewRect(70, 10, 10, 50)))
}
