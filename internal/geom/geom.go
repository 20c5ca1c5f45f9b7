// Package geom holds the plane geometry used for hit-testing, erasing and lasso selection.
// All values are world units unless a caller says otherwise.
package geom

import "math"

// Point is a 2D point with floating-point coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(o Point) Point        { return Point{X: p.X + o.X, Y: p.Y + o.Y} }
func (p Point) Sub(o Point) Point        { return Point{X: p.X - o.X, Y: p.Y - o.Y} }
func (p Point) Scale(f float64) Point    { return Point{X: p.X * f, Y: p.Y * f} }
func (p Point) Dot(o Point) float64      { return p.X*o.X + p.Y*o.Y }
func (p Point) Equal(o Point) bool       { return p.X == o.X && p.Y == o.Y }
func (p Point) Distance(o Point) float64 { return Distance(p, o) }

// Rect is an axis-aligned rectangle given by its top-left corner and size.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect creates a new Rect.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

func (r Rect) Min() Point    { return Point{X: r.X, Y: r.Y} }
func (r Rect) Max() Point    { return Point{X: r.X + r.Width, Y: r.Y + r.Height} }
func (r Rect) Center() Point { return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2} }

// Corners returns top-left, top-right, bottom-right, bottom-left.
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{X: r.X, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y + r.Height},
		{X: r.X, Y: r.Y + r.Height},
	}
}

// Inflate grows the rectangle by m on every side (negative m shrinks it).
func (r Rect) Inflate(m float64) Rect {
	return Rect{X: r.X - m, Y: r.Y - m, Width: r.Width + 2*m, Height: r.Height + 2*m}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool { return PointInRect(p, r) }

// Union returns the smallest rectangle containing both rectangles.
func (r Rect) Union(o Rect) Rect {
	x := math.Min(r.X, o.X)
	y := math.Min(r.Y, o.Y)
	x2 := math.Max(r.X+r.Width, o.X+o.Width)
	y2 := math.Max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: x, Y: y, Width: x2 - x, Height: y2 - y}
}

func DistanceSq(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

func Distance(a, b Point) float64 {
	return math.Sqrt(DistanceSq(a, b))
}

// DistancePointToSegment returns the distance from p to the closest point of segment s1-s2.
// A zero-length segment degrades to the distance between p and s1.
func DistancePointToSegment(p, s1, s2 Point) float64 {
	lenSq := DistanceSq(s1, s2)
	if lenSq == 0 {
		return Distance(p, s1)
	}
	t := p.Sub(s1).Dot(s2.Sub(s1)) / lenSq
	t = math.Max(0, math.Min(1, t))
	return Distance(p, s1.Add(s2.Sub(s1).Scale(t)))
}

// ProjectOntoLine projects p onto the infinite line through a and b.
// When a == b the line is undefined and a is returned.
func ProjectOntoLine(p, a, b Point) Point {
	d := b.Sub(a)
	lenSq := d.Dot(d)
	if lenSq == 0 {
		return a
	}
	t := p.Sub(a).Dot(d) / lenSq
	return a.Add(d.Scale(t))
}

// PointInRect is an inclusive bounds check.
func PointInRect(p Point, r Rect) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// PointInPolygon uses the crossing-number rule. The polygon is treated as closed;
// points exactly on an edge may land on either side.
func PointInPolygon(p Point, polygon []Point) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		pi, pj := polygon[i], polygon[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

// BoundingBox computes the axis-aligned bounding box of a set of points.
func BoundingBox(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Translate returns a copy of points shifted by d.
func Translate(points []Point, d Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = p.Add(d)
	}
	return out
}
