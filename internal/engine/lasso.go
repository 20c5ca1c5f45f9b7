package engine

import (
	"ResearchBoard/internal/geom"
	"ResearchBoard/internal/state"
)

// Lasso records a freehand selection path in world space.
type Lasso struct {
	path   []geom.Point
	active bool
}

func (l *Lasso) Begin(p geom.Point) {
	l.path = []geom.Point{p}
	l.active = true
}

func (l *Lasso) Extend(p geom.Point) {
	if l.active {
		l.path = append(l.path, p)
	}
}

// Finish closes the path and returns the ids it captures; ok is false for paths of
// two points or fewer, which select nothing and leave the selection alone.
func (l *Lasso) Finish(items []state.Item) (ids []int64, ok bool) {
	path := l.path
	l.Reset()
	if len(path) <= 2 {
		return nil, false
	}
	return SelectInLasso(path, items), true
}

func (l *Lasso) Reset() {
	l.path = nil
	l.active = false
}

func (l *Lasso) Active() bool { return l.active }

// Path returns a copy of the in-progress path.
func (l *Lasso) Path() []geom.Point {
	return append([]geom.Point(nil), l.path...)
}

// representativePoints are the corners of rect-like items and every point of a line.
func representativePoints(it state.Item) []geom.Point {
	if it.Kind == state.KindLine && it.Line != nil {
		return it.Line.Points
	}
	c := it.Bounds().Corners()
	return c[:]
}

// SelectInLasso returns every item with a representative point inside the polygon, or
// with a polygon point inside its bounds (a lasso drawn entirely within a large item).
func SelectInLasso(polygon []geom.Point, items []state.Item) []int64 {
	var ids []int64
	for _, it := range items {
		if lassoHits(polygon, it) {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

func lassoHits(polygon []geom.Point, it state.Item) bool {
	for _, p := range representativePoints(it) {
		if geom.PointInPolygon(p, polygon) {
			return true
		}
	}
	bounds := it.Bounds()
	for _, p := range polygon {
		if geom.PointInRect(p, bounds) {
			return true
		}
	}
	return false
}
