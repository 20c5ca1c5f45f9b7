package engine

import (
	"ResearchBoard/internal/geom"
	"ResearchBoard/internal/state"
)

// Drawer collects one freehand stroke. With a ruler it snaps the first point onto the
// ruler's line and every later point onto the parallel through that first point.
type Drawer struct {
	points []geom.Point
	ruler  Ruler
	snap   bool
	active bool
}

// Begin starts a stroke at world point p.
func (d *Drawer) Begin(p geom.Point, ruler Ruler) {
	d.ruler = ruler
	d.snap = ruler.Constrains()
	if d.snap {
		p = ruler.Project(p)
	}
	d.points = []geom.Point{p}
	d.active = true
}

// Extend appends a sample in arrival order.
func (d *Drawer) Extend(p geom.Point) {
	if !d.active {
		return
	}
	if d.snap {
		p = d.ruler.ConstrainFrom(d.points[0], p)
	}
	d.points = append(d.points, p)
}

// End finishes the stroke; ok is false when it is too short to become a line.
func (d *Drawer) End() (points []geom.Point, ok bool) {
	points = d.points
	d.Reset()
	return points, len(points) >= 2
}

// Reset drops the in-progress stroke.
func (d *Drawer) Reset() {
	d.points = nil
	d.active = false
	d.snap = false
}

func (d *Drawer) Active() bool { return d.active }

// Points returns a copy of the in-progress stroke for live rendering.
func (d *Drawer) Points() []geom.Point {
	return append([]geom.Point(nil), d.points...)
}

// StyleFor is the paint contract of a line: the highlighter is a translucent flat marker.
func StyleFor(pen state.PenType) StrokeStyle {
	if pen == state.PenHighlighter {
		return StrokeStyle{Opacity: 0.4, RoundCap: false}
	}
	return StrokeStyle{Opacity: 1, RoundCap: true}
}

// LineTouched reports whether an eraser of radius r at p reaches any segment of the line.
func LineTouched(it state.Item, p geom.Point, r float64) bool {
	if it.Line == nil {
		return false
	}
	reach := it.Line.Width/2 + r
	pts := it.Line.Points
	for i := 1; i < len(pts); i++ {
		if geom.DistancePointToSegment(p, pts[i-1], pts[i]) < reach {
			return true
		}
	}
	return false
}

// EraseHits lists the lines an eraser at p would delete. Lines are deleted whole.
func EraseHits(items []state.Item, p geom.Point, r float64) []int64 {
	var hits []int64
	for _, it := range items {
		if it.Kind == state.KindLine && LineTouched(it, p, r) {
			hits = append(hits, it.ID)
		}
	}
	return hits
}
