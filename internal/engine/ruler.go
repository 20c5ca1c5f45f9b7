package engine

import (
	"math"
	"strconv"

	"ResearchBoard/internal/geom"
	"ResearchBoard/internal/viewport"
)

const (
	// MinTickPx is the smallest on-screen gap between minor ticks that stays legible.
	MinTickPx = 7.0
	// TargetTickPx is the preferred on-screen gap between minor ticks.
	TargetTickPx = 15.0
	// MinMajorPx is the smallest on-screen gap between labelled major ticks.
	MinMajorPx = 50.0
	// RulerGrabPx is the screen-space grab radius of the ruler's endpoints and body.
	RulerGrabPx = 12.0
	// DefaultRulerPx is the on-screen length of a freshly shown ruler.
	DefaultRulerPx = 400.0

	maxTicks = 4000
)

var niceMultipliers = []float64{1, 2, 2.5, 5}

// RulerHandle is the part of the ruler being dragged.
type RulerHandle int

const (
	RulerNone RulerHandle = iota
	RulerP1
	RulerP2
	RulerBody
)

// Ruler is a straight guide between two world points.
type Ruler struct {
	Active bool       `json:"active"`
	P1     geom.Point `json:"p1"`
	P2     geom.Point `json:"p2"`
}

// Length in world units.
func (r Ruler) Length() float64 { return geom.Distance(r.P1, r.P2) }

// Angle of P1->P2 in degrees.
func (r Ruler) Angle() float64 {
	return math.Atan2(r.P2.Y-r.P1.Y, r.P2.X-r.P1.X) * 180 / math.Pi
}

// Constrains reports whether strokes should snap to this ruler. A zero-length ruler has no direction.
func (r Ruler) Constrains() bool {
	return r.Active && r.Length() > 0
}

// Project puts p on the ruler's infinite line.
func (r Ruler) Project(p geom.Point) geom.Point {
	return geom.ProjectOntoLine(p, r.P1, r.P2)
}

// ConstrainFrom projects p onto the line through origin that runs parallel to the ruler.
func (r Ruler) ConstrainFrom(origin, p geom.Point) geom.Point {
	return geom.ProjectOntoLine(p, origin, origin.Add(r.P2.Sub(r.P1)))
}

// HitTest finds the grabbed part for a world point; grab distances scale with zoom so they
// stay constant on screen. Endpoints win over the body.
func (r Ruler) HitTest(w geom.Point, zoom float64) RulerHandle {
	if !r.Active {
		return RulerNone
	}
	tol := RulerGrabPx / viewport.ClampZoom(zoom)
	switch {
	case geom.Distance(w, r.P1) <= tol:
		return RulerP1
	case geom.Distance(w, r.P2) <= tol:
		return RulerP2
	case geom.DistancePointToSegment(w, r.P1, r.P2) <= tol:
		return RulerBody
	}
	return RulerNone
}

// Drag returns the ruler moved by world delta d from its state at drag start.
func (r Ruler) Drag(h RulerHandle, d geom.Point) Ruler {
	switch h {
	case RulerP1:
		r.P1 = r.P1.Add(d)
	case RulerP2:
		r.P2 = r.P2.Add(d)
	case RulerBody:
		r.P1 = r.P1.Add(d)
		r.P2 = r.P2.Add(d)
	}
	return r
}

// TickScale describes tick spacing at one zoom level.
type TickScale struct {
	Minor      float64 // world units between minor ticks
	MajorEvery int     // minor ticks per major tick
	Decimals   int     // label precision
}

// ComputeTickScale picks the nice interval (1, 2, 2.5 or 5 times a power of ten) whose on-screen
// spacing is at least MinTickPx and nearest TargetTickPx, preferring the larger one on ties.
func ComputeTickScale(zoom float64) TickScale {
	zoom = viewport.ClampZoom(zoom)
	exp := math.Floor(math.Log10(TargetTickPx / zoom))

	best, bestDiff := 0.0, math.Inf(1)
	for e := exp - 1; e <= exp+1; e++ {
		pow := math.Pow(10, e)
		for _, m := range niceMultipliers {
			interval := m * pow
			px := interval * zoom
			if px < MinTickPx {
				continue
			}
			diff := math.Abs(px - TargetTickPx)
			if diff < bestDiff-1e-9 || (math.Abs(diff-bestDiff) <= 1e-9 && interval > best) {
				best, bestDiff = interval, diff
			}
		}
	}

	majorEvery := 5
	if best*zoom*5 < MinMajorPx {
		majorEvery = 10
	}

	return TickScale{Minor: best, MajorEvery: majorEvery, Decimals: labelDecimals(best)}
}

func labelDecimals(interval float64) int {
	switch {
	case interval >= 1:
		return 0
	case interval >= 0.1:
		return 1
	case interval >= 0.01:
		return 2
	case interval >= 0.001:
		return 3
	}
	return 4
}

// Tick is one mark along the ruler, Offset world units from P1.
type Tick struct {
	Offset float64
	Major  bool
	Label  string
}

// Ticks enumerates the marks from P1 towards P2 for the given zoom.
func (r Ruler) Ticks(zoom float64) []Tick {
	scale := ComputeTickScale(zoom)
	length := r.Length()
	if scale.Minor <= 0 || length <= 0 {
		return nil
	}
	n := int(math.Floor(length/scale.Minor + 1e-9))
	if n > maxTicks {
		n = maxTicks
	}
	ticks := make([]Tick, 0, n+1)
	for i := 0; i <= n; i++ {
		t := Tick{Offset: float64(i) * scale.Minor}
		if i%scale.MajorEvery == 0 {
			t.Major = true
			t.Label = strconv.FormatFloat(t.Offset, 'f', scale.Decimals, 64)
		}
		ticks = append(ticks, t)
	}
	return ticks
}

// PointAt returns the world point offset units along the ruler from P1.
func (r Ruler) PointAt(offset float64) geom.Point {
	l := r.Length()
	if l == 0 {
		return r.P1
	}
	return r.P1.Add(r.P2.Sub(r.P1).Scale(offset / l))
}
