// Package viewport converts between world, container-local and screen coordinates.
//
// World space is where items live. Local space is pixels relative to the canvas
// container's top-left corner. Screen space is page/window pixels, i.e. local space
// offset by the container's position.
package viewport

import (
	"math"

	"ResearchBoard/internal/geom"
)

const (
	MinZoom     = 0.1
	MaxZoom     = 2.0
	DefaultZoom = 1.0
	ZoomStep    = 1.2
)

// ClampZoom bounds z to [MinZoom, MaxZoom]. Non-finite or non-positive input maps to MinZoom
// so nothing downstream ever divides by zero.
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) || z <= 0 {
		return MinZoom
	}
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

// WorldToLocal maps a world point into container-local pixels.
func WorldToLocal(w, pan geom.Point, zoom float64) geom.Point {
	return geom.Point{
		X: (w.X - pan.X) * zoom,
		Y: (w.Y - pan.Y) * zoom,
	}
}

// LocalToWorld is the inverse of WorldToLocal.
func LocalToWorld(l, pan geom.Point, zoom float64) geom.Point {
	return geom.Point{
		X: l.X/zoom + pan.X,
		Y: l.Y/zoom + pan.Y,
	}
}

// WorldToScreen maps a world point into screen pixels for a container at container.X/Y.
func WorldToScreen(w, pan geom.Point, zoom float64, container geom.Rect) geom.Point {
	l := WorldToLocal(w, pan, zoom)
	return geom.Point{X: l.X + container.X, Y: l.Y + container.Y}
}

// ScreenToWorld is the inverse of WorldToScreen.
func ScreenToWorld(s, pan geom.Point, zoom float64, container geom.Rect) geom.Point {
	return LocalToWorld(geom.Point{X: s.X - container.X, Y: s.Y - container.Y}, pan, zoom)
}

// ScreenDelta converts a screen-pixel displacement into world units.
func ScreenDelta(d geom.Point, zoom float64) geom.Point {
	return geom.Point{X: d.X / zoom, Y: d.Y / zoom}
}

// View is the pan/zoom pair persisted with the board.
type View struct {
	Pan  geom.Point `json:"pan"`
	Zoom float64    `json:"zoom"`
}

// DefaultView is the view of a fresh board.
func DefaultView() View {
	return View{Zoom: DefaultZoom}
}

// Normalize clamps the zoom of a view loaded from elsewhere.
func (v View) Normalize() View {
	v.Zoom = ClampZoom(v.Zoom)
	return v
}

func (v View) WorldToLocal(w geom.Point) geom.Point { return WorldToLocal(w, v.Pan, v.Zoom) }
func (v View) LocalToWorld(l geom.Point) geom.Point { return LocalToWorld(l, v.Pan, v.Zoom) }

func (v View) WorldToScreen(w geom.Point, container geom.Rect) geom.Point {
	return WorldToScreen(w, v.Pan, v.Zoom, container)
}

func (v View) ScreenToWorld(s geom.Point, container geom.Rect) geom.Point {
	return ScreenToWorld(s, v.Pan, v.Zoom, container)
}

// ZoomAt changes the zoom while keeping the world point under the local anchor fixed.
func (v View) ZoomAt(anchor geom.Point, zoom float64) View {
	world := v.LocalToWorld(anchor)
	zoom = ClampZoom(zoom)
	return View{Pan: AnchoredPan(world, anchor, zoom), Zoom: zoom}
}

// AnchoredPan returns the pan that places world point w under local point l at the given zoom.
func AnchoredPan(w, l geom.Point, zoom float64) geom.Point {
	return geom.Point{X: w.X - l.X/zoom, Y: w.Y - l.Y/zoom}
}
