package state

import (
	"ResearchBoard/internal/geom"
)

// DefaultPlacementGap is the free margin kept around placed content.
const DefaultPlacementGap = 20.0

const maxPlacementRings = 64

// SpaceFinder tracks the occupied regions of a board and finds free areas for new content.
type SpaceFinder struct {
	regions []geom.Rect
	gap     float64
}

func NewSpaceFinder(items []Item, gap float64) *SpaceFinder {
	sf := &SpaceFinder{gap: gap}
	for _, it := range items {
		sf.Claim(it.Bounds())
	}
	return sf
}

// Claim marks area as occupied.
func (sf *SpaceFinder) Claim(area geom.Rect) {
	sf.regions = append(sf.regions, area)
}

// Occupied reports whether area comes closer than the gap to any claimed region.
func (sf *SpaceFinder) Occupied(area geom.Rect) bool {
	for _, r := range sf.regions {
		if sf.overlap(area, r) {
			return true
		}
	}
	return false
}

func (sf *SpaceFinder) overlap(a, b geom.Rect) bool {
	return !(a.X+a.Width+sf.gap <= b.X || b.X+b.Width+sf.gap <= a.X ||
		a.Y+a.Height+sf.gap <= b.Y || b.Y+b.Height+sf.gap <= a.Y)
}

// FindFree returns want if it is free, otherwise the nearest free copy of it found by
// stepping right, below, left and above in growing rings.
func (sf *SpaceFinder) FindFree(want geom.Rect) geom.Rect {
	if !sf.Occupied(want) {
		return want
	}
	stepX, stepY := want.Width+sf.gap, want.Height+sf.gap
	for ring := 1; ring <= maxPlacementRings; ring++ {
		k := float64(ring)
		offsets := []geom.Point{
			{X: k * stepX, Y: 0},
			{X: 0, Y: k * stepY},
			{X: -k * stepX, Y: 0},
			{X: 0, Y: -k * stepY},
		}
		for _, d := range offsets {
			alt := geom.NewRect(want.X+d.X, want.Y+d.Y, want.Width, want.Height)
			if !sf.Occupied(alt) {
				return alt
			}
		}
	}
	// everything nearby is taken: go below all content
	bottom := want.Y
	for _, r := range sf.regions {
		if y := r.Y + r.Height + sf.gap; y > bottom {
			bottom = y
		}
	}
	return geom.NewRect(want.X, bottom, want.Width, want.Height)
}
