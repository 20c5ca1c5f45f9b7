package engine

import (
	"math"

	"ResearchBoard/internal/geom"
	"ResearchBoard/internal/state"
	"ResearchBoard/internal/viewport"
)

// MinDimension is the smallest width/height (world units) a resize may produce.
const MinDimension = 50.0

// Handle names a resize grip on an item's bounding box.
type Handle int

const (
	HandleNone Handle = iota
	HandleN
	HandleNE
	HandleE
	HandleSE
	HandleS
	HandleSW
	HandleW
	HandleNW
)

var noteHandles = []Handle{HandleN, HandleNE, HandleE, HandleSE, HandleS, HandleSW, HandleW, HandleNW}

// edges lists which sides of the box a handle moves.
func (h Handle) edges() (left, right, top, bottom bool) {
	switch h {
	case HandleN:
		top = true
	case HandleNE:
		top, right = true, true
	case HandleE:
		right = true
	case HandleSE:
		bottom, right = true, true
	case HandleS:
		bottom = true
	case HandleSW:
		bottom, left = true, true
	case HandleW:
		left = true
	case HandleNW:
		top, left = true, true
	}
	return
}

// Position returns where the handle sits on r.
func (h Handle) Position(r geom.Rect) geom.Point {
	left, right, top, bottom := h.edges()
	p := r.Center()
	if left {
		p.X = r.X
	}
	if right {
		p.X = r.X + r.Width
	}
	if top {
		p.Y = r.Y
	}
	if bottom {
		p.Y = r.Y + r.Height
	}
	return p
}

// Manipulator applies drags and resizes for one item kind. Every method works from the
// item as it was when the gesture started plus the total world delta since then.
type Manipulator interface {
	Handles() []Handle
	Translate(start state.Item, d geom.Point) state.Item
	Resize(start state.Item, h Handle, d geom.Point) state.Item
}

// ManipulatorFor picks the manipulator of an item kind.
func ManipulatorFor(k state.Kind) Manipulator {
	switch k {
	case state.KindNote:
		return noteManipulator{}
	case state.KindText:
		return textManipulator{}
	case state.KindLine:
		return lineManipulator{}
	case state.KindImage:
		return imageManipulator{}
	}
	return lineManipulator{}
}

func translateBox(start state.Item, d geom.Point) state.Item {
	it := start.Clone()
	it.X = start.X + d.X
	it.Y = start.Y + d.Y
	return it
}

type noteManipulator struct{}

func (noteManipulator) Handles() []Handle { return noteHandles }

func (noteManipulator) Translate(start state.Item, d geom.Point) state.Item {
	return translateBox(start, d)
}

// Resize keeps the edge opposite the dragged one where it was.
func (noteManipulator) Resize(start state.Item, h Handle, d geom.Point) state.Item {
	it := start.Clone()
	if it.Note == nil {
		return it
	}
	left, right, top, bottom := h.edges()
	w0, h0 := start.Note.Width, start.Note.Height

	if right {
		it.Note.Width = math.Max(MinDimension, w0+d.X)
	}
	if left {
		it.Note.Width = math.Max(MinDimension, w0-d.X)
		it.X = start.X + w0 - it.Note.Width
	}
	if bottom {
		it.Note.Height = math.Max(MinDimension, h0+d.Y)
	}
	if top {
		it.Note.Height = math.Max(MinDimension, h0-d.Y)
		it.Y = start.Y + h0 - it.Note.Height
	}
	return it
}

type textManipulator struct{}

func (textManipulator) Handles() []Handle { return []Handle{HandleE} }

func (textManipulator) Translate(start state.Item, d geom.Point) state.Item {
	return translateBox(start, d)
}

// Resize only changes the width; height keeps following the content.
func (textManipulator) Resize(start state.Item, h Handle, d geom.Point) state.Item {
	it := start.Clone()
	if it.Text == nil || h != HandleE {
		return it
	}
	it.Text.Width = math.Max(MinDimension, start.Text.Width+d.X)
	return it
}

type imageManipulator struct{}

func (imageManipulator) Handles() []Handle { return []Handle{HandleSE} }

func (imageManipulator) Translate(start state.Item, d geom.Point) state.Item {
	return translateBox(start, d)
}

// Resize follows the horizontal delta and derives the height from the original aspect ratio.
func (imageManipulator) Resize(start state.Item, h Handle, d geom.Point) state.Item {
	it := start.Clone()
	if it.Image == nil || h != HandleSE {
		return it
	}
	ratio := 1.0
	if start.Image.Height > 0 && start.Image.Width > 0 {
		ratio = start.Image.Width / start.Image.Height
	}
	// both sides stay at or above the floor
	minW := math.Max(MinDimension, MinDimension*ratio)
	it.Image.Width = math.Max(minW, start.Image.Width+d.X)
	it.Image.Height = it.Image.Width / ratio
	return it
}

type lineManipulator struct{}

func (lineManipulator) Handles() []Handle { return nil }

func (lineManipulator) Translate(start state.Item, d geom.Point) state.Item {
	it := start.Clone()
	if it.Line == nil {
		return translateBox(start, d)
	}
	it.Line.Points = geom.Translate(start.Line.Points, d)
	it.SyncLineOrigin()
	return it
}

func (lineManipulator) Resize(start state.Item, _ Handle, _ geom.Point) state.Item {
	return start.Clone()
}

// interaction follows one drag or resize. The start snapshots never change, so every move
// recomputes from scratch instead of accumulating deltas.
type interaction struct {
	starts      []state.Item
	startScreen geom.Point
	handle      Handle
	moved       bool
}

func newInteraction(items []state.Item, startScreen geom.Point, h Handle) *interaction {
	starts := make([]state.Item, len(items))
	for i, it := range items {
		starts[i] = it.Clone()
	}
	return &interaction{starts: starts, startScreen: startScreen, handle: h}
}

// delta converts the screen movement since the start into world units.
func (in *interaction) delta(cur geom.Point, zoom float64) geom.Point {
	return viewport.ScreenDelta(cur.Sub(in.startScreen), zoom)
}

func (in *interaction) drag(cur geom.Point, zoom float64) []state.Item {
	d := in.delta(cur, zoom)
	out := make([]state.Item, len(in.starts))
	for i, st := range in.starts {
		out[i] = ManipulatorFor(st.Kind).Translate(st, d)
	}
	in.moved = true
	return out
}

func (in *interaction) resize(cur geom.Point, zoom float64) state.Item {
	st := in.starts[0]
	in.moved = true
	return ManipulatorFor(st.Kind).Resize(st, in.handle, in.delta(cur, zoom))
}
