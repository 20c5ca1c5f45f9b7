// Package engine is the board's direct-manipulation core: it turns pointer input into
// item mutations, strokes, lasso selections, ruler moves and pan/zoom changes.
//
// A Session is driven from a single goroutine (the UI event loop). Durable saves are
// handed to a Persister and never block input handling.
package engine

import (
	"time"

	"ResearchBoard/internal/geom"
)

// Pointer is one input sample, identical for mouse and touch. X/Y are screen pixels.
type Pointer struct {
	ID    int
	X, Y  float64
	Touch bool
}

func (p Pointer) Pos() geom.Point { return geom.Point{X: p.X, Y: p.Y} }

// MousePointer adapts a mouse sample; the mouse always uses pointer id 0.
func MousePointer(x, y float64) Pointer {
	return Pointer{ID: 0, X: x, Y: y}
}

// TouchPointer adapts one touch point; touch ids start at 1.
func TouchPointer(id int, x, y float64) Pointer {
	return Pointer{ID: id + 1, X: x, Y: y, Touch: true}
}

type Tool int

const (
	ToolSelect Tool = iota // select items, pan on empty canvas
	ToolPen
	ToolLasso
)

func (t Tool) String() string {
	switch t {
	case ToolPen:
		return "pen"
	case ToolLasso:
		return "lasso"
	}
	return "select"
}

type PenMode int

const (
	PenModePen PenMode = iota
	PenModeHighlighter
	PenModeEraser
)

func (m PenMode) String() string {
	switch m {
	case PenModeHighlighter:
		return "highlighter"
	case PenModeEraser:
		return "eraser"
	}
	return "pen"
}

// GestureState is the single active interaction of a session.
type GestureState int

const (
	StateIdle GestureState = iota
	StatePanning
	StateDrawing
	StateLassoing
	StateGroupDragging
	StatePinchZooming
	StateItemDragging
	StateItemResizing
	StateRulerDragging
)

func (s GestureState) String() string {
	switch s {
	case StatePanning:
		return "panning"
	case StateDrawing:
		return "drawing"
	case StateLassoing:
		return "lassoing"
	case StateGroupDragging:
		return "group-dragging"
	case StatePinchZooming:
		return "pinch-zooming"
	case StateItemDragging:
		return "item-dragging"
	case StateItemResizing:
		return "item-resizing"
	case StateRulerDragging:
		return "ruler-dragging"
	}
	return "idle"
}

const (
	// PanThreshold is the screen distance after which a press on empty canvas counts as a pan.
	PanThreshold = 5.0
	// DoubleTapWindow is the maximum gap between two presses that enter edit mode.
	DoubleTapWindow = 300 * time.Millisecond
	// HandleRadius is the screen-space grab radius of resize handles.
	HandleRadius = 8.0
	// HitTolerance is the extra screen-space slack when picking lines.
	HitTolerance = 4.0
	// HighlighterWidth is the fixed stroke width of the highlighter.
	HighlighterWidth = 20.0
)

// StrokeStyle is how a line should be painted: opacity plus cap shape.
type StrokeStyle struct {
	Opacity  float64
	RoundCap bool
}
