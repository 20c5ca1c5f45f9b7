package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ResearchBoard/internal/geom"
	"ResearchBoard/internal/state"
)

func TestNoteResize(t *testing.T) {
	start := state.NewNote(0, 0, 100, 100, "#fff", 16)
	m := ManipulatorFor(state.KindNote)

	tests := []struct {
		name       string
		handle     Handle
		d          geom.Point
		wantBounds geom.Rect
	}{
		{"se grows", HandleSE, geom.Pt(20, 30), geom.NewRect(0, 0, 120, 130)},
		{"w keeps right edge", HandleW, geom.Pt(-20, 0), geom.NewRect(-20, 0, 120, 100)},
		{"n keeps bottom edge", HandleN, geom.Pt(0, 30), geom.NewRect(0, 30, 100, 70)},
		{"nw floor anchors bottom right", HandleNW, geom.Pt(1000, 1000), geom.NewRect(50, 50, 50, 50)},
		{"e ignores vertical", HandleE, geom.Pt(10, 99), geom.NewRect(0, 0, 110, 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Resize(start, tt.handle, tt.d)
			assert.Equal(t, tt.wantBounds, got.Bounds())
			assert.Equal(t, 100.0, start.Note.Width, "start snapshot must not change")
		})
	}
}

func TestResizeNeverBelowFloor(t *testing.T) {
	start := state.NewNote(10, 10, 120, 80, "#fff", 16)
	m := ManipulatorFor(state.KindNote)
	deltas := []geom.Point{geom.Pt(1000, 1000), geom.Pt(-1000, -1000), geom.Pt(1000, -1000), geom.Pt(-1000, 1000)}
	for _, h := range m.Handles() {
		for _, d := range deltas {
			got := m.Resize(start, h, d)
			assert.GreaterOrEqual(t, got.Note.Width, MinDimension)
			assert.GreaterOrEqual(t, got.Note.Height, MinDimension)
		}
	}
}

func TestImageResizeKeepsAspect(t *testing.T) {
	start := state.NewImage(0, 0, 200, 100, "cat.png")
	m := ManipulatorFor(state.KindImage)
	assert.Equal(t, []Handle{HandleSE}, m.Handles())

	got := m.Resize(start, HandleSE, geom.Pt(100, -40))
	assert.Equal(t, 300.0, got.Image.Width)
	assert.Equal(t, 150.0, got.Image.Height)

	got = m.Resize(start, HandleSE, geom.Pt(-500, 0))
	assert.Equal(t, 100.0, got.Image.Width)
	assert.Equal(t, 50.0, got.Image.Height)

	got = m.Resize(start, HandleNW, geom.Pt(50, 50))
	assert.Equal(t, start.Image, got.Image)
}

func TestTextResizeIsHorizontal(t *testing.T) {
	start := state.NewText(0, 0, 200, "hello", "#000", 16)
	m := ManipulatorFor(state.KindText)
	assert.Equal(t, []Handle{HandleE}, m.Handles())

	got := m.Resize(start, HandleE, geom.Pt(40, 400))
	assert.Equal(t, 240.0, got.Text.Width)
	assert.Equal(t, start.TextHeight(), got.TextHeight())

	got = m.Resize(start, HandleE, geom.Pt(-500, 0))
	assert.Equal(t, MinDimension, got.Text.Width)
}

func TestLineTranslate(t *testing.T) {
	start := state.NewLine([]geom.Point{geom.Pt(0, 0), geom.Pt(10, 10)}, "#000", 2, state.PenPen)
	m := ManipulatorFor(state.KindLine)
	assert.Empty(t, m.Handles())

	got := m.Translate(start, geom.Pt(5, 5))
	assert.Equal(t, []geom.Point{geom.Pt(5, 5), geom.Pt(15, 15)}, got.Line.Points)
	assert.Equal(t, geom.Pt(5, 5), got.Pos())
	assert.Equal(t, geom.Pt(0, 0), start.Line.Points[0])
}

func TestInteractionDragIsAbsolute(t *testing.T) {
	start := state.NewNote(100, 100, 50, 50, "#fff", 16)
	in := newInteraction([]state.Item{start}, geom.Pt(0, 0), HandleNone)

	var got []state.Item
	for _, x := range []float64{10, 20, 30} {
		got = in.drag(geom.Pt(x, 0), 1)
	}
	assert.Equal(t, geom.Pt(130, 100), got[0].Pos())
	assert.True(t, in.moved)
}

func TestHandlePosition(t *testing.T) {
	r := geom.NewRect(0, 0, 100, 50)
	assert.Equal(t, geom.Pt(50, 0), HandleN.Position(r))
	assert.Equal(t, geom.Pt(100, 50), HandleSE.Position(r))
	assert.Equal(t, geom.Pt(0, 25), HandleW.Position(r))
}
