package ui

import (
	"image/color"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ResearchBoard/internal/engine"
	"ResearchBoard/internal/state"
	"ResearchBoard/internal/storage"
)

func newTestBoard(t *testing.T) (*BoardWidget, *engine.Session) {
	t.Helper()
	test.NewTempApp(t)
	opts := engine.DefaultOptions()
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	opts.Now = func() time.Time { return clock }
	s := engine.NewSession(storage.Empty(), nil, opts)
	b := NewBoardWidget(s)
	b.Resize(fyne.NewSize(800, 600))
	return b, s
}

func press(x, y float32) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     desktop.MouseButtonPrimary,
	}
}

func drag(x, y float32) *fyne.DragEvent {
	return &fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}}
}

func TestBoardWidget_LayoutSetsContainer(t *testing.T) {
	_, s := newTestBoard(t)
	assert.Equal(t, 800.0, s.Container().Width)
	assert.Equal(t, 600.0, s.Container().Height)
}

func TestBoardWidget_DrawStroke(t *testing.T) {
	b, s := newTestBoard(t)
	s.SetPenMode(engine.PenModePen)

	b.MouseDown(press(100, 100))
	b.Dragged(drag(150, 120))
	b.Dragged(drag(200, 140))
	b.DragEnd()
	b.MouseUp(press(200, 140))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, state.KindLine, items[0].Kind)
	assert.Len(t, items[0].Line.Points, 3)
	assert.Equal(t, engine.StateIdle, s.State())
}

func TestBoardWidget_SecondaryButtonIgnored(t *testing.T) {
	b, s := newTestBoard(t)
	s.SetPenMode(engine.PenModePen)

	ev := press(100, 100)
	ev.Button = desktop.MouseButtonSecondary
	b.MouseDown(ev)
	b.Dragged(drag(200, 200))
	b.MouseUp(ev)

	assert.Empty(t, s.Items())
	assert.Equal(t, engine.StateIdle, s.State())
}

func TestBoardWidget_MouseOutEndsGesture(t *testing.T) {
	b, s := newTestBoard(t)
	s.SetPenMode(engine.PenModePen)

	b.MouseDown(press(100, 100))
	b.MouseMoved(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(300, 100)}})
	b.MouseOut()

	assert.Len(t, s.Items(), 1)
	assert.Equal(t, engine.StateIdle, s.State())
}

func TestBoardWidget_ScrollZooms(t *testing.T) {
	b, s := newTestBoard(t)
	b.Scrolled(&fyne.ScrollEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(400, 300)},
		Scrolled:   fyne.NewDelta(0, scrollPerStep),
	})
	assert.InDelta(t, 1.2, s.View().Zoom, 1e-9)
}

func TestBoardWidget_DoubleTapRequestsEdit(t *testing.T) {
	b, s := newTestBoard(t)
	note, err := s.AddNote()
	require.NoError(t, err)

	var requested []int64
	b.OnEditRequest = func(id int64) { requested = append(requested, id) }

	for i := 0; i < 2; i++ {
		b.MouseDown(press(400, 300))
		b.MouseUp(press(400, 300))
	}
	assert.Equal(t, []int64{note.ID}, requested)

	require.NoError(t, b.FinishEdit(note.ID, "Interview notes", true))
	_, editing := s.Editing()
	assert.False(t, editing)
	got, _ := s.Item(note.ID)
	assert.Equal(t, "Interview notes", got.Content())
}

func TestBoardWidget_FinishEditCancel(t *testing.T) {
	b, s := newTestBoard(t)
	note, err := s.AddNote()
	require.NoError(t, err)
	require.True(t, s.BeginEdit(note.ID))

	require.NoError(t, b.FinishEdit(note.ID, "discarded", false))
	_, editing := s.Editing()
	assert.False(t, editing)
	got, _ := s.Item(note.ID)
	assert.Empty(t, got.Content())
}

func TestBoardRenderer_Objects(t *testing.T) {
	b, s := newTestBoard(t)
	r := test.WidgetRenderer(b)
	assert.Len(t, r.Objects(), 1)

	_, err := s.AddNote()
	require.NoError(t, err)
	s.ToggleRuler()

	noteFill := state.ColorOr(s.Options().NoteColor, defaultNote)
	var foundNote, foundHandle bool
	for _, o := range r.Objects() {
		rect, ok := o.(*canvas.Rectangle)
		if !ok {
			continue
		}
		if rect.FillColor == noteFill {
			foundNote = true
		}
		if rect.FillColor == color.White && rect.StrokeColor == selectionColor {
			foundHandle = true
		}
	}
	assert.True(t, foundNote)
	assert.True(t, foundHandle)
	assert.Greater(t, len(r.Objects()), 10)
}

func TestToolChoices(t *testing.T) {
	_, s := newTestBoard(t)
	for _, choice := range toolChoices {
		applyToolChoice(s, choice)
		assert.Equal(t, choice, toolChoice(s))
	}
}

func TestPickColorRecolorsSelection(t *testing.T) {
	_, s := newTestBoard(t)
	note, err := s.AddNote()
	require.NoError(t, err)

	pickColor(s, "#e53935")
	assert.Equal(t, "#e53935", s.Color())
	got, _ := s.Item(note.ID)
	assert.Equal(t, "#e53935", got.Note.Color)
}

func TestWithOpacity(t *testing.T) {
	c := withOpacity(color.NRGBA{R: 10, A: 200}, 0.4)
	assert.Equal(t, uint8(80), c.A)
	assert.Equal(t, uint8(10), c.R)
}
