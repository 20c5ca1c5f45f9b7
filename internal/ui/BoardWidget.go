package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"ResearchBoard/internal/engine"
)

// scrollPerStep is how many scroll units the desktop driver reports for one wheel notch.
const scrollPerStep = 10.0

// BoardWidget is the canvas surface. It forwards mouse input to the session as pointer
// events and repaints whenever the session changes.
type BoardWidget struct {
	widget.BaseWidget
	session *engine.Session

	down bool
	last fyne.Position

	editShown int64
	// OnEditRequest runs when a double tap puts an item into edit mode.
	OnEditRequest func(id int64)
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ fyne.Scrollable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)

func NewBoardWidget(s *engine.Session) *BoardWidget {
	b := &BoardWidget{session: s}
	b.ExtendBaseWidget(b)
	s.OnChange(b.Refresh)
	return b
}

func (b *BoardWidget) Session() *engine.Session { return b.session }

func pointer(p fyne.Position) engine.Pointer {
	return engine.MousePointer(float64(p.X), float64(p.Y))
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.down = true
	b.last = e.Position
	b.session.PointerDown(pointer(e.Position))
	b.checkEdit()
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.release(e.Position)
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.move(e.Position)
}

// DragEnd may arrive instead of MouseUp when the button is released outside the widget.
func (b *BoardWidget) DragEnd() {
	b.release(b.last)
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent) {}

func (b *BoardWidget) MouseMoved(e *desktop.MouseEvent) {
	b.move(e.Position)
}

func (b *BoardWidget) MouseOut() {
	if !b.down {
		return
	}
	b.down = false
	b.session.PointerLeave(pointer(b.last))
}

func (b *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	b.session.Wheel(pointer(e.Position), float64(e.Scrolled.DY)/scrollPerStep)
}

func (b *BoardWidget) move(p fyne.Position) {
	if !b.down {
		return
	}
	b.last = p
	b.session.PointerMove(pointer(p))
}

func (b *BoardWidget) release(p fyne.Position) {
	if !b.down {
		return
	}
	b.down = false
	b.last = p
	b.session.PointerUp(pointer(p))
}

// checkEdit reports a newly entered edit mode once.
func (b *BoardWidget) checkEdit() {
	id, ok := b.session.Editing()
	if !ok {
		b.editShown = 0
		return
	}
	if id == b.editShown {
		return
	}
	b.editShown = id
	if b.OnEditRequest != nil {
		b.OnEditRequest(id)
	}
}

// FinishEdit stores content for the item being edited and leaves edit mode.
func (b *BoardWidget) FinishEdit(id int64, content string, save bool) error {
	defer func() {
		b.session.ExitEdit()
		b.editShown = 0
	}()
	if !save {
		return nil
	}
	return b.session.SetText(id, content)
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := newBoardRenderer(b)
	r.Refresh()
	return r
}
