package ui

import (
	"image/color"
	"math"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"ResearchBoard/internal/engine"
	"ResearchBoard/internal/geom"
	"ResearchBoard/internal/state"
)

const (
	notePadding   = 8.0 // world units
	handleSize    = 10.0
	rulerBodyPx   = 2 * engine.RulerGrabPx
	minorTickPx   = 6.0
	majorTickPx   = 14.0
	tickLabelSize = 10.0
)

var (
	backgroundColor = color.NRGBA{R: 245, G: 246, B: 248, A: 255}
	defaultInk      = color.NRGBA{R: 0x1f, G: 0x1f, B: 0x1f, A: 0xff}
	defaultNote     = color.NRGBA{R: 0xff, G: 0xf5, B: 0x9d, A: 0xff}
	noteBorder      = color.NRGBA{R: 0, G: 0, B: 0, A: 0x30}
	selectionColor  = color.NRGBA{R: 0x19, G: 0x76, B: 0xd2, A: 0xff}
	editingColor    = color.NRGBA{R: 0xfb, G: 0x8c, B: 0x00, A: 0xff}
	lassoColor      = color.NRGBA{R: 0x19, G: 0x76, B: 0xd2, A: 0xaa}
	rulerFill       = color.NRGBA{R: 0x90, G: 0xa4, B: 0xae, A: 0x60}
	rulerInk        = color.NRGBA{R: 0x37, G: 0x47, B: 0x4f, A: 0xff}
	imageFrame      = color.NRGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff}
)

type boardRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
	objects    []fyne.CanvasObject
	images     map[string]*canvas.Image
}

func newBoardRenderer(b *BoardWidget) *boardRenderer {
	return &boardRenderer{
		board:      b,
		background: canvas.NewRectangle(backgroundColor),
		images:     make(map[string]*canvas.Image),
	}
}

func (r *boardRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *boardRenderer) Destroy()                     {}

func (r *boardRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *boardRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.board.session.SetContainer(geom.NewRect(0, 0, float64(size.Width), float64(size.Height)))
	r.Refresh()
}

// Refresh rebuilds the scene from the session: items by z-order, then the in-progress
// stroke, lasso, ruler and selection handles on top.
func (r *boardRenderer) Refresh() {
	s := r.board.session
	r.objects = append(r.objects[:0], r.background)

	editing, _ := s.Editing()
	for _, it := range s.Items() {
		r.item(it)
		if it.ID == editing {
			r.outline(it, editingColor)
		} else if it.Selected {
			r.outline(it, selectionColor)
		}
	}

	if pts, style := s.PreviewStroke(); len(pts) > 1 {
		c := withOpacity(state.ColorOr(s.Color(), defaultInk), style.Opacity)
		r.polyline(pts, c, s.PreviewWidth()*s.View().Zoom)
	}
	if path := s.LassoPath(); len(path) > 1 {
		r.polyline(append(path, path[0]), lassoColor, 1.5)
	}
	if ruler := s.Ruler(); ruler.Active {
		r.ruler(ruler)
	}
	for _, h := range s.SelectionHandles() {
		p := s.WorldToScreen(h.Pos)
		handle := canvas.NewRectangle(color.White)
		handle.StrokeColor = selectionColor
		handle.StrokeWidth = 1.5
		handle.Resize(fyne.NewSize(handleSize, handleSize))
		handle.Move(fyne.NewPos(float32(p.X-handleSize/2), float32(p.Y-handleSize/2)))
		r.objects = append(r.objects, handle)
	}

	canvas.Refresh(r.board)
}

func (r *boardRenderer) screenRect(b geom.Rect) (fyne.Position, fyne.Size) {
	s := r.board.session
	tl := s.WorldToScreen(b.Min())
	br := s.WorldToScreen(b.Max())
	return fyne.NewPos(float32(tl.X), float32(tl.Y)), fyne.NewSize(float32(br.X-tl.X), float32(br.Y-tl.Y))
}

func (r *boardRenderer) item(it state.Item) {
	switch {
	case it.Note != nil:
		pos, size := r.screenRect(it.Bounds())
		bg := canvas.NewRectangle(state.ColorOr(it.Note.Color, defaultNote))
		bg.StrokeColor = noteBorder
		bg.StrokeWidth = 1
		bg.Move(pos)
		bg.Resize(size)
		r.objects = append(r.objects, bg)
		r.text(it.Note.Content, it.Bounds().Inflate(-notePadding), it.Note.FontSize, defaultInk, state.AlignLeft)
	case it.Text != nil:
		r.text(it.Text.Content, it.Bounds(), it.Text.FontSize, state.ColorOr(it.Text.Color, defaultInk), it.Text.Align)
	case it.Line != nil:
		style := engine.StyleFor(it.Line.Pen)
		c := withOpacity(state.ColorOr(it.Line.Color, defaultInk), style.Opacity)
		r.polyline(it.Line.Points, c, it.Line.Width*r.board.session.View().Zoom)
	case it.Image != nil:
		pos, size := r.screenRect(it.Bounds())
		frame := canvas.NewRectangle(color.Transparent)
		frame.StrokeColor = imageFrame
		frame.StrokeWidth = 1
		frame.Move(pos)
		frame.Resize(size)
		img := r.image(it.Image.Src)
		img.Move(pos)
		img.Resize(size)
		r.objects = append(r.objects, frame, img)
	}
}

// text lays content out line by line inside box; lines past the bottom are not drawn.
func (r *boardRenderer) text(content string, box geom.Rect, fontSize float64, c color.Color, align state.Align) {
	if content == "" || box.Width <= 0 {
		return
	}
	zoom := r.board.session.View().Zoom
	lineH := fontSize * state.TextLineHeight
	pos, size := r.screenRect(box)
	for i, line := range strings.Split(content, "\n") {
		if float64(i+1)*lineH > box.Height+1e-9 {
			break
		}
		t := canvas.NewText(line, c)
		t.TextSize = float32(fontSize * zoom)
		t.Alignment = textAlign(align)
		t.Move(fyne.NewPos(pos.X, pos.Y+float32(float64(i)*lineH*zoom)))
		t.Resize(fyne.NewSize(size.Width, float32(lineH*zoom)))
		r.objects = append(r.objects, t)
	}
}

func textAlign(a state.Align) fyne.TextAlign {
	switch a {
	case state.AlignCenter:
		return fyne.TextAlignCenter
	case state.AlignRight:
		return fyne.TextAlignTrailing
	}
	return fyne.TextAlignLeading
}

// polyline draws world points as screen segments of the given pixel width.
func (r *boardRenderer) polyline(pts []geom.Point, c color.Color, width float64) {
	s := r.board.session
	prev := s.WorldToScreen(pts[0])
	for _, p := range pts[1:] {
		cur := s.WorldToScreen(p)
		r.segment(prev, cur, c, width)
		prev = cur
	}
}

func (r *boardRenderer) segment(a, b geom.Point, c color.Color, width float64) {
	l := canvas.NewLine(c)
	l.StrokeWidth = float32(math.Max(width, 1))
	l.Position1 = fyne.NewPos(float32(a.X), float32(a.Y))
	l.Position2 = fyne.NewPos(float32(b.X), float32(b.Y))
	r.objects = append(r.objects, l)
}

func (r *boardRenderer) outline(it state.Item, c color.Color) {
	pos, size := r.screenRect(it.Bounds())
	o := canvas.NewRectangle(color.Transparent)
	o.StrokeColor = c
	o.StrokeWidth = 2
	o.Move(pos)
	o.Resize(size)
	r.objects = append(r.objects, o)
}

// ruler draws the translucent body, tick marks on one side and labels on major ticks.
func (r *boardRenderer) ruler(ru engine.Ruler) {
	s := r.board.session
	zoom := s.View().Zoom
	p1, p2 := s.WorldToScreen(ru.P1), s.WorldToScreen(ru.P2)
	r.segment(p1, p2, rulerFill, rulerBodyPx)

	rad := ru.Angle() * math.Pi / 180
	normal := geom.Pt(-math.Sin(rad), math.Cos(rad))
	for _, tick := range ru.Ticks(zoom) {
		base := s.WorldToScreen(ru.PointAt(tick.Offset)).Sub(normal.Scale(rulerBodyPx / 2))
		length := minorTickPx
		if tick.Major {
			length = majorTickPx
		}
		r.segment(base, base.Add(normal.Scale(length)), rulerInk, 1)
		if tick.Label != "" {
			label := canvas.NewText(tick.Label, rulerInk)
			label.TextSize = tickLabelSize
			at := base.Add(normal.Scale(majorTickPx + 1))
			label.Move(fyne.NewPos(float32(at.X-tickLabelSize/2), float32(at.Y)))
			r.objects = append(r.objects, label)
		}
	}

	for _, end := range []geom.Point{p1, p2} {
		knob := canvas.NewCircle(color.White)
		knob.StrokeColor = rulerInk
		knob.StrokeWidth = 1.5
		knob.Resize(fyne.NewSize(handleSize, handleSize))
		knob.Move(fyne.NewPos(float32(end.X-handleSize/2), float32(end.Y-handleSize/2)))
		r.objects = append(r.objects, knob)
	}
}

func (r *boardRenderer) image(src string) *canvas.Image {
	if img, ok := r.images[src]; ok {
		return img
	}
	img := canvas.NewImageFromFile(strings.TrimPrefix(src, "file://"))
	img.FillMode = canvas.ImageFillStretch
	r.images[src] = img
	return img
}

func withOpacity(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * opacity))
	return c
}
