package engine

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"ResearchBoard/internal/geom"
	"ResearchBoard/internal/logger"
	"ResearchBoard/internal/state"
	"ResearchBoard/internal/storage"
	"ResearchBoard/internal/viewport"
)

// Options are the creation defaults of a session.
type Options struct {
	PenColor          string
	PenWidth          float64
	HighlighterWidth  float64
	EraserRadius      float64
	ImageMaxDimension float64
	NoteWidth         float64
	NoteHeight        float64
	NoteColor         string
	FontSize          float64
	TextWidth         float64

	// Now is the clock used for double-tap detection.
	Now func() time.Time
}

func DefaultOptions() Options {
	return Options{
		PenColor:          "#1f1f1f",
		PenWidth:          3,
		HighlighterWidth:  HighlighterWidth,
		EraserRadius:      10,
		ImageMaxDimension: 400,
		NoteWidth:         200,
		NoteHeight:        200,
		NoteColor:         "#fff59d",
		FontSize:          16,
		TextWidth:         240,
		Now:               time.Now,
	}
}

// Persister receives every committed snapshot. storage.Saver is the production implementation.
type Persister interface {
	Submit(snap storage.Snapshot)
	Close(ctx context.Context) error
}

// Style is a partial style update for the selection; zero fields are left alone.
type Style struct {
	Color    string
	FontSize float64
	Align    state.Align
}

type pinch struct {
	ids       [2]int
	anchor    geom.Point // world point under the midpoint when the pinch began
	startDist float64
	startZoom float64
}

// Session owns one open board: items, view, tool settings and the active gesture.
// It is not safe for concurrent use; drive it from the UI goroutine.
type Session struct {
	board     *state.Board
	view      viewport.View
	container geom.Rect
	persister Persister
	opts      Options

	tool        Tool
	penMode     PenMode
	color       string
	strokeWidth float64
	ruler       Ruler

	gesture      GestureState
	activeID     int
	downScreen   geom.Point
	touches      map[int]geom.Point
	panStart     viewport.View
	panConfirmed bool
	inter        *interaction
	drawer       Drawer
	lasso        Lasso
	erasing      bool
	erased       []state.Item
	rulerStart   Ruler
	rulerHandle  RulerHandle
	pinch        pinch

	editing   int64
	lastTapID int64
	lastTapAt time.Time

	onChange []func()
	onCommit []func(storage.Snapshot)
}

// NewSession opens a board from a loaded snapshot. persister may be nil for a
// session that is never saved.
func NewSession(snap storage.Snapshot, persister Persister, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Session{
		board:       state.NewBoard(),
		persister:   persister,
		opts:        opts,
		color:       opts.PenColor,
		strokeWidth: opts.PenWidth,
		touches:     make(map[int]geom.Point),
	}
	s.hydrate(snap)
	return s
}

func (s *Session) hydrate(snap storage.Snapshot) {
	n := s.board.Hydrate(snap.Items)
	s.view = snap.View
	if s.view.Zoom == 0 {
		s.view = viewport.DefaultView()
	}
	s.view = s.view.Normalize()
	if n != len(snap.Items) {
		logger.Warn("[BOARD] some items were not loaded", map[string]interface{}{"loaded": n, "total": len(snap.Items)})
	}
}

// Load replaces the whole board, e.g. with a snapshot received from a presenter.
// Any gesture in progress is dropped.
func (s *Session) Load(snap storage.Snapshot) {
	s.abort()
	s.editing = 0
	s.hydrate(snap)
	s.notify()
}

// Close commits a final snapshot and waits for the persister to flush it.
func (s *Session) Close(ctx context.Context) error {
	s.abort()
	if s.persister == nil {
		return nil
	}
	s.persister.Submit(s.Snapshot())
	if err := s.persister.Close(ctx); err != nil {
		return fmt.Errorf("failed to flush board: %w", err)
	}
	return nil
}

// OnChange registers fn to run after every visible change, transient or committed.
func (s *Session) OnChange(fn func()) {
	s.onChange = append(s.onChange, fn)
}

// OnCommit registers fn to receive every committed snapshot.
func (s *Session) OnCommit(fn func(storage.Snapshot)) {
	s.onCommit = append(s.onCommit, fn)
}

func (s *Session) notify() {
	for _, fn := range s.onChange {
		fn()
	}
}

// commit persists the current board and tells listeners.
func (s *Session) commit() {
	snap := s.Snapshot()
	if s.persister != nil {
		s.persister.Submit(snap)
	}
	for _, fn := range s.onCommit {
		fn(snap)
	}
	s.notify()
}

// Snapshot returns the durable state of the board.
func (s *Session) Snapshot() storage.Snapshot {
	return storage.Snapshot{Items: s.board.Items(), View: s.view}
}

func (s *Session) Items() []state.Item                { return s.board.Items() }
func (s *Session) Selected() []state.Item             { return s.board.Selected() }
func (s *Session) SelectionMode() state.SelectionMode { return s.board.SelectionMode() }
func (s *Session) View() viewport.View                { return s.view }
func (s *Session) State() GestureState                { return s.gesture }
func (s *Session) Tool() Tool                         { return s.tool }
func (s *Session) PenMode() PenMode                   { return s.penMode }
func (s *Session) Color() string                      { return s.color }
func (s *Session) StrokeWidth() float64               { return s.strokeWidth }
func (s *Session) Ruler() Ruler                       { return s.ruler }
func (s *Session) Container() geom.Rect               { return s.container }
func (s *Session) Options() Options                   { return s.opts }

// Item returns one item by id.
func (s *Session) Item(id int64) (state.Item, bool) { return s.board.Get(id) }

// Editing returns the id of the item in edit mode.
func (s *Session) Editing() (int64, bool) { return s.editing, s.editing != 0 }

// PreviewStroke returns the in-progress stroke and how to paint it.
func (s *Session) PreviewStroke() ([]geom.Point, StrokeStyle) {
	return s.drawer.Points(), StyleFor(s.penType())
}

// PreviewWidth is the world width the next stroke will get.
func (s *Session) PreviewWidth() float64 { return s.strokeWidthFor() }

// LassoPath returns the in-progress lasso path.
func (s *Session) LassoPath() []geom.Point { return s.lasso.Path() }

// SetContainer tells the session where the canvas sits on screen.
func (s *Session) SetContainer(r geom.Rect) {
	s.container = r
}

// ScreenToWorld converts a screen point with the current view.
func (s *Session) ScreenToWorld(p geom.Point) geom.Point {
	return s.view.ScreenToWorld(p, s.container)
}

func (s *Session) WorldToScreen(p geom.Point) geom.Point {
	return s.view.WorldToScreen(p, s.container)
}

func (s *Session) toLocal(screen geom.Point) geom.Point {
	return screen.Sub(s.container.Min())
}

// viewCenter is the world point in the middle of the canvas.
func (s *Session) viewCenter() geom.Point {
	return s.view.LocalToWorld(geom.Pt(s.container.Width/2, s.container.Height/2))
}

func (s *Session) penType() state.PenType {
	if s.penMode == PenModeHighlighter {
		return state.PenHighlighter
	}
	return state.PenPen
}

// SetTool switches the active tool. It is ignored mid-gesture.
func (s *Session) SetTool(t Tool) {
	if s.gesture != StateIdle {
		return
	}
	s.tool = t
	s.notify()
}

// SetPenMode picks pen, highlighter or eraser and activates the pen tool.
func (s *Session) SetPenMode(m PenMode) {
	if s.gesture != StateIdle {
		return
	}
	s.penMode = m
	s.tool = ToolPen
	s.notify()
}

func (s *Session) SetColor(c string) {
	if c == "" {
		return
	}
	s.color = c
	s.notify()
}

func (s *Session) SetStrokeWidth(w float64) {
	if w <= 0 || math.IsNaN(w) {
		return
	}
	s.strokeWidth = w
	s.notify()
}

// strokeWidthFor returns the width of a new line; the highlighter has a fixed tip.
func (s *Session) strokeWidthFor() float64 {
	if s.penMode == PenModeHighlighter {
		if s.opts.HighlighterWidth > 0 {
			return s.opts.HighlighterWidth
		}
		return HighlighterWidth
	}
	return s.strokeWidth
}

// ToggleRuler shows a horizontal ruler across the middle of the view, or hides it.
func (s *Session) ToggleRuler() bool {
	if s.gesture == StateRulerDragging {
		s.abort()
	}
	if s.ruler.Active {
		s.ruler.Active = false
	} else {
		c := s.viewCenter()
		half := DefaultRulerPx / 2 / s.view.Zoom
		s.ruler = Ruler{Active: true, P1: geom.Pt(c.X-half, c.Y), P2: geom.Pt(c.X+half, c.Y)}
	}
	s.notify()
	return s.ruler.Active
}

// AddNote creates an empty note centred in the view and selects it.
func (s *Session) AddNote() (state.Item, error) {
	c := s.viewCenter()
	w, h := s.opts.NoteWidth, s.opts.NoteHeight
	return s.addSelected(state.NewNote(c.X-w/2, c.Y-h/2, w, h, s.opts.NoteColor, s.opts.FontSize))
}

// AddText creates a text block centred in the view and selects it.
func (s *Session) AddText(content string) (state.Item, error) {
	it := state.NewText(0, 0, s.opts.TextWidth, content, s.color, s.opts.FontSize)
	c := s.viewCenter()
	it.X, it.Y = c.X-it.Text.Width/2, c.Y-it.TextHeight()/2
	return s.addSelected(it)
}

// AddImage reads the natural size of an image and places it centred in the view,
// capped to the configured maximum dimension. A decode failure creates nothing.
func (s *Session) AddImage(src string, r io.Reader) (state.Item, error) {
	nw, nh, err := DecodeImageSize(r)
	if err != nil {
		logger.Warn("[BOARD] image rejected", map[string]interface{}{"src": src, "reason": err.Error()})
		return state.Item{}, err
	}
	w, h := FitImage(nw, nh, s.opts.ImageMaxDimension)
	c := s.viewCenter()
	return s.addSelected(state.NewImage(c.X-w/2, c.Y-h/2, w, h, src))
}

func (s *Session) addSelected(it state.Item) (state.Item, error) {
	added, err := s.board.Add(it)
	if err != nil {
		return state.Item{}, err
	}
	if s.editing == 0 {
		s.board.Select(added.ID)
		added.Selected = true
	}
	s.commit()
	return added, nil
}

// AppendItems adds externally produced items (generated content, imports) on top of the board.
// Invalid items are skipped; the number added is returned.
func (s *Session) AppendItems(items []state.Item) int {
	n := 0
	for _, it := range items {
		it.Selected = false
		if _, err := s.board.Add(it); err != nil {
			logger.Warn("[BOARD] skipping appended item", map[string]interface{}{"kind": it.Kind, "reason": err.Error()})
			continue
		}
		n++
	}
	if n > 0 {
		s.commit()
	}
	return n
}

// AppendGenerated places a batch of generated items as one block in free space, to the
// right of the selection when there is one, and appends it. Relative positions inside
// the batch are kept.
func (s *Session) AppendGenerated(items []state.Item) int {
	var batch geom.Rect
	n := 0
	for _, it := range items {
		if it.Valid() != nil {
			continue
		}
		if n == 0 {
			batch = it.Bounds()
		} else {
			batch = batch.Union(it.Bounds())
		}
		n++
	}
	if n == 0 {
		return 0
	}

	want := batch
	if sel := s.board.Selected(); len(sel) > 0 {
		anchor := sel[0].Bounds()
		for _, it := range sel[1:] {
			anchor = anchor.Union(it.Bounds())
		}
		want.X, want.Y = anchor.X+anchor.Width+state.DefaultPlacementGap, anchor.Y
	}
	spot := state.NewSpaceFinder(s.board.Items(), state.DefaultPlacementGap).FindFree(want)

	d := spot.Min().Sub(batch.Min())
	placed := make([]state.Item, 0, len(items))
	for _, it := range items {
		if it.Valid() != nil {
			placed = append(placed, it)
			continue
		}
		placed = append(placed, ManipulatorFor(it.Kind).Translate(it, d))
	}
	return s.AppendItems(placed)
}

// DeleteSelected removes the selection and returns how many items went.
func (s *Session) DeleteSelected() int {
	if s.gesture != StateIdle {
		return 0
	}
	n := 0
	for _, it := range s.board.Selected() {
		if s.board.Remove(it.ID) {
			n++
		}
		if it.ID == s.editing {
			s.editing = 0
		}
	}
	if n > 0 {
		s.commit()
	}
	return n
}

// BringToFront raises the selection above every other item.
func (s *Session) BringToFront() {
	sel := s.board.Selected()
	if len(sel) == 0 {
		return
	}
	ids := make([]int64, len(sel))
	for i, it := range sel {
		ids[i] = it.ID
	}
	s.board.BringToFront(ids...)
	s.commit()
}

// UpdateStyle applies a style change to every selected item that supports it.
func (s *Session) UpdateStyle(st Style) int {
	n := 0
	for _, it := range s.board.Selected() {
		if !applyStyle(&it, st) {
			continue
		}
		if err := s.board.Put(it); err != nil {
			logger.Error("[BOARD] style update failed", err, map[string]interface{}{"id": it.ID})
			continue
		}
		n++
	}
	if n > 0 {
		s.commit()
	}
	return n
}

func applyStyle(it *state.Item, st Style) bool {
	changed := false
	switch {
	case it.Note != nil:
		if st.Color != "" {
			it.Note.Color, changed = st.Color, true
		}
		if st.FontSize > 0 {
			it.Note.FontSize, changed = st.FontSize, true
		}
	case it.Text != nil:
		if st.Color != "" {
			it.Text.Color, changed = st.Color, true
		}
		if st.FontSize > 0 {
			it.Text.FontSize, changed = st.FontSize, true
		}
		if st.Align != "" {
			it.Text.Align, changed = st.Align, true
		}
	case it.Line != nil:
		if st.Color != "" {
			it.Line.Color, changed = st.Color, true
		}
	}
	return changed
}

// BeginEdit puts a note or text block into edit mode as the sole selection.
// An active resize is cancelled.
func (s *Session) BeginEdit(id int64) bool {
	it, ok := s.board.Get(id)
	if !ok || (it.Kind != state.KindNote && it.Kind != state.KindText) {
		return false
	}
	if s.gesture == StateItemResizing || s.gesture == StateItemDragging || s.gesture == StateGroupDragging {
		s.abort()
	}
	s.board.Select(id)
	s.editing = id
	s.notify()
	return true
}

// ExitEdit leaves edit mode; it is the only way out of it.
func (s *Session) ExitEdit() {
	if s.editing == 0 {
		return
	}
	s.editing = 0
	s.notify()
}

// SetText commits new content for a note or text block.
func (s *Session) SetText(id int64, content string) error {
	it, ok := s.board.Get(id)
	if !ok {
		return fmt.Errorf("set text %d: %w", id, state.ErrNotFound)
	}
	switch {
	case it.Note != nil:
		it.Note.Content = content
	case it.Text != nil:
		it.Text.Content = content
	default:
		return fmt.Errorf("set text %d: %w", id, state.ErrNoPayload)
	}
	if err := s.board.Put(it); err != nil {
		return err
	}
	s.commit()
	return nil
}

func (s *Session) setView(v viewport.View) {
	s.view = v.Normalize()
	s.commit()
}

// ZoomIn zooms one step around the centre of the canvas.
func (s *Session) ZoomIn() {
	s.zoomAround(geom.Pt(s.container.Width/2, s.container.Height/2), s.view.Zoom*viewport.ZoomStep)
}

func (s *Session) ZoomOut() {
	s.zoomAround(geom.Pt(s.container.Width/2, s.container.Height/2), s.view.Zoom/viewport.ZoomStep)
}

// ResetView returns to pan 0,0 at zoom 1.
func (s *Session) ResetView() {
	if s.gesture != StateIdle {
		return
	}
	s.setView(viewport.DefaultView())
}

func (s *Session) zoomAround(local geom.Point, zoom float64) {
	if s.gesture != StateIdle {
		return
	}
	s.setView(s.view.ZoomAt(local, zoom))
}

// Wheel zooms around the pointer; positive steps zoom in.
func (s *Session) Wheel(p Pointer, steps float64) {
	if steps == 0 || math.IsNaN(steps) {
		return
	}
	s.zoomAround(s.toLocal(p.Pos()), s.view.Zoom*math.Pow(viewport.ZoomStep, steps))
}

// HandlePos is a resize grip of the sole selected item, in world space.
type HandlePos struct {
	Handle Handle
	Pos    geom.Point
}

// SelectionHandles lists the grips to draw; empty unless exactly one item is selected
// and nothing is being edited.
func (s *Session) SelectionHandles() []HandlePos {
	sel := s.board.Selected()
	if len(sel) != 1 || s.editing != 0 {
		return nil
	}
	b := sel[0].Bounds()
	var out []HandlePos
	for _, h := range ManipulatorFor(sel[0].Kind).Handles() {
		out = append(out, HandlePos{Handle: h, Pos: h.Position(b)})
	}
	return out
}
