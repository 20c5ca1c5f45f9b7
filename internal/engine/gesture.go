package engine

import (
	"sort"

	"ResearchBoard/internal/geom"
	"ResearchBoard/internal/logger"
	"ResearchBoard/internal/state"
	"ResearchBoard/internal/viewport"
)

// PointerDown starts a gesture. A second touch point turns whatever is in progress
// into a pinch.
func (s *Session) PointerDown(p Pointer) {
	if p.Touch {
		s.touches[p.ID] = p.Pos()
		if len(s.touches) >= 2 {
			if s.gesture != StatePinchZooming {
				s.beginPinch()
			}
			return
		}
	}
	if s.gesture != StateIdle {
		return
	}

	screen := p.Pos()
	world := s.ScreenToWorld(screen)
	s.activeID = p.ID
	s.downScreen = screen

	if h := s.ruler.HitTest(world, s.view.Zoom); h != RulerNone && (h != RulerBody || s.tool == ToolSelect) {
		s.rulerStart = s.ruler
		s.rulerHandle = h
		s.gesture = StateRulerDragging
		s.notify()
		return
	}

	switch s.tool {
	case ToolPen:
		s.pressPen(world)
	case ToolLasso:
		s.lasso.Begin(world)
		s.gesture = StateLassoing
	default:
		s.pressSelect(screen, world)
	}
	s.notify()
}

func (s *Session) pressPen(world geom.Point) {
	s.gesture = StateDrawing
	if s.penMode == PenModeEraser {
		s.erasing = true
		s.erased = nil
		s.eraseAt(world)
		return
	}
	s.drawer.Begin(world, s.ruler)
}

func (s *Session) pressSelect(screen, world geom.Point) {
	if it, h, ok := s.handleAt(screen); ok {
		s.inter = newInteraction([]state.Item{it}, screen, h)
		s.gesture = StateItemResizing
		return
	}

	it, ok := s.itemAt(world)
	if !ok {
		if s.editing == 0 {
			s.board.ClearSelection()
		}
		s.panStart = s.view
		s.panConfirmed = false
		s.gesture = StatePanning
		return
	}
	if s.editing != 0 {
		// the edited item keeps focus until ExitEdit
		return
	}

	if s.doubleTap(it.ID) && s.BeginEdit(it.ID) {
		return
	}
	if it.Selected && s.board.SelectionMode() == state.SelectionGroup {
		s.inter = newInteraction(s.board.Selected(), screen, HandleNone)
		s.gesture = StateGroupDragging
		return
	}

	s.board.Select(it.ID)
	it.Selected = true
	s.inter = newInteraction([]state.Item{it}, screen, HandleNone)
	s.gesture = StateItemDragging
}

// doubleTap records a press on id and reports whether it completes a double tap.
func (s *Session) doubleTap(id int64) bool {
	now := s.opts.Now()
	if id == s.lastTapID && now.Sub(s.lastTapAt) <= DoubleTapWindow {
		s.lastTapID = 0
		return true
	}
	s.lastTapID = id
	s.lastTapAt = now
	return false
}

// PointerMove feeds one sample to the active gesture.
func (s *Session) PointerMove(p Pointer) {
	if p.Touch {
		if _, down := s.touches[p.ID]; down {
			s.touches[p.ID] = p.Pos()
		}
		if s.gesture == StatePinchZooming {
			s.updatePinch()
			return
		}
	}
	if s.gesture == StateIdle || p.ID != s.activeID {
		return
	}

	cur := p.Pos()
	switch s.gesture {
	case StatePanning:
		d := cur.Sub(s.downScreen)
		if !s.panConfirmed && geom.Distance(cur, s.downScreen) > PanThreshold {
			s.panConfirmed = true
		}
		if s.panConfirmed {
			s.view.Pan = s.panStart.Pan.Sub(viewport.ScreenDelta(d, s.view.Zoom))
		}
	case StateDrawing:
		world := s.ScreenToWorld(cur)
		if s.erasing {
			s.eraseAt(world)
		} else {
			s.drawer.Extend(world)
		}
	case StateLassoing:
		s.lasso.Extend(s.ScreenToWorld(cur))
	case StateItemDragging, StateGroupDragging:
		s.putAll(s.inter.drag(cur, s.view.Zoom))
	case StateItemResizing:
		s.putAll([]state.Item{s.inter.resize(cur, s.view.Zoom)})
	case StateRulerDragging:
		s.ruler = s.rulerStart.Drag(s.rulerHandle, viewport.ScreenDelta(cur.Sub(s.downScreen), s.view.Zoom))
	}
	s.notify()
}

// putAll writes transient geometry.
func (s *Session) putAll(items []state.Item) {
	for _, it := range items {
		if err := s.board.Put(it); err != nil {
			logger.Warn("[BOARD] transient update dropped", map[string]interface{}{"id": it.ID, "reason": err.Error()})
		}
	}
}

// PointerUp ends the gesture of p and commits whatever it changed.
func (s *Session) PointerUp(p Pointer) {
	if p.Touch {
		delete(s.touches, p.ID)
		if s.gesture == StatePinchZooming {
			if p.ID == s.pinch.ids[0] || p.ID == s.pinch.ids[1] {
				s.gesture = StateIdle
				s.commit()
			}
			return
		}
	}
	if s.gesture == StateIdle || s.gesture == StatePinchZooming || p.ID != s.activeID {
		return
	}

	commit := false
	switch s.gesture {
	case StatePanning:
		commit = s.panConfirmed
	case StateDrawing:
		if s.erasing {
			commit = len(s.erased) > 0
			break
		}
		if points, ok := s.drawer.End(); ok {
			line := state.NewLine(points, s.color, s.strokeWidthFor(), s.penType())
			if _, err := s.board.Add(line); err != nil {
				logger.Error("[BOARD] stroke discarded", err)
			} else {
				commit = true
			}
		}
	case StateLassoing:
		// the edited item stays the sole selection
		if ids, ok := s.lasso.Finish(s.board.Items()); ok && s.editing == 0 {
			s.board.Select(ids...)
		}
		s.tool = ToolSelect
	case StateItemDragging, StateGroupDragging, StateItemResizing:
		commit = s.inter.moved
	}

	s.reset()
	if commit {
		s.commit()
	} else {
		s.notify()
	}
}

// PointerLeave is treated as a release.
func (s *Session) PointerLeave(p Pointer) {
	s.PointerUp(p)
}

// PointerCancel drops the gesture of p without committing it.
func (s *Session) PointerCancel(p Pointer) {
	if p.Touch {
		delete(s.touches, p.ID)
	}
	if s.gesture == StatePinchZooming || p.ID == s.activeID {
		s.abort()
		s.notify()
	}
}

// reset returns to idle without touching the board.
func (s *Session) reset() {
	s.gesture = StateIdle
	s.inter = nil
	s.erasing = false
	s.erased = nil
	s.drawer.Reset()
	s.lasso.Reset()
	s.rulerHandle = RulerNone
}

// abort discards the active gesture and puts back everything it changed.
func (s *Session) abort() {
	switch s.gesture {
	case StateItemDragging, StateGroupDragging, StateItemResizing:
		if s.inter != nil {
			s.putAll(s.inter.starts)
		}
	case StateDrawing:
		for _, it := range s.erased {
			if err := s.board.Restore(it); err != nil {
				logger.Error("[BOARD] erased line could not be restored", err, map[string]interface{}{"id": it.ID})
			}
		}
	case StatePanning:
		s.view = s.panStart
	case StateRulerDragging:
		s.ruler = s.rulerStart
	}
	s.reset()
}

func (s *Session) eraseAt(world geom.Point) {
	for _, id := range EraseHits(s.board.Items(), world, s.opts.EraserRadius) {
		it, ok := s.board.Get(id)
		if ok && s.board.Remove(id) {
			s.erased = append(s.erased, it)
		}
	}
}

func (s *Session) beginPinch() {
	s.abort()

	ids := make([]int, 0, len(s.touches))
	for id := range s.touches {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	a, b := s.touches[ids[0]], s.touches[ids[1]]

	mid := s.toLocal(midpoint(a, b))
	s.pinch = pinch{
		ids:       [2]int{ids[0], ids[1]},
		anchor:    s.view.LocalToWorld(mid),
		startDist: geom.Distance(a, b),
		startZoom: s.view.Zoom,
	}
	s.gesture = StatePinchZooming
	s.notify()
}

// updatePinch scales zoom by the change in finger distance and pans so the
// anchor stays under the current midpoint.
func (s *Session) updatePinch() {
	a, b := s.touches[s.pinch.ids[0]], s.touches[s.pinch.ids[1]]
	zoom := s.pinch.startZoom
	if s.pinch.startDist > 0 {
		zoom = viewport.ClampZoom(zoom * geom.Distance(a, b) / s.pinch.startDist)
	}
	mid := s.toLocal(midpoint(a, b))
	s.view = viewport.View{Pan: viewport.AnchoredPan(s.pinch.anchor, mid, zoom), Zoom: zoom}
	s.notify()
}

func midpoint(a, b geom.Point) geom.Point {
	return geom.Pt((a.X+b.X)/2, (a.Y+b.Y)/2)
}

// itemAt returns the topmost item under a world point. Lines are picked by their stroke.
func (s *Session) itemAt(w geom.Point) (state.Item, bool) {
	items := s.board.Items()
	tol := HitTolerance / s.view.Zoom
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if it.Kind == state.KindLine {
			if LineTouched(it, w, tol) {
				return it, true
			}
			continue
		}
		if it.Bounds().Contains(w) {
			return it, true
		}
	}
	return state.Item{}, false
}

// handleAt finds a resize grip of the sole selected item near a screen point.
func (s *Session) handleAt(screen geom.Point) (state.Item, Handle, bool) {
	sel := s.board.Selected()
	if len(sel) != 1 || s.editing != 0 {
		return state.Item{}, HandleNone, false
	}
	it := sel[0]
	b := it.Bounds()
	for _, h := range ManipulatorFor(it.Kind).Handles() {
		if geom.Distance(s.WorldToScreen(h.Position(b)), screen) <= HandleRadius {
			return it, h, true
		}
	}
	return state.Item{}, HandleNone, false
}
