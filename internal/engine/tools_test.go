package engine

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ResearchBoard/internal/geom"
	"ResearchBoard/internal/state"
)

func TestComputeTickScale(t *testing.T) {
	tests := []struct {
		zoom  float64
		minor float64
	}{
		{zoom: 1, minor: 20},
		{zoom: 2, minor: 10},
		{zoom: 1.5, minor: 10},
		{zoom: 0.5, minor: 25},
		{zoom: 0.1, minor: 200},
	}
	for _, tt := range tests {
		scale := ComputeTickScale(tt.zoom)
		assert.Equal(t, tt.minor, scale.Minor, "zoom %v", tt.zoom)
		assert.GreaterOrEqual(t, scale.Minor*tt.zoom, MinTickPx)
		assert.GreaterOrEqual(t, scale.Minor*tt.zoom*float64(scale.MajorEvery), MinMajorPx)
		assert.Contains(t, []int{5, 10}, scale.MajorEvery)
		assert.Equal(t, 0, scale.Decimals)
	}
}

func TestLabelDecimals(t *testing.T) {
	assert.Equal(t, 0, labelDecimals(25))
	assert.Equal(t, 0, labelDecimals(1))
	assert.Equal(t, 1, labelDecimals(0.5))
	assert.Equal(t, 2, labelDecimals(0.025))
	assert.Equal(t, 3, labelDecimals(0.002))
	assert.Equal(t, 4, labelDecimals(0.0005))
}

func TestRulerTicks(t *testing.T) {
	r := Ruler{Active: true, P1: geom.Pt(0, 0), P2: geom.Pt(100, 0)}
	ticks := r.Ticks(1)
	require.Len(t, ticks, 6)
	assert.True(t, ticks[0].Major)
	assert.Equal(t, "0", ticks[0].Label)
	assert.False(t, ticks[1].Major)
	assert.Empty(t, ticks[1].Label)
	assert.True(t, ticks[5].Major)
	assert.Equal(t, "100", ticks[5].Label)
	assertPointsNear(t, []geom.Point{geom.Pt(40, 0)}, []geom.Point{r.PointAt(ticks[2].Offset)})

	assert.Nil(t, Ruler{Active: true}.Ticks(1))
}

func TestRulerHitTest(t *testing.T) {
	r := Ruler{Active: true, P1: geom.Pt(0, 0), P2: geom.Pt(100, 0)}
	assert.Equal(t, RulerP1, r.HitTest(geom.Pt(2, 3), 1))
	assert.Equal(t, RulerP2, r.HitTest(geom.Pt(99, 0), 1))
	assert.Equal(t, RulerBody, r.HitTest(geom.Pt(50, 5), 1))
	assert.Equal(t, RulerNone, r.HitTest(geom.Pt(50, 20), 1))
	// grab distance is constant on screen, so it grows in world units when zoomed out
	assert.Equal(t, RulerBody, r.HitTest(geom.Pt(50, 20), 0.5))

	r.Active = false
	assert.Equal(t, RulerNone, r.HitTest(geom.Pt(0, 0), 1))
}

func TestRulerDragMovesHandles(t *testing.T) {
	r := Ruler{Active: true, P1: geom.Pt(0, 0), P2: geom.Pt(100, 0)}
	d := geom.Pt(10, 5)

	assert.Equal(t, Ruler{Active: true, P1: geom.Pt(10, 5), P2: geom.Pt(100, 0)}, r.Drag(RulerP1, d))
	assert.Equal(t, Ruler{Active: true, P1: geom.Pt(0, 0), P2: geom.Pt(110, 5)}, r.Drag(RulerP2, d))
	assert.Equal(t, Ruler{Active: true, P1: geom.Pt(10, 5), P2: geom.Pt(110, 5)}, r.Drag(RulerBody, d))
	assert.InDelta(t, 0, r.Angle(), 1e-12)
}

func TestDrawerFollowsRuler(t *testing.T) {
	t.Run("horizontal", func(t *testing.T) {
		var d Drawer
		d.Begin(geom.Pt(10, 5), Ruler{Active: true, P1: geom.Pt(0, 0), P2: geom.Pt(100, 0)})
		d.Extend(geom.Pt(50, 8))
		d.Extend(geom.Pt(80, -3))
		points, ok := d.End()
		require.True(t, ok)
		assertPointsNear(t, []geom.Point{geom.Pt(10, 0), geom.Pt(50, 0), geom.Pt(80, 0)}, points)
	})

	t.Run("diagonal", func(t *testing.T) {
		var d Drawer
		d.Begin(geom.Pt(10, 0), Ruler{Active: true, P1: geom.Pt(0, 0), P2: geom.Pt(10, 10)})
		d.Extend(geom.Pt(10, 4))
		points, ok := d.End()
		require.True(t, ok)
		assert.InDelta(t, 5, points[0].X, 1e-9)
		assert.InDelta(t, 5, points[0].Y, 1e-9)
		assert.InDelta(t, 7, points[1].X, 1e-9)
		assert.InDelta(t, 7, points[1].Y, 1e-9)
	})

	t.Run("inactive ruler is ignored", func(t *testing.T) {
		var d Drawer
		d.Begin(geom.Pt(10, 5), Ruler{P1: geom.Pt(0, 0), P2: geom.Pt(100, 0)})
		d.Extend(geom.Pt(50, 8))
		points, _ := d.End()
		assert.Equal(t, []geom.Point{geom.Pt(10, 5), geom.Pt(50, 8)}, points)
	})

	t.Run("single point is not a line", func(t *testing.T) {
		var d Drawer
		d.Begin(geom.Pt(1, 1), Ruler{})
		_, ok := d.End()
		assert.False(t, ok)
		assert.False(t, d.Active())
	})
}

func assertPointsNear(t *testing.T, want, got []geom.Point) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].X, got[i].X, 1e-9, "point %d", i)
		assert.InDelta(t, want[i].Y, got[i].Y, 1e-9, "point %d", i)
	}
}

func TestStyleFor(t *testing.T) {
	assert.Equal(t, StrokeStyle{Opacity: 0.4, RoundCap: false}, StyleFor(state.PenHighlighter))
	assert.Equal(t, StrokeStyle{Opacity: 1, RoundCap: true}, StyleFor(state.PenPen))
}

func TestEraseHits(t *testing.T) {
	line := state.NewLine([]geom.Point{geom.Pt(0, 0), geom.Pt(50, 0), geom.Pt(100, 0)}, "#000", 4, state.PenPen)
	line.ID = 7
	note := state.NewNote(0, 0, 100, 100, "#fff", 16)
	note.ID = 8
	items := []state.Item{line, note}

	// reach is width/2 + radius = 12
	assert.Empty(t, EraseHits(items, geom.Pt(75, 12), 10))
	assert.Equal(t, []int64{7}, EraseHits(items, geom.Pt(75, 11.9), 10))
	assert.Equal(t, []int64{7}, EraseHits(items, geom.Pt(-5, 0), 10))
	assert.Empty(t, EraseHits(items, geom.Pt(200, 0), 10))
}

func TestSelectInLasso(t *testing.T) {
	square := []geom.Point{geom.Pt(-10, -10), geom.Pt(100, -10), geom.Pt(100, 100), geom.Pt(-10, 100)}

	inside := state.NewNote(0, 0, 50, 50, "#fff", 16)
	inside.ID = 1
	outside := state.NewNote(500, 500, 50, 50, "#fff", 16)
	outside.ID = 2
	line := state.NewLine([]geom.Point{geom.Pt(90, 90), geom.Pt(300, 300)}, "#000", 2, state.PenPen)
	line.ID = 3
	big := state.NewNote(-1000, -1000, 5000, 5000, "#fff", 16)
	big.ID = 4

	got := SelectInLasso(square, []state.Item{inside, outside, line})
	assert.Equal(t, []int64{1, 3}, got)

	// a lasso drawn inside a large item still picks it
	assert.Equal(t, []int64{4}, SelectInLasso(square, []state.Item{big}))
}

func TestLassoFinish(t *testing.T) {
	note := state.NewNote(0, 0, 50, 50, "#fff", 16)
	note.ID = 1

	var l Lasso
	l.Begin(geom.Pt(-10, -10))
	l.Extend(geom.Pt(100, -10))
	_, ok := l.Finish([]state.Item{note})
	assert.False(t, ok)
	assert.False(t, l.Active())

	l.Begin(geom.Pt(-10, -10))
	l.Extend(geom.Pt(100, -10))
	l.Extend(geom.Pt(100, 100))
	ids, ok := l.Finish([]state.Item{note})
	assert.True(t, ok)
	assert.Equal(t, []int64{1}, ids)
}

func encodePNG(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return &buf
}

func TestDecodeImageSize(t *testing.T) {
	w, h, err := DecodeImageSize(encodePNG(t, 64, 32))
	require.NoError(t, err)
	assert.Equal(t, 64, w)
	assert.Equal(t, 32, h)

	_, _, err = DecodeImageSize(bytes.NewBufferString("definitely not an image"))
	assert.True(t, errors.Is(err, ErrImageDecode))
}

func TestFitImage(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		max          float64
		wantW, wantH float64
	}{
		{"landscape", 800, 400, 400, 400, 200},
		{"portrait", 300, 600, 400, 200, 400},
		{"already small", 120, 80, 400, 120, 80},
		{"no cap", 800, 400, 0, 800, 400},
		{"empty", 0, 10, 400, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitImage(tt.w, tt.h, tt.max)
			assert.InDelta(t, tt.wantW, w, 1e-9)
			assert.InDelta(t, tt.wantH, h, 1e-9)
		})
	}
}
