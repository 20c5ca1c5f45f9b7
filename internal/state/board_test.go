package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ResearchBoard/internal/geom"
)

func TestBoard_AddAssignsIncreasingZ(t *testing.T) {
	b := NewBoard()
	var lastZ, lastID int64
	for i := 0; i < 20; i++ {
		it, err := b.Add(NewNote(float64(i), 0, 100, 100, "#fff59d", 16))
		require.NoError(t, err)
		assert.Greater(t, it.Z, lastZ)
		assert.Greater(t, it.ID, lastID)
		lastZ, lastID = it.Z, it.ID

		// Deleting the top item must not let the next one reuse its z.
		if i%3 == 0 {
			b.Remove(it.ID)
		}
	}
	assert.Equal(t, lastZ, b.MaxZ())
}

func TestBoard_RejectsShortLine(t *testing.T) {
	b := NewBoard()
	_, err := b.Add(NewLine([]geom.Point{geom.Pt(1, 1)}, "#000000", 4, PenPen))
	assert.ErrorIs(t, err, ErrInvalidLine)
	assert.Equal(t, 0, b.Len())

	_, err = b.Add(Item{Kind: KindNote})
	assert.ErrorIs(t, err, ErrNoPayload)
}

func TestBoard_PutKeepsZ(t *testing.T) {
	b := NewBoard()
	it, err := b.Add(NewImage(0, 0, 40, 20, "cat.png"))
	require.NoError(t, err)

	moved := it
	moved.X = 99
	moved.Z = 1000
	require.NoError(t, b.Put(moved))

	got, ok := b.Get(it.ID)
	require.True(t, ok)
	assert.Equal(t, 99.0, got.X)
	assert.Equal(t, it.Z, got.Z)

	assert.ErrorIs(t, b.Put(Item{ID: 404, Kind: KindImage, Image: &ImageData{}}), ErrNotFound)
}

func TestBoard_Selection(t *testing.T) {
	b := NewBoard()
	a, _ := b.Add(NewNote(0, 0, 50, 50, "", 12))
	c, _ := b.Add(NewNote(100, 0, 50, 50, "", 12))
	assert.Equal(t, SelectionNone, b.SelectionMode())

	b.Select(a.ID)
	assert.Equal(t, SelectionSingle, b.SelectionMode())
	assert.True(t, b.IsSelected(a.ID))

	b.Select(a.ID, c.ID)
	assert.Equal(t, SelectionGroup, b.SelectionMode())
	assert.Len(t, b.Selected(), 2)

	b.Select(c.ID)
	assert.False(t, b.IsSelected(a.ID))

	b.ClearSelection()
	assert.Empty(t, b.Selected())
}

func TestBoard_BringToFront(t *testing.T) {
	b := NewBoard()
	a, _ := b.Add(NewNote(0, 0, 50, 50, "", 12))
	c, _ := b.Add(NewNote(0, 0, 50, 50, "", 12))
	b.BringToFront(a.ID)

	items := b.Items()
	require.Len(t, items, 2)
	assert.Equal(t, c.ID, items[0].ID)
	assert.Equal(t, a.ID, items[1].ID)
}

func TestBoard_Hydrate(t *testing.T) {
	b := NewBoard()
	n := b.Hydrate([]Item{
		{ID: 7, Kind: KindNote, Z: 40, Note: &NoteData{Width: 10, Height: 10}},
		{ID: 3, Kind: KindLine, Z: 2, Line: &LineData{Points: []geom.Point{geom.Pt(0, 0)}}},
		{ID: 9, Kind: KindText, Z: 12, Text: &TextData{Width: 100, FontSize: 16}},
	})
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(40), b.MaxZ())

	it, err := b.Add(NewNote(0, 0, 50, 50, "", 12))
	require.NoError(t, err)
	assert.Equal(t, int64(10), it.ID)
	assert.Equal(t, int64(41), it.Z)
}

func TestItem_Bounds(t *testing.T) {
	line := NewLine([]geom.Point{geom.Pt(10, 20), geom.Pt(30, 60)}, "#000", 4, PenPen)
	assert.Equal(t, 10.0, line.X)
	assert.Equal(t, 20.0, line.Y)
	assert.Equal(t, geom.NewRect(-2, 8, 44, 64), line.Bounds())

	txt := NewText(0, 0, 200, "a\nb", "#000", 10)
	assert.InDelta(t, 36.0, txt.Bounds().Height, 1e-9)
	txt.Text.Height = 80
	assert.Equal(t, 80.0, txt.Bounds().Height)
}

func TestItem_CloneIsDeep(t *testing.T) {
	line := NewLine([]geom.Point{geom.Pt(0, 0), geom.Pt(1, 1)}, "#000", 2, PenPen)
	c := line.Clone()
	c.Line.Points[0].X = 50
	assert.Equal(t, 0.0, line.Line.Points[0].X)
}

func TestRevision(t *testing.T) {
	r1 := Stamp()
	r2 := Stamp()
	assert.True(t, r2.Newer(r1))
	assert.Equal(t, SiteID(), r1.Site)

	Observe(r2.Lamport + 100)
	assert.Equal(t, r2.Lamport+101, Stamp().Lamport)
}
