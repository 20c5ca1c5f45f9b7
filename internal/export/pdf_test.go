package export

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ResearchBoard/internal/geom"
	"ResearchBoard/internal/state"
	"ResearchBoard/internal/storage"
)

func sampleBoard(t *testing.T) storage.Snapshot {
	t.Helper()
	imgPath := filepath.Join(t.TempDir(), "figure.png")
	f, err := os.Create(imgPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 4))))
	require.NoError(t, f.Close())

	note := state.NewNote(0, 0, 200, 200, "#fff59d", 16)
	note.ID, note.Z = 1, 1
	note.Note.Content = "Résumé of the interview"
	text := state.NewText(250, 0, 240, "Heading\nsecond line", "#333333", 24)
	text.ID, text.Z = 2, 2
	line := state.NewLine([]geom.Point{geom.Pt(0, 300), geom.Pt(100, 320), geom.Pt(400, 280)}, "#e53935", 20, state.PenHighlighter)
	line.ID, line.Z = 3, 3
	pic := state.NewImage(500, 0, 160, 80, imgPath)
	pic.ID, pic.Z = 4, 4
	missing := state.NewImage(500, 200, 100, 100, "https://example.com/remote.png")
	missing.ID, missing.Z = 5, 5

	snap := storage.Empty()
	snap.Items = []state.Item{line, note, text, pic, missing}
	return snap
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleBoard(t), Options{Title: "Interviews"}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestWrite_EmptyBoard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, storage.Empty(), Options{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.pdf")
	require.NoError(t, WriteFile(path, sampleBoard(t), Options{Orientation: "L"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	err = WriteFile(filepath.Join(t.TempDir(), "missing", "board.pdf"), storage.Empty(), Options{})
	assert.Error(t, err)
}

func TestContentBoundsAndFit(t *testing.T) {
	_, ok := ContentBounds(nil)
	assert.False(t, ok)

	a := state.NewNote(0, 0, 100, 50, "#fff", 16)
	b := state.NewNote(300, 100, 100, 50, "#fff", 16)
	r, ok := ContentBounds([]state.Item{a, b})
	require.True(t, ok)
	assert.Equal(t, geom.NewRect(0, 0, 400, 150), r)

	lay := fit(r, 200, 200)
	assert.InDelta(t, 0.5, lay.scale, 1e-9)
	x, y := lay.point(geom.Pt(400, 150))
	assert.InDelta(t, pageMargin+200, x, 1e-9)
	assert.InDelta(t, pageMargin+(200-75)/2+75, y, 1e-9)
}

func TestLocalImage(t *testing.T) {
	dir := t.TempDir()
	jpeg := filepath.Join(dir, "a.jpeg")
	require.NoError(t, os.WriteFile(jpeg, []byte("x"), 0o644))

	path, typ, ok := localImage("file://" + jpeg)
	assert.True(t, ok)
	assert.Equal(t, jpeg, path)
	assert.Equal(t, "JPG", typ)

	_, _, ok = localImage(filepath.Join(dir, "a.webp"))
	assert.False(t, ok)
	_, _, ok = localImage(filepath.Join(dir, "gone.png"))
	assert.False(t, ok)
}
