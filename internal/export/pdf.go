// Package export renders a board snapshot to a printable PDF.
package export

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"ResearchBoard/internal/geom"
	"ResearchBoard/internal/logger"
	"ResearchBoard/internal/state"
	"ResearchBoard/internal/storage"
)

const (
	pageMargin   = 10.0 // mm
	notePadding  = 8.0  // world units
	mmPerPoint   = 25.4 / 72
	minFontPoint = 4.0
	fontFamily   = "Helvetica"
)

var (
	black     = color.NRGBA{A: 0xff}
	noteFill  = color.NRGBA{R: 0xff, G: 0xf5, B: 0x9d, A: 0xff}
	frameGrey = color.NRGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff}
)

// Options control the page layout.
type Options struct {
	Title       string
	Orientation string // "P" or "L"; empty picks from the board's aspect ratio
}

// WriteFile renders snap to path.
func WriteFile(path string, snap storage.Snapshot, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create pdf: %w", err)
	}
	if err := Write(f, snap, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	logger.Info("[EXPORT] pdf written", map[string]interface{}{"path": path, "items": len(snap.Items)})
	return nil
}

// Write renders every item of snap, in z-order, scaled to fit a single A4 page.
// An empty board produces one blank page.
func Write(w io.Writer, snap storage.Snapshot, opts Options) error {
	items := append([]state.Item(nil), snap.Items...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Z < items[j].Z })

	bounds, ok := ContentBounds(items)
	orientation := opts.Orientation
	if orientation == "" {
		orientation = "P"
		if ok && bounds.Width > bounds.Height {
			orientation = "L"
		}
	}

	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetTitle(opts.Title, true)
	pdf.SetCreator("ResearchBoard", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	if ok {
		pw, ph := pdf.GetPageSize()
		r := &renderer{
			pdf: pdf,
			tr:  pdf.UnicodeTranslatorFromDescriptor(""),
			lay: fit(bounds, pw-2*pageMargin, ph-2*pageMargin),
		}
		for _, it := range items {
			r.item(it)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

// ContentBounds is the union of all item bounds; ok is false when there is nothing to draw.
func ContentBounds(items []state.Item) (geom.Rect, bool) {
	var r geom.Rect
	for i, it := range items {
		if i == 0 {
			r = it.Bounds()
			continue
		}
		r = r.Union(it.Bounds())
	}
	return r, len(items) > 0 && r.Width > 0 && r.Height > 0
}

// layout maps world coordinates onto the page.
type layout struct {
	origin geom.Point
	scale  float64
	offX   float64
	offY   float64
}

func fit(bounds geom.Rect, availW, availH float64) layout {
	scale := math.Min(availW/bounds.Width, availH/bounds.Height)
	return layout{
		origin: bounds.Min(),
		scale:  scale,
		offX:   pageMargin + (availW-bounds.Width*scale)/2,
		offY:   pageMargin + (availH-bounds.Height*scale)/2,
	}
}

func (l layout) point(p geom.Point) (float64, float64) {
	return l.offX + (p.X-l.origin.X)*l.scale, l.offY + (p.Y-l.origin.Y)*l.scale
}

func (l layout) size(v float64) float64 { return v * l.scale }

type renderer struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
	lay layout
}

func (r *renderer) item(it state.Item) {
	switch {
	case it.Note != nil:
		r.note(it)
	case it.Text != nil:
		r.text(it)
	case it.Line != nil:
		r.line(it.Line)
	case it.Image != nil:
		r.image(it)
	}
}

func (r *renderer) fill(c color.NRGBA)   { r.pdf.SetFillColor(int(c.R), int(c.G), int(c.B)) }
func (r *renderer) stroke(c color.NRGBA) { r.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B)) }
func (r *renderer) ink(c color.NRGBA)    { r.pdf.SetTextColor(int(c.R), int(c.G), int(c.B)) }

// font selects the scaled font and returns the line height in mm.
func (r *renderer) font(size float64) float64 {
	pt := math.Max(r.lay.size(size)/mmPerPoint, minFontPoint)
	r.pdf.SetFont(fontFamily, "", pt)
	return pt * mmPerPoint * state.TextLineHeight
}

func (r *renderer) note(it state.Item) {
	x, y := r.lay.point(it.Pos())
	w, h := r.lay.size(it.Note.Width), r.lay.size(it.Note.Height)

	r.fill(state.ColorOr(it.Note.Color, noteFill))
	r.stroke(frameGrey)
	r.pdf.SetLineWidth(0.2)
	r.pdf.Rect(x, y, w, h, "FD")

	pad := r.lay.size(notePadding)
	lineH := r.font(it.Note.FontSize)
	r.ink(black)
	r.pdf.SetXY(x+pad, y+pad)
	r.wrap(w-2*pad, h-2*pad, lineH, it.Note.Content, "L")
}

func (r *renderer) text(it state.Item) {
	x, y := r.lay.point(it.Pos())
	w, h := r.lay.size(it.Text.Width), r.lay.size(it.TextHeight())

	lineH := r.font(it.Text.FontSize)
	r.ink(state.ColorOr(it.Text.Color, black))
	r.pdf.SetXY(x, y)
	r.wrap(w, h, lineH, it.Text.Content, alignCode(it.Text.Align))
}

// wrap fills a w-by-h box at the current position; lines past the bottom are dropped.
func (r *renderer) wrap(w, h, lineH float64, content, align string) {
	if w <= 0 || h <= 0 || strings.TrimSpace(content) == "" {
		return
	}
	x := r.pdf.GetX()
	lines := r.pdf.SplitText(r.tr(content), w)
	if limit := int(h / lineH); len(lines) > limit {
		lines = lines[:limit]
	}
	for _, ln := range lines {
		r.pdf.SetX(x)
		r.pdf.CellFormat(w, lineH, ln, "", 2, align, false, 0, "")
	}
}

func alignCode(a state.Align) string {
	switch a {
	case state.AlignCenter:
		return "C"
	case state.AlignRight:
		return "R"
	}
	return "L"
}

func (r *renderer) line(ln *state.LineData) {
	r.stroke(state.ColorOr(ln.Color, black))
	r.pdf.SetLineWidth(math.Max(r.lay.size(ln.Width), 0.1))
	if ln.Pen == state.PenHighlighter {
		r.pdf.SetLineCapStyle("butt")
		r.pdf.SetAlpha(0.4, "Multiply")
		defer r.pdf.SetAlpha(1, "Normal")
	} else {
		r.pdf.SetLineCapStyle("round")
		r.pdf.SetLineJoinStyle("round")
	}
	for i := 1; i < len(ln.Points); i++ {
		x1, y1 := r.lay.point(ln.Points[i-1])
		x2, y2 := r.lay.point(ln.Points[i])
		r.pdf.Line(x1, y1, x2, y2)
	}
}

// image embeds local PNG, JPEG and GIF files and draws a crossed frame for anything else.
func (r *renderer) image(it state.Item) {
	x, y := r.lay.point(it.Pos())
	w, h := r.lay.size(it.Image.Width), r.lay.size(it.Image.Height)

	if path, typ, ok := localImage(it.Image.Src); ok {
		r.pdf.ImageOptions(path, x, y, w, h, false, gofpdf.ImageOptions{ImageType: typ}, 0, "")
		err := r.pdf.Error()
		if err == nil {
			return
		}
		logger.Warn("[EXPORT] image not embedded", map[string]interface{}{"src": it.Image.Src, "reason": err.Error()})
		r.pdf.ClearError()
	}

	r.stroke(frameGrey)
	r.pdf.SetLineWidth(0.2)
	r.pdf.Rect(x, y, w, h, "D")
	r.pdf.Line(x, y, x+w, y+h)
	r.pdf.Line(x+w, y, x, y+h)
}

func localImage(src string) (path, typ string, ok bool) {
	path = strings.TrimPrefix(src, "file://")
	typ = strings.ToUpper(strings.TrimPrefix(filepath.Ext(path), "."))
	switch typ {
	case "JPEG":
		typ = "JPG"
	case "PNG", "JPG", "GIF":
	default:
		return "", "", false
	}
	if st, err := os.Stat(path); err != nil || st.IsDir() {
		return "", "", false
	}
	return path, typ, true
}
