package state

import (
	"errors"
	"strings"

	"ResearchBoard/internal/geom"
)

type Kind string

const (
	KindNote  Kind = "note"
	KindText  Kind = "text"
	KindLine  Kind = "line"
	KindImage Kind = "image"
)

type PenType string

const (
	PenPen         PenType = "pen"
	PenHighlighter PenType = "highlighter"
)

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

const (
	// LineMargin is added around a line's stroke when sizing its wrapping box.
	LineMargin = 10.0
	// TextLineHeight is the line height multiplier for auto-sized text blocks.
	TextLineHeight = 1.4
	// TextPadding is the vertical padding of auto-sized text blocks.
	TextPadding = 8.0
)

var (
	ErrInvalidLine = errors.New("line needs at least 2 points")
	ErrNoPayload   = errors.New("item payload does not match its kind")
	ErrNotFound    = errors.New("item not found")
)

// NoteData is a sticky note.
type NoteData struct {
	Content  string  `json:"content"`
	Color    string  `json:"color"`
	FontSize float64 `json:"font_size"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

// TextData is a free text block. Height 0 means "auto from content".
type TextData struct {
	Content  string  `json:"content"`
	FontSize float64 `json:"font_size"`
	Align    Align   `json:"align"`
	Color    string  `json:"color"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height,omitempty"`
}

// LineData is a freehand stroke; points are world coordinates.
type LineData struct {
	Points []geom.Point `json:"points"`
	Color  string       `json:"color"`
	Width  float64      `json:"width"`
	Pen    PenType      `json:"pen"`
}

type ImageData struct {
	Src    string  `json:"src"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Item is one board element. Kind selects which payload pointer is set; the others are nil.
// For lines X/Y mirror the top-left of the point bounding box.
type Item struct {
	ID       int64   `json:"id"`
	Kind     Kind    `json:"kind"`
	Z        int64   `json:"z"`
	Selected bool    `json:"selected"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`

	Note  *NoteData  `json:"note,omitempty"`
	Text  *TextData  `json:"text,omitempty"`
	Line  *LineData  `json:"line,omitempty"`
	Image *ImageData `json:"image,omitempty"`
}

func NewNote(x, y, w, h float64, color string, fontSize float64) Item {
	return Item{Kind: KindNote, X: x, Y: y, Note: &NoteData{Color: color, FontSize: fontSize, Width: w, Height: h}}
}

func NewText(x, y, w float64, content, color string, fontSize float64) Item {
	return Item{Kind: KindText, X: x, Y: y, Text: &TextData{Content: content, Color: color, FontSize: fontSize, Align: AlignLeft, Width: w}}
}

func NewLine(points []geom.Point, color string, width float64, pen PenType) Item {
	it := Item{Kind: KindLine, Line: &LineData{Points: points, Color: color, Width: width, Pen: pen}}
	it.SyncLineOrigin()
	return it
}

func NewImage(x, y, w, h float64, src string) Item {
	return Item{Kind: KindImage, X: x, Y: y, Image: &ImageData{Src: src, Width: w, Height: h}}
}

// Pos returns the world position.
func (it Item) Pos() geom.Point { return geom.Point{X: it.X, Y: it.Y} }

// Valid reports whether the payload matches the kind and, for lines, whether there are enough points.
func (it Item) Valid() error {
	switch it.Kind {
	case KindNote:
		if it.Note == nil {
			return ErrNoPayload
		}
	case KindText:
		if it.Text == nil {
			return ErrNoPayload
		}
	case KindLine:
		if it.Line == nil {
			return ErrNoPayload
		}
		if len(it.Line.Points) < 2 {
			return ErrInvalidLine
		}
	case KindImage:
		if it.Image == nil {
			return ErrNoPayload
		}
	default:
		return ErrNoPayload
	}
	return nil
}

// Bounds is the world rectangle used for hit-testing and selection.
func (it Item) Bounds() geom.Rect {
	switch it.Kind {
	case KindNote:
		if it.Note != nil {
			return geom.NewRect(it.X, it.Y, it.Note.Width, it.Note.Height)
		}
	case KindText:
		if it.Text != nil {
			return geom.NewRect(it.X, it.Y, it.Text.Width, it.TextHeight())
		}
	case KindLine:
		if it.Line != nil {
			return geom.BoundingBox(it.Line.Points).Inflate(it.Line.Width/2 + LineMargin)
		}
	case KindImage:
		if it.Image != nil {
			return geom.NewRect(it.X, it.Y, it.Image.Width, it.Image.Height)
		}
	}
	return geom.NewRect(it.X, it.Y, 0, 0)
}

// TextHeight is the explicit height of a text block, or one estimated from its line count.
func (it Item) TextHeight() float64 {
	if it.Text == nil {
		return 0
	}
	if it.Text.Height > 0 {
		return it.Text.Height
	}
	lines := strings.Count(it.Text.Content, "\n") + 1
	return float64(lines)*it.Text.FontSize*TextLineHeight + TextPadding
}

// SyncLineOrigin keeps X/Y of a line equal to the top-left of its points.
func (it *Item) SyncLineOrigin() {
	if it.Line == nil || len(it.Line.Points) == 0 {
		return
	}
	bb := geom.BoundingBox(it.Line.Points)
	it.X, it.Y = bb.X, bb.Y
}

// Clone returns a deep copy.
func (it Item) Clone() Item {
	c := it
	if it.Note != nil {
		n := *it.Note
		c.Note = &n
	}
	if it.Text != nil {
		t := *it.Text
		c.Text = &t
	}
	if it.Line != nil {
		l := *it.Line
		l.Points = append([]geom.Point(nil), it.Line.Points...)
		c.Line = &l
	}
	if it.Image != nil {
		im := *it.Image
		c.Image = &im
	}
	return c
}

// Content returns the editable text of notes and text blocks.
func (it Item) Content() string {
	switch {
	case it.Note != nil:
		return it.Note.Content
	case it.Text != nil:
		return it.Text.Content
	}
	return ""
}

// SelectionMode is the derived selection state of the board.
type SelectionMode int

const (
	SelectionNone SelectionMode = iota
	SelectionSingle
	SelectionGroup
)

func (m SelectionMode) String() string {
	switch m {
	case SelectionSingle:
		return "single"
	case SelectionGroup:
		return "group"
	}
	return "none"
}
