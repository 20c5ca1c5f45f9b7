package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"ResearchBoard/internal/engine"
	"ResearchBoard/internal/state"
)

// Tool choices shown in the tool picker.
const (
	choiceSelect      = "Select"
	choicePen         = "Pen"
	choiceHighlighter = "Highlighter"
	choiceEraser      = "Eraser"
	choiceLasso       = "Lasso"
)

var toolChoices = []string{choiceSelect, choicePen, choiceHighlighter, choiceEraser, choiceLasso}

var palette = []string{"#1f1f1f", "#e53935", "#43a047", "#1e88e5", "#fdd835", "#fff59d", "#f8bbd0"}

// toolChoice names the session's current tool for the picker.
func toolChoice(s *engine.Session) string {
	switch s.Tool() {
	case engine.ToolLasso:
		return choiceLasso
	case engine.ToolPen:
		switch s.PenMode() {
		case engine.PenModeHighlighter:
			return choiceHighlighter
		case engine.PenModeEraser:
			return choiceEraser
		}
		return choicePen
	}
	return choiceSelect
}

// applyToolChoice switches the session to the picked tool.
func applyToolChoice(s *engine.Session, choice string) {
	switch choice {
	case choicePen:
		s.SetPenMode(engine.PenModePen)
	case choiceHighlighter:
		s.SetPenMode(engine.PenModeHighlighter)
	case choiceEraser:
		s.SetPenMode(engine.PenModeEraser)
	case choiceLasso:
		s.SetTool(engine.ToolLasso)
	default:
		s.SetTool(engine.ToolSelect)
	}
}

// pickColor sets the pen color and recolors the selection.
func pickColor(s *engine.Session, c string) {
	s.SetColor(c)
	s.UpdateStyle(engine.Style{Color: c})
}

type colorSwatch struct {
	widget.BaseWidget
	Color    color.Color
	OnTapped func(color.Color)
}

func newColorSwatch(c color.Color, tapped func(color.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// NewToolPanel builds the tool picker, color palette and stroke width slider. The picker
// follows the session, which drops back to Select after a lasso.
func NewToolPanel(s *engine.Session) fyne.CanvasObject {
	picker := widget.NewRadioGroup(toolChoices, func(choice string) {
		if choice != "" && choice != toolChoice(s) {
			applyToolChoice(s, choice)
		}
	})
	picker.Horizontal = true
	picker.Required = true
	picker.SetSelected(toolChoice(s))
	s.OnChange(func() {
		if cur := toolChoice(s); picker.Selected != cur {
			picker.SetSelected(cur)
		}
	})

	swatches := container.NewHBox()
	for _, hex := range palette {
		hex := hex
		swatches.Add(newColorSwatch(state.ColorOr(hex, defaultInk), func(color.Color) {
			pickColor(s, hex)
		}))
	}

	width := widget.NewSlider(1, 50)
	width.SetValue(s.StrokeWidth())
	width.OnChanged = func(v float64) {
		s.SetStrokeWidth(v)
	}
	widthBox := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), width)

	return container.NewHBox(
		picker,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		swatches,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		widthBox,
		layout.NewSpacer(),
	)
}
