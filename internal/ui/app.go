// Package ui is the desktop front end: a fyne window around a BoardWidget that feeds
// mouse input to an engine.Session and paints its state.
package ui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fynestorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"ResearchBoard/internal/engine"
	"ResearchBoard/internal/export"
	"ResearchBoard/internal/generate"
	"ResearchBoard/internal/logger"
	"ResearchBoard/internal/state"
	"ResearchBoard/internal/storage"
)

const appID = "io.researchboard.app"

// generateTimeout bounds one generation request.
const generateTimeout = 5 * time.Minute

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

// AppConfig describes one window.
type AppConfig struct {
	Title     string
	Session   *engine.Session
	Generator generate.Generator // nil hides generation
	ShareLink string             // set while presenting
	Follower  bool               // following a presenter: view controls only
	Status    string             // initial status line
}

type App struct {
	cfg     AppConfig
	session *engine.Session
	fyneApp fyne.App
	window  fyne.Window
	board   *BoardWidget
	status  *widget.Label
	info    *widget.Label
}

func NewApp(cfg AppConfig) *App {
	a := &App{
		cfg:     cfg,
		session: cfg.Session,
		fyneApp: app.NewWithID(appID),
		status:  widget.NewLabel("Ready"),
		info:    widget.NewLabel(""),
	}
	a.window = a.fyneApp.NewWindow(cfg.Title)
	a.window.Resize(fyne.NewSize(1280, 800))

	a.board = NewBoardWidget(a.session)
	a.session.OnChange(a.updateInfo)
	a.updateInfo()

	var top fyne.CanvasObject
	if cfg.Follower {
		top = a.viewToolbar()
	} else {
		a.board.OnEditRequest = a.editItem
		top = container.NewVBox(a.actionToolbar(), NewToolPanel(a.session))
		a.window.Canvas().SetOnTypedKey(a.typedKey)
	}
	bottom := container.NewBorder(nil, nil, a.status, a.info)
	a.window.SetContent(container.NewBorder(top, bottom, nil, nil, a.board))

	switch {
	case cfg.Status != "":
		a.status.SetText(cfg.Status)
	case cfg.ShareLink != "":
		a.status.SetText("Presenting at " + cfg.ShareLink)
	}
	return a
}

func (a *App) Board() *BoardWidget { return a.board }

// Run shows the window and blocks until it is closed.
func (a *App) Run() {
	a.window.ShowAndRun()
}

// SetStatus may be called from any goroutine.
func (a *App) SetStatus(text string) {
	fyne.Do(func() { a.status.SetText(text) })
}

// Apply replaces the board with a received snapshot; safe from any goroutine.
func (a *App) Apply(snap storage.Snapshot) {
	fyne.Do(func() { a.session.Load(snap) })
}

func (a *App) updateInfo() {
	view := a.session.View()
	a.info.SetText(fmt.Sprintf("%d items | zoom %.0f%%", len(a.session.Items()), view.Zoom*100))
}

func (a *App) viewToolbar() *widget.Toolbar {
	return widget.NewToolbar(
		widget.NewToolbarAction(theme.ZoomInIcon(), a.session.ZoomIn),
		widget.NewToolbarAction(theme.ZoomOutIcon(), a.session.ZoomOut),
		widget.NewToolbarAction(theme.ZoomFitIcon(), a.session.ResetView),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentPrintIcon(), a.exportPDF),
	)
}

func (a *App) actionToolbar() fyne.CanvasObject {
	s := a.session
	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentAddIcon(), func() { a.report(s.AddNote()) }),
		widget.NewToolbarAction(theme.DocumentCreateIcon(), a.addText),
		widget.NewToolbarAction(theme.FileImageIcon(), a.addImage),
		widget.NewToolbarAction(theme.MoreHorizontalIcon(), func() { s.ToggleRuler() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.MoveUpIcon(), s.BringToFront),
		widget.NewToolbarAction(theme.DeleteIcon(), func() { s.DeleteSelected() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomInIcon(), s.ZoomIn),
		widget.NewToolbarAction(theme.ZoomOutIcon(), s.ZoomOut),
		widget.NewToolbarAction(theme.ZoomFitIcon(), s.ResetView),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentPrintIcon(), a.exportPDF),
	)
	if a.cfg.Generator != nil {
		tb.Append(widget.NewToolbarAction(theme.ComputerIcon(), a.askGenerate))
	}
	if a.cfg.ShareLink != "" {
		tb.Append(widget.NewToolbarAction(theme.MailSendIcon(), func() {
			dialog.ShowInformation("Share this board", a.cfg.ShareLink, a.window)
		}))
	}

	align := widget.NewSelect([]string{string(state.AlignLeft), string(state.AlignCenter), string(state.AlignRight)}, func(v string) {
		s.UpdateStyle(engine.Style{Align: state.Align(v)})
	})
	align.PlaceHolder = "Align"
	fontSize := widget.NewSelect([]string{"12", "16", "20", "24", "32", "48"}, func(v string) {
		if size, err := strconv.ParseFloat(v, 64); err == nil {
			s.UpdateStyle(engine.Style{FontSize: size})
		}
	})
	fontSize.PlaceHolder = "Font"

	return container.NewBorder(nil, nil, nil, container.NewHBox(fontSize, align), tb)
}

func (a *App) report(_ state.Item, err error) {
	if err != nil {
		dialog.ShowError(err, a.window)
	}
}

func (a *App) typedKey(ev *fyne.KeyEvent) {
	if _, editing := a.session.Editing(); editing {
		return
	}
	switch ev.Name {
	case fyne.KeyDelete, fyne.KeyBackspace:
		a.session.DeleteSelected()
	case fyne.KeyEscape:
		a.session.SetTool(engine.ToolSelect)
	case fyne.KeyEqual:
		a.session.ZoomIn()
	case fyne.KeyMinus:
		a.session.ZoomOut()
	case fyne.Key0:
		a.session.ResetView()
	}
}

func (a *App) addText() {
	entry := widget.NewMultiLineEntry()
	entry.SetMinRowsVisible(4)
	dialog.ShowForm("Add text", "Add", "Cancel", []*widget.FormItem{widget.NewFormItem("Text", entry)}, func(ok bool) {
		if ok && entry.Text != "" {
			a.report(a.session.AddText(entry.Text))
		}
	}, a.window)
}

func (a *App) addImage() {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if rc == nil {
			return
		}
		defer rc.Close()
		if _, err := a.session.AddImage(rc.URI().Path(), rc); err != nil {
			dialog.ShowError(fmt.Errorf("could not add %s: %w", rc.URI().Name(), err), a.window)
		}
	}, a.window)
	d.SetFilter(fynestorage.NewExtensionFileFilter(imageExtensions))
	d.Show()
}

func (a *App) editItem(id int64) {
	it, ok := a.session.Item(id)
	if !ok {
		return
	}
	entry := widget.NewMultiLineEntry()
	entry.SetText(it.Content())
	entry.SetMinRowsVisible(6)
	d := dialog.NewForm("Edit "+string(it.Kind), "Save", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Content", entry)},
		func(save bool) {
			if err := a.board.FinishEdit(id, entry.Text, save); err != nil {
				dialog.ShowError(err, a.window)
			}
		}, a.window)
	d.Resize(fyne.NewSize(480, 320))
	d.Show()
}

func (a *App) exportPDF() {
	snap := a.session.Snapshot()
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if wc == nil {
			return
		}
		defer wc.Close()
		if err := export.Write(wc, snap, export.Options{Title: a.cfg.Title}); err != nil {
			logger.Error("[EXPORT] pdf export failed", err)
			dialog.ShowError(err, a.window)
			return
		}
		a.status.SetText("Exported " + wc.URI().Name())
	}, a.window)
	d.SetFileName("board.pdf")
	d.Show()
}

func (a *App) askGenerate() {
	entry := widget.NewMultiLineEntry()
	entry.SetPlaceHolder("e.g. summarise the selected notes")
	entry.SetMinRowsVisible(3)
	dialog.ShowForm("Generate from selection", "Generate", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Instruction", entry)},
		func(ok bool) {
			if ok {
				a.generate(entry.Text)
			}
		}, a.window)
}

// generate calls the generator off the UI goroutine and appends the results on it.
func (a *App) generate(instruction string) {
	selection := a.session.Selected()
	a.status.SetText("Generating...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
		defer cancel()
		items, skipped, err := generate.Run(ctx, a.cfg.Generator, instruction, selection)
		fyne.Do(func() {
			if err != nil {
				logger.Error("[GENERATE] generation failed", err)
				a.status.SetText("Generation failed")
				dialog.ShowError(err, a.window)
				return
			}
			n := a.session.AppendGenerated(items)
			a.status.SetText(fmt.Sprintf("Added %d generated item(s), skipped %d", n, skipped))
		})
	}()
}
