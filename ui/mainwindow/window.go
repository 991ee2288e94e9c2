// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"path/filepath"

	"handfit/internal/app"
	"handfit/internal/fitting"
	"handfit/internal/landmark"
	"handfit/internal/version"
	"handfit/ui/canvas"
	"handfit/ui/panels"
	"handfit/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const (
	prefKeyLastDir        = "lastDirectory"
	prefKeyLastScan       = "lastScanMesh"
	prefKeyLastProsthetic = "lastProstheticMesh"
	prefKeyLastProject    = "lastProject"
	prefKeyZoom           = "canvasZoom"
	prefKeyFitToWindow    = "canvasFitToWindow"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	prefs     *prefs.Prefs
	canvas    *canvas.MeshCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("HandFit")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewMeshCanvas()
	mw.canvas.SetScene(mw.state.Scene)

	mw.sidePanel = panels.NewSidePanel(mw.state, mw.canvas)
	mw.sidePanel.SetWindow(mw.Window)

	mw.statusBar = widget.NewLabel("Ready")

	if mw.prefs.Bool(prefKeyFitToWindow, true) {
		mw.canvas.SetFitToWindow(true)
	} else {
		mw.canvas.SetZoom(mw.prefs.Float(prefKeyZoom, 1.0))
	}

	toolbar := mw.createToolbar()
	mw.restoreLastMeshes()

	canvasArea := container.NewBorder(
		toolbar, // top
		nil, nil, nil,
		mw.canvas,
	)

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.28)

	content := container.NewBorder(
		nil,
		container.NewPadded(mw.statusBar), // bottom
		nil, nil,
		split,
	)
	mw.SetContent(content)
}

// createToolbar creates the toolbar with view and zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	planes := []canvas.ViewPlane{canvas.PlaneXY, canvas.PlaneXZ, canvas.PlaneYZ}
	names := make([]string, len(planes))
	for i, p := range planes {
		names[i] = p.String()
	}
	planeSelect := widget.NewSelect(names, func(selected string) {
		for i, n := range names {
			if n == selected {
				mw.canvas.SetPlane(planes[i])
				return
			}
		}
	})
	planeSelect.SetSelected(names[0])

	zoomOutBtn := widget.NewButton("-", mw.canvas.ZoomOut)
	zoomInBtn := widget.NewButton("+", mw.canvas.ZoomIn)
	fitBtn := widget.NewButton("Fit", func() {
		mw.canvas.SetFitToWindow(true)
	})

	return container.NewHBox(
		widget.NewLabel("View:"),
		planeSelect,
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		fitBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		fyne.NewMenuItem("Save Project As...", mw.onSaveProjectAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Load Hand Scan...", func() { mw.importMesh(true) }),
		fyne.NewMenuItem("Load Prosthetic...", func() { mw.importMesh(false) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Prosthetic...", func() { mw.exportObject(landmark.ProstheticName) }),
		fyne.NewMenuItem("Export Isolated Socket...", func() { mw.exportObject(fitting.IsolatedName) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	fitMenu := fyne.NewMenu("Fit",
		fyne.NewMenuItem("Create Landmarks", mw.onCreateLandmarks),
		fyne.NewMenuItem("Run Fitting Process", mw.onRunFit),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Bake", mw.onBake),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.canvas.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.canvas.ZoomOut),
		fyne.NewMenuItem("Fit to Window", func() { mw.canvas.SetFitToWindow(true) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Toggle Filler", func() { mw.toggleObject(fitting.FillerName) }),
		fyne.NewMenuItem("Toggle Scan", func() { mw.toggleObject(landmark.HandScanName) }),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, fitMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventProjectLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle("HandFit - " + filepath.Base(path))
			mw.updateStatus("Project loaded: " + path)
		}
		mw.canvas.Refresh()
	})

	mw.state.On(app.EventMeshLoaded, func(data interface{}) {
		mw.sidePanel.SyncMarkers()
		mw.canvas.Refresh()
		if name, ok := data.(string); ok {
			mw.updateStatus(name + " loaded")
		}
	})

	mw.state.On(app.EventFitComplete, func(data interface{}) {
		mw.canvas.Refresh()
		mw.updateStatus("Fit complete")
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if len(title) > 0 && title[len(title)-1] != '*' {
				mw.SetTitle(title + " *")
			}
		}
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// SavePreferences flushes the preferences file; called on shutdown.
func (mw *MainWindow) SavePreferences() {
	mw.prefs.SetBool(prefKeyFitToWindow, mw.canvas.GetFitToWindow())
	mw.prefs.SetFloat(prefKeyZoom, mw.canvas.Zoom())
	if err := mw.prefs.Save(); err != nil {
		mw.updateStatus("Could not save preferences: " + err.Error())
	}
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir remembers the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefKeyLastDir, filepath.Dir(filePath))
}

// restoreLastMeshes loads the previously used scan and prosthetic.
func (mw *MainWindow) restoreLastMeshes() {
	if path := mw.prefs.String(prefKeyLastScan); path != "" {
		if err := mw.state.LoadScanMesh(path); err != nil {
			mw.updateStatus("Could not restore scan: " + err.Error())
		}
	}
	if path := mw.prefs.String(prefKeyLastProsthetic); path != "" {
		if err := mw.state.LoadProstheticMesh(path); err != nil {
			mw.updateStatus("Could not restore prosthetic: " + err.Error())
		}
	}
	mw.sidePanel.SyncMarkers()
	mw.state.SetModified(false)
}

// Menu action handlers

func (mw *MainWindow) onOpenProject() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		mw.prefs.SetString(prefKeyLastProject, path)
		if err := mw.state.LoadProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".handfit"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveProjectAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".handfit" {
			path += ".handfit"
		}
		mw.saveLastDir(path)
		if err := mw.state.SaveProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.SetTitle("HandFit - " + filepath.Base(path))
	}, mw.Window)
	fd.SetFileName("fitting.handfit")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) importMesh(scan bool) {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)

		var loadErr error
		if scan {
			loadErr = mw.state.LoadScanMesh(path)
		} else {
			loadErr = mw.state.LoadProstheticMesh(path)
		}
		if loadErr != nil {
			dialog.ShowError(loadErr, mw.Window)
			return
		}
		if scan {
			mw.prefs.SetString(prefKeyLastScan, path)
		} else {
			mw.prefs.SetString(prefKeyLastProsthetic, path)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".obj"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) exportObject(name string) {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".obj" {
			path += ".obj"
		}
		mw.saveLastDir(path)
		if err := mw.state.ExportObject(name, path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Exported " + name + " to " + path)
	}, mw.Window)
	fd.SetFileName(name + ".obj")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onCreateLandmarks() {
	created, err := mw.state.CreateLandmarks()
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.sidePanel.SyncMarkers()
	mw.updateStatus(fmt.Sprintf("Created %d landmarks", len(created)))
}

func (mw *MainWindow) onRunFit() {
	if err := mw.state.RunFit(); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.canvas.Refresh()
}

func (mw *MainWindow) onBake() {
	if err := mw.state.Bake(); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.canvas.Refresh()
	mw.updateStatus("Deformation baked")
}

func (mw *MainWindow) toggleObject(name string) {
	o, err := mw.state.Scene.FindObject(name)
	if err != nil {
		mw.updateStatus(err.Error())
		return
	}
	o.Hidden = !o.Hidden
	if name == fitting.FillerName {
		mw.state.ShowFillerPreview = !o.Hidden
	}
	mw.canvas.Refresh()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About HandFit",
		fmt.Sprintf("HandFit v%s\n\n"+
			"Prosthetic socket fitting against 3D hand scans.\n\n"+
			"Landmark alignment, offset-controlled conformance,\n"+
			"and socket isolation.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
