// Package panels provides UI panels for the application.
package panels

import (
	"fmt"
	"log"
	"strings"

	"handfit/internal/app"
	"handfit/internal/fitting"
	"handfit/internal/landmark"
	"handfit/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

// SidePanel provides the main side panel with tabbed sections.
type SidePanel struct {
	state     *app.State
	canvas    *canvas.MeshCanvas
	container *container.AppTabs

	setupPanel   *SetupPanel
	fittingPanel *FittingPanel
	trackerPanel *TrackerPanel
}

// NewSidePanel creates a new side panel.
func NewSidePanel(state *app.State, cvs *canvas.MeshCanvas) *SidePanel {
	sp := &SidePanel{
		state:  state,
		canvas: cvs,
	}

	sp.setupPanel = NewSetupPanel(state, cvs)
	sp.fittingPanel = NewFittingPanel(state, cvs)
	sp.trackerPanel = NewTrackerPanel(state)

	sp.container = container.NewAppTabs(
		container.NewTabItem("Setup", sp.setupPanel.Container()),
		container.NewTabItem("Fitting", sp.fittingPanel.Container()),
		container.NewTabItem("Tracker", sp.trackerPanel.Container()),
	)

	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window) {
	sp.setupPanel.SetWindow(w)
}

// SyncMarkers refreshes the landmark markers on the canvas.
func (sp *SidePanel) SyncMarkers() {
	sp.canvas.SetMarkers(landmarkMarkers(sp.state.Scene))
}

// SetupPanel handles mesh import and landmark placement.
type SetupPanel struct {
	state     *app.State
	canvas    *canvas.MeshCanvas
	window    fyne.Window
	container fyne.CanvasObject

	scanLabel       *widget.Label
	prostheticLabel *widget.Label
	landmarkLabel   *widget.Label
	statusLabel     *widget.Label
}

// NewSetupPanel creates the setup panel.
func NewSetupPanel(state *app.State, cvs *canvas.MeshCanvas) *SetupPanel {
	sp := &SetupPanel{
		state:  state,
		canvas: cvs,
	}

	sp.scanLabel = widget.NewLabel("No hand scan loaded")
	sp.prostheticLabel = widget.NewLabel("No prosthetic loaded")
	sp.landmarkLabel = widget.NewLabel("")
	sp.landmarkLabel.Wrapping = fyne.TextWrapWord
	sp.statusLabel = widget.NewLabel("")
	sp.statusLabel.Wrapping = fyne.TextWrapWord

	loadScanBtn := widget.NewButton("Load Hand Scan...", func() {
		sp.openMesh(true)
	})
	loadProsBtn := widget.NewButton("Load Prosthetic...", func() {
		sp.openMesh(false)
	})

	landmarksBtn := widget.NewButton("Create Landmarks", func() {
		created, err := state.CreateLandmarks()
		if err != nil {
			sp.statusLabel.SetText(err.Error())
			return
		}
		if len(created) == 0 {
			sp.statusLabel.SetText("All landmarks already exist")
		} else {
			sp.statusLabel.SetText(fmt.Sprintf("Created %d landmarks; move them into place", len(created)))
		}
		sp.updateLandmarkStatus()
		cvs.SetMarkers(landmarkMarkers(state.Scene))
	})

	sp.container = container.NewVBox(
		widget.NewCard("Meshes", "", container.NewVBox(
			loadScanBtn,
			sp.scanLabel,
			loadProsBtn,
			sp.prostheticLabel,
		)),
		widget.NewCard("Landmarks", "", container.NewVBox(
			landmarksBtn,
			sp.landmarkLabel,
		)),
		sp.statusLabel,
	)

	state.On(app.EventMeshLoaded, func(data interface{}) {
		sp.updateMeshStatus()
	})
	state.On(app.EventLandmarksChanged, func(data interface{}) {
		sp.updateLandmarkStatus()
		cvs.SetMarkers(landmarkMarkers(state.Scene))
	})

	sp.updateMeshStatus()
	sp.updateLandmarkStatus()
	return sp
}

// Container returns the panel container.
func (sp *SetupPanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetWindow sets the parent window for dialogs.
func (sp *SetupPanel) SetWindow(w fyne.Window) {
	sp.window = w
}

func (sp *SetupPanel) openMesh(scan bool) {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()

		var loadErr error
		if scan {
			loadErr = sp.state.LoadScanMesh(path)
		} else {
			loadErr = sp.state.LoadProstheticMesh(path)
		}
		if loadErr != nil {
			dialog.ShowError(loadErr, sp.window)
			return
		}
		sp.canvas.Refresh()
	}, sp.window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".obj"}))
	fd.Show()
}

func (sp *SetupPanel) updateMeshStatus() {
	if o, err := sp.state.Scene.FindObject(landmark.HandScanName); err == nil && o.Mesh != nil {
		sp.scanLabel.SetText(fmt.Sprintf("%d vertices, %d faces", len(o.Mesh.Vertices), len(o.Mesh.Faces)))
	} else {
		sp.scanLabel.SetText("No hand scan loaded")
	}
	if o, err := sp.state.Scene.FindObject(landmark.ProstheticName); err == nil && o.Mesh != nil {
		sp.prostheticLabel.SetText(fmt.Sprintf("%d vertices, %d faces", len(o.Mesh.Vertices), len(o.Mesh.Faces)))
	} else {
		sp.prostheticLabel.SetText("No prosthetic loaded")
	}
}

func (sp *SetupPanel) updateLandmarkStatus() {
	present := 0
	var missing string
	for _, name := range landmark.AllNames() {
		if sp.state.Scene.Has(name) {
			present++
		} else if missing == "" {
			missing = name
		}
	}
	if missing == "" {
		sp.landmarkLabel.SetText("All 6 landmarks placed")
	} else {
		sp.landmarkLabel.SetText(fmt.Sprintf("%d of 6 landmarks (missing %s)", present, missing))
	}
}

// FittingPanel drives the alignment and conformance workflow.
type FittingPanel struct {
	state     *app.State
	canvas    *canvas.MeshCanvas
	container fyne.CanvasObject

	strategySelect  *widget.RadioGroup
	offsetSlider    *widget.Slider
	offsetLabel     *widget.Label
	thicknessSlider *widget.Slider
	pushSlider      *widget.Slider
	runButton       *widget.Button
	fillerButton    *widget.Button
	bakeButton      *widget.Button
	isolateButton   *widget.Button
	reportButton    *widget.Button
	statusLabel     *widget.Label
}

// NewFittingPanel creates the fitting panel.
func NewFittingPanel(state *app.State, cvs *canvas.MeshCanvas) *FittingPanel {
	fp := &FittingPanel{
		state:  state,
		canvas: cvs,
	}

	fp.statusLabel = widget.NewLabel("")
	fp.statusLabel.Wrapping = fyne.TextWrapWord

	fp.strategySelect = widget.NewRadioGroup([]string{"Projection", "Subtraction"}, func(selected string) {
		if selected == "Subtraction" {
			state.Strategy = fitting.StrategySubtraction
		} else {
			state.Strategy = fitting.StrategyProjection
		}
	})
	fp.strategySelect.SetSelected("Projection")

	fp.offsetLabel = widget.NewLabel(formatOffsetMM(metersToMM(fitting.DefaultOffset)))
	fp.offsetSlider = widget.NewSlider(0, 10)
	fp.offsetSlider.Step = 0.1
	fp.offsetSlider.SetValue(metersToMM(fitting.DefaultOffset))
	fp.offsetSlider.OnChanged = func(mm float64) {
		fp.offsetLabel.SetText(formatOffsetMM(mm))
		if err := state.SetOffset(mmToMeters(mm)); err != nil {
			fp.statusLabel.SetText(err.Error())
			return
		}
		cvs.Refresh()
	}

	fp.runButton = widget.NewButton("Run Fitting Process", func() {
		fp.runButton.Disable()
		fp.statusLabel.SetText("Fitting...")
		// Run in a goroutine to keep the UI responsive on large meshes.
		go func() {
			err := state.RunFit()
			fp.runButton.Enable()
			if err != nil {
				fp.statusLabel.SetText(err.Error())
				return
			}
			fp.statusLabel.SetText(fmt.Sprintf("Fit complete (%s, %s offset)",
				state.Strategy, formatOffsetMM(metersToMM(state.Offset()))))
			fp.canvas.Refresh()
		}()
	})

	fp.fillerButton = widget.NewButton("Build Filler Only", func() {
		if err := state.BuildFillerPreview(); err != nil {
			fp.statusLabel.SetText(err.Error())
			return
		}
		fp.statusLabel.SetText("Filler built; inspect it in the preview")
		cvs.Refresh()
	})

	fp.thicknessSlider = widget.NewSlider(0, 5)
	fp.thicknessSlider.Step = 0.1
	fp.pushSlider = widget.NewSlider(-2, 2)
	fp.pushSlider.Step = 0.1
	onFillerParam := func(float64) {
		state.Session.SetFillerParams(
			mmToMeters(fp.thicknessSlider.Value),
			mmToMeters(fp.pushSlider.Value))
		// Rebuild only if a filler is already being previewed.
		if state.Scene.Has(fitting.FillerName) {
			if err := state.BuildFillerPreview(); err != nil {
				fp.statusLabel.SetText(err.Error())
				return
			}
			cvs.Refresh()
		}
	}
	fp.thicknessSlider.OnChanged = onFillerParam
	fp.pushSlider.OnChanged = onFillerParam

	fp.bakeButton = widget.NewButton("Bake", func() {
		if err := state.Bake(); err != nil {
			fp.statusLabel.SetText(err.Error())
			return
		}
		fp.statusLabel.SetText("Deformation baked; offset is now fixed")
		cvs.Refresh()
	})

	fp.isolateButton = widget.NewButton("Bake Isolated Socket", func() {
		isolated, err := state.BakeIsolated()
		if err != nil {
			fp.statusLabel.SetText(err.Error())
			return
		}
		if isolated {
			fp.statusLabel.SetText("Socket region isolated as " + fitting.IsolatedName)
		} else {
			fp.statusLabel.SetText("Baked, but the socket region could not be isolated")
		}
		cvs.Refresh()
	})

	fp.reportButton = widget.NewButton("Clearance Report", func() {
		if state.Handle == nil {
			fp.statusLabel.SetText("Run a fit first")
			return
		}
		r, err := state.Handle.Report()
		if err != nil {
			fp.statusLabel.SetText(err.Error())
			return
		}
		log.Print(r.String())
		fp.statusLabel.SetText(fmt.Sprintf(
			"Clearance over %d samples:\nmin %.2f mm, mean %.2f mm, max %.2f mm\n%.0f%% at or above the offset",
			r.Samples, metersToMM(r.Min), metersToMM(r.Mean), metersToMM(r.Max), r.WithinTolerance*100))
	})

	fp.container = container.NewVBox(
		widget.NewCard("Strategy", "", fp.strategySelect),
		widget.NewCard("Clearance Offset", "", container.NewVBox(
			fp.offsetLabel,
			fp.offsetSlider,
		)),
		widget.NewCard("Filler Preview", "", container.NewVBox(
			fp.fillerButton,
			widget.NewLabel("Thickness (mm):"),
			fp.thicknessSlider,
			widget.NewLabel("Push (mm):"),
			fp.pushSlider,
		)),
		widget.NewCard("Workflow", "", container.NewVBox(
			fp.runButton,
			fp.bakeButton,
			fp.isolateButton,
			fp.reportButton,
		)),
		fp.statusLabel,
	)

	state.On(app.EventConformanceChanged, func(data interface{}) {
		fp.canvas.Refresh()
	})
	state.On(app.EventProjectLoaded, func(data interface{}) {
		mm := metersToMM(state.Offset())
		fp.offsetSlider.SetValue(mm)
		fp.offsetLabel.SetText(formatOffsetMM(mm))
	})

	return fp
}

// Container returns the panel container.
func (fp *FittingPanel) Container() fyne.CanvasObject {
	return fp.container
}

// TrackerPanel shows the prosthetic scale tracker: recorded baselines and
// the per-axis scale last applied.
type TrackerPanel struct {
	state     *app.State
	container fyne.CanvasObject

	baselineLabel *widget.Label
	scaleLabel    *widget.Label
	percentEntry  *widget.Entry
	targetEntry   *widget.Entry
	statusLabel   *widget.Label
}

// NewTrackerPanel creates the tracker panel.
func NewTrackerPanel(state *app.State) *TrackerPanel {
	tp := &TrackerPanel{state: state}

	tp.baselineLabel = widget.NewLabel("No baseline recorded")
	tp.scaleLabel = widget.NewLabel("")
	tp.statusLabel = widget.NewLabel("")
	tp.percentEntry = widget.NewEntry()
	tp.percentEntry.SetPlaceHolder("100")

	applyBtn := widget.NewButton("Rescale Baseline", func() {
		percent, err := parsePercent(tp.percentEntry.Text)
		if err != nil {
			tp.statusLabel.SetText(err.Error())
			return
		}
		o, err := state.Scene.FindObject(landmark.ProstheticName)
		if err != nil {
			tp.statusLabel.SetText("No prosthetic loaded")
			return
		}
		fitting.SetManualBaseline(o, percent)
		tp.refresh()
		tp.statusLabel.SetText(fmt.Sprintf("Baseline rescaled to %.0f%%", percent))
	})

	refreshBtn := widget.NewButton("Refresh", func() {
		tp.refresh()
	})

	tp.targetEntry = widget.NewEntry()
	tp.targetEntry.SetPlaceHolder("Object name, e.g. Liner")
	applyScaleBtn := widget.NewButton("Apply Tracked Scale", func() {
		name := strings.TrimSpace(tp.targetEntry.Text)
		if name == "" {
			tp.statusLabel.SetText("Enter the object to rescale")
			return
		}
		prosthetic, err := state.Scene.FindObject(landmark.ProstheticName)
		if err != nil {
			tp.statusLabel.SetText("No prosthetic loaded")
			return
		}
		target, err := state.Scene.FindObject(name)
		if err != nil {
			tp.statusLabel.SetText(err.Error())
			return
		}
		fitting.ApplyTrackedScale(state.Scene, prosthetic, target)
		tp.statusLabel.SetText("Applied tracked scale to " + name)
	})

	tp.container = container.NewVBox(
		widget.NewCard("Baseline", "", container.NewVBox(
			tp.baselineLabel,
			widget.NewLabel("Manual baseline (%):"),
			tp.percentEntry,
			applyBtn,
		)),
		widget.NewCard("Applied Scale", "", container.NewVBox(
			tp.scaleLabel,
			refreshBtn,
			tp.targetEntry,
			applyScaleBtn,
		)),
		tp.statusLabel,
	)

	state.On(app.EventFitComplete, func(data interface{}) {
		tp.refresh()
	})

	tp.refresh()
	return tp
}

// Container returns the panel container.
func (tp *TrackerPanel) Container() fyne.CanvasObject {
	return tp.container
}

func (tp *TrackerPanel) refresh() {
	o, err := tp.state.Scene.FindObject(landmark.ProstheticName)
	if err != nil {
		tp.baselineLabel.SetText("No prosthetic loaded")
		tp.scaleLabel.SetText("")
		return
	}
	s := fitting.TrackerStateOf(o)
	if s.BaselineWrist > 0 || s.BaselinePalm > 0 {
		tp.baselineLabel.SetText(fmt.Sprintf("Wrist %.1f mm, palm %.1f mm",
			metersToMM(s.BaselineWrist), metersToMM(s.BaselinePalm)))
	} else {
		tp.baselineLabel.SetText("No baseline recorded")
	}
	tp.scaleLabel.SetText(fmt.Sprintf("X %.1f%%  Y %.1f%%  Z %.1f%%",
		s.PercentX(), s.PercentY(), s.PercentZ()))
}
