// Package main provides the entry point for the HandFit application.
package main

import (
	"log"
	"os"
	"time"

	"handfit/internal/app"
	"handfit/internal/version"
	"handfit/ui/mainwindow"
	"handfit/ui/prefs"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
)

const appTitle = "HandFit"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.Version)

	fyneApp := fyneapp.NewWithID("handfit")
	fyneApp.Settings().SetTheme(&app.HandFitTheme{})

	state := app.NewState()
	defer state.Close()
	appPrefs := prefs.Load()

	win := mainwindow.New(fyneApp, state, appPrefs)
	win.SetTitle(appTitle)

	if len(os.Args) > 1 {
		projectPath := os.Args[1]
		if err := state.LoadProject(projectPath); err != nil {
			log.Printf("Failed to load project %s: %v", projectPath, err)
		}
	}

	setupHotReload(win)

	win.SetOnClosed(func() {
		win.SavePreferences()
	})
	win.Resize(fyne.NewSize(1280, 860))
	win.ShowAndRun()
}

// setupHotReload prompts for restart when a newer binary replaces the
// running one. Development convenience.
func setupHotReload(win *mainwindow.MainWindow) {
	reloader := app.NewHotReloader(2 * time.Second)
	if reloader == nil {
		log.Println("Hot reload: unable to determine executable path")
		return
	}

	log.Printf("Hot reload: watching %s", reloader.ExecPath())

	reloader.OnNewBinary(func() {
		log.Println("Hot reload: newer binary detected")
		dialog.ShowConfirm("New Version Available",
			"The application binary has been updated.\nRestart now?",
			func(restart bool) {
				if !restart {
					reloader.ResetBaseline()
					reloader.Start()
					return
				}
				log.Println("Hot reload: restarting...")
				win.SavePreferences()
				if err := reloader.Restart(); err != nil {
					log.Printf("Hot reload: restart failed: %v", err)
				}
			}, win.Window)
	})

	reloader.Start()
}
