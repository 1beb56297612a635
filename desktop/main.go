package main

import (
	"log"
	"os"
	"path/filepath"
	goruntime "runtime"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

const (
	appName   = "Tinkerpad"
	aboutText = "A three-pane HTML, CSS and JavaScript editor with sandboxed preview."
)

func main() {
	app := NewApp()
	if err := wails.Run(appOptions(app)); err != nil {
		log.Fatalf("[Desktop] %v", err)
	}
}

// appOptions describes the single editor window. Its content comes from the
// app's handler, which proxies to the embedded server once it is running.
func appOptions(app *App) *options.App {
	return &options.App{
		Title:            appName,
		Width:            1280,
		Height:           800,
		MinWidth:         800,
		MinHeight:        600,
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		Menu:             buildMenu(app),
		AssetServer:      &assetserver.Options{Handler: app.GetHandler()},
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		Bind:             []any{app},
		Mac: &mac.Options{
			TitleBar: mac.TitleBarDefault(),
			About:    &mac.AboutInfo{Title: appName, Message: aboutText + "\n\nBuilt with Wails and Go."},
		},
	}
}

func buildMenu(app *App) *menu.Menu {
	m := menu.NewMenu()
	addFileMenu(m, app)
	if goruntime.GOOS == "darwin" {
		m.Append(menu.EditMenu())
	}
	addViewMenu(m, app)
	addHelpMenu(m, app)
	return m
}

func addFileMenu(m *menu.Menu, app *App) {
	file := m.AddSubmenu("File")
	file.AddText("Save Project to Folder…", keys.CmdOrCtrl("s"), func(*menu.CallbackData) {
		app.saveProjectFromMenu()
	})
	if goruntime.GOOS != "darwin" {
		file.AddSeparator()
		file.AddText("Exit", keys.OptionOrAlt("F4"), func(*menu.CallbackData) {
			runtime.Quit(app.ctx)
		})
	}
}

func addViewMenu(m *menu.Menu, app *App) {
	view := m.AddSubmenu("View")
	view.AddText("Reload", keys.CmdOrCtrl("r"), func(*menu.CallbackData) {
		runtime.WindowReloadApp(app.ctx)
	})
	view.AddText("Toggle Full Screen", keys.Key("F11"), func(*menu.CallbackData) {
		if runtime.WindowIsFullscreen(app.ctx) {
			runtime.WindowUnfullscreen(app.ctx)
			return
		}
		runtime.WindowFullscreen(app.ctx)
	})
}

func addHelpMenu(m *menu.Menu, app *App) {
	help := m.AddSubmenu("Help")
	help.AddText("Open in Browser", nil, func(*menu.CallbackData) {
		if url := app.GetServerURL(); url != "" {
			runtime.BrowserOpenURL(app.ctx, url)
		}
	})
	// macOS shows About in the application menu instead.
	if goruntime.GOOS == "darwin" {
		return
	}
	help.AddSeparator()
	help.AddText("About "+appName, nil, func(*menu.CallbackData) {
		runtime.MessageDialog(app.ctx, runtime.MessageDialogOptions{
			Type:    runtime.InfoDialog,
			Title:   "About " + appName,
			Message: aboutText,
		})
	})
}

// GetDefaultDirectory is where the save dialog opens and tinkerpad.yaml is
// read from: ~/Documents when it exists, otherwise the home directory.
func GetDefaultDirectory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	if docs := filepath.Join(home, "Documents"); isDir(docs) {
		return docs
	}
	return home
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
