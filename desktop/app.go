package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/livetemplate/tinkerpad"
	"github.com/livetemplate/tinkerpad/internal/config"
	"github.com/livetemplate/tinkerpad/internal/server"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// App struct holds the application state.
type App struct {
	ctx        context.Context
	server     *server.Server
	httpServer *http.Server
	serverPort int
	mu         sync.RWMutex
}

// NewApp creates a new App application struct.
func NewApp() *App {
	return &App{}
}

// startup is called when the app starts.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	if err := a.startServer(); err != nil {
		log.Printf("[Desktop] Failed to start editor: %v", err)
		runtime.MessageDialog(ctx, runtime.MessageDialogOptions{
			Type:    runtime.ErrorDialog,
			Title:   appName,
			Message: err.Error(),
		})
	}
}

// shutdown is called when the app is closing.
func (a *App) shutdown(ctx context.Context) {
	a.stopServer()
}

// stopServer stops the current server if running.
func (a *App) stopServer() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.httpServer != nil {
		a.httpServer.Close()
		a.httpServer = nil
	}
	if a.server != nil {
		a.server.Close()
		a.server = nil
	}
	a.serverPort = 0
}

// loadConfig reads tinkerpad.yaml from the default directory, pinned to
// loopback.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromDir(GetDefaultDirectory())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Host = "127.0.0.1"
	return cfg, nil
}

// startServer starts the editor on a free loopback port and navigates the
// window to it.
func (a *App) startServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	srv, err := server.NewWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		srv.Close()
		return fmt.Errorf("failed to find free port: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	httpServer := &http.Server{Handler: srv}
	go func() {
		if err := httpServer.Serve(listener); err != http.ErrServerClosed {
			log.Printf("[Desktop] HTTP server error: %v", err)
		}
	}()

	a.mu.Lock()
	a.server = srv
	a.httpServer = httpServer
	a.serverPort = port
	a.mu.Unlock()

	runtime.WindowSetTitle(a.ctx, a.windowTitle())
	runtime.EventsEmit(a.ctx, "navigate", a.GetServerURL())
	return nil
}

// windowTitle is the configured site title, or the app name before the
// server is up or when none is configured.
func (a *App) windowTitle() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.server == nil {
		return appName
	}
	if title := a.server.Config().Title; title != "" {
		return title
	}
	return appName
}

// GetServerURL returns the URL of the running server, or empty string if not running.
func (a *App) GetServerURL() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.serverPort == 0 {
		return ""
	}
	return fmt.Sprintf("http://127.0.0.1:%d/", a.serverPort)
}

// SaveProject asks for a folder and writes the HTML, CSS and JavaScript
// files of the most recently used session into it. It returns the folder,
// or an empty string if the dialog was cancelled.
func (a *App) SaveProject() (string, error) {
	a.mu.RLock()
	srv := a.server
	a.mu.RUnlock()
	if srv == nil {
		return "", errors.New("editor is not running")
	}

	sess, ok := srv.Sessions().Recent()
	if !ok {
		return "", errors.New("no open editor session")
	}

	dir, err := runtime.OpenDirectoryDialog(a.ctx, runtime.OpenDialogOptions{
		Title:                "Save Project to Folder",
		DefaultDirectory:     GetDefaultDirectory(),
		CanCreateDirectories: true,
	})
	if err != nil {
		return "", err
	}
	if dir == "" {
		return "", nil
	}

	if err := exportProject(sess.Editor.Project(), dir); err != nil {
		return "", err
	}
	log.Printf("[Desktop] Saved project to %s", dir)
	return dir, nil
}

// exportProject writes all three files of p into dir.
func exportProject(p tinkerpad.Project, dir string) error {
	saver := tinkerpad.NewDirSaver(dir)
	if err := tinkerpad.NewExporter(saver).ExportAll(p); err != nil {
		return err
	}
	return saver.Err()
}

// saveProjectFromMenu runs SaveProject and reports the outcome in a dialog.
func (a *App) saveProjectFromMenu() {
	dir, err := a.SaveProject()
	switch {
	case err != nil:
		runtime.MessageDialog(a.ctx, runtime.MessageDialogOptions{
			Type:    runtime.ErrorDialog,
			Title:   "Save Project",
			Message: err.Error(),
		})
	case dir != "":
		runtime.MessageDialog(a.ctx, runtime.MessageDialogOptions{
			Type:    runtime.InfoDialog,
			Title:   "Save Project",
			Message: fmt.Sprintf("Saved to %s", dir),
		})
	}
}

// GetHandler returns the HTTP handler.
// Once the editor is running it serves the editor; until then it serves a
// short loading screen that follows the navigate event.
func (a *App) GetHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.RLock()
		srv := a.server
		a.mu.RUnlock()

		if srv != nil {
			srv.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(loadingHTML))
	})
}

const loadingHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8"/>
    <title>Tinkerpad</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            background: #1b2636;
            color: #94a3b8;
            min-height: 100vh;
            margin: 0;
            display: flex;
            align-items: center;
            justify-content: center;
        }
    </style>
</head>
<body>
    <p id="status">Starting editor...</p>
    <script>
        function waitForWails() {
            if (window.go && window.runtime) {
                window.runtime.EventsOn('navigate', function(url) {
                    window.location.href = url;
                });
                window.go.main.App.GetServerURL().then(function(url) {
                    if (url) {
                        window.location.href = url;
                    }
                });
            } else {
                setTimeout(waitForWails, 50);
            }
        }
        waitForWails();
    </script>
</body>
</html>`
