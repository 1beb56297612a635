package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"mime"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/livetemplate/tinkerpad"
	"github.com/livetemplate/tinkerpad/internal/assets"
	"github.com/livetemplate/tinkerpad/internal/config"
	"github.com/livetemplate/tinkerpad/internal/session"
)

// maxActionBodySize limits action payloads, which carry whole snippets (4MB)
const maxActionBodySize = 4 << 20

// Server is the tinkerpad HTTP surface: one in-memory editor per browser
// session, driven by JSON actions over HTTP or WebSocket.
type Server struct {
	config   *config.Config
	sessions *session.Store
	page     *template.Template
	help     template.HTML
	upgrader websocket.Upgrader
	handler  http.Handler

	// Per-session action limits, and per-client limits for /api when enabled.
	actionLimits *LimiterSet
	apiLimits    *LimiterSet

	// Lifetime of the limiter sweep loops
	cancel    context.CancelFunc
	sweepDone []<-chan struct{}
	closeOnce sync.Once
}

// New creates a server with the default configuration.
func New() (*Server, error) {
	return NewWithConfig(config.DefaultConfig())
}

// NewWithConfig creates a server with a specific configuration.
func NewWithConfig(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	page, err := assets.PageTemplate()
	if err != nil {
		return nil, fmt.Errorf("failed to parse editor page: %w", err)
	}
	help, err := assets.HelpHTML()
	if err != nil {
		return nil, fmt.Errorf("failed to render help: %w", err)
	}

	s := &Server{
		config: cfg,
		sessions: session.NewStore(session.Options{
			TTL:             cfg.Sessions.GetTTL(),
			CleanupInterval: cfg.Sessions.GetCleanupInterval(),
			MaxSessions:     cfg.Sessions.GetMaxSessions(),
			EditorOptions:   cfg.Editor.EditorOptions(),
		}),
		page:     page,
		help:     help,
		upgrader: newUpgrader(cfg.Server.Debug),
	}
	s.actionLimits = NewLimiterSet("actions",
		cfg.Sessions.GetActionsPerSecond(), cfg.Sessions.GetActionBurst(), cfg.Sessions.GetMaxSessions())
	if cfg.IsAPIEnabled() {
		s.apiLimits = NewLimiterSet("api",
			cfg.API.GetRateLimitRPS(), cfg.API.GetRateLimitBurst(), cfg.API.GetMaxTrackedIPs())
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.sweepDone = append(s.sweepDone, s.actionLimits.Run(ctx))
	if s.apiLimits != nil {
		s.sweepDone = append(s.sweepDone, s.apiLimits.Run(ctx))
	}

	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleNewSession)
	mux.HandleFunc("GET /s/{id}", s.handleEditor)
	mux.Handle("POST /s/{id}/actions",
		EditorOnly(RateLimit(s.actionLimits, sessionKey)(http.HandlerFunc(s.handleAction))))
	mux.HandleFunc("GET /s/{id}/ws", s.handleWebSocket)
	mux.HandleFunc("GET /s/{id}/preview", s.handlePreview)
	mux.HandleFunc("GET /s/{id}/files/{fileID}", s.handleFile)
	mux.HandleFunc("GET /assets/{name}", s.handleAsset)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.apiLimits != nil {
		var api http.Handler = NewAPIHandler()
		api = RateLimit(s.apiLimits, clientIP)(api)
		api = CORSMiddleware(s.config.API.GetCORSOrigins())(api)
		mux.Handle("/api/", api)
	}

	var h http.Handler = mux
	h = SecurityHeadersMiddleware()(h)
	if s.config.Features.Compression {
		h = WithCompression(h)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Sessions returns the session store.
func (s *Server) Sessions() *session.Store {
	return s.sessions
}

// Config returns the server configuration.
func (s *Server) Config() *config.Config {
	return s.config
}

// Close stops background goroutines. Safe to call multiple times.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.sessions.Stop()
		s.cancel()
		for _, done := range s.sweepDone {
			<-done
		}
	})
}

func editorPath(id string) string {
	return "/s/" + id
}

func previewPath(id string) string {
	return "/s/" + id + "/preview"
}

// handleNewSession starts a session and redirects to its editor.
func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	http.Redirect(w, r, editorPath(sess.ID), http.StatusSeeOther)
}

// tabView is one pane of the editor page.
type tabView struct {
	Language     tinkerpad.Language
	Label        string
	Heading      string
	Placeholder  string
	FileName     string
	Snippet      string
	Active       bool
	FileEditable bool
}

type pageData struct {
	Title      string
	SessionID  string
	Sandbox    string
	State      tinkerpad.Snapshot
	Tabs       []tabView
	Help       template.HTML
	PreviewURL string
}

// handleEditor renders the editor page. Unknown or expired sessions start over.
func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	snap := sess.Editor.Snapshot()
	data := pageData{
		Title:      s.config.Title,
		SessionID:  sess.ID,
		Sandbox:    s.config.Preview.GetSandbox(),
		State:      snap,
		Help:       s.help,
		PreviewURL: previewPath(sess.ID),
	}
	for _, l := range tinkerpad.Languages {
		data.Tabs = append(data.Tabs, tabView{
			Language:     l,
			Label:        l.Label(),
			Heading:      l.Heading(),
			Placeholder:  l.Placeholder(),
			FileName:     snap.FileName(l),
			Snippet:      snap.Snippet(l),
			Active:       l == snap.ActiveTab,
			FileEditable: l != tinkerpad.HTML,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.page.Execute(w, data); err != nil {
		log.Printf("[Session] Failed to render editor for %s: %v", sess.ID, err)
	}
}

// handleAction applies one JSON action envelope.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "session not found")
		return
	}

	var env Envelope
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionBodySize)).Decode(&env); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid action: "+err.Error())
		return
	}

	reply, err := dispatch(sess, env)
	if err != nil {
		if s.config.Server.Debug {
			log.Printf("[Session] %s: rejected action %q: %v", sess.ID, env.Action, err)
		}
		writeJSON(w, http.StatusBadRequest, reply)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// previewCSP sandboxes the preview document even when it is opened outside
// the editor's iframe.
func previewCSP(sandbox string) string {
	return "sandbox " + sandbox + "; frame-ancestors 'self'"
}

// handlePreview serves the document captured by the last successful preview.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	doc, open := sess.Editor.PreviewDocument()
	if !open {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", previewCSP(s.config.Preview.GetSandbox()))
	w.Header().Set("X-Frame-Options", "SAMEORIGIN")
	w.Header().Set("Cache-Control", "no-store")
	w.Write([]byte(doc))
}

// handleFile hands a queued download to the browser once.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	f, ok := sess.Downloads.Take(r.PathValue("fileID"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(f.Content)
}

// handleAsset serves embedded client assets.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	var (
		data        []byte
		err         error
		contentType string
	)
	switch r.PathValue("name") {
	case "editor.js":
		data, err = assets.GetEditorJS()
		contentType = "application/javascript"
	case "editor.css":
		data, err = assets.GetEditorCSS()
		contentType = "text/css"
	default:
		err = errors.New("unknown asset")
	}
	if err != nil {
		http.Error(w, "Asset not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.sessions.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":                 "ok",
		"sessions":               stats.Sessions,
		"oldest_session_seconds": int(stats.OldestAge.Seconds()),
	})
}
