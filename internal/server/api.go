package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/livetemplate/tinkerpad"
)

// maxRequestBodySize limits the size of incoming API request bodies (1MB)
const maxRequestBodySize = 1 << 20

// APIHandler serves the stateless JSON API: validation, assembly and file
// name normalization without a session.
type APIHandler struct {
	mux *http.ServeMux
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler() *APIHandler {
	h := &APIHandler{mux: http.NewServeMux()}
	h.mux.HandleFunc("POST /api/validate", h.handleValidate)
	h.mux.HandleFunc("POST /api/assemble", h.handleAssemble)
	h.mux.HandleFunc("POST /api/filename", h.handleFileName)
	return h
}

// ServeHTTP handles API requests.
func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// SnippetsRequest carries the three snippets.
type SnippetsRequest struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
	JS   string `json:"js"`
}

// ValidateResponse is the JSON response for /api/validate.
type ValidateResponse struct {
	OK       bool                `json:"ok"`
	Message  string              `json:"message,omitempty"`
	Problems []tinkerpad.Problem `json:"problems"`
}

// AssembleResponse is the JSON response for /api/assemble.
type AssembleResponse struct {
	Document string `json:"document"`
}

// FileNameRequest is the JSON request body for /api/filename.
type FileNameRequest struct {
	Language string `json:"language"`
	Name     string `json:"name"`
}

// FileNameResponse is the JSON response for /api/filename.
type FileNameResponse struct {
	Name string `json:"name"`
}

func (h *APIHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req SnippetsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	problems := tinkerpad.Validate(req.HTML, req.CSS, req.JS)
	resp := ValidateResponse{
		OK:       len(problems) == 0,
		Message:  tinkerpad.JoinProblems(problems),
		Problems: problems,
	}
	if resp.Problems == nil {
		resp.Problems = []tinkerpad.Problem{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) handleAssemble(w http.ResponseWriter, r *http.Request) {
	var req SnippetsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, AssembleResponse{
		Document: tinkerpad.Assemble(req.HTML, req.CSS, req.JS),
	})
}

func (h *APIHandler) handleFileName(w http.ResponseWriter, r *http.Request) {
	var req FileNameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := tinkerpad.ParseLanguage(req.Language)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if l == tinkerpad.HTML {
		writeJSONError(w, http.StatusBadRequest, tinkerpad.ErrFileNameNotEditable.Error())
		return
	}
	writeJSON(w, http.StatusOK, FileNameResponse{Name: tinkerpad.NormalizeFileName(l, req.Name)})
}

// decodeJSON reads a size-limited JSON body into v, writing the error
// response itself when that fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	writeJSONError(w, http.StatusBadRequest, "invalid JSON")
	return false
}
