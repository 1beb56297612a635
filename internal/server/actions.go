package server

import (
	"encoding/json"
	"fmt"

	"github.com/livetemplate/tinkerpad"
	"github.com/livetemplate/tinkerpad/internal/session"
)

// Envelope is one editor action sent by the page, over HTTP or WebSocket.
type Envelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Reply is sent back for every envelope.
type Reply struct {
	State *tinkerpad.Snapshot `json:"state,omitempty"`

	// Downloads lists files saved by this action; the page fetches each
	// from /s/{id}/files/{fileID}.
	Downloads []session.File `json:"downloads,omitempty"`

	// PreviewURL is set when the action opened a fresh preview.
	PreviewURL string `json:"previewURL,omitempty"`

	Error string `json:"error,omitempty"`
}

// Action names.
const (
	ActionState        = "state"
	ActionSelectTab    = "select_tab"
	ActionEdit         = "edit"
	ActionProjectName  = "project_name"
	ActionFileName     = "file_name"
	ActionPreview      = "preview"
	ActionClosePreview = "close_preview"
	ActionDownload     = "download"
	ActionDownloadAll  = "download_all"
)

// ProtocolError is a malformed or unknown action. The editor is not touched.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string {
	return e.Msg
}

func protocolErrorf(format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Msg: fmt.Sprintf(format, args...)}
}

type selectTabData struct {
	Tab string `json:"tab"`
}

type editData struct {
	Language string  `json:"language"`
	Text     *string `json:"text"`
}

type projectNameData struct {
	Name string `json:"name"`
}

type fileNameData struct {
	Language string `json:"language"`
	Name     string `json:"name"`
}

type downloadData struct {
	Language string `json:"language"`
}

// dispatch applies one action to the session's editor and builds the reply.
// A returned error is always a *ProtocolError; the reply then still carries
// the unchanged state.
func dispatch(sess *session.Session, env Envelope) (Reply, error) {
	ed := sess.Editor
	var reply Reply

	var err error
	if env.Action == ActionPreview {
		if status := ed.Preview(); !status.IsError() {
			reply.PreviewURL = previewPath(sess.ID)
		}
	} else {
		err = apply(ed, env)
	}

	snap := ed.Snapshot()
	reply.State = &snap
	reply.Downloads = sess.Downloads.Pending()
	if err != nil {
		reply.Error = err.Error()
	}
	return reply, err
}

func apply(ed *tinkerpad.Editor, env Envelope) error {
	switch env.Action {
	case ActionState:
		return nil

	case ActionSelectTab:
		var d selectTabData
		if err := decodeData(env, &d); err != nil {
			return err
		}
		l, err := parseLanguage(d.Tab)
		if err != nil {
			return err
		}
		return ed.SelectTab(l)

	case ActionEdit:
		var d editData
		if err := decodeData(env, &d); err != nil {
			return err
		}
		if d.Text == nil {
			return protocolErrorf("%s: text is required", env.Action)
		}
		if d.Language == "" {
			ed.EditActive(*d.Text)
			return nil
		}
		l, err := parseLanguage(d.Language)
		if err != nil {
			return err
		}
		return ed.SetSnippet(l, *d.Text)

	case ActionProjectName:
		var d projectNameData
		if err := decodeData(env, &d); err != nil {
			return err
		}
		ed.SetProjectName(d.Name)
		return nil

	case ActionFileName:
		var d fileNameData
		if err := decodeData(env, &d); err != nil {
			return err
		}
		l, err := parseLanguage(d.Language)
		if err != nil {
			return err
		}
		if _, err := ed.SetFileName(l, d.Name); err != nil {
			return &ProtocolError{Msg: err.Error()}
		}
		return nil

	case ActionClosePreview:
		ed.ClosePreview()
		return nil

	case ActionDownload:
		var d downloadData
		if err := decodeData(env, &d); err != nil {
			return err
		}
		l := ed.ActiveTab()
		if d.Language != "" {
			var err error
			if l, err = parseLanguage(d.Language); err != nil {
				return err
			}
		}
		ed.Download(l)
		return nil

	case ActionDownloadAll:
		ed.DownloadAll()
		return nil

	case "":
		return protocolErrorf("action is required")
	}

	return protocolErrorf("unknown action %q", env.Action)
}

// decodeData unmarshals the envelope payload. A missing payload decodes as
// the zero value.
func decodeData(env Envelope, v interface{}) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return protocolErrorf("%s: invalid data: %v", env.Action, err)
	}
	return nil
}

func parseLanguage(s string) (tinkerpad.Language, error) {
	l, err := tinkerpad.ParseLanguage(s)
	if err != nil {
		return "", protocolErrorf("unknown language %q", s)
	}
	return l, nil
}
