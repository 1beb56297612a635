package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetemplate/tinkerpad"
	"github.com/livetemplate/tinkerpad/internal/config"
)

func apiRequest(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPIValidate(t *testing.T) {
	h := NewAPIHandler()

	t.Run("clean snippets", func(t *testing.T) {
		rec := apiRequest(t, h, "/api/validate", `{"html":"<p>hi</p>","css":"p{}","js":"1"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ValidateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.OK)
		assert.Empty(t, resp.Message)
		assert.NotNil(t, resp.Problems)
		assert.Contains(t, rec.Body.String(), `"problems":[]`)
	})

	t.Run("problems reported", func(t *testing.T) {
		rec := apiRequest(t, h, "/api/validate", `{"html":"hello","css":"","js":"function("}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ValidateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.OK)
		assert.Equal(t, "markup appears invalid, script contains a syntax error", resp.Message)
		require.Len(t, resp.Problems, 2)
		assert.Equal(t, tinkerpad.HTML, resp.Problems[0].Language)
		assert.Equal(t, tinkerpad.JavaScript, resp.Problems[1].Language)
	})
}

func TestAPIAssemble(t *testing.T) {
	rec := apiRequest(t, NewAPIHandler(), "/api/assemble", `{"html":"<b>x</b>","css":"b{}","js":"go()"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AssembleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, tinkerpad.Assemble("<b>x</b>", "b{}", "go()"), resp.Document)
}

func TestAPIFileName(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantName   string
	}{
		{"css without extension", `{"language":"css","name":"main"}`, http.StatusOK, "main.css"},
		{"js with other extension", `{"language":"js","name":"app.ts"}`, http.StatusOK, "app.js"},
		{"long language name", `{"language":"javascript","name":"app.js"}`, http.StatusOK, "app.js"},
		{"html not editable", `{"language":"html","name":"x"}`, http.StatusBadRequest, ""},
		{"unknown language", `{"language":"go","name":"x"}`, http.StatusBadRequest, ""},
	}

	h := NewAPIHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := apiRequest(t, h, "/api/filename", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus != http.StatusOK {
				var errResp map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
				assert.NotEmpty(t, errResp["error"])
				return
			}
			var resp FileNameResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantName, resp.Name)
		})
	}
}

func TestAPIBadBodies(t *testing.T) {
	h := NewAPIHandler()

	rec := apiRequest(t, h, "/api/validate", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON")

	big := `{"html":"` + strings.Repeat("a", maxRequestBodySize+1) + `"}`
	rec = apiRequest(t, h, "/api/assemble", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAPIMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/validate", nil)
	rec := httptest.NewRecorder()
	NewAPIHandler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAPIThroughServer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.API = &config.APIConfig{
		Enabled: true,
		CORS:    &config.CORSConfig{Origins: []string{"http://localhost:3000"}},
	}
	_, ts := newTestServer(t, cfg)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/validate", strings.NewReader(`{"html":"<p></p>"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:3000")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	var body ValidateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.OK)
}
