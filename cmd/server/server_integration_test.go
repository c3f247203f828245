package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot/internal/config"
	"taskpilot/internal/engine"
	"taskpilot/internal/model"
)

// fakeCompletionServer speaks the completion engine's wire protocol and
// answers every prompt with the given text.
func fakeCompletionServer(t *testing.T, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Prompt)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]string{{"generated_text": text}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestServer_ExtractEndToEnd(t *testing.T) {
	engineSrv := fakeCompletionServer(t,
		`Here you go: [{"action":"create","task":"Buy milk","dueDate":"2026-01-10","dueTime":"09:00","folder":"Shopping"}]`)

	dbPath := filepath.Join(t.TempDir(), "taskpilot.db")
	cfg := config.Default()
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = dbPath
	cfg.Engine.URL = engineSrv.URL
	cfg.Defaults.Notifications = false
	require.NoError(t, cfg.Validate())

	logger := log.New(io.Discard, "", 0)

	users, err := buildStores(cfg)
	require.NoError(t, err)
	eng := engine.NewClient(cfg.Engine.URL, cfg.Engine.Timeout())

	api := httptest.NewServer(buildHandler(cfg, users, eng, logger))
	defer api.Close()

	body := bytes.NewBufferString(`{"input":"remind me to buy milk on january 10th at 9am"}`)
	resp, err := http.Post(api.URL+"/api/extract", "application/json", body)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, err = http.Get(api.URL + "/api/tasks")
	require.NoError(t, err)
	var tasks []model.Task
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tasks))
	resp.Body.Close()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Text)
	assert.Equal(t, "Shopping", tasks[0].Folder)
	assert.Equal(t, "2026-01-10", *tasks[0].DueDate)
	assert.Equal(t, "09:00", *tasks[0].DueTime)
}

func TestServer_ConfigDefaultsReachSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Defaults.Timing = string(model.PolicySmart)
	cfg.Defaults.Notifications = false

	users, err := buildStores(cfg)
	require.NoError(t, err)

	eng := engine.NewClient("http://127.0.0.1:1", cfg.Engine.Timeout())
	api := httptest.NewServer(buildHandler(cfg, users, eng, log.New(io.Discard, "", 0)))
	defer api.Close()

	resp, err := http.Get(api.URL + "/api/settings")
	require.NoError(t, err)
	var settings model.Settings
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&settings))
	resp.Body.Close()
	assert.Equal(t, model.PolicySmart, settings.DefaultTiming)
	assert.False(t, settings.NotificationsEnabled)
}

func TestServer_EngineDownSurfacesBadGateway(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.URL = "http://127.0.0.1:1"

	users, err := buildStores(cfg)
	require.NoError(t, err)

	eng := engine.NewClient(cfg.Engine.URL, cfg.Engine.Timeout())
	api := httptest.NewServer(buildHandler(cfg, users, eng, log.New(io.Discard, "", 0)))
	defer api.Close()

	body := bytes.NewBufferString(`{"input":"buy milk"}`)
	resp, err := http.Post(api.URL+"/api/extract", "application/json", body)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, string(raw), "engine_unavailable")
}
