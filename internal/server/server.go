// Package server wires the HTTP API: natural-language extraction plus
// plain CRUD for tasks, folders and settings.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"taskpilot/internal/apply"
	"taskpilot/internal/classify"
	"taskpilot/internal/clock"
	"taskpilot/internal/defaults"
	"taskpilot/internal/extract"
	"taskpilot/internal/httpmw"
	"taskpilot/internal/model"
	"taskpilot/internal/store"
	"taskpilot/internal/telemetry"
)

// UserStores hands out a per-user view of the backing store.
type UserStores interface {
	ForUser(userID string) store.Store
}

// App holds everything the handlers depend on.
type App struct {
	Users      UserStores
	Pipeline   *extract.Pipeline
	Classifier *classify.Classifier
	Selector   *defaults.Selector
	Scheduler  apply.Notifier
	Events     telemetry.Repository
	Clock      clock.Clock
	Logger     *log.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func (a *App) record(et telemetry.EventType, md telemetry.EventMetadata) {
	if a.Events == nil {
		return
	}
	_ = a.Events.RecordEvent(et, md)
}

func (a *App) applierFor(uid string) (*apply.Applier, store.Store) {
	st := a.Users.ForUser(uid)
	return apply.New(st, a.Scheduler, a.Selector, a.Clock), st
}

// beginExtract marks uid as having an extraction in flight. It reports
// false if one is already running; extraction is serialized per user so
// two engine calls never race on the same task list.
func (a *App) beginExtract(uid string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inFlight == nil {
		a.inFlight = make(map[string]struct{})
	}
	if _, busy := a.inFlight[uid]; busy {
		return false
	}
	a.inFlight[uid] = struct{}{}
	return true
}

func (a *App) endExtract(uid string) {
	a.mu.Lock()
	delete(a.inFlight, uid)
	a.mu.Unlock()
}

type extractRequest struct {
	Input string `json:"input"`
}

type extractResponse struct {
	Operation classify.Operation `json:"operation"`
	Results   []apply.Result     `json:"results"`
}

func RegisterAPIRoutes(mux *http.ServeMux, rr *RouteRegistry, a *App) {
	Handle(mux, rr, "GET /api/health", "Service health", "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "taskpilot",
			"time":    a.Clock.Now().UTC().Format(time.RFC3339),
		})
	})

	Handle(mux, rr, "GET /api/routes", "List registered routes", "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rr.List())
	})

	Handle(mux, rr, "GET /api/stats", "Extraction and action stats for the last 7 days", "", func(w http.ResponseWriter, r *http.Request) {
		if a.Events == nil {
			writeJSON(w, http.StatusOK, telemetry.Stats{})
			return
		}
		since := a.Clock.Now().AddDate(0, 0, -7)
		events, err := a.Events.GetEvents(since, nil)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		stats, err := telemetry.CalculateStats(events, since)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, stats)
	})

	Handle(mux, rr, "POST /api/extract", "Turn a natural-language request into task actions", `{"input":"remind me to buy milk tomorrow"}`, a.handleExtract)

	Handle(mux, rr, "GET /api/tasks", "List tasks, newest first", "", func(w http.ResponseWriter, r *http.Request) {
		st := a.Users.ForUser(httpmw.UserFromContext(r.Context()))
		tasks, err := st.ListTasks(r.Context())
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		if tasks == nil {
			tasks = []model.Task{}
		}
		writeJSON(w, http.StatusOK, tasks)
	})

	Handle(mux, rr, "POST /api/tasks", "Create a task", `{"text":"buy milk","folder":"Shopping","dueDate":"2026-01-10","dueTime":"09:00"}`, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text    string  `json:"text"`
			Folder  string  `json:"folder"`
			DueDate *string `json:"dueDate"`
			DueTime *string `json:"dueTime"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeErr(w, http.StatusBadRequest, "bad_request", "invalid json body")
			return
		}
		if body.Text == "" {
			writeErr(w, http.StatusBadRequest, "bad_request", "text is required")
			return
		}
		if body.DueDate != nil && !model.ValidDate(*body.DueDate) {
			writeErr(w, http.StatusBadRequest, "bad_request", "dueDate must be YYYY-MM-DD")
			return
		}
		if body.DueTime != nil && !model.ValidTime(*body.DueTime) {
			writeErr(w, http.StatusBadRequest, "bad_request", "dueTime must be HH:MM")
			return
		}

		applier, _ := a.applierFor(httpmw.UserFromContext(r.Context()))
		action := model.Action{
			Type:    model.ActionCreate,
			Task:    body.Text,
			Folder:  body.Folder,
			DueDate: body.DueDate,
			DueTime: body.DueTime,
		}
		results := applier.Apply(r.Context(), []model.Action{action})
		res := results[0]
		if !res.OK() {
			a.writeActionErr(w, res.Err)
			return
		}
		writeJSON(w, http.StatusCreated, res.Task)
	})

	Handle(mux, rr, "GET /api/tasks/{id}", "Fetch one task", "", func(w http.ResponseWriter, r *http.Request) {
		st := a.Users.ForUser(httpmw.UserFromContext(r.Context()))
		task, err := st.GetTask(r.Context(), model.TaskID(r.PathValue("id")))
		if err != nil {
			a.writeActionErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	})

	Handle(mux, rr, "PATCH /api/tasks/{id}", "Update task fields", `{"dueDate":"2026-01-12","dueTime":""}`, func(w http.ResponseWriter, r *http.Request) {
		var changes model.TaskChanges
		if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
			writeErr(w, http.StatusBadRequest, "bad_request", "invalid json body")
			return
		}
		if changes.DueDate != nil && *changes.DueDate != "" && !model.ValidDate(*changes.DueDate) {
			writeErr(w, http.StatusBadRequest, "bad_request", "dueDate must be YYYY-MM-DD")
			return
		}
		if changes.DueTime != nil && *changes.DueTime != "" && !model.ValidTime(*changes.DueTime) {
			writeErr(w, http.StatusBadRequest, "bad_request", "dueTime must be HH:MM")
			return
		}

		applier, _ := a.applierFor(httpmw.UserFromContext(r.Context()))
		results := applier.Apply(r.Context(), []model.Action{{
			Type:    model.ActionModify,
			TaskID:  r.PathValue("id"),
			Changes: &changes,
		}})
		res := results[0]
		if !res.OK() {
			a.writeActionErr(w, res.Err)
			return
		}
		writeJSON(w, http.StatusOK, res.Task)
	})

	Handle(mux, rr, "DELETE /api/tasks/{id}", "Delete a task", "", func(w http.ResponseWriter, r *http.Request) {
		applier, _ := a.applierFor(httpmw.UserFromContext(r.Context()))
		results := applier.Apply(r.Context(), []model.Action{{
			Type:   model.ActionDelete,
			TaskID: r.PathValue("id"),
		}})
		if res := results[0]; !res.OK() {
			a.writeActionErr(w, res.Err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	Handle(mux, rr, "GET /api/folders", "List folders", "", func(w http.ResponseWriter, r *http.Request) {
		st := a.Users.ForUser(httpmw.UserFromContext(r.Context()))
		folders, err := st.ListFolders(r.Context())
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, folders)
	})

	Handle(mux, rr, "POST /api/folders", "Create a folder", `{"name":"Fitness"}`, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeErr(w, http.StatusBadRequest, "bad_request", "invalid json body")
			return
		}
		if body.Name == "" {
			writeErr(w, http.StatusBadRequest, "bad_request", "name is required")
			return
		}

		applier, _ := a.applierFor(httpmw.UserFromContext(r.Context()))
		results := applier.Apply(r.Context(), []model.Action{{
			Type:       model.ActionCreateFolder,
			FolderName: body.Name,
		}})
		res := results[0]
		if !res.OK() {
			a.writeActionErr(w, res.Err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"name": res.Folder})
	})

	Handle(mux, rr, "DELETE /api/folders/{name}", "Delete a folder, moving its tasks to Personal", "", func(w http.ResponseWriter, r *http.Request) {
		applier, _ := a.applierFor(httpmw.UserFromContext(r.Context()))
		results := applier.Apply(r.Context(), []model.Action{{
			Type:       model.ActionDeleteFolder,
			FolderName: r.PathValue("name"),
		}})
		if res := results[0]; !res.OK() {
			a.writeActionErr(w, res.Err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	Handle(mux, rr, "GET /api/settings", "Current user settings", "", func(w http.ResponseWriter, r *http.Request) {
		st := a.Users.ForUser(httpmw.UserFromContext(r.Context()))
		settings, err := st.Settings(r.Context())
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, settings)
	})

	Handle(mux, rr, "PUT /api/settings", "Replace user settings", `{"defaultTiming":"smart","notificationsEnabled":true}`, func(w http.ResponseWriter, r *http.Request) {
		var settings model.Settings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			writeErr(w, http.StatusBadRequest, "bad_request", "invalid json body")
			return
		}
		switch settings.DefaultTiming {
		case model.PolicyManual, model.PolicyEndOfToday, model.PolicyTomorrowMorning,
			model.PolicyNextBusinessDay, model.PolicySmart:
		default:
			writeErr(w, http.StatusBadRequest, "bad_request", "unknown defaultTiming")
			return
		}

		st := a.Users.ForUser(httpmw.UserFromContext(r.Context()))
		if err := st.SaveSettings(r.Context(), settings); err != nil {
			writeErr(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, settings)
	})
}

func (a *App) handleExtract(w http.ResponseWriter, r *http.Request) {
	uid := httpmw.UserFromContext(r.Context())

	var body extractRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}

	if !a.beginExtract(uid) {
		writeErr(w, http.StatusConflict, "extraction_in_progress", "another extraction is already running for this user")
		return
	}
	defer a.endExtract(uid)

	applier, st := a.applierFor(uid)

	tasks, err := st.ListTasks(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	folders, err := st.ListFolders(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	folderNames := make([]string, 0, len(folders))
	for _, f := range folders {
		folderNames = append(folderNames, f.Name)
	}

	op := a.Classifier.Classify(body.Input)
	relevant := a.Classifier.FilterContext(op, tasks, body.Input)

	a.record(telemetry.EventExtractionStarted, telemetry.EventMetadata{
		"user": uid, "operation": string(op),
	})

	started := time.Now()
	actions, err := a.Pipeline.Extract(r.Context(), body.Input, relevant, folderNames)
	if err != nil {
		a.record(telemetry.EventExtractionFailed, telemetry.EventMetadata{
			"user": uid, "error": extractErrKind(err),
		})
		a.writeExtractErr(w, err)
		return
	}

	results := applier.Apply(r.Context(), actions)
	for _, res := range results {
		if res.OK() {
			a.record(telemetry.EventActionApplied, telemetry.EventMetadata{
				"user": uid, "action": string(res.Action.Type),
			})
		} else {
			a.record(telemetry.EventActionFailed, telemetry.EventMetadata{
				"user": uid, "action": string(res.Action.Type), "error": res.Error,
			})
		}
	}
	a.record(telemetry.EventExtractionSucceeded, telemetry.EventMetadata{
		"user": uid, "actions": len(actions),
		"duration_ms": float64(time.Since(started).Milliseconds()),
	})

	httpmw.Log(a.Logger, "info", "extraction_applied", map[string]any{
		"request_id":  httpmw.RequestIDFromContext(r.Context()),
		"user":        uid,
		"operation":   string(op),
		"actions":     len(actions),
		"duration_ms": time.Since(started).Milliseconds(),
	})

	writeJSON(w, http.StatusOK, extractResponse{Operation: op, Results: results})
}

func extractErrInfo(err error) (status int, kind, msg string) {
	switch {
	case errors.Is(err, extract.ErrEmptyInput):
		return http.StatusBadRequest, "empty_input", "input must not be empty"
	case errors.Is(err, extract.ErrExtractionTimeout):
		return http.StatusGatewayTimeout, "extraction_timeout", "the completion engine did not answer in time"
	case errors.Is(err, extract.ErrEngineUnavailable):
		return http.StatusBadGateway, "engine_unavailable", "the completion engine could not be reached"
	case errors.Is(err, extract.ErrMalformedResponse):
		return http.StatusBadGateway, "malformed_response", "the completion engine returned an unusable response"
	case errors.Is(err, extract.ErrNoActions):
		return http.StatusUnprocessableEntity, "no_actions", "no actionable tasks found in the input"
	default:
		return http.StatusInternalServerError, "internal", err.Error()
	}
}

func extractErrKind(err error) string {
	_, kind, _ := extractErrInfo(err)
	return kind
}

func (a *App) writeExtractErr(w http.ResponseWriter, err error) {
	status, kind, msg := extractErrInfo(err)
	writeErr(w, status, kind, msg)
}

func (a *App) writeActionErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apply.ErrTaskNotFound), errors.Is(err, store.ErrTaskNotFound):
		writeErr(w, http.StatusNotFound, "task_not_found", err.Error())
	case errors.Is(err, store.ErrFolderNotFound):
		writeErr(w, http.StatusNotFound, "folder_not_found", err.Error())
	case errors.Is(err, apply.ErrDuplicateFolder):
		writeErr(w, http.StatusConflict, "duplicate_folder", err.Error())
	case errors.Is(err, apply.ErrProtectedFolder):
		writeErr(w, http.StatusForbidden, "protected_folder", err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
