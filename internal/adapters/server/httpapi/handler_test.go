package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/evanschultz/taskboard/internal/adapters/server/common"
)

// stubBoard provides deterministic board responses for handler tests.
type stubBoard struct {
	tasks    []common.Task
	task     common.Task
	stats    common.Statistics
	clients  []common.Client
	events   []common.ChangeEvent
	err      error
	lastList common.ListTasksRequest
	lastID   string
	lastReq  common.TaskRequest
	lastStat string
	lastLim  int
	deleted  []string
}

func (s *stubBoard) ListTasks(_ context.Context, req common.ListTasksRequest) ([]common.Task, error) {
	s.lastList = req
	if s.err != nil {
		return nil, s.err
	}
	return append([]common.Task(nil), s.tasks...), nil
}

func (s *stubBoard) GetTask(_ context.Context, id string) (common.Task, error) {
	s.lastID = id
	if s.err != nil {
		return common.Task{}, s.err
	}
	return s.task, nil
}

func (s *stubBoard) CreateTask(_ context.Context, req common.TaskRequest) (common.Task, error) {
	s.lastReq = req
	if s.err != nil {
		return common.Task{}, s.err
	}
	return s.task, nil
}

func (s *stubBoard) UpdateTask(_ context.Context, id string, req common.TaskRequest) (common.Task, error) {
	s.lastID = id
	s.lastReq = req
	if s.err != nil {
		return common.Task{}, s.err
	}
	return s.task, nil
}

func (s *stubBoard) SetTaskStatus(_ context.Context, id, status string) (common.Task, error) {
	s.lastID = id
	s.lastStat = status
	if s.err != nil {
		return common.Task{}, s.err
	}
	return s.task, nil
}

func (s *stubBoard) DeleteTask(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return s.err
}

func (s *stubBoard) Statistics(context.Context) (common.Statistics, error) {
	if s.err != nil {
		return common.Statistics{}, s.err
	}
	return s.stats, nil
}

func (s *stubBoard) ListClients(context.Context) ([]common.Client, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]common.Client(nil), s.clients...), nil
}

func (s *stubBoard) ListActivity(_ context.Context, limit int) ([]common.ChangeEvent, error) {
	s.lastLim = limit
	if s.err != nil {
		return nil, s.err
	}
	return append([]common.ChangeEvent(nil), s.events...), nil
}

// serve runs one request through the handler.
func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decodeBody decodes one JSON response body into the requested type.
func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return out
}

// TestHandlerListTasksPassesFilter verifies query parameters reach the board filter.
func TestHandlerListTasksPassesFilter(t *testing.T) {
	board := &stubBoard{tasks: []common.Task{{ID: "t1", Title: "Fix login"}}}
	handler := NewHandler(board)

	rec := serve(handler, http.MethodGet, "/tasks?q=login&status=todo&priority=high", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	got := decodeBody[struct {
		Tasks []common.Task `json:"tasks"`
	}](t, rec)
	if len(got.Tasks) != 1 || got.Tasks[0].ID != "t1" {
		t.Fatalf("tasks = %#v, want [t1]", got.Tasks)
	}
	want := common.ListTasksRequest{Query: "login", Status: "todo", Priority: "high"}
	if board.lastList != want {
		t.Fatalf("filter = %#v, want %#v", board.lastList, want)
	}
}

// TestHandlerCreateTask verifies POST /tasks decodes the body and returns 201.
func TestHandlerCreateTask(t *testing.T) {
	board := &stubBoard{task: common.Task{ID: "t9", Title: "New", CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}}
	handler := NewHandler(board)

	rec := serve(handler, http.MethodPost, "/tasks", `{"title":"New","client_id":"c1","tags":["a","a"],"estimated_hours":2.5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	got := decodeBody[common.Task](t, rec)
	if got.ID != "t9" {
		t.Fatalf("id = %q, want t9", got.ID)
	}
	if board.lastReq.Title != "New" || board.lastReq.ClientID != "c1" {
		t.Fatalf("request = %#v, want title New and client c1", board.lastReq)
	}
	if len(board.lastReq.Tags) != 2 {
		t.Fatalf("tags = %#v, want duplicates preserved", board.lastReq.Tags)
	}
	if board.lastReq.EstimatedHours == nil || *board.lastReq.EstimatedHours != 2.5 {
		t.Fatalf("estimated_hours = %v, want 2.5", board.lastReq.EstimatedHours)
	}
}

// TestHandlerTaskItemRoutes verifies GET, PUT, DELETE and status routes on one task.
func TestHandlerTaskItemRoutes(t *testing.T) {
	board := &stubBoard{task: common.Task{ID: "t1", Status: "done"}}
	handler := NewHandler(board)

	rec := serve(handler, http.MethodGet, "/tasks/t1", "")
	if rec.Code != http.StatusOK || board.lastID != "t1" {
		t.Fatalf("GET status = %d id = %q, want 200 t1", rec.Code, board.lastID)
	}

	rec = serve(handler, http.MethodPut, "/tasks/t1/", `{"title":"Renamed","client_id":"c1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", rec.Code, http.StatusOK)
	}
	if board.lastReq.Title != "Renamed" {
		t.Fatalf("PUT title = %q, want Renamed", board.lastReq.Title)
	}

	rec = serve(handler, http.MethodPost, "/tasks/t1/status", `{"status":"done"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status route code = %d, want %d", rec.Code, http.StatusOK)
	}
	if board.lastStat != "done" {
		t.Fatalf("status = %q, want done", board.lastStat)
	}

	rec = serve(handler, http.MethodDelete, "/tasks/t1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(board.deleted) != 1 || board.deleted[0] != "t1" {
		t.Fatalf("deleted = %#v, want [t1]", board.deleted)
	}
}

// TestHandlerReadEndpoints verifies stats, clients and activity listings.
func TestHandlerReadEndpoints(t *testing.T) {
	board := &stubBoard{
		stats:   common.Statistics{Todo: 1, Done: 1, Total: 2, CompletionRate: 50},
		clients: []common.Client{{ID: "c1", Name: "Acme"}},
		events:  []common.ChangeEvent{{ID: 2, TaskID: "t1", Operation: "status"}},
	}
	handler := NewHandler(board)

	rec := serve(handler, http.MethodGet, "/stats", "")
	stats := decodeBody[common.Statistics](t, rec)
	if stats.CompletionRate != 50 || stats.Total != 2 {
		t.Fatalf("stats = %#v, want total 2 rate 50", stats)
	}

	rec = serve(handler, http.MethodGet, "/clients", "")
	clients := decodeBody[struct {
		Clients []common.Client `json:"clients"`
	}](t, rec)
	if len(clients.Clients) != 1 || clients.Clients[0].Name != "Acme" {
		t.Fatalf("clients = %#v, want [Acme]", clients.Clients)
	}

	rec = serve(handler, http.MethodGet, "/activity", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("activity status = %d, want %d", rec.Code, http.StatusOK)
	}
	if board.lastLim != defaultActivityLimit {
		t.Fatalf("limit = %d, want %d", board.lastLim, defaultActivityLimit)
	}
	rec = serve(handler, http.MethodGet, "/activity?limit=5", "")
	events := decodeBody[struct {
		Events []common.ChangeEvent `json:"events"`
	}](t, rec)
	if board.lastLim != 5 || len(events.Events) != 1 {
		t.Fatalf("limit = %d events = %d, want 5 and 1", board.lastLim, len(events.Events))
	}

	rec = serve(handler, http.MethodGet, "/activity?limit=zero", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// TestHandlerErrorMapping verifies structured status mapping for board errors.
func TestHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "not found", err: common.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "validation", err: errors.Join(common.ErrValidation, errors.New("title")), wantStatus: http.StatusUnprocessableEntity, wantCode: "validation_failed"},
		{name: "invalid request", err: common.ErrInvalidRequest, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "internal", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "internal_error"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(&stubBoard{err: tt.err})
			rec := serve(handler, http.MethodGet, "/tasks/t1", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			envelope := decodeBody[ErrorEnvelope](t, rec)
			if envelope.Error.Code != tt.wantCode {
				t.Fatalf("error.code = %q, want %q", envelope.Error.Code, tt.wantCode)
			}
		})
	}
}

// TestHandlerRouteGuards verifies method guards and unknown-route handling.
func TestHandlerRouteGuards(t *testing.T) {
	handler := NewHandler(&stubBoard{})

	cases := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantCode   string
		wantAllow  string
	}{
		{
			name:       "tasks only allows get and post",
			method:     http.MethodDelete,
			path:       "/tasks",
			wantStatus: http.StatusMethodNotAllowed,
			wantCode:   "method_not_allowed",
			wantAllow:  "GET, POST",
		},
		{
			name:       "task item rejects post",
			method:     http.MethodPost,
			path:       "/tasks/t1",
			wantStatus: http.StatusMethodNotAllowed,
			wantCode:   "method_not_allowed",
			wantAllow:  "GET, PUT, DELETE",
		},
		{
			name:       "status requires post",
			method:     http.MethodGet,
			path:       "/tasks/t1/status",
			wantStatus: http.StatusMethodNotAllowed,
			wantCode:   "method_not_allowed",
			wantAllow:  http.MethodPost,
		},
		{
			name:       "stats requires get",
			method:     http.MethodPost,
			path:       "/stats",
			wantStatus: http.StatusMethodNotAllowed,
			wantCode:   "method_not_allowed",
			wantAllow:  http.MethodGet,
		},
		{
			name:       "unknown route returns not found",
			method:     http.MethodGet,
			path:       "/not/a/route",
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "nested task action returns not found",
			method:     http.MethodGet,
			path:       "/tasks/t1/comments",
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(handler, tt.method, tt.path, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			envelope := decodeBody[ErrorEnvelope](t, rec)
			if envelope.Error.Code != tt.wantCode {
				t.Fatalf("error.code = %q, want %q", envelope.Error.Code, tt.wantCode)
			}
			if got := rec.Header().Get("Allow"); got != tt.wantAllow {
				t.Fatalf("Allow header = %q, want %q", got, tt.wantAllow)
			}
		})
	}
}

// TestHandlerServiceUnavailable verifies a nil board maps to 503.
func TestHandlerServiceUnavailable(t *testing.T) {
	rec := serve(NewHandler(nil), http.MethodGet, "/tasks", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

// TestDecodeJSONBodyBranches verifies strict decode failures.
func TestDecodeJSONBodyBranches(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "unknown field", body: `{"title":"x","client_id":"c1","owner":"z"}`},
		{name: "trailing payload", body: `{"title":"x","client_id":"c1"}{"next":true}`},
		{name: "malformed", body: `{"title":`},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(tt.body))
			var payload common.TaskRequest
			err := decodeJSONBody(context.Background(), w, req, &payload)
			if !errors.Is(err, common.ErrInvalidRequest) {
				t.Fatalf("decodeJSONBody() error = %v, want ErrInvalidRequest", err)
			}
		})
	}

	t.Run("canceled context returns context canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{"title":"x","client_id":"c1"}`)).WithContext(ctx)
		var payload common.TaskRequest
		err := decodeJSONBody(req.Context(), w, req, &payload)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("decodeJSONBody() error = %v, want context.Canceled", err)
		}
	})
}

// TestResolveTaskPath verifies task path parsing.
func TestResolveTaskPath(t *testing.T) {
	cases := []struct {
		path       string
		wantID     string
		wantAction string
		wantOK     bool
	}{
		{path: "tasks/t1", wantID: "t1", wantOK: true},
		{path: "tasks/t1/status", wantID: "t1", wantAction: "status", wantOK: true},
		{path: "tasks/", wantOK: false},
		{path: "tasks/t1/other", wantOK: false},
		{path: "clients/c1", wantOK: false},
	}
	for _, tt := range cases {
		id, action, ok := resolveTaskPath(tt.path)
		if id != tt.wantID || action != tt.wantAction || ok != tt.wantOK {
			t.Fatalf("resolveTaskPath(%q) = (%q, %q, %t), want (%q, %q, %t)", tt.path, id, action, ok, tt.wantID, tt.wantAction, tt.wantOK)
		}
	}
}

// TestNormalizePath verifies path canonicalization.
func TestNormalizePath(t *testing.T) {
	if got := normalizePath("  /tasks/t1/ "); got != "tasks/t1" {
		t.Fatalf("normalizePath() = %q, want tasks/t1", got)
	}
}
