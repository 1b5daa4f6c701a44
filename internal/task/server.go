package task

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/volunteerdesk/internal/auth"
	"github.com/kazz187/volunteerdesk/internal/content"
	"github.com/kazz187/volunteerdesk/internal/volunteer"
	"github.com/kazz187/volunteerdesk/pkg/cerr"
)

const streamKeepAlive = 30 * time.Second

type Server struct {
	manager *Manager
}

func NewServer(manager *Manager) *Server {
	return &Server{manager: manager}
}

func (s *Server) Mount(r chi.Router) {
	r.Post("/content/{id}/task", s.CreateTask)
	r.Post("/content/{id}/task/assign", s.AssignTask)
	r.Post("/content/{id}/task/status", s.UpdateTaskStatus)
	r.Get("/tasks", s.ListTasks)
	r.Get("/tasks/stats", s.GetTaskStatistics)
	r.Get("/volunteers/{id}/tasks", s.ListUserTasks)
	r.Get("/volunteers/{id}/tasks/stream", s.StreamUserTasks)
}

func (s *Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateTaskRequest
	if err := cerr.DecodeJSONRequest(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	req.ContentID = chi.URLParam(r, "id")
	rec, err := s.manager.CreateTask(ctx, req)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"content": rec})
}

type assignTaskRequest struct {
	UserID string           `json:"user_id"`
	Method AssignmentMethod `json:"method"`
}

// AssignTask lets a volunteer claim a task for themselves; assigning someone
// else requires an elevated role.
func (s *Server) AssignTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := auth.CallerFromContext(ctx)
	if !ok {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "caller identity is required", nil)
		return
	}
	var req assignTaskRequest
	if err := cerr.DecodeJSONRequest(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if req.UserID == "" {
		req.UserID = caller.UserID
	}
	if req.Method == "" {
		req.Method = MethodManual
		if req.UserID == caller.UserID {
			req.Method = MethodSelfClaimed
		}
	}
	if req.UserID != caller.UserID && !volunteer.Role(caller.Role).Elevated() {
		cerr.SetNewJSONError(ctx, cerr.PermissionDenied, "only moderators may assign tasks to other volunteers", nil)
		return
	}
	rec, err := s.manager.AssignTask(ctx, chi.URLParam(r, "id"), req.UserID, req.Method)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"content": rec})
}

type updateTaskStatusRequest struct {
	Status       content.Status `json:"status"`
	ActingUserID string         `json:"acting_user_id,omitempty"`
}

func (s *Server) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req updateTaskStatusRequest
	if err := cerr.DecodeJSONRequest(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	// Acting on behalf of someone else is reserved to elevated callers.
	if req.ActingUserID != "" {
		caller, ok := auth.CallerFromContext(ctx)
		if !ok || (caller.UserID != req.ActingUserID && !volunteer.Role(caller.Role).Elevated()) {
			cerr.SetNewJSONError(ctx, cerr.PermissionDenied, "cannot act on behalf of another user", nil)
			return
		}
	}
	rec, err := s.manager.UpdateTaskStatus(ctx, chi.URLParam(r, "id"), req.Status, req.ActingUserID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"content": rec})
}

func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "limit must be a non-negative integer", err)
			return
		}
		limit = n
	}
	tasks, err := s.manager.GetTasksByStatus(ctx, content.Status(r.URL.Query().Get("status")), limit)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"tasks": tasks})
}

func (s *Server) GetTaskStatistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := s.manager.GetTaskStatistics(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, stats)
}

func (s *Server) ListUserTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tasks, err := s.manager.GetUserTasks(ctx, chi.URLParam(r, "id"), content.Status(r.URL.Query().Get("status")))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"tasks": tasks})
}

// StreamUserTasks serves SubscribeToUserTasks as server-sent events. Every
// event carries the full task list.
func (s *Server) StreamUserTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cerr.Detach(ctx)

	status := content.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		cerr.WriteHTTPError(ctx, w, cerr.NewError(cerr.InvalidArgument, "unknown status", nil))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		cerr.WriteHTTPError(ctx, w, cerr.NewError(cerr.Unimplemented, "streaming is not supported", nil))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Only the latest snapshot matters; a slow client skips intermediate ones.
	snapshots := make(chan []*View, 1)
	unsubscribe := s.manager.SubscribeToUserTasks(ctx, chi.URLParam(r, "id"), status, func(tasks []*View) {
		select {
		case <-snapshots:
		default:
		}
		snapshots <- tasks
	})
	defer unsubscribe()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case tasks := <-snapshots:
			data, err := json.Marshal(map[string]any{"tasks": tasks})
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "event: tasks\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
