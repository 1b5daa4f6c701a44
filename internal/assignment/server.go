package assignment

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/volunteerdesk/internal/auth"
	"github.com/kazz187/volunteerdesk/internal/content"
	"github.com/kazz187/volunteerdesk/internal/volunteer"
	"github.com/kazz187/volunteerdesk/pkg/cerr"
)

const defaultRecommendations = 5

type Server struct {
	engine *Engine
}

func NewServer(engine *Engine) *Server {
	return &Server{engine: engine}
}

func (s *Server) Mount(r chi.Router) {
	r.Post("/content/{id}/task/auto-assign", s.AutoAssignTask)
	r.Get("/recommendations", s.Recommend)
	r.Get("/assignment/config", s.GetConfig)
	r.Put("/assignment/config", s.UpdateConfig)
}

func (s *Server) AutoAssignTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req AutoAssignRequest
	if err := cerr.DecodeJSONRequest(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if !req.DryRun {
		if err := requireElevated(r); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
	}
	req.ContentID = chi.URLParam(r, "id")
	result, err := s.engine.AutoAssignTask(ctx, req)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, result)
}

// Recommend takes category, priority (default medium), skills (comma
// separated) and max (default 5).
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	priority := content.Priority(q.Get("priority"))
	if priority == "" {
		priority = content.PriorityMedium
	}
	maxCandidates := defaultRecommendations
	if raw := q.Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "max must be a positive integer", err)
			return
		}
		maxCandidates = n
	}
	var extra []string
	if raw := q.Get("skills"); raw != "" {
		extra = strings.Split(raw, ",")
	}
	candidates, err := s.engine.FindBestVolunteersForTask(ctx, content.Category(q.Get("category")), priority, extra, maxCandidates)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"candidates": candidates})
}

func (s *Server) GetConfig(w http.ResponseWriter, r *http.Request) {
	cerr.SetJSONResponse(r.Context(), map[string]any{"config": s.engine.Config()})
}

func (s *Server) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := requireElevated(r); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	var u ConfigUpdate
	if err := cerr.DecodeJSONRequest(r, &u); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cfg, err := s.engine.UpdateConfig(u)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"config": cfg})
}

func requireElevated(r *http.Request) error {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		return cerr.NewError(cerr.Unauthenticated, "caller identity is required", nil)
	}
	if role := volunteer.Role(caller.Role); !role.Elevated() && role != volunteer.RoleEditor {
		return cerr.NewError(cerr.PermissionDenied, "editor role or higher is required", nil)
	}
	return nil
}
