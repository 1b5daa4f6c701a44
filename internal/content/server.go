package content

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/volunteerdesk/internal/auth"
	"github.com/kazz187/volunteerdesk/pkg/cerr"
)

type Server struct {
	repo Repository
}

func NewServer(repo Repository) *Server {
	return &Server{repo: repo}
}

func (s *Server) Mount(r chi.Router) {
	r.Post("/content", s.CreateContent)
	r.Get("/content/{id}", s.GetContent)
}

type createContentRequest struct {
	Title string `json:"title"`
	Kind  string `json:"kind"`
}

func (s *Server) CreateContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := auth.CallerFromContext(ctx)
	if !ok {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "caller identity is required", nil)
		return
	}
	var req createContentRequest
	if err := cerr.DecodeJSONRequest(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if req.Title == "" {
		cerr.SetJSONError(ctx, cerr.NewError(cerr.InvalidArgument, "invalid content", nil).
			AddDetailMessageWithCode("title is required", "title.required"))
		return
	}
	rec, err := NewRecord(ctx, s.repo, req.Title, req.Kind, caller.UserID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"content": rec})
}

func (s *Server) GetContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := s.repo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"content": rec})
}
