package workload

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/volunteerdesk/pkg/cerr"
)

type Server struct {
	aggregator *Aggregator
}

func NewServer(aggregator *Aggregator) *Server {
	return &Server{aggregator: aggregator}
}

func (s *Server) Mount(r chi.Router) {
	r.Get("/workloads", s.ListWorkloads)
	r.Get("/workloads/{id}", s.GetWorkload)
}

func (s *Server) ListWorkloads(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workloads, err := s.aggregator.VolunteerWorkloads(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"workloads": workloads})
}

func (s *Server) GetWorkload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workload, err := s.aggregator.VolunteerWorkload(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"workload": workload})
}
