package volunteer

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/volunteerdesk/internal/auth"
	"github.com/kazz187/volunteerdesk/pkg/cerr"
)

type Server struct {
	repo Repository
	now  func() time.Time
}

func NewServer(repo Repository) *Server {
	return &Server{repo: repo, now: time.Now}
}

func (s *Server) Mount(r chi.Router) {
	r.Get("/volunteers", s.ListVolunteers)
	r.Get("/volunteers/{id}", s.GetVolunteer)
	r.Put("/volunteers/{id}", s.PutVolunteer)
	r.Post("/volunteers/{id}/tags", s.AddVolunteerTag)
	r.Delete("/volunteers/{id}/tags/{tag}", s.RemoveVolunteerTag)
}

// ListVolunteers returns every profile. The optional tag and availability
// query parameters (both repeatable) narrow the list to volunteers carrying
// all tags, most available first.
func (s *Server) ListVolunteers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profiles, err := s.repo.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	q := r.URL.Query()
	tags := q["tag"]
	if raw := q["availability"]; len(tags) > 0 || len(raw) > 0 {
		allowed := make([]Availability, 0, len(raw))
		for _, a := range raw {
			allowed = append(allowed, Availability(a))
		}
		if len(allowed) == 0 {
			allowed = []Availability{AvailabilityRegular, AvailabilityOccasional, AvailabilityOnCall}
		}
		profiles = AvailableUsers(profiles, tags, allowed)
	}
	cerr.SetJSONResponse(ctx, map[string]any{"volunteers": profiles})
}

func (s *Server) GetVolunteer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.repo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"volunteer": p, "namespaces": Namespaces(p)})
}

func (s *Server) PutVolunteer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := authorizeProfileChange(r, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	var p Profile
	if err := cerr.DecodeJSONRequest(r, &p); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	p.ID = id
	if err := Validate(&p); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	current := &Profile{Role: RoleMember}
	existing, err := s.repo.Get(ctx, id)
	switch {
	case err == nil:
		p.CreatedAt = existing.CreatedAt
		current = existing
	case !cerr.IsCode(err, cerr.NotFound):
		cerr.SetJSONError(ctx, err)
		return
	}
	// Role and approval are managed by moderators.
	if caller, _ := auth.CallerFromContext(ctx); !Role(caller.Role).Elevated() &&
		(p.Role != current.Role || p.IsApproved != current.IsApproved) {
		cerr.SetNewJSONError(ctx, cerr.PermissionDenied, "only a moderator may change role or approval", nil)
		return
	}
	if err := s.repo.Upsert(ctx, &p); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"volunteer": &p})
}

type addTagRequest struct {
	Tag string `json:"tag"`
}

func (s *Server) AddVolunteerTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := authorizeProfileChange(r, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	var req addTagRequest
	if err := cerr.DecodeJSONRequest(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	tag := strings.TrimSpace(req.Tag)
	if !IsValidTag(tag) {
		cerr.SetJSONError(ctx, cerr.NewError(cerr.InvalidArgument, "invalid tag", nil).
			AddDetailMessageWithCode(fmt.Sprintf("tag %q must match namespace:value", tag), "tag.format"))
		return
	}
	s.updateTags(w, r, id, func(tags []string) []string { return AddTag(tags, tag) })
}

func (s *Server) RemoveVolunteerTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := authorizeProfileChange(r, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	tag := chi.URLParam(r, "tag")
	s.updateTags(w, r, id, func(tags []string) []string { return RemoveTag(tags, tag) })
}

func (s *Server) updateTags(_ http.ResponseWriter, r *http.Request, id string, change func([]string) []string) {
	ctx := r.Context()
	p, err := s.repo.Update(ctx, id, func(p *Profile) error {
		p.Tags = change(p.Tags)
		p.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"volunteer": p})
}

func authorizeProfileChange(r *http.Request, id string) error {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		return cerr.NewError(cerr.Unauthenticated, "caller identity is required", nil)
	}
	if caller.UserID != id && !Role(caller.Role).Elevated() {
		return cerr.NewError(cerr.PermissionDenied, "only the volunteer or a moderator may change this profile", nil)
	}
	return nil
}
