package pushnotification

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/kazz187/volunteerdesk/internal/auth"
	"github.com/kazz187/volunteerdesk/internal/config"
	"github.com/kazz187/volunteerdesk/internal/pushsubscription"
	"github.com/kazz187/volunteerdesk/pkg/cerr"
)

type Server struct {
	vapidEnv *config.VAPIDEnv
	repo     pushsubscription.Repository
	sender   *Sender
	now      func() time.Time
}

func NewServer(vapidEnv *config.VAPIDEnv, repo pushsubscription.Repository, sender *Sender) *Server {
	return &Server{
		vapidEnv: vapidEnv,
		repo:     repo,
		sender:   sender,
		now:      time.Now,
	}
}

func (s *Server) Mount(r chi.Router) {
	r.Get("/push/vapid-public-key", s.GetVapidPublicKey)
	r.Post("/push/subscriptions", s.RegisterPushSubscription)
	r.Delete("/push/subscriptions", s.UnregisterPushSubscription)
	r.Post("/push/test", s.SendTestNotification)
}

func (s *Server) GetVapidPublicKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !s.vapidEnv.Enabled() {
		cerr.SetNewJSONError(ctx, cerr.FailedPrecondition, "VAPID keys not configured", nil)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]string{"public_key": s.vapidEnv.PublicKey})
}

type registerRequest struct {
	Endpoint  string `json:"endpoint"`
	P256dhKey string `json:"p256dh_key"`
	AuthKey   string `json:"auth_key"`
}

func (s *Server) RegisterPushSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := auth.CallerFromContext(ctx)
	if !ok {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "caller identity is required", nil)
		return
	}
	var req registerRequest
	if err := cerr.DecodeJSONRequest(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cErr := cerr.NewError(cerr.InvalidArgument, "invalid push subscription", nil)
	if req.Endpoint == "" {
		cErr.AddDetailMessageWithCode("endpoint is required", "endpoint.required")
	}
	if req.P256dhKey == "" {
		cErr.AddDetailMessageWithCode("p256dh_key is required", "p256dh_key.required")
	}
	if req.AuthKey == "" {
		cErr.AddDetailMessageWithCode("auth_key is required", "auth_key.required")
	}
	if len(cErr.Details) > 0 {
		cerr.SetJSONError(ctx, cErr)
		return
	}

	// Re-registering an endpoint refreshes its keys and owner.
	sub, err := s.repo.FindByEndpoint(ctx, req.Endpoint)
	switch {
	case err == nil:
	case cerr.IsCode(err, cerr.NotFound):
		sub = &pushsubscription.Subscription{
			ID:        ulid.Make().String(),
			Endpoint:  req.Endpoint,
			CreatedAt: s.now(),
		}
	default:
		cerr.SetJSONError(ctx, err)
		return
	}
	sub.VolunteerID = caller.UserID
	sub.P256dhKey = req.P256dhKey
	sub.AuthKey = req.AuthKey
	if err := s.repo.Save(ctx, sub); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"subscription": sub})
}

func (s *Server) UnregisterPushSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := auth.CallerFromContext(ctx)
	if !ok {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "caller identity is required", nil)
		return
	}
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := cerr.DecodeJSONRequest(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if req.Endpoint == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "endpoint is required", nil)
		return
	}
	sub, err := s.repo.FindByEndpoint(ctx, req.Endpoint)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if sub.VolunteerID != caller.UserID {
		cerr.SetNewJSONError(ctx, cerr.PermissionDenied, "subscription belongs to another volunteer", nil)
		return
	}
	if err := s.repo.Delete(ctx, sub.ID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{})
}

func (s *Server) SendTestNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := auth.CallerFromContext(ctx)
	if !ok {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "caller identity is required", nil)
		return
	}
	delivered := s.sender.SendToVolunteer(ctx, caller.UserID, &NotificationPayload{
		Title: "Volunteer Desk",
		Body:  "Push notifications are working!",
	})
	cerr.SetJSONResponse(ctx, map[string]int{"delivered": delivered})
}
