package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"connectrpc.com/grpchealth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kazz187/volunteerdesk/internal/assignment"
	"github.com/kazz187/volunteerdesk/internal/auth"
	"github.com/kazz187/volunteerdesk/internal/config"
	"github.com/kazz187/volunteerdesk/internal/content"
	"github.com/kazz187/volunteerdesk/internal/pushnotification"
	"github.com/kazz187/volunteerdesk/internal/task"
	"github.com/kazz187/volunteerdesk/internal/volunteer"
	"github.com/kazz187/volunteerdesk/internal/workload"
	"github.com/kazz187/volunteerdesk/pkg/cerr"
	"github.com/kazz187/volunteerdesk/pkg/clog"
)

// HealthServiceName is reported by the gRPC health endpoint.
const HealthServiceName = "volunteerdesk.v1.AssignmentService"

type Server struct {
	server                 *http.Server
	env                    *config.Env
	issuer                 *auth.Issuer
	contentServer          *content.Server
	volunteerServer        *volunteer.Server
	taskServer             *task.Server
	workloadServer         *workload.Server
	assignmentServer       *assignment.Server
	pushNotificationServer *pushnotification.Server
}

func NewServer(
	env *config.Env,
	issuer *auth.Issuer,
	contentServer *content.Server,
	volunteerServer *volunteer.Server,
	taskServer *task.Server,
	workloadServer *workload.Server,
	assignmentServer *assignment.Server,
	pushNotificationServer *pushnotification.Server,
) *Server {
	return &Server{
		env:                    env,
		issuer:                 issuer,
		contentServer:          contentServer,
		volunteerServer:        volunteerServer,
		taskServer:             taskServer,
		workloadServer:         workloadServer,
		assignmentServer:       assignmentServer,
		pushNotificationServer: pushNotificationServer,
	}
}

// Handler builds the full route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			middleware.RequestID,
			clog.SlogChiMiddleware(),
			middleware.Recoverer,
			cerr.NewJSONResponseChiMiddleware(),
		)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.issuer.Middleware)
			s.contentServer.Mount(r)
			s.volunteerServer.Mount(r)
			s.taskServer.Mount(r)
			s.workloadServer.Mount(r)
			s.assignmentServer.Mount(r)
			s.pushNotificationServer.Mount(r)
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)
	mux.Handle(grpchealth.NewHandler(grpchealth.NewStaticChecker(HealthServiceName)))

	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(mux)
}

// ListenAndServe starts the HTTP server. The provided context is used as the
// base context for all incoming requests via http.Server.BaseContext, so
// cancelling it also ends open task streams.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.InfoContext(ctx, "starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     h2c.NewHandler(s.Handler(), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
