package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vehicletag/registration-node/internal/config"
	"github.com/vehicletag/registration-node/internal/core/ports"
	"github.com/vehicletag/registration-node/internal/core/services"
	"github.com/vehicletag/registration-node/internal/health"
	"github.com/vehicletag/registration-node/internal/log"
)

// Server holds the HTTP handlers of the registration node.
type Server struct {
	cfg           *config.Configuration
	registrations ports.RegistrationService
	uploads       ports.UploadService
	continuity    ports.ContinuityService
	gateway       ports.IssuerGateway
	flows         ports.FlowRepository
	events        ports.StageEventRepository
	guard         *services.SubmissionGuard
	status        *health.Status
}

// NewServer creates the API server.
func NewServer(cfg *config.Configuration, registrations ports.RegistrationService, uploads ports.UploadService, continuity ports.ContinuityService, gateway ports.IssuerGateway, flows ports.FlowRepository, events ports.StageEventRepository, guard *services.SubmissionGuard, status *health.Status) *Server {
	return &Server{
		cfg:           cfg,
		registrations: registrations,
		uploads:       uploads,
		continuity:    continuity,
		gateway:       gateway,
		flows:         flows,
		events:        events,
		guard:         guard,
		status:        status,
	}
}

// Routes mounts all endpoints on the given router.
func (s *Server) Routes(ctx context.Context, mux *chi.Mux) {
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.AllowAll().Handler)
	mux.Use(LogMiddleware(ctx))
	mux.Use(log.ChiMiddleware(ctx))

	mux.Get("/status", s.getStatus)

	mux.Route("/v1", func(r chi.Router) {
		r.Route("/registrations", func(r chi.Router) {
			r.With(BasicAuthMiddleware(s.cfg)).Get("/", s.searchRegistrations)
			r.Post("/stages", s.recordStage)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getRegistration)
				r.With(BasicAuthMiddleware(s.cfg)).Get("/events", s.listStageEvents)
				r.Route("/documents", func(r chi.Router) {
					r.Post("/upload-all", s.uploadAllDocuments)
					r.Post("/{kind}", s.uploadDocument)
					r.Delete("/{kind}", s.removeDocument)
				})
			})
		})

		r.Route("/flows", func(r chi.Router) {
			r.Post("/", s.startFlow)
			r.Route("/{flowID}", func(r chi.Router) {
				r.Get("/", s.getFlow)
				r.Post("/otp", s.verifyOTP)
				r.Post("/customer", s.createCustomer)
				r.Post("/activate", s.activateTag)
				r.Post("/register", s.registerTag)
			})
		})
	})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result := s.status.Status(ctx)
	code := http.StatusOK
	for _, up := range result {
		if !up {
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(ctx, w, code, result)
}
