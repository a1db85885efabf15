package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/pinauth"
	authmw "github.com/MrEthical07/pinauth/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Service is the authentication surface the HTTP adapter drives.
// *pinauth.Engine implements it.
type Service interface {
	Login(ctx context.Context, username, password string) (*pinauth.LoginResult, error)
	ValidatePin(ctx context.Context, operatorID int64, pin string) (*pinauth.ValidatePinResult, error)
	Logout(ctx context.Context, operatorID int64) error
	CheckSession(ctx context.Context, operatorID int64) (bool, error)
	VerifyToken(ctx context.Context, token string) (*pinauth.Claims, error)
}

// Handler binds HTTP requests to a Service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger.With("module", "http", "layer", "adapter"),
	}
}

// RouterOptions carries the optional collaborators of the router.
type RouterOptions struct {
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// Ready backs /readyz. A nil Ready always reports ready.
	Ready func(ctx context.Context) error
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

// NewRouter registers the auth routes and the middleware stack.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(h.recoverMiddleware)
	r.Use(h.loggingMiddleware)
	r.Use(originMiddleware)

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz(opts.Ready))
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(authmw.Guard(h.service, h.rejectJSON))
			r.Post("/validate-pin", h.validatePin)
			r.Post("/logout", h.logout)
		})

		r.With(authmw.Guard(h.service, rejectSession)).Get("/session", h.session)
	})

	return r
}
