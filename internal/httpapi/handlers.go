package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"academy.org/internal/auth"
	"academy.org/internal/authz"
	"academy.org/internal/config"
	"academy.org/internal/obs"
)

// API is the HTTP layer.
type API struct {
	router       chi.Router
	server       config.ServerConfig
	jwt          config.JWTConfig
	loginPath    string
	authn        *auth.Authenticator
	rules        *authz.Rules
	metrics      *obs.Metrics
	loginLimiter *RateLimiter
	students     *roster
	version      string
}

// New wires the security filters in front of the routes. metrics may be nil,
// in which case the API owns a fresh registry.
func New(cfg config.Config, authenticator *auth.Authenticator, rules *authz.Rules, metrics *obs.Metrics, version string) (*API, error) {
	if authenticator == nil {
		return nil, errors.New("httpapi: authenticator is required")
	}
	if rules == nil {
		return nil, errors.New("httpapi: authorization rules are required")
	}
	if metrics == nil {
		metrics = obs.NewMetrics()
	}
	metrics.SetBuildInfo(version)

	a := &API{
		router:       chi.NewRouter(),
		server:       cfg.Server,
		jwt:          cfg.JWT,
		loginPath:    cfg.Auth.LoginPath,
		authn:        authenticator,
		rules:        rules,
		metrics:      metrics,
		loginLimiter: NewRateLimiter(cfg.Auth.LoginRatePerSec, cfg.Auth.LoginBurst),
		students:     newRoster(),
		version:      version,
	}
	a.routes()
	return a, nil
}

func (a *API) routes() {
	r := a.router

	r.Use(CORS(a.server.CORSAllowedOrigins))
	r.Use(RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(SecurityHeaders)
	r.Use(a.metrics.Instrument)
	r.Use(Logging)
	r.Use(Throttle(a.server.RateLimitRequests, a.server.RateLimitWindow))
	r.Use(MaxBodyBytes(a.server.MaxBodyBytes))
	r.Use(a.verifyToken)
	r.Use(a.authorizePaths)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	// public
	r.Get("/", a.handleIndex)
	r.Get("/index", a.handleIndex)
	r.Handle("/css/*", staticFiles())
	r.Handle("/js/*", staticFiles())
	r.Get("/healthz", a.Healthz)
	r.Handle("/metrics", a.metrics.Handler())

	r.With(a.loginLimiter.Middleware(a.onLoginRateLimited)).Post(a.loginPath, a.handleLogin)

	// any principal
	r.Get("/courses", a.handleCourses)

	r.Route("/api/v1/students", func(r chi.Router) {
		r.Get("/{studentId}", a.requireAuthority(authz.HasRole(auth.RoleStudent), a.getStudent))
	})

	r.Route("/management/api/v1/students", func(r chi.Router) {
		r.Get("/", a.requireAuthority(authz.HasAnyRole(auth.RoleAdmin, auth.RoleAdminTrainee), a.listStudents))
		r.Post("/", a.requireAuthority(authz.HasAuthority(auth.PermStudentWrite), a.registerStudent))
		r.Put("/{studentId}", a.requireAuthority(authz.HasAuthority(auth.PermStudentWrite), a.updateStudent))
		r.Delete("/{studentId}", a.requireAuthority(authz.HasAuthority(auth.PermStudentWrite), a.deleteStudent))
	})
}

// Handler returns the root handler for the server.
func (a *API) Handler() http.Handler {
	return a.router
}

// Metrics exposes the collectors the API reports to.
func (a *API) Metrics() *obs.Metrics { return a.metrics }

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "academy-api",
		"version": a.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
