// Package portal is the server-side front end. It keeps one session per
// browser, runs the route guard before every page navigation and relays
// API calls to the recruitment backend through the session's client.
package portal

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"clubhire.org/internal/client"
	"clubhire.org/internal/guard"
	"clubhire.org/internal/httpapi"
	"clubhire.org/internal/ids"
	"clubhire.org/internal/obs"
)

// CookieName holds the browser session id.
const CookieName = "clubhire_sid"

// Config describes a portal.
type Config struct {
	Version string
	Backend client.Config
	Stores  StoreFactory

	RateBurst     int
	RatePerSec    int
	SecureCookies bool

	Probes       map[string]httpapi.Probe
	GuardOptions []guard.Option
}

// Server is the portal HTTP server.
type Server struct {
	cfg     Config
	mux     *http.ServeMux
	reg     *registry
	limiter *httpapi.Limiter
	log     *logrus.Logger
}

// New builds a portal.
func New(cfg Config) (*Server, error) {
	if cfg.Backend.BaseURL == "" {
		return nil, errors.New("portal: backend url is required")
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 50
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 20
	}
	obs.Init()
	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		reg:     newRegistry(cfg.Stores, cfg.Backend, cfg.GuardOptions),
		limiter: httpapi.NewLimiter(cfg.RateBurst, cfg.RatePerSec),
		log:     obs.Logger(),
	}
	s.routes()
	return s, nil
}

// Handler returns the portal wrapped in its middleware chain.
func (s *Server) Handler() http.Handler {
	return httpapi.Chain(obs.Instrument(s.mux),
		httpapi.RequestID,
		httpapi.LoggingJSON,
		httpapi.SecurityHeaders,
		httpapi.CORS,
		s.limiter.Middleware,
		httpapi.MaxBodyBytes(1<<20),
	)
}

// Run performs periodic housekeeping until ctx is done.
func (s *Server) Run(ctx context.Context) {
	go s.limiter.Run(ctx)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.reg.sweep(now); n > 0 {
				s.log.WithField("evicted", n).Debug("idle browser sessions evicted")
			}
		}
	}
}

func (s *Server) routes() {
	httpapi.Health{Service: "clubhire-portal", Version: s.cfg.Version, Probes: s.cfg.Probes}.Register(s.mux)
	s.mux.Handle("GET /metrics", obs.Handler())

	s.mux.HandleFunc("/api/session/login", s.withBrowser(s.handleLogin))
	s.mux.HandleFunc("/api/session/logout", s.withBrowser(s.handleLogout))
	s.mux.HandleFunc("/api/session/me", s.withBrowser(s.handleMe))
	s.mux.HandleFunc("/api/proxy/", s.withBrowser(s.handleProxy))
	s.mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		httpapi.WriteError(w, r, http.StatusNotFound, "not found")
	})
	s.mux.HandleFunc("/", s.withBrowser(s.handlePage))
}

type browserHandler func(w http.ResponseWriter, r *http.Request, b *browser)

// withBrowser resolves the session cookie, minting a fresh id when it is
// missing or malformed.
func (s *Server) withBrowser(next browserHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if c, err := r.Cookie(CookieName); err == nil && ids.Valid(c.Value) {
			sid = c.Value
		}
		if sid == "" {
			sid = ids.New()
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}
		b, err := s.reg.get(r.Context(), sid)
		if err != nil {
			s.log.WithError(err).WithField("request_id", httpapi.RequestIDFromContext(r.Context())).Error("restore browser session")
			httpapi.WriteError(w, r, http.StatusServiceUnavailable, "session store unavailable")
			return
		}
		next(w, r, b)
	}
}
