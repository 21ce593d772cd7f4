package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"smm-reseller/internal/config"
	"smm-reseller/internal/domain"
	"smm-reseller/internal/infra/i18n"
	red "smm-reseller/internal/infra/redis"
	"smm-reseller/internal/usecase"
)

const adminSessionHeader = "X-Admin-Session"

// Server wires the use cases to the HTTP surface. All handlers answer
// JSON; error bodies carry a localized message.
type Server struct {
	orders   *usecase.OrderUseCase
	keys     *usecase.KeyUseCase
	catalog  *usecase.CatalogUseCase
	sessions *usecase.SessionUseCase
	users    *usecase.UserUseCase
	limiter  *red.RateLimiter
	tr       *i18n.Translator
	cfg      *config.Config
	log      *zerolog.Logger
}

func NewServer(
	orders *usecase.OrderUseCase,
	keys *usecase.KeyUseCase,
	catalog *usecase.CatalogUseCase,
	sessions *usecase.SessionUseCase,
	users *usecase.UserUseCase,
	limiter *red.RateLimiter,
	tr *i18n.Translator,
	cfg *config.Config,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		orders:   orders,
		keys:     keys,
		catalog:  catalog,
		sessions: sessions,
		users:    users,
		limiter:  limiter,
		tr:       tr,
		cfg:      cfg,
		log:      logger,
	}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", adminSessionHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(func(next http.Handler) http.Handler { return Chain(next, TraceID(), Recover(s.log), RequestLog(s.log), Timeout(s.cfg.HTTP.RequestTimeout)) })

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/order", s.rateLimited("order", s.handleCreateOrder))
		r.Get("/order/{orderID}", s.handleGetOrder)
		r.Get("/validate-key/{productKey}", s.rateLimited("validate", s.handleValidateKey))
		r.Get("/product/{productKey}", s.handleGetProduct)
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleAdminLogin)

			r.Group(func(r chi.Router) {
				r.Use(s.adminGuard)
				r.Post("/logout", s.handleAdminLogout)
				r.Post("/api-providers", s.handleCreateProvider)
				r.Get("/api-providers", s.handleListProviders)
				r.Delete("/api-providers/{providerID}", s.handleDeleteProvider)
				r.Post("/fetch-services/{providerID}", s.handleSyncServices)
				r.Get("/services", s.handleListServices)
				r.Post("/api-keys", s.handleGenerateKeys)
				r.Get("/api-keys", s.handleListKeys)
				r.Delete("/api-keys/{keyID}", s.handleDeleteKey)
				r.Get("/orders", s.handleListOrders)
				r.Get("/activity-logs", s.handleListActivity)
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// adminGuard rejects any request without a valid back-office session.
func (s *Server) adminGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(adminSessionHeader)
		if err := s.sessions.Authenticate(r.Context(), token); err != nil {
			writeError(w, http.StatusUnauthorized, s.tr.T("unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimited caps per-client request rates on the public endpoints. A
// broken limiter backend fails open.
func (s *Server) rateLimited(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := red.ClientKey(clientAddr(r), endpoint)
		ok, err := s.limiter.Allow(r.Context(), key, s.cfg.RateLimit.OrdersPerMinute, rateWindow)
		if err != nil {
			s.log.Warn().Err(err).Msg("rate limiter unavailable")
			next(w, r)
			return
		}
		if !ok {
			writeError(w, http.StatusTooManyRequests, s.tr.T("rate_limited"))
			return
		}
		next(w, r)
	}
}

// serverError logs the cause and answers with the generic message so
// internals never leak to the storefront.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	s.log.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	writeError(w, http.StatusInternalServerError, s.tr.T("server_error"))
}

func notFoundOr500(s *Server, w http.ResponseWriter, r *http.Request, err error, notFoundKey string) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, s.tr.T(notFoundKey))
		return
	}
	s.serverError(w, r, err, "lookup failed")
}
