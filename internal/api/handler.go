package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"inventory/m/domain"
	"inventory/m/internal/admin"
	"inventory/m/internal/auth"
	"inventory/m/internal/ledger"
	"inventory/m/internal/logging"
)

type ctxKey string

const ctxUser ctxKey = "user"

const (
	// maxUploadSize bounds multipart item bodies, image included.
	maxUploadSize = 10 << 20
	maxFormSize   = 1 << 20
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	auth        *auth.Service
	ledger      *ledger.Service
	admin       *admin.Service
	logger      logging.Logger
	corsOrigins []string
}

// Services are the application services the HTTP layer calls into.
type Services struct {
	Auth   *auth.Service
	Ledger *ledger.Service
	Admin  *admin.Service
}

// New constructs a Handler.
func New(svc Services, logger logging.Logger, corsOrigins []string) *Handler {
	return &Handler{
		auth:        svc.Auth,
		ledger:      svc.Ledger,
		admin:       svc.Admin,
		logger:      logger,
		corsOrigins: corsOrigins,
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("X-Content-Type-Options", "nosniff"))
	r.Use(middleware.SetHeader("X-Frame-Options", "DENY"))
	r.Use(middleware.SetHeader("Referrer-Policy", "no-referrer"))
	r.Use(middleware.SetHeader("Cross-Origin-Resource-Policy", "same-origin"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.health)
	r.Post("/register", h.register)
	r.Post("/login", h.login)

	r.Route("/stores", func(r chi.Router) {
		r.Post("/", h.createStore)
		r.With(h.optionalAuth).Get("/", h.listStores)
		r.With(h.optionalAuth).Get("/{id}", h.getStore)
		r.Group(func(protected chi.Router) {
			protected.Use(h.authMiddleware)
			protected.Patch("/{id}", h.updateStore)
			protected.Delete("/{id}", h.deleteStore)
			protected.Get("/{id}/categories", h.listCategories)
		})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Get("/me", h.me)

		pr.Route("/items", func(r chi.Router) {
			r.Get("/", h.listItems)
			r.Post("/", h.createItem)
			r.Post("/swap", h.swapItem)
			r.Post("/transfer", h.transferItem)
			r.Patch("/{id}/quantity", h.updateItemQuantity)
			r.Post("/{id}/sell", h.sellItem)
			r.Get("/{id}/logs", h.itemLogs)
		})

		pr.Route("/users", func(r chi.Router) {
			r.Get("/", h.listUsers)
			r.Delete("/{id}", h.deleteUser)
		})

		pr.Post("/categories", h.createCategory)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authMiddleware resolves the bearer token to a user and stores it in
// the request context.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.auth.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// optionalAuth lets requests without an Authorization header through
// anonymously. A header that is present must still be valid.
func (h *Handler) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		h.authMiddleware(next).ServeHTTP(w, r)
	})
}

func currentUser(ctx context.Context) *domain.User {
	u, _ := ctx.Value(ctxUser).(*domain.User)
	return u
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			h.logger.Info(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
