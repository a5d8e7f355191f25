package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/prn-tf/recipebook/internal/auth"
	"github.com/prn-tf/recipebook/internal/config"
	"github.com/prn-tf/recipebook/internal/metrics"
	"github.com/prn-tf/recipebook/internal/service"
)

// Router wires the JSON API, health, metrics and the static client.
type Router struct {
	auth     *AuthHandler
	recipes  *RecipeHandler
	comments *CommentHandler
	sharing  *SharingHandler
	images   *ImageHandler
	health   *HealthHandler

	tokens      auth.TokenVerifier
	metrics     *metrics.Metrics
	metricsPath string
	rateLimiter *RateLimiter
	server      config.ServerConfig
	cors        config.CORSConfig
	logger      zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Recipes  *service.RecipeService
	Comments *service.CommentService
	Sharing  *service.SharingService
	Images   *service.ImageService // nil disables image routes
	Resolver *service.Resolver

	Tokens   auth.TokenVerifier
	Database DatabaseChecker

	// Metrics, when set, instruments requests and serves MetricsPath.
	Metrics     *metrics.Metrics
	MetricsPath string

	RateLimiter  *RateLimiter // nil disables rate limiting
	Server       config.ServerConfig
	CORS         config.CORSConfig
	MaxImageSize int64
	Logger       zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(cfg RouterConfig) *Router {
	decoder := NewRequestDecoder(cfg.Server.MaxBodySize)
	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	rt := &Router{
		auth: NewAuthHandler(cfg.Auth, cfg.Users, decoder, cfg.Logger),
		recipes: NewRecipeHandler(RecipeHandlerConfig{
			Recipes:      cfg.Recipes,
			Images:       cfg.Images,
			Resolver:     cfg.Resolver,
			Decoder:      decoder,
			MaxImageSize: cfg.MaxImageSize,
			Logger:       cfg.Logger,
		}),
		comments:    NewCommentHandler(cfg.Comments, cfg.Resolver, decoder, cfg.Logger),
		sharing:     NewSharingHandler(cfg.Sharing, cfg.Resolver, decoder, cfg.Logger),
		health:      NewHealthHandler(cfg.Database, cfg.Logger),
		tokens:      cfg.Tokens,
		metrics:     cfg.Metrics,
		metricsPath: metricsPath,
		rateLimiter: cfg.RateLimiter,
		server:      cfg.Server,
		cors:        cfg.CORS,
		logger:      cfg.Logger.With().Str("component", "router").Logger(),
	}
	if cfg.Images != nil {
		rt.images = NewImageHandler(cfg.Images, cfg.Logger)
	}
	return rt
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(rt.logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(newCORS(rt.cors))
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
		r.Method(http.MethodGet, rt.metricsPath, rt.metrics.Handler())
	}

	r.Get("/health", rt.health.Health)

	var failures AuthFailureRecorder
	if rt.metrics != nil {
		failures = rt.metrics
	}
	requireAuth := authMiddleware(rt.tokens, failures, rt.logger)

	r.Route("/api", func(r chi.Router) {
		if rt.rateLimiter != nil {
			r.Use(rt.rateLimiter.Middleware)
		}
		if rt.server.RequestTimeout > 0 {
			r.Use(middleware.Timeout(rt.server.RequestTimeout))
		}
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "route not found"})
		})

		r.Get("/health", rt.health.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", rt.auth.Register)
			r.Post("/login", rt.auth.Login)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", rt.auth.Me)
				r.Post("/logout", rt.auth.Logout)
			})
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", rt.recipes.List)
			r.Get("/search/{query}", rt.recipes.Search)
			r.Get("/{id}", rt.recipes.Get)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", rt.recipes.Create)
				r.Put("/{id}", rt.recipes.Update)
				r.Delete("/{id}", rt.recipes.Delete)
				if rt.images != nil {
					r.Post("/{id}/image", rt.recipes.UploadImage)
				}
			})
		})

		if rt.images != nil {
			r.Get("/images/{key}", rt.images.Serve)
		}

		r.Route("/comments", func(r chi.Router) {
			r.Get("/recipe/{recipeId}", rt.comments.ListByRecipe)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", rt.comments.Create)
				r.Put("/{commentId}", rt.comments.Update)
				r.Delete("/{commentId}", rt.comments.Delete)
			})
		})

		r.Route("/sharing", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/with-me", rt.sharing.SharedWithMe)
			r.Get("/my-shares", rt.sharing.MyShares)
			r.Post("/", rt.sharing.Share)
			r.Delete("/{sharingId}/{userId}", rt.sharing.Unshare)
		})
	})

	if rt.server.StaticDir != "" {
		r.Handle("/*", staticFiles(rt.server.StaticDir))
	}

	return r
}

// staticFiles serves the browser client. Its assets may change between
// deploys, so they are revalidated on every load.
func staticFiles(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		fs.ServeHTTP(w, r)
	})
}

// Server builds the http.Server for h from the server settings.
func Server(cfg config.ServerConfig, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Address(),
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

