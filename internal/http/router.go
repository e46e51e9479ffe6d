// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/auth"
	"github.com/tbourn/go-recipe-backend/internal/config"
	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/http/handlers"
	"github.com/tbourn/go-recipe-backend/internal/http/middleware"
	"github.com/tbourn/go-recipe-backend/internal/mealdb"
	"github.com/tbourn/go-recipe-backend/internal/repo"
	"github.com/tbourn/go-recipe-backend/internal/services"
	"github.com/tbourn/go-recipe-backend/internal/storage"
)

// recipeRepoShim adapts the repository free functions to the
// services.RecipeRepo interface expected by the RecipeService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type recipeRepoShim struct{}

// CreateRecipe proxies repo.CreateRecipe.
func (recipeRepoShim) CreateRecipe(ctx context.Context, db *gorm.DB, ownerID string, f repo.RecipeFields) (*domain.Recipe, error) {
	return repo.CreateRecipe(ctx, db, ownerID, f)
}

// GetRecipe proxies repo.GetRecipe.
func (recipeRepoShim) GetRecipe(ctx context.Context, db *gorm.DB, id string) (*domain.Recipe, error) {
	return repo.GetRecipe(ctx, db, id)
}

// UpdateRecipe proxies repo.UpdateRecipe.
func (recipeRepoShim) UpdateRecipe(ctx context.Context, db *gorm.DB, id string, f repo.RecipeFields) error {
	return repo.UpdateRecipe(ctx, db, id, f)
}

// DeleteRecipe proxies repo.DeleteRecipe.
func (recipeRepoShim) DeleteRecipe(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteRecipe(ctx, db, id)
}

// ListRecipesByOwner proxies repo.ListRecipesByOwner.
func (recipeRepoShim) ListRecipesByOwner(ctx context.Context, db *gorm.DB, ownerID string) ([]domain.Recipe, error) {
	return repo.ListRecipesByOwner(ctx, db, ownerID)
}

// CountRecipesByOwner proxies repo.CountRecipesByOwner (pagination support).
func (recipeRepoShim) CountRecipesByOwner(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	return repo.CountRecipesByOwner(ctx, db, ownerID)
}

// ListRecipesByOwnerPage proxies repo.ListRecipesByOwnerPage (pagination support).
func (recipeRepoShim) ListRecipesByOwnerPage(ctx context.Context, db *gorm.DB, ownerID string, offset, limit int) ([]domain.Recipe, error) {
	return repo.ListRecipesByOwnerPage(ctx, db, ownerID, offset, limit)
}

// SearchPublicRecipes proxies repo.SearchPublicRecipes.
func (recipeRepoShim) SearchPublicRecipes(ctx context.Context, db *gorm.DB, query string, limit int) ([]domain.Recipe, error) {
	return repo.SearchPublicRecipes(ctx, db, query, limit)
}

// Deps carries the optional external dependencies injected into the router.
// Nil fields disable the corresponding endpoints gracefully.
type Deps struct {
	// External is the third-party recipe provider client.
	External *mealdb.Client
	// Auth is the identity provider client; nil disables /auth endpoints.
	Auth *auth.Client
	// Uploader is the avatar storage chain; nil disables image uploads.
	Uploader *storage.Uploader
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Response compression
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"Apikey", // storage/auth provider key must never reach logs
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (6 MiB: JSON payloads plus avatar uploads)
	r.Use(limitBody(6 << 20))

	// 6) Compress responses; recipe listings are highly repetitive JSON
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (docs package is hand-maintained; see docs/)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/providers
	recipeSvc := services.NewRecipeService(db, recipeRepoShim{})
	savedSvc := &services.SavedService{DB: db}
	searchSvc := services.NewSearchService(db, externalOrNil(deps.External))
	searchSvc.CategoryLimit = cfg.CategoryLimit
	searchSvc.Throttle = cfg.MealDBThrottle

	profileSvc := services.NewProfileService(db)
	profileSvc.SettleDelay = cfg.ProfileSettleDelay

	var authSvc handlers.AuthService
	if deps.Auth != nil {
		authSvc = deps.Auth
	}
	var uploader handlers.AvatarUploader
	if deps.Uploader != nil {
		uploader = deps.Uploader
	}

	h := handlers.New(recipeSvc, savedSvc, searchSvc, profileSvc, authSvc, uploader)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Auth
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.POST("/auth/logout", h.Logout)

		// Everything below is user-scoped.
		authed := api.Group("")
		authed.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Profile
			authed.GET("/profile", h.GetProfile)
			authed.PUT("/profile", h.UpdateProfile)
			authed.POST("/profile/image", h.UploadProfileImage)

			// Recipes
			authed.POST("/recipes", h.CreateRecipe)
			authed.GET("/recipes", h.ListRecipes)
			authed.GET("/recipes/search", h.SearchOwnPublicRecipes)
			authed.GET("/recipes/:id", h.GetRecipe)
			authed.PUT("/recipes/:id", h.UpdateRecipe)
			authed.DELETE("/recipes/:id", h.DeleteRecipe)

			// Saved recipes
			authed.GET("/saved", h.ListSaved)
			authed.POST("/saved/recipes/:id", h.SaveRecipe)
			authed.DELETE("/saved/recipes/:id", h.UnsaveRecipe)
			authed.POST("/saved/external", h.SaveExternalRecipe)
			authed.DELETE("/saved/external/:id", h.UnsaveExternalRecipe)

			// Discovery
			authed.GET("/search", h.SearchAll)
			authed.GET("/recipes/random", h.RandomRecipe)
			authed.GET("/categories", h.ListCategories)
			authed.GET("/categories/:name/recipes", h.ListCategoryRecipes)
		}
	}
}

// externalOrNil avoids handing a typed-nil provider to the search service.
func externalOrNil(c *mealdb.Client) services.ExternalSource {
	if c == nil {
		return nil
	}
	return c
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
