// Package server assembles the HTTP API from the domain services.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/tuma-app/tuma/backend/handlers"
	"github.com/tuma-app/tuma/backend/internal/config"
	"github.com/tuma-app/tuma/backend/internal/crm"
	"github.com/tuma-app/tuma/backend/internal/dashboard"
	dochandler "github.com/tuma-app/tuma/backend/internal/document/handler"
	docservice "github.com/tuma-app/tuma/backend/internal/document/service"
	"github.com/tuma-app/tuma/backend/internal/invoices"
	"github.com/tuma-app/tuma/backend/internal/missions"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/planning"
	"github.com/tuma-app/tuma/backend/internal/quotes"
	"github.com/tuma-app/tuma/backend/internal/sessions"
	"github.com/tuma-app/tuma/backend/internal/users"
	"github.com/tuma-app/tuma/backend/pkg/middleware"
)

var startTime = time.Now()

// Deps are the services behind the API. Redis, SSO and Ping are optional.
type Deps struct {
	Config        *config.Config
	Users         *users.Service
	Sessions      *sessions.Service
	Access        middleware.Verifier
	SSO           middleware.Verifier
	Redis         *redis.Client
	Clients       *crm.ClientService
	Opportunities *crm.OpportunityService
	Quotes        *quotes.Service
	Missions      *missions.Service
	Invoices      *invoices.Service
	Planning      *planning.Services
	Documents     *docservice.Service
	Dashboard     *dashboard.Service
	// Ping reports whether the primary store is reachable.
	Ping func(ctx context.Context) error
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", readiness(d))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterSwagger(r)

	loginLimit := func(c *gin.Context) { c.Next() }
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && d.Redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			loginLimit = middleware.RedisRateLimitMiddleware(d.Redis, "rl:login", cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
		} else {
			loginLimit = middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
	}
	requireAuth := middleware.AuthMiddleware(d.Access, cfg.JWT.CookieName)

	api := r.Group("/api")
	handlers.NewAuthHandler(cfg, d.Users, d.Sessions, d.Access, d.SSO).Register(api, loginLimit, requireAuth)

	qh := handlers.NewQuoteHandler(d.Quotes)
	qh.RegisterPublic(api)

	priv := api.Group("", requireAuth)
	handlers.RegisterResource[*models.Client](priv, "/clients", d.Clients, nil)
	handlers.RegisterResource[*models.Opportunity](priv, "/opportunities", d.Opportunities, handlers.FilterParams[*models.Opportunity]("clientId"))
	qh.Register(priv)
	handlers.RegisterResource[*models.Mission](priv, "/missions", d.Missions, handlers.FilterParams[*models.Mission]("clientId", "quoteId"))
	handlers.RegisterResource[*models.Invoice](priv, "/invoices", d.Invoices, handlers.FilterParams[*models.Invoice]("clientId", "quoteId"))
	handlers.RegisterPlanning(priv, d.Planning)
	dochandler.RegisterDocumentRoutes(priv, d.Documents)
	handlers.RegisterDashboard(priv, d.Dashboard)
	return r
}

// readiness answers 200 once the store, and Redis when configured, respond.
func readiness(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		ready := true
		deps := map[string]bool{"storage": true, "redis": true, "files": d.Documents != nil && d.Documents.FilesEnabled()}
		if d.Ping != nil && d.Ping(ctx) != nil {
			deps["storage"] = false
			ready = false
		}
		if d.Redis != nil && d.Redis.Ping(ctx).Err() != nil {
			deps["redis"] = false
			ready = false
		}
		status, label := http.StatusOK, "ready"
		if !ready {
			status, label = http.StatusServiceUnavailable, "not_ready"
		}
		c.JSON(status, gin.H{"status": label, "deps": deps, "uptime": time.Since(startTime).String()})
	}
}

// WithCORS wraps h with the configured origin policy. Credentials are allowed so the
// session cookie reaches the API.
func WithCORS(h http.Handler, origins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	}).Handler(h)
}
