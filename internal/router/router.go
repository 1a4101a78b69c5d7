package router

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/AhmedHarera/HeartFailure/internal/analytics"
	"github.com/AhmedHarera/HeartFailure/internal/config"
	"github.com/AhmedHarera/HeartFailure/internal/ecg"
	"github.com/AhmedHarera/HeartFailure/internal/handlers"
	"github.com/AhmedHarera/HeartFailure/internal/identity"
	"github.com/AhmedHarera/HeartFailure/internal/metrics"
	"github.com/AhmedHarera/HeartFailure/internal/models"
	"github.com/AhmedHarera/HeartFailure/internal/registry"
	"github.com/AhmedHarera/HeartFailure/internal/wizard"
	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

const (
	defaultSubmitPerMinute = 5
	defaultChatPerMinute   = 20
	defaultAllowedOrigin   = "http://localhost:5173"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	Log           *zap.Logger
	Config        *config.Config
	Questionnaire *models.Questionnaire
	Verifier      *identity.Verifier
	Wizards       *registry.Registry[*wizard.Session]
	Wizard        wizard.Deps
	ECGFlows      *registry.Registry[*ecg.Flow]
	Classifier    ecg.Classifier
	Analytics     *analytics.Service
	Assistant     handlers.Assistant
	Users         identity.UserRecorder

	// Health reports whether the store is reachable.
	Health func(ctx context.Context) error
}

// keyFunc limits per caller, falling back to the client address.
func keyFunc(c *gin.Context) string {
	if owner := identity.Owner(c); owner != "" {
		return owner
	}
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.Header("Retry-After", strconv.Itoa(int(math.Ceil(time.Until(info.ResetTime).Seconds()))))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Try again later.", "code": "RATE_LIMITED"})
}

func Setup(d Deps) *gin.Engine {
	log := d.Log
	cfg := d.Config

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))
	router.Use(metrics.Middleware())

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{defaultAllowedOrigin}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", csrfTokenHeaderKey},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		IsDevelopment:         !cfg.Server.SecureCookies,
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	})

	// Infrastructure routes sit outside the session stack.
	router.GET("/healthz", func(c *gin.Context) {
		if d.Health != nil {
			if err := d.Health(c.Request.Context()); err != nil {
				log.Warn("Health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})

	api := router.Group("/api")
	api.Use(sessions.Sessions("hfrisk_session", store))
	api.Use(identity.Middleware(d.Verifier, log))
	api.Use(identity.RecordUsers(d.Users, log))
	api.Use(CSRFProtection(log))

	perMinute := cfg.RateLimit.SubmitPerMinute
	if perMinute == 0 {
		perMinute = defaultSubmitPerMinute
	}
	limiter := ratelimit.RateLimiter(ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: perMinute,
	}), &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	chatPerMinute := cfg.RateLimit.ChatPerMinute
	if chatPerMinute == 0 {
		chatPerMinute = defaultChatPerMinute
	}
	chatLimiter := ratelimit.RateLimiter(ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: chatPerMinute,
	}), &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	sessionHandler := handlers.NewSessionHandler(log)
	assessmentHandler := handlers.NewAssessmentHandler(log, d.Questionnaire, d.Wizards, d.Wizard)
	ecgHandler := handlers.NewECGHandler(log, d.ECGFlows, d.Classifier)
	analyticsHandler := handlers.NewAnalyticsHandler(log, d.Analytics)
	chatHandler := handlers.NewChatHandler(log, d.Assistant)

	sessionRoutes := api.Group("/session")
	{
		sessionRoutes.GET("", sessionHandler.Show)
		sessionRoutes.POST("", sessionHandler.Create)
		sessionRoutes.DELETE("", sessionHandler.Delete)
	}

	api.GET("/questionnaire", assessmentHandler.Questionnaire)

	assessmentRoutes := api.Group("/assessments")
	{
		assessmentRoutes.POST("", assessmentHandler.Create)
		assessmentRoutes.GET("/:id", assessmentHandler.Get)
		assessmentRoutes.DELETE("/:id", assessmentHandler.Discard)
		assessmentRoutes.PATCH("/:id/attributes", assessmentHandler.SetAttributes)
		assessmentRoutes.POST("/:id/steps/:index", assessmentHandler.GoToStep)
		assessmentRoutes.POST("/:id/next", assessmentHandler.Next)
		assessmentRoutes.POST("/:id/previous", assessmentHandler.Previous)
		assessmentRoutes.POST("/:id/submit", limiter, assessmentHandler.Submit)
	}

	ecgRoutes := api.Group("/ecg")
	{
		ecgRoutes.POST("", ecgHandler.Create)
		ecgRoutes.GET("/:id", ecgHandler.Get)
		ecgRoutes.POST("/:id/probe", ecgHandler.Probe)
		ecgRoutes.POST("/:id/file", ecgHandler.SelectFile)
		ecgRoutes.POST("/:id/submit", limiter, ecgHandler.Submit)
		ecgRoutes.GET("/:id/chart", ecgHandler.Chart)
	}

	analyticsRoutes := api.Group("/analytics")
	{
		analyticsRoutes.GET("/summary", analyticsHandler.Summary)
		analyticsRoutes.GET("/trend", analyticsHandler.Trend)
		analyticsRoutes.GET("/trend/chart", analyticsHandler.TrendChart)
		analyticsRoutes.GET("/admin", analyticsHandler.Admin)
	}

	chatRoutes := api.Group("/chat")
	{
		chatRoutes.POST("", chatLimiter, chatHandler.Send)
		chatRoutes.GET("/health", chatHandler.Health)
	}

	me := api.Group("/me")
	me.Use(identity.AuthRequired())
	{
		me.GET("/stats", analyticsHandler.MyStats)
		me.GET("/predictions", analyticsHandler.MyPredictions)
	}

	return router
}
