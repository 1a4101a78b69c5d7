package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/AhmedHarera/HeartFailure/internal/analytics"
	"github.com/AhmedHarera/HeartFailure/internal/config"
	"github.com/AhmedHarera/HeartFailure/internal/database"
	"github.com/AhmedHarera/HeartFailure/internal/ecg"
	"github.com/AhmedHarera/HeartFailure/internal/events"
	"github.com/AhmedHarera/HeartFailure/internal/identity"
	"github.com/AhmedHarera/HeartFailure/internal/inference"
	logger "github.com/AhmedHarera/HeartFailure/internal/logging"
	"github.com/AhmedHarera/HeartFailure/internal/models"
	"github.com/AhmedHarera/HeartFailure/internal/registry"
	"github.com/AhmedHarera/HeartFailure/internal/repository"
	"github.com/AhmedHarera/HeartFailure/internal/router"
	"github.com/AhmedHarera/HeartFailure/internal/services"
	"github.com/AhmedHarera/HeartFailure/internal/wizard"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	projectRoot := os.Getenv("HFRISK_ROOT")
	if projectRoot == "" {
		projectRoot = "."
	}

	// Load configuration
	cfg, err := config.Init(projectRoot)
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	// Initialize Logger
	log, err := logger.Init(cfg.Logging)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if cfg.Server.SecureCookies {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Warn("auth.jwt_secret is empty; every bearer token will be rejected")
	}

	// Initialize Database
	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	store := repository.New(db)

	// Load the questionnaire at startup
	questionnairePath := cfg.Server.QuestionnaireFile
	if !filepath.IsAbs(questionnairePath) {
		questionnairePath = filepath.Join(projectRoot, questionnairePath)
	}
	questionnaire, err := models.LoadQuestionnaire(questionnairePath)
	if err != nil {
		log.Fatal("Failed to load questionnaire", zap.Error(err))
	}

	publisher := events.NewPublisher(cfg.Events, log)
	defer publisher.Close()

	analyticsService := analytics.NewService(store, analytics.SettingsFromConfig(cfg.Analytics), log)

	config.OnChange(func(c *config.Config) {
		analyticsService.Apply(analytics.SettingsFromConfig(c.Analytics))
		if err := logger.SetLevel(c.Logging.Level); err != nil {
			log.Warn("Ignoring invalid log level", zap.String("level", c.Logging.Level), zap.Error(err))
		}
		log.Info("Configuration reloaded")
	})
	config.Watch(log)

	wizards := registry.New[*wizard.Session]()
	ecgFlows := registry.New[*ecg.Flow]()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services.NewScheduler(log, cfg.Sessions.SweepInterval, cfg.Sessions.IdleTTL, map[string]services.Sweepable{
		"wizard": wizards,
		"ecg":    ecgFlows,
	}).Start(ctx)

	r := router.Setup(router.Deps{
		Log:           log,
		Config:        cfg,
		Questionnaire: questionnaire,
		Verifier:      identity.NewVerifier(cfg.Auth),
		Wizards:       wizards,
		Wizard: wizard.Deps{
			Predictor: inference.NewTabularClient(cfg.Inference, log),
			Recorder:  store,
			Notifier:  publisher,
			Log:       log,
		},
		ECGFlows:   ecgFlows,
		Classifier: inference.NewSignalClient(cfg.Inference, log),
		Analytics:  analyticsService,
		Assistant:  inference.NewChatClient(cfg.Inference, log),
		Users:      store,
		Health: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening on http://localhost:" + cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
}
