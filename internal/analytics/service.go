package analytics

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/AhmedHarera/HeartFailure/internal/apperr"
	"github.com/AhmedHarera/HeartFailure/internal/config"
	"github.com/AhmedHarera/HeartFailure/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Store is the read side of the record store.
type Store interface {
	CountUsers(ctx context.Context) (int64, error)
	CountPredictions(ctx context.Context) (int64, error)
	RecentPredictions(ctx context.Context, limit int) ([]models.Prediction, error)
	PredictionsSince(ctx context.Context, since time.Time) ([]models.Prediction, error)
	PredictionsForUser(ctx context.Context, userID string, limit int) ([]models.Prediction, error)
	CountActiveUsers(ctx context.Context, since time.Time) (int64, error)
	CountLabelledPredictions(ctx context.Context) (int64, error)
}

const defaultActiveWindow = 30 * 24 * time.Hour

// Settings are the dashboard constants. AccuracyRate is a placeholder figure and
// ImpactMultiplier a heuristic; neither is derived from data.
type Settings struct {
	AccuracyRate     float64
	ImpactMultiplier float64
	RecentLimit      int
	Location         *time.Location
	ActiveWindow     time.Duration
}

// SettingsFromConfig converts the analytics config section.
func SettingsFromConfig(c config.AnalyticsConfig) Settings {
	s := Settings{
		AccuracyRate:     c.AccuracyRate,
		ImpactMultiplier: c.ImpactMultiplier,
		RecentLimit:      c.RecentLimit,
		Location:         c.Location(),
		ActiveWindow:     c.ActiveWindow,
	}
	if s.RecentLimit <= 0 {
		s.RecentLimit = 5
	}
	return s
}

// Summary is the dashboard headline.
type Summary struct {
	TotalUsers        int64               `json:"totalUsers"`
	TotalPredictions  int64               `json:"totalPredictions"`
	AccuracyRate      float64             `json:"accuracyRate"`
	LivesImpacted     int64               `json:"livesImpacted"`
	RecentPredictions []models.Prediction `json:"recentPredictions"`
}

// AdminStats is the administrator dashboard headline. AverageAccuracy is the
// share of stored predictions that carry a result label, as a percentage.
type AdminStats struct {
	TotalUsers       int64   `json:"totalUsers"`
	TotalPredictions int64   `json:"totalPredictions"`
	ActiveUsers      int64   `json:"activeUsers"`
	AverageAccuracy  float64 `json:"averageAccuracy"`
}

// UserStats summarizes one user's history.
type UserStats struct {
	TotalPredictions int        `json:"totalPredictions"`
	HighRisk         int        `json:"highRiskCount"`
	LowRisk          int        `json:"lowRiskCount"`
	LastPredictionAt *time.Time `json:"lastPredictionDate"`
}

// Service answers the analytics queries.
type Service struct {
	store    Store
	log      *zap.Logger
	settings atomic.Pointer[Settings]
	outcome  Outcome
	now      func() time.Time
}

// NewService creates a Service that counts HighRisk labels as the trend outcome.
func NewService(store Store, settings Settings, log *zap.Logger) *Service {
	s := &Service{store: store, log: log.Named("analytics"), outcome: HighRisk, now: time.Now}
	s.Apply(settings)
	return s
}

// Apply replaces the dashboard constants. It is safe to call while serving.
func (s *Service) Apply(settings Settings) {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.ActiveWindow <= 0 {
		settings.ActiveWindow = defaultActiveWindow
	}
	s.settings.Store(&settings)
}

// Settings returns the constants in effect.
func (s *Service) Settings() Settings {
	return *s.settings.Load()
}

// Impact is the heuristic "lives impacted" figure: floor(total * multiplier).
func Impact(totalPredictions int64, multiplier float64) int64 {
	return int64(math.Floor(float64(totalPredictions) * multiplier))
}

// Summary loads the dashboard headline. The three reads run concurrently and the
// call fails as a whole if any of them fails.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	settings := s.Settings()
	var (
		users, predictions int64
		recent             []models.Prediction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.CountUsers(gctx)
		users = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountPredictions(gctx)
		predictions = n
		return err
	})
	g.Go(func() error {
		rows, err := s.store.RecentPredictions(gctx, settings.RecentLimit)
		recent = rows
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("Failed to load dashboard statistics", zap.Error(err))
		return nil, apperr.Wrap(apperr.ErrStoreUnavailable, "failed to load dashboard statistics", err)
	}

	if recent == nil {
		recent = []models.Prediction{}
	}
	return &Summary{
		TotalUsers:        users,
		TotalPredictions:  predictions,
		AccuracyRate:      settings.AccuracyRate,
		LivesImpacted:     Impact(predictions, settings.ImpactMultiplier),
		RecentPredictions: recent,
	}, nil
}

// AdminStats loads the administrator dashboard. Like Summary it fails as a
// whole if any read fails.
func (s *Service) AdminStats(ctx context.Context) (*AdminStats, error) {
	since := s.now().Add(-s.Settings().ActiveWindow)
	var users, predictions, active, labelled int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = s.store.CountUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		predictions, err = s.store.CountPredictions(gctx)
		return err
	})
	g.Go(func() (err error) {
		active, err = s.store.CountActiveUsers(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		labelled, err = s.store.CountLabelledPredictions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("Failed to load admin statistics", zap.Error(err))
		return nil, apperr.Wrap(apperr.ErrStoreUnavailable, "failed to load admin statistics", err)
	}

	st := &AdminStats{TotalUsers: users, TotalPredictions: predictions, ActiveUsers: active}
	if predictions > 0 {
		st.AverageAccuracy = float64(labelled) / float64(predictions) * 100
	}
	return st, nil
}

// Trend loads the window for r and builds its series.
func (s *Service) Trend(ctx context.Context, r Range) ([]TrendPoint, error) {
	today := s.now().In(s.Settings().Location)
	days := r.Days()
	records, err := s.store.PredictionsSince(ctx, windowStart(days, today))
	if err != nil {
		s.log.Error("Failed to load trend window", zap.String("range", string(r)), zap.Error(err))
		return nil, apperr.Wrap(apperr.ErrStoreUnavailable, "failed to load prediction trends", err)
	}
	return BuildTrend(records, days, today, s.outcome), nil
}

// History returns the user's predictions, newest first. limit <= 0 means all.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]models.Prediction, error) {
	if userID == "" {
		return nil, apperr.New(apperr.ErrUnauthenticated, "sign in to view your history")
	}
	rows, err := s.store.PredictionsForUser(ctx, userID, limit)
	if err != nil {
		s.log.Error("Failed to load prediction history", zap.String("user_id", userID), zap.Error(err))
		return nil, apperr.Wrap(apperr.ErrStoreUnavailable, "failed to load prediction history", err)
	}
	if rows == nil {
		rows = []models.Prediction{}
	}
	return rows, nil
}

// UserStats counts the user's predictions by tier.
func (s *Service) UserStats(ctx context.Context, userID string) (*UserStats, error) {
	rows, err := s.History(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	return userStats(rows), nil
}

// userStats expects rows newest first.
func userStats(rows []models.Prediction) *UserStats {
	st := &UserStats{TotalPredictions: len(rows)}
	for _, r := range rows {
		switch r.Tier() {
		case models.RiskTierHigh:
			st.HighRisk++
		case models.RiskTierLow:
			st.LowRisk++
		}
	}
	if len(rows) > 0 {
		last := rows[0].CreatedAt
		st.LastPredictionAt = &last
	}
	return st
}
