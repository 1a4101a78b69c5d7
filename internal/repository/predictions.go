package repository

import (
	"context"
	"time"

	"github.com/AhmedHarera/HeartFailure/internal/models"
	"gorm.io/gorm"
)

// Store is the gorm-backed record store. Predictions are insert-only.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates a Store over db.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// InsertPrediction stores one completed prediction and returns the stored row.
func (s *Store) InsertPrediction(ctx context.Context, userID string, attrs models.HealthAttributes, label string) (*models.Prediction, error) {
	p := models.NewPrediction(userID, attrs, label, s.now())
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CountPredictions returns the number of stored predictions.
func (s *Store) CountPredictions(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Prediction{}).Count(&n).Error
	return n, err
}

// RecentPredictions returns the latest limit predictions, newest first.
func (s *Store) RecentPredictions(ctx context.Context, limit int) ([]models.Prediction, error) {
	var rows []models.Prediction
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// PredictionsSince returns every prediction created at or after since, oldest first.
func (s *Store) PredictionsSince(ctx context.Context, since time.Time) ([]models.Prediction, error) {
	var rows []models.Prediction
	err := s.db.WithContext(ctx).
		Where("created_at >= ?", since.UTC()).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// PredictionsForUser returns a user's predictions, newest first. limit <= 0 returns all.
func (s *Store) PredictionsForUser(ctx context.Context, userID string, limit int) ([]models.Prediction, error) {
	q := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.Prediction
	err := q.Find(&rows).Error
	return rows, err
}

// CountActiveUsers returns the number of distinct users with a prediction at or after since.
func (s *Store) CountActiveUsers(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.Prediction{}).
		Where("created_at >= ?", since).
		Distinct("user_id").
		Count(&n).Error
	return n, err
}

// CountLabelledPredictions returns the number of predictions that carry a result label.
func (s *Store) CountLabelledPredictions(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.Prediction{}).
		Where("prediction_result <> ''").
		Count(&n).Error
	return n, err
}
