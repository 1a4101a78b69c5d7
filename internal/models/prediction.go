package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Prediction is one persisted tabular assessment. Rows are insert-only.
type Prediction struct {
	ID               uuid.UUID                            `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           string                               `gorm:"index;not null" json:"user_id"`
	PredictionData   datatypes.JSONType[HealthAttributes] `gorm:"type:jsonb" json:"prediction_data"`
	PredictionResult string                               `gorm:"not null" json:"prediction_result"`
	CreatedAt        time.Time                            `gorm:"index" json:"created_at"`
}

// NewPrediction builds a record ready for insertion.
func NewPrediction(userID string, attrs HealthAttributes, label string, at time.Time) Prediction {
	return Prediction{
		ID:               uuid.New(),
		UserID:           userID,
		PredictionData:   datatypes.NewJSONType(attrs),
		PredictionResult: label,
		CreatedAt:        at.UTC(),
	}
}

// Attributes returns the input snapshot stored with the record.
func (p Prediction) Attributes() HealthAttributes {
	return p.PredictionData.Data()
}

// Tier classifies the stored label.
func (p Prediction) Tier() RiskTier {
	return ParseRiskTier(p.PredictionResult)
}
