package inference

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/AhmedHarera/HeartFailure/internal/apperr"
	"github.com/AhmedHarera/HeartFailure/internal/config"
	"github.com/AhmedHarera/HeartFailure/internal/models"
	"go.uber.org/zap"
)

// Prediction is the outcome of one tabular inference call.
type Prediction struct {
	Label string          `json:"label"`
	Tier  models.RiskTier `json:"tier"`
}

type predictResponse struct {
	HeartFailureRisk *string `json:"HeartFailureRisk"`
	Error            *string `json:"error"`
}

// TabularClient calls POST /predict on the questionnaire model.
type TabularClient struct {
	client
}

// NewTabularClient creates a client for the tabular model at cfg.TabularURL.
func NewTabularClient(cfg config.InferenceConfig, log *zap.Logger) *TabularClient {
	return &TabularClient{client: newClient("prediction", cfg.TabularURL, cfg, log)}
}

// Predict sends attrs to the model and returns its label.
func (t *TabularClient) Predict(ctx context.Context, attrs models.HealthAttributes) (p Prediction, err error) {
	start := time.Now()
	defer func() { t.observe(err, start) }()

	status, body, err := t.postJSON(ctx, "/predict", attrs)
	if err != nil {
		return Prediction{}, err
	}
	if !isSuccess(status) {
		return Prediction{}, rejection(status, body)
	}

	var resp predictResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Prediction{}, apperr.DecodeFailed(t.service, err)
	}
	// The service reports model failures with a 200 and an "error" field.
	if resp.Error != nil {
		return Prediction{}, apperr.Rejected(status, *resp.Error)
	}
	if resp.HeartFailureRisk == nil || *resp.HeartFailureRisk == "" {
		return Prediction{}, apperr.DecodeFailed(t.service, errors.New("missing HeartFailureRisk"))
	}

	label := *resp.HeartFailureRisk
	t.log.Debug("Prediction received", zap.String("label", label))
	return Prediction{Label: label, Tier: models.ParseRiskTier(label)}, nil
}
