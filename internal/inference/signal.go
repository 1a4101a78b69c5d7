package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/AhmedHarera/HeartFailure/internal/apperr"
	"github.com/AhmedHarera/HeartFailure/internal/config"
	"go.uber.org/zap"
)

// ECGResult is the classification of one uploaded recording.
type ECGResult struct {
	Prediction string    `json:"prediction"`
	Confidence float64   `json:"confidence"`
	ECGData    []float64 `json:"ecgData"`
}

type ecgResponse struct {
	Prediction *string    `json:"prediction"`
	Confidence *float64   `json:"confidence"`
	ECGData    *[]float64 `json:"ecgData"`
}

// SignalClient calls the ECG classification service.
type SignalClient struct {
	client
}

// NewSignalClient creates a client for the signal model at cfg.SignalURL.
func NewSignalClient(cfg config.InferenceConfig, log *zap.Logger) *SignalClient {
	return &SignalClient{client: newClient("ecg", cfg.SignalURL, cfg, log)}
}

// Probe checks reachability with GET /. Any 2xx answer means online.
func (s *SignalClient) Probe(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.observe(err, start) }()

	req, err := s.newRequest(ctx, http.MethodGet, "/", nil, "")
	if err != nil {
		return err
	}
	status, body, err := s.do(req)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return rejection(status, body)
	}
	return nil
}

// PredictECG uploads data as the multipart field "file" to POST /predict-ecg.
func (s *SignalClient) PredictECG(ctx context.Context, filename string, data []byte) (r ECGResult, err error) {
	start := time.Now()
	defer func() { s.observe(err, start) }()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return ECGResult{}, apperr.Unreachable(s.service, fmt.Errorf("create form file: %w", err))
	}
	if _, err := part.Write(data); err != nil {
		return ECGResult{}, apperr.Unreachable(s.service, fmt.Errorf("write form file: %w", err))
	}
	if err := mw.Close(); err != nil {
		return ECGResult{}, apperr.Unreachable(s.service, fmt.Errorf("close multipart writer: %w", err))
	}

	req, err := s.newRequest(ctx, http.MethodPost, "/predict-ecg", &buf, mw.FormDataContentType())
	if err != nil {
		return ECGResult{}, err
	}

	status, body, err := s.do(req)
	if err != nil {
		return ECGResult{}, err
	}
	if !isSuccess(status) {
		return ECGResult{}, rejection(status, body)
	}

	var resp ecgResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ECGResult{}, apperr.DecodeFailed(s.service, err)
	}
	if resp.Prediction == nil || resp.Confidence == nil || resp.ECGData == nil {
		return ECGResult{}, apperr.DecodeFailed(s.service, errors.New("missing prediction, confidence or ecgData"))
	}
	if *resp.Confidence < 0 || *resp.Confidence > 1 {
		return ECGResult{}, apperr.DecodeFailed(s.service, fmt.Errorf("confidence %v outside [0,1]", *resp.Confidence))
	}

	s.log.Debug("ECG classified",
		zap.String("prediction", *resp.Prediction),
		zap.Float64("confidence", *resp.Confidence),
		zap.Int("samples", len(*resp.ECGData)))
	return ECGResult{Prediction: *resp.Prediction, Confidence: *resp.Confidence, ECGData: *resp.ECGData}, nil
}
