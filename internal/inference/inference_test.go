package inference

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AhmedHarera/HeartFailure/internal/apperr"
	"github.com/AhmedHarera/HeartFailure/internal/config"
	"github.com/AhmedHarera/HeartFailure/internal/models"
	"go.uber.org/zap"
)

func testConfig(url string) config.InferenceConfig {
	return config.InferenceConfig{TabularURL: url, SignalURL: url, ChatURL: url, Timeout: 2 * time.Second}
}

func TestPredictReturnsLabelAndTier(t *testing.T) {
	var got models.HealthAttributes
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"HeartFailureRisk":"High Prediction of heart failure"}`)
	}))
	defer srv.Close()

	attrs := models.DefaultHealthAttributes()
	attrs.BMI = 32
	p, err := NewTabularClient(testConfig(srv.URL), zap.NewNop()).Predict(context.Background(), attrs)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if p.Label != "High Prediction of heart failure" || p.Tier != models.RiskTierHigh {
		t.Fatalf("unexpected prediction %+v", p)
	}
	if got.BMI != 32 || got.Sex != "Male" {
		t.Fatalf("service received %+v", got)
	}
}

func TestPredictClassifiesFailures(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		kind    error
		message string
	}{
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"Missing columns: ['BMI']"}`, kind: apperr.ErrServiceRejected, message: "Missing columns: ['BMI']"},
		{name: "error with 200", status: http.StatusOK, body: `{"error":"could not convert string to float"}`, kind: apperr.ErrServiceRejected, message: "could not convert string to float"},
		{name: "plain text 500", status: http.StatusInternalServerError, body: "Internal Server Error", kind: apperr.ErrServiceRejected, message: "Internal Server Error"},
		{name: "malformed body", status: http.StatusOK, body: `not json`, kind: apperr.ErrDecodeFailed},
		{name: "missing label", status: http.StatusOK, body: `{}`, kind: apperr.ErrDecodeFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			_, err := NewTabularClient(testConfig(srv.URL), zap.NewNop()).Predict(context.Background(), models.DefaultHealthAttributes())
			if !errors.Is(err, tc.kind) {
				t.Fatalf("Predict() error = %v, want kind %v", err, tc.kind)
			}
			if tc.message != "" && apperr.Message(err) != tc.message {
				t.Fatalf("message = %q, want %q", apperr.Message(err), tc.message)
			}
		})
	}
}

func TestPredictUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewTabularClient(testConfig(url), zap.NewNop()).Predict(context.Background(), models.DefaultHealthAttributes())
	if !errors.Is(err, apperr.ErrNetworkUnreachable) {
		t.Fatalf("Predict() error = %v, want unreachable", err)
	}
}

func TestProbe(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	}))
	defer up.Close()
	if err := NewSignalClient(testConfig(up.URL), zap.NewNop()).Probe(context.Background()); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	if err := NewSignalClient(testConfig(down.URL), zap.NewNop()).Probe(context.Background()); err == nil {
		t.Fatalf("expected probe failure on 503")
	}
}

func TestPredictECGUploadsFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict-ecg" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile() error = %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		if hdr.Filename != "rec.csv" || string(b) != "0.1,0.2,0.3" {
			t.Errorf("unexpected upload %s %q", hdr.Filename, b)
		}
		_, _ = io.WriteString(w, `{"prediction":"Normal","confidence":0.97,"ecgData":[0.1,0.2,0.3]}`)
	}))
	defer srv.Close()

	r, err := NewSignalClient(testConfig(srv.URL), zap.NewNop()).PredictECG(context.Background(), "rec.csv", []byte("0.1,0.2,0.3"))
	if err != nil {
		t.Fatalf("PredictECG() error = %v", err)
	}
	if r.Prediction != "Normal" || r.Confidence != 0.97 || len(r.ECGData) != 3 || r.ECGData[2] != 0.3 {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestPredictECGClassifiesFailures(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		kind    error
		message string
	}{
		{name: "json error", status: http.StatusBadRequest, body: `{"error":"Empty CSV file"}`, kind: apperr.ErrServiceRejected, message: "Empty CSV file"},
		{name: "raw text", status: http.StatusInternalServerError, body: "model crashed\n", kind: apperr.ErrServiceRejected, message: "model crashed"},
		{name: "malformed", status: http.StatusOK, body: `{"prediction":`, kind: apperr.ErrDecodeFailed},
		{name: "confidence out of range", status: http.StatusOK, body: `{"prediction":"Normal","confidence":1.5,"ecgData":[]}`, kind: apperr.ErrDecodeFailed},
		{name: "missing samples", status: http.StatusOK, body: `{"prediction":"Normal","confidence":0.5}`, kind: apperr.ErrDecodeFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			_, err := NewSignalClient(testConfig(srv.URL), zap.NewNop()).PredictECG(context.Background(), "x.csv", []byte("1"))
			if !errors.Is(err, tc.kind) {
				t.Fatalf("PredictECG() error = %v, want kind %v", err, tc.kind)
			}
			if tc.message != "" && apperr.Message(err) != tc.message {
				t.Fatalf("message = %q, want %q", apperr.Message(err), tc.message)
			}
		})
	}
}

func TestMalformedBaseURLIsUnreachable(t *testing.T) {
	cfg := testConfig("http://model host:8000")

	_, err := NewTabularClient(cfg, zap.NewNop()).Predict(context.Background(), models.DefaultHealthAttributes())
	if !errors.Is(err, apperr.ErrNetworkUnreachable) || apperr.Code(err) != "NETWORK_UNREACHABLE" {
		t.Fatalf("Predict() error = %v, want unreachable", err)
	}

	signal := NewSignalClient(cfg, zap.NewNop())
	if err := signal.Probe(context.Background()); !errors.Is(err, apperr.ErrNetworkUnreachable) {
		t.Fatalf("Probe() error = %v, want unreachable", err)
	}
	if _, err := signal.PredictECG(context.Background(), "rec.csv", []byte("1,2")); !errors.Is(err, apperr.ErrNetworkUnreachable) {
		t.Fatalf("PredictECG() error = %v, want unreachable", err)
	}
}
