// Package ecg implements the signal intake flow: a liveness-gated upload of one
// ECG recording to the signal classification service.
package ecg

import (
	"context"
	"sync"
	"time"

	"github.com/AhmedHarera/HeartFailure/internal/apperr"
	"github.com/AhmedHarera/HeartFailure/internal/inference"
	"github.com/AhmedHarera/HeartFailure/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reachability is the last known status of the signal service.
type Reachability string

const (
	Checking Reachability = "checking"
	Online   Reachability = "online"
	Offline  Reachability = "offline"
)

// Classifier is the signal inference boundary.
type Classifier interface {
	Probe(ctx context.Context) error
	PredictECG(ctx context.Context, filename string, data []byte) (inference.ECGResult, error)
}

type file struct {
	name string
	data []byte
}

// Flow is one signal intake session.
type Flow struct {
	ID uuid.UUID

	classifier Classifier
	log        *zap.Logger

	mu         sync.Mutex
	reach      Reachability
	pending    *file
	submitting bool
	result     *inference.ECGResult
	err        error
	lastActive time.Time
}

// NewFlow creates a flow in the checking state. Call Activate to probe the service.
func NewFlow(classifier Classifier, log *zap.Logger) *Flow {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Flow{ID: uuid.New(), classifier: classifier, reach: Checking}
	f.log = log.With(zap.String("flow", f.ID.String()))
	f.lastActive = time.Now()
	return f
}

// Activate probes the service and records whether it is online.
func (f *Flow) Activate(ctx context.Context) Reachability {
	f.mu.Lock()
	f.reach = Checking
	f.lastActive = time.Now()
	f.mu.Unlock()

	next := Online
	if err := f.classifier.Probe(ctx); err != nil {
		f.log.Info("Signal service offline", zap.Error(err))
		next = Offline
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.reach = next
	return next
}

// SelectFile replaces the pending recording and clears any previous error.
// An empty blob clears the selection.
func (f *Flow) SelectFile(name string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastActive = time.Now()
	f.err = nil
	if len(data) == 0 {
		f.pending = nil
		return
	}
	f.pending = &file{name: name, data: data}
}

// Submit uploads the pending recording. It makes no network call unless a file is
// selected and the service is online.
func (f *Flow) Submit(ctx context.Context) (*inference.ECGResult, error) {
	f.mu.Lock()
	f.lastActive = time.Now()
	if f.submitting {
		f.mu.Unlock()
		return nil, apperr.New(apperr.ErrSubmissionInFlight, "an upload is already in progress")
	}
	if f.reach != Online {
		err := apperr.New(apperr.ErrServiceOffline, "the ECG service is not available")
		f.fail(err)
		f.mu.Unlock()
		return nil, err
	}
	if f.pending == nil {
		err := apperr.New(apperr.ErrNoFile, "select an ECG file first")
		f.fail(err)
		f.mu.Unlock()
		return nil, err
	}
	upload := *f.pending
	f.submitting = true
	f.err = nil
	f.mu.Unlock()

	res, err := f.classifier.PredictECG(ctx, upload.name, upload.data)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		f.log.Warn("ECG classification failed", zap.Error(err))
		f.fail(err)
		return nil, err
	}
	metrics.RecordPrediction("ecg", metrics.TierClassified)
	f.result = &res
	f.err = nil
	return &res, nil
}

// fail must be called with mu held.
func (f *Flow) fail(err error) {
	f.result = nil
	f.err = err
}

// CanSubmit reports whether Submit would reach the network.
func (f *Flow) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reach == Online && f.pending != nil && !f.submitting
}

// Result returns the last successful classification, if any.
func (f *Flow) Result() *inference.ECGResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// LastActive reports when the flow was last used.
func (f *Flow) LastActive() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastActive
}

// View is a consistent snapshot of a flow.
type View struct {
	ID              uuid.UUID            `json:"id"`
	ServerReachable Reachability         `json:"server_reachable"`
	FileName        string               `json:"file_name,omitempty"`
	FileSize        int                  `json:"file_size"`
	CanSubmit       bool                 `json:"can_submit"`
	Submitting      bool                 `json:"submitting"`
	Result          *inference.ECGResult `json:"result"`
	Error           *Problem             `json:"error"`
}

// Problem is the client-facing form of an error.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// View returns a snapshot of the flow.
func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := View{
		ID:              f.ID,
		ServerReachable: f.reach,
		CanSubmit:       f.reach == Online && f.pending != nil && !f.submitting,
		Submitting:      f.submitting,
		Result:          f.result,
	}
	if f.pending != nil {
		v.FileName = f.pending.name
		v.FileSize = len(f.pending.data)
	}
	if f.err != nil {
		v.Error = &Problem{Code: apperr.Code(f.err), Message: apperr.Message(f.err)}
	}
	return v
}
