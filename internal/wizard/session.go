// Package wizard implements the multi-step questionnaire that collects a
// HealthAttributes record and submits it for a tabular prediction.
package wizard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AhmedHarera/HeartFailure/internal/apperr"
	"github.com/AhmedHarera/HeartFailure/internal/inference"
	"github.com/AhmedHarera/HeartFailure/internal/metrics"
	"github.com/AhmedHarera/HeartFailure/internal/models"
	"github.com/AhmedHarera/HeartFailure/internal/risk"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the lifecycle position of a session.
type State string

const (
	StateIdle       State = "idle"
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// SubmissionState is the coarse submission status exposed to clients.
func (s State) SubmissionState() string {
	switch s {
	case StateSubmitting:
		return "in_flight"
	case StateSucceeded, StateFailed:
		return string(s)
	default:
		return "idle"
	}
}

// Predictor is the tabular inference boundary.
type Predictor interface {
	Predict(ctx context.Context, attrs models.HealthAttributes) (inference.Prediction, error)
}

// Recorder stores a completed prediction.
type Recorder interface {
	InsertPrediction(ctx context.Context, userID string, attrs models.HealthAttributes, label string) (*models.Prediction, error)
}

// Notifier is told about stored predictions. Failures are its own concern.
type Notifier interface {
	PredictionCreated(ctx context.Context, p *models.Prediction)
}

// Deps are the collaborators shared by all sessions.
type Deps struct {
	Predictor Predictor
	Recorder  Recorder
	Notifier  Notifier
	Log       *zap.Logger
}

// Result is what a successful submission shows the user.
type Result struct {
	Label        string              `json:"label"`
	Tier         models.RiskTier     `json:"tier"`
	Factors      []models.RiskFactor `json:"factors"`
	PredictionID *uuid.UUID          `json:"prediction_id,omitempty"`
}

// Session is one assessment attempt. All methods are safe for concurrent use;
// the lock is never held across a network call.
type Session struct {
	ID uuid.UUID

	deps  Deps
	steps int

	mu         sync.Mutex
	attrs      models.HealthAttributes
	step       int
	completed  map[int]struct{}
	state      State
	result     *Result
	err        error
	warning    error
	lastActive time.Time
	// attempt changes on every Reset so a Submit that outlives it can tell.
	attempt uint64
}

// NewSession creates a session over a questionnaire of steps steps and resets it.
func NewSession(steps int, deps Deps) *Session {
	if steps < 1 {
		steps = 1
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	s := &Session{ID: uuid.New(), deps: deps, steps: steps}
	s.Reset()
	return s
}

// Reset returns the session to its initial state: default attributes, step 0,
// nothing completed, idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = models.DefaultHealthAttributes()
	s.step = 0
	s.completed = make(map[int]struct{})
	s.state = StateIdle
	s.result = nil
	s.err = nil
	s.warning = nil
	s.attempt++
	s.touch()
}

// GoToStep moves to step i, clamped to the questionnaire. The step being left is
// marked completed. Moving to the active step changes nothing.
func (s *Session) GoToStep(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goTo(i)
}

// Next advances one step. It is a no-op on the last step and never submits.
func (s *Session) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step < s.steps-1 {
		s.goTo(s.step + 1)
	}
}

// Previous goes back one step without marking anything completed. It is a
// no-op on the first step.
func (s *Session) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.step == 0 {
		return
	}
	s.step--
	if s.state != StateSubmitting {
		s.state = StateEditing
	}
}

func (s *Session) goTo(i int) {
	s.touch()
	i = clamp(i, 0, s.steps-1)
	if i == s.step {
		return
	}
	s.completed[s.step] = struct{}{}
	s.step = i
	if s.state != StateSubmitting {
		s.state = StateEditing
	}
}

// SetAttribute stores one field. Numeric values are clamped to their bounds and
// the stored value is returned; categorical values must be one of the options.
func (s *Session) SetAttribute(name string, value any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if models.IsNumeric(name) {
		f, ok := toFloat(value)
		if !ok {
			return nil, apperr.New(apperr.ErrInvalidInput, fmt.Sprintf("%s must be a number", name))
		}
		stored, _ := s.attrs.SetNumeric(name, f)
		return stored, nil
	}

	str, ok := value.(string)
	if !ok {
		return nil, apperr.New(apperr.ErrInvalidInput, fmt.Sprintf("%s must be a string", name))
	}
	known, allowed := s.attrs.SetCategorical(name, str)
	if !known {
		return nil, apperr.New(apperr.ErrInvalidInput, fmt.Sprintf("unknown attribute %q", name))
	}
	if !allowed {
		return nil, apperr.New(apperr.ErrInvalidInput, fmt.Sprintf("%q is not a valid option for %s", str, name))
	}
	return str, nil
}

// Submit sends the current attributes for prediction on behalf of userID.
//
// An empty userID fails with Unauthenticated before any call is made. On a
// successful prediction the local risk factors are derived from the same
// snapshot and one persist call is made; a persist failure leaves the session
// succeeded with a PersistFailed warning. A Submit while another is in flight is
// refused with SubmissionInFlight and changes nothing.
func (s *Session) Submit(ctx context.Context, userID string) (*Result, error) {
	s.mu.Lock()
	s.touch()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return nil, apperr.New(apperr.ErrSubmissionInFlight, "a submission is already in progress")
	}
	if userID == "" {
		err := apperr.New(apperr.ErrUnauthenticated, "sign in to submit an assessment")
		s.state = StateFailed
		s.result = nil
		s.err = err
		s.warning = nil
		s.mu.Unlock()
		return nil, err
	}
	s.state = StateSubmitting
	s.err = nil
	s.warning = nil
	snapshot := s.attrs
	attempt := s.attempt
	s.mu.Unlock()

	log := s.deps.Log.With(zap.String("session", s.ID.String()), zap.String("user_id", userID))

	pred, err := s.deps.Predictor.Predict(ctx, snapshot)
	if err != nil {
		log.Warn("Prediction failed", zap.Error(err))
		s.finish(attempt, nil, err, nil)
		return nil, err
	}

	result := &Result{
		Label:   pred.Label,
		Tier:    pred.Tier,
		Factors: risk.Analyze(snapshot),
	}
	metrics.RecordPrediction("tabular", string(pred.Tier))

	var warning error
	rec, err := s.deps.Recorder.InsertPrediction(ctx, userID, snapshot, pred.Label)
	if err != nil {
		warning = apperr.Wrap(apperr.ErrPersistFailed, "the result could not be saved to your history", err)
		metrics.RecordPersistFailure()
		log.Error("Failed to persist prediction", zap.Error(err))
	} else {
		result.PredictionID = &rec.ID
		if s.deps.Notifier != nil {
			s.deps.Notifier.PredictionCreated(ctx, rec)
		}
	}

	s.finish(attempt, result, nil, warning)
	return result, warning
}

// finish records the outcome of attempt unless the session was reset meanwhile.
func (s *Session) finish(attempt uint64, result *Result, err, warning error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt != s.attempt {
		s.deps.Log.Debug("Dropping outcome of a reset attempt", zap.String("session", s.ID.String()))
		return
	}
	s.touch()
	s.result = result
	s.err = err
	s.warning = warning
	if err != nil {
		s.state = StateFailed
	} else {
		s.state = StateSucceeded
	}
}

// touch must be called with mu held.
func (s *Session) touch() {
	s.lastActive = time.Now()
}

// LastActive reports when the session was last used.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// View is a consistent snapshot of a session.
type View struct {
	ID              uuid.UUID               `json:"id"`
	State           State                   `json:"state"`
	SubmissionState string                  `json:"submission_state"`
	Step            int                     `json:"step"`
	StepCount       int                     `json:"step_count"`
	CompletedSteps  []int                   `json:"completed_steps"`
	Attributes      models.HealthAttributes `json:"attributes"`
	Result          *Result                 `json:"result"`
	Error           *Problem                `json:"error"`
	Warning         *Problem                `json:"warning"`
}

// Problem is the client-facing form of an error.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func problem(err error) *Problem {
	if err == nil {
		return nil
	}
	return &Problem{Code: apperr.Code(err), Message: apperr.Message(err)}
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := make([]int, 0, len(s.completed))
	for i := range s.completed {
		completed = append(completed, i)
	}
	sort.Ints(completed)

	return View{
		ID:              s.ID,
		State:           s.state,
		SubmissionState: s.state.SubmissionState(),
		Step:            s.step,
		StepCount:       s.steps,
		CompletedSteps:  completed,
		Attributes:      s.attrs,
		Result:          s.result,
		Error:           problem(s.err),
		Warning:         problem(s.warning),
	}
}

func clamp(i, lo, hi int) int {
	if i < lo {
		return lo
	}
	if i > hi {
		return hi
	}
	return i
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
