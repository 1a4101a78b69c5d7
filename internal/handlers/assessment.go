package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/AhmedHarera/HeartFailure/internal/apperr"
	"github.com/AhmedHarera/HeartFailure/internal/identity"
	"github.com/AhmedHarera/HeartFailure/internal/models"
	"github.com/AhmedHarera/HeartFailure/internal/registry"
	"github.com/AhmedHarera/HeartFailure/internal/wizard"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AssessmentHandler drives wizard sessions.
type AssessmentHandler struct {
	log           *zap.Logger
	questionnaire *models.Questionnaire
	sessions      *registry.Registry[*wizard.Session]
	deps          wizard.Deps
}

func NewAssessmentHandler(log *zap.Logger, questionnaire *models.Questionnaire, sessions *registry.Registry[*wizard.Session], deps wizard.Deps) *AssessmentHandler {
	if deps.Log == nil {
		deps.Log = log
	}
	return &AssessmentHandler{log: log, questionnaire: questionnaire, sessions: sessions, deps: deps}
}

// Questionnaire returns the wizard step definitions.
func (h *AssessmentHandler) Questionnaire(c *gin.Context) {
	c.JSON(http.StatusOK, h.questionnaire)
}

// Create starts a fresh wizard session for the caller.
func (h *AssessmentHandler) Create(c *gin.Context) {
	s := wizard.NewSession(h.questionnaire.StepCount(), h.deps)
	h.sessions.Put(s.ID, identity.Owner(c), s)
	h.log.Debug("Wizard session created", zap.String("session", s.ID.String()))
	c.JSON(http.StatusCreated, s.View())
}

func (h *AssessmentHandler) Get(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// Discard drops the session.
func (h *AssessmentHandler) Discard(c *gin.Context) {
	id, err := sessionID(c)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	if !h.sessions.Delete(id, identity.Owner(c)) {
		respondError(c, errBadID, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetAttributes applies a batch of field values. Every field is attempted; the
// response lists the values actually stored and the fields that were refused.
func (h *AssessmentHandler) SetAttributes(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil || len(body) == 0 {
		respondError(c, apperr.New(apperr.ErrInvalidInput, "expected a JSON object of attribute values"), nil)
		return
	}

	names := make([]string, 0, len(body))
	for name := range body {
		names = append(names, name)
	}
	sort.Strings(names)

	stored := gin.H{}
	invalid := gin.H{}
	for _, name := range names {
		v, err := s.SetAttribute(name, body[name])
		if err != nil {
			invalid[name] = apperr.Message(err)
			continue
		}
		stored[name] = v
	}

	if len(invalid) > 0 {
		respondError(c, apperr.New(apperr.ErrInvalidInput, fmt.Sprintf("%d attribute(s) rejected", len(invalid))),
			gin.H{"invalid": invalid, "stored": stored, "assessment": s.View()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stored": stored, "assessment": s.View()})
}

func (h *AssessmentHandler) GoToStep(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, apperr.New(apperr.ErrInvalidInput, "step index must be an integer"), nil)
		return
	}
	s.GoToStep(i)
	c.JSON(http.StatusOK, s.View())
}

func (h *AssessmentHandler) Next(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	s.Next()
	c.JSON(http.StatusOK, s.View())
}

func (h *AssessmentHandler) Previous(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	s.Previous()
	c.JSON(http.StatusOK, s.View())
}

// Submit runs the prediction for the session. A persist failure still answers
// 200 with the result; the warning is part of the session view.
func (h *AssessmentHandler) Submit(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}

	_, err := s.Submit(c.Request.Context(), identity.UserID(c))
	if err != nil && !isWarning(err) {
		respondError(c, err, gin.H{"assessment": s.View()})
		return
	}
	c.JSON(http.StatusOK, s.View())
}

func (h *AssessmentHandler) load(c *gin.Context) (*wizard.Session, bool) {
	id, err := sessionID(c)
	if err != nil {
		respondError(c, err, nil)
		return nil, false
	}
	s, ok := h.sessions.Get(id, identity.Owner(c))
	if !ok {
		respondError(c, errBadID, nil)
		return nil, false
	}
	return s, true
}
