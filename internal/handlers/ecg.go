package handlers

import (
	"io"
	"net/http"

	"github.com/AhmedHarera/HeartFailure/internal/analytics"
	"github.com/AhmedHarera/HeartFailure/internal/apperr"
	"github.com/AhmedHarera/HeartFailure/internal/ecg"
	"github.com/AhmedHarera/HeartFailure/internal/identity"
	"github.com/AhmedHarera/HeartFailure/internal/registry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxECGUpload bounds the size of an uploaded recording.
const maxECGUpload = 16 << 20

// ECGHandler drives signal intake flows.
type ECGHandler struct {
	log        *zap.Logger
	flows      *registry.Registry[*ecg.Flow]
	classifier ecg.Classifier
}

func NewECGHandler(log *zap.Logger, flows *registry.Registry[*ecg.Flow], classifier ecg.Classifier) *ECGHandler {
	return &ECGHandler{log: log, flows: flows, classifier: classifier}
}

// Create starts a flow and probes the service before answering.
func (h *ECGHandler) Create(c *gin.Context) {
	f := ecg.NewFlow(h.classifier, h.log)
	h.flows.Put(f.ID, identity.Owner(c), f)
	f.Activate(c.Request.Context())
	c.JSON(http.StatusCreated, f.View())
}

func (h *ECGHandler) Get(c *gin.Context) {
	f, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, f.View())
}

// Probe re-checks the service.
func (h *ECGHandler) Probe(c *gin.Context) {
	f, ok := h.load(c)
	if !ok {
		return
	}
	f.Activate(c.Request.Context())
	c.JSON(http.StatusOK, f.View())
}

// SelectFile reads the multipart "file" field and makes it the pending recording.
func (h *ECGHandler) SelectFile(c *gin.Context) {
	f, ok := h.load(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxECGUpload)
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, apperr.Wrap(apperr.ErrNoFile, "expected a multipart file field named \"file\"", err), nil)
		return
	}
	src, err := fh.Open()
	if err != nil {
		respondError(c, apperr.Wrap(apperr.ErrInvalidInput, "could not read the uploaded file", err), nil)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		respondError(c, apperr.Wrap(apperr.ErrInvalidInput, "could not read the uploaded file", err), nil)
		return
	}
	f.SelectFile(fh.Filename, data)
	c.JSON(http.StatusOK, f.View())
}

// Submit uploads the pending recording for classification.
func (h *ECGHandler) Submit(c *gin.Context) {
	f, ok := h.load(c)
	if !ok {
		return
	}
	if _, err := f.Submit(c.Request.Context()); err != nil {
		respondError(c, err, gin.H{"ecg": f.View()})
		return
	}
	c.JSON(http.StatusOK, f.View())
}

// Chart returns the samples of the last result as a chart option.
func (h *ECGHandler) Chart(c *gin.Context) {
	f, ok := h.load(c)
	if !ok {
		return
	}
	res := f.Result()
	if res == nil {
		respondError(c, apperr.New(apperr.ErrNotFound, "no ECG result to plot yet"), nil)
		return
	}
	c.JSON(http.StatusOK, analytics.SamplesChart(res.ECGData, res.Prediction).JSON())
}

func (h *ECGHandler) load(c *gin.Context) (*ecg.Flow, bool) {
	id, err := sessionID(c)
	if err != nil {
		respondError(c, err, nil)
		return nil, false
	}
	f, ok := h.flows.Get(id, identity.Owner(c))
	if !ok {
		respondError(c, errBadID, nil)
		return nil, false
	}
	return f, true
}
