package handlers

import (
	"net/http"
	"strconv"

	"github.com/AhmedHarera/HeartFailure/internal/analytics"
	"github.com/AhmedHarera/HeartFailure/internal/apperr"
	"github.com/AhmedHarera/HeartFailure/internal/identity"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AnalyticsHandler serves the dashboard and the per-user views.
type AnalyticsHandler struct {
	log *zap.Logger
	svc *analytics.Service
}

func NewAnalyticsHandler(log *zap.Logger, svc *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{log: log, svc: svc}
}

func (h *AnalyticsHandler) Summary(c *gin.Context) {
	sum, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// Admin serves the administrator dashboard counts.
func (h *AnalyticsHandler) Admin(c *gin.Context) {
	st, err := h.svc.AdminStats(c.Request.Context())
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *AnalyticsHandler) Trend(c *gin.Context) {
	points, ok := h.trend(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, points)
}

// TrendChart returns the trend series as a chart option.
func (h *AnalyticsHandler) TrendChart(c *gin.Context) {
	points, ok := h.trend(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analytics.TrendChart(points).JSON())
}

func (h *AnalyticsHandler) trend(c *gin.Context) ([]analytics.TrendPoint, bool) {
	r, err := analytics.ParseRange(c.Query("range"))
	if err != nil {
		respondError(c, err, nil)
		return nil, false
	}
	points, err := h.svc.Trend(c.Request.Context(), r)
	if err != nil {
		respondError(c, err, nil)
		return nil, false
	}
	return points, true
}

func (h *AnalyticsHandler) MyStats(c *gin.Context) {
	st, err := h.svc.UserStats(c.Request.Context(), identity.UserID(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, st)
}

// MyPredictions returns the caller's history, newest first. ?limit= caps the count.
func (h *AnalyticsHandler) MyPredictions(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respondError(c, apperr.New(apperr.ErrInvalidInput, "limit must be a non-negative integer"), nil)
			return
		}
		limit = n
	}
	rows, err := h.svc.History(c.Request.Context(), identity.UserID(c), limit)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, rows)
}
