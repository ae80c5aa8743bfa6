package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/receiptly/backend/internal/domain"
	"github.com/receiptly/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	engine    *usecase.ReconciliationEngine
	overrides domain.OverrideRepository
	log       *logrus.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(engine *usecase.ReconciliationEngine, overrides domain.OverrideRepository, log *logrus.Logger) *Handler {
	return &Handler{engine: engine, overrides: overrides, log: log}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "receiptly-backend",
		"version": "1.0.0",
	})
}

// reconcileRequest is one extracted receipt submitted for matching.
type reconcileRequest struct {
	Lines []domain.ReceiptLineItem `json:"lines" binding:"required"`
}

// reconcileResponse pairs per-line results with batch statistics.
type reconcileResponse struct {
	Results []domain.MatchResult `json:"results"`
	Summary domain.BatchSummary  `json:"summary"`
}

// Reconcile matches a batch of receipt lines against the catalog.
func (h *Handler) Reconcile(c *gin.Context) {
	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.Lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one line item is required"})
		return
	}

	results, summary, err := h.engine.ReconcileBatch(c.Request.Context(), req.Lines)
	if err != nil {
		h.log.WithError(err).Error("batch reconciliation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
		return
	}

	c.JSON(http.StatusOK, reconcileResponse{Results: results, Summary: summary})
}

// ListOverrides returns every stored override for the review UI.
func (h *Handler) ListOverrides(c *gin.Context) {
	entries, err := h.overrides.List(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("override list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list overrides"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"overrides": entries})
}

// PutOverride stores a review decision. Staged suggestions never replace
// a manual entry; that conflict surfaces as 409.
func (h *Handler) PutOverride(c *gin.Context) {
	var entry domain.OverrideEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if entry.ReceiptID == "" || entry.RawName == "" || entry.ProductID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receiptId, rawName and productId are required"})
		return
	}

	err := h.overrides.Upsert(c.Request.Context(), entry)
	if errors.Is(err, domain.ErrOverrideConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "a manual override already exists for this line"})
		return
	}
	if err != nil {
		h.log.WithError(err).Error("override upsert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store override"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "stored"})
}
