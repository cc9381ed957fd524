package api

import (
	"errors"
	"net/http"
	"strconv"

	commonerrors "deal-workers/internal/common/errors"
	"deal-workers/internal/common/logger"
	"deal-workers/internal/ledger"
	"deal-workers/internal/models"
	"deal-workers/internal/pipeline"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *pipeline.Service
	logger  logger.Logger
}

func NewHandler(service *pipeline.Service, log logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

type evaluateRequest struct {
	AccountID   string               `json:"accountId"`
	Opportunity models.Opportunity   `json:"opportunity"`
	Terms       models.ProposedTerms `json:"terms"`
}

type transactionRequest struct {
	Opportunity models.Opportunity   `json:"opportunity"`
	Terms       models.ProposedTerms `json:"terms"`
	CustomerRef string               `json:"customerRef"`
	SupplierRef string               `json:"supplierRef"`
}

func (h *Handler) ScoreOpportunity(c *gin.Context) {
	var opp models.Opportunity
	if !bind(c, &opp) {
		return
	}

	result, err := h.service.Score(opp)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) ValidateDeal(c *gin.Context) {
	var deal models.DealInput
	if !bind(c, &deal) {
		return
	}

	analysis, risk, err := h.service.ValidateDeal(deal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cashflow": analysis, "risk": risk})
}

func (h *Handler) CurrentPhase(c *gin.Context) {
	phase, err := h.service.Phase(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, phase)
}

func (h *Handler) EvaluateOpportunity(c *gin.Context) {
	var req evaluateRequest
	if !bind(c, &req) {
		return
	}

	decision, err := h.service.Evaluate(c.Request.Context(), req.AccountID, req.Opportunity, req.Terms)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

func (h *Handler) RecordTransaction(c *gin.Context) {
	var req transactionRequest
	if !bind(c, &req) {
		return
	}

	tx, decision, err := h.service.Record(c.Request.Context(), ledger.RecordRequest{
		AccountID:   c.Param("id"),
		Opportunity: req.Opportunity,
		Terms:       req.Terms,
		CustomerRef: req.CustomerRef,
		SupplierRef: req.SupplierRef,
	})
	if errors.Is(err, ledger.ErrNotApproved) {
		c.JSON(http.StatusConflict, gin.H{
			"error":    commonerrors.Classify(err),
			"decision": decision,
		})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": tx, "decision": decision})
}

func (h *Handler) OptimizeLogistics(c *gin.Context) {
	var req models.ShipmentRequest
	if !bind(c, &req) {
		return
	}

	route, err := h.service.Optimize(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, route)
}

func (h *Handler) RecentDecisions(c *gin.Context) {
	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size <= 0 || size > 100 {
		writeError(c, commonerrors.NewInvalidInputError("size must be between 1 and 100"))
		return
	}

	entries, err := h.service.Decisions(c.Request.Context(), c.Param("id"), size)
	if errors.Is(err, pipeline.ErrAuditDisabled) {
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Warn("failed to read audited decisions", map[string]interface{}{
			"opportunityId": c.Param("id"),
			"error":         err.Error(),
		})
		writeError(c, commonerrors.NewAuditIndexFailedError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": entries})
}

func bind(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		writeError(c, commonerrors.NewInvalidInputError("malformed request body: "+err.Error()))
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	stdErr := commonerrors.Classify(err)
	c.JSON(statusFor(stdErr.Code), gin.H{"error": stdErr})
}

func statusFor(code commonerrors.ErrorCode) int {
	switch code {
	case commonerrors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case commonerrors.ErrCodeExecutionNotApproved:
		return http.StatusConflict
	case commonerrors.ErrCodeNoRouteAvailable:
		return http.StatusUnprocessableEntity
	case commonerrors.ErrCodeProviderUnavailable:
		return http.StatusBadGateway
	case commonerrors.ErrCodeLedgerReadFailed,
		commonerrors.ErrCodeLedgerAppendFailed,
		commonerrors.ErrCodeDatabaseConnectionFailed,
		commonerrors.ErrCodeAuditIndexFailed:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
