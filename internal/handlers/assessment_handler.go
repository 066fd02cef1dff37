package handlers

import (
	"fmt"
	"net/http"

	"risk-assessor/internal/logger"
	"risk-assessor/internal/models"
	"risk-assessor/internal/services"

	"github.com/gin-gonic/gin"
)

// AssessmentResponse is one company's assessment plus its display summary
type AssessmentResponse struct {
	models.CompanyAssessment
	Summary []models.SummaryRow `json:"summary"`
}

// BatchRequest carries several companies to assess
type BatchRequest struct {
	Companies []models.AssessmentInput `json:"companies"`
}

// BatchResponse reports every company in request order
type BatchResponse struct {
	Results []AssessmentResponse `json:"results"`
	Total   int                  `json:"total"`
	Failed  int                  `json:"failed"`
}

type AssessmentHandler struct {
	assessmentService services.AssessmentServiceInterface
}

func NewAssessmentHandler(assessmentService services.AssessmentServiceInterface) *AssessmentHandler {
	return &AssessmentHandler{
		assessmentService: assessmentService,
	}
}

// CreateAssessment assesses a single company and returns the result synchronously
func (h *AssessmentHandler) CreateAssessment(c *gin.Context) {
	correlationID := getCorrelationID(c)

	var in models.AssessmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		logger.Log.WithFields(map[string]interface{}{
			"correlation_id": correlationID,
			"error":          err.Error(),
		}).Warn("Invalid assessment request body")
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body: "+err.Error(), correlationID)
		return
	}

	if err := validateAssessmentInput(in); err != nil {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), correlationID)
		return
	}

	if in.RequestID == "" {
		in.RequestID = correlationID
	}

	logger.Log.WithFields(map[string]interface{}{
		"correlation_id":   correlationID,
		"company":          in.CompanyName,
		"assessment_types": in.AssessmentTypes,
		"search_method":    in.SearchMethod,
		"client_ip":        c.ClientIP(),
	}).Info("Assessment request received")

	ctx := logger.ContextWithCorrelationID(c.Request.Context(), correlationID)
	result := h.assessmentService.Assess(ctx, in)

	c.JSON(http.StatusOK, newAssessmentResponse(result))
}

// CreateBatchAssessment assesses several companies. Per-company failures are
// reported in each result's error field and never fail the request.
func (h *AssessmentHandler) CreateBatchAssessment(c *gin.Context) {
	correlationID := getCorrelationID(c)

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body: "+err.Error(), correlationID)
		return
	}
	if len(req.Companies) == 0 {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "companies must not be empty", correlationID)
		return
	}
	if len(req.Companies) > maxBatchSize {
		errorResponse(c, http.StatusBadRequest, "BATCH_TOO_LARGE",
			fmt.Sprintf("batch size %d exceeds limit of %d", len(req.Companies), maxBatchSize), correlationID)
		return
	}

	logger.Log.WithFields(map[string]interface{}{
		"correlation_id": correlationID,
		"companies":      len(req.Companies),
	}).Info("Batch assessment request received")

	results := h.assessmentService.AssessBatch(c.Request.Context(), req.Companies)

	resp := BatchResponse{
		Results: make([]AssessmentResponse, 0, len(results)),
		Total:   len(results),
	}
	for _, r := range results {
		if r.Error != "" {
			resp.Failed++
		}
		resp.Results = append(resp.Results, newAssessmentResponse(r))
	}

	c.JSON(http.StatusOK, resp)
}

// GetLLMStatus probes the configured or supplied model server
func (h *AssessmentHandler) GetLLMStatus(c *gin.Context) {
	correlationID := getCorrelationID(c)
	apiBase := c.Query("api_base")

	ctx := logger.ContextWithCorrelationID(c.Request.Context(), correlationID)
	status := h.assessmentService.LLMStatus(ctx, apiBase)

	logger.Log.WithFields(map[string]interface{}{
		"correlation_id": correlationID,
		"api_base":       status.APIBase,
		"available":      status.Available,
	}).Info("LLM status checked")

	c.JSON(http.StatusOK, status)
}

func newAssessmentResponse(result models.CompanyAssessment) AssessmentResponse {
	return AssessmentResponse{
		CompanyAssessment: result,
		Summary:           result.Summary(),
	}
}
