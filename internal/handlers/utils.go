package handlers

import (
	"errors"
	"fmt"
	"strings"

	"risk-assessor/internal/models"
	"risk-assessor/internal/utils"

	"github.com/gin-gonic/gin"
)

// maxBatchSize bounds how many companies one batch request may carry
const maxBatchSize = 100

// getCorrelationID gets or generates a correlation ID for request tracing
func getCorrelationID(c *gin.Context) string {
	if id := c.GetString("correlation_id"); id != "" {
		return id
	}
	if id := c.GetHeader("X-Correlation-ID"); id != "" {
		return id
	}
	return utils.EnsureRequestID(c.GetHeader("X-Request-ID"))
}

// errorResponse writes the standard error envelope
func errorResponse(c *gin.Context, status int, code, message, correlationID string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":           code,
			"message":        message,
			"correlation_id": correlationID,
		},
	})
}

// validateAssessmentInput checks the fields a caller must get right before any
// network work starts
func validateAssessmentInput(in models.AssessmentInput) error {
	if strings.TrimSpace(in.CompanyName) == "" {
		return errors.New("company_name is required")
	}
	if len(in.AssessmentTypes) == 0 {
		return errors.New("assessment_types must not be empty")
	}
	for _, kind := range in.AssessmentTypes {
		if !models.AssessmentType(strings.ToLower(string(kind))).Valid() {
			return fmt.Errorf("unknown assessment type %q", kind)
		}
	}
	if in.SearXNGURL != "" {
		if err := utils.ValidateHTTPURL(in.SearXNGURL, "searxng_url"); err != nil {
			return err
		}
	}
	if in.LLM.APIBase != "" {
		if err := utils.ValidateHTTPURL(in.LLM.APIBase, "llm_config.api_base"); err != nil {
			return err
		}
	}
	return nil
}
