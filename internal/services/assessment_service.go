package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"risk-assessor/internal/agents"
	"risk-assessor/internal/clients"
	"risk-assessor/internal/config"
	"risk-assessor/internal/logger"
	"risk-assessor/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrCompanyNameRequired rejects inputs without a company to assess
var ErrCompanyNameRequired = errors.New("company name is required")

// AssessmentServiceInterface defines the interface for assessment operations
type AssessmentServiceInterface interface {
	Assess(ctx context.Context, in models.AssessmentInput) models.CompanyAssessment
	AssessBatch(ctx context.Context, inputs []models.AssessmentInput) []models.CompanyAssessment
	LLMStatus(ctx context.Context, apiBase string) LLMStatusResponse
}

// EvidenceGatherer collects internet evidence for one company
type EvidenceGatherer interface {
	GatherEvidence(ctx context.Context, companyName string, method models.SearchMethod, searxngURL string) models.EvidenceBundle
}

// LLMStatusResponse reports whether the model server answers
type LLMStatusResponse struct {
	APIBase   string `json:"api_base"`
	Model     string `json:"model"`
	Available bool   `json:"available"`
}

// AssessmentService runs every requested evidence source for a company
type AssessmentService struct {
	config   *config.Config
	evidence EvidenceGatherer
	client   clients.CompletionClientInterface
	agents   map[models.AssessmentType]agents.Agent
	logger   *logrus.Logger
}

// NewAssessmentService creates a new assessment service
func NewAssessmentService(cfg *config.Config, evidence EvidenceGatherer, client clients.CompletionClientInterface) *AssessmentService {
	registry := make(map[models.AssessmentType]agents.Agent, len(models.AllAssessmentTypes))
	for _, kind := range models.AllAssessmentTypes {
		agent, err := agents.NewAgent(kind, client, cfg.LLMMaxTokens)
		if err != nil {
			continue
		}
		registry[kind] = agent
	}

	return &AssessmentService{
		config:   cfg,
		evidence: evidence,
		client:   client,
		agents:   registry,
		logger:   logger.Log,
	}
}

// Assess runs the requested assessments for one company. It never fails: invalid
// input, panics and cancellation are reported in the result's Error field.
func (s *AssessmentService) Assess(ctx context.Context, in models.AssessmentInput) (result models.CompanyAssessment) {
	correlationID := s.correlationID(ctx, in.RequestID)
	ctx = logger.ContextWithCorrelationID(ctx, correlationID)
	log := logger.WithCorrelationID(correlationID)

	result = models.CompanyAssessment{
		RequestID:     correlationID,
		CompanyName:   strings.TrimSpace(in.CompanyName),
		CurrentRating: strings.TrimSpace(in.CurrentRating),
		Assessments:   make(map[models.AssessmentType]models.AssessmentResult),
	}
	if result.CurrentRating == "" {
		result.CurrentRating = models.DefaultCurrentRating
	}

	defer s.recoverAssessment(&result, correlationID)

	if result.CompanyName == "" {
		result.Error = ErrCompanyNameRequired.Error()
		log.Warn("Assessment rejected: company name is required")
		return result
	}

	kinds := s.requestedKinds(log, in.AssessmentTypes)
	req := agents.Request{
		CompanyName:       result.CompanyName,
		CurrentRating:     result.CurrentRating,
		QuestionnaireText: in.QuestionnaireText(),
		Comments:          strings.TrimSpace(in.Comments),
		LLM:               s.resolveLLM(in.LLM),
	}

	log.WithFields(map[string]interface{}{
		"company":          result.CompanyName,
		"current_rating":   result.CurrentRating,
		"assessment_types": kinds,
		"search_method":    in.SearchMethod,
	}).Info("Assessment started")
	start := time.Now()

	var mu sync.Mutex
	var g errgroup.Group
	for _, kind := range kinds {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%s assessment panicked: %v", kind, r)
				}
			}()

			kindReq := req
			if kind == models.AssessmentInternet {
				kindReq.Evidence = s.evidence.GatherEvidence(ctx, req.CompanyName, searchMethod(in.SearchMethod), in.SearXNGURL)
			}
			assessment := s.agents[kind].Assess(ctx, kindReq)

			mu.Lock()
			result.Assessments[kind] = assessment
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.LogErrorWithStackAndCorrelation(err, correlationID, map[string]interface{}{
			"company":   result.CompanyName,
			"operation": "run_assessments",
		})
		result.Error = err.Error()
	} else if err := ctx.Err(); err != nil {
		result.Error = fmt.Sprintf("assessment cancelled: %v", err)
	}

	log.WithFields(map[string]interface{}{
		"company":     result.CompanyName,
		"completed":   len(result.Assessments),
		"duration_ms": time.Since(start).Milliseconds(),
		"error":       result.Error,
	}).Info("Assessment completed")

	return result
}

// AssessBatch assesses companies with bounded parallelism and returns results in
// input order. A failure for one company never affects the others. Inputs without a
// request id get one derived from the batch's correlation id.
func (s *AssessmentService) AssessBatch(ctx context.Context, inputs []models.AssessmentInput) []models.CompanyAssessment {
	results := make([]models.CompanyAssessment, len(inputs))
	batchID := s.correlationID(ctx, "")
	log := logger.WithCorrelationID(batchID)
	log.WithFields(map[string]interface{}{
		"companies":   len(inputs),
		"concurrency": s.config.BatchConcurrency,
	}).Info("Batch assessment started")

	var g errgroup.Group
	g.SetLimit(s.config.BatchConcurrency)
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = models.CompanyAssessment{
					CompanyName:   in.CompanyName,
					CurrentRating: in.CurrentRating,
					Assessments:   map[models.AssessmentType]models.AssessmentResult{},
					Error:         fmt.Sprintf("assessment cancelled: %v", err),
				}
				return nil
			}
			if in.RequestID == "" {
				in.RequestID = fmt.Sprintf("%s-%d", batchID, i+1)
			}
			results[i] = s.Assess(ctx, in)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	log.WithFields(map[string]interface{}{
		"companies": len(inputs),
		"failed":    failed,
	}).Info("Batch assessment completed")

	return results
}

// LLMStatus probes the model server's /models endpoint
func (s *AssessmentService) LLMStatus(ctx context.Context, apiBase string) LLMStatusResponse {
	llm := s.resolveLLM(models.LLMConfig{APIBase: apiBase})
	return LLMStatusResponse{
		APIBase:   llm.APIBase,
		Model:     llm.Model,
		Available: s.client.Probe(ctx, llm.APIBase),
	}
}

// requestedKinds keeps known assessment types in request order, without duplicates
func (s *AssessmentService) requestedKinds(log *logrus.Entry, requested []models.AssessmentType) []models.AssessmentType {
	seen := make(map[models.AssessmentType]bool, len(requested))
	kinds := make([]models.AssessmentType, 0, len(requested))
	for _, kind := range requested {
		kind = models.AssessmentType(strings.ToLower(strings.TrimSpace(string(kind))))
		if seen[kind] {
			continue
		}
		if _, ok := s.agents[kind]; !ok {
			log.WithField("assessment_type", kind).Warn("Ignoring unknown assessment type")
			continue
		}
		seen[kind] = true
		kinds = append(kinds, kind)
	}
	return kinds
}

func (s *AssessmentService) resolveLLM(llm models.LLMConfig) models.LLMConfig {
	if strings.TrimSpace(llm.APIBase) == "" {
		llm.APIBase = s.config.LLMAPIBase
	}
	if strings.TrimSpace(llm.Model) == "" {
		llm.Model = s.config.LLMModel
	}
	llm.APIBase = strings.TrimRight(llm.APIBase, "/")
	return llm
}

// correlationID prefers an explicit request id, then one already on the context
func (s *AssessmentService) correlationID(ctx context.Context, requestID string) string {
	if strings.TrimSpace(requestID) != "" {
		return requestID
	}
	if id := logger.CorrelationID(ctx); id != "" {
		return id
	}
	return uuid.New().String()
}

// recoverAssessment turns a panic escaping Assess into the result's Error
func (s *AssessmentService) recoverAssessment(result *models.CompanyAssessment, correlationID string) {
	if r := recover(); r != nil {
		buf := make([]byte, 4096)
		n := runtime.Stack(buf, false)

		s.logger.WithFields(map[string]interface{}{
			"panic":          r,
			"stack_trace":    string(buf[:n]),
			"company":        result.CompanyName,
			"correlation_id": correlationID,
		}).Error("Assessment panicked")

		result.Error = fmt.Sprintf("assessment panicked: %v", r)
	}
}

// searchMethod maps blank and unrecognized methods onto the combined search
func searchMethod(method models.SearchMethod) models.SearchMethod {
	switch method {
	case models.SearchDDG, models.SearchGoogle, models.SearchSearXNG, models.SearchPlaywright, models.SearchAll:
		return method
	}
	return models.SearchCombined
}
