package services

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"risk-assessor/internal/config"
	"risk-assessor/internal/logger"
	"risk-assessor/internal/models"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCompletionClient is a mock implementation of CompletionClientInterface
type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, prompt, model, apiBase string, maxTokens int) (string, error) {
	args := m.Called(ctx, prompt, model, apiBase, maxTokens)
	return args.String(0), args.Error(1)
}

func (m *MockCompletionClient) Probe(ctx context.Context, apiBase string) bool {
	args := m.Called(ctx, apiBase)
	return args.Bool(0)
}

// MockEvidenceGatherer is a mock implementation of EvidenceGatherer
type MockEvidenceGatherer struct {
	mock.Mock
}

func (m *MockEvidenceGatherer) GatherEvidence(ctx context.Context, companyName string, method models.SearchMethod, searxngURL string) models.EvidenceBundle {
	args := m.Called(ctx, companyName, method, searxngURL)
	return args.Get(0).(models.EvidenceBundle)
}

const (
	testAPIBase = "http://llm.local/v1"
	testModel   = "test-model"
)

func setupTestConfig() *config.Config {
	return &config.Config{
		LLMAPIBase:       testAPIBase,
		LLMModel:         testModel,
		LLMMaxTokens:     2048,
		BatchConcurrency: 2,
	}
}

func setupTestService(evidence EvidenceGatherer, client *MockCompletionClient) *AssessmentService {
	s := NewAssessmentService(setupTestConfig(), evidence, client)
	nullLogger, _ := test.NewNullLogger()
	s.logger = nullLogger
	return s
}

func promptContaining(fragment string) interface{} {
	return mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, fragment)
	})
}

func sampleEvidence() models.EvidenceBundle {
	return models.EvidenceBundle{
		WebText: "=== MAIN WEBSITE: https://acme.com ===\nAcme publishes an annual risk and compliance report.",
		URLDetails: []models.URLDetail{
			{URL: "https://acme.com", Type: models.URLDetailPrimary, Title: "Acme", Tool: "DDG"},
		},
	}
}

func TestAssessmentService_Assess_AllSources(t *testing.T) {
	client := new(MockCompletionClient)
	client.On("Complete", mock.Anything, promptContaining("QUESTIONNAIRE RESPONSES:\nHas BCP: Yes"), testModel, testAPIBase, 2048).
		Return(`{"is_correct": true, "recommended_rating": "Low", "explanation": "Solid answers"}`, nil)
	client.On("Complete", mock.Anything, promptContaining("COMMENTS:\nNo incidents"), testModel, testAPIBase, 2048).
		Return(`{"is_correct": true, "recommended_rating": "low", "explanation": "Quiet history"}`, nil)
	client.On("Complete", mock.Anything, promptContaining("SCRAPED WEBSITE CONTENT"), testModel, testAPIBase, 2048).
		Return(`{"is_correct": false, "recommended_rating": "Medium", "explanation": "Report mentions audits"}`, nil)

	evidence := new(MockEvidenceGatherer)
	evidence.On("GatherEvidence", mock.Anything, "Acme Corp", models.SearchDDG, "").Return(sampleEvidence())

	service := setupTestService(evidence, client)
	result := service.Assess(context.Background(), models.AssessmentInput{
		RequestID:         "req-1",
		CompanyName:       "  Acme Corp ",
		QuestionnaireData: map[string]string{"Has BCP": "Yes", "Notes": ""},
		Comments:          "No incidents",
		CurrentRating:     "Low",
		AssessmentTypes:   []models.AssessmentType{"questionnaire", "comments", "internet"},
		SearchMethod:      models.SearchDDG,
	})

	assert.Empty(t, result.Error)
	assert.Equal(t, "req-1", result.RequestID)
	assert.Equal(t, "Acme Corp", result.CompanyName)
	require.Len(t, result.Assessments, 3)
	assert.Equal(t, "Low", result.Assessments[models.AssessmentQuestionnaire].RecommendedRating)
	assert.Equal(t, "Low", result.Assessments[models.AssessmentComments].RecommendedRating)

	internet := result.Assessments[models.AssessmentInternet]
	assert.Equal(t, "Medium", internet.RecommendedRating)
	assert.Equal(t, []string{"https://acme.com (Acme)"}, internet.Links)

	client.AssertExpectations(t)
	evidence.AssertExpectations(t)
}

func TestAssessmentService_Assess_BlankCompanyName(t *testing.T) {
	client := new(MockCompletionClient)
	evidence := new(MockEvidenceGatherer)

	result := setupTestService(evidence, client).Assess(context.Background(), models.AssessmentInput{
		CompanyName:     "   ",
		AssessmentTypes: []models.AssessmentType{models.AssessmentInternet},
	})

	assert.Equal(t, "company name is required", result.Error)
	assert.Empty(t, result.Assessments)
	assert.NotEmpty(t, result.RequestID)
	client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	evidence.AssertNotCalled(t, "GatherEvidence", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAssessmentService_Assess_Defaults(t *testing.T) {
	client := new(MockCompletionClient)
	client.On("Complete", mock.Anything, promptContaining("Current Risk Rating: Unknown"), testModel, testAPIBase, 2048).
		Return(`{"is_correct": false, "explanation": "no rating given"}`, nil)
	evidence := new(MockEvidenceGatherer)

	ctx := logger.ContextWithCorrelationID(context.Background(), "ctx-correlation")
	result := setupTestService(evidence, client).Assess(ctx, models.AssessmentInput{
		CompanyName:     "Acme",
		AssessmentTypes: []models.AssessmentType{models.AssessmentComments},
		LLM:             models.LLMConfig{APIBase: testAPIBase + "/"},
	})

	assert.Equal(t, "ctx-correlation", result.RequestID)
	assert.Equal(t, "Unknown", result.CurrentRating)
	assert.Equal(t, "Unknown", result.Assessments[models.AssessmentComments].RecommendedRating)
	evidence.AssertNotCalled(t, "GatherEvidence", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	client.AssertExpectations(t)
}

func TestAssessmentService_Assess_UnknownAndDuplicateTypes(t *testing.T) {
	client := new(MockCompletionClient)
	client.On("Complete", mock.Anything, mock.Anything, testModel, testAPIBase, 2048).
		Return(`{"is_correct": true, "recommended_rating": "High", "explanation": "ok"}`, nil).Once()
	evidence := new(MockEvidenceGatherer)

	result := setupTestService(evidence, client).Assess(context.Background(), models.AssessmentInput{
		CompanyName:     "Acme",
		CurrentRating:   "High",
		AssessmentTypes: []models.AssessmentType{"Questionnaire", "questionnaire", "survey"},
	})

	assert.Empty(t, result.Error)
	require.Len(t, result.Assessments, 1)
	assert.Contains(t, result.Assessments, models.AssessmentQuestionnaire)
	client.AssertNumberOfCalls(t, "Complete", 1)
}

func TestAssessmentService_Assess_UnrecognizedSearchMethod(t *testing.T) {
	client := new(MockCompletionClient)
	evidence := new(MockEvidenceGatherer)
	evidence.On("GatherEvidence", mock.Anything, "Acme", models.SearchCombined, "http://searx.local").
		Return(models.EvidenceBundle{URLDetails: []models.URLDetail{}})

	result := setupTestService(evidence, client).Assess(context.Background(), models.AssessmentInput{
		CompanyName:     "Acme",
		CurrentRating:   "Medium",
		AssessmentTypes: []models.AssessmentType{models.AssessmentInternet},
		SearchMethod:    "bing",
		SearXNGURL:      "http://searx.local",
	})

	internet := result.Assessments[models.AssessmentInternet]
	assert.Equal(t, "Medium", internet.RecommendedRating)
	assert.Contains(t, internet.Explanation, "Unable to scrape sufficient website content")
	client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	evidence.AssertExpectations(t)
}

type panickingGatherer struct{}

func (panickingGatherer) GatherEvidence(ctx context.Context, companyName string, method models.SearchMethod, searxngURL string) models.EvidenceBundle {
	panic("scraper exploded")
}

func TestAssessmentService_Assess_PanicIsRecorded(t *testing.T) {
	client := new(MockCompletionClient)
	client.On("Complete", mock.Anything, mock.Anything, testModel, testAPIBase, 2048).
		Return(`{"is_correct": true, "recommended_rating": "Low", "explanation": "ok"}`, nil)

	result := setupTestService(panickingGatherer{}, client).Assess(context.Background(), models.AssessmentInput{
		CompanyName:     "Acme",
		CurrentRating:   "Low",
		AssessmentTypes: []models.AssessmentType{models.AssessmentComments, models.AssessmentInternet},
	})

	assert.Contains(t, result.Error, "internet assessment panicked: scraper exploded")
	assert.Contains(t, result.Assessments, models.AssessmentComments)
	assert.NotContains(t, result.Assessments, models.AssessmentInternet)
}

func TestAssessmentService_Assess_Cancelled(t *testing.T) {
	client := new(MockCompletionClient)
	client.On("Complete", mock.Anything, mock.Anything, testModel, testAPIBase, 2048).
		Return("", context.Canceled)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := setupTestService(new(MockEvidenceGatherer), client).Assess(ctx, models.AssessmentInput{
		CompanyName:     "Acme",
		CurrentRating:   "High",
		AssessmentTypes: []models.AssessmentType{models.AssessmentComments},
	})

	assert.Contains(t, result.Error, "assessment cancelled")
	assert.Equal(t, "High", result.Assessments[models.AssessmentComments].RecommendedRating)
}

// countingGatherer records the peak number of concurrent calls
type countingGatherer struct {
	active  int32
	peak    int32
	mu      sync.Mutex
	invoked []string
}

func (g *countingGatherer) GatherEvidence(ctx context.Context, companyName string, method models.SearchMethod, searxngURL string) models.EvidenceBundle {
	n := atomic.AddInt32(&g.active, 1)
	for {
		peak := atomic.LoadInt32(&g.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&g.peak, peak, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	atomic.AddInt32(&g.active, -1)

	g.mu.Lock()
	g.invoked = append(g.invoked, companyName)
	g.mu.Unlock()

	if companyName == "Broken" {
		panic("boom")
	}
	return models.EvidenceBundle{URLDetails: []models.URLDetail{}}
}

func TestAssessmentService_AssessBatch(t *testing.T) {
	gatherer := &countingGatherer{}
	service := setupTestService(gatherer, new(MockCompletionClient))

	names := []string{"Alpha", "Beta", "Broken", "", "Delta", "Echo"}
	inputs := make([]models.AssessmentInput, 0, len(names))
	for _, name := range names {
		inputs = append(inputs, models.AssessmentInput{
			CompanyName:     name,
			CurrentRating:   "Medium",
			AssessmentTypes: []models.AssessmentType{models.AssessmentInternet},
		})
	}

	results := service.AssessBatch(context.Background(), inputs)

	require.Len(t, results, len(names))
	for i, name := range names {
		assert.Equal(t, name, results[i].CompanyName)
	}
	assert.Empty(t, results[0].Error)
	assert.Contains(t, results[2].Error, "panicked")
	assert.Equal(t, "company name is required", results[3].Error)
	assert.Equal(t, "Medium", results[5].Assessments[models.AssessmentInternet].RecommendedRating)

	assert.Len(t, gatherer.invoked, 5)
	assert.LessOrEqual(t, atomic.LoadInt32(&gatherer.peak), int32(2))
	assert.NotEqual(t, results[0].RequestID, results[1].RequestID)
	assert.True(t, strings.HasSuffix(results[0].RequestID, "-1"))
}

func TestAssessmentService_AssessBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := setupTestService(&countingGatherer{}, new(MockCompletionClient)).AssessBatch(ctx, []models.AssessmentInput{
		{CompanyName: "Alpha", AssessmentTypes: []models.AssessmentType{models.AssessmentInternet}},
	})

	require.Len(t, results, 1)
	assert.Contains(t, results[0].Error, "assessment cancelled")
}

func TestAssessmentService_LLMStatus(t *testing.T) {
	client := new(MockCompletionClient)
	client.On("Probe", mock.Anything, testAPIBase).Return(true)
	client.On("Probe", mock.Anything, "http://other:8000/v1").Return(false)

	service := setupTestService(new(MockEvidenceGatherer), client)

	status := service.LLMStatus(context.Background(), "")
	assert.Equal(t, LLMStatusResponse{APIBase: testAPIBase, Model: testModel, Available: true}, status)

	status = service.LLMStatus(context.Background(), "http://other:8000/v1/")
	assert.False(t, status.Available)
	assert.Equal(t, "http://other:8000/v1", status.APIBase)
}
