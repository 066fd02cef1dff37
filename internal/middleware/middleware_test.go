package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"risk-assessor/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRouter(middlewares ...gin.HandlerFunc) (*gin.Engine, *capture) {
	gin.SetMode(gin.TestMode)
	captured := &capture{}

	router := gin.New()
	router.Use(middlewares...)
	handler := func(c *gin.Context) {
		captured.ginID = c.GetString("correlation_id")
		captured.ctxID = logger.CorrelationID(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"message": "test"})
	}
	router.GET("/test", handler)
	router.POST("/test", handler)
	router.GET("/panic", func(c *gin.Context) {
		panic("handler exploded")
	})
	return router, captured
}

type capture struct {
	ginID string
	ctxID string
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		expectedID string
	}{
		{
			name:       "with existing correlation ID",
			headers:    map[string]string{"X-Correlation-ID": "existing-correlation-id-123"},
			expectedID: "existing-correlation-id-123",
		},
		{
			name:       "with request ID header",
			headers:    map[string]string{"X-Request-ID": "request-id-456"},
			expectedID: "request-id-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, captured := setupTestRouter(RequestIDMiddleware())

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)

			assert.Equal(t, http.StatusOK, recorder.Code)
			assert.Equal(t, tt.expectedID, captured.ginID)
			assert.Equal(t, tt.expectedID, captured.ctxID)
			assert.Equal(t, tt.expectedID, recorder.Header().Get("X-Correlation-ID"))
		})
	}
}

func TestRequestIDMiddleware_UUIDFormat(t *testing.T) {
	router, captured := setupTestRouter(RequestIDMiddleware())

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, captured.ctxID)
	assert.Equal(t, captured.ctxID, recorder.Header().Get("X-Correlation-ID"))
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		origin         string
		expectedStatus int
		expectedOrigin string
	}{
		{name: "allowed origin", method: http.MethodGet, origin: "http://localhost:3000", expectedStatus: http.StatusOK, expectedOrigin: "http://localhost:3000"},
		{name: "disallowed origin", method: http.MethodGet, origin: "http://evil.example", expectedStatus: http.StatusOK, expectedOrigin: ""},
		{name: "preflight", method: http.MethodOptions, origin: "http://localhost:3000", expectedStatus: http.StatusNoContent, expectedOrigin: "http://localhost:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupTestRouter(CORSMiddleware([]string{"http://localhost:3000"}))

			req := httptest.NewRequest(tt.method, "/test", nil)
			req.Header.Set("Origin", tt.origin)
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)

			assert.Equal(t, tt.expectedStatus, recorder.Code)
			assert.Equal(t, tt.expectedOrigin, recorder.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, recorder.Header().Get("Access-Control-Allow-Headers"), "X-Correlation-ID")
		})
	}
}

func TestCORSMiddleware_Wildcard(t *testing.T) {
	router, _ := setupTestRouter(CORSMiddleware([]string{"*"}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "http://anywhere.example")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, "http://anywhere.example", recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name              string
		method            string
		correlationHeader string
	}{
		{name: "GET request with correlation ID", method: http.MethodGet, correlationHeader: "test-correlation-123"},
		{name: "POST request without correlation ID", method: http.MethodPost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupTestRouter(RequestIDMiddleware(), LoggingMiddleware())

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.correlationHeader != "" {
				req.Header.Set("X-Correlation-ID", tt.correlationHeader)
			}
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)

			assert.Equal(t, http.StatusOK, recorder.Code)
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	router, _ := setupTestRouter(RequestIDMiddleware(), RecoveryMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set("X-Correlation-ID", "panic-correlation")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)

	var body map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body["error"]["code"])
	assert.Equal(t, "panic-correlation", body["error"]["correlation_id"])
}

func TestMiddlewareChaining(t *testing.T) {
	router, captured := setupTestRouter(
		CORSMiddleware([]string{"*"}),
		RequestIDMiddleware(),
		LoggingMiddleware(),
		RecoveryMiddleware(),
	)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.NotEmpty(t, captured.ctxID)
	assert.Equal(t, captured.ctxID, recorder.Header().Get("X-Correlation-ID"))

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "test", response["message"])
}
