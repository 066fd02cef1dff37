package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"risk-assessor/internal/clients"
	"risk-assessor/internal/config"
	"risk-assessor/internal/evidence"
	"risk-assessor/internal/handlers"
	"risk-assessor/internal/logger"
	"risk-assessor/internal/middleware"
	"risk-assessor/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Setup panic recovery
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithFields(map[string]interface{}{
				"panic":       r,
				"stack_trace": logger.GetStackTrace(0),
			}).Fatal("Application panicked")
		}
	}()

	logger.Log.Info("Starting Risk Assessor Server")

	// Load configuration
	logger.Log.Info("Loading configuration")
	cfg, err := config.Load()
	if err != nil {
		logger.LogErrorWithStack(err, map[string]interface{}{
			"operation": "config_load",
		})
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}
	logger.Log.WithField("log_level", cfg.LogLevel).Info("Configuration loaded successfully")

	logger.SetLevel(cfg.LogLevel)

	// Initialize services
	logger.Log.WithFields(map[string]interface{}{
		"llm_api_base": cfg.LLMAPIBase,
		"llm_model":    cfg.LLMModel,
	}).Info("Initializing services")
	completionClient := clients.NewCompletionClient(cfg)
	assessmentService := services.NewAssessmentService(cfg, evidence.NewCollectorFromConfig(cfg), completionClient)
	logger.Log.Info("Services initialized")

	assessmentHandler := handlers.NewAssessmentHandler(assessmentService)

	router := setupRouter(cfg, assessmentHandler)
	logger.Log.Info("Router configured")

	// An internet assessment runs search, scraping and a completion call, so the
	// write deadline has to outlast the LLM timeout.
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 2*time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"port":       cfg.ServerPort,
			"health_url": "http://localhost:" + cfg.ServerPort + "/health",
		}).Info("Starting risk assessor server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.LogErrorWithStack(err, map[string]interface{}{
				"operation": "server_listen",
				"port":      cfg.ServerPort,
			})
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	stop()
	logger.Log.Info("Shutdown signal received, starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Log.Info("Server gracefully stopped")
}

func setupRouter(cfg *config.Config, assessmentHandler *handlers.AssessmentHandler) *gin.Engine {
	if cfg.LogLevel == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.RecoveryMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "risk-assessor",
			"version": "1.0.0",
		})
	})

	api := router.Group("/api")
	{
		api.GET("/llm/status", assessmentHandler.GetLLMStatus)

		assessments := api.Group("/assessments")
		{
			assessments.POST("", assessmentHandler.CreateAssessment)
			assessments.POST("/batch", assessmentHandler.CreateBatchAssessment)
		}
	}

	return router
}
