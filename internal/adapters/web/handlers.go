package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mikey/spam-guardian/internal/core"
	"github.com/mikey/spam-guardian/internal/metrics"
)

const (
	eventStep    = "step"
	eventResult  = "result"
	eventFailure = "failure"

	emptyInputMessage     = "Please enter email content to classify."
	invalidRequestMessage = "Invalid request body."
	classifyFailedMessage = "Classification failed."
)

// PipelineRequest is the body of POST /api/pipeline
type PipelineRequest struct {
	RawText string `json:"rawText"`
}

// errorResponse is the JSON body of every error reply
type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the classifier UI and its JSON API
type Handler struct {
	pipeline   *core.Pipeline
	classifier core.Classifier
	normalizer core.Normalizer
	dashboard  metrics.Dashboard
	modelName  string
	logger     *zap.Logger
}

// NewHandler creates the HTTP handlers
func NewHandler(
	pipeline *core.Pipeline,
	classifier core.Classifier,
	normalizer core.Normalizer,
	presenter *metrics.Presenter,
	llmClient core.LLMClient,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		pipeline:   pipeline,
		classifier: classifier,
		normalizer: normalizer,
		dashboard:  presenter.Dashboard(),
		modelName:  llmClient.ModelName(),
		logger:     logger,
	}
}

// Register mounts every route on r
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.index)
	r.GET("/healthz", h.health)

	api := r.Group("/api")
	{
		api.POST("/pipeline", h.runPipeline)
		api.POST("/classify", h.classify)
		api.GET("/metrics", h.metrics)
	}
}

func (h *Handler) index(c *gin.Context) {
	c.HTML(http.StatusOK, indexTemplate, pageData{
		Stages:    stageNames(),
		Dashboard: h.dashboard,
		ModelName: h.modelName,
	})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.dashboard)
}

// runPipeline streams every session snapshot as a server-sent event
func (h *Handler) runPipeline(c *gin.Context) {
	var req PipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: invalidRequestMessage})
		return
	}
	if strings.TrimSpace(req.RawText) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: emptyInputMessage})
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	// A started run finishes even if the browser goes away
	ctx := context.WithoutCancel(c.Request.Context())

	sess, err := h.pipeline.Run(ctx, req.RawText, func(snap core.Session) {
		c.SSEvent(eventStep, snap)
		c.Writer.Flush()
	})
	if err != nil {
		c.SSEvent(eventFailure, sess)
	} else {
		c.SSEvent(eventResult, sess)
	}
	c.Writer.Flush()
}

// classify answers one verdict as plain JSON
func (h *Handler) classify(c *gin.Context) {
	var req core.ClassificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: invalidRequestMessage})
		return
	}
	if strings.TrimSpace(req.RawText) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: emptyInputMessage})
		return
	}
	if req.CleanedText == "" {
		req.CleanedText = h.normalizer.Normalize(req.RawText)
	}

	result, err := h.classifier.Classify(context.WithoutCancel(c.Request.Context()), req.RawText, req.CleanedText)
	if err != nil {
		h.logger.Warn("Classify request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: classifyFailedMessage})
		return
	}
	c.JSON(http.StatusOK, result)
}

func stageNames() []string {
	steps := core.NewSession().Steps
	names := make([]string, len(steps))
	for i, step := range steps {
		names[i] = step.Name
	}
	return names
}
