package gemini

import (
	"context"

	"go.uber.org/zap"

	"github.com/mikey/spam-guardian/internal/config"
	"github.com/mikey/spam-guardian/internal/core"
	"github.com/mikey/spam-guardian/internal/utils"
)

// Factory creates new instances of GeminiClient
type Factory struct {
	cfg           config.ProviderConfig
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for GeminiClient instances
func NewFactory(cfg config.ProviderConfig, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateLLMClient creates a new GeminiClient
func (f *Factory) CreateLLMClient() (core.LLMClient, error) {
	return NewGeminiClient(context.Background(), f.cfg, f.logger, f.textProcessor)
}
