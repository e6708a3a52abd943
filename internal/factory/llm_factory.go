package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/spam-guardian/internal/adapters/bedrock"
	"github.com/mikey/spam-guardian/internal/adapters/gemini"
	"github.com/mikey/spam-guardian/internal/adapters/openai"
	"github.com/mikey/spam-guardian/internal/config"
	"github.com/mikey/spam-guardian/internal/core"
	"github.com/mikey/spam-guardian/internal/utils"
)

// LLMFactory creates LLM clients
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateLLMClient creates a new LLM client based on the configuration.
// Missing credentials or a client that cannot be built yield an
// UnavailableClient so the process still starts; an unknown provider is an error.
func (f *LLMFactory) CreateLLMClient() (core.LLMClient, error) {
	llmConfig, err := f.cfg.GetLLM()
	if err != nil {
		return nil, err
	}

	var (
		client core.LLMClient
		model  string
	)
	switch llmConfig.Provider {
	case "gemini":
		geminiCfg := f.cfg.GetGemini()
		model = geminiCfg.ModelName
		if geminiCfg.APIKey == "" {
			return f.unavailable(llmConfig.Provider, model, "gemini API key is not configured"), nil
		}
		client, err = gemini.NewFactory(geminiCfg, f.logger, f.textProcessor).CreateLLMClient()
	case "openai":
		openaiCfg := f.cfg.GetOpenAI()
		model = openaiCfg.ModelName
		if openaiCfg.APIKey == "" {
			return f.unavailable(llmConfig.Provider, model, "openai API key is not configured"), nil
		}
		client, err = openai.NewFactory(openaiCfg, f.logger, f.textProcessor).CreateLLMClient()
	case "bedrock":
		bedrockCfg := f.cfg.GetBedrock()
		model = bedrockCfg.ModelID
		client, err = bedrock.NewFactory(bedrockCfg, f.logger, f.textProcessor).CreateLLMClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}

	if err != nil {
		return f.unavailable(llmConfig.Provider, model, err.Error()), nil
	}

	f.logger.Info("LLM client ready",
		zap.String("provider", llmConfig.Provider),
		zap.String("model", client.ModelName()))
	return client, nil
}

func (f *LLMFactory) unavailable(provider, model, reason string) core.LLMClient {
	f.logger.Warn("LLM client unavailable, classification requests will fail",
		zap.String("provider", provider),
		zap.String("model", model),
		zap.String("reason", reason))
	return NewUnavailableClient(model, reason)
}
