package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/spam-guardian/internal/config"
	"github.com/mikey/spam-guardian/internal/core"
)

// PipelineFactory creates the classification service and the pipeline around it
type PipelineFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewPipelineFactory creates a new pipeline factory
func NewPipelineFactory(cfg *config.Config, logger *zap.Logger) *PipelineFactory {
	return &PipelineFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClassificationService wraps llmClient with the configured call timeout
func (f *PipelineFactory) CreateClassificationService(llmClient core.LLMClient) (*core.ClassificationService, error) {
	llmConfig, err := f.cfg.GetLLM()
	if err != nil {
		return nil, err
	}
	return core.NewClassificationService(llmClient, f.logger, llmConfig.Timeout), nil
}

// CreatePipeline creates a pipeline with the configured stage delays
func (f *PipelineFactory) CreatePipeline(normalizer core.Normalizer, classifier core.Classifier) (*core.Pipeline, error) {
	pc, err := f.cfg.GetPipeline()
	if err != nil {
		return nil, err
	}
	delays := core.StageDelays{
		Validation:        pc.ValidationDelay,
		Preprocessing:     pc.PreprocessingDelay,
		FeatureExtraction: pc.FeatureExtractionDelay,
	}
	return core.NewPipeline(normalizer, classifier, delays, f.logger), nil
}
