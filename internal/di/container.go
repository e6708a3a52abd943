package di

import (
	"go.uber.org/dig"

	"github.com/mikey/spam-guardian/internal/adapters/web"
	"github.com/mikey/spam-guardian/internal/config"
	"github.com/mikey/spam-guardian/internal/core"
	"github.com/mikey/spam-guardian/internal/factory"
	"github.com/mikey/spam-guardian/internal/logging"
	"github.com/mikey/spam-guardian/internal/metrics"
	"github.com/mikey/spam-guardian/internal/ports"
	"github.com/mikey/spam-guardian/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	return buildContainer(config.New, logging.InitLogger)
}

func buildContainer(newConfig interface{}, newLogger interface{}) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(newConfig); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(newLogger); err != nil {
		return nil, err
	}

	if err := provideCore(container); err != nil {
		return nil, err
	}

	// Register the dashboard presenter
	if err := container.Provide(func() *metrics.Presenter {
		return metrics.NewPresenter(metrics.TrainingMetrics)
	}); err != nil {
		return nil, err
	}

	// Register front ends
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(web.NewHandler); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.FilterFactory, h *web.Handler) (*web.Server, error) {
		return f.CreateWebServer(h)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		f *factory.FilterFactory,
		server *web.Server,
		classifier core.Classifier,
		normalizer core.Normalizer,
	) ([]ports.Listener, error) {
		return f.CreateListeners(server, classifier, normalizer)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideCore registers the text processor, the LLM client, the
// classification service and the pipeline shared by every entry point.
func provideCore(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewPipelineFactory); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(tp *utils.TextProcessor) core.Normalizer {
		return tp
	}); err != nil {
		return err
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return err
	}

	// Register classification service
	if err := container.Provide(func(f *factory.PipelineFactory, llmClient core.LLMClient) (*core.ClassificationService, error) {
		return f.CreateClassificationService(llmClient)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(svc *core.ClassificationService) core.Classifier {
		return svc
	}); err != nil {
		return err
	}

	// Register pipeline
	if err := container.Provide(func(
		f *factory.PipelineFactory,
		normalizer core.Normalizer,
		classifier core.Classifier,
	) (*core.Pipeline, error) {
		return f.CreatePipeline(normalizer, classifier)
	}); err != nil {
		return err
	}

	return nil
}
