package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/spam-guardian/internal/adapters/cli"
	"github.com/mikey/spam-guardian/internal/config"
	"github.com/mikey/spam-guardian/internal/logging"
	"github.com/mikey/spam-guardian/internal/metrics"
)

// CLIFlags contains all command line flags for the CLI application.
// Zero values leave the configured default in place.
type CLIFlags struct {
	// LLM provider flags
	Provider    string
	MaxTokens   int
	Temperature float64
	TopP        float64
	MaxBodySize int

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string
	OpenAIBaseURL   string

	// Pipeline flags
	NoDelay bool

	// Output flags
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags, renderer *cli.Renderer) (*dig.Container, error) {
	container := dig.New()

	// Register flags and output
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() *cli.Renderer { return renderer }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := createConfigFromFlags(flags)
		if err != nil {
			return nil, err
		}
		if flags.ConfigFile != "" {
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideCore(container); err != nil {
		return nil, err
	}

	if err := container.Provide(func() *metrics.Presenter {
		return metrics.NewPresenter(metrics.TrainingMetrics)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags layers the command line flags over the config file,
// or over the defaults and environment when no file is given
func createConfigFromFlags(flags *CLIFlags) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	var cfg *config.Config
	if flags.ConfigFile != "" {
		var err error
		if cfg, err = config.NewFromFile(flags.ConfigFile); err != nil {
			return nil, err
		}
	} else {
		cfg = config.NewFromViper(config.NewEmptyViper())
	}
	v := cfg.GetViper()

	if flags.Provider != "" {
		v.Set("llm.provider", flags.Provider)
	}

	setIf(v.Set, "bedrock.region", flags.BedrockRegion)
	setIf(v.Set, "bedrock.model_id", flags.BedrockModelID)
	setIf(v.Set, "gemini.api_key", flags.GeminiAPIKey)
	setIf(v.Set, "gemini.model_name", flags.GeminiModelName)
	setIf(v.Set, "openai.api_key", flags.OpenAIAPIKey)
	setIf(v.Set, "openai.model_name", flags.OpenAIModelName)
	setIf(v.Set, "openai.base_url", flags.OpenAIBaseURL)

	// Generation settings apply to whichever provider is selected
	for _, provider := range []string{"gemini", "openai", "bedrock"} {
		if flags.MaxTokens > 0 {
			v.Set(provider+".max_tokens", flags.MaxTokens)
		}
		if flags.Temperature > 0 {
			v.Set(provider+".temperature", flags.Temperature)
		}
		if flags.TopP > 0 {
			v.Set(provider+".top_p", flags.TopP)
		}
		if flags.MaxBodySize > 0 {
			v.Set(provider+".max_body_size", flags.MaxBodySize)
		}
	}

	if flags.NoDelay {
		v.Set("pipeline.validation_delay", "0s")
		v.Set("pipeline.preprocessing_delay", "0s")
		v.Set("pipeline.feature_extraction_delay", "0s")
	}

	return cfg, nil
}

func setIf(set func(string, interface{}), key, value string) {
	if value != "" {
		set(key, value)
	}
}
