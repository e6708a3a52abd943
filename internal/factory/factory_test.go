package factory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/spam-guardian/internal/adapters/gemini"
	"github.com/mikey/spam-guardian/internal/adapters/openai"
	"github.com/mikey/spam-guardian/internal/adapters/web"
	"github.com/mikey/spam-guardian/internal/config"
	"github.com/mikey/spam-guardian/internal/core"
	"github.com/mikey/spam-guardian/internal/metrics"
	"github.com/mikey/spam-guardian/internal/utils"
)

func testConfig(t *testing.T, values map[string]any) *config.Config {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "API_KEY", "OPENAI_API_KEY", "SPAM_GUARDIAN_GEMINI_API_KEY", "SPAM_GUARDIAN_OPENAI_API_KEY"} {
		t.Setenv(key, "")
	}
	v := config.NewEmptyViper()
	for k, val := range values {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func newLLMFactory(cfg *config.Config) *LLMFactory {
	return NewLLMFactory(cfg, zap.NewNop(), NewTextProcessorFactory(zap.NewNop()).CreateTextProcessor())
}

func TestMissingKeyYieldsUnavailableClient(t *testing.T) {
	for _, provider := range []string{"gemini", "openai"} {
		t.Run(provider, func(t *testing.T) {
			client, err := newLLMFactory(testConfig(t, map[string]any{"llm.provider": provider})).CreateLLMClient()
			require.NoError(t, err)
			require.IsType(t, &UnavailableClient{}, client)

			_, err = client.Complete(context.Background(), core.NewPrompt("a", "a"))
			assert.True(t, errors.Is(err, core.ErrClientUnavailable))
		})
	}
}

func TestUnavailableClientSurfacesAsClassificationError(t *testing.T) {
	svc := core.NewClassificationService(NewUnavailableClient("gemini-3-flash-preview", "no key"), zap.NewNop(), 0)
	_, err := svc.Classify(context.Background(), "hello", "hello")
	require.Error(t, err)
	assert.Equal(t, core.ClassificationFailedMessage, err.Error())
	assert.True(t, errors.Is(err, core.ErrClientUnavailable))
}

func TestConfiguredProviders(t *testing.T) {
	client, err := newLLMFactory(testConfig(t, map[string]any{
		"llm.provider":   "openai",
		"openai.api_key": "sk-test",
	})).CreateLLMClient()
	require.NoError(t, err)
	assert.IsType(t, &openai.OpenAIClient{}, client)
	assert.Equal(t, "gpt-4o-mini", client.ModelName())

	client, err = newLLMFactory(testConfig(t, map[string]any{
		"gemini.api_key": "test-key",
	})).CreateLLMClient()
	require.NoError(t, err)
	require.IsType(t, &gemini.GeminiClient{}, client)
	assert.Equal(t, "gemini-3-flash-preview", client.ModelName())
	assert.NoError(t, client.(*gemini.GeminiClient).Close())
}

func TestUnsupportedProvider(t *testing.T) {
	_, err := newLLMFactory(testConfig(t, map[string]any{"llm.provider": "carrier-pigeon"})).CreateLLMClient()
	assert.ErrorContains(t, err, "unsupported LLM provider")
}

func TestPipelineFactoryUsesConfiguredDelays(t *testing.T) {
	cfg := testConfig(t, map[string]any{"llm.timeout": "5s"})
	f := NewPipelineFactory(cfg, zap.NewNop())

	svc, err := f.CreateClassificationService(NewUnavailableClient("m", "r"))
	require.NoError(t, err)
	pipeline, err := f.CreatePipeline(utils.NewTextProcessor(zap.NewNop()), svc)
	require.NoError(t, err)
	assert.NotNil(t, pipeline)

	_, err = NewPipelineFactory(testConfig(t, map[string]any{"pipeline.validation_delay": "-1s"}), zap.NewNop()).
		CreatePipeline(utils.NewTextProcessor(zap.NewNop()), svc)
	assert.Error(t, err)
}

func TestCreateListeners(t *testing.T) {
	tp := utils.NewTextProcessor(zap.NewNop())
	llm := NewUnavailableClient("m", "r")
	svc := core.NewClassificationService(llm, zap.NewNop(), time.Second)
	handler := web.NewHandler(core.NewPipeline(tp, svc, core.StageDelays{}, zap.NewNop()), svc, tp,
		metrics.NewPresenter(metrics.TrainingMetrics), llm, zap.NewNop())

	f := NewFilterFactory(testConfig(t, nil), zap.NewNop())
	server, err := f.CreateWebServer(handler)
	require.NoError(t, err)

	listeners, err := f.CreateListeners(server, svc, tp)
	require.NoError(t, err)
	require.Len(t, listeners, 1)
	assert.Equal(t, "http", listeners[0].Name())

	f = NewFilterFactory(testConfig(t, map[string]any{"smtp.enabled": true}), zap.NewNop())
	listeners, err = f.CreateListeners(server, svc, tp)
	require.NoError(t, err)
	require.Len(t, listeners, 2)
	assert.Equal(t, "smtp", listeners[1].Name())
}
