package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/mikey/spam-guardian/internal/config"
	"github.com/mikey/spam-guardian/internal/core"
	"github.com/mikey/spam-guardian/internal/utils"
)

const schemaName = "spam_verdict"

// OpenAIClient is an implementation of the LLMClient interface using OpenAI
type OpenAIClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewOpenAIClient creates a new OpenAI client. A non-empty BaseURL targets any
// OpenAI-compatible endpoint.
func NewOpenAIClient(cfg config.ProviderConfig, logger *zap.Logger, textProcessor *utils.TextProcessor) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client:        openai.NewClientWithConfig(clientCfg),
		modelName:     cfg.ModelName,
		maxTokens:     cfg.MaxTokens,
		temperature:   cfg.Temperature,
		topP:          cfg.TopP,
		maxBodySize:   cfg.MaxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// ModelName returns the configured OpenAI model
func (c *OpenAIClient) ModelName() string {
	return c.modelName
}

// Complete sends one chat completion constrained to the verdict schema
func (c *OpenAIClient) Complete(ctx context.Context, prompt *core.Prompt) (string, error) {
	raw := c.textProcessor.ProcessText(prompt.RawText, c.maxBodySize)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: prompt.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: core.FormatUserMessage(raw, prompt.CleanedText),
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: VerdictDefinition(core.VerdictSchema),
				Strict: true,
			},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("openai returned no content: %w", core.ErrEmptyResponse)
	}

	c.logger.Debug("OpenAI response received",
		zap.String("model", c.modelName),
		zap.String("id", resp.ID),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return resp.Choices[0].Message.Content, nil
}

// VerdictDefinition maps verdict fields to a strict JSON schema
func VerdictDefinition(fields []core.SchemaField) *jsonschema.Definition {
	def := &jsonschema.Definition{
		Type:                 jsonschema.Object,
		Properties:           make(map[string]jsonschema.Definition, len(fields)),
		AdditionalProperties: false,
	}
	for _, f := range fields {
		def.Properties[f.Name] = fieldDefinition(f)
		def.Required = append(def.Required, f.Name)
	}
	return def
}

func fieldDefinition(f core.SchemaField) jsonschema.Definition {
	d := jsonschema.Definition{Description: f.Description}
	switch f.Type {
	case core.FieldBoolean:
		d.Type = jsonschema.Boolean
	case core.FieldNumber:
		d.Type = jsonschema.Number
	case core.FieldStringArray:
		d.Type = jsonschema.Array
		d.Items = &jsonschema.Definition{Type: jsonschema.String}
	default:
		d.Type = jsonschema.String
	}
	return d
}
