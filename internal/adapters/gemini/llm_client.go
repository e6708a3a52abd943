package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mikey/spam-guardian/internal/config"
	"github.com/mikey/spam-guardian/internal/core"
	"github.com/mikey/spam-guardian/internal/utils"
)

// GeminiClient is an implementation of the LLMClient interface using Google Gemini
type GeminiClient struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewGeminiClient creates a new Gemini client that answers in the verdict schema
func NewGeminiClient(
	ctx context.Context,
	cfg config.ProviderConfig,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*GeminiClient, error) {
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.ModelName)
	configureModel(model, cfg)

	return &GeminiClient{
		client:        client,
		model:         model,
		modelName:     cfg.ModelName,
		maxBodySize:   cfg.MaxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

func configureModel(model *genai.GenerativeModel, cfg config.ProviderConfig) {
	model.SetTemperature(cfg.Temperature)
	model.SetTopP(cfg.TopP)
	if cfg.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(cfg.MaxTokens))
	}
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(core.SystemInstruction)},
	}
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = ResponseSchema(core.VerdictSchema)
}

// ResponseSchema maps verdict fields to a Gemini object schema with every field required
func ResponseSchema(fields []core.SchemaField) *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(fields)),
		Required:   make([]string, 0, len(fields)),
	}
	for _, f := range fields {
		schema.Properties[f.Name] = fieldSchema(f)
		schema.Required = append(schema.Required, f.Name)
	}
	return schema
}

func fieldSchema(f core.SchemaField) *genai.Schema {
	s := &genai.Schema{Description: f.Description}
	switch f.Type {
	case core.FieldBoolean:
		s.Type = genai.TypeBoolean
	case core.FieldNumber:
		s.Type = genai.TypeNumber
	case core.FieldStringArray:
		s.Type = genai.TypeArray
		s.Items = &genai.Schema{Type: genai.TypeString}
	default:
		s.Type = genai.TypeString
	}
	return s
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// ModelName returns the configured Gemini model
func (c *GeminiClient) ModelName() string {
	return c.modelName
}

// Complete sends one generate request and returns the reply text
func (c *GeminiClient) Complete(ctx context.Context, prompt *core.Prompt) (string, error) {
	raw := c.textProcessor.ProcessText(prompt.RawText, c.maxBodySize)
	message := core.FormatUserMessage(raw, prompt.CleanedText)

	resp, err := c.model.GenerateContent(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", err
	}

	c.logger.Debug("Gemini response received",
		zap.String("model", c.modelName),
		zap.Int("response_size", len(text)))

	return text, nil
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates: %w", core.ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("gemini returned no text: %w", core.ErrEmptyResponse)
	}
	return sb.String(), nil
}
