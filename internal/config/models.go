package config

import (
	"fmt"
	"time"
)

// LLMConfig represents the provider selection shared by all LLM clients
type LLMConfig struct {
	Provider string
	Timeout  time.Duration
}

// ProviderConfig represents the generation settings of one LLM provider
type ProviderConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	ListenAddress   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// PipelineConfig holds the artificial delay of each cosmetic stage
type PipelineConfig struct {
	ValidationDelay        time.Duration
	PreprocessingDelay     time.Duration
	FeatureExtractionDelay time.Duration
}

// SMTPConfig represents the SMTP intake filter configuration
type SMTPConfig struct {
	Enabled            bool
	ListenAddress      string
	Domain             string
	BlockSpam          bool
	Timeout            time.Duration
	SpamHeader         string
	ConfidenceHeader   string
	ReasonHeader       string
	ModifySubject      bool
	SubjectPrefix      string
	WhitelistedDomains []string
	RelayEnabled       bool
	RelayAddress       string
	RelayPort          int
}

// LoggingConfig represents the logger configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() (LLMConfig, error) {
	timeout, err := c.GetDuration("llm.timeout")
	if err != nil {
		return LLMConfig{}, err
	}
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
		Timeout:  timeout,
	}, nil
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() ProviderConfig {
	return c.providerConfig("gemini")
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() ProviderConfig {
	return c.providerConfig("openai")
}

func (c *Config) providerConfig(prefix string) ProviderConfig {
	return ProviderConfig{
		APIKey:      c.GetString(prefix + ".api_key"),
		BaseURL:     c.GetString(prefix + ".base_url"),
		ModelName:   c.GetString(prefix + ".model_name"),
		MaxTokens:   c.GetInt(prefix + ".max_tokens"),
		Temperature: float32(c.GetFloat64(prefix + ".temperature")),
		TopP:        float32(c.GetFloat64(prefix + ".top_p")),
		MaxBodySize: c.GetInt(prefix + ".max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetServer returns the HTTP server configuration
func (c *Config) GetServer() (ServerConfig, error) {
	read, err := c.GetDuration("server.read_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	write, err := c.GetDuration("server.write_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	shutdown, err := c.GetDuration("server.shutdown_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	return ServerConfig{
		ListenAddress:   c.GetString("server.listen_address"),
		ReadTimeout:     read,
		WriteTimeout:    write,
		ShutdownTimeout: shutdown,
	}, nil
}

// GetPipeline returns the pipeline stage configuration
func (c *Config) GetPipeline() (PipelineConfig, error) {
	var pc PipelineConfig
	delays := []struct {
		key string
		dst *time.Duration
	}{
		{"pipeline.validation_delay", &pc.ValidationDelay},
		{"pipeline.preprocessing_delay", &pc.PreprocessingDelay},
		{"pipeline.feature_extraction_delay", &pc.FeatureExtractionDelay},
	}
	for _, d := range delays {
		v, err := c.GetDuration(d.key)
		if err != nil {
			return PipelineConfig{}, err
		}
		if v < 0 {
			return PipelineConfig{}, fmt.Errorf("%s must not be negative", d.key)
		}
		*d.dst = v
	}
	return pc, nil
}

// GetSMTP returns the SMTP intake configuration
func (c *Config) GetSMTP() (SMTPConfig, error) {
	timeout, err := c.GetDuration("smtp.timeout")
	if err != nil {
		return SMTPConfig{}, err
	}
	return SMTPConfig{
		Enabled:            c.GetBool("smtp.enabled"),
		ListenAddress:      c.GetString("smtp.listen_address"),
		Domain:             c.GetString("smtp.domain"),
		BlockSpam:          c.GetBool("smtp.block_spam"),
		Timeout:            timeout,
		SpamHeader:         c.GetString("smtp.headers.spam"),
		ConfidenceHeader:   c.GetString("smtp.headers.confidence"),
		ReasonHeader:       c.GetString("smtp.headers.reason"),
		ModifySubject:      c.GetBool("smtp.modify_subject"),
		SubjectPrefix:      c.GetString("smtp.subject_prefix"),
		WhitelistedDomains: c.GetStringSlice("smtp.whitelisted_domains"),
		RelayEnabled:       c.GetBool("smtp.relay.enabled"),
		RelayAddress:       c.GetString("smtp.relay.address"),
		RelayPort:          c.GetInt("smtp.relay.port"),
	}, nil
}

// GetLogging returns the logging configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
	}
}
