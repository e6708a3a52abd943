package core

import (
	"context"
	"math"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// charsPerToken is the rough token density used for the tokensCount heuristic
const charsPerToken = 4

// ClassificationService is the core service that turns an email into a verdict
type ClassificationService struct {
	llmClient LLMClient
	logger    *zap.Logger
	timeout   time.Duration
	now       func() time.Time
}

// NewClassificationService creates a new classification service.
// A zero timeout leaves the deadline to the caller's context.
func NewClassificationService(llmClient LLMClient, logger *zap.Logger, timeout time.Duration) *ClassificationService {
	return &ClassificationService{
		llmClient: llmClient,
		logger:    logger,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Classify issues exactly one model call for the email and returns its verdict.
// Every failure is reported as a *ClassificationError.
func (s *ClassificationService) Classify(ctx context.Context, rawText, cleanedText string) (*ClassificationResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	model := s.llmClient.ModelName()
	start := s.now()

	text, err := s.llmClient.Complete(ctx, NewPrompt(rawText, cleanedText))
	if err != nil {
		return nil, s.fail("complete", model, err)
	}

	result, err := ParseVerdict(text)
	if err != nil {
		return nil, s.fail("parse", model, err)
	}

	elapsed := s.now().Sub(start)
	result.Metadata = ResultMetadata{
		ProcessingTimeMs: roundMillis(elapsed),
		TokensCount:      EstimateTokens(rawText),
		Model:            model,
	}

	s.logger.Debug("Email classified",
		zap.Bool("is_spam", result.IsSpam),
		zap.Float64("confidence", result.Confidence),
		zap.Int64("processing_time_ms", result.Metadata.ProcessingTimeMs),
		zap.String("model", model))

	return result, nil
}

func (s *ClassificationService) fail(op, model string, err error) error {
	s.logger.Error("Classification error",
		zap.String("op", op),
		zap.String("model", model),
		zap.Error(err))
	return &ClassificationError{Op: op, Err: err}
}

// EstimateTokens approximates the token count of text as one token per four characters
func EstimateTokens(text string) float64 {
	return float64(utf8.RuneCountInString(text)) / charsPerToken
}

func roundMillis(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return int64(math.Round(float64(d) / float64(time.Millisecond)))
}
