package core

import (
	"context"
)

// LLMClient defines the interface for interacting with LLM services
type LLMClient interface {
	// Complete sends the prompt and returns the model's raw verdict text
	Complete(ctx context.Context, prompt *Prompt) (string, error)

	// ModelName identifies the model answering the prompt
	ModelName() string
}

// Classifier produces a verdict for one email
type Classifier interface {
	Classify(ctx context.Context, rawText, cleanedText string) (*ClassificationResult, error)
}

// Normalizer cleans raw email text before classification
type Normalizer interface {
	Normalize(text string) string
}
