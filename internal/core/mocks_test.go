package core

import (
	"context"
	"strings"

	"github.com/stretchr/testify/mock"
)

type mockLLMClient struct {
	mock.Mock
}

func (m *mockLLMClient) Complete(ctx context.Context, prompt *Prompt) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *mockLLMClient) ModelName() string {
	return "mock-model"
}

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, rawText, cleanedText string) (*ClassificationResult, error) {
	args := m.Called(ctx, rawText, cleanedText)
	result, _ := args.Get(0).(*ClassificationResult)
	return result, args.Error(1)
}

type lowerNormalizer struct{}

func (lowerNormalizer) Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
