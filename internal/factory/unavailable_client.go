package factory

import (
	"context"
	"fmt"

	"github.com/mikey/spam-guardian/internal/core"
)

// UnavailableClient stands in for a provider that could not be configured.
// Every call fails with core.ErrClientUnavailable.
type UnavailableClient struct {
	model  string
	reason string
}

// NewUnavailableClient creates a client that always fails with reason
func NewUnavailableClient(model, reason string) *UnavailableClient {
	return &UnavailableClient{model: model, reason: reason}
}

// Complete always fails
func (c *UnavailableClient) Complete(_ context.Context, _ *core.Prompt) (string, error) {
	return "", fmt.Errorf("%s: %w", c.reason, core.ErrClientUnavailable)
}

// ModelName returns the model that would have been used
func (c *UnavailableClient) ModelName() string {
	return c.model
}
