package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/spam-guardian/internal/config"
	"github.com/mikey/spam-guardian/internal/core"
	"github.com/mikey/spam-guardian/internal/utils"
)

const verdict = `{"isSpam":true,"confidence":0.93,"explanation":"Lottery scam.","topFeatures":["winner"]}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.ProviderConfig{
		APIKey:      "test-key",
		BaseURL:     srv.URL + "/v1",
		ModelName:   "gpt-test",
		MaxTokens:   128,
		Temperature: 0.1,
		TopP:        0.9,
		MaxBodySize: 8,
	}
	return NewOpenAIClient(cfg, zap.NewNop(), utils.NewTextProcessor(zap.NewNop()))
}

func TestComplete(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": verdict}}},
		})
	})

	text, err := client.Complete(context.Background(), core.NewPrompt("Congratulations WINNER", "congratulations winner"))
	require.NoError(t, err)
	assert.Equal(t, verdict, text)

	assert.Equal(t, "gpt-test", got["model"])
	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, core.SystemInstruction, messages[0].(map[string]any)["content"])

	user := messages[1].(map[string]any)["content"].(string)
	assert.True(t, strings.HasPrefix(user, "Classify this email: \n\nRAW: Congratu\n"), user)
	assert.Contains(t, user, "PREPROCESSED: congratulations winner")

	format := got["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)
	assert.Equal(t, schemaName, schema["name"])
	assert.Equal(t, true, schema["strict"])
}

func TestCompleteEmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	})

	_, err := client.Complete(context.Background(), core.NewPrompt("hi", "hi"))
	assert.True(t, errors.Is(err, core.ErrEmptyResponse))
}

func TestCompleteServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})

	_, err := client.Complete(context.Background(), core.NewPrompt("hi", "hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenAI")
}

func TestVerdictDefinition(t *testing.T) {
	raw, err := json.Marshal(VerdictDefinition(core.VerdictSchema))
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.ElementsMatch(t, []any{"isSpam", "confidence", "explanation", "topFeatures"}, schema["required"])

	props := schema["properties"].(map[string]any)
	features := props["topFeatures"].(map[string]any)
	assert.Equal(t, "array", features["type"])
	assert.Equal(t, "string", features["items"].(map[string]any)["type"])
}
