package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

type verdictPayload struct {
	IsSpam      *bool     `json:"isSpam"`
	Confidence  *float64  `json:"confidence"`
	Explanation *string   `json:"explanation"`
	TopFeatures *[]string `json:"topFeatures"`
}

// ParseVerdict decodes a model reply into a result without metadata.
// Text around a single JSON object is tolerated; the object itself must
// carry every schema field with the right type and a confidence in [0,1].
func ParseVerdict(text string) (*ClassificationResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		obj, ok := extractJSONObject(text)
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if err := json.Unmarshal([]byte(obj), &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}

	var missing []string
	if payload.IsSpam == nil {
		missing = append(missing, "isSpam")
	}
	if payload.Confidence == nil {
		missing = append(missing, "confidence")
	}
	if payload.Explanation == nil {
		missing = append(missing, "explanation")
	}
	if payload.TopFeatures == nil {
		missing = append(missing, "topFeatures")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrSchemaViolation, strings.Join(missing, ", "))
	}

	confidence := *payload.Confidence
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v outside [0,1]", ErrSchemaViolation, confidence)
	}

	features := make([]string, len(*payload.TopFeatures))
	copy(features, *payload.TopFeatures)

	return &ClassificationResult{
		IsSpam:      *payload.IsSpam,
		Confidence:  confidence,
		Explanation: *payload.Explanation,
		TopFeatures: features,
	}, nil
}

// extractJSONObject returns the span from the first '{' to the last '}'
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
