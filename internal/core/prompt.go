package core

import (
	"fmt"
)

// SystemInstruction is sent with every classification request
const SystemInstruction = `You are a production-grade Spam Email Classifier.
Analyze the provided email text and return a JSON object.
Criteria for Spam:
- Urgent/Threatening language
- Unsolicited commercial offers
- Deceptive links or mismatched sender info
- Poor grammar/all-caps/excessive punctuation
- Requests for sensitive data (phishing)

Your response must strictly follow this JSON schema:
{
  "isSpam": boolean,
  "confidence": number (0.0 to 1.0),
  "explanation": "A professional 2-sentence explanation of the decision",
  "topFeatures": ["Feature1", "Feature2", "Feature3"]
}`

const userMessageFormat = "Classify this email: \n\nRAW: %s\n\nPREPROCESSED: %s"

// Prompt is the provider-neutral classification request
type Prompt struct {
	System      string
	RawText     string
	CleanedText string
}

// NewPrompt builds the prompt for one email
func NewPrompt(rawText, cleanedText string) *Prompt {
	return &Prompt{
		System:      SystemInstruction,
		RawText:     rawText,
		CleanedText: cleanedText,
	}
}

// UserMessage renders the user payload embedding both texts
func (p *Prompt) UserMessage() string {
	return FormatUserMessage(p.RawText, p.CleanedText)
}

// FormatUserMessage renders the user payload for an already-processed raw text
func FormatUserMessage(rawText, cleanedText string) string {
	return fmt.Sprintf(userMessageFormat, rawText, cleanedText)
}

// FieldType is the JSON type of a verdict field
type FieldType string

const (
	FieldBoolean     FieldType = "boolean"
	FieldNumber      FieldType = "number"
	FieldString      FieldType = "string"
	FieldStringArray FieldType = "string[]"
)

// SchemaField describes one required field of the verdict
type SchemaField struct {
	Name        string
	Type        FieldType
	Description string
}

// VerdictSchema lists the fields every model reply must carry. All are required.
var VerdictSchema = []SchemaField{
	{Name: "isSpam", Type: FieldBoolean, Description: "true when the email is spam"},
	{Name: "confidence", Type: FieldNumber, Description: "confidence in the decision between 0 and 1"},
	{Name: "explanation", Type: FieldString, Description: "short professional explanation of the decision"},
	{Name: "topFeatures", Type: FieldStringArray, Description: "most influential indicators, most important first"},
}
