package core

// ClassificationRequest is the per-submission input of the classification client
type ClassificationRequest struct {
	RawText     string `json:"rawText"`
	CleanedText string `json:"cleanedText"`
}

// ResultMetadata carries the telemetry measured around one classification call
type ResultMetadata struct {
	ProcessingTimeMs int64   `json:"processingTimeMs"`
	TokensCount      float64 `json:"tokensCount"`
	Model            string  `json:"model,omitempty"`
}

// ClassificationResult represents the verdict returned for one email
type ClassificationResult struct {
	IsSpam      bool           `json:"isSpam"`
	Confidence  float64        `json:"confidence"`
	Explanation string         `json:"explanation"`
	TopFeatures []string       `json:"topFeatures"`
	Metadata    ResultMetadata `json:"metadata"`
}

// StepStatus is the progress marker of a single pipeline step
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepActive    StepStatus = "active"
	StepCompleted StepStatus = "completed"
)

// PipelineStep is one of the four fixed pipeline stages
type PipelineStep struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
}

// Stage indexes into the fixed step list.
type Stage int

const (
	StageValidation Stage = iota
	StagePreprocessing
	StageFeatureExtraction
	StageInference
	stageCount
)

var stageNames = [stageCount]string{
	"Data Validation",
	"Text Preprocessing",
	"Feature Extraction (TF-IDF)",
	"Model Inference",
}

// String returns the display name of the stage
func (s Stage) String() string {
	if s < 0 || s >= stageCount {
		return "unknown"
	}
	return stageNames[s]
}

// Status is the top-level state of a classification session
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ConfusionMatrix holds the validation counts shown on the dashboard
type ConfusionMatrix struct {
	TP int `json:"tp"`
	TN int `json:"tn"`
	FP int `json:"fp"`
	FN int `json:"fn"`
}

// Total returns the number of validation samples
func (m ConfusionMatrix) Total() int {
	return m.TP + m.TN + m.FP + m.FN
}

// ModelMetrics represents the pre-computed evaluation of the classifier
type ModelMetrics struct {
	Accuracy        float64         `json:"accuracy"`
	Precision       float64         `json:"precision"`
	Recall          float64         `json:"recall"`
	F1Score         float64         `json:"f1Score"`
	ConfusionMatrix ConfusionMatrix `json:"confusionMatrix"`
}
