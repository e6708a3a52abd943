package core

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

const unexpectedErrorMessage = "An unexpected error occurred during analysis."

// Session is the state one user sees for the latest submission.
// Result and Error are mutually exclusive.
type Session struct {
	Status      Status                   `json:"status"`
	Steps       [stageCount]PipelineStep `json:"steps"`
	CleanedText string                   `json:"cleanedText,omitempty"`
	Result      *ClassificationResult    `json:"result,omitempty"`
	Error       string                   `json:"error,omitempty"`
}

// NewSession returns an idle session with every step pending
func NewSession() *Session {
	s := &Session{}
	s.Reset()
	return s
}

// Reset returns the session to idle and clears the previous outcome
func (s *Session) Reset() {
	s.Status = StatusIdle
	s.CleanedText = ""
	s.Result = nil
	s.Error = ""
	s.resetSteps()
}

func (s *Session) resetSteps() {
	for i := range s.Steps {
		s.Steps[i] = PipelineStep{Name: Stage(i).String(), Status: StepPending}
	}
}

// Step returns the current state of a stage
func (s *Session) Step(stage Stage) PipelineStep {
	return s.Steps[stage]
}

// Observer receives a copy of the session after every state transition
type Observer func(snapshot Session)

// StageDelays holds the artificial duration of the cosmetic stages
type StageDelays struct {
	Validation        time.Duration
	Preprocessing     time.Duration
	FeatureExtraction time.Duration
}

// Pipeline sequences the four stages of one submission
type Pipeline struct {
	normalizer Normalizer
	classifier Classifier
	delays     StageDelays
	logger     *zap.Logger
	sleep      func(time.Duration)
}

// NewPipeline creates a new pipeline orchestrator
func NewPipeline(normalizer Normalizer, classifier Classifier, delays StageDelays, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		normalizer: normalizer,
		classifier: classifier,
		delays:     delays,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// Run executes the pipeline on a fresh session
func (p *Pipeline) Run(ctx context.Context, rawText string, observer Observer) (*Session, error) {
	sess := NewSession()
	err := p.Execute(ctx, sess, rawText, observer)
	return sess, err
}

// Execute runs every stage strictly in order against sess.
// Blank input returns ErrEmptyInput and leaves sess untouched. When the
// classifier fails the session ends in StatusError with the inference step
// still active, and the classifier's error is returned.
func (p *Pipeline) Execute(ctx context.Context, sess *Session, rawText string, observer Observer) error {
	if strings.TrimSpace(rawText) == "" {
		return ErrEmptyInput
	}
	if observer == nil {
		observer = func(Session) {}
	}
	notify := func() { observer(*sess) }

	sess.Reset()
	sess.Status = StatusLoading
	notify()

	p.advance(sess, StageValidation, StepActive, notify)
	p.pause(p.delays.Validation)
	p.advance(sess, StageValidation, StepCompleted, notify)

	p.advance(sess, StagePreprocessing, StepActive, notify)
	cleaned := p.normalizer.Normalize(rawText)
	sess.CleanedText = cleaned
	p.pause(p.delays.Preprocessing)
	p.advance(sess, StagePreprocessing, StepCompleted, notify)

	// No vectorizer runs here; the stage only marks progress.
	p.advance(sess, StageFeatureExtraction, StepActive, notify)
	p.pause(p.delays.FeatureExtraction)
	p.advance(sess, StageFeatureExtraction, StepCompleted, notify)

	p.advance(sess, StageInference, StepActive, notify)
	result, err := p.classifier.Classify(ctx, rawText, cleaned)
	if err != nil {
		sess.Status = StatusError
		sess.Error = userMessage(err)
		p.logger.Warn("Pipeline failed", zap.Stringer("stage", StageInference), zap.Error(err))
		notify()
		return err
	}
	p.advance(sess, StageInference, StepCompleted, notify)

	sess.Result = result
	sess.Status = StatusSuccess
	notify()

	p.logger.Info("Pipeline completed",
		zap.Bool("is_spam", result.IsSpam),
		zap.Float64("confidence", result.Confidence),
		zap.Int64("processing_time_ms", result.Metadata.ProcessingTimeMs))
	return nil
}

func (p *Pipeline) advance(sess *Session, stage Stage, status StepStatus, notify func()) {
	sess.Steps[stage].Status = status
	p.logger.Debug("Pipeline step", zap.Stringer("stage", stage), zap.String("status", string(status)))
	notify()
}

func (p *Pipeline) pause(d time.Duration) {
	if d > 0 {
		p.sleep(d)
	}
}

func userMessage(err error) string {
	if IsClassificationError(err) {
		return err.Error()
	}
	return unexpectedErrorMessage
}
