package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const spamReply = `{"isSpam":true,"confidence":0.97,"explanation":"Classic advance-fee lure.","topFeatures":["free","money","click"]}`

// steppedClock returns start on the first call and start+step afterwards.
func steppedClock(start time.Time, step time.Duration) func() time.Time {
	calls := 0
	return func() time.Time {
		calls++
		if calls == 1 {
			return start
		}
		return start.Add(step)
	}
}

func TestClassifySuccess(t *testing.T) {
	llm := &mockLLMClient{}
	raw := "WIN FREE MONEY NOW!!! Click http://scam.example"
	cleaned := "win free money now click"

	llm.On("Complete", mock.Anything, mock.MatchedBy(func(p *Prompt) bool {
		return p.System == SystemInstruction &&
			strings.Contains(p.UserMessage(), "RAW: "+raw) &&
			strings.Contains(p.UserMessage(), "PREPROCESSED: "+cleaned)
	})).Return(spamReply, nil).Once()

	svc := NewClassificationService(llm, zap.NewNop(), 0)
	svc.now = steppedClock(time.Unix(0, 0), 1234600*time.Microsecond)

	res, err := svc.Classify(context.Background(), raw, cleaned)
	require.NoError(t, err)

	assert.True(t, res.IsSpam)
	assert.InDelta(t, 0.97, res.Confidence, 1e-9)
	assert.Equal(t, []string{"free", "money", "click"}, res.TopFeatures)
	assert.Equal(t, int64(1235), res.Metadata.ProcessingTimeMs)
	assert.InDelta(t, float64(len(raw))/4, res.Metadata.TokensCount, 1e-9)
	assert.Equal(t, "mock-model", res.Metadata.Model)
	llm.AssertExpectations(t)
}

func TestClassifyRemoteFailure(t *testing.T) {
	llm := &mockLLMClient{}
	cause := errors.New("dial tcp: connection refused")
	llm.On("Complete", mock.Anything, mock.Anything).Return("", cause).Once()

	svc := NewClassificationService(llm, zap.NewNop(), 0)
	res, err := svc.Classify(context.Background(), "hello", "hello")

	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, ClassificationFailedMessage, err.Error())
	assert.True(t, errors.Is(err, cause))

	var ce *ClassificationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "complete", ce.Op)
	llm.AssertNumberOfCalls(t, "Complete", 1)
}

func TestClassifyMalformedPayload(t *testing.T) {
	llm := &mockLLMClient{}
	llm.On("Complete", mock.Anything, mock.Anything).Return(`{"isSpam": true}`, nil).Once()

	svc := NewClassificationService(llm, zap.NewNop(), 0)
	res, err := svc.Classify(context.Background(), "hello", "hello")

	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, IsClassificationError(err))
	assert.True(t, errors.Is(err, ErrSchemaViolation))
	assert.NotContains(t, err.Error(), "isSpam")
}

func TestClassifyAppliesTimeout(t *testing.T) {
	llm := &mockLLMClient{}
	llm.On("Complete", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= time.Minute
	}), mock.Anything).Return(spamReply, nil).Once()

	svc := NewClassificationService(llm, zap.NewNop(), time.Minute)
	_, err := svc.Classify(context.Background(), "hello", "hello")
	require.NoError(t, err)
	llm.AssertExpectations(t)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0.0, EstimateTokens(""))
	assert.Equal(t, 2.5, EstimateTokens("0123456789"))
	// counts characters, not bytes
	assert.Equal(t, 1.0, EstimateTokens("éééé"))
}
