package learner

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorloop/internal/llm"
)

func TestInsightsParsesSchemaOutput(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(
		`{"learning_style": "visual", "pace": "steady",
		  "focus_areas": ["fractions", "ratios"], "confidence": 0.7}`)})
	s := NewLLMServices(mock, DefaultConfig())

	got, err := s.Insights(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "visual", got.LearningStyle)
	assert.Equal(t, "steady", got.Pace)
	assert.Len(t, got.FocusAreas, 2)
	assert.False(t, got.GeneratedAt.IsZero())

	// The request must carry the insights schema for constrained output.
	require.Len(t, mock.Calls, 1)
	require.NotNil(t, mock.Calls[0].Schema)
	assert.Equal(t, InsightsSchema.Name, mock.Calls[0].Schema.Name)
}

func TestSummarizeEmptyHistorySkipsGeneration(t *testing.T) {
	mock := llm.NewMockProvider()
	s := NewLLMServices(mock, DefaultConfig())

	got, err := s.Summarize(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, mock.CallCount())
}

func TestSummarizeCompressesHistory(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(
		`{"summary": "Learner grasped halves, struggled with thirds."}`)})
	s := NewLLMServices(mock, DefaultConfig())

	got, err := s.Summarize(context.Background(), "u1", []string{"s1: learner said \"one half\""})
	require.NoError(t, err)
	assert.Equal(t, "Learner grasped halves, struggled with thirds.", got)
}

func TestAssessScoresInteraction(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(
		`{"correctness": "partial", "score": 0.6,
		  "reasoning": "Right idea, wrong denominator.", "skills": ["equivalence"]}`)})
	s := NewLLMServices(mock, DefaultConfig())

	got, err := s.Assess(context.Background(), "u1", Interaction{
		Topic:     "fractions",
		BlockID:   "s2",
		BlockType: "quiz",
		Prompt:    "What is half of a half?",
		Response:  "a third",
	})
	require.NoError(t, err)
	assert.Equal(t, "partial", got.Correctness)
	assert.InDelta(t, 0.6, got.Score, 0.001)
	assert.False(t, got.AssessedAt.IsZero())
}

func TestStrategyRecommendsNextMove(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(
		`{"methodology": "worked-example", "next_action": "Show 1/2 + 1/4 step by step.",
		  "rationale": "Learner stalls on abstract rules."}`)})
	s := NewLLMServices(mock, DefaultConfig())

	got, err := s.Strategy(context.Background(), "u1", StrategyContext{Topic: "fractions", BlockType: "quiz"})
	require.NoError(t, err)
	assert.Equal(t, "worked-example", got.Methodology)
	assert.NotEmpty(t, got.NextAction)
}

func TestServiceErrorsPropagate(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}})
	s := NewLLMServices(mock, DefaultConfig())

	_, err := s.Assess(context.Background(), "u1", Interaction{Response: "x"})
	require.Error(t, err)

	var unavail *llm.ErrProviderUnavailable
	assert.True(t, errors.As(err, &unavail))
}
