package session

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/tutorloop/internal/content"
	"github.com/abhisek/tutorloop/internal/jsonx"
	"github.com/abhisek/tutorloop/internal/llm"
)

// Feedback is the tutor's reply to a non-choice learner response.
type Feedback struct {
	Feedback         string  `json:"feedback"`
	NextAction       string  `json:"next_action"` // question, explanation, example, analogy, checkpoint
	FollowUpQuestion string  `json:"follow_up_question,omitempty"`
	Confidence       float64 `json:"confidence"`
}

var validNextActions = map[string]bool{
	"question":    true,
	"explanation": true,
	"example":     true,
	"analogy":     true,
	"checkpoint":  true,
}

// neutralFeedback is the fixed substitute when feedback generation fails.
func neutralFeedback() *Feedback {
	return &Feedback{
		Feedback:   "Thanks for sharing that. Let's keep building on it together.",
		NextAction: "explanation",
		Confidence: 0.0,
	}
}

const feedbackSystemPrompt = `You are a warm, encouraging tutor reacting to one learner response. Keep feedback to 2-3 sentences. Respond with JSON only.`

func buildFeedbackUserMessage(topic string, block *content.Block, response string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Lesson: %s\n", topic))
	b.WriteString(fmt.Sprintf("Learning goal: %s\n", block.LearningGoal))
	b.WriteString(fmt.Sprintf("Block type: %s\n", block.Type))
	b.WriteString(fmt.Sprintf("Learner said: %s\n", response))
	b.WriteString(`
Return JSON:
{"feedback": "...",
 "next_action": "question|explanation|example|analogy|checkpoint",
 "follow_up_question": null,
 "confidence": 0.8}`)
	return b.String()
}

// composeFeedback asks the generation provider for feedback on a learner
// response. Any failure yields the fixed neutral feedback.
func (e *Engine) composeFeedback(ctx context.Context, state *State, block *content.Block, response string) *Feedback {
	ctx = llm.WithPurpose(ctx, "feedback")

	resp, err := e.provider.Generate(ctx, llm.Request{
		System: feedbackSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildFeedbackUserMessage(state.Topic, block, response)},
		},
		MaxTokens:   500,
		Temperature: 0.5,
	})
	if err != nil {
		e.log.Warn("feedback generation failed", zap.Error(err))
		return neutralFeedback()
	}

	var fb Feedback
	if err := jsonx.Decode(resp.Text(), &fb); err != nil {
		e.log.Warn("feedback response unparsable", zap.Error(err))
		return neutralFeedback()
	}
	if fb.Feedback == "" {
		return neutralFeedback()
	}
	if !validNextActions[fb.NextAction] {
		fb.NextAction = "explanation"
	}
	return &fb
}
