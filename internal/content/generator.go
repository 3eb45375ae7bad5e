package content

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/tutorloop/internal/jsonx"
	"github.com/abhisek/tutorloop/internal/llm"
	"github.com/abhisek/tutorloop/internal/plan"
)

// Config tunes block generation.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns block generation defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1200,
		Temperature: 0.6,
	}
}

// fallbackMedia is the fixed asset attached to fallback and image blocks.
var fallbackMedia = MediaRef{
	Kind:    "image",
	URL:     "asset://tutor/encourage.png",
	Caption: "Keep going — you're doing great.",
}

// Generator materializes plan steps into content blocks.
// ForStep never fails: any provider or parse error degrades to the
// deterministic fallback block with the Err marker set.
type Generator struct {
	provider llm.Provider
	cfg      Config
	log      *zap.Logger
}

// NewGenerator creates a block generator.
func NewGenerator(provider llm.Provider, cfg Config, log *zap.Logger) *Generator {
	return &Generator{provider: provider, cfg: cfg, log: log}
}

// ForStep produces the content block for one plan step. Choice and image
// steps are built locally without a generation call.
func (g *Generator) ForStep(ctx context.Context, step plan.Step, sctx Context) *Block {
	switch step.Type {
	case plan.StepChoice:
		return choiceBlock(step)
	case plan.StepImage:
		return imageBlock(step)
	}

	block, err := g.generate(ctx, step, sctx)
	if err != nil {
		g.log.Warn("block generation degraded to fallback",
			zap.String("step_id", step.ID),
			zap.String("step_type", string(step.Type)),
			zap.Error(err))
		return Fallback(step)
	}
	return block
}

type blockOutput struct {
	Content           string   `json:"content"`
	LearningGoal      string   `json:"learning_goal"`
	SocraticQuestions []string `json:"socratic_questions"`
}

func (g *Generator) generate(ctx context.Context, step plan.Step, sctx Context) (*Block, error) {
	ctx = llm.WithPurpose(ctx, "block")

	resp, err := g.provider.Generate(ctx, llm.Request{
		System: contentSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildContentUserMessage(step, sctx)},
		},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("block generation: %w", err)
	}

	var out blockOutput
	if err := jsonx.Decode(resp.Text(), &out); err != nil {
		return nil, fmt.Errorf("parse block response: %w", err)
	}
	if out.Content == "" {
		return nil, fmt.Errorf("block response has no content")
	}

	goal := out.LearningGoal
	if goal == "" {
		goal = step.Objective
	}

	return &Block{
		BlockID:      step.ID,
		Type:         step.Type,
		Content:      out.Content,
		LearningGoal: goal,
		Tutoring:     TutoringElements{SocraticQuestions: out.SocraticQuestions},
	}, nil
}

// choiceBlock builds a branch block directly from the step's options; no
// generation call is made. Steps without options get two generic branches.
func choiceBlock(step plan.Step) *Block {
	opts := step.Options
	if len(opts) == 0 {
		opts = []plan.Option{
			{Text: "Go deeper into this idea"},
			{Text: "Move on to what's next"},
		}
	}

	choices := make([]Choice, 0, len(opts))
	for _, o := range opts {
		choices = append(choices, Choice{
			Text:            o.Text,
			NextBlock:       o.Next,
			Consequence:     "Shapes which part of the lesson comes next",
			LearningValue:   step.Objective,
			DifficultyLevel: "moderate",
		})
	}

	return &Block{
		BlockID:      step.ID,
		Type:         plan.StepChoice,
		Content:      fmt.Sprintf("%s\n\nIt's your call — which way do you want to take this?", step.Title),
		LearningGoal: step.Objective,
		Choices:      choices,
	}
}

// imageBlock builds a media block from the step's objective; no generation
// call is made.
func imageBlock(step plan.Step) *Block {
	return &Block{
		BlockID:      step.ID,
		Type:         plan.StepImage,
		Content:      fmt.Sprintf("Take a look at this.\n\n%s", step.Objective),
		LearningGoal: step.Objective,
		Media:        []MediaRef{fallbackMedia},
	}
}

// Fallback is the deterministic block returned when generation or parsing
// fails. It keeps the session moving with generic encouragement.
func Fallback(step plan.Step) *Block {
	return &Block{
		BlockID: step.ID,
		Type:    step.Type,
		Content: fmt.Sprintf(
			"Let's take a moment with %s.\n\nEvery expert was once a beginner — sit with the idea, and we'll work through it together one piece at a time.",
			step.Title),
		LearningGoal: step.Objective,
		Media:        []MediaRef{fallbackMedia},
		Err:          "generation_failed",
	}
}
