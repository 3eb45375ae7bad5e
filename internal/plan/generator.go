package plan

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/tutorloop/internal/jsonx"
	"github.com/abhisek/tutorloop/internal/learner"
	"github.com/abhisek/tutorloop/internal/llm"
)

// Config tunes plan generation.
type Config struct {
	MaxTokens   int
	Temperature float64

	// SyntheticSteps is the step count of the deterministic fallback plan.
	SyntheticSteps int
}

// DefaultConfig returns plan generation defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:      2000,
		Temperature:    0.4,
		SyntheticSteps: 8,
	}
}

// Generator produces lesson plans. A generation or parse failure never
// escapes: CreatePlan always returns a usable plan.
type Generator struct {
	provider llm.Provider
	cfg      Config
	log      *zap.Logger
}

// NewGenerator creates a plan generator.
func NewGenerator(provider llm.Provider, cfg Config, log *zap.Logger) *Generator {
	return &Generator{provider: provider, cfg: cfg, log: log}
}

// rawStep is the loosely-typed shape accepted from the model. Fields the
// model omits or mangles are defaulted, not rejected.
type rawStep struct {
	ID               string   `json:"id"`
	Type             string   `json:"type"`
	Title            string   `json:"title"`
	Objective        string   `json:"objective"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	Options          []Option `json:"options"`
}

// CreatePlan builds a lesson plan for topic and profile. It asks the
// generation service for a step sequence and normalizes whatever comes
// back; if the call fails or yields nothing usable, it falls back to the
// deterministic synthetic plan. Always returns a plan with ≥1 step.
func (g *Generator) CreatePlan(ctx context.Context, topic string, profile learner.Profile) *Plan {
	steps, err := g.generate(ctx, topic, profile)
	if err != nil || len(steps) == 0 {
		g.log.Warn("plan generation degraded to synthetic plan",
			zap.String("topic", topic), zap.Error(err))
		return Synthetic(topic, g.cfg.SyntheticSteps)
	}
	return New(steps)
}

func (g *Generator) generate(ctx context.Context, topic string, profile learner.Profile) ([]Step, error) {
	ctx = llm.WithPurpose(ctx, "plan")

	resp, err := g.provider.Generate(ctx, llm.Request{
		System: planSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildPlanUserMessage(topic, profile)},
		},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("plan generation: %w", err)
	}

	var raw []rawStep
	if err := jsonx.Decode(resp.Text(), &raw); err != nil {
		return nil, fmt.Errorf("parse plan response: %w", err)
	}

	steps := make([]Step, 0, len(raw))
	for i, r := range raw {
		steps = append(steps, normalizeStep(r, i))
	}
	return steps, nil
}

// normalizeStep fills defaults for every field the model dropped or got
// wrong. Position i is zero-based.
func normalizeStep(r rawStep, i int) Step {
	s := Step{
		ID:               r.ID,
		Type:             StepType(r.Type),
		Title:            r.Title,
		Objective:        r.Objective,
		EstimatedMinutes: r.EstimatedMinutes,
	}
	if s.ID == "" {
		s.ID = fmt.Sprintf("step-%d", i+1)
	}
	if !s.Type.Valid() {
		s.Type = StepNarration
	}
	if s.Title == "" {
		s.Title = fmt.Sprintf("Step %d", i+1)
	}
	if s.Objective == "" {
		s.Objective = s.Title
	}
	if s.EstimatedMinutes < 1 {
		s.EstimatedMinutes = 3
	}
	if s.Type == StepChoice {
		for _, o := range r.Options {
			if o.Text != "" {
				s.Options = append(s.Options, o)
			}
		}
	}
	return s
}

// Synthetic builds the deterministic fallback plan: every 4th step is a
// choice with two generic options pointing at the following step, the rest
// alternate narration and quiz.
func Synthetic(topic string, count int) *Plan {
	if count < 1 {
		count = 1
	}
	steps := make([]Step, 0, count)
	for i := 1; i <= count; i++ {
		id := fmt.Sprintf("step-%d", i)
		s := Step{
			ID:               id,
			Title:            fmt.Sprintf("%s — part %d", topic, i),
			Objective:        fmt.Sprintf("Build understanding of %s", topic),
			EstimatedMinutes: 3,
		}
		switch {
		case i%4 == 0:
			s.Type = StepChoice
			next := ""
			if i < count {
				next = fmt.Sprintf("step-%d", i+1)
			}
			s.Options = []Option{
				{Text: "Go deeper into this idea", Next: next},
				{Text: "Move on to what's next", Next: next},
			}
		case i%2 == 1:
			s.Type = StepNarration
		default:
			s.Type = StepQuiz
		}
		steps = append(steps, s)
	}
	return New(steps)
}
