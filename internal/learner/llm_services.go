package learner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/tutorloop/internal/llm"
)

// Config tunes the learner collaborator calls.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns tuning defaults for the collaborator services.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   600,
		Temperature: 0.2,
	}
}

// LLMServices implements all four collaborator contracts on top of a
// generation provider. Each method returns an error on failure; the
// session engine decides how to degrade.
type LLMServices struct {
	provider llm.Provider
	cfg      Config
}

// NewLLMServices creates the provider-backed collaborator bundle.
func NewLLMServices(provider llm.Provider, cfg Config) *LLMServices {
	return &LLMServices{provider: provider, cfg: cfg}
}

type insightsOutput struct {
	LearningStyle string   `json:"learning_style"`
	Pace          string   `json:"pace"`
	FocusAreas    []string `json:"focus_areas"`
	Confidence    float64  `json:"confidence"`
}

// Insights generates a learning analysis. Callers pass recent history via
// InsightsWithHistory; the plain interface method uses none.
func (s *LLMServices) Insights(ctx context.Context, userID string) (*Insights, error) {
	return s.InsightsWithHistory(ctx, userID, nil)
}

// InsightsWithHistory generates a learning analysis grounded in the given
// interaction lines.
func (s *LLMServices) InsightsWithHistory(ctx context.Context, userID string, history []string) (*Insights, error) {
	ctx = llm.WithPurpose(ctx, "insights")

	resp, err := s.provider.Generate(ctx, llm.Request{
		System: insightsSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildInsightsUserMessage(userID, history)},
		},
		Schema:      InsightsSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("insights generation: %w", err)
	}

	var out insightsOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse insights response: %w", err)
	}

	return &Insights{
		UserID:        userID,
		LearningStyle: out.LearningStyle,
		Pace:          out.Pace,
		FocusAreas:    out.FocusAreas,
		Confidence:    out.Confidence,
		GeneratedAt:   time.Now(),
	}, nil
}

type summaryOutput struct {
	Summary string `json:"summary"`
}

// Summarize compresses interaction history into a short digest.
func (s *LLMServices) Summarize(ctx context.Context, userID string, history []string) (string, error) {
	if len(history) == 0 {
		return "", nil
	}
	ctx = llm.WithPurpose(ctx, "summarize")

	resp, err := s.provider.Generate(ctx, llm.Request{
		System: summarySystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildSummaryUserMessage(history)},
		},
		Schema:      SummarySchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("context summarization: %w", err)
	}

	var out summaryOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", fmt.Errorf("parse summary response: %w", err)
	}
	return out.Summary, nil
}

type assessmentOutput struct {
	Correctness string   `json:"correctness"`
	Score       float64  `json:"score"`
	Reasoning   string   `json:"reasoning"`
	Skills      []string `json:"skills"`
}

// Assess scores one learner interaction.
func (s *LLMServices) Assess(ctx context.Context, userID string, interaction Interaction) (*Assessment, error) {
	ctx = llm.WithPurpose(ctx, "assess")

	resp, err := s.provider.Generate(ctx, llm.Request{
		System: assessmentSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildAssessmentUserMessage(interaction)},
		},
		Schema:      AssessmentSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("response assessment: %w", err)
	}

	var out assessmentOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse assessment response: %w", err)
	}

	return &Assessment{
		Correctness: out.Correctness,
		Score:       out.Score,
		Reasoning:   out.Reasoning,
		Skills:      out.Skills,
		AssessedAt:  time.Now(),
	}, nil
}

type strategyOutput struct {
	Methodology string `json:"methodology"`
	NextAction  string `json:"next_action"`
	Rationale   string `json:"rationale"`
}

// Strategy recommends the next tutoring move.
func (s *LLMServices) Strategy(ctx context.Context, userID string, sctx StrategyContext) (*Strategy, error) {
	ctx = llm.WithPurpose(ctx, "strategy")

	resp, err := s.provider.Generate(ctx, llm.Request{
		System: strategySystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildStrategyUserMessage(sctx)},
		},
		Schema:      StrategySchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("strategy advice: %w", err)
	}

	var out strategyOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse strategy response: %w", err)
	}

	return &Strategy{
		Methodology: out.Methodology,
		NextAction:  out.NextAction,
		Rationale:   out.Rationale,
	}, nil
}
