package learner

import "context"

// PersonalizationService produces a learning analysis for a user.
type PersonalizationService interface {
	// Insights returns the current learning analysis for userID.
	Insights(ctx context.Context, userID string) (*Insights, error)
}

// ContextSummarizer compresses a user's recent interaction history into a
// short text digest suitable for inclusion in generation prompts.
type ContextSummarizer interface {
	Summarize(ctx context.Context, userID string, history []string) (string, error)
}

// AssessmentService scores a single learner interaction.
type AssessmentService interface {
	Assess(ctx context.Context, userID string, interaction Interaction) (*Assessment, error)
}

// StrategyAdvisor recommends a tutoring methodology and next action.
type StrategyAdvisor interface {
	Strategy(ctx context.Context, userID string, sctx StrategyContext) (*Strategy, error)
}
