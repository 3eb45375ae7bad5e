// Package learner holds the learner-facing collaborator contracts: the
// personalization, summarization, assessment, and strategy services the
// session engine consults. Every one of them is best-effort: the engine
// treats a nil result or an error as "no signal", never as a failure.
package learner

import "time"

// Profile describes what the system knows about a learner going into a
// session. It seeds plan generation and content prompts.
type Profile struct {
	Summary    string   `json:"summary"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	Patterns   []string `json:"patterns"`
	Level      string   `json:"level,omitempty"` // e.g. "beginner", "intermediate"
}

// Insights is a point-in-time learning analysis for one learner.
type Insights struct {
	UserID         string    `json:"user_id"`
	LearningStyle  string    `json:"learning_style"`
	Pace           string    `json:"pace"`
	FocusAreas     []string  `json:"focus_areas"`
	Confidence     float64   `json:"confidence"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Assessment is the structured result of scoring one learner response.
type Assessment struct {
	Correctness string    `json:"correctness"` // "correct", "partial", "incorrect", "unscored"
	Score       float64   `json:"score"`       // 0.0–1.0
	Reasoning   string    `json:"reasoning"`
	Skills      []string  `json:"skills"`
	AssessedAt  time.Time `json:"assessed_at"`
}

// Strategy is a tutoring-methodology recommendation for the next move.
type Strategy struct {
	Methodology string `json:"methodology"` // e.g. "socratic", "worked-example"
	NextAction  string `json:"next_action"`
	Rationale   string `json:"rationale"`
}

// Interaction is the payload handed to the assessment service: what the
// tutor presented and what the learner said back.
type Interaction struct {
	Topic     string `json:"topic"`
	BlockID   string `json:"block_id"`
	BlockType string `json:"block_type"`
	Prompt    string `json:"prompt"`
	Response  string `json:"response"`
}

// StrategyContext carries the session situation to the strategy advisor.
type StrategyContext struct {
	Topic          string      `json:"topic"`
	BlockType      string      `json:"block_type"`
	LastAssessment *Assessment `json:"last_assessment,omitempty"`
	Summary        string      `json:"summary,omitempty"`
}
