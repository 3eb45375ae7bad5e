package learner

import "github.com/abhisek/tutorloop/internal/llm"

// InsightsSchema defines the JSON schema for learning-analysis generation.
var InsightsSchema = &llm.Schema{
	Name:        "learning-insights",
	Description: "Learning analysis for one learner: style, pace, and focus areas",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"learning_style": map[string]any{
				"type":        "string",
				"description": "Dominant learning style observed (e.g. visual, verbal, hands-on)",
			},
			"pace": map[string]any{
				"type": "string",
				"enum": []any{"slow", "steady", "fast"},
			},
			"focus_areas": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "2-4 areas the next sessions should emphasize",
			},
			"confidence": map[string]any{
				"type":        "number",
				"description": "Confidence in this analysis, 0.0-1.0",
			},
		},
		"required":             []any{"learning_style", "pace", "focus_areas", "confidence"},
		"additionalProperties": false,
	},
}

// SummarySchema defines the JSON schema for context compression.
var SummarySchema = &llm.Schema{
	Name:        "context-summary",
	Description: "Compressed digest of a learner's recent interactions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "2-3 sentence digest of the interaction history",
			},
		},
		"required":             []any{"summary"},
		"additionalProperties": false,
	},
}

// AssessmentSchema defines the JSON schema for response scoring.
var AssessmentSchema = &llm.Schema{
	Name:        "response-assessment",
	Description: "Structured scoring of one learner response",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"correctness": map[string]any{
				"type": "string",
				"enum": []any{"correct", "partial", "incorrect", "unscored"},
			},
			"score": map[string]any{
				"type":        "number",
				"description": "Quality of the response, 0.0-1.0",
			},
			"reasoning": map[string]any{
				"type":        "string",
				"description": "One or two sentences explaining the score",
			},
			"skills": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Skills the response demonstrates or lacks",
			},
		},
		"required":             []any{"correctness", "score", "reasoning", "skills"},
		"additionalProperties": false,
	},
}

// StrategySchema defines the JSON schema for tutoring-strategy advice.
var StrategySchema = &llm.Schema{
	Name:        "tutoring-strategy",
	Description: "Recommended tutoring methodology and next action",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"methodology": map[string]any{
				"type": "string",
				"enum": []any{"socratic", "worked-example", "direct-instruction", "analogy", "retrieval-practice"},
			},
			"next_action": map[string]any{
				"type":        "string",
				"description": "Concrete next move for the tutor",
			},
			"rationale": map[string]any{
				"type":        "string",
				"description": "Why this methodology fits right now",
			},
		},
		"required":             []any{"methodology", "next_action", "rationale"},
		"additionalProperties": false,
	},
}
