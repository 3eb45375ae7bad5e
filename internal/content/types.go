// Package content turns plan steps into generated lesson blocks.
package content

import "github.com/abhisek/tutorloop/internal/plan"

// MediaRef points at a supporting asset for a block.
type MediaRef struct {
	Kind    string `json:"kind"` // "image", "diagram"
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// TutoringElements carries the pedagogy extras attached to a block.
type TutoringElements struct {
	SocraticQuestions []string `json:"socratic_questions,omitempty"`
}

// Choice is one branch option on a choice block.
type Choice struct {
	Text            string `json:"text"`
	NextBlock       string `json:"next_block,omitempty"` // target step id
	Consequence     string `json:"consequence,omitempty"`
	LearningValue   string `json:"learning_value,omitempty"`
	DifficultyLevel string `json:"difficulty_level,omitempty"`
}

// Block is the generated content artifact for exactly one plan step.
// BlockID mirrors the step id. Choices is populated only for choice
// blocks. Err marks a block produced via the deterministic fallback.
type Block struct {
	BlockID      string           `json:"block_id"`
	Type         plan.StepType    `json:"type"`
	Content      string           `json:"content"`
	LearningGoal string           `json:"learning_goal"`
	Media        []MediaRef       `json:"media,omitempty"`
	Tutoring     TutoringElements `json:"tutoring_elements"`
	Choices      []Choice         `json:"choices,omitempty"`
	Err          string           `json:"error,omitempty"`
}

// IsChoice reports whether the block awaits a branch decision after its
// turns are exhausted.
func (b *Block) IsChoice() bool {
	return b.Type == plan.StepChoice
}

// FirstSocraticQuestion returns the first socratic question, or "".
func (b *Block) FirstSocraticQuestion() string {
	if len(b.Tutoring.SocraticQuestions) == 0 {
		return ""
	}
	return b.Tutoring.SocraticQuestions[0]
}
