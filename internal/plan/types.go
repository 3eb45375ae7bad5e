// Package plan models the upfront lesson plan: an ordered, optionally
// branching sequence of steps produced once per session and materialized
// into content lazily, one step at a time.
package plan

import "fmt"

// StepType classifies what kind of content a step materializes into.
type StepType string

const (
	StepNarration  StepType = "narration"
	StepQuiz       StepType = "quiz"
	StepImage      StepType = "image"
	StepReflection StepType = "reflection"
	StepChoice     StepType = "choice"
)

// Valid reports whether t is one of the known step types.
func (t StepType) Valid() bool {
	switch t {
	case StepNarration, StepQuiz, StepImage, StepReflection, StepChoice:
		return true
	}
	return false
}

// Option is one branch choice on a choice step. Next names the step id the
// branch leads to; empty means "fall through to the sequential successor".
type Option struct {
	Text string `json:"text"`
	Next string `json:"next,omitempty"`
}

// Step is a planned unit of the lesson before its content is generated.
type Step struct {
	ID               string   `json:"id"`
	Type             StepType `json:"type"`
	Title            string   `json:"title"`
	Objective        string   `json:"objective"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	Options          []Option `json:"options,omitempty"` // choice steps only
}

// Plan is the ordered step sequence plus a step-id → position index.
// Branch targets resolve through the index, never through array position.
type Plan struct {
	Steps []Step
	index map[string]int
}

// New builds a Plan from steps, enforcing the id-uniqueness invariant.
// Duplicate ids are disambiguated with a numeric suffix so the index stays
// total; empty ids are filled positionally.
func New(steps []Step) *Plan {
	p := &Plan{
		Steps: make([]Step, len(steps)),
		index: make(map[string]int, len(steps)),
	}
	copy(p.Steps, steps)

	for i := range p.Steps {
		id := p.Steps[i].ID
		if id == "" {
			id = fmt.Sprintf("step-%d", i+1)
		}
		if _, taken := p.index[id]; taken {
			base := id
			for n := 2; ; n++ {
				id = fmt.Sprintf("%s-%d", base, n)
				if _, taken := p.index[id]; !taken {
					break
				}
			}
		}
		p.Steps[i].ID = id
		p.index[id] = i
	}
	return p
}

// Len returns the number of steps.
func (p *Plan) Len() int { return len(p.Steps) }

// Step returns the step at position i.
func (p *Plan) Step(i int) (Step, bool) {
	if i < 0 || i >= len(p.Steps) {
		return Step{}, false
	}
	return p.Steps[i], true
}

// Position returns the index position of the step with the given id.
func (p *Plan) Position(id string) (int, bool) {
	i, ok := p.index[id]
	return i, ok
}

// ByID returns the step with the given id.
func (p *Plan) ByID(id string) (Step, bool) {
	i, ok := p.index[id]
	if !ok {
		return Step{}, false
	}
	return p.Steps[i], true
}

// Successor returns the step following the one with the given id, resolved
// by id lookup. Returns false when id is unknown or is the last step.
func (p *Plan) Successor(id string) (Step, bool) {
	i, ok := p.index[id]
	if !ok {
		return Step{}, false
	}
	return p.Step(i + 1)
}
