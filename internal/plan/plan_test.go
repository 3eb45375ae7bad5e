package plan

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/abhisek/tutorloop/internal/learner"
	"github.com/abhisek/tutorloop/internal/llm"
)

func TestNewDisambiguatesDuplicateIDs(t *testing.T) {
	p := New([]Step{
		{ID: "intro", Type: StepNarration, Title: "A"},
		{ID: "intro", Type: StepQuiz, Title: "B"},
		{ID: "", Type: StepNarration, Title: "C"},
	})

	if p.Steps[0].ID != "intro" {
		t.Errorf("Steps[0].ID = %q", p.Steps[0].ID)
	}
	if p.Steps[1].ID != "intro-2" {
		t.Errorf("Steps[1].ID = %q, want intro-2", p.Steps[1].ID)
	}
	if p.Steps[2].ID != "step-3" {
		t.Errorf("Steps[2].ID = %q, want step-3", p.Steps[2].ID)
	}

	// Every id resolves to its own position.
	for i, s := range p.Steps {
		pos, ok := p.Position(s.ID)
		if !ok || pos != i {
			t.Errorf("Position(%q) = %d, %v; want %d, true", s.ID, pos, ok, i)
		}
	}
}

func TestSuccessorResolvesByID(t *testing.T) {
	p := New([]Step{
		{ID: "a", Type: StepNarration},
		{ID: "b", Type: StepQuiz},
		{ID: "c", Type: StepReflection},
	})

	next, ok := p.Successor("a")
	if !ok || next.ID != "b" {
		t.Errorf("Successor(a) = %v, %v", next.ID, ok)
	}
	if _, ok := p.Successor("c"); ok {
		t.Error("Successor of last step should be false")
	}
	if _, ok := p.Successor("zzz"); ok {
		t.Error("Successor of unknown id should be false")
	}
}

func TestSyntheticShape(t *testing.T) {
	p := Synthetic("fractions", 8)

	if p.Len() != 8 {
		t.Fatalf("Len = %d, want 8", p.Len())
	}
	for i, s := range p.Steps {
		if s.ID == "" || s.Title == "" || s.Objective == "" {
			t.Errorf("step %d missing identity fields: %+v", i, s)
		}
		if s.EstimatedMinutes < 1 {
			t.Errorf("step %d EstimatedMinutes = %d", i, s.EstimatedMinutes)
		}
		wantChoice := (i+1)%4 == 0
		if (s.Type == StepChoice) != wantChoice {
			t.Errorf("step %d type = %s, choice expected %v", i, s.Type, wantChoice)
		}
		if s.Type == StepChoice && len(s.Options) != 2 {
			t.Errorf("choice step %d has %d options, want 2", i, len(s.Options))
		}
	}

	// The last choice step (position 7) has no later step to point at.
	last := p.Steps[7]
	if last.Type != StepChoice {
		t.Fatalf("step 8 type = %s, want choice", last.Type)
	}
	for _, o := range last.Options {
		if o.Next != "" {
			t.Errorf("final choice option points past the plan end: %q", o.Next)
		}
	}
}

func TestCreatePlanNormalizesModelOutput(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse(`[
		{"id": "s1", "type": "narration", "title": "Intro", "objective": "Start", "estimated_minutes": 2},
		{"type": "bogus", "title": "", "estimated_minutes": 0},
		{"id": "fork", "type": "choice", "title": "Pick", "objective": "Branch",
		 "estimated_minutes": 1,
		 "options": [{"text": "deeper", "next": "s1"}, {"text": ""}]}
	]`))
	g := NewGenerator(mock, DefaultConfig(), zap.NewNop())

	p := g.CreatePlan(context.Background(), "fractions", learner.Profile{})

	if p.Len() != 3 {
		t.Fatalf("Len = %d, want 3", p.Len())
	}

	s2 := p.Steps[1]
	if s2.ID != "step-2" {
		t.Errorf("defaulted id = %q, want step-2", s2.ID)
	}
	if s2.Type != StepNarration {
		t.Errorf("invalid type defaulted to %s, want narration", s2.Type)
	}
	if s2.Title == "" || s2.Objective == "" {
		t.Errorf("empty title/objective not defaulted: %+v", s2)
	}
	if s2.EstimatedMinutes != 3 {
		t.Errorf("EstimatedMinutes = %d, want 3", s2.EstimatedMinutes)
	}

	fork := p.Steps[2]
	if len(fork.Options) != 1 {
		t.Errorf("empty-text option not dropped: %+v", fork.Options)
	}
}

func TestCreatePlanFallsBackToSynthetic(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	g := NewGenerator(mock, DefaultConfig(), zap.NewNop())

	p := g.CreatePlan(context.Background(), "fractions", learner.Profile{})

	if p.Len() != DefaultConfig().SyntheticSteps {
		t.Errorf("Len = %d, want %d", p.Len(), DefaultConfig().SyntheticSteps)
	}
}

func TestCreatePlanFallsBackOnGarbage(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse("no plan today"))
	g := NewGenerator(mock, DefaultConfig(), zap.NewNop())

	p := g.CreatePlan(context.Background(), "fractions", learner.Profile{})
	if p.Len() < 1 {
		t.Fatal("CreatePlan must always return a usable plan")
	}
}
