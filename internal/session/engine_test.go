package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/tutorloop/internal/content"
	"github.com/abhisek/tutorloop/internal/learner"
	"github.com/abhisek/tutorloop/internal/llm"
	"github.com/abhisek/tutorloop/internal/plan"
)

var testKey = Key{UserID: "u1", MissionID: "m1"}

// newTestEngine builds an engine whose provider first answers the plan
// request with planJSON, then answers block and feedback requests from
// blockResponses in order. An exhausted queue degrades to fallbacks.
func newTestEngine(t *testing.T, collab Collaborators, planJSON string, blockResponses ...string) (*Engine, *llm.MockProvider) {
	t.Helper()

	responses := []llm.MockResponse{llm.TextResponse(planJSON)}
	for _, r := range blockResponses {
		responses = append(responses, llm.TextResponse(r))
	}
	mock := llm.NewMockProvider(responses...)

	log := zap.NewNop()
	e := NewEngine(
		NewCacheStore(time.Minute),
		mock,
		plan.NewGenerator(mock, plan.DefaultConfig(), log),
		content.NewGenerator(mock, content.DefaultConfig(), log),
		collab,
		nil,
		log,
	)
	return e, mock
}

func mustStart(t *testing.T, e *Engine, topic string) *TurnPayload {
	t.Helper()
	p, err := e.Start(context.Background(), testKey, StartRequest{Topic: topic})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return p
}

const twoTurnBlock = `{"content": "First sentence here.\n\nSecond paragraph here.", "learning_goal": "g"}`

func TestStartSingleNarrationStep(t *testing.T) {
	e, _ := newTestEngine(t, Collaborators{},
		`[{"id": "s1", "type": "narration", "title": "Intro", "objective": "Start"}]`,
		twoTurnBlock)

	p := mustStart(t, e, "fractions")

	if p.BlockType != "narration" {
		t.Errorf("BlockType = %q, want narration", p.BlockType)
	}
	if p.TutorTurn == nil || p.TutorTurn.Say == "" {
		t.Fatalf("first turn must have say text: %+v", p.TutorTurn)
	}

	state, err := e.StateOf(testKey)
	if err != nil {
		t.Fatalf("StateOf: %v", err)
	}
	if state.BlockIndex != 0 || state.TurnIndex != 0 {
		t.Errorf("cursor = (%d,%d), want (0,0)", state.BlockIndex, state.TurnIndex)
	}
	if state.Status != StatusActive {
		t.Errorf("Status = %s", state.Status)
	}
}

func TestNextTurnAdvancesThroughBlockThenToNext(t *testing.T) {
	e, _ := newTestEngine(t, Collaborators{},
		`[{"id": "s1", "type": "narration", "title": "A", "objective": "a"},
		  {"id": "s2", "type": "narration", "title": "B", "objective": "b"}]`,
		twoTurnBlock, twoTurnBlock)

	mustStart(t, e, "fractions")
	state, _ := e.StateOf(testKey)
	n := len(state.CurrentTurns())
	if n != 2 {
		t.Fatalf("turns = %d, want 2", n)
	}

	// Exactly n calls move to the next block with turnIndex reset.
	for i := 0; i < n; i++ {
		if _, err := e.NextTurn(context.Background(), testKey); err != nil {
			t.Fatalf("NextTurn %d: %v", i, err)
		}
	}

	state, _ = e.StateOf(testKey)
	if state.BlockIndex != 1 {
		t.Errorf("BlockIndex = %d, want 1", state.BlockIndex)
	}
	if state.TurnIndex != 0 {
		t.Errorf("TurnIndex = %d, want 0", state.TurnIndex)
	}
	if state.CurrentBlock().BlockID != "s2" {
		t.Errorf("current block = %q, want s2", state.CurrentBlock().BlockID)
	}
}

func TestChoiceBlockAwaitsDecision(t *testing.T) {
	e, _ := newTestEngine(t, Collaborators{},
		`[{"id": "s1", "type": "choice", "title": "Pick", "objective": "branch",
		   "options": [{"text": "A", "next": "s2"}, {"text": "B", "next": "s3"}]},
		  {"id": "s2", "type": "narration", "title": "Left", "objective": "l"},
		  {"id": "s3", "type": "narration", "title": "Right", "objective": "r"}]`)

	mustStart(t, e, "fractions")
	state, _ := e.StateOf(testKey)
	n := len(state.CurrentTurns())

	var p *TurnPayload
	var err error
	for i := 0; i < n+2; i++ {
		p, err = e.NextTurn(context.Background(), testKey)
		if err != nil {
			t.Fatalf("NextTurn %d: %v", i, err)
		}
	}

	if !p.AwaitingChoice {
		t.Fatal("expected awaiting_choice after choice turns exhausted")
	}
	if len(p.Choices) != 2 {
		t.Errorf("Choices = %d, want 2", len(p.Choices))
	}

	state, _ = e.StateOf(testKey)
	if state.BlockIndex != 0 {
		t.Errorf("BlockIndex mutated to %d while awaiting choice", state.BlockIndex)
	}
	if state.Status != StatusAwaitingChoice {
		t.Errorf("Status = %s", state.Status)
	}
}

func TestSubmitChoiceBranchesByIndex(t *testing.T) {
	e, _ := newTestEngine(t, Collaborators{},
		`[{"id": "s1", "type": "choice", "title": "Pick", "objective": "branch",
		   "options": [{"text": "A", "next": "s2"}, {"text": "B", "next": "s3"}]},
		  {"id": "s2", "type": "narration", "title": "Left", "objective": "l"},
		  {"id": "s3", "type": "narration", "title": "Right", "objective": "r"}]`,
		twoTurnBlock)

	mustStart(t, e, "fractions")
	res, err := e.Submit(context.Background(), testKey, ChoiceResponse(1))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if !res.Branched {
		t.Fatal("Branched = false")
	}
	if res.Choice == nil || res.Choice.Text != "B" {
		t.Fatalf("Choice = %+v, want text B", res.Choice)
	}
	if res.TurnPayload == nil || res.TurnPayload.BlockID != "s3" {
		t.Fatalf("TurnPayload = %+v, want block s3", res.TurnPayload)
	}

	state, _ := e.StateOf(testKey)
	if state.CurrentBlock().BlockID != "s3" {
		t.Errorf("current block = %q, want s3", state.CurrentBlock().BlockID)
	}
}

func TestSubmitChoiceByTextMatch(t *testing.T) {
	e, _ := newTestEngine(t, Collaborators{},
		`[{"id": "s1", "type": "choice", "title": "Pick", "objective": "branch",
		   "options": [{"text": "Go deeper", "next": "s2"}, {"text": "Move on", "next": "s3"}]},
		  {"id": "s2", "type": "narration", "title": "Deep", "objective": "d"},
		  {"id": "s3", "type": "narration", "title": "On", "objective": "o"}]`,
		twoTurnBlock)

	mustStart(t, e, "fractions")
	res, err := e.Submit(context.Background(), testKey, TextResponse("move on"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Choice == nil || res.Choice.Text != "Move on" {
		t.Fatalf("Choice = %+v", res.Choice)
	}
	state, _ := e.StateOf(testKey)
	if state.CurrentBlock().BlockID != "s3" {
		t.Errorf("current block = %q, want s3", state.CurrentBlock().BlockID)
	}
}

func TestSubmitInvalidChoiceFallsBackToSuccessor(t *testing.T) {
	e, _ := newTestEngine(t, Collaborators{},
		`[{"id": "s1", "type": "choice", "title": "Pick", "objective": "branch",
		   "options": [{"text": "A", "next": "s3"}]},
		  {"id": "s2", "type": "narration", "title": "Next", "objective": "n"},
		  {"id": "s3", "type": "narration", "title": "Other", "objective": "o"}]`,
		twoTurnBlock)

	mustStart(t, e, "fractions")
	res, err := e.Submit(context.Background(), testKey, ChoiceResponse(99))
	if err != nil {
		t.Fatalf("Submit must not fail on an out-of-range choice: %v", err)
	}
	if !res.Branched {
		t.Error("Branched = false")
	}
	if res.Choice != nil {
		t.Errorf("Choice = %+v, want nil for unmatched selection", res.Choice)
	}

	// Sequential successor of s1 is s2, not the option target.
	state, _ := e.StateOf(testKey)
	if state.CurrentBlock().BlockID != "s2" {
		t.Errorf("current block = %q, want s2", state.CurrentBlock().BlockID)
	}
}

func TestPlanExhaustionIsIdempotentlyDone(t *testing.T) {
	e, _ := newTestEngine(t, Collaborators{},
		`[{"id": "s1", "type": "narration", "title": "Only", "objective": "o"}]`,
		twoTurnBlock)

	mustStart(t, e, "fractions")
	state, _ := e.StateOf(testKey)
	n := len(state.CurrentTurns())

	var p *TurnPayload
	var err error
	for i := 0; i < n; i++ {
		p, err = e.NextTurn(context.Background(), testKey)
		if err != nil {
			t.Fatalf("NextTurn %d: %v", i, err)
		}
	}
	if !p.Done {
		t.Fatalf("expected done after exhausting the only block, got %+v", p)
	}

	state, _ = e.StateOf(testKey)
	blocksBefore, cursorBefore := len(state.Blocks), state.BlockIndex

	for i := 0; i < 3; i++ {
		p, err = e.NextTurn(context.Background(), testKey)
		if err != nil || !p.Done {
			t.Fatalf("repeated NextTurn after done: %+v, %v", p, err)
		}
		res, err := e.Submit(context.Background(), testKey, TextResponse("hello"))
		if err != nil || !res.Done {
			t.Fatalf("repeated Submit after done: %+v, %v", res, err)
		}
	}

	state, _ = e.StateOf(testKey)
	if len(state.Blocks) != blocksBefore || state.BlockIndex != cursorBefore {
		t.Error("done session mutated by repeated calls")
	}
	if state.Status != StatusCompleted {
		t.Errorf("Status = %s", state.Status)
	}
}

func TestSubmitAnswerReturnsFeedback(t *testing.T) {
	e, _ := newTestEngine(t, Collaborators{},
		`[{"id": "s1", "type": "quiz", "title": "Check", "objective": "recall"},
		  {"id": "s2", "type": "narration", "title": "More", "objective": "m"}]`,
		twoTurnBlock,
		`{"feedback": "Nice reasoning!", "next_action": "example", "follow_up_question": null, "confidence": 0.9}`)

	mustStart(t, e, "fractions")
	res, err := e.Submit(context.Background(), testKey, TextResponse("one half"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if res.Branched {
		t.Error("non-choice submit should not branch")
	}
	if res.Feedback == nil || res.Feedback.Feedback != "Nice reasoning!" {
		t.Fatalf("Feedback = %+v", res.Feedback)
	}
	if res.Feedback.NextAction != "example" {
		t.Errorf("NextAction = %q", res.Feedback.NextAction)
	}
}

func TestSubmitAnswerFeedbackFailureIsNeutral(t *testing.T) {
	// Queue has only the plan and the block; the feedback call hits an
	// empty queue and fails.
	e, _ := newTestEngine(t, Collaborators{},
		`[{"id": "s1", "type": "quiz", "title": "Check", "objective": "recall"}]`,
		twoTurnBlock)

	mustStart(t, e, "fractions")
	res, err := e.Submit(context.Background(), testKey, TextResponse("no idea"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Feedback == nil || res.Feedback.Feedback == "" {
		t.Fatal("expected neutral fallback feedback")
	}
	if res.Feedback.NextAction != "explanation" {
		t.Errorf("NextAction = %q, want explanation", res.Feedback.NextAction)
	}
}

type stubAssessment struct {
	result *learner.Assessment
	err    error
}

func (s *stubAssessment) Assess(context.Context, string, learner.Interaction) (*learner.Assessment, error) {
	return s.result, s.err
}

func TestSubmitAssessmentIsBestEffort(t *testing.T) {
	failing := Collaborators{Assessment: &stubAssessment{err: errors.New("assessor down")}}
	e, _ := newTestEngine(t, failing,
		`[{"id": "s1", "type": "quiz", "title": "Check", "objective": "recall"}]`,
		twoTurnBlock,
		`{"feedback": "ok", "next_action": "question", "confidence": 0.5}`)

	mustStart(t, e, "fractions")
	res, err := e.Submit(context.Background(), testKey, TextResponse("a guess"))
	if err != nil {
		t.Fatalf("Submit must absorb assessment failure: %v", err)
	}
	if res.Assessment != nil {
		t.Errorf("Assessment = %+v, want nil on failure", res.Assessment)
	}

	working := Collaborators{Assessment: &stubAssessment{
		result: &learner.Assessment{Correctness: "correct", Score: 1.0},
	}}
	e, _ = newTestEngine(t, working,
		`[{"id": "s1", "type": "quiz", "title": "Check", "objective": "recall"}]`,
		twoTurnBlock,
		`{"feedback": "ok", "next_action": "question", "confidence": 0.5}`)

	mustStart(t, e, "fractions")
	res, err = e.Submit(context.Background(), testKey, TextResponse("one half"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Assessment == nil || res.Assessment.Correctness != "correct" {
		t.Fatalf("Assessment = %+v", res.Assessment)
	}

	state, _ := e.StateOf(testKey)
	if state.LastAssessment == nil {
		t.Error("successful assessment not retained on state")
	}
}

func TestEndIsIdempotent(t *testing.T) {
	e, _ := newTestEngine(t, Collaborators{},
		`[{"id": "s1", "type": "narration", "title": "Only", "objective": "o"}]`,
		twoTurnBlock)

	mustStart(t, e, "fractions")
	for i := 0; i < 2; i++ {
		if err := e.End(context.Background(), testKey); err != nil {
			t.Fatalf("End %d: %v", i, err)
		}
	}

	if _, err := e.StateOf(testKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("StateOf after End = %v, want ErrNotFound", err)
	}
	if _, err := e.NextTurn(context.Background(), testKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("NextTurn after End = %v, want ErrNotFound", err)
	}
	if _, err := e.Submit(context.Background(), testKey, TextResponse("x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Submit after End = %v, want ErrNotFound", err)
	}
}

func TestGenerationFailureNeverAbortsSession(t *testing.T) {
	// Plan generation fails, content generation fails: the session still
	// starts on the synthetic plan with fallback blocks.
	mock := llm.NewMockProvider() // empty queue, every call fails
	log := zap.NewNop()
	e := NewEngine(
		NewCacheStore(time.Minute),
		mock,
		plan.NewGenerator(mock, plan.DefaultConfig(), log),
		content.NewGenerator(mock, content.DefaultConfig(), log),
		Collaborators{},
		nil,
		log,
	)

	p, err := e.Start(context.Background(), testKey, StartRequest{Topic: "fractions"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if p.TutorTurn == nil || p.TutorTurn.Say == "" {
		t.Fatal("degraded session must still produce a first turn")
	}

	state, _ := e.StateOf(testKey)
	if state.CurrentBlock().Err == "" {
		t.Error("fallback block should carry the error marker")
	}

	// The session remains traversable end to end.
	for i := 0; i < 100; i++ {
		p, err = e.NextTurn(context.Background(), testKey)
		if err != nil {
			t.Fatalf("NextTurn %d: %v", i, err)
		}
		if p.AwaitingChoice {
			if _, err := e.Submit(context.Background(), testKey, ChoiceResponse(0)); err != nil {
				t.Fatalf("Submit %d: %v", i, err)
			}
			continue
		}
		if p.Done {
			return
		}
	}
	t.Fatal("session never completed")
}

func TestTurnsMemoizedOncePerBlock(t *testing.T) {
	e, _ := newTestEngine(t, Collaborators{},
		`[{"id": "s1", "type": "narration", "title": "Only", "objective": "o"}]`,
		twoTurnBlock)

	mustStart(t, e, "fractions")
	state, _ := e.StateOf(testKey)
	before := state.CurrentTurns()

	if _, err := e.NextTurn(context.Background(), testKey); err != nil {
		t.Fatalf("NextTurn: %v", err)
	}

	state, _ = e.StateOf(testKey)
	after := state.CurrentTurns()
	if len(before) != len(after) {
		t.Fatalf("turn count changed: %d != %d", len(before), len(after))
	}
	if len(state.Turns) != 1 {
		t.Errorf("memoized entries = %d, want 1", len(state.Turns))
	}
}
