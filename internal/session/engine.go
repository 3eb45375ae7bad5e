package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/tutorloop/internal/content"
	"github.com/abhisek/tutorloop/internal/learner"
	"github.com/abhisek/tutorloop/internal/llm"
	"github.com/abhisek/tutorloop/internal/plan"
	"github.com/abhisek/tutorloop/internal/turns"
)

// EventRecorder receives session lifecycle events for auditing. Recording
// is best-effort; a nil recorder or a recording error never affects the
// session.
type EventRecorder interface {
	RecordSessionEvent(ctx context.Context, userID, missionID, event, detail string) error
}

// Collaborators bundles the best-effort learner services the engine
// consults. Any field may be nil; a nil service is simply skipped.
type Collaborators struct {
	Personalization learner.PersonalizationService
	Summarizer      learner.ContextSummarizer
	Assessment      learner.AssessmentService
	Strategy        learner.StrategyAdvisor
}

// Engine drives lesson sessions. All operations are safe for concurrent
// use; mutations on one session key are serialized.
type Engine struct {
	store    Store
	locks    *keyLocks
	provider llm.Provider
	planner  *plan.Generator
	blocks   *content.Generator
	collab   Collaborators
	events   EventRecorder
	log      *zap.Logger
}

// NewEngine wires a session engine. events may be nil.
func NewEngine(store Store, provider llm.Provider, planner *plan.Generator, blocks *content.Generator, collab Collaborators, events EventRecorder, log *zap.Logger) *Engine {
	return &Engine{
		store:    store,
		locks:    newKeyLocks(64),
		provider: provider,
		planner:  planner,
		blocks:   blocks,
		collab:   collab,
		events:   events,
		log:      log,
	}
}

// StartRequest describes the session to create.
type StartRequest struct {
	Topic   string
	Profile learner.Profile
}

// Response is a learner's submission: free text, an optional choice index,
// or both. A nil ChoiceIndex means "no index given".
type Response struct {
	Text        string
	ChoiceIndex *int
}

// TextResponse builds a free-text submission.
func TextResponse(text string) Response {
	return Response{Text: text}
}

// ChoiceResponse builds an index-based choice submission.
func ChoiceResponse(i int) Response {
	return Response{ChoiceIndex: &i}
}

// Start creates the session for key, builds its plan, materializes the
// first block, and returns the first turn. An existing session under the
// same key is replaced.
func (e *Engine) Start(ctx context.Context, key Key, req StartRequest) (*TurnPayload, error) {
	defer e.locks.lock(key).Unlock()

	state := &State{
		Key:       key,
		Topic:     req.Topic,
		Status:    StatusInitializing,
		Profile:   req.Profile,
		Turns:     make(map[int][]turns.Turn),
		StartedAt: time.Now(),
	}

	state.Plan = e.planner.CreatePlan(ctx, req.Topic, req.Profile)
	state.Snapshots.refresh(ctx, key.UserID, e.collab.Personalization, e.collab.Summarizer, nil)

	first, _ := state.Plan.Step(0)
	state.appendBlock(e.blocks.ForStep(ctx, first, e.blockContext(state)))
	state.Status = StatusActive
	state.UpdatedAt = time.Now()

	if err := e.store.Put(key, state); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	e.record(ctx, key, "session_started", req.Topic)

	return payloadFor(state), nil
}

// NextTurn advances the session one conversational beat.
func (e *Engine) NextTurn(ctx context.Context, key Key) (*TurnPayload, error) {
	defer e.locks.lock(key).Unlock()

	state, err := e.store.Get(key)
	if err != nil {
		return nil, err
	}

	if state.Status == StatusCompleted {
		return donePayload(key), nil
	}

	// More turns left in the current block.
	if state.TurnIndex+1 < len(state.CurrentTurns()) {
		state.TurnIndex++
		state.UpdatedAt = time.Now()
		if err := e.store.Put(key, state); err != nil {
			return nil, fmt.Errorf("store session: %w", err)
		}
		return payloadFor(state), nil
	}

	// A choice block never auto-advances; it waits for a decision.
	if block := state.CurrentBlock(); block != nil && block.IsChoice() {
		state.Status = StatusAwaitingChoice
		if err := e.store.Put(key, state); err != nil {
			return nil, fmt.Errorf("store session: %w", err)
		}
		return choicePayload(state), nil
	}

	// A block generated earlier (e.g. by a branch) already sits ahead.
	if state.BlockIndex+1 < len(state.Blocks) {
		state.BlockIndex++
		state.TurnIndex = 0
		state.ensureTurns(state.BlockIndex)
		state.UpdatedAt = time.Now()
		if err := e.store.Put(key, state); err != nil {
			return nil, fmt.Errorf("store session: %w", err)
		}
		return payloadFor(state), nil
	}

	// Materialize the plan's next step, or finish.
	next, ok := e.nextStep(state)
	if !ok {
		return e.complete(ctx, key, state)
	}

	state.Snapshots.refresh(ctx, key.UserID, e.collab.Personalization, e.collab.Summarizer, state.History)
	state.appendBlock(e.blocks.ForStep(ctx, next, e.blockContext(state)))
	state.Status = StatusActive
	state.UpdatedAt = time.Now()
	if err := e.store.Put(key, state); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return payloadFor(state), nil
}

// Submit processes a learner response. On a choice block it resolves the
// branch and returns the target block's first turn; on any other block it
// returns assessment and feedback. Submit never fails for anything but a
// missing session.
func (e *Engine) Submit(ctx context.Context, key Key, resp Response) (*SubmitResult, error) {
	defer e.locks.lock(key).Unlock()

	state, err := e.store.Get(key)
	if err != nil {
		return nil, err
	}

	if state.Status == StatusCompleted {
		return &SubmitResult{Done: true}, nil
	}

	block := state.CurrentBlock()
	assessment := e.assess(ctx, state, block, resp.Text)
	if assessment != nil {
		state.LastAssessment = assessment
	}
	state.recordInteraction(fmt.Sprintf("%s: learner said %q", block.BlockID, resp.Text))

	var result *SubmitResult
	if block.IsChoice() {
		result = e.submitChoice(ctx, key, state, block, resp)
	} else {
		result = e.submitAnswer(ctx, state, block, resp)
	}
	result.Assessment = assessment

	state.UpdatedAt = time.Now()
	if err := e.store.Put(key, state); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return result, nil
}

// End removes the session. Idempotent; ending an absent session succeeds.
func (e *Engine) End(ctx context.Context, key Key) error {
	defer e.locks.lock(key).Unlock()

	if err := e.store.Delete(key); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	e.record(ctx, key, "session_ended", "")
	return nil
}

// StateOf returns the stored session state for inspection.
func (e *Engine) StateOf(key Key) (*State, error) {
	return e.store.Get(key)
}

// submitChoice resolves the branch decision and advances onto the target
// block. An invalid selection degrades to the sequential successor.
func (e *Engine) submitChoice(ctx context.Context, key Key, state *State, block *content.Block, resp Response) *SubmitResult {
	choice := resolveChoice(block.Choices, resp)

	targetID := ""
	if choice != nil {
		targetID = choice.NextBlock
	}

	step, ok := e.resolveTarget(state, block.BlockID, targetID)
	if !ok {
		state.Status = StatusCompleted
		e.record(ctx, key, "session_completed", "plan exhausted after choice")
		return &SubmitResult{Branched: true, Choice: choice, Done: true, TurnPayload: donePayload(key)}
	}

	state.Snapshots.refresh(ctx, key.UserID, e.collab.Personalization, e.collab.Summarizer, state.History)
	state.appendBlock(e.blocks.ForStep(ctx, step, e.blockContext(state)))
	state.Status = StatusActive

	e.record(ctx, key, "branch_taken", step.ID)
	return &SubmitResult{
		Branched:    true,
		Choice:      choice,
		TurnPayload: payloadFor(state),
	}
}

// submitAnswer composes tutor feedback for a non-choice response, plus an
// optional strategy recommendation.
func (e *Engine) submitAnswer(ctx context.Context, state *State, block *content.Block, resp Response) *SubmitResult {
	result := &SubmitResult{
		Feedback: e.composeFeedback(ctx, state, block, resp.Text),
	}

	if e.collab.Strategy != nil {
		strat, err := e.collab.Strategy.Strategy(ctx, state.Key.UserID, learner.StrategyContext{
			Topic:          state.Topic,
			BlockType:      string(block.Type),
			LastAssessment: state.LastAssessment,
			Summary:        state.Snapshots.ContextSummary,
		})
		if err != nil {
			e.log.Debug("strategy advisor failed", zap.Error(err))
		} else {
			result.NextRecommendation = strat
		}
	}
	return result
}

// resolveChoice finds the selected option by index, then by
// case-insensitive text match. Returns nil when nothing matches.
func resolveChoice(choices []content.Choice, resp Response) *content.Choice {
	if resp.ChoiceIndex != nil && *resp.ChoiceIndex >= 0 && *resp.ChoiceIndex < len(choices) {
		c := choices[*resp.ChoiceIndex]
		return &c
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil
	}
	for i := range choices {
		if strings.EqualFold(choices[i].Text, text) {
			c := choices[i]
			return &c
		}
	}
	return nil
}

// resolveTarget maps a branch target id to a plan step. An empty or
// unknown target falls back to the sequential successor of the current
// step id.
func (e *Engine) resolveTarget(state *State, currentID, targetID string) (plan.Step, bool) {
	if targetID != "" {
		if step, ok := state.Plan.ByID(targetID); ok {
			return step, true
		}
	}
	return state.Plan.Successor(currentID)
}

// nextStep looks up the plan step after the current block's step.
func (e *Engine) nextStep(state *State) (plan.Step, bool) {
	block := state.CurrentBlock()
	if block == nil {
		return plan.Step{}, false
	}
	return state.Plan.Successor(block.BlockID)
}

// complete marks the session finished and returns the done payload.
// Completed sessions stay in the store so repeated calls remain done.
func (e *Engine) complete(ctx context.Context, key Key, state *State) (*TurnPayload, error) {
	state.Status = StatusCompleted
	state.UpdatedAt = time.Now()
	if err := e.store.Put(key, state); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	e.record(ctx, key, "session_completed", "")
	return donePayload(key), nil
}

// assess scores the response best-effort; nil on any failure.
func (e *Engine) assess(ctx context.Context, state *State, block *content.Block, text string) *learner.Assessment {
	if e.collab.Assessment == nil || text == "" {
		return nil
	}
	a, err := e.collab.Assessment.Assess(ctx, state.Key.UserID, learner.Interaction{
		Topic:     state.Topic,
		BlockID:   block.BlockID,
		BlockType: string(block.Type),
		Prompt:    block.Content,
		Response:  text,
	})
	if err != nil {
		e.log.Debug("assessment failed", zap.Error(err))
		return nil
	}
	return a
}

// blockContext assembles the prompt context for content generation.
func (e *Engine) blockContext(state *State) content.Context {
	return content.Context{
		Topic:          state.Topic,
		ProfileSummary: state.Profile.Summary,
		ContextSummary: state.Snapshots.ContextSummary,
		PriorTitles:    state.priorTitles(),
	}
}

// record emits a session event when a recorder is wired.
func (e *Engine) record(ctx context.Context, key Key, event, detail string) {
	if e.events == nil {
		return
	}
	if err := e.events.RecordSessionEvent(ctx, key.UserID, key.MissionID, event, detail); err != nil {
		e.log.Debug("session event not recorded", zap.Error(err))
	}
}
