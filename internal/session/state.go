// Package session implements the lesson session engine: the per-learner
// state machine that walks a generated plan block by block, paces each
// block into turns, branches on choices, and folds in best-effort
// assessment and feedback. Only a missing session key surfaces as an
// error; every collaborator failure degrades to fallback content.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/tutorloop/internal/content"
	"github.com/abhisek/tutorloop/internal/learner"
	"github.com/abhisek/tutorloop/internal/plan"
	"github.com/abhisek/tutorloop/internal/turns"
)

// Key identifies exactly one session: a learner working one mission.
type Key struct {
	UserID    string
	MissionID string
}

// String renders the key for logs and store lookups.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.UserID, k.MissionID)
}

// Status is the session lifecycle state.
type Status string

const (
	StatusInitializing   Status = "initializing"
	StatusActive         Status = "active"
	StatusAwaitingChoice Status = "awaiting_choice"
	StatusCompleted      Status = "completed"
)

// Snapshots is the read-through cache of collaborator state consulted at
// block boundaries. Refresh failures keep the last known good value.
type Snapshots struct {
	Insights       *learner.Insights
	ContextSummary string
	RefreshedAt    time.Time
}

// refresh pulls fresh personalization and context data, keeping the prior
// value for anything that fails.
func (s *Snapshots) refresh(ctx context.Context, userID string, personalization learner.PersonalizationService, summarizer learner.ContextSummarizer, history []string) {
	if personalization != nil {
		if ins, err := personalization.Insights(ctx, userID); err == nil && ins != nil {
			s.Insights = ins
		}
	}
	if summarizer != nil {
		if sum, err := summarizer.Summarize(ctx, userID, history); err == nil && sum != "" {
			s.ContextSummary = sum
		}
	}
	s.RefreshedAt = time.Now()
}

// State is everything owned by one session. It is mutated only by the
// engine's operations, serialized per key by the engine's key locks.
type State struct {
	Key    Key
	Topic  string
	Status Status

	Plan   *plan.Plan
	Blocks []*content.Block      // append-only, Blocks[i] materializes the step chosen for position i
	Turns  map[int][]turns.Turn  // memoized per block index

	BlockIndex int
	TurnIndex  int

	Snapshots      Snapshots
	LastAssessment *learner.Assessment
	History        []string // brief interaction lines, newest last

	Profile   learner.Profile
	StartedAt time.Time
	UpdatedAt time.Time
}

// CurrentBlock returns the block at the cursor. The engine maintains the
// invariant BlockIndex < len(Blocks) for every stored state.
func (s *State) CurrentBlock() *content.Block {
	if s.BlockIndex < 0 || s.BlockIndex >= len(s.Blocks) {
		return nil
	}
	return s.Blocks[s.BlockIndex]
}

// CurrentTurns returns the memoized turns for the cursor block.
func (s *State) CurrentTurns() []turns.Turn {
	return s.Turns[s.BlockIndex]
}

// ensureTurns memoizes the turn split for block index i. Computing turns
// for a given index happens at most once.
func (s *State) ensureTurns(i int) {
	if _, ok := s.Turns[i]; ok {
		return
	}
	block := s.Blocks[i]
	s.Turns[i] = turns.Split(block.Content, block.Tutoring.SocraticQuestions)
}

// appendBlock adds a newly generated block and moves the cursor onto it.
func (s *State) appendBlock(b *content.Block) {
	s.Blocks = append(s.Blocks, b)
	s.BlockIndex = len(s.Blocks) - 1
	s.TurnIndex = 0
	s.ensureTurns(s.BlockIndex)
}

// recordInteraction appends a one-line summary to the history, bounded to
// the most recent entries.
func (s *State) recordInteraction(line string) {
	const keep = 20
	s.History = append(s.History, line)
	if len(s.History) > keep {
		s.History = s.History[len(s.History)-keep:]
	}
}

// priorTitles lists the ids of blocks already delivered, for prompting.
func (s *State) priorTitles() []string {
	titles := make([]string, 0, len(s.Blocks))
	for _, b := range s.Blocks {
		if step, ok := s.Plan.ByID(b.BlockID); ok {
			titles = append(titles, step.Title)
		}
	}
	return titles
}
