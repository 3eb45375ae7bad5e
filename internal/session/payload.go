package session

import (
	"github.com/abhisek/tutorloop/internal/content"
	"github.com/abhisek/tutorloop/internal/learner"
)

// TutorTurn is the spoken part of a payload: what the tutor says or asks,
// plus any media attached to the current block.
type TutorTurn struct {
	Say      string             `json:"say,omitempty"`
	Question string             `json:"question,omitempty"`
	Media    []content.MediaRef `json:"media,omitempty"`
}

// TurnPayload is the directly serializable result of startSession and
// nextTurn. Done marks plan exhaustion; AwaitingChoice marks a choice
// block waiting for a branch decision.
type TurnPayload struct {
	UserID    string `json:"user_id"`
	MissionID string `json:"mission_id"`

	BlockID   string `json:"block_id,omitempty"`
	BlockType string `json:"block_type,omitempty"`

	TutorTurn *TutorTurn       `json:"tutor_turn,omitempty"`
	Choices   []content.Choice `json:"choices,omitempty"`

	AwaitingChoice bool `json:"awaiting_choice,omitempty"`
	Done           bool `json:"done,omitempty"`
}

// SubmitResult is the result of submitResponse. For a choice block it
// carries the branch outcome and the first payload of the target block;
// for every other block it carries assessment and feedback.
type SubmitResult struct {
	Branched bool            `json:"branched,omitempty"`
	Choice   *content.Choice `json:"choice,omitempty"`

	Assessment         *learner.Assessment `json:"assessment,omitempty"`
	Feedback           *Feedback           `json:"feedback,omitempty"`
	NextRecommendation *learner.Strategy   `json:"next_recommendation,omitempty"`

	TurnPayload *TurnPayload `json:"turn_payload,omitempty"`
	Done        bool         `json:"done,omitempty"`
}

// payloadFor renders the payload for the cursor position of state.
func payloadFor(state *State) *TurnPayload {
	block := state.CurrentBlock()
	if block == nil {
		return donePayload(state.Key)
	}

	p := &TurnPayload{
		UserID:    state.Key.UserID,
		MissionID: state.Key.MissionID,
		BlockID:   block.BlockID,
		BlockType: string(block.Type),
	}

	ts := state.CurrentTurns()
	if state.TurnIndex >= 0 && state.TurnIndex < len(ts) {
		t := ts[state.TurnIndex]
		p.TutorTurn = &TutorTurn{Say: t.Say, Question: t.Question}
		if state.TurnIndex == 0 {
			p.TutorTurn.Media = block.Media
		}
	}
	return p
}

// choicePayload renders the awaiting-choice payload for a choice block
// whose turns are exhausted.
func choicePayload(state *State) *TurnPayload {
	block := state.CurrentBlock()
	return &TurnPayload{
		UserID:         state.Key.UserID,
		MissionID:      state.Key.MissionID,
		BlockID:        block.BlockID,
		BlockType:      string(block.Type),
		Choices:        block.Choices,
		AwaitingChoice: true,
	}
}

func donePayload(key Key) *TurnPayload {
	return &TurnPayload{
		UserID:    key.UserID,
		MissionID: key.MissionID,
		Done:      true,
	}
}
