package content

import (
	"fmt"
	"strings"

	"github.com/abhisek/tutorloop/internal/plan"
)

const contentSystemPrompt = `You are a warm, encouraging tutor inside an AI learning platform. You write one short lesson block at a time, in plain conversational language. Respond with JSON only.`

// Context is everything the generator knows about the session when
// materializing a step.
type Context struct {
	Topic          string
	ProfileSummary string
	ContextSummary string   // compressed digest of the session so far
	PriorTitles    []string // titles of blocks already delivered
}

func buildContentUserMessage(step plan.Step, sctx Context) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Topic: %s\n", sctx.Topic))
	b.WriteString(fmt.Sprintf("Step: %s\n", step.Title))
	b.WriteString(fmt.Sprintf("Objective: %s\n", step.Objective))
	if sctx.ProfileSummary != "" {
		b.WriteString(fmt.Sprintf("Learner profile: %s\n", sctx.ProfileSummary))
	}
	if sctx.ContextSummary != "" {
		b.WriteString(fmt.Sprintf("Session so far: %s\n", sctx.ContextSummary))
	}
	if len(sctx.PriorTitles) > 0 {
		b.WriteString(fmt.Sprintf("Already covered: %s\n", strings.Join(sctx.PriorTitles, "; ")))
	}

	b.WriteString("\nInstructions:\n")
	switch step.Type {
	case plan.StepQuiz:
		b.WriteString(`Write a short quiz moment: 1-2 sentences of setup, then one clear
question the learner can answer in a sentence. Do not reveal the answer.`)
	case plan.StepReflection:
		b.WriteString(`Write a short reflection moment: 1-2 sentences connecting the
objective to the learner's experience, then one open reflection question.
There is no right answer.`)
	default:
		b.WriteString(`Write a short narration: 2-4 short paragraphs that teach the
objective conversationally, separated by blank lines. One concrete example.`)
	}

	b.WriteString(`

Return JSON:
{"content": "...", "learning_goal": "...",
 "socratic_questions": ["one probing question"]}`)

	return b.String()
}
