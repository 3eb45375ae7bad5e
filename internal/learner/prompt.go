package learner

import (
	"fmt"
	"strings"
)

const insightsSystemPrompt = `You are analyzing a learner's behavior inside an AI tutoring platform. Produce a concise learning analysis that future sessions can use for personalization.`

func buildInsightsUserMessage(userID string, history []string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Learner: %s\n\nRecent interactions:\n", userID))
	if len(history) == 0 {
		b.WriteString("None recorded yet.\n")
	} else {
		for _, h := range history {
			b.WriteString(fmt.Sprintf("- %s\n", h))
		}
	}

	b.WriteString(`
Instructions:
Infer the learner's dominant style, pace, and 2-4 focus areas from the
interactions above. If there is little evidence, say so via a low
confidence value rather than inventing detail.`)

	return b.String()
}

const summarySystemPrompt = `You are summarizing a learner's recent tutoring interactions. Create a concise digest that captures what was covered and how the learner responded, without losing important details.`

func buildSummaryUserMessage(history []string) string {
	var b strings.Builder

	b.WriteString("Interactions:\n")
	for _, h := range history {
		b.WriteString(fmt.Sprintf("- %s\n", h))
	}

	b.WriteString(`
Instructions:
Summarize these interactions in 2-3 sentences. Focus on what the learner
engaged with, where they struggled, and where they showed understanding.
Keep the summary factual — it is used internally to ground later prompts,
not shown to the learner.`)

	return b.String()
}

const assessmentSystemPrompt = `You are assessing a single learner response inside a tutoring session. Score it fairly and explain briefly. Reward partial understanding.`

func buildAssessmentUserMessage(in Interaction) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Topic: %s\n", in.Topic))
	b.WriteString(fmt.Sprintf("Block type: %s\n", in.BlockType))
	b.WriteString(fmt.Sprintf("What the tutor presented:\n%s\n", in.Prompt))
	b.WriteString(fmt.Sprintf("\nLearner response:\n%s\n", in.Response))

	b.WriteString(`
Instructions:
Score the response 0.0-1.0 and classify it as correct, partial, incorrect,
or unscored (use unscored for open reflections with no right answer).
List the skills the response demonstrates or lacks.`)

	return b.String()
}

const strategySystemPrompt = `You are a tutoring-methodology advisor. Given the current session situation, recommend the single most effective next move for the tutor.`

func buildStrategyUserMessage(sctx StrategyContext) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Topic: %s\n", sctx.Topic))
	b.WriteString(fmt.Sprintf("Current block type: %s\n", sctx.BlockType))
	if sctx.LastAssessment != nil {
		b.WriteString(fmt.Sprintf("Last assessment: %s (score %.2f) — %s\n",
			sctx.LastAssessment.Correctness, sctx.LastAssessment.Score, sctx.LastAssessment.Reasoning))
	}
	if sctx.Summary != "" {
		b.WriteString(fmt.Sprintf("Session so far: %s\n", sctx.Summary))
	}

	b.WriteString(`
Instructions:
Pick one methodology and one concrete next action for the tutor. Prefer
questioning over telling when the learner is close; prefer worked examples
when they are lost.`)

	return b.String()
}
