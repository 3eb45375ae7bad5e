package plan

import (
	"fmt"
	"strings"

	"github.com/abhisek/tutorloop/internal/learner"
)

const planSystemPrompt = `You are a curriculum designer for an AI tutoring platform. You break a topic into a short sequence of lesson steps tailored to one learner. Respond with JSON only.`

func buildPlanUserMessage(topic string, profile learner.Profile) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Topic: %s\n", topic))
	if profile.Level != "" {
		b.WriteString(fmt.Sprintf("Learner level: %s\n", profile.Level))
	}
	if profile.Summary != "" {
		b.WriteString(fmt.Sprintf("Learner profile: %s\n", profile.Summary))
	}
	if len(profile.Strengths) > 0 {
		b.WriteString(fmt.Sprintf("Strengths: %s\n", strings.Join(profile.Strengths, ", ")))
	}
	if len(profile.Weaknesses) > 0 {
		b.WriteString(fmt.Sprintf("Weaknesses: %s\n", strings.Join(profile.Weaknesses, ", ")))
	}

	b.WriteString(`
Instructions:
Design a lesson plan of 6-10 steps as a JSON array. Each step:
{"id": "s1", "type": "narration|quiz|image|reflection|choice",
 "title": "...", "objective": "...", "estimated_minutes": 3,
 "options": [{"text": "...", "next": "s5"}]}
Rules:
1. Step ids must be unique within the plan.
2. Use "options" only on choice steps: 2-3 options, each "next" naming a
   later step id (omit "next" to continue sequentially).
3. Mix step types; open with narration, include at least one quiz and one
   reflection, and add one choice step where the topic allows a fork.
4. estimated_minutes is a small positive integer.
Return only the JSON array, no commentary.`)

	return b.String()
}
