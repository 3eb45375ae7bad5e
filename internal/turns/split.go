// Package turns paces block content into short conversational turns.
package turns

import "strings"

// MaxTurns bounds how many turns one block produces.
const MaxTurns = 6

// maxSentencesPerTurn caps how much of a paragraph one turn carries.
const maxSentencesPerTurn = 2

// TypeNarration and TypeSocratic tag what a turn carries.
const (
	TypeNarration = "narration"
	TypeSocratic  = "socratic"
)

// fallbackSay keeps the conversation moving when a block has no usable text.
const fallbackSay = "Let's keep going — take a breath and we'll pick up from here."

// Turn is one conversational beat. Exactly one of Say and Question is set.
type Turn struct {
	Say      string `json:"say,omitempty"`
	Question string `json:"question,omitempty"`
	Meta     Meta   `json:"meta"`
}

// Meta tags the turn kind.
type Meta struct {
	Type string `json:"type"`
}

// Split decomposes block content into 1 to MaxTurns turns. Content is cut
// on blank lines into paragraphs and each paragraph contributes its first
// sentences as one say turn. The first socratic question, if any, becomes a
// standalone question turn right after the first say turn. Empty content
// yields a single fallback turn.
func Split(content string, socraticQuestions []string) []Turn {
	var result []Turn

	for _, para := range paragraphs(content) {
		say := firstSentences(para, maxSentencesPerTurn)
		if say == "" {
			continue
		}
		result = append(result, Turn{Say: say, Meta: Meta{Type: TypeNarration}})
	}

	if len(result) == 0 {
		return []Turn{{Say: fallbackSay, Meta: Meta{Type: TypeNarration}}}
	}

	if q := firstQuestion(socraticQuestions); q != "" {
		rest := append([]Turn{}, result[1:]...)
		result = append(result[:1], Turn{Question: q, Meta: Meta{Type: TypeSocratic}})
		result = append(result, rest...)
	}

	if len(result) > MaxTurns {
		result = result[:MaxTurns]
	}
	return result
}

func paragraphs(content string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstQuestion(qs []string) string {
	for _, q := range qs {
		if q = strings.TrimSpace(q); q != "" {
			return q
		}
	}
	return ""
}

// firstSentences returns up to n leading sentences of text. A sentence ends
// at terminal punctuation followed by whitespace; text without terminal
// punctuation counts as one sentence.
func firstSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	if text == "" || n < 1 {
		return ""
	}

	count := 0
	for i := 0; i < len(text)-1; i++ {
		if !isTerminal(text[i]) {
			continue
		}
		// Swallow a run of closing punctuation like "?!" or `."`.
		j := i + 1
		for j < len(text) && (isTerminal(text[j]) || text[j] == '"' || text[j] == ')') {
			j++
		}
		if j >= len(text) || !isSpace(text[j]) {
			i = j - 1
			continue
		}
		count++
		if count == n {
			return strings.TrimSpace(text[:j])
		}
		i = j
	}
	return text
}

func isTerminal(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n'
}
