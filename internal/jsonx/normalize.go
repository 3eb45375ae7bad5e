// Package jsonx normalizes free-form LLM output into structured JSON.
//
// Models asked for JSON frequently return almost-JSON: fenced in markdown,
// wrapped in prose, with unquoted keys, single quotes, trailing commas, or
// truncated before the closing brace. Normalize recovers the intended value
// from all of these shapes, and callers fall back to deterministic content
// when it cannot.
package jsonx

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError indicates that no extraction or repair strategy produced a
// valid JSON value. Every caller of Normalize must have its own fallback
// for this error.
type ParseError struct {
	Input string // truncated copy of the offending input
	Err   error  // last decode error encountered
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no JSON value recoverable from response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// maxErrInput bounds how much of the input is retained on a ParseError.
const maxErrInput = 512

// Normalize extracts a single JSON value from free text.
//
// Strategy order: direct parse; then for each candidate region (fenced code
// block, first balanced object, first balanced array) a direct parse
// followed by a parse of the repaired candidate; finally a repair of the
// whole input. The first strategy that yields valid JSON wins.
func Normalize(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &ParseError{Input: "", Err: fmt.Errorf("empty input")}
	}

	if raw, err := tryParse(trimmed); err == nil {
		return raw, nil
	}

	var lastErr error
	extractors := []func(string) (string, bool){
		extractFencedBlock,
		func(s string) (string, bool) { return extractBalanced(s, '{', '}') },
		func(s string) (string, bool) { return extractBalanced(s, '[', ']') },
	}
	for _, extract := range extractors {
		candidate, ok := extract(trimmed)
		if !ok {
			continue
		}
		if raw, err := tryParse(candidate); err == nil {
			return raw, nil
		}
		raw, err := tryParse(Repair(candidate))
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}

	raw, err := tryParse(Repair(trimmed))
	if err == nil {
		return raw, nil
	}
	if lastErr == nil {
		lastErr = err
	}

	in := trimmed
	if len(in) > maxErrInput {
		in = in[:maxErrInput]
	}
	return nil, &ParseError{Input: in, Err: lastErr}
}

// Decode normalizes text and unmarshals the result into out.
func Decode(text string, out any) error {
	raw, err := Normalize(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ParseError{Input: string(raw), Err: err}
	}
	return nil
}

// tryParse accepts s only if the entire string is one valid JSON value.
func tryParse(s string) (json.RawMessage, error) {
	s = strings.TrimSpace(s)
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return json.RawMessage(s), nil
}

// extractFencedBlock returns the contents of the first ``` fenced block.
// A language tag after the opening fence is skipped.
func extractFencedBlock(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Drop the language tag line ("json", "javascript", ...).
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine == "" || isIdentifier(firstLine) {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		end = len(rest)
	}
	body := strings.TrimSpace(rest[:end])
	if body == "" {
		return "", false
	}
	return body, true
}

// extractBalanced returns the first balanced open..close region, tracking
// string literals so braces inside strings don't count. If the region never
// closes, everything from the opener to the end is returned so the repair
// pass can append the missing closers.
func extractBalanced(s string, open, close byte) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if start >= 0 {
				inString = true
			}
		case open:
			if start < 0 {
				start = i
			}
			depth++
		case close:
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	if start < 0 {
		return "", false
	}
	return s[start:], true
}

func isIdentifier(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' || r == '+') {
			return false
		}
	}
	return true
}
