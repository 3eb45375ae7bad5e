package jsonx

import (
	"regexp"
	"strings"
)

var (
	// fenceLine matches a whole markdown fence line, with optional language tag.
	fenceLine = regexp.MustCompile("(?m)^\\s*```[a-zA-Z0-9_-]*\\s*$")

	// bareKey matches an unquoted identifier used as an object key.
	bareKey = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)

	// trailingComma matches a comma directly before a closing brace/bracket.
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// Repair applies the tolerant rewrite passes to almost-JSON text:
// markdown fences and comments are stripped, bare identifier keys are
// quoted, single-quoted strings become double-quoted, trailing commas are
// removed, and unclosed braces/brackets are balanced. The result is not
// guaranteed to parse; callers re-run it through the decoder and treat
// failure as a ParseError.
func Repair(s string) string {
	s = fenceLine.ReplaceAllString(s, "")
	s = stripComments(s)
	s = convertSingleQuotes(s)
	s = bareKey.ReplaceAllString(s, `$1"$2":`)
	s = trailingComma.ReplaceAllString(s, `$1`)
	s = balanceClosers(s)
	return strings.TrimSpace(s)
}

// stripComments removes // line comments and /* */ block comments that sit
// outside string literals.
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
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
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == '/' && i+1 < len(s) {
			switch s[i+1] {
			case '/':
				for i < len(s) && s[i] != '\n' {
					i++
				}
				if i < len(s) {
					b.WriteByte('\n')
				}
				continue
			case '*':
				i += 2
				for i+1 < len(s) && !(s[i] == '*' && s[i+1] == '/') {
					i++
				}
				i++ // skip the trailing '/'
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// convertSingleQuotes rewrites single-quoted strings to double-quoted ones,
// escaping any inner double quotes. Apostrophes inside double-quoted strings
// are left alone.
func convertSingleQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inDouble := false
	inSingle := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inDouble:
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inDouble = false
			}
		case inSingle:
			switch {
			case escaped:
				escaped = false
				if c == '\'' {
					// \' needs no escape inside a double-quoted string.
					b.WriteByte(c)
				} else {
					b.WriteByte('\\')
					b.WriteByte(c)
				}
			case c == '\\':
				escaped = true
			case c == '\'':
				b.WriteByte('"')
				inSingle = false
			case c == '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(c)
			}
		case c == '"':
			inDouble = true
			b.WriteByte(c)
		case c == '\'':
			inSingle = true
			b.WriteByte('"')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// balanceClosers appends the closing braces/brackets missing from a
// truncated value, in reverse nesting order. Extra closers are not removed.
func balanceClosers(s string) string {
	var stack []byte
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
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if inString {
		s += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		s += string(stack[i])
	}
	return s
}
