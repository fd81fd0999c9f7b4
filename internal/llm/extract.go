package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSONBlock extracts the first JSON object or array from a model
// response. Fenced code blocks are tried first; when none parse, the raw text
// is scanned for the earliest balanced {...} or [...] span. Braces inside
// string literals (including escaped quotes) do not affect nesting depth.
// Returns nil when nothing parses.
func ExtractJSONBlock(text string) interface{} {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	for _, candidate := range fencedBlocks(text) {
		if parsed := parseJSON(candidate); parsed != nil {
			return parsed
		}
	}

	raw, ok := scanBalancedSpan(text)
	if !ok {
		return nil
	}
	return parseJSON(raw)
}

func parseJSON(raw string) interface{} {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var parsed interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil
	}
	// Prose like "null" or a bare number is not a usable payload.
	switch parsed.(type) {
	case map[string]interface{}, []interface{}:
		return parsed
	}
	return nil
}

// fencedBlocks returns the contents of triple-backtick code fences in order,
// with an optional language tag ("json") stripped from the first line.
func fencedBlocks(text string) []string {
	var blocks []string
	for {
		start := strings.Index(text, "```")
		if start == -1 {
			break
		}
		rest := text[start+3:]
		end := strings.Index(rest, "```")
		if end == -1 {
			break
		}
		block := rest[:end]
		if newline := strings.IndexByte(block, '\n'); newline != -1 {
			tag := strings.TrimSpace(block[:newline])
			if tag == "" || strings.EqualFold(tag, "json") {
				blocks = append(blocks, block[newline+1:])
			}
		}
		text = rest[end+3:]
	}
	return blocks
}

// scanBalancedSpan finds the earliest top-level {...} or [...] span using a
// small state machine over the character stream: depth counting is suspended
// inside string literals, and a backslash escape flag keeps escaped quotes
// from terminating them.
func scanBalancedSpan(text string) (string, bool) {
	startObj := strings.IndexByte(text, '{')
	startArr := strings.IndexByte(text, '[')
	if startObj == -1 && startArr == -1 {
		return "", false
	}

	var start int
	var openCh, closeCh byte
	switch {
	case startObj == -1:
		start, openCh, closeCh = startArr, '[', ']'
	case startArr == -1:
		start, openCh, closeCh = startObj, '{', '}'
	case startArr < startObj:
		start, openCh, closeCh = startArr, '[', ']'
	default:
		start, openCh, closeCh = startObj, '{', '}'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
