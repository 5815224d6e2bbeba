package grounding

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// candidate holds the fields of interest pulled from generator output.
// Generators are asked for either an "answer" or a "content" field; both
// are tolerated on either path.
type candidate struct {
	Answer  string    `json:"answer"`
	Content string    `json:"content"`
	Sources tokenList `json:"sources"`
}

func (c candidate) text() string {
	if s := strings.TrimSpace(c.Answer); s != "" {
		return s
	}
	return strings.TrimSpace(c.Content)
}

// tokenList unmarshals a sources field that may arrive as a list of
// strings, a single string, or a list of mixed scalars.
type tokenList []string

func (t *tokenList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = tokenList{single}
		return nil
	}
	var mixed []any
	if err := json.Unmarshal(data, &mixed); err != nil {
		return err
	}
	out := make(tokenList, 0, len(mixed))
	for _, v := range mixed {
		switch v := v.(type) {
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strings.TrimSuffix(fmt.Sprintf("%v", v), ".0"))
		}
	}
	*t = out
	return nil
}

// parseCandidate extracts a structured candidate from raw generator
// output. It tries, in order: the whole output as JSON, the first
// balanced JSON object embedded in surrounding prose or code fences,
// and finally a regex scan for an answer-like field. The heuristic
// tier exists because generators almost, but not quite, follow the
// requested output contract.
func parseCandidate(raw string) (candidate, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return candidate{}, false
	}

	var c candidate
	if err := json.Unmarshal([]byte(raw), &c); err == nil {
		return c, true
	}

	if block, ok := balancedObject(raw); ok {
		if err := json.Unmarshal([]byte(block), &c); err == nil {
			return c, true
		}
	}

	return heuristicCandidate(raw)
}

// balancedObject returns the first brace-balanced {...} block in s.
// String literals are skipped so braces inside quoted values do not
// unbalance the scan.
func balancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

var (
	answerFieldRe = regexp.MustCompile(`"(?:answer|content)"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	hashTokenRe   = regexp.MustCompile(`\b[0-9a-f]{8}(?:[0-9a-f]{24})?\b`)
	idTokenRe     = regexp.MustCompile(`\b\d+_[a-z0-9]+(?:_[a-z0-9]+)*_[0-9a-f]{8}\b`)
)

// heuristicCandidate is the last-resort extraction: pull an answer-like
// quoted field plus any hash-like or composite-id-like tokens from the
// raw text.
func heuristicCandidate(raw string) (candidate, bool) {
	m := answerFieldRe.FindStringSubmatch(raw)
	if m == nil {
		return candidate{}, false
	}
	var answer string
	if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &answer); err != nil {
		answer = m[1]
	}

	seen := make(map[string]struct{})
	var sources tokenList
	add := func(tokens []string) {
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			sources = append(sources, tok)
		}
	}
	add(idTokenRe.FindAllString(raw, -1))
	add(hashTokenRe.FindAllString(raw, -1))

	return candidate{Answer: answer, Sources: sources}, true
}
