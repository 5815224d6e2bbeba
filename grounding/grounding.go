// Package grounding decides whether generated answers may be shown to a
// user, by checking that the citations they claim resolve to chunks
// that were actually retrieved. It never calls the generator or the
// retrieval engine itself.
package grounding

import (
	"strings"

	"github.com/vidyalab/vidya/retrieval"
)

// Mode selects how strictly uncited answers are treated.
type Mode int

const (
	// ModeStudent permits free-text answers with an empty source list.
	// The guarantee is weaker; it exists for terse responses where the
	// generator answers in one line without the JSON contract.
	ModeStudent Mode = iota

	// ModeTeacher requires at least one resolvable source. An answer
	// that cites nothing verifiable is rejected.
	ModeTeacher
)

func (m Mode) String() string {
	switch m {
	case ModeStudent:
		return "student"
	case ModeTeacher:
		return "teacher"
	default:
		return "unknown"
	}
}

// Decision is the validator's verdict on one generated output.
//
// When Accepted is true, Sources holds full chunk ids in citation
// order, deduplicated; Resolutions records which strategy matched each
// token. When Accepted is false, Reason says why and the caller must
// emit a refusal.
type Decision struct {
	Accepted    bool
	Answer      string
	Sources     []string
	Resolutions []Resolution
	Reason      string
}

// Validator checks generated output against the retrieved chunk list
// that was shown to the generator.
type Validator struct {
	mode Mode
}

// New creates a Validator for the given mode.
func New(mode Mode) *Validator {
	return &Validator{mode: mode}
}

// Mode returns the validator's citation mode.
func (v *Validator) Mode() Mode { return v.mode }

// Validate is a pure decision function over (raw output, retrieved
// items). Tokens that resolve are normalized to full chunk ids; tokens
// that do not are dropped, never invented. An answer that claims
// citations of which none resolve is rejected in both modes; student
// mode only tolerates answers that cite nothing at all.
func (v *Validator) Validate(raw string, items []retrieval.Item) Decision {
	c, ok := parseCandidate(raw)
	if !ok {
		return v.freeText(raw)
	}

	answer := c.text()
	if answer == "" {
		return Decision{Reason: "empty answer field"}
	}

	var (
		claimed     int
		sources     []string
		resolutions []Resolution
		seen        = make(map[string]struct{})
	)
	for _, token := range c.Sources {
		if strings.TrimSpace(token) == "" {
			continue
		}
		claimed++
		res, ok := resolve(token, items)
		if !ok {
			continue
		}
		resolutions = append(resolutions, res)
		if _, dup := seen[res.ID]; dup {
			continue
		}
		seen[res.ID] = struct{}{}
		sources = append(sources, res.ID)
	}

	if len(sources) > 0 {
		return Decision{
			Accepted:    true,
			Answer:      answer,
			Sources:     sources,
			Resolutions: resolutions,
		}
	}
	if claimed > 0 {
		return Decision{Reason: "no source token resolves to a retrieved chunk"}
	}
	if v.mode == ModeStudent {
		return Decision{Accepted: true, Answer: answer}
	}
	return Decision{Reason: "answer cites no sources"}
}

// freeText handles output with no parseable structure at all.
func (v *Validator) freeText(raw string) Decision {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Decision{Reason: "empty output"}
	}
	if v.mode == ModeStudent {
		return Decision{Accepted: true, Answer: text}
	}
	return Decision{Reason: "unstructured output without resolvable sources"}
}
