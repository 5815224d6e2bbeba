package vidya

import (
	"context"
	"fmt"
	"strings"

	"github.com/vidyalab/vidya/bundle"
	"github.com/vidyalab/vidya/embedding"
	"github.com/vidyalab/vidya/grounding"
	"github.com/vidyalab/vidya/llm"
	"github.com/vidyalab/vidya/prompt"
	"github.com/vidyalab/vidya/retrieval"
)

// RefusalMessage is the fixed text shown whenever the tutor cannot give
// a grounded answer. Internal errors surface as this refusal too; the
// end user never sees a raw error.
const RefusalMessage = "I don't know, ask your teacher"

// Answer is the user-visible outcome of one question: either a grounded
// answer with its sources, or a refusal.
type Answer struct {
	Status  retrieval.Status `json:"status"`
	Text    string           `json:"text"`
	Sources []string         `json:"sources,omitempty"`
}

// Refused reports whether the tutor declined to answer.
func (a Answer) Refused() bool { return a.Status == retrieval.StatusRefuse }

// Options configures a Tutor.
type Options struct {
	// K is the number of chunks retrieved per question.
	K int

	// Threshold overrides the retrieval confidence gate.
	Threshold float32

	// Mode selects the answer style and citation strictness.
	Mode grounding.Mode

	// Logger receives operation logs. Nil disables logging.
	Logger *Logger
}

// Tutor answers questions against one loaded bundle by chaining
// embed, retrieve, prompt, generate and validate.
//
// The tutor holds no mutable state; one instance may serve concurrent
// callers as long as the collaborators do.
type Tutor struct {
	bundle    *bundle.Bundle
	engine    *retrieval.Engine
	embedder  embedding.Service
	generator llm.Generator
	validator *grounding.Validator
	k         int
	mode      grounding.Mode
	logger    *Logger
}

// NewTutor assembles a Tutor over an opened bundle and its
// collaborators.
func NewTutor(b *bundle.Bundle, embedder embedding.Service, generator llm.Generator, optFns ...func(o *Options)) *Tutor {
	opts := Options{
		K:         retrieval.DefaultK,
		Threshold: retrieval.DefaultThreshold,
		Mode:      grounding.ModeStudent,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.K <= 0 {
		opts.K = retrieval.DefaultK
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.WithBundle(b.Dir).WithMode(opts.Mode.String())
	}
	return &Tutor{
		bundle:    b,
		engine:    retrieval.New(b, retrieval.WithThreshold(opts.Threshold)),
		embedder:  embedder,
		generator: generator,
		validator: grounding.New(opts.Mode),
		k:         opts.K,
		mode:      opts.Mode,
		logger:    logger,
	}
}

// Retrieve embeds the question and ranks the corpus against it. Exposed
// for callers that build their own prompts.
func (t *Tutor) Retrieve(ctx context.Context, question string) (retrieval.Result, error) {
	vec, err := t.embedder.Embed(ctx, question)
	if err != nil {
		return retrieval.Result{}, fmt.Errorf("embed question: %w", err)
	}
	result, err := t.engine.Retrieve(vec, t.k)
	if t.logger != nil {
		var top float32
		if len(result.Items) > 0 {
			top = result.Items[0].Score
		}
		t.logger.LogRetrieve(ctx, t.k, string(result.Status), top, err)
	}
	return result, err
}

// Ask runs the full question/answer cycle. Its result is always a
// grounded answer or the refusal; internal failures are logged and
// converted to a refusal rather than exposed.
func (t *Tutor) Ask(ctx context.Context, question string) Answer {
	if strings.TrimSpace(question) == "" {
		return t.refuse(ctx, nil)
	}

	result, err := t.Retrieve(ctx, question)
	if err != nil {
		return t.refuse(ctx, err)
	}
	if result.Status == retrieval.StatusRefuse {
		return t.refuse(ctx, nil)
	}

	var p string
	if t.mode == grounding.ModeTeacher {
		p = prompt.Teacher(question, result.Items)
	} else {
		p = prompt.Student(question, result.Items)
	}

	raw, err := t.generator.Generate(ctx, p)
	if err != nil {
		return t.refuse(ctx, err)
	}

	decision := t.validator.Validate(raw, result.Items)
	if !decision.Accepted {
		if t.logger != nil {
			t.logger.LogAsk(ctx, false, 0, nil)
		}
		return Answer{Status: retrieval.StatusRefuse, Text: RefusalMessage}
	}

	if t.logger != nil {
		t.logger.LogAsk(ctx, true, len(decision.Sources), nil)
	}
	return Answer{
		Status:  retrieval.StatusOK,
		Text:    decision.Answer,
		Sources: decision.Sources,
	}
}

func (t *Tutor) refuse(ctx context.Context, err error) Answer {
	if t.logger != nil {
		t.logger.LogAsk(ctx, false, 0, err)
	}
	return Answer{Status: retrieval.StatusRefuse, Text: RefusalMessage}
}
