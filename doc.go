// Package vidya is an offline textbook question-answering engine.
//
// A corpus of textbook chunks with precomputed vectors is packaged once
// into an immutable on-disk bundle; at serve time the bundle is loaded
// into memory and queried with exact inner-product search. A generated
// answer is only shown to a user after the grounding validator confirms
// that its citations resolve to chunks that were actually retrieved.
// Everything runs locally: the only collaborators are an embedding
// service and a text generator, both typically a local Ollama instance.
//
// # Quick Start
//
// Build a bundle from a JSONL corpus:
//
//	emb := ollama.New()
//	p := ingest.NewPipeline(emb)
//	report, err := p.Run(ctx, "science_8.jsonl", "./bundles/8_science_3")
//
// Answer questions against it:
//
//	b, err := bundle.Load("./bundles/8_science_3")
//	tutor := vidya.NewTutor(b, emb, ollamallm.New())
//	answer := tutor.Ask(ctx, "How do plants make food?")
//	if answer.Refused() {
//	    fmt.Println(answer.Text) // "I don't know, ask your teacher"
//	}
//
// The retrieval confidence gate and the citation requirements make
// refusal a first-class outcome: a question the corpus cannot support
// gets an explicit "I don't know", never a confabulated answer.
package vidya
