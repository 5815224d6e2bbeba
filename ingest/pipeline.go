package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/vidyalab/vidya/bundle"
	"github.com/vidyalab/vidya/chunk"
	"github.com/vidyalab/vidya/docstore"
	"github.com/vidyalab/vidya/embedding"
)

// PipelineOptions configures a corpus build.
type PipelineOptions struct {
	// Reader options applied while parsing the input file.
	Reader []func(o *ReaderOptions)

	// Limit throttles embedding calls; nil means unthrottled. Local
	// embedding servers fall over under a burst of a whole corpus.
	Limit *rate.Limiter

	// Store optionally stages records between embedding and export.
	// Nil skips staging and exports straight from memory.
	Store docstore.Store

	// ModelName recorded in the bundle; defaults to the embedder's.
	ModelName string

	// Logger receives per-stage progress. Nil disables logging.
	Logger *slog.Logger
}

// Report summarizes one pipeline run.
type Report struct {
	RunID     string
	Ingested  int
	Skipped   []LineError
	BundleDir string
}

// Pipeline builds a bundle from a JSONL corpus file: parse, embed,
// stage, export.
type Pipeline struct {
	embedder embedding.Service
	opts     PipelineOptions
}

// NewPipeline creates a Pipeline around an embedding service.
func NewPipeline(embedder embedding.Service, optFns ...func(o *PipelineOptions)) *Pipeline {
	var opts PipelineOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ModelName == "" {
		opts.ModelName = embedder.ModelName()
	}
	return &Pipeline{embedder: embedder, opts: opts}
}

// Run ingests the JSONL file at input and writes a bundle to dir.
func (p *Pipeline) Run(ctx context.Context, input, dir string) (Report, error) {
	runID := uuid.NewString()
	log := p.opts.Logger
	if log != nil {
		log = log.With("run_id", runID)
	}

	f, err := os.Open(input)
	if err != nil {
		return Report{}, err
	}
	defer f.Close()

	chunks, skipped, err := Read(f, p.opts.Reader...)
	if err != nil {
		return Report{}, err
	}
	if log != nil {
		log.Info("corpus parsed", "chunks", len(chunks), "skipped", len(skipped))
	}
	if len(chunks) == 0 {
		return Report{}, bundle.ErrEmptyCorpus
	}

	vectors, err := p.embed(ctx, chunks)
	if err != nil {
		return Report{}, err
	}

	if p.opts.Store != nil {
		records := make([]docstore.Record, len(chunks))
		for i := range chunks {
			records[i] = docstore.Record{Chunk: chunks[i], Vector: vectors[i]}
		}
		if err := p.opts.Store.Add(ctx, records); err != nil {
			return Report{}, fmt.Errorf("stage records: %w", err)
		}
	}

	created, err := bundle.Write(ctx, dir, chunks, vectors, func(o *bundle.WriterOptions) {
		o.ModelName = p.opts.ModelName
		o.Logger = p.opts.Logger
	})
	if err != nil {
		return Report{}, err
	}
	if log != nil {
		log.Info("bundle built", "dir", created, "chunks", len(chunks))
	}

	return Report{
		RunID:     runID,
		Ingested:  len(chunks),
		Skipped:   skipped,
		BundleDir: created,
	}, nil
}

func (p *Pipeline) embed(ctx context.Context, chunks []chunk.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		if p.opts.Limit != nil {
			if err := p.opts.Limit.Wait(ctx); err != nil {
				return nil, err
			}
		}
		vec, err := p.embedder.Embed(ctx, c.Text)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %s: %w", c.ID, err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}
