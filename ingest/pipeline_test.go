package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/vidyalab/vidya/bundle"
)

// stubEmbedder maps text to a fixed-dimension vector derived from its
// length, deterministic without a live embedding server.
type stubEmbedder struct {
	calls int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls++
	return []float32{float32(len(text)), 1, 0}, nil
}

func (s *stubEmbedder) ModelName() string { return "stub-model" }

func writeCorpus(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func TestPipeline_Run(t *testing.T) {
	corpus := `{"text": "Plants absorb sunlight.", "class": 8, "subject": "Science", "chapter": 3}
{"text": "The cell is the basic unit of life.", "class": 8, "subject": "Science", "chapter": 3}`

	t.Run("BuildsLoadableBundle", func(t *testing.T) {
		input := writeCorpus(t, corpus)
		dir := filepath.Join(t.TempDir(), "bundle")
		emb := &stubEmbedder{}

		p := NewPipeline(emb)
		report, err := p.Run(context.Background(), input, dir)
		require.NoError(t, err)

		assert.Equal(t, 2, report.Ingested)
		assert.Empty(t, report.Skipped)
		assert.NotEmpty(t, report.RunID)
		assert.Equal(t, 2, emb.calls)

		b, err := bundle.Load(report.BundleDir)
		require.NoError(t, err)
		assert.Equal(t, 2, b.Len())
		assert.Equal(t, "stub-model", b.Model.Name)
	})

	t.Run("RateLimiterHonored", func(t *testing.T) {
		input := writeCorpus(t, corpus)
		dir := filepath.Join(t.TempDir(), "bundle")

		p := NewPipeline(&stubEmbedder{}, func(o *PipelineOptions) {
			o.Limit = rate.NewLimiter(rate.Inf, 1)
		})
		_, err := p.Run(context.Background(), input, dir)
		require.NoError(t, err)
	})

	t.Run("EmptyCorpus", func(t *testing.T) {
		input := writeCorpus(t, "\n\n")
		dir := filepath.Join(t.TempDir(), "bundle")

		p := NewPipeline(&stubEmbedder{})
		_, err := p.Run(context.Background(), input, dir)
		require.ErrorIs(t, err, bundle.ErrEmptyCorpus)
	})

	t.Run("MissingInputFile", func(t *testing.T) {
		p := NewPipeline(&stubEmbedder{})
		_, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "nope.jsonl"), t.TempDir())
		require.Error(t, err)
	})
}
