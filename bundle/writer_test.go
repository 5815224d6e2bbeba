package bundle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyalab/vidya/chunk"
	"github.com/vidyalab/vidya/internal/fs"
)

// statErrFS fails Stat for one path with a non-NotExist error, as if
// the target were unreadable due to permissions.
type statErrFS struct {
	fs.FileSystem
	target string
}

func (f statErrFS) Stat(name string) (os.FileInfo, error) {
	if name == f.target {
		return nil, errors.New("permission denied")
	}
	return f.FileSystem.Stat(name)
}

// renameErrFS fails every rename, simulating a promotion failure.
type renameErrFS struct {
	fs.FileSystem
}

func (renameErrFS) Rename(oldpath, newpath string) error {
	return errors.New("rename failed")
}

func testChunks(t *testing.T, texts ...string) []chunk.Chunk {
	t.Helper()
	chunks := make([]chunk.Chunk, 0, len(texts))
	for _, text := range texts {
		c, err := chunk.New(text, chunk.Meta{
			Class:   8,
			Subject: "Science",
			Chapter: "3",
			Tokens:  4,
		})
		require.NoError(t, err)
		chunks = append(chunks, c)
	}
	return chunks
}

func TestWrite(t *testing.T) {
	t.Run("CreatesAllArtifacts", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "bundle")
		chunks := testChunks(t, "photosynthesis makes food", "cells are the unit of life")
		vectors := [][]float32{{1, 0, 0}, {0, 1, 0}}

		created, err := Write(context.Background(), dir, chunks, vectors)
		require.NoError(t, err)
		assert.Equal(t, dir, created)

		for _, name := range artifacts {
			_, err := os.Stat(filepath.Join(dir, name))
			assert.NoError(t, err, name)
		}

		_, err = os.Stat(dir + ".staging")
		assert.True(t, os.IsNotExist(err), "staging directory must not survive")
	})

	t.Run("EmptyCorpus", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "bundle")
		_, err := Write(context.Background(), dir, nil, nil)
		require.ErrorIs(t, err, ErrEmptyCorpus)
	})

	t.Run("ShapeMismatchCreatesNothing", func(t *testing.T) {
		parent := t.TempDir()
		dir := filepath.Join(parent, "bundle")
		chunks := testChunks(t, "a b c", "d e f", "g h i", "j k l", "m n o")
		vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}, {0, 0}}

		_, err := Write(context.Background(), dir, chunks, vectors)

		var shapeErr *ErrShapeMismatch
		require.ErrorAs(t, err, &shapeErr)
		assert.Equal(t, 5, shapeErr.Chunks)
		assert.Equal(t, 4, shapeErr.Rows)

		entries, err := os.ReadDir(parent)
		require.NoError(t, err)
		assert.Empty(t, entries, "a failed export must leave no files behind")
	})

	t.Run("RaggedRow", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "bundle")
		chunks := testChunks(t, "one", "two")
		vectors := [][]float32{{1, 0, 0}, {0, 1}}

		_, err := Write(context.Background(), dir, chunks, vectors)
		require.Error(t, err)
	})

	t.Run("UnreadableTargetRefusedNotDeleted", func(t *testing.T) {
		parent := t.TempDir()
		dir := filepath.Join(parent, "bundle")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		marker := filepath.Join(dir, "chunks.jsonl")
		require.NoError(t, os.WriteFile(marker, []byte("{}\n"), 0o644))

		chunks := testChunks(t, "one", "two")
		vectors := [][]float32{{1, 0}, {0, 1}}

		_, err := Write(context.Background(), dir, chunks, vectors, func(o *WriterOptions) {
			o.FS = statErrFS{FileSystem: fs.Default, target: dir}
		})
		require.Error(t, err)

		_, err = os.Stat(marker)
		assert.NoError(t, err, "an unreadable target must survive untouched")
	})

	t.Run("FailedPromotionLeavesNothing", func(t *testing.T) {
		parent := t.TempDir()
		dir := filepath.Join(parent, "bundle")
		chunks := testChunks(t, "one", "two")
		vectors := [][]float32{{1, 0}, {0, 1}}

		_, err := Write(context.Background(), dir, chunks, vectors, func(o *WriterOptions) {
			o.FS = renameErrFS{FileSystem: fs.Default}
		})
		require.Error(t, err)

		entries, err := os.ReadDir(parent)
		require.NoError(t, err)
		assert.Empty(t, entries, "neither stage nor target may survive a failed promotion")
	})

	t.Run("RefusesExistingTarget", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "bundle")
		chunks := testChunks(t, "one", "two")
		vectors := [][]float32{{1, 0}, {0, 1}}

		_, err := Write(context.Background(), dir, chunks, vectors)
		require.NoError(t, err)

		_, err = Write(context.Background(), dir, chunks, vectors)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("DegenerateRowsRecorded", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "bundle")
		chunks := testChunks(t, "one", "two", "three")
		vectors := [][]float32{{1, 0}, {0, 0}, {0, 1}}

		_, err := Write(context.Background(), dir, chunks, vectors)
		require.NoError(t, err)

		b, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, b.Manifest.DegenerateRows)
		assert.Equal(t, []float32{0, 0}, b.Row(1), "zero rows are kept, not dropped")
	})

	t.Run("ManifestMetadata", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "bundle")
		chunks := testChunks(t, "one", "two")
		vectors := [][]float32{{3, 4}, {0, 1}}
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		_, err := Write(context.Background(), dir, chunks, vectors, func(o *WriterOptions) {
			o.ModelName = "all-MiniLM-L6-v2"
			o.Now = func() time.Time { return now }
		})
		require.NoError(t, err)

		b, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, 8, b.Manifest.Class)
		assert.Equal(t, "science", b.Manifest.Subject)
		assert.Equal(t, "3", b.Manifest.Chapter)
		assert.Equal(t, 2, b.Manifest.ChunkCount)
		assert.Equal(t, 2, b.Manifest.EmbeddingDim)
		assert.Equal(t, FormatVersion, b.Manifest.FormatVersion)
		assert.Equal(t, chunk.HashStrategy, b.Manifest.HashStrategy)
		assert.Equal(t, now, b.Manifest.CreatedAt)
		assert.Equal(t, "all-MiniLM-L6-v2", b.Model.Name)
	})

	t.Run("NormalizesRows", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "bundle")
		chunks := testChunks(t, "one")
		vectors := [][]float32{{3, 4}}

		_, err := Write(context.Background(), dir, chunks, vectors)
		require.NoError(t, err)

		b, err := Load(dir)
		require.NoError(t, err)
		row := b.Row(0)
		assert.InDelta(t, 0.6, row[0], 1e-6)
		assert.InDelta(t, 0.8, row[1], 1e-6)
		assert.Equal(t, []float32{3, 4}, vectors[0], "caller's vectors stay untouched")
	})

	t.Run("InvalidChunkRejected", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "bundle")
		chunks := testChunks(t, "one")
		chunks[0].Text = ""

		_, err := Write(context.Background(), dir, chunks, [][]float32{{1, 0}})
		var invalidErr *chunk.ErrInvalidChunk
		require.ErrorAs(t, err, &invalidErr)
	})
}
