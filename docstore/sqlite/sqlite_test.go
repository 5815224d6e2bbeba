package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyalab/vidya/chunk"
	"github.com/vidyalab/vidya/docstore"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "staging.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(t *testing.T, text string, vector []float32) docstore.Record {
	t.Helper()
	c, err := chunk.New(text, chunk.Meta{Class: 8, Subject: "Science", Chapter: "3", Tokens: 4})
	require.NoError(t, err)
	return docstore.Record{Chunk: c, Vector: vector}
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("AddAndAllPreservesOrder", func(t *testing.T) {
		s := openStore(t)
		recs := []docstore.Record{
			record(t, "first passage", []float32{1, 0}),
			record(t, "second passage", []float32{0, 1}),
			record(t, "third passage", []float32{1, 1}),
		}
		require.NoError(t, s.Add(ctx, recs))

		got, err := s.All(ctx)
		require.NoError(t, err)
		require.Len(t, got, 3)
		for i := range recs {
			assert.Equal(t, recs[i].Chunk.ID, got[i].Chunk.ID)
			assert.Equal(t, recs[i].Chunk.Text, got[i].Chunk.Text)
			assert.Equal(t, recs[i].Vector, got[i].Vector)
			assert.Equal(t, 8, got[i].Chunk.Class)
		}
	})

	t.Run("ReAddIsIdempotent", func(t *testing.T) {
		s := openStore(t)
		rec := record(t, "same passage", []float32{1, 0})
		require.NoError(t, s.Add(ctx, []docstore.Record{rec}))
		require.NoError(t, s.Add(ctx, []docstore.Record{rec}))

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("ReAddKeepsPosition", func(t *testing.T) {
		s := openStore(t)
		a := record(t, "alpha passage", []float32{1, 0})
		b := record(t, "beta passage", []float32{0, 1})
		require.NoError(t, s.Add(ctx, []docstore.Record{a, b}))

		a.Vector = []float32{0.5, 0.5}
		require.NoError(t, s.Add(ctx, []docstore.Record{a}))

		got, err := s.All(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, a.Chunk.ID, got[0].Chunk.ID, "updated record keeps its slot")
		assert.Equal(t, []float32{0.5, 0.5}, got[0].Vector)
	})

	t.Run("QueryRanksBySimilarity", func(t *testing.T) {
		s := openStore(t)
		recs := []docstore.Record{
			record(t, "east passage", []float32{1, 0}),
			record(t, "north passage", []float32{0, 1}),
		}
		require.NoError(t, s.Add(ctx, recs))

		hits, err := s.Query(ctx, []float32{0, 2}, 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, recs[1].Chunk.ID, hits[0].Record.Chunk.ID)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-5)
	})

	t.Run("Clear", func(t *testing.T) {
		s := openStore(t)
		require.NoError(t, s.Add(ctx, []docstore.Record{record(t, "gone soon", []float32{1})}))
		require.NoError(t, s.Clear(ctx))

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
