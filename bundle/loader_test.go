package bundle

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestBundle(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "bundle")
	chunks := testChunks(t, "plants make food by photosynthesis", "the cell is the basic unit of life", "force changes the state of motion")
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	_, err := Write(context.Background(), dir, chunks, vectors)
	require.NoError(t, err)
	return dir
}

func TestLoad(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		dir := writeTestBundle(t)

		b, err := Load(dir)
		require.NoError(t, err)

		assert.Equal(t, 3, b.Len())
		assert.Equal(t, 3, b.Dim)
		assert.Equal(t, 3, b.Index.Rows())
		assert.Equal(t, 3, b.Index.Dimension())
		for i, c := range b.Chunks {
			assert.Equal(t, b.IDs[i], c.ID, "row %d alignment", i)
		}
	})

	t.Run("MissingArtifactIsNamed", func(t *testing.T) {
		for _, name := range artifacts {
			t.Run(name, func(t *testing.T) {
				dir := writeTestBundle(t)
				require.NoError(t, os.Remove(filepath.Join(dir, name)))

				_, err := Load(dir)
				var corruptErr *ErrCorruptBundle
				require.ErrorAs(t, err, &corruptErr)
				assert.Equal(t, name, corruptErr.Artifact)
			})
		}
	})

	t.Run("NotADirectory", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope"))
		var corruptErr *ErrCorruptBundle
		require.ErrorAs(t, err, &corruptErr)
	})

	t.Run("DimensionInferredWhenModelSilent", func(t *testing.T) {
		dir := writeTestBundle(t)
		path := filepath.Join(dir, ModelFile)
		require.NoError(t, os.WriteFile(path, []byte(`{"name":"precomputed","dim":0}`), 0o644))

		b, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, 3, b.Dim)
	})

	t.Run("DimensionNotInferable", func(t *testing.T) {
		dir := writeTestBundle(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ModelFile), []byte(`{"name":"precomputed","dim":0}`), 0o644))
		// 3 ids but a float count not divisible by 3.
		raw, err := os.ReadFile(filepath.Join(dir, VectorsFile))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, VectorsFile), raw[:len(raw)-4], 0o644))
		fixupChecksum(t, dir)

		_, err = Load(dir)
		var dimErr *ErrDimensionUnknown
		require.ErrorAs(t, err, &dimErr)
		assert.Equal(t, 8, dimErr.Floats)
		assert.Equal(t, 3, dimErr.IDs)
	})

	t.Run("RaggedVectorBytes", func(t *testing.T) {
		dir := writeTestBundle(t)
		raw, err := os.ReadFile(filepath.Join(dir, VectorsFile))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, VectorsFile), raw[:len(raw)-1], 0o644))

		_, err = Load(dir)
		var corruptErr *ErrCorruptBundle
		require.ErrorAs(t, err, &corruptErr)
		assert.Equal(t, VectorsFile, corruptErr.Artifact)
	})

	t.Run("TamperedChunksFailChecksum", func(t *testing.T) {
		dir := writeTestBundle(t)
		path := filepath.Join(dir, ChunksFile)
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		raw[0] ^= 0x01
		require.NoError(t, os.WriteFile(path, raw, 0o644))

		_, err = Load(dir)
		var corruptErr *ErrCorruptBundle
		require.ErrorAs(t, err, &corruptErr)
		assert.Equal(t, ChunksFile, corruptErr.Artifact)
	})

	t.Run("DroppedIDBreaksAlignment", func(t *testing.T) {
		dir := writeTestBundle(t)
		var ids []string
		raw, err := os.ReadFile(filepath.Join(dir, IDsFile))
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &ids))
		trimmed, err := json.Marshal(ids[:2])
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, IDsFile), trimmed, 0o644))

		_, err = Load(dir)
		require.Error(t, err)
	})

	t.Run("InvalidChunkLine", func(t *testing.T) {
		dir := writeTestBundle(t)
		path := filepath.Join(dir, ChunksFile)
		require.NoError(t, os.WriteFile(path, []byte("not json\n"), 0o644))
		fixupChecksum(t, dir)

		_, err := Load(dir)
		var corruptErr *ErrCorruptBundle
		require.ErrorAs(t, err, &corruptErr)
		assert.Equal(t, ChunksFile, corruptErr.Artifact)
	})
}

// fixupChecksum rewrites the manifest checksum to match the current
// chunks file, so a test can exercise validation further downstream.
func fixupChecksum(t *testing.T, dir string) {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(raw, &m))
	m.Checksum = ""
	m.ChunkCount = 0
	out, err := json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), out, 0o644))
}
