package bundle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	iofs "io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vidyalab/vidya/chunk"
	"github.com/vidyalab/vidya/codec"
	"github.com/vidyalab/vidya/distance"
	"github.com/vidyalab/vidya/index/flat"
	"github.com/vidyalab/vidya/internal/conv"
	"github.com/vidyalab/vidya/internal/fs"
)

// WriterOptions configures a bundle export.
type WriterOptions struct {
	// FS is the file system used for staging and promotion.
	FS fs.FileSystem

	// Codec encodes the chunk, id and metadata artifacts.
	Codec codec.Codec

	// ModelName names the embedding model that produced the vectors.
	ModelName string

	// Logger receives export progress. Nil disables logging.
	Logger *slog.Logger

	// Now supplies the manifest timestamp; overridable for tests.
	Now func() time.Time
}

// DefaultWriterOptions are the options used when none are given.
var DefaultWriterOptions = WriterOptions{
	FS:        fs.Default,
	Codec:     codec.Default,
	ModelName: "precomputed",
	Now:       time.Now,
}

// Write exports an ordered chunk list and a row-aligned vector matrix as
// an immutable bundle at dir and returns the finished directory path.
//
// Every row is L2-normalized; rows with zero norm are kept as-is and
// recorded in the manifest as degenerate. Writing is all-or-nothing:
// artifacts are staged in a temporary directory and promoted with a
// single rename only after every artifact has been written and synced.
// On any failure the staging directory is removed and the target is
// left untouched, so no partial bundle is ever live and nothing that
// existed before the call is ever deleted.
//
// The caller must not start two exports to the same path concurrently;
// Write itself performs no cross-process locking.
func Write(ctx context.Context, dir string, chunks []chunk.Chunk, vectors [][]float32, optFns ...func(o *WriterOptions)) (string, error) {
	opts := DefaultWriterOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.FS == nil {
		opts.FS = fs.Default
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if len(chunks) == 0 {
		return "", ErrEmptyCorpus
	}
	if len(chunks) != len(vectors) {
		return "", &ErrShapeMismatch{Chunks: len(chunks), Rows: len(vectors)}
	}
	for i, c := range chunks {
		if err := c.Validate(); err != nil {
			return "", fmt.Errorf("chunk %d: %w", i, err)
		}
	}

	dim := len(vectors[0])
	if dim <= 0 {
		return "", &flat.ErrInvalidDimension{Dimension: dim}
	}

	// Normalize into a fresh row-major matrix; input rows stay untouched.
	matrix := make([]float32, 0, len(vectors)*dim)
	var degenerate []int
	for i, v := range vectors {
		if len(v) != dim {
			return "", &flat.ErrDimensionMismatch{Expected: dim, Actual: len(v)}
		}
		row, ok := distance.NormalizeL2Copy(v)
		if !ok {
			degenerate = append(degenerate, i)
		}
		matrix = append(matrix, row...)
	}

	idx, err := flat.New(matrix, len(vectors), dim)
	if err != nil {
		return "", err
	}

	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}

	chunkLines, err := encodeChunkLines(opts.Codec, chunks)
	if err != nil {
		return "", err
	}

	// A live bundle is never edited in place; refuse before staging so a
	// failure here cannot touch existing data. Only a confirmed absence
	// proceeds: a target that exists but cannot be stat'd must not be
	// cleaned up later as if it were ours.
	if _, err := opts.FS.Stat(dir); err == nil {
		return "", fmt.Errorf("bundle: target %s already exists", dir)
	} else if !errors.Is(err, iofs.ErrNotExist) {
		return "", fmt.Errorf("bundle: stat target %s: %w", dir, err)
	}

	stage := dir + ".staging"
	if err := opts.FS.RemoveAll(stage); err != nil {
		return "", err
	}
	if err := opts.FS.MkdirAll(stage, 0o755); err != nil {
		return "", err
	}

	first := chunks[0]
	manifest := Manifest{
		Class:          first.Class,
		Subject:        first.Subject,
		Chapter:        first.Chapter,
		Language:       first.Language,
		Textbook:       first.Textbook,
		ChunkCount:     len(chunks),
		EmbeddingDim:   dim,
		FormatVersion:  FormatVersion,
		CreatedAt:      opts.Now().UTC(),
		HashStrategy:   chunk.HashStrategy,
		Codec:          opts.Codec.Name(),
		Checksum:       fmt.Sprintf("crc32:%08x", crc32.ChecksumIEEE(chunkLines)),
		DegenerateRows: degenerate,
	}

	if err := stageArtifacts(ctx, opts, stage, chunkLines, matrix, ids, idx, manifest, dim); err != nil {
		opts.FS.RemoveAll(stage)
		return "", err
	}

	// Promote. A failed rename leaves the target untouched, so only the
	// staging directory is cleaned up.
	if err := opts.FS.Rename(stage, dir); err != nil {
		opts.FS.RemoveAll(stage)
		return "", err
	}
	if err := fs.SyncDir(opts.FS, filepath.Dir(dir)); err != nil {
		opts.FS.RemoveAll(dir)
		return "", err
	}

	if opts.Logger != nil {
		opts.Logger.Info("bundle exported",
			"dir", dir,
			"chunks", len(chunks),
			"dimension", dim,
			"degenerate_rows", len(degenerate),
		)
	}
	return dir, nil
}

func stageArtifacts(ctx context.Context, opts WriterOptions, stage string, chunkLines []byte, matrix []float32, ids []string, idx *flat.Flat, manifest Manifest, dim int) error {
	write := func(name string, data []byte) error {
		return fs.WriteFile(opts.FS, filepath.Join(stage, name), data, 0o644)
	}

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error { return write(ChunksFile, chunkLines) })
	g.Go(func() error { return write(VectorsFile, conv.Float32SliceToBytes(matrix)) })
	g.Go(func() error {
		data, err := opts.Codec.Marshal(ids)
		if err != nil {
			return err
		}
		return write(IDsFile, data)
	})
	g.Go(func() error {
		var buf bytes.Buffer
		if _, err := idx.WriteTo(&buf); err != nil {
			return err
		}
		return write(IndexFile, buf.Bytes())
	})
	g.Go(func() error {
		data, err := opts.Codec.Marshal(Model{Name: opts.ModelName, Dim: dim})
		if err != nil {
			return err
		}
		return write(ModelFile, data)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// The manifest and version marker are written last: their presence
	// implies every other artifact was staged successfully.
	data, err := opts.Codec.Marshal(manifest)
	if err != nil {
		return err
	}
	if err := write(ManifestFile, data); err != nil {
		return err
	}
	if err := write(VersionFile, []byte(FormatVersion+"\n")); err != nil {
		return err
	}
	return fs.SyncDir(opts.FS, stage)
}

func encodeChunkLines(c codec.Codec, chunks []chunk.Chunk) ([]byte, error) {
	var buf bytes.Buffer
	for i := range chunks {
		line, err := c.Marshal(chunks[i])
		if err != nil {
			return nil, err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
