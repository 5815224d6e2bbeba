package bundle

import (
	"bufio"
	"bytes"
	"fmt"
	"hash/crc32"
	"path/filepath"
	"strings"

	"github.com/vidyalab/vidya/chunk"
	"github.com/vidyalab/vidya/codec"
	"github.com/vidyalab/vidya/index/flat"
	"github.com/vidyalab/vidya/internal/conv"
	"github.com/vidyalab/vidya/internal/fs"
)

// LoaderOptions configures how a bundle directory is opened.
type LoaderOptions struct {
	FS fs.FileSystem
}

// Load opens and validates a bundle directory, failing fast on any
// missing or undecodable artifact. It never partially loads: either a
// fully validated Bundle is returned or an error.
func Load(dir string, optFns ...func(o *LoaderOptions)) (*Bundle, error) {
	opts := LoaderOptions{FS: fs.Default}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.FS == nil {
		opts.FS = fs.Default
	}

	if info, err := opts.FS.Stat(dir); err != nil || !info.IsDir() {
		return nil, &ErrCorruptBundle{Artifact: dir, Reason: "is not a bundle directory", cause: err}
	}
	for _, name := range artifacts {
		if _, err := opts.FS.Stat(filepath.Join(dir, name)); err != nil {
			return nil, &ErrCorruptBundle{Artifact: name, Reason: "is missing", cause: err}
		}
	}

	read := func(name string) ([]byte, error) {
		data, err := fs.ReadFile(opts.FS, filepath.Join(dir, name))
		if err != nil {
			return nil, &ErrCorruptBundle{Artifact: name, Reason: "cannot be read", cause: err}
		}
		return data, nil
	}

	manifestData, err := read(ManifestFile)
	if err != nil {
		return nil, err
	}
	var manifest Manifest
	if err := codec.Default.Unmarshal(manifestData, &manifest); err != nil {
		return nil, &ErrCorruptBundle{Artifact: ManifestFile, Reason: "cannot be decoded", cause: err}
	}

	c := codec.Default
	if manifest.Codec != "" {
		byName, ok := codec.ByName(manifest.Codec)
		if !ok {
			return nil, &ErrCorruptBundle{Artifact: ManifestFile, Reason: fmt.Sprintf("names unknown codec %q", manifest.Codec)}
		}
		c = byName
	}

	modelData, err := read(ModelFile)
	if err != nil {
		return nil, err
	}
	var model Model
	if err := c.Unmarshal(modelData, &model); err != nil {
		return nil, &ErrCorruptBundle{Artifact: ModelFile, Reason: "cannot be decoded", cause: err}
	}

	idsData, err := read(IDsFile)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := c.Unmarshal(idsData, &ids); err != nil {
		return nil, &ErrCorruptBundle{Artifact: IDsFile, Reason: "cannot be decoded", cause: err}
	}

	chunksData, err := read(ChunksFile)
	if err != nil {
		return nil, err
	}
	if manifest.Checksum != "" {
		expected := fmt.Sprintf("crc32:%08x", crc32.ChecksumIEEE(chunksData))
		if manifest.Checksum != expected {
			return nil, &ErrCorruptBundle{Artifact: ChunksFile, Reason: "fails its manifest checksum"}
		}
	}
	chunks, err := decodeChunkLines(c, chunksData)
	if err != nil {
		return nil, err
	}

	vecData, err := read(VectorsFile)
	if err != nil {
		return nil, err
	}
	floats, err := conv.BytesToFloat32Slice(vecData)
	if err != nil {
		return nil, &ErrCorruptBundle{Artifact: VectorsFile, Reason: "has a ragged byte length", cause: err}
	}

	dim := model.Dim
	if dim <= 0 {
		// Fall back to inference from the buffer shape.
		if len(ids) == 0 {
			return nil, &ErrCorruptBundle{Artifact: IDsFile, Reason: "is empty, cannot infer dimension"}
		}
		if len(floats)%len(ids) != 0 {
			return nil, &ErrDimensionUnknown{Floats: len(floats), IDs: len(ids)}
		}
		dim = len(floats) / len(ids)
	}
	if dim <= 0 || len(floats) != len(ids)*dim {
		return nil, &ErrCorruptBundle{
			Artifact: VectorsFile,
			Reason:   fmt.Sprintf("cannot be reshaped to %dx%d", len(ids), dim),
		}
	}

	indexData, err := read(IndexFile)
	if err != nil {
		return nil, err
	}
	idx, err := flat.ReadFrom(bytes.NewReader(indexData))
	if err != nil {
		return nil, &ErrCorruptBundle{Artifact: IndexFile, Reason: "cannot be decoded", cause: err}
	}

	if len(ids) != len(chunks) || idx.Rows() != len(ids) || len(floats) != idx.Rows()*dim {
		return nil, &ErrInconsistentBundle{IDs: len(ids), Chunks: len(chunks), Rows: idx.Rows()}
	}
	if idx.Dimension() != dim {
		return nil, &ErrInconsistentBundle{IDs: len(ids), Chunks: len(chunks), Rows: idx.Rows()}
	}
	if manifest.ChunkCount != 0 && manifest.ChunkCount != len(chunks) {
		return nil, &ErrInconsistentBundle{IDs: len(ids), Chunks: len(chunks), Rows: idx.Rows()}
	}

	return &Bundle{
		Dir:      dir,
		Vectors:  floats,
		Dim:      dim,
		IDs:      ids,
		Chunks:   chunks,
		Index:    idx,
		Model:    model,
		Manifest: manifest,
	}, nil
}

func decodeChunkLines(c codec.Codec, data []byte) ([]chunk.Chunk, error) {
	var chunks []chunk.Chunk
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var ch chunk.Chunk
		if err := c.Unmarshal([]byte(text), &ch); err != nil {
			return nil, &ErrCorruptBundle{
				Artifact: ChunksFile,
				Reason:   fmt.Sprintf("has invalid JSON on line %d", line),
				cause:    err,
			}
		}
		chunks = append(chunks, ch)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ErrCorruptBundle{Artifact: ChunksFile, Reason: "cannot be scanned", cause: err}
	}
	return chunks, nil
}
