package flat

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/vidyalab/vidya/internal/conv"
)

const (
	// MagicNumber identifies serialized flat index files (ASCII "VIDX").
	MagicNumber = 0x56494458
	// FormatVersion is the current serialization version.
	FormatVersion = 1

	headerSize = 28
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported format version")
)

// ChecksumMismatchError is returned when the body checksum does not match.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

// fileHeader is the fixed-size header at the start of a serialized index.
type fileHeader struct {
	Magic    uint32
	Version  uint32
	Rows     uint32
	Dim      uint32
	Checksum uint32 // CRC32 (IEEE) of the compressed body
	BodyLen  uint64
}

func (h *fileHeader) encode() []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:], h.Version)
	binary.LittleEndian.PutUint32(buf[8:], h.Rows)
	binary.LittleEndian.PutUint32(buf[12:], h.Dim)
	binary.LittleEndian.PutUint32(buf[16:], h.Checksum)
	binary.LittleEndian.PutUint64(buf[20:], h.BodyLen)
	return buf
}

func decodeHeader(buf []byte) (*fileHeader, error) {
	if len(buf) < headerSize {
		return nil, errors.New("buffer too small for header")
	}
	h := &fileHeader{}
	h.Magic = binary.LittleEndian.Uint32(buf[0:])
	if h.Magic != MagicNumber {
		return nil, ErrInvalidMagic
	}
	h.Version = binary.LittleEndian.Uint32(buf[4:])
	if h.Version != FormatVersion {
		return nil, ErrInvalidVersion
	}
	h.Rows = binary.LittleEndian.Uint32(buf[8:])
	h.Dim = binary.LittleEndian.Uint32(buf[12:])
	h.Checksum = binary.LittleEndian.Uint32(buf[16:])
	h.BodyLen = binary.LittleEndian.Uint64(buf[20:])
	return h, nil
}

// WriteTo serializes the index: a fixed header followed by the
// zstd-compressed little-endian vector matrix. It matches io.WriterTo.
func (f *Flat) WriteTo(w io.Writer) (int64, error) {
	raw := conv.Float32SliceToBytes(f.data)

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return 0, err
	}
	body := enc.EncodeAll(raw, make([]byte, 0, len(raw)/2))
	if err := enc.Close(); err != nil {
		return 0, err
	}

	rows, err := conv.IntToUint32(f.rows)
	if err != nil {
		return 0, err
	}
	dim, err := conv.IntToUint32(f.dim)
	if err != nil {
		return 0, err
	}

	h := &fileHeader{
		Magic:    MagicNumber,
		Version:  FormatVersion,
		Rows:     rows,
		Dim:      dim,
		Checksum: crc32.ChecksumIEEE(body),
		BodyLen:  uint64(len(body)),
	}

	var n int64
	written, err := w.Write(h.encode())
	n += int64(written)
	if err != nil {
		return n, err
	}
	written, err = w.Write(body)
	n += int64(written)
	return n, err
}

// ReadFrom deserializes an index written by WriteTo, verifying magic,
// version and body checksum. It matches io.ReaderFrom.
func ReadFrom(r io.Reader) (*Flat, error) {
	hbuf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, hbuf); err != nil {
		return nil, err
	}
	h, err := decodeHeader(hbuf)
	if err != nil {
		return nil, err
	}

	body := make([]byte, h.BodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	if actual := crc32.ChecksumIEEE(body); actual != h.Checksum {
		return nil, &ChecksumMismatchError{Expected: h.Checksum, Actual: actual}
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(body, nil)
	if err != nil {
		return nil, err
	}

	data, err := conv.BytesToFloat32Slice(raw)
	if err != nil {
		return nil, err
	}
	return New(data, int(h.Rows), int(h.Dim))
}
