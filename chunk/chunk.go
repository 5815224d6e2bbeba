// Package chunk defines the canonical corpus record and its deterministic
// identifier scheme, shared by the bundle writer and the grounding validator.
package chunk

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// HashStrategy is the content-hash algorithm name recorded in bundle manifests.
const HashStrategy = "md5"

// hashPrefixLen is the number of hash characters embedded in a chunk id.
const hashPrefixLen = 8

// ErrInvalidChunk indicates a record that cannot become a chunk.
type ErrInvalidChunk struct {
	Field  string
	Reason string
}

func (e *ErrInvalidChunk) Error() string {
	return fmt.Sprintf("invalid chunk: field %q %s", e.Field, e.Reason)
}

// Meta carries the identifying metadata of a chunk.
type Meta struct {
	Class    int    `json:"class"`
	Subject  string `json:"subject"`
	Chapter  string `json:"chapter"`
	Language string `json:"language"`
	Textbook string `json:"textbook"`
	Tokens   int    `json:"tokens"`
}

// Chunk is one retrievable unit of corpus text.
//
// Chunks are immutable once placed in a bundle; the bundle owns the
// authoritative ordered list.
type Chunk struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Hash string `json:"hash"`
	Meta
}

// ContentHash returns the hex content hash of the trimmed text.
// It feeds the id, so it must be identical across import and export.
func ContentHash(text string) string {
	sum := md5.Sum([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}

// DeriveID derives the deterministic chunk id
// "{class}_{subject}_{chapter}_{hash8}".
//
// Subject and chapter are lower-cased and trimmed first; chapter is an
// opaque string token and is never type-coerced, so an integer chapter 3
// and the string "3" normalize identically.
func DeriveID(class int, subject, chapter, contentHash string) string {
	subject = strings.ToLower(strings.TrimSpace(subject))
	chapter = strings.ToLower(strings.TrimSpace(chapter))
	short := contentHash
	if len(short) > hashPrefixLen {
		short = short[:hashPrefixLen]
	}
	return fmt.Sprintf("%d_%s_%s_%s", class, subject, chapter, short)
}

// New validates the input, normalizes the metadata and returns a chunk
// with its hash and id derived from the trimmed text.
//
// Two calls with identical normalized text, class, subject and chapter
// produce the same id, which makes re-ingestion idempotent.
func New(text string, meta Meta) (Chunk, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Chunk{}, &ErrInvalidChunk{Field: "text", Reason: "is empty after trimming"}
	}
	if meta.Class <= 0 {
		return Chunk{}, &ErrInvalidChunk{Field: "class", Reason: "must be a positive integer"}
	}
	if meta.Tokens <= 0 {
		return Chunk{}, &ErrInvalidChunk{Field: "tokens", Reason: "must be a positive integer"}
	}

	meta.Subject = strings.ToLower(strings.TrimSpace(meta.Subject))
	meta.Chapter = strings.ToLower(strings.TrimSpace(meta.Chapter))
	meta.Language = strings.ToLower(strings.TrimSpace(meta.Language))
	meta.Textbook = strings.ToLower(strings.TrimSpace(meta.Textbook))

	if meta.Subject == "" {
		return Chunk{}, &ErrInvalidChunk{Field: "subject", Reason: "is empty after trimming"}
	}

	h := ContentHash(text)

	return Chunk{
		ID:   DeriveID(meta.Class, meta.Subject, meta.Chapter, h),
		Text: text,
		Hash: h,
		Meta: meta,
	}, nil
}

// Validate re-checks the invariants of an already-built chunk.
// The loader uses it to reject tampered or hand-edited records.
func (c Chunk) Validate() error {
	if strings.TrimSpace(c.Text) == "" {
		return &ErrInvalidChunk{Field: "text", Reason: "is empty after trimming"}
	}
	if c.ID == "" {
		return &ErrInvalidChunk{Field: "id", Reason: "is missing"}
	}
	if c.Hash == "" {
		return &ErrInvalidChunk{Field: "hash", Reason: "is missing"}
	}
	return nil
}
