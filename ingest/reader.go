// Package ingest turns raw JSONL corpus files into validated chunks,
// embeds them through a rate-limited collaborator, and exports the
// result as a bundle.
package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vidyalab/vidya/chunk"
)

// Mode controls how a bad input record affects the build.
type Mode int

const (
	// Strict fails the whole build on the first invalid record.
	Strict Mode = iota

	// Lenient skips invalid records and reports them, keeping the rest.
	Lenient
)

// ReaderOptions supplies defaults applied to records that omit a field.
type ReaderOptions struct {
	Mode            Mode
	DefaultClass    int
	DefaultSubject  string
	DefaultLanguage string
}

// LineError records one rejected input line.
type LineError struct {
	Line int
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Read parses JSONL records from r into validated chunks. Blank lines
// are skipped. Nested "metadata" / "meta" objects are flattened into
// the record before field extraction, so both flat and nested corpus
// exports ingest identically.
//
// In Strict mode the first invalid record aborts with its LineError.
// In Lenient mode invalid records are collected and returned alongside
// the chunks that survived.
func Read(r io.Reader, optFns ...func(o *ReaderOptions)) ([]chunk.Chunk, []LineError, error) {
	var opts ReaderOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	var (
		chunks  []chunk.Chunk
		skipped []LineError
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		c, err := parseRecord(text, opts)
		if err != nil {
			le := LineError{Line: line, Err: err}
			if opts.Mode == Strict {
				return nil, nil, le
			}
			skipped = append(skipped, le)
			continue
		}
		chunks = append(chunks, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return chunks, skipped, nil
}

// parseRecord converts one JSONL object into a validated chunk.
func parseRecord(raw string, opts ReaderOptions) (chunk.Chunk, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return chunk.Chunk{}, fmt.Errorf("invalid JSON: %w", err)
	}

	// Flatten nested metadata; top-level fields win on collision.
	for _, key := range []string{"metadata", "meta"} {
		nested, ok := obj[key].(map[string]any)
		if !ok {
			continue
		}
		for k, v := range nested {
			if _, exists := obj[k]; !exists {
				obj[k] = v
			}
		}
		delete(obj, key)
	}

	text := stringField(obj, "text")
	if text == "" {
		text = stringField(obj, "title")
	}
	if strings.TrimSpace(text) == "" {
		return chunk.Chunk{}, fmt.Errorf("missing text")
	}

	class, err := intField(obj, "class")
	if err != nil {
		return chunk.Chunk{}, err
	}
	if class == 0 {
		class = opts.DefaultClass
	}

	subject := stringField(obj, "subject")
	if subject == "" {
		subject = opts.DefaultSubject
	}

	chapter, err := chapterField(obj)
	if err != nil {
		return chunk.Chunk{}, err
	}

	language := stringField(obj, "language")
	if language == "" {
		language = opts.DefaultLanguage
	}

	tokens, err := intField(obj, "tokens")
	if err != nil {
		return chunk.Chunk{}, err
	}
	if tokens == 0 {
		tokens = len(strings.Fields(text))
	}

	return chunk.New(text, chunk.Meta{
		Class:    class,
		Subject:  subject,
		Chapter:  chapter,
		Language: language,
		Textbook: stringField(obj, "textbook"),
		Tokens:   tokens,
	})
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}

// intField accepts a JSON number or a numeric string; absence is zero.
func intField(obj map[string]any, key string) (int, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch v := v.(type) {
	case json.Number:
		n, err := strconv.Atoi(v.String())
		if err != nil {
			return 0, fmt.Errorf("field %q is not an integer: %q", key, v.String())
		}
		return n, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("field %q is not an integer: %q", key, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("field %q has wrong type %T", key, v)
	}
}

// chapterField keeps chapter an opaque string token. An integer chapter
// 3 and a string chapter "3" must normalize identically, so numbers are
// stringified, never the other way round.
func chapterField(obj map[string]any) (string, error) {
	v, ok := obj["chapter"]
	if !ok || v == nil {
		return "", fmt.Errorf("missing chapter")
	}
	switch v := v.(type) {
	case json.Number:
		return v.String(), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return "", fmt.Errorf("missing chapter")
		}
		return s, nil
	default:
		return "", fmt.Errorf("field \"chapter\" has wrong type %T", v)
	}
}
