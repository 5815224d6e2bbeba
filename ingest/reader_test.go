package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	t.Run("BasicRecords", func(t *testing.T) {
		input := `{"text": "Plants absorb sunlight.", "class": 8, "subject": "Science", "chapter": 3}
{"text": "The cell is the basic unit of life.", "class": 8, "subject": "Science", "chapter": "3"}`

		chunks, skipped, err := Read(strings.NewReader(input))
		require.NoError(t, err)
		assert.Empty(t, skipped)
		require.Len(t, chunks, 2)

		assert.Equal(t, 8, chunks[0].Class)
		assert.Equal(t, "science", chunks[0].Subject)
		assert.Equal(t, "3", chunks[0].Chapter)
		assert.Equal(t, "3", chunks[1].Chapter, "integer and string chapters normalize identically")
	})

	t.Run("BlankLinesSkipped", func(t *testing.T) {
		input := "\n{\"text\": \"x y z\", \"class\": 8, \"subject\": \"s\", \"chapter\": 1}\n\n"
		chunks, _, err := Read(strings.NewReader(input))
		require.NoError(t, err)
		assert.Len(t, chunks, 1)
	})

	t.Run("NestedMetadataFlattened", func(t *testing.T) {
		input := `{"text": "Force changes motion.", "metadata": {"class": 9, "subject": "Physics", "chapter": "2", "language": "en"}}`

		chunks, _, err := Read(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, 9, chunks[0].Class)
		assert.Equal(t, "physics", chunks[0].Subject)
		assert.Equal(t, "en", chunks[0].Language)
	})

	t.Run("TopLevelWinsOverNested", func(t *testing.T) {
		input := `{"text": "x y", "class": 8, "subject": "s", "chapter": 1, "meta": {"class": 12}}`

		chunks, _, err := Read(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, 8, chunks[0].Class)
	})

	t.Run("DefaultsApplied", func(t *testing.T) {
		input := `{"text": "some passage", "chapter": 4}`

		chunks, _, err := Read(strings.NewReader(input), func(o *ReaderOptions) {
			o.DefaultClass = 10
			o.DefaultSubject = "Biology"
			o.DefaultLanguage = "en"
		})
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, 10, chunks[0].Class)
		assert.Equal(t, "biology", chunks[0].Subject)
	})

	t.Run("TitleFallsBackForText", func(t *testing.T) {
		input := `{"title": "Chapter summary", "class": 8, "subject": "s", "chapter": 1}`

		chunks, _, err := Read(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, "Chapter summary", chunks[0].Text)
	})

	t.Run("TokensEstimatedWhenAbsent", func(t *testing.T) {
		input := `{"text": "one two three four", "class": 8, "subject": "s", "chapter": 1}`

		chunks, _, err := Read(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, 4, chunks[0].Tokens)
	})

	t.Run("StrictModeFailsOnFirstBadLine", func(t *testing.T) {
		input := `{"text": "good record", "class": 8, "subject": "s", "chapter": 1}
not json at all
{"text": "also good", "class": 8, "subject": "s", "chapter": 1}`

		_, _, err := Read(strings.NewReader(input), func(o *ReaderOptions) { o.Mode = Strict })
		var lineErr LineError
		require.ErrorAs(t, err, &lineErr)
		assert.Equal(t, 2, lineErr.Line)
	})

	t.Run("LenientModeSkipsAndReports", func(t *testing.T) {
		input := `{"text": "good record", "class": 8, "subject": "s", "chapter": 1}
{"class": 8, "subject": "s", "chapter": 1}
{"text": "also good", "class": 8, "subject": "s", "chapter": 1}`

		chunks, skipped, err := Read(strings.NewReader(input), func(o *ReaderOptions) { o.Mode = Lenient })
		require.NoError(t, err)
		assert.Len(t, chunks, 2)
		require.Len(t, skipped, 1)
		assert.Equal(t, 2, skipped[0].Line)
	})

	t.Run("MissingChapterRejected", func(t *testing.T) {
		input := `{"text": "no chapter here", "class": 8, "subject": "s"}`

		_, _, err := Read(strings.NewReader(input), func(o *ReaderOptions) { o.Mode = Strict })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chapter")
	})

	t.Run("NonNumericClassRejected", func(t *testing.T) {
		input := `{"text": "x y", "class": "eight", "subject": "s", "chapter": 1}`

		_, _, err := Read(strings.NewReader(input), func(o *ReaderOptions) { o.Mode = Strict })
		require.Error(t, err)
	})

	t.Run("IdempotentIDs", func(t *testing.T) {
		input := `{"text": "same text", "class": 8, "subject": "s", "chapter": 1}`

		first, _, err := Read(strings.NewReader(input))
		require.NoError(t, err)
		second, _, err := Read(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, first[0].ID, second[0].ID)
	})
}
