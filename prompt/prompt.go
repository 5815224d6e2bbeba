// Package prompt renders retrieved chunks and a question into generator
// prompts. Chunk ids are shown verbatim so the generator can cite them
// in its sources array and the grounding validator can resolve them back.
package prompt

import (
	"strings"

	"github.com/vidyalab/vidya/retrieval"
)

// Snippet truncation limits. Student prompts keep context short for
// small local models; teacher prompts allow longer passages because the
// requested output is long-form material.
const (
	StudentSnippetLimit = 800
	TeacherSnippetLimit = 1500
)

const studentInstructions = `Using ONLY the provided CONTEXT, answer the QUESTION in 2-5 lines. If the CONTEXT contains relevant information, produce a factual answer and include the exact chunk id(s) used in the "sources" array. If the CONTEXT does NOT contain information to answer, return an empty answer and an empty sources array.

Output requirements (EXACTLY one JSON object, nothing else):
  "answer": string (the concise answer; empty string if not available),
  "sources": array of chunk id strings (MUST match the ids shown above exactly).

Do NOT output any additional text, explanation, or templates. Do NOT invent facts.`

const teacherInstructions = `Use ONLY the provided context chunks to answer the user's request. Generate detailed teaching material targeted at older school students and teachers. Produce a structured output with these sections: Overview, Learning objectives, Key concepts and definitions, Stepwise explanation, Examples, Summary / recap questions.

Requirements:
- Use ONLY the provided context chunks. Do NOT use external knowledge.
- The content must be at least ~200-300 words.

Return ONLY valid JSON with this exact schema (no extra text before/after):
{"content":"<long formatted notes>", "sources":["<chunk_id_1>","<chunk_id_2>", ...]}

The 'sources' array must include the ids of the chunks you used (at least one), and 'content' must be non-empty.`

// Student renders the strict short-answer prompt: concise JSON contract
// with an "answer" field, context shown as id-headed snippets.
func Student(question string, items []retrieval.Item) string {
	var b strings.Builder
	b.WriteString("You are an expert assistant designed to answer questions based on provided context. ")
	b.WriteString(studentInstructions)
	b.WriteString("\n\nQUESTION:\n")
	b.WriteString(question)
	b.WriteString("\n\nCONTEXT (use only this):\n")
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		b.WriteString(item.ID)
		b.WriteString("\nTEXT: ")
		b.WriteString(snippet(item.Text, StudentSnippetLimit))
		b.WriteString("\n")
	}
	b.WriteString("\nReturn the JSON object now and nothing else.")
	return b.String()
}

// Teacher renders the long-form prompt: a "content" field with
// structured teaching material and mandatory citations.
func Teacher(question string, items []retrieval.Item) string {
	var b strings.Builder
	b.WriteString("You are a textbook teaching assistant. ")
	b.WriteString(teacherInstructions)
	b.WriteString("\n\nUser question:\n")
	b.WriteString(question)
	b.WriteString("\n\nContext chunks:\n")
	for _, item := range items {
		b.WriteString("[")
		b.WriteString(item.ID)
		b.WriteString("]\n")
		b.WriteString(snippet(item.Text, TeacherSnippetLimit))
		b.WriteString("\n")
	}
	b.WriteString("\nImportant: If you are not sure, say you do not know rather than guessing.\n")
	return b.String()
}

// snippet flattens newlines and truncates to limit runes with an
// ellipsis marker.
func snippet(text string, limit int) string {
	flat := strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	runes := []rune(flat)
	if len(runes) <= limit {
		return flat
	}
	return string(runes[:limit]) + "..."
}
