// Package prompt assembles retrieved context and the SQL generation prompt.
// Everything here is pure string building.
package prompt

import (
	"strings"

	"github.com/hyperjump/sqlrag/internal/models"
)

// Sentinel is the exact response the model must give when it cannot produce a safe query.
const Sentinel = "-- CANNOT_GENERATE_SQL"

// SentinelPrefix marks any response that is a comment rather than a statement.
const SentinelPrefix = "--"

const template = `You generate read-only SQL for a SQLite database.
Write one valid SQL query that answers the user's question using the database context below.

OUTPUT RULES:
- Return only raw SQL text
- Do not wrap the output in ` + "```" + ` or ` + "```sql" + `
- Do not use markdown
- Do not add explanations, comments or formatting

SQL RULES:
- Generate exactly one SQLite SELECT statement
- Never use INSERT, UPDATE, DELETE, DROP or ALTER
- Use only tables and columns present in the context
- Never use SELECT *
- If unsure, return: ` + Sentinel + `

Context:
{context}

User Question:
{question}

Output (raw SQL only):
`

// BuildContext renders chunks as "[source]\ntext" blocks separated by a blank line, in the given order.
func BuildContext(chunks []models.RetrievedChunk) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = "[" + c.Source + "]\n" + c.Text
	}
	return strings.Join(blocks, "\n\n")
}

// Sources returns the distinct chunk sources in first-seen order.
func Sources(chunks []models.RetrievedChunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if _, ok := seen[c.Source]; ok {
			continue
		}
		seen[c.Source] = struct{}{}
		out = append(out, c.Source)
	}
	return out
}

// BuildPrompt fills the instruction template with context and the verbatim question.
func BuildPrompt(context, question string) string {
	// single pass so braces inside the context are never re-expanded
	r := strings.NewReplacer("{context}", context, "{question}", question)
	return r.Replace(template)
}

// IsNoAnswer reports whether a completion is the cannot-generate sentinel or any other leading comment.
func IsNoAnswer(response string) bool {
	return strings.HasPrefix(strings.TrimSpace(response), SentinelPrefix)
}
