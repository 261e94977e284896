package e2e

import (
	"context"
	"strings"
	"sync"
)

const questionMarker = "User Question:\n"

// QuestionFromPrompt extracts the question line from a generation prompt.
func QuestionFromPrompt(prompt string) string {
	i := strings.Index(prompt, questionMarker)
	if i < 0 {
		return ""
	}
	rest := prompt[i+len(questionMarker):]
	if j := strings.Index(rest, "\n"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}

// ScriptedCompleter answers each known question with its scripted SQL and
// declines anything else with the sentinel.
type ScriptedCompleter struct {
	answers map[string]string

	mu      sync.Mutex
	prompts map[string]string
}

// NewScriptedCompleter builds a completer from the corpus cases.
func NewScriptedCompleter(c *Corpus) *ScriptedCompleter {
	s := &ScriptedCompleter{answers: make(map[string]string), prompts: make(map[string]string)}
	for _, qc := range c.Cases {
		s.answers[qc.Question] = qc.SQL
	}
	return s
}

// Complete returns the scripted SQL for the prompt's question.
func (s *ScriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	q := QuestionFromPrompt(prompt)
	s.mu.Lock()
	s.prompts[q] = prompt
	s.mu.Unlock()
	if sql, ok := s.answers[q]; ok {
		return sql, nil
	}
	return "-- CANNOT_GENERATE_SQL", nil
}

// Prompt returns the last prompt seen for question.
func (s *ScriptedCompleter) Prompt(question string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompts[question]
}

// ModelName identifies the scripted completer.
func (s *ScriptedCompleter) ModelName() string { return "scripted" }
