package llm

import (
	"context"
	"sync"
)

// StaticCompleter returns a fixed response and records the prompts it received.
// It backs offline runs and tests.
type StaticCompleter struct {
	Response string
	Err      error

	mu      sync.Mutex
	prompts []string
}

// Complete records prompt and returns the configured response or error.
func (s *StaticCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Err != nil {
		return "", s.Err
	}
	return s.Response, nil
}

// Prompts returns a copy of every prompt received.
func (s *StaticCompleter) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// ModelName identifies the static completer.
func (s *StaticCompleter) ModelName() string { return "static" }
