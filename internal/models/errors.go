package models

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Use errors.Is to classify.
var (
	// ErrConfigurationMissing indicates a required file or directory is absent.
	ErrConfigurationMissing = errors.New("configuration missing")

	// ErrNoDocumentsFound indicates the documents directory holds no matching files.
	ErrNoDocumentsFound = errors.New("no documents found")

	// ErrCollaboratorUnavailable indicates an embedding, completion, or index call failed or timed out.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrNoAnswerGenerated indicates the completion provider returned the cannot-generate sentinel.
	ErrNoAnswerGenerated = errors.New("no answer generated")

	// ErrSafetyViolation indicates generated text is not a single read-only SELECT statement.
	ErrSafetyViolation = errors.New("safety violation")

	// ErrExecution indicates the store rejected the SQL.
	ErrExecution = errors.New("execution error")
)

// Stage names used in CollaboratorError.
const (
	StageRetrieve = "retrieve"
	StageGenerate = "generate"
	StageEmbed    = "embed"
	StageIndex    = "index"
)

// CollaboratorError wraps a failure of an external collaborator at a named stage.
type CollaboratorError struct {
	Stage string
	Err   error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

func (e *CollaboratorError) Is(target error) bool { return target == ErrCollaboratorUnavailable }

// SafetyViolationError names the rejected statement's leading token and why it was rejected.
type SafetyViolationError struct {
	LeadingToken string
	Reason       string
	SQL          string
}

func (e *SafetyViolationError) Error() string {
	token := e.LeadingToken
	if token == "" {
		token = "<empty>"
	}
	return fmt.Sprintf("safety violation: %s (leading token %q)", e.Reason, token)
}

func (e *SafetyViolationError) Is(target error) bool { return target == ErrSafetyViolation }

// ExecutionError carries the store's error together with the offending SQL text.
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed: %v (sql: %s)", e.Err, e.SQL)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }
