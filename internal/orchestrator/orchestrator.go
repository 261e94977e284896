// Package orchestrator answers natural-language questions by retrieving schema context,
// generating a SQL query, checking it and running it read-only.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/sqlrag/internal/config"
	"github.com/hyperjump/sqlrag/internal/llm"
	"github.com/hyperjump/sqlrag/internal/models"
	"github.com/hyperjump/sqlrag/internal/prompt"
	"github.com/hyperjump/sqlrag/internal/retry"
	"github.com/hyperjump/sqlrag/internal/search"
	"github.com/hyperjump/sqlrag/internal/sqlguard"
	"github.com/hyperjump/sqlrag/internal/storage"
)

// ErrEmptyQuestion is returned when the question is blank.
var ErrEmptyQuestion = errors.New("question is empty")

// Orchestrator runs retrieve, generate, check and execute for one question at a time.
// It holds no per-question state, so concurrent calls are independent.
type Orchestrator struct {
	retriever search.Retriever
	completer llm.Completer
	executor  storage.Executor
	guard     *sqlguard.Guard
	topK      int
	policy    retry.Policy
	logger    *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithAllowedTables replaces the table allow-list used to check generated SQL.
func WithAllowedTables(tables []string) Option {
	return func(o *Orchestrator) { o.guard = sqlguard.New(tables) }
}

// WithRetryPolicy overrides the retry policy for the retrieve and generate steps.
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// New creates an orchestrator. The allow-list defaults to the schema tables.
func New(cfg *config.Config, retriever search.Retriever, completer llm.Completer, executor storage.Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		retriever: retriever,
		completer: completer,
		executor:  executor,
		guard:     sqlguard.New(storage.SchemaTables),
		topK:      cfg.Retrieval.TopK,
		policy:    retry.FromConfig(cfg.Retry),
		logger:    zap.NewNop(),
	}
	if o.topK <= 0 {
		o.topK = config.DefaultTopK
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AllowedTables returns the tables generated SQL may read.
func (o *Orchestrator) AllowedTables() []string {
	return o.guard.Tables()
}

// AnswerQuestion answers question with rows from the store. The question is retrieved on
// and placed in the prompt verbatim; only a blank question is refused.
//
// A provider response starting with "--" yields an Answer with StatusNoAnswer and a nil error;
// the store is not touched. Failures come back as *models.CollaboratorError,
// *models.SafetyViolationError or *models.ExecutionError.
func (o *Orchestrator) AnswerQuestion(ctx context.Context, question string) (*models.Answer, error) {
	start := time.Now()
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	chunks, err := retry.Do(ctx, o.policy, models.StageRetrieve, o.logger,
		func(ctx context.Context) ([]models.RetrievedChunk, error) {
			return o.retriever.Retrieve(ctx, question, o.topK)
		})
	if err != nil {
		o.logger.Error("retrieval failed", zap.Error(err))
		return nil, &models.CollaboratorError{Stage: models.StageRetrieve, Err: err}
	}
	contextText := prompt.BuildContext(chunks)
	o.logger.Debug("context assembled", zap.Int("chunks", len(chunks)), zap.Int("chars", len(contextText)))

	promptText := prompt.BuildPrompt(contextText, question)
	generated, err := retry.Do(ctx, o.policy, models.StageGenerate, o.logger,
		func(ctx context.Context) (string, error) {
			return o.completer.Complete(ctx, promptText)
		})
	if err != nil {
		o.logger.Error("generation failed", zap.Error(err))
		return nil, &models.CollaboratorError{Stage: models.StageGenerate, Err: err}
	}
	generated = strings.TrimSpace(generated)
	o.logger.Debug("sql generated", zap.String("sql", generated), zap.String("model", o.completer.ModelName()))

	answer := &models.Answer{
		Question: question,
		SQL:      generated,
		Context:  contextText,
		Sources:  prompt.Sources(chunks),
	}
	if prompt.IsNoAnswer(generated) {
		answer.Status = models.StatusNoAnswer
		answer.QueryTime = time.Since(start).Milliseconds()
		o.logger.Info("provider could not generate sql", zap.String("question", question))
		return answer, nil
	}

	stmt, err := o.guard.Validate(generated)
	if err != nil {
		o.logger.Warn("generated sql rejected", zap.String("sql", generated), zap.Error(err))
		return nil, err
	}

	result, err := o.executor.Query(ctx, stmt)
	if err != nil {
		o.logger.Warn("sql execution failed", zap.String("sql", stmt), zap.Error(err))
		return nil, &models.ExecutionError{SQL: stmt, Err: err}
	}

	answer.Status = models.StatusAnswered
	answer.SQL = stmt
	answer.Result = result
	answer.QueryTime = time.Since(start).Milliseconds()
	o.logger.Info("question answered",
		zap.Int("rows", len(result.Rows)),
		zap.Int64("query_time_ms", answer.QueryTime))
	return answer, nil
}
