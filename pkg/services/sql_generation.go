package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/audit"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/llm"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/logging"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/metrics"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/models"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/prompts"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/schema"
	sqlutil "github.com/ekaya-inc/ekaya-nlsql/pkg/sql"
)

// SQLGenerationService translates natural-language questions into SQL.
type SQLGenerationService interface {
	// Generate returns SQL for question. Every failure is fatal for the
	// request: a missing schema artifact, a model error or an empty question.
	Generate(ctx context.Context, question string) (*models.GeneratedSQL, error)
}

// SQLGenerationConfig holds the generation settings fixed at startup.
type SQLGenerationConfig struct {
	Namespace     string  // Schema every table must be qualified with
	Temperature   float64 // Passed to the model
	QualifyTables bool    // Rewrite bare references to known tables
}

type sqlGenerationService struct {
	generator llm.Generator
	schema    SchemaSource
	cfg       SQLGenerationConfig
	auditor   *audit.SecurityAuditor
	logger    *zap.Logger
}

// NewSQLGenerationService creates a generation service.
func NewSQLGenerationService(
	generator llm.Generator,
	schemaSource SchemaSource,
	cfg SQLGenerationConfig,
	auditor *audit.SecurityAuditor,
	logger *zap.Logger,
) SQLGenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if auditor == nil {
		auditor = audit.NewSecurityAuditor(logger)
	}
	return &sqlGenerationService{
		generator: generator,
		schema:    schemaSource,
		cfg:       cfg,
		auditor:   auditor,
		logger:    logger.Named("sql_generation"),
	}
}

// Generate builds the prompt from the schema artifact, asks the model once
// and strips the response down to bare SQL.
func (s *sqlGenerationService) Generate(ctx context.Context, question string) (*models.GeneratedSQL, error) {
	start := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperrors.ErrEmptyQuestion
	}

	if hit := sqlutil.CheckQuestionForInjection(question); hit != nil {
		metrics.IncrementSuspiciousQuestions()
		s.auditor.LogSuspiciousQuestion(ctx, audit.SuspiciousQuestionDetails{
			Question:    question,
			Fingerprint: hit.Fingerprint,
		}, logging.ClientIPFromContext(ctx))
	}

	schemaText, err := s.schema.Read()
	if err != nil {
		metrics.ObserveGeneration(metrics.OutcomeError, time.Since(start))
		return nil, err
	}

	prompt := prompts.BuildSQLGenerationPrompt(schemaText, s.cfg.Namespace, question)

	result, err := s.generator.GenerateResponse(ctx, prompt, prompts.SQLGenerationSystemMessage, s.cfg.Temperature)
	if err != nil {
		metrics.ObserveGeneration(metrics.OutcomeError, time.Since(start))
		s.logger.Error("SQL generation failed",
			zap.String("request_id", logging.RequestIDFromContext(ctx)),
			zap.String("model", s.generator.GetModel()),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("generate sql: %w", err)
	}

	generated := sqlutil.StripCodeFences(llm.StripThinking(result.Content))
	if s.cfg.QualifyTables {
		generated = sqlutil.QualifyTables(generated, s.cfg.Namespace, schema.TableNames(schemaText))
	}

	metrics.ObserveGeneration(metrics.OutcomeSuccess, time.Since(start))
	s.logger.Info("Generated SQL",
		zap.String("request_id", logging.RequestIDFromContext(ctx)),
		zap.String("question", logging.SanitizeQuery(question)),
		zap.String("sql", logging.SanitizeQuery(generated)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return &models.GeneratedSQL{SQL: generated}, nil
}
