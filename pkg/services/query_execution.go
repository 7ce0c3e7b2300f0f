package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/audit"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/logging"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/metabase"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/metrics"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/models"
)

// QueryFailedLabel is the error label of a run envelope.
const QueryFailedLabel = "Metabase query failed"

// QueryExecutionService runs ad-hoc SQL on Metabase.
type QueryExecutionService interface {
	// Run executes artifact.SQL once. A rejection by Metabase is returned as
	// RunOutcome.Failure; the error return is reserved for failures of the
	// service itself (invalid input, transport, undecodable response).
	Run(ctx context.Context, artifact *models.SQLArtifact, format models.OutputFormat) (*models.RunOutcome, error)
}

type queryExecutionService struct {
	client  MetabaseClient
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

// NewQueryExecutionService creates a query execution service.
func NewQueryExecutionService(client MetabaseClient, auditor *audit.SecurityAuditor, logger *zap.Logger) QueryExecutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if auditor == nil {
		auditor = audit.NewSecurityAuditor(logger)
	}
	return &queryExecutionService{
		client:  client,
		auditor: auditor,
		logger:  logger.Named("query_execution"),
	}
}

// Run validates the format, submits the query and maps the answer. Blank
// SQL is forwarded as is; Metabase's rejection becomes the envelope.
// CSV and XLSX are accepted but not rendered: the in-memory result is
// returned for every format.
func (s *queryExecutionService) Run(ctx context.Context, artifact *models.SQLArtifact, format models.OutputFormat) (*models.RunOutcome, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %q (expected csv or xlsx)", apperrors.ErrUnsupportedFormat, string(format))
	}
	if artifact == nil {
		artifact = &models.SQLArtifact{}
	}
	if format != models.OutputFormatJSON {
		s.logger.Debug("Export format requested but not implemented; returning JSON",
			zap.String("format", string(format)))
	}

	start := time.Now()
	resp, err := s.client.RunNativeQuery(ctx, artifact.SQL)
	elapsed := time.Since(start)

	details := audit.QueryDetails{SQL: artifact.SQL}
	clientIP := logging.ClientIPFromContext(ctx)

	if err != nil {
		if apiErr, ok := metabase.AsAPIError(err); ok {
			metrics.ObserveRemoteCall(metrics.OperationRun, metrics.OutcomeEnvelope, elapsed)
			details.Outcome = audit.OutcomeRejected
			details.StatusCode = apiErr.StatusCode
			s.auditor.LogQueryExecution(ctx, details, clientIP)

			sql := artifact.SQL
			return &models.RunOutcome{Failure: &models.ErrorEnvelope{
				Error:   QueryFailedLabel,
				Details: apiErr.Body,
				SQL:     &sql,
			}}, nil
		}

		metrics.ObserveRemoteCall(metrics.OperationRun, metrics.OutcomeError, elapsed)
		details.Outcome = audit.OutcomeError
		s.auditor.LogQueryExecution(ctx, details, clientIP)
		return nil, fmt.Errorf("run query on metabase: %w", err)
	}

	metrics.ObserveRemoteCall(metrics.OperationRun, metrics.OutcomeSuccess, elapsed)
	details.Outcome = audit.OutcomeSuccess
	s.auditor.LogQueryExecution(ctx, details, clientIP)

	result := &models.QueryResult{
		SQL:     artifact.SQL,
		Columns: resp.ColumnNames(),
		Rows:    resp.Rows(),
	}

	s.logger.Debug("Query executed",
		zap.String("request_id", logging.RequestIDFromContext(ctx)),
		zap.Int("columns", len(result.Columns)),
		zap.Int("rows", len(result.Rows)),
		zap.Duration("elapsed", elapsed))

	return &models.RunOutcome{Result: result}, nil
}
