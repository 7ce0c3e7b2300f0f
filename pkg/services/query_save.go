package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/audit"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/logging"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/metabase"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/metrics"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/models"
)

// Labels of save responses.
const (
	SaveFailedLabel    = "Failed to save question"
	SaveSucceededLabel = "SQL saved as Metabase Question"
)

// QuerySaveService persists SQL as a Metabase card.
type QuerySaveService interface {
	// Save creates one card for artifact. A rejection by Metabase is
	// returned as SaveOutcome.Failure.
	Save(ctx context.Context, artifact *models.SQLArtifact) (*models.SaveOutcome, error)
}

type querySaveService struct {
	client  MetabaseClient
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

// NewQuerySaveService creates a query save service.
func NewQuerySaveService(client MetabaseClient, auditor *audit.SecurityAuditor, logger *zap.Logger) QuerySaveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if auditor == nil {
		auditor = audit.NewSecurityAuditor(logger)
	}
	return &querySaveService{
		client:  client,
		auditor: auditor,
		logger:  logger.Named("query_save"),
	}
}

// Save builds the card payload and submits it. Dashboard attachment is not
// performed; a dashboard id is only logged.
func (s *querySaveService) Save(ctx context.Context, artifact *models.SQLArtifact) (*models.SaveOutcome, error) {
	if artifact == nil {
		artifact = &models.SQLArtifact{}
	}
	if artifact.DashboardID != nil {
		s.logger.Debug("Dashboard attachment requested but not implemented",
			zap.Int64("dashboard_id", *artifact.DashboardID))
	}

	name := artifact.EffectiveName()
	card := metabase.NewNativeCard(name, s.client.DatabaseID(), artifact.SQL)

	start := time.Now()
	created, err := s.client.CreateCard(ctx, card)
	elapsed := time.Since(start)

	details := audit.QueryDetails{SQL: artifact.SQL, Name: name}
	clientIP := logging.ClientIPFromContext(ctx)

	if err != nil {
		if apiErr, ok := metabase.AsAPIError(err); ok {
			metrics.ObserveRemoteCall(metrics.OperationSave, metrics.OutcomeEnvelope, elapsed)
			details.Outcome = audit.OutcomeRejected
			details.StatusCode = apiErr.StatusCode
			s.auditor.LogQuerySaved(ctx, details, clientIP)

			sql := artifact.SQL
			return &models.SaveOutcome{Failure: &models.ErrorEnvelope{
				Error:   SaveFailedLabel,
				Details: apiErr.Body,
				SQL:     &sql,
			}}, nil
		}

		metrics.ObserveRemoteCall(metrics.OperationSave, metrics.OutcomeError, elapsed)
		details.Outcome = audit.OutcomeError
		s.auditor.LogQuerySaved(ctx, details, clientIP)
		return nil, fmt.Errorf("create metabase card: %w", err)
	}

	saved := models.SavedQuery(created)
	if id, ok := saved.CardID(); ok {
		details.CardID = id
	}

	metrics.ObserveRemoteCall(metrics.OperationSave, metrics.OutcomeSuccess, elapsed)
	details.Outcome = audit.OutcomeSuccess
	s.auditor.LogQuerySaved(ctx, details, clientIP)

	return &models.SaveOutcome{Result: &models.SaveResult{
		Message: SaveSucceededLabel,
		Card:    saved,
	}}, nil
}
