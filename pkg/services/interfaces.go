package services

import (
	"context"
	"time"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/metabase"
)

// SchemaSource provides the rendered schema artifact.
// *schema.ArtifactStore implements it.
type SchemaSource interface {
	Read() (string, error)
}

// MetabaseClient is the subset of *metabase.Client used by the services.
type MetabaseClient interface {
	RunNativeQuery(ctx context.Context, sql string) (*metabase.DatasetResponse, error)
	CreateCard(ctx context.Context, card *metabase.CardPayload) (map[string]any, error)
	DatabaseID() int64
}

// HealthChecker reports whether a remote dependency answers.
type HealthChecker interface {
	Health(ctx context.Context) error
}

var (
	_ MetabaseClient = (*metabase.Client)(nil)
	_ HealthChecker  = (*metabase.Client)(nil)
)

// Artifact states reported by ArtifactStatus.
const (
	ArtifactPresent      = "present"
	ArtifactMissing      = "missing"
	ArtifactUnconfigured = "unconfigured"
)

// ArtifactStatus reports whether the schema artifact can be read.
func ArtifactStatus(src SchemaSource) string {
	if src == nil {
		return ArtifactUnconfigured
	}
	if _, err := src.Read(); err != nil {
		return ArtifactMissing
	}
	return ArtifactPresent
}

// Remote states reported by RemoteStatus.
const (
	RemoteOK           = "ok"
	RemoteUnreachable  = "unreachable"
	RemoteUnconfigured = "unconfigured"
)

// remoteHealthTimeout bounds a single health check of a remote dependency.
const remoteHealthTimeout = 5 * time.Second

// RemoteStatus calls checker once and reports whether it answered. The
// error of a failed check is returned alongside for logging.
func RemoteStatus(ctx context.Context, checker HealthChecker) (string, error) {
	if checker == nil {
		return RemoteUnconfigured, nil
	}

	ctx, cancel := context.WithTimeout(ctx, remoteHealthTimeout)
	defer cancel()

	if err := checker.Health(ctx); err != nil {
		return RemoteUnreachable, err
	}
	return RemoteOK, nil
}
