package postgres

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/adapters/datasource"
)

// Type is the registry key of the PostgreSQL catalog reader.
const Type = "postgres"

func init() {
	datasource.Register(datasource.CatalogReaderRegistration{
		Info: datasource.CatalogReaderInfo{
			Type:        Type,
			DisplayName: "PostgreSQL",
		},
		Open: func(ctx context.Context, connStr string, logger *zap.Logger) (datasource.CatalogReader, error) {
			return Open(ctx, connStr, logger)
		},
	})
}
