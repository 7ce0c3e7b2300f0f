package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/logging"
)

// pingTimeout bounds the connectivity check performed by Open.
const pingTimeout = 5 * time.Second

// CatalogReader reads information_schema for a single PostgreSQL schema.
type CatalogReader struct {
	db      *sql.DB
	ownedDB bool // true if we opened the connection (Close releases it)
	logger  *zap.Logger
}

// Open connects to PostgreSQL using the pgx stdlib driver and verifies the
// connection with a ping. Any failure here is fatal for an export run.
func Open(ctx context.Context, connStr string, logger *zap.Logger) (*CatalogReader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("open source database: %w", err)
	}
	// The export is a single sequential run; one connection is enough.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping source database: %w", err)
	}

	logger.Debug("Connected to source database",
		zap.String("dsn", logging.SanitizeConnectionString(connStr)))

	return &CatalogReader{
		db:      db,
		ownedDB: true,
		logger:  logger,
	}, nil
}

// NewCatalogReader wraps an existing *sql.DB. The caller keeps ownership of db.
func NewCatalogReader(db *sql.DB, logger *zap.Logger) *CatalogReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogReader{db: db, logger: logger}
}

// Close releases the connection if it was opened by Open.
func (r *CatalogReader) Close() error {
	if r.ownedDB && r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ensure CatalogReader implements datasource.CatalogReader at compile time.
var _ datasource.CatalogReader = (*CatalogReader)(nil)
