// Package testhelpers starts throwaway PostgreSQL containers for integration
// tests.
package testhelpers

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresImage is the image the source database container runs.
const PostgresImage = "postgres:17-alpine"

// FixtureSchema is the schema created by the fixture migrations.
const FixtureSchema = "emsp"

//go:embed fixtures/*.sql
var fixtures embed.FS

// SourceDB holds a shared source database container seeded with the fixture
// schema.
type SourceDB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	ConnStr   string
}

var (
	sharedSourceDB     *SourceDB
	sharedSourceDBOnce sync.Once
	sharedSourceDBErr  error
)

// GetSourceDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetSourceDB(t *testing.T) *SourceDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedSourceDBOnce.Do(func() {
		sharedSourceDB, sharedSourceDBErr = setupSourceDB()
	})

	if sharedSourceDBErr != nil {
		t.Fatalf("Failed to setup source database: %v", sharedSourceDBErr)
	}

	return sharedSourceDB
}

func setupSourceDB() (*SourceDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "emsp_test",
			"POSTGRES_USER":     "ekaya",
			"POSTGRES_PASSWORD": "test_password",
		},
		// The entrypoint restarts the server once after initdb.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://ekaya:test_password@%s:%s/emsp_test?sslmode=disable",
		host, port.Port())

	if err := applyFixtures(connStr); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &SourceDB{
		Container: container,
		Pool:      pool,
		ConnStr:   connStr,
	}, nil
}

// applyFixtures runs the embedded fixture migrations. It is idempotent.
func applyFixtures(connStr string) error {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("failed to open sql connection: %w", err)
	}
	defer db.Close()

	// Verify connection with retry
	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return fmt.Errorf("failed to reach source database: %w", err)
	}

	source, err := iofs.New(fixtures, "fixtures")
	if err != nil {
		return fmt.Errorf("failed to open fixture migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run fixture migrations: %w", err)
	}
	return nil
}
