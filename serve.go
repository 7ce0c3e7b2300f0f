package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/audit"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/config"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/handlers"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/llm"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/mcp"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/metabase"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/middleware"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/schema"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/services"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the generate, run and save endpoints over HTTP and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, logger)
		},
	}
}

// appDeps holds the services shared by the HTTP and MCP surfaces.
type appDeps struct {
	schema         *schema.ArtifactStore
	metabaseClient *metabase.Client
	generation     services.SQLGenerationService
	execution      services.QueryExecutionService
	save           services.QuerySaveService
}

func newAppDeps(cfg *config.Config, logger *zap.Logger) (*appDeps, error) {
	generator, err := llm.NewGenerator(cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	metabaseClient, err := metabase.NewClient(metabase.Config{
		BaseURL:    cfg.Metabase.URL,
		Session:    cfg.Metabase.Session,
		DatabaseID: cfg.Metabase.DatabaseID,
		Timeout:    cfg.Metabase.Timeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	store := schema.NewArtifactStore(cfg.Schema.ArtifactPath)
	auditor := audit.NewSecurityAuditor(logger)

	return &appDeps{
		schema:         store,
		metabaseClient: metabaseClient,
		generation: services.NewSQLGenerationService(generator, store, services.SQLGenerationConfig{
			Namespace:     cfg.Schema.Name,
			Temperature:   cfg.LLM.Temperature,
			QualifyTables: cfg.Schema.QualifyTables,
		}, auditor, logger),
		execution: services.NewQueryExecutionService(metabaseClient, auditor, logger),
		save:      services.NewQuerySaveService(metabaseClient, auditor, logger),
	}, nil
}

// newRouter registers every route and wraps the mux with the middleware
// chain. Metrics wraps the mux directly so it can read the matched pattern.
func newRouter(cfg *config.Config, deps *appDeps, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	handlers.NewNLSQLHandler(deps.generation, deps.execution, deps.save, logger).RegisterRoutes(mux)
	handlers.NewHealthHandler(cfg, deps.schema, deps.metabaseClient, logger).RegisterRoutes(mux)

	mcpServer := mcp.NewServer("ekaya-nlsql", cfg.Version, logger)
	tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version, deps.schema, deps.metabaseClient)
	tools.RegisterPipelineTools(mcpServer.MCP(), &tools.PipelineToolDeps{
		Generation: deps.generation,
		Execution:  deps.execution,
		Save:       deps.save,
	})
	handlers.NewMCPHandler(mcpServer, logger).RegisterRoutes(mux)

	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = middleware.Metrics()(handler)
	handler = middleware.RequestLogger(logger)(handler)
	handler = middleware.CORS(cfg.AllowedOrigins)(handler)
	handler = middleware.RequestContext()(handler)
	return handler
}

func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	deps, err := newAppDeps(cfg, logger)
	if err != nil {
		return err
	}

	if status := services.ArtifactStatus(deps.schema); status != services.ArtifactPresent {
		logger.Warn("Schema artifact not found; generation will fail until export-schema runs",
			zap.String("path", deps.schema.Path()))
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           newRouter(cfg, deps, logger),
		ReadHeaderTimeout: 10 * time.Second,
		// Model and Metabase calls can each take up to a minute.
		WriteTimeout: cfg.Metabase.Timeout + 2*time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting ekaya-nlsql",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.Version),
			zap.String("env", cfg.Env),
			zap.String("llm_provider", cfg.LLM.Provider),
			zap.String("llm_model", cfg.LLM.Model),
			zap.String("metabase_url", cfg.Metabase.URL),
			zap.Int64("metabase_database_id", cfg.Metabase.DatabaseID),
			zap.String("schema", cfg.Schema.Name))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
