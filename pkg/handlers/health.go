package handlers

import (
	"net/http"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/config"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/logging"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/services"
)

// HealthResponse reports liveness, whether the schema artifact is readable
// and whether Metabase answers.
type HealthResponse struct {
	Status         string `json:"status"`
	SchemaArtifact string `json:"schema_artifact"`
	Metabase       string `json:"metabase"`
}

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
	Model       string `json:"model"`
}

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg      *config.Config
	schema   services.SchemaSource
	metabase services.HealthChecker
	logger   *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. schema and metabase may be nil.
func NewHealthHandler(cfg *config.Config, schema services.SchemaSource, metabase services.HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, schema: schema, metabase: metabase, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health handles GET /health requests.
// The service stays live without an artifact or Metabase; both are reported.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	metabaseStatus, err := services.RemoteStatus(r.Context(), h.metabase)
	if err != nil {
		h.logger.Warn("Metabase health check failed", zap.String("error", logging.SanitizeError(err)))
	}

	response := HealthResponse{
		Status:         "ok",
		SchemaArtifact: services.ArtifactStatus(h.schema),
		Metabase:       metabaseStatus,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// Ping handles GET /ping requests.
// Returns detailed service information including version and environment.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "ekaya-nlsql",
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
		Model:       h.cfg.LLM.Model,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
