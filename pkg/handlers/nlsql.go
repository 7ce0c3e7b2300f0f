package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/models"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/services"
)

// NLSQLHandler exposes the generate, run and save steps over HTTP.
type NLSQLHandler struct {
	generation services.SQLGenerationService
	execution  services.QueryExecutionService
	save       services.QuerySaveService
	logger     *zap.Logger
}

// NewNLSQLHandler creates a new NLSQLHandler.
func NewNLSQLHandler(
	generation services.SQLGenerationService,
	execution services.QueryExecutionService,
	save services.QuerySaveService,
	logger *zap.Logger,
) *NLSQLHandler {
	return &NLSQLHandler{
		generation: generation,
		execution:  execution,
		save:       save,
		logger:     logger,
	}
}

// RegisterRoutes registers the pipeline routes. The un-prefixed paths are
// kept for existing frontends.
func (h *NLSQLHandler) RegisterRoutes(mux *http.ServeMux) {
	for _, prefix := range []string{"/api", ""} {
		mux.HandleFunc("POST "+prefix+"/generate-sql", h.GenerateSQL)
		mux.HandleFunc("POST "+prefix+"/run-sql", h.RunSQL)
		mux.HandleFunc("POST "+prefix+"/save-sql", h.SaveSQL)
	}
}

// GenerateSQL handles POST /api/generate-sql
func (h *NLSQLHandler) GenerateSQL(w http.ResponseWriter, r *http.Request) {
	var req models.GenerationRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	result, err := h.generation.Generate(r.Context(), req.Question)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RunSQL handles POST /api/run-sql?download=csv|xlsx
// A Metabase rejection is a 200 with an error envelope.
func (h *NLSQLHandler) RunSQL(w http.ResponseWriter, r *http.Request) {
	var req models.SQLArtifact
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	format := models.OutputFormat(r.URL.Query().Get("download"))
	outcome, err := h.execution.Run(r.Context(), &req, format)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, outcome.Body()); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// SaveSQL handles POST /api/save-sql
// A Metabase rejection is a 200 with an error envelope.
func (h *NLSQLHandler) SaveSQL(w http.ResponseWriter, r *http.Request) {
	var req models.SQLArtifact
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	outcome, err := h.save.Save(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, outcome.Body()); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
