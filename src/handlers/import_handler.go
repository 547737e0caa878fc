// backend/src/handlers/import_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/folioview/backend/src/config"
	"github.com/username/folioview/backend/src/importer"
	"github.com/username/folioview/backend/src/logger"
	"github.com/username/folioview/backend/src/model"
	"github.com/username/folioview/backend/src/models"
	"github.com/username/folioview/backend/src/security/validation"
	"github.com/username/folioview/backend/src/services"
	"github.com/username/folioview/backend/src/utils"
)

// MaxWarningsInResponse caps how many warnings a single response carries; the
// remainder is reported as an overflow count.
const MaxWarningsInResponse = 50

type ImportHandler struct {
	importService services.ImportService
}

func NewImportHandler(service services.ImportService) *ImportHandler {
	return &ImportHandler{
		importService: service,
	}
}

// HandlePreview accepts a multipart CSV upload, runs tokenization, schema
// detection and mapping resolution, and returns the preview for the mapping
// screen. An optional portfolio_id form value fixes the schema to that
// portfolio's type.
func (h *ImportHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		ctxLogger.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to process upload or file too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	portfolioID := r.FormValue("portfolio_id")

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		ctxLogger.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		ctxLogger.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		ctxLogger.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		ctxLogger.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctxLogger.Info("File content validated", "filename", fileHeader.Filename, "clientType", clientContentType, "detectedType", detectedContentType)

	preview, err := h.importService.Preview(file, portfolioID, fileHeader.Filename, fileHeader.Size)
	if err != nil {
		h.sendImportError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(preview); err != nil {
		ctxLogger.Error("Error encoding JSON response for import preview", "error", err)
	}
}

// HandleSetSchema re-selects the target schema for an in-flight session and
// re-runs mapping resolution.
func (h *ImportHandler) HandleSetSchema(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var req struct {
		Schema string `json:"schema"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	schema := models.PortfolioType(req.Schema)
	if !schema.Valid() {
		utils.SendJSONError(w, "Schema must be 'transaction' or 'snapshot'", http.StatusBadRequest)
		return
	}

	preview, err := h.importService.SetSchema(sessionID, schema)
	if err != nil {
		h.sendImportError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(preview)
}

// HandleOverrideMapping manually reassigns one column's canonical field.
func (h *ImportHandler) HandleOverrideMapping(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var req struct {
		SourceColumn string `json:"source_column"`
		TargetField  string `json:"target_field"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if req.SourceColumn == "" {
		utils.SendJSONError(w, "source_column is required", http.StatusBadRequest)
		return
	}

	preview, err := h.importService.OverrideMapping(sessionID, req.SourceColumn, models.CanonicalField(req.TargetField))
	if err != nil {
		h.sendImportError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(preview)
}

// HandleCommit converts, validates and persists the session's records. With
// unacknowledged warnings the commit is withheld and the warning list
// returned; the caller re-confirms with acknowledge_warnings=true.
func (h *ImportHandler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var req struct {
		PortfolioID         string `json:"portfolio_id"`
		DateFormat          string `json:"date_format"`
		Mode                string `json:"mode"`
		AcknowledgeWarnings bool   `json:"acknowledge_warnings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}

	dateFormat, err := importer.ParseDateFormat(req.DateFormat)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.importService.Commit(sessionID, services.CommitOptions{
		PortfolioID:         req.PortfolioID,
		DateFormat:          dateFormat,
		Mode:                req.Mode,
		AcknowledgeWarnings: req.AcknowledgeWarnings,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWarningsNotAcknowledged):
			// Not an outright failure: report the warnings and let the caller
			// re-confirm.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(h.commitResponse(result, err))
			return
		case errors.Is(err, services.ErrMissingRequiredFields):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(h.commitResponse(result, err))
			return
		default:
			h.sendImportError(w, r, err)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.commitResponse(result, nil))
}

// commitResponse shapes a CommitResult for the wire, capping the warning list.
func (h *ImportHandler) commitResponse(result *services.CommitResult, err error) map[string]any {
	resp := map[string]any{
		"portfolio_type": result.PortfolioType,
		"record_count":   result.RecordCount,
		"committed":      result.Committed,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	if len(result.MissingRequired) > 0 {
		resp["missing_required"] = result.MissingRequired
	}

	warnings := result.Warnings
	if warnings == nil {
		warnings = []models.ValidationWarning{}
	}
	if len(warnings) > MaxWarningsInResponse {
		resp["warning_overflow"] = len(warnings) - MaxWarningsInResponse
		warnings = warnings[:MaxWarningsInResponse]
	}
	resp["warnings"] = warnings
	resp["warning_count"] = len(result.Warnings)
	return resp
}

// sendImportError maps service errors onto HTTP statuses.
func (h *ImportHandler) sendImportError(w http.ResponseWriter, r *http.Request, err error) {
	ctxLogger := logger.FromContext(r.Context())
	switch {
	case errors.Is(err, services.ErrEmptyFile),
		errors.Is(err, services.ErrNoDataRows),
		errors.Is(err, services.ErrFieldNotInSchema),
		errors.Is(err, services.ErrUnknownColumn):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, model.ErrPortfolioNotFound):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrSchemaLocked),
		errors.Is(err, services.ErrSchemaMismatch):
		utils.SendJSONError(w, err.Error(), http.StatusConflict)
	default:
		ctxLogger.Error("Import operation failed", "error", err)
		utils.SendJSONError(w, "Import operation failed", http.StatusInternalServerError)
	}
}
