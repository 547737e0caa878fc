// backend/src/services/interfaces.go
package services

import (
	"errors"
	"io"

	"github.com/username/folioview/backend/src/importer"
	"github.com/username/folioview/backend/src/models"
)

// Common service errors. Structural and mapping failures block an import;
// everything else is reported as warnings.
var (
	ErrEmptyFile               = errors.New("file is empty")
	ErrNoDataRows              = errors.New("file has no data rows")
	ErrSessionNotFound         = errors.New("import session not found or expired")
	ErrMissingRequiredFields   = errors.New("required fields are not mapped")
	ErrWarningsNotAcknowledged = errors.New("import has warnings that were not acknowledged")
	ErrSchemaLocked            = errors.New("schema is fixed by the target portfolio")
	ErrSchemaMismatch          = errors.New("detected schema does not match the target portfolio")
	ErrUnknownColumn           = errors.New("unknown source column")
	ErrFieldNotInSchema        = errors.New("field does not belong to the selected schema")
)

// PreviewResult is what the UI needs to show the mapping screen: the proposed
// column assignments, a few sample rows and whatever required fields are still
// unclaimed.
type PreviewResult struct {
	SessionID       string                  `json:"session_id"`
	Schema          models.PortfolioType    `json:"schema"`
	SchemaLocked    bool                    `json:"schema_locked"`
	Headers         []string                `json:"headers"`
	Mappings        []models.ColumnMapping  `json:"mappings"`
	SampleRows      []map[string]string     `json:"sample_rows"`
	RowCount        int                     `json:"row_count"`
	MissingRequired []models.CanonicalField `json:"missing_required"`
}

// CommitOptions control the final conversion and persistence step.
type CommitOptions struct {
	PortfolioID         string
	DateFormat          importer.DateFormat
	Mode                string // "append" (default) or "replace"
	AcknowledgeWarnings bool
}

// CommitResult is the engine's output tuple: the portfolio kind, the accepted
// record count and the full advisory warning list.
type CommitResult struct {
	PortfolioType   models.PortfolioType       `json:"portfolio_type"`
	RecordCount     int                        `json:"record_count"`
	Warnings        []models.ValidationWarning `json:"warnings"`
	Committed       bool                       `json:"committed"`
	MissingRequired []models.CanonicalField    `json:"missing_required,omitempty"`
}

// ImportService drives one CSV import end to end: tokenize and detect on
// preview, let the caller adjust schema and mappings, then convert, validate
// and persist on commit.
type ImportService interface {
	Preview(fileReader io.Reader, portfolioID, filename string, filesize int64) (*PreviewResult, error)
	SetSchema(sessionID string, schema models.PortfolioType) (*PreviewResult, error)
	OverrideMapping(sessionID, sourceColumn string, field models.CanonicalField) (*PreviewResult, error)
	Commit(sessionID string, opts CommitOptions) (*CommitResult, error)
}

// NAVPoint is one point of a portfolio's net-asset-value history as computed
// by the remote analytics service.
type NAVPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// AnalyticsService is the remote collaborator that computes performance
// figures from committed records. This backend only proxies to it.
type AnalyticsService interface {
	CalculateNAV(portfolio *models.Portfolio, records any) ([]NAVPoint, error)
	CalculateIndicators(portfolio *models.Portfolio, records any) (map[string]any, error)
}
