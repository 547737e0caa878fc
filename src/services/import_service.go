// backend/src/services/import_service.go
package services

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/folioview/backend/src/database"
	"github.com/username/folioview/backend/src/importer"
	"github.com/username/folioview/backend/src/logger"
	"github.com/username/folioview/backend/src/model"
	"github.com/username/folioview/backend/src/models"
	"github.com/username/folioview/backend/src/security/validation"
)

const sessionKeyPrefix = "import_session_"

// importSession is the in-flight state of one upload between preview and
// commit. It lives in the session cache under a uuid key and is immutable
// except for the schema and mapping fields the caller may adjust.
type importSession struct {
	Table        *importer.ParsedTable
	Schema       models.PortfolioType
	SchemaLocked bool
	Mappings     []models.ColumnMapping
	PortfolioID  string
	Filename     string
	FileSize     int64
}

type importServiceImpl struct {
	sessions       *cache.Cache
	sampleRowCount int
}

// NewImportService creates the import orchestrator. Session lifetime is
// governed by the cache's default expiration.
func NewImportService(sessions *cache.Cache, sampleRowCount int) ImportService {
	if sampleRowCount <= 0 {
		sampleRowCount = 10
	}
	return &importServiceImpl{
		sessions:       sessions,
		sampleRowCount: sampleRowCount,
	}
}

func (s *importServiceImpl) Preview(fileReader io.Reader, portfolioID, filename string, filesize int64) (*PreviewResult, error) {
	startTime := time.Now()
	logger.L.Info("Import preview START", "portfolioID", portfolioID, "filename", filename, "size", filesize)

	data, err := io.ReadAll(fileReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	table := importer.Parse(string(data))
	if len(table.Headers) == 0 {
		return nil, ErrEmptyFile
	}
	if len(table.Rows) == 0 {
		return nil, ErrNoDataRows
	}

	session := &importSession{
		Table:       table,
		PortfolioID: portfolioID,
		Filename:    filename,
		FileSize:    filesize,
	}

	if portfolioID != "" {
		// Target portfolio hint: schema comes from its stored metadata, not
		// from detection.
		p, err := model.GetPortfolioByID(database.DB, portfolioID)
		if err != nil {
			return nil, err
		}
		session.Schema = p.Type
		session.SchemaLocked = true
	} else {
		session.Schema = importer.DetectSchema(table.Headers)
	}
	session.Mappings = importer.ProposeMappings(table.Headers, importer.SchemaFor(session.Schema))

	sessionID := uuid.New().String()
	s.sessions.Set(sessionKeyPrefix+sessionID, session, cache.DefaultExpiration)

	logger.L.Info("Import preview END", "sessionID", sessionID, "schema", session.Schema,
		"rows", len(table.Rows), "duration", time.Since(startTime))
	return s.previewResult(sessionID, session), nil
}

func (s *importServiceImpl) SetSchema(sessionID string, schema models.PortfolioType) (*PreviewResult, error) {
	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if !schema.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrSchemaMismatch, schema)
	}
	if session.SchemaLocked && schema != session.Schema {
		return nil, ErrSchemaLocked
	}

	// Re-selecting the schema re-runs the resolver from scratch; manual
	// overrides against the previous schema are intentionally discarded.
	session.Schema = schema
	session.Mappings = importer.ProposeMappings(session.Table.Headers, importer.SchemaFor(schema))
	s.sessions.Set(sessionKeyPrefix+sessionID, session, cache.DefaultExpiration)

	logger.L.Info("Import schema re-selected", "sessionID", sessionID, "schema", schema)
	return s.previewResult(sessionID, session), nil
}

func (s *importServiceImpl) OverrideMapping(sessionID, sourceColumn string, field models.CanonicalField) (*PreviewResult, error) {
	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	schema := importer.SchemaFor(session.Schema)
	if field != models.FieldNone && !schema.Has(field) {
		return nil, fmt.Errorf("%w: %q is not part of the %s schema", ErrFieldNotInSchema, field, session.Schema)
	}
	if !importer.ApplyOverride(session.Mappings, sourceColumn, field) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, sourceColumn)
	}
	s.sessions.Set(sessionKeyPrefix+sessionID, session, cache.DefaultExpiration)

	logger.L.Info("Import mapping overridden", "sessionID", sessionID, "column", sourceColumn, "field", field)
	return s.previewResult(sessionID, session), nil
}

func (s *importServiceImpl) Commit(sessionID string, opts CommitOptions) (*CommitResult, error) {
	startTime := time.Now()
	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	portfolioID := session.PortfolioID
	if portfolioID == "" {
		portfolioID = opts.PortfolioID
	}
	if portfolioID == "" {
		return nil, model.ErrPortfolioNotFound
	}
	portfolio, err := model.GetPortfolioByID(database.DB, portfolioID)
	if err != nil {
		return nil, err
	}
	if portfolio.Type != session.Schema {
		return nil, fmt.Errorf("%w: session schema %s, portfolio type %s",
			ErrSchemaMismatch, session.Schema, portfolio.Type)
	}

	schema := importer.SchemaFor(session.Schema)
	if missing := importer.MissingRequiredFields(session.Mappings, schema); len(missing) > 0 {
		return &CommitResult{
			PortfolioType:   session.Schema,
			MissingRequired: missing,
		}, ErrMissingRequiredFields
	}

	recordSet := importer.Convert(session.Table, session.Mappings, schema, opts.DateFormat)
	warnings := importer.Validate(recordSet)
	if len(warnings) > 0 && !opts.AcknowledgeWarnings {
		// Non-blocking anomalies: the caller must see the full list and
		// explicitly force the import through.
		return &CommitResult{
			PortfolioType: session.Schema,
			RecordCount:   recordSet.Len(),
			Warnings:      warnings,
		}, ErrWarningsNotAcknowledged
	}

	sanitizeRecordSet(recordSet)

	mode := opts.Mode
	if mode != "replace" {
		mode = "append"
	}

	dbTx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	if mode == "replace" {
		if err := model.ClearRecords(dbTx, portfolioID, session.Schema); err != nil {
			return nil, err
		}
	}
	if session.Schema == models.PortfolioTypeSnapshot {
		err = model.InsertPositions(dbTx, portfolioID, recordSet.Snapshots)
	} else {
		err = model.InsertTransactions(dbTx, portfolioID, recordSet.Transactions)
	}
	if err != nil {
		return nil, err
	}

	if err := model.RecordImport(dbTx, &models.ImportHistoryEntry{
		PortfolioID:  portfolioID,
		Filename:     session.Filename,
		FileSize:     session.FileSize,
		Schema:       string(session.Schema),
		RecordCount:  recordSet.Len(),
		WarningCount: len(warnings),
		Mode:         mode,
	}); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing records: %w", err)
	}

	s.sessions.Delete(sessionKeyPrefix + sessionID)
	logger.L.Info("Import committed", "sessionID", sessionID, "portfolioID", portfolioID,
		"records", recordSet.Len(), "warnings", len(warnings), "mode", mode, "duration", time.Since(startTime))

	return &CommitResult{
		PortfolioType: session.Schema,
		RecordCount:   recordSet.Len(),
		Warnings:      warnings,
		Committed:     true,
	}, nil
}

func (s *importServiceImpl) getSession(sessionID string) (*importSession, error) {
	cached, found := s.sessions.Get(sessionKeyPrefix + sessionID)
	if !found {
		return nil, ErrSessionNotFound
	}
	return cached.(*importSession), nil
}

func (s *importServiceImpl) previewResult(sessionID string, session *importSession) *PreviewResult {
	sampleCount := s.sampleRowCount
	if sampleCount > len(session.Table.Rows) {
		sampleCount = len(session.Table.Rows)
	}
	mappings := make([]models.ColumnMapping, len(session.Mappings))
	copy(mappings, session.Mappings)

	return &PreviewResult{
		SessionID:       sessionID,
		Schema:          session.Schema,
		SchemaLocked:    session.SchemaLocked,
		Headers:         session.Table.Headers,
		Mappings:        mappings,
		SampleRows:      session.Table.Rows[:sampleCount],
		RowCount:        len(session.Table.Rows),
		MissingRequired: importer.MissingRequiredFields(session.Mappings, importer.SchemaFor(session.Schema)),
	}
}

// sanitizeRecordSet hardens text fields ahead of persistence: strips HTML,
// unprintable characters and spreadsheet formula triggers from symbols.
// Numeric fields and canonical side tokens need no treatment.
func sanitizeRecordSet(rs *importer.RecordSet) {
	clean := func(s string) string {
		return validation.SanitizeForFormulaInjection(validation.StripUnprintable(validation.SanitizeText(s)))
	}
	for i := range rs.Transactions {
		rs.Transactions[i].Symbol = clean(rs.Transactions[i].Symbol)
	}
	for i := range rs.Snapshots {
		rs.Snapshots[i].Symbol = clean(rs.Snapshots[i].Symbol)
	}
}
