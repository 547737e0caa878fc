// backend/src/model/portfolio_store.go
package model

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/username/folioview/backend/src/models"
)

// ErrPortfolioNotFound is returned when a portfolio id resolves to nothing.
var ErrPortfolioNotFound = errors.New("portfolio not found")

// CreatePortfolio inserts portfolio metadata. The caller supplies the id.
func CreatePortfolio(db *sql.DB, p *models.Portfolio) error {
	_, err := db.Exec(
		`INSERT INTO portfolios (id, name, type, base_currency, description) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, string(p.Type), p.BaseCurrency, p.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to create portfolio %s: %w", p.ID, err)
	}
	return nil
}

// GetPortfolioByID loads one portfolio's metadata.
func GetPortfolioByID(db *sql.DB, id string) (*models.Portfolio, error) {
	var p models.Portfolio
	var typ string
	err := db.QueryRow(
		`SELECT id, name, type, base_currency, description, created_at FROM portfolios WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &typ, &p.BaseCurrency, &p.Description, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio %s: %w", id, err)
	}
	p.Type = models.PortfolioType(typ)
	return &p, nil
}

// ListPortfolios returns all portfolios, default ordering by name.
func ListPortfolios(db *sql.DB) ([]models.Portfolio, error) {
	rows, err := db.Query(`SELECT id, name, type, base_currency, description, created_at FROM portfolios ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	portfolios := []models.Portfolio{}
	for rows.Next() {
		var p models.Portfolio
		var typ string
		if err := rows.Scan(&p.ID, &p.Name, &typ, &p.BaseCurrency, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("portfolio row scan failed: %w", err)
		}
		p.Type = models.PortfolioType(typ)
		portfolios = append(portfolios, p)
	}
	return portfolios, rows.Err()
}

// DeletePortfolio removes a portfolio and, via FK cascade, its records.
func DeletePortfolio(db *sql.DB, id string) error {
	res, err := db.Exec(`DELETE FROM portfolios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPortfolioNotFound
	}
	return nil
}

// InsertTransactions appends converted transaction records inside dbTx.
func InsertTransactions(dbTx *sql.Tx, portfolioID string, records []models.TransactionRecord) error {
	stmt, err := dbTx.Prepare(
		`INSERT INTO portfolio_transactions (portfolio_id, datetime, symbol, side, quantity, price, fee)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing transaction insert: %w", err)
	}
	defer stmt.Close()
	for _, rec := range records {
		if _, err := stmt.Exec(portfolioID, rec.Datetime, rec.Symbol, rec.Side, rec.Quantity, rec.Price, rec.Fee); err != nil {
			return fmt.Errorf("error inserting transaction (symbol %s): %w", rec.Symbol, err)
		}
	}
	return nil
}

// InsertPositions appends converted snapshot records inside dbTx.
func InsertPositions(dbTx *sql.Tx, portfolioID string, records []models.SnapshotRecord) error {
	stmt, err := dbTx.Prepare(
		`INSERT INTO portfolio_positions (portfolio_id, symbol, quantity, cost_basis, as_of)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing position insert: %w", err)
	}
	defer stmt.Close()
	for _, rec := range records {
		if _, err := stmt.Exec(portfolioID, rec.Symbol, rec.Quantity, rec.CostBasis, rec.AsOf); err != nil {
			return fmt.Errorf("error inserting position (symbol %s): %w", rec.Symbol, err)
		}
	}
	return nil
}

// ClearRecords deletes all stored records of a portfolio (replace-mode commit).
func ClearRecords(dbTx *sql.Tx, portfolioID string, schema models.PortfolioType) error {
	table := "portfolio_transactions"
	if schema == models.PortfolioTypeSnapshot {
		table = "portfolio_positions"
	}
	if _, err := dbTx.Exec(`DELETE FROM `+table+` WHERE portfolio_id = ?`, portfolioID); err != nil {
		return fmt.Errorf("error clearing %s for portfolio %s: %w", table, portfolioID, err)
	}
	return nil
}

// RecordImport appends one row to the portfolio's import history inside dbTx.
func RecordImport(dbTx *sql.Tx, entry *models.ImportHistoryEntry) error {
	_, err := dbTx.Exec(
		`INSERT INTO imports_history (portfolio_id, filename, file_size, schema, record_count, warning_count, mode)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.PortfolioID, entry.Filename, entry.FileSize, entry.Schema, entry.RecordCount, entry.WarningCount, entry.Mode,
	)
	if err != nil {
		return fmt.Errorf("failed to record import in history: %w", err)
	}
	return nil
}

// ListTransactions returns a portfolio's committed transaction records in
// datetime order.
func ListTransactions(db *sql.DB, portfolioID string) ([]models.TransactionRecord, error) {
	rows, err := db.Query(
		`SELECT datetime, symbol, side, quantity, price, fee
		 FROM portfolio_transactions WHERE portfolio_id = ?
		 ORDER BY datetime ASC, id ASC`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions for portfolio %s: %w", portfolioID, err)
	}
	defer rows.Close()

	records := []models.TransactionRecord{}
	for rows.Next() {
		var rec models.TransactionRecord
		if err := rows.Scan(&rec.Datetime, &rec.Symbol, &rec.Side, &rec.Quantity, &rec.Price, &rec.Fee); err != nil {
			return nil, fmt.Errorf("transaction row scan failed: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListPositions returns a portfolio's committed snapshot records.
func ListPositions(db *sql.DB, portfolioID string) ([]models.SnapshotRecord, error) {
	rows, err := db.Query(
		`SELECT symbol, quantity, cost_basis, as_of
		 FROM portfolio_positions WHERE portfolio_id = ?
		 ORDER BY as_of ASC, id ASC`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("error querying positions for portfolio %s: %w", portfolioID, err)
	}
	defer rows.Close()

	records := []models.SnapshotRecord{}
	for rows.Next() {
		var rec models.SnapshotRecord
		if err := rows.Scan(&rec.Symbol, &rec.Quantity, &rec.CostBasis, &rec.AsOf); err != nil {
			return nil, fmt.Errorf("position row scan failed: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListImportHistory returns the import history of a portfolio, newest first.
func ListImportHistory(db *sql.DB, portfolioID string) ([]models.ImportHistoryEntry, error) {
	rows, err := db.Query(
		`SELECT id, portfolio_id, filename, file_size, schema, record_count, warning_count, mode, created_at
		 FROM imports_history WHERE portfolio_id = ? ORDER BY id DESC`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("error querying import history for portfolio %s: %w", portfolioID, err)
	}
	defer rows.Close()

	entries := []models.ImportHistoryEntry{}
	for rows.Next() {
		var e models.ImportHistoryEntry
		if err := rows.Scan(&e.ID, &e.PortfolioID, &e.Filename, &e.FileSize, &e.Schema, &e.RecordCount, &e.WarningCount, &e.Mode, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("import history row scan failed: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
