package models

// PortfolioType identifies which record shape a portfolio stores.
type PortfolioType string

const (
	PortfolioTypeTransaction PortfolioType = "transaction"
	PortfolioTypeSnapshot    PortfolioType = "snapshot"
)

// Valid reports whether t is one of the two supported portfolio types.
func (t PortfolioType) Valid() bool {
	return t == PortfolioTypeTransaction || t == PortfolioTypeSnapshot
}

// Portfolio is the stored metadata for one portfolio. Records themselves live in
// portfolio_transactions / portfolio_positions, keyed by the portfolio id.
type Portfolio struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Type         PortfolioType `json:"type"`
	BaseCurrency string        `json:"base_currency"`
	Description  string        `json:"description,omitempty"`
	CreatedAt    string        `json:"created_at"`
}

// ImportHistoryEntry records one committed upload against a portfolio.
type ImportHistoryEntry struct {
	ID           int64  `json:"id"`
	PortfolioID  string `json:"portfolio_id"`
	Filename     string `json:"filename"`
	FileSize     int64  `json:"file_size"`
	Schema       string `json:"schema"`
	RecordCount  int    `json:"record_count"`
	WarningCount int    `json:"warning_count"`
	Mode         string `json:"mode"` // "append" or "replace"
	CreatedAt    string `json:"created_at"`
}
