// backend/src/models/canonical.go
package models

// CanonicalField is one of the fixed named slots a target schema defines.
// The importer maps arbitrary source column headers onto these.
type CanonicalField string

const (
	// Transaction schema fields.
	FieldDatetime CanonicalField = "datetime"
	FieldSymbol   CanonicalField = "symbol"
	FieldSide     CanonicalField = "side"
	FieldQuantity CanonicalField = "quantity"
	FieldPrice    CanonicalField = "price"
	FieldFee      CanonicalField = "fee"

	// Snapshot schema fields (symbol and quantity are shared).
	FieldCostBasis CanonicalField = "cost_basis"
	FieldAsOf      CanonicalField = "as_of"

	// FieldNone marks a source column that maps to no canonical field.
	FieldNone CanonicalField = ""
)

// Recognized side tokens after synonym canonicalization.
const (
	SideBuy      = "BUY"
	SideSell     = "SELL"
	SideDeposit  = "DEPOSIT"
	SideWithdraw = "WITHDRAW"
)

// TransactionRecord is one converted row of a transaction-style import.
// Datetime is ISO "YYYY-MM-DDTHH:MM"; unparsable source text is carried through
// verbatim so the validator and the consumer can still see it.
type TransactionRecord struct {
	Datetime string  `json:"datetime"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Fee      float64 `json:"fee"`
}

// SnapshotRecord is one converted row of a position-snapshot import.
// AsOf is ISO "YYYY-MM-DD" when parsable.
type SnapshotRecord struct {
	Symbol    string  `json:"symbol"`
	Quantity  float64 `json:"quantity"`
	CostBasis float64 `json:"cost_basis"`
	AsOf      string  `json:"as_of,omitempty"`
}
