// backend/src/importer/schema.go
package importer

import "github.com/username/folioview/backend/src/models"

// FieldSpec describes one canonical field of a schema: the lowercase alias
// strings used for fuzzy header matching and whether an import can proceed
// without it.
type FieldSpec struct {
	Name     models.CanonicalField
	Aliases  []string
	Required bool
}

// Schema is the static definition of one target record kind.
type Schema struct {
	Type   models.PortfolioType
	Fields []FieldSpec
}

var transactionSchema = Schema{
	Type: models.PortfolioTypeTransaction,
	Fields: []FieldSpec{
		{
			Name:     models.FieldDatetime,
			Required: true,
			Aliases: []string{
				"datetime", "date", "time", "trade date", "trade time",
				"transaction date", "executed at", "execution date", "timestamp",
				"settlement date",
			},
		},
		{
			Name:     models.FieldSymbol,
			Required: true,
			Aliases: []string{
				"symbol", "ticker", "ticker symbol", "stock", "security",
				"instrument", "asset", "product",
			},
		},
		{
			Name:     models.FieldSide,
			Required: true,
			Aliases: []string{
				"side", "type", "action", "transaction type", "buy/sell",
				"buy sell", "direction", "activity", "order type",
			},
		},
		{
			Name:     models.FieldQuantity,
			Required: true,
			Aliases: []string{
				"quantity", "qty", "shares", "units", "volume", "no of shares",
				"number of shares",
			},
		},
		{
			Name:     models.FieldPrice,
			Required: true,
			Aliases: []string{
				"price", "unit price", "share price", "trade price",
				"execution price", "price per share", "cost per share", "rate",
			},
		},
		{
			Name:     models.FieldFee,
			Required: false,
			Aliases: []string{
				"fee", "fees", "commission", "commissions", "charges",
				"transaction cost", "brokerage",
			},
		},
	},
}

var snapshotSchema = Schema{
	Type: models.PortfolioTypeSnapshot,
	Fields: []FieldSpec{
		{
			Name:     models.FieldSymbol,
			Required: true,
			Aliases: []string{
				"symbol", "ticker", "ticker symbol", "stock", "security",
				"instrument", "asset", "product", "holding",
			},
		},
		{
			Name:     models.FieldQuantity,
			Required: true,
			Aliases: []string{
				"quantity", "qty", "shares", "units", "position", "holdings",
				"no of shares",
			},
		},
		{
			Name:     models.FieldCostBasis,
			Required: false,
			Aliases: []string{
				"cost_basis", "cost basis", "costbasis", "total cost", "book cost",
				"average cost", "avg cost", "basis", "purchase value", "cost",
			},
		},
		{
			Name:     models.FieldAsOf,
			Required: false,
			Aliases: []string{
				"as_of", "as of", "as of date", "date", "valuation date",
				"snapshot date", "position date", "report date",
			},
		},
	},
}

// SchemaFor returns the static schema definition for a portfolio type.
func SchemaFor(t models.PortfolioType) Schema {
	if t == models.PortfolioTypeSnapshot {
		return snapshotSchema
	}
	return transactionSchema
}

// Has reports whether field belongs to this schema.
func (s Schema) Has(field models.CanonicalField) bool {
	for _, fs := range s.Fields {
		if fs.Name == field {
			return true
		}
	}
	return false
}

// RequiredFields lists the fields an import cannot proceed without.
func (s Schema) RequiredFields() []models.CanonicalField {
	var required []models.CanonicalField
	for _, fs := range s.Fields {
		if fs.Required {
			required = append(required, fs.Name)
		}
	}
	return required
}

// MissingRequiredFields returns the schema-required fields no column claims,
// in schema declaration order.
func MissingRequiredFields(mappings []models.ColumnMapping, schema Schema) []models.CanonicalField {
	claimed := make(map[models.CanonicalField]bool, len(mappings))
	for _, m := range mappings {
		if m.Mapped() {
			claimed[m.TargetField] = true
		}
	}
	var missing []models.CanonicalField
	for _, f := range schema.RequiredFields() {
		if !claimed[f] {
			missing = append(missing, f)
		}
	}
	return missing
}
