package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/folioview/backend/src/models"
)

func TestParseDateFormat(t *testing.T) {
	for _, s := range []string{"", "auto", "AUTO", " dmy ", "mdy", "ymd", "ydm"} {
		_, err := ParseDateFormat(s)
		assert.NoError(t, err, "format %q", s)
	}
	_, err := ParseDateFormat("dym")
	assert.Error(t, err)
}

func TestConvertTransactionRoundTrip(t *testing.T) {
	table := Parse("datetime,symbol,side,quantity,price,fee\n2024-01-05T09:30,AAPL,BUY,10,150.25,1.00\n")
	mappings := ProposeMappings(table.Headers, transactionSchema)

	rs := Convert(table, mappings, transactionSchema, DateFormatAuto)

	require.Equal(t, models.PortfolioTypeTransaction, rs.Schema)
	require.Len(t, rs.Transactions, 1)
	assert.Equal(t, models.TransactionRecord{
		Datetime: "2024-01-05T09:30",
		Symbol:   "AAPL",
		Side:     "BUY",
		Quantity: 10,
		Price:    150.25,
		Fee:      1.00,
	}, rs.Transactions[0])

	assert.Empty(t, Validate(rs))
}

func TestConvertSnapshot(t *testing.T) {
	table := Parse("symbol,quantity,cost_basis,as_of\nmsft,5,1550.00,2024-03-31\n")
	mappings := ProposeMappings(table.Headers, snapshotSchema)

	rs := Convert(table, mappings, snapshotSchema, DateFormatAuto)

	require.Equal(t, models.PortfolioTypeSnapshot, rs.Schema)
	require.Len(t, rs.Snapshots, 1)
	assert.Equal(t, models.SnapshotRecord{
		Symbol:    "MSFT",
		Quantity:  5,
		CostBasis: 1550.00,
		AsOf:      "2024-03-31",
	}, rs.Snapshots[0])
}

func TestConvertUnmappedFeeDefaultsToZero(t *testing.T) {
	table := Parse("datetime,symbol,side,quantity,price\n2024-01-05,AAPL,BUY,10,150.25\n")
	mappings := ProposeMappings(table.Headers, transactionSchema)

	rs := Convert(table, mappings, transactionSchema, DateFormatAuto)

	require.Len(t, rs.Transactions, 1)
	assert.Equal(t, 0.0, rs.Transactions[0].Fee)
}

func TestConvertDateTimeFormats(t *testing.T) {
	tests := []struct {
		raw    string
		format DateFormat
		want   string
	}{
		{"2024-01-05", DateFormatAuto, "2024-01-05T00:00"},
		{"2024-01-05 09:30", DateFormatAuto, "2024-01-05T09:30"},
		{"2024-01-05T09:30:15", DateFormatAuto, "2024-01-05T09:30"},
		{"2024/01/05", DateFormatAuto, "2024-01-05T00:00"},
		{"05/01/2024", DateFormatDMY, "2024-01-05T00:00"},
		{"05-01-2024 14:45", DateFormatDMY, "2024-01-05T14:45"},
		{"01/05/2024", DateFormatMDY, "2024-01-05T00:00"},
		{"2024-01-05", DateFormatYMD, "2024-01-05T00:00"},
		{"2024-05-01", DateFormatYDM, "2024-01-05T00:00"},
		{"5/1/24", DateFormatDMY, "2024-01-05T00:00"},
		// Ambiguous day-first input resolves as DMY under auto.
		{"05/01/2024", DateFormatAuto, "2024-01-05T00:00"},
		// Day > 12 forces the month-first fallback under auto.
		{"01/25/2024", DateFormatAuto, "2024-01-25T00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, convertDateTime(tt.raw, tt.format), "raw %q format %q", tt.raw, tt.format)
	}
}

func TestConvertDateTimeUnparsablePassesThrough(t *testing.T) {
	for _, raw := range []string{"Jan 5, 2024", "not a date", "13/13/2024", "2024-02-30"} {
		assert.Equal(t, raw, convertDateTime(raw, DateFormatAuto), "raw %q", raw)
	}
}

func TestConvertDateDropsTime(t *testing.T) {
	assert.Equal(t, "2024-03-31", convertDate("31/03/2024 18:00", DateFormatDMY))
}

func TestConvertNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"150.25", 150.25},
		{"$1,234.56", 1234.56},
		{"€ 99,00.50", 9900.50},
		{"£250", 250},
		{"-12.5", -12.5},
		{"10", 10},
		{"n/a", 0},
		{"", 0},
		{"  ", 0},
		{"abc", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, convertNumber(tt.raw), "raw %q", tt.raw)
	}
}

func TestConvertSide(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"buy", "BUY"},
		{"Bought", "BUY"},
		{"B", "BUY"},
		{"purchase", "BUY"},
		{"sold", "SELL"},
		{"Sale", "SELL"},
		{"deposit", "DEPOSIT"},
		{"Transfer In", "DEPOSIT"},
		{"cash out", "WITHDRAW"},
		{"withdrawal", "WITHDRAW"},
		// Unrecognized tokens pass through uppercased.
		{"xfer", "XFER"},
		{"dividend", "DIVIDEND"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, convertSide(tt.raw), "raw %q", tt.raw)
	}
}

func TestConvertSymbolUppercasesAndTrims(t *testing.T) {
	assert.Equal(t, "AAPL", convertSymbol("  aapl "))
}
