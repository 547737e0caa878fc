// backend/src/importer/converter.go
package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/username/folioview/backend/src/models"
)

// DateFormat selects the date convention raw cells are parsed under.
type DateFormat string

const (
	DateFormatAuto DateFormat = "auto"
	DateFormatDMY  DateFormat = "dmy" // 05-01-2024, 05/01/2024
	DateFormatMDY  DateFormat = "mdy" // 01-05-2024
	DateFormatYMD  DateFormat = "ymd" // 2024-01-05
	DateFormatYDM  DateFormat = "ydm" // 2024-05-01
)

// ParseDateFormat maps a request string onto a DateFormat, defaulting to auto.
func ParseDateFormat(s string) (DateFormat, error) {
	switch DateFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", DateFormatAuto:
		return DateFormatAuto, nil
	case DateFormatDMY:
		return DateFormatDMY, nil
	case DateFormatMDY:
		return DateFormatMDY, nil
	case DateFormatYMD:
		return DateFormatYMD, nil
	case DateFormatYDM:
		return DateFormatYDM, nil
	}
	return DateFormatAuto, fmt.Errorf("unknown date format %q", s)
}

// RecordSet holds the converted records of one import. Exactly one of the two
// slices is populated, selected by Schema.
type RecordSet struct {
	Schema       models.PortfolioType       `json:"schema"`
	Transactions []models.TransactionRecord `json:"transactions,omitempty"`
	Snapshots    []models.SnapshotRecord    `json:"snapshots,omitempty"`
}

// Len returns the number of converted records.
func (rs *RecordSet) Len() int {
	if rs.Schema == models.PortfolioTypeSnapshot {
		return len(rs.Snapshots)
	}
	return len(rs.Transactions)
}

// Convert applies the resolved column mappings to every row of the table,
// producing typed records. Conversion never fails a row: unparsable dates pass
// through as text, unparsable numbers become 0, unknown side tokens stay as
// uppercased text. Data-quality checks are the validator's job.
func Convert(table *ParsedTable, mappings []models.ColumnMapping, schema Schema, format DateFormat) *RecordSet {
	columns := make(map[models.CanonicalField]string, len(mappings))
	for _, m := range mappings {
		if m.Mapped() {
			columns[m.TargetField] = m.SourceColumn
		}
	}

	cell := func(row map[string]string, field models.CanonicalField) (string, bool) {
		col, ok := columns[field]
		if !ok {
			return "", false
		}
		return row[col], true
	}

	rs := &RecordSet{Schema: schema.Type}
	if schema.Type == models.PortfolioTypeSnapshot {
		rs.Snapshots = make([]models.SnapshotRecord, 0, len(table.Rows))
		for _, row := range table.Rows {
			var rec models.SnapshotRecord
			if raw, ok := cell(row, models.FieldSymbol); ok {
				rec.Symbol = convertSymbol(raw)
			}
			if raw, ok := cell(row, models.FieldQuantity); ok {
				rec.Quantity = convertNumber(raw)
			}
			if raw, ok := cell(row, models.FieldCostBasis); ok {
				rec.CostBasis = convertNumber(raw)
			}
			if raw, ok := cell(row, models.FieldAsOf); ok {
				rec.AsOf = convertDate(raw, format)
			}
			rs.Snapshots = append(rs.Snapshots, rec)
		}
		return rs
	}

	rs.Transactions = make([]models.TransactionRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		var rec models.TransactionRecord
		if raw, ok := cell(row, models.FieldDatetime); ok {
			rec.Datetime = convertDateTime(raw, format)
		}
		if raw, ok := cell(row, models.FieldSymbol); ok {
			rec.Symbol = convertSymbol(raw)
		}
		if raw, ok := cell(row, models.FieldSide); ok {
			rec.Side = convertSide(raw)
		}
		if raw, ok := cell(row, models.FieldQuantity); ok {
			rec.Quantity = convertNumber(raw)
		}
		if raw, ok := cell(row, models.FieldPrice); ok {
			rec.Price = convertNumber(raw)
		}
		// Fee defaults to 0 when unmapped.
		if raw, ok := cell(row, models.FieldFee); ok {
			rec.Fee = convertNumber(raw)
		}
		rs.Transactions = append(rs.Transactions, rec)
	}
	return rs
}

// convertDateTime parses raw under the selected convention and re-emits it as
// zero-padded "YYYY-MM-DDTHH:MM". Unparsable input passes through unchanged,
// deferring the problem to the validator and the consumer.
func convertDateTime(raw string, format DateFormat) string {
	t, ok := parseDate(raw, format)
	if !ok {
		return raw
	}
	return t.Format("2006-01-02T15:04")
}

// convertDate is convertDateTime without the time component ("YYYY-MM-DD").
func convertDate(raw string, format DateFormat) string {
	t, ok := parseDate(raw, format)
	if !ok {
		return raw
	}
	return t.Format("2006-01-02")
}

// parseDate parses a date cell, optionally carrying an "HH:MM" suffix after
// whitespace or a literal 'T'.
func parseDate(raw string, format DateFormat) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if format == DateFormatAuto {
		return parseDateAuto(s)
	}
	return parseOrdered(s, format)
}

// parseDateAuto tries ISO layouts first, then the day-first and month-first
// conventions in that order.
func parseDateAuto(s string) (time.Time, bool) {
	layouts := []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"2006/01/02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if t, ok := parseOrdered(s, DateFormatDMY); ok {
		return t, true
	}
	return parseOrdered(s, DateFormatMDY)
}

// parseOrdered parses a three-component date under an explicit day/month/year
// ordering, with an optional HH:MM[:SS] time suffix.
func parseOrdered(s string, format DateFormat) (time.Time, bool) {
	datePart, timePart := splitDateTime(s)

	parts := strings.FieldsFunc(datePart, func(r rune) bool {
		return r == '-' || r == '/' || r == '.'
	})
	if len(parts) != 3 {
		return time.Time{}, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}

	var year, month, day int
	switch format {
	case DateFormatDMY:
		day, month, year = nums[0], nums[1], nums[2]
	case DateFormatMDY:
		month, day, year = nums[0], nums[1], nums[2]
	case DateFormatYMD:
		year, month, day = nums[0], nums[1], nums[2]
	case DateFormatYDM:
		year, day, month = nums[0], nums[1], nums[2]
	default:
		return time.Time{}, false
	}
	if year < 100 {
		year += 2000
	}

	hour, minute, ok := parseClock(timePart)
	if !ok {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	// time.Date normalizes out-of-range components (e.g. month 13); reject
	// anything that did not round-trip.
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// splitDateTime separates the date component from an optional time suffix,
// delimited by whitespace or a literal 'T'.
func splitDateTime(s string) (datePart, timePart string) {
	if idx := strings.IndexAny(s, " \tT"); idx != -1 {
		return s[:idx], strings.TrimSpace(s[idx+1:])
	}
	return s, ""
}

// parseClock parses "HH:MM" or "HH:MM:SS"; an empty suffix means midnight.
func parseClock(s string) (hour, minute int, ok bool) {
	if s == "" {
		return 0, 0, true
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// currencyStripper removes currency symbols, thousands separators and
// whitespace ahead of the numeric parse.
var currencyStripper = strings.NewReplacer(
	"$", "", "€", "", "£", "", "¥", "",
	",", "", " ", "", " ", "",
)

// convertNumber parses a currency-ish cell into a float. Unparsable text
// yields 0; a single bad cell never aborts the file.
func convertNumber(raw string) float64 {
	cleaned := currencyStripper.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// sideSynonyms canonicalizes the many broker spellings of a trade direction.
var sideSynonyms = map[string]string{
	"BUY":          models.SideBuy,
	"B":            models.SideBuy,
	"BOUGHT":       models.SideBuy,
	"PURCHASE":     models.SideBuy,
	"SELL":         models.SideSell,
	"S":            models.SideSell,
	"SOLD":         models.SideSell,
	"SALE":         models.SideSell,
	"DEPOSIT":      models.SideDeposit,
	"DEP":          models.SideDeposit,
	"CASH IN":      models.SideDeposit,
	"CONTRIBUTION": models.SideDeposit,
	"TRANSFER IN":  models.SideDeposit,
	"WITHDRAW":     models.SideWithdraw,
	"WITHDRAWAL":   models.SideWithdraw,
	"CASH OUT":     models.SideWithdraw,
	"TRANSFER OUT": models.SideWithdraw,
}

// convertSide uppercases and canonicalizes a side token. Unrecognized tokens
// pass through uppercased; the validator flags them.
func convertSide(raw string) string {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if canonical, ok := sideSynonyms[token]; ok {
		return canonical
	}
	return token
}

func convertSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
