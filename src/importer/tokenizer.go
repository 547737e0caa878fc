// backend/src/importer/tokenizer.go
package importer

import (
	"fmt"
	"strings"
)

// ParsedTable is the raw tabular view of one uploaded file. Headers are unique
// (duplicates get a _2, _3, ... suffix) and each row maps header -> raw cell text.
// It is produced once per import and never mutated afterwards.
type ParsedTable struct {
	Headers []string            `json:"headers"`
	Rows    []map[string]string `json:"rows"`
}

// Parse splits raw file text into headers and rows. It tolerates both newline
// conventions, quoted fields with embedded commas, doubled quotes as escaped
// literal quotes, and unterminated quotes (recovered, not rejected).
// Empty input yields an empty table; the caller decides that is an error.
func Parse(text string) *ParsedTable {
	lines := splitLines(text)
	if len(lines) == 0 {
		return &ParsedTable{Headers: []string{}, Rows: []map[string]string{}}
	}

	headers := dedupeHeaders(splitFields(lines[0]))
	rows := make([]map[string]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		cells := splitFields(line)
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(cells) {
				row[h] = cells[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return &ParsedTable{Headers: headers, Rows: rows}
}

// splitLines breaks text on line endings and drops blank lines.
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// splitFields splits one line on commas outside quotes. A doubled quote inside
// a quoted field is an escaped literal quote. An unterminated quote is recovered
// by re-scanning with the opening quote demoted to a literal character.
func splitFields(line string) []string {
	literalQuotes := make(map[int]bool)
	for {
		fields, openIdx, ok := scanFields(line, literalQuotes)
		if ok {
			return fields
		}
		literalQuotes[openIdx] = true
	}
}

func scanFields(line string, literalQuotes map[int]bool) (fields []string, openIdx int, ok bool) {
	var b strings.Builder
	inQuotes := false
	openIdx = -1

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"' && !literalQuotes[i]:
			if inQuotes {
				if i+1 < len(line) && line[i+1] == '"' && !literalQuotes[i+1] {
					b.WriteByte('"') // escaped quote
					i++
				} else {
					inQuotes = false
				}
			} else {
				inQuotes = true
				openIdx = i
			}
		case c == ',' && !inQuotes:
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}

	if inQuotes {
		return nil, openIdx, false
	}
	fields = append(fields, b.String())
	return fields, -1, true
}

// dedupeHeaders trims header text, replaces empty headers with a positional
// placeholder and suffixes duplicates so every header is unique.
func dedupeHeaders(raw []string) []string {
	seen := make(map[string]int, len(raw))
	headers := make([]string, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		count := seen[name]
		seen[name] = count + 1
		if count > 0 {
			name = fmt.Sprintf("%s_%d", name, count+1)
			seen[name]++
		}
		headers[i] = name
	}
	return headers
}
