// backend/src/importer/resolver.go
package importer

import (
	"sort"

	"github.com/username/folioview/backend/src/models"
)

// confidenceThreshold is the minimum match confidence for a header to claim a
// canonical field at all; anything at or below maps to none.
const confidenceThreshold = 0.5

// ProposeMappings computes one ColumnMapping per header, in header order.
// Each header first gets its independent best guess, then duplicate claims are
// resolved greedily by descending confidence so no canonical field is claimed
// by more than one column. Ties keep original header order (stable sort).
func ProposeMappings(headers []string, schema Schema) []models.ColumnMapping {
	mappings := make([]models.ColumnMapping, len(headers))
	for i, header := range headers {
		field, confidence := bestMatch(header, schema)
		if confidence > confidenceThreshold {
			mappings[i] = models.ColumnMapping{SourceColumn: header, TargetField: field, Confidence: confidence}
		} else {
			mappings[i] = models.ColumnMapping{SourceColumn: header, TargetField: models.FieldNone, Confidence: 0}
		}
	}
	resolveConflicts(mappings)
	return mappings
}

// bestMatch scores a header against every alias of every field in the schema.
// An exact alias match returns immediately; otherwise the running maximum wins.
func bestMatch(header string, schema Schema) (models.CanonicalField, float64) {
	bestField := models.FieldNone
	bestConfidence := 0.0
	for _, fs := range schema.Fields {
		for _, alias := range fs.Aliases {
			s := Score(header, alias)
			if s == 1.0 {
				return fs.Name, 1.0
			}
			if s > bestConfidence {
				bestConfidence = s
				bestField = fs.Name
			}
		}
	}
	return bestField, bestConfidence
}

// resolveConflicts walks the mappings ranked by descending confidence and lets
// each header keep its field only if no higher-ranked header claimed it first.
// Losers are forced to none with confidence 0.
func resolveConflicts(mappings []models.ColumnMapping) {
	order := make([]int, len(mappings))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return mappings[order[i]].Confidence > mappings[order[j]].Confidence
	})

	claimed := make(map[models.CanonicalField]bool)
	for _, idx := range order {
		m := &mappings[idx]
		if !m.Mapped() {
			continue
		}
		if claimed[m.TargetField] {
			m.TargetField = models.FieldNone
			m.Confidence = 0
			continue
		}
		claimed[m.TargetField] = true
	}
}

// ApplyOverride manually assigns a canonical field to one column. Any other
// column previously holding that field is cleared first, preserving the
// one-column-per-field invariant. Manual assignments carry confidence 1.
// Passing FieldNone clears the column.
func ApplyOverride(mappings []models.ColumnMapping, sourceColumn string, field models.CanonicalField) bool {
	target := -1
	for i := range mappings {
		if mappings[i].SourceColumn == sourceColumn {
			target = i
			break
		}
	}
	if target == -1 {
		return false
	}

	if field != models.FieldNone {
		for i := range mappings {
			if i != target && mappings[i].TargetField == field {
				mappings[i].TargetField = models.FieldNone
				mappings[i].Confidence = 0
			}
		}
	}

	mappings[target].TargetField = field
	if field == models.FieldNone {
		mappings[target].Confidence = 0
	} else {
		mappings[target].Confidence = 1
	}
	return true
}
