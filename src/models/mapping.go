package models

// ColumnMapping associates one source column with at most one canonical field.
// Confidence is 0..1; a manual assignment always carries confidence 1.
type ColumnMapping struct {
	SourceColumn string         `json:"source_column"`
	TargetField  CanonicalField `json:"target_field"`
	Confidence   float64        `json:"confidence"`
}

// Mapped reports whether this column claims a canonical field.
func (m ColumnMapping) Mapped() bool {
	return m.TargetField != FieldNone
}

// ValidationWarning is a non-fatal data-quality finding for one field of one
// converted record. Row is 1-based over the data rows (headers excluded).
type ValidationWarning struct {
	Row     int            `json:"row"`
	Field   CanonicalField `json:"field"`
	Value   any            `json:"value"`
	Message string         `json:"message"`
}
