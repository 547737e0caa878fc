package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/folioview/backend/src/models"
)

func TestProposeMappingsExactAliases(t *testing.T) {
	headers := []string{"datetime", "symbol", "side", "quantity", "price", "fee"}
	mappings := ProposeMappings(headers, transactionSchema)

	require.Len(t, mappings, len(headers))
	want := []models.CanonicalField{
		models.FieldDatetime, models.FieldSymbol, models.FieldSide,
		models.FieldQuantity, models.FieldPrice, models.FieldFee,
	}
	for i, m := range mappings {
		assert.Equal(t, headers[i], m.SourceColumn)
		assert.Equal(t, want[i], m.TargetField)
		assert.Equal(t, 1.0, m.Confidence, "header %q", headers[i])
	}
}

func TestProposeMappingsFuzzyAndUnrelated(t *testing.T) {
	mappings := ProposeMappings([]string{"Trade Date", "Unrelated Column"}, transactionSchema)

	require.Len(t, mappings, 2)
	assert.Equal(t, models.FieldDatetime, mappings[0].TargetField)
	assert.Greater(t, mappings[0].Confidence, 0.5)
	assert.Equal(t, models.FieldNone, mappings[1].TargetField)
	assert.Equal(t, 0.0, mappings[1].Confidence)
}

func TestProposeMappingsFieldClaimedAtMostOnce(t *testing.T) {
	// Both headers want datetime; the stronger claim wins, the loser maps to
	// nothing instead of duplicating the field.
	mappings := ProposeMappings([]string{"datetime", "Trade Date", "symbol"}, transactionSchema)

	claimed := map[models.CanonicalField]int{}
	for _, m := range mappings {
		if m.Mapped() {
			claimed[m.TargetField]++
		}
	}
	for field, count := range claimed {
		assert.Equal(t, 1, count, "field %q claimed more than once", field)
	}
	assert.Equal(t, models.FieldDatetime, mappings[0].TargetField)
	assert.Equal(t, models.FieldNone, mappings[1].TargetField)
}

func TestProposeMappingsTieKeepsHeaderOrder(t *testing.T) {
	// "shares" and "units" are both exact quantity aliases; on equal
	// confidence the earlier column keeps the field.
	mappings := ProposeMappings([]string{"shares", "units"}, transactionSchema)

	assert.Equal(t, models.FieldQuantity, mappings[0].TargetField)
	assert.Equal(t, models.FieldNone, mappings[1].TargetField)
}

func TestProposeMappingsPunctuationOnlyHeaderMapsToNone(t *testing.T) {
	mappings := ProposeMappings([]string{"?!?", "symbol"}, transactionSchema)

	require.Len(t, mappings, 2)
	assert.Equal(t, models.FieldNone, mappings[0].TargetField)
	assert.Equal(t, 0.0, mappings[0].Confidence)
	assert.Equal(t, models.FieldSymbol, mappings[1].TargetField)
}

func TestApplyOverrideReassignsField(t *testing.T) {
	mappings := ProposeMappings([]string{"datetime", "symbol", "extra"}, transactionSchema)

	ok := ApplyOverride(mappings, "extra", models.FieldFee)
	require.True(t, ok)
	assert.Equal(t, models.FieldFee, mappings[2].TargetField)
	assert.Equal(t, 1.0, mappings[2].Confidence)
}

func TestApplyOverrideClearsPreviousHolder(t *testing.T) {
	mappings := ProposeMappings([]string{"datetime", "symbol"}, transactionSchema)

	ok := ApplyOverride(mappings, "datetime", models.FieldSymbol)
	require.True(t, ok)
	assert.Equal(t, models.FieldSymbol, mappings[0].TargetField)
	assert.Equal(t, 1.0, mappings[0].Confidence)
	assert.Equal(t, models.FieldNone, mappings[1].TargetField)
	assert.Equal(t, 0.0, mappings[1].Confidence)
}

func TestApplyOverrideLastWriteWins(t *testing.T) {
	// Overriding the same column twice leaves only the second assignment.
	mappings := ProposeMappings([]string{"col_a", "col_b"}, transactionSchema)

	require.True(t, ApplyOverride(mappings, "col_a", models.FieldPrice))
	require.True(t, ApplyOverride(mappings, "col_a", models.FieldQuantity))

	assert.Equal(t, models.FieldQuantity, mappings[0].TargetField)
	for _, m := range mappings {
		assert.NotEqual(t, models.FieldPrice, m.TargetField)
	}
}

func TestApplyOverrideToNoneClearsColumn(t *testing.T) {
	mappings := ProposeMappings([]string{"symbol"}, transactionSchema)

	require.True(t, ApplyOverride(mappings, "symbol", models.FieldNone))
	assert.Equal(t, models.FieldNone, mappings[0].TargetField)
	assert.Equal(t, 0.0, mappings[0].Confidence)
}

func TestApplyOverrideUnknownColumn(t *testing.T) {
	mappings := ProposeMappings([]string{"symbol"}, transactionSchema)
	assert.False(t, ApplyOverride(mappings, "no_such_column", models.FieldPrice))
}

func TestMissingRequiredFields(t *testing.T) {
	mappings := ProposeMappings([]string{"symbol", "quantity"}, transactionSchema)

	missing := MissingRequiredFields(mappings, transactionSchema)
	assert.Equal(t, []models.CanonicalField{
		models.FieldDatetime, models.FieldSide, models.FieldPrice,
	}, missing)

	full := ProposeMappings([]string{"datetime", "symbol", "side", "quantity", "price"}, transactionSchema)
	assert.Empty(t, MissingRequiredFields(full, transactionSchema))
}
