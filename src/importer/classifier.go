// backend/src/importer/classifier.go
package importer

import (
	"strings"

	"github.com/username/folioview/backend/src/models"
)

// transactionKeywords are tokens that only appear in trade-log exports; seeing
// any of them in a header classifies the file as transaction-style outright.
var transactionKeywords = []string{
	"side", "type", "action", "datetime", "fee", "commission", "buysell",
}

// DetectSchema decides whether a header row looks like a transaction log or a
// position snapshot. Keyword presence wins immediately; otherwise both schemas
// are resolved and the one mapping strictly more fields wins. A tie defaults
// to transaction.
func DetectSchema(headers []string) models.PortfolioType {
	for _, header := range headers {
		n := normalize(header)
		for _, kw := range transactionKeywords {
			if strings.Contains(n, kw) {
				return models.PortfolioTypeTransaction
			}
		}
	}

	txCount := countMapped(ProposeMappings(headers, transactionSchema))
	snapCount := countMapped(ProposeMappings(headers, snapshotSchema))
	if snapCount > txCount {
		return models.PortfolioTypeSnapshot
	}
	return models.PortfolioTypeTransaction
}

func countMapped(mappings []models.ColumnMapping) int {
	count := 0
	for _, m := range mappings {
		if m.Mapped() {
			count++
		}
	}
	return count
}
