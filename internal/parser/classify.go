package parser

import (
	"strings"

	"finrag/internal/models"
)

// classifyRules are evaluated in order; the first match wins. The order
// matters because the keywords co-occur in real reports (a risk section
// quoting the balance sheet must still classify as risk).
var classifyRules = []struct {
	section  models.Section
	keywords []string
}{
	{models.SectionMDNA, []string{"management discussion", "md&a"}},
	{models.SectionRisk, []string{"risk"}},
	{models.SectionFinancials, []string{"financial statement", "balance sheet"}},
	{models.SectionNotes, []string{"notes to"}},
	{models.SectionLegal, []string{"notice", "e-voting", "agm"}},
}

// Classify labels text with a coarse section category using
// case-insensitive substring matching. Best-effort, not ground truth.
func Classify(text string) models.Section {
	t := strings.ToLower(text)
	for _, rule := range classifyRules {
		for _, kw := range rule.keywords {
			if strings.Contains(t, kw) {
				return rule.section
			}
		}
	}
	return models.SectionOther
}
