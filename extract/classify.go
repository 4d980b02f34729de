package extract

import (
	"strings"

	"github.com/use-agent/sectify/models"
)

// tagTypes maps landmark tag names directly to a section type.
var tagTypes = map[string]models.SectionType{
	"header": models.TypeHeader,
	"nav":    models.TypeNav,
	"footer": models.TypeFooter,
}

// classHint maps a class/id substring pattern to a semantic section type.
// Ordered so the first match wins.
type classHint struct {
	Pattern string
	Type    models.SectionType
}

var classHints = []classHint{
	{Pattern: "hero", Type: models.TypeHero},
	{Pattern: "faq", Type: models.TypeFAQ},
	{Pattern: "pricing", Type: models.TypePricing},
}

// Classify derives a section type. The originating tag wins for the
// structural landmarks, then case-insensitive class/id hints, then the
// generic "section" when the block carries text, "unknown" otherwise.
func Classify(tag, classAttr, idAttr, text string) models.SectionType {
	if t, ok := tagTypes[strings.ToLower(tag)]; ok {
		return t
	}

	combined := strings.ToLower(classAttr + " " + idAttr)
	for _, hint := range classHints {
		if strings.Contains(combined, hint.Pattern) {
			return hint.Type
		}
	}

	if strings.TrimSpace(text) != "" {
		return models.TypeSection
	}
	return models.TypeUnknown
}
