// Package extract turns a captured DOM snapshot into the final structured
// sections: noise pruning, three-tier segmentation, type/label
// classification, metadata extraction, and size limiting.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NoiseRule maps a class/id substring pattern to the category of page
// furniture it identifies. Matching is case-insensitive. The table is the
// single source of truth for noise pruning so rules can be tested and
// extended independently of the tree walk.
type NoiseRule struct {
	Pattern  string
	Category string
}

// NoiseRules lists the class/id patterns removed before segmentation.
var NoiseRules = []NoiseRule{
	{Pattern: "cookie", Category: "consent"},
	{Pattern: "modal", Category: "dialog"},
	{Pattern: "popup", Category: "dialog"},
	{Pattern: "overlay", Category: "dialog"},
	{Pattern: "banner", Category: "promo"},
}

// MatchNoise reports whether the given class and id attribute values match
// any noise rule, and which category matched first.
func MatchNoise(classAttr, idAttr string) (string, bool) {
	combined := strings.ToLower(classAttr + " " + idAttr)
	for _, rule := range NoiseRules {
		if strings.Contains(combined, rule.Pattern) {
			return rule.Category, true
		}
	}
	return "", false
}

// RemoveNoise prunes non-content nodes from the document in place:
// script/style/noscript unconditionally, plus any element whose class or
// id matches a noise rule. It is a pure tree-pruning pass.
func RemoveNoise(doc *goquery.Document) {
	doc.Find("script, style, noscript").Remove()

	doc.Find("[class], [id]").Each(func(_ int, el *goquery.Selection) {
		class, _ := el.Attr("class")
		id, _ := el.Attr("id")
		if _, noisy := MatchNoise(class, id); noisy {
			el.Remove()
		}
	})
}
