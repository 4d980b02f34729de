package extract

import (
	"net/url"
	"strings"

	"github.com/use-agent/sectify/config"
	"github.com/use-agent/sectify/models"
)

// truncationMarker is appended to rawHtml when it exceeds the cap.
const truncationMarker = "..."

// Limiter enforces the per-section size and count caps. Caps keep the
// first N entries so discovery order is preserved.
type Limiter struct {
	cfg config.LimitsConfig
}

// NewLimiter creates a Limiter with the given caps.
func NewLimiter(cfg config.LimitsConfig) *Limiter {
	return &Limiter{cfg: cfg}
}

// Apply caps every field of the section in place. URLs are expected to be
// absolute already (resolution happens at collection time, before capping).
// After Apply the section is final.
func (l *Limiter) Apply(sec *models.Section) {
	sec.Label = truncateRunes(sec.Label, l.cfg.LabelCap)
	sec.Text = truncateRunes(sec.Text, l.cfg.TextCap)
	sec.Markdown = truncateRunes(sec.Markdown, l.cfg.TextCap)

	if overCap(sec.RawHTML, l.cfg.HTMLCap) {
		sec.RawHTML = truncateRunes(sec.RawHTML, l.cfg.HTMLCap) + truncationMarker
		sec.Truncated = true
	}

	sec.Headings = capStrings(sec.Headings, l.cfg.MaxHeadings)
	sec.Links = capStrings(sec.Links, l.cfg.MaxLinks)
	sec.Images = capStrings(sec.Images, l.cfg.MaxImages)

	if len(sec.Lists) > l.cfg.MaxLists {
		sec.Lists = sec.Lists[:l.cfg.MaxLists]
	}
	if len(sec.Tables) > l.cfg.MaxTables {
		sec.Tables = sec.Tables[:l.cfg.MaxTables]
	}
}

func capStrings(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}

func overCap(s string, limit int) bool {
	// Byte-length fast path: a string can't have more runes than bytes.
	if len(s) <= limit {
		return false
	}
	return len([]rune(s)) > limit
}

// truncateRunes cuts a string to at most n runes, never splitting a
// multi-byte character.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// absoluteURL resolves href against base and returns it only when the
// result is a plain http(s) URL. Fragments, javascript:, mailto: and
// friends are dropped.
func absoluteURL(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	resolved, err := base.Parse(href)
	if err != nil {
		return "", false
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	return resolved.String(), true
}
