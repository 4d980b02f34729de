package simhash

import (
	"strings"

	"golang.org/x/net/html"
)

// FingerprintPage computes a SimHash over a page's visible text plus its
// tag-sequence shingles. Combining both signals keeps the fingerprint
// sensitive to lazy-loaded content that arrives with little text (image
// grids, cards) as well as to plain text growth.
func FingerprintPage(htmlStr string) uint64 {
	text, tags := tokenizePage(htmlStr)

	parts := make([]string, 0, len(tags)+1)
	if text != "" {
		parts = append(parts, text)
	}
	parts = append(parts, shingles(tags, 3)...)

	if len(parts) == 0 {
		return 0
	}
	return Fingerprint(strings.Join(parts, " "))
}

// tokenizePage walks the HTML once, collecting visible text (outside
// script/style/noscript) and open tag names in document order.
func tokenizePage(htmlStr string) (string, []string) {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	var buf strings.Builder
	var tags []string
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return buf.String(), tags
		case html.StartTagToken, html.SelfClosingTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			tags = append(tags, tag)
			if tag == "script" || tag == "style" || tag == "noscript" {
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "script" || tag == "style" || tag == "noscript" {
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if skipDepth == 0 {
				if text := strings.TrimSpace(string(tokenizer.Text())); text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}

// shingles creates n-gram shingles from a slice of tokens.
func shingles(tokens []string, n int) []string {
	if len(tokens) < n {
		return tokens
	}

	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i <= len(tokens)-n; i++ {
		out = append(out, strings.Join(tokens[i:i+n], "_"))
	}
	return out
}
