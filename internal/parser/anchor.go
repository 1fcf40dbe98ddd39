package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	slugStripRe = regexp.MustCompile(`[^\p{L}\p{N}\s_-]+`)
	slugSpaceRe = regexp.MustCompile(`\s`)
)

// Slugify converts a heading to its in-page anchor: lowercase, whitespace to
// hyphens, punctuation stripped.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugStripRe.ReplaceAllString(s, "")
	return slugSpaceRe.ReplaceAllString(s, "-")
}

// AnchorSet hands out unique anchors for the headings of one page. Repeated
// headings get "-1", "-2", ... suffixes in document order.
type AnchorSet struct {
	seen map[string]int
}

func NewAnchorSet() *AnchorSet {
	return &AnchorSet{seen: make(map[string]int)}
}

// Add returns the anchor for the next heading with the given text.
func (a *AnchorSet) Add(heading string) string {
	base := Slugify(heading)
	n, ok := a.seen[base]
	a.seen[base] = n + 1
	if !ok {
		return base
	}
	candidate := base + "-" + strconv.Itoa(n)
	for {
		if _, taken := a.seen[candidate]; !taken {
			a.seen[candidate] = 1
			return candidate
		}
		n++
		a.seen[base] = n + 1
		candidate = base + "-" + strconv.Itoa(n)
	}
}
