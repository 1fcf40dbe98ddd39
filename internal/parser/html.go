package parser

import (
	"strings"

	"golang.org/x/net/html"
)

// HTMLLink is a link or image reference found in inline HTML.
type HTMLLink struct {
	Target string
	Image  bool
}

// HTMLFragment holds what the link checker needs from a piece of inline HTML.
type HTMLFragment struct {
	Anchors []string // id attributes and <a name=...> targets
	Links   []HTMLLink
}

// ParseHTMLFragment tokenizes a raw HTML snippet embedded in Markdown. The
// snippet does not need to be well formed; unclosed tags are fine.
func ParseHTMLFragment(fragment string) HTMLFragment {
	var out HTMLFragment
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			for _, attr := range tok.Attr {
				val := strings.TrimSpace(attr.Val)
				if val == "" {
					continue
				}
				switch {
				case attr.Key == "id":
					out.Anchors = append(out.Anchors, val)
				case attr.Key == "name" && tok.Data == "a":
					out.Anchors = append(out.Anchors, val)
				case attr.Key == "href" && tok.Data == "a":
					out.Links = append(out.Links, HTMLLink{Target: val})
				case attr.Key == "src" && tok.Data == "img":
					out.Links = append(out.Links, HTMLLink{Target: val, Image: true})
				}
			}
		}
	}
}
