package render

import (
	"bytes"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/docbuild/internal/doctree"
	"github.com/dgallion1/docbuild/internal/linkcheck"
	"github.com/dgallion1/docbuild/internal/parser"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// pageRenderer converts page bodies to HTML fragments.
type pageRenderer struct {
	md   goldmark.Markdown
	site *Site
}

func newPageRenderer(site *Site) *pageRenderer {
	return &pageRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		site: site,
	}
}

// body renders the page's Markdown with directives turned into wrapper
// elements, page links pointing at .html outputs and ids on every heading.
func (r *pageRenderer) body(sp *SitePage) (string, error) {
	src := ExpandDirectives(sp.Page)

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", &RenderError{Op: "convert", Path: sp.Path, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return "", &RenderError{Op: "parse html", Path: sp.Path, Err: err}
	}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		s.SetAttr("href", r.rewriteHref(sp, href))
	})
	anchors := parser.NewAnchorSet()
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("id"); ok {
			return
		}
		s.SetAttr("id", anchors.Add(strings.TrimSpace(s.Text())))
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", &RenderError{Op: "serialize html", Path: sp.Path, Err: err}
	}
	return out, nil
}

// rewriteHref points links at rendered pages. Asset links keep their
// relative form, root-relative ones are made relative to the page.
func (r *pageRenderer) rewriteHref(from *SitePage, href string) string {
	if href == "" || strings.HasPrefix(href, "#") || linkcheck.IsExternal(href) {
		return href
	}
	ref, frag, hasFrag := strings.Cut(href, "#")
	resolved, ok := linkcheck.Resolve(from.Path, ref)
	if !ok {
		return href
	}

	var out string
	if target := r.site.lookupTarget(resolved, ref); target != nil {
		out = relHref(from.Output, target.Output)
	} else if strings.HasPrefix(ref, "/") {
		out = relHref(from.Output, resolved)
	} else {
		return href
	}
	if hasFrag {
		out += "#" + frag
	}
	return out
}

// ExpandDirectives returns the page body with every directive tag replaced
// by an HTML wrapper: {% hint style="info" %} becomes
// <div class="gb-hint" data-style="info">. Content between tags is kept.
func ExpandDirectives(page *doctree.Page) string {
	var sb strings.Builder
	writeRange(&sb, page.RawText, page.BodyOffset, len(page.RawText), page.Directives, wrapperTags)
	return sb.String()
}

// StripDirectives returns the page body with directive tags removed.
func StripDirectives(page *doctree.Page) string {
	var sb strings.Builder
	writeRange(&sb, page.RawText, page.BodyOffset, len(page.RawText), page.Directives, func(*doctree.Directive) (string, string) {
		return "\n\n", "\n\n"
	})
	return sb.String()
}

type tagFunc func(d *doctree.Directive) (opening, closing string)

func writeRange(sb *strings.Builder, text string, from, to int, ds []*doctree.Directive, tags tagFunc) {
	pos := from
	for _, d := range ds {
		if d.StartOffset < pos || d.EndOffset > to {
			continue
		}
		sb.WriteString(text[pos:d.StartOffset])
		opening, closing := tags(d)
		sb.WriteString(opening)
		if !d.SelfClosing {
			writeRange(sb, text, d.OpenEnd, d.CloseStart, d.Children, tags)
		}
		sb.WriteString(closing)
		pos = d.EndOffset
	}
	if pos < to {
		sb.WriteString(text[pos:to])
	}
}

// wrapperTags surrounds a directive with a div. Blank lines around the
// tags keep the inner Markdown a separate block.
func wrapperTags(d *doctree.Directive) (string, string) {
	var sb strings.Builder
	sb.WriteString("\n\n<div class=\"gb-")
	sb.WriteString(html.EscapeString(string(d.Kind)))
	sb.WriteString("\"")

	keys := make([]string, 0, len(d.Attributes))
	for k := range d.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " data-%s=\"%s\"", html.EscapeString(strings.ToLower(k)), html.EscapeString(d.Attributes[k]))
	}
	sb.WriteString(">")

	if ref := referenceOf(d); ref != "" {
		fmt.Fprintf(&sb, "<a class=\"gb-ref\" href=\"%s\">%s</a>", html.EscapeString(ref), html.EscapeString(ref))
	}
	if d.Kind == doctree.KindTab && d.Attributes["title"] != "" {
		fmt.Fprintf(&sb, "<p class=\"gb-tab-title\">%s</p>", html.EscapeString(d.Attributes["title"]))
	}

	if d.SelfClosing {
		sb.WriteString("</div>\n\n")
		return sb.String(), ""
	}
	sb.WriteString("\n\n")
	return sb.String(), "\n\n</div>\n\n"
}

func referenceOf(d *doctree.Directive) string {
	switch d.Kind {
	case doctree.KindEmbed:
		return d.Attributes["url"]
	case doctree.KindFile, doctree.KindInclude:
		return d.Attributes["src"]
	}
	return ""
}
