package render

import (
	"bytes"
	_ "embed"
	"html/template"
)

//go:embed assets/layout.html
var layoutHTML string

//go:embed assets/docbuild.css
var stylesheet []byte

// StylesheetPath is where the site stylesheet is written.
const StylesheetPath = "assets/docbuild.css"

var layout = template.Must(template.New("page").Parse(layoutHTML))

type navLink struct {
	Title    string
	Href     string
	Current  bool
	Children []navLink
}

type pagerLink struct {
	Title string
	Href  string
}

type pageView struct {
	ID         string
	Title      string
	Summary    string
	SiteTitle  string
	Listed     bool
	Stylesheet string
	Home       string
	Nav        []navLink
	Body       template.HTML
	Prev       *pagerLink
	Next       *pagerLink
}

func (s *Site) view(sp *SitePage, body string) pageView {
	v := pageView{
		ID:         sp.ID,
		Title:      sp.Title,
		Summary:    Describe(sp),
		SiteTitle:  s.Title,
		Listed:     sp.Listed,
		Stylesheet: relHref(sp.Output, StylesheetPath),
		Nav:        navLinks(s.Nav, sp),
		Body:       template.HTML(body),
	}
	if home := s.Listed(); len(home) > 0 {
		v.Home = relHref(sp.Output, home[0].Output)
	}
	if sp.Prev != nil {
		v.Prev = &pagerLink{Title: sp.Prev.Title, Href: relHref(sp.Output, sp.Prev.Output)}
	}
	if sp.Next != nil {
		v.Next = &pagerLink{Title: sp.Next.Title, Href: relHref(sp.Output, sp.Next.Output)}
	}
	return v
}

func navLinks(items []*NavItem, current *SitePage) []navLink {
	links := make([]navLink, 0, len(items))
	for _, item := range items {
		l := navLink{Title: item.Title, Children: navLinks(item.Children, current)}
		switch {
		case item.URL != "":
			l.Href = item.URL
		case item.Output != "":
			l.Href = relHref(current.Output, item.Output)
			l.Current = item.Output == current.Output
		}
		links = append(links, l)
	}
	return links
}

func executeLayout(v pageView) ([]byte, error) {
	var buf bytes.Buffer
	if err := layout.Execute(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
