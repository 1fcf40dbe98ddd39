// Package render turns a validated manifest and page set into a navigable
// site: an in-memory tree first, then HTML pages, a site.json index and an
// optional DOCX book.
package render

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/dgallion1/docbuild/internal/doctree"
	"github.com/dgallion1/docbuild/internal/manifest"
	"github.com/google/uuid"
)

// DefaultTitle is used when the manifest has no "# Title" line.
const DefaultTitle = "Documentation"

// Site is the rendered, navigable structure of a documentation root.
type Site struct {
	Title string
	Pages []*SitePage // Listed pages in manifest pre-order, then orphans by path
	Nav   []*NavItem

	// Renamed lists pages whose natural output file was already taken.
	Renamed []Rename

	byPath  map[string]*SitePage
	outputs map[string]bool
}

// Rename records a page written under a different file than OutputPath
// gives, because an earlier page claimed that file.
type Rename struct {
	Path   string // Page path
	Wanted string // OutputPath(Path)
	Output string // File actually written
	Owner  string // Page that holds Wanted
}

// SitePage pairs a page with its place in the site.
type SitePage struct {
	ID     string // Stable UUID derived from Path
	Title  string
	Path   string
	Output string // Output file, e.g. "csharp/events.html"
	Listed bool   // False for orphans
	Depth  int    // Manifest depth; 0 for orphans
	Page   *doctree.Page
	Prev   *SitePage
	Next   *SitePage
}

// Directives returns the page's resolved directive tree.
func (sp *SitePage) Directives() []*doctree.Directive {
	return sp.Page.Directives
}

// NavItem is one sidebar entry mirroring a manifest node.
type NavItem struct {
	Title    string     `json:"title"`
	Output   string     `json:"output,omitempty"`
	URL      string     `json:"url,omitempty"`
	Children []*NavItem `json:"children,omitempty"`
}

// Render walks the manifest in pre-order and pairs every listed page with
// its content. Pages not reachable from the manifest are appended, sorted
// by path, and marked unlisted. Entries whose page is missing are skipped.
func Render(root *doctree.ManifestNode, pages map[string]*doctree.Page) *Site {
	site := &Site{
		Title:   root.Title,
		byPath:  make(map[string]*SitePage),
		outputs: make(map[string]bool),
	}
	if site.Title == "" {
		site.Title = DefaultTitle
	}

	manifest.Walk(root, func(n *doctree.ManifestNode) {
		if n.IsSection() || n.External {
			return
		}
		page, ok := pages[n.Path]
		if !ok || site.byPath[n.Path] != nil {
			return
		}
		site.add(&SitePage{Title: n.Title, Listed: true, Depth: n.Depth, Page: page})
	})

	var orphans []string
	for p := range pages {
		if site.byPath[p] == nil {
			orphans = append(orphans, p)
		}
	}
	sort.Strings(orphans)

	var prev *SitePage
	for _, sp := range site.Pages {
		if prev != nil {
			prev.Next = sp
			sp.Prev = prev
		}
		prev = sp
	}

	for _, p := range orphans {
		page := pages[p]
		site.add(&SitePage{Title: page.Title(), Page: page})
	}

	site.Nav = buildNav(root.Children, site)
	return site
}

func (s *Site) add(sp *SitePage) {
	sp.Path = sp.Page.Path
	sp.ID = PageID(sp.Path)
	sp.Output = OutputPath(sp.Path)
	if s.outputs[sp.Output] {
		wanted := sp.Output
		stem := strings.TrimSuffix(wanted, ".html")
		for n := 2; s.outputs[sp.Output]; n++ {
			sp.Output = fmt.Sprintf("%s-%d.html", stem, n)
		}
		s.Renamed = append(s.Renamed, Rename{Path: sp.Path, Wanted: wanted, Output: sp.Output, Owner: s.ownerOf(wanted)})
	}
	s.outputs[sp.Output] = true
	if sp.Title == "" {
		sp.Title = sp.Page.Title()
	}
	s.Pages = append(s.Pages, sp)
	s.byPath[sp.Path] = sp
}

func (s *Site) ownerOf(output string) string {
	for _, sp := range s.Pages {
		if sp.Output == output {
			return sp.Path
		}
	}
	return ""
}

// Lookup returns the page for a root-relative path.
func (s *Site) Lookup(p string) (*SitePage, bool) {
	sp, ok := s.byPath[p]
	return sp, ok
}

// lookupTarget maps a resolved link target to a page, treating directories
// as their README.md.
func (s *Site) lookupTarget(resolved, ref string) *SitePage {
	if !strings.HasSuffix(ref, "/") {
		if sp := s.byPath[resolved]; sp != nil {
			return sp
		}
	}
	return s.byPath[path.Join(resolved, "README.md")]
}

// Listed returns the listed pages in navigation order.
func (s *Site) Listed() []*SitePage {
	var out []*SitePage
	for _, sp := range s.Pages {
		if sp.Listed {
			out = append(out, sp)
		}
	}
	return out
}

func buildNav(nodes []*doctree.ManifestNode, site *Site) []*NavItem {
	var items []*NavItem
	for _, n := range nodes {
		item := &NavItem{Title: n.Title, Children: buildNav(n.Children, site)}
		switch {
		case n.External:
			item.URL = n.Path
		case !n.IsSection():
			if sp := site.byPath[n.Path]; sp != nil {
				item.Output = sp.Output
			}
		}
		items = append(items, item)
	}
	return items
}

// PageID returns a stable identifier for a page path.
func PageID(p string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("docbuild:page:"+p)).String()
}

// OutputPath maps a page path to its HTML file: README.md becomes
// index.html, anything else keeps its name with an .html extension.
func OutputPath(p string) string {
	dir, file := path.Split(p)
	stem := strings.TrimSuffix(file, path.Ext(file))
	if strings.EqualFold(stem, "README") {
		stem = "index"
	}
	return dir + stem + ".html"
}

// relHref returns the link from the page written at from to the file at to,
// both relative to the output root.
func relHref(from, to string) string {
	fromDir := path.Dir(from)
	if fromDir == "." {
		return to
	}
	fromParts := strings.Split(fromDir, "/")
	toParts := strings.Split(to, "/")

	common := 0
	for common < len(fromParts) && common < len(toParts)-1 && fromParts[common] == toParts[common] {
		common++
	}
	var sb strings.Builder
	for i := common; i < len(fromParts); i++ {
		sb.WriteString("../")
	}
	sb.WriteString(strings.Join(toParts[common:], "/"))
	return sb.String()
}
