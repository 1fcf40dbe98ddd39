// Package linkcheck verifies that manifest entries, in-page links and
// directive references resolve to pages, anchors or asset files.
package linkcheck

import (
	"io/fs"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/docbuild/internal/doctree"
	"github.com/dgallion1/docbuild/internal/manifest"
	"github.com/dgallion1/docbuild/internal/parser"
)

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

// Checker resolves references against a loaded page set.
type Checker struct {
	// ManifestPath names the manifest in issues. Defaults to SUMMARY.md.
	ManifestPath string
	// Assets is the documentation root used for non-page targets. When nil,
	// asset links are not checked.
	Assets fs.FS
	// Unreadable holds paths that exist but failed to load. They were
	// already reported and are not reported again as missing.
	Unreadable map[string]bool
	// ParseAssets opens linked PDF, DOCX and text attachments to verify
	// they parse.
	ParseAssets bool
}

// CheckLinks checks manifest entries and page links with no asset checks.
func CheckLinks(root *doctree.ManifestNode, pages map[string]*doctree.Page) []doctree.Issue {
	return (&Checker{}).Check(root, pages)
}

// Check returns every reference problem. A manifest entry naming a missing
// page is an error; everything else is a warning.
func (c *Checker) Check(root *doctree.ManifestNode, pages map[string]*doctree.Page) []doctree.Issue {
	var issues []doctree.Issue
	issues = append(issues, c.checkManifest(root, pages)...)

	paths := make([]string, 0, len(pages))
	for p := range pages {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		issues = append(issues, c.checkPage(pages[p], pages)...)
	}
	issues = append(issues, Orphans(root, paths)...)
	return issues
}

func (c *Checker) manifestPath() string {
	if c.ManifestPath != "" {
		return c.ManifestPath
	}
	return manifest.DefaultPath
}

func (c *Checker) checkManifest(root *doctree.ManifestNode, pages map[string]*doctree.Page) []doctree.Issue {
	var issues []doctree.Issue
	name := c.manifestPath()
	listed := make(map[string]int)

	manifest.Walk(root, func(n *doctree.ManifestNode) {
		if n.IsSection() || n.External {
			return
		}
		page, ok := pages[n.Path]
		if !ok {
			if !c.Unreadable[n.Path] {
				issues = append(issues, doctree.Errorf(name, 0, n.Line, "manifest entry %q points at missing page %s", n.Title, n.Path))
			}
			return
		}
		if first, dup := listed[n.Path]; dup {
			issues = append(issues, doctree.Warnf(name, 0, n.Line, "page %s is already listed on line %d", n.Path, first))
		} else {
			listed[n.Path] = n.Line
		}
		if n.Anchor != "" && !page.Anchors[n.Anchor] {
			issues = append(issues, doctree.Warnf(name, 0, n.Line, "anchor #%s not found in %s", n.Anchor, n.Path))
		}
	})
	return issues
}

// reference is one outgoing target from a page.
type reference struct {
	target string
	offset int
	line   int
	// asset targets never resolve to pages
	asset bool
}

func (c *Checker) checkPage(page *doctree.Page, pages map[string]*doctree.Page) []doctree.Issue {
	var refs []reference
	for _, l := range page.Links {
		refs = append(refs, reference{target: l.Target, offset: l.Offset, line: l.Line, asset: l.Image})
	}
	refs = append(refs, directiveRefs(page, page.Directives)...)

	var issues []doctree.Issue
	for _, r := range refs {
		if msg := c.resolve(page, r, pages); msg != "" {
			issues = append(issues, doctree.Warnf(page.Path, r.offset, r.line, "%s", msg))
		}
	}
	return issues
}

func directiveRefs(page *doctree.Page, ds []*doctree.Directive) []reference {
	var refs []reference
	for _, d := range ds {
		var target string
		asset := false
		switch d.Kind {
		case doctree.KindContentRef:
			target = d.Attributes["url"]
		case doctree.KindFile:
			target, asset = d.Attributes["src"], true
		case doctree.KindInclude:
			target = d.Attributes["src"]
		}
		if target != "" {
			refs = append(refs, reference{
				target: target,
				offset: d.StartOffset,
				line:   doctree.LineAt(page.RawText, d.StartOffset),
				asset:  asset,
			})
		}
		refs = append(refs, directiveRefs(page, d.Children)...)
	}
	return refs
}

// resolve returns a problem description for r, or "" when it resolves.
func (c *Checker) resolve(page *doctree.Page, r reference, pages map[string]*doctree.Page) string {
	target := strings.TrimSpace(r.target)
	if target == "" || IsExternal(target) {
		return ""
	}

	ref, frag, _ := strings.Cut(target, "#")
	if i := strings.IndexByte(ref, '?'); i >= 0 {
		ref = ref[:i]
	}
	if unescaped, err := url.PathUnescape(frag); err == nil {
		frag = unescaped
	}

	if ref == "" {
		if frag != "" && !page.Anchors[frag] {
			return "anchor #" + frag + " not found"
		}
		return ""
	}

	resolved, ok := Resolve(page.Path, ref)
	if !ok {
		return "link " + r.target + " points outside the documentation root"
	}

	if !r.asset {
		if dest, ok := lookupPage(resolved, ref, pages); ok {
			if frag != "" && !dest.Anchors[frag] {
				return "anchor #" + frag + " not found in " + dest.Path
			}
			return ""
		}
		if parser.IsMarkdown(resolved) {
			if c.Unreadable[resolved] {
				return ""
			}
			return "broken link to " + resolved
		}
	}
	return c.checkAsset(resolved)
}

// lookupPage maps a resolved target to a page, treating directories as
// their README.md.
func lookupPage(resolved, ref string, pages map[string]*doctree.Page) (*doctree.Page, bool) {
	if !strings.HasSuffix(ref, "/") {
		if p, ok := pages[resolved]; ok {
			return p, true
		}
	}
	p, ok := pages[path.Join(resolved, "README.md")]
	return p, ok
}

func (c *Checker) checkAsset(resolved string) string {
	if c.Assets == nil {
		return ""
	}
	info, err := fs.Stat(c.Assets, resolved)
	if err != nil {
		return "missing file " + resolved
	}
	if info.IsDir() || !c.ParseAssets {
		return ""
	}
	ac := parser.CheckerFor(resolved)
	if ac == nil {
		return ""
	}
	data, err := fs.ReadFile(c.Assets, resolved)
	if err != nil {
		return "unreadable file " + resolved + ": " + err.Error()
	}
	if _, err := ac.Check(data); err != nil {
		return "unreadable file " + resolved + ": " + err.Error()
	}
	return ""
}

// IsExternal reports whether target is an absolute URL (any scheme) or a
// protocol-relative one.
func IsExternal(target string) bool {
	return schemeRe.MatchString(target) || strings.HasPrefix(target, "//")
}

// Resolve maps ref, as written in the page at from, to a root-relative path.
// Targets starting with "/" are root-relative. It reports false when the
// result escapes the root.
func Resolve(from, ref string) (string, bool) {
	if unescaped, err := url.PathUnescape(ref); err == nil {
		ref = unescaped
	}
	var p string
	if strings.HasPrefix(ref, "/") {
		p = path.Clean(strings.TrimPrefix(ref, "/"))
	} else {
		p = path.Join(path.Dir(from), ref)
	}
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", false
	}
	return p, true
}

// Orphans returns a warning for every page not listed in the manifest.
func Orphans(root *doctree.ManifestNode, paths []string) []doctree.Issue {
	listed := make(map[string]bool)
	for _, p := range manifest.PagePaths(root) {
		listed[p] = true
	}
	var issues []doctree.Issue
	for _, p := range paths {
		if !listed[p] {
			issues = append(issues, doctree.Warnf(p, 0, 0, "page is not listed in the manifest"))
		}
	}
	return issues
}
