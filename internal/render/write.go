package render

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/docbuild/internal/doctree"
	"github.com/dgallion1/docbuild/internal/linkcheck"
	"github.com/dgallion1/docbuild/internal/parser"
)

// Options controls what Build produces.
type Options struct {
	// Assets is the documentation root. Non-page files linked from pages
	// are copied from it. When nil, no assets are copied.
	Assets fs.FS
	// Docx adds book.docx to the output.
	Docx bool
}

// Output is a rendered site held in memory, keyed by slash-separated path
// relative to the output root.
type Output struct {
	Files map[string][]byte
}

// Paths returns the output file paths in sorted order.
func (o *Output) Paths() []string {
	paths := make([]string, 0, len(o.Files))
	for p := range o.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Build renders every page, the stylesheet, the site index and any linked
// assets. The result depends only on site and the asset contents.
func Build(site *Site, opts Options) (*Output, error) {
	out := &Output{Files: make(map[string][]byte)}
	pr := newPageRenderer(site)

	for _, sp := range site.Pages {
		body, err := pr.body(sp)
		if err != nil {
			return nil, err
		}
		data, err := executeLayout(site.view(sp, body))
		if err != nil {
			return nil, &RenderError{Op: "layout", Path: sp.Path, Err: err}
		}
		out.Files[sp.Output] = data
	}
	out.Files[StylesheetPath] = stylesheet

	index, err := MarshalIndex(BuildIndex(site))
	if err != nil {
		return nil, err
	}
	out.Files[IndexPath] = index

	if opts.Assets != nil {
		for _, p := range linkedAssets(site) {
			if _, taken := out.Files[p]; taken {
				continue
			}
			data, err := fs.ReadFile(opts.Assets, p)
			if err != nil {
				// Missing assets were already reported by the link checker.
				continue
			}
			out.Files[p] = data
		}
	}

	if opts.Docx {
		book, err := BuildBook(site)
		if err != nil {
			return nil, err
		}
		out.Files[BookPath] = book
	}
	return out, nil
}

// WriteSite builds site and writes it under outDir.
func WriteSite(site *Site, outDir string, opts Options) (*Output, error) {
	out, err := Build(site, opts)
	if err != nil {
		return nil, err
	}
	if err := out.WriteDir(outDir); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteDir writes every file under dir, creating directories as needed.
func (o *Output) WriteDir(dir string) error {
	for _, p := range o.Paths() {
		dst := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return &RenderError{Op: "mkdir", Path: p, Err: err}
		}
		if err := os.WriteFile(dst, o.Files[p], 0o644); err != nil {
			return &RenderError{Op: "write", Path: p, Err: err}
		}
	}
	return nil
}

// linkedAssets returns the root-relative paths of non-page files linked
// from any page, sorted and without duplicates.
func linkedAssets(site *Site) []string {
	seen := make(map[string]bool)
	add := func(from, target string) {
		target = strings.TrimSpace(target)
		if target == "" || strings.HasPrefix(target, "#") || linkcheck.IsExternal(target) {
			return
		}
		ref, _, _ := strings.Cut(target, "#")
		if i := strings.IndexByte(ref, '?'); i >= 0 {
			ref = ref[:i]
		}
		if ref == "" || strings.HasSuffix(ref, "/") {
			return
		}
		resolved, ok := linkcheck.Resolve(from, ref)
		if !ok || parser.IsMarkdown(resolved) || path.Ext(resolved) == "" {
			return
		}
		seen[resolved] = true
	}

	for _, sp := range site.Pages {
		for _, l := range sp.Page.Links {
			add(sp.Path, l.Target)
		}
		walkDirectives(sp.Directives(), func(ref string) { add(sp.Path, ref) })
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func walkDirectives(ds []*doctree.Directive, fn func(ref string)) {
	for _, d := range ds {
		if ref := referenceOf(d); ref != "" {
			fn(ref)
		}
		walkDirectives(d.Children, fn)
	}
}
