// Package loader reads Markdown pages from a documentation root.
package loader

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/adrg/frontmatter"
	"github.com/dgallion1/docbuild/internal/doctree"
	"github.com/dgallion1/docbuild/internal/parser"
)

// Loader reads pages through a read-only file system.
type Loader struct {
	fsys     fs.FS
	maxBytes int64
	md       *parser.MarkdownParser
}

// New creates a loader over fsys. maxBytes <= 0 disables the size limit.
func New(fsys fs.FS, maxBytes int64) *Loader {
	return &Loader{fsys: fsys, maxBytes: maxBytes, md: parser.NewMarkdownParser()}
}

// LoadPage reads one page with no size limit.
func LoadPage(p string, fsys fs.FS) (*doctree.Page, error) {
	return New(fsys, 0).Load(p)
}

// Load reads the page at p (root-relative, slash-separated), decodes it as
// UTF-8, splits off YAML front matter and records headings, links and anchors.
// Problems with the file come back as *LoadError.
func (l *Loader) Load(p string) (*doctree.Page, error) {
	if l.maxBytes > 0 {
		if info, err := fs.Stat(l.fsys, p); err == nil && info.Size() > l.maxBytes {
			return nil, &LoadError{Kind: TooLarge, Path: p, Cause: fmt.Errorf("%d bytes, limit %d", info.Size(), l.maxBytes)}
		}
	}

	data, err := fs.ReadFile(l.fsys, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Kind: NotFound, Path: p, Cause: err}
		}
		return nil, &LoadError{Kind: ReadError, Path: p, Cause: err}
	}

	if off := invalidUTF8Offset(data); off >= 0 {
		return nil, &LoadError{Kind: EncodingError, Path: p, Offset: off}
	}

	page := &doctree.Page{
		Path:    p,
		RawText: string(data),
		Hash:    ContentHashHex(data),
	}

	if bytes.HasPrefix(data, []byte("---")) || bytes.HasPrefix(data, []byte("+++")) {
		var meta map[string]any
		body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
		if err != nil {
			return nil, &LoadError{Kind: FrontMatterError, Path: p, Cause: err}
		}
		page.FrontMatter = meta
		page.BodyOffset = len(data) - len(body)
		if page.BodyOffset < 0 || page.BodyOffset > len(data) {
			page.BodyOffset = 0
		}
	}

	outline := l.md.Outline(page.RawText, page.BodyOffset)
	page.Headings = outline.Headings
	page.Links = outline.Links
	page.Anchors = outline.Anchors

	return page, nil
}

// Discover lists every Markdown page under the root in lexical order. The
// manifest itself, hidden files and directories, and paths matching any of the
// ignore patterns (path.Match syntax, matched against the full path and the
// base name) are skipped.
func Discover(fsys fs.FS, manifestPath string, ignore []string) ([]string, error) {
	var pages []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || ignored(p, d.Name(), ignore) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !parser.IsMarkdown(p) || p == manifestPath {
			return nil
		}
		pages = append(pages, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover pages: %w", err)
	}
	sort.Strings(pages)
	return pages, nil
}

func ignored(p, name string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, _ := path.Match(pat, p); ok {
			return true
		}
		if ok, _ := path.Match(pat, name); ok {
			return true
		}
	}
	return false
}

func invalidUTF8Offset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
