package doctree

import "fmt"

// ManifestNode is one entry in the table of contents.
type ManifestNode struct {
	Title    string          // Entry title (link text or plain text)
	Path     string          // Root-relative page path; empty for section headers
	Anchor   string          // Fragment from the manifest link, if any
	External bool            // Path is an absolute URL, not a page
	Mention  bool            // Written as [label](path "mention")
	Group    bool            // Created from a "## Heading" group line
	Line     int             // 1-based line in the manifest (0 for the root)
	Depth    int             // 0 for the root, 1 for top-level entries
	Children []*ManifestNode // Nested entries in listed order
}

// IsSection reports whether the node is a pure section header.
func (n *ManifestNode) IsSection() bool {
	return n.Path == ""
}

// Page is one loaded Markdown file. Only the loader mutates a Page.
type Page struct {
	Path        string         // Root-relative, slash-separated key
	RawText     string         // Full file contents, front matter included
	BodyOffset  int            // Offset in RawText where the Markdown body starts
	FrontMatter map[string]any // Decoded YAML front matter (nil when absent)
	Hash        string         // Hex SHA-256 of RawText

	Directives []*Directive // Top-level directives in document order
	Headings   []Heading
	Links      []Link
	Anchors    map[string]bool
}

// Body returns the Markdown body without front matter.
func (p *Page) Body() string {
	if p.BodyOffset <= 0 || p.BodyOffset > len(p.RawText) {
		return p.RawText
	}
	return p.RawText[p.BodyOffset:]
}

// Title returns the front matter title, the first heading, or the path.
func (p *Page) Title() string {
	if t, ok := p.FrontMatter["title"].(string); ok && t != "" {
		return t
	}
	if len(p.Headings) > 0 {
		return p.Headings[0].Text
	}
	return p.Path
}

// DirectiveKind names a GitBook block construct.
type DirectiveKind string

const (
	KindHint       DirectiveKind = "hint"
	KindCode       DirectiveKind = "code"
	KindTabs       DirectiveKind = "tabs"
	KindTab        DirectiveKind = "tab"
	KindStepper    DirectiveKind = "stepper"
	KindStep       DirectiveKind = "step"
	KindColumns    DirectiveKind = "columns"
	KindColumn     DirectiveKind = "column"
	KindContentRef DirectiveKind = "content-ref"
	KindEmbed      DirectiveKind = "embed"
	KindFile       DirectiveKind = "file"
	KindInclude    DirectiveKind = "include"
)

func (k DirectiveKind) String() string { return string(k) }

// Directive is one GitBook block construct found in a page.
type Directive struct {
	Kind        DirectiveKind
	StartOffset int // First byte of the opening tag
	EndOffset   int // One past the closing tag (or the opening tag when self-closing)
	OpenEnd     int // One past the opening tag
	CloseStart  int // First byte of the closing tag; equals EndOffset when self-closing
	Attributes  map[string]string
	SelfClosing bool
	Children    []*Directive
}

// Heading is a Markdown heading with its computed anchor.
type Heading struct {
	Level  int    `json:"level"`
	Text   string `json:"text"`
	Anchor string `json:"anchor"`
}

// Link is a link or image reference found in a page body.
type Link struct {
	Target string
	Offset int // Offset in RawText (approximate for links with no text)
	Line   int
	Image  bool
	HTML   bool // Came from an inline <a>/<img> tag
}

// Severity classifies a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one detected problem. Issues are values and never mutated after creation.
type Issue struct {
	Severity Severity `json:"severity"`
	Path     string   `json:"path"`
	Offset   int      `json:"offset"`
	Line     int      `json:"line"`
	Message  string   `json:"message"`
}

// Errorf builds an error-severity issue.
func Errorf(path string, offset, line int, format string, args ...any) Issue {
	return Issue{Severity: SeverityError, Path: path, Offset: offset, Line: line, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning-severity issue.
func Warnf(path string, offset, line int, format string, args ...any) Issue {
	return Issue{Severity: SeverityWarning, Path: path, Offset: offset, Line: line, Message: fmt.Sprintf(format, args...)}
}

func (i Issue) String() string {
	loc := i.Path
	if i.Line > 0 {
		loc = fmt.Sprintf("%s:%d", i.Path, i.Line)
	}
	return fmt.Sprintf("%s %s: %s", i.Severity, loc, i.Message)
}

// LineAt returns the 1-based line number of offset within text.
func LineAt(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	line := 1
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
		}
	}
	return line
}
